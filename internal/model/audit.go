package model

import "time"

type AuditLog struct {
	Base       `bson:",inline"`
	UserID     string    `json:"userId" bson:"userId"`
	Action     string    `json:"action" bson:"action"`
	Resource   string    `json:"resource" bson:"resource"`
	ResourceID string    `json:"resourceId,omitempty" bson:"resourceId,omitempty"`
	Details    string    `json:"details,omitempty" bson:"details,omitempty"`
	IPAddress  string    `json:"ipAddress,omitempty" bson:"ipAddress,omitempty"`
	UserAgent  string    `json:"userAgent,omitempty" bson:"userAgent,omitempty"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
}

const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

type SecurityEvent struct {
	Base        `bson:",inline"`
	EventType   string    `json:"eventType" bson:"eventType"`
	Severity    string    `json:"severity" bson:"severity"`
	UserID      string    `json:"userId,omitempty" bson:"userId,omitempty"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	IPAddress   string    `json:"ipAddress,omitempty" bson:"ipAddress,omitempty"`
	Resolved    bool      `json:"resolved" bson:"resolved"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
}

type UserActivity struct {
	Base         `bson:",inline"`
	UserID       string    `json:"userId" bson:"userId"`
	ActivityType string    `json:"activityType" bson:"activityType"`
	Description  string    `json:"description,omitempty" bson:"description,omitempty"`
	IPAddress    string    `json:"ipAddress,omitempty" bson:"ipAddress,omitempty"`
	Timestamp    time.Time `json:"timestamp" bson:"timestamp"`
}

// ComplianceReport summarises audit activity over a date range.
type ComplianceReport struct {
	StartDate             time.Time `json:"startDate"`
	EndDate               time.Time `json:"endDate"`
	TotalAuditLogs        int64     `json:"totalAuditLogs"`
	TotalSecurityEvents   int64     `json:"totalSecurityEvents"`
	TotalUserActivities   int64     `json:"totalUserActivities"`
	UniqueUsers           int64     `json:"uniqueUsers"`
	SecurityIncidents     int64     `json:"securityIncidents"`
	ComplianceScore       int       `json:"complianceScore"`
	ActionDistribution    []Count   `json:"actionDistribution"`
	ResourceDistribution  []Count   `json:"resourceDistribution"`
	EventTypeDistribution []Count   `json:"eventTypeDistribution"`
	GeneratedAt           time.Time `json:"generatedAt"`
}

type AuditAnalytics struct {
	Period              string       `json:"period"`
	TotalLogs           int64        `json:"totalLogs"`
	TotalSecurityEvents int64        `json:"totalSecurityEvents"`
	TopUsers            []Count      `json:"topUsers"`
	TopActions          []Count      `json:"topActions"`
	TopResources        []Count      `json:"topResources"`
	DailyActivity       []DailyCount `json:"dailyActivity"`
}
