package model

import "time"

const (
	AlertOpen         = "open"
	AlertAcknowledged = "acknowledged"
	AlertResolved     = "resolved"
)

type Alert struct {
	Base           `bson:",inline"`
	Type           string     `json:"type" bson:"type"`
	Severity       string     `json:"severity" bson:"severity"`
	Status         string     `json:"status" bson:"status"`
	Title          string     `json:"title" bson:"title"`
	Message        string     `json:"message,omitempty" bson:"message,omitempty"`
	Source         string     `json:"source,omitempty" bson:"source,omitempty"`
	Timestamp      time.Time  `json:"timestamp" bson:"timestamp"`
	AcknowledgedBy string     `json:"acknowledgedBy,omitempty" bson:"acknowledgedBy,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty" bson:"acknowledgedAt,omitempty"`
	ResolvedBy     string     `json:"resolvedBy,omitempty" bson:"resolvedBy,omitempty"`
	ResolvedAt     *time.Time `json:"resolvedAt,omitempty" bson:"resolvedAt,omitempty"`
}

// Setting is a single key of a settings category.
type Setting struct {
	Base      `bson:",inline"`
	Category  string      `json:"category" bson:"category"`
	Key       string      `json:"key" bson:"key"`
	Value     interface{} `json:"value" bson:"value"`
	UpdatedBy string      `json:"updatedBy,omitempty" bson:"updatedBy,omitempty"`
}

const SystemConfigKey = "global"

type SystemConfig struct {
	Base      `bson:",inline"`
	Key       string                 `json:"key" bson:"key"`
	Config    map[string]interface{} `json:"config" bson:"config"`
	UpdatedBy string                 `json:"updatedBy,omitempty" bson:"updatedBy,omitempty"`
}

type SystemHealth struct {
	Status      string           `json:"status"`
	Database    string           `json:"database"`
	Collections map[string]int64 `json:"collections"`
	CheckedAt   time.Time        `json:"checkedAt"`
}
