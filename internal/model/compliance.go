package model

import "time"

const (
	FlagOpen          = "open"
	FlagInvestigating = "investigating"
	FlagResolved      = "resolved"
)

type ComplianceFlag struct {
	Base        `bson:",inline"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description,omitempty" bson:"description,omitempty"`
	Category    string     `json:"category" bson:"category"`
	Severity    string     `json:"severity" bson:"severity"`
	Status      string     `json:"status" bson:"status"`
	EntityType  string     `json:"entityType,omitempty" bson:"entityType,omitempty"`
	EntityID    string     `json:"entityId,omitempty" bson:"entityId,omitempty"`
	ReportedBy  string     `json:"reportedBy,omitempty" bson:"reportedBy,omitempty"`
	ResolvedBy  string     `json:"resolvedBy,omitempty" bson:"resolvedBy,omitempty"`
	Resolution  string     `json:"resolution,omitempty" bson:"resolution,omitempty"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty" bson:"resolvedAt,omitempty"`
}

type ComplianceStats struct {
	Total      int64   `json:"total"`
	Open       int64   `json:"open"`
	ByStatus   []Count `json:"byStatus"`
	BySeverity []Count `json:"bySeverity"`
	ByCategory []Count `json:"byCategory"`
}
