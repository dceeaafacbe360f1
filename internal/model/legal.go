package model

import "time"

const (
	ContractDraft   = "draft"
	ContractActive  = "active"
	ContractExpired = "expired"
)

type Contract struct {
	Base         `bson:",inline"`
	Title        string     `json:"title" bson:"title"`
	Type         string     `json:"type" bson:"type"`
	Counterparty string     `json:"counterparty" bson:"counterparty"`
	Status       string     `json:"status" bson:"status"`
	Value        float64    `json:"value" bson:"value"`
	StartDate    *time.Time `json:"startDate,omitempty" bson:"startDate,omitempty"`
	EndDate      *time.Time `json:"endDate,omitempty" bson:"endDate,omitempty"`
	SignedBy     string     `json:"signedBy,omitempty" bson:"signedBy,omitempty"`
	SignedAt     *time.Time `json:"signedAt,omitempty" bson:"signedAt,omitempty"`
	CreatedBy    string     `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
}

// Dispute statuses that still need attention.
var OpenDisputeStatuses = []string{"open", "investigating", "negotiating"}

const DisputeResolved = "resolved"

type Dispute struct {
	Base         `bson:",inline"`
	Number       string     `json:"disputeNumber" bson:"disputeNumber"`
	Title        string     `json:"title" bson:"title"`
	Description  string     `json:"description,omitempty" bson:"description,omitempty"`
	Type         string     `json:"type" bson:"type"`
	Status       string     `json:"status" bson:"status"`
	Priority     string     `json:"priority" bson:"priority"`
	Counterparty string     `json:"counterparty,omitempty" bson:"counterparty,omitempty"`
	ContractID   string     `json:"contractId,omitempty" bson:"contractId,omitempty"`
	ContactEmail string     `json:"contactEmail,omitempty" bson:"contactEmail,omitempty"`
	Amount       float64    `json:"amount,omitempty" bson:"amount,omitempty"`
	Resolution   string     `json:"resolution,omitempty" bson:"resolution,omitempty"`
	ResolvedAt   *time.Time `json:"resolvedAt,omitempty" bson:"resolvedAt,omitempty"`
}

type LegalDocument struct {
	Base       `bson:",inline"`
	Title      string `json:"title" bson:"title"`
	Category   string `json:"category" bson:"category"`
	URL        string `json:"url" bson:"url"`
	Version    string `json:"version,omitempty" bson:"version,omitempty"`
	Status     string `json:"status" bson:"status"`
	UploadedBy string `json:"uploadedBy,omitempty" bson:"uploadedBy,omitempty"`
}

type LegalStats struct {
	ActiveContracts    int64   `json:"activeContracts"`
	ExpiringContracts  int64   `json:"expiringContracts"`
	OpenDisputes       int64   `json:"openDisputes"`
	ResolvedDisputes   int64   `json:"resolvedDisputes"`
	TotalContractValue float64 `json:"totalContractValue"`
	ContractsByType    []Count `json:"contractsByType"`
}

type ContractSummary struct {
	Total    int64   `json:"total"`
	Active   int64   `json:"active"`
	Expiring int64   `json:"expiring"`
	New      int64   `json:"new"`
	ByType   []Count `json:"types"`
}

type DisputeSummary struct {
	Total    int64   `json:"total"`
	Open     int64   `json:"open"`
	Resolved int64   `json:"resolved"`
	New      int64   `json:"new"`
	ByType   []Count `json:"types"`
}

type LegalAnalytics struct {
	Period      string          `json:"period"`
	Contracts   ContractSummary `json:"contracts"`
	Disputes    DisputeSummary  `json:"disputes"`
	Documents   int64           `json:"documents"`
	GeneratedAt time.Time       `json:"generatedAt"`
}
