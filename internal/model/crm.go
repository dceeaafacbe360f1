package model

import "time"

type Customer struct {
	Base       `bson:",inline"`
	Name       string   `json:"name" bson:"name"`
	Email      string   `json:"email" bson:"email"`
	Phone      string   `json:"phone,omitempty" bson:"phone,omitempty"`
	Company    string   `json:"company,omitempty" bson:"company,omitempty"`
	Status     string   `json:"status" bson:"status"`
	Source     string   `json:"source" bson:"source"`
	Tags       []string `json:"tags,omitempty" bson:"tags,omitempty"`
	Value      float64  `json:"value,omitempty" bson:"value,omitempty"`
	AssignedTo string   `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
}

type Lead struct {
	Base       `bson:",inline"`
	Name       string `json:"name" bson:"name"`
	Email      string `json:"email" bson:"email"`
	Company    string `json:"company,omitempty" bson:"company,omitempty"`
	Status     string `json:"status" bson:"status"`
	Source     string `json:"source" bson:"source"`
	Score      int    `json:"score" bson:"score"`
	AssignedTo string `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
}

const (
	TicketOpen     = "open"
	TicketResolved = "resolved"
	TicketClosed   = "closed"
)

type Ticket struct {
	Base        `bson:",inline"`
	Number      string     `json:"ticketNumber" bson:"ticketNumber"`
	CustomerID  string     `json:"customerId,omitempty" bson:"customerId,omitempty"`
	Subject     string     `json:"subject" bson:"subject"`
	Description string     `json:"description,omitempty" bson:"description,omitempty"`
	Priority    string     `json:"priority" bson:"priority"`
	Status      string     `json:"status" bson:"status"`
	AssignedTo  string     `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty" bson:"resolvedAt,omitempty"`
}

type HealthScore struct {
	Base       `bson:",inline"`
	CustomerID string    `json:"customerId" bson:"customerId"`
	Score      int       `json:"score" bson:"score"`
	RiskLevel  string    `json:"riskLevel" bson:"riskLevel"`
	Factors    []string  `json:"factors,omitempty" bson:"factors,omitempty"`
	Date       time.Time `json:"date" bson:"date"`
}

type CriticalAccount struct {
	Base       `bson:",inline"`
	CustomerID string          `json:"customerId" bson:"customerId"`
	Name       string          `json:"name" bson:"name"`
	Reason     string          `json:"reason" bson:"reason"`
	RiskLevel  string          `json:"riskLevel" bson:"riskLevel"`
	Status     string          `json:"status" bson:"status"`
	Owner      string          `json:"owner,omitempty" bson:"owner,omitempty"`
	Revenue    float64         `json:"revenue,omitempty" bson:"revenue,omitempty"`
	Actions    []AccountAction `json:"actions,omitempty" bson:"actions,omitempty"`
}

// AccountAction is a follow-up logged against a critical account.
type AccountAction struct {
	ID         string    `json:"id" bson:"id"`
	Action     string    `json:"action" bson:"action"`
	Notes      string    `json:"notes,omitempty" bson:"notes,omitempty"`
	Priority   string    `json:"priority" bson:"priority"`
	Status     string    `json:"status" bson:"status"`
	AssignedTo string    `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

type CRMAnalytics struct {
	TotalCustomers    int64   `json:"totalCustomers"`
	CustomersByStatus []Count `json:"customersByStatus"`
	CustomersBySource []Count `json:"customersBySource"`
	TicketsByStatus   []Count `json:"ticketsByStatus"`
	OpenTickets       int64   `json:"openTickets"`
	CriticalAccounts  int64   `json:"criticalAccounts"`
}
