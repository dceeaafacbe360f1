package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/pkg/metrics"
)

// Collection names
const (
	CollAuditLogs        = "audit_logs"
	CollSecurityEvents   = "security_events"
	CollUserActivities   = "user_activities"
	CollUsers            = "users"
	CollBookings         = "bookings"
	CollPayments         = "payments"
	CollVehicles         = "vehicles"
	CollAlerts           = "system_alerts"
	CollSettings         = "settings"
	CollSystemConfig     = "system_config"
	CollCustomers        = "customers"
	CollCRMLeads         = "crm_leads"
	CollTickets          = "support_tickets"
	CollHealthScores     = "customer_health_scores"
	CollCriticalAccounts = "critical_accounts"
	CollComplianceFlags  = "compliance_flags"
	CollEmployees        = "employees"
	CollPayroll          = "payroll"
	CollJobPostings      = "job_postings"
	CollContracts        = "contracts"
	CollDisputes         = "disputes"
	CollLegalDocuments   = "legal_documents"
	CollChatChannels     = "chat_channels"
	CollChatMessages     = "chat_messages"
	CollCampaigns        = "marketing_campaigns"
	CollMarketingLeads   = "marketing_leads"
	CollPromotions       = "promotions"
	CollJobApplications  = "job_applications"
	CollCounters         = "counters"
)

// UniqueKeys lists, per collection, the field sets no two documents may
// share. The mongo driver builds unique indexes from it and the memory
// driver checks it on every write.
var UniqueKeys = map[string][][]string{
	CollSettings:     {{"category", "key"}},
	CollSystemConfig: {{"key"}},
	CollTickets:      {{"ticketNumber"}},
	CollEmployees:    {{"email"}, {"employeeId"}},
	CollPromotions:   {{"code"}},
}

// Store groups a typed facade per collection over one Database.
type Store struct {
	db Database

	AuditLogs      *Facade[model.AuditLog]
	SecurityEvents *Facade[model.SecurityEvent]
	UserActivities *Facade[model.UserActivity]

	Users    *Facade[model.User]
	Bookings *Facade[model.Booking]
	Payments *Facade[model.Payment]
	Vehicles *Facade[model.Vehicle]

	Alerts       *Facade[model.Alert]
	Settings     *Facade[model.Setting]
	SystemConfig *Facade[model.SystemConfig]

	Customers        *Facade[model.Customer]
	CRMLeads         *Facade[model.Lead]
	Tickets          *Facade[model.Ticket]
	HealthScores     *Facade[model.HealthScore]
	CriticalAccounts *Facade[model.CriticalAccount]

	ComplianceFlags *Facade[model.ComplianceFlag]

	Employees       *Facade[model.Employee]
	Payroll         *Facade[model.PayrollRecord]
	JobPostings     *Facade[model.JobPosting]
	JobApplications *Facade[model.JobApplication]

	Contracts      *Facade[model.Contract]
	Disputes       *Facade[model.Dispute]
	LegalDocuments *Facade[model.LegalDocument]

	ChatChannels *Facade[model.ChatChannel]
	ChatMessages *Facade[model.ChatMessage]

	Campaigns      *Facade[model.Campaign]
	MarketingLeads *Facade[model.MarketingLead]
	Promotions     *Facade[model.Promotion]

	Counters *Facade[model.Counter]
}

func NewStore(db Database, m *metrics.Metrics) *Store {
	return &Store{
		db: db,

		AuditLogs:      NewFacade[model.AuditLog](db.Collection(CollAuditLogs), m),
		SecurityEvents: NewFacade[model.SecurityEvent](db.Collection(CollSecurityEvents), m),
		UserActivities: NewFacade[model.UserActivity](db.Collection(CollUserActivities), m),

		Users:    NewFacade[model.User](db.Collection(CollUsers), m),
		Bookings: NewFacade[model.Booking](db.Collection(CollBookings), m),
		Payments: NewFacade[model.Payment](db.Collection(CollPayments), m),
		Vehicles: NewFacade[model.Vehicle](db.Collection(CollVehicles), m),

		Alerts:       NewFacade[model.Alert](db.Collection(CollAlerts), m),
		Settings:     NewFacade[model.Setting](db.Collection(CollSettings), m),
		SystemConfig: NewFacade[model.SystemConfig](db.Collection(CollSystemConfig), m),

		Customers:        NewFacade[model.Customer](db.Collection(CollCustomers), m),
		CRMLeads:         NewFacade[model.Lead](db.Collection(CollCRMLeads), m),
		Tickets:          NewFacade[model.Ticket](db.Collection(CollTickets), m),
		HealthScores:     NewFacade[model.HealthScore](db.Collection(CollHealthScores), m),
		CriticalAccounts: NewFacade[model.CriticalAccount](db.Collection(CollCriticalAccounts), m),

		ComplianceFlags: NewFacade[model.ComplianceFlag](db.Collection(CollComplianceFlags), m),

		Employees:       NewFacade[model.Employee](db.Collection(CollEmployees), m),
		Payroll:         NewFacade[model.PayrollRecord](db.Collection(CollPayroll), m),
		JobPostings:     NewFacade[model.JobPosting](db.Collection(CollJobPostings), m),
		JobApplications: NewFacade[model.JobApplication](db.Collection(CollJobApplications), m),

		Contracts:      NewFacade[model.Contract](db.Collection(CollContracts), m),
		Disputes:       NewFacade[model.Dispute](db.Collection(CollDisputes), m),
		LegalDocuments: NewFacade[model.LegalDocument](db.Collection(CollLegalDocuments), m),

		ChatChannels: NewFacade[model.ChatChannel](db.Collection(CollChatChannels), m),
		ChatMessages: NewFacade[model.ChatMessage](db.Collection(CollChatMessages), m),

		Campaigns:      NewFacade[model.Campaign](db.Collection(CollCampaigns), m),
		MarketingLeads: NewFacade[model.MarketingLead](db.Collection(CollMarketingLeads), m),
		Promotions:     NewFacade[model.Promotion](db.Collection(CollPromotions), m),

		Counters: NewFacade[model.Counter](db.Collection(CollCounters), m),
	}
}

// NextSequence atomically increments the named counter and returns its new
// value. The first call for a name returns 1. Values are never handed out
// twice, even after the records that used them are deleted.
func (s *Store) NextSequence(ctx context.Context, name string) (int64, error) {
	c, err := s.Counters.FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": 1}}, true)
	if err != nil {
		return 0, fmt.Errorf("failed to advance sequence %s: %w", name, err)
	}
	if c == nil {
		return 0, fmt.Errorf("failed to advance sequence %s: counter not returned", name)
	}
	return c.Seq, nil
}

// Ping checks that the underlying store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrDisconnected, err)
	}
	return nil
}

// CollectionCounts returns the document count of each named collection.
func (s *Store) CollectionCounts(ctx context.Context, names ...string) (map[string]int64, error) {
	out := make(map[string]int64, len(names))
	for _, name := range names {
		n, err := NewFacade[struct{}](s.db.Collection(name), nil).Count(ctx, nil)
		if err != nil {
			return nil, err
		}
		out[name] = n
	}
	return out, nil
}
