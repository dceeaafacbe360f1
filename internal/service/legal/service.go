package legal

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/jwalitptl/backoffice-api/internal/email"
	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/internal/repository"
	"github.com/jwalitptl/backoffice-api/internal/service"
	"github.com/jwalitptl/backoffice-api/internal/service/audit"
	apperrors "github.com/jwalitptl/backoffice-api/pkg/errors"
	"github.com/jwalitptl/backoffice-api/pkg/messaging"
	"github.com/jwalitptl/backoffice-api/pkg/query"
)

const (
	CodeContractNotFound      = "CONTRACT_NOT_FOUND"
	CodeContractAlreadySigned = "CONTRACT_ALREADY_SIGNED"
	CodeDisputeNotFound       = "DISPUTE_NOT_FOUND"
)

// ExpiryWindow is how far ahead a contract counts as expiring.
const ExpiryWindow = 30 * 24 * time.Hour

const (
	disputePrefix   = "DSP-"
	disputeOpen     = "open"
	defaultPriority = "medium"
	documentActive  = "active"
)

type ContractFilter struct {
	Status string
	Type   string
	Search string
}

type DisputeFilter struct {
	Status   string
	Type     string
	Priority string
}

type DocumentFilter struct {
	Category string
	Status   string
	Search   string
}

type ContractUpdate struct {
	Title        string     `json:"title" bson:"title,omitempty"`
	Type         string     `json:"type" bson:"type,omitempty"`
	Counterparty string     `json:"counterparty" bson:"counterparty,omitempty"`
	Status       string     `json:"status" bson:"status,omitempty" binding:"omitempty,oneof=draft active expired terminated"`
	Value        *float64   `json:"value" bson:"value,omitempty" binding:"omitempty,gte=0"`
	StartDate    *time.Time `json:"startDate" bson:"startDate,omitempty"`
	EndDate      *time.Time `json:"endDate" bson:"endDate,omitempty"`
}

type DisputeUpdate struct {
	Description  string   `json:"description" bson:"description,omitempty"`
	Status       string   `json:"status" bson:"status,omitempty" binding:"omitempty,oneof=open investigating negotiating resolved closed"`
	Priority     string   `json:"priority" bson:"priority,omitempty" binding:"omitempty,oneof=low medium high critical"`
	ContactEmail string   `json:"contactEmail" bson:"contactEmail,omitempty" binding:"omitempty,email"`
	Amount       *float64 `json:"amount" bson:"amount,omitempty" binding:"omitempty,gte=0"`
	Resolution   string   `json:"resolution" bson:"resolution,omitempty"`
}

type Service struct {
	store     *repository.Store
	mailer    email.Service
	publisher messaging.Publisher
	auditor   *audit.Logger
	now       func() time.Time
}

func NewService(store *repository.Store, mailer email.Service, publisher messaging.Publisher, auditor *audit.Logger) *Service {
	return &Service{
		store:     store,
		mailer:    mailer,
		publisher: publisher,
		auditor:   auditor,
		now:       time.Now,
	}
}

func (s *Service) ListContracts(ctx context.Context, f ContractFilter, page query.Pagination) (*repository.Page[model.Contract], error) {
	filter, err := query.NewFilter().
		Eq("status", f.Status).
		Eq("type", f.Type).
		Search(f.Search, "title", "counterparty").
		Build()
	if err != nil {
		return nil, err
	}
	return s.store.Contracts.FindPage(ctx, filter, page, query.Desc("createdAt"))
}

func (s *Service) GetContract(ctx context.Context, id string) (*model.Contract, error) {
	return service.Get(ctx, s.store.Contracts, id, CodeContractNotFound, "contract")
}

func (s *Service) CreateContract(ctx context.Context, c *model.Contract, actor string) error {
	if c.Status == "" {
		c.Status = model.ContractDraft
	}
	c.CreatedBy = actor
	if err := s.store.Contracts.Create(ctx, c); err != nil {
		return fmt.Errorf("failed to create contract: %w", err)
	}
	s.auditor.Log(ctx, audit.Entry{UserID: actor, Action: "create", Resource: repository.CollContracts, ResourceID: c.ID.Hex()})
	return nil
}

func (s *Service) UpdateContract(ctx context.Context, id string, patch ContractUpdate, actor string) (*model.Contract, error) {
	c, err := service.Update(ctx, s.store.Contracts, id, patch, CodeContractNotFound, "contract")
	if err != nil {
		return nil, err
	}
	s.auditor.Log(ctx, audit.Entry{UserID: actor, Action: "update", Resource: repository.CollContracts, ResourceID: id})
	return c, nil
}

// SignContract activates a contract. A contract can be signed once.
// SignContract activates an unsigned contract. The unsigned check and the
// write are a single conditional update, so of two concurrent signers only
// one succeeds and the other gets a conflict.
func (s *Service) SignContract(ctx context.Context, id, actor string) (*model.Contract, error) {
	c, err := s.GetContract(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.SignedAt != nil {
		return nil, apperrors.Conflict(CodeContractAlreadySigned, "contract is already signed")
	}

	now := s.now().UTC()
	patch := bson.M{
		"status":   model.ContractActive,
		"signedBy": actor,
		"signedAt": now,
	}
	if c.StartDate == nil {
		patch["startDate"] = now
	}
	unsigned := bson.M{"_id": c.ID, "signedAt": nil}
	if c, err = s.store.Contracts.FindOneAndUpdate(ctx, unsigned, patch, false); err != nil {
		return nil, fmt.Errorf("failed to sign contract: %w", err)
	}
	if c == nil {
		return nil, apperrors.Conflict(CodeContractAlreadySigned, "contract is already signed")
	}

	s.auditor.Log(ctx, audit.Entry{UserID: actor, Action: "sign", Resource: repository.CollContracts, ResourceID: id})
	messaging.Emit(ctx, s.publisher, messaging.NewEvent(messaging.EventContractSigned, actor, c))
	return c, nil
}

func (s *Service) ListDisputes(ctx context.Context, f DisputeFilter, page query.Pagination) (*repository.Page[model.Dispute], error) {
	filter, err := query.NewFilter().
		Eq("status", f.Status).
		Eq("type", f.Type).
		Eq("priority", f.Priority).
		Build()
	if err != nil {
		return nil, err
	}
	return s.store.Disputes.FindPage(ctx, filter, page, query.Desc("createdAt"))
}

func (s *Service) CreateDispute(ctx context.Context, d *model.Dispute, actor string) error {
	d.Number = service.Reference(disputePrefix)
	if d.Status == "" {
		d.Status = disputeOpen
	}
	if d.Priority == "" {
		d.Priority = defaultPriority
	}
	if err := s.store.Disputes.Create(ctx, d); err != nil {
		return fmt.Errorf("failed to create dispute: %w", err)
	}
	s.auditor.Log(ctx, audit.Entry{UserID: actor, Action: "create", Resource: repository.CollDisputes, ResourceID: d.ID.Hex()})
	s.notify(ctx, d)
	return nil
}

// UpdateDispute applies patch and notifies the dispute contact when the
// status changes.
func (s *Service) UpdateDispute(ctx context.Context, id string, patch DisputeUpdate, actor string) (*model.Dispute, error) {
	before, err := service.Get(ctx, s.store.Disputes, id, CodeDisputeNotFound, "dispute")
	if err != nil {
		return nil, err
	}
	set, err := repository.SetFields(patch)
	if err != nil {
		return nil, err
	}
	if patch.Status == model.DisputeResolved && before.ResolvedAt == nil {
		set["resolvedAt"] = s.now().UTC()
	}
	d, err := service.Update(ctx, s.store.Disputes, id, set, CodeDisputeNotFound, "dispute")
	if err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, audit.Entry{UserID: actor, Action: "update", Resource: repository.CollDisputes, ResourceID: id})
	if patch.Status != "" && patch.Status != before.Status {
		s.notify(ctx, d)
	}
	return d, nil
}

func (s *Service) notify(ctx context.Context, d *model.Dispute) {
	if d.ContactEmail == "" {
		return
	}
	if err := s.mailer.SendDisputeNotice(ctx, d.ContactEmail, d.Number, d.Status); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("dispute", d.Number).Msg("failed to send dispute notice")
	}
}

func (s *Service) ListDocuments(ctx context.Context, f DocumentFilter, page query.Pagination) (*repository.Page[model.LegalDocument], error) {
	filter, err := query.NewFilter().
		Eq("category", f.Category).
		Eq("status", f.Status).
		Search(f.Search, "title").
		Build()
	if err != nil {
		return nil, err
	}
	return s.store.LegalDocuments.FindPage(ctx, filter, page, query.Desc("createdAt"))
}

func (s *Service) CreateDocument(ctx context.Context, doc *model.LegalDocument, actor string) error {
	if doc.Status == "" {
		doc.Status = documentActive
	}
	doc.UploadedBy = actor
	if err := s.store.LegalDocuments.Create(ctx, doc); err != nil {
		return fmt.Errorf("failed to create legal document: %w", err)
	}
	return nil
}

// Stats summarises the contract book and the dispute queue.
// Analytics reports contract, dispute and document totals along with how
// many contracts and disputes were opened within the trailing period.
func (s *Service) Analytics(ctx context.Context, label string, period time.Duration) (*model.LegalAnalytics, error) {
	now := s.now().UTC()
	recent := bson.M{"createdAt": bson.M{"$gte": now.Add(-period)}}
	expiring := bson.M{"endDate": bson.M{"$gte": now, "$lte": now.Add(ExpiryWindow)}}
	out := &model.LegalAnalytics{Period: label, GeneratedAt: now}

	var err error
	c := &out.Contracts
	if c.Total, err = s.store.Contracts.Count(ctx, nil); err != nil {
		return nil, err
	}
	if c.Active, err = s.store.Contracts.Count(ctx, bson.M{"status": model.ContractActive}); err != nil {
		return nil, err
	}
	if c.Expiring, err = s.store.Contracts.Count(ctx, expiring); err != nil {
		return nil, err
	}
	if c.New, err = s.store.Contracts.Count(ctx, recent); err != nil {
		return nil, err
	}
	if c.ByType, err = repository.Counts(ctx, s.store.Contracts, nil, "type", 0); err != nil {
		return nil, err
	}

	d := &out.Disputes
	if d.Total, err = s.store.Disputes.Count(ctx, nil); err != nil {
		return nil, err
	}
	if d.Open, err = s.store.Disputes.Count(ctx, bson.M{"status": disputeOpen}); err != nil {
		return nil, err
	}
	if d.Resolved, err = s.store.Disputes.Count(ctx, bson.M{"status": model.DisputeResolved}); err != nil {
		return nil, err
	}
	if d.New, err = s.store.Disputes.Count(ctx, recent); err != nil {
		return nil, err
	}
	if d.ByType, err = repository.Counts(ctx, s.store.Disputes, nil, "type", 0); err != nil {
		return nil, err
	}

	if out.Documents, err = s.store.LegalDocuments.Count(ctx, nil); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Stats(ctx context.Context) (*model.LegalStats, error) {
	now := s.now().UTC()
	active := bson.M{"status": model.ContractActive}
	expiring := bson.M{
		"status":  model.ContractActive,
		"endDate": bson.M{"$gte": now, "$lte": now.Add(ExpiryWindow)},
	}

	var (
		out model.LegalStats
		err error
	)
	if out.ActiveContracts, err = s.store.Contracts.Count(ctx, active); err != nil {
		return nil, err
	}
	if out.ExpiringContracts, err = s.store.Contracts.Count(ctx, expiring); err != nil {
		return nil, err
	}
	open := bson.A{}
	for _, st := range model.OpenDisputeStatuses {
		open = append(open, st)
	}
	if out.OpenDisputes, err = s.store.Disputes.Count(ctx, bson.M{"status": bson.M{"$in": open}}); err != nil {
		return nil, err
	}
	if out.ResolvedDisputes, err = s.store.Disputes.Count(ctx, bson.M{"status": model.DisputeResolved}); err != nil {
		return nil, err
	}
	total, err := repository.SumOf(ctx, s.store.Contracts, active, "value")
	if err != nil {
		return nil, err
	}
	out.TotalContractValue = total.Total
	if out.ContractsByType, err = repository.Counts(ctx, s.store.Contracts, nil, "type", 0); err != nil {
		return nil, err
	}
	return &out, nil
}
