package marketing

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/jwalitptl/backoffice-api/internal/cache"
	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/internal/repository"
	"github.com/jwalitptl/backoffice-api/internal/service"
	apperrors "github.com/jwalitptl/backoffice-api/pkg/errors"
	"github.com/jwalitptl/backoffice-api/pkg/query"
)

const (
	CodeCampaignNotFound     = "CAMPAIGN_NOT_FOUND"
	CodeLeadNotFound         = "LEAD_NOT_FOUND"
	CodePromotionExists      = "PROMOTION_CODE_EXISTS"
	CodePromotionNotFound    = "PROMOTION_NOT_FOUND"
	CodePromotionExpired     = "PROMOTION_EXPIRED"
	CodePromotionLimit       = "PROMOTION_LIMIT_REACHED"
	CodeMinimumOrderNotMet   = "MINIMUM_ORDER_VALUE_NOT_MET"
	CodeInvalidPromotionDate = "INVALID_PROMOTION_DATES"
)

const (
	campaignDraft   = "draft"
	campaignActive  = "active"
	promotionActive = "active"
	leadNew         = "new"
	leadConverted   = "converted"
	defaultSource   = "website"
	recentCampaigns = 5
)

type CampaignFilter struct {
	Status string
	Type   string
	Search string
}

type LeadFilter struct {
	Status     string
	Source     string
	CampaignID string
}

type PromotionFilter struct {
	Status string
	Search string
}

type CampaignUpdate struct {
	Name           string                 `json:"name" bson:"name,omitempty"`
	Description    string                 `json:"description" bson:"description,omitempty"`
	Status         string                 `json:"status" bson:"status,omitempty" binding:"omitempty,oneof=draft scheduled active paused completed"`
	Budget         *float64               `json:"budget" bson:"budget,omitempty" binding:"omitempty,gte=0"`
	Spent          *float64               `json:"spent" bson:"spent,omitempty" binding:"omitempty,gte=0"`
	TargetAudience string                 `json:"targetAudience" bson:"targetAudience,omitempty"`
	StartDate      *time.Time             `json:"startDate" bson:"startDate,omitempty"`
	EndDate        *time.Time             `json:"endDate" bson:"endDate,omitempty"`
	Metrics        *model.CampaignMetrics `json:"metrics" bson:"metrics,omitempty"`
}

type LeadUpdate struct {
	Status     string `json:"status" bson:"status,omitempty" binding:"omitempty,oneof=new contacted qualified converted lost"`
	CampaignID string `json:"campaignId" bson:"campaignId,omitempty"`
	Score      *int   `json:"score" bson:"score,omitempty" binding:"omitempty,gte=0,lte=100"`
}

type Service struct {
	store *repository.Store
	cache *cache.Cache
	now   func() time.Time
}

func NewService(store *repository.Store, c *cache.Cache) *Service {
	return &Service{store: store, cache: c, now: time.Now}
}

func (s *Service) ListCampaigns(ctx context.Context, f CampaignFilter, page query.Pagination) (*repository.Page[model.Campaign], error) {
	filter, err := query.NewFilter().
		Eq("status", f.Status).
		Eq("type", f.Type).
		Search(f.Search, "name", "description").
		Build()
	if err != nil {
		return nil, err
	}
	return s.store.Campaigns.FindPage(ctx, filter, page, query.Desc("createdAt"))
}

func (s *Service) GetCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	return service.Get(ctx, s.store.Campaigns, id, CodeCampaignNotFound, "campaign")
}

func (s *Service) CreateCampaign(ctx context.Context, c *model.Campaign, actor string) error {
	if c.Status == "" {
		c.Status = campaignDraft
	}
	c.CreatedBy = actor
	if err := s.store.Campaigns.Create(ctx, c); err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	s.cache.Invalidate(cache.PrefixStats)
	return nil
}

func (s *Service) UpdateCampaign(ctx context.Context, id string, patch CampaignUpdate) (*model.Campaign, error) {
	c, err := service.Update(ctx, s.store.Campaigns, id, patch, CodeCampaignNotFound, "campaign")
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(cache.PrefixStats)
	return c, nil
}

func (s *Service) ListLeads(ctx context.Context, f LeadFilter, page query.Pagination) (*repository.Page[model.MarketingLead], error) {
	filter, err := query.NewFilter().
		Eq("status", f.Status).
		Eq("source", f.Source).
		Eq("campaignId", f.CampaignID).
		Build()
	if err != nil {
		return nil, err
	}
	return s.store.MarketingLeads.FindPage(ctx, filter, page, query.Desc("createdAt"))
}

func (s *Service) CreateLead(ctx context.Context, l *model.MarketingLead) error {
	l.Email = strings.ToLower(strings.TrimSpace(l.Email))
	if l.Status == "" {
		l.Status = leadNew
	}
	if l.Source == "" {
		l.Source = defaultSource
	}
	if err := s.store.MarketingLeads.Create(ctx, l); err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	s.cache.Invalidate(cache.PrefixStats)
	return nil
}

func (s *Service) UpdateLead(ctx context.Context, id string, patch LeadUpdate) (*model.MarketingLead, error) {
	l, err := service.Update(ctx, s.store.MarketingLeads, id, patch, CodeLeadNotFound, "lead")
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(cache.PrefixStats)
	return l, nil
}

func (s *Service) ListPromotions(ctx context.Context, f PromotionFilter, page query.Pagination) (*repository.Page[model.Promotion], error) {
	filter, err := query.NewFilter().
		Eq("status", f.Status).
		Search(f.Search, "code", "name").
		Build()
	if err != nil {
		return nil, err
	}
	return s.store.Promotions.FindPage(ctx, filter, page, query.Desc("createdAt"))
}

// CreatePromotion stores a promotion under its uppercased code. Codes are
// unique.
func (s *Service) CreatePromotion(ctx context.Context, p *model.Promotion) error {
	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	if !p.EndDate.After(p.StartDate) {
		return apperrors.Validation(CodeInvalidPromotionDate, "endDate must be after startDate", nil)
	}

	existing, err := s.store.Promotions.FindOne(ctx, bson.M{"code": p.Code})
	if err != nil {
		return err
	}
	if existing != nil {
		return apperrors.Conflict(CodePromotionExists, "promotion with this code already exists")
	}

	p.Status = promotionActive
	p.UsageCount = 0
	if err := s.store.Promotions.Create(ctx, p); err != nil {
		return fmt.Errorf("failed to create promotion: %w", err)
	}
	return nil
}

// ValidatePromotion checks that code can be applied to an order of amount and
// quotes the discount. It does not consume a use.
func (s *Service) ValidatePromotion(ctx context.Context, code string, amount float64) (*model.PromotionQuote, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	p, err := s.store.Promotions.FindOne(ctx, bson.M{"code": code, "status": promotionActive})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperrors.NotFound(CodePromotionNotFound, "promotion")
	}

	now := s.now()
	switch {
	case now.Before(p.StartDate) || now.After(p.EndDate):
		return nil, apperrors.Validation(CodePromotionExpired, "promotion is not currently active", nil)
	case p.UsageLimit > 0 && p.UsageCount >= p.UsageLimit:
		return nil, apperrors.Validation(CodePromotionLimit, "promotion usage limit reached", nil)
	case p.MinOrderAmount > 0 && amount < p.MinOrderAmount:
		return nil, apperrors.Validation(CodeMinimumOrderNotMet,
			fmt.Sprintf("minimum order value of %.2f required", p.MinOrderAmount), nil)
	}

	discount := Discount(p, amount)
	return &model.PromotionQuote{
		Valid:       true,
		Code:        p.Code,
		Discount:    discount,
		FinalAmount: round2(amount - discount),
	}, nil
}

// Discount returns the reduction p grants on amount. It never exceeds amount.
func Discount(p *model.Promotion, amount float64) float64 {
	var d float64
	switch p.DiscountType {
	case model.DiscountPercentage:
		d = amount * p.DiscountValue / 100
	case model.DiscountFixed:
		d = p.DiscountValue
	}
	return round2(math.Min(math.Max(d, 0), amount))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Analytics summarises campaigns and the lead funnel. Results are cached until
// the next marketing write.
func (s *Service) Analytics(ctx context.Context) (*model.MarketingAnalytics, error) {
	return cache.Remember(s.cache, cache.Key(cache.PrefixStats, "marketing"), func() (*model.MarketingAnalytics, error) {
		return s.analytics(ctx)
	})
}

func (s *Service) analytics(ctx context.Context) (*model.MarketingAnalytics, error) {
	var (
		out model.MarketingAnalytics
		err error
	)
	if out.TotalCampaigns, err = s.store.Campaigns.Count(ctx, nil); err != nil {
		return nil, err
	}
	if out.CampaignsByStatus, err = repository.Counts(ctx, s.store.Campaigns, nil, "status", 0); err != nil {
		return nil, err
	}
	budget, err := repository.SumOf(ctx, s.store.Campaigns, nil, "budget")
	if err != nil {
		return nil, err
	}
	spent, err := repository.SumOf(ctx, s.store.Campaigns, nil, "spent")
	if err != nil {
		return nil, err
	}
	out.TotalBudget, out.TotalSpent = budget.Total, spent.Total

	if out.TotalLeads, err = s.store.MarketingLeads.Count(ctx, nil); err != nil {
		return nil, err
	}
	if out.LeadsBySource, err = repository.Counts(ctx, s.store.MarketingLeads, nil, "source", 0); err != nil {
		return nil, err
	}
	if out.ConvertedLeads, err = s.store.MarketingLeads.Count(ctx, bson.M{"status": leadConverted}); err != nil {
		return nil, err
	}
	if out.TotalLeads > 0 {
		out.ConversionRate = round2(float64(out.ConvertedLeads) / float64(out.TotalLeads) * 100)
	}
	return &out, nil
}

// campaignTotals is the single row of the campaign performance pipeline.
type campaignTotals struct {
	Spent       float64  `bson:"spent"`
	Revenue     float64  `bson:"revenue"`
	Impressions float64  `bson:"impressions"`
	Clicks      float64  `bson:"clicks"`
	Conversions float64  `bson:"conversions"`
	ROAS        *float64 `bson:"roas"`
}

func campaignPerformance() []bson.M {
	return []bson.M{
		{"$match": bson.M{}},
		{"$group": bson.M{
			"_id":         nil,
			"spent":       bson.M{"$sum": "$spent"},
			"revenue":     bson.M{"$sum": "$metrics.revenue"},
			"impressions": bson.M{"$sum": "$metrics.impressions"},
			"clicks":      bson.M{"$sum": "$metrics.clicks"},
			"conversions": bson.M{"$sum": "$metrics.conversions"},
			"roas":        bson.M{"$avg": "$metrics.roas"},
		}},
	}
}

// Stats is the marketing dashboard. Conversion rate is conversions per click
// and ROI is revenue over spend, both as percentages. Results are cached
// until a campaign or lead changes.
func (s *Service) Stats(ctx context.Context) (*model.MarketingStats, error) {
	return cache.Remember(s.cache, cache.Key(cache.PrefixStats, "marketing-stats"), func() (*model.MarketingStats, error) {
		return s.stats(ctx)
	})
}

func (s *Service) stats(ctx context.Context) (*model.MarketingStats, error) {
	var (
		out model.MarketingStats
		err error
	)
	if out.TotalCampaigns, err = s.store.Campaigns.Count(ctx, nil); err != nil {
		return nil, err
	}
	if out.ActiveCampaigns, err = s.store.Campaigns.Count(ctx, bson.M{"status": campaignActive}); err != nil {
		return nil, err
	}
	if out.TotalLeads, err = s.store.MarketingLeads.Count(ctx, nil); err != nil {
		return nil, err
	}
	if out.NewLeads, err = s.store.MarketingLeads.Count(ctx, bson.M{"status": leadNew}); err != nil {
		return nil, err
	}
	if out.TotalPromotions, err = s.store.Promotions.Count(ctx, nil); err != nil {
		return nil, err
	}

	rows, err := repository.AggregateAs[campaignTotals](ctx, s.store.Campaigns, campaignPerformance())
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		t := rows[0]
		out.TotalSpent = t.Spent
		out.TotalRevenue = t.Revenue
		out.Impressions = int64(t.Impressions)
		out.Clicks = int64(t.Clicks)
		out.Conversions = int64(t.Conversions)
		if t.ROAS != nil {
			out.AverageROAS = round2(*t.ROAS)
		}
	}
	if out.Clicks > 0 {
		out.ConversionRate = round2(float64(out.Conversions) / float64(out.Clicks) * 100)
	}
	if out.TotalSpent > 0 {
		out.ROI = round2((out.TotalRevenue - out.TotalSpent) / out.TotalSpent * 100)
	}

	recent, err := s.store.Campaigns.FindMany(ctx, nil, query.Pagination{Page: 1, Limit: recentCampaigns}, query.Desc("createdAt"))
	if err != nil {
		return nil, err
	}
	out.RecentCampaigns = make([]model.CampaignSummary, 0, len(recent))
	for _, c := range recent {
		out.RecentCampaigns = append(out.RecentCampaigns, model.CampaignSummary{
			ID:          c.ID.Hex(),
			Name:        c.Name,
			Status:      c.Status,
			Spent:       c.Spent,
			Conversions: c.Metrics.Conversions,
			ROAS:        c.Metrics.ROAS,
		})
	}

	if out.LeadSources, err = repository.Counts(ctx, s.store.MarketingLeads, nil, "source", 0); err != nil {
		return nil, err
	}
	return &out, nil
}
