package marketing_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jwalitptl/backoffice-api/internal/cache"
	"github.com/jwalitptl/backoffice-api/internal/handler/handlertest"
	marketingHandler "github.com/jwalitptl/backoffice-api/internal/handler/marketing"
	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/internal/repository"
	"github.com/jwalitptl/backoffice-api/internal/service/marketing"
)

func setup(t *testing.T) *handlertest.Env {
	env := handlertest.New(t)
	svc := marketing.NewService(env.Store, cache.New(time.Minute, nil))
	marketingHandler.NewHandler(svc, env.Responder).RegisterRoutes(env.API)
	return env
}

func TestCampaigns(t *testing.T) {
	env := setup(t)

	var campaign model.Campaign
	res := env.Do(t, http.MethodPost, "/api/v1/marketing/campaigns", map[string]interface{}{
		"name": "Spring service", "description": "Discounted oil change", "type": "email", "budget": 5000,
	})
	require.Equal(t, http.StatusCreated, res.Code)
	res.Decode(&campaign)
	assert.Equal(t, "draft", campaign.Status)
	id := campaign.ID.Hex()

	var campaigns []model.Campaign
	res = env.Do(t, http.MethodGet, "/api/v1/marketing/campaigns?search=oil", nil).StatusOK()
	res.Decode(&campaigns)
	assert.Len(t, campaigns, 1)
	assert.Equal(t, 50, res.Envelope.Pagination.Limit)

	env.Do(t, http.MethodPut, "/api/v1/marketing/campaigns/"+id, map[string]interface{}{"status": "active", "spent": 1200}).
		StatusOK().Decode(&campaign)
	assert.Equal(t, "active", campaign.Status)
	assert.Equal(t, 1200.0, campaign.Spent)
	assert.Equal(t, 5000.0, campaign.Budget)

	env.Do(t, http.MethodPut, "/api/v1/marketing/campaigns/"+id, map[string]interface{}{"spent": 0, "budget": 0}).
		StatusOK().Decode(&campaign)
	assert.Zero(t, campaign.Spent)
	assert.Zero(t, campaign.Budget)
	assert.Equal(t, "active", campaign.Status)

	res = env.Do(t, http.MethodPut, "/api/v1/marketing/campaigns/"+id, map[string]interface{}{"spent": -1})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = env.Do(t, http.MethodGet, "/api/v1/marketing/campaigns/"+primitive.NewObjectID().Hex(), nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, marketing.CodeCampaignNotFound, res.Envelope.Error)

	res = env.Do(t, http.MethodPut, "/api/v1/marketing/campaigns/"+id, map[string]string{"status": "exploded"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestLeadScoreCanBeCleared(t *testing.T) {
	env := setup(t)

	var lead model.MarketingLead
	res := env.Do(t, http.MethodPost, "/api/v1/marketing/leads", map[string]interface{}{"name": "Lee", "email": "lee@example.com", "score": 40})
	require.Equal(t, http.StatusCreated, res.Code)
	res.Decode(&lead)
	require.Equal(t, 40, lead.Score)
	id := lead.ID.Hex()

	env.Do(t, http.MethodPut, "/api/v1/marketing/leads/"+id, map[string]interface{}{"status": "contacted"}).StatusOK().Decode(&lead)
	assert.Equal(t, 40, lead.Score)

	env.Do(t, http.MethodPut, "/api/v1/marketing/leads/"+id, map[string]interface{}{"score": 0}).StatusOK().Decode(&lead)
	assert.Zero(t, lead.Score)
	assert.Equal(t, "contacted", lead.Status)

	res = env.Do(t, http.MethodPut, "/api/v1/marketing/leads/"+id, map[string]interface{}{"score": 101})
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestCreatePromotion(t *testing.T) {
	env := setup(t)
	start := time.Now().UTC().Add(-time.Hour)
	end := start.Add(7 * 24 * time.Hour)
	body := map[string]interface{}{
		"code": "spring10", "name": "Spring", "discountType": "percentage", "discountValue": 10,
		"startDate": start, "endDate": end,
	}

	var promo model.Promotion
	res := env.Do(t, http.MethodPost, "/api/v1/marketing/promotions", body)
	require.Equal(t, http.StatusCreated, res.Code)
	res.Decode(&promo)
	assert.Equal(t, "SPRING10", promo.Code)
	assert.Equal(t, "active", promo.Status)

	res = env.Do(t, http.MethodPost, "/api/v1/marketing/promotions", body)
	assert.Equal(t, http.StatusConflict, res.Code)
	assert.Equal(t, marketing.CodePromotionExists, res.Envelope.Error)

	body["code"] = "BACKWARDS"
	body["endDate"] = start.Add(-time.Hour)
	res = env.Do(t, http.MethodPost, "/api/v1/marketing/promotions", body)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, marketing.CodeInvalidPromotionDate, res.Envelope.Error)

	delete(body, "startDate")
	res = env.Do(t, http.MethodPost, "/api/v1/marketing/promotions", body)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "MISSING_REQUIRED_FIELDS", res.Envelope.Error)

	assert.Equal(t, 1, env.DB.Len(repository.CollPromotions))
}

func TestValidatePromotion(t *testing.T) {
	env := setup(t)
	now := time.Now().UTC()
	handlertest.Seed(t, env.Store.Promotions,
		model.Promotion{Code: "TEN", DiscountType: model.DiscountPercentage, DiscountValue: 10, Status: "active",
			StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour)},
		model.Promotion{Code: "FLAT50", DiscountType: model.DiscountFixed, DiscountValue: 50, MinOrderAmount: 20, Status: "active",
			StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour)},
		model.Promotion{Code: "OLD", DiscountType: model.DiscountFixed, DiscountValue: 5, Status: "active",
			StartDate: now.Add(-48 * time.Hour), EndDate: now.Add(-24 * time.Hour)},
		model.Promotion{Code: "USED", DiscountType: model.DiscountFixed, DiscountValue: 5, Status: "active",
			UsageLimit: 3, UsageCount: 3, StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour)},
		model.Promotion{Code: "OFF", DiscountType: model.DiscountFixed, DiscountValue: 5, Status: "inactive",
			StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour)},
	)
	validate := func(code string, amount float64) *handlertest.Result {
		return env.Do(t, http.MethodPost, "/api/v1/marketing/promotions/validate", map[string]interface{}{"code": code, "orderAmount": amount})
	}

	var quote model.PromotionQuote
	validate("ten", 80).StatusOK().Decode(&quote)
	assert.True(t, quote.Valid)
	assert.Equal(t, "TEN", quote.Code)
	assert.Equal(t, 8.0, quote.Discount)
	assert.Equal(t, 72.0, quote.FinalAmount)

	validate("FLAT50", 30).StatusOK().Decode(&quote)
	assert.Equal(t, 30.0, quote.Discount)
	assert.Equal(t, 0.0, quote.FinalAmount)

	cases := []struct {
		code   string
		amount float64
		status int
		err    string
	}{
		{"FLAT50", 10, http.StatusBadRequest, marketing.CodeMinimumOrderNotMet},
		{"OLD", 10, http.StatusBadRequest, marketing.CodePromotionExpired},
		{"USED", 10, http.StatusBadRequest, marketing.CodePromotionLimit},
		{"OFF", 10, http.StatusNotFound, marketing.CodePromotionNotFound},
		{"NOPE", 10, http.StatusNotFound, marketing.CodePromotionNotFound},
		{"", 10, http.StatusBadRequest, "MISSING_PROMOTION_CODE"},
	}
	for _, tc := range cases {
		res := validate(tc.code, tc.amount)
		assert.Equal(t, tc.status, res.Code, tc.code)
		assert.Equal(t, tc.err, res.Envelope.Error, tc.code)
	}
}

func TestDiscount(t *testing.T) {
	pct := &model.Promotion{DiscountType: model.DiscountPercentage, DiscountValue: 12.5}
	assert.Equal(t, 2.47, marketing.Discount(pct, 19.76))

	fixed := &model.Promotion{DiscountType: model.DiscountFixed, DiscountValue: 15}
	assert.Equal(t, 15.0, marketing.Discount(fixed, 40))
	assert.Equal(t, 9.99, marketing.Discount(fixed, 9.99))

	assert.Equal(t, 0.0, marketing.Discount(&model.Promotion{DiscountType: "free_shipping", DiscountValue: 5}, 40))
}

func TestAnalyticsCachedUntilWrite(t *testing.T) {
	env := setup(t)
	handlertest.Seed(t, env.Store.Campaigns,
		model.Campaign{Name: "a", Status: "active", Budget: 1000, Spent: 400},
		model.Campaign{Name: "b", Status: "draft", Budget: 500},
	)
	handlertest.Seed(t, env.Store.MarketingLeads,
		model.MarketingLead{Name: "x", Source: "website", Status: "converted"},
		model.MarketingLead{Name: "y", Source: "website", Status: "new"},
		model.MarketingLead{Name: "z", Source: "referral", Status: "new"},
		model.MarketingLead{Name: "w", Source: "social", Status: "converted"},
	)

	var out model.MarketingAnalytics
	env.Do(t, http.MethodGet, "/api/v1/marketing/analytics", nil).StatusOK().Decode(&out)
	assert.Equal(t, int64(2), out.TotalCampaigns)
	assert.Equal(t, 1500.0, out.TotalBudget)
	assert.Equal(t, 400.0, out.TotalSpent)
	assert.Equal(t, int64(4), out.TotalLeads)
	assert.Equal(t, int64(2), out.ConvertedLeads)
	assert.Equal(t, 50.0, out.ConversionRate)
	assert.Equal(t, model.Count{Key: "website", Count: 2}, out.LeadsBySource[0])

	handlertest.Seed(t, env.Store.MarketingLeads, model.MarketingLead{Name: "v", Source: "website", Status: "new"})
	env.Do(t, http.MethodGet, "/api/v1/marketing/analytics", nil).StatusOK().Decode(&out)
	assert.Equal(t, int64(4), out.TotalLeads)

	env.Do(t, http.MethodPost, "/api/v1/marketing/leads", map[string]string{"name": "u", "email": "u@example.com"}).StatusOK()
	env.Do(t, http.MethodGet, "/api/v1/marketing/analytics", nil).StatusOK().Decode(&out)
	assert.Equal(t, int64(6), out.TotalLeads)
	assert.Equal(t, 33.33, out.ConversionRate)
}

func TestStats(t *testing.T) {
	env := setup(t)
	campaigns := handlertest.Seed(t, env.Store.Campaigns,
		model.Campaign{Name: "a", Status: "active", Spent: 400, Metrics: model.CampaignMetrics{
			Impressions: 1000, Clicks: 200, Conversions: 10, Revenue: 1200, ROAS: 3,
		}},
		model.Campaign{Name: "b", Status: "draft", Spent: 100, Metrics: model.CampaignMetrics{
			Impressions: 500, Clicks: 50, Conversions: 5,
		}},
	)
	handlertest.Seed(t, env.Store.MarketingLeads,
		model.MarketingLead{Name: "x", Source: "website", Status: "new"},
		model.MarketingLead{Name: "y", Source: "website", Status: "new"},
		model.MarketingLead{Name: "z", Source: "referral", Status: "converted"},
	)
	handlertest.Seed(t, env.Store.Promotions, model.Promotion{Code: "SPRING10", Name: "Spring"})

	var out model.MarketingStats
	env.Do(t, http.MethodGet, "/api/v1/marketing/stats", nil).StatusOK().Decode(&out)
	assert.Equal(t, int64(2), out.TotalCampaigns)
	assert.Equal(t, int64(1), out.ActiveCampaigns)
	assert.Equal(t, int64(3), out.TotalLeads)
	assert.Equal(t, int64(2), out.NewLeads)
	assert.Equal(t, int64(1), out.TotalPromotions)
	assert.Equal(t, 500.0, out.TotalSpent)
	assert.Equal(t, 1200.0, out.TotalRevenue)
	assert.Equal(t, int64(1500), out.Impressions)
	assert.Equal(t, int64(250), out.Clicks)
	assert.Equal(t, int64(15), out.Conversions)
	assert.Equal(t, 1.5, out.AverageROAS)
	assert.Equal(t, 6.0, out.ConversionRate)
	assert.Equal(t, 140.0, out.ROI)
	assert.Equal(t, []model.Count{{Key: "website", Count: 2}, {Key: "referral", Count: 1}}, out.LeadSources)
	require.Len(t, out.RecentCampaigns, 2)
	names := []string{out.RecentCampaigns[0].Name, out.RecentCampaigns[1].Name}
	assert.ElementsMatch(t, []string{"a", "b"}, names)

	env.Do(t, http.MethodPut, "/api/v1/marketing/campaigns/"+campaigns[1].ID.Hex(), map[string]interface{}{
		"metrics": map[string]interface{}{"impressions": 500, "clicks": 50, "conversions": 5, "revenue": 300, "roas": 3},
	}).StatusOK()
	env.Do(t, http.MethodGet, "/api/v1/marketing/stats", nil).StatusOK().Decode(&out)
	assert.Equal(t, 1500.0, out.TotalRevenue)
	assert.Equal(t, 3.0, out.AverageROAS)
	assert.Equal(t, 200.0, out.ROI)
}

func TestStatsWithoutCampaigns(t *testing.T) {
	env := setup(t)

	var out model.MarketingStats
	env.Do(t, http.MethodGet, "/api/v1/marketing/stats", nil).StatusOK().Decode(&out)
	assert.Zero(t, out.TotalCampaigns)
	assert.Zero(t, out.AverageROAS)
	assert.Zero(t, out.ConversionRate)
	assert.Zero(t, out.ROI)
	assert.Empty(t, out.RecentCampaigns)
}
