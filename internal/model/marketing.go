package model

import "time"

type Campaign struct {
	Base           `bson:",inline"`
	Name           string          `json:"name" bson:"name"`
	Description    string          `json:"description,omitempty" bson:"description,omitempty"`
	Type           string          `json:"type" bson:"type"`
	Status         string          `json:"status" bson:"status"`
	Budget         float64         `json:"budget" bson:"budget"`
	Spent          float64         `json:"spent" bson:"spent"`
	TargetAudience string          `json:"targetAudience,omitempty" bson:"targetAudience,omitempty"`
	StartDate      *time.Time      `json:"startDate,omitempty" bson:"startDate,omitempty"`
	EndDate        *time.Time      `json:"endDate,omitempty" bson:"endDate,omitempty"`
	CreatedBy      string          `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	Metrics        CampaignMetrics `json:"metrics" bson:"metrics"`
}

// CampaignMetrics is the delivery and return reported for a campaign.
type CampaignMetrics struct {
	Impressions int64   `json:"impressions" bson:"impressions"`
	Clicks      int64   `json:"clicks" bson:"clicks"`
	Conversions int64   `json:"conversions" bson:"conversions"`
	Revenue     float64 `json:"revenue" bson:"revenue"`
	ROAS        float64 `json:"roas" bson:"roas"`
}

type MarketingLead struct {
	Base       `bson:",inline"`
	Name       string `json:"name" bson:"name"`
	Email      string `json:"email" bson:"email"`
	Source     string `json:"source" bson:"source"`
	Status     string `json:"status" bson:"status"`
	CampaignID string `json:"campaignId,omitempty" bson:"campaignId,omitempty"`
	Score      int    `json:"score" bson:"score"`
}

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

type Promotion struct {
	Base           `bson:",inline"`
	Code           string    `json:"code" bson:"code"`
	Name           string    `json:"name" bson:"name"`
	DiscountType   string    `json:"discountType" bson:"discountType"`
	DiscountValue  float64   `json:"discountValue" bson:"discountValue"`
	MinOrderAmount float64   `json:"minOrderAmount,omitempty" bson:"minOrderAmount,omitempty"`
	UsageLimit     int       `json:"usageLimit,omitempty" bson:"usageLimit,omitempty"`
	UsageCount     int       `json:"usageCount" bson:"usageCount"`
	Status         string    `json:"status" bson:"status"`
	StartDate      time.Time `json:"startDate" bson:"startDate"`
	EndDate        time.Time `json:"endDate" bson:"endDate"`
}

// PromotionQuote is the outcome of validating a promotion code.
type PromotionQuote struct {
	Valid       bool    `json:"valid"`
	Code        string  `json:"code"`
	Reason      string  `json:"reason,omitempty"`
	Discount    float64 `json:"discount"`
	FinalAmount float64 `json:"finalAmount"`
}

type MarketingAnalytics struct {
	TotalCampaigns    int64   `json:"totalCampaigns"`
	CampaignsByStatus []Count `json:"campaignsByStatus"`
	TotalBudget       float64 `json:"totalBudget"`
	TotalSpent        float64 `json:"totalSpent"`
	LeadsBySource     []Count `json:"leadsBySource"`
	TotalLeads        int64   `json:"totalLeads"`
	ConvertedLeads    int64   `json:"convertedLeads"`
	ConversionRate    float64 `json:"conversionRate"`
}

type CampaignSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Status      string  `json:"status"`
	Spent       float64 `json:"spent"`
	Conversions int64   `json:"conversions"`
	ROAS        float64 `json:"roas"`
}

// MarketingStats is the marketing dashboard: counters, campaign performance
// totals and the newest campaigns.
type MarketingStats struct {
	TotalCampaigns  int64             `json:"totalCampaigns"`
	ActiveCampaigns int64             `json:"activeCampaigns"`
	TotalLeads      int64             `json:"totalLeads"`
	NewLeads        int64             `json:"newLeads"`
	TotalPromotions int64             `json:"totalPromotions"`
	TotalSpent      float64           `json:"totalSpent"`
	TotalRevenue    float64           `json:"totalRevenue"`
	Impressions     int64             `json:"impressions"`
	Clicks          int64             `json:"clicks"`
	Conversions     int64             `json:"conversions"`
	AverageROAS     float64           `json:"averageRoas"`
	ConversionRate  float64           `json:"conversionRate"`
	ROI             float64           `json:"roi"`
	RecentCampaigns []CampaignSummary `json:"recentCampaigns"`
	LeadSources     []Count           `json:"leadSources"`
}
