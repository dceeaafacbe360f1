package model

type DashboardMetrics struct {
	Period           string  `json:"period"`
	TotalUsers       int64   `json:"totalUsers"`
	NewUsers         int64   `json:"newUsers"`
	TotalBookings    int64   `json:"totalBookings"`
	BookingsByStatus []Count `json:"bookingsByStatus"`
	Revenue          float64 `json:"revenue"`
	ActiveVehicles   int64   `json:"activeVehicles"`
	OpenAlerts       int64   `json:"openAlerts"`
}

type RevenueAnalytics struct {
	Period       string       `json:"period"`
	TotalRevenue float64      `json:"totalRevenue"`
	Payments     int64        `json:"payments"`
	Daily        []DailyCount `json:"daily"`
}

type UserAnalytics struct {
	Period          string       `json:"period"`
	TotalUsers      int64        `json:"totalUsers"`
	DailySignups    []DailyCount `json:"dailySignups"`
	RoleBreakdown   []Count      `json:"roleBreakdown"`
	StatusBreakdown []Count      `json:"statusBreakdown"`
}

type BookingAnalytics struct {
	Period   string       `json:"period"`
	Total    int64        `json:"total"`
	ByStatus []Count      `json:"byStatus"`
	Daily    []DailyCount `json:"daily"`
}
