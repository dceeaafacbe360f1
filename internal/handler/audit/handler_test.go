package audit_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditHandler "github.com/jwalitptl/backoffice-api/internal/handler/audit"
	"github.com/jwalitptl/backoffice-api/internal/handler/handlertest"
	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/internal/service/audit"
)

func setup(t *testing.T) *handlertest.Env {
	env := handlertest.New(t)
	auditHandler.NewHandler(audit.NewService(env.Store), env.Responder).RegisterRoutes(env.API)
	return env
}

func day(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestListLogsFiltersAndSorts(t *testing.T) {
	env := setup(t)
	handlertest.Seed(t, env.Store.AuditLogs,
		model.AuditLog{UserID: "u1", Action: "login", Resource: "session", Timestamp: day("2024-03-01T10:00:00Z")},
		model.AuditLog{UserID: "u1", Action: "update", Resource: "settings", Timestamp: day("2024-03-02T10:00:00Z")},
		model.AuditLog{UserID: "u2", Action: "login", Resource: "session", Timestamp: day("2024-03-03T10:00:00Z")},
		model.AuditLog{UserID: "u1", Action: "login", Resource: "session", Timestamp: day("2024-04-01T10:00:00Z")},
	)

	res := env.Do(t, http.MethodGet, "/api/v1/audit/logs?userId=u1&startDate=2024-03-01&endDate=2024-03-31", nil).StatusOK()
	var logs []model.AuditLog
	res.Decode(&logs)
	require.Len(t, logs, 2)
	assert.Equal(t, "update", logs[0].Action)
	assert.Equal(t, "login", logs[1].Action)
	assert.Equal(t, int64(2), res.Envelope.Pagination.Total)
	assert.Equal(t, 50, res.Envelope.Pagination.Limit)

	res = env.Do(t, http.MethodGet, "/api/v1/audit/logs?search=SETT", nil).StatusOK()
	res.Decode(&logs)
	require.Len(t, logs, 1)
	assert.Equal(t, "settings", logs[0].Resource)
}

func TestListLogsRejectsMalformedDates(t *testing.T) {
	env := setup(t)

	res := env.Do(t, http.MethodGet, "/api/v1/audit/logs?startDate=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "INVALID_DATE_RANGE", res.Envelope.Error)
}

func TestGetAndCreateLog(t *testing.T) {
	env := setup(t)

	res := env.Do(t, http.MethodPost, "/api/v1/audit/logs", map[string]string{"action": "export"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "MISSING_REQUIRED_FIELDS", res.Envelope.Error)

	res = env.Do(t, http.MethodPost, "/api/v1/audit/logs", map[string]string{"action": "export", "resource": "reports"})
	assert.Equal(t, http.StatusCreated, res.Code)
	var created model.AuditLog
	res.Decode(&created)
	assert.Equal(t, handlertest.DefaultUser.ID, created.UserID)
	assert.False(t, created.Timestamp.IsZero())

	res = env.Do(t, http.MethodGet, "/api/v1/audit/logs/"+created.ID.Hex(), nil).StatusOK()
	var got model.AuditLog
	res.Decode(&got)
	assert.Equal(t, "reports", got.Resource)

	res = env.Do(t, http.MethodGet, "/api/v1/audit/logs/64b7f0c2a1b2c3d4e5f60799", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "AUDIT_LOG_NOT_FOUND", res.Envelope.Error)

	res = env.Do(t, http.MethodGet, "/api/v1/audit/logs/not-an-id", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestSecurityEvents(t *testing.T) {
	env := setup(t)

	res := env.Do(t, http.MethodPost, "/api/v1/audit/security-events", map[string]string{"eventType": "brute_force", "severity": "extreme"})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	env.Do(t, http.MethodPost, "/api/v1/audit/security-events", map[string]string{"eventType": "brute_force", "severity": "high"}).StatusOK()
	env.Do(t, http.MethodPost, "/api/v1/audit/security-events", map[string]string{"eventType": "new_device", "severity": "low"}).StatusOK()

	res = env.Do(t, http.MethodGet, "/api/v1/audit/security-events?severity=high", nil).StatusOK()
	var events []model.SecurityEvent
	res.Decode(&events)
	require.Len(t, events, 1)
	assert.Equal(t, "brute_force", events[0].EventType)
}

func TestUserActivity(t *testing.T) {
	env := setup(t)
	handlertest.Seed(t, env.Store.UserActivities,
		model.UserActivity{UserID: "u1", ActivityType: "login", Timestamp: day("2024-03-01T10:00:00Z")},
		model.UserActivity{UserID: "u2", ActivityType: "login", Timestamp: day("2024-03-01T11:00:00Z")},
		model.UserActivity{UserID: "u1", ActivityType: "logout", Timestamp: day("2024-03-01T12:00:00Z")},
	)

	res := env.Do(t, http.MethodGet, "/api/v1/audit/user-activity/u1", nil).StatusOK()
	var acts []model.UserActivity
	res.Decode(&acts)
	require.Len(t, acts, 2)
	assert.Equal(t, "logout", acts[0].ActivityType)

	res = env.Do(t, http.MethodGet, "/api/v1/audit/user-activities?activityType=login", nil).StatusOK()
	res.Decode(&acts)
	assert.Len(t, acts, 2)
}

func TestComplianceReport(t *testing.T) {
	env := setup(t)

	res := env.Do(t, http.MethodGet, "/api/v1/audit/compliance-report?startDate=2024-03-01", nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "MISSING_DATE_RANGE", res.Envelope.Error)

	handlertest.Seed(t, env.Store.AuditLogs,
		model.AuditLog{UserID: "u1", Action: "login", Resource: "session", Timestamp: day("2024-03-01T10:00:00Z")},
		model.AuditLog{UserID: "u2", Action: "login", Resource: "session", Timestamp: day("2024-03-05T10:00:00Z")},
		model.AuditLog{UserID: "u2", Action: "delete", Resource: "user", Timestamp: day("2024-03-31T23:00:00Z")},
		model.AuditLog{UserID: "u3", Action: "login", Resource: "session", Timestamp: day("2024-05-01T10:00:00Z")},
	)
	handlertest.Seed(t, env.Store.SecurityEvents,
		model.SecurityEvent{EventType: "brute_force", Severity: model.SeverityHigh, Timestamp: day("2024-03-02T10:00:00Z")},
		model.SecurityEvent{EventType: "brute_force", Severity: model.SeverityCritical, Timestamp: day("2024-03-03T10:00:00Z")},
		model.SecurityEvent{EventType: "new_device", Severity: model.SeverityLow, Timestamp: day("2024-03-04T10:00:00Z")},
	)

	res = env.Do(t, http.MethodGet, "/api/v1/audit/compliance-report?startDate=2024-03-01&endDate=2024-03-31", nil).StatusOK()
	var report model.ComplianceReport
	res.Decode(&report)
	assert.Equal(t, int64(3), report.TotalAuditLogs)
	assert.Equal(t, int64(3), report.TotalSecurityEvents)
	assert.Equal(t, int64(2), report.UniqueUsers)
	assert.Equal(t, int64(2), report.SecurityIncidents)
	assert.Equal(t, 80, report.ComplianceScore)
	require.NotEmpty(t, report.ActionDistribution)
	assert.Equal(t, model.Count{Key: "login", Count: 2}, report.ActionDistribution[0])
	assert.Equal(t, model.Count{Key: "brute_force", Count: 2}, report.EventTypeDistribution[0])
}

func TestComplianceScoreFloorsAtZero(t *testing.T) {
	assert.Equal(t, 100, audit.ComplianceScore(0))
	assert.Equal(t, 30, audit.ComplianceScore(7))
	assert.Equal(t, 0, audit.ComplianceScore(12))
}

func TestAnalytics(t *testing.T) {
	env := setup(t)
	now := time.Now().UTC()
	handlertest.Seed(t, env.Store.AuditLogs,
		model.AuditLog{UserID: "u1", Action: "login", Resource: "session", Timestamp: now.Add(-time.Hour)},
		model.AuditLog{UserID: "u1", Action: "update", Resource: "settings", Timestamp: now.Add(-2 * time.Hour)},
		model.AuditLog{UserID: "u2", Action: "login", Resource: "session", Timestamp: now.Add(-60 * 24 * time.Hour)},
	)

	res := env.Do(t, http.MethodGet, "/api/v1/audit/analytics?period=7d", nil).StatusOK()
	var out model.AuditAnalytics
	res.Decode(&out)
	assert.Equal(t, "7d", out.Period)
	assert.Equal(t, int64(2), out.TotalLogs)
	require.Len(t, out.TopUsers, 1)
	assert.Equal(t, model.Count{Key: "u1", Count: 2}, out.TopUsers[0])
	assert.NotEmpty(t, out.DailyActivity)

	res = env.Do(t, http.MethodGet, "/api/v1/audit/analytics?period=fortnight", nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "INVALID_PERIOD", res.Envelope.Error)
}

func TestExportLogs(t *testing.T) {
	env := setup(t)
	handlertest.Seed(t, env.Store.AuditLogs,
		model.AuditLog{UserID: "u1", Action: "login", Resource: "session", Timestamp: day("2024-03-01T10:00:00Z")},
	)

	res := env.Do(t, http.MethodGet, "/api/v1/audit/export?format=xml", nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "INVALID_FORMAT", res.Envelope.Error)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit/export", nil)
	req.Header.Set("Authorization", "Bearer "+env.Token(t, handlertest.DefaultUser))
	w := httptest.NewRecorder()
	env.Engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID,Timestamp,User ID"))
	assert.Contains(t, lines[1], "2024-03-01T10:00:00Z,u1,login,session")
}
