package prometheus_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	promHandler "github.com/jwalitptl/backoffice-api/internal/handler/prometheus"
	"github.com/jwalitptl/backoffice-api/pkg/metrics"
)

func TestScrape(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := metrics.New("backoffice", reg)
	m.EventsPublished.WithLabelValues("alert.created").Inc()

	engine := gin.New()
	promHandler.New(reg).RegisterRoutes(engine, "/metrics")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `backoffice_events_published_total{type="alert.created"} 1`)
}
