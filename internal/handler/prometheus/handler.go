package prometheus

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler exposes a registry in the Prometheus text format.
type Handler struct {
	registry prometheus.Gatherer
}

func New(registry prometheus.Gatherer) *Handler {
	return &Handler{registry: registry}
}

func (h *Handler) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{}))
}

// RegisterRoutes mounts the scrape endpoint at path on r.
func (h *Handler) RegisterRoutes(r gin.IRoutes, path string) {
	r.GET(path, h.Handler())
}
