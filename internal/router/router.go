package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/backoffice-api/internal/middleware"
	"github.com/jwalitptl/backoffice-api/internal/model"
	apperrors "github.com/jwalitptl/backoffice-api/pkg/errors"
	"github.com/jwalitptl/backoffice-api/pkg/httputil"
	"github.com/jwalitptl/backoffice-api/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// Handlers are the route groups mounted under /api/v1. A nil handler is
// skipped.
type Handlers struct {
	Health     Handler
	Audit      Handler
	Analytics  Handler
	Users      Handler
	CRM        Handler
	Settings   Handler
	Compliance Handler
	HR         Handler
	Legal      Handler
	Chat       Handler
	Marketing  Handler
	Metrics    gin.HandlerFunc
}

type Config struct {
	Mode           string
	CORS           middleware.CORSConfig
	Security       middleware.SecurityConfig
	SizeLimit      middleware.SizeLimitConfig
	RequestTimeout time.Duration
	MetricsPath    string
}

type Router struct {
	engine    *gin.Engine
	auth      *middleware.AuthMiddleware
	responder *httputil.Responder
	handlers  Handlers
	config    Config
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	responder *httputil.Responder,
	m *metrics.Metrics,
	handlers Handlers,
	config Config,
) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	engine := gin.New()

	r := &Router{
		engine:    engine,
		auth:      auth,
		responder: responder,
		handlers:  handlers,
		config:    config,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(responder),
		middleware.Logger(),
	)
	if m != nil {
		engine.Use(middleware.Metrics(m))
	}
	engine.Use(
		middleware.SecurityHeaders(config.Security),
		middleware.CORS(config.CORS),
		middleware.SizeLimit(config.SizeLimit),
		middleware.Timeout(config.RequestTimeout),
	)

	engine.NoRoute(func(c *gin.Context) {
		responder.Error(c, apperrors.NotFound("ROUTE_NOT_FOUND", "route"))
	})
	return r
}

// Setup mounts every route group.
func (r *Router) Setup() {
	if r.handlers.Metrics != nil {
		path := r.config.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.engine.GET(path, r.handlers.Metrics)
	}

	api := r.engine.Group("/api/v1")
	mount(api, r.handlers.Health)

	protected := api.Group("", r.auth.Authenticate())
	r.guarded(protected, r.handlers.Audit, model.RoleAuditor, model.RoleSecurityAdmin, model.RoleCompliance)
	r.guarded(protected, r.handlers.Analytics, model.RoleAnalyst, model.RoleSystemAdmin)
	r.guarded(protected, r.handlers.Users, model.RoleSystemAdmin, model.RoleCustomerSupport)
	r.guarded(protected, r.handlers.CRM, model.RoleCRMManager, model.RoleCustomerSupport)
	r.guarded(protected, r.handlers.Settings, model.RoleSystemAdmin, model.RoleTechnologyAdmin)
	r.guarded(protected, r.handlers.Compliance, model.RoleCompliance, model.RoleAuditor)
	r.guarded(protected, r.handlers.HR, model.RoleHRManager)
	r.guarded(protected, r.handlers.Legal, model.RoleLegalTeam)
	r.guarded(protected, r.handlers.Chat, model.RoleCustomerSupport, model.RoleSystemAdmin)
	r.guarded(protected, r.handlers.Marketing, model.RoleMarketingManager)
}

func (r *Router) guarded(rg *gin.RouterGroup, h Handler, roles ...model.Role) {
	mount(rg.Group("", r.auth.RequireRoles(roles...)), h)
}

func mount(rg *gin.RouterGroup, h Handler) {
	if h != nil {
		h.RegisterRoutes(rg)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
