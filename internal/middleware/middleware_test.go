package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/pkg/httputil"
	"github.com/jwalitptl/backoffice-api/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func do(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body httputil.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Error
}

func TestAuthentication(t *testing.T) {
	auth := NewAuthMiddleware("secret", "backoffice-api", httputil.NewResponder(false))
	r := gin.New()
	r.GET("/audit", auth.Authenticate(), auth.RequireRoles(model.RoleAuditor), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		require.True(t, ok)
		c.String(http.StatusOK, user.ID)
	})

	sign := func(role model.Role) string {
		tok, err := auth.SignToken(model.CurrentUser{ID: "u1", Email: "u1@example.com", Role: role}, time.Hour)
		require.NoError(t, err)
		return "Bearer " + tok
	}

	w := do(r, http.MethodGet, "/audit", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))

	w = do(r, http.MethodGet, "/audit", map[string]string{"Authorization": "Token abc"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/audit", map[string]string{"Authorization": "Bearer not.a.jwt"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/audit", map[string]string{"Authorization": sign(model.RoleAnalyst)})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "INSUFFICIENT_PERMISSIONS", errorCode(t, w))

	w = do(r, http.MethodGet, "/audit", map[string]string{"Authorization": sign(model.RoleAuditor)})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())

	w = do(r, http.MethodGet, "/audit", map[string]string{"Authorization": sign(model.RoleHeadAdmin)})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestParseTokenRejectsForeignTokens(t *testing.T) {
	auth := NewAuthMiddleware("secret", "backoffice-api", httputil.NewResponder(false))
	user := model.CurrentUser{ID: "u1", Role: model.RoleAnalyst}

	other := NewAuthMiddleware("other-secret", "backoffice-api", nil)
	tok, err := other.SignToken(user, time.Hour)
	require.NoError(t, err)
	_, err = auth.ParseToken(tok)
	assert.Error(t, err)

	wrongIssuer := NewAuthMiddleware("secret", "someone-else", nil)
	tok, err = wrongIssuer.SignToken(user, time.Hour)
	require.NoError(t, err)
	_, err = auth.ParseToken(tok)
	assert.Error(t, err)

	tok, err = auth.SignToken(user, -time.Minute)
	require.NoError(t, err)
	_, err = auth.ParseToken(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	tok, err = auth.SignToken(model.CurrentUser{ID: "u1"}, time.Hour)
	require.NoError(t, err)
	_, err = auth.ParseToken(tok)
	assert.ErrorContains(t, err, "missing userId or role")

	tok, err = auth.SignToken(user, time.Hour)
	require.NoError(t, err)
	claims, err := auth.ParseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "analyst", claims.Role)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery(httputil.NewResponder(false)))
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := do(r, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, w))
	assert.NotEmpty(t, w.Header().Get(HeaderXRequestID))
}

func TestRequestIDIsEchoed(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	w := do(r, http.MethodGet, "/x", map[string]string{HeaderXRequestID: "req-123"})
	assert.Equal(t, "req-123", w.Header().Get(HeaderXRequestID))
	assert.Equal(t, "req-123", w.Body.String())
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS(DefaultCORSConfig([]string{"https://admin.example.com"})))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, http.MethodOptions, "/x", map[string]string{"Origin": "https://admin.example.com"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://admin.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))

	w = do(r, http.MethodGet, "/x", map[string]string{"Origin": "https://evil.example.com"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeadersAndTimeout(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(DefaultSecurityConfig()), Timeout(time.Second))
	r.GET("/x", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		assert.True(t, ok)
		c.Status(http.StatusOK)
	})

	w := do(r, http.MethodGet, "/x", nil)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, APIVersion, w.Header().Get(HeaderAPIVersion))
}

func TestMetrics(t *testing.T) {
	m := metrics.New("test", prometheus.NewRegistry())
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, http.MethodGet, "/items/1", nil)
	do(r, http.MethodGet, "/items/2", nil)
	do(r, http.MethodGet, "/missing", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestTotal.WithLabelValues("GET", "/items/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestTotal.WithLabelValues("GET", "unmatched", "404")))
}
