// Package handlertest runs handlers behind the real authentication
// middleware on top of the in-memory store.
package handlertest

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/backoffice-api/internal/middleware"
	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/internal/repository"
	"github.com/jwalitptl/backoffice-api/internal/repository/memory"
	"github.com/jwalitptl/backoffice-api/pkg/httputil"
	"github.com/jwalitptl/backoffice-api/pkg/validator"
)

const (
	secret = "handler-test-secret"
	issuer = "backoffice-api"
)

// Env is a test server with an authenticated /api/v1 group.
type Env struct {
	DB        *memory.DB
	Store     *repository.Store
	Responder *httputil.Responder
	Auth      *middleware.AuthMiddleware
	Engine    *gin.Engine
	API       *gin.RouterGroup
}

func New(t *testing.T) *Env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.Register()

	db := memory.New()
	responder := httputil.NewResponder(true)
	auth := middleware.NewAuthMiddleware(secret, issuer, responder)

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.Recovery(responder))

	return &Env{
		DB:        db,
		Store:     repository.NewStore(db, nil),
		Responder: responder,
		Auth:      auth,
		Engine:    engine,
		API:       engine.Group("/api/v1", auth.Authenticate()),
	}
}

// DefaultUser is the caller used by Do.
var DefaultUser = model.CurrentUser{
	ID:    "64b7f0c2a1b2c3d4e5f60718",
	Email: "admin@example.com",
	Role:  model.RoleHeadAdmin,
}

// Token signs an access token for user.
func (e *Env) Token(t *testing.T, user model.CurrentUser) string {
	t.Helper()
	tok, err := e.Auth.SignToken(user, time.Hour)
	require.NoError(t, err)
	return tok
}

// Envelope is the decoded response body.
type Envelope struct {
	Success    bool                 `json:"success"`
	Data       json.RawMessage      `json:"data"`
	Pagination *httputil.Pagination `json:"pagination"`
	Message    string               `json:"message"`
	Error      string               `json:"error"`
	Detail     string               `json:"detail"`
}

// Result is a recorded response.
type Result struct {
	Code     int
	Envelope Envelope
	t        *testing.T
}

// Decode unmarshals the envelope data into v.
func (r *Result) Decode(v interface{}) {
	r.t.Helper()
	require.NotEmpty(r.t, r.Envelope.Data, "response has no data")
	require.NoError(r.t, json.Unmarshal(r.Envelope.Data, v))
}

// Do performs a request as DefaultUser.
func (e *Env) Do(t *testing.T, method, path string, body interface{}) *Result {
	t.Helper()
	return e.DoAs(t, DefaultUser, method, path, body)
}

// DoAs performs a request as user. A nil body sends none; a string body is
// sent verbatim.
func (e *Env) DoAs(t *testing.T, user model.CurrentUser, method, path string, body interface{}) *Result {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+e.Token(t, user))
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.Engine.ServeHTTP(w, req)

	res := &Result{Code: w.Code, t: t}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res.Envelope), w.Body.String())
	}
	return res
}

// Seed inserts docs through facade f and returns them with ids assigned.
func Seed[T any](t *testing.T, f *repository.Facade[T], docs ...T) []T {
	t.Helper()
	out := make([]T, 0, len(docs))
	for i := range docs {
		doc := docs[i]
		require.NoError(t, f.Create(context.Background(), &doc))
		out = append(out, doc)
	}
	return out
}

// StatusOK asserts a 2xx envelope.
func (r *Result) StatusOK() *Result {
	r.t.Helper()
	require.Truef(r.t, r.Code >= http.StatusOK && r.Code < http.StatusMultipleChoices,
		"status %d, error %q: %s", r.Code, r.Envelope.Error, r.Envelope.Detail)
	require.True(r.t, r.Envelope.Success)
	return r
}
