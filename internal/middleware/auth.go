package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/backoffice-api/internal/model"
	apperrors "github.com/jwalitptl/backoffice-api/pkg/errors"
	"github.com/jwalitptl/backoffice-api/pkg/httputil"
)

const ContextCurrentUser = "current_user"

// Claims carried by access tokens.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	secret    []byte
	issuer    string
	responder *httputil.Responder
}

func NewAuthMiddleware(secret, issuer string, responder *httputil.Responder) *AuthMiddleware {
	return &AuthMiddleware{
		secret:    []byte(secret),
		issuer:    issuer,
		responder: responder,
	}
}

// Authenticate verifies the bearer token and stores the caller in context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			m.responder.Error(c, apperrors.Unauthorized("missing authorization header", nil))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			m.responder.Error(c, apperrors.Unauthorized("invalid authorization format", nil))
			return
		}

		claims, err := m.ParseToken(parts[1])
		if err != nil {
			m.responder.Error(c, apperrors.Unauthorized("invalid token", err))
			return
		}

		user := model.CurrentUser{ID: claims.UserID, Email: claims.Email, Role: model.Role(claims.Role)}
		c.Set(ContextCurrentUser, &user)

		ctx := c.Request.Context()
		l := log.Ctx(ctx).With().Str("user_id", user.ID).Logger()
		c.Request = c.Request.WithContext(l.WithContext(ctx))
		c.Next()
	}
}

// RequireRoles rejects callers that hold none of roles.
func (m *AuthMiddleware) RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			m.responder.Error(c, apperrors.Unauthorized("authentication required", nil))
			return
		}
		if !user.HasRole(roles...) {
			m.responder.Error(c, apperrors.Forbidden("insufficient permissions"))
			return
		}
		c.Next()
	}
}

// ParseToken validates an HS256 token and returns its claims.
func (m *AuthMiddleware) ParseToken(raw string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.UserID == "" || claims.Role == "" {
		return nil, errors.New("token is missing userId or role")
	}
	return claims, nil
}

// SignToken issues a token for user. Tokens are normally issued by the
// identity service; this is used by tooling and tests.
func (m *AuthMiddleware) SignToken(user model.CurrentUser, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// CurrentUser returns the authenticated caller.
func CurrentUser(c *gin.Context) (*model.CurrentUser, bool) {
	v, ok := c.Get(ContextCurrentUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.CurrentUser)
	return user, ok && user != nil
}
