package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"storeroom/internal/core/actor"
	"storeroom/internal/core/apperror"
)

// Claims carries the actor identity inside a bearer token.
type Claims struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// TokenParser turns a bearer token into an actor.
type TokenParser interface {
	Parse(tokenString string) (*actor.Context, error)
}

// JWTParser validates HMAC-signed tokens issued by the identity provider.
type JWTParser struct {
	secret []byte
}

// NewJWTParser creates a parser for the given signing secret.
func NewJWTParser(secret string) *JWTParser {
	return &JWTParser{secret: []byte(secret)}
}

// Parse validates the token signature and expiry and extracts the actor.
func (p *JWTParser) Parse(tokenString string) (*actor.Context, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return &actor.Context{
		UserID:   claims.Subject,
		Username: claims.Username,
		Roles:    claims.Roles,
	}, nil
}

// Auth middleware validates the bearer token and puts the actor on the
// request context for document services and the audit trail.
func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		a, err := parser.Parse(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		ctx := actor.With(c.Request.Context(), a)
		c.Request = c.Request.WithContext(ctx)

		c.Set("user_id", a.UserID)
		c.Set("username", a.Username)

		c.Next()
	}
}

// RequireRole checks that the actor has one of the given roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		a := actor.From(c.Request.Context())
		if a == nil {
			abortUnauthorized(c, "authentication required")
			return
		}

		for _, required := range roles {
			if a.HasRole(required) {
				c.Next()
				return
			}
		}

		_ = c.Error(
			apperror.NewForbidden("insufficient permissions").
				WithDetail("required_roles", roles),
		)
		c.Abort()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
