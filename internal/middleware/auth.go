package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-scheduler/internal/handler"
	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/service/auth"
)

const ContextAccount = "account"

var _ Authorizer = (*auth.Service)(nil)

// Authorizer decides whether a bearer token may act in a role.
type Authorizer interface {
	Authorize(ctx context.Context, token string, role model.Role) (*model.AccountRef, error)
}

type AuthMiddleware struct {
	authz Authorizer
}

func NewAuthMiddleware(authz Authorizer) *AuthMiddleware {
	return &AuthMiddleware{authz: authz}
}

// Require admits the request only for a live account of role and stores it
// under ContextAccount. Every rejection gets the same 401 body.
func (m *AuthMiddleware) Require(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, err := m.authz.Authorize(c.Request.Context(), bearerToken(c.GetHeader("Authorization")), role)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("Invalid or expired token"))
			return
		}

		c.Set(ContextAccount, account)
		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Account returns the account admitted by Require.
func Account(c *gin.Context) (*model.AccountRef, bool) {
	v, ok := c.Get(ContextAccount)
	if !ok {
		return nil, false
	}
	account, ok := v.(*model.AccountRef)
	return account, ok
}

// RequireQueryRole reads the role to authorize as from the query parameter
// param. Roles outside allowed are rejected like any other failure.
func (m *AuthMiddleware) RequireQueryRole(param string, allowed ...model.Role) gin.HandlerFunc {
	gates := make(map[model.Role]gin.HandlerFunc, len(allowed))
	for _, role := range allowed {
		gates[role] = m.Require(role)
	}
	return func(c *gin.Context) {
		role, err := model.ParseRole(c.Query(param))
		gate, ok := gates[role]
		if err != nil || !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("Invalid or expired token"))
			return
		}
		gate(c)
	}
}
