package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pigweb/pigweb/internal/config"
	"github.com/pigweb/pigweb/internal/domain"
	"github.com/pigweb/pigweb/internal/logger"
)

// principalKey is the gin context key the authenticated identity lives under.
const principalKey = "principal"

// Authenticator resolves bearer tokens to principals. Identity issuing and
// role derivation belong to the external auth collaborator; this table is
// the boundary where its output enters the service.
type Authenticator struct {
	tokens map[string]domain.Principal
}

// NewAuthenticator builds the token table from configuration.
// Parameters:
//   - cfg: auth configuration with token grants.
// Returns:
//   - *Authenticator: initialized authenticator.
//   - error: non-nil when a grant carries a malformed operator ID.
func NewAuthenticator(cfg *config.AuthConfig) (*Authenticator, error) {
	tokens := make(map[string]domain.Principal, len(cfg.Tokens))
	for _, grant := range cfg.Tokens {
		id, err := uuid.Parse(grant.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid operator id %q in auth config: %w", grant.ID, err)
		}
		roles := make([]domain.Role, 0, len(grant.Roles))
		for _, r := range grant.Roles {
			roles = append(roles, domain.Role(r))
		}
		tokens[grant.Token] = domain.Principal{ID: id, Name: grant.Name, Roles: roles}
	}
	return &Authenticator{tokens: tokens}, nil
}

// Middleware authenticates the request or rejects it with 401. A 401 is a
// session problem and distinct from the 403 a missing role produces.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		principal, ok := a.tokens[token]
		if token == "" || !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "not authenticated",
			})
			return
		}

		c.Set(principalKey, principal)

		// Tag the request-scoped logger with the operator
		ctx := logger.WithField(c.Request.Context(), logger.FieldCreator, principal.ID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRole rejects with 403 unless the principal holds one of the roles.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := Principal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "not authenticated",
			})
			return
		}
		if !principal.HasAnyRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": domain.ErrForbidden.Error(),
			})
			return
		}
		c.Next()
	}
}

// Principal extracts the authenticated identity from the gin context.
func Principal(c *gin.Context) (domain.Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return domain.Principal{}, false
	}
	p, ok := v.(domain.Principal)
	return p, ok
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return c.GetHeader("X-Auth-Token")
}
