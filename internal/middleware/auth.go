package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const callerKey = "caller_id"

// CallerResolver maps a bearer token to the caller's identity.
type CallerResolver interface {
	ResolveCaller(token string) (string, error)
}

// RequireAuth rejects requests without a valid "Authorization: Bearer"
// header and stores the resolved doctor identity on the context.
func RequireAuth(resolver CallerResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c, "Not authenticated")
			return
		}

		caller, err := resolver.ResolveCaller(token)
		if err != nil {
			unauthorized(c, "Invalid authentication credentials")
			return
		}

		c.Set(callerKey, caller)
		c.Next()
	}
}

// GetCaller returns the authenticated doctor, or "" on public routes.
func GetCaller(c *gin.Context) string {
	return c.GetString(callerKey)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
}
