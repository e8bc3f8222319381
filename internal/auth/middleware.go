package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	httperr "github.com/revlens-lab/project-revlens/internal/core/errors"
	"github.com/revlens-lab/project-revlens/internal/core/storage"
)

// userContextKey is where the middleware stores the authenticated user.
const userContextKey = "auth.user"

// RequireAuth rejects requests without a valid "Authorization: Bearer" token
// and stores the authenticated user on the gin context.
func (s *Service) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			abortUnauthorized(c, "Missing bearer token")
			return
		}

		user, err := s.Authenticate(c.Request.Context(), token)
		if err != nil {
			abortUnauthorized(c, "Invalid token")
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// CurrentUser returns the user set by RequireAuth, or nil outside it.
func CurrentUser(c *gin.Context) *storage.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*storage.User)
	return user
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, httperr.ErrorResponse{
		ErrorType: httperr.HttpUnauthorizedError,
		Message:   message,
	})
}
