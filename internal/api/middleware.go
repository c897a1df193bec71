package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gitlab.com/yelinaung/savings-tracker/internal/auth"
	"gitlab.com/yelinaung/savings-tracker/internal/tracker"
)

const identityKey = "identity"

func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// requireAuth resolves the bearer token and stores the caller identity.
func (s *Server) requireAuth(c *gin.Context) {
	id, err := s.auth.Authenticate(c.Request.Context(), extractToken(c.Request))
	if err != nil {
		fail(c, err)
		return
	}
	c.Set(identityKey, id)
	c.Next()
}

func identity(c *gin.Context) *auth.Identity {
	return c.MustGet(identityKey).(*auth.Identity)
}

// userTracker loads the tracker of the caller. It writes the error response
// and returns false on failure.
func (s *Server) userTracker(c *gin.Context) (*tracker.Tracker, bool) {
	t, err := s.trackers.Get(c.Request.Context(), identity(c).UserID)
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return t, true
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, errInvalidBody)
		return false
	}
	return true
}
