package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gitlab.com/yelinaung/savings-tracker/internal/logger"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if !bind(c, &req) {
		return
	}
	profile, err := s.auth.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"profile": profile})
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}
	profile, err := s.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		logger.Log.Info().
			Str("email_hash", logger.HashEmail(req.Email)).
			Err(err).
			Msg("Login rejected")
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

func (s *Server) refreshSyncCode(c *gin.Context) {
	profile, err := s.auth.RefreshSyncCode(c.Request.Context(), identity(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

func (s *Server) logout(c *gin.Context) {
	id := identity(c)
	if err := s.auth.Logout(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	s.trackers.Evict(c.Request.Context(), id.UserID)
	c.Status(http.StatusNoContent)
}
