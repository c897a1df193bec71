package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gitlab.com/yelinaung/savings-tracker/internal/models"
)

func (s *Server) getRecords(c *gin.Context) {
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": t.Document()})
}

// putRecords replaces the whole document. An empty body resets to defaults.
func (s *Server) putRecords(c *gin.Context) {
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	body, err := c.GetRawData()
	if err != nil {
		fail(c, errInvalidBody)
		return
	}
	doc, err := models.DecodeDocument(body)
	if err != nil {
		fail(c, errInvalidBody)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": t.Replace(doc), "updatedAt": t.Now()})
}

func (s *Server) reset(c *gin.Context) {
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": t.Reset()})
}

func (s *Server) getMetrics(c *gin.Context) {
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, t.Metrics())
}

func (s *Server) getDashboard(c *gin.Context) {
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, t.Dashboard())
}

func (s *Server) updateReminderSettings(c *gin.Context) {
	var patch models.ReminderSettingsPatch
	if !bind(c, &patch) {
		return
	}
	t, ok := s.userTracker(c)
	if !ok {
		return
	}
	settings, err := t.UpdateReminderSettings(patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reminderSettings": settings})
}
