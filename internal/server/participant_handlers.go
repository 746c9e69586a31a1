package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/auburnhacks/sponsor-portal/internal/auth"
	"github.com/auburnhacks/sponsor-portal/internal/models"
)

// @Router /participants [get]
func (s *Server) listParticipants(c *gin.Context) {
	var list []models.Participant
	if err := s.db.Order("name ASC").Find(&list).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list participants")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// resume links are only handed to accounts allowed to see them
	sessionData, _ := GetSessionData(c)
	if !sessionData.IsAdmin() && !sessionData.Can(auth.CapResumes) {
		for i := range list {
			list[i].Resume = ""
		}
	}

	c.JSON(http.StatusOK, gin.H{"participants": list})
}

// @Router /participants/sync [post]
func (s *Server) syncParticipants(c *gin.Context) {
	if s.syncer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Participant sync is not configured"})
		return
	}

	n, err := s.syncer.Sync(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Participant sync failed: " + err.Error()})
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().Int("participants", n).Str("triggered_by", sessionData.UserID).Msg("Manual participant sync")
	c.JSON(http.StatusOK, gin.H{"participants": n})
}

// @Router /participants/sync [get]
func (s *Server) participantSyncStatus(c *gin.Context) {
	if s.syncer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Participant sync is not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sync": s.syncer.Status()})
}
