package http

import (
	"github.com/gin-gonic/gin"

	"taskquest/pkg/models"
)

type acceptMissionRequest struct {
	TemplateID string `json:"template_id" binding:"required"`
}

// listMissions lists the caller's missions, optionally by ?status=
func (s *Server) listMissions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var filter models.MissionFilter
	if raw := c.Query("status"); raw != "" {
		status := models.MissionStatus(raw)
		switch status {
		case models.MissionActive, models.MissionCompleted, models.MissionFailed, models.MissionAbandoned:
			filter.Status = &status
		default:
			badRequest(c, "status must be one of active, completed, failed, abandoned")
			return
		}
	}

	missions, err := s.app.Missions.GetUserMissions(c.Request.Context(), userID, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "", missions)
}

// getMission returns one of the caller's missions with its progress
func (s *Server) getMission(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	missions, err := s.app.Missions.GetUserMissions(c.Request.Context(), userID, models.MissionFilter{})
	if err != nil {
		respondError(c, err)
		return
	}

	id := c.Param("id")
	for _, m := range missions {
		if m.ID == id {
			respondOK(c, 200, "", gin.H{
				"mission":             m,
				"progress_percentage": m.ProgressPercentage(),
			})
			return
		}
	}
	respondError(c, models.ErrNotFound)
}

// assignDailyMissions returns today's daily missions, assigning them on first call
func (s *Server) assignDailyMissions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	missions, err := s.app.Missions.AssignDailyMissions(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "", missions)
}

// listAvailableMissions lists templates the caller may accept
func (s *Server) listAvailableMissions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	templates, err := s.app.Missions.AvailableMissions(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "", templates)
}

// previewRandomMissions draws a weighted sample of eligible templates
func (s *Server) previewRandomMissions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	templates, err := s.app.Missions.GenerateRandomMissions(c.Request.Context(), userID, queryInt(c, "count", 3, 5))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "", templates)
}

// acceptMission starts a mission from a template.
// Level and capacity rejections come back as 422 with the reason.
func (s *Server) acceptMission(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req acceptMissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "template_id is required")
		return
	}

	result, err := s.app.Missions.AcceptMission(c.Request.Context(), userID, req.TemplateID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !result.Accepted {
		c.JSON(422, models.APIResponse{
			Success:   false,
			Error:     result.Reason,
			Data:      result,
			Timestamp: s.app.Clock.Now(),
		})
		return
	}

	respondOK(c, 201, "Mission accepted", result.Mission)
}

// abandonMission gives up an active mission
func (s *Server) abandonMission(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	mission, err := s.app.Missions.AbandonMission(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "Mission abandoned", mission)
}
