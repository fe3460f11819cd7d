package http

import (
	"math"

	"github.com/gin-gonic/gin"
)

type settingRequest struct {
	Value       interface{} `json:"value"`
	Description string      `json:"description"`
}

// refreshLeaderboard recomputes one period's rankings
func (s *Server) refreshLeaderboard(c *gin.Context) {
	period, ok := periodParam(c)
	if !ok {
		return
	}

	result, err := s.app.Leaderboards.UpdateRankings(c.Request.Context(), period)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "Leaderboard refreshed", result)
}

// runMaintenance runs the daily batch on demand
func (s *Server) runMaintenance(c *gin.Context) {
	result, err := s.app.System.RunDailyMaintenance(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "Maintenance finished", result)
}

func (s *Server) getSetting(c *gin.Context) {
	setting, err := s.app.System.GetSetting(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "", setting)
}

func (s *Server) putSetting(c *gin.Context) {
	var req settingRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Value == nil {
		badRequest(c, "value is required")
		return
	}
	// JSON numbers decode as float64; whole numbers are stored as integers
	if f, ok := req.Value.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		req.Value = int64(f)
	}

	setting, err := s.app.System.SetSetting(c.Request.Context(), c.Param("key"), req.Value, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "Setting saved", setting)
}
