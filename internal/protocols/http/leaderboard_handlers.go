package http

import (
	"github.com/gin-gonic/gin"

	"taskquest/pkg/models"
)

// periodParam parses :period or writes a 400
func periodParam(c *gin.Context) (models.LeaderboardPeriod, bool) {
	period, ok := models.ParseLeaderboardPeriod(c.Param("period"))
	if !ok {
		badRequest(c, "period must be one of daily, weekly, monthly, all_time")
		return "", false
	}
	return period, true
}

// getLeaderboard returns the top entries of the latest snapshot
func (s *Server) getLeaderboard(c *gin.Context) {
	period, ok := periodParam(c)
	if !ok {
		return
	}

	entries, err := s.app.Leaderboards.GetLeaderboard(c.Request.Context(), period, queryInt(c, "limit", 10, 100))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "", gin.H{
		"period":  period,
		"entries": entries,
	})
}

// getMyRank returns the caller's entry in the latest snapshot
func (s *Server) getMyRank(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	period, ok := periodParam(c)
	if !ok {
		return
	}

	entry, err := s.app.Leaderboards.GetUserRank(c.Request.Context(), userID, period)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "", entry)
}

// getPositionContext returns the entries around the caller
func (s *Server) getPositionContext(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	period, ok := periodParam(c)
	if !ok {
		return
	}

	entries, err := s.app.Leaderboards.GetUserPositionContext(c.Request.Context(), userID, period, queryInt(c, "radius", 5, 25))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "", entries)
}
