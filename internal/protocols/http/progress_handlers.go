package http

import (
	"github.com/gin-gonic/gin"
)

// getProfile returns level, XP and streak views for the caller
func (s *Server) getProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	summary, err := s.app.Engine.ProfileSummary(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "", summary)
}

// recalculateStreak rebuilds streak counters from completion history
func (s *Server) recalculateStreak(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	summary, err := s.app.Engine.RecalculateStreak(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "Streak recalculated", summary)
}

// getXPHistory lists the newest ledger entries first
func (s *Server) getXPHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	logs, err := s.app.Engine.XPHistory(c.Request.Context(), userID, queryInt(c, "limit", 50, 200))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "", logs)
}

// listAchievements returns every active achievement with the caller's progress
func (s *Server) listAchievements(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	progress, err := s.app.Engine.GetAchievementProgress(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "", progress)
}

// listUnlockedAchievements narrows the progress view to unlocked entries
func (s *Server) listUnlockedAchievements(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	progress, err := s.app.Engine.GetAchievementProgress(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	unlocked := progress[:0]
	for _, p := range progress {
		if p.Unlocked {
			unlocked = append(unlocked, p)
		}
	}

	respondOK(c, 200, "", unlocked)
}

// checkAchievements evaluates every achievement for the caller
func (s *Server) checkAchievements(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	unlocked, err := s.app.Engine.CheckAllAchievements(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "", gin.H{
		"unlocked": unlocked,
		"count":    len(unlocked),
	})
}

// generateReview builds or refreshes the caller's review for the current week
func (s *Server) generateReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	review, err := s.app.Engine.GenerateWeeklyReview(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 201, "Weekly review generated", review)
}

// listReviews lists past weekly reviews, newest first
func (s *Server) listReviews(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	reviews, err := s.app.Engine.ListWeeklyReviews(c.Request.Context(), userID, queryInt(c, "limit", 10, 52))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "", reviews)
}
