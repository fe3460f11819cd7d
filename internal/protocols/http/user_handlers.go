package http

import (
	"strings"

	"github.com/gin-gonic/gin"

	"taskquest/pkg/models"
	"taskquest/pkg/utils"
)

// registerUserRequest is sent by the account service after it creates a user
type registerUserRequest struct {
	ID       string          `json:"id" binding:"required"`
	Username string          `json:"username" binding:"required"`
	Role     models.UserRole `json:"role"`
}

// getMe returns the caller together with their progress summary
func (s *Server) getMe(c *gin.Context) {
	user, ok := GetUser(c)
	if !ok {
		abortWith(c, 401, "unauthorized")
		return
	}

	summary, err := s.app.Engine.ProfileSummary(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "", gin.H{
		"user":    user,
		"profile": summary,
	})
}

// registerUser runs the post-creation hook for an externally created account
func (s *Server) registerUser(c *gin.Context) {
	var req registerUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	role := req.Role
	if role == "" {
		role = models.UserRoleUser
	}
	if role != models.UserRoleUser && role != models.UserRoleAdmin {
		badRequest(c, "role must be 'user' or 'admin'")
		return
	}

	if err := utils.ValidateUsername(strings.TrimSpace(req.Username)); err != nil {
		badRequest(c, err.Error())
		return
	}

	user := &models.User{
		ID:       strings.TrimSpace(req.ID),
		Username: strings.TrimSpace(req.Username),
		Role:     role,
	}
	profile, err := s.app.Lifecycle.UserCreated(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 201, "User registered", gin.H{
		"user":    user,
		"profile": profile,
	})
}
