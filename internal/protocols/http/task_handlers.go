package http

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"taskquest/pkg/models"
)

// createTask handles task creation
func (s *Server) createTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	task, err := s.app.Tasks.CreateTask(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 201, "Task created successfully", task)
}

// listTasks lists the caller's tasks, optionally filtered by ?completed=true|false
func (s *Server) listTasks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var completed *bool
	if raw := c.Query("completed"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "completed must be true or false")
			return
		}
		completed = &v
	}

	limit := queryInt(c, "limit", 20, 100)
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	tasks, err := s.app.Tasks.ListTasks(c.Request.Context(), userID, completed, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "", gin.H{
		"tasks":  tasks,
		"limit":  limit,
		"offset": offset,
	})
}

// getTask retrieves one of the caller's tasks
func (s *Server) getTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	task, err := s.app.Tasks.GetTask(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "", task)
}

// previewTaskXP shows what completing the task now would earn
func (s *Server) previewTaskXP(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	preview, err := s.app.Tasks.PreviewXP(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "", preview)
}

// completeTask marks a task done and awards XP.
// A completion refused by the dwell rule is a 200 with awarded=false.
func (s *Server) completeTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	result, err := s.app.Tasks.CompleteTask(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, result.Message, result)
}

// listCategories returns every task category
func (s *Server) listCategories(c *gin.Context) {
	categories, err := s.app.Tasks.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "", categories)
}
