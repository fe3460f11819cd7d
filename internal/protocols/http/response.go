package http

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"taskquest/pkg/logger"
	"taskquest/pkg/models"
)

// respondError maps a service error onto its status code
func respondError(c *gin.Context, err error) {
	appErr := models.ClassifyError(err)
	if appErr.StatusCode >= 500 {
		logger.WithRequestID(c.Request.Context()).
			With("path", c.FullPath()).
			With("error", err.Error()).
			Error("request failed")
	}
	c.JSON(appErr.StatusCode, appErr.ToHTTPError())
}

func respondOK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, models.APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(400, models.APIResponse{
		Success:   false,
		Error:     msg,
		Timestamp: time.Now(),
	})
}

// currentUserID reads the authenticated user or writes a 401
func currentUserID(c *gin.Context) (string, bool) {
	userID, ok := GetUserID(c)
	if !ok {
		c.JSON(401, models.APIResponse{
			Success:   false,
			Error:     "unauthorized",
			Timestamp: time.Now(),
		})
		return "", false
	}
	return userID, true
}

// queryInt parses an integer query value clamped to [1, max]
func queryInt(c *gin.Context, key string, def, max int) int {
	n, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(def)))
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
