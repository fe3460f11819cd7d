package http

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// listNotifications lists the caller's inbox, ?unread=true for unread only
func (s *Server) listNotifications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	unreadOnly, _ := strconv.ParseBool(c.DefaultQuery("unread", "false"))
	items, err := s.app.Notifications.List(c.Request.Context(), userID, unreadOnly, queryInt(c, "limit", 20, 100))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "", items)
}

func (s *Server) unreadCount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	n, err := s.app.Notifications.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "", gin.H{"unread": n})
}

func (s *Server) markNotificationRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := s.app.Notifications.MarkRead(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "Notification marked as read", nil)
}

func (s *Server) markAllNotificationsRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	n, err := s.app.Notifications.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "", gin.H{"updated": n})
}

func (s *Server) archiveNotification(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := s.app.Notifications.Archive(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, 200, "Notification archived", nil)
}
