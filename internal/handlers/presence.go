package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ephemeral-chat-service/internal/presence"
)

// PresenceHandler exposes the online-user set.
type PresenceHandler struct {
	tracker presence.Tracker
}

// NewPresenceHandler constructs a PresenceHandler.
func NewPresenceHandler(tracker presence.Tracker) *PresenceHandler {
	return &PresenceHandler{tracker: tracker}
}

// OnlineUsers returns ids of users with at least one live session.
func (h *PresenceHandler) OnlineUsers(c *gin.Context) {
	users, err := h.tracker.OnlineUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load presence"})
		return
	}
	if users == nil {
		users = []int{}
	}
	c.JSON(http.StatusOK, gin.H{"online": users})
}
