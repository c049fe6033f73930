package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ephemeral-chat-service/internal/chat"
)

// ReactionHandler manages emoji reaction endpoints.
type ReactionHandler struct {
	chat *chat.Service
}

// NewReactionHandler constructs a ReactionHandler.
func NewReactionHandler(chatService *chat.Service) *ReactionHandler {
	return &ReactionHandler{chat: chatService}
}

// AddReaction attaches an emoji reaction to a message.
func (h *ReactionHandler) AddReaction(c *gin.Context) {
	groupID, ok := parseIDParam(c, "group_id")
	if !ok {
		return
	}
	messageID, ok := parseIDParam(c, "message_id")
	if !ok {
		return
	}

	var req struct {
		Emoji string `json:"emoji" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reaction, err := h.chat.AddReaction(c.Request.Context(), groupID, c.GetInt("userID"), messageID, req.Emoji)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reaction)
}

// RemoveReaction removes the caller's reaction from a message.
func (h *ReactionHandler) RemoveReaction(c *gin.Context) {
	groupID, ok := parseIDParam(c, "group_id")
	if !ok {
		return
	}
	messageID, ok := parseIDParam(c, "message_id")
	if !ok {
		return
	}

	emoji := c.Query("emoji")
	if emoji == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing emoji"})
		return
	}

	if err := h.chat.RemoveReaction(c.Request.Context(), groupID, c.GetInt("userID"), messageID, emoji); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListReactions returns per-emoji rollups for a message.
func (h *ReactionHandler) ListReactions(c *gin.Context) {
	groupID, ok := parseIDParam(c, "group_id")
	if !ok {
		return
	}
	messageID, ok := parseIDParam(c, "message_id")
	if !ok {
		return
	}

	rollup, err := h.chat.ListReactions(c.Request.Context(), groupID, c.GetInt("userID"), messageID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reactions": rollup})
}
