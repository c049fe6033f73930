package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ephemeral-chat-service/internal/chat"
	"ephemeral-chat-service/internal/telemetry"
)

// GroupHandler manages group lifecycle and invite endpoints.
type GroupHandler struct {
	chat  *chat.Service
	audit *telemetry.AuditEmitter
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(chatService *chat.Service, audit *telemetry.AuditEmitter) *GroupHandler {
	return &GroupHandler{chat: chatService, audit: audit}
}

// CreateGroup handles POST /groups.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID := c.GetInt("userID")

	var req struct {
		Name          string `json:"name" binding:"required"`
		Description   string `json:"description"`
		IsPublic      bool   `json:"is_public"`
		ExpiresInSecs int    `json:"expires_in_seconds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload", 0)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	expiry := time.Duration(req.ExpiresInSecs) * time.Second
	group, err := h.chat.CreateGroup(c.Request.Context(), userID, req.Name, req.Description, req.IsPublic, expiry)
	if err != nil {
		h.emitAudit(c, "ERROR", "group creation failed", 0)
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "Group created", group.ID)
	c.JSON(http.StatusCreated, gin.H{"group": group, "invite_code": group.InviteCode})
}

// GetGroup returns a single group visible to the caller.
func (h *GroupHandler) GetGroup(c *gin.Context) {
	groupID, ok := parseIDParam(c, "group_id")
	if !ok {
		return
	}

	group, err := h.chat.GetGroup(c.Request.Context(), groupID, c.GetInt("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": group})
}

// ListGroups returns groups the caller belongs to.
func (h *GroupHandler) ListGroups(c *gin.Context) {
	groups, err := h.chat.ListGroups(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// ListPublicGroups returns joinable public groups.
func (h *GroupHandler) ListPublicGroups(c *gin.Context) {
	groups, err := h.chat.ListPublicGroups(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// JoinGroup handles POST /groups/join with an invite code.
func (h *GroupHandler) JoinGroup(c *gin.Context) {
	userID := c.GetInt("userID")

	var req struct {
		InviteCode string `json:"invite_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload", 0)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, membership, err := h.chat.JoinByInviteCode(c.Request.Context(), userID, req.InviteCode)
	if err != nil {
		h.emitAudit(c, "ERROR", "join failed", 0)
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "Member joined", group.ID)
	c.JSON(http.StatusOK, gin.H{"group": group, "membership": membership})
}

// RegenerateInviteCode rotates the group's invite code.
func (h *GroupHandler) RegenerateInviteCode(c *gin.Context) {
	groupID, ok := parseIDParam(c, "group_id")
	if !ok {
		return
	}

	code, err := h.chat.RegenerateInviteCode(c.Request.Context(), groupID, c.GetInt("userID"))
	if err != nil {
		h.emitAudit(c, "ERROR", "invite rotation failed", groupID)
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "Invite code rotated", groupID)
	c.JSON(http.StatusOK, gin.H{"invite_code": code})
}

// DeleteGroup purges a group early on the owner's request.
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	groupID, ok := parseIDParam(c, "group_id")
	if !ok {
		return
	}

	if err := h.chat.DeleteGroup(c.Request.Context(), groupID, c.GetInt("userID")); err != nil {
		h.emitAudit(c, "ERROR", "group deletion failed", groupID)
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "Group deleted", groupID)
	c.Status(http.StatusNoContent)
}

func (h *GroupHandler) emitAudit(c *gin.Context, level, text string, groupID int) {
	if h.audit == nil {
		return
	}
	h.audit.EmitGroup(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c), groupID)
}
