package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"ephemeral-chat-service/internal/chat"
	"ephemeral-chat-service/internal/telemetry"
)

// MemberHandler manages membership and moderation endpoints.
type MemberHandler struct {
	chat  *chat.Service
	audit *telemetry.AuditEmitter
}

// NewMemberHandler constructs a MemberHandler.
func NewMemberHandler(chatService *chat.Service, audit *telemetry.AuditEmitter) *MemberHandler {
	return &MemberHandler{chat: chatService, audit: audit}
}

// ListMembers returns the group's member roster.
func (h *MemberHandler) ListMembers(c *gin.Context) {
	groupID, ok := parseIDParam(c, "group_id")
	if !ok {
		return
	}

	members, err := h.chat.ListMembers(c.Request.Context(), groupID, c.GetInt("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// Leave removes the caller from the group.
func (h *MemberHandler) Leave(c *gin.Context) {
	groupID, ok := parseIDParam(c, "group_id")
	if !ok {
		return
	}

	if err := h.chat.Leave(c.Request.Context(), groupID, c.GetInt("userID")); err != nil {
		h.emitAudit(c, "ERROR", "leave failed", groupID)
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "Member left", groupID)
	c.Status(http.StatusNoContent)
}

// Ban bans a member and evicts their live sessions.
func (h *MemberHandler) Ban(c *gin.Context) {
	groupID, ok := parseIDParam(c, "group_id")
	if !ok {
		return
	}
	targetID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	if err := h.chat.Ban(c.Request.Context(), groupID, c.GetInt("userID"), targetID, req.Reason); err != nil {
		h.emitAudit(c, "ERROR", "ban failed", groupID)
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "Member banned", groupID)
	c.Status(http.StatusNoContent)
}

// Promote raises a member to admin.
func (h *MemberHandler) Promote(c *gin.Context) {
	h.changeRole(c, h.chat.Promote, "Member promoted")
}

// Demote lowers an admin to member.
func (h *MemberHandler) Demote(c *gin.Context) {
	h.changeRole(c, h.chat.Demote, "Member demoted")
}

func (h *MemberHandler) changeRole(c *gin.Context, op func(ctx context.Context, groupID, actorID, targetID int) error, auditText string) {
	groupID, ok := parseIDParam(c, "group_id")
	if !ok {
		return
	}
	targetID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	if err := op(c.Request.Context(), groupID, c.GetInt("userID"), targetID); err != nil {
		h.emitAudit(c, "ERROR", "role change failed", groupID)
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", auditText, groupID)
	c.Status(http.StatusNoContent)
}

func (h *MemberHandler) emitAudit(c *gin.Context, level, text string, groupID int) {
	if h.audit == nil {
		return
	}
	h.audit.EmitGroup(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c), groupID)
}
