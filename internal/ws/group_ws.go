package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"ephemeral-chat-service/internal/auth"
	"ephemeral-chat-service/internal/chat"
	"ephemeral-chat-service/internal/models"
	"ephemeral-chat-service/internal/observability"
)

// GroupWebSocketHandler handles group websocket connections.
type GroupWebSocketHandler struct {
	hub         *Hub
	chat        *chat.Service
	credentials auth.CredentialService
}

// NewGroupWebSocketHandler constructs a GroupWebSocketHandler.
func NewGroupWebSocketHandler(hub *Hub, chatService *chat.Service, credentials auth.CredentialService) *GroupWebSocketHandler {
	return &GroupWebSocketHandler{hub: hub, chat: chatService, credentials: credentials}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientFrame is a single inbound websocket frame. Publishes route
// through the chat service exactly like their REST counterparts.
type clientFrame struct {
	Type      string               `json:"type"`
	Message   *models.MessageInput `json:"message,omitempty"`
	MessageID int                  `json:"message_id,omitempty"`
	Emoji     string               `json:"emoji,omitempty"`
}

// Handle upgrades and registers a websocket connection for a group room.
func (h *GroupWebSocketHandler) Handle(c *gin.Context) {
	groupID, err := strconv.Atoi(c.Param("group_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	ctx, span := otel.Tracer("ephemeral-chat-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.GetHeader("Authorization")
	if token == "" {
		token = c.Query("token")
		if token != "" {
			token = "Bearer " + token
		}
	}

	userID, err := h.validateToken(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	if err := h.chat.AuthorizeSubscribe(c.Request.Context(), groupID, userID); err != nil {
		switch chat.ErrorCode(err) {
		case chat.CodeExpired:
			c.JSON(http.StatusGone, gin.H{"error": "group expired"})
		case chat.CodeNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		case chat.CodeUnauthorized:
			c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for group"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "subscription failed"})
		}
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	session := NewSession(userID, conn, info, h.hub.QueueSize())

	h.hub.Register(session)
	h.hub.Subscribe(groupID, session)
	observability.IncWSEvent("ws_connect")
	h.publishConnEvent(ctx, "ws_connect", groupID, session, "")

	go session.WritePump()
	go h.readPump(session, groupID)
}

func (h *GroupWebSocketHandler) readPump(session *Session, groupID int) {
	var closeReason string
	defer func() {
		h.hub.Unregister(session)
		observability.IncWSEvent("ws_disconnect")
		h.publishConnEvent(context.Background(), "ws_disconnect", groupID, session, closeReason)
	}()

	session.conn.SetReadLimit(maxMessageSize)
	session.conn.SetReadDeadline(time.Now().Add(pongWait))
	session.conn.SetPongHandler(func(string) error {
		session.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := session.conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			return
		}
		h.dispatch(session, groupID, payload)
	}
}

// dispatch routes an inbound frame into the chat service. Failures go
// back to this session only, never to the room.
func (h *GroupWebSocketHandler) dispatch(session *Session, groupID int, payload []byte) {
	var frame clientFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		h.hub.SendError(session, groupID, chat.CodeInvalidArgument, "malformed frame")
		return
	}

	ctx := context.Background()
	var err error
	switch frame.Type {
	case "message":
		if frame.Message == nil {
			err = chat.ErrInvalidMessage
			break
		}
		_, err = h.chat.PostMessage(ctx, groupID, session.UserID, *frame.Message)
	case "reaction_add":
		_, err = h.chat.AddReaction(ctx, groupID, session.UserID, frame.MessageID, frame.Emoji)
	case "reaction_remove":
		err = h.chat.RemoveReaction(ctx, groupID, session.UserID, frame.MessageID, frame.Emoji)
	case "typing_start":
		err = h.chat.Typing(ctx, groupID, session.UserID, true)
	case "typing_stop":
		err = h.chat.Typing(ctx, groupID, session.UserID, false)
	default:
		h.hub.SendError(session, groupID, chat.CodeInvalidArgument, "unknown frame type")
		return
	}
	if err != nil {
		h.hub.SendError(session, groupID, chat.ErrorCode(err), err.Error())
	}
}

func (h *GroupWebSocketHandler) publishConnEvent(ctx context.Context, event string, groupID int, session *Session, reason string) {
	info := session.Info
	_ = observability.PublishEvent(ctx, "ws_events.groups", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"group_id":    groupID,
				"event":       event,
				"conn_id":     info.ConnID,
				"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
				"reason":      reason,
			},
			"identity": map[string]interface{}{
				"user_id":   info.UserID,
				"device_id": info.DeviceID,
				"ip":        info.IP,
			},
		},
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}

func (h *GroupWebSocketHandler) validateToken(ctx context.Context, header string) (int, error) {
	parts := strings.Split(header, " ")
	if len(parts) == 2 {
		return h.credentials.ValidateToken(ctx, parts[1])
	}
	return 0, fmt.Errorf("invalid token")
}
