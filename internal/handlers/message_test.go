package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ephemeral-chat-service/internal/chat"
	"ephemeral-chat-service/internal/models"
	"ephemeral-chat-service/internal/repositories"
)

func setupMessageRouter(svc *chat.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	msgHandler := NewMessageHandler(svc, nil)
	reactHandler := NewReactionHandler(svc)
	r.POST("/groups/:group_id/messages", msgHandler.PostMessage)
	r.GET("/groups/:group_id/messages/search", msgHandler.SearchMessages)
	r.DELETE("/groups/:group_id/messages/:message_id", msgHandler.DeleteMessage)
	r.POST("/groups/:group_id/messages/:message_id/reactions", reactHandler.AddReaction)
	return r
}

func TestPostMessageSuccess(t *testing.T) {
	f := newHandlerFixture()
	router := setupMessageRouter(f.svc)

	f.groups.On("GetGroup", mock.Anything, 5).Return(liveGroup(5), nil).Once()
	f.members.On("GetMembership", mock.Anything, 5, 1).Return(models.Membership{Role: models.RoleMember}, nil).Once()
	stored := models.Message{ID: 41, GroupID: 5, SenderID: 1, Type: models.MessageTypeText, Content: "hi"}
	f.messages.On("CreateMessage", mock.Anything, mock.Anything).Return(stored, nil).Once()
	f.rooms.On("BroadcastMessage", 5, stored).Once()

	body := bytes.NewBufferString(`{"content":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/groups/5/messages", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	f.rooms.AssertExpectations(t)
}

func TestPostMessageToExpiredGroup(t *testing.T) {
	f := newHandlerFixture()
	router := setupMessageRouter(f.svc)

	expired := liveGroup(5)
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	f.groups.On("GetGroup", mock.Anything, 5).Return(expired, nil).Once()

	body := bytes.NewBufferString(`{"content":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/groups/5/messages", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusGone, rec.Code)
	f.messages.AssertNotCalled(t, "CreateMessage")
}

func TestPostMessageAsNonMember(t *testing.T) {
	f := newHandlerFixture()
	router := setupMessageRouter(f.svc)

	f.groups.On("GetGroup", mock.Anything, 5).Return(liveGroup(5), nil).Once()
	f.members.On("GetMembership", mock.Anything, 5, 1).Return(models.Membership{}, repositories.ErrMemberNotFound).Once()

	body := bytes.NewBufferString(`{"content":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/groups/5/messages", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSearchMessagesMissingQuery(t *testing.T) {
	f := newHandlerFixture()
	router := setupMessageRouter(f.svc)

	req := httptest.NewRequest(http.MethodGet, "/groups/5/messages/search", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	f.messages.AssertNotCalled(t, "SearchMessages")
}

func TestDeleteMessageNotFound(t *testing.T) {
	f := newHandlerFixture()
	router := setupMessageRouter(f.svc)

	f.groups.On("GetGroup", mock.Anything, 5).Return(liveGroup(5), nil).Once()
	f.members.On("GetMembership", mock.Anything, 5, 1).Return(models.Membership{Role: models.RoleMember}, nil).Once()
	f.messages.On("GetMessage", mock.Anything, 41).Return(models.Message{}, repositories.ErrMessageNotFound).Once()

	req := httptest.NewRequest(http.MethodDelete, "/groups/5/messages/41", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddReactionDuplicateConflicts(t *testing.T) {
	f := newHandlerFixture()
	router := setupMessageRouter(f.svc)

	f.groups.On("GetGroup", mock.Anything, 5).Return(liveGroup(5), nil).Once()
	f.members.On("GetMembership", mock.Anything, 5, 1).Return(models.Membership{Role: models.RoleMember}, nil).Once()
	f.messages.On("GetMessage", mock.Anything, 41).Return(models.Message{ID: 41, GroupID: 5}, nil).Once()
	f.reactions.On("AddReaction", mock.Anything, 41, 1, "🔥").Return(models.Reaction{}, repositories.ErrDuplicateReaction).Once()

	body := bytes.NewBufferString(`{"emoji":"🔥"}`)
	req := httptest.NewRequest(http.MethodPost, "/groups/5/messages/41/reactions", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}
