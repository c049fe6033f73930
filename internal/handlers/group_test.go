package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ephemeral-chat-service/internal/chat"
	"ephemeral-chat-service/internal/mocks"
	"ephemeral-chat-service/internal/models"
	"ephemeral-chat-service/internal/repositories"
)

type handlerFixture struct {
	groups    *mocks.GroupRepositoryMock
	members   *mocks.MembershipRepositoryMock
	messages  *mocks.MessageRepositoryMock
	reactions *mocks.ReactionRepositoryMock
	rooms     *mocks.BroadcasterMock
	purger    *mocks.PurgerMock
	svc       *chat.Service
}

func newHandlerFixture() *handlerFixture {
	f := &handlerFixture{
		groups:    new(mocks.GroupRepositoryMock),
		members:   new(mocks.MembershipRepositoryMock),
		messages:  new(mocks.MessageRepositoryMock),
		reactions: new(mocks.ReactionRepositoryMock),
		rooms:     new(mocks.BroadcasterMock),
		purger:    new(mocks.PurgerMock),
	}
	f.svc = chat.NewService(f.groups, f.members, f.messages, f.reactions, f.rooms, f.purger)
	return f
}

func setupGroupRouter(svc *chat.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	handler := NewGroupHandler(svc, nil)
	r.POST("/groups", handler.CreateGroup)
	r.GET("/groups/:group_id", handler.GetGroup)
	r.POST("/groups/join", handler.JoinGroup)
	r.DELETE("/groups/:group_id", handler.DeleteGroup)
	return r
}

func liveGroup(id int) models.Group {
	return models.Group{ID: id, Name: "standup", CreatorID: 1, State: models.GroupStateActive, ExpiresAt: time.Now().Add(time.Hour)}
}

func TestCreateGroupSuccess(t *testing.T) {
	f := newHandlerFixture()
	router := setupGroupRouter(f.svc)

	created := liveGroup(5)
	created.InviteCode = "ABC123XY"
	f.groups.On("CreateGroup", mock.Anything, mock.Anything).Return(created, nil).Once()

	body := bytes.NewBufferString(`{"name":"standup","expires_in_seconds":7200}`)
	req := httptest.NewRequest(http.MethodPost, "/groups", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		InviteCode string `json:"invite_code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "ABC123XY", resp.InviteCode)
	f.groups.AssertExpectations(t)
}

func TestCreateGroupExpiryTooShort(t *testing.T) {
	f := newHandlerFixture()
	router := setupGroupRouter(f.svc)

	body := bytes.NewBufferString(`{"name":"standup","expires_in_seconds":60}`)
	req := httptest.NewRequest(http.MethodPost, "/groups", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	f.groups.AssertNotCalled(t, "CreateGroup")
}

func TestCreateGroupInvalidBody(t *testing.T) {
	f := newHandlerFixture()
	router := setupGroupRouter(f.svc)

	req := httptest.NewRequest(http.MethodPost, "/groups", bytes.NewBufferString(`{"name":5}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetGroupExpiredAnswersGone(t *testing.T) {
	f := newHandlerFixture()
	router := setupGroupRouter(f.svc)

	expired := liveGroup(5)
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	f.groups.On("GetGroup", mock.Anything, 5).Return(expired, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/groups/5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusGone, rec.Code)
}

func TestGetGroupNotFound(t *testing.T) {
	f := newHandlerFixture()
	router := setupGroupRouter(f.svc)

	f.groups.On("GetGroup", mock.Anything, 5).Return(models.Group{}, repositories.ErrGroupNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/groups/5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJoinGroupAlreadyMemberConflicts(t *testing.T) {
	f := newHandlerFixture()
	router := setupGroupRouter(f.svc)

	f.groups.On("GetGroupByInviteCode", mock.Anything, "ABC123XY").Return(liveGroup(5), nil).Once()
	f.members.On("GetMembership", mock.Anything, 5, 1).Return(models.Membership{Role: models.RoleMember}, nil).Once()

	body := bytes.NewBufferString(`{"invite_code":"abc123xy"}`)
	req := httptest.NewRequest(http.MethodPost, "/groups/join", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteGroupByNonOwnerForbidden(t *testing.T) {
	f := newHandlerFixture()
	router := setupGroupRouter(f.svc)

	f.groups.On("GetGroup", mock.Anything, 5).Return(liveGroup(5), nil).Once()
	f.members.On("GetMembership", mock.Anything, 5, 1).Return(models.Membership{Role: models.RoleAdmin}, nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/groups/5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	f.purger.AssertNotCalled(t, "PurgeGroup")
}

func TestDeleteGroupByOwner(t *testing.T) {
	f := newHandlerFixture()
	router := setupGroupRouter(f.svc)

	group := liveGroup(5)
	f.groups.On("GetGroup", mock.Anything, 5).Return(group, nil).Once()
	f.members.On("GetMembership", mock.Anything, 5, 1).Return(models.Membership{Role: models.RoleOwner}, nil).Once()
	f.groups.On("ClaimForPurge", mock.Anything, 5, mock.Anything, mock.Anything).Return(true, nil).Once()
	f.purger.On("PurgeGroup", mock.Anything, group, models.EventGroupDeleted).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/groups/5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	f.purger.AssertExpectations(t)
}
