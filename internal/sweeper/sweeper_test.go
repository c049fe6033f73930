package sweeper_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ephemeral-chat-service/internal/media"
	"ephemeral-chat-service/internal/mocks"
	"ephemeral-chat-service/internal/models"
	"ephemeral-chat-service/internal/sweeper"
)

type sweeperFixture struct {
	groups   *mocks.GroupRepositoryMock
	messages *mocks.MessageRepositoryMock
	blobs    *mocks.MediaClientMock
	rooms    *mocks.BroadcasterMock
	sweep    *sweeper.Sweeper
}

func newSweeperFixture() *sweeperFixture {
	f := &sweeperFixture{
		groups:   new(mocks.GroupRepositoryMock),
		messages: new(mocks.MessageRepositoryMock),
		blobs:    new(mocks.MediaClientMock),
		rooms:    new(mocks.BroadcasterMock),
	}
	f.sweep = sweeper.New(f.groups, f.messages, f.blobs, f.rooms, time.Hour, 10*time.Minute)
	return f
}

func TestSweepOncePurgesClaimedGroupsOnly(t *testing.T) {
	f := newSweeperFixture()

	expired := []models.Group{{ID: 1}, {ID: 2}}
	f.groups.On("ListExpiredGroups", mock.Anything, mock.Anything, mock.Anything).Return(expired, nil).Once()
	f.groups.On("ClaimForPurge", mock.Anything, 1, mock.Anything, mock.Anything).Return(true, nil).Once()
	f.groups.On("ClaimForPurge", mock.Anything, 2, mock.Anything, mock.Anything).Return(false, nil).Once()

	f.messages.On("ListMediaIDs", mock.Anything, 1).Return([]string{"blob-a", "blob-b"}, nil).Once()
	f.blobs.On("DeleteByID", mock.Anything, "blob-a").Return(nil).Once()
	f.blobs.On("DeleteByID", mock.Anything, "blob-b").Return(nil).Once()
	f.groups.On("PurgeGroup", mock.Anything, 1).Return(nil).Once()
	f.rooms.On("EvictRoom", 1, models.EventGroupExpired, "expired").Once()

	require.NoError(t, f.sweep.SweepOnce(context.Background()))
	f.groups.AssertExpectations(t)
	f.blobs.AssertExpectations(t)
	f.rooms.AssertExpectations(t)
	f.groups.AssertNotCalled(t, "PurgeGroup", mock.Anything, 2)
}

func TestSweepBlobFailureDoesNotBlockPurge(t *testing.T) {
	f := newSweeperFixture()

	f.groups.On("ListExpiredGroups", mock.Anything, mock.Anything, mock.Anything).Return([]models.Group{{ID: 1}}, nil).Once()
	f.groups.On("ClaimForPurge", mock.Anything, 1, mock.Anything, mock.Anything).Return(true, nil).Once()
	f.messages.On("ListMediaIDs", mock.Anything, 1).Return([]string{"blob-a", "blob-b"}, nil).Once()
	f.blobs.On("DeleteByID", mock.Anything, "blob-a").Return(errors.New("media service down")).Once()
	f.blobs.On("DeleteByID", mock.Anything, "blob-b").Return(media.ErrBlobNotFound).Once()
	f.groups.On("PurgeGroup", mock.Anything, 1).Return(nil).Once()
	f.rooms.On("EvictRoom", 1, models.EventGroupExpired, "expired").Once()

	require.NoError(t, f.sweep.SweepOnce(context.Background()))
	f.groups.AssertExpectations(t)
}

func TestSweepRowFailureLeavesClaimForRetry(t *testing.T) {
	f := newSweeperFixture()

	f.groups.On("ListExpiredGroups", mock.Anything, mock.Anything, mock.Anything).Return([]models.Group{{ID: 1}}, nil).Once()
	f.groups.On("ClaimForPurge", mock.Anything, 1, mock.Anything, mock.Anything).Return(true, nil).Once()
	f.messages.On("ListMediaIDs", mock.Anything, 1).Return(nil, nil).Once()
	f.groups.On("PurgeGroup", mock.Anything, 1).Return(errors.New("db down")).Once()

	require.Error(t, f.sweep.SweepOnce(context.Background()))
	f.rooms.AssertNotCalled(t, "EvictRoom")
}

func TestSweepNothingToDo(t *testing.T) {
	f := newSweeperFixture()

	f.groups.On("ListExpiredGroups", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil).Once()

	require.NoError(t, f.sweep.SweepOnce(context.Background()))
	f.groups.AssertNotCalled(t, "ClaimForPurge")
}

func TestPurgeGroupForOwnerDelete(t *testing.T) {
	f := newSweeperFixture()

	f.messages.On("ListMediaIDs", mock.Anything, 5).Return([]string{"blob-a"}, nil).Once()
	f.blobs.On("DeleteByID", mock.Anything, "blob-a").Return(nil).Once()
	f.groups.On("PurgeGroup", mock.Anything, 5).Return(nil).Once()
	f.rooms.On("EvictRoom", 5, models.EventGroupDeleted, "deleted").Once()

	require.NoError(t, f.sweep.PurgeGroup(context.Background(), models.Group{ID: 5}, models.EventGroupDeleted))
	f.rooms.AssertExpectations(t)
}
