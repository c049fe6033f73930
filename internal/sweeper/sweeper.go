package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"ephemeral-chat-service/internal/media"
	"ephemeral-chat-service/internal/models"
	"ephemeral-chat-service/internal/observability"
	"ephemeral-chat-service/internal/repositories"
)

// RoomEvictor terminates the real-time room for a group that no longer
// exists, delivering a final notice to connected sessions.
type RoomEvictor interface {
	EvictRoom(groupID int, event string, reason string)
}

// Sweeper periodically finds expired groups and purges them: media
// blobs first, then the stored rows, then the live room. A group is
// claimed before purging so concurrent sweepers never double-purge.
type Sweeper struct {
	groups     repositories.GroupRepository
	messages   repositories.MessageRepository
	blobs      media.Client
	rooms      RoomEvictor
	interval   time.Duration
	staleClaim time.Duration
	now        func() time.Time
}

func New(groups repositories.GroupRepository, messages repositories.MessageRepository, blobs media.Client, rooms RoomEvictor, interval, staleClaim time.Duration) *Sweeper {
	return &Sweeper{
		groups:     groups,
		messages:   messages,
		blobs:      blobs,
		rooms:      rooms,
		interval:   interval,
		staleClaim: staleClaim,
		now:        time.Now,
	}
}

// Run sweeps immediately, then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	if err := s.SweepOnce(ctx); err != nil {
		log.Printf("sweep failed: %v", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SweepOnce(ctx); err != nil {
				log.Printf("sweep failed: %v", err)
			}
		}
	}
}

// SweepOnce purges every group past its expiry, plus any group stuck
// mid-purge from a previous crashed run. One group failing does not
// stop the sweep.
func (s *Sweeper) SweepOnce(ctx context.Context) error {
	observability.IncSweepRun()

	now := s.now()
	staleBefore := now.Add(-s.staleClaim)

	expired, err := s.groups.ListExpiredGroups(ctx, now, staleBefore)
	if err != nil {
		return fmt.Errorf("list expired groups: %w", err)
	}

	var firstErr error
	for _, group := range expired {
		claimed, err := s.groups.ClaimForPurge(ctx, group.ID, now, staleBefore)
		if err != nil {
			log.Printf("claim group %d for purge: %v", group.ID, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if !claimed {
			continue
		}
		if err := s.purge(ctx, group, models.EventGroupExpired, "expired"); err != nil {
			log.Printf("purge group %d: %v", group.ID, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// PurgeGroup purges a group on demand, used when an owner deletes a
// group before its expiry. The group must already be claimed.
func (s *Sweeper) PurgeGroup(ctx context.Context, group models.Group, event string) error {
	reason := "deleted"
	if event == models.EventGroupExpired {
		reason = "expired"
	}
	return s.purge(ctx, group, event, reason)
}

// purge deletes the group's media blobs, then its rows, then evicts
// the room. Blob deletion is best effort: a missing blob is already
// the desired state, and a failed delete must not keep the expired
// group's data alive. Rows go last so a crash mid-purge leaves the
// claim in place for the next sweep to resume.
func (s *Sweeper) purge(ctx context.Context, group models.Group, event string, reason string) error {
	mediaIDs, err := s.messages.ListMediaIDs(ctx, group.ID)
	if err != nil {
		return fmt.Errorf("list media for group %d: %w", group.ID, err)
	}

	for _, blobID := range mediaIDs {
		if err := s.blobs.DeleteByID(ctx, blobID); err != nil && !errors.Is(err, media.ErrBlobNotFound) {
			observability.IncMediaDeleteFailure()
			log.Printf("delete blob %s for group %d: %v", blobID, group.ID, err)
		}
	}

	if err := s.groups.PurgeGroup(ctx, group.ID); err != nil {
		return fmt.Errorf("purge rows for group %d: %w", group.ID, err)
	}

	s.rooms.EvictRoom(group.ID, event, reason)
	observability.IncGroupsPurged()
	log.Printf("purged group %d (%s)", group.ID, reason)
	return nil
}
