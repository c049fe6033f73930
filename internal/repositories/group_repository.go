package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"ephemeral-chat-service/internal/models"
)

var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrInviteCodeTaken = errors.New("invite code already taken")
)

const pqUniqueViolation = "23505"

// GroupRepository abstracts group persistence and the purge-claim state.
type GroupRepository interface {
	CreateGroup(ctx context.Context, group models.Group) (models.Group, error)
	GetGroup(ctx context.Context, groupID int) (models.Group, error)
	GetGroupByInviteCode(ctx context.Context, code string) (models.Group, error)
	ListGroupsForUser(ctx context.Context, userID int) ([]models.Group, error)
	ListPublicGroups(ctx context.Context) ([]models.Group, error)
	UpdateInviteCode(ctx context.Context, groupID int, code string) error
	ListExpiredGroups(ctx context.Context, now time.Time, staleBefore time.Time) ([]models.Group, error)
	ClaimForPurge(ctx context.Context, groupID int, now time.Time, staleBefore time.Time) (bool, error)
	PurgeGroup(ctx context.Context, groupID int) error
}

// GroupRepo is a sqlx implementation of GroupRepository.
type GroupRepo struct {
	db *sqlx.DB
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(db *sqlx.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

const groupColumns = `id, name, description, is_public, invite_code, creator_id, expires_at, state, purging_at, created_at`

// CreateGroup creates a group and its owner membership row atomically.
func (r *GroupRepo) CreateGroup(ctx context.Context, group models.Group) (models.Group, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Group{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var created models.Group
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO groups (name, description, is_public, invite_code, creator_id, expires_at)
         VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+groupColumns,
		group.Name, group.Description, group.IsPublic, group.InviteCode, group.CreatorID, group.ExpiresAt).
		StructScan(&created)
	if err != nil {
		if isUniqueViolation(err) {
			err = ErrInviteCodeTaken
		}
		return models.Group{}, err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, role) VALUES ($1, $2, $3)`,
		created.ID, group.CreatorID, models.RoleOwner); err != nil {
		return models.Group{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Group{}, err
	}
	return created, nil
}

// GetGroup fetches a single group.
func (r *GroupRepo) GetGroup(ctx context.Context, groupID int) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group, `SELECT `+groupColumns+` FROM groups WHERE id=$1`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	return group, err
}

// GetGroupByInviteCode resolves a group by its current invite code.
func (r *GroupRepo) GetGroupByInviteCode(ctx context.Context, code string) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group, `SELECT `+groupColumns+` FROM groups WHERE invite_code=$1`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	return group, err
}

// ListGroupsForUser returns groups with a non-banned membership row for the user.
func (r *GroupRepo) ListGroupsForUser(ctx context.Context, userID int) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.SelectContext(ctx, &groups,
		`SELECT g.`+groupColumnsPrefixed()+` FROM groups g
         INNER JOIN group_members gm ON gm.group_id = g.id
         WHERE gm.user_id=$1 AND gm.role <> $2
         ORDER BY g.created_at DESC`, userID, models.RoleBanned)
	return groups, err
}

// ListPublicGroups returns groups discoverable without an invite.
func (r *GroupRepo) ListPublicGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.SelectContext(ctx, &groups,
		`SELECT `+groupColumns+` FROM groups WHERE is_public = TRUE AND expires_at > NOW() ORDER BY created_at DESC`)
	return groups, err
}

// UpdateInviteCode replaces the invite code; the prior code stops resolving.
func (r *GroupRepo) UpdateInviteCode(ctx context.Context, groupID int, code string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE groups SET invite_code=$1 WHERE id=$2`, code, groupID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrInviteCodeTaken
		}
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrGroupNotFound
	}
	return nil
}

// ListExpiredGroups returns expired groups that are claimable: still
// active, or stuck in purging since before staleBefore (crashed sweep).
func (r *GroupRepo) ListExpiredGroups(ctx context.Context, now time.Time, staleBefore time.Time) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.SelectContext(ctx, &groups,
		`SELECT `+groupColumns+` FROM groups
         WHERE expires_at <= $1
         AND (state = $2 OR (state = $3 AND purging_at < $4))
         ORDER BY expires_at ASC`,
		now, models.GroupStateActive, models.GroupStatePurging, staleBefore)
	return groups, err
}

// ClaimForPurge atomically marks a group as purging. Returns false when
// another sweeper holds a fresh claim; that is not an error.
func (r *GroupRepo) ClaimForPurge(ctx context.Context, groupID int, now time.Time, staleBefore time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE groups SET state=$1, purging_at=$2
         WHERE id=$3 AND (state=$4 OR (state=$1 AND purging_at < $5))`,
		models.GroupStatePurging, now, groupID, models.GroupStateActive, staleBefore)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// PurgeGroup removes reactions, messages, membership rows and the group
// record in dependency order inside one transaction. Zero rows at any
// step is fine; the cascade is idempotent.
func (r *GroupRepo) PurgeGroup(ctx context.Context, groupID int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	steps := []string{
		`DELETE FROM reactions r USING messages m WHERE r.message_id = m.id AND m.group_id = $1`,
		`DELETE FROM messages WHERE group_id = $1`,
		`DELETE FROM group_members WHERE group_id = $1`,
		`DELETE FROM groups WHERE id = $1`,
	}
	for _, step := range steps {
		if _, err = tx.ExecContext(ctx, step, groupID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func groupColumnsPrefixed() string {
	return `id, g.name, g.description, g.is_public, g.invite_code, g.creator_id, g.expires_at, g.state, g.purging_at, g.created_at`
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}
