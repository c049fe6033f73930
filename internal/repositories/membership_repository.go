package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"ephemeral-chat-service/internal/models"
)

var (
	ErrMemberNotFound = errors.New("member not found")
	ErrAlreadyMember  = errors.New("already a member")
)

// MembershipRepository is the authoritative (user, group) -> role mapping.
type MembershipRepository interface {
	GetMembership(ctx context.Context, groupID int, userID int) (models.Membership, error)
	AddMember(ctx context.Context, groupID int, userID int, role string) (models.Membership, error)
	RemoveMember(ctx context.Context, groupID int, userID int) error
	UpdateRole(ctx context.Context, groupID int, userID int, role string) error
	BanMember(ctx context.Context, groupID int, userID int, actorID int, reason string) error
	ListMembers(ctx context.Context, groupID int) ([]models.Membership, error)
}

// MembershipRepo is a sqlx implementation of MembershipRepository.
type MembershipRepo struct {
	db *sqlx.DB
}

// NewMembershipRepo constructs a MembershipRepo.
func NewMembershipRepo(db *sqlx.DB) *MembershipRepo {
	return &MembershipRepo{db: db}
}

const membershipColumns = `group_id, user_id, role, joined_at, banned_at, banned_by, ban_reason`

// GetMembership fetches the membership row for (group, user).
func (r *MembershipRepo) GetMembership(ctx context.Context, groupID int, userID int) (models.Membership, error) {
	var m models.Membership
	err := r.db.GetContext(ctx, &m,
		`SELECT `+membershipColumns+` FROM group_members WHERE group_id=$1 AND user_id=$2`, groupID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Membership{}, ErrMemberNotFound
	}
	return m, err
}

// AddMember inserts a membership row with the given role.
func (r *MembershipRepo) AddMember(ctx context.Context, groupID int, userID int, role string) (models.Membership, error) {
	var m models.Membership
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO group_members (group_id, user_id, role) VALUES ($1, $2, $3)
         RETURNING `+membershipColumns, groupID, userID, role).
		StructScan(&m)
	if err != nil && isUniqueViolation(err) {
		return models.Membership{}, ErrAlreadyMember
	}
	return m, err
}

// RemoveMember deletes the membership row.
func (r *MembershipRepo) RemoveMember(ctx context.Context, groupID int, userID int) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id=$1 AND user_id=$2`, groupID, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// UpdateRole changes the role of an existing non-banned member.
func (r *MembershipRepo) UpdateRole(ctx context.Context, groupID int, userID int, role string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE group_members SET role=$1 WHERE group_id=$2 AND user_id=$3 AND role <> $4`,
		role, groupID, userID, models.RoleBanned)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// BanMember moves a member or admin to the terminal banned role,
// recording the acting moderator and reason.
func (r *MembershipRepo) BanMember(ctx context.Context, groupID int, userID int, actorID int, reason string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE group_members
         SET role=$1, banned_at=NOW(), banned_by=$2, ban_reason=$3
         WHERE group_id=$4 AND user_id=$5 AND role IN ($6, $7)`,
		models.RoleBanned, actorID, reason, groupID, userID, models.RoleMember, models.RoleAdmin)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// ListMembers returns all membership rows of the group.
func (r *MembershipRepo) ListMembers(ctx context.Context, groupID int) ([]models.Membership, error) {
	var members []models.Membership
	err := r.db.SelectContext(ctx, &members,
		`SELECT `+membershipColumns+` FROM group_members WHERE group_id=$1 ORDER BY joined_at ASC`, groupID)
	return members, err
}
