package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"ephemeral-chat-service/internal/models"
)

var (
	ErrDuplicateReaction = errors.New("reaction already exists")
	ErrReactionNotFound  = errors.New("reaction not found")
)

// ReactionRepository defines interactions for message reactions.
type ReactionRepository interface {
	AddReaction(ctx context.Context, messageID int, userID int, emoji string) (models.Reaction, error)
	RemoveReaction(ctx context.Context, messageID int, userID int, emoji string) error
	ListReactions(ctx context.Context, messageID int) ([]models.Reaction, error)
}

// ReactionRepo is a sqlx-backed implementation.
type ReactionRepo struct {
	db *sqlx.DB
}

// NewReactionRepo constructs a ReactionRepo.
func NewReactionRepo(db *sqlx.DB) *ReactionRepo {
	return &ReactionRepo{db: db}
}

// AddReaction inserts a reaction; the primary key enforces at most one
// (message, user, emoji) row.
func (r *ReactionRepo) AddReaction(ctx context.Context, messageID int, userID int, emoji string) (models.Reaction, error) {
	var reaction models.Reaction
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO reactions (message_id, user_id, emoji) VALUES ($1, $2, $3)
         RETURNING message_id, user_id, emoji, created_at`,
		messageID, userID, emoji).
		StructScan(&reaction)
	if err != nil && isUniqueViolation(err) {
		return models.Reaction{}, ErrDuplicateReaction
	}
	return reaction, err
}

// RemoveReaction deletes a single reaction row.
func (r *ReactionRepo) RemoveReaction(ctx context.Context, messageID int, userID int, emoji string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM reactions WHERE message_id=$1 AND user_id=$2 AND emoji=$3`,
		messageID, userID, emoji)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrReactionNotFound
	}
	return nil
}

// ListReactions returns reactions for a message ordered by creation.
func (r *ReactionRepo) ListReactions(ctx context.Context, messageID int) ([]models.Reaction, error) {
	var reactions []models.Reaction
	err := r.db.SelectContext(ctx, &reactions,
		`SELECT message_id, user_id, emoji, created_at FROM reactions WHERE message_id=$1 ORDER BY created_at ASC`,
		messageID)
	return reactions, err
}
