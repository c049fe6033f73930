package chat

import (
	"errors"

	"ephemeral-chat-service/internal/repositories"
)

var (
	// ErrUnauthorized covers missing membership, banned members and
	// insufficient roles alike; callers are not told which.
	ErrUnauthorized = errors.New("not authorized for group")

	// ErrExpired is returned on any path touching a logically expired
	// group, whether or not it has been physically purged yet.
	ErrExpired = errors.New("group expired")

	ErrOwnerCannotLeave = errors.New("owner cannot leave group")
	ErrCannotActOnOwner = errors.New("cannot act on group owner")
	ErrInvalidMessage   = errors.New("message requires content or media")
	ErrInvalidExpiry    = errors.New("expiry duration out of range")
	ErrInvalidReply     = errors.New("reply target not found in group")
)

// Error codes surfaced to clients over both transports.
const (
	CodeUnauthorized    = "unauthorized"
	CodeExpired         = "expired"
	CodeNotFound        = "not_found"
	CodeConflict        = "conflict"
	CodeInvalidState    = "invalid_state"
	CodeInvalidArgument = "invalid_argument"
	CodeInternal        = "internal"
)

// ErrorCode maps a service error to its wire code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrExpired):
		return CodeExpired
	case errors.Is(err, repositories.ErrGroupNotFound),
		errors.Is(err, repositories.ErrMessageNotFound),
		errors.Is(err, repositories.ErrMemberNotFound),
		errors.Is(err, repositories.ErrReactionNotFound):
		return CodeNotFound
	case errors.Is(err, repositories.ErrAlreadyMember),
		errors.Is(err, repositories.ErrDuplicateReaction),
		errors.Is(err, repositories.ErrInviteCodeTaken):
		return CodeConflict
	case errors.Is(err, ErrOwnerCannotLeave),
		errors.Is(err, ErrCannotActOnOwner):
		return CodeInvalidState
	case errors.Is(err, ErrInvalidMessage),
		errors.Is(err, ErrInvalidExpiry),
		errors.Is(err, ErrInvalidReply):
		return CodeInvalidArgument
	default:
		return CodeInternal
	}
}
