package infrastructure

import "errors"

var (
	ErrForbidden         = errors.New("caller is not a member of this chat")
	ErrChatNotFound      = errors.New("chat not found")
	ErrInvalidInviteCode = errors.New("invalid invite code")
	ErrNotAGroupChat     = errors.New("not a group chat")
	ErrInvalidMessage    = errors.New("message must have content or media")
	ErrDirectChatSize    = errors.New("direct chat cannot have more than two participants")
	ErrMediaStore        = errors.New("media store failure")
	ErrCodeExhausted     = errors.New("invite code generation exhausted")

	// Internal outcome: services normalize it into the idempotent success
	// path, it must never reach the HTTP surface.
	ErrDuplicateKey = errors.New("duplicate key violation")

	ErrInternalServer = errors.New("internal server error")
)
