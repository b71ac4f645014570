package chat

import (
	"time"

	"github.com/google/uuid"

	"chatter/internal/user"
)

type Kind string

const (
	KindDirect Kind = "direct"
	KindGroup  Kind = "group"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Chat is a conversation container. Kind is immutable after creation;
// InviteCode exists only for groups and is immutable once set;
// LastActivityAt is the only field that changes over a chat's life.
type Chat struct {
	ID             uuid.UUID
	Kind           Kind
	Name           *string
	InviteCode     *string
	CreatedAt      time.Time
	LastActivityAt time.Time
}

// Membership grants a user read/write access to a chat. The (ChatID,
// UserID) pair is unique; direct chats carry no admin distinction.
type Membership struct {
	ChatID   uuid.UUID
	UserID   uuid.UUID
	Role     Role
	JoinedAt time.Time
}

// Message is immutable once persisted. Seq breaks SentAt ties so the
// order of a chat's history never changes once committed.
type Message struct {
	ID       uuid.UUID
	ChatID   uuid.UUID
	SenderID uuid.UUID
	Content  *string
	MediaURL *string
	Seq      int64
	SentAt   time.Time
	IsRead   bool
}

// Views are what leaves the core: entities composed with presentation
// data resolved through the user directory, never raw storage rows.

type MemberView struct {
	UserID   uuid.UUID         `json:"user_id"`
	Role     Role              `json:"role"`
	JoinedAt time.Time         `json:"joined_at"`
	User     *user.DisplayInfo `json:"user"`
}

type MessageView struct {
	ID       uuid.UUID         `json:"id"`
	ChatID   uuid.UUID         `json:"chat_id"`
	SenderID uuid.UUID         `json:"sender_id"`
	Content  *string           `json:"content"`
	MediaURL *string           `json:"media_url"`
	SentAt   time.Time         `json:"sent_at"`
	IsRead   bool              `json:"is_read"`
	Sender   *user.DisplayInfo `json:"sender"`
}

type ChatView struct {
	ID             uuid.UUID    `json:"id"`
	Kind           Kind         `json:"kind"`
	Name           *string      `json:"name"`
	InviteCode     *string      `json:"invite_code,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	LastActivityAt time.Time    `json:"last_activity_at"`
	Members        []MemberView `json:"members"`
	LastMessage    *MessageView `json:"last_message,omitempty"`
}
