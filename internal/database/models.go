package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Chat is a conversation container. DirectKey holds the canonical sorted
// participant pair for direct chats and is NULL for groups; its unique
// index is what makes concurrent identical direct-chat creations converge
// on a single row.
type Chat struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Name           sql.NullString `gorm:"type:text"`
	IsGroup        bool           `gorm:"not null;default:false"`
	InviteCode     sql.NullString `gorm:"type:text;uniqueIndex"`
	DirectKey      sql.NullString `gorm:"type:text;uniqueIndex"`
	LastSeq        int64          `gorm:"not null;default:0"`
	CreatedAt      time.Time      `gorm:"not null"`
	LastActivityAt time.Time      `gorm:"not null;index"`
}

type ChatMember struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	ChatID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_chat_members_chat_user"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_chat_members_chat_user"`
	IsAdmin  bool      `gorm:"not null;default:false"`
	JoinedAt time.Time `gorm:"not null"`

	Chat Chat `gorm:"constraint:OnDelete:CASCADE"`
}

// Message rows are append-only. Seq is assigned per chat from Chat.LastSeq
// inside the insert transaction, so (ChatID, Seq) totally orders a chat's
// history even when SentAt collides.
type Message struct {
	ID       uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ChatID   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_messages_chat_seq"`
	SenderID uuid.UUID      `gorm:"type:uuid;not null"`
	Content  sql.NullString `gorm:"type:text"`
	MediaURL sql.NullString `gorm:"type:text"`
	Seq      int64          `gorm:"not null;uniqueIndex:idx_messages_chat_seq"`
	SentAt   time.Time      `gorm:"not null"`
	IsRead   bool           `gorm:"not null;default:false"`

	Chat Chat `gorm:"constraint:OnDelete:CASCADE"`
}

// User mirrors the directory table owned by the identity system; this core
// only reads display attributes from it.
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Username  string         `gorm:"type:text;not null"`
	AvatarURL sql.NullString `gorm:"type:text"`
	CreatedAt time.Time      `gorm:"not null"`
}
