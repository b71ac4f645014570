package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"chatter/infrastructure"
)

type Repository interface {
	// Chat operations. CreateChat persists a chat and its initial
	// memberships as one unit; for direct chats it resolves the
	// unordered-pair uniqueness race by returning the already existing
	// chat (created=false) instead of an error.
	CreateChat(ctx context.Context, chat *Chat, members []*Membership) (c *Chat, created bool, err error)
	ChatByID(ctx context.Context, id uuid.UUID) (*Chat, error)
	ChatByInviteCode(ctx context.Context, code string) (*Chat, error)
	DirectChatBetween(ctx context.Context, memberIDs []uuid.UUID) (*Chat, error)

	// SetInviteCode writes the code only if none is set yet. It reports
	// false when the chat already had a code; a global code collision
	// surfaces as infrastructure.ErrDuplicateKey.
	SetInviteCode(ctx context.Context, chatID uuid.UUID, code string) (bool, error)

	// Membership operations. AddMember surfaces a (chat_id, user_id)
	// uniqueness violation as infrastructure.ErrDuplicateKey.
	AddMember(ctx context.Context, member *Membership) error
	Member(ctx context.Context, chatID, userID uuid.UUID) (*Membership, error)
	Members(ctx context.Context, chatID uuid.UUID) ([]*Membership, error)
	ChatsForUser(ctx context.Context, userID uuid.UUID) ([]*Chat, error)

	// Message operations. CreateMessage assigns the per-chat sequence
	// number and advances the chat's last activity in the same
	// transaction.
	CreateMessage(ctx context.Context, message *Message) error
	Messages(ctx context.Context, chatID uuid.UUID) ([]*Message, error)
	LatestMessage(ctx context.Context, chatID uuid.UUID) (*Message, error)
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// directKey canonicalizes a direct chat's member set into the sorted,
// pipe-joined key the chats.direct_key unique index guards.
func directKey(memberIDs []uuid.UUID) string {
	ids := make([]string, len(memberIDs))
	for i, id := range memberIDs {
		ids[i] = id.String()
	}
	sort.Strings(ids)
	return strings.Join(ids, "|")
}

const chatColumns = "id, is_group, name, invite_code, created_at, last_activity_at"

func scanChat(row interface{ Scan(...any) error }) (*Chat, error) {
	var (
		c          Chat
		isGroup    bool
		name       sql.NullString
		inviteCode sql.NullString
	)
	err := row.Scan(&c.ID, &isGroup, &name, &inviteCode, &c.CreatedAt, &c.LastActivityAt)
	if err != nil {
		return nil, err
	}
	c.Kind = KindDirect
	if isGroup {
		c.Kind = KindGroup
	}
	if name.Valid {
		c.Name = &name.String
	}
	if inviteCode.Valid {
		c.InviteCode = &inviteCode.String
	}
	return &c, nil
}

func (r *PostgresRepository) CreateChat(ctx context.Context, chat *Chat, members []*Membership) (*Chat, bool, error) {
	var key sql.NullString
	if chat.Kind == KindDirect {
		ids := make([]uuid.UUID, len(members))
		for i, m := range members {
			ids[i] = m.UserID
		}
		key = sql.NullString{String: directKey(ids), Valid: true}
	}

	err := infrastructure.WithTransaction(r.db, ctx, func(tx *sql.Tx) error {
		var name sql.NullString
		if chat.Name != nil {
			name = sql.NullString{String: *chat.Name, Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO chats (id, is_group, name, direct_key, last_seq, created_at, last_activity_at)
			VALUES ($1, $2, $3, $4, 0, $5, $5)
		`, chat.ID, chat.Kind == KindGroup, name, key, chat.CreatedAt)
		if err != nil {
			return err
		}

		for _, m := range members {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO chat_members (id, chat_id, user_id, is_admin, joined_at)
				VALUES ($1, $2, $3, $4, $5)
			`, uuid.New(), m.ChatID, m.UserID, m.Role == RoleAdmin, m.JoinedAt)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		return chat, true, nil
	}

	// A duplicate key on insert means a concurrent identical direct-chat
	// creation won the race; the existing chat is the correct result.
	if errors.Is(infrastructure.MapPQError(err), infrastructure.ErrDuplicateKey) && key.Valid {
		existing, lookupErr := r.directChatByKey(ctx, key.String)
		if lookupErr != nil {
			return nil, false, lookupErr
		}
		if existing != nil {
			return existing, false, nil
		}
	}
	return nil, false, fmt.Errorf("failed to create chat: %w", infrastructure.MapPQError(err))
}

func (r *PostgresRepository) ChatByID(ctx context.Context, id uuid.UUID) (*Chat, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+chatColumns+` FROM chats WHERE id = $1
	`, id)
	chat, err := scanChat(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, infrastructure.ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query chat: %w", err)
	}
	return chat, nil
}

func (r *PostgresRepository) ChatByInviteCode(ctx context.Context, code string) (*Chat, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+chatColumns+` FROM chats WHERE invite_code = $1
	`, code)
	chat, err := scanChat(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, infrastructure.ErrInvalidInviteCode
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query chat by invite code: %w", err)
	}
	return chat, nil
}

func (r *PostgresRepository) DirectChatBetween(ctx context.Context, memberIDs []uuid.UUID) (*Chat, error) {
	return r.directChatByKey(ctx, directKey(memberIDs))
}

func (r *PostgresRepository) directChatByKey(ctx context.Context, key string) (*Chat, error) {
	// created_at ASC keeps the result deterministic if rows predating the
	// unique index ever duplicated a pair.
	row := r.db.QueryRowContext(ctx, `
		SELECT `+chatColumns+` FROM chats
		WHERE direct_key = $1 AND is_group = FALSE
		ORDER BY created_at ASC
		LIMIT 1
	`, key)
	chat, err := scanChat(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query direct chat: %w", err)
	}
	return chat, nil
}

func (r *PostgresRepository) SetInviteCode(ctx context.Context, chatID uuid.UUID, code string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE chats SET invite_code = $1 WHERE id = $2 AND invite_code IS NULL
	`, code, chatID)
	if err != nil {
		return false, infrastructure.MapPQError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *PostgresRepository) AddMember(ctx context.Context, member *Membership) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_members (id, chat_id, user_id, is_admin, joined_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), member.ChatID, member.UserID, member.Role == RoleAdmin, member.JoinedAt)
	if err != nil {
		return infrastructure.MapPQError(err)
	}
	return nil
}

func (r *PostgresRepository) Member(ctx context.Context, chatID, userID uuid.UUID) (*Membership, error) {
	var (
		m       Membership
		isAdmin bool
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT chat_id, user_id, is_admin, joined_at
		FROM chat_members WHERE chat_id = $1 AND user_id = $2
	`, chatID, userID).Scan(&m.ChatID, &m.UserID, &isAdmin, &m.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query membership: %w", err)
	}
	m.Role = RoleMember
	if isAdmin {
		m.Role = RoleAdmin
	}
	return &m, nil
}

func (r *PostgresRepository) Members(ctx context.Context, chatID uuid.UUID) ([]*Membership, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT chat_id, user_id, is_admin, joined_at
		FROM chat_members WHERE chat_id = $1
		ORDER BY joined_at ASC
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []*Membership
	for rows.Next() {
		var (
			m       Membership
			isAdmin bool
		)
		if err := rows.Scan(&m.ChatID, &m.UserID, &isAdmin, &m.JoinedAt); err != nil {
			return nil, err
		}
		m.Role = RoleMember
		if isAdmin {
			m.Role = RoleAdmin
		}
		members = append(members, &m)
	}
	return members, rows.Err()
}

func (r *PostgresRepository) ChatsForUser(ctx context.Context, userID uuid.UUID) ([]*Chat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+chatColumns+` FROM chats
		WHERE id IN (SELECT chat_id FROM chat_members WHERE user_id = $1)
		ORDER BY last_activity_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user chats: %w", err)
	}
	defer rows.Close()

	var chats []*Chat
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

func (r *PostgresRepository) CreateMessage(ctx context.Context, message *Message) error {
	return infrastructure.WithTransaction(r.db, ctx, func(tx *sql.Tx) error {
		// The row lock taken by this UPDATE serializes senders per chat,
		// so assigned sequence numbers are strictly increasing.
		err := tx.QueryRowContext(ctx, `
			UPDATE chats SET last_seq = last_seq + 1, last_activity_at = $2
			WHERE id = $1
			RETURNING last_seq
		`, message.ChatID, message.SentAt).Scan(&message.Seq)
		if errors.Is(err, sql.ErrNoRows) {
			return infrastructure.ErrChatNotFound
		}
		if err != nil {
			return err
		}

		var content, mediaURL sql.NullString
		if message.Content != nil {
			content = sql.NullString{String: *message.Content, Valid: true}
		}
		if message.MediaURL != nil {
			mediaURL = sql.NullString{String: *message.MediaURL, Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO messages (id, chat_id, sender_id, content, media_url, seq, sent_at, is_read)
			VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)
		`, message.ID, message.ChatID, message.SenderID, content, mediaURL, message.Seq, message.SentAt)
		return err
	})
}

const messageColumns = "id, chat_id, sender_id, content, media_url, seq, sent_at, is_read"

func scanMessage(row interface{ Scan(...any) error }) (*Message, error) {
	var (
		m        Message
		content  sql.NullString
		mediaURL sql.NullString
	)
	err := row.Scan(&m.ID, &m.ChatID, &m.SenderID, &content, &mediaURL, &m.Seq, &m.SentAt, &m.IsRead)
	if err != nil {
		return nil, err
	}
	if content.Valid {
		m.Content = &content.String
	}
	if mediaURL.Valid {
		m.MediaURL = &mediaURL.String
	}
	return &m, nil
}

func (r *PostgresRepository) Messages(ctx context.Context, chatID uuid.UUID) ([]*Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE chat_id = $1
		ORDER BY sent_at ASC, seq ASC
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *PostgresRepository) LatestMessage(ctx context.Context, chatID uuid.UUID) (*Message, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE chat_id = $1
		ORDER BY sent_at DESC, seq DESC
		LIMIT 1
	`, chatID)
	m, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest message: %w", err)
	}
	return m, nil
}
