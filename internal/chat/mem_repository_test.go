package chat

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"chatter/infrastructure"
	"chatter/internal/user"
)

// memoryRepository is a test double that enforces the same uniqueness
// semantics as the Postgres schema (direct pair key, invite code,
// (chat_id, user_id)), so the service's idempotency and race
// normalization paths get exercised for real.
type memoryRepository struct {
	mu          sync.Mutex
	chats       map[uuid.UUID]*Chat
	directKeys  map[string]uuid.UUID
	inviteCodes map[string]uuid.UUID
	members     map[uuid.UUID][]*Membership
	messages    map[uuid.UUID][]*Message
	seq         map[uuid.UUID]int64
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		chats:       map[uuid.UUID]*Chat{},
		directKeys:  map[string]uuid.UUID{},
		inviteCodes: map[string]uuid.UUID{},
		members:     map[uuid.UUID][]*Membership{},
		messages:    map[uuid.UUID][]*Message{},
		seq:         map[uuid.UUID]int64{},
	}
}

func (r *memoryRepository) CreateChat(_ context.Context, chat *Chat, members []*Membership) (*Chat, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if chat.Kind == KindDirect {
		ids := make([]uuid.UUID, len(members))
		for i, m := range members {
			ids[i] = m.UserID
		}
		key := directKey(ids)
		if existingID, ok := r.directKeys[key]; ok {
			return r.chats[existingID], false, nil
		}
		r.directKeys[key] = chat.ID
	}

	r.chats[chat.ID] = chat
	r.members[chat.ID] = append([]*Membership{}, members...)
	return chat, true, nil
}

func (r *memoryRepository) ChatByID(_ context.Context, id uuid.UUID) (*Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[id]
	if !ok {
		return nil, infrastructure.ErrChatNotFound
	}
	return chat, nil
}

func (r *memoryRepository) ChatByInviteCode(_ context.Context, code string) (*Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.inviteCodes[code]
	if !ok {
		return nil, infrastructure.ErrInvalidInviteCode
	}
	return r.chats[id], nil
}

func (r *memoryRepository) DirectChatBetween(_ context.Context, memberIDs []uuid.UUID) (*Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.directKeys[directKey(memberIDs)]; ok {
		return r.chats[id], nil
	}
	return nil, nil
}

func (r *memoryRepository) SetInviteCode(_ context.Context, chatID uuid.UUID, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if holder, ok := r.inviteCodes[code]; ok && holder != chatID {
		return false, infrastructure.ErrDuplicateKey
	}
	chat, ok := r.chats[chatID]
	if !ok || chat.InviteCode != nil {
		return false, nil
	}
	chat.InviteCode = &code
	r.inviteCodes[code] = chatID
	return true, nil
}

func (r *memoryRepository) AddMember(_ context.Context, member *Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members[member.ChatID] {
		if m.UserID == member.UserID {
			return infrastructure.ErrDuplicateKey
		}
	}
	r.members[member.ChatID] = append(r.members[member.ChatID], member)
	return nil
}

func (r *memoryRepository) Member(_ context.Context, chatID, userID uuid.UUID) (*Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members[chatID] {
		if m.UserID == userID {
			return m, nil
		}
	}
	return nil, nil
}

func (r *memoryRepository) Members(_ context.Context, chatID uuid.UUID) ([]*Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := append([]*Membership{}, r.members[chatID]...)
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	return members, nil
}

func (r *memoryRepository) ChatsForUser(_ context.Context, userID uuid.UUID) ([]*Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var chats []*Chat
	for chatID, members := range r.members {
		for _, m := range members {
			if m.UserID == userID {
				chats = append(chats, r.chats[chatID])
				break
			}
		}
	}
	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].LastActivityAt.After(chats[j].LastActivityAt)
	})
	return chats, nil
}

func (r *memoryRepository) CreateMessage(_ context.Context, message *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[message.ChatID]
	if !ok {
		return infrastructure.ErrChatNotFound
	}
	r.seq[message.ChatID]++
	message.Seq = r.seq[message.ChatID]
	chat.LastActivityAt = message.SentAt
	r.messages[message.ChatID] = append(r.messages[message.ChatID], message)
	return nil
}

func (r *memoryRepository) Messages(_ context.Context, chatID uuid.UUID) ([]*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	messages := append([]*Message{}, r.messages[chatID]...)
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].SentAt.Equal(messages[j].SentAt) {
			return messages[i].Seq < messages[j].Seq
		}
		return messages[i].SentAt.Before(messages[j].SentAt)
	})
	return messages, nil
}

func (r *memoryRepository) LatestMessage(_ context.Context, chatID uuid.UUID) (*Message, error) {
	messages, _ := r.Messages(context.Background(), chatID)
	if len(messages) == 0 {
		return nil, nil
	}
	return messages[len(messages)-1], nil
}

// chatCount reports how many chat rows exist, used by dedup assertions.
func (r *memoryRepository) chatCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chats)
}

func (r *memoryRepository) memberCount(chatID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members[chatID])
}

// mapDirectory is an in-memory user.Directory; ids missing from the map
// resolve to null display fields, like the Postgres directory.
type mapDirectory struct {
	names map[uuid.UUID]string
}

func (d *mapDirectory) Resolve(_ context.Context, id uuid.UUID) (*user.DisplayInfo, error) {
	if name, ok := d.names[id]; ok {
		return &user.DisplayInfo{ID: id, Username: &name}, nil
	}
	return &user.DisplayInfo{ID: id}, nil
}

// stubMediaStore records stored payloads and can be told to fail.
type stubMediaStore struct {
	fail   bool
	stored int
}

func (s *stubMediaStore) Store(_ context.Context, payload string) (string, error) {
	if s.fail {
		return "", context.DeadlineExceeded
	}
	if len(payload) > 5 && payload[:5] == "data:" {
		s.stored++
		return "/media/stored-" + uuid.NewString(), nil
	}
	return payload, nil
}
