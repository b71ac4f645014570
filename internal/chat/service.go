package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"chatter/infrastructure"
	"chatter/internal/media"
	"chatter/internal/user"
)

// Service implements the chat core: chat creation with direct-chat
// deduplication, invite issuance, membership-gated messaging, and the
// composed query views.
type Service struct {
	repo      Repository
	directory user.Directory
	media     media.Store
	log       zerolog.Logger
}

func NewService(repo Repository, directory user.Directory, mediaStore media.Store, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		media:     mediaStore,
		log:       log.With().Str("component", "chat-service").Logger(),
	}
}

// CreateChat creates a direct or group chat with the creator and the given
// participants as initial members. Creating a direct chat for a pair that
// already has one returns the existing chat unchanged, even under
// concurrent identical requests.
func (s *Service) CreateChat(ctx context.Context, creatorID uuid.UUID, participantIDs []uuid.UUID, isGroup bool, name string) (*ChatView, error) {
	allIDs := lo.Uniq(append(participantIDs, creatorID))
	if !isGroup && len(allIDs) > 2 {
		return nil, infrastructure.ErrDirectChatSize
	}

	if !isGroup {
		existing, err := s.repo.DirectChatBetween(ctx, allIDs)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return s.composeChat(ctx, existing, false)
		}
	}

	now := time.Now().UTC()
	chat := &Chat{
		ID:             uuid.New(),
		Kind:           KindDirect,
		CreatedAt:      now,
		LastActivityAt: now,
	}
	if isGroup {
		chat.Kind = KindGroup
		if name != "" {
			chat.Name = &name
		}
	}

	members := lo.Map(allIDs, func(id uuid.UUID, _ int) *Membership {
		role := RoleMember
		if isGroup && id == creatorID {
			role = RoleAdmin
		}
		return &Membership{ChatID: chat.ID, UserID: id, Role: role, JoinedAt: now}
	})

	chat, created, err := s.repo.CreateChat(ctx, chat, members)
	if err != nil {
		return nil, err
	}
	if created {
		s.log.Info().
			Str("chat_id", chat.ID.String()).
			Str("kind", string(chat.Kind)).
			Int("members", len(members)).
			Msg("chat created")
	}
	return s.composeChat(ctx, chat, false)
}

// JoinChat adds the user to the group chat behind the invite code. Joining
// a chat the user already belongs to is not an error.
func (s *Service) JoinChat(ctx context.Context, userID uuid.UUID, inviteCode string) (*ChatView, error) {
	chat, err := s.repo.ChatByInviteCode(ctx, inviteCode)
	if err != nil {
		return nil, err
	}

	err = s.repo.AddMember(ctx, &Membership{
		ChatID:   chat.ID,
		UserID:   userID,
		Role:     RoleMember,
		JoinedAt: time.Now().UTC(),
	})
	if err != nil && !errors.Is(err, infrastructure.ErrDuplicateKey) {
		return nil, err
	}
	if err == nil {
		s.log.Info().
			Str("chat_id", chat.ID.String()).
			Str("user_id", userID.String()).
			Msg("user joined by invite code")
	}

	return s.composeChat(ctx, chat, false)
}

// CreateInviteLink returns the chat's invite code, generating and
// persisting one the first time. Concurrent first-time requests converge
// on a single stored code.
func (s *Service) CreateInviteLink(ctx context.Context, chatID, requesterID uuid.UUID) (string, error) {
	member, err := s.repo.Member(ctx, chatID, requesterID)
	if err != nil {
		return "", err
	}
	if member == nil {
		return "", infrastructure.ErrForbidden
	}

	chat, err := s.repo.ChatByID(ctx, chatID)
	if err != nil {
		return "", err
	}
	if chat.Kind != KindGroup {
		return "", infrastructure.ErrNotAGroupChat
	}
	if chat.InviteCode != nil {
		return *chat.InviteCode, nil
	}

	for attempt := 0; attempt < maxInviteCodeAttempts; attempt++ {
		code, err := generateInviteCode()
		if err != nil {
			return "", err
		}

		set, err := s.repo.SetInviteCode(ctx, chatID, code)
		if errors.Is(err, infrastructure.ErrDuplicateKey) {
			// Another chat holds this code; draw again.
			continue
		}
		if err != nil {
			return "", err
		}
		if !set {
			// A concurrent requester set the code first; theirs wins.
			chat, err = s.repo.ChatByID(ctx, chatID)
			if err != nil {
				return "", err
			}
			if chat.InviteCode == nil {
				return "", infrastructure.ErrInternalServer
			}
			return *chat.InviteCode, nil
		}
		return code, nil
	}
	return "", infrastructure.ErrCodeExhausted
}

// SendMessage validates membership, stores inline media, and appends the
// message to the chat's history.
func (s *Service) SendMessage(ctx context.Context, chatID, senderID uuid.UUID, content, mediaPayload string) (*MessageView, error) {
	member, err := s.repo.Member(ctx, chatID, senderID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, infrastructure.ErrForbidden
	}

	var mediaRef string
	if mediaPayload != "" {
		mediaRef, err = s.media.Store(ctx, mediaPayload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", infrastructure.ErrMediaStore, err)
		}
	}
	if content == "" && mediaRef == "" {
		return nil, infrastructure.ErrInvalidMessage
	}

	message := &Message{
		ID:       uuid.New(),
		ChatID:   chatID,
		SenderID: senderID,
		SentAt:   time.Now().UTC(),
	}
	if content != "" {
		message.Content = &content
	}
	if mediaRef != "" {
		message.MediaURL = &mediaRef
	}

	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	cache := map[uuid.UUID]*user.DisplayInfo{}
	return s.messageView(ctx, message, cache), nil
}

// ListMessages returns the chat's full history ordered by send time, ties
// broken by sequence number.
func (s *Service) ListMessages(ctx context.Context, chatID, requesterID uuid.UUID) ([]*MessageView, error) {
	member, err := s.repo.Member(ctx, chatID, requesterID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, infrastructure.ErrForbidden
	}

	messages, err := s.repo.Messages(ctx, chatID)
	if err != nil {
		return nil, err
	}

	cache := map[uuid.UUID]*user.DisplayInfo{}
	views := make([]*MessageView, len(messages))
	for i, m := range messages {
		views[i] = s.messageView(ctx, m, cache)
	}
	return views, nil
}

// ListChats returns the user's chats ordered by most recent activity, each
// composed with its members and latest message.
func (s *Service) ListChats(ctx context.Context, userID uuid.UUID) ([]*ChatView, error) {
	chats, err := s.repo.ChatsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]*ChatView, len(chats))
	for i, c := range chats {
		view, err := s.composeChat(ctx, c, true)
		if err != nil {
			return nil, err
		}
		views[i] = view
	}
	return views, nil
}

// GetChat returns a single chat's composed view for a member.
func (s *Service) GetChat(ctx context.Context, chatID, requesterID uuid.UUID) (*ChatView, error) {
	chat, err := s.repo.ChatByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	member, err := s.repo.Member(ctx, chatID, requesterID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, infrastructure.ErrForbidden
	}

	return s.composeChat(ctx, chat, false)
}

func (s *Service) composeChat(ctx context.Context, chat *Chat, withLastMessage bool) (*ChatView, error) {
	members, err := s.repo.Members(ctx, chat.ID)
	if err != nil {
		return nil, err
	}

	cache := map[uuid.UUID]*user.DisplayInfo{}
	view := &ChatView{
		ID:             chat.ID,
		Kind:           chat.Kind,
		Name:           chat.Name,
		InviteCode:     chat.InviteCode,
		CreatedAt:      chat.CreatedAt,
		LastActivityAt: chat.LastActivityAt,
		Members: lo.Map(members, func(m *Membership, _ int) MemberView {
			return MemberView{
				UserID:   m.UserID,
				Role:     m.Role,
				JoinedAt: m.JoinedAt,
				User:     s.resolve(ctx, m.UserID, cache),
			}
		}),
	}

	if withLastMessage {
		latest, err := s.repo.LatestMessage(ctx, chat.ID)
		if err != nil {
			return nil, err
		}
		if latest != nil {
			view.LastMessage = s.messageView(ctx, latest, cache)
		}
	}
	return view, nil
}

func (s *Service) messageView(ctx context.Context, m *Message, cache map[uuid.UUID]*user.DisplayInfo) *MessageView {
	return &MessageView{
		ID:       m.ID,
		ChatID:   m.ChatID,
		SenderID: m.SenderID,
		Content:  m.Content,
		MediaURL: m.MediaURL,
		SentAt:   m.SentAt,
		IsRead:   m.IsRead,
		Sender:   s.resolve(ctx, m.SenderID, cache),
	}
}

// resolve looks up display info through the directory, degrading to null
// display fields when the user is unknown or the directory fails. A
// missing profile must never fail a composed response.
func (s *Service) resolve(ctx context.Context, id uuid.UUID, cache map[uuid.UUID]*user.DisplayInfo) *user.DisplayInfo {
	if info, ok := cache[id]; ok {
		return info
	}
	info, err := s.directory.Resolve(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", id.String()).Msg("failed to resolve user display info")
		info = &user.DisplayInfo{ID: id}
	}
	cache[id] = info
	return info
}
