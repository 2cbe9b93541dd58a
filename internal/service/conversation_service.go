package service

import (
	"context"
	"fmt"

	"github.com/YongHui-X/ecoplate/internal/domain"
)

// ConversationService owns the buyer/seller conversation entity and its
// read/unread consistency rules.
type ConversationService struct {
	conversations domain.ConversationRepository
	messages      domain.MessageRepository
	listings      domain.ListingRepository
	users         domain.UserRepository
}

func NewConversationService(
	conversations domain.ConversationRepository,
	messages domain.MessageRepository,
	listings domain.ListingRepository,
	users domain.UserRepository,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		messages:      messages,
		listings:      listings,
		users:         users,
	}
}

// GetOrCreateForListing resolves the caller's conversation with the
// listing's seller, creating it if absent. Repeated and concurrent calls for
// the same triple return the same row; the unique index in the store is the
// serialization point.
func (s *ConversationService) GetOrCreateForListing(ctx context.Context, listingID, buyerID int64) (*domain.Conversation, error) {
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	if listing == nil {
		return nil, domain.ErrNotFound
	}
	if listing.SellerID == buyerID {
		return nil, fmt.Errorf("cannot start a conversation with yourself: %w", domain.ErrInvalidInput)
	}
	return s.conversations.GetOrCreate(ctx, listingID, buyerID, listing.SellerID)
}

// ConversationDetail is a conversation with its full latest-first message
// feed, as returned by GET /conversations/{id}.
type ConversationDetail struct {
	*domain.Conversation
	ListingTitle string            `json:"listingTitle"`
	Messages     []*domain.Message `json:"messages"`
}

// GetForUser returns the conversation with messages ordered newest first.
// Non-participants get the same not-found as a nonexistent id. As a side
// effect the other participant's messages are marked read in the store; no
// live-channel push happens on the reading side.
func (s *ConversationService) GetForUser(ctx context.Context, conversationID, userID int64) (*ConversationDetail, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil || !conv.HasParticipant(userID) {
		return nil, domain.ErrNotFound
	}

	if err := s.messages.MarkRead(ctx, conversationID, userID); err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}

	msgs, err := s.messages.ListForConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if err := s.attachSenders(ctx, msgs); err != nil {
		return nil, err
	}

	title := ""
	if listing, err := s.listings.GetByID(ctx, conv.ListingID); err == nil && listing != nil {
		title = listing.Title
	}

	return &ConversationDetail{
		Conversation: conv,
		ListingTitle: title,
		Messages:     msgs,
	}, nil
}

// ConversationSummary is one row of the conversation list: most recent
// activity first, with last-message preview and unread count.
type ConversationSummary struct {
	*domain.Conversation
	ListingTitle     string                `json:"listingTitle"`
	OtherParticipant *domain.PublicProfile `json:"otherParticipant,omitempty"`
	LastMessage      *domain.Message       `json:"lastMessage,omitempty"`
	UnreadCount      int                   `json:"unreadCount"`
}

// ListForUser returns the caller's conversations ordered by updatedAt
// descending. Unread counts come from one grouped query and previews from
// one latest-per-conversation query.
func (s *ConversationService) ListForUser(ctx context.Context, userID int64) ([]*ConversationSummary, error) {
	convs, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(convs) == 0 {
		return []*ConversationSummary{}, nil
	}

	unread, err := s.messages.UnreadByConversation(ctx, userID)
	if err != nil {
		return nil, err
	}
	latest, err := s.messages.LatestPerConversation(ctx, userID)
	if err != nil {
		return nil, err
	}

	titles := make(map[int64]string)
	profiles := make(map[int64]*domain.PublicProfile)

	res := make([]*ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		title, ok := titles[conv.ListingID]
		if !ok {
			if listing, err := s.listings.GetByID(ctx, conv.ListingID); err == nil && listing != nil {
				title = listing.Title
			}
			titles[conv.ListingID] = title
		}

		otherID := conv.OtherParticipant(userID)
		other, ok := profiles[otherID]
		if !ok {
			if u, err := s.users.GetByID(ctx, otherID); err == nil && u != nil {
				other = u.Profile()
			}
			profiles[otherID] = other
		}

		res = append(res, &ConversationSummary{
			Conversation:     conv,
			ListingTitle:     title,
			OtherParticipant: other,
			LastMessage:      latest[conv.ID],
			UnreadCount:      unread[conv.ID],
		})
	}
	return res, nil
}

// IsParticipant is the authorization primitive used before acting on an
// existing conversation id.
func (s *ConversationService) IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return false, err
	}
	return conv != nil && conv.HasParticipant(userID), nil
}

// MarkRead flips the other participant's messages to read. Idempotent;
// non-participants get not-found.
func (s *ConversationService) MarkRead(ctx context.Context, conversationID, readerID int64) error {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv == nil || !conv.HasParticipant(readerID) {
		return domain.ErrNotFound
	}
	return s.messages.MarkRead(ctx, conversationID, readerID)
}

// attachSenders decorates messages with their authors' public profiles.
func (s *ConversationService) attachSenders(ctx context.Context, msgs []*domain.Message) error {
	profiles := make(map[int64]*domain.PublicProfile)
	for _, m := range msgs {
		p, ok := profiles[m.SenderID]
		if !ok {
			u, err := s.users.GetByID(ctx, m.SenderID)
			if err != nil {
				return fmt.Errorf("get sender %d: %w", m.SenderID, err)
			}
			if u != nil {
				p = u.Profile()
			}
			profiles[m.SenderID] = p
		}
		m.Sender = p
	}
	return nil
}
