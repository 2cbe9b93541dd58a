package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/YongHui-X/ecoplate/internal/domain"
	"github.com/YongHui-X/ecoplate/internal/ws"
)

const maxMessageLength = 2000

// MessageService persists chat messages and drives the live-channel pushes
// that follow a committed write.
type MessageService struct {
	convs         *ConversationService
	conversations domain.ConversationRepository
	messages      domain.MessageRepository
	listings      domain.ListingRepository
	users         domain.UserRepository
	dispatcher    *ws.Dispatcher
}

func NewMessageService(
	convs *ConversationService,
	conversations domain.ConversationRepository,
	messages domain.MessageRepository,
	listings domain.ListingRepository,
	users domain.UserRepository,
	dispatcher *ws.Dispatcher,
) *MessageService {
	return &MessageService{
		convs:         convs,
		conversations: conversations,
		messages:      messages,
		listings:      listings,
		users:         users,
		dispatcher:    dispatcher,
	}
}

type SendMessageInput struct {
	ConversationID *int64
	ListingID      *int64
	Text           string
}

// Send persists a message against an existing conversation or a listing's
// get-or-create conversation, then pushes new-message and the recipient's
// recomputed unread count to the recipient's live connections. The push is
// best-effort and strictly follows the committed insert; its failure never
// reaches the caller.
func (s *MessageService) Send(ctx context.Context, senderID int64, in SendMessageInput) (*domain.Message, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, fmt.Errorf("messageText is required: %w", domain.ErrInvalidInput)
	}
	if len([]rune(text)) > maxMessageLength {
		return nil, fmt.Errorf("messageText exceeds %d characters: %w", maxMessageLength, domain.ErrInvalidInput)
	}

	var conv *domain.Conversation
	var err error
	switch {
	case in.ConversationID != nil && in.ListingID != nil:
		return nil, fmt.Errorf("conversationId and listingId are mutually exclusive: %w", domain.ErrInvalidInput)
	case in.ConversationID != nil:
		conv, err = s.conversations.GetByID(ctx, *in.ConversationID)
		if err != nil {
			return nil, err
		}
		if conv == nil || !conv.HasParticipant(senderID) {
			return nil, domain.ErrNotFound
		}
	case in.ListingID != nil:
		conv, err = s.convs.GetOrCreateForListing(ctx, *in.ListingID, senderID)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("one of conversationId or listingId is required: %w", domain.ErrInvalidInput)
	}

	msg := &domain.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Text:           text,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.conversations.Touch(ctx, conv.ID); err != nil {
		log.Printf("messages: touch conversation %d: %v", conv.ID, err)
	}

	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil || sender == nil {
		log.Printf("messages: resolve sender %d: %v", senderID, err)
	} else {
		msg.Sender = sender.Profile()
	}

	s.pushToRecipient(ctx, conv, msg, sender)
	return msg, nil
}

// pushToRecipient fans the committed message and a fresh unread count out to
// the other participant's live connections.
func (s *MessageService) pushToRecipient(ctx context.Context, conv *domain.Conversation, msg *domain.Message, sender *domain.User) {
	recipientID := conv.OtherParticipant(msg.SenderID)

	senderName := ""
	if sender != nil {
		senderName = sender.Name
	}
	listingTitle := ""
	if listing, err := s.listings.GetByID(ctx, conv.ListingID); err == nil && listing != nil {
		listingTitle = listing.Title
	}

	s.dispatcher.NotifyNewMessage(recipientID, ws.NewMessage(conv.ID, msg, senderName, listingTitle))

	count, err := s.messages.UnreadTotalFor(ctx, recipientID)
	if err != nil {
		log.Printf("messages: unread count for %d: %v", recipientID, err)
		return
	}
	s.dispatcher.NotifyUnreadCount(recipientID, count)
}

// UnreadCountFor returns the caller's authoritative unread total from one
// aggregate query.
func (s *MessageService) UnreadCountFor(ctx context.Context, userID int64) (int, error) {
	return s.messages.UnreadTotalFor(ctx, userID)
}

// MarkConversationRead marks the other participant's messages read.
func (s *MessageService) MarkConversationRead(ctx context.Context, conversationID, readerID int64) error {
	return s.convs.MarkRead(ctx, conversationID, readerID)
}
