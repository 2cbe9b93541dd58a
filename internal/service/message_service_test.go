package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YongHui-X/ecoplate/internal/domain"
	"github.com/YongHui-X/ecoplate/internal/service"
	"github.com/YongHui-X/ecoplate/internal/ws"
)

// recordingConn captures frames pushed over the live channel.
type recordingConn struct {
	mu     sync.Mutex
	frames []any

	writeErr error
}

func (c *recordingConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.frames = append(c.frames, v)
	return nil
}

func (c *recordingConn) Close() error { return nil }

// typed decodes every captured frame into (type, payload) pairs.
func (c *recordingConn) typed(t *testing.T) []struct {
	Type    string
	Payload json.RawMessage
} {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]struct {
		Type    string
		Payload json.RawMessage
	}, 0, len(c.frames))
	for _, f := range c.frames {
		raw, err := json.Marshal(f)
		require.NoError(t, err)
		var env struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(raw, &env))
		out = append(out, struct {
			Type    string
			Payload json.RawMessage
		}{env.Type, env.Payload})
	}
	return out
}

type msgFixture struct {
	*convFixture
	hub *ws.Hub
	svc *service.MessageService
}

func newMsgFixture(t *testing.T) *msgFixture {
	t.Helper()
	cf := newConvFixture(t)

	hub := ws.NewHub()
	disp := ws.NewDispatcher(hub)

	svc := service.NewMessageService(cf.svc, cf.convRepo, cf.msgRepo, cf.listings, cf.users, disp)
	return &msgFixture{convFixture: cf, hub: hub, svc: svc}
}

func (f *msgFixture) connect(userID int64) *recordingConn {
	conn := &recordingConn{}
	f.hub.Add(ws.NewClient(userID, conn))
	return conn
}

func ptr(v int64) *int64 { return &v }

func TestSendMessageValidation(t *testing.T) {
	f := newMsgFixture(t)
	ctx := context.Background()

	t.Run("EmptyText", func(t *testing.T) {
		_, err := f.svc.Send(ctx, f.buyer.ID, service.SendMessageInput{
			ListingID: ptr(f.listing.ID),
			Text:      "   ",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("TooLong", func(t *testing.T) {
		_, err := f.svc.Send(ctx, f.buyer.ID, service.SendMessageInput{
			ListingID: ptr(f.listing.ID),
			Text:      strings.Repeat("a", 2001),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("MaxLengthAccepted", func(t *testing.T) {
		msg, err := f.svc.Send(ctx, f.buyer.ID, service.SendMessageInput{
			ListingID: ptr(f.listing.ID),
			Text:      strings.Repeat("a", 2000),
		})
		require.NoError(t, err)
		assert.Len(t, []rune(msg.Text), 2000)
	})

	t.Run("BothTargets", func(t *testing.T) {
		_, err := f.svc.Send(ctx, f.buyer.ID, service.SendMessageInput{
			ConversationID: ptr(1),
			ListingID:      ptr(f.listing.ID),
			Text:           "hi",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("NoTarget", func(t *testing.T) {
		_, err := f.svc.Send(ctx, f.buyer.ID, service.SendMessageInput{Text: "hi"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestSendMessageByListing(t *testing.T) {
	f := newMsgFixture(t)
	ctx := context.Background()

	msg, err := f.svc.Send(ctx, f.buyer.ID, service.SendMessageInput{
		ListingID: ptr(f.listing.ID),
		Text:      "  is this still available?  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "is this still available?", msg.Text, "text is trimmed")
	assert.Equal(t, f.buyer.ID, msg.SenderID)
	assert.NotZero(t, msg.ConversationID, "conversation is created on first contact")
	require.NotNil(t, msg.Sender)
	assert.Equal(t, "Buyer", msg.Sender.Name)

	// A second send reuses the conversation.
	again, err := f.svc.Send(ctx, f.buyer.ID, service.SendMessageInput{
		ListingID: ptr(f.listing.ID),
		Text:      "anyone there?",
	})
	require.NoError(t, err)
	assert.Equal(t, msg.ConversationID, again.ConversationID)
	assert.Equal(t, 1, f.convRepo.count())
}

func TestSendMessageByConversation(t *testing.T) {
	f := newMsgFixture(t)
	ctx := context.Background()

	conv, err := f.convRepo.GetOrCreate(ctx, f.listing.ID, f.buyer.ID, f.seller.ID)
	require.NoError(t, err)

	t.Run("ParticipantCanSend", func(t *testing.T) {
		msg, err := f.svc.Send(ctx, f.seller.ID, service.SendMessageInput{
			ConversationID: ptr(conv.ID),
			Text:           "yes, come by at 6",
		})
		require.NoError(t, err)
		assert.Equal(t, conv.ID, msg.ConversationID)
	})

	t.Run("OutsiderMasked", func(t *testing.T) {
		_, err := f.svc.Send(ctx, 999, service.SendMessageInput{
			ConversationID: ptr(conv.ID),
			Text:           "let me in",
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("UnknownConversation", func(t *testing.T) {
		_, err := f.svc.Send(ctx, f.buyer.ID, service.SendMessageInput{
			ConversationID: ptr(int64(4242)),
			Text:           "hello?",
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestSendPushesToRecipient(t *testing.T) {
	f := newMsgFixture(t)
	ctx := context.Background()

	sellerTab1 := f.connect(f.seller.ID)
	sellerTab2 := f.connect(f.seller.ID)
	buyerConn := f.connect(f.buyer.ID)

	msg, err := f.svc.Send(ctx, f.buyer.ID, service.SendMessageInput{
		ListingID: ptr(f.listing.ID),
		Text:      "is this still available?",
	})
	require.NoError(t, err)

	for _, conn := range []*recordingConn{sellerTab1, sellerTab2} {
		frames := conn.typed(t)
		require.Len(t, frames, 2, "recipient gets new-message then unread-count-update")

		assert.Equal(t, "new-message", frames[0].Type)
		var nm struct {
			ConversationID int64 `json:"conversationId"`
			Message        struct {
				ID   int64  `json:"id"`
				Text string `json:"text"`
			} `json:"message"`
			SenderName   string `json:"senderName"`
			ListingTitle string `json:"listingTitle"`
		}
		require.NoError(t, json.Unmarshal(frames[0].Payload, &nm))
		assert.Equal(t, msg.ConversationID, nm.ConversationID)
		assert.Equal(t, msg.ID, nm.Message.ID)
		assert.Equal(t, "is this still available?", nm.Message.Text)
		assert.Equal(t, "Buyer", nm.SenderName)
		assert.Equal(t, "Sourdough loaf", nm.ListingTitle)

		assert.Equal(t, "unread-count-update", frames[1].Type)
		var uc struct {
			Count int `json:"count"`
		}
		require.NoError(t, json.Unmarshal(frames[1].Payload, &uc))
		assert.Equal(t, 1, uc.Count)
	}

	assert.Empty(t, buyerConn.typed(t), "the sender receives no push")
}

func TestSendSucceedsWithOfflineRecipient(t *testing.T) {
	f := newMsgFixture(t)
	ctx := context.Background()

	msg, err := f.svc.Send(ctx, f.buyer.ID, service.SendMessageInput{
		ListingID: ptr(f.listing.ID),
		Text:      "hello",
	})
	require.NoError(t, err)

	// The write is committed even though nobody was connected.
	count, err := f.svc.UnreadCountFor(ctx, f.seller.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.NotZero(t, msg.ID)
}

func TestSendSucceedsWithBrokenRecipientConn(t *testing.T) {
	f := newMsgFixture(t)
	ctx := context.Background()

	broken := &recordingConn{writeErr: errors.New("broken pipe")}
	f.hub.Add(ws.NewClient(f.seller.ID, broken))

	_, err := f.svc.Send(ctx, f.buyer.ID, service.SendMessageInput{
		ListingID: ptr(f.listing.ID),
		Text:      "hello",
	})
	require.NoError(t, err, "push failure never reaches the sender")
	assert.False(t, f.hub.IsOnline(f.seller.ID), "broken connection is evicted")
}

func TestUnreadCountFor(t *testing.T) {
	f := newMsgFixture(t)
	ctx := context.Background()

	second := &domain.Listing{
		SellerID: f.seller.ID,
		Title:    "Crate of apples",
		Category: "produce",
		Status:   domain.ListingAvailable,
	}
	require.NoError(t, f.listings.Create(ctx, second))

	// Two unread to the seller on the first listing, one on the second.
	for i := 0; i < 2; i++ {
		_, err := f.svc.Send(ctx, f.buyer.ID, service.SendMessageInput{
			ListingID: ptr(f.listing.ID),
			Text:      "msg",
		})
		require.NoError(t, err)
	}
	_, err := f.svc.Send(ctx, f.buyer.ID, service.SendMessageInput{
		ListingID: ptr(second.ID),
		Text:      "msg",
	})
	require.NoError(t, err)

	count, err := f.svc.UnreadCountFor(ctx, f.seller.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// The buyer's own messages contribute nothing.
	count, err = f.svc.UnreadCountFor(ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	t.Run("ArchivedListingExcluded", func(t *testing.T) {
		listing, err := f.listings.GetByID(ctx, second.ID)
		require.NoError(t, err)
		listing.Status = domain.ListingCompleted
		require.NoError(t, f.listings.Update(ctx, listing))

		count, err := f.svc.UnreadCountFor(ctx, f.seller.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, count, "completed listings drop out of the total")
	})

	t.Run("MarkReadDrivesCountToZero", func(t *testing.T) {
		convs, err := f.convRepo.ListForUser(ctx, f.seller.ID)
		require.NoError(t, err)
		for _, c := range convs {
			require.NoError(t, f.svc.MarkConversationRead(ctx, c.ID, f.seller.ID))
		}

		count, err := f.svc.UnreadCountFor(ctx, f.seller.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}
