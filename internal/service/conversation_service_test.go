package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YongHui-X/ecoplate/internal/domain"
	"github.com/YongHui-X/ecoplate/internal/service"
)

type convFixture struct {
	users    *fakeUserRepo
	listings *fakeListingRepo
	convRepo *fakeConversationRepo
	msgRepo  *fakeMessageRepo
	svc      *service.ConversationService

	seller  *domain.User
	buyer   *domain.User
	listing *domain.Listing
}

func newConvFixture(t *testing.T) *convFixture {
	t.Helper()
	ctx := context.Background()

	users := newFakeUserRepo()
	listings := newFakeListingRepo()
	convRepo := newFakeConversationRepo()
	msgRepo := newFakeMessageRepo(convRepo, listings)

	seller := &domain.User{Email: "seller@example.com", Name: "Seller", IsActive: true}
	buyer := &domain.User{Email: "buyer@example.com", Name: "Buyer", IsActive: true}
	require.NoError(t, users.Create(ctx, seller))
	require.NoError(t, users.Create(ctx, buyer))

	listing := &domain.Listing{
		SellerID: seller.ID,
		Title:    "Sourdough loaf",
		Category: "bakery",
		Status:   domain.ListingAvailable,
	}
	require.NoError(t, listings.Create(ctx, listing))

	return &convFixture{
		users:    users,
		listings: listings,
		convRepo: convRepo,
		msgRepo:  msgRepo,
		svc:      service.NewConversationService(convRepo, msgRepo, listings, users),
		seller:   seller,
		buyer:    buyer,
		listing:  listing,
	}
}

func TestGetOrCreateForListing(t *testing.T) {
	f := newConvFixture(t)
	ctx := context.Background()

	t.Run("CreatesThenReuses", func(t *testing.T) {
		first, err := f.svc.GetOrCreateForListing(ctx, f.listing.ID, f.buyer.ID)
		require.NoError(t, err)
		require.NotNil(t, first)
		assert.Equal(t, f.listing.ID, first.ListingID)
		assert.Equal(t, f.buyer.ID, first.BuyerID)
		assert.Equal(t, f.seller.ID, first.SellerID)

		second, err := f.svc.GetOrCreateForListing(ctx, f.listing.ID, f.buyer.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 1, f.convRepo.count())
	})

	t.Run("UnknownListing", func(t *testing.T) {
		_, err := f.svc.GetOrCreateForListing(ctx, 9999, f.buyer.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("SellerCannotMessageThemselves", func(t *testing.T) {
		_, err := f.svc.GetOrCreateForListing(ctx, f.listing.ID, f.seller.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestGetOrCreateForListingConcurrent(t *testing.T) {
	f := newConvFixture(t)
	ctx := context.Background()

	const callers = 20
	ids := make([]int64, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conv, err := f.svc.GetOrCreateForListing(ctx, f.listing.ID, f.buyer.ID)
			errs[i] = err
			if conv != nil {
				ids[i] = conv.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i], "all callers converge on one conversation")
	}
	assert.Equal(t, 1, f.convRepo.count())
}

func TestGetForUser(t *testing.T) {
	f := newConvFixture(t)
	ctx := context.Background()

	conv, err := f.svc.GetOrCreateForListing(ctx, f.listing.ID, f.buyer.ID)
	require.NoError(t, err)

	for _, text := range []string{"hi", "is this available?", "yes it is"} {
		sender := f.buyer.ID
		if text == "yes it is" {
			sender = f.seller.ID
		}
		require.NoError(t, f.msgRepo.Create(ctx, &domain.Message{
			ConversationID: conv.ID,
			SenderID:       sender,
			Text:           text,
		}))
	}

	t.Run("NewestFirstWithSenders", func(t *testing.T) {
		detail, err := f.svc.GetForUser(ctx, conv.ID, f.buyer.ID)
		require.NoError(t, err)
		require.Len(t, detail.Messages, 3)
		assert.Equal(t, "yes it is", detail.Messages[0].Text)
		assert.Equal(t, "hi", detail.Messages[2].Text)
		assert.Equal(t, "Sourdough loaf", detail.ListingTitle)
		require.NotNil(t, detail.Messages[0].Sender)
		assert.Equal(t, "Seller", detail.Messages[0].Sender.Name)
	})

	t.Run("ReadingMarksRead", func(t *testing.T) {
		count, err := f.msgRepo.UnreadTotalFor(ctx, f.buyer.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, count, "opening the conversation consumed the unread")
	})

	t.Run("NonParticipantMasked", func(t *testing.T) {
		outsider := &domain.User{Email: "x@example.com", Name: "X", IsActive: true}
		require.NoError(t, f.users.Create(ctx, outsider))

		_, err := f.svc.GetForUser(ctx, conv.ID, outsider.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		// An outsider's error is indistinguishable from a nonexistent id.
		_, unknownErr := f.svc.GetForUser(ctx, 9999, f.buyer.ID)
		require.ErrorIs(t, unknownErr, domain.ErrNotFound)
		assert.Equal(t, unknownErr.Error(), err.Error())
	})
}

func TestMarkRead(t *testing.T) {
	f := newConvFixture(t)
	ctx := context.Background()

	conv, err := f.svc.GetOrCreateForListing(ctx, f.listing.ID, f.buyer.ID)
	require.NoError(t, err)

	require.NoError(t, f.msgRepo.Create(ctx, &domain.Message{
		ConversationID: conv.ID, SenderID: f.seller.ID, Text: "ping",
	}))

	t.Run("Idempotent", func(t *testing.T) {
		require.NoError(t, f.svc.MarkRead(ctx, conv.ID, f.buyer.ID))
		require.NoError(t, f.svc.MarkRead(ctx, conv.ID, f.buyer.ID))

		count, err := f.msgRepo.UnreadTotalFor(ctx, f.buyer.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("DoesNotTouchOwnMessages", func(t *testing.T) {
		require.NoError(t, f.msgRepo.Create(ctx, &domain.Message{
			ConversationID: conv.ID, SenderID: f.buyer.ID, Text: "pong",
		}))
		require.NoError(t, f.svc.MarkRead(ctx, conv.ID, f.buyer.ID))

		count, err := f.msgRepo.UnreadTotalFor(ctx, f.seller.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "the buyer reading must not consume the seller's unread")
	})

	t.Run("NonParticipantMasked", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.MarkRead(ctx, conv.ID, 9999), domain.ErrNotFound)
		assert.ErrorIs(t, f.svc.MarkRead(ctx, 12345, f.buyer.ID), domain.ErrNotFound)
	})
}

func TestListForUser(t *testing.T) {
	f := newConvFixture(t)
	ctx := context.Background()

	second := &domain.Listing{
		SellerID: f.seller.ID,
		Title:    "Crate of apples",
		Category: "produce",
		Status:   domain.ListingAvailable,
	}
	require.NoError(t, f.listings.Create(ctx, second))

	convA, err := f.svc.GetOrCreateForListing(ctx, f.listing.ID, f.buyer.ID)
	require.NoError(t, err)
	convB, err := f.svc.GetOrCreateForListing(ctx, second.ID, f.buyer.ID)
	require.NoError(t, err)

	require.NoError(t, f.msgRepo.Create(ctx, &domain.Message{
		ConversationID: convA.ID, SenderID: f.seller.ID, Text: "first",
	}))
	require.NoError(t, f.msgRepo.Create(ctx, &domain.Message{
		ConversationID: convA.ID, SenderID: f.seller.ID, Text: "second",
	}))
	require.NoError(t, f.msgRepo.Create(ctx, &domain.Message{
		ConversationID: convB.ID, SenderID: f.buyer.ID, Text: "own message",
	}))

	summaries, err := f.svc.ListForUser(ctx, f.buyer.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	byID := make(map[int64]*service.ConversationSummary)
	for _, s := range summaries {
		byID[s.ID] = s
	}

	a := byID[convA.ID]
	require.NotNil(t, a)
	assert.Equal(t, 2, a.UnreadCount)
	require.NotNil(t, a.LastMessage)
	assert.Equal(t, "second", a.LastMessage.Text)
	assert.Equal(t, "Sourdough loaf", a.ListingTitle)
	require.NotNil(t, a.OtherParticipant)
	assert.Equal(t, f.seller.ID, a.OtherParticipant.ID)

	b := byID[convB.ID]
	require.NotNil(t, b)
	assert.Equal(t, 0, b.UnreadCount, "own messages never count as unread")
	require.NotNil(t, b.LastMessage)
	assert.Equal(t, "own message", b.LastMessage.Text)

	t.Run("EmptyForNewUser", func(t *testing.T) {
		stranger := &domain.User{Email: "s@example.com", Name: "S", IsActive: true}
		require.NoError(t, f.users.Create(ctx, stranger))

		out, err := f.svc.ListForUser(ctx, stranger.ID)
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}

func TestIsParticipant(t *testing.T) {
	f := newConvFixture(t)
	ctx := context.Background()

	conv, err := f.svc.GetOrCreateForListing(ctx, f.listing.ID, f.buyer.ID)
	require.NoError(t, err)

	ok, err := f.svc.IsParticipant(ctx, conv.ID, f.buyer.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.IsParticipant(ctx, conv.ID, 777)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.svc.IsParticipant(ctx, 9999, f.buyer.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
