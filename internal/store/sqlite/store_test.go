package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YongHui-X/ecoplate/internal/domain"
	"github.com/YongHui-X/ecoplate/internal/store/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := sqlite.Open(dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, sqlite.Migrate(db))
	return db
}

func createUser(t *testing.T, repos *domain.Repositories, email, name string) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Name: name, HashedPassword: "x", IsActive: true}
	require.NoError(t, repos.Users.Create(context.Background(), u))
	return u
}

func createListing(t *testing.T, repos *domain.Repositories, sellerID int64, title string) *domain.Listing {
	t.Helper()
	l := &domain.Listing{
		SellerID: sellerID,
		Title:    title,
		Category: "bakery",
		Status:   domain.ListingAvailable,
	}
	require.NoError(t, repos.Listings.Create(context.Background(), l))
	return l
}

func TestMigrateIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, sqlite.Migrate(db))
	require.NoError(t, sqlite.Migrate(db))
}

func TestUserRepo(t *testing.T) {
	db := openTestDB(t)
	repos := sqlite.NewRepositories(db)
	ctx := context.Background()

	u := createUser(t, repos, "alice@example.com", "Alice")
	require.NotZero(t, u.ID)

	t.Run("GetByID", func(t *testing.T) {
		got, err := repos.Users.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "alice@example.com", got.Email)
		assert.True(t, got.IsActive)
		assert.Equal(t, 0, got.EcoPoints)
	})

	t.Run("GetByEmail", func(t *testing.T) {
		got, err := repos.Users.GetByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, u.ID, got.ID)
	})

	t.Run("MissingIsNil", func(t *testing.T) {
		got, err := repos.Users.GetByID(ctx, 9999)
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = repos.Users.GetByEmail(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		err := repos.Users.Create(ctx, &domain.User{
			Email: "alice@example.com", Name: "Clone", HashedPassword: "x",
		})
		assert.Error(t, err)
	})

	t.Run("Update", func(t *testing.T) {
		u.Name = "Alice B."
		avatar := "/uploads/a.png"
		u.AvatarURL = &avatar
		require.NoError(t, repos.Users.Update(ctx, u))

		got, err := repos.Users.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice B.", got.Name)
		require.NotNil(t, got.AvatarURL)
		assert.Equal(t, "/uploads/a.png", *got.AvatarURL)
	})
}

func TestConversationGetOrCreate(t *testing.T) {
	db := openTestDB(t)
	repos := sqlite.NewRepositories(db)
	ctx := context.Background()

	seller := createUser(t, repos, "seller@example.com", "Seller")
	buyer := createUser(t, repos, "buyer@example.com", "Buyer")
	listing := createListing(t, repos, seller.ID, "Sourdough loaf")

	first, err := repos.Conversations.GetOrCreate(ctx, listing.ID, buyer.ID, seller.ID)
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	second, err := repos.Conversations.GetOrCreate(ctx, listing.ID, buyer.ID, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "repeat call returns the same row")

	t.Run("Concurrent", func(t *testing.T) {
		listing2 := createListing(t, repos, seller.ID, "Crate of apples")

		const callers = 10
		ids := make([]int64, callers)
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				c, err := repos.Conversations.GetOrCreate(ctx, listing2.ID, buyer.ID, seller.ID)
				if err == nil {
					ids[i] = c.ID
				}
			}(i)
		}
		wg.Wait()

		for i := 1; i < callers; i++ {
			assert.Equal(t, ids[0], ids[i])
		}

		var count int
		require.NoError(t, db.QueryRow(
			`SELECT COUNT(*) FROM conversations WHERE listing_id = ?`, listing2.ID,
		).Scan(&count))
		assert.Equal(t, 1, count)
	})

	t.Run("DistinctBuyersDistinctRows", func(t *testing.T) {
		other := createUser(t, repos, "other@example.com", "Other")
		c, err := repos.Conversations.GetOrCreate(ctx, listing.ID, other.ID, seller.ID)
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, c.ID)
	})

	t.Run("ListForUserNewestFirst", func(t *testing.T) {
		require.NoError(t, repos.Conversations.Touch(ctx, first.ID))

		convs, err := repos.Conversations.ListForUser(ctx, buyer.ID)
		require.NoError(t, err)
		require.NotEmpty(t, convs)
		for _, c := range convs {
			assert.True(t, c.HasParticipant(buyer.ID))
		}
	})
}

func TestMessageRepoUnread(t *testing.T) {
	db := openTestDB(t)
	repos := sqlite.NewRepositories(db)
	ctx := context.Background()

	seller := createUser(t, repos, "seller@example.com", "Seller")
	buyer := createUser(t, repos, "buyer@example.com", "Buyer")
	bread := createListing(t, repos, seller.ID, "Sourdough loaf")
	apples := createListing(t, repos, seller.ID, "Crate of apples")

	convBread, err := repos.Conversations.GetOrCreate(ctx, bread.ID, buyer.ID, seller.ID)
	require.NoError(t, err)
	convApples, err := repos.Conversations.GetOrCreate(ctx, apples.ID, buyer.ID, seller.ID)
	require.NoError(t, err)

	send := func(convID, senderID int64, text string) *domain.Message {
		m := &domain.Message{ConversationID: convID, SenderID: senderID, Text: text}
		require.NoError(t, repos.Messages.Create(ctx, m))
		return m
	}

	send(convBread.ID, buyer.ID, "is this available?")
	send(convBread.ID, buyer.ID, "hello?")
	send(convBread.ID, seller.ID, "yes it is")
	send(convApples.ID, buyer.ID, "how many apples?")

	t.Run("TotalsExcludeOwnMessages", func(t *testing.T) {
		sellerTotal, err := repos.Messages.UnreadTotalFor(ctx, seller.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, sellerTotal)

		buyerTotal, err := repos.Messages.UnreadTotalFor(ctx, buyer.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, buyerTotal)
	})

	t.Run("ByConversation", func(t *testing.T) {
		byConv, err := repos.Messages.UnreadByConversation(ctx, seller.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, byConv[convBread.ID])
		assert.Equal(t, 1, byConv[convApples.ID])
	})

	t.Run("LatestPerConversation", func(t *testing.T) {
		latest, err := repos.Messages.LatestPerConversation(ctx, seller.ID)
		require.NoError(t, err)
		require.NotNil(t, latest[convBread.ID])
		assert.Equal(t, "yes it is", latest[convBread.ID].Text)
		require.NotNil(t, latest[convApples.ID])
		assert.Equal(t, "how many apples?", latest[convApples.ID].Text)
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		msgs, err := repos.Messages.ListForConversation(ctx, convBread.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 3)
		assert.Equal(t, "yes it is", msgs[0].Text)
		assert.Equal(t, "is this available?", msgs[2].Text)
	})

	t.Run("MarkReadIdempotent", func(t *testing.T) {
		require.NoError(t, repos.Messages.MarkRead(ctx, convBread.ID, seller.ID))
		require.NoError(t, repos.Messages.MarkRead(ctx, convBread.ID, seller.ID))

		total, err := repos.Messages.UnreadTotalFor(ctx, seller.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, total, "only the apples conversation remains unread")

		// The seller's read must not consume the buyer's unread.
		buyerTotal, err := repos.Messages.UnreadTotalFor(ctx, buyer.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, buyerTotal)
	})

	t.Run("CompletedListingExcluded", func(t *testing.T) {
		apples.Status = domain.ListingCompleted
		require.NoError(t, repos.Listings.Update(ctx, apples))

		total, err := repos.Messages.UnreadTotalFor(ctx, seller.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, total)

		byConv, err := repos.Messages.UnreadByConversation(ctx, seller.ID)
		require.NoError(t, err)
		assert.Zero(t, byConv[convApples.ID])
	})
}

func TestPointsRepo(t *testing.T) {
	db := openTestDB(t)
	repos := sqlite.NewRepositories(db)
	ctx := context.Background()

	u := createUser(t, repos, "alice@example.com", "Alice")

	require.NoError(t, repos.Points.Award(ctx, u.ID, 10, "product_consumed"))
	require.NoError(t, repos.Points.Award(ctx, u.ID, 50, "listing_completed"))

	balance, err := repos.Points.BalanceFor(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, balance)

	t.Run("SpendBelowZeroRejected", func(t *testing.T) {
		err := repos.Points.Award(ctx, u.ID, -100, "reward_redemption")
		assert.ErrorIs(t, err, domain.ErrInsufficientPoints)

		// The failed spend leaves neither balance change nor history row.
		balance, err := repos.Points.BalanceFor(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, 60, balance)

		txns, err := repos.Points.ListFor(ctx, u.ID)
		require.NoError(t, err)
		assert.Len(t, txns, 2)
	})

	t.Run("BalanceSyncedWithUserRow", func(t *testing.T) {
		got, err := repos.Users.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, 60, got.EcoPoints)
	})
}

func TestRewardRepoRedeem(t *testing.T) {
	db := openTestDB(t)
	repos := sqlite.NewRepositories(db)
	ctx := context.Background()

	u := createUser(t, repos, "alice@example.com", "Alice")
	require.NoError(t, repos.Points.Award(ctx, u.ID, 100, "listing_completed"))

	res, err := db.Exec(`
		INSERT INTO rewards (title, description, cost_points, stock, active)
		VALUES ('Coffee voucher', '', 30, 1, TRUE),
		       ('Tote bag', '', 500, 5, TRUE),
		       ('Retired reward', '', 5, 5, FALSE)
	`)
	require.NoError(t, err)
	firstID, err := res.LastInsertId()
	require.NoError(t, err)
	coffeeID := firstID - 2
	toteID := firstID - 1
	retiredID := firstID

	t.Run("ListActiveSkipsRetired", func(t *testing.T) {
		rewards, err := repos.Rewards.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, rewards, 2)
		assert.Equal(t, "Coffee voucher", rewards[0].Title)
	})

	t.Run("Success", func(t *testing.T) {
		red, err := repos.Rewards.Redeem(ctx, u.ID, coffeeID, "voucher-1")
		require.NoError(t, err)
		assert.Equal(t, "voucher-1", red.VoucherCode)
		assert.NotZero(t, red.ID)

		balance, err := repos.Points.BalanceFor(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, 70, balance)

		txns, err := repos.Points.ListFor(ctx, u.ID)
		require.NoError(t, err)
		require.NotEmpty(t, txns)
		assert.Equal(t, -30, txns[0].Points)
		assert.Equal(t, "reward_redemption", txns[0].Reason)
	})

	t.Run("OutOfStock", func(t *testing.T) {
		_, err := repos.Rewards.Redeem(ctx, u.ID, coffeeID, "voucher-2")
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("InsufficientPoints", func(t *testing.T) {
		_, err := repos.Rewards.Redeem(ctx, u.ID, toteID, "voucher-3")
		assert.ErrorIs(t, err, domain.ErrInsufficientPoints)

		// Stock is untouched when the spend fails.
		rw, getErr := repos.Rewards.GetByID(ctx, toteID)
		require.NoError(t, getErr)
		assert.Equal(t, 5, rw.Stock)
	})

	t.Run("InactiveReward", func(t *testing.T) {
		_, err := repos.Rewards.Redeem(ctx, u.ID, retiredID, "voucher-4")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("UnknownReward", func(t *testing.T) {
		_, err := repos.Rewards.Redeem(ctx, u.ID, 9999, "voucher-5")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestProductAndListingRepos(t *testing.T) {
	db := openTestDB(t)
	repos := sqlite.NewRepositories(db)
	ctx := context.Background()

	u := createUser(t, repos, "alice@example.com", "Alice")

	p := &domain.Product{
		UserID:   u.ID,
		Name:     "Milk",
		Category: "dairy",
		Quantity: 1,
		Unit:     "l",
		Status:   domain.ProductStored,
	}
	require.NoError(t, repos.Products.Create(ctx, p))

	t.Run("ProductRoundTrip", func(t *testing.T) {
		got, err := repos.Products.GetByID(ctx, p.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Milk", got.Name)

		got.Status = domain.ProductConsumed
		require.NoError(t, repos.Products.Update(ctx, got))

		items, err := repos.Products.ListForUser(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, domain.ProductConsumed, items[0].Status)

		require.NoError(t, repos.Products.Delete(ctx, p.ID))
		gone, err := repos.Products.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)
	})

	t.Run("ListingFilter", func(t *testing.T) {
		bread := createListing(t, repos, u.ID, "Sourdough loaf")
		createListing(t, repos, u.ID, "Crate of apples")

		bread.Status = domain.ListingCompleted
		require.NoError(t, repos.Listings.Update(ctx, bread))

		avail, err := repos.Listings.List(ctx, domain.ListingFilter{
			Status: domain.ListingAvailable, Limit: 50,
		})
		require.NoError(t, err)
		require.Len(t, avail, 1)
		assert.Equal(t, "Crate of apples", avail[0].Title)

		mine, err := repos.Listings.List(ctx, domain.ListingFilter{
			SellerID: u.ID, Limit: 50,
		})
		require.NoError(t, err)
		assert.Len(t, mine, 2)
	})
}
