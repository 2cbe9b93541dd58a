package domain

import (
	"context"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
}

// ProductRepository defines persistence operations for fridge items.
type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id int64) (*Product, error)
	ListForUser(ctx context.Context, userID int64) ([]*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
}

// ListingFilter narrows a marketplace listing query.
type ListingFilter struct {
	Status   string
	Category string
	SellerID int64
	Offset   int
	Limit    int
}

// ListingRepository defines persistence operations for marketplace listings.
type ListingRepository interface {
	Create(ctx context.Context, l *Listing) error
	GetByID(ctx context.Context, id int64) (*Listing, error)
	List(ctx context.Context, f ListingFilter) ([]*Listing, error)
	Update(ctx context.Context, l *Listing) error
}

// ConversationRepository defines persistence operations for conversations.
type ConversationRepository interface {
	// GetOrCreate resolves the unique conversation for the triple, creating
	// it if absent. Concurrent calls for the same triple must converge on a
	// single row; implementations rely on the unique index rather than a
	// check-then-insert.
	GetOrCreate(ctx context.Context, listingID, buyerID, sellerID int64) (*Conversation, error)
	GetByID(ctx context.Context, id int64) (*Conversation, error)
	ListForUser(ctx context.Context, userID int64) ([]*Conversation, error)
	Touch(ctx context.Context, id int64) error
}

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	ListForConversation(ctx context.Context, conversationID int64) ([]*Message, error)
	// LatestPerConversation returns the newest message of each conversation
	// the user participates in, keyed by conversation id.
	LatestPerConversation(ctx context.Context, userID int64) (map[int64]*Message, error)
	// MarkRead flips is_read on every message in the conversation not
	// authored by readerID. Idempotent.
	MarkRead(ctx context.Context, conversationID, readerID int64) error
	// UnreadTotalFor aggregates the user's unread messages across all their
	// conversations in a single query, excluding their own messages and
	// conversations on completed listings.
	UnreadTotalFor(ctx context.Context, userID int64) (int, error)
	// UnreadByConversation returns the same aggregate broken down per
	// conversation, for the conversation list view.
	UnreadByConversation(ctx context.Context, userID int64) (map[int64]int, error)
}

// PointsRepository defines persistence operations for eco-point transactions.
type PointsRepository interface {
	// Award records a transaction and adjusts the user's balance atomically.
	// Negative points spend from the balance.
	Award(ctx context.Context, userID int64, points int, reason string) error
	BalanceFor(ctx context.Context, userID int64) (int, error)
	ListFor(ctx context.Context, userID int64) ([]*PointTransaction, error)
}

// RewardRepository defines persistence operations for the reward catalogue.
type RewardRepository interface {
	ListActive(ctx context.Context) ([]*Reward, error)
	GetByID(ctx context.Context, id int64) (*Reward, error)
	// Redeem decrements stock, spends the user's points, and records the
	// redemption in one transaction. Returns ErrInsufficientPoints or
	// ErrConflict (out of stock) without partial effects.
	Redeem(ctx context.Context, userID, rewardID int64, voucherCode string) (*Redemption, error)
}

// Repositories bundles the per-store implementations for injection into the
// router; each store package provides a constructor for the full set.
type Repositories struct {
	Users         UserRepository
	Products      ProductRepository
	Listings      ListingRepository
	Conversations ConversationRepository
	Messages      MessageRepository
	Points        PointsRepository
	Rewards       RewardRepository
}
