package domain

import "time"

// User represents an application user.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	Name           string    `db:"name" json:"name"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	AvatarURL      *string   `db:"avatar_url" json:"avatarUrl,omitempty"`
	EcoPoints      int       `db:"eco_points" json:"ecoPoints"`
	IsActive       bool      `db:"is_active" json:"isActive"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// PublicProfile is the subset of a user that other users are allowed to see.
type PublicProfile struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}

// Profile returns the public view of the user.
func (u *User) Profile() *PublicProfile {
	return &PublicProfile{ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL}
}

// Product statuses for fridge inventory items.
const (
	ProductStored    = "stored"
	ProductConsumed  = "consumed"
	ProductListed    = "listed"
	ProductDiscarded = "discarded"
)

// Categories shared by products and listings.
var Categories = []string{
	"dairy", "meat", "seafood", "produce", "bakery",
	"frozen", "canned", "beverages", "snacks", "other",
}

// ValidCategory reports whether s is one of the known food categories.
func ValidCategory(s string) bool {
	for _, c := range Categories {
		if c == s {
			return true
		}
	}
	return false
}

// Product is a fridge inventory item owned by a single user.
type Product struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"userId"`
	Name       string    `db:"name" json:"name"`
	Category   string    `db:"category" json:"category"`
	Quantity   float64   `db:"quantity" json:"quantity"`
	Unit       string    `db:"unit" json:"unit"`
	ExpiryDate time.Time `db:"expiry_date" json:"expiryDate"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Listing statuses.
const (
	ListingAvailable = "available"
	ListingReserved  = "reserved"
	ListingCompleted = "completed"
	ListingCancelled = "cancelled"
)

// Listing is a marketplace offer of surplus food by a seller.
type Listing struct {
	ID            int64     `db:"id" json:"id"`
	SellerID      int64     `db:"seller_id" json:"sellerId"`
	Title         string    `db:"title" json:"title"`
	Description   string    `db:"description" json:"description"`
	Category      string    `db:"category" json:"category"`
	OriginalPrice float64   `db:"original_price" json:"originalPrice"`
	Price         float64   `db:"price" json:"price"`
	Quantity      float64   `db:"quantity" json:"quantity"`
	Unit          string    `db:"unit" json:"unit"`
	ExpiryDate    time.Time `db:"expiry_date" json:"expiryDate"`
	ImageURL      *string   `db:"image_url" json:"imageUrl,omitempty"`
	Status        string    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// Conversation is the unique chat thread between one buyer and one seller
// about one listing. At most one row exists per (listing, buyer, seller),
// enforced by a unique index in the store.
type Conversation struct {
	ID        int64     `db:"id" json:"id"`
	ListingID int64     `db:"listing_id" json:"listingId"`
	BuyerID   int64     `db:"buyer_id" json:"buyerId"`
	SellerID  int64     `db:"seller_id" json:"sellerId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// HasParticipant reports whether userID is the buyer or the seller.
func (c *Conversation) HasParticipant(userID int64) bool {
	return c.BuyerID == userID || c.SellerID == userID
}

// OtherParticipant returns the participant that is not userID.
func (c *Conversation) OtherParticipant(userID int64) int64 {
	if c.BuyerID == userID {
		return c.SellerID
	}
	return c.BuyerID
}

// Message is a single chat message. Immutable once created except for the
// is_read flag, which only ever transitions false->true.
type Message struct {
	ID             int64     `db:"id" json:"id"`
	ConversationID int64     `db:"conversation_id" json:"conversationId"`
	SenderID       int64     `db:"sender_id" json:"senderUserId"`
	Text           string    `db:"message_text" json:"text"`
	IsRead         bool      `db:"is_read" json:"isRead"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`

	// Sender is populated by the service layer for API responses; it is not
	// a column of the messages table.
	Sender *PublicProfile `db:"-" json:"senderProfile,omitempty"`
}

// PointTransaction records a single eco-point award or spend.
type PointTransaction struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"userId"`
	Points    int       `db:"points" json:"points"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Reward is a redeemable catalogue item.
type Reward struct {
	ID          int64  `db:"id" json:"id"`
	Title       string `db:"title" json:"title"`
	Description string `db:"description" json:"description"`
	CostPoints  int    `db:"cost_points" json:"costPoints"`
	Stock       int    `db:"stock" json:"stock"`
	Active      bool   `db:"active" json:"active"`
}

// Redemption is a claimed reward with its voucher code.
type Redemption struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"userId"`
	RewardID    int64     `db:"reward_id" json:"rewardId"`
	VoucherCode string    `db:"voucher_code" json:"voucherCode"`
	RedeemedAt  time.Time `db:"redeemed_at" json:"redeemedAt"`
}
