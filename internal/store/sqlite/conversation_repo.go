package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/YongHui-X/ecoplate/internal/domain"
)

type ConversationRepo struct {
	db *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

var _ domain.ConversationRepository = (*ConversationRepo)(nil)

// GetOrCreate inserts with conflict-ignore against the unique
// (listing_id, buyer_id, seller_id) index and then selects the row, so
// concurrent callers for the same triple always converge on one id.
func (r *ConversationRepo) GetOrCreate(ctx context.Context, listingID, buyerID, sellerID int64) (*domain.Conversation, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO conversations (listing_id, buyer_id, seller_id, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (listing_id, buyer_id, seller_id) DO NOTHING
	`, listingID, buyerID, sellerID)
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}

	c := &domain.Conversation{}
	err = r.db.QueryRowContext(ctx, `
		SELECT id, listing_id, buyer_id, seller_id, created_at, updated_at
		FROM conversations
		WHERE listing_id = ? AND buyer_id = ? AND seller_id = ?
	`, listingID, buyerID, sellerID).Scan(
		&c.ID, &c.ListingID, &c.BuyerID, &c.SellerID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("select conversation: %w", err)
	}
	return c, nil
}

func (r *ConversationRepo) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	c := &domain.Conversation{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, listing_id, buyer_id, seller_id, created_at, updated_at
		FROM conversations
		WHERE id = ?
	`, id).Scan(
		&c.ID, &c.ListingID, &c.BuyerID, &c.SellerID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

func (r *ConversationRepo) ListForUser(ctx context.Context, userID int64) ([]*domain.Conversation, error) {
	query := `
		SELECT id, listing_id, buyer_id, seller_id, created_at, updated_at
		FROM conversations
		WHERE buyer_id = ? OR seller_id = ?
		ORDER BY updated_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var res []*domain.Conversation
	for rows.Next() {
		c := &domain.Conversation{}
		if err := rows.Scan(
			&c.ID, &c.ListingID, &c.BuyerID, &c.SellerID, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r *ConversationRepo) Touch(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE conversations SET updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, id); err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}
