package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/YongHui-X/ecoplate/internal/domain"
)

type ListingRepo struct {
	db *sql.DB
}

func NewListingRepo(db *sql.DB) *ListingRepo {
	return &ListingRepo{db: db}
}

var _ domain.ListingRepository = (*ListingRepo)(nil)

const listingColumns = `id, seller_id, title, description, category, original_price, price,
	quantity, unit, expiry_date, image_url, status, created_at, updated_at`

func (r *ListingRepo) Create(ctx context.Context, l *domain.Listing) error {
	query := `
		INSERT INTO listings (seller_id, title, description, category, original_price, price,
			quantity, unit, expiry_date, image_url, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`
	res, err := r.db.ExecContext(ctx, query,
		l.SellerID, l.Title, l.Description, l.Category, l.OriginalPrice, l.Price,
		l.Quantity, l.Unit, l.ExpiryDate, l.ImageURL, l.Status,
	)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	l.ID = id
	return nil
}

func (r *ListingRepo) GetByID(ctx context.Context, id int64) (*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = ?`
	l := &domain.Listing{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&l.ID, &l.SellerID, &l.Title, &l.Description, &l.Category, &l.OriginalPrice, &l.Price,
		&l.Quantity, &l.Unit, &l.ExpiryDate, &l.ImageURL, &l.Status, &l.CreatedAt, &l.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}

func (r *ListingRepo) List(ctx context.Context, f domain.ListingFilter) ([]*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE 1=1`
	var args []any
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.SellerID != 0 {
		query += ` AND seller_id = ?`
		args = append(args, f.SellerID)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	var res []*domain.Listing
	for rows.Next() {
		l := &domain.Listing{}
		if err := rows.Scan(
			&l.ID, &l.SellerID, &l.Title, &l.Description, &l.Category, &l.OriginalPrice, &l.Price,
			&l.Quantity, &l.Unit, &l.ExpiryDate, &l.ImageURL, &l.Status, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		res = append(res, l)
	}
	return res, rows.Err()
}

func (r *ListingRepo) Update(ctx context.Context, l *domain.Listing) error {
	query := `
		UPDATE listings
		SET title = ?, description = ?, category = ?, original_price = ?, price = ?,
			quantity = ?, unit = ?, expiry_date = ?, image_url = ?, status = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.ExecContext(ctx, query,
		l.Title, l.Description, l.Category, l.OriginalPrice, l.Price,
		l.Quantity, l.Unit, l.ExpiryDate, l.ImageURL, l.Status, l.ID,
	); err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	return nil
}
