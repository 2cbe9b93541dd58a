package postgres

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
			quantity, unit, expiry_date, image_url, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		l.SellerID, l.Title, l.Description, l.Category, l.OriginalPrice, l.Price,
		l.Quantity, l.Unit, l.ExpiryDate, l.ImageURL, l.Status,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

func (r *ListingRepo) GetByID(ctx context.Context, id int64) (*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
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
	query := `SELECT ` + listingColumns + ` FROM listings WHERE TRUE`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Status != "" {
		query += ` AND status = ` + arg(f.Status)
	}
	if f.Category != "" {
		query += ` AND category = ` + arg(f.Category)
	}
	if f.SellerID != 0 {
		query += ` AND seller_id = ` + arg(f.SellerID)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ` + arg(f.Limit) + ` OFFSET ` + arg(f.Offset)
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
		SET title = $1, description = $2, category = $3, original_price = $4, price = $5,
			quantity = $6, unit = $7, expiry_date = $8, image_url = $9, status = $10,
			updated_at = NOW()
		WHERE id = $11
	`
	if _, err := r.db.ExecContext(ctx, query,
		l.Title, l.Description, l.Category, l.OriginalPrice, l.Price,
		l.Quantity, l.Unit, l.ExpiryDate, l.ImageURL, l.Status, l.ID,
	); err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	return nil
}
