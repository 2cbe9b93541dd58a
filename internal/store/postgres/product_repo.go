package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/YongHui-X/ecoplate/internal/domain"
)

type ProductRepo struct {
	db *sql.DB
}

func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

var _ domain.ProductRepository = (*ProductRepo)(nil)

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (user_id, name, category, quantity, unit, expiry_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.UserID, p.Name, p.Category, p.Quantity, p.Unit, p.ExpiryDate, p.Status,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT id, user_id, name, category, quantity, unit, expiry_date, status, created_at
		FROM products
		WHERE id = $1
	`
	p := &domain.Product{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.UserID, &p.Name, &p.Category, &p.Quantity, &p.Unit, &p.ExpiryDate, &p.Status, &p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *ProductRepo) ListForUser(ctx context.Context, userID int64) ([]*domain.Product, error) {
	query := `
		SELECT id, user_id, name, category, quantity, unit, expiry_date, status, created_at
		FROM products
		WHERE user_id = $1
		ORDER BY expiry_date ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var res []*domain.Product
	for rows.Next() {
		p := &domain.Product{}
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Name, &p.Category, &p.Quantity, &p.Unit, &p.ExpiryDate, &p.Status, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r *ProductRepo) Update(ctx context.Context, p *domain.Product) error {
	query := `
		UPDATE products
		SET name = $1, category = $2, quantity = $3, unit = $4, expiry_date = $5, status = $6
		WHERE id = $7
	`
	if _, err := r.db.ExecContext(ctx, query, p.Name, p.Category, p.Quantity, p.Unit, p.ExpiryDate, p.Status, p.ID); err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}
