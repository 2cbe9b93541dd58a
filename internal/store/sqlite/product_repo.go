package sqlite

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
		INSERT INTO products (user_id, name, category, quantity, unit, expiry_date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`
	res, err := r.db.ExecContext(ctx, query, p.UserID, p.Name, p.Category, p.Quantity, p.Unit, p.ExpiryDate, p.Status)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	p.ID = id
	return nil
}

func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT id, user_id, name, category, quantity, unit, expiry_date, status, created_at
		FROM products
		WHERE id = ?
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
		WHERE user_id = ?
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
		SET name = ?, category = ?, quantity = ?, unit = ?, expiry_date = ?, status = ?
		WHERE id = ?
	`
	if _, err := r.db.ExecContext(ctx, query, p.Name, p.Category, p.Quantity, p.Unit, p.ExpiryDate, p.Status, p.ID); err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}
