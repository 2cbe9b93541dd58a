package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/YongHui-X/ecoplate/internal/domain"
)

type PointsRepo struct {
	db *sql.DB
}

func NewPointsRepo(db *sql.DB) *PointsRepo {
	return &PointsRepo{db: db}
}

var _ domain.PointsRepository = (*PointsRepo)(nil)

// Award records the transaction and adjusts the balance in one tx. A spend
// that would push the balance negative fails with ErrInsufficientPoints and
// leaves no trace.
func (r *PointsRepo) Award(ctx context.Context, userID int64, points int, reason string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE users SET eco_points = eco_points + $1
		WHERE id = $2 AND eco_points + $1 >= 0
	`, points, userID)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrInsufficientPoints
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO point_transactions (user_id, points, reason)
		VALUES ($1, $2, $3)
	`, userID, points, reason); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *PointsRepo) BalanceFor(ctx context.Context, userID int64) (int, error) {
	var balance int
	err := r.db.QueryRowContext(ctx, `SELECT eco_points FROM users WHERE id = $1`, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

func (r *PointsRepo) ListFor(ctx context.Context, userID int64) ([]*domain.PointTransaction, error) {
	query := `
		SELECT id, user_id, points, reason, created_at
		FROM point_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var res []*domain.PointTransaction
	for rows.Next() {
		t := &domain.PointTransaction{}
		if err := rows.Scan(&t.ID, &t.UserID, &t.Points, &t.Reason, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		res = append(res, t)
	}
	return res, rows.Err()
}
