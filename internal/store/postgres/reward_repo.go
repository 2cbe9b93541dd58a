package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/YongHui-X/ecoplate/internal/domain"
)

type RewardRepo struct {
	db *sql.DB
}

func NewRewardRepo(db *sql.DB) *RewardRepo {
	return &RewardRepo{db: db}
}

var _ domain.RewardRepository = (*RewardRepo)(nil)

func (r *RewardRepo) ListActive(ctx context.Context) ([]*domain.Reward, error) {
	query := `
		SELECT id, title, description, cost_points, stock, active
		FROM rewards
		WHERE active = TRUE
		ORDER BY cost_points ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var res []*domain.Reward
	for rows.Next() {
		rw := &domain.Reward{}
		if err := rows.Scan(&rw.ID, &rw.Title, &rw.Description, &rw.CostPoints, &rw.Stock, &rw.Active); err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		res = append(res, rw)
	}
	return res, rows.Err()
}

func (r *RewardRepo) GetByID(ctx context.Context, id int64) (*domain.Reward, error) {
	rw := &domain.Reward{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, description, cost_points, stock, active
		FROM rewards
		WHERE id = $1
	`, id).Scan(&rw.ID, &rw.Title, &rw.Description, &rw.CostPoints, &rw.Stock, &rw.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return rw, nil
}

// Redeem spends the user's points, takes one unit of stock, and records
// both the negative point transaction and the redemption atomically.
func (r *RewardRepo) Redeem(ctx context.Context, userID, rewardID int64, voucherCode string) (*domain.Redemption, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var cost int
	err = tx.QueryRowContext(ctx, `
		SELECT cost_points FROM rewards WHERE id = $1 AND active = TRUE
	`, rewardID).Scan(&cost)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reward cost: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE rewards SET stock = stock - 1 WHERE id = $1 AND stock > 0
	`, rewardID)
	if err != nil {
		return nil, fmt.Errorf("take stock: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	} else if affected == 0 {
		return nil, fmt.Errorf("reward out of stock: %w", domain.ErrConflict)
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE users SET eco_points = eco_points - $1
		WHERE id = $2 AND eco_points >= $1
	`, cost, userID)
	if err != nil {
		return nil, fmt.Errorf("spend points: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	} else if affected == 0 {
		return nil, domain.ErrInsufficientPoints
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO point_transactions (user_id, points, reason)
		VALUES ($1, $2, 'reward_redemption')
	`, userID, -cost); err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	red := &domain.Redemption{UserID: userID, RewardID: rewardID, VoucherCode: voucherCode}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO redemptions (user_id, reward_id, voucher_code)
		VALUES ($1, $2, $3)
		RETURNING id, redeemed_at
	`, userID, rewardID, voucherCode).Scan(&red.ID, &red.RedeemedAt)
	if err != nil {
		return nil, fmt.Errorf("insert redemption: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return red, nil
}
