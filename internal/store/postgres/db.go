package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/YongHui-X/ecoplate/internal/domain"
)

// Open opens a PostgreSQL database using the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewRepositories wires the full repository set against one database handle.
func NewRepositories(db *sql.DB) *domain.Repositories {
	return &domain.Repositories{
		Users:         NewUserRepo(db),
		Products:      NewProductRepo(db),
		Listings:      NewListingRepo(db),
		Conversations: NewConversationRepo(db),
		Messages:      NewMessageRepo(db),
		Points:        NewPointsRepo(db),
		Rewards:       NewRewardRepo(db),
	}
}

// Migrate runs idempotent DDL for the EcoPlate schema on PostgreSQL.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id              BIGSERIAL    PRIMARY KEY,
			email           VARCHAR(100) UNIQUE NOT NULL,
			name            VARCHAR(100) NOT NULL,
			hashed_password VARCHAR(255) NOT NULL,
			avatar_url      TEXT,
			eco_points      INTEGER      NOT NULL DEFAULT 0,
			is_active       BOOLEAN      NOT NULL DEFAULT TRUE,
			created_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id          BIGSERIAL    PRIMARY KEY,
			user_id     BIGINT       NOT NULL REFERENCES users(id),
			name        VARCHAR(100) NOT NULL,
			category    VARCHAR(30)  NOT NULL,
			quantity    DOUBLE PRECISION NOT NULL DEFAULT 1,
			unit        VARCHAR(20)  NOT NULL DEFAULT 'pcs',
			expiry_date TIMESTAMPTZ  NOT NULL,
			status      VARCHAR(20)  NOT NULL DEFAULT 'stored',
			created_at  TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS listings (
			id             BIGSERIAL    PRIMARY KEY,
			seller_id      BIGINT       NOT NULL REFERENCES users(id),
			title          VARCHAR(150) NOT NULL,
			description    TEXT         NOT NULL DEFAULT '',
			category       VARCHAR(30)  NOT NULL,
			original_price DOUBLE PRECISION NOT NULL DEFAULT 0,
			price          DOUBLE PRECISION NOT NULL DEFAULT 0,
			quantity       DOUBLE PRECISION NOT NULL DEFAULT 1,
			unit           VARCHAR(20)  NOT NULL DEFAULT 'pcs',
			expiry_date    TIMESTAMPTZ  NOT NULL,
			image_url      TEXT,
			status         VARCHAR(20)  NOT NULL DEFAULT 'available',
			created_at     TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at     TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id         BIGSERIAL   PRIMARY KEY,
			listing_id BIGINT      NOT NULL REFERENCES listings(id),
			buyer_id   BIGINT      NOT NULL REFERENCES users(id),
			seller_id  BIGINT      NOT NULL REFERENCES users(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (listing_id, buyer_id, seller_id)
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id              BIGSERIAL   PRIMARY KEY,
			conversation_id BIGINT      NOT NULL REFERENCES conversations(id),
			sender_id       BIGINT      NOT NULL REFERENCES users(id),
			message_text    TEXT        NOT NULL,
			is_read         BOOLEAN     NOT NULL DEFAULT FALSE,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS point_transactions (
			id         BIGSERIAL    PRIMARY KEY,
			user_id    BIGINT       NOT NULL REFERENCES users(id),
			points     INTEGER      NOT NULL,
			reason     VARCHAR(100) NOT NULL,
			created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS rewards (
			id          BIGSERIAL    PRIMARY KEY,
			title       VARCHAR(150) NOT NULL,
			description TEXT         NOT NULL DEFAULT '',
			cost_points INTEGER      NOT NULL,
			stock       INTEGER      NOT NULL DEFAULT 0,
			active      BOOLEAN      NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS redemptions (
			id           BIGSERIAL   PRIMARY KEY,
			user_id      BIGINT      NOT NULL REFERENCES users(id),
			reward_id    BIGINT      NOT NULL REFERENCES rewards(id),
			voucher_code VARCHAR(36) NOT NULL,
			redeemed_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_user ON products(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_seller ON listings(seller_id)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_buyer ON conversations(buyer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_seller ON conversations(seller_id)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_updated_at ON conversations(updated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conv_created ON messages(conversation_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conv_read ON messages(conversation_id, is_read)`,
		`CREATE INDEX IF NOT EXISTS idx_point_transactions_user ON point_transactions(user_id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}
