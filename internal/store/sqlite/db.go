package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/YongHui-X/ecoplate/internal/domain"
)

// Open opens a SQLite database with the given DSN.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
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

// Migrate runs idempotent DDL for the EcoPlate schema.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY,
			email VARCHAR(100) UNIQUE NOT NULL,
			name VARCHAR(100) NOT NULL,
			hashed_password VARCHAR(255) NOT NULL,
			avatar_url TEXT DEFAULT NULL,
			eco_points INTEGER NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY,
			user_id INTEGER NOT NULL,
			name VARCHAR(100) NOT NULL,
			category VARCHAR(30) NOT NULL,
			quantity REAL NOT NULL DEFAULT 1,
			unit VARCHAR(20) NOT NULL DEFAULT 'pcs',
			expiry_date DATETIME NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'stored',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id)
		);`,
		`CREATE TABLE IF NOT EXISTS listings (
			id INTEGER PRIMARY KEY,
			seller_id INTEGER NOT NULL,
			title VARCHAR(150) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category VARCHAR(30) NOT NULL,
			original_price REAL NOT NULL DEFAULT 0,
			price REAL NOT NULL DEFAULT 0,
			quantity REAL NOT NULL DEFAULT 1,
			unit VARCHAR(20) NOT NULL DEFAULT 'pcs',
			expiry_date DATETIME NOT NULL,
			image_url TEXT DEFAULT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'available',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (seller_id) REFERENCES users(id)
		);`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY,
			listing_id INTEGER NOT NULL,
			buyer_id INTEGER NOT NULL,
			seller_id INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (listing_id, buyer_id, seller_id),
			FOREIGN KEY (listing_id) REFERENCES listings(id),
			FOREIGN KEY (buyer_id) REFERENCES users(id),
			FOREIGN KEY (seller_id) REFERENCES users(id)
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY,
			conversation_id INTEGER NOT NULL,
			sender_id INTEGER NOT NULL,
			message_text TEXT NOT NULL,
			is_read BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (conversation_id) REFERENCES conversations(id),
			FOREIGN KEY (sender_id) REFERENCES users(id)
		);`,
		`CREATE TABLE IF NOT EXISTS point_transactions (
			id INTEGER PRIMARY KEY,
			user_id INTEGER NOT NULL,
			points INTEGER NOT NULL,
			reason VARCHAR(100) NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id)
		);`,
		`CREATE TABLE IF NOT EXISTS rewards (
			id INTEGER PRIMARY KEY,
			title VARCHAR(150) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			cost_points INTEGER NOT NULL,
			stock INTEGER NOT NULL DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT TRUE
		);`,
		`CREATE TABLE IF NOT EXISTS redemptions (
			id INTEGER PRIMARY KEY,
			user_id INTEGER NOT NULL,
			reward_id INTEGER NOT NULL,
			voucher_code VARCHAR(36) NOT NULL,
			redeemed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id),
			FOREIGN KEY (reward_id) REFERENCES rewards(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_products_user ON products(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_listings_seller ON listings(seller_id);`,
		`CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status);`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_buyer ON conversations(buyer_id);`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_seller ON conversations(seller_id);`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_updated_at ON conversations(updated_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conv_created ON messages(conversation_id, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conv_read ON messages(conversation_id, is_read);`,
		`CREATE INDEX IF NOT EXISTS idx_point_transactions_user ON point_transactions(user_id);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}
