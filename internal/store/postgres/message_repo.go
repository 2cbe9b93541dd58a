package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/YongHui-X/ecoplate/internal/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) error {
	query := `
		INSERT INTO messages (conversation_id, sender_id, message_text, is_read)
		VALUES ($1, $2, $3, FALSE)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, m.ConversationID, m.SenderID, m.Text).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	m.IsRead = false
	return nil
}

func (r *MessageRepo) ListForConversation(ctx context.Context, conversationID int64) ([]*domain.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, message_text, is_read, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var res []*domain.Message
	for rows.Next() {
		m := &domain.Message{}
		if err := rows.Scan(
			&m.ID, &m.ConversationID, &m.SenderID, &m.Text, &m.IsRead, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (r *MessageRepo) LatestPerConversation(ctx context.Context, userID int64) (map[int64]*domain.Message, error) {
	query := `
		SELECT DISTINCT ON (m.conversation_id)
			m.id, m.conversation_id, m.sender_id, m.message_text, m.is_read, m.created_at
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.buyer_id = $1 OR c.seller_id = $1
		ORDER BY m.conversation_id, m.id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("latest messages: %w", err)
	}
	defer rows.Close()

	res := make(map[int64]*domain.Message)
	for rows.Next() {
		m := &domain.Message{}
		if err := rows.Scan(
			&m.ID, &m.ConversationID, &m.SenderID, &m.Text, &m.IsRead, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		res[m.ConversationID] = m
	}
	return res, rows.Err()
}

func (r *MessageRepo) MarkRead(ctx context.Context, conversationID, readerID int64) error {
	// Only the other participant's messages flip; re-running is a no-op.
	if _, err := r.db.ExecContext(ctx, `
		UPDATE messages
		SET is_read = TRUE
		WHERE conversation_id = $1 AND sender_id <> $2 AND is_read = FALSE
	`, conversationID, readerID); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

// unreadFilter is shared by both aggregates: unread messages authored by
// someone else in the user's conversations, skipping completed listings.
const unreadFilter = `
	FROM messages m
	JOIN conversations c ON c.id = m.conversation_id
	JOIN listings l ON l.id = c.listing_id
	WHERE (c.buyer_id = $1 OR c.seller_id = $1)
	  AND m.sender_id <> $1
	  AND m.is_read = FALSE
	  AND l.status <> 'completed'
`

func (r *MessageRepo) UnreadTotalFor(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+unreadFilter, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

func (r *MessageRepo) UnreadByConversation(ctx context.Context, userID int64) (map[int64]int, error) {
	query := `SELECT m.conversation_id, COUNT(*)` + unreadFilter + `GROUP BY m.conversation_id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("count unread by conversation: %w", err)
	}
	defer rows.Close()

	res := make(map[int64]int)
	for rows.Next() {
		var convID int64
		var count int
		if err := rows.Scan(&convID, &count); err != nil {
			return nil, fmt.Errorf("scan unread count: %w", err)
		}
		res[convID] = count
	}
	return res, rows.Err()
}
