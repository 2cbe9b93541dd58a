package sqlite

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
		INSERT INTO messages (conversation_id, sender_id, message_text, is_read, created_at)
		VALUES (?, ?, ?, 0, CURRENT_TIMESTAMP)
	`
	res, err := r.db.ExecContext(ctx, query, m.ConversationID, m.SenderID, m.Text)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	m.ID = id
	m.IsRead = false

	// Read the stored timestamp back so callers see the same value a
	// subsequent fetch would.
	if err := r.db.QueryRowContext(ctx,
		`SELECT created_at FROM messages WHERE id = ?`, id,
	).Scan(&m.CreatedAt); err != nil {
		return fmt.Errorf("read created_at: %w", err)
	}
	return nil
}

func (r *MessageRepo) ListForConversation(ctx context.Context, conversationID int64) ([]*domain.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, message_text, is_read, created_at
		FROM messages
		WHERE conversation_id = ?
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
		SELECT m.id, m.conversation_id, m.sender_id, m.message_text, m.is_read, m.created_at
		FROM messages m
		JOIN (
			SELECT conversation_id, MAX(id) AS max_id
			FROM messages
			GROUP BY conversation_id
		) latest ON latest.max_id = m.id
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.buyer_id = ? OR c.seller_id = ?
	`
	rows, err := r.db.QueryContext(ctx, query, userID, userID)
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
		SET is_read = 1
		WHERE conversation_id = ? AND sender_id <> ? AND is_read = 0
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
	WHERE (c.buyer_id = ? OR c.seller_id = ?)
	  AND m.sender_id <> ?
	  AND m.is_read = 0
	  AND l.status <> 'completed'
`

func (r *MessageRepo) UnreadTotalFor(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+unreadFilter, userID, userID, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

func (r *MessageRepo) UnreadByConversation(ctx context.Context, userID int64) (map[int64]int, error) {
	query := `SELECT m.conversation_id, COUNT(*)` + unreadFilter + `GROUP BY m.conversation_id`
	rows, err := r.db.QueryContext(ctx, query, userID, userID, userID)
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
