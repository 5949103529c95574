package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hankhank10/loglink-server/internal/store"
)

// messageQueue implements store.MessageQueue backed by SQLite.
type messageQueue struct {
	db *sql.DB
}

func (q *messageQueue) Append(ctx context.Context, userID, provider, providerMessageID, contents string) (*store.Message, error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	msg := &store.Message{
		ID:                uuid.NewString(),
		UserID:            userID,
		Provider:          provider,
		ProviderMessageID: providerMessageID,
		Contents:          contents,
		CreatedAt:         time.Now().UTC(),
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO messages (id, user_id, provider, provider_message_id, contents, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, userID, provider, providerMessageID, contents, formatTime(msg.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: insert message: %w", err)
	}
	msg.Seq, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("sqlite: message seq: %w", err)
	}

	upd, err := tx.ExecContext(ctx,
		"UPDATE users SET api_call_count = api_call_count + 1 WHERE id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: bump relay counter: %w", err)
	}
	if err := requireRow(upd); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: commit append: %w", err)
	}
	return msg, nil
}

func (q *messageQueue) Drain(ctx context.Context, userID string, purge bool) ([]store.Message, error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin drain: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Read the pending set, then mark it. The transaction holds the
	// write lock, so no other drain can interleave between the two.
	rows, err := tx.QueryContext(ctx,
		`SELECT seq, id, user_id, provider, provider_message_id, contents, delivered, delivered_at, created_at
		 FROM messages WHERE user_id = ? AND delivered = 0 ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: read pending: %w", err)
	}
	msgs, err := collectMessages(rows)
	if err != nil {
		return nil, err
	}

	deliveredAt := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		"UPDATE messages SET delivered = 1, delivered_at = ? WHERE user_id = ? AND delivered = 0",
		formatTime(deliveredAt), userID); err != nil {
		return nil, fmt.Errorf("sqlite: mark delivered: %w", err)
	}

	if purge {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM messages WHERE user_id = ? AND delivered = 1", userID); err != nil {
			return nil, fmt.Errorf("sqlite: purge drained: %w", err)
		}
	}

	for i := range msgs {
		msgs[i].Delivered = true
		msgs[i].DeliveredAt = deliveredAt
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: commit drain: %w", err)
	}
	return msgs, nil
}

func (q *messageQueue) PurgeDelivered(ctx context.Context, olderThan time.Duration) (int64, error) {
	// Age from delivery, not arrival. A message that sat pending for a
	// long time before its first drain still gets the full retention
	// window after the client has seen it.
	cutoff := formatTime(time.Now().UTC().Add(-olderThan))
	res, err := q.db.ExecContext(ctx,
		"DELETE FROM messages WHERE delivered = 1 AND delivered_at <> '' AND delivered_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("sqlite: purge delivered: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: purge delivered: %w", err)
	}
	return n, nil
}

func (q *messageQueue) PendingCount(ctx context.Context) (int64, error) {
	var n int64
	if err := q.db.QueryRowContext(ctx,
		"SELECT count(*) FROM messages WHERE delivered = 0").Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count pending: %w", err)
	}
	return n, nil
}

func collectMessages(rows *sql.Rows) ([]store.Message, error) {
	defer rows.Close()

	var msgs []store.Message
	for rows.Next() {
		var m store.Message
		var delivered int
		var deliveredAt, createdAt string
		if err := rows.Scan(&m.Seq, &m.ID, &m.UserID, &m.Provider, &m.ProviderMessageID,
			&m.Contents, &delivered, &deliveredAt, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan message: %w", err)
		}
		m.Delivered = delivered != 0
		if deliveredAt != "" {
			m.DeliveredAt = parseTime(deliveredAt)
		}
		m.CreatedAt = parseTime(createdAt)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate messages: %w", err)
	}
	return msgs, nil
}
