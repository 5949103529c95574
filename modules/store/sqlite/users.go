package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hankhank10/loglink-server/internal/store"
)

// tokenRetries bounds regeneration attempts on a token collision.
const tokenRetries = 5

// identityStore implements store.IdentityStore backed by SQLite.
type identityStore struct {
	db *sql.DB
}

const userColumns = "id, token, provider, provider_id, approved, upload_key, api_call_count, created_at"

func (s *identityStore) CreateUser(ctx context.Context, provider, providerID, betaCode string) (*store.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin create user: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if betaCode != "" {
		res, err := tx.ExecContext(ctx, "DELETE FROM beta_codes WHERE code = ?", betaCode)
		if err != nil {
			return nil, fmt.Errorf("sqlite: consume beta code: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("sqlite: consume beta code: %w", err)
		}
		if n == 0 {
			return nil, store.ErrGateRejected
		}
	}

	u := &store.User{
		ID:         uuid.NewString(),
		Provider:   provider,
		ProviderID: providerID,
		Approved:   true,
		CreatedAt:  time.Now().UTC(),
	}

	for attempt := 0; ; attempt++ {
		u.Token = store.RandomToken(provider)
		_, err = tx.ExecContext(ctx,
			`INSERT INTO users (id, token, provider, provider_id, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			u.ID, u.Token, provider, providerID, formatTime(u.CreatedAt),
		)
		if err == nil {
			break
		}
		if isUniqueViolation(err, "users.provider") {
			return nil, fmt.Errorf("%w: %s/%s", store.ErrUserExists, provider, providerID)
		}
		if isUniqueViolation(err, "users.token") && attempt < tokenRetries {
			continue
		}
		return nil, fmt.Errorf("sqlite: insert user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: commit create user: %w", err)
	}
	return u, nil
}

func (s *identityStore) UserByToken(ctx context.Context, token string) (*store.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE token = ?", token)
	return scanUser(row)
}

func (s *identityStore) UserByProviderID(ctx context.Context, provider, providerID string) (*store.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE provider = ? AND provider_id = ?",
		provider, providerID)
	return scanUser(row)
}

func (s *identityStore) UserByID(ctx context.Context, userID string) (*store.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", userID)
	return scanUser(row)
}

func (s *identityStore) ListUsers(ctx context.Context) ([]store.User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("sqlite: list users: %w", err)
	}
	defer rows.Close()

	var users []store.User
	for rows.Next() {
		var u store.User
		var approved int
		var createdAt string
		if err := rows.Scan(&u.ID, &u.Token, &u.Provider, &u.ProviderID, &approved,
			&u.UploadKey, &u.APICallCount, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan user: %w", err)
		}
		u.Approved = approved != 0
		u.CreatedAt = parseTime(createdAt)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate users: %w", err)
	}
	return users, nil
}

func (s *identityStore) RotateToken(ctx context.Context, userID string) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("sqlite: begin rotate token: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var provider string
	err = tx.QueryRowContext(ctx, "SELECT provider FROM users WHERE id = ?", userID).Scan(&provider)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("sqlite: rotate token: %w", err)
	}

	// Queued messages belong to the old credential; a rotation must not
	// leak them to the new one.
	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE user_id = ?", userID); err != nil {
		return "", fmt.Errorf("sqlite: clear queue on rotate: %w", err)
	}

	var token string
	for attempt := 0; ; attempt++ {
		token = store.RandomToken(provider)
		_, err = tx.ExecContext(ctx, "UPDATE users SET token = ? WHERE id = ?", token, userID)
		if err == nil {
			break
		}
		if isUniqueViolation(err, "users.token") && attempt < tokenRetries {
			continue
		}
		return "", fmt.Errorf("sqlite: update token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("sqlite: commit rotate token: %w", err)
	}
	return token, nil
}

func (s *identityStore) SetUploadKey(ctx context.Context, userID, key string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET upload_key = ? WHERE id = ?", key, userID)
	if err != nil {
		return fmt.Errorf("sqlite: set upload key: %w", err)
	}
	return requireRow(res)
}

func (s *identityStore) DeleteUser(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", userID)
	if err != nil {
		return fmt.Errorf("sqlite: delete user: %w", err)
	}
	return requireRow(res)
}

func (s *identityStore) UserCount(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count users: %w", err)
	}
	return n, nil
}

func scanUser(row *sql.Row) (*store.User, error) {
	var u store.User
	var approved int
	var createdAt string
	err := row.Scan(&u.ID, &u.Token, &u.Provider, &u.ProviderID, &approved, &u.UploadKey, &u.APICallCount, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: scan user: %w", err)
	}
	u.Approved = approved != 0
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure
// touching the given column prefix. modernc.org/sqlite surfaces the
// violated columns in the error text.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, column)
}

const timeLayout = "2006-01-02T15:04:05.000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// Tolerate rows written without fractional seconds.
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}
