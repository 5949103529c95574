package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hankhank10/loglink-server/internal/store"
)

// betaCodeStore implements store.BetaCodeStore backed by SQLite.
// Codes are consumed inside identityStore.CreateUser so signup gating
// stays atomic with user creation.
type betaCodeStore struct {
	db *sql.DB
}

func (s *betaCodeStore) CreateCodes(ctx context.Context, n int) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin create codes: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	codes := make([]string, 0, n)
	for len(codes) < n {
		code := store.RandomBetaCode()
		res, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO beta_codes (code, created_at) VALUES (?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))", code)
		if err != nil {
			return nil, fmt.Errorf("sqlite: insert code: %w", err)
		}
		if inserted, err := res.RowsAffected(); err != nil {
			return nil, fmt.Errorf("sqlite: insert code: %w", err)
		} else if inserted == 0 {
			// Collision with an existing code; mint another.
			continue
		}
		codes = append(codes, code)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: commit create codes: %w", err)
	}
	return codes, nil
}

func (s *betaCodeStore) ListCodes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT code FROM beta_codes ORDER BY created_at, code")
	if err != nil {
		return nil, fmt.Errorf("sqlite: list codes: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("sqlite: scan code: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate codes: %w", err)
	}
	return codes, nil
}
