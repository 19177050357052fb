package token

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// PostgresRegistry implements Registry on top of Postgres. The token column
// carries a unique constraint, and revocation uses ON CONFLICT DO NOTHING so
// a retried logout is a no-op rather than a constraint failure. Each write
// also prunes entries past their token's expiry, which keeps the table
// bounded without a separate sweeper.
type PostgresRegistry struct {
	db *sql.DB
}

func NewPostgresRegistry(db *sql.DB) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

func (r *PostgresRegistry) Revoke(ctx context.Context, tokenString string, revokedAt, expiresAt time.Time) error {
	query :=
		`INSERT INTO revoked_tokens (token, revoked_at, expires_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (token) DO NOTHING
		 `

	if _, err := r.db.ExecContext(ctx, query, tokenString, revokedAt, expiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	// On-write compaction: expired entries can never matter again. The
	// revocation row is already durable at this point, so a prune failure
	// must not fail the revoke itself.
	prune := `DELETE FROM revoked_tokens WHERE expires_at < $1`
	if _, err := r.db.ExecContext(ctx, prune, revokedAt); err != nil {
		log.Warn().Err(err).Msg("revoked token prune failed")
	}

	return nil
}

func (r *PostgresRegistry) IsRevoked(ctx context.Context, tokenString string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token = $1)`

	var revoked bool
	if err := r.db.QueryRowContext(ctx, query, tokenString).Scan(&revoked); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return revoked, nil
}
