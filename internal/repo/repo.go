// Package repo contains all database access logic for the bike rental scheme.
// Each entity has its own file with an interface and a Postgres implementation.
// No business logic lives here, only SQL, type mapping, and error classification.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/EgonMoreau/VivesBike/internal/domain"
)

// Postgres error codes the stores classify.
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scanX
// helpers to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// classify maps a driver error onto the domain error taxonomy.
//   - no rows                  -> domain.ErrNotFound
//   - unique violation         -> domain.ErrConflict
//   - foreign key violation    -> domain.ErrNotFound
//   - check violation          -> domain.ErrValidation
//   - anything else            -> domain.ErrStorage, driver error kept in the chain
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return fmt.Errorf("%w: %s", domain.ErrConflict, pgErr.ConstraintName)
		case foreignKeyViolationCode:
			return fmt.Errorf("%w: %s", domain.ErrNotFound, pgErr.ConstraintName)
		case checkViolationCode:
			return fmt.Errorf("%w: %s", domain.ErrValidation, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%w: %w", domain.ErrStorage, err)
}

// collect drains rows through scan into a non-nil slice.
func collect[T any](rows pgx.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", classify(err))
	}
	return out, nil
}
