package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgxpool.Pool the repositories use; pgxmock pools satisfy it too
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// orderClause maps a user-supplied ordering onto a whitelisted ORDER BY expression
func orderClause(ordering string, allowed map[string]string, fallback string) string {
	if clause, ok := allowed[ordering]; ok {
		return clause
	}
	return fallback
}

func stringPtr(s string) *string {
	return &s
}
