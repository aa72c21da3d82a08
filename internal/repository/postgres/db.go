package postgres

import (
	"context"
	"database/sql"
)

// Querier abstracts over *sql.DB and *sql.Tx so repositories can run either
// standalone or inside a transaction (see the WithTx constructors).
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)
