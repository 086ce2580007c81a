package postgres

import (
	"context"
	"database/sql"
)

// Queryer é o que *sql.DB e *sql.Tx têm em comum; o pgstore escreve contra ele
// para rodar igual dentro e fora de transação.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Queryer = (*sql.Tx)(nil)
	_ Queryer = (*Connection)(nil)
	_ Conn    = (*Connection)(nil)
)
