package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// CopyFromer is the COPY surface shared by pgx pools and transactions, so
// bulk inserts can run either standalone or inside a delete-then-insert
// transaction.
type CopyFromer interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// CopyFrom bulk-inserts rows into a table using the PostgreSQL COPY
// protocol. The taxonomy replace path pushes each industry's parsed rows
// through here inside its transaction; it is far faster than row-at-a-time
// inserts for the volumes a sweep produces.
func CopyFrom(ctx context.Context, conn CopyFromer, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := conn.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", table)
	}

	return n, nil
}
