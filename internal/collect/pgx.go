package collect

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	pgerrors "github.com/koltyakov/migeval/internal/errors"
)

// PgxClient runs every query of a report over one native session.
type PgxClient struct {
	conn *pgx.Conn
}

// NewPgxClient opens the session. Temporary tables created by probes live
// until Close.
func NewPgxClient(ctx context.Context, url string) (*PgxClient, error) {
	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pgerrors.ErrConnectionFailed, err)
	}
	return &PgxClient{conn: conn}, nil
}

// Ping runs a trivial round trip.
func (c *PgxClient) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

// Query sends sql as one simple-protocol message, so multi-statement scripts
// with their own begin/commit run exactly as psql -c would run them.
func (c *PgxClient) Query(ctx context.Context, sql string) (string, error) {
	pc := c.conn.PgConn()
	results, err := pc.Exec(ctx, sql).ReadAll()
	if err != nil {
		c.resetTx(ctx)
		return "", pgerrors.NewQueryError(sql, err)
	}
	return formatResults(results), nil
}

// resetTx leaves an aborted transaction block so the next probe starts clean.
func (c *PgxClient) resetTx(ctx context.Context) {
	pc := c.conn.PgConn()
	if pc.IsClosed() || pc.TxStatus() == 'I' {
		return
	}
	_, _ = pc.Exec(ctx, "rollback").ReadAll()
}

// Close ends the session.
func (c *PgxClient) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

// formatResults renders the last row-returning result the way
// psql -A -t -F , does: comma-separated fields, one row per line,
// NULL as an empty field.
func formatResults(results []*pgconn.Result) string {
	var last *pgconn.Result
	for _, r := range results {
		if len(r.FieldDescriptions) > 0 {
			last = r
		}
	}
	if last == nil {
		return ""
	}

	var sb strings.Builder
	for i, row := range last.Rows {
		if i > 0 {
			sb.WriteByte('\n')
		}
		for j, field := range row {
			if j > 0 {
				sb.WriteByte(',')
			}
			sb.Write(field)
		}
	}
	return sb.String()
}
