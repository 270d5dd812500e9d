package collect

import (
	"context"
	"io"

	pgerrors "github.com/koltyakov/migeval/internal/errors"
)

// Client sends SQL text to the target database.
//
// Query returns the output of the last row-returning statement, one row per
// line with fields separated by commas, as psql prints it in unaligned
// tuples-only mode.
type Client interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, sql string) (string, error)
	Close(ctx context.Context) error
}

// NewClient builds the client selected by cfg.Client.
// The pgx client connects eagerly; a failure there is a connectivity failure.
func NewClient(ctx context.Context, cfg Config, stderr io.Writer) (Client, error) {
	switch cfg.Client {
	case ClientPgx:
		c, err := NewPgxClient(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		return c, nil
	case ClientPsql, "":
		return NewPsqlClient(cfg.PsqlPath, cfg.URL, stderr), nil
	default:
		return nil, pgerrors.NewValidationError("client", cfg.Client, "must be psql or pgx")
	}
}
