package collect

import (
	"bytes"
	"context"
	"io"
	"os/exec"

	pgerrors "github.com/koltyakov/migeval/internal/errors"
)

// PsqlClient runs each query in a fresh psql process.
type PsqlClient struct {
	Path   string
	URL    string
	Stderr io.Writer // receives psql diagnostics; nil discards them
}

// NewPsqlClient returns a client that shells out to the psql binary at path.
func NewPsqlClient(path, url string, stderr io.Writer) *PsqlClient {
	if path == "" {
		path = DefaultPsqlPath
	}
	return &PsqlClient{Path: path, URL: url, Stderr: stderr}
}

// psqlArgs builds the argument list: no psqlrc, unaligned tuples-only output,
// comma separator, stop on the first error and echo failed statements.
func psqlArgs(url, sql string) []string {
	return []string{
		"-X", "-A", "-t", "-q",
		"-F", ",",
		"-v", "ON_ERROR_STOP=1",
		"--echo-errors",
		"-d", url,
		"-c", sql,
	}
}

// Ping runs a trivial round trip.
func (c *PsqlClient) Ping(ctx context.Context) error {
	_, err := c.Query(ctx, "select 1")
	return err
}

// Query runs sql and returns psql's stdout. A non-zero exit is an error.
func (c *PsqlClient) Query(ctx context.Context, sql string) (string, error) {
	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Path, psqlArgs(c.URL, sql)...)
	cmd.Stdout = &stdout
	if c.Stderr != nil {
		cmd.Stderr = c.Stderr
	}
	if err := cmd.Run(); err != nil {
		return stdout.String(), pgerrors.NewQueryError(sql, err)
	}
	return stdout.String(), nil
}

// Close is a no-op; every psql process ends its own session.
func (c *PsqlClient) Close(context.Context) error { return nil }
