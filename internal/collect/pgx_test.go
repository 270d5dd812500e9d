package collect

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	pgerrors "github.com/koltyakov/migeval/internal/errors"
)

func rowsResult(cols int, rows ...[]string) *pgconn.Result {
	r := &pgconn.Result{FieldDescriptions: make([]pgconn.FieldDescription, cols)}
	for _, row := range rows {
		var rr [][]byte
		for _, v := range row {
			if v == "<null>" {
				rr = append(rr, nil)
				continue
			}
			rr = append(rr, []byte(v))
		}
		r.Rows = append(r.Rows, rr)
	}
	return r
}

// TestFormatResults verifies pgx results render like psql -A -t -F ,.
func TestFormatResults(t *testing.T) {
	tests := []struct {
		name     string
		results  []*pgconn.Result
		expected string
	}{
		{
			name:     "no results",
			results:  nil,
			expected: "",
		},
		{
			name:     "single value",
			results:  []*pgconn.Result{rowsResult(1, []string{"PostgreSQL 16.2"})},
			expected: "PostgreSQL 16.2",
		},
		{
			name: "last row result wins over trailing commands",
			results: []*pgconn.Result{
				{CommandTag: pgconn.NewCommandTag("SET")},
				rowsResult(1, []string{""}),
				rowsResult(5, []string{"1", "100", "50", "10", "1000"}, []string{"2", "160", "80", "10", "1100"}),
				{CommandTag: pgconn.NewCommandTag("COMMIT")},
			},
			expected: "1,100,50,10,1000\n2,160,80,10,1100",
		},
		{
			name:     "null field",
			results:  []*pgconn.Result{rowsResult(2, []string{"a", "<null>"})},
			expected: "a,",
		},
		{
			name:     "zero rows",
			results:  []*pgconn.Result{rowsResult(1)},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatResults(tt.results); got != tt.expected {
				t.Errorf("formatResults() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestNewPgxClientBadURL(t *testing.T) {
	_, err := NewPgxClient(context.Background(), "not a url ://")
	if !errors.Is(err, pgerrors.ErrConnectionFailed) {
		t.Errorf("expected ErrConnectionFailed, got %v", err)
	}
}
