package collect

import (
	"fmt"
	"math/big"
	"strings"

	pgerrors "github.com/koltyakov/migeval/internal/errors"
)

// rateDecimals matches round(numeric, 3) on the server side.
const rateDecimals = 3

const bytesPerMegabyte = 1024 * 1024

// WriteSnapshot holds cumulative tuple and transaction counters at one instant.
type WriteSnapshot struct {
	Inserts *big.Int
	Updates *big.Int
	Deletes *big.Int
	Commits *big.Int
}

// WALSnapshot holds cumulative WAL counters at one instant.
type WALSnapshot struct {
	Records *big.Int
	Bytes   *big.Int
}

// WriteRates are per-second deltas between two write snapshots.
type WriteRates struct {
	Inserts *big.Rat
	Updates *big.Rat
	Deletes *big.Rat
	Commits *big.Rat
}

// String renders the rates as "ins, upd, del, txn".
func (r WriteRates) String() string {
	return strings.Join([]string{
		r.Inserts.FloatString(rateDecimals),
		r.Updates.FloatString(rateDecimals),
		r.Deletes.FloatString(rateDecimals),
		r.Commits.FloatString(rateDecimals),
	}, ", ")
}

// WALRates are per-second WAL deltas; Megabytes is in MiB per second.
type WALRates struct {
	Records   *big.Rat
	Megabytes *big.Rat
}

// String renders the rates with their unit labels.
func (r WALRates) String() string {
	return fmt.Sprintf("%s wal_records_per_sec, %s wal_megabytes_per_sec",
		r.Records.FloatString(rateDecimals), r.Megabytes.FloatString(rateDecimals))
}

// ComputeWriteRates divides the counter deltas by the window in seconds.
func ComputeWriteRates(before, after WriteSnapshot, window int) (WriteRates, error) {
	if window <= 0 {
		return WriteRates{}, pgerrors.NewValidationError("wait", fmt.Sprint(window), "sampling window must be positive")
	}
	return WriteRates{
		Inserts: perSecond(before.Inserts, after.Inserts, big.NewInt(int64(window))),
		Updates: perSecond(before.Updates, after.Updates, big.NewInt(int64(window))),
		Deletes: perSecond(before.Deletes, after.Deletes, big.NewInt(int64(window))),
		Commits: perSecond(before.Commits, after.Commits, big.NewInt(int64(window))),
	}, nil
}

// ComputeWALRates divides the WAL deltas by the window in seconds.
func ComputeWALRates(before, after WALSnapshot, window int) (WALRates, error) {
	if window <= 0 {
		return WALRates{}, pgerrors.NewValidationError("wait", fmt.Sprint(window), "sampling window must be positive")
	}
	return WALRates{
		Records:   perSecond(before.Records, after.Records, big.NewInt(int64(window))),
		Megabytes: perSecond(before.Bytes, after.Bytes, new(big.Int).Mul(big.NewInt(int64(window)), big.NewInt(bytesPerMegabyte))),
	}, nil
}

func perSecond(before, after, divisor *big.Int) *big.Rat {
	delta := new(big.Int).Sub(orZero(after), orZero(before))
	return new(big.Rat).SetFrac(delta, divisor)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

// DecodeWriteRates parses the two snapshot rows printed by the write rate
// script ("n,ins,upd,del,xact") and formats the per-second rates.
func DecodeWriteRates(raw string, wait int) (string, error) {
	rows, err := snapshotRows(raw, 5)
	if err != nil {
		return "", err
	}
	snap := func(f []*big.Int) WriteSnapshot {
		return WriteSnapshot{Inserts: f[0], Updates: f[1], Deletes: f[2], Commits: f[3]}
	}
	rates, err := ComputeWriteRates(snap(rows[0]), snap(rows[1]), wait)
	if err != nil {
		return "", err
	}
	return rates.String(), nil
}

// DecodeWALRates parses the two snapshot rows printed by the WAL rate
// script ("n,records,bytes") and formats the per-second rates.
func DecodeWALRates(raw string, wait int) (string, error) {
	rows, err := snapshotRows(raw, 3)
	if err != nil {
		return "", err
	}
	snap := func(f []*big.Int) WALSnapshot {
		return WALSnapshot{Records: f[0], Bytes: f[1]}
	}
	rates, err := ComputeWALRates(snap(rows[0]), snap(rows[1]), wait)
	if err != nil {
		return "", err
	}
	return rates.String(), nil
}

// snapshotRows returns the counters of snapshots 1 and 2, in that order,
// without the leading sequence column. Blank lines are skipped: psql prints
// one for the void pg_sleep result.
func snapshotRows(raw string, width int) ([2][]*big.Int, error) {
	var out [2][]*big.Int
	seen := 0
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != width {
			return out, fmt.Errorf("snapshot row %q: expected %d fields, got %d", line, width, len(fields))
		}
		var seq int
		switch strings.TrimSpace(fields[0]) {
		case "1":
			seq = 0
		case "2":
			seq = 1
		default:
			return out, fmt.Errorf("snapshot row %q: unknown sequence %q", line, fields[0])
		}
		if out[seq] != nil {
			return out, fmt.Errorf("snapshot %s captured twice", fields[0])
		}
		counters := make([]*big.Int, 0, width-1)
		for _, f := range fields[1:] {
			v, err := parseCounter(f)
			if err != nil {
				return out, fmt.Errorf("snapshot row %q: %w", line, err)
			}
			counters = append(counters, v)
		}
		out[seq] = counters
		seen++
	}
	if seen == 0 {
		return out, pgerrors.ErrNoData
	}
	if out[0] == nil || out[1] == nil {
		return out, fmt.Errorf("expected two snapshots, got %d", seen)
	}
	return out, nil
}

// parseCounter accepts an integral numeric value. An empty field is a NULL
// sum and counts as zero.
func parseCounter(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(big.Int), nil
	}
	// sum() over bigint yields numeric, which may carry a zero fraction
	if i := strings.IndexByte(s, '.'); i >= 0 && strings.Trim(s[i+1:], "0") == "" {
		s = s[:i]
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid counter %q", s)
	}
	return v, nil
}
