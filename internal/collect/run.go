package collect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coneno/logger"

	pgerrors "github.com/koltyakov/migeval/internal/errors"
)

// Status classifies a probe outcome.
type Status int

const (
	StatusOK Status = iota
	StatusEmpty
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the result of one probe. Only StatusOK carries a value;
// StatusFailed carries the cause.
type Outcome struct {
	Status Status
	Value  string
	Err    error
}

// Sink receives outcomes in probe order as soon as each probe finishes.
type Sink interface {
	Emit(probe Probe, o Outcome) error
}

// Options controls a report run.
type Options struct {
	// Wait is the sampling window in seconds.
	Wait int
	// Probes overrides the probe table; nil means Probes().
	Probes []Probe
}

// Run checks connectivity, then executes every probe in order and hands each
// outcome to sink. A connectivity failure returns before anything is emitted.
// Individual probe failures never stop the run; a sink error or a cancelled
// context does.
func Run(ctx context.Context, client Client, opts Options, sink Sink) error {
	if opts.Wait < MinWait || opts.Wait > MaxWait {
		return pgerrors.NewValidationError("wait", fmt.Sprint(opts.Wait), fmt.Sprintf("sampling window must be between %d and %d seconds", MinWait, MaxWait))
	}

	if err := client.Ping(ctx); err != nil {
		if errors.Is(err, pgerrors.ErrConnectionFailed) {
			return err
		}
		return fmt.Errorf("%w: %v", pgerrors.ErrConnectionFailed, err)
	}

	list := opts.Probes
	if list == nil {
		list = Probes()
	}

	for _, p := range list {
		if err := ctx.Err(); err != nil {
			return err
		}

		o := Execute(ctx, client, p, opts.Wait)
		if err := ctx.Err(); err != nil {
			// interrupted mid-probe; keep the report a clean prefix
			return err
		}
		switch o.Status {
		case StatusFailed:
			logger.Warning.Printf("%v", pgerrors.NewProbeError(p.Name, o.Err))
		case StatusEmpty:
			logger.Debug.Printf("probe %q: empty result", p.Name)
		default:
			logger.Debug.Printf("probe %q: ok", p.Name)
		}

		if err := sink.Emit(p, o); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs one probe and classifies its output. It never returns an
// error: client failures become StatusFailed and blank output StatusEmpty.
func Execute(ctx context.Context, client Client, p Probe, wait int) Outcome {
	raw, err := client.Query(ctx, p.SQL(wait))
	if err != nil {
		return Outcome{Status: StatusFailed, Err: err}
	}

	out := normalizeOutput(raw)
	if out == "" {
		return Outcome{Status: StatusEmpty}
	}

	if p.Decode != nil {
		v, err := p.Decode(out, wait)
		switch {
		case errors.Is(err, pgerrors.ErrNoData):
			return Outcome{Status: StatusEmpty}
		case err != nil:
			return Outcome{Status: StatusFailed, Err: err}
		}
		out = strings.TrimSpace(v)
		if out == "" {
			return Outcome{Status: StatusEmpty}
		}
	}

	return Outcome{Status: StatusOK, Value: out}
}

// normalizeOutput drops the record separator psql appends after the last
// row, then surrounding whitespace.
func normalizeOutput(raw string) string {
	raw = strings.TrimSuffix(raw, "\n")
	return strings.TrimSpace(raw)
}
