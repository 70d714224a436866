package reconcile

import (
	"math"
	"slices"

	"go.uber.org/zap"

	"github.com/roach88/ringaudit/internal/nodesync"
	"github.com/roach88/ringaudit/internal/token"
)

// Sweep decision names, used in SweepError and debug logs.
const (
	StepGap       = "gap"
	StepMerge     = "merge"
	StepReplace   = "replace"
	StepTrim      = "trim"
	StepCloseTail = "close-tail"
	StepCoalesce  = "coalesce"
)

// Option configures a Sweep.
type Option func(*Sweep)

// WithLogger logs every sweep decision at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Sweep) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Sweep holds the working coverage set of one table.
// It is not safe for concurrent use; each table gets its own.
type Sweep struct {
	keyspace string
	table    string
	set      []nodesync.Record
	seeded   bool
	logger   *zap.Logger
}

// NewSweep returns a sweep seeded with the full ring in the Uncompleted state.
func NewSweep(keyspace, table string, opts ...Option) *Sweep {
	s := &Sweep{
		keyspace: keyspace,
		table:    table,
		set:      []nodesync.Record{nodesync.Unvalidated(keyspace, table, token.Full)},
		seeded:   true,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fold applies one record. Records must arrive in nodesync.Compare order.
//
// Neighbouring records of the set never share an outcome.
func (s *Sweep) Fold(r nodesync.Record) error {
	h := s.last()

	// A record starting at the ring minimum supersedes the untouched seed
	// whatever its outcome.
	if s.seeded {
		s.seeded = false
		if r.Range.Lower == math.MinInt64 {
			s.trace(StepReplace, h, r)
			s.replaceLast(r)
			return nil
		}
	}

	if !h.Range.Intersects(r.Range) {
		if err := s.closeGap(StepGap, h, r, r.Range.Lower); err != nil {
			return err
		}
		h = s.last()
	}

	switch {
	case h.Outcome == r.Outcome:
		merged, err := h.Merge(r)
		if err != nil {
			return &SweepError{Step: StepMerge, Open: h, Incoming: r, Err: err}
		}
		s.trace(StepMerge, h, r)
		s.replaceLast(merged)
		return nil

	case h.Range.Lower == r.Range.Lower:
		s.trace(StepReplace, h, r)
		s.replaceLast(r)
		return s.coalesce()

	default:
		trimmed, err := h.WithUpper(r.Range.Lower)
		if err != nil {
			return &SweepError{Step: StepTrim, Open: h, Incoming: r, Err: err}
		}
		s.trace(StepTrim, h, r)
		s.replaceLast(trimmed)
		s.set = append(s.set, r)
		return nil
	}
}

// Result closes the ring after the last record and returns a copy of the
// coverage set.
func (s *Sweep) Result() ([]nodesync.Record, error) {
	h := s.last()
	if h.Range.Upper < math.MaxInt64 {
		tail := nodesync.Unvalidated(s.keyspace, s.table, token.Range{Lower: h.Range.Upper, Upper: math.MaxInt64})
		if err := s.closeGap(StepCloseTail, h, tail, math.MaxInt64); err != nil {
			return nil, err
		}
	}
	return slices.Clone(s.set), nil
}

// closeGap covers the tokens from h's upper bound to upper with an
// Uncompleted record. An Uncompleted h is stretched instead, and a single
// token h is superseded by the filler that starts on it.
func (s *Sweep) closeGap(step string, h, incoming nodesync.Record, upper int64) error {
	s.trace(step, h, incoming)

	if h.Outcome == nodesync.Uncompleted {
		stretched, err := h.WithUpper(upper)
		if err != nil {
			return &SweepError{Step: step, Open: h, Incoming: incoming, Err: err}
		}
		s.replaceLast(stretched)
		return nil
	}

	filler, err := token.New(h.Range.Upper, upper)
	if err != nil {
		return &SweepError{Step: step, Open: h, Incoming: incoming, Err: err}
	}
	gap := nodesync.Unvalidated(s.keyspace, s.table, filler)
	if h.Range.Lower == h.Range.Upper {
		s.replaceLast(gap)
		return s.coalesce()
	}
	s.set = append(s.set, gap)
	return nil
}

// coalesce merges the last record into the one before it when both carry the
// same outcome.
func (s *Sweep) coalesce() error {
	n := len(s.set)
	if n < 2 {
		return nil
	}
	prev, last := s.set[n-2], s.set[n-1]
	if prev.Outcome != last.Outcome {
		return nil
	}
	merged, err := prev.Merge(last)
	if err != nil {
		return &SweepError{Step: StepCoalesce, Open: prev, Incoming: last, Err: err}
	}
	s.trace(StepCoalesce, prev, last)
	s.set = append(s.set[:n-2], merged)
	return nil
}

func (s *Sweep) last() nodesync.Record {
	return s.set[len(s.set)-1]
}

func (s *Sweep) replaceLast(r nodesync.Record) {
	s.set[len(s.set)-1] = r
}

func (s *Sweep) trace(step string, open, incoming nodesync.Record) {
	if ce := s.logger.Check(zap.DebugLevel, "sweep step"); ce != nil {
		ce.Write(
			zap.String("keyspace", s.keyspace),
			zap.String("table", s.table),
			zap.String("step", step),
			zap.Stringer("open", open.Range),
			zap.Stringer("open_outcome", open.Outcome),
			zap.Stringer("incoming", incoming.Range),
			zap.Stringer("incoming_outcome", incoming.Outcome),
		)
	}
}
