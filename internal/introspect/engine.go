// Package introspect flattens dynamic types into leaf indexes and extracts
// leaf values from data instances addressed by those indexes.
package introspect

import (
	"log/slog"
	"sync"

	"github.com/solatis/datastreamer/internal/types"
)

// Engine owns the leaf index of one root type and keeps it current.
//
// Static types (see IsStatic) are flattened once at construction. Types with
// sequences are re-flattened against every sample so element counts follow
// the data; a new generation is recorded whenever the layout changes.
type Engine struct {
	name   string
	typ    types.TypeDescriptor
	policy types.ContainerPolicy
	opts   []Option
	logger *slog.Logger
	static bool

	mu         sync.Mutex
	index      *Index
	generation uint64
	reported   uint64
}

// Result is the outcome of one Ingest call.
type Result struct {
	Sample
	Index         *Index
	Generation    uint64
	SchemaChanged bool // layout differs from the one returned by the previous Ingest
}

// NewEngine creates an engine for t. Static types are flattened immediately so
// unsupported kinds surface at construction.
func NewEngine(name string, t types.TypeDescriptor, policy types.ContainerPolicy, opts ...Option) (*Engine, error) {
	static, err := IsStatic(t)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		name:   name,
		typ:    t,
		policy: policy,
		opts:   opts,
		logger: newOptions(opts).logger,
		static: static,
	}
	if static {
		idx, err := Flatten(name, t, policy, nil, opts...)
		if err != nil {
			return nil, err
		}
		e.index = idx
		e.generation = 1
	}
	return e, nil
}

// Static reports whether the engine reuses a single index.
func (e *Engine) Static() bool { return e.static }

// Type returns the root type descriptor.
func (e *Engine) Type() types.TypeDescriptor { return e.typ }

// Index returns the current index, or nil for a dynamic type that has not
// seen a sample yet.
func (e *Engine) Index() (*Index, uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index, e.generation
}

// Ingest extracts one sample, re-flattening first when the type is dynamic.
// A new layout becomes current only after the sample is extracted with it, so
// on error the previous index and generation stay current.
func (e *Engine) Ingest(data types.DataInstance) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx, generation := e.index, e.generation
	if !e.static {
		fresh, err := Flatten(e.name, e.typ, e.policy, data, e.opts...)
		if err != nil {
			return Result{}, err
		}
		if !fresh.Equal(e.index) {
			idx = fresh
			generation++
		}
	}

	sample, err := idx.Extract(data)
	if err != nil {
		return Result{}, err
	}

	if idx != e.index {
		e.index = idx
		e.generation = generation
		e.logger.Info("leaf layout changed",
			"root", e.name,
			"generation", generation,
			"numeric", len(idx.Numeric),
			"strings", len(idx.Strings))
	}

	changed := e.generation != e.reported
	e.reported = e.generation
	return Result{
		Sample:        sample,
		Index:         e.index,
		Generation:    e.generation,
		SchemaChanged: changed,
	}, nil
}
