// Package runner implements the Resolver described in spec.md §4.6: the
// sole component that touches persistence. It owns the content store, the
// ref namespace, and the event stream, and wraps every registered gate so
// that resolution, mutation, and error handling happen in one place.
package runner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/objstore"
	"github.com/roach88/nysql/internal/refstore"
	"github.com/roach88/nysql/internal/state"
)

// StateGate declares a ReadSet for a given event and, once it is
// resolved, produces a MutationBatch. State gates never touch
// persistence directly; the Runner resolves and applies on their behalf.
type StateGate interface {
	Signature() string
	ReadSet(e event.Event) *state.ReadSet
	Resolve(e event.Event, resolved *state.Resolved) (*state.MutationBatch, error)
}

// PlainGate may call the Runner's Emit directly. It exists only for
// transaction control, which needs out-of-band access to the Runner's
// snapshot capability.
type PlainGate interface {
	Signature() string
	Handle(e event.Event, r *Runner)
}

// Runner is the Resolver: it owns store, refs, and a stream, and exposes
// register/emit/resolve/apply/snapshot/restore/clearPending.
type Runner struct {
	store  objstore.Store
	refs   refstore.Store
	stream *event.Stream
}

// New creates a Runner over the given store and ref namespace.
func New(store objstore.Store, refs refstore.Store) *Runner {
	return &Runner{
		store:  store,
		refs:   refs,
		stream: event.NewStream(),
	}
}

// Stream exposes the underlying event stream, e.g. to install a Recorder.
func (r *Runner) Stream() *event.Stream { return r.stream }

// Register installs gate, wrapping it according to its variant (pure,
// state, or plain) so the Stream only ever deals in plain event.Gate
// values. Any panic raised while the wrapper runs a gate is converted to
// an "error" event carrying the gate's signature, rather than propagating
// to the caller.
func (r *Runner) Register(gate any) error {
	switch g := gate.(type) {
	case event.Gate:
		return r.stream.Register(r.wrap(g.Signature(), func(e event.Event) []event.Event {
			return g.Handle(e)
		}))
	case StateGate:
		return r.stream.Register(r.wrap(g.Signature(), func(e event.Event) []event.Event {
			return r.runStateGate(g, e)
		}))
	case PlainGate:
		return r.stream.Register(r.wrap(g.Signature(), func(e event.Event) []event.Event {
			g.Handle(e, r)
			return nil
		}))
	default:
		return fmt.Errorf("runner: %T is not a pure, state, or plain gate", gate)
	}
}

func (r *Runner) wrap(signature string, fn func(event.Event) []event.Event) event.Gate {
	return event.NewPureGate(signature, func(e event.Event) (out []event.Event) {
		defer func() {
			if rec := recover(); rec != nil {
				out = []event.Event{event.Error(fmt.Sprintf("gate %q panicked: %v", signature, rec), e)}
			}
		}()
		return fn(e)
	})
}

func (r *Runner) runStateGate(g StateGate, e event.Event) []event.Event {
	rs := g.ReadSet(e)
	resolved, err := r.Resolve(rs)
	if err != nil {
		return []event.Event{event.Error(err.Error(), e)}
	}

	batch, err := g.Resolve(e, resolved)
	if err != nil {
		return []event.Event{event.Error(err.Error(), e)}
	}
	if batch == nil {
		return nil
	}

	followUps, err := r.Apply(batch)
	if err != nil {
		return []event.Event{event.Error(err.Error(), e)}
	}
	return followUps
}

// Emit forwards e into the stream.
func (r *Runner) Emit(e event.Event) { r.stream.Emit(e) }

// ClearPending drops pending events between statements.
func (r *Runner) ClearPending() []event.Event { return r.stream.ClearPending() }

// Resolve fetches every ref name and prefix pattern named in rs.
func (r *Runner) Resolve(rs *state.ReadSet) (*state.Resolved, error) {
	resolved := state.NewResolved()
	if rs == nil {
		return resolved, nil
	}

	for _, name := range rs.Refs {
		hash, ok := r.refs.Get(name)
		if !ok {
			resolved.SetRef(name, nil, false)
			continue
		}
		v, err := r.store.Get(hash)
		if err != nil {
			return nil, fmt.Errorf("runner: resolve ref %q: %w", name, err)
		}
		resolved.SetRef(name, v, true)
	}

	for _, prefix := range rs.Patterns {
		names := r.refs.List(prefix)
		sort.Strings(names)
		entries := make([]state.NamedEntry, 0, len(names))
		for _, name := range names {
			hash, ok := r.refs.Get(name)
			if !ok {
				continue
			}
			v, err := r.store.Get(hash)
			if err != nil {
				return nil, fmt.Errorf("runner: resolve pattern %q name %q: %w", prefix, name, err)
			}
			entries = append(entries, state.NamedEntry{Name: name, Value: v})
		}
		resolved.SetPattern(prefix, entries)
	}

	return resolved, nil
}

// Apply performs every put in order, then every ref set (resolving
// put-index references), then every ref delete. It returns the batch's
// follow-up events for re-emission. Puts are applied before refs so a ref
// is never left pointing at a missing blob.
func (r *Runner) Apply(batch *state.MutationBatch) ([]event.Event, error) {
	if err := batch.Validate(); err != nil {
		return nil, fmt.Errorf("runner: apply: %w", err)
	}

	hashes := make([]string, len(batch.Puts))
	for i, put := range batch.Puts {
		hash, err := r.store.Put(put.Value)
		if err != nil {
			return nil, fmt.Errorf("runner: apply put %d (%s): %w", i, put.Kind, err)
		}
		hashes[i] = hash
	}

	for _, rs := range batch.RefSets {
		hash := rs.Hash
		if rs.PutIndex >= 0 {
			hash = hashes[rs.PutIndex]
		}
		r.refs.Set(rs.Name, hash)
	}

	for _, name := range batch.RefDels {
		if strings.TrimSpace(name) == "" {
			continue
		}
		r.refs.Delete(name)
	}

	return batch.FollowUps, nil
}
