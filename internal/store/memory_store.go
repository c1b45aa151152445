package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store backed by a nested map tree.
// Suitable for tests and single-instance deployments. Subscribers are
// notified synchronously after each commit.
type MemoryStore struct {
	mu     sync.Mutex
	root   map[string]any
	subs   map[int]*memorySub
	nextID int
	keys   *keyGenerator
	closed bool
}

type memorySub struct {
	path string
	fn   func(Snapshot)
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		root: make(map[string]any),
		subs: make(map[int]*memorySub),
		keys: newKeyGenerator(),
	}
}

// Get returns the value at path.
func (s *MemoryStore) Get(ctx context.Context, path string) (Snapshot, error) {
	segs, err := splitPath(path)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Snapshot{}, ErrClosed
	}
	return NewSnapshot(path, clone(s.valueAt(segs))), nil
}

// Write stores a single value at path.
func (s *MemoryStore) Write(ctx context.Context, path string, value any) error {
	return s.Commit(ctx, NewWriteBatch().Set(path, value))
}

// Commit applies the batch under one lock and fans out snapshots to every
// related subscriber. Validation happens up front so a bad entry leaves
// the tree untouched.
func (s *MemoryStore) Commit(ctx context.Context, batch *WriteBatch) error {
	entries, err := batch.normalized()
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}

	for _, e := range entries {
		segs, _ := splitPath(e.path)
		s.setAt(segs, e.value)
	}

	// Collect deliveries while still holding the lock so each callback
	// sees a consistent post-commit snapshot, then invoke outside it.
	type delivery struct {
		fn   func(Snapshot)
		snap Snapshot
	}
	var deliveries []delivery
	for _, sub := range s.subs {
		for _, e := range entries {
			if related(sub.path, e.path) {
				segs, _ := splitPath(sub.path)
				deliveries = append(deliveries, delivery{
					fn:   sub.fn,
					snap: NewSnapshot(sub.path, clone(s.valueAt(segs))),
				})
				break
			}
		}
	}
	s.mu.Unlock()

	for _, d := range deliveries {
		d.fn(d.snap)
	}
	return nil
}

// GenerateKey returns a fresh time-ordered child key.
func (s *MemoryStore) GenerateKey(parentPath string) string {
	return s.keys.next()
}

// Subscribe registers fn and delivers the current snapshot immediately.
func (s *MemoryStore) Subscribe(ctx context.Context, path string, fn func(Snapshot)) (func(), error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = &memorySub{path: path, fn: fn}
	initial := NewSnapshot(path, clone(s.valueAt(segs)))
	s.mu.Unlock()

	fn(initial)

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}, nil
}

// Close drops all subscriptions.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.subs = make(map[int]*memorySub)
	return nil
}

// valueAt walks the tree. Caller holds the lock.
func (s *MemoryStore) valueAt(segs []string) any {
	var cur any = s.root
	for _, seg := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[seg]
		if !ok {
			return nil
		}
	}
	return cur
}

// setAt writes value at the segment path, creating intermediate maps and
// replacing any leaf that stands in the way. Caller holds the lock.
func (s *MemoryStore) setAt(segs []string, value any) {
	m := s.root
	for _, seg := range segs[:len(segs)-1] {
		child, ok := m[seg].(map[string]any)
		if !ok {
			child = make(map[string]any)
			m[seg] = child
		}
		m = child
	}
	m[segs[len(segs)-1]] = value
}

// clone deep-copies map values so delivered snapshots are immune to later
// writes. Scalars are immutable and shared as-is.
func clone(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		if l, ok := v.([]any); ok {
			out := make([]any, len(l))
			for i, e := range l {
				out[i] = clone(e)
			}
			return out
		}
		return v
	}
	out := make(map[string]any, len(m))
	for k, e := range m {
		out[k] = clone(e)
	}
	return out
}

var _ Store = (*MemoryStore)(nil)
