package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrClosed     = errors.New("store is closed")
	ErrEmptyBatch = errors.New("write batch is empty")
	ErrBadPath    = errors.New("invalid store path")
)

// Store is a realtime key-value tree. Paths are slash-separated segments
// ("chats/<roomID>", "messages/<roomID>/<messageID>"). Every write is
// visible to subscribers of any related path as a fresh full snapshot;
// deltas are never delivered.
type Store interface {
	// Get returns the full value at path. An absent path yields an empty
	// snapshot, not an error.
	Get(ctx context.Context, path string) (Snapshot, error)

	// Write stores value at path, replacing whatever was there.
	Write(ctx context.Context, path string, value any) error

	// Commit applies every entry of the batch or none of them.
	Commit(ctx context.Context, batch *WriteBatch) error

	// GenerateKey returns a fresh unique child key for parentPath. Keys
	// are lexicographically ordered by generation time.
	GenerateKey(parentPath string) string

	// Subscribe registers fn for the value at path. fn is invoked once
	// with the current snapshot and again after every change that touches
	// path or anything beneath it. The returned function detaches the
	// subscription; after it returns, fn is never invoked again.
	Subscribe(ctx context.Context, path string, fn func(Snapshot)) (func(), error)

	// Close releases subscriptions and connections.
	Close() error
}

// Snapshot is the full value at a path at one point in time. The zero
// value represents absent data.
type Snapshot struct {
	Path  string
	value any
}

// NewSnapshot builds a snapshot from an already-normalized value.
func NewSnapshot(path string, value any) Snapshot {
	return Snapshot{Path: path, value: value}
}

// Exists reports whether any data is present at the snapshot path.
func (s Snapshot) Exists() bool {
	return s.value != nil
}

// Value returns the raw snapshot value (JSON-shaped: maps, strings,
// float64, bool), or nil when absent.
func (s Snapshot) Value() any {
	return s.value
}

// Decode unmarshals the snapshot value into v. Decoding an absent
// snapshot leaves v untouched and returns nil.
func (s Snapshot) Decode(v any) error {
	if s.value == nil {
		return nil
	}
	raw, err := json.Marshal(s.value)
	if err != nil {
		return fmt.Errorf("encode snapshot at %q: %w", s.Path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode snapshot at %q: %w", s.Path, err)
	}
	return nil
}

// WriteBatch is an ordered set of path→value writes committed as one
// atomic unit via Store.Commit.
type WriteBatch struct {
	entries []batchEntry
}

type batchEntry struct {
	path  string
	value any
}

// NewWriteBatch creates an empty batch.
func NewWriteBatch() *WriteBatch {
	return &WriteBatch{}
}

// Set adds a write to the batch and returns the batch for chaining.
func (b *WriteBatch) Set(path string, value any) *WriteBatch {
	b.entries = append(b.entries, batchEntry{path: path, value: value})
	return b
}

// Len returns the number of writes in the batch.
func (b *WriteBatch) Len() int {
	return len(b.entries)
}

// normalized validates the batch and converts every value to its
// JSON-shaped form. Nothing is applied if any entry fails.
func (b *WriteBatch) normalized() ([]batchEntry, error) {
	if b == nil || len(b.entries) == 0 {
		return nil, ErrEmptyBatch
	}
	out := make([]batchEntry, 0, len(b.entries))
	for _, e := range b.entries {
		if _, err := splitPath(e.path); err != nil {
			return nil, err
		}
		v, err := normalize(e.value)
		if err != nil {
			return nil, err
		}
		out = append(out, batchEntry{path: e.path, value: v})
	}
	return out, nil
}

// normalize round-trips a value through JSON so every store backend sees
// the same shape regardless of the Go type written.
func normalize(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("value is not storable: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("value is not storable: %w", err)
	}
	return v, nil
}

func splitPath(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrBadPath)
	}
	segs := strings.Split(strings.Trim(path, "/"), "/")
	for _, s := range segs {
		if s == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadPath, path)
		}
	}
	return segs, nil
}

func joinPath(segs ...string) string {
	return strings.Join(segs, "/")
}

// related reports whether a change at changed is visible at sub: one path
// must be a segment-wise prefix of the other.
func related(sub, changed string) bool {
	a := strings.Trim(sub, "/")
	b := strings.Trim(changed, "/")
	if a == b {
		return true
	}
	return strings.HasPrefix(b, a+"/") || strings.HasPrefix(a, b+"/")
}
