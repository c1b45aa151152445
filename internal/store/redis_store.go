package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration for the realtime store.
type RedisConfig struct {
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
	Channel   string `mapstructure:"channel"`
}

// RedisStore is a Redis-backed Store for multi-instance deployments.
//
// Key layout:
//
//	{prefix}v:{path}   STRING  JSON value written at exactly this path
//	{prefix}c:{path}   SET     child segments beneath this path
//
// A subtree read assembles the blob at the path and overlays any child
// paths written later (a room record written whole, then patched at
// chats/{id}/lastMessage, reads back merged). Commits run inside a
// MULTI/EXEC transaction; change notifications go through pub/sub and
// each subscriber re-reads its full snapshot, so cross-subscriber
// delivery order is not guaranteed.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	channel string
	keys    *keyGenerator

	mu     sync.Mutex
	subs   map[int]*redisSub
	nextID int
	pubsub *redis.PubSub
	cancel context.CancelFunc
	closed bool
}

type redisSub struct {
	path string
	fn   func(Snapshot)

	// mu serializes deliveries so a change dispatched on the listener
	// goroutine cannot land before, or interleave with, the initial
	// snapshot. gone stops delivery after detach.
	mu   sync.Mutex
	gone bool
}

// run fetches the subscriber's snapshot and invokes fn, serialized with
// every other delivery to the same subscriber. The fetch happens under
// the lock so a re-read always reflects data at least as new as the
// previous delivery.
func (r *redisSub) run(fetch func() (Snapshot, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gone {
		return
	}
	snap, err := fetch()
	if err != nil {
		return
	}
	r.fn(snap)
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "rtstore:"
	}
	channel := cfg.Channel
	if channel == "" {
		channel = "rtstore:changes"
	}

	return &RedisStore{
		client:  client,
		prefix:  prefix,
		channel: channel,
		keys:    newKeyGenerator(),
		subs:    make(map[int]*redisSub),
	}, nil
}

func (s *RedisStore) valueKey(path string) string {
	return s.prefix + "v:" + path
}

func (s *RedisStore) childrenKey(path string) string {
	return s.prefix + "c:" + path
}

// Get assembles the full value at path.
func (s *RedisStore) Get(ctx context.Context, path string) (Snapshot, error) {
	if _, err := splitPath(path); err != nil {
		return Snapshot{}, err
	}
	v, err := s.assemble(ctx, path)
	if err != nil {
		return Snapshot{}, err
	}
	return NewSnapshot(path, v), nil
}

func (s *RedisStore) assemble(ctx context.Context, path string) (any, error) {
	var base any
	raw, err := s.client.Get(ctx, s.valueKey(path)).Result()
	switch {
	case err == redis.Nil:
		// absent blob, children may still exist
	case err != nil:
		return nil, fmt.Errorf("get %q: %w", path, err)
	default:
		if err := json.Unmarshal([]byte(raw), &base); err != nil {
			return nil, fmt.Errorf("decode %q: %w", path, err)
		}
	}

	children, err := s.client.SMembers(ctx, s.childrenKey(path)).Result()
	if err != nil {
		return nil, fmt.Errorf("list children of %q: %w", path, err)
	}
	if len(children) == 0 {
		return base, nil
	}

	m, _ := base.(map[string]any)
	if m == nil {
		m = make(map[string]any)
	}
	for _, child := range children {
		cv, err := s.assemble(ctx, joinPath(path, child))
		if err != nil {
			return nil, err
		}
		if cv != nil {
			m[child] = cv
		}
	}
	if len(m) == 0 {
		return base, nil
	}
	return m, nil
}

// Write stores a single value at path.
func (s *RedisStore) Write(ctx context.Context, path string, value any) error {
	return s.Commit(ctx, NewWriteBatch().Set(path, value))
}

// Commit applies the batch in one MULTI/EXEC transaction and publishes
// the changed paths.
func (s *RedisStore) Commit(ctx context.Context, batch *WriteBatch) error {
	entries, err := batch.normalized()
	if err != nil {
		return err
	}

	// Replacing a subtree means clearing whatever was written beneath it.
	// The scan runs before the transaction; concurrent writers into the
	// same subtree can race it, which the chat data model never does (the
	// message log is append-only and room patches are leaf writes).
	type replacement struct {
		valueKeys []string
		childKeys []string
	}
	replaced := make([]replacement, len(entries))
	for i, e := range entries {
		vk, ck, err := s.descendantKeys(ctx, e.path)
		if err != nil {
			return err
		}
		replaced[i] = replacement{valueKeys: vk, childKeys: ck}
	}

	pipe := s.client.TxPipeline()
	changed := make([]string, 0, len(entries))
	for i, e := range entries {
		raw, err := json.Marshal(e.value)
		if err != nil {
			return fmt.Errorf("encode %q: %w", e.path, err)
		}

		if len(replaced[i].valueKeys) > 0 {
			pipe.Del(ctx, replaced[i].valueKeys...)
		}
		if len(replaced[i].childKeys) > 0 {
			pipe.Del(ctx, replaced[i].childKeys...)
		}

		pipe.Set(ctx, s.valueKey(e.path), raw, 0)

		// Register the path in every ancestor's child index.
		segs, _ := splitPath(e.path)
		for i := 1; i < len(segs); i++ {
			parent := joinPath(segs[:i]...)
			pipe.SAdd(ctx, s.childrenKey(parent), segs[i])
		}
		pipe.SAdd(ctx, s.childrenKey(""), segs[0])

		changed = append(changed, e.path)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	note, err := json.Marshal(changed)
	if err != nil {
		return err
	}
	if err := s.client.Publish(ctx, s.channel, note).Err(); err != nil {
		return fmt.Errorf("publish change: %w", err)
	}
	return nil
}

// descendantKeys lists the value and child-index keys strictly below path.
func (s *RedisStore) descendantKeys(ctx context.Context, path string) (valueKeys, childKeys []string, err error) {
	children, err := s.client.SMembers(ctx, s.childrenKey(path)).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("list children of %q: %w", path, err)
	}
	if len(children) == 0 {
		return nil, nil, nil
	}
	childKeys = append(childKeys, s.childrenKey(path))
	for _, child := range children {
		cp := joinPath(path, child)
		valueKeys = append(valueKeys, s.valueKey(cp))
		vk, ck, err := s.descendantKeys(ctx, cp)
		if err != nil {
			return nil, nil, err
		}
		valueKeys = append(valueKeys, vk...)
		childKeys = append(childKeys, ck...)
	}
	return valueKeys, childKeys, nil
}

// GenerateKey returns a fresh time-ordered child key.
func (s *RedisStore) GenerateKey(parentPath string) string {
	return s.keys.next()
}

// Subscribe registers fn, delivers the current snapshot, and re-reads the
// path on every published change that touches it. Callbacks run on the
// listener goroutine.
func (s *RedisStore) Subscribe(ctx context.Context, path string, fn func(Snapshot)) (func(), error) {
	if _, err := splitPath(path); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if s.pubsub == nil {
		listenCtx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		s.pubsub = s.client.Subscribe(listenCtx, s.channel)
		go s.listen(listenCtx, s.pubsub)
	}
	id := s.nextID
	s.nextID++
	sub := &redisSub{path: path, fn: fn}
	// Held across registration: a change published before the initial
	// read completes blocks in dispatch and then re-reads fresh data,
	// so the subscriber never sees snapshots out of order.
	sub.mu.Lock()
	s.subs[id] = sub
	s.mu.Unlock()

	snap, err := s.Get(ctx, path)
	if err != nil {
		sub.gone = true
		sub.mu.Unlock()
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
		return nil, err
	}
	fn(snap)
	sub.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
		sub.mu.Lock()
		sub.gone = true
		sub.mu.Unlock()
	}, nil
}

func (s *RedisStore) listen(ctx context.Context, pubsub *redis.PubSub) {
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var changed []string
			if err := json.Unmarshal([]byte(msg.Payload), &changed); err != nil {
				continue
			}
			s.dispatch(ctx, changed)
		}
	}
}

func (s *RedisStore) dispatch(ctx context.Context, changed []string) {
	s.mu.Lock()
	targets := make([]*redisSub, 0, len(s.subs))
	for _, sub := range s.subs {
		for _, p := range changed {
			if related(sub.path, p) {
				targets = append(targets, sub)
				break
			}
		}
	}
	s.mu.Unlock()

	for _, sub := range targets {
		sub.run(func() (Snapshot, error) {
			return s.Get(ctx, sub.path)
		})
	}
}

// Close stops the listener and closes the connection.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.subs = make(map[int]*redisSub)
	if s.cancel != nil {
		s.cancel()
	}
	pubsub := s.pubsub
	s.pubsub = nil
	s.mu.Unlock()

	if pubsub != nil {
		pubsub.Close()
	}
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
