package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"luxview/internal/jsonutil"
)

// changeNotice is published on the changes channel after every commit.
type changeNotice struct {
	Writer  string   `json:"writer"`
	Keys    []string `json:"keys"`
	Version int64    `json:"version"`
}

// Redis is a Store kept in a redis hash. Layout under prefix:
//
//	<prefix>:props    hash of key -> JSON value
//	<prefix>:version  commit counter
//	<prefix>:changes  pub/sub channel carrying changeNotice
type Redis struct {
	bag

	client redis.UniversalClient
	prefix string
	opts   options

	pubsub *redis.PubSub
	done   chan struct{}
	wg     sync.WaitGroup
}

// Ensure Redis implements Store.
var _ Store = (*Redis)(nil)

// OpenRedis loads the committed properties and subscribes to changes.
// The client is owned by the caller.
func OpenRedis(ctx context.Context, client redis.UniversalClient, prefix string, opts ...Option) (*Redis, error) {
	r := &Redis{
		client: client,
		prefix: prefix,
		opts:   applyOptions(opts),
		done:   make(chan struct{}),
	}
	r.init()

	// Subscribe before the initial load so no commit falls in between.
	ps := client.Subscribe(ctx, r.changesKey())
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("store: subscribe %q: %w", r.changesKey(), err)
	}
	r.pubsub = ps

	raw, err := client.HGetAll(ctx, r.propsKey()).Result()
	if err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("store: load %q: %w", r.propsKey(), err)
	}
	props, err := decodeRedisValues(raw)
	if err != nil {
		_ = ps.Close()
		return nil, err
	}
	version, err := client.Get(ctx, r.versionKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		_ = ps.Close()
		return nil, fmt.Errorf("store: load %q: %w", r.versionKey(), err)
	}
	r.merge(props, true)
	r.version = version

	r.wg.Add(1)
	go r.listen()
	return r, nil
}

func (r *Redis) propsKey() string   { return r.prefix + ":props" }
func (r *Redis) versionKey() string { return r.prefix + ":version" }
func (r *Redis) changesKey() string { return r.prefix + ":changes" }

// Get implements Store.
func (r *Redis) Get(key string) (interface{}, bool) { return r.get(key) }

// Set implements Store.
func (r *Redis) Set(key string, value interface{}) { r.set(key, value) }

// OnChange implements Store.
func (r *Redis) OnChange(fn func(ChangeSet)) func() { return r.subscribe(fn) }

// Commit writes the pending sets in one MULTI/EXEC and announces the keys.
func (r *Redis) Commit(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	values, err := r.takePending()
	if err != nil {
		r.mu.Unlock()
		return err
	}
	if len(values) == 0 {
		r.mu.Unlock()
		return nil
	}

	fields := make([]interface{}, 0, 2*len(values))
	keys := make([]string, 0, len(values))
	for k, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			r.mu.Unlock()
			return &CommitError{Key: k, Err: err}
		}
		fields = append(fields, k, string(b))
		keys = append(keys, k)
	}

	var incr *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.propsKey(), fields...)
		incr = pipe.Incr(ctx, r.versionKey())
		return nil
	})
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("store: commit to %q: %w", r.propsKey(), err)
	}
	r.merge(values, false)
	r.version = incr.Val()
	notice := changeNotice{Writer: r.opts.writerID, Keys: NewChangeSet(keys...).Keys(), Version: r.version}
	r.mu.Unlock()

	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("store: encode change notice: %w", err)
	}
	if err := r.client.Publish(ctx, r.changesKey(), payload).Err(); err != nil {
		return fmt.Errorf("store: publish %q: %w", r.changesKey(), err)
	}
	return nil
}

// Close unsubscribes; the redis client itself stays open.
func (r *Redis) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	close(r.done)
	err := r.pubsub.Close()
	r.wg.Wait()
	return err
}

func (r *Redis) listen() {
	defer r.wg.Done()
	ch := r.pubsub.Channel()
	for {
		select {
		case <-r.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var notice changeNotice
			if err := jsonutil.UnmarshalWithContext([]byte(msg.Payload), &notice, "store: decode change notice"); err != nil {
				r.opts.logger.Warn("store.Redis: bad change notice", "channel", msg.Channel, "err", err)
				continue
			}
			if notice.Writer == r.opts.writerID || len(notice.Keys) == 0 {
				continue
			}
			r.refresh(notice.Keys)
		}
	}
}

// refresh pulls the announced keys and notifies subscribers.
func (r *Redis) refresh(keys []string) {
	ctx := context.Background()
	vals, err := r.client.HMGet(ctx, r.propsKey(), keys...).Result()
	if err != nil {
		r.opts.logger.Warn("store.Redis: refresh failed", "keys", keys, "err", err)
		return
	}
	values := make(map[string]interface{}, len(keys))
	var missing []string
	for i, k := range keys {
		s, ok := vals[i].(string)
		if !ok {
			missing = append(missing, k)
			continue
		}
		var v interface{}
		if err := jsonutil.UnmarshalWithContext([]byte(s), &v, "store: decode "+k); err != nil {
			r.opts.logger.Warn("store.Redis: bad property value", "key", k, "err", err)
			continue
		}
		values[k] = v
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	changed := r.merge(values, false)
	for _, k := range missing {
		if _, ok := r.props[k]; ok {
			delete(r.props, k)
			changed[k] = struct{}{}
		}
	}
	r.mu.Unlock()

	r.notify(changed)
}

func decodeRedisValues(raw map[string]string) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(raw))
	for k, s := range raw {
		var v interface{}
		if err := jsonutil.UnmarshalWithContext([]byte(s), &v, "store: decode "+k); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}
