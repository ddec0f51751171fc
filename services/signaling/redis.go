package signaling

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func signalKey(roomID string) string       { return "room:" + roomID + ":signal" }
func presenceKey(roomID string) string     { return "room:" + roomID + ":members" }
func presenceSyncKey(roomID string) string { return "room:" + roomID + ":presence" }

// RedisChannel relays room envelopes over Redis pub/sub.
type RedisChannel struct {
	client *redis.Client
	logger *zap.Logger
}

var _ MessageChannel = (*RedisChannel)(nil)

func NewRedisChannel(client *redis.Client, logger *zap.Logger) *RedisChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisChannel{client: client, logger: logger}
}

func (r *RedisChannel) Publish(ctx context.Context, roomID string, raw []byte) error {
	if err := r.client.Publish(ctx, signalKey(roomID), raw).Err(); err != nil {
		return fmt.Errorf("failed to publish to room %s: %w", roomID, err)
	}
	return nil
}

func (r *RedisChannel) Subscribe(ctx context.Context, roomID string) (Subscription, error) {
	ps := r.client.Subscribe(ctx, signalKey(roomID))
	// wait for the subscription confirmation so nothing published afterwards is missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe to room %s: %w", roomID, err)
	}

	sub := &redisSub{ps: ps, out: make(chan []byte, eventBuffer), done: make(chan struct{})}
	go func() {
		defer close(sub.out)
		forwardPayloads(ps.Channel(), sub.out, sub.done)
	}()
	return sub, nil
}

// forwardPayloads copies payloads from in to out until in closes or done does.
// A reader that stopped draining out cannot block it past done.
func forwardPayloads(in <-chan *redis.Message, out chan<- []byte, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			select {
			case out <- []byte(msg.Payload):
			case <-done:
				return
			}
		}
	}
}

type redisSub struct {
	ps   *redis.PubSub
	out  chan []byte
	done chan struct{}
	once sync.Once
	err  error
}

func (s *redisSub) Messages() <-chan []byte { return s.out }

func (s *redisSub) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.err = s.ps.Close()
	})
	return s.err
}

// RedisPresence keeps room members in a sorted set scored by join time and
// announces changes on a pub/sub channel. The set expires ttl after the last join.
type RedisPresence struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

var _ PresenceTracker = (*RedisPresence)(nil)

func NewRedisPresence(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisPresence {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &RedisPresence{client: client, ttl: ttl, now: time.Now, logger: logger}
}

func (p *RedisPresence) Track(ctx context.Context, roomID, identity string) error {
	key := presenceKey(roomID)
	pipe := p.client.TxPipeline()
	pipe.ZAddNX(ctx, key, &redis.Z{Score: float64(p.now().UnixMilli()), Member: identity})
	pipe.Expire(ctx, key, p.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to track %s in room %s: %w", identity, roomID, err)
	}
	p.announce(ctx, roomID)
	return nil
}

func (p *RedisPresence) Untrack(ctx context.Context, roomID, identity string) error {
	if err := p.client.ZRem(ctx, presenceKey(roomID), identity).Err(); err != nil {
		return fmt.Errorf("failed to untrack %s in room %s: %w", identity, roomID, err)
	}
	p.announce(ctx, roomID)
	return nil
}

func (p *RedisPresence) announce(ctx context.Context, roomID string) {
	if err := p.client.Publish(ctx, presenceSyncKey(roomID), "sync").Err(); err != nil {
		p.logger.Warn("presence announce failed", zap.String("room", roomID), zap.Error(err))
	}
}

func (p *RedisPresence) State(ctx context.Context, roomID string) ([]PresenceEntry, error) {
	zs, err := p.client.ZRangeWithScores(ctx, presenceKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read presence for room %s: %w", roomID, err)
	}
	entries := make([]PresenceEntry, 0, len(zs))
	for _, z := range zs {
		id, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, PresenceEntry{Identity: id, JoinedAt: time.UnixMilli(int64(z.Score)).UTC()})
	}
	return entries, nil
}

func (p *RedisPresence) Watch(ctx context.Context, roomID string) (<-chan struct{}, func(), error) {
	ps := p.client.Subscribe(ctx, presenceSyncKey(roomID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("failed to watch presence for room %s: %w", roomID, err)
	}
	out := make(chan struct{}, 1)
	done := make(chan struct{})
	go coalesceSignals(ps.Channel(), out, done)
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			if err := ps.Close(); err != nil {
				p.logger.Debug("presence watch close", zap.Error(err))
			}
		})
	}
	return out, cancel, nil
}

// coalesceSignals turns every message on in into at most one pending tick on
// out. It returns when in closes or done does.
func coalesceSignals(in <-chan *redis.Message, out chan<- struct{}, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case _, ok := <-in:
			if !ok {
				return
			}
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}
}
