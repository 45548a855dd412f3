package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrHeld is returned when another holder owns the lock.
var ErrHeld = errors.New("lock held")

// Locker serializes work per conversation.
type Locker interface {
	// Acquire takes the lock for conversationID without waiting.
	// The returned release func is safe to call more than once.
	Acquire(ctx context.Context, conversationID int64) (release func(), err error)
}

const keyPrefix = "chat:lock:conversation:"

// releaseScript deletes the key only when it still holds our token, so an
// expired lease never releases a newer holder's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLocker returns a Locker shared across server instances. The lease
// expires after ttl so a crashed holder cannot wedge a conversation.
func NewRedisLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisLocker{client: client, ttl: ttl}
}

func (l *redisLocker) Acquire(ctx context.Context, conversationID int64) (func(), error) {
	key := keyPrefix + strconv.FormatInt(conversationID, 10)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrHeld
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the request context may already be cancelled
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
				slog.WarnContext(releaseCtx, "failed to release conversation lock",
					"error", err,
					"conversation_id", conversationID)
			}
		})
	}, nil
}

type localLocker struct {
	mu   sync.Mutex
	held map[int64]struct{}
}

// NewLocalLocker returns an in-process Locker for single-instance deployments.
func NewLocalLocker() Locker {
	return &localLocker{held: make(map[int64]struct{})}
}

func (l *localLocker) Acquire(_ context.Context, conversationID int64) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[conversationID]; ok {
		return nil, ErrHeld
	}
	l.held[conversationID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, conversationID)
			l.mu.Unlock()
		})
	}, nil
}
