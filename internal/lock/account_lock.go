package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the lock stays held by someone else for the
// whole wait window.
var ErrNotAcquired = errors.New("account lock not acquired")

// Manager hands out per-account locks. The underlying platform clients are
// not safe for concurrent sessions against one account, so every publish and
// login must run under the account's lock.
type Manager struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

func NewManager(client *redis.Client, ttl, wait time.Duration) *Manager {
	return &Manager{client: client, ttl: ttl, wait: wait}
}

// releaseScript deletes the key only when the stored token matches, so a
// holder whose lock already expired cannot release a later holder's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func lockKey(accountID int64) string {
	return fmt.Sprintf("account:lock:%d", accountID)
}

// Acquire polls for the lock up to the configured wait and returns a release
// function. A Redis outage fails open: posting should degrade to unserialized
// rather than stop entirely.
func (m *Manager) Acquire(ctx context.Context, accountID int64) (func(context.Context), error) {
	key := lockKey(accountID)
	token := uuid.NewString()
	deadline := time.Now().Add(m.wait)

	for {
		acquired, err := m.client.SetNX(ctx, key, token, m.ttl).Result()
		if err != nil {
			slog.Error("redis error while acquiring account lock", "account_id", accountID, "error", err)
			return func(context.Context) {}, nil
		}

		if acquired {
			slog.Info("account lock acquired", "account_id", accountID)
			return func(releaseCtx context.Context) {
				m.release(releaseCtx, accountID, key, token)
			}, nil
		}

		if time.Now().After(deadline) {
			slog.Warn("failed to acquire account lock", "account_id", accountID)
			return nil, ErrNotAcquired
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

func (m *Manager) release(ctx context.Context, accountID int64, key, token string) {
	deleted, err := releaseScript.Run(ctx, m.client, []string{key}, token).Int()
	if err != nil {
		slog.Error("redis error while releasing account lock", "account_id", accountID, "error", err)
		return
	}

	if deleted == 0 {
		slog.Warn("lock ownership mismatch, not releasing", "account_id", accountID)
		return
	}

	slog.Info("account lock released", "account_id", accountID)
}
