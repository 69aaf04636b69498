package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/logbook/logbook-service/internal/core/domain"
)

const (
	defaultLockTTL   = 30 * time.Second
	defaultLockWait  = 5 * time.Second
	lockRetryBackoff = 25 * time.Millisecond
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another holder is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// EntryLocker implements ports.RecordLocker with SET NX PX.
// Key format: lock:entry:<id>
type EntryLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	wait   time.Duration
	log    zerolog.Logger
}

// NewEntryLocker creates an EntryLocker. ttl bounds how long a crashed holder
// can block others; wait bounds how long Lock retries when ctx has no deadline.
func NewEntryLocker(client redis.UniversalClient, ttl, wait time.Duration, log zerolog.Logger) *EntryLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if wait <= 0 {
		wait = defaultLockWait
	}
	return &EntryLocker{client: client, ttl: ttl, wait: wait, log: log}
}

// Lock blocks until the entry lock is held. It gives up with
// domain.ErrLockTimeout when the wait limit or ctx runs out.
func (l *EntryLocker) Lock(ctx context.Context, id int64) (func(), error) {
	key := l.key(id)
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	ticker := time.NewTicker(lockRetryBackoff)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		switch {
		case err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled):
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		case ok:
			return func() { l.release(key, token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: entry %d", domain.ErrLockTimeout, id)
		case <-ticker.C:
		}
	}
}

func (l *EntryLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		l.log.Warn().Err(err).Str("key", key).Msg("failed to release entry lock")
	}
}

func (l *EntryLocker) key(id int64) string {
	return fmt.Sprintf("lock:entry:%d", id)
}
