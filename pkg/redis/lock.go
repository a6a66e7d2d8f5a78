package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// releaseScript deletes the lock only while it still carries our token, so
// a holder whose TTL lapsed cannot release someone else's lock.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// TryLock takes the named lock for ttl. ok is false when another holder has it.
func (c *Client) TryLock(ctx context.Context, name string, ttl time.Duration) (token string, ok bool, err error) {
	if ttl <= 0 {
		return "", false, errors.New("lock ttl must be positive")
	}
	token = uuid.NewString()
	ok, err = c.SetNX(ctx, c.LockKey(name), token, ttl)
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// Unlock releases a lock taken with TryLock. Releasing a lock that expired
// or changed hands is a no-op.
func (c *Client) Unlock(ctx context.Context, name, token string) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	if token == "" {
		return nil
	}
	return c.store.Eval(ctx, releaseScript, []string{c.LockKey(name)}, token).Err()
}
