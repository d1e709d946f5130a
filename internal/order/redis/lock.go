package redis

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

type Redis struct {
	Client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{Client: client}
}

// getDecisionLockTTL returns the decision lock TTL from the environment or
// the default value.
func (r *Redis) getDecisionLockTTL() time.Duration {
	defaultTTL := 30 * time.Second

	ttlStr := os.Getenv("DECISION_LOCK_TTL_SECONDS")
	if ttlStr == "" {
		return defaultTTL
	}
	ttlSec, err := strconv.Atoi(ttlStr)
	if err != nil {
		return defaultTTL
	}
	return time.Duration(ttlSec) * time.Second
}

// LockDecision takes a short-lived exclusive lock on an order so two admins
// clicking approve at the same moment do not race each other into the
// decision transaction. The TTL bounds how long a crashed holder can block
// the order.
func (r *Redis) LockDecision(orderNumber, token string) (bool, error) {
	key := "decision_lock:" + orderNumber
	return r.Client.SetNX(context.Background(), key, token, r.getDecisionLockTTL()).Result()
}

// UnlockDecision releases the lock, but only if this holder still owns it.
func (r *Redis) UnlockDecision(orderNumber, token string) error {
	ctx := context.Background()
	key := "decision_lock:" + orderNumber

	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already expired
	}
	if err != nil {
		return err
	}
	if val == token {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}
