package redis

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis serializes registration attempts: one lock per (event, user) pair,
// held for the lifetime of an order attempt and released on completion. The
// TTL bounds how long an abandoned checkout can block a retry; lock expiry
// events are consumed in main to fail the stale pending registration.
type Redis struct {
	Client *redis.Client
	Logger *log.Logger
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		Client: client,
		Logger: log.Default(),
	}
}

func lockKey(eventID, userID string) string {
	return fmt.Sprintf("reg_lock:%s:%s", eventID, userID)
}

// getLockDuration reads the lock TTL from the environment, defaulting to 10
// minutes — long enough to complete a checkout, short enough that an
// abandoned one frees the pair.
func (r *Redis) getLockDuration() time.Duration {
	defaultDuration := 10 * time.Minute

	ttlStr := os.Getenv("REGISTRATION_LOCK_TTL_MINUTES")
	if ttlStr == "" {
		return defaultDuration
	}
	ttlMin, err := strconv.Atoi(ttlStr)
	if err != nil {
		r.Logger.Println("REDIS: Invalid REGISTRATION_LOCK_TTL_MINUTES value '" + ttlStr + "', using default 10 minutes")
		return defaultDuration
	}
	return time.Duration(ttlMin) * time.Minute
}

// LockRegistration takes the (event, user) lock for one order attempt.
// Returns false when another attempt already holds it.
func (r *Redis) LockRegistration(eventID, userID, orderID string) (bool, error) {
	key := lockKey(eventID, userID)
	return r.Client.SetNX(context.Background(), key, orderID, r.getLockDuration()).Result()
}

// UnlockRegistration releases the lock, but only if this order owns it.
func (r *Redis) UnlockRegistration(eventID, userID, orderID string) error {
	ctx := context.Background()
	key := lockKey(eventID, userID)

	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already released or expired
	}
	if err != nil {
		return err
	}
	if val == orderID {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}

// CheckRegistrationLock reports whether a lock is currently held for the
// pair, without taking it.
func (r *Redis) CheckRegistrationLock(eventID, userID string) (bool, error) {
	_, err := r.Client.Get(context.Background(), lockKey(eventID, userID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
