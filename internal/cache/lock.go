package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	runLockKeyPrefix  = "inventory:run"
	defaultRunLockTTL = 30 * time.Minute
)

// ErrRunInProgress is returned when another process holds the lock for the
// same snapshot date.
var ErrRunInProgress = errors.New("a run for this date is already in progress")

// ReleaseFunc frees an obtained lock.
type ReleaseFunc func(ctx context.Context) error

// RunLock serializes pipeline runs per calendar date across processes.
type RunLock interface {
	Acquire(ctx context.Context, date time.Time) (ReleaseFunc, error)
}

type redisRunLock struct {
	locker *redislock.Client
	ttl    time.Duration
}

type noopRunLock struct{}

// NewRunLock builds a Redis-backed lock. A nil client yields a lock that
// always succeeds.
func NewRunLock(client *redis.Client, ttl time.Duration) RunLock {
	if client == nil {
		return &noopRunLock{}
	}
	if ttl <= 0 {
		ttl = defaultRunLockTTL
	}
	return &redisRunLock{locker: redislock.New(client), ttl: ttl}
}

func runLockKey(date time.Time) string {
	return fmt.Sprintf("%s:%s", runLockKeyPrefix, date.Format("2006-01-02"))
}

func (l *redisRunLock) Acquire(ctx context.Context, date time.Time) (ReleaseFunc, error) {
	key := runLockKey(date)
	lock, err := l.locker.Obtain(ctx, key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%s: %w", key, ErrRunInProgress)
	}
	if err != nil {
		return nil, fmt.Errorf("error obtaining run lock: %w", err)
	}

	log.Debug().Str("key", key).Dur("ttl", l.ttl).Msg("run lock obtained")
	return func(ctx context.Context) error {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return fmt.Errorf("error releasing run lock: %w", err)
		}
		return nil
	}, nil
}

func (n *noopRunLock) Acquire(ctx context.Context, date time.Time) (ReleaseFunc, error) {
	return func(context.Context) error { return nil }, nil
}
