// Package idempotency coordinates run-once operations across replicas using
// redis as the shared lock and state store.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrAlreadyInProgress = errors.New("operation already in progress")
	ErrAlreadyCompleted  = errors.New("operation already completed")
	ErrAlreadyFailed     = errors.New("operation already failed")
	ErrInvalidState      = errors.New("invalid state")
)

// State is the lifecycle stage recorded under an idempotency key.
type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateError      State = "error"
)

func (s State) String() string { return string(s) }

// Idempotency guards an operation so that concurrent callers holding the
// same key get a definitive already-running answer instead of a second run.
type Idempotency interface {
	Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error)
	MarkCompleted(ctx context.Context, key string, ttl time.Duration) error
	MarkFailed(ctx context.Context, key string, ttl time.Duration) error
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

const (
	keyPrefix           = "idempotency:"
	defaultLockDuration = time.Minute
	defaultStateTTL     = time.Minute
)

// Option adjusts Exec behavior.
type Option func(*execOptions)

type execOptions struct {
	lockDuration time.Duration
	stateTTL     time.Duration
}

// WithLockDuration bounds how long the in_progress lock survives if the
// holder dies without marking an outcome.
func WithLockDuration(d time.Duration) Option {
	return func(o *execOptions) { o.lockDuration = d }
}

// WithStateTTL controls how long the completed or failed outcome is kept.
func WithStateTTL(d time.Duration) Option {
	return func(o *execOptions) { o.stateTTL = d }
}

// StateTracker implements Idempotency on redis.
type StateTracker struct {
	client *redis.Client
}

func New(client *redis.Client) *StateTracker {
	return &StateTracker{client: client}
}

// Acquire attempts to claim key. StateNone means the caller won the claim
// and may run; any other state reports what a previous claimant did.
func (s *StateTracker) Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error) {
	claimed, err := s.claim(ctx, key, lockDuration)
	if err != nil {
		return StateError, err
	}
	if claimed {
		return StateNone, nil
	}

	current, err := s.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		// the holder expired between SetNX and Get, race once more
		claimed, err = s.claim(ctx, key, lockDuration)
		if err != nil {
			return StateError, err
		}
		if claimed {
			return StateNone, nil
		}
		return StateError, ErrInvalidState
	}
	if err != nil {
		return StateError, err
	}

	switch State(current) {
	case StateInProgress, StateCompleted, StateFailed:
		return State(current), nil
	default:
		return StateError, ErrInvalidState
	}
}

func (s *StateTracker) claim(ctx context.Context, key string, lockDuration time.Duration) (bool, error) {
	return s.client.SetNX(ctx, keyPrefix+key, StateInProgress.String(), lockDuration).Result()
}

func (s *StateTracker) MarkCompleted(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, keyPrefix+key, StateCompleted.String(), ttl).Err()
}

func (s *StateTracker) MarkFailed(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, keyPrefix+key, StateFailed.String(), ttl).Err()
}

// Exec runs fn under the key's lock and records the outcome. A concurrent
// or earlier run surfaces as one of the ErrAlready* sentinels.
func (s *StateTracker) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	cfg := &execOptions{lockDuration: defaultLockDuration, stateTTL: defaultStateTTL}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.lockDuration <= 0 {
		cfg.lockDuration = defaultLockDuration
	}
	if cfg.stateTTL <= 0 {
		cfg.stateTTL = defaultStateTTL
	}

	state, err := s.Acquire(ctx, key, cfg.lockDuration)
	if err != nil {
		return err
	}

	switch state {
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	case StateFailed:
		return ErrAlreadyFailed
	}

	if err := fn(ctx); err != nil {
		if markErr := s.MarkFailed(ctx, key, cfg.stateTTL); markErr != nil {
			return markErr
		}
		return err
	}

	return s.MarkCompleted(ctx, key, cfg.stateTTL)
}
