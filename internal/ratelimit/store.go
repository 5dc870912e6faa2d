// Package ratelimit implements fixed-window admission counters.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmptyKey      = errors.New("rate limiter key is empty")
	ErrInvalidWindow = errors.New("rate limiter window must be positive")
	ErrStoreClosed   = errors.New("rate limiter store is closed")
)

// Window is the state of a counter right after an increment.
type Window struct {
	Count   int64
	ResetAt time.Time
}

// Store counts hits per key inside a fixed window. Increment is atomic per key
// and keeps counting past any ceiling; enforcement belongs to the caller.
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration) (Window, error)
	Close() error
}

func validate(key string, window time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	if window <= 0 {
		return ErrInvalidWindow
	}
	return nil
}
