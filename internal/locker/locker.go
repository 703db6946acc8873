// Package locker serializes mutations that share a key, such as every cart
// write of one user.
package locker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
)

// ErrNotAcquired is returned when a lock could not be taken before ctx ended.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker hands out exclusive locks by key. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

func UserKey(scope, user string) string {
	return scope + ":user:" + user
}

// Local is an in-process keyed mutex. Entries are removed once nobody holds
// or waits for them.
type Local struct {
	mu    sync.Mutex
	locks map[string]*localEntry
}

type localEntry struct {
	ch   chan struct{}
	refs int
}

func NewLocal() *Local {
	return &Local{locks: make(map[string]*localEntry)}
}

func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &localEntry{ch: make(chan struct{}, 1)}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, entry, false)
		return nil, errors.Join(ErrNotAcquired, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, entry, true) })
	}, nil
}

func (l *Local) release(key string, entry *localEntry, held bool) {
	if held {
		<-entry.ch
	}
	l.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}

// Acquire takes key on l, giving up after timeout with an apperr.Conflict so
// callers can surface a retryable error.
func Acquire(ctx context.Context, l Locker, key string, timeout time.Duration) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	unlock, err := l.Lock(lockCtx, key)
	if err != nil {
		if errors.Is(err, ErrNotAcquired) {
			return nil, apperr.Wrap(apperr.Conflict, err, "another request is updating this resource, retry shortly")
		}
		return nil, err
	}
	return unlock, nil
}
