//
// See the file COPYRIGHT for copyright information.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// InMemory holds one value, refreshing it when it's older than the TTL.
//
// Readers never block one another while the value is fresh. At most one refresh runs at a
// time. With a stale grace period, a failed refresh falls back to the previous value as long
// as that value is no older than TTL+grace.
type InMemory[T any] struct {
	current   atomic.Pointer[entry[T]]
	ttl       time.Duration
	grace     time.Duration
	refresher func(context.Context) (T, error)
	refreshMu sync.Mutex
	now       func() time.Time
}

type entry[T any] struct {
	data    T
	fetched time.Time
	ok      bool
}

type Option[T any] func(*InMemory[T])

// WithStaleGrace lets Get serve a stale value for up to grace past its TTL when a refresh fails.
func WithStaleGrace[T any](grace time.Duration) Option[T] {
	return func(im *InMemory[T]) {
		im.grace = grace
	}
}

func withClock[T any](now func() time.Time) Option[T] {
	return func(im *InMemory[T]) {
		im.now = now
	}
}

// New creates an InMemory cache. The refresher is called to fetch a new value whenever
// the cached one is missing or older than ttl.
func New[T any](
	ttl time.Duration,
	refresher func(context.Context) (T, error),
	opts ...Option[T],
) *InMemory[T] {
	im := &InMemory[T]{
		ttl:       ttl,
		refresher: refresher,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(im)
	}
	im.current.Store(&entry[T]{})
	return im
}

func (im *InMemory[T]) fresh(e *entry[T]) bool {
	return e.ok && im.now().Before(e.fetched.Add(im.ttl))
}

// Get returns the cached value, refreshing it first if needed.
func (im *InMemory[T]) Get(ctx context.Context) (*T, error) {
	if e := im.current.Load(); im.fresh(e) {
		return &e.data, nil
	}
	im.refreshMu.Lock()
	defer im.refreshMu.Unlock()
	// someone else may have refreshed while we waited
	e := im.current.Load()
	if im.fresh(e) {
		return &e.data, nil
	}
	data, err := im.refresher(ctx)
	if err != nil {
		if e.ok && im.grace > 0 && im.now().Before(e.fetched.Add(im.ttl+im.grace)) {
			slog.Warn("Cache refresh failed, serving stale value", "age", im.now().Sub(e.fetched), "error", err)
			return &e.data, nil
		}
		return nil, fmt.Errorf("[refresher]: %w", err)
	}
	fetched := &entry[T]{data: data, fetched: im.now(), ok: true}
	im.current.Store(fetched)
	return &fetched.data, nil
}

// Invalidate drops the cached value, so that the next Get refreshes.
func (im *InMemory[T]) Invalidate() {
	im.refreshMu.Lock()
	defer im.refreshMu.Unlock()
	im.current.Store(&entry[T]{})
}
