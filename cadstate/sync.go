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

package cadstate

import (
	"context"
	"fmt"
	"github.com/fieldcad/cadfield/cad"
	"log/slog"
	"time"
)

// Fetcher retrieves a full snapshot from the CAD backend.
type Fetcher interface {
	FetchSnapshot(ctx context.Context) (cad.Snapshot, error)
}

// Notifier delivers a signal each time the backend reports that its data has changed.
// The returned channel is closed when the subscription ends.
type Notifier interface {
	Changes(ctx context.Context) (<-chan struct{}, error)
}

// SyncObserver is told the outcome of every sync.
type SyncObserver interface {
	ObserveSync(err error)
}

// Syncer keeps a Store up to date with the backend.
//
// Change signals and poll ticks are coalesced: however many arrive while a fetch is in
// progress, at most one more fetch follows it.
type Syncer struct {
	store    *Store
	fetcher  Fetcher
	notifier Notifier
	interval time.Duration
	observer SyncObserver

	pending chan struct{}
}

// NewSyncer creates a Syncer. notifier may be nil, in which case the Syncer only polls.
// A non-positive interval disables polling.
func NewSyncer(store *Store, fetcher Fetcher, notifier Notifier, interval time.Duration) *Syncer {
	return &Syncer{
		store:    store,
		fetcher:  fetcher,
		notifier: notifier,
		interval: interval,
		pending:  make(chan struct{}, 1),
	}
}

func (s *Syncer) WithObserver(o SyncObserver) *Syncer {
	s.observer = o
	return s
}

// Trigger requests a sync. It never blocks.
func (s *Syncer) Trigger() {
	select {
	case s.pending <- struct{}{}:
	default:
	}
}

// SyncNow fetches a snapshot and applies it to the store.
func (s *Syncer) SyncNow(ctx context.Context) error {
	snap, err := s.fetcher.FetchSnapshot(ctx)
	if s.observer != nil {
		s.observer.ObserveSync(err)
	}
	if err != nil {
		return fmt.Errorf("[FetchSnapshot]: %w", err)
	}
	if snap.SyncTime.IsZero() {
		snap.SyncTime = time.Now()
	}
	s.store.Apply(snap)
	return nil
}

// Run syncs once, then keeps syncing on change signals and poll ticks until ctx is done.
// A failed sync is logged and leaves the store unchanged.
func (s *Syncer) Run(ctx context.Context) {
	s.Trigger()

	var changes <-chan struct{}
	if s.notifier != nil {
		var err error
		changes, err = s.notifier.Changes(ctx)
		if err != nil {
			slog.Error("Failed to subscribe to CAD changes, falling back to polling", "error", err)
		}
	}

	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				slog.Warn("CAD change subscription ended")
				changes = nil
				continue
			}
			s.Trigger()
		case <-tick:
			s.Trigger()
		case <-s.pending:
			if err := s.SyncNow(ctx); err != nil && ctx.Err() == nil {
				slog.Error("CAD sync failed", "error", err)
			}
		}
	}
}
