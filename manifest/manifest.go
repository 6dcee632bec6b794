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

// Package manifest serves reference lists, such as secondary codes, that CAD maintains and
// the field client treats as opaque code/title pairs.
package manifest

import (
	"context"
	"fmt"
	"github.com/fieldcad/cadfield/lib/cache"
	"github.com/fieldcad/cadfield/store"
	"github.com/fieldcad/cadfield/workflow"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	CollectionSecondaryCodes      = "secondary_codes"
	CollectionTrafficStopOutcomes = "traffic_stop_outcomes"
)

// UnknownCodeError is a detail answer that isn't in its reference list.
type UnknownCodeError struct {
	What string
	Code string
}

func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("unknown %v %q", e.What, e.Code)
}

type Entry struct {
	Code  string `json:"code"`
	Title string `json:"title"`
}

// Manifest caches each collection separately. A refresh failure serves the previous list for
// up to the stale grace period.
type Manifest struct {
	dbq   *store.DBQ
	ttl   time.Duration
	grace time.Duration

	mu          sync.Mutex
	collections map[string]*cache.InMemory[[]Entry]
}

var _ workflow.Validator = (*Manifest)(nil)

func New(dbq *store.DBQ, ttl, staleGrace time.Duration) *Manifest {
	return &Manifest{
		dbq:         dbq,
		ttl:         ttl,
		grace:       staleGrace,
		collections: make(map[string]*cache.InMemory[[]Entry]),
	}
}

func (m *Manifest) collection(name string) *cache.InMemory[[]Entry] {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[name]
	if !ok {
		c = cache.New[[]Entry](m.ttl, func(ctx context.Context) ([]Entry, error) {
			return m.load(ctx, name)
		}, cache.WithStaleGrace[[]Entry](m.grace))
		m.collections[name] = c
	}
	return c
}

func (m *Manifest) load(ctx context.Context, name string) ([]Entry, error) {
	rows, err := m.dbq.ManifestEntries(ctx, m.dbq, name)
	if err != nil {
		return nil, fmt.Errorf("[ManifestEntries]: %w", err)
	}
	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, Entry{Code: r.Code, Title: r.Title})
	}
	return entries, nil
}

// Entries returns the collection in display order.
func (m *Manifest) Entries(ctx context.Context, collection string) ([]Entry, error) {
	entries, err := m.collection(collection).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("[Get]: %w", err)
	}
	return *entries, nil
}

// Lookup finds code in the collection. Codes compare case-insensitively.
func (m *Manifest) Lookup(ctx context.Context, collection, code string) (Entry, bool, error) {
	entries, err := m.Entries(ctx, collection)
	if err != nil {
		return Entry{}, false, fmt.Errorf("[Entries]: %w", err)
	}
	code = strings.TrimSpace(code)
	for _, e := range entries {
		if strings.EqualFold(e.Code, code) {
			return e, true, nil
		}
	}
	slog.Debug("Manifest lookup miss", "collection", collection, "code", code)
	return Entry{}, false, nil
}

// Invalidate drops every cached collection.
func (m *Manifest) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.collections {
		c.Invalidate()
	}
}

func (m *Manifest) ValidateFinalise(ctx context.Context, d workflow.FinaliseDetails) error {
	return m.validate(ctx, CollectionSecondaryCodes, d.SecondaryCode, "secondary code")
}

func (m *Manifest) ValidateTrafficStop(ctx context.Context, d workflow.TrafficStopDetails) error {
	if d.Outcome == "" {
		return nil
	}
	return m.validate(ctx, CollectionTrafficStopOutcomes, d.Outcome, "traffic stop outcome")
}

// validate accepts any code when the collection is empty, since CAD may not publish it.
func (m *Manifest) validate(ctx context.Context, collection, code, what string) error {
	entries, err := m.Entries(ctx, collection)
	if err != nil {
		return fmt.Errorf("couldn't check %v: %w", what, err)
	}
	if len(entries) == 0 {
		return nil
	}
	if _, found, _ := m.Lookup(ctx, collection, code); !found {
		return &UnknownCodeError{What: what, Code: code}
	}
	return nil
}
