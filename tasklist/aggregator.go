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

package tasklist

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"
)

var ErrUnknownCategory = errors.New("unknown task list category")

// RecomputeObserver is told how long each recompute took.
type RecomputeObserver interface {
	ObserveRecompute(category string, took time.Duration)
}

// View is the aggregator's complete output.
type View struct {
	Selected  int          `json:"selected"`
	Category  Category     `json:"category"`
	Search    string       `json:"search"`
	Filter    Filter       `json:"filter"`
	Badges    []SourceItem `json:"badges"`
	Sections  []Section    `json:"sections"`
	CanCreate bool         `json:"can_create"`
}

// Aggregator owns one officer's task list: the selected category, the search text, the
// filter, and the badges and sections computed from them.
//
// Recomputing is synchronous. Invalidate requests a recompute from the goroutine running
// Run; requests that arrive while one is pending are folded into it. Recomputes run one at
// a time, so listeners see views in the order they were computed.
type Aggregator struct {
	registry *Registry
	observer RecomputeObserver

	// held from computing a view until its listeners have been told
	refreshMu sync.Mutex

	mu       sync.Mutex
	selected int
	search   string
	filter   Filter
	badges   []SourceItem
	sections []Section

	listenersMu sync.Mutex
	listeners   []listener
	nextID      int

	pending chan struct{}
}

type listener struct {
	id int
	fn func(View)
}

type Option func(*Aggregator)

func WithRecomputeObserver(o RecomputeObserver) Option {
	return func(a *Aggregator) {
		a.observer = o
	}
}

func WithFilter(f Filter) Option {
	return func(a *Aggregator) {
		a.filter = f.Clone()
	}
}

// NewAggregator creates an aggregator with the first category selected and computes its
// initial output.
func NewAggregator(registry *Registry, opts ...Option) *Aggregator {
	a := &Aggregator{
		registry: registry,
		filter:   DefaultFilter(),
		pending:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.Refresh()
	return a
}

// Select changes the selected category by index.
func (a *Aggregator) Select(index int) error {
	if index < 0 || index >= a.registry.Len() {
		return fmt.Errorf("%w: index %d", ErrUnknownCategory, index)
	}
	a.mu.Lock()
	changed := a.selected != index
	a.selected = index
	a.mu.Unlock()
	if changed {
		a.Refresh()
	}
	return nil
}

// SelectKind changes the selected category by kind.
func (a *Aggregator) SelectKind(kind Kind) error {
	i := a.registry.Index(kind)
	if i < 0 {
		return fmt.Errorf("%w: %v", ErrUnknownCategory, kind)
	}
	return a.Select(i)
}

func (a *Aggregator) SetSearch(text string) {
	a.mu.Lock()
	changed := a.search != text
	a.search = text
	a.mu.Unlock()
	if changed {
		a.Refresh()
	}
}

func (a *Aggregator) SetFilter(f Filter) {
	a.mu.Lock()
	a.filter = f.Clone()
	a.mu.Unlock()
	a.Refresh()
}

func (a *Aggregator) Filter() Filter {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.filter.Clone()
}

// Refresh recomputes the badges of every category and the sections of the selected one.
// Listeners are notified if the output changed. Listeners must not call back into the
// Aggregator's setters.
func (a *Aggregator) Refresh() {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	a.mu.Lock()
	start := time.Now()
	badges := make([]SourceItem, 0, a.registry.Len())
	for _, s := range a.registry.Sources() {
		badges = append(badges, s.SourceItem(a.filter))
	}
	selected := a.registry.At(a.selected)
	sections := selected.Sections(a.filter, a.search)
	changed := !reflect.DeepEqual(badges, a.badges) || !reflect.DeepEqual(sections, a.sections)
	a.badges = badges
	a.sections = sections
	view := a.viewLocked()
	a.mu.Unlock()

	if a.observer != nil {
		a.observer.ObserveRecompute(string(selected.Category().Kind), time.Since(start))
	}
	if changed {
		a.notify(view)
	}
}

// Invalidate requests a recompute by Run. It never blocks.
func (a *Aggregator) Invalidate() {
	select {
	case a.pending <- struct{}{}:
	default:
	}
}

// Run performs the recomputes requested by Invalidate until ctx is done.
func (a *Aggregator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.pending:
			a.Refresh()
		}
	}
}

// OnChange registers fn to be called with the new output after each recompute that changed it.
func (a *Aggregator) OnChange(fn func(View)) (unsubscribe func()) {
	a.listenersMu.Lock()
	defer a.listenersMu.Unlock()
	a.nextID++
	id := a.nextID
	a.listeners = append(a.listeners, listener{id: id, fn: fn})
	return func() {
		a.listenersMu.Lock()
		defer a.listenersMu.Unlock()
		a.listeners = slices.DeleteFunc(a.listeners, func(l listener) bool {
			return l.id == id
		})
	}
}

func (a *Aggregator) notify(v View) {
	a.listenersMu.Lock()
	listeners := slices.Clone(a.listeners)
	a.listenersMu.Unlock()
	for _, l := range listeners {
		l.fn(v)
	}
}

func (a *Aggregator) View() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.viewLocked()
}

func (a *Aggregator) viewLocked() View {
	category := a.registry.At(a.selected).Category()
	return View{
		Selected:  a.selected,
		Category:  category,
		Search:    a.search,
		Filter:    a.filter.Clone(),
		Badges:    slices.Clone(a.badges),
		Sections:  slices.Clone(a.sections),
		CanCreate: category.CanCreate,
	}
}

func (a *Aggregator) Sections() []Section {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.sections)
}

func (a *Aggregator) Badges() []SourceItem {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.badges)
}

// CanCreate reports whether the selected category offers a "create" action.
func (a *Aggregator) CanCreate() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.registry.At(a.selected).Category().CanCreate
}
