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

// Package summary maps CAD entities to the adapters the UI uses to show them: a one-line
// summary, and a presentable that opens the entity's detail screen.
package summary

import (
	"fmt"
	"github.com/fieldcad/cadfield/cad"
	"log/slog"
	"reflect"
	"slices"
	"sync"
)

// Summary is how an entity appears in a list or search result.
type Summary struct {
	Kind       string    `json:"kind"`
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Subtitle   string    `json:"subtitle,omitzero"`
	Badge      string    `json:"badge,omitzero"`
	BadgeColor cad.Color `json:"badge_color,omitzero"`
	Thumbnail  string    `json:"thumbnail,omitzero"`
}

// Presentable opens an entity's detail screen.
type Presentable struct {
	Kind  string `json:"kind"`
	ID    string `json:"id"`
	Title string `json:"title"`
	Route string `json:"route"`
}

type entry struct {
	kind      string
	summarize func(any) Summary
	present   func(any) Presentable
}

// Registry looks up adapters by the entity's Go type. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[reflect.Type]entry
	kinds   map[string]reflect.Type
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[reflect.Type]entry),
		kinds:   make(map[string]reflect.Type),
	}
}

// Register adds the adapters for entities of type T, replacing any earlier registration.
func Register[T any](r *Registry, kind string, summarize func(T) Summary, present func(T) Presentable) {
	typ := reflect.TypeFor[T]()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[typ] = entry{
		kind:      kind,
		summarize: func(v any) Summary { return summarize(v.(T)) },
		present:   func(v any) Presentable { return present(v.(T)) },
	}
	r.kinds[kind] = typ
}

func (r *Registry) lookup(entity any) (entry, bool) {
	if entity == nil {
		return entry{}, false
	}
	r.mu.RLock()
	e, ok := r.entries[reflect.TypeOf(entity)]
	r.mu.RUnlock()
	if !ok {
		slog.Debug("No summary registered for entity", "type", fmt.Sprintf("%T", entity))
	}
	return e, ok
}

// Summary gives the summary of entity. A type with no registration is (Summary{}, false).
func (r *Registry) Summary(entity any) (Summary, bool) {
	e, ok := r.lookup(entity)
	if !ok {
		return Summary{}, false
	}
	return e.summarize(entity), true
}

// Presentable gives the detail screen opener for entity. A type with no registration is
// (Presentable{}, false).
func (r *Registry) Presentable(entity any) (Presentable, bool) {
	e, ok := r.lookup(entity)
	if !ok {
		return Presentable{}, false
	}
	return e.present(entity), true
}

// Kind gives the registered kind name for entity.
func (r *Registry) Kind(entity any) (string, bool) {
	e, ok := r.lookup(entity)
	return e.kind, ok
}

// Kinds lists the registered kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.kinds))
	for k := range r.kinds {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
