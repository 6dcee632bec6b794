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

// Package cadstate holds the client's in-memory copy of CAD data.
//
// The Store is the single source of truth for incidents, patrols, broadcasts, resources,
// and officers. It is replaced wholesale by each sync, and mutated locally only for
// resource status changes and book-on/book-off. Every mutation is announced to listeners
// registered with Subscribe.
package cadstate

import (
	"errors"
	"fmt"
	"github.com/fieldcad/cadfield/cad"
	"github.com/fieldcad/cadfield/status"
	"log/slog"
	"slices"
	"sync"
)

var (
	ErrUnknownResource      = errors.New("unknown resource")
	ErrNotBookedOn          = errors.New("officer is not booked on")
	ErrCannotTerminateShift = errors.New("the resource's current status does not allow ending the shift")
)

// Reader is the read contract of the State Store, as seen by one officer.
//
// Every method returns a copy of the data at call time. Callers that need fresh data
// after a change notification must call again.
type Reader interface {
	Catalog() *status.Catalog
	Incidents() []cad.Incident
	Patrols() []cad.Patrol
	Broadcasts() []cad.Broadcast
	Resources() []cad.Resource
	Officers() []cad.Officer

	Incident(id string) (cad.Incident, bool)
	Resource(callsign string) (cad.Resource, bool)
	Officer(payrollID string) (cad.Officer, bool)
	ResourcesForIncident(id string) []cad.Resource
	IncidentForResource(callsign string) (cad.Incident, bool)
	OfficersForResource(callsign string) []cad.Officer

	// BookOn is the viewing officer's current shift, if any.
	BookOn() (cad.BookOn, bool)
}

type ChangeKind string

const (
	ChangeSync   ChangeKind = "sync"
	ChangeBookOn ChangeKind = "book_on"
	ChangeStatus ChangeKind = "status"
)

// Change describes one store mutation.
type Change struct {
	Kind ChangeKind
	// Callsign is set for status and book-on changes.
	Callsign string
	// PayrollID is set for book-on changes.
	PayrollID string
}

type Listener func(Change)

// ShiftPolicy decides whether a shift may end while its resource is in a given status.
type ShiftPolicy interface {
	CanTerminateShift(from status.Code) bool
}

type Store struct {
	catalog *status.Catalog

	mu         sync.RWMutex
	snapshot   cad.Snapshot
	incidents  map[string]int
	resources  map[string]int
	officers   map[string]int
	bookOns    map[string]cad.BookOn
	syncedOnce bool

	listenersMu sync.Mutex
	listeners   []subscription
	nextID      int
}

type subscription struct {
	id int
	fn Listener
}

func New(catalog *status.Catalog) *Store {
	s := &Store{
		catalog: catalog,
		bookOns: make(map[string]cad.BookOn),
	}
	s.reindex()
	return s
}

func (s *Store) Catalog() *status.Catalog {
	return s.catalog
}

// Subscribe registers fn to be called after every change. Listeners run on the goroutine
// that made the change, outside the store's lock, in registration order.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})
	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		s.listeners = slices.DeleteFunc(s.listeners, func(sub subscription) bool {
			return sub.id == id
		})
	}
}

func (s *Store) notify(c Change) {
	s.listenersMu.Lock()
	listeners := slices.Clone(s.listeners)
	s.listenersMu.Unlock()
	for _, l := range listeners {
		l.fn(c)
	}
}

// Apply replaces the store's data with snap.
func (s *Store) Apply(snap cad.Snapshot) {
	s.mu.Lock()
	s.snapshot = cad.Snapshot{
		Incidents:  slices.Clone(snap.Incidents),
		Patrols:    slices.Clone(snap.Patrols),
		Broadcasts: slices.Clone(snap.Broadcasts),
		Resources:  make([]cad.Resource, 0, len(snap.Resources)),
		Officers:   slices.Clone(snap.Officers),
		SyncTime:   snap.SyncTime,
	}
	for _, r := range snap.Resources {
		s.snapshot.Resources = append(s.snapshot.Resources, r.Clone())
	}
	s.reindex()
	s.syncedOnce = true
	s.mu.Unlock()
	slog.Debug("Applied CAD snapshot",
		"incidents", len(snap.Incidents),
		"patrols", len(snap.Patrols),
		"broadcasts", len(snap.Broadcasts),
		"resources", len(snap.Resources),
	)
	s.notify(Change{Kind: ChangeSync})
}

// Synced reports whether at least one snapshot has been applied.
func (s *Store) Synced() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncedOnce
}

// must be called with the write lock held
func (s *Store) reindex() {
	s.incidents = make(map[string]int, len(s.snapshot.Incidents))
	for i, inc := range s.snapshot.Incidents {
		s.incidents[inc.Identifier] = i
	}
	s.resources = make(map[string]int, len(s.snapshot.Resources))
	for i, r := range s.snapshot.Resources {
		s.resources[r.Callsign] = i
	}
	s.officers = make(map[string]int, len(s.snapshot.Officers))
	for i, o := range s.snapshot.Officers {
		s.officers[o.PayrollID] = i
	}
}

// UpdateResourceStatus records a committed status change locally.
func (s *Store) UpdateResourceStatus(callsign string, code status.Code) error {
	s.mu.Lock()
	i, ok := s.resources[callsign]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrUnknownResource, callsign)
	}
	s.snapshot.Resources[i].Status = code
	s.mu.Unlock()
	s.notify(Change{Kind: ChangeStatus, Callsign: callsign})
	return nil
}

// SetBookOn starts (or replaces) payrollID's shift. When the callsign is a known resource,
// its crew, patrol group, shift, and equipment are updated to match.
func (s *Store) SetBookOn(payrollID string, b cad.BookOn) error {
	if payrollID == "" || b.Callsign == "" {
		return errors.New("book on requires a payroll ID and a callsign")
	}
	b = b.Clone()
	if !slices.Contains(b.PayrollIDs, payrollID) {
		b.PayrollIDs = append([]string{payrollID}, b.PayrollIDs...)
	}
	s.mu.Lock()
	s.bookOns[payrollID] = b
	if i, ok := s.resources[b.Callsign]; ok {
		r := &s.snapshot.Resources[i]
		r.PayrollIDs = slices.Clone(b.PayrollIDs)
		if b.PatrolGroup != "" {
			r.PatrolGroup = b.PatrolGroup
		}
		start, end := b.ShiftStart, b.ShiftEnd
		r.ShiftStart, r.ShiftEnd = &start, &end
		r.Equipment = slices.Clone(b.Equipment)
	}
	s.mu.Unlock()
	s.notify(Change{Kind: ChangeBookOn, Callsign: b.Callsign, PayrollID: payrollID})
	return nil
}

// ClearBookOn ends payrollID's shift, provided the resource's status allows it.
func (s *Store) ClearBookOn(payrollID string, policy ShiftPolicy) error {
	s.mu.Lock()
	b, ok := s.bookOns[payrollID]
	if !ok {
		s.mu.Unlock()
		return ErrNotBookedOn
	}
	if i, known := s.resources[b.Callsign]; known {
		current := s.snapshot.Resources[i].Status
		if !policy.CanTerminateShift(current) {
			s.mu.Unlock()
			return fmt.Errorf("%w (%v)", ErrCannotTerminateShift, s.catalog.Title(current))
		}
	}
	delete(s.bookOns, payrollID)
	s.mu.Unlock()
	s.notify(Change{Kind: ChangeBookOn, Callsign: b.Callsign, PayrollID: payrollID})
	return nil
}

func (s *Store) BookOnFor(payrollID string) (cad.BookOn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookOns[payrollID]
	if !ok {
		return cad.BookOn{}, false
	}
	return b.Clone(), true
}

// ViewFor returns a Reader for one officer. An empty payrollID views the store with no book-on.
func (s *Store) ViewFor(payrollID string) *View {
	return &View{store: s, payrollID: payrollID}
}

func (s *Store) Incidents() []cad.Incident {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.snapshot.Incidents)
}

func (s *Store) Patrols() []cad.Patrol {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.snapshot.Patrols)
}

func (s *Store) Broadcasts() []cad.Broadcast {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.snapshot.Broadcasts)
}

func (s *Store) Resources() []cad.Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]cad.Resource, 0, len(s.snapshot.Resources))
	for _, r := range s.snapshot.Resources {
		result = append(result, r.Clone())
	}
	return result
}

func (s *Store) Officers() []cad.Officer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.snapshot.Officers)
}

func (s *Store) Incident(id string) (cad.Incident, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.incidents[id]
	if !ok {
		return cad.Incident{}, false
	}
	return s.snapshot.Incidents[i], true
}

func (s *Store) Resource(callsign string) (cad.Resource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.resources[callsign]
	if !ok {
		return cad.Resource{}, false
	}
	return s.snapshot.Resources[i].Clone(), true
}

func (s *Store) Officer(payrollID string) (cad.Officer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.officers[payrollID]
	if !ok {
		return cad.Officer{}, false
	}
	return s.snapshot.Officers[i], true
}

// ResourcesForIncident returns the resources whose current or assigned incident is id.
func (s *Store) ResourcesForIncident(id string) []cad.Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []cad.Resource
	for _, r := range s.snapshot.Resources {
		if r.References(id) {
			result = append(result, r.Clone())
		}
	}
	return result
}

func (s *Store) IncidentForResource(callsign string) (cad.Incident, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ri, ok := s.resources[callsign]
	if !ok {
		return cad.Incident{}, false
	}
	ii, ok := s.incidents[s.snapshot.Resources[ri].CurrentIncident]
	if !ok {
		return cad.Incident{}, false
	}
	return s.snapshot.Incidents[ii], true
}

// OfficersForResource returns the resource's crew in payroll ID order of the resource.
// Payroll IDs with no officer record are skipped.
func (s *Store) OfficersForResource(callsign string) []cad.Officer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ri, ok := s.resources[callsign]
	if !ok {
		return nil
	}
	var result []cad.Officer
	for _, id := range s.snapshot.Resources[ri].PayrollIDs {
		if oi, found := s.officers[id]; found {
			result = append(result, s.snapshot.Officers[oi])
		}
	}
	return result
}

// View is the store as seen by one officer.
type View struct {
	store     *Store
	payrollID string
}

var _ Reader = (*View)(nil)

func (v *View) PayrollID() string                         { return v.payrollID }
func (v *View) Catalog() *status.Catalog                  { return v.store.Catalog() }
func (v *View) Incidents() []cad.Incident                 { return v.store.Incidents() }
func (v *View) Patrols() []cad.Patrol                     { return v.store.Patrols() }
func (v *View) Broadcasts() []cad.Broadcast               { return v.store.Broadcasts() }
func (v *View) Resources() []cad.Resource                 { return v.store.Resources() }
func (v *View) Officers() []cad.Officer                   { return v.store.Officers() }
func (v *View) Incident(id string) (cad.Incident, bool)   { return v.store.Incident(id) }
func (v *View) Resource(cs string) (cad.Resource, bool)   { return v.store.Resource(cs) }
func (v *View) Officer(id string) (cad.Officer, bool)     { return v.store.Officer(id) }
func (v *View) ResourcesForIncident(id string) []cad.Resource {
	return v.store.ResourcesForIncident(id)
}

func (v *View) IncidentForResource(callsign string) (cad.Incident, bool) {
	return v.store.IncidentForResource(callsign)
}

func (v *View) OfficersForResource(callsign string) []cad.Officer {
	return v.store.OfficersForResource(callsign)
}

func (v *View) BookOn() (cad.BookOn, bool) {
	if v.payrollID == "" {
		return cad.BookOn{}, false
	}
	return v.store.BookOnFor(v.payrollID)
}
