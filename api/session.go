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

package api

import (
	"context"
	"github.com/fieldcad/cadfield/cadstate"
	"github.com/fieldcad/cadfield/tasklist"
	"log/slog"
	"sync"
)

// Session is one officer's live task list. It follows the shared store and pushes every
// change to the officer's SSE channel.
type Session struct {
	PayrollID  string
	Aggregator *tasklist.Aggregator

	stop func()
}

// Sessions holds a Session per signed-in officer. Sessions last until Close.
type Sessions struct {
	ctx      context.Context
	store    *cadstate.Store
	es       *EventSourcerer
	observer tasklist.RecomputeObserver

	mu        sync.Mutex
	byOfficer map[string]*Session
}

func NewSessions(ctx context.Context, store *cadstate.Store, es *EventSourcerer, observer tasklist.RecomputeObserver) *Sessions {
	return &Sessions{
		ctx:       ctx,
		store:     store,
		es:        es,
		observer:  observer,
		byOfficer: make(map[string]*Session),
	}
}

// For returns payrollID's session, starting it if needed.
func (s *Sessions) For(payrollID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.byOfficer[payrollID]; ok {
		return sess
	}
	var opts []tasklist.Option
	if s.observer != nil {
		opts = append(opts, tasklist.WithRecomputeObserver(s.observer))
	}
	agg := tasklist.NewAggregator(tasklist.NewRegistry(s.store.ViewFor(payrollID)), opts...)
	ctx, cancel := context.WithCancel(s.ctx)
	unsubscribeStore := s.store.Subscribe(func(cadstate.Change) { agg.Invalidate() })
	var unsubscribeAgg func()
	if s.es != nil {
		unsubscribeAgg = agg.OnChange(func(v tasklist.View) { s.es.notifyTaskList(payrollID, v) })
	}
	go agg.Run(ctx)

	sess := &Session{
		PayrollID:  payrollID,
		Aggregator: agg,
		stop: func() {
			unsubscribeStore()
			if unsubscribeAgg != nil {
				unsubscribeAgg()
			}
			cancel()
		},
	}
	s.byOfficer[payrollID] = sess
	slog.Debug("Started task list session", "payrollID", payrollID)
	return sess
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byOfficer)
}

func (s *Sessions) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.byOfficer {
		sess.stop()
		delete(s.byOfficer, id)
	}
}
