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

// Package fakecad is an in-process CAD backend for development and tests. It serves the same
// HTTP API as a real CAD, from a seeded snapshot, and records everything submitted to it.
package fakecad

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/fieldcad/cadfield/cad"
	"github.com/fieldcad/cadfield/cadclient"
	"github.com/fieldcad/cadfield/lib/herr"
	"github.com/fieldcad/cadfield/report"
	"github.com/fieldcad/cadfield/workflow"
	"github.com/launchdarkly/eventsource"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

//go:embed seed.json
var seedJSON []byte

const changesChannel = "changes"

// Seed returns the development snapshot.
func Seed() (cad.Snapshot, error) {
	var snap cad.Snapshot
	if err := json.Unmarshal(seedJSON, &snap); err != nil {
		return cad.Snapshot{}, fmt.Errorf("[json.Unmarshal]: %w", err)
	}
	return snap, nil
}

type changeEvent struct {
	id   int64
	kind string
}

func (e changeEvent) Id() string    { return strconv.FormatInt(e.id, 10) }
func (e changeEvent) Event() string { return "Changed" }
func (e changeEvent) Data() string  { return fmt.Sprintf(`{"kind":%q}`, e.kind) }

type Server struct {
	mu            sync.Mutex
	snap          cad.Snapshot
	statusChanges []workflow.StatusChange
	reports       []report.Submission
	bookOns       map[string]cad.BookOn
	failNext      *herr.HTTPError

	events    *eventsource.Server
	idCounter atomic.Int64
}

func New(snap cad.Snapshot) *Server {
	return &Server{
		snap:    snap,
		bookOns: make(map[string]cad.BookOn),
		events:  eventsource.NewServer(),
	}
}

// Start serves a seeded fake CAD on hostPort (":0" picks a free port) until ctx is done,
// and returns its base URL.
func Start(ctx context.Context, hostPort string) (baseURL string, s *Server, err error) {
	snap, err := Seed()
	if err != nil {
		return "", nil, fmt.Errorf("[Seed]: %w", err)
	}
	s = New(snap)
	listener, err := net.Listen("tcp", hostPort)
	if err != nil {
		return "", nil, fmt.Errorf("[net.Listen]: %w", err)
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		s.Close()
		_ = srv.Close()
	}()
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Fake CAD server failed", "error", err)
		}
	}()
	baseURL = "http://" + listener.Addr().String()
	slog.Info("Started fake CAD backend", "url", baseURL)
	return baseURL, s, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /cad/sync/{collection}", s.getCollection)
	mux.HandleFunc("POST /cad/resources/{callsign}/status", s.postStatus)
	mux.HandleFunc("POST /cad/incidents/{id}/reports", s.postReport)
	mux.HandleFunc("POST /cad/bookons", s.postBookOn)
	mux.HandleFunc("DELETE /cad/bookons/{payrollID}", s.deleteBookOn)
	mux.Handle("GET /cad/changes", s.events.Handler(changesChannel))
	return mux
}

// Close ends every change stream subscription.
func (s *Server) Close() {
	s.events.Close()
}

// Update changes the snapshot and tells subscribers.
func (s *Server) Update(fn func(*cad.Snapshot)) {
	s.mu.Lock()
	fn(&s.snap)
	s.mu.Unlock()
	s.publish("update")
}

// FailNext makes the next submission fail with the given status and message.
func (s *Server) FailNext(code int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = herr.New(code, message, nil).SetExpectedError()
}

func (s *Server) StatusChanges() []workflow.StatusChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.statusChanges)
}

func (s *Server) Reports() []report.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.reports)
}

func (s *Server) BookOn(payrollID string) (cad.BookOn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookOns[payrollID]
	return b, ok
}

func (s *Server) publish(kind string) {
	s.events.Publish([]string{changesChannel}, changeEvent{id: s.idCounter.Add(1), kind: kind})
}

// takeFailure returns and clears a pending FailNext. Callers hold s.mu.
func (s *Server) takeFailure() *herr.HTTPError {
	f := s.failNext
	s.failNext = nil
	return f
}

func writeJSON(w http.ResponseWriter, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		herr.InternalServerError("Failed to marshal response", err).From("[writeJSON]").WriteResponse(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}

func (s *Server) getCollection(w http.ResponseWriter, req *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch req.PathValue("collection") {
	case "incidents":
		writeJSON(w, s.snap.Incidents)
	case "patrols":
		writeJSON(w, s.snap.Patrols)
	case "broadcasts":
		writeJSON(w, s.snap.Broadcasts)
	case "resources":
		writeJSON(w, s.snap.Resources)
	case "officers":
		writeJSON(w, s.snap.Officers)
	default:
		herr.NotFound("No such collection", nil).WriteResponse(w)
	}
}

func (s *Server) postStatus(w http.ResponseWriter, req *http.Request) {
	var change workflow.StatusChange
	if err := json.NewDecoder(req.Body).Decode(&change); err != nil {
		herr.BadRequest("Failed to parse status change", err).From("[Decode]").WriteResponse(w)
		return
	}
	callsign := req.PathValue("callsign")

	s.mu.Lock()
	if f := s.takeFailure(); f != nil {
		s.mu.Unlock()
		f.WriteResponse(w)
		return
	}
	i := slices.IndexFunc(s.snap.Resources, func(r cad.Resource) bool { return r.Callsign == callsign })
	if i < 0 {
		s.mu.Unlock()
		herr.NotFound("Unknown callsign "+callsign, nil).SetExpectedError().WriteResponse(w)
		return
	}
	s.snap.Resources[i].Status = change.To
	s.snap.Resources[i].LastUpdated = time.Now()
	s.statusChanges = append(s.statusChanges, change)
	s.mu.Unlock()

	s.publish("status")
	herr.WriteNoContentResponse(w)
}

func (s *Server) postReport(w http.ResponseWriter, req *http.Request) {
	var sub report.Submission
	if err := json.NewDecoder(req.Body).Decode(&sub); err != nil {
		herr.BadRequest("Failed to parse report", err).From("[Decode]").WriteResponse(w)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if f := s.takeFailure(); f != nil {
		f.WriteResponse(w)
		return
	}
	if sub.IncidentID != req.PathValue("id") {
		herr.BadRequest("Report is for a different incident", nil).WriteResponse(w)
		return
	}
	s.reports = append(s.reports, sub)
	herr.WriteNoContentResponse(w)
}

func (s *Server) postBookOn(w http.ResponseWriter, req *http.Request) {
	var body cadclient.BookOnRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		herr.BadRequest("Failed to parse book-on", err).From("[Decode]").WriteResponse(w)
		return
	}
	s.mu.Lock()
	if f := s.takeFailure(); f != nil {
		s.mu.Unlock()
		f.WriteResponse(w)
		return
	}
	s.bookOns[body.PayrollID] = body.BookOn
	s.mu.Unlock()

	s.publish("book_on")
	herr.WriteNoContentResponse(w)
}

func (s *Server) deleteBookOn(w http.ResponseWriter, req *http.Request) {
	s.mu.Lock()
	if f := s.takeFailure(); f != nil {
		s.mu.Unlock()
		f.WriteResponse(w)
		return
	}
	delete(s.bookOns, req.PathValue("payrollID"))
	s.mu.Unlock()

	s.publish("book_off")
	herr.WriteNoContentResponse(w)
}
