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

package api_test

import (
	"bytes"
	"encoding/json"
	"github.com/fieldcad/cadfield/api"
	"github.com/fieldcad/cadfield/cad"
	"github.com/fieldcad/cadfield/cadclient"
	"github.com/fieldcad/cadfield/cadclient/fakecad"
	"github.com/fieldcad/cadfield/cadstate"
	"github.com/fieldcad/cadfield/conf"
	"github.com/fieldcad/cadfield/directory"
	"github.com/fieldcad/cadfield/lib/attachment"
	"github.com/fieldcad/cadfield/lib/authz"
	"github.com/fieldcad/cadfield/manifest"
	"github.com/fieldcad/cadfield/metrics"
	"github.com/fieldcad/cadfield/report"
	"github.com/fieldcad/cadfield/status"
	"github.com/fieldcad/cadfield/store"
	"github.com/fieldcad/cadfield/store/actionlog"
	"github.com/fieldcad/cadfield/store/caddb"
	"github.com/fieldcad/cadfield/summary"
	"github.com/fieldcad/cadfield/workflow"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const (
	// on P24 with 100456
	alice = "100123"
	// on K9
	chloe = "100789"
	// not booked on, and a supervisor
	dev = "100999"
)

type testEnv struct {
	t       *testing.T
	cfg     *conf.CADConfig
	server  *httptest.Server
	cad     *fakecad.Server
	store   *cadstate.Store
	dbq     *store.DBQ
	metrics *metrics.Collector
	jwter   authz.JWTer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := t.Context()

	cfg := conf.DefaultCAD()
	cfg.Core.Supervisors = []string{dev}
	cfg.Directory.Directory = conf.DirectoryTypeTestOfficers
	cfg.AttachmentsStore.Type = conf.AttachmentsStoreLocal
	cfg.AttachmentsStore.Local.Dir = t.TempDir()

	snap, err := fakecad.Seed()
	require.NoError(t, err)
	fake := fakecad.New(snap)
	cadServer := httptest.NewServer(fake.Handler())
	t.Cleanup(cadServer.Close)
	t.Cleanup(fake.Close)
	client, err := cadclient.New(cadServer.URL, "test-key", 5*time.Second, 10*time.Millisecond)
	require.NoError(t, err)

	db, err := store.SqlDB(ctx, conf.DBStore{Type: conf.DBStoreTypeFake, Fake: cfg.Store.Fake}, true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	dbq := store.New(db, caddb.New())

	catalog := status.Default()
	cadStore := cadstate.New(catalog)
	policy := status.NewPolicy(catalog)
	collector := metrics.NewCollector()
	syncer := cadstate.NewSyncer(cadStore, client, nil, 0).WithObserver(collector)
	require.NoError(t, syncer.SyncNow(ctx))

	officers, err := directory.NewOfficerStore(cfg.Directory.TestOfficers, nil, time.Minute)
	require.NoError(t, err)
	auditLog := actionlog.NewLogger(dbq, true, true)
	t.Cleanup(auditLog.Close)
	wf := workflow.New(policy, client, cadStore,
		workflow.WithSubmitTimeout(5*time.Second),
		workflow.WithValidator(manifest.New(dbq, time.Minute, time.Hour)),
		workflow.WithAuditor(auditLog),
		workflow.WithAuditor(collector),
		workflow.WithObserver(collector.ObserveWorkflowState),
	)
	local, err := attachment.NewLocal(cfg.AttachmentsStore.Local.Dir)
	require.NoError(t, err)

	es := api.NewEventSourcerer()
	t.Cleanup(es.Close)
	sessions := api.NewSessions(ctx, cadStore, es, collector)
	t.Cleanup(sessions.Close)

	mux := api.AddToMux(nil, cfg, api.Services{
		Store:     cadStore,
		Syncer:    syncer,
		Policy:    policy,
		Workflow:  wf,
		Summaries: summary.Default(catalog),
		Officers:  officers,
		Reports:   report.NewFiler(dbq, local, client),
		Backend:   client,
		CadDBQ:    dbq,
		Metrics:   collector,
		Sessions:  sessions,
		Events:    es,
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	env := &testEnv{
		t:       t,
		cfg:     cfg,
		server:  server,
		cad:     fake,
		store:   cadStore,
		dbq:     dbq,
		metrics: collector,
		jwter:   authz.JWTer{SecretKey: cfg.Core.JWTSecret},
	}
	// the same book-ons CAD reports for the seeded crews
	env.bookOn(alice, "P24")
	env.bookOn(chloe, "K9")
	return env
}

func (e *testEnv) bookOn(payrollID, callsign string) {
	e.t.Helper()
	require.NoError(e.t, e.store.SetBookOn(payrollID, cadBookOn(callsign)))
}

func cadBookOn(callsign string) cad.BookOn {
	now := time.Now()
	return cad.BookOn{
		Callsign:   callsign,
		ShiftStart: now.Add(-time.Hour),
		ShiftEnd:   now.Add(8 * time.Hour),
	}
}

func (e *testEnv) token(payrollID string) string {
	e.t.Helper()
	token, err := e.jwter.CreateAccessToken("Officer "+payrollID, payrollID,
		authz.RolesFor(payrollID, e.cfg.Core.Supervisors), time.Now().Add(time.Hour))
	require.NoError(e.t, err)
	return token
}

// do sends a request as payrollID, or unauthenticated if payrollID is "".
func (e *testEnv) do(method, path, payrollID string, body any) *http.Response {
	e.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		marshalled, err := json.Marshal(b)
		require.NoError(e.t, err)
		r = bytes.NewReader(marshalled)
	}
	req, err := http.NewRequestWithContext(e.t.Context(), method, e.server.URL+path, r)
	require.NoError(e.t, err)
	if payrollID != "" {
		req.Header.Set("Authorization", "Bearer "+e.token(payrollID))
	}
	resp, err := e.server.Client().Do(req)
	require.NoError(e.t, err)
	e.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func readJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}
