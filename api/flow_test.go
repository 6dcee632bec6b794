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
	"bufio"
	"bytes"
	"context"
	"github.com/fieldcad/cadfield/cad"
	cadjson "github.com/fieldcad/cadfield/json"
	"github.com/fieldcad/cadfield/report"
	"github.com/fieldcad/cadfield/status"
	"github.com/fieldcad/cadfield/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestStatusChange(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp := env.do(http.MethodPost, "/cad/api/resources/K9/status", chloe,
		cadjson.StatusChangeRequest{To: status.MealBreak})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sc := readJSON[cadjson.StatusChangeResponse](t, resp)
	assert.Equal(t, workflow.Success, sc.State)
	assert.NotEmpty(t, sc.SubmissionID)
	assert.Equal(t, status.OnAir, sc.From)
	assert.Equal(t, []workflow.State{
		workflow.Idle, workflow.PolicyCheck, workflow.Committing, workflow.Success,
	}, sc.Trail)

	changes := env.cad.StatusChanges()
	require.Len(t, changes, 1)
	assert.Equal(t, chloe, changes[0].RequestedBy)
	k9, ok := env.store.Resource("K9")
	require.True(t, ok)
	assert.Equal(t, status.MealBreak, k9.Status)

	resp = env.do(http.MethodGet, "/cad/api/resources/K9/history", chloe, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := readJSON[cadjson.StatusChangeLogs](t, resp)
	require.Len(t, history, 1)
	assert.Equal(t, "meal_break", history[0].To)
	assert.Equal(t, "success", history[0].Outcome)
	assert.Equal(t, sc.SubmissionID, history[0].SubmissionID)
}

func TestBackToBackStatusChanges(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp := env.do(http.MethodPost, "/cad/api/resources/K9/status", chloe,
		cadjson.StatusChangeRequest{To: status.AtIncident})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = readJSON[cadjson.StatusChangeResponse](t, resp)

	// the second change starts from at_incident, so it needs a reason
	resp = env.do(http.MethodPost, "/cad/api/resources/K9/status", chloe,
		cadjson.StatusChangeRequest{To: status.MealBreak})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Len(t, env.cad.StatusChanges(), 1)

	resp = env.do(http.MethodPost, "/cad/api/resources/K9/status", chloe,
		cadjson.StatusChangeRequest{To: status.MealBreak, Reason: "cleared"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sc := readJSON[cadjson.StatusChangeResponse](t, resp)
	assert.Equal(t, status.AtIncident, sc.From)
	changes := env.cad.StatusChanges()
	require.Len(t, changes, 2)
	assert.Equal(t, status.AtIncident, changes[1].From)
	assert.Equal(t, "cleared", changes[1].Reason)
}

func TestStatusChangeRejections(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	// same status
	resp := env.do(http.MethodPost, "/cad/api/resources/K9/status", chloe,
		cadjson.StatusChangeRequest{To: status.OnAir})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// leaving an incident needs a reason
	resp = env.do(http.MethodPost, "/cad/api/resources/P24/status", alice,
		cadjson.StatusChangeRequest{To: status.OnAir})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = env.do(http.MethodPost, "/cad/api/resources/P24/status", alice,
		cadjson.StatusChangeRequest{
			To:       status.Finalise,
			Reason:   "job done",
			Finalise: &workflow.FinaliseDetails{SecondaryCode: "ZZZ"},
		})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// not alice's resource
	resp = env.do(http.MethodPost, "/cad/api/resources/K9/status", alice,
		cadjson.StatusChangeRequest{To: status.MealBreak})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(http.MethodPost, "/cad/api/resources/NOPE/status", dev,
		cadjson.StatusChangeRequest{To: status.MealBreak})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(http.MethodPost, "/cad/api/resources/K9/status", chloe, "{")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Empty(t, env.cad.StatusChanges())
	p24, _ := env.store.Resource("P24")
	assert.Equal(t, status.AtIncident, p24.Status)
}

func TestStatusChangeFinalise(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp := env.do(http.MethodPost, "/cad/api/resources/P24/status", alice,
		cadjson.StatusChangeRequest{
			To:       status.Finalise,
			Reason:   "job done",
			Finalise: &workflow.FinaliseDetails{SecondaryCode: "nfa"},
		})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, workflow.Success, readJSON[cadjson.StatusChangeResponse](t, resp).State)

	changes := env.cad.StatusChanges()
	require.Len(t, changes, 1)
	assert.Equal(t, "job done", changes[0].Reason)
	require.NotNil(t, changes[0].Finalise)
}

func TestSupervisorChangesAnyResource(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp := env.do(http.MethodPost, "/cad/api/resources/M3/status", dev,
		cadjson.StatusChangeRequest{To: status.OnAir})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, status.OnAir, env.cad.StatusChanges()[0].To)

	resp = env.do(http.MethodGet, "/cad/api/history", dev, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, readJSON[cadjson.StatusChangeLogs](t, resp), 1)

	resp = env.do(http.MethodGet, "/cad/api/history", alice, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(http.MethodGet, "/cad/api/history?limit=zero", dev, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatusChangeBackendFailure(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	env.cad.FailNext(http.StatusServiceUnavailable, "CAD is down for maintenance")
	resp := env.do(http.MethodPost, "/cad/api/resources/K9/status", chloe,
		cadjson.StatusChangeRequest{To: status.Court})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	k9, _ := env.store.Resource("K9")
	assert.Equal(t, status.OnAir, k9.Status)

	resp = env.do(http.MethodGet, "/cad/api/resources/K9/history", chloe, nil)
	history := readJSON[cadjson.StatusChangeLogs](t, resp)
	require.Len(t, history, 1)
	assert.Equal(t, "failed", history[0].Outcome)
}

func TestBookOnAndOff(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	// P24 is at an incident
	resp := env.do(http.MethodDelete, "/cad/api/bookon", alice, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_, ok := env.store.BookOnFor(alice)
	assert.True(t, ok)

	resp = env.do(http.MethodDelete, "/cad/api/bookon", chloe, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, ok = env.store.BookOnFor(chloe)
	assert.False(t, ok)

	resp = env.do(http.MethodDelete, "/cad/api/bookon", chloe, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.do(http.MethodPost, "/cad/api/bookon", dev, cadBookOn("M3"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "M3", readJSON[cad.BookOn](t, resp).Callsign)
	_, ok = env.cad.BookOn(dev)
	assert.True(t, ok)

	resp = env.do(http.MethodGet, "/cad/api/auth", dev, nil)
	assert.Equal(t, "M3", readJSON[cadjson.GetAuthResponse](t, resp).Callsign)

	resp = env.do(http.MethodPost, "/cad/api/bookon", dev, cadBookOn("NOPE"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(http.MethodPost, "/cad/api/bookon", dev, cadBookOn(""))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	backwards := cadBookOn("M3")
	backwards.ShiftEnd = backwards.ShiftStart.Add(-time.Minute)
	resp = env.do(http.MethodPost, "/cad/api/bookon", dev, backwards)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func (e *testEnv) postReport(incidentID, payrollID, narrative string, files map[string]string) *http.Response {
	e.t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(e.t, mw.WriteField("narrative", narrative))
	for name, content := range files {
		fw, err := mw.CreateFormFile("attachment", name)
		require.NoError(e.t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(e.t, err)
	}
	require.NoError(e.t, mw.Close())

	req, err := http.NewRequestWithContext(e.t.Context(), http.MethodPost,
		e.server.URL+"/cad/api/incidents/"+incidentID+"/reports", body)
	require.NoError(e.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+e.token(payrollID))
	resp, err := e.server.Client().Do(req)
	require.NoError(e.t, err)
	e.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestFileReport(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp := env.postReport("I-1001", alice, "Offender left before police arrival.",
		map[string]string{"statement.txt": "I saw two men arguing."})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sub := readJSON[report.Submission](t, resp)
	assert.Equal(t, "I-1001", sub.IncidentID)
	assert.Equal(t, alice, sub.Author)
	require.Len(t, sub.Attachments, 1)
	assert.Equal(t, "statement.txt", sub.Attachments[0].OriginalName)
	assert.True(t, strings.HasPrefix(sub.Attachments[0].ContentType, "text/plain"))

	require.Len(t, env.cad.Reports(), 1)
	assert.Equal(t, "Offender left before police arrival.", env.cad.Reports()[0].Narrative)

	resp = env.postReport("I-1001", alice, "  ", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.postReport("I-9999", alice, "Nothing to see", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEventSource(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.server.URL+"/cad/api/eventsource", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+env.token(alice))
	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	lines := bufio.NewScanner(resp.Body)
	waitFor := func(event string) {
		t.Helper()
		for lines.Scan() {
			if lines.Text() == "event: "+event {
				return
			}
		}
		t.Fatalf("stream ended before %v: %v", event, lines.Err())
	}
	waitFor("InitialEvent")

	resp2 := env.do(http.MethodPost, "/cad/api/resources/K9/status", chloe,
		cadjson.StatusChangeRequest{To: status.MealBreak})
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	waitFor("StatusChange")
}
