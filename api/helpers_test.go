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
	"errors"
	cadjson "github.com/fieldcad/cadfield/json"
	"github.com/fieldcad/cadfield/lib/authz"
	"github.com/fieldcad/cadfield/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestMustWriteJSONErrors(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := &http.Request{URL: &url.URL{Path: "/cad/api/tasks"}}
	ok := mustWriteJSON(rec, req, make(chan int))
	assert.False(t, ok)
	assert.Equal(t, http.StatusInternalServerError, rec.Result().StatusCode)

	w := angryResponseWriter{httptest.NewRecorder()}
	ok = mustWriteJSON(w, req, map[string]string{"callsign": "P24"})
	assert.False(t, ok)
}

func TestReadBodyAsErrors(t *testing.T) {
	t.Parallel()

	_, errHTTP := readBodyAs[cadjson.TaskSelection](&http.Request{Body: angryReader{}})
	require.NotNil(t, errHTTP)
	assert.Equal(t, http.StatusBadRequest, errHTTP.Code)

	_, errHTTP = readBodyAs[cadjson.TaskSelection](&http.Request{
		Body: io.NopCloser(strings.NewReader(`{"index": "first"}`)),
	})
	require.NotNil(t, errHTTP)
	assert.Equal(t, http.StatusBadRequest, errHTTP.Code)

	sel, errHTTP := readBodyAs[cadjson.TaskSelection](&http.Request{
		Body: io.NopCloser(strings.NewReader(`{"index": 2}`)),
	})
	require.Nil(t, errHTTP)
	require.NotNil(t, sel.Index)
	assert.Equal(t, 2, *sel.Index)
}

func requestAs(t *testing.T, payrollID string, supervisors []string) *http.Request {
	t.Helper()
	j := authz.JWTer{SecretKey: "secret"}
	token, err := j.CreateAccessToken("Officer", payrollID, authz.RolesFor(payrollID, supervisors), time.Now().Add(time.Hour))
	require.NoError(t, err)
	claims, err := j.AuthenticateJWT(token)
	require.NoError(t, err)
	ctx := context.WithValue(t.Context(), JWTContextKey, JWTContext{Claims: claims})
	return httptest.NewRequestWithContext(ctx, http.MethodGet, "/cad/api/history", nil)
}

func TestRequirePermission(t *testing.T) {
	t.Parallel()

	_, errHTTP := requirePermission(httptest.NewRequest(http.MethodGet, "/", nil), authz.ReadTasks)
	require.NotNil(t, errHTTP)
	assert.Equal(t, http.StatusInternalServerError, errHTTP.Code)

	req := requestAs(t, "100123", nil)
	jwtCtx, errHTTP := requirePermission(req, authz.ReadTasks|authz.FileReports)
	require.Nil(t, errHTTP)
	assert.Equal(t, "100123", jwtCtx.Claims.PayrollID())

	_, errHTTP = requirePermission(req, authz.ReadMetrics)
	require.NotNil(t, errHTTP)
	assert.Equal(t, http.StatusForbidden, errHTTP.Code)
	assert.Contains(t, errHTTP.ResponseMessage, "ReadMetrics")

	_, errHTTP = requirePermission(requestAs(t, "100999", []string{"100999"}), authz.ReadMetrics)
	assert.Nil(t, errHTTP)
}

func TestAnsweredPrompter(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	empty := answeredPrompter{}
	_, err := empty.Reason(ctx, workflow.ReasonRequest{})
	require.ErrorIs(t, err, workflow.ErrPromptCancelled)
	require.ErrorIs(t, err, errMissingAnswer)
	_, err = empty.Finalise(ctx, workflow.DetailRequest{})
	require.ErrorIs(t, err, errMissingAnswer)
	_, err = empty.TrafficStop(ctx, workflow.DetailRequest{})
	require.ErrorIs(t, err, errMissingAnswer)

	answered := answeredPrompter{cadjson.StatusChangeRequest{
		Reason:      "called away",
		Finalise:    &workflow.FinaliseDetails{SecondaryCode: "ADV"},
		TrafficStop: &workflow.TrafficStopDetails{Registration: "ABC123"},
	}}
	reason, err := answered.Reason(ctx, workflow.ReasonRequest{})
	require.NoError(t, err)
	assert.Equal(t, "called away", reason)
	fin, err := answered.Finalise(ctx, workflow.DetailRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ADV", fin.SecondaryCode)
	stop, err := answered.TrafficStop(ctx, workflow.DetailRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ABC123", stop.Registration)
}

type angryResponseWriter struct {
	*httptest.ResponseRecorder
}

func (angryResponseWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

type angryReader struct {
	io.ReadCloser
}

func (angryReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func (angryReader) Close() error {
	return nil
}
