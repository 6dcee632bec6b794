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

package herr

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewFillsInternalError(t *testing.T) {
	t.Parallel()
	e := NotFound("No such callsign", nil)
	assert.Equal(t, http.StatusNotFound, e.Code)
	assert.Equal(t, "No such callsign", e.InternalErr.Error())
	assert.Equal(t, "HTTP 404: ResponseMessage:'No such callsign', InternalError:'No such callsign'", e.Error())

	cause := errors.New("callsign P99 not in snapshot")
	e = NotFound("No such callsign", cause)
	assert.Equal(t, cause, errors.Unwrap(e))
}

func TestHelpersSetCodes(t *testing.T) {
	t.Parallel()
	for code, e := range map[int]*HTTPError{
		http.StatusBadRequest:            BadRequest("x", nil),
		http.StatusUnauthorized:          Unauthorized("x", nil),
		http.StatusForbidden:             Forbidden("x", nil),
		http.StatusNotFound:              NotFound("x", nil),
		http.StatusConflict:              Conflict("x", nil),
		http.StatusRequestEntityTooLarge: RequestEntityTooLarge("x", nil),
		http.StatusUnprocessableEntity:   UnprocessableEntity("x", nil),
		http.StatusInternalServerError:   InternalServerError("x", nil),
		http.StatusBadGateway:            BadGateway("x", nil),
	} {
		assert.Equal(t, code, e.Code)
	}
}

var errBackend = errors.New("503 Service Unavailable")

func submit() *HTTPError {
	return BadGateway("CAD didn't accept the status change", errBackend)
}

func commit() *HTTPError {
	if e := submit(); e != nil {
		return e.From("[submit]")
	}
	return nil
}

func changeStatus() *HTTPError {
	if e := commit(); e != nil {
		return e.From("[commit]").SetExpectedError()
	}
	return nil
}

func TestFromKeepsTheChain(t *testing.T) {
	t.Parallel()
	e := changeStatus()
	require.NotNil(t, e)
	assert.Equal(t, http.StatusBadGateway, e.Code)
	assert.Equal(t, "CAD didn't accept the status change", e.ResponseMessage)
	assert.Equal(t, "[commit]: [submit]: 503 Service Unavailable", e.InternalErr.Error())
	assert.True(t, e.ExpectedError)
	require.ErrorIs(t, e, errBackend)

	// From doesn't touch the receiver
	orig := submit()
	_ = orig.From("[elsewhere]")
	assert.Equal(t, errBackend, orig.InternalErr)
}

func TestAsHTTPError(t *testing.T) {
	t.Parallel()
	forbidden := Forbidden("Only supervisors can see action history", nil)
	wrapped := fmt.Errorf("[history]: %w", forbidden)
	assert.Same(t, forbidden, AsHTTPError(wrapped))

	plain := errors.New("disk full")
	got := AsHTTPError(plain)
	assert.Equal(t, http.StatusInternalServerError, got.Code)
	assert.Equal(t, "Unknown server error", got.ResponseMessage)
	require.ErrorIs(t, got, plain)
}

func TestWriteResponse(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	Conflict("K9 can't change to On Air from On Air", errors.New("same status")).SetExpectedError().WriteResponse(rec)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, ApplicationProblemMediaType, rec.Header().Get("Content-Type"))

	var p Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "Conflict", p.Title)
	assert.Equal(t, http.StatusConflict, p.Status)
	assert.Equal(t, "K9 can't change to On Air from On Air", p.Detail)
	assert.False(t, p.Timestamp.IsZero())
	assert.NotContains(t, rec.Body.String(), "same status")
}

func TestSuccessResponses(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	WriteOKResponse(rec, "ack")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ack\n", rec.Body.String())

	rec = httptest.NewRecorder()
	WriteNoContentResponse(rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}
