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
	"github.com/fieldcad/cadfield/cad"
	"github.com/fieldcad/cadfield/cadstate"
	"github.com/fieldcad/cadfield/lib/authz"
	"github.com/fieldcad/cadfield/lib/herr"
	"github.com/fieldcad/cadfield/status"
	"github.com/fieldcad/cadfield/workflow"
	"log/slog"
	"net/http"
	"strings"
)

// BookOnSubmitter tells CAD about shifts starting and ending.
type BookOnSubmitter interface {
	SubmitBookOn(ctx context.Context, payrollID string, b cad.BookOn) error
	SubmitBookOff(ctx context.Context, payrollID string) error
}

// backendError converts a failed CAD request into a 502, keeping CAD's message if it has one.
func backendError(err error, fallback string) *herr.HTTPError {
	msg := fallback
	var um workflow.UserMessager
	if errors.As(err, &um) && um.UserMessage() != "" {
		msg = um.UserMessage()
	}
	return herr.BadGateway(msg, err)
}

type PostBookOn struct {
	store   *cadstate.Store
	backend BookOnSubmitter
	es      *EventSourcerer
}

func (action PostBookOn) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	resp, errHTTP := action.postBookOn(req)
	if errHTTP != nil {
		errHTTP.From("[postBookOn]").WriteResponse(w)
		return
	}
	mustWriteJSON(w, req, resp)
}

func (action PostBookOn) postBookOn(req *http.Request) (cad.BookOn, *herr.HTTPError) {
	var empty cad.BookOn
	jwtCtx, errHTTP := requirePermission(req, authz.BookOn)
	if errHTTP != nil {
		return empty, errHTTP.From("[requirePermission]")
	}
	b, errHTTP := readBodyAs[cad.BookOn](req)
	if errHTTP != nil {
		return empty, errHTTP.From("[readBodyAs]")
	}
	b.Callsign = strings.TrimSpace(b.Callsign)
	if b.Callsign == "" {
		return empty, herr.BadRequest("A callsign is required to book on", nil)
	}
	if b.ShiftStart.IsZero() || !b.ShiftEnd.After(b.ShiftStart) {
		return empty, herr.BadRequest("The shift must end after it starts", nil)
	}
	if _, ok := action.store.Resource(b.Callsign); !ok {
		return empty, herr.NotFound("No such resource", nil).SetExpectedError()
	}
	payrollID := jwtCtx.Claims.PayrollID()
	if err := action.backend.SubmitBookOn(req.Context(), payrollID, b); err != nil {
		return empty, backendError(err, "CAD did not accept the book on").From("[SubmitBookOn]")
	}
	if err := action.store.SetBookOn(payrollID, b); err != nil {
		return empty, herr.InternalServerError("Failed to record book on", err).From("[SetBookOn]")
	}
	slog.Info("Officer booked on", "payrollID", payrollID, "callsign", b.Callsign)
	action.es.notifyBookOn(payrollID, b.Callsign, true)
	booked, _ := action.store.BookOnFor(payrollID)
	return booked, nil
}

type DeleteBookOn struct {
	store   *cadstate.Store
	policy  *status.Policy
	backend BookOnSubmitter
	es      *EventSourcerer
}

func (action DeleteBookOn) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	errHTTP := action.deleteBookOn(req)
	if errHTTP != nil {
		errHTTP.From("[deleteBookOn]").WriteResponse(w)
		return
	}
	herr.WriteNoContentResponse(w)
}

func (action DeleteBookOn) deleteBookOn(req *http.Request) *herr.HTTPError {
	jwtCtx, errHTTP := requirePermission(req, authz.BookOn)
	if errHTTP != nil {
		return errHTTP.From("[requirePermission]")
	}
	payrollID := jwtCtx.Claims.PayrollID()
	b, ok := action.store.BookOnFor(payrollID)
	if !ok {
		return herr.Conflict("You are not booked on", cadstate.ErrNotBookedOn).SetExpectedError()
	}
	// checked locally first so CAD isn't told about a book off that can't happen
	if r, known := action.store.Resource(b.Callsign); known && !action.policy.CanTerminateShift(r.Status) {
		return herr.Conflict(
			"Can't end the shift while "+b.Callsign+" is "+action.policy.Catalog().Title(r.Status),
			cadstate.ErrCannotTerminateShift,
		).SetExpectedError()
	}
	if err := action.backend.SubmitBookOff(req.Context(), payrollID); err != nil {
		return backendError(err, "CAD did not accept the book off").From("[SubmitBookOff]")
	}
	if err := action.store.ClearBookOn(payrollID, action.policy); err != nil {
		if errors.Is(err, cadstate.ErrCannotTerminateShift) || errors.Is(err, cadstate.ErrNotBookedOn) {
			return herr.Conflict(err.Error(), err).SetExpectedError()
		}
		return herr.InternalServerError("Failed to record book off", err).From("[ClearBookOn]")
	}
	slog.Info("Officer booked off", "payrollID", payrollID, "callsign", b.Callsign)
	action.es.notifyBookOn(payrollID, b.Callsign, false)
	return nil
}
