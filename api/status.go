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
	"fmt"
	"github.com/fieldcad/cadfield/cadstate"
	cadjson "github.com/fieldcad/cadfield/json"
	"github.com/fieldcad/cadfield/lib/authz"
	"github.com/fieldcad/cadfield/lib/herr"
	"github.com/fieldcad/cadfield/manifest"
	"github.com/fieldcad/cadfield/workflow"
	"net/http"
)

var errMissingAnswer = errors.New("no answer was given")

// answeredPrompter answers the workflow's prompts from the request body. Anything the body
// leaves out ends the selection as if the officer had dismissed the prompt.
type answeredPrompter struct {
	body cadjson.StatusChangeRequest
}

var _ workflow.Prompter = answeredPrompter{}

func (p answeredPrompter) Reason(context.Context, workflow.ReasonRequest) (string, error) {
	if p.body.Reason == "" {
		return "", fmt.Errorf("%w: reason: %w", workflow.ErrPromptCancelled, errMissingAnswer)
	}
	return p.body.Reason, nil
}

func (p answeredPrompter) Finalise(context.Context, workflow.DetailRequest) (workflow.FinaliseDetails, error) {
	if p.body.Finalise == nil {
		return workflow.FinaliseDetails{}, fmt.Errorf("%w: finalise: %w", workflow.ErrPromptCancelled, errMissingAnswer)
	}
	return *p.body.Finalise, nil
}

func (p answeredPrompter) TrafficStop(context.Context, workflow.DetailRequest) (workflow.TrafficStopDetails, error) {
	if p.body.TrafficStop == nil {
		return workflow.TrafficStopDetails{}, fmt.Errorf("%w: traffic stop: %w", workflow.ErrPromptCancelled, errMissingAnswer)
	}
	return *p.body.TrafficStop, nil
}

type PostStatusChange struct {
	store    *cadstate.Store
	workflow *workflow.Workflow
	es       *EventSourcerer
}

func (action PostStatusChange) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	resp, errHTTP := action.postStatusChange(req)
	if errHTTP != nil {
		errHTTP.From("[postStatusChange]").WriteResponse(w)
		return
	}
	mustWriteJSON(w, req, resp)
}

func (action PostStatusChange) postStatusChange(req *http.Request) (cadjson.StatusChangeResponse, *herr.HTTPError) {
	var empty cadjson.StatusChangeResponse
	jwtCtx, errHTTP := getJwtCtx(req)
	if errHTTP != nil {
		return empty, errHTTP.From("[getJwtCtx]")
	}
	callsign := req.PathValue("callsign")
	if !authz.CanChangeStatus(jwtCtx.Claims.Permissions(), ownCallsign(action.store, jwtCtx), callsign) {
		return empty, herr.Forbidden("The requestor may not change the status of "+callsign, nil)
	}
	body, errHTTP := readBodyAs[cadjson.StatusChangeRequest](req)
	if errHTTP != nil {
		return empty, errHTTP.From("[readBodyAs]")
	}
	o, err := action.workflow.Begin(req.Context(), callsign, body.To, answeredPrompter{body}, jwtCtx.Claims.PayrollID())
	switch {
	case errors.Is(err, workflow.ErrUnknownResource):
		return empty, herr.NotFound("No such resource", err).SetExpectedError()
	case errors.Is(err, workflow.ErrInProgress):
		return empty, herr.Conflict("A status change is already in progress for "+callsign, err).SetExpectedError()
	case err != nil:
		return empty, herr.InternalServerError("Failed to start status change", err).From("[Begin]")
	}
	resp := cadjson.StatusChangeResponse{
		State:        o.State,
		SubmissionID: o.Change.SubmissionID,
		Callsign:     o.Change.Callsign,
		From:         o.Change.From,
		To:           o.Change.To,
		Message:      o.Message,
		Trail:        o.Trail,
	}
	var unknownCode *manifest.UnknownCodeError
	switch {
	case o.State == workflow.Success:
		action.es.notifyStatusChange(resp)
		return resp, nil
	case errors.Is(o.Err, workflow.ErrPolicyRejection):
		return empty, herr.Conflict(o.Message, o.Err).SetExpectedError()
	case errors.Is(o.Err, errMissingAnswer):
		return empty, herr.UnprocessableEntity("The status change needs more information: "+o.Err.Error(), o.Err).SetExpectedError()
	case errors.As(o.Err, &unknownCode):
		return empty, herr.UnprocessableEntity(o.Message, o.Err).SetExpectedError()
	case o.State == workflow.Failed:
		return empty, herr.BadGateway(o.Message, o.Err)
	default:
		// cancelled for some other reason, e.g. the request went away
		return resp, nil
	}
}
