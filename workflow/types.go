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

// Package workflow runs the status selection sequence for a resource: policy check,
// prompts for a reason and any status-specific details, then the commit to CAD.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"github.com/fieldcad/cadfield/cad"
	"github.com/fieldcad/cadfield/status"
	"time"
)

// State is a step of the status selection sequence.
type State int

const (
	Idle State = iota
	PolicyCheck
	ReasonPrompt
	DetailPrompt
	Committing
	Success
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PolicyCheck:
		return "policy_check"
	case ReasonPrompt:
		return "reason_prompt"
	case DetailPrompt:
		return "detail_prompt"
	case Committing:
		return "committing"
	case Success:
		return "success"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) Terminal() bool {
	return s == Success || s == Cancelled || s == Failed
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	// ErrPolicyRejection means the status policy does not allow the change.
	ErrPolicyRejection = errors.New("status change not allowed")
	// ErrPromptCancelled means the officer dismissed a prompt, or left required input empty.
	ErrPromptCancelled = errors.New("status change cancelled")
	// ErrUnknownResource means the callsign isn't in the local resource list.
	ErrUnknownResource = errors.New("no such resource")
	// ErrInProgress means a status change is already under way for the resource.
	ErrInProgress = errors.New("a status change is already in progress for this resource")
	// ErrSubmissionFailed matches every SubmissionError.
	ErrSubmissionFailed = errors.New("status change submission failed")
)

// SubmissionError is a failed commit. Message is suitable for showing to the officer.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	return e.Message
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

func (e *SubmissionError) Is(target error) bool {
	return target == ErrSubmissionFailed
}

// UserMessager is implemented by errors that carry a message meant for the officer.
type UserMessager interface {
	UserMessage() string
}

// FinaliseDetails are collected when a resource finalises an incident.
type FinaliseDetails struct {
	SecondaryCode string `json:"secondary_code"`
	Remark        string `json:"remark,omitzero"`
}

// TrafficStopDetails are collected when a resource starts a traffic stop.
type TrafficStopDetails struct {
	Location           cad.Location `json:"location"`
	Registration       string       `json:"registration,omitzero"`
	VehicleDescription string       `json:"vehicle_description,omitzero"`
	Occupants          int          `json:"occupants,omitzero"`
	Outcome            string       `json:"outcome,omitzero"`
	// CreateIncident asks CAD to raise an incident for the stop.
	CreateIncident bool      `json:"create_incident,omitzero"`
	Grade          cad.Grade `json:"grade,omitzero"`
	Remark         string    `json:"remark,omitzero"`
}

// StatusChange is what gets submitted to CAD.
type StatusChange struct {
	SubmissionID string              `json:"submission_id"`
	Callsign     string              `json:"callsign"`
	From         status.Code         `json:"from"`
	To           status.Code         `json:"to"`
	Reason       string              `json:"reason,omitzero"`
	Finalise     *FinaliseDetails    `json:"finalise,omitzero"`
	TrafficStop  *TrafficStopDetails `json:"traffic_stop,omitzero"`
	RequestedBy  string              `json:"requested_by,omitzero"`
	Requested    time.Time           `json:"requested"`
}

// Outcome is how a status selection ended.
type Outcome struct {
	State  State        `json:"state"`
	Change StatusChange `json:"change"`
	// Err is nil on Success. It wraps ErrPolicyRejection or ErrPromptCancelled when
	// Cancelled, and is a *SubmissionError when Failed.
	Err error `json:"-"`
	// Message is the single message to show the officer, if any.
	Message string `json:"message,omitzero"`
	// Trail is every state entered, in order.
	Trail []State `json:"trail"`
}

// ReasonRequest describes the reason prompt.
type ReasonRequest struct {
	Callsign string
	From     status.Definition
	To       status.Definition
}

// DetailRequest describes a status-specific detail prompt.
type DetailRequest struct {
	Callsign string
	Incident string
	To       status.Definition
}

// Prompter asks the officer for input. Every method blocks until the officer answers or
// dismisses the prompt; a dismissal is reported as ErrPromptCancelled.
type Prompter interface {
	Reason(ctx context.Context, req ReasonRequest) (string, error)
	Finalise(ctx context.Context, req DetailRequest) (FinaliseDetails, error)
	TrafficStop(ctx context.Context, req DetailRequest) (TrafficStopDetails, error)
}

// Submitter sends a status change to CAD.
type Submitter interface {
	SubmitStatusChange(ctx context.Context, change StatusChange) error
}

// Resources is the local view of resources. Begin reads the current status through it once
// the callsign is locked, and records a committed change through it.
type Resources interface {
	Resource(callsign string) (cad.Resource, bool)
	UpdateResourceStatus(callsign string, code status.Code) error
}

// Policy decides whether a status change is allowed.
type Policy interface {
	CanChangeStatus(current, proposed status.Code) status.Decision
	Catalog() *status.Catalog
}

// Validator checks detail answers against reference data before submission.
type Validator interface {
	ValidateFinalise(ctx context.Context, d FinaliseDetails) error
	ValidateTrafficStop(ctx context.Context, d TrafficStopDetails) error
}

// Auditor is told about every finished status selection.
type Auditor interface {
	Audit(ctx context.Context, o Outcome)
}
