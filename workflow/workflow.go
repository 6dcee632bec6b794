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

package workflow

import (
	"context"
	"errors"
	"fmt"
	"github.com/fieldcad/cadfield/cad"
	"github.com/fieldcad/cadfield/status"
	"github.com/google/uuid"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const DefaultSubmitTimeout = 30 * time.Second

// Workflow runs status selections. At most one selection is in flight per callsign.
type Workflow struct {
	policy    Policy
	submitter Submitter
	resources Resources
	validator Validator
	auditors  []Auditor
	observers []func(callsign string, s State)
	timeout   time.Duration
	now       func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
}

type Option func(*Workflow)

// WithSubmitTimeout bounds the commit. Expiry is a Failed outcome; there is no retry.
func WithSubmitTimeout(d time.Duration) Option {
	return func(w *Workflow) {
		if d > 0 {
			w.timeout = d
		}
	}
}

func WithValidator(v Validator) Option {
	return func(w *Workflow) {
		w.validator = v
	}
}

// WithAuditor adds an auditor. Auditors are told about outcomes in the order added.
func WithAuditor(a Auditor) Option {
	return func(w *Workflow) {
		w.auditors = append(w.auditors, a)
	}
}

// WithObserver registers fn to be called for every state entered.
func WithObserver(fn func(callsign string, s State)) Option {
	return func(w *Workflow) {
		w.observers = append(w.observers, fn)
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *Workflow) {
		w.now = now
	}
}

func New(policy Policy, submitter Submitter, resources Resources, opts ...Option) *Workflow {
	w := &Workflow{
		policy:    policy,
		submitter: submitter,
		resources: resources,
		timeout:   DefaultSubmitTimeout,
		now:       time.Now,
		inFlight:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Begin runs a status selection for callsign to proposed, asking prompter for any input
// needed, and returns once the selection reaches a terminal state. The error is non-nil
// only when the selection could not start.
//
// The resource's current status is read after the callsign is locked, so the policy check
// always sees the result of any selection that finished before this one.
func (w *Workflow) Begin(
	ctx context.Context,
	callsign string,
	proposed status.Code,
	prompter Prompter,
	requestedBy string,
) (Outcome, error) {
	if !w.acquire(callsign) {
		return Outcome{}, fmt.Errorf("%w: %v", ErrInProgress, callsign)
	}
	defer w.release(callsign)

	resource, ok := w.resources.Resource(callsign)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %v", ErrUnknownResource, callsign)
	}

	a := w.newAttempt(resource, proposed, prompter, requestedBy)
	a.enter(PolicyCheck)
	for state := PolicyCheck; !state.Terminal(); {
		state = a.next(ctx, state)
		a.enter(state)
	}
	o := a.outcome()
	slog.Info("Status selection finished",
		"callsign", resource.Callsign,
		"from", resource.Status,
		"to", proposed,
		"state", o.State.String(),
		"requestedBy", requestedBy,
	)
	for _, auditor := range w.auditors {
		auditor.Audit(context.WithoutCancel(ctx), o)
	}
	return o, nil
}

func (w *Workflow) acquire(callsign string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, busy := w.inFlight[callsign]; busy {
		return false
	}
	w.inFlight[callsign] = struct{}{}
	return true
}

func (w *Workflow) release(callsign string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.inFlight, callsign)
}

// InFlight reports whether a selection is under way for callsign.
func (w *Workflow) InFlight(callsign string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, busy := w.inFlight[callsign]
	return busy
}

// attempt is one run through the state machine. Each step method handles one state and
// returns the next.
type attempt struct {
	w        *Workflow
	resource cad.Resource
	prompter Prompter
	decision status.Decision
	target   status.Definition
	change   StatusChange
	trail    []State
	err      error
	message  string
}

func (w *Workflow) newAttempt(resource cad.Resource, proposed status.Code, prompter Prompter, requestedBy string) *attempt {
	target, ok := w.policy.Catalog().Lookup(proposed)
	if !ok {
		target = status.Definition{Code: proposed, Title: string(proposed)}
	}
	return &attempt{
		w:        w,
		resource: resource,
		prompter: prompter,
		target:   target,
		change: StatusChange{
			SubmissionID: uuid.NewString(),
			Callsign:     resource.Callsign,
			From:         resource.Status,
			To:           proposed,
			RequestedBy:  requestedBy,
			Requested:    w.now(),
		},
		trail: []State{Idle},
	}
}

func (a *attempt) enter(s State) {
	a.trail = append(a.trail, s)
	for _, fn := range a.w.observers {
		fn(a.resource.Callsign, s)
	}
}

func (a *attempt) outcome() Outcome {
	return Outcome{
		State:   a.trail[len(a.trail)-1],
		Change:  a.change,
		Err:     a.err,
		Message: a.message,
		Trail:   append([]State(nil), a.trail...),
	}
}

func (a *attempt) next(ctx context.Context, s State) State {
	switch s {
	case PolicyCheck:
		return a.policyCheck()
	case ReasonPrompt:
		return a.reasonPrompt(ctx)
	case DetailPrompt:
		return a.detailPrompt(ctx)
	case Committing:
		return a.commit(ctx)
	default:
		a.err = fmt.Errorf("no transition from %v", s)
		a.message = "Something went wrong changing status"
		return Failed
	}
}

func (a *attempt) policyCheck() State {
	a.decision = a.w.policy.CanChangeStatus(a.resource.Status, a.change.To)
	switch {
	case !a.decision.Allowed:
		a.err = fmt.Errorf("%w: %v to %v", ErrPolicyRejection, a.change.From, a.change.To)
		a.message = fmt.Sprintf("%v can't change to %v from %v",
			a.resource.Callsign, a.target.Title, a.w.policy.Catalog().Title(a.change.From))
		return Cancelled
	case a.decision.RequiresReason:
		return ReasonPrompt
	default:
		return a.afterReason()
	}
}

func (a *attempt) afterReason() State {
	if a.target.Detail != status.DetailNone {
		return DetailPrompt
	}
	return Committing
}

func (a *attempt) reasonPrompt(ctx context.Context) State {
	from, _ := a.w.policy.Catalog().Lookup(a.change.From)
	reason, err := a.prompter.Reason(ctx, ReasonRequest{
		Callsign: a.resource.Callsign,
		From:     from,
		To:       a.target,
	})
	if err != nil {
		return a.cancelled(err)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return a.cancelled(fmt.Errorf("%w: no reason given", ErrPromptCancelled))
	}
	a.change.Reason = reason
	return a.afterReason()
}

func (a *attempt) detailPrompt(ctx context.Context) State {
	req := DetailRequest{
		Callsign: a.resource.Callsign,
		Incident: a.resource.CurrentIncident,
		To:       a.target,
	}
	switch a.target.Detail {
	case status.DetailFinalise:
		d, err := a.prompter.Finalise(ctx, req)
		if err != nil {
			return a.cancelled(err)
		}
		d.SecondaryCode = strings.TrimSpace(d.SecondaryCode)
		if d.SecondaryCode == "" {
			return a.cancelled(fmt.Errorf("%w: no secondary code given", ErrPromptCancelled))
		}
		if a.w.validator != nil {
			if err = a.w.validator.ValidateFinalise(ctx, d); err != nil {
				return a.failed(err, "")
			}
		}
		a.change.Finalise = &d
	case status.DetailTrafficStop:
		d, err := a.prompter.TrafficStop(ctx, req)
		if err != nil {
			return a.cancelled(err)
		}
		if a.w.validator != nil {
			if err = a.w.validator.ValidateTrafficStop(ctx, d); err != nil {
				return a.failed(err, "")
			}
		}
		a.change.TrafficStop = &d
	}
	return Committing
}

func (a *attempt) commit(ctx context.Context) State {
	ctx, cancel := context.WithTimeout(ctx, a.w.timeout)
	defer cancel()
	if err := a.w.submitter.SubmitStatusChange(ctx, a.change); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return a.failed(err, "Timed out waiting for CAD to accept the status change")
		}
		return a.failed(err, "")
	}
	if err := a.w.resources.UpdateResourceStatus(a.resource.Callsign, a.change.To); err != nil {
		// CAD has the change; the next sync will bring the resource back in line
		slog.Warn("Failed to record committed status change locally",
			"callsign", a.resource.Callsign, "error", err)
	}
	return Success
}

// cancelled handles an error from a prompt. Anything that isn't already a cancellation is
// treated as one.
func (a *attempt) cancelled(err error) State {
	if !errors.Is(err, ErrPromptCancelled) {
		err = fmt.Errorf("%w: %w", ErrPromptCancelled, err)
	}
	a.err = err
	return Cancelled
}

func (a *attempt) failed(err error, message string) State {
	if message == "" {
		var um UserMessager
		if errors.As(err, &um) {
			message = um.UserMessage()
		} else {
			message = err.Error()
		}
	}
	a.err = &SubmissionError{Message: message, Err: err}
	a.message = message
	return Failed
}
