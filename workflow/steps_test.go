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
	"github.com/fieldcad/cadfield/cad"
	"github.com/fieldcad/cadfield/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

type stubPrompter struct {
	reason   string
	finalise FinaliseDetails
	err      error
}

func (p stubPrompter) Reason(context.Context, ReasonRequest) (string, error) {
	return p.reason, p.err
}

func (p stubPrompter) Finalise(context.Context, DetailRequest) (FinaliseDetails, error) {
	return p.finalise, p.err
}

func (p stubPrompter) TrafficStop(context.Context, DetailRequest) (TrafficStopDetails, error) {
	return TrafficStopDetails{}, p.err
}

type stubSubmitter struct{ err error }

func (s stubSubmitter) SubmitStatusChange(context.Context, StatusChange) error { return s.err }

type stubRecorder struct{ recorded map[string]status.Code }

func (r *stubRecorder) Resource(callsign string) (cad.Resource, bool) {
	code, ok := r.recorded[callsign]
	return cad.Resource{Callsign: callsign, Status: code}, ok
}

func (r *stubRecorder) UpdateResourceStatus(callsign string, code status.Code) error {
	r.recorded[callsign] = code
	return nil
}

func newTestAttempt(from, to status.Code, p Prompter, submitErr error) (*attempt, *stubRecorder) {
	rec := &stubRecorder{recorded: map[string]status.Code{}}
	w := New(status.NewPolicy(status.Default()), stubSubmitter{err: submitErr}, rec)
	a := w.newAttempt(cad.Resource{Callsign: "P24", Status: from, CurrentIncident: "I9"}, to, p, "100")
	return a, rec
}

func TestPolicyCheckStep(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		from, to status.Code
		want     State
	}{
		{status.OnAir, status.OnAir, Cancelled},
		{status.AtIncident, status.OnAir, ReasonPrompt},
		{status.OnAir, status.TrafficStop, DetailPrompt},
		{status.OnAir, status.MealBreak, Committing},
		{status.OnAir, "teleporting", Cancelled},
	} {
		a, _ := newTestAttempt(tc.from, tc.to, stubPrompter{}, nil)
		assert.Equalf(t, tc.want, a.policyCheck(), "%v -> %v", tc.from, tc.to)
	}
}

func TestReasonPromptStep(t *testing.T) {
	t.Parallel()
	a, _ := newTestAttempt(status.AtIncident, status.Finalise, stubPrompter{reason: "done"}, nil)
	assert.Equal(t, DetailPrompt, a.reasonPrompt(t.Context()))
	assert.Equal(t, "done", a.change.Reason)

	a, _ = newTestAttempt(status.AtIncident, status.OnAir, stubPrompter{reason: "done"}, nil)
	assert.Equal(t, Committing, a.reasonPrompt(t.Context()))

	a, _ = newTestAttempt(status.AtIncident, status.OnAir, stubPrompter{err: context.Canceled}, nil)
	assert.Equal(t, Cancelled, a.reasonPrompt(t.Context()))
	require.ErrorIs(t, a.err, ErrPromptCancelled)
	require.ErrorIs(t, a.err, context.Canceled)
}

func TestDetailPromptStep(t *testing.T) {
	t.Parallel()
	a, _ := newTestAttempt(status.AtIncident, status.Finalise,
		stubPrompter{finalise: FinaliseDetails{SecondaryCode: " ARR ", Remark: "one in custody"}}, nil)
	assert.Equal(t, Committing, a.detailPrompt(t.Context()))
	require.NotNil(t, a.change.Finalise)
	assert.Equal(t, "ARR", a.change.Finalise.SecondaryCode)

	a, _ = newTestAttempt(status.AtIncident, status.Finalise, stubPrompter{}, nil)
	assert.Equal(t, Cancelled, a.detailPrompt(t.Context()))
	assert.Nil(t, a.change.Finalise)
}

func TestCommitStep(t *testing.T) {
	t.Parallel()
	a, rec := newTestAttempt(status.OnAir, status.MealBreak, stubPrompter{}, nil)
	assert.Equal(t, Success, a.commit(t.Context()))
	assert.Equal(t, status.MealBreak, rec.recorded["P24"])

	a, rec = newTestAttempt(status.OnAir, status.MealBreak, stubPrompter{}, errors.New("503 Service Unavailable"))
	assert.Equal(t, Failed, a.commit(t.Context()))
	assert.Empty(t, rec.recorded)
	assert.Equal(t, "503 Service Unavailable", a.message)
}

func TestNextFromTerminalStateFails(t *testing.T) {
	t.Parallel()
	a, _ := newTestAttempt(status.OnAir, status.MealBreak, stubPrompter{}, nil)
	assert.Equal(t, Failed, a.next(t.Context(), Success))
	require.Error(t, a.err)
}
