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

package json

import (
	"github.com/fieldcad/cadfield/cad"
	"github.com/fieldcad/cadfield/status"
	"github.com/fieldcad/cadfield/workflow"
)

// StatusChangeRequest carries the officer's answers up front. A prompt the selection needs
// but that has no answer here ends the selection.
type StatusChangeRequest struct {
	To          status.Code                  `json:"to"`
	Reason      string                       `json:"reason,omitzero"`
	Finalise    *workflow.FinaliseDetails    `json:"finalise,omitzero"`
	TrafficStop *workflow.TrafficStopDetails `json:"traffic_stop,omitzero"`
}

type StatusChangeResponse struct {
	State        workflow.State   `json:"state"`
	SubmissionID string           `json:"submission_id"`
	Callsign     string           `json:"callsign"`
	From         status.Code      `json:"from"`
	To           status.Code      `json:"to"`
	Message      string           `json:"message,omitzero"`
	Trail        []workflow.State `json:"trail"`
}

type PolicyCheckRequest struct {
	From status.Code `json:"from"`
	To   status.Code `json:"to"`
}

type PolicyCheckResponse struct {
	Allowed           bool `json:"allowed"`
	RequiresReason    bool `json:"requires_reason"`
	CanCreateIncident bool `json:"can_create_incident"`
	CanTerminateShift bool `json:"can_terminate_shift"`
}

type Catalog struct {
	General  []status.Definition `json:"general"`
	Incident []status.Definition `json:"incident"`
}

type ResourceDetail struct {
	Resource cad.Resource      `json:"resource"`
	Status   status.Definition `json:"status"`
	Duress   bool              `json:"duress"`
	Incident *cad.Incident     `json:"incident,omitzero"`
	Officers []cad.Officer     `json:"officers"`
	// InFlight is true while a status selection for the resource is under way.
	InFlight bool `json:"in_flight"`
}

type IncidentDetail struct {
	Incident  cad.Incident       `json:"incident"`
	Status    cad.IncidentStatus `json:"status"`
	Resources []cad.Resource     `json:"resources"`
}
