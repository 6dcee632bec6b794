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

package cad

import (
	"github.com/fieldcad/cadfield/status"
	"slices"
	"time"
)

type ResourceType string

const (
	ResourceVehicle    ResourceType = "vehicle"
	ResourceDogSquad   ResourceType = "dog_squad"
	ResourceMotorcycle ResourceType = "motorcycle"
	ResourceFoot       ResourceType = "foot"
	ResourceHelicopter ResourceType = "helicopter"
)

func (t ResourceType) Title() string {
	switch t {
	case ResourceVehicle:
		return "Vehicle"
	case ResourceDogSquad:
		return "Dog Squad"
	case ResourceMotorcycle:
		return "Motorcycle"
	case ResourceFoot:
		return "Foot"
	case ResourceHelicopter:
		return "Helicopter"
	default:
		return string(t)
	}
}

type Equipment struct {
	Description string `json:"description"`
	Count       int    `json:"count"`
}

type Resource struct {
	Callsign    string       `json:"callsign"`
	Type        ResourceType `json:"type"`
	Status      status.Code  `json:"status"`
	PatrolGroup string       `json:"patrol_group,omitzero"`

	// CurrentIncident is a weak reference by identifier. The incident may not be in the store.
	CurrentIncident   string   `json:"current_incident,omitzero"`
	AssignedIncidents []string `json:"assigned_incidents,omitzero"`

	// PayrollIDs are keys into the store's officers.
	PayrollIDs []string `json:"payroll_ids"`

	ShiftStart  *time.Time  `json:"shift_start,omitzero"`
	ShiftEnd    *time.Time  `json:"shift_end,omitzero"`
	Equipment   []Equipment `json:"equipment,omitzero"`
	Location    *Location   `json:"location,omitzero"`
	LastUpdated time.Time   `json:"last_updated,omitzero"`
}

// IsTasked reports whether the resource is working an incident.
func (r Resource) IsTasked() bool {
	return r.CurrentIncident != ""
}

// References reports whether the resource is linked to the incident, as current or assigned.
func (r Resource) References(incidentID string) bool {
	if incidentID == "" {
		return false
	}
	return r.CurrentIncident == incidentID || slices.Contains(r.AssignedIncidents, incidentID)
}

// IncidentIDs lists each incident r references once: the current incident first, then the
// assigned ones in order.
func (r Resource) IncidentIDs() []string {
	ids := make([]string, 0, 1+len(r.AssignedIncidents))
	if r.CurrentIncident != "" {
		ids = append(ids, r.CurrentIncident)
	}
	for _, id := range r.AssignedIncidents {
		if id != "" && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Clone returns a copy that shares no slices with r.
func (r Resource) Clone() Resource {
	r.AssignedIncidents = slices.Clone(r.AssignedIncidents)
	r.PayrollIDs = slices.Clone(r.PayrollIDs)
	r.Equipment = slices.Clone(r.Equipment)
	if r.Location != nil {
		loc := *r.Location
		r.Location = &loc
	}
	return r
}
