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
	"strings"
	"time"
)

type Location struct {
	FullAddress string  `json:"full_address"`
	Suburb      string  `json:"suburb,omitzero"`
	Latitude    float64 `json:"latitude,omitzero"`
	Longitude   float64 `json:"longitude,omitzero"`
}

// Summary is a one-line rendering of the location.
func (l Location) Summary() string {
	if l.Suburb == "" {
		return l.FullAddress
	}
	if l.FullAddress == "" {
		return l.Suburb
	}
	return l.FullAddress + ", " + l.Suburb
}

type NarrativeEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitzero"`
	Author      string    `json:"author,omitzero"`
}

type Incident struct {
	Identifier    string           `json:"identifier"`
	Type          string           `json:"type"`
	Grade         Grade            `json:"grade"`
	Location      Location         `json:"location"`
	SecondaryCode string           `json:"secondary_code,omitzero"`
	PatrolGroup   string           `json:"patrol_group,omitzero"`
	Created       time.Time        `json:"created,omitzero"`
	LastUpdated   time.Time        `json:"last_updated,omitzero"`
	Narrative     []NarrativeEntry `json:"narrative"`
}

// Title is the incident's list title, e.g. "P1 Assault".
func (i Incident) Title() string {
	return strings.TrimSpace(i.Grade.Title() + " " + i.Type)
}

// IncidentStatus is an incident's status relative to the viewing officer.
// It is computed, never stored.
type IncidentStatus string

const (
	IncidentCurrent     IncidentStatus = "current"
	IncidentAssigned    IncidentStatus = "assigned"
	IncidentResourced   IncidentStatus = "resourced"
	IncidentUnresourced IncidentStatus = "unresourced"
)

// AllIncidentStatuses returns the statuses in display order.
func AllIncidentStatuses() []IncidentStatus {
	return []IncidentStatus{IncidentCurrent, IncidentAssigned, IncidentResourced, IncidentUnresourced}
}

func (s IncidentStatus) Title() string {
	switch s {
	case IncidentCurrent:
		return "Current Incident"
	case IncidentAssigned:
		return "Assigned"
	case IncidentResourced:
		return "Resourced"
	case IncidentUnresourced:
		return "Unresourced"
	default:
		return string(s)
	}
}

// Filterable reports whether the resourced filter applies to incidents in this status.
func (s IncidentStatus) Filterable() bool {
	return s == IncidentResourced || s == IncidentUnresourced
}

// ComputeIncidentStatus derives the status of incidentID given the viewer's own resource
// (nil when not booked on) and every resource linked to the incident.
func ComputeIncidentStatus(incidentID string, own *Resource, linked []Resource) IncidentStatus {
	if own != nil {
		if own.CurrentIncident == incidentID {
			return IncidentCurrent
		}
		for _, assigned := range own.AssignedIncidents {
			if assigned == incidentID {
				return IncidentAssigned
			}
		}
	}
	if len(linked) > 0 {
		return IncidentResourced
	}
	return IncidentUnresourced
}
