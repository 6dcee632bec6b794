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
	"slices"
	"strings"
	"time"
)

type Officer struct {
	PayrollID  string `json:"payroll_id"`
	Rank       string `json:"rank,omitzero"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Region     string `json:"region,omitzero"`
}

// DisplayName renders e.g. "Sgt J. Citizen".
func (o Officer) DisplayName() string {
	var parts []string
	if o.Rank != "" {
		parts = append(parts, o.Rank)
	}
	if o.GivenName != "" {
		parts = append(parts, string([]rune(o.GivenName)[:1])+".")
	}
	if o.FamilyName != "" {
		parts = append(parts, o.FamilyName)
	}
	if len(parts) == 0 {
		return "#" + o.PayrollID
	}
	return strings.Join(parts, " ")
}

// BookOn is an officer's current shift on a callsign.
type BookOn struct {
	Callsign    string      `json:"callsign"`
	PayrollIDs  []string    `json:"payroll_ids"`
	PatrolGroup string      `json:"patrol_group,omitzero"`
	ShiftStart  time.Time   `json:"shift_start"`
	ShiftEnd    time.Time   `json:"shift_end"`
	Equipment   []Equipment `json:"equipment,omitzero"`
	Remarks     string      `json:"remarks,omitzero"`
}

func (b BookOn) Clone() BookOn {
	b.PayrollIDs = slices.Clone(b.PayrollIDs)
	b.Equipment = slices.Clone(b.Equipment)
	return b
}

// Snapshot is the full set of CAD data the client holds at one moment.
type Snapshot struct {
	Incidents  []Incident  `json:"incidents"`
	Patrols    []Patrol    `json:"patrols"`
	Broadcasts []Broadcast `json:"broadcasts"`
	Resources  []Resource  `json:"resources"`
	Officers   []Officer   `json:"officers"`
	SyncTime   time.Time   `json:"sync_time,omitzero"`
}
