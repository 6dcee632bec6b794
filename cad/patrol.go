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
	"time"
)

type PatrolStatus string

const (
	PatrolAssigned   PatrolStatus = "assigned"
	PatrolUnassigned PatrolStatus = "unassigned"
)

func AllPatrolStatuses() []PatrolStatus {
	return []PatrolStatus{PatrolAssigned, PatrolUnassigned}
}

func (s PatrolStatus) Title() string {
	switch s {
	case PatrolAssigned:
		return "Assigned"
	case PatrolUnassigned:
		return "Unassigned"
	default:
		return string(s)
	}
}

type Patrol struct {
	Identifier  string       `json:"identifier"`
	Type        string       `json:"type"`
	Status      PatrolStatus `json:"status"`
	Details     string       `json:"details,omitzero"`
	Location    Location     `json:"location"`
	PatrolGroup string       `json:"patrol_group,omitzero"`
	Created     time.Time    `json:"created,omitzero"`
	LastUpdated time.Time    `json:"last_updated,omitzero"`
}

type BroadcastCategory string

const (
	BroadcastAlert   BroadcastCategory = "alert"
	BroadcastEvent   BroadcastCategory = "event"
	BroadcastAddress BroadcastCategory = "address"
)

func AllBroadcastCategories() []BroadcastCategory {
	return []BroadcastCategory{BroadcastAlert, BroadcastEvent, BroadcastAddress}
}

func (c BroadcastCategory) Title() string {
	switch c {
	case BroadcastAlert:
		return "Alert"
	case BroadcastEvent:
		return "Event"
	case BroadcastAddress:
		return "Address"
	default:
		return string(c)
	}
}

func (c BroadcastCategory) PluralTitle() string {
	switch c {
	case BroadcastAlert:
		return "Alerts"
	case BroadcastEvent:
		return "Events"
	case BroadcastAddress:
		return "Addresses"
	default:
		return string(c)
	}
}

type Broadcast struct {
	Identifier  string            `json:"identifier"`
	Title       string            `json:"title"`
	Category    BroadcastCategory `json:"category"`
	Details     string            `json:"details,omitzero"`
	Location    *Location         `json:"location,omitzero"`
	Created     time.Time         `json:"created,omitzero"`
	LastUpdated time.Time         `json:"last_updated,omitzero"`
}
