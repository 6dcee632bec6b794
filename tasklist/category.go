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

// Package tasklist builds the officer's task list: the categorized, filtered, searched, and
// sectioned view of incidents, patrols, broadcasts, and resources.
package tasklist

// Kind identifies a task list category.
type Kind string

const (
	KindIncident  Kind = "incident"
	KindPatrol    Kind = "patrol"
	KindBroadcast Kind = "broadcast"
	KindResource  Kind = "resource"
)

// Category is one tab of the task list.
type Category struct {
	Kind       Kind   `json:"kind"`
	Title      string `json:"title"`
	ShortTitle string `json:"short_title"`
	// CanCreate means the UI offers a "create" action while this category is selected.
	CanCreate bool `json:"can_create"`
}

func IncidentCategory() Category {
	return Category{Kind: KindIncident, Title: "Incidents", ShortTitle: "INCS", CanCreate: true}
}

func PatrolCategory() Category {
	return Category{Kind: KindPatrol, Title: "Patrol", ShortTitle: "PATR"}
}

func BroadcastCategory() Category {
	return Category{Kind: KindBroadcast, Title: "Broadcast", ShortTitle: "BCST"}
}

func ResourceCategory() Category {
	return Category{Kind: KindResource, Title: "Resources", ShortTitle: "RESO"}
}
