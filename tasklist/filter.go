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

package tasklist

import (
	"github.com/fieldcad/cadfield/cad"
	"slices"
)

// Filter is the officer's task list filter. It applies to every category at once.
type Filter struct {
	// Priorities are the incident grades to show.
	Priorities []cad.Grade `json:"priorities"`

	ShowResourced   bool `json:"show_resourced"`
	ShowUnresourced bool `json:"show_unresourced"`

	ShowTasked   bool `json:"show_tasked"`
	ShowUntasked bool `json:"show_untasked"`

	// ShowOutsidePatrolArea shows items from patrol groups other than the officer's own.
	ShowOutsidePatrolArea bool `json:"show_outside_patrol_area"`

	// AlwaysShowDuress keeps resources in duress visible regardless of every other setting.
	AlwaysShowDuress bool `json:"always_show_duress"`
}

// DefaultFilter is the filter a new session starts with.
func DefaultFilter() Filter {
	return Filter{
		Priorities:       cad.AllGrades(),
		ShowResourced:    true,
		ShowUnresourced:  true,
		ShowTasked:       true,
		ShowUntasked:     true,
		AlwaysShowDuress: true,
	}
}

func (f Filter) Clone() Filter {
	f.Priorities = slices.Clone(f.Priorities)
	return f
}

func (f Filter) ShowsGrade(g cad.Grade) bool {
	return slices.Contains(f.Priorities, g)
}

// ShowsIncidentStatus applies the resourced filter. Current and assigned incidents always pass.
func (f Filter) ShowsIncidentStatus(s cad.IncidentStatus) bool {
	switch s {
	case cad.IncidentResourced:
		return f.ShowResourced
	case cad.IncidentUnresourced:
		return f.ShowUnresourced
	default:
		return true
	}
}

func (f Filter) ShowsTasked(tasked bool) bool {
	if tasked {
		return f.ShowTasked
	}
	return f.ShowUntasked
}

// ShowsPatrolGroup reports whether an item in itemGroup is in view for an officer in
// viewerGroup. With no book-on there is no patrol area, so everything is in view, as are
// items with no patrol group.
func (f Filter) ShowsPatrolGroup(viewerGroup, itemGroup string) bool {
	if f.ShowOutsidePatrolArea || viewerGroup == "" || itemGroup == "" {
		return true
	}
	return viewerGroup == itemGroup
}
