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

package status

import (
	"log/slog"
)

// Decision is the answer to "can a resource move from one status to another".
type Decision struct {
	Allowed        bool `json:"allowed"`
	RequiresReason bool `json:"requires_reason"`
}

// Policy answers status transition questions against a Catalog.
//
// The rules, in precedence order:
//  1. Changing to the same status is not allowed.
//  2. A blocked transition from the catalog is not allowed.
//  3. Leaving an incident-related status for a general one is allowed, with a reason.
//  4. Anything else is allowed without a reason.
type Policy struct {
	catalog *Catalog
	blocked map[Transition]struct{}
}

func NewPolicy(catalog *Catalog) *Policy {
	p := &Policy{
		catalog: catalog,
		blocked: make(map[Transition]struct{}),
	}
	for _, t := range catalog.Blocked() {
		p.blocked[t] = struct{}{}
	}
	return p
}

func (p *Policy) Catalog() *Catalog {
	return p.catalog
}

func (p *Policy) CanChangeStatus(current, proposed Code) Decision {
	from, okFrom := p.catalog.Lookup(current)
	to, okTo := p.catalog.Lookup(proposed)
	if !okFrom || !okTo {
		slog.Debug("Status transition refers to an unknown status", "current", current, "proposed", proposed)
		return Decision{}
	}
	if current == proposed {
		return Decision{}
	}
	if _, blocked := p.blocked[Transition{From: current, To: proposed}]; blocked {
		return Decision{}
	}
	if from.IncidentRelated && !to.IncidentRelated {
		return Decision{Allowed: true, RequiresReason: true}
	}
	return Decision{Allowed: true}
}

// CanCreateIncident reports whether a resource in status from may originate a new incident.
func (p *Policy) CanCreateIncident(from Code) bool {
	d, ok := p.catalog.Lookup(from)
	return ok && !d.IncidentRelated
}

func (p *Policy) CanTerminateShift(from Code) bool {
	d, ok := p.catalog.Lookup(from)
	return ok && d.CanTerminateShift
}
