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
	"github.com/fieldcad/cadfield/cadstate"
)

// Registry is the ordered set of task sources. The order is the source selector's order.
type Registry struct {
	sources []Source
}

// NewRegistry returns the standard registry: incidents, patrols, broadcasts, then resources.
func NewRegistry(r cadstate.Reader) *Registry {
	return NewRegistryOf(
		NewIncidentSource(r),
		NewPatrolSource(r),
		NewBroadcastSource(r),
		NewResourceSource(r),
	)
}

func NewRegistryOf(sources ...Source) *Registry {
	return &Registry{sources: sources}
}

func (r *Registry) Sources() []Source {
	return append([]Source(nil), r.sources...)
}

func (r *Registry) Categories() []Category {
	result := make([]Category, 0, len(r.sources))
	for _, s := range r.sources {
		result = append(result, s.Category())
	}
	return result
}

// Index returns the position of kind's source, or -1.
func (r *Registry) Index(kind Kind) int {
	for i, s := range r.sources {
		if s.Category().Kind == kind {
			return i
		}
	}
	return -1
}

func (r *Registry) Len() int {
	return len(r.sources)
}

func (r *Registry) At(i int) Source {
	return r.sources[i]
}

// Categories returns the standard categories in display order.
func Categories() []Category {
	return []Category{IncidentCategory(), PatrolCategory(), BroadcastCategory(), ResourceCategory()}
}
