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
	"github.com/fieldcad/cadfield/summary"
	"github.com/fieldcad/cadfield/tasklist"
)

// TaskSelection changes what an officer's task list shows. Unset fields are left alone.
// Index and Kind both select a category; Kind wins if both are set.
type TaskSelection struct {
	Index  *int           `json:"index,omitzero"`
	Kind   *tasklist.Kind `json:"kind,omitzero"`
	Search *string        `json:"search,omitzero"`
}

type EntitySummary struct {
	Summary     summary.Summary     `json:"summary"`
	Presentable summary.Presentable `json:"presentable"`
}
