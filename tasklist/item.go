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
	"strings"
	"time"
)

// Item is one display-ready row of the task list.
type Item struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	Title      string    `json:"title"`
	Subtitle   string    `json:"subtitle,omitzero"`
	Caption    string    `json:"caption,omitzero"`
	Status     string    `json:"status,omitzero"`
	Badge      string    `json:"badge,omitzero"`
	BadgeColor cad.Color `json:"badge_color,omitzero"`
	Duress     bool      `json:"duress,omitzero"`
	Grade      cad.Grade `json:"grade,omitzero"`
	// ResourceCount is the number of resources linked to an incident.
	ResourceCount int       `json:"resource_count,omitzero"`
	Updated       time.Time `json:"updated,omitzero"`
}

// Section is a titled group of items. Sections are rebuilt on every recompute.
type Section struct {
	Key             string `json:"key"`
	Title           string `json:"title"`
	Items           []Item `json:"items"`
	PreventCollapse bool   `json:"prevent_collapse,omitzero"`
}

// SourceItem is a category's badge in the source selector.
type SourceItem struct {
	Kind       Kind      `json:"kind"`
	Title      string    `json:"title"`
	ShortTitle string    `json:"short_title"`
	Count      int       `json:"count"`
	Color      cad.Color `json:"color,omitzero"`
}

// matches applies the free-text search: a case-insensitive substring match of the trimmed
// search text against any of fields. An empty search matches everything.
func matches(search string, fields []string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
