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
	"cmp"
	"github.com/fieldcad/cadfield/cad"
	"github.com/fieldcad/cadfield/cadstate"
)

// viewer is the viewing officer's own resource and patrol group, if booked on.
type viewer struct {
	own         *cad.Resource
	patrolGroup string
}

func viewerOf(r cadstate.Reader) viewer {
	b, ok := r.BookOn()
	if !ok {
		return viewer{}
	}
	v := viewer{patrolGroup: b.PatrolGroup}
	if own, found := r.Resource(b.Callsign); found {
		v.own = &own
		if v.patrolGroup == "" {
			v.patrolGroup = own.PatrolGroup
		}
	}
	return v
}

// NewIncidentSource lists incidents, sectioned by their status relative to the viewer.
func NewIncidentSource(r cadstate.Reader) Source {
	var buckets []bucket[cad.IncidentStatus]
	for _, st := range cad.AllIncidentStatuses() {
		buckets = append(buckets, bucket[cad.IncidentStatus]{
			key:             st,
			title:           st.Title(),
			preventCollapse: st == cad.IncidentCurrent,
		})
	}
	return &source[cad.IncidentStatus]{
		category: IncidentCategory(),
		buckets:  buckets,
		load: func() ([]entry[cad.IncidentStatus], string) {
			v := viewerOf(r)
			catalog := r.Catalog()
			linked := make(map[string][]cad.Resource)
			for _, res := range r.Resources() {
				for _, id := range res.IncidentIDs() {
					linked[id] = append(linked[id], res)
				}
			}
			var entries []entry[cad.IncidentStatus]
			for _, inc := range r.Incidents() {
				resources := linked[inc.Identifier]
				duress := false
				for _, res := range resources {
					duress = duress || catalog.IsDuress(res.Status)
				}
				st := cad.ComputeIncidentStatus(inc.Identifier, v.own, resources)
				color := inc.Grade.Color()
				if duress {
					color = cad.ColorAlert
				}
				entries = append(entries, entry[cad.IncidentStatus]{
					item: Item{
						ID:            inc.Identifier,
						Kind:          KindIncident,
						Title:         inc.Title(),
						Subtitle:      inc.Location.Summary(),
						Caption:       joinNonEmpty(" • ", "#"+inc.Identifier, inc.SecondaryCode),
						Status:        st.Title(),
						Badge:         inc.Grade.Title(),
						BadgeColor:    color,
						Duress:        duress,
						Grade:         inc.Grade,
						ResourceCount: len(resources),
						Updated:       inc.LastUpdated,
					},
					bucket: st,
					search: []string{
						inc.Identifier, inc.Type, inc.Grade.Title(), inc.SecondaryCode,
						inc.Location.FullAddress, inc.Location.Suburb,
					},
					patrolGroup: inc.PatrolGroup,
				})
			}
			return entries, v.patrolGroup
		},
		keep: func(e entry[cad.IncidentStatus], f Filter, viewerGroup string) bool {
			if !f.ShowsPatrolGroup(viewerGroup, e.patrolGroup) {
				return false
			}
			if e.bucket == cad.IncidentCurrent || e.item.Duress {
				return true
			}
			return f.ShowsGrade(e.item.Grade) && f.ShowsIncidentStatus(e.bucket)
		},
		compare: func(a, b entry[cad.IncidentStatus]) int {
			if c := cmp.Compare(gradeRank(a.item.Grade), gradeRank(b.item.Grade)); c != 0 {
				return c
			}
			return newestFirst(a, b)
		},
		color: func(kept []entry[cad.IncidentStatus]) cad.Color {
			var highest cad.Grade
			for _, e := range kept {
				if e.item.Grade.HigherThan(highest) {
					highest = e.item.Grade
				}
			}
			return highest.Color()
		},
	}
}

// gradeRank puts ungraded incidents after every graded one.
func gradeRank(g cad.Grade) int {
	if !g.Valid() {
		return int(cad.GradeP4) + 1
	}
	return int(g)
}

// NewPatrolSource lists patrols in the viewer's patrol area.
func NewPatrolSource(r cadstate.Reader) Source {
	var buckets []bucket[cad.PatrolStatus]
	for _, st := range cad.AllPatrolStatuses() {
		buckets = append(buckets, bucket[cad.PatrolStatus]{key: st, title: st.Title()})
	}
	return &source[cad.PatrolStatus]{
		category: PatrolCategory(),
		buckets:  buckets,
		load: func() ([]entry[cad.PatrolStatus], string) {
			v := viewerOf(r)
			var entries []entry[cad.PatrolStatus]
			for _, p := range r.Patrols() {
				entries = append(entries, entry[cad.PatrolStatus]{
					item: Item{
						ID:       p.Identifier,
						Kind:     KindPatrol,
						Title:    p.Type,
						Subtitle: p.Location.Summary(),
						Caption:  "#" + p.Identifier,
						Status:   p.Status.Title(),
						Updated:  p.LastUpdated,
					},
					bucket:      p.Status,
					search:      []string{p.Identifier, p.Type, p.Details, p.Location.FullAddress, p.Location.Suburb},
					patrolGroup: p.PatrolGroup,
				})
			}
			return entries, v.patrolGroup
		},
		keep: func(e entry[cad.PatrolStatus], f Filter, viewerGroup string) bool {
			return f.ShowsPatrolGroup(viewerGroup, e.patrolGroup)
		},
		compare: newestFirst[cad.PatrolStatus],
	}
}

// NewBroadcastSource lists every broadcast, sectioned by category.
func NewBroadcastSource(r cadstate.Reader) Source {
	var buckets []bucket[cad.BroadcastCategory]
	for _, c := range cad.AllBroadcastCategories() {
		buckets = append(buckets, bucket[cad.BroadcastCategory]{key: c, title: c.PluralTitle()})
	}
	return &source[cad.BroadcastCategory]{
		category: BroadcastCategory(),
		buckets:  buckets,
		load: func() ([]entry[cad.BroadcastCategory], string) {
			var entries []entry[cad.BroadcastCategory]
			for _, b := range r.Broadcasts() {
				var loc cad.Location
				if b.Location != nil {
					loc = *b.Location
				}
				subtitle := loc.Summary()
				if subtitle == "" {
					subtitle = b.Details
				}
				entries = append(entries, entry[cad.BroadcastCategory]{
					item: Item{
						ID:       b.Identifier,
						Kind:     KindBroadcast,
						Title:    b.Title,
						Subtitle: subtitle,
						Caption:  joinNonEmpty(" • ", "#"+b.Identifier, b.Category.Title()),
						Status:   b.Category.Title(),
						Updated:  b.LastUpdated,
					},
					bucket: b.Category,
					search: []string{b.Identifier, b.Title, b.Details, loc.FullAddress, loc.Suburb},
				})
			}
			return entries, ""
		},
		keep: func(entry[cad.BroadcastCategory], Filter, string) bool {
			return true
		},
		compare: newestFirst[cad.BroadcastCategory],
	}
}

type resourceBucket string

const (
	resourceDuress   resourceBucket = "duress"
	resourceTasked   resourceBucket = "tasked"
	resourceUntasked resourceBucket = "untasked"
)

// NewResourceSource lists resources, with any in duress in their own section at the top.
func NewResourceSource(r cadstate.Reader) Source {
	return &source[resourceBucket]{
		category: ResourceCategory(),
		buckets: []bucket[resourceBucket]{
			{key: resourceDuress, title: "Duress", preventCollapse: true},
			{key: resourceTasked, title: "Tasked"},
			{key: resourceUntasked, title: "Untasked"},
		},
		load: func() ([]entry[resourceBucket], string) {
			v := viewerOf(r)
			catalog := r.Catalog()
			officers := make(map[string]cad.Officer)
			for _, o := range r.Officers() {
				officers[o.PayrollID] = o
			}
			var entries []entry[resourceBucket]
			for _, res := range r.Resources() {
				def, known := catalog.Lookup(res.Status)
				duress := known && def.Duress
				var names []string
				for _, id := range res.PayrollIDs {
					if o, ok := officers[id]; ok {
						names = append(names, o.DisplayName())
					}
				}
				subtitle := joinNonEmpty(", ", names...)
				if subtitle == "" {
					subtitle = res.Type.Title()
				}
				var incidentRef string
				if res.CurrentIncident != "" {
					incidentRef = "#" + res.CurrentIncident
				}
				b := resourceUntasked
				switch {
				case duress:
					b = resourceDuress
				case res.IsTasked():
					b = resourceTasked
				}
				var color cad.Color
				if duress {
					color = cad.ColorAlert
				}
				statusTitle := catalog.Title(res.Status)
				entries = append(entries, entry[resourceBucket]{
					item: Item{
						ID:         res.Callsign,
						Kind:       KindResource,
						Title:      res.Callsign,
						Subtitle:   subtitle,
						Caption:    joinNonEmpty(" • ", res.Type.Title(), incidentRef),
						Status:     statusTitle,
						BadgeColor: color,
						Duress:     duress,
						Updated:    res.LastUpdated,
					},
					bucket:      b,
					search:      append([]string{res.Callsign, res.Type.Title(), statusTitle, res.CurrentIncident}, names...),
					patrolGroup: res.PatrolGroup,
					tasked:      res.IsTasked(),
					// unknown statuses are treated as shown
					shownOnMap: !known || def.ShownOnMap(),
				})
			}
			return entries, v.patrolGroup
		},
		keep: func(e entry[resourceBucket], f Filter, viewerGroup string) bool {
			if e.item.Duress && f.AlwaysShowDuress {
				return true
			}
			return f.ShowsPatrolGroup(viewerGroup, e.patrolGroup) &&
				e.shownOnMap &&
				(e.item.Duress || f.ShowsTasked(e.tasked))
		},
		compare: func(a, b entry[resourceBucket]) int {
			return cmp.Compare(a.item.ID, b.item.ID)
		},
		color: func(kept []entry[resourceBucket]) cad.Color {
			for _, e := range kept {
				if e.item.Duress {
					return cad.ColorAlert
				}
			}
			return cad.ColorNone
		},
	}
}
