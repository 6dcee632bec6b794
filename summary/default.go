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

package summary

import (
	"github.com/fieldcad/cadfield/cad"
	"github.com/fieldcad/cadfield/cadstate"
	"github.com/fieldcad/cadfield/status"
	"strings"
)

const (
	KindIncident  = "incident"
	KindResource  = "resource"
	KindPatrol    = "patrol"
	KindBroadcast = "broadcast"
	KindOfficer   = "officer"
)

func route(kind, id string) string {
	return "/" + kind + "s/" + id
}

// Default registers adapters for every CAD entity type. catalog resolves resource status
// titles and icons.
func Default(catalog *status.Catalog) *Registry {
	r := NewRegistry()
	Register(r, KindIncident,
		func(i cad.Incident) Summary {
			return Summary{
				Kind:       KindIncident,
				ID:         i.Identifier,
				Title:      i.Title(),
				Subtitle:   i.Location.Summary(),
				Badge:      i.Grade.Title(),
				BadgeColor: i.Grade.Color(),
				Thumbnail:  "incident",
			}
		},
		func(i cad.Incident) Presentable {
			return Presentable{Kind: KindIncident, ID: i.Identifier, Title: i.Title(), Route: route(KindIncident, i.Identifier)}
		},
	)
	Register(r, KindResource,
		func(res cad.Resource) Summary {
			s := Summary{
				Kind:     KindResource,
				ID:       res.Callsign,
				Title:    res.Callsign,
				Subtitle: res.Type.Title(),
				Badge:    catalog.Title(res.Status),
			}
			if def, ok := catalog.Lookup(res.Status); ok {
				s.Thumbnail = def.Icon
			}
			if catalog.IsDuress(res.Status) {
				s.BadgeColor = cad.ColorAlert
			}
			return s
		},
		func(res cad.Resource) Presentable {
			return Presentable{Kind: KindResource, ID: res.Callsign, Title: res.Callsign, Route: route(KindResource, res.Callsign)}
		},
	)
	Register(r, KindPatrol,
		func(p cad.Patrol) Summary {
			return Summary{
				Kind:      KindPatrol,
				ID:        p.Identifier,
				Title:     p.Type,
				Subtitle:  p.Location.Summary(),
				Badge:     p.Status.Title(),
				Thumbnail: "patrol",
			}
		},
		func(p cad.Patrol) Presentable {
			return Presentable{Kind: KindPatrol, ID: p.Identifier, Title: p.Type, Route: route(KindPatrol, p.Identifier)}
		},
	)
	Register(r, KindBroadcast,
		func(b cad.Broadcast) Summary {
			s := Summary{
				Kind:      KindBroadcast,
				ID:        b.Identifier,
				Title:     b.Title,
				Badge:     b.Category.Title(),
				Thumbnail: "broadcast_" + string(b.Category),
			}
			if b.Location != nil {
				s.Subtitle = b.Location.Summary()
			}
			if b.Category == cad.BroadcastAlert {
				s.BadgeColor = cad.ColorAlert
			}
			return s
		},
		func(b cad.Broadcast) Presentable {
			return Presentable{Kind: KindBroadcast, ID: b.Identifier, Title: b.Title, Route: route(KindBroadcast, b.Identifier)}
		},
	)
	Register(r, KindOfficer,
		func(o cad.Officer) Summary {
			return Summary{
				Kind:      KindOfficer,
				ID:        o.PayrollID,
				Title:     o.DisplayName(),
				Subtitle:  strings.TrimSpace(o.GivenName + " " + o.FamilyName),
				Badge:     "#" + o.PayrollID,
				Thumbnail: "officer",
			}
		},
		func(o cad.Officer) Presentable {
			return Presentable{Kind: KindOfficer, ID: o.PayrollID, Title: o.DisplayName(), Route: route(KindOfficer, o.PayrollID)}
		},
	)
	return r
}

// Find resolves an entity by kind and identifier. Unknown kinds and identifiers are
// (nil, false).
func Find(reader cadstate.Reader, kind, id string) (any, bool) {
	switch kind {
	case KindIncident:
		return found(reader.Incident(id))
	case KindResource:
		return found(reader.Resource(id))
	case KindOfficer:
		return found(reader.Officer(id))
	case KindPatrol:
		for _, p := range reader.Patrols() {
			if p.Identifier == id {
				return p, true
			}
		}
	case KindBroadcast:
		for _, b := range reader.Broadcasts() {
			if b.Identifier == id {
				return b, true
			}
		}
	}
	return nil, false
}

func found[T any](v T, ok bool) (any, bool) {
	if !ok {
		return nil, false
	}
	return v, true
}
