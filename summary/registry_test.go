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

package summary_test

import (
	"github.com/fieldcad/cadfield/cad"
	"github.com/fieldcad/cadfield/cadstate"
	"github.com/fieldcad/cadfield/status"
	"github.com/fieldcad/cadfield/summary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestDefaultRegistrations(t *testing.T) {
	t.Parallel()
	r := summary.Default(status.Default())
	assert.Equal(t, []string{"broadcast", "incident", "officer", "patrol", "resource"}, r.Kinds())

	s, ok := r.Summary(cad.Incident{Identifier: "I1", Type: "Assault", Grade: cad.GradeP1,
		Location: cad.Location{FullAddress: "1 Main St", Suburb: "Fitzroy"}})
	require.True(t, ok)
	assert.Equal(t, summary.Summary{
		Kind:       "incident",
		ID:         "I1",
		Title:      "P1 Assault",
		Subtitle:   "1 Main St, Fitzroy",
		Badge:      "P1",
		BadgeColor: cad.ColorP1,
		Thumbnail:  "incident",
	}, s)

	p, ok := r.Presentable(cad.Resource{Callsign: "P24"})
	require.True(t, ok)
	assert.Equal(t, "/resources/P24", p.Route)

	s, ok = r.Summary(cad.Resource{Callsign: "P24", Type: cad.ResourceVehicle, Status: status.Duress})
	require.True(t, ok)
	assert.Equal(t, cad.ColorAlert, s.BadgeColor)
	assert.Equal(t, "Vehicle", s.Subtitle)

	kind, ok := r.Kind(cad.Officer{PayrollID: "100"})
	require.True(t, ok)
	assert.Equal(t, "officer", kind)
}

func TestMissIsNotFatal(t *testing.T) {
	t.Parallel()
	r := summary.Default(status.Default())
	_, ok := r.Summary(struct{ Name string }{"mystery"})
	assert.False(t, ok)
	_, ok = r.Presentable(nil)
	assert.False(t, ok)
	// registrations are by exact type
	_, ok = r.Summary(&cad.Incident{Identifier: "I1"})
	assert.False(t, ok)
}

func TestRegisterReplaces(t *testing.T) {
	t.Parallel()
	r := summary.NewRegistry()
	summary.Register(r, "grade",
		func(g cad.Grade) summary.Summary { return summary.Summary{Title: g.Title()} },
		func(g cad.Grade) summary.Presentable { return summary.Presentable{} },
	)
	summary.Register(r, "grade",
		func(g cad.Grade) summary.Summary { return summary.Summary{Title: "grade " + g.Title()} },
		func(g cad.Grade) summary.Presentable { return summary.Presentable{} },
	)
	s, ok := r.Summary(cad.GradeP2)
	require.True(t, ok)
	assert.Equal(t, "grade P2", s.Title)
	assert.Equal(t, []string{"grade"}, r.Kinds())
}

func TestFind(t *testing.T) {
	t.Parallel()
	store := cadstate.New(status.Default())
	store.Apply(cad.Snapshot{
		Incidents:  []cad.Incident{{Identifier: "I1"}},
		Patrols:    []cad.Patrol{{Identifier: "PT1"}},
		Broadcasts: []cad.Broadcast{{Identifier: "B1"}},
		Resources:  []cad.Resource{{Callsign: "P24"}},
		Officers:   []cad.Officer{{PayrollID: "100"}},
	})
	view := store.ViewFor("")
	for kind, id := range map[string]string{
		summary.KindIncident:  "I1",
		summary.KindPatrol:    "PT1",
		summary.KindBroadcast: "B1",
		summary.KindResource:  "P24",
		summary.KindOfficer:   "100",
	} {
		_, ok := summary.Find(view, kind, id)
		assert.Truef(t, ok, "%v %v", kind, id)
		_, ok = summary.Find(view, kind, "missing")
		assert.Falsef(t, ok, "%v missing", kind)
	}
	_, ok := summary.Find(view, "vehicle", "P24")
	assert.False(t, ok)
}
