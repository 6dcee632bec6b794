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

package tasklist_test

import (
	"github.com/fieldcad/cadfield/cad"
	"github.com/fieldcad/cadfield/cadstate"
	"github.com/fieldcad/cadfield/status"
	"github.com/fieldcad/cadfield/tasklist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

var base = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *cadstate.Store {
	t.Helper()
	s := cadstate.New(status.Default())
	s.Apply(cad.Snapshot{
		Incidents: []cad.Incident{
			{Identifier: "I3", Type: "Noise complaint", Grade: cad.GradeP3, PatrolGroup: "Carlton", LastUpdated: base.Add(3 * time.Minute)},
			{Identifier: "I1", Type: "Assault", Grade: cad.GradeP1, PatrolGroup: "Carlton", LastUpdated: base,
				Location: cad.Location{FullAddress: "12 Lygon St", Suburb: "Carlton"}},
			{Identifier: "I2", Type: "Burglary", Grade: cad.GradeP2, PatrolGroup: "Fitzroy", LastUpdated: base.Add(time.Minute)},
			{Identifier: "I4", Type: "Shoplifting", Grade: cad.GradeP2, PatrolGroup: "Carlton", LastUpdated: base.Add(2 * time.Minute)},
		},
		Patrols: []cad.Patrol{
			{Identifier: "PT1", Type: "Licensed venue check", Status: cad.PatrolAssigned, PatrolGroup: "Carlton", LastUpdated: base},
			{Identifier: "PT2", Type: "School zone", Status: cad.PatrolUnassigned, PatrolGroup: "Fitzroy", LastUpdated: base},
		},
		Broadcasts: []cad.Broadcast{
			{Identifier: "B1", Title: "Stolen vehicle", Category: cad.BroadcastAlert, LastUpdated: base},
			{Identifier: "B2", Title: "Street festival", Category: cad.BroadcastEvent, LastUpdated: base.Add(time.Minute)},
			{Identifier: "B3", Title: "Armed occupant", Category: cad.BroadcastAlert, LastUpdated: base.Add(time.Minute)},
		},
		Resources: []cad.Resource{
			{Callsign: "P24", Status: status.AtIncident, CurrentIncident: "I1", PatrolGroup: "Carlton", PayrollIDs: []string{"100"}},
			{Callsign: "K9", Status: status.OnAir, PatrolGroup: "Carlton"},
			{Callsign: "D7", Status: status.Duress, CurrentIncident: "I2", PatrolGroup: "Fitzroy"},
			{Callsign: "P30", Status: status.OffDuty, PatrolGroup: "Carlton"},
			{Callsign: "A1", Status: status.Proceeding, AssignedIncidents: []string{"I4"}, PatrolGroup: "Carlton"},
		},
		Officers: []cad.Officer{
			{PayrollID: "100", Rank: "Sgt", GivenName: "Jane", FamilyName: "Citizen"},
		},
	})
	return s
}

func keys(sections []tasklist.Section) []string {
	var result []string
	for _, s := range sections {
		result = append(result, s.Key)
	}
	return result
}

func ids(items []tasklist.Item) []string {
	var result []string
	for _, it := range items {
		result = append(result, it.ID)
	}
	return result
}

func TestCategories(t *testing.T) {
	t.Parallel()
	cats := tasklist.Categories()
	require.Len(t, cats, 4)
	assert.Equal(t, tasklist.KindIncident, cats[0].Kind)
	assert.Equal(t, tasklist.KindResource, cats[3].Kind)
	for _, c := range cats {
		assert.Equal(t, c.Kind == tasklist.KindIncident, c.CanCreate)
	}
	reg := tasklist.NewRegistry(cadstate.New(status.Default()).ViewFor(""))
	assert.Equal(t, cats, reg.Categories())
	assert.Equal(t, 2, reg.Index(tasklist.KindBroadcast))
	assert.Equal(t, -1, reg.Index("nope"))
}

func TestIncidentSectionsWithoutBookOn(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	src := tasklist.NewIncidentSource(s.ViewFor(""))
	sections := src.Sections(tasklist.DefaultFilter(), "")
	assert.Equal(t, []string{"resourced", "unresourced"}, keys(sections))
	// I2 and I4 share a grade, so the more recently updated comes first
	assert.Equal(t, []string{"I1", "I4", "I2"}, ids(sections[0].Items))
	assert.Equal(t, []string{"I3"}, ids(sections[1].Items))
	assert.True(t, sections[0].Items[2].Duress)
	assert.Equal(t, cad.ColorAlert, sections[0].Items[2].BadgeColor)
	assert.Equal(t, 1, sections[0].Items[0].ResourceCount)
	assert.Equal(t, "P1 Assault", sections[0].Items[0].Title)
	assert.Equal(t, "12 Lygon St, Carlton", sections[0].Items[0].Subtitle)
}

func TestIncidentResourceCountIgnoresRepeatedAssignments(t *testing.T) {
	t.Parallel()
	s := cadstate.New(status.Default())
	s.Apply(cad.Snapshot{
		Incidents: []cad.Incident{{Identifier: "I1", Type: "Assault", Grade: cad.GradeP1}},
		Resources: []cad.Resource{
			{Callsign: "P24", Status: status.AtIncident, CurrentIncident: "I1", AssignedIncidents: []string{"I1", "I1"}},
			{Callsign: "K9", Status: status.OnAir, AssignedIncidents: []string{"I1", "I1"}},
		},
	})
	sections := tasklist.NewIncidentSource(s.ViewFor("")).Sections(tasklist.DefaultFilter(), "")
	require.Len(t, sections, 1)
	require.Len(t, sections[0].Items, 1)
	assert.Equal(t, 2, sections[0].Items[0].ResourceCount)
	assert.Len(t, s.ResourcesForIncident("I1"), sections[0].Items[0].ResourceCount)
}

func TestIncidentSectionsForBookedOnOfficer(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	require.NoError(t, s.SetBookOn("100", cad.BookOn{Callsign: "P24"}))
	src := tasklist.NewIncidentSource(s.ViewFor("100"))
	sections := src.Sections(tasklist.DefaultFilter(), "")
	assert.Equal(t, []string{"current", "resourced", "unresourced"}, keys(sections))
	assert.True(t, sections[0].PreventCollapse)
	assert.Equal(t, "Current Incident", sections[0].Title)
	assert.Equal(t, []string{"I1"}, ids(sections[0].Items))
	// I2 is outside the officer's patrol group
	assert.Equal(t, []string{"I4"}, ids(sections[1].Items))
	assert.Equal(t, []string{"I3"}, ids(sections[2].Items))
}

func TestIncidentSectioningIsComplete(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	require.NoError(t, s.SetBookOn("100", cad.BookOn{Callsign: "A1"}))
	src := tasklist.NewIncidentSource(s.ViewFor("100"))
	f := tasklist.DefaultFilter()
	f.ShowOutsidePatrolArea = true

	seen := map[string]int{}
	for _, section := range src.Sections(f, "") {
		for _, it := range section.Items {
			seen[it.ID]++
		}
	}
	filtered := src.FilteredItems(f)
	require.Len(t, seen, len(filtered))
	for _, it := range filtered {
		assert.Equal(t, 1, seen[it.ID], it.ID)
	}
	assert.Len(t, src.RawItems(), 4)
}

func TestIncidentFilter(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	src := tasklist.NewIncidentSource(s.ViewFor(""))

	f := tasklist.DefaultFilter()
	f.Priorities = []cad.Grade{cad.GradeP3}
	// I2 stays because of the duress resource
	assert.ElementsMatch(t, []string{"I3", "I2"}, ids(src.FilteredItems(f)))

	f = tasklist.DefaultFilter()
	f.ShowUnresourced = false
	assert.ElementsMatch(t, []string{"I1", "I2", "I4"}, ids(src.FilteredItems(f)))
}

func TestIncidentBadgeColorIsHighestPriority(t *testing.T) {
	t.Parallel()
	s := cadstate.New(status.Default())
	s.Apply(cad.Snapshot{Incidents: []cad.Incident{
		{Identifier: "3", Grade: cad.GradeP3},
		{Identifier: "1", Grade: cad.GradeP1},
		{Identifier: "2", Grade: cad.GradeP2},
	}})
	si := tasklist.NewIncidentSource(s.ViewFor("")).SourceItem(tasklist.DefaultFilter())
	assert.Equal(t, cad.ColorP1, si.Color)
	assert.Equal(t, 3, si.Count)
	assert.Equal(t, "INCS", si.ShortTitle)
}

func TestPatrolAndBroadcastSections(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	require.NoError(t, s.SetBookOn("100", cad.BookOn{Callsign: "P24", PatrolGroup: "Carlton"}))
	view := s.ViewFor("100")

	patrols := tasklist.NewPatrolSource(view).Sections(tasklist.DefaultFilter(), "")
	assert.Equal(t, []string{"assigned"}, keys(patrols))

	f := tasklist.DefaultFilter()
	f.ShowOutsidePatrolArea = true
	patrols = tasklist.NewPatrolSource(view).Sections(f, "")
	assert.Equal(t, []string{"assigned", "unassigned"}, keys(patrols))

	broadcasts := tasklist.NewBroadcastSource(view).Sections(tasklist.DefaultFilter(), "")
	require.Equal(t, []string{"alert", "event"}, keys(broadcasts))
	assert.Equal(t, "Alerts", broadcasts[0].Title)
	assert.Equal(t, []string{"B3", "B1"}, ids(broadcasts[0].Items))
}

func TestResourceDuressAlwaysShown(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	require.NoError(t, s.SetBookOn("100", cad.BookOn{Callsign: "P24"}))
	src := tasklist.NewResourceSource(s.ViewFor("100"))

	for _, tasked := range []bool{true, false} {
		for _, untasked := range []bool{true, false} {
			f := tasklist.DefaultFilter()
			f.ShowTasked = tasked
			f.ShowUntasked = untasked
			sections := src.Sections(f, "")
			require.NotEmpty(t, sections)
			assert.Equal(t, "duress", sections[0].Key)
			assert.True(t, sections[0].PreventCollapse)
			assert.Equal(t, []string{"D7"}, ids(sections[0].Items))
		}
	}

	sections := src.Sections(tasklist.DefaultFilter(), "")
	assert.Equal(t, []string{"duress", "tasked", "untasked"}, keys(sections))
	// P30 is off duty, so it's not shown
	assert.Equal(t, []string{"A1", "K9"}, ids(sections[2].Items))
	assert.Equal(t, "Sgt J. Citizen", sections[1].Items[0].Subtitle)
	assert.Equal(t, cad.ColorAlert, src.SourceItem(tasklist.DefaultFilter()).Color)
}

func TestResourceDuressSectionOmittedWithoutDuress(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	require.NoError(t, s.UpdateResourceStatus("D7", status.AtIncident))
	src := tasklist.NewResourceSource(s.ViewFor(""))
	sections := src.Sections(tasklist.DefaultFilter(), "")
	assert.NotContains(t, keys(sections), "duress")
	assert.Equal(t, cad.ColorNone, src.SourceItem(tasklist.DefaultFilter()).Color)
}

func TestSearch(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	view := s.ViewFor("")
	sections := tasklist.NewIncidentSource(view).Sections(tasklist.DefaultFilter(), "  LYGON ")
	require.Len(t, sections, 1)
	assert.Equal(t, []string{"I1"}, ids(sections[0].Items))

	// substring, not just prefix
	sections = tasklist.NewIncidentSource(view).Sections(tasklist.DefaultFilter(), "lift")
	require.Len(t, sections, 1)
	assert.Equal(t, []string{"I4"}, ids(sections[0].Items))

	sections = tasklist.NewResourceSource(view).Sections(tasklist.DefaultFilter(), "citizen")
	require.Len(t, sections, 1)
	assert.Equal(t, []string{"P24"}, ids(sections[0].Items))

	assert.Empty(t, tasklist.NewBroadcastSource(view).Sections(tasklist.DefaultFilter(), "zzz"))
}
