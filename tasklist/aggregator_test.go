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
	"context"
	"github.com/fieldcad/cadfield/cad"
	"github.com/fieldcad/cadfield/cadstate"
	"github.com/fieldcad/cadfield/status"
	"github.com/fieldcad/cadfield/tasklist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type recomputes struct {
	mu    sync.Mutex
	kinds []string
}

func (r *recomputes) ObserveRecompute(category string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, category)
}

func (r *recomputes) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.kinds)
}

func TestAggregatorIsIdempotent(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	agg := tasklist.NewAggregator(tasklist.NewRegistry(s.ViewFor("")))
	first := agg.Sections()
	agg.Refresh()
	assert.Equal(t, first, agg.Sections())
	agg.Refresh()
	assert.Equal(t, first, agg.Sections())
}

func TestAggregatorSelection(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	agg := tasklist.NewAggregator(tasklist.NewRegistry(s.ViewFor("")))
	assert.True(t, agg.CanCreate())
	assert.Equal(t, tasklist.KindIncident, agg.View().Category.Kind)

	require.NoError(t, agg.Select(2))
	assert.False(t, agg.CanCreate())
	v := agg.View()
	assert.Equal(t, tasklist.KindBroadcast, v.Category.Kind)
	assert.Equal(t, "alert", v.Sections[0].Key)

	require.NoError(t, agg.SelectKind(tasklist.KindResource))
	assert.Equal(t, 3, agg.View().Selected)

	require.ErrorIs(t, agg.Select(4), tasklist.ErrUnknownCategory)
	require.ErrorIs(t, agg.Select(-1), tasklist.ErrUnknownCategory)
	require.ErrorIs(t, agg.SelectKind("nope"), tasklist.ErrUnknownCategory)
	assert.Equal(t, 3, agg.View().Selected)
}

func TestAggregatorBadgesCoverEveryCategory(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	agg := tasklist.NewAggregator(tasklist.NewRegistry(s.ViewFor("")))
	badges := agg.Badges()
	require.Len(t, badges, 4)
	assert.Equal(t, 4, badges[0].Count)
	assert.Equal(t, cad.ColorP1, badges[0].Color)
	assert.Equal(t, 2, badges[1].Count)
	assert.Equal(t, 3, badges[2].Count)
	// P30 is off duty
	assert.Equal(t, 4, badges[3].Count)
	assert.Equal(t, cad.ColorAlert, badges[3].Color)
}

func TestAggregatorSearchAndFilter(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	agg := tasklist.NewAggregator(tasklist.NewRegistry(s.ViewFor("")))

	agg.SetSearch("assault")
	sections := agg.Sections()
	require.Len(t, sections, 1)
	assert.Equal(t, []string{"I1"}, ids(sections[0].Items))
	// badges count filtered items, not searched ones
	assert.Equal(t, 4, agg.Badges()[0].Count)

	agg.SetSearch("")
	f := tasklist.DefaultFilter()
	f.Priorities = []cad.Grade{cad.GradeP1}
	agg.SetFilter(f)
	// I1 by grade, I2 by duress
	assert.Equal(t, 2, agg.Badges()[0].Count)
	assert.Equal(t, []cad.Grade{cad.GradeP1}, agg.Filter().Priorities)
}

func TestAggregatorOnChange(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	agg := tasklist.NewAggregator(tasklist.NewRegistry(s.ViewFor("")))

	var views []tasklist.View
	unsubscribe := agg.OnChange(func(v tasklist.View) {
		views = append(views, v)
	})

	agg.Refresh()
	assert.Empty(t, views, "nothing changed")

	require.NoError(t, s.UpdateResourceStatus("D7", status.AtIncident))
	agg.Refresh()
	require.Len(t, views, 1)
	assert.Equal(t, cad.ColorNone, views[0].Badges[3].Color)

	unsubscribe()
	require.NoError(t, s.UpdateResourceStatus("D7", status.Duress))
	agg.Refresh()
	assert.Len(t, views, 1)
}

func TestAggregatorCoalescesInvalidations(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	obs := &recomputes{}
	agg := tasklist.NewAggregator(tasklist.NewRegistry(s.ViewFor("")), tasklist.WithRecomputeObserver(obs))
	require.Equal(t, 1, obs.count())

	// with nothing draining, a burst of invalidations leaves a single pending recompute
	for range 10 {
		agg.Invalidate()
	}
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go agg.Run(ctx)
	require.Eventually(t, func() bool { return obs.count() == 2 }, 5*time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, obs.count())
}

func TestAggregatorFollowsStore(t *testing.T) {
	t.Parallel()
	s := cadstate.New(status.Default())
	agg := tasklist.NewAggregator(tasklist.NewRegistry(s.ViewFor("")))
	s.Subscribe(func(cadstate.Change) { agg.Invalidate() })

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go agg.Run(ctx)

	changed := make(chan tasklist.View, 10)
	agg.OnChange(func(v tasklist.View) { changed <- v })

	assert.Empty(t, agg.Sections())
	for i := range 5 {
		s.Apply(cad.Snapshot{Incidents: []cad.Incident{{Identifier: "I1", Grade: cad.GradeP2, Type: "Theft"}}})
		if i == 0 {
			select {
			case <-changed:
			case <-time.After(5 * time.Second):
				t.Fatal("no change notification")
			}
		}
	}
	require.Eventually(t, func() bool {
		sections := agg.Sections()
		return len(sections) == 1 && len(sections[0].Items) == 1
	}, 5*time.Second, 5*time.Millisecond)
}

// stallOnce holds up the first recompute after it's armed, once that recompute has built
// its view.
type stallOnce struct {
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (s *stallOnce) ObserveRecompute(string, time.Duration) {
	if s.armed.CompareAndSwap(true, false) {
		close(s.entered)
		<-s.release
	}
}

func TestAggregatorDeliversViewsInOrder(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	stall := &stallOnce{entered: make(chan struct{}), release: make(chan struct{})}
	agg := tasklist.NewAggregator(tasklist.NewRegistry(s.ViewFor("")), tasklist.WithRecomputeObserver(stall))

	var mu sync.Mutex
	var delivered []string
	agg.OnChange(func(v tasklist.View) {
		mu.Lock()
		defer mu.Unlock()
		delivered = append(delivered, v.Search)
	})

	stall.armed.Store(true)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		agg.SetSearch("Assault")
	}()
	<-stall.entered

	go func() {
		defer wg.Done()
		agg.SetSearch("Noise")
	}()
	require.Eventually(t, func() bool { return agg.View().Search == "Noise" }, 5*time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(stall.release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, delivered)
	assert.Equal(t, "Noise", delivered[len(delivered)-1])
	assert.Equal(t, "Noise", agg.View().Search)
	sections := agg.Sections()
	require.Len(t, sections, 1)
	assert.Equal(t, []string{"I3"}, ids(sections[0].Items))
}
