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
	"slices"
)

// Source produces the items of one category from the State Store.
// Every method reads the store at call time.
type Source interface {
	Category() Category
	// RawItems are all of the category's items, unfiltered.
	RawItems() []Item
	// FilteredItems are the items that pass the category's filter predicate.
	FilteredItems(f Filter) []Item
	// Sections buckets the filtered items that match search, in the category's section
	// order. Empty sections are omitted.
	Sections(f Filter, search string) []Section
	SourceItem(f Filter) SourceItem
}

// entry is an item plus what the category needs to filter, bucket, and search it.
type entry[K ~string] struct {
	item        Item
	bucket      K
	search      []string
	patrolGroup string
	tasked      bool
	shownOnMap  bool
}

type bucket[K ~string] struct {
	key             K
	title           string
	preventCollapse bool
}

// source implements Source for one category. The category supplies the pieces.
type source[K ~string] struct {
	category Category
	buckets  []bucket[K]
	load     func() (entries []entry[K], viewerGroup string)
	keep     func(e entry[K], f Filter, viewerGroup string) bool
	compare  func(a, b entry[K]) int
	color    func(kept []entry[K]) cad.Color
}

func (s *source[K]) Category() Category {
	return s.category
}

func (s *source[K]) filtered(f Filter) []entry[K] {
	entries, viewerGroup := s.load()
	return slices.DeleteFunc(entries, func(e entry[K]) bool {
		return !s.keep(e, f, viewerGroup)
	})
}

func (s *source[K]) RawItems() []Item {
	entries, _ := s.load()
	return items(entries)
}

func (s *source[K]) FilteredItems(f Filter) []Item {
	return items(s.filtered(f))
}

func (s *source[K]) Sections(f Filter, search string) []Section {
	byBucket := make(map[K][]entry[K])
	for _, e := range s.filtered(f) {
		if !matches(search, e.search) {
			continue
		}
		byBucket[e.bucket] = append(byBucket[e.bucket], e)
	}
	var sections []Section
	for _, b := range s.buckets {
		entries := byBucket[b.key]
		if len(entries) == 0 {
			continue
		}
		slices.SortStableFunc(entries, s.compare)
		sections = append(sections, Section{
			Key:             string(b.key),
			Title:           b.title,
			Items:           items(entries),
			PreventCollapse: b.preventCollapse,
		})
	}
	return sections
}

func (s *source[K]) SourceItem(f Filter) SourceItem {
	kept := s.filtered(f)
	si := SourceItem{
		Kind:       s.category.Kind,
		Title:      s.category.Title,
		ShortTitle: s.category.ShortTitle,
		Count:      len(kept),
	}
	if s.color != nil {
		si.Color = s.color(kept)
	}
	return si
}

func items[K ~string](entries []entry[K]) []Item {
	result := make([]Item, 0, len(entries))
	for _, e := range entries {
		result = append(result, e.item)
	}
	return result
}

// newestFirst orders by most recently updated, then by ID.
func newestFirst[K ~string](a, b entry[K]) int {
	if c := b.item.Updated.Compare(a.item.Updated); c != 0 {
		return c
	}
	return cmp.Compare(a.item.ID, b.item.ID)
}
