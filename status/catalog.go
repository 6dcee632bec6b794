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
	"errors"
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
	"sync"
)

// Code identifies a resource status within a Catalog.
type Code string

// DetailKind names the structured input a status needs before it can be committed.
type DetailKind string

const (
	DetailNone        DetailKind = ""
	DetailFinalise    DetailKind = "finalise"
	DetailTrafficStop DetailKind = "traffic_stop"
)

func (d DetailKind) Validate() error {
	switch d {
	case DetailNone, DetailFinalise, DetailTrafficStop:
		return nil
	default:
		return fmt.Errorf("unknown detail kind %v", d)
	}
}

// The default catalog's codes. Clients that load their own catalog may use any codes.
const (
	Unavailable Code = "unavailable"
	OnAir       Code = "on_air"
	MealBreak   Code = "meal_break"
	TrafficStop Code = "traffic_stop"
	Court       Code = "court"
	AtStation   Code = "at_station"
	OnCall      Code = "on_call"
	Inquiries   Code = "inquiries"
	Duress      Code = "duress"
	OffDuty     Code = "off_duty"
	Proceeding  Code = "proceeding"
	AtIncident  Code = "at_incident"
	Finalise    Code = "finalise"
	Inquiries2  Code = "inquiries_2"
)

// Definition describes one status. Definitions are immutable once they are in a Catalog.
type Definition struct {
	Code              Code       `yaml:"code" json:"code"`
	Title             string     `yaml:"title" json:"title"`
	Icon              string     `yaml:"icon" json:"icon"`
	IncidentRelated   bool       `yaml:"incident_related" json:"incident_related"`
	CanTerminateShift bool       `yaml:"can_terminate_shift" json:"can_terminate_shift"`
	Duress            bool       `yaml:"duress" json:"duress"`
	HiddenFromMap     bool       `yaml:"hidden_from_map" json:"hidden_from_map"`
	Detail            DetailKind `yaml:"detail" json:"detail,omitzero"`
}

func (d Definition) ShownOnMap() bool {
	return !d.HiddenFromMap
}

// Transition is an ordered pair of statuses.
type Transition struct {
	From Code `yaml:"from" json:"from"`
	To   Code `yaml:"to" json:"to"`
}

// Catalog is an ordered, validated set of status definitions.
//
// Every Catalog partitions its statuses into a general subset and an incident-related
// subset, and both subsets are non-empty.
type Catalog struct {
	defs    []Definition
	index   map[Code]int
	blocked []Transition
}

// NewCatalog validates defs and returns a Catalog preserving their order.
func NewCatalog(defs []Definition, blocked ...Transition) (*Catalog, error) {
	var errs []error
	c := &Catalog{
		defs:    make([]Definition, 0, len(defs)),
		index:   make(map[Code]int, len(defs)),
		blocked: append([]Transition(nil), blocked...),
	}
	var general, incident int
	for i, d := range defs {
		if d.Code == "" {
			errs = append(errs, fmt.Errorf("status %d has an empty code", i))
			continue
		}
		if _, dup := c.index[d.Code]; dup {
			errs = append(errs, fmt.Errorf("status %v is defined more than once", d.Code))
			continue
		}
		if err := d.Detail.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("status %v: %w", d.Code, err))
		}
		if d.CanTerminateShift && (d.Duress || d.IncidentRelated) {
			errs = append(errs, fmt.Errorf("status %v is duress or incident-related, so it cannot terminate a shift", d.Code))
		}
		if d.IncidentRelated {
			incident++
		} else {
			general++
		}
		c.index[d.Code] = len(c.defs)
		c.defs = append(c.defs, d)
	}
	if general == 0 {
		errs = append(errs, errors.New("catalog has no general statuses"))
	}
	if incident == 0 {
		errs = append(errs, errors.New("catalog has no incident-related statuses"))
	}
	for _, t := range blocked {
		if _, ok := c.index[t.From]; !ok {
			errs = append(errs, fmt.Errorf("blocked transition refers to unknown status %v", t.From))
		}
		if _, ok := c.index[t.To]; !ok {
			errs = append(errs, fmt.Errorf("blocked transition refers to unknown status %v", t.To))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c, nil
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := NewCatalog(defaultDefinitions())
	if err != nil {
		panic("default status catalog is invalid: " + err.Error())
	}
	return c
})

// Default returns the built-in catalog.
func Default() *Catalog {
	return defaultCatalog()
}

func defaultDefinitions() []Definition {
	return []Definition{
		{Code: Unavailable, Title: "Unavailable", Icon: "resourceUnavailable", CanTerminateShift: true},
		{Code: OnAir, Title: "On Air", Icon: "resourceOnAir", CanTerminateShift: true},
		{Code: MealBreak, Title: "Meal Break", Icon: "resourceMealBreak", CanTerminateShift: true},
		{Code: TrafficStop, Title: "Traffic Stop", Icon: "resourceTrafficStop", Detail: DetailTrafficStop},
		{Code: Court, Title: "Court", Icon: "resourceCourt", CanTerminateShift: true},
		{Code: AtStation, Title: "At Station", Icon: "resourceAtStation", CanTerminateShift: true},
		{Code: OnCall, Title: "On Call", Icon: "resourceOnCall", CanTerminateShift: true},
		{Code: Inquiries, Title: "Inquiries", Icon: "resourceInquiries", CanTerminateShift: true},
		{Code: Duress, Title: "Duress", Icon: "resourceDuress", Duress: true},
		{Code: OffDuty, Title: "Off Duty", Icon: "resourceOffDuty", CanTerminateShift: true, HiddenFromMap: true},
		{Code: Proceeding, Title: "Proceeding", Icon: "resourceProceeding", IncidentRelated: true},
		{Code: AtIncident, Title: "At Incident", Icon: "resourceAtIncident", IncidentRelated: true},
		{Code: Finalise, Title: "Finalise", Icon: "resourceFinalise", Detail: DetailFinalise},
		{Code: Inquiries2, Title: "Inquiries", Icon: "resourceInquiries", IncidentRelated: true},
	}
}

// Lookup returns the definition for code. A miss is not an error.
func (c *Catalog) Lookup(code Code) (Definition, bool) {
	i, ok := c.index[code]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}

// All returns every definition in catalog order.
func (c *Catalog) All() []Definition {
	return append([]Definition(nil), c.defs...)
}

// General returns the statuses that are not incident-related, in catalog order.
func (c *Catalog) General() []Definition {
	return c.filter(false)
}

// Incident returns the incident-related statuses, in catalog order.
func (c *Catalog) Incident() []Definition {
	return c.filter(true)
}

func (c *Catalog) filter(incidentRelated bool) []Definition {
	var result []Definition
	for _, d := range c.defs {
		if d.IncidentRelated == incidentRelated {
			result = append(result, d)
		}
	}
	return result
}

func (c *Catalog) IsIncidentRelated(code Code) bool {
	d, ok := c.Lookup(code)
	return ok && d.IncidentRelated
}

func (c *Catalog) IsDuress(code Code) bool {
	d, ok := c.Lookup(code)
	return ok && d.Duress
}

// Title returns the display title for code, or the code itself on a lookup miss.
func (c *Catalog) Title(code Code) string {
	d, ok := c.Lookup(code)
	if !ok {
		return string(code)
	}
	return d.Title
}

func (c *Catalog) Blocked() []Transition {
	return append([]Transition(nil), c.blocked...)
}

type catalogFile struct {
	Statuses []Definition `yaml:"statuses"`
	Blocked  []Transition `yaml:"blocked"`
}

// ParseCatalog reads a catalog from YAML of the form
//
//	statuses:
//	  - code: on_air
//	    title: On Air
//	blocked:
//	  - from: duress
//	    to: off_duty
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("[yaml.Unmarshal]: %w", err)
	}
	c, err := NewCatalog(f.Statuses, f.Blocked...)
	if err != nil {
		return nil, fmt.Errorf("[NewCatalog]: %w", err)
	}
	return c, nil
}

// LoadCatalog reads a catalog file from path.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[ReadFile]: %w", err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("[ParseCatalog] %v: %w", path, err)
	}
	return c, nil
}
