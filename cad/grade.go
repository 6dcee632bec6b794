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

package cad

import (
	"fmt"
	"strings"
)

// Color is a display color in #RRGGBB form. The empty Color means "no color".
type Color string

const (
	ColorNone  Color = ""
	ColorAlert Color = "#FF3B30"
	ColorP1    Color = "#E30613"
	ColorP2    Color = "#FF9500"
	ColorP3    Color = "#0071BC"
	ColorP4    Color = "#8E8E93"
)

// Grade is an incident priority. Lower values are more urgent; P1 is the highest priority.
type Grade int8

const (
	GradeP1 Grade = iota + 1
	GradeP2
	GradeP3
	GradeP4
)

// AllGrades returns every grade, highest priority first.
func AllGrades() []Grade {
	return []Grade{GradeP1, GradeP2, GradeP3, GradeP4}
}

func (g Grade) Valid() bool {
	return g >= GradeP1 && g <= GradeP4
}

func (g Grade) Title() string {
	if !g.Valid() {
		return ""
	}
	return fmt.Sprintf("P%d", g)
}

func (g Grade) Color() Color {
	switch g {
	case GradeP1:
		return ColorP1
	case GradeP2:
		return ColorP2
	case GradeP3:
		return ColorP3
	case GradeP4:
		return ColorP4
	default:
		return ColorNone
	}
}

// HigherThan reports whether g is more urgent than other.
func (g Grade) HigherThan(other Grade) bool {
	if !g.Valid() {
		return false
	}
	return !other.Valid() || g < other
}

// MarshalText renders an unset grade as "".
func (g Grade) MarshalText() ([]byte, error) {
	return []byte(g.Title()), nil
}

func (g *Grade) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*g = 0
		return nil
	}
	parsed, err := ParseGrade(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// ParseGrade accepts "P1".."P4", case-insensitively.
func ParseGrade(s string) (Grade, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, g := range AllGrades() {
		if g.Title() == s {
			return g, nil
		}
	}
	return 0, fmt.Errorf("unknown grade %q", s)
}
