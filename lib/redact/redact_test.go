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

package redact_test

import (
	"github.com/fieldcad/cadfield/lib/redact"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
	"time"
)

type ExampleType struct {
	SomeString string
	SomeNum    int
	Passwords  []string `redact:"true"`
	Secret     Secret   `redact:"true"`
	Secrets    []Secret `redact:"true"`
}

type Secret struct {
	Things []string
	PIN    int
}

func TestToBytes(t *testing.T) {
	t.Parallel()
	e := ExampleType{
		SomeString: "This is a string",
		SomeNum:    123456,
		Passwords: []string{
			"password1",
			"password2",
			"password3",
		},
		Secret: Secret{
			Things: []string{"abc"},
			PIN:    123,
		},
		Secrets: []Secret{{}, {}},
	}
	expected := `
SomeString = This is a string
SomeNum = 123456
Passwords = [🤐🤐🤐🤐]
Secret
    🤐🤐🤐🤐🤐
Secrets[0]
    🤐🤐
Secrets[1]
    🤐🤐`
	b, err := redact.ToBytes(&e)
	require.NoError(t, err)
	require.Equal(t, strings.TrimSpace(expected), strings.TrimSpace(string(b)))
}

type ExampleType2 struct {
	Tokens   map[string]string `redact:"true"`
	Regions  map[string]int
	Optional *Secret
	Missing  *Secret
	Timeout  time.Duration
}

func TestToBytes_mapsAndPointers(t *testing.T) {
	t.Parallel()
	e := ExampleType2{
		Tokens:   map[string]string{"b": "bbb", "a": "aaa"},
		Regions:  map[string]int{"north": 2, "east": 1},
		Optional: &Secret{PIN: 42},
		Timeout:  30 * time.Second,
	}
	expected := `
Tokens[a] = 🤐🤐🤐
Tokens[b] = 🤐🤐🤐
Regions[east] = 1
Regions[north] = 2
Optional
    Things = []
    PIN = 42
Missing = <nil>
Timeout = 30s`
	b, err := redact.ToBytes(&e)
	require.NoError(t, err)
	require.Equal(t, strings.TrimSpace(expected), strings.TrimSpace(string(b)))
}

func TestToBytes_unsupported(t *testing.T) {
	t.Parallel()
	_, err := redact.ToBytes(&struct{ Callback func() }{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported field kind: func")

	_, err = redact.ToBytes(ExampleType{})
	require.Error(t, err)
}
