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

package cmd

import (
	"bytes"
	"encoding/json"
	"github.com/fieldcad/cadfield/conf"
	"github.com/fieldcad/cadfield/tasklist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestRunTasks(t *testing.T) {
	t.Parallel()
	cfg := conf.DefaultCAD()
	cfg.Store.Type = conf.DBStoreTypeNoOp

	var out bytes.Buffer
	require.NoError(t, runTasksInternal(t.Context(), cfg, tasksOptions{kind: tasklist.KindIncident, search: "burglary"}, &out))
	assert.Contains(t, out.String(), "INCS")
	assert.Contains(t, out.String(), "I-1002")
	assert.NotContains(t, out.String(), "I-1001")

	out.Reset()
	require.NoError(t, runTasksInternal(t.Context(), cfg, tasksOptions{kind: tasklist.KindBroadcast, asJSON: true}, &out))
	var view tasklist.View
	require.NoError(t, json.Unmarshal(out.Bytes(), &view))
	assert.Equal(t, tasklist.KindBroadcast, view.Category.Kind)
	assert.False(t, view.CanCreate)

	require.ErrorIs(t, runTasksInternal(t.Context(), cfg, tasksOptions{kind: "vehicles"}, &out), tasklist.ErrUnknownCategory)
}

func TestRunTasksByPriority(t *testing.T) {
	t.Parallel()
	cfg := conf.DefaultCAD()
	cfg.Store.Type = conf.DBStoreTypeNoOp

	var out bytes.Buffer
	opts := tasksOptions{kind: tasklist.KindIncident, priorities: []string{"p3", "P4"}}
	require.NoError(t, runTasksInternal(t.Context(), cfg, opts, &out))
	assert.Contains(t, out.String(), "I-1003")
	assert.Contains(t, out.String(), "I-1004")
	assert.NotContains(t, out.String(), "I-1001")
	assert.NotContains(t, out.String(), "I-1002")

	opts.priorities = []string{"P9"}
	require.Error(t, runTasksInternal(t.Context(), cfg, opts, &out))
}
