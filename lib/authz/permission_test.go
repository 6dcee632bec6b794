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

package authz

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

var testSupervisors = []string{"100001", "100002"}

func TestRolesFor(t *testing.T) {
	t.Parallel()
	assert.Nil(t, RolesFor("", testSupervisors))
	assert.Equal(t, []Role{Officer}, RolesFor("100123", testSupervisors))
	assert.Equal(t, []Role{Officer, Supervisor}, RolesFor("100002", testSupervisors))
	assert.Equal(t, []Role{Officer}, RolesFor("100002", nil))
}

func TestRolesPermissions(t *testing.T) {
	t.Parallel()
	officer := RolesPermissions(Officer)
	assert.True(t, officer.Has(ReadTasks|ChangeOwnStatus|BookOn|FileReports))
	assert.False(t, officer.Has(ChangeAnyStatus))
	assert.False(t, officer.Has(ReadMetrics))

	both := RolesPermissions(Officer, Supervisor)
	assert.True(t, both.Has(ChangeAnyStatus|ReadMetrics))
	assert.Equal(t, NoPermissions, RolesPermissions())
	assert.Equal(t, NoPermissions, RolesPermissions("Janitor"))
}

func TestCanChangeStatus(t *testing.T) {
	t.Parallel()
	officer := RolesPermissions(Officer)
	assert.True(t, CanChangeStatus(officer, "P24", "P24"))
	assert.False(t, CanChangeStatus(officer, "P24", "K9"))
	assert.False(t, CanChangeStatus(officer, "", ""))
	assert.True(t, CanChangeStatus(RolesPermissions(Supervisor), "", "K9"))
	assert.False(t, CanChangeStatus(NoPermissions, "P24", "P24"))
}

func TestPermissionString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "ReadTasks|BookOn", (ReadTasks | BookOn).String())
	assert.Empty(t, NoPermissions.String())
}
