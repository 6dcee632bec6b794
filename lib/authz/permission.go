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
	"slices"
	"strings"
)

type Role string

const (
	// Officer is every authenticated field officer.
	Officer Role = "Officer"
	// Supervisor may act on any resource, not just the one they're booked on to.
	Supervisor Role = "Supervisor"
)

type PermissionMask uint16

const NoPermissions PermissionMask = 0

const (
	ReadTasks PermissionMask = 1 << iota
	ReadEntities
	ChangeOwnStatus
	ChangeAnyStatus
	BookOn
	FileReports
	ReadMetrics
)

var RolesToPerms = map[Role]PermissionMask{
	Officer:    ReadTasks | ReadEntities | ChangeOwnStatus | BookOn | FileReports,
	Supervisor: ReadTasks | ReadEntities | ChangeOwnStatus | ChangeAnyStatus | BookOn | FileReports | ReadMetrics,
}

func (p PermissionMask) Has(want PermissionMask) bool {
	return p&want == want
}

func (p PermissionMask) String() string {
	names := []string{}
	for _, n := range []struct {
		mask PermissionMask
		name string
	}{
		{ReadTasks, "ReadTasks"},
		{ReadEntities, "ReadEntities"},
		{ChangeOwnStatus, "ChangeOwnStatus"},
		{ChangeAnyStatus, "ChangeAnyStatus"},
		{BookOn, "BookOn"},
		{FileReports, "FileReports"},
		{ReadMetrics, "ReadMetrics"},
	} {
		if p.Has(n.mask) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

// RolesFor gives the roles of an authenticated officer. supervisors lists payroll IDs.
func RolesFor(payrollID string, supervisors []string) []Role {
	if payrollID == "" {
		return nil
	}
	roles := []Role{Officer}
	if slices.Contains(supervisors, payrollID) {
		roles = append(roles, Supervisor)
	}
	return roles
}

func RolesPermissions(roles ...Role) PermissionMask {
	perms := NoPermissions
	for _, r := range roles {
		perms |= RolesToPerms[r]
	}
	return perms
}

// CanChangeStatus reports whether an officer may change the status of callsign. ownCallsign
// is the callsign the officer is booked on to, or "" if they aren't booked on.
func CanChangeStatus(perms PermissionMask, ownCallsign, callsign string) bool {
	if perms.Has(ChangeAnyStatus) {
		return true
	}
	return perms.Has(ChangeOwnStatus) && ownCallsign != "" && ownCallsign == callsign
}
