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

package conf

// defaultTestOfficers are for local development with the fake CAD backend, whose seed data
// books some of them on.
func defaultTestOfficers() []TestOfficer {
	return []TestOfficer{
		{PayrollID: "100123", Rank: "Sgt", GivenName: "Alice", FamilyName: "Hart", Password: "Alice"},
		{PayrollID: "100456", Rank: "Const", GivenName: "Ben", FamilyName: "Okafor", Password: "Ben"},
		{PayrollID: "100789", Rank: "S/C", GivenName: "Chloe", FamilyName: "Nguyen", Password: "Chloe"},
		{PayrollID: "100999", Rank: "Insp", GivenName: "Dev", FamilyName: "Patel", Password: "Dev"},
	}
}
