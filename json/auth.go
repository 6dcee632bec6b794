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

package json

import "github.com/fieldcad/cadfield/cad"

type PostAuthRequest struct {
	PayrollID string `json:"payroll_id"`
	Password  string `json:"password"`
}

type PostAuthResponse struct {
	Token         string      `json:"token"`
	ExpiresUnixMs int64       `json:"expires_unix_ms"`
	Officer       cad.Officer `json:"officer"`
}

type GetAuthResponse struct {
	Authenticated bool     `json:"authenticated"`
	PayrollID     string   `json:"payroll_id,omitzero"`
	OfficerName   string   `json:"officer_name,omitzero"`
	Permissions   []string `json:"permissions,omitzero"`
	// Callsign is set while the officer is booked on.
	Callsign           string `json:"callsign,omitzero"`
	AttachmentsEnabled bool   `json:"attachments_enabled"`
}

type RefreshAccessTokenResponse struct {
	Token         string `json:"token"`
	ExpiresUnixMs int64  `json:"expires_unix_ms"`
}
