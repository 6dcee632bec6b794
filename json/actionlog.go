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

import "time"

type StatusChangeLogs []StatusChangeLog

// StatusChangeLog is one finished status selection, as recorded by the action log.
type StatusChangeLog struct {
	ID            int64     `json:"id"`
	SubmissionID  string    `json:"submission_id"`
	Created       time.Time `json:"created"`
	Callsign      string    `json:"callsign"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	Outcome       string    `json:"outcome"`
	RequestedBy   string    `json:"requested_by"`
	Reason        string    `json:"reason,omitzero"`
	SecondaryCode string    `json:"secondary_code,omitzero"`
	Message       string    `json:"message,omitzero"`
	Trail         []string  `json:"trail"`
}
