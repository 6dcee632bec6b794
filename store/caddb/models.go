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

package caddb

import (
	"database/sql"
)

type OfficerCredential struct {
	PayrollID  string
	Rank       string
	GivenName  string
	FamilyName string
	Password   string
	Enabled    bool
}

type ManifestEntry struct {
	ID         int32
	Collection string
	Code       string
	Title      string
	SortOrder  int32
}

type StatusChange struct {
	ID            int64
	SubmissionID  string
	Created       float64
	Callsign      string
	FromStatus    string
	ToStatus      string
	Outcome       string
	RequestedBy   string
	Reason        sql.NullString
	SecondaryCode sql.NullString
	Message       sql.NullString
	Trail         string
}

type FiledReport struct {
	ID         int64
	IncidentID string
	Created    float64
	Author     string
	Narrative  string
}

type ReportAttachment struct {
	Report        int64
	AttachmentKey string
	ContentType   string
	OriginalName  string
	Size          int64
}
