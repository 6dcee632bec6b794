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
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = `-- name: SchemaVersion :one
select VERSION from SCHEMA_INFO
`

func (q *Queries) SchemaVersion(ctx context.Context, db DBTX) (int16, error) {
	row := db.QueryRowContext(ctx, schemaVersion)
	var version int16
	err := row.Scan(&version)
	return version, err
}

const officer = `-- name: Officer :one
select PAYROLL_ID, RANK, GIVEN_NAME, FAMILY_NAME, PASSWORD, ENABLED
from OFFICER_CREDENTIAL
where PAYROLL_ID = ?
`

func (q *Queries) Officer(ctx context.Context, db DBTX, payrollID string) (OfficerCredential, error) {
	row := db.QueryRowContext(ctx, officer, payrollID)
	var i OfficerCredential
	err := row.Scan(
		&i.PayrollID,
		&i.Rank,
		&i.GivenName,
		&i.FamilyName,
		&i.Password,
		&i.Enabled,
	)
	return i, err
}

const officers = `-- name: Officers :many
select PAYROLL_ID, RANK, GIVEN_NAME, FAMILY_NAME, PASSWORD, ENABLED
from OFFICER_CREDENTIAL
order by PAYROLL_ID
`

func (q *Queries) Officers(ctx context.Context, db DBTX) ([]OfficerCredential, error) {
	return queryMany(ctx, db, officers, nil, func(rows *sql.Rows) (OfficerCredential, error) {
		var i OfficerCredential
		err := rows.Scan(
			&i.PayrollID,
			&i.Rank,
			&i.GivenName,
			&i.FamilyName,
			&i.Password,
			&i.Enabled,
		)
		return i, err
	})
}

const upsertOfficer = `-- name: UpsertOfficer :exec
insert into OFFICER_CREDENTIAL (PAYROLL_ID, RANK, GIVEN_NAME, FAMILY_NAME, PASSWORD, ENABLED)
values (?, ?, ?, ?, ?, ?)
on duplicate key update
    RANK = values(RANK),
    GIVEN_NAME = values(GIVEN_NAME),
    FAMILY_NAME = values(FAMILY_NAME),
    PASSWORD = values(PASSWORD),
    ENABLED = values(ENABLED)
`

type UpsertOfficerParams struct {
	PayrollID  string
	Rank       string
	GivenName  string
	FamilyName string
	Password   string
	Enabled    bool
}

func (q *Queries) UpsertOfficer(ctx context.Context, db DBTX, arg UpsertOfficerParams) error {
	_, err := db.ExecContext(ctx, upsertOfficer,
		arg.PayrollID,
		arg.Rank,
		arg.GivenName,
		arg.FamilyName,
		arg.Password,
		arg.Enabled,
	)
	return err
}

const manifestEntries = `-- name: ManifestEntries :many
select ID, COLLECTION, CODE, TITLE, SORT_ORDER
from MANIFEST_ENTRY
where COLLECTION = ?
order by SORT_ORDER, CODE
`

func (q *Queries) ManifestEntries(ctx context.Context, db DBTX, collection string) ([]ManifestEntry, error) {
	return queryMany(ctx, db, manifestEntries, []any{collection}, func(rows *sql.Rows) (ManifestEntry, error) {
		var i ManifestEntry
		err := rows.Scan(
			&i.ID,
			&i.Collection,
			&i.Code,
			&i.Title,
			&i.SortOrder,
		)
		return i, err
	})
}

const addManifestEntry = `-- name: AddManifestEntry :execlastid
insert into MANIFEST_ENTRY (COLLECTION, CODE, TITLE, SORT_ORDER)
values (?, ?, ?, ?)
`

type AddManifestEntryParams struct {
	Collection string
	Code       string
	Title      string
	SortOrder  int32
}

func (q *Queries) AddManifestEntry(ctx context.Context, db DBTX, arg AddManifestEntryParams) (int64, error) {
	result, err := db.ExecContext(ctx, addManifestEntry,
		arg.Collection,
		arg.Code,
		arg.Title,
		arg.SortOrder,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const addStatusChange = `-- name: AddStatusChange :execlastid
insert into STATUS_CHANGE (
    SUBMISSION_ID, CREATED, CALLSIGN, FROM_STATUS, TO_STATUS, OUTCOME,
    REQUESTED_BY, REASON, SECONDARY_CODE, MESSAGE, TRAIL
)
values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type AddStatusChangeParams struct {
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

func (q *Queries) AddStatusChange(ctx context.Context, db DBTX, arg AddStatusChangeParams) (int64, error) {
	result, err := db.ExecContext(ctx, addStatusChange,
		arg.SubmissionID,
		arg.Created,
		arg.Callsign,
		arg.FromStatus,
		arg.ToStatus,
		arg.Outcome,
		arg.RequestedBy,
		arg.Reason,
		arg.SecondaryCode,
		arg.Message,
		arg.Trail,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const statusChanges = `-- name: StatusChanges :many
select ID, SUBMISSION_ID, CREATED, CALLSIGN, FROM_STATUS, TO_STATUS, OUTCOME,
       REQUESTED_BY, REASON, SECONDARY_CODE, MESSAGE, TRAIL
from STATUS_CHANGE
where (? = '' or CALLSIGN = ?)
order by ID desc
limit ?
`

type StatusChangesParams struct {
	// Callsign filters to one resource. Empty means every resource.
	Callsign string
	Limit    int32
}

func (q *Queries) StatusChanges(ctx context.Context, db DBTX, arg StatusChangesParams) ([]StatusChange, error) {
	args := []any{arg.Callsign, arg.Callsign, arg.Limit}
	return queryMany(ctx, db, statusChanges, args, func(rows *sql.Rows) (StatusChange, error) {
		var i StatusChange
		err := rows.Scan(
			&i.ID,
			&i.SubmissionID,
			&i.Created,
			&i.Callsign,
			&i.FromStatus,
			&i.ToStatus,
			&i.Outcome,
			&i.RequestedBy,
			&i.Reason,
			&i.SecondaryCode,
			&i.Message,
			&i.Trail,
		)
		return i, err
	})
}

const addFiledReport = `-- name: AddFiledReport :execlastid
insert into FILED_REPORT (INCIDENT_ID, CREATED, AUTHOR, NARRATIVE)
values (?, ?, ?, ?)
`

type AddFiledReportParams struct {
	IncidentID string
	Created    float64
	Author     string
	Narrative  string
}

func (q *Queries) AddFiledReport(ctx context.Context, db DBTX, arg AddFiledReportParams) (int64, error) {
	result, err := db.ExecContext(ctx, addFiledReport,
		arg.IncidentID,
		arg.Created,
		arg.Author,
		arg.Narrative,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const addReportAttachment = `-- name: AddReportAttachment :exec
insert into REPORT_ATTACHMENT (REPORT, ATTACHMENT_KEY, CONTENT_TYPE, ORIGINAL_NAME, SIZE)
values (?, ?, ?, ?, ?)
`

type AddReportAttachmentParams struct {
	Report        int64
	AttachmentKey string
	ContentType   string
	OriginalName  string
	Size          int64
}

func (q *Queries) AddReportAttachment(ctx context.Context, db DBTX, arg AddReportAttachmentParams) error {
	_, err := db.ExecContext(ctx, addReportAttachment,
		arg.Report,
		arg.AttachmentKey,
		arg.ContentType,
		arg.OriginalName,
		arg.Size,
	)
	return err
}

const filedReports = `-- name: FiledReports :many
select ID, INCIDENT_ID, CREATED, AUTHOR, NARRATIVE
from FILED_REPORT
where INCIDENT_ID = ?
order by ID
`

func (q *Queries) FiledReports(ctx context.Context, db DBTX, incidentID string) ([]FiledReport, error) {
	return queryMany(ctx, db, filedReports, []any{incidentID}, func(rows *sql.Rows) (FiledReport, error) {
		var i FiledReport
		err := rows.Scan(
			&i.ID,
			&i.IncidentID,
			&i.Created,
			&i.Author,
			&i.Narrative,
		)
		return i, err
	})
}

const reportAttachments = `-- name: ReportAttachments :many
select REPORT, ATTACHMENT_KEY, CONTENT_TYPE, ORIGINAL_NAME, SIZE
from REPORT_ATTACHMENT
where REPORT = ?
order by ATTACHMENT_KEY
`

func (q *Queries) ReportAttachments(ctx context.Context, db DBTX, report int64) ([]ReportAttachment, error) {
	return queryMany(ctx, db, reportAttachments, []any{report}, func(rows *sql.Rows) (ReportAttachment, error) {
		var i ReportAttachment
		err := rows.Scan(
			&i.Report,
			&i.AttachmentKey,
			&i.ContentType,
			&i.OriginalName,
			&i.Size,
		)
		return i, err
	})
}

func queryMany[T any](ctx context.Context, db DBTX, query string, args []any, scan func(*sql.Rows) (T, error)) (items []T, err error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	for rows.Next() {
		i, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("[Scan]: %w", err)
		}
		items = append(items, i)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
