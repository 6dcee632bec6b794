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

// Package caddb holds the SQL queries for the companion database and the row types they
// read and write.
package caddb

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB, *sql.Tx, and store.DB.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct{}

func New() *Queries {
	return &Queries{}
}

type Querier interface {
	SchemaVersion(ctx context.Context, db DBTX) (int16, error)

	Officer(ctx context.Context, db DBTX, payrollID string) (OfficerCredential, error)
	Officers(ctx context.Context, db DBTX) ([]OfficerCredential, error)
	UpsertOfficer(ctx context.Context, db DBTX, arg UpsertOfficerParams) error

	ManifestEntries(ctx context.Context, db DBTX, collection string) ([]ManifestEntry, error)
	AddManifestEntry(ctx context.Context, db DBTX, arg AddManifestEntryParams) (int64, error)

	AddStatusChange(ctx context.Context, db DBTX, arg AddStatusChangeParams) (int64, error)
	StatusChanges(ctx context.Context, db DBTX, arg StatusChangesParams) ([]StatusChange, error)

	AddFiledReport(ctx context.Context, db DBTX, arg AddFiledReportParams) (int64, error)
	AddReportAttachment(ctx context.Context, db DBTX, arg AddReportAttachmentParams) error
	FiledReports(ctx context.Context, db DBTX, incidentID string) ([]FiledReport, error)
	ReportAttachments(ctx context.Context, db DBTX, report int64) ([]ReportAttachment, error)
}

var _ Querier = (*Queries)(nil)
