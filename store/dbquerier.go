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

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/fieldcad/cadfield/store/caddb"
	"log/slog"
	"time"
)

// DBQ combines the SQL database and the Querier for the CAD datastore, logging every query.
type DBQ struct {
	*sql.DB
	q caddb.Querier
}

func New(sqlDB *sql.DB, querier caddb.Querier) *DBQ {
	return &DBQ{
		DB: sqlDB,
		q:  querier,
	}
}

func logQuery(queryName string, start time.Time, err error) {
	durationMS := float64(time.Since(start).Microseconds()) / 1000.0
	slog.Debug("Ran CAD SQL: "+queryName,
		"duration", fmt.Sprintf("%.3fms", durationMS),
		"err", err,
	)
}

// WithTx runs fn in a transaction, committing if fn returns nil.
func (l *DBQ) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := l.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("[BeginTx]: %w", err)
	}
	if err = fn(tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("[Commit]: %w", err)
	}
	return nil
}

// Force DBQ to implement the caddb.Querier interface.
var _ caddb.Querier = (*DBQ)(nil)

func (l *DBQ) SchemaVersion(ctx context.Context, db caddb.DBTX) (int16, error) {
	start := time.Now()
	v, err := l.q.SchemaVersion(ctx, db)
	logQuery("SchemaVersion", start, err)
	return v, err
}

func (l *DBQ) Officer(ctx context.Context, db caddb.DBTX, payrollID string) (caddb.OfficerCredential, error) {
	start := time.Now()
	o, err := l.q.Officer(ctx, db, payrollID)
	logQuery("Officer", start, err)
	return o, err
}

func (l *DBQ) Officers(ctx context.Context, db caddb.DBTX) ([]caddb.OfficerCredential, error) {
	start := time.Now()
	o, err := l.q.Officers(ctx, db)
	logQuery("Officers", start, err)
	return o, err
}

func (l *DBQ) UpsertOfficer(ctx context.Context, db caddb.DBTX, arg caddb.UpsertOfficerParams) error {
	start := time.Now()
	err := l.q.UpsertOfficer(ctx, db, arg)
	logQuery("UpsertOfficer", start, err)
	return err
}

func (l *DBQ) ManifestEntries(ctx context.Context, db caddb.DBTX, collection string) ([]caddb.ManifestEntry, error) {
	start := time.Now()
	entries, err := l.q.ManifestEntries(ctx, db, collection)
	logQuery("ManifestEntries", start, err)
	return entries, err
}

func (l *DBQ) AddManifestEntry(ctx context.Context, db caddb.DBTX, arg caddb.AddManifestEntryParams) (int64, error) {
	start := time.Now()
	id, err := l.q.AddManifestEntry(ctx, db, arg)
	logQuery("AddManifestEntry", start, err)
	return id, err
}

func (l *DBQ) AddStatusChange(ctx context.Context, db caddb.DBTX, arg caddb.AddStatusChangeParams) (int64, error) {
	start := time.Now()
	id, err := l.q.AddStatusChange(ctx, db, arg)
	logQuery("AddStatusChange", start, err)
	return id, err
}

func (l *DBQ) StatusChanges(ctx context.Context, db caddb.DBTX, arg caddb.StatusChangesParams) ([]caddb.StatusChange, error) {
	start := time.Now()
	changes, err := l.q.StatusChanges(ctx, db, arg)
	logQuery("StatusChanges", start, err)
	return changes, err
}

func (l *DBQ) AddFiledReport(ctx context.Context, db caddb.DBTX, arg caddb.AddFiledReportParams) (int64, error) {
	start := time.Now()
	id, err := l.q.AddFiledReport(ctx, db, arg)
	logQuery("AddFiledReport", start, err)
	return id, err
}

func (l *DBQ) AddReportAttachment(ctx context.Context, db caddb.DBTX, arg caddb.AddReportAttachmentParams) error {
	start := time.Now()
	err := l.q.AddReportAttachment(ctx, db, arg)
	logQuery("AddReportAttachment", start, err)
	return err
}

func (l *DBQ) FiledReports(ctx context.Context, db caddb.DBTX, incidentID string) ([]caddb.FiledReport, error) {
	start := time.Now()
	reports, err := l.q.FiledReports(ctx, db, incidentID)
	logQuery("FiledReports", start, err)
	return reports, err
}

func (l *DBQ) ReportAttachments(ctx context.Context, db caddb.DBTX, report int64) ([]caddb.ReportAttachment, error) {
	start := time.Now()
	attachments, err := l.q.ReportAttachments(ctx, db, report)
	logQuery("ReportAttachments", start, err)
	return attachments, err
}
