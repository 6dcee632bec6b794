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

// Package actionlog records every finished status selection in the STATUS_CHANGE table.
package actionlog

import (
	"context"
	"github.com/fieldcad/cadfield/lib/conv"
	"github.com/fieldcad/cadfield/store"
	"github.com/fieldcad/cadfield/store/caddb"
	"github.com/fieldcad/cadfield/workflow"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	workQueueMaxLength = 1024
	insertDeadline     = 10 * time.Second
	maxTextLength      = 1024
)

// Logger is a workflow.Auditor. Rows are written by a background worker unless the Logger is
// synchronous.
type Logger struct {
	work        chan caddb.AddStatusChangeParams
	dbq         *store.DBQ
	enabled     bool
	synchronous bool
	now         func() time.Time
	done        chan struct{}
	closeOnce   sync.Once
}

var _ workflow.Auditor = (*Logger)(nil)

func NewLogger(dbq *store.DBQ, enabled, synchronous bool) *Logger {
	logger := &Logger{
		work:        make(chan caddb.AddStatusChangeParams, workQueueMaxLength),
		dbq:         dbq,
		enabled:     enabled,
		synchronous: synchronous,
		now:         time.Now,
		done:        make(chan struct{}),
	}
	go logger.startWorker()
	return logger
}

// Audit queues the outcome to be written. If the queue is full the row is dropped with an
// error log, so a slow database never holds up a status change.
func (l *Logger) Audit(ctx context.Context, o workflow.Outcome) {
	if !l.enabled {
		return
	}
	row := Row(o, l.now())
	if l.synchronous {
		l.writeRow(ctx, row)
		return
	}
	select {
	case l.work <- row:
	default:
		slog.Error("Action log queue is full. Dropping status change record",
			"submissionID", row.SubmissionID, "callsign", row.Callsign)
	}
}

// Close stops accepting rows and waits for queued rows to be written.
func (l *Logger) Close() {
	l.closeOnce.Do(func() {
		close(l.work)
	})
	<-l.done
}

func (l *Logger) startWorker() {
	defer close(l.done)
	for row := range l.work {
		// not tied to any request context, so rows queued at shutdown still get written
		l.writeRow(context.Background(), row)
	}
	slog.Info("actionlog.Logger worker finished")
}

func (l *Logger) writeRow(ctx context.Context, row caddb.AddStatusChangeParams) {
	ctx, cancel := context.WithTimeout(ctx, insertDeadline)
	defer cancel()
	if _, err := l.dbq.AddStatusChange(ctx, l.dbq, row); err != nil {
		slog.Error("Failed to add status change to action log", "error", err)
	}
}

// Row converts an outcome into a STATUS_CHANGE row.
func Row(o workflow.Outcome, now time.Time) caddb.AddStatusChangeParams {
	c := o.Change
	created := c.Requested
	if created.IsZero() {
		created = now
	}
	trail := make([]string, 0, len(o.Trail))
	for _, s := range o.Trail {
		trail = append(trail, s.String())
	}
	row := caddb.AddStatusChangeParams{
		SubmissionID: c.SubmissionID,
		Created:      conv.TimeToFloat(created),
		Callsign:     c.Callsign,
		FromStatus:   string(c.From),
		ToStatus:     string(c.To),
		Outcome:      o.State.String(),
		RequestedBy:  c.RequestedBy,
		Reason:       conv.StringToSql(c.Reason, maxTextLength),
		Message:      conv.StringToSql(o.Message, maxTextLength),
		Trail:        strings.Join(trail, ","),
	}
	if c.Finalise != nil {
		row.SecondaryCode = conv.StringToSql(c.Finalise.SecondaryCode, 64)
	}
	return row
}
