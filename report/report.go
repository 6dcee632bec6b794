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

// Package report files incident reports written by officers in the field.
package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/fieldcad/cadfield/lib/attachment"
	"github.com/fieldcad/cadfield/lib/conv"
	"github.com/fieldcad/cadfield/store"
	"github.com/fieldcad/cadfield/store/caddb"
	"io"
	"log/slog"
	"strings"
	"time"
)

var (
	ErrEmptyReport         = errors.New("a report needs an incident and a narrative")
	ErrAttachmentsDisabled = errors.New("attachments are not enabled on this server")
)

// File is an uploaded attachment's content.
type File interface {
	io.Reader
	io.ReaderAt
}

type Attachment struct {
	Name string
	Size int64
	File File
}

// Report is what the officer wrote.
type Report struct {
	IncidentID  string
	Author      string
	Narrative   string
	Attachments []Attachment
}

// StoredAttachment refers to an attachment already in the attachment store.
type StoredAttachment struct {
	Key          string `json:"key"`
	ContentType  string `json:"content_type"`
	OriginalName string `json:"original_name,omitzero"`
	Size         int64  `json:"size"`
}

// Submission is what gets sent to CAD.
type Submission struct {
	IncidentID  string             `json:"incident_id"`
	Author      string             `json:"author"`
	Narrative   string             `json:"narrative"`
	Filed       time.Time          `json:"filed"`
	Attachments []StoredAttachment `json:"attachments,omitzero"`
}

// Store keeps attachment content. attachment.S3 and attachment.Local both satisfy it.
type Store interface {
	Put(ctx context.Context, key, contentType string, file io.Reader) error
}

type Submitter interface {
	SubmitReport(ctx context.Context, s Submission) error
}

type Filer struct {
	dbq         *store.DBQ
	attachments Store
	submitter   Submitter
	now         func() time.Time
}

// NewFiler creates a Filer. A nil attachments Store rejects reports with attachments.
func NewFiler(dbq *store.DBQ, attachments Store, submitter Submitter) *Filer {
	return &Filer{
		dbq:         dbq,
		attachments: attachments,
		submitter:   submitter,
		now:         time.Now,
	}
}

// File stores the report's attachments, submits the report to CAD, then records what was
// filed in the companion database.
func (f *Filer) File(ctx context.Context, r Report) (Submission, error) {
	r.IncidentID = strings.TrimSpace(r.IncidentID)
	r.Narrative = strings.TrimSpace(r.Narrative)
	if r.IncidentID == "" || r.Narrative == "" {
		return Submission{}, ErrEmptyReport
	}
	if len(r.Attachments) > 0 && f.attachments == nil {
		return Submission{}, ErrAttachmentsDisabled
	}

	sub := Submission{
		IncidentID: r.IncidentID,
		Author:     r.Author,
		Narrative:  r.Narrative,
		Filed:      f.now(),
	}
	for _, a := range r.Attachments {
		stored, err := f.storeAttachment(ctx, r.IncidentID, a)
		if err != nil {
			return Submission{}, fmt.Errorf("[storeAttachment]: %w", err)
		}
		sub.Attachments = append(sub.Attachments, stored)
	}

	if err := f.submitter.SubmitReport(ctx, sub); err != nil {
		return Submission{}, fmt.Errorf("[SubmitReport]: %w", err)
	}

	if err := f.record(ctx, sub); err != nil {
		// CAD already has the report
		slog.Error("Failed to record filed report", "incident", sub.IncidentID, "error", err)
	}
	return sub, nil
}

func (f *Filer) storeAttachment(ctx context.Context, incidentID string, a Attachment) (StoredAttachment, error) {
	contentType, ext, err := attachment.Sniff(a.File)
	if err != nil {
		return StoredAttachment{}, fmt.Errorf("[Sniff]: %w", err)
	}
	key := attachment.NewKey(incidentID, ext)
	if err = f.attachments.Put(ctx, key, contentType, io.NewSectionReader(a.File, 0, a.Size)); err != nil {
		return StoredAttachment{}, fmt.Errorf("[Put]: %w", err)
	}
	slog.Info("Stored report attachment", "key", key, "contentType", contentType, "size", a.Size)
	return StoredAttachment{
		Key:          key,
		ContentType:  contentType,
		OriginalName: a.Name,
		Size:         a.Size,
	}, nil
}

func (f *Filer) record(ctx context.Context, sub Submission) error {
	return f.dbq.WithTx(ctx, func(tx *sql.Tx) error {
		id, err := f.dbq.AddFiledReport(ctx, tx, caddb.AddFiledReportParams{
			IncidentID: sub.IncidentID,
			Created:    conv.TimeToFloat(sub.Filed),
			Author:     sub.Author,
			Narrative:  sub.Narrative,
		})
		if err != nil {
			return fmt.Errorf("[AddFiledReport]: %w", err)
		}
		for _, a := range sub.Attachments {
			err = f.dbq.AddReportAttachment(ctx, tx, caddb.AddReportAttachmentParams{
				Report:        id,
				AttachmentKey: a.Key,
				ContentType:   a.ContentType,
				OriginalName:  a.OriginalName,
				Size:          a.Size,
			})
			if err != nil {
				return fmt.Errorf("[AddReportAttachment]: %w", err)
			}
		}
		return nil
	})
}
