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

package api

import (
	"errors"
	"github.com/fieldcad/cadfield/cadstate"
	"github.com/fieldcad/cadfield/lib/authz"
	"github.com/fieldcad/cadfield/lib/herr"
	"github.com/fieldcad/cadfield/report"
	"net/http"
)

const (
	// these must match the keys sent by the client
	ReportNarrativeFormKey  = "narrative"
	ReportAttachmentFormKey = "attachment"

	multipartMemory = 10 << 20
)

type PostReport struct {
	store *cadstate.Store
	filer *report.Filer
}

func (action PostReport) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	resp, errHTTP := action.postReport(req)
	if errHTTP != nil {
		errHTTP.From("[postReport]").WriteResponse(w)
		return
	}
	mustWriteJSON(w, req, resp)
}

func (action PostReport) postReport(req *http.Request) (report.Submission, *herr.HTTPError) {
	var empty report.Submission
	jwtCtx, errHTTP := requirePermission(req, authz.FileReports)
	if errHTTP != nil {
		return empty, errHTTP.From("[requirePermission]")
	}
	incidentID := req.PathValue("incidentID")
	if _, ok := action.store.Incident(incidentID); !ok {
		return empty, herr.NotFound("No such incident", nil).SetExpectedError()
	}
	if err := req.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return empty, herr.RequestEntityTooLarge("Report is too large", err)
		}
		return empty, herr.BadRequest("Failed to parse report form", err).From("[ParseMultipartForm]")
	}
	defer func() {
		_ = req.MultipartForm.RemoveAll()
	}()

	r := report.Report{
		IncidentID: incidentID,
		Author:     jwtCtx.Claims.PayrollID(),
		Narrative:  req.FormValue(ReportNarrativeFormKey),
	}
	for _, fh := range req.MultipartForm.File[ReportAttachmentFormKey] {
		f, err := fh.Open()
		if err != nil {
			return empty, herr.BadRequest("Failed to read attachment", err).From("[Open]")
		}
		defer shut(f)
		r.Attachments = append(r.Attachments, report.Attachment{Name: fh.Filename, Size: fh.Size, File: f})
	}

	sub, err := action.filer.File(req.Context(), r)
	switch {
	case err == nil:
		return sub, nil
	case errors.Is(err, report.ErrEmptyReport):
		return empty, herr.BadRequest("A report needs a narrative", err).SetExpectedError()
	case errors.Is(err, report.ErrAttachmentsDisabled):
		return empty, herr.BadRequest("Attachments are not enabled on this server", err).SetExpectedError()
	default:
		return empty, backendError(err, "Failed to file report").From("[File]")
	}
}
