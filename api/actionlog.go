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
	cadjson "github.com/fieldcad/cadfield/json"
	"github.com/fieldcad/cadfield/lib/authz"
	"github.com/fieldcad/cadfield/lib/conv"
	"github.com/fieldcad/cadfield/lib/herr"
	"github.com/fieldcad/cadfield/store"
	"github.com/fieldcad/cadfield/store/caddb"
	"net/http"
	"strings"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// GetStatusHistory lists recorded status selections, newest first. With a callsign in the
// path it covers that resource only; otherwise every resource, which needs ReadMetrics.
type GetStatusHistory struct {
	cadDBQ *store.DBQ
}

func (action GetStatusHistory) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	resp, errHTTP := action.getStatusHistory(req)
	if errHTTP != nil {
		errHTTP.From("[getStatusHistory]").WriteResponse(w)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	mustWriteJSON(w, req, resp)
}

func (action GetStatusHistory) getStatusHistory(req *http.Request) (cadjson.StatusChangeLogs, *herr.HTTPError) {
	callsign := req.PathValue("callsign")
	want := authz.ReadEntities
	if callsign == "" {
		want = authz.ReadMetrics
	}
	if _, errHTTP := requirePermission(req, want); errHTTP != nil {
		return nil, errHTTP.From("[requirePermission]")
	}
	limit := int32(defaultHistoryLimit)
	if l := req.URL.Query().Get("limit"); l != "" {
		parsed, err := conv.ParseInt32(l)
		if err != nil || parsed <= 0 {
			return nil, herr.BadRequest("Invalid limit", err)
		}
		limit = min(parsed, maxHistoryLimit)
	}
	rows, err := action.cadDBQ.StatusChanges(req.Context(), action.cadDBQ, caddb.StatusChangesParams{
		Callsign: callsign,
		Limit:    limit,
	})
	if err != nil {
		return nil, herr.InternalServerError("Failed to fetch status history", err).From("[StatusChanges]")
	}

	resp := make(cadjson.StatusChangeLogs, 0, len(rows))
	for _, row := range rows {
		var trail []string
		if row.Trail != "" {
			trail = strings.Split(row.Trail, ",")
		}
		resp = append(resp, cadjson.StatusChangeLog{
			ID:            row.ID,
			SubmissionID:  row.SubmissionID,
			Created:       conv.FloatToTime(row.Created),
			Callsign:      row.Callsign,
			From:          row.FromStatus,
			To:            row.ToStatus,
			Outcome:       row.Outcome,
			RequestedBy:   row.RequestedBy,
			Reason:        conv.SqlToString(row.Reason),
			SecondaryCode: conv.SqlToString(row.SecondaryCode),
			Message:       conv.SqlToString(row.Message),
			Trail:         trail,
		})
	}
	return resp, nil
}
