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
	cadjson "github.com/fieldcad/cadfield/json"
	"github.com/fieldcad/cadfield/lib/authz"
	"github.com/fieldcad/cadfield/lib/herr"
	"github.com/fieldcad/cadfield/tasklist"
	"net/http"
)

type GetTasks struct {
	sessions *Sessions
}

func (action GetTasks) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	resp, errHTTP := action.getTasks(req)
	if errHTTP != nil {
		errHTTP.From("[getTasks]").WriteResponse(w)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	mustWriteJSON(w, req, resp)
}

func (action GetTasks) getTasks(req *http.Request) (tasklist.View, *herr.HTTPError) {
	jwtCtx, errHTTP := requirePermission(req, authz.ReadTasks)
	if errHTTP != nil {
		return tasklist.View{}, errHTTP.From("[requirePermission]")
	}
	return action.sessions.For(jwtCtx.Claims.PayrollID()).Aggregator.View(), nil
}

type PostTaskSelection struct {
	sessions *Sessions
}

func (action PostTaskSelection) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	resp, errHTTP := action.postTaskSelection(req)
	if errHTTP != nil {
		errHTTP.From("[postTaskSelection]").WriteResponse(w)
		return
	}
	mustWriteJSON(w, req, resp)
}

func (action PostTaskSelection) postTaskSelection(req *http.Request) (tasklist.View, *herr.HTTPError) {
	var empty tasklist.View
	jwtCtx, errHTTP := requirePermission(req, authz.ReadTasks)
	if errHTTP != nil {
		return empty, errHTTP.From("[requirePermission]")
	}
	sel, errHTTP := readBodyAs[cadjson.TaskSelection](req)
	if errHTTP != nil {
		return empty, errHTTP.From("[readBodyAs]")
	}
	agg := action.sessions.For(jwtCtx.Claims.PayrollID()).Aggregator
	var err error
	switch {
	case sel.Kind != nil:
		err = agg.SelectKind(*sel.Kind)
	case sel.Index != nil:
		err = agg.Select(*sel.Index)
	}
	if err != nil {
		if errors.Is(err, tasklist.ErrUnknownCategory) {
			return empty, herr.BadRequest("No such task list category", err)
		}
		return empty, herr.InternalServerError("Failed to select category", err)
	}
	if sel.Search != nil {
		agg.SetSearch(*sel.Search)
	}
	return agg.View(), nil
}

type PostTaskFilter struct {
	sessions *Sessions
}

func (action PostTaskFilter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	resp, errHTTP := action.postTaskFilter(req)
	if errHTTP != nil {
		errHTTP.From("[postTaskFilter]").WriteResponse(w)
		return
	}
	mustWriteJSON(w, req, resp)
}

func (action PostTaskFilter) postTaskFilter(req *http.Request) (tasklist.View, *herr.HTTPError) {
	var empty tasklist.View
	jwtCtx, errHTTP := requirePermission(req, authz.ReadTasks)
	if errHTTP != nil {
		return empty, errHTTP.From("[requirePermission]")
	}
	f, errHTTP := readBodyAs[tasklist.Filter](req)
	if errHTTP != nil {
		return empty, errHTTP.From("[readBodyAs]")
	}
	agg := action.sessions.For(jwtCtx.Claims.PayrollID()).Aggregator
	agg.SetFilter(f)
	return agg.View(), nil
}
