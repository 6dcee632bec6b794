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
	"github.com/fieldcad/cadfield/cad"
	"github.com/fieldcad/cadfield/cadstate"
	cadjson "github.com/fieldcad/cadfield/json"
	"github.com/fieldcad/cadfield/lib/authz"
	"github.com/fieldcad/cadfield/lib/herr"
	"github.com/fieldcad/cadfield/summary"
	"github.com/fieldcad/cadfield/workflow"
	"net/http"
)

type GetResource struct {
	store    *cadstate.Store
	workflow *workflow.Workflow
}

func (action GetResource) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	resp, errHTTP := action.getResource(req)
	if errHTTP != nil {
		errHTTP.From("[getResource]").WriteResponse(w)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	mustWriteJSON(w, req, resp)
}

func (action GetResource) getResource(req *http.Request) (cadjson.ResourceDetail, *herr.HTTPError) {
	var empty cadjson.ResourceDetail
	if _, errHTTP := requirePermission(req, authz.ReadEntities); errHTTP != nil {
		return empty, errHTTP.From("[requirePermission]")
	}
	callsign := req.PathValue("callsign")
	r, ok := action.store.Resource(callsign)
	if !ok {
		return empty, herr.NotFound("No such resource", nil).SetExpectedError()
	}
	catalog := action.store.Catalog()
	def, ok := catalog.Lookup(r.Status)
	if !ok {
		def.Code, def.Title = r.Status, string(r.Status)
	}
	resp := cadjson.ResourceDetail{
		Resource: r,
		Status:   def,
		Duress:   catalog.IsDuress(r.Status),
		Officers: action.store.OfficersForResource(callsign),
		InFlight: action.workflow.InFlight(callsign),
	}
	if incident, ok := action.store.IncidentForResource(callsign); ok {
		resp.Incident = &incident
	}
	if resp.Officers == nil {
		resp.Officers = []cad.Officer{}
	}
	return resp, nil
}

type GetIncident struct {
	store *cadstate.Store
}

func (action GetIncident) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	resp, errHTTP := action.getIncident(req)
	if errHTTP != nil {
		errHTTP.From("[getIncident]").WriteResponse(w)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	mustWriteJSON(w, req, resp)
}

func (action GetIncident) getIncident(req *http.Request) (cadjson.IncidentDetail, *herr.HTTPError) {
	var empty cadjson.IncidentDetail
	jwtCtx, errHTTP := requirePermission(req, authz.ReadEntities)
	if errHTTP != nil {
		return empty, errHTTP.From("[requirePermission]")
	}
	id := req.PathValue("incidentID")
	incident, ok := action.store.Incident(id)
	if !ok {
		return empty, herr.NotFound("No such incident", nil).SetExpectedError()
	}
	linked := action.store.ResourcesForIncident(id)
	var own *cad.Resource
	if callsign := ownCallsign(action.store, jwtCtx); callsign != "" {
		if r, found := action.store.Resource(callsign); found {
			own = &r
		}
	}
	if linked == nil {
		linked = []cad.Resource{}
	}
	return cadjson.IncidentDetail{
		Incident:  incident,
		Status:    cad.ComputeIncidentStatus(id, own, linked),
		Resources: linked,
	}, nil
}

type GetSummary struct {
	store     *cadstate.Store
	summaries *summary.Registry
}

func (action GetSummary) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	resp, errHTTP := action.getSummary(req)
	if errHTTP != nil {
		errHTTP.From("[getSummary]").WriteResponse(w)
		return
	}
	mustWriteJSON(w, req, resp)
}

func (action GetSummary) getSummary(req *http.Request) (cadjson.EntitySummary, *herr.HTTPError) {
	var empty cadjson.EntitySummary
	jwtCtx, errHTTP := requirePermission(req, authz.ReadEntities)
	if errHTTP != nil {
		return empty, errHTTP.From("[requirePermission]")
	}
	entity, ok := summary.Find(action.store.ViewFor(jwtCtx.Claims.PayrollID()), req.PathValue("kind"), req.PathValue("id"))
	if !ok {
		return empty, herr.NotFound("No such entity", nil).SetExpectedError()
	}
	s, ok := action.summaries.Summary(entity)
	if !ok {
		return empty, herr.NotFound("Entity has no summary", nil)
	}
	p, _ := action.summaries.Presentable(entity)
	return cadjson.EntitySummary{Summary: s, Presentable: p}, nil
}
