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
	"fmt"
	cadjson "github.com/fieldcad/cadfield/json"
	"github.com/fieldcad/cadfield/lib/authz"
	"github.com/fieldcad/cadfield/lib/herr"
	"github.com/fieldcad/cadfield/status"
	"net/http"
	"time"
)

type GetCatalog struct {
	policy            *status.Policy
	cacheControlShort time.Duration
}

func (action GetCatalog) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if _, errHTTP := requirePermission(req, authz.ReadEntities); errHTTP != nil {
		errHTTP.From("[requirePermission]").WriteResponse(w)
		return
	}
	catalog := action.policy.Catalog()
	resp := cadjson.Catalog{
		General:  catalog.General(),
		Incident: catalog.Incident(),
	}
	w.Header().Set("Cache-Control", fmt.Sprintf(
		"max-age=%v, private", action.cacheControlShort.Milliseconds()/1000))
	mustWriteJSON(w, req, resp)
}

type PostPolicyCheck struct {
	policy *status.Policy
}

func (action PostPolicyCheck) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	resp, errHTTP := action.postPolicyCheck(req)
	if errHTTP != nil {
		errHTTP.From("[postPolicyCheck]").WriteResponse(w)
		return
	}
	mustWriteJSON(w, req, resp)
}

func (action PostPolicyCheck) postPolicyCheck(req *http.Request) (cadjson.PolicyCheckResponse, *herr.HTTPError) {
	var empty cadjson.PolicyCheckResponse
	if _, errHTTP := requirePermission(req, authz.ReadEntities); errHTTP != nil {
		return empty, errHTTP.From("[requirePermission]")
	}
	check, errHTTP := readBodyAs[cadjson.PolicyCheckRequest](req)
	if errHTTP != nil {
		return empty, errHTTP.From("[readBodyAs]")
	}
	d := action.policy.CanChangeStatus(check.From, check.To)
	return cadjson.PolicyCheckResponse{
		Allowed:           d.Allowed,
		RequiresReason:    d.RequiresReason,
		CanCreateIncident: action.policy.CanCreateIncident(check.From),
		CanTerminateShift: action.policy.CanTerminateShift(check.From),
	}, nil
}
