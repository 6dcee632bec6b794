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
	"encoding/json"
	"github.com/fieldcad/cadfield/cadstate"
	"github.com/fieldcad/cadfield/lib/authz"
	"github.com/fieldcad/cadfield/lib/herr"
	"io"
	"log/slog"
	"net/http"
)

func readBodyAs[T any](req *http.Request) (T, *herr.HTTPError) {
	empty := *new(T)
	defer shut(req.Body)
	bodyBytes, err := io.ReadAll(req.Body)
	if err != nil {
		return empty, herr.BadRequest("Failed to read request body", err).From("[io.ReadAll]")
	}
	var t T
	err = json.Unmarshal(bodyBytes, &t)
	if err != nil {
		return empty, herr.BadRequest("Failed to unmarshal request body", err).From("[Unmarshal]")
	}
	return t, nil
}

func mustWriteJSON(w http.ResponseWriter, req *http.Request, resp any) (success bool) {
	marshalled, err := json.Marshal(resp)
	if err != nil {
		herr.InternalServerError("Failed to marshal JSON", err).From("[Marshal]").WriteResponse(w)
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(marshalled)
	if err != nil {
		herr.InternalServerError("Failed to write JSON", err).From("[Write]").WriteResponse(w)
		slog.Debug("Failed to write JSON response", "path", req.URL.Path, "error", err)
		return false
	}
	return true
}

func getJwtCtx(req *http.Request) (JWTContext, *herr.HTTPError) {
	jwtCtx, found := req.Context().Value(JWTContextKey).(JWTContext)
	if !found || jwtCtx.Claims == nil {
		return JWTContext{}, herr.InternalServerError("This endpoint has been misconfigured", nil)
	}
	return jwtCtx, nil
}

// requirePermission gets the requestor's claims and checks they carry want.
func requirePermission(req *http.Request, want authz.PermissionMask) (JWTContext, *herr.HTTPError) {
	jwtCtx, errHTTP := getJwtCtx(req)
	if errHTTP != nil {
		return JWTContext{}, errHTTP.From("[getJwtCtx]")
	}
	if !jwtCtx.Claims.Permissions().Has(want) {
		return JWTContext{}, herr.Forbidden("The requestor does not have "+want.String()+" permission", nil)
	}
	return jwtCtx, nil
}

// ownCallsign is the callsign the requestor is booked on to, or "".
func ownCallsign(store *cadstate.Store, jwtCtx JWTContext) string {
	b, ok := store.BookOnFor(jwtCtx.Claims.PayrollID())
	if !ok {
		return ""
	}
	return b.Callsign
}

func shut(c io.Closer) {
	err := c.Close()
	if err != nil {
		slog.Error("Failed to close Closer", "error", err)
	}
}
