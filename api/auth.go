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
	"github.com/fieldcad/cadfield/cad"
	"github.com/fieldcad/cadfield/cadstate"
	"github.com/fieldcad/cadfield/directory"
	cadjson "github.com/fieldcad/cadfield/json"
	"github.com/fieldcad/cadfield/lib/authz"
	"github.com/fieldcad/cadfield/lib/herr"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const refreshTokenCookieName = "cadfield_refresh_token"

type PostAuth struct {
	officers             *directory.OfficerStore
	jwtSecret            string
	supervisors          []string
	accessTokenDuration  time.Duration
	refreshTokenDuration time.Duration
}

func (action PostAuth) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	resp, refreshToken, errHTTP := action.postAuth(req)
	if errHTTP != nil {
		errHTTP.From("[postAuth]").WriteResponse(w)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookieName,
		Value:    refreshToken,
		Path:     "/cad/api/auth",
		MaxAge:   int(action.refreshTokenDuration.Seconds()),
		HttpOnly: true,
		Secure:   true,
		// only ever read on POSTs to the refresh endpoint
		SameSite: http.SameSiteStrictMode,
	})
	mustWriteJSON(w, req, resp)
}

func (action PostAuth) postAuth(req *http.Request) (cadjson.PostAuthResponse, string, *herr.HTTPError) {
	var empty cadjson.PostAuthResponse
	vals, errHTTP := readBodyAs[cadjson.PostAuthRequest](req)
	if errHTTP != nil {
		return empty, "", errHTTP.From("[readBodyAs]")
	}
	officer, err := action.officers.Authenticate(req.Context(), vals.PayrollID, vals.Password)
	if err != nil {
		if errors.Is(err, directory.ErrBadCredentials) || errors.Is(err, directory.ErrDisabled) {
			return empty, "", herr.Unauthorized("Failed login attempt (bad credentials)", err).SetExpectedError()
		}
		return empty, "", herr.InternalServerError("Failed to check credentials", err).From("[Authenticate]")
	}
	slog.Info("Successful login for officer", "payrollID", officer.PayrollID)

	jwter := authz.JWTer{SecretKey: action.jwtSecret}
	accessTokenExpiration := time.Now().Add(action.accessTokenDuration)
	token, err := jwter.CreateAccessToken(
		officer.DisplayName(),
		officer.PayrollID,
		authz.RolesFor(officer.PayrollID, action.supervisors),
		accessTokenExpiration,
	)
	if err != nil {
		return empty, "", herr.InternalServerError("Failed to create access token", err).From("[CreateAccessToken]")
	}
	refreshToken, err := jwter.CreateRefreshToken(
		officer.DisplayName(), officer.PayrollID, time.Now().Add(action.refreshTokenDuration))
	if err != nil {
		return empty, "", herr.InternalServerError("Failed to create refresh token", err).From("[CreateRefreshToken]")
	}
	return cadjson.PostAuthResponse{
		Token:         token,
		ExpiresUnixMs: accessTokenExpiration.Add(authz.SuggestedEarlyAccessTokenRefresh).UnixMilli(),
		Officer:       officer,
	}, refreshToken, nil
}

type GetAuth struct {
	store              *cadstate.Store
	attachmentsEnabled bool
}

func (action GetAuth) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	// This endpoint is unauthenticated (doesn't require an Authorization header).
	resp := cadjson.GetAuthResponse{AttachmentsEnabled: action.attachmentsEnabled}

	jwtCtx, found := req.Context().Value(JWTContextKey).(JWTContext)
	if !found || jwtCtx.Error != nil || jwtCtx.Claims == nil {
		mustWriteJSON(w, req, resp)
		return
	}
	claims := jwtCtx.Claims
	resp.Authenticated = true
	resp.PayrollID = claims.PayrollID()
	resp.OfficerName = claims.OfficerName()
	if perms := claims.Permissions().String(); perms != "" {
		resp.Permissions = strings.Split(perms, "|")
	}
	resp.Callsign = ownCallsign(action.store, jwtCtx)
	mustWriteJSON(w, req, resp)
}

type RefreshAccessToken struct {
	officers            *directory.OfficerStore
	jwtSecret           string
	supervisors         []string
	accessTokenDuration time.Duration
}

func (action RefreshAccessToken) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	resp, errHTTP := action.refreshAccessToken(req)
	if errHTTP != nil {
		errHTTP.From("[refreshAccessToken]").WriteResponse(w)
		return
	}
	mustWriteJSON(w, req, resp)
}

func (action RefreshAccessToken) refreshAccessToken(req *http.Request) (cadjson.RefreshAccessTokenResponse, *herr.HTTPError) {
	var empty cadjson.RefreshAccessTokenResponse
	refreshCookie, err := req.Cookie(refreshTokenCookieName)
	if err != nil {
		return empty, herr.Unauthorized("Bad or no refresh token cookie found", err).SetExpectedError()
	}
	jwter := authz.JWTer{SecretKey: action.jwtSecret}
	claims, err := jwter.AuthenticateRefreshToken(refreshCookie.Value)
	if err != nil {
		return empty, herr.Unauthorized("Failed to authenticate refresh token", err)
	}
	officers, err := action.officers.Officers(req.Context())
	if err != nil {
		return empty, herr.InternalServerError("Failed to fetch officers", err).From("[Officers]")
	}
	var matched *cad.Officer
	for _, o := range officers {
		if o.PayrollID == claims.PayrollID() {
			matched = &o
			break
		}
	}
	if matched == nil {
		return empty, herr.Unauthorized("Officer for refresh token no longer exists", nil)
	}
	slog.Info("Refreshing access token", "payrollID", matched.PayrollID)

	accessTokenExpiration := time.Now().Add(action.accessTokenDuration)
	token, err := jwter.CreateAccessToken(
		matched.DisplayName(),
		matched.PayrollID,
		authz.RolesFor(matched.PayrollID, action.supervisors),
		accessTokenExpiration,
	)
	if err != nil {
		return empty, herr.InternalServerError("Failed to create access token", err).From("[CreateAccessToken]")
	}
	return cadjson.RefreshAccessTokenResponse{
		Token:         token,
		ExpiresUnixMs: accessTokenExpiration.Add(authz.SuggestedEarlyAccessTokenRefresh).UnixMilli(),
	}, nil
}
