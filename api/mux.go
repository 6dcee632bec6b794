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
	"context"
	"errors"
	"fmt"
	"github.com/fieldcad/cadfield/cadstate"
	"github.com/fieldcad/cadfield/conf"
	"github.com/fieldcad/cadfield/directory"
	"github.com/fieldcad/cadfield/lib/authz"
	"github.com/fieldcad/cadfield/lib/herr"
	"github.com/fieldcad/cadfield/metrics"
	"github.com/fieldcad/cadfield/report"
	"github.com/fieldcad/cadfield/status"
	"github.com/fieldcad/cadfield/store"
	"github.com/fieldcad/cadfield/summary"
	"github.com/fieldcad/cadfield/workflow"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"
)

// Services is everything the API serves from.
type Services struct {
	Store     *cadstate.Store
	Syncer    *cadstate.Syncer
	Policy    *status.Policy
	Workflow  *workflow.Workflow
	Summaries *summary.Registry
	Officers  *directory.OfficerStore
	Reports   *report.Filer
	Backend   BookOnSubmitter
	CadDBQ    *store.DBQ
	Metrics   *metrics.Collector
	Sessions  *Sessions
	Events    *EventSourcerer
}

func AddToMux(mux *http.ServeMux, cfg *conf.CADConfig, svc Services) *http.ServeMux {
	if mux == nil {
		mux = http.NewServeMux()
	}

	jwter := authz.JWTer{SecretKey: cfg.Core.JWTSecret}
	attachmentsEnabled := cfg.AttachmentsStore.Type != conf.AttachmentsStoreNone

	// authenticated is the usual chain for an endpoint that requires a valid access token
	authenticated := func(name string, h http.Handler) http.Handler {
		return Adapt(
			h,
			Instrument(svc.Metrics, name),
			RecoverFromPanic(),
			RequireAuthN(jwter),
			LogRequest(),
			LimitRequestBytes(cfg.Core.MaxRequestBytes),
		)
	}

	mux.Handle("POST /cad/api/auth",
		Adapt(
			PostAuth{
				svc.Officers,
				cfg.Core.JWTSecret,
				cfg.Core.Supervisors,
				cfg.Core.AccessTokenLifetime,
				cfg.Core.RefreshTokenLifetime,
			},
			Instrument(svc.Metrics, "auth"),
			RecoverFromPanic(),
			LogRequest(),
			LimitRequestBytes(cfg.Core.MaxRequestBytes),
			// This endpoint does not consider the request's Authorization header,
			// because the point of this is to make a new JWT.
		),
	)

	mux.Handle("GET /cad/api/auth",
		Adapt(
			GetAuth{svc.Store, attachmentsEnabled},
			Instrument(svc.Metrics, "auth"),
			RecoverFromPanic(),
			OptionalAuthN(jwter),
			LogRequest(),
			LimitRequestBytes(cfg.Core.MaxRequestBytes),
		),
	)

	mux.Handle("POST /cad/api/auth/refresh",
		Adapt(
			RefreshAccessToken{
				svc.Officers,
				cfg.Core.JWTSecret,
				cfg.Core.Supervisors,
				cfg.Core.AccessTokenLifetime,
			},
			Instrument(svc.Metrics, "auth_refresh"),
			RecoverFromPanic(),
			LogRequest(),
			LimitRequestBytes(cfg.Core.MaxRequestBytes),
		),
	)

	mux.Handle("GET /cad/api/catalog",
		authenticated("catalog", GetCatalog{svc.Policy, cfg.Core.CacheControlShort}))

	mux.Handle("POST /cad/api/policy",
		authenticated("policy", PostPolicyCheck{svc.Policy}))

	mux.Handle("GET /cad/api/tasks",
		authenticated("tasks", GetTasks{svc.Sessions}))

	mux.Handle("POST /cad/api/tasks/selection",
		authenticated("tasks_selection", PostTaskSelection{svc.Sessions}))

	mux.Handle("POST /cad/api/tasks/filter",
		authenticated("tasks_filter", PostTaskFilter{svc.Sessions}))

	mux.Handle("GET /cad/api/resources/{callsign}",
		authenticated("resource", GetResource{svc.Store, svc.Workflow}))

	mux.Handle("POST /cad/api/resources/{callsign}/status",
		authenticated("resource_status", PostStatusChange{svc.Store, svc.Workflow, svc.Events}))

	mux.Handle("GET /cad/api/resources/{callsign}/history",
		authenticated("resource_history", GetStatusHistory{svc.CadDBQ}))

	mux.Handle("GET /cad/api/history",
		authenticated("history", GetStatusHistory{svc.CadDBQ}))

	mux.Handle("GET /cad/api/incidents/{incidentID}",
		authenticated("incident", GetIncident{svc.Store}))

	mux.Handle("POST /cad/api/incidents/{incidentID}/reports",
		authenticated("incident_reports", PostReport{svc.Store, svc.Reports}))

	mux.Handle("GET /cad/api/summary/{kind}/{id}",
		authenticated("summary", GetSummary{svc.Store, svc.Summaries}))

	mux.Handle("POST /cad/api/bookon",
		authenticated("bookon", PostBookOn{svc.Store, svc.Backend, svc.Events}))

	mux.Handle("DELETE /cad/api/bookon",
		authenticated("bookon", DeleteBookOn{svc.Store, svc.Policy, svc.Backend, svc.Events}))

	mux.Handle("POST /cad/api/sync",
		authenticated("sync", PostSync{svc.Syncer}))

	mux.Handle("GET /cad/api/eventsource",
		Adapt(
			GetEventSource{svc.Events, svc.Sessions},
			RecoverFromPanic(),
			RequireAuthN(jwter),
			LogRequest(),
			LimitRequestBytes(cfg.Core.MaxRequestBytes),
		),
	)

	mux.Handle("GET /cad/api/debug/buildinfo",
		authenticated("debug", GetBuildInfo{}))

	mux.Handle("GET /cad/api/debug/runtime",
		authenticated("debug", GetRuntimeMetrics{}))

	if svc.Metrics != nil {
		mux.Handle("GET /metrics", svc.Metrics.Handler())
	}

	return AddBasicHandlers(mux)
}

// AddBasicHandlers adds the handlers that need no services, e.g. the health check ping.
func AddBasicHandlers(mux *http.ServeMux) *http.ServeMux {
	if mux == nil {
		mux = http.NewServeMux()
	}
	mux.HandleFunc("GET /cad/api/ping",
		func(w http.ResponseWriter, req *http.Request) {
			herr.WriteOKResponse(w, "ack")
		},
	)
	return mux
}

// GetEventSource streams the requestor's own SSE channel.
type GetEventSource struct {
	es       *EventSourcerer
	sessions *Sessions
}

func (action GetEventSource) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	jwtCtx, errHTTP := requirePermission(req, authz.ReadTasks)
	if errHTTP != nil {
		errHTTP.From("[requirePermission]").WriteResponse(w)
		return
	}
	payrollID := jwtCtx.Claims.PayrollID()
	channel := action.es.channelFor(payrollID)
	// the session's changes are what flow down the channel
	action.sessions.For(payrollID)
	action.es.Server.Handler(channel).ServeHTTP(w, req)
}

type Adapter func(http.Handler) http.Handler

// responseWriter is a wrapper around http.ResponseWriter that lets us
// capture details about the response.
type responseWriter struct {
	http.ResponseWriter
	http.Flusher
	code int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.code = code
	rw.ResponseWriter.WriteHeader(code)
}

func LimitRequestBytes(maxRequestBytes int64) Adapter {
	return func(next http.Handler) http.Handler {
		return http.MaxBytesHandler(next, maxRequestBytes)
	}
}

func LogRequest() Adapter {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			flusher, _ := w.(http.Flusher)
			writ := &responseWriter{w, flusher, http.StatusOK}

			next.ServeHTTP(writ, r)

			officer := "(unauthenticated)"
			jwtCtx, _ := r.Context().Value(JWTContextKey).(JWTContext)
			if jwtCtx.Claims != nil {
				officer = jwtCtx.Claims.PayrollID()
			}

			durationMS := float64(time.Since(start).Microseconds()) / 1000.0
			slog.Debug(fmt.Sprintf("Served request for: %v %v ", r.Method, r.URL.Path),
				"duration", fmt.Sprintf("%.3fms", durationMS),
				"method", r.Method,
				"officer", officer,
				"code", writ.code,
				"remote-addr", r.RemoteAddr,
				"build", buildInfo().Main.Version,
			)
		})
	}
}

func RecoverFromPanic() Adapter {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					slog.Error("Recovered from panic", "err", err)
					debug.PrintStack()
					if e, ok := err.(error); ok {
						herr.AsHTTPError(e).WriteResponse(w)
						return
					}
					http.Error(w, "The server malfunctioned", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Instrument records request counts and durations under name. A nil collector records nothing.
func Instrument(c *metrics.Collector, name string) Adapter {
	return func(next http.Handler) http.Handler {
		if c == nil {
			return next
		}
		return c.Instrument(name, next)
	}
}

type ContextKey string

const JWTContextKey ContextKey = "JWTContext"

type JWTContext struct {
	Claims *authz.OfficerClaims
	Error  error
}

func OptionalAuthN(j authz.JWTer) Adapter {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			claims, err := j.AuthenticateJWT(strings.TrimPrefix(header, "Bearer "))
			ctx := context.WithValue(r.Context(), JWTContextKey, JWTContext{
				Claims: claims,
				Error:  err,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireAuthN(j authz.JWTer) Adapter {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			claims, err := j.AuthenticateJWT(strings.TrimPrefix(header, "Bearer "))
			if err != nil || claims == nil {
				herr.Unauthorized("Invalid Authorization token", err).SetExpectedError().WriteResponse(w)
				return
			}
			if claims.PayrollID() == "" {
				herr.Unauthorized("Invalid Authorization token", errors.New("no payroll ID in JWT")).WriteResponse(w)
				return
			}
			jwtCtx := context.WithValue(r.Context(), JWTContextKey, JWTContext{
				Claims: claims,
				Error:  err,
			})
			next.ServeHTTP(w, r.WithContext(jwtCtx))
		})
	}
}

func Adapt(handler http.Handler, adapters ...Adapter) http.Handler {
	for i := range adapters {
		adapter := adapters[len(adapters)-1-i] // range in reverse
		handler = adapter(handler)
	}
	return handler
}
