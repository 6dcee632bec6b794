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
	"bytes"
	"fmt"
	"github.com/fieldcad/cadfield/cadstate"
	"github.com/fieldcad/cadfield/lib/authz"
	"github.com/fieldcad/cadfield/lib/herr"
	"log/slog"
	"net/http"
	"runtime/debug"
	"runtime/metrics"
	"strings"
	"sync"
	"time"
)

type GetBuildInfo struct{}

func (action GetBuildInfo) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if _, errHTTP := requirePermission(req, authz.ReadMetrics); errHTTP != nil {
		errHTTP.From("[requirePermission]").WriteResponse(w)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	bi := buildInfo()
	herr.WriteOKResponse(w, bi.String())
}

var buildInfo = sync.OnceValue[debug.BuildInfo](func() debug.BuildInfo {
	bi, ok := debug.ReadBuildInfo()
	if ok {
		return *bi
	}
	// only used for informational purposes
	slog.Info("Build info was unavailable, so an empty placeholder will be used instead")
	return debug.BuildInfo{}
})

type GetRuntimeMetrics struct{}

func (action GetRuntimeMetrics) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if _, errHTTP := requirePermission(req, authz.ReadMetrics); errHTTP != nil {
		errHTTP.From("[requirePermission]").WriteResponse(w)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	herr.WriteOKResponse(w, runtimeMetrics())
}

func runtimeMetrics() string {
	var buf bytes.Buffer
	var samples []metrics.Sample
	for _, d := range metrics.All() {
		// there are a lot of these and they aren't of much use
		if strings.HasPrefix(d.Name, "/godebug/non-default-behavior/") {
			continue
		}
		// deprecated, identical to /sched/pauses/total/gc:seconds
		if d.Name == "/gc/pauses:seconds" {
			continue
		}
		samples = append(samples, metrics.Sample{Name: d.Name})
	}
	metrics.Read(samples)
	for _, sample := range samples {
		name, value := sample.Name, sample.Value
		switch value.Kind() {
		case metrics.KindUint64:
			_, _ = fmt.Fprintf(&buf, "%s: %d\n", name, value.Uint64())
		case metrics.KindFloat64:
			_, _ = fmt.Fprintf(&buf, "%s: %f\n", name, value.Float64())
		case metrics.KindFloat64Histogram:
			_, _ = fmt.Fprintf(&buf, "%s: %f\n", name, medianBucket(value.Float64Histogram()))
		default:
			_, _ = fmt.Fprintf(&buf, "%s: unexpected metric Kind: %v\n", name, value.Kind())
		}
	}
	return buf.String()
}

// medianBucket is a crude estimate of a histogram's median.
func medianBucket(h *metrics.Float64Histogram) float64 {
	total := uint64(0)
	for _, count := range h.Counts {
		total += count
	}
	thresh := total / 2
	total = 0
	for i, count := range h.Counts {
		total += count
		if total >= thresh {
			return h.Buckets[i]
		}
	}
	return 0
}

// PostSync syncs with CAD now, rather than waiting for the change stream or the poll.
type PostSync struct {
	syncer *cadstate.Syncer
}

func (action PostSync) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if _, errHTTP := requirePermission(req, authz.ReadTasks); errHTTP != nil {
		errHTTP.From("[requirePermission]").WriteResponse(w)
		return
	}
	if err := action.syncer.SyncNow(req.Context()); err != nil {
		backendError(err, "Failed to sync with CAD").From("[SyncNow]").WriteResponse(w)
		return
	}
	herr.WriteOKResponse(w, fmt.Sprintf("Synced at %v", time.Now().Truncate(time.Millisecond)))
}
