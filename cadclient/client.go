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

// Package cadclient talks to the CAD backend over HTTP: it fetches snapshots, follows the
// change stream, and submits status changes, book-ons and reports.
package cadclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/fieldcad/cadfield/cad"
	"github.com/fieldcad/cadfield/cadstate"
	"github.com/fieldcad/cadfield/lib/herr"
	"github.com/fieldcad/cadfield/report"
	"github.com/fieldcad/cadfield/workflow"
	"golang.org/x/sync/errgroup"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const maxErrorBodyBytes = 64 << 10

// RemoteError is a non-2xx response from CAD.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("CAD responded %v %v", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("CAD responded %v: %v", e.Status, e.Message)
}

// UserMessage is CAD's own explanation when it gave one.
func (e *RemoteError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("CAD rejected the request (%v %v)", e.Status, http.StatusText(e.Status))
}

type Client struct {
	baseURL     *url.URL
	apiKey      string
	httpClient  *http.Client
	streamRetry time.Duration
}

var (
	_ cadstate.Fetcher   = (*Client)(nil)
	_ cadstate.Notifier  = (*Client)(nil)
	_ workflow.Submitter = (*Client)(nil)
	_ report.Submitter   = (*Client)(nil)
)

// New creates a Client. requestTimeout bounds every request except the change stream.
func New(baseURL, apiKey string, requestTimeout, streamRetry time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("[url.Parse]: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("CAD base URL must be absolute, got %q", baseURL)
	}
	return &Client{
		baseURL:     u,
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: requestTimeout},
		streamRetry: streamRetry,
	}, nil
}

func (c *Client) url(path ...string) string {
	return c.baseURL.JoinPath(path...).String()
}

func (c *Client) newRequest(ctx context.Context, method, target string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("[json.Marshal]: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("[NewRequestWithContext]: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

// do sends the request and decodes a JSON response into out, if out is non-nil.
func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("[Do]: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	slog.Debug("CAD request",
		"method", req.Method,
		"url", req.URL.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("[Decode]: %w", err)
	}
	return nil
}

func remoteError(resp *http.Response) error {
	re := &RemoteError{Status: resp.StatusCode}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return re
	}
	var problem herr.Problem
	if json.Unmarshal(b, &problem) == nil && problem.Detail != "" {
		re.Message = problem.Detail
	}
	return re
}

// FetchSnapshot fetches every collection concurrently. Any failure fails the whole fetch,
// so a snapshot is never partial.
func (c *Client) FetchSnapshot(ctx context.Context) (cad.Snapshot, error) {
	var snap cad.Snapshot
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return c.fetchCollection(groupCtx, "incidents", &snap.Incidents) })
	group.Go(func() error { return c.fetchCollection(groupCtx, "patrols", &snap.Patrols) })
	group.Go(func() error { return c.fetchCollection(groupCtx, "broadcasts", &snap.Broadcasts) })
	group.Go(func() error { return c.fetchCollection(groupCtx, "resources", &snap.Resources) })
	group.Go(func() error { return c.fetchCollection(groupCtx, "officers", &snap.Officers) })
	if err := group.Wait(); err != nil {
		return cad.Snapshot{}, err
	}
	snap.SyncTime = time.Now()
	return snap, nil
}

func (c *Client) fetchCollection(ctx context.Context, name string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, c.url("cad", "sync", name), nil)
	if err != nil {
		return fmt.Errorf("[newRequest]: %w", err)
	}
	if err = c.do(req, out); err != nil {
		return fmt.Errorf("[fetch %v]: %w", name, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, target string, body any) error {
	req, err := c.newRequest(ctx, http.MethodPost, target, body)
	if err != nil {
		return fmt.Errorf("[newRequest]: %w", err)
	}
	return c.do(req, nil)
}

func (c *Client) SubmitStatusChange(ctx context.Context, change workflow.StatusChange) error {
	if change.Callsign == "" {
		return errors.New("status change has no callsign")
	}
	return c.post(ctx, c.url("cad", "resources", change.Callsign, "status"), change)
}

func (c *Client) SubmitReport(ctx context.Context, s report.Submission) error {
	return c.post(ctx, c.url("cad", "incidents", s.IncidentID, "reports"), s)
}

// BookOnRequest is the body of a book-on submission.
type BookOnRequest struct {
	PayrollID string     `json:"payroll_id"`
	BookOn    cad.BookOn `json:"book_on"`
}

func (c *Client) SubmitBookOn(ctx context.Context, payrollID string, b cad.BookOn) error {
	return c.post(ctx, c.url("cad", "bookons"), BookOnRequest{PayrollID: payrollID, BookOn: b})
}

func (c *Client) SubmitBookOff(ctx context.Context, payrollID string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, c.url("cad", "bookons", payrollID), nil)
	if err != nil {
		return fmt.Errorf("[newRequest]: %w", err)
	}
	return c.do(req, nil)
}
