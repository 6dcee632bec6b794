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

package cadclient

import (
	"context"
	"fmt"
	"github.com/launchdarkly/eventsource"
	"log/slog"
	"net/http"
	"time"
)

const maxStreamBackoff = time.Minute

// Changes subscribes to CAD's change stream. Each event sent by CAD becomes one signal on the
// returned channel; signals are dropped while one is still waiting to be read. The stream
// reconnects on its own, and the channel is closed once ctx is done.
func (c *Client) Changes(ctx context.Context) (<-chan struct{}, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.url("cad", "changes"), nil)
	if err != nil {
		return nil, fmt.Errorf("[newRequest]: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	stream, err := eventsource.SubscribeWithRequestAndOptions(req,
		// no client timeout, since the response never ends
		eventsource.StreamOptionHTTPClient(&http.Client{}),
		eventsource.StreamOptionInitialRetry(c.streamRetry),
		eventsource.StreamOptionUseBackoff(maxStreamBackoff),
		eventsource.StreamOptionErrorHandler(func(err error) eventsource.StreamErrorHandlerResult {
			slog.Warn("CAD change stream error, reconnecting", "error", err)
			return eventsource.StreamErrorHandlerResult{}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("[SubscribeWithRequestAndOptions]: %w", err)
	}

	signals := make(chan struct{}, 1)
	go func() {
		defer close(signals)
		defer stream.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-stream.Events:
				if !ok {
					return
				}
				slog.Debug("CAD change event", "event", ev.Event(), "id", ev.Id())
				select {
				case signals <- struct{}{}:
				default:
				}
			}
		}
	}()
	return signals, nil
}
