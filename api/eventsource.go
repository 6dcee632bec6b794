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
	cadjson "github.com/fieldcad/cadfield/json"
	"github.com/fieldcad/cadfield/tasklist"
	"github.com/launchdarkly/eventsource"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// Each officer has their own SSE channel, since task lists differ per officer.
const officerChannelPrefix = "officer:"

type CADEventData struct {
	Comment string `json:"comment,omitzero"`

	// Exactly one of TaskList, StatusChange, BookOn, or InitialEvent must be set,
	// as this indicates the type of CAD SSE.

	TaskList     *tasklist.View                 `json:"task_list,omitzero"`
	StatusChange *cadjson.StatusChangeResponse `json:"status_change,omitzero"`
	BookOn       *BookOnEvent                  `json:"book_on,omitzero"`
	InitialEvent bool                          `json:"initial_event,omitzero"`
}

type BookOnEvent struct {
	PayrollID string `json:"payroll_id"`
	Callsign  string `json:"callsign"`
	BookedOn  bool   `json:"booked_on"`
}

type CADEvent struct {
	EventID   int64
	EventData CADEventData
}

func (e CADEvent) Id() string {
	return strconv.FormatInt(e.EventID, 10)
}

func (e CADEvent) Event() string {
	switch {
	case e.EventData.TaskList != nil:
		return "TaskList"
	case e.EventData.StatusChange != nil:
		return "StatusChange"
	case e.EventData.BookOn != nil:
		return "BookOn"
	case e.EventData.InitialEvent:
		return "InitialEvent"
	default:
		return "UnknownEvent"
	}
}

func (e CADEvent) Data() string {
	b, err := json.Marshal(e.EventData)
	if err != nil {
		slog.Error("Error converting CADEvent to JSON", "event", e.Event(), "err", err)
	}
	return string(b)
}

type EventSourcerer struct {
	Server    *eventsource.Server
	IdCounter atomic.Int64

	mu       sync.Mutex
	channels map[string]struct{}
}

func NewEventSourcerer() *EventSourcerer {
	es := &EventSourcerer{
		Server:   eventsource.NewServer(),
		channels: make(map[string]struct{}),
	}
	es.Server.ReplayAll = true
	return es
}

// channelFor returns payrollID's channel, registering it on first use.
func (es *EventSourcerer) channelFor(payrollID string) string {
	channel := officerChannelPrefix + payrollID
	es.mu.Lock()
	defer es.mu.Unlock()
	if _, ok := es.channels[channel]; !ok {
		es.channels[channel] = struct{}{}
		es.Server.Register(channel, es)
	}
	return channel
}

func (es *EventSourcerer) allChannels() []string {
	es.mu.Lock()
	defer es.mu.Unlock()
	channels := make([]string, 0, len(es.channels))
	for c := range es.channels {
		channels = append(channels, c)
	}
	slices.Sort(channels)
	return channels
}

func (es *EventSourcerer) Replay(channel, id string) chan eventsource.Event {
	if !strings.HasPrefix(channel, officerChannelPrefix) {
		return nil
	}
	out := make(chan eventsource.Event, 1)
	out <- CADEvent{
		EventID: es.IdCounter.Load(),
		EventData: CADEventData{
			InitialEvent: true,
			Comment:      "The most recent SSE ID is provided in this message",
		},
	}
	close(out)
	return out
}

func (es *EventSourcerer) Close() {
	es.Server.Close()
}

func (es *EventSourcerer) notifyTaskList(payrollID string, v tasklist.View) {
	es.Server.Publish([]string{es.channelFor(payrollID)}, CADEvent{
		EventID:   es.IdCounter.Add(1),
		EventData: CADEventData{TaskList: &v},
	})
}

func (es *EventSourcerer) notifyStatusChange(resp cadjson.StatusChangeResponse) {
	channels := es.allChannels()
	if len(channels) == 0 {
		return
	}
	es.Server.Publish(channels, CADEvent{
		EventID:   es.IdCounter.Add(1),
		EventData: CADEventData{StatusChange: &resp},
	})
}

func (es *EventSourcerer) notifyBookOn(payrollID, callsign string, bookedOn bool) {
	channels := es.allChannels()
	if len(channels) == 0 {
		return
	}
	es.Server.Publish(channels, CADEvent{
		EventID: es.IdCounter.Add(1),
		EventData: CADEventData{BookOn: &BookOnEvent{
			PayrollID: payrollID,
			Callsign:  callsign,
			BookedOn:  bookedOn,
		}},
	})
}
