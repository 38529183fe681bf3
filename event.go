/*
Copyright 2011-2026 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package dczf

import (
	"fmt"
	"time"
)

const (
	// EvtStart fires once, before the first chunk is dispatched.
	EvtStart = 0
	// EvtChunkDone fires once per completed chunk (encode or decode side),
	// in completion order, which may differ from chunk index order.
	EvtChunkDone = 1
	// EvtEnd fires once, after the global digest has been verified/written.
	EvtEnd = 2
)

// Event describes a single occurrence during compression or decompression,
// covering this format's chunk-oriented pipeline.
type Event struct {
	eventType  int
	chunkIndex int
	size       int64
	eventTime  time.Time
	msg        string
}

// NewEvent creates an Event carrying a chunk index and byte size.
func NewEvent(eventType, chunkIndex int, size int64, eventTime time.Time) *Event {
	if eventTime.IsZero() {
		eventTime = time.Now()
	}

	return &Event{eventType: eventType, chunkIndex: chunkIndex, size: size, eventTime: eventTime}
}

// NewEventFromString creates an Event that only wraps a display message.
func NewEventFromString(eventType int, msg string, eventTime time.Time) *Event {
	if eventTime.IsZero() {
		eventTime = time.Now()
	}

	return &Event{eventType: eventType, msg: msg, eventTime: eventTime}
}

// Type returns the event type (one of the Evt* constants).
func (this *Event) Type() int { return this.eventType }

// ChunkIndex returns the 0-based chunk index this event refers to.
func (this *Event) ChunkIndex() int { return this.chunkIndex }

// Size returns the byte size associated with the event, if any.
func (this *Event) Size() int64 { return this.size }

// Time returns the time the event was created.
func (this *Event) Time() time.Time { return this.eventTime }

// String renders a human-readable line for logging/CLI display.
func (this *Event) String() string {
	if len(this.msg) > 0 {
		return this.msg
	}

	var t string

	switch this.eventType {
	case EvtStart:
		t = "START"
	case EvtChunkDone:
		t = "CHUNK_DONE"
	case EvtEnd:
		t = "END"
	default:
		t = "UNKNOWN"
	}

	return fmt.Sprintf("{\"type\":\"%s\",\"chunk\":%d,\"size\":%d,\"time\":%d}",
		t, this.chunkIndex, this.size, this.eventTime.UnixMilli())
}

// Listener is implemented by anything that wants to observe pipeline
// progress. ProcessEvent must return quickly and be safe for concurrent
// use: EvtChunkDone is delivered from the pipeline's worker goroutines,
// and blocking it holds up that worker.
type Listener interface {
	ProcessEvent(evt *Event)
}

// ProgressFunc receives a monotone non-decreasing completion fraction in
// [0.0, 1.0], driven off chunks actually written in ascending order. It is
// a convenience alternative to Listener for callers that only want a
// single number (e.g. a progress bar).
type ProgressFunc func(fraction float64)

func notifyListeners(listeners []Listener, evt *Event) {
	for _, l := range listeners {
		l.ProcessEvent(evt)
	}
}
