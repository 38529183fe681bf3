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

// Package metrics tracks optional per-stage timing and throughput
// counters: encoding, checksum, header write, decoding, checksum
// verification. Generalised from an accumulate-per-block-timings design
// keyed by event type into a display table; here the same accumulation
// happens per named stage instead of per block/event-type pair, since
// this format has no transform stage and no per-block verbose listing
// requirement of its own.
package metrics

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Stage names used by the pipeline. Kept as constants so callers and
// tests don't risk a typo silently starting a new stage.
const (
	StageEncoding       = "encoding"
	StageChecksum       = "checksum"
	StageHeaderWrite    = "header_write"
	StageDecoding       = "decoding"
	StageChecksumVerify = "checksum_verify"
)

// Counter is one stage's accumulated statistics.
type Counter struct {
	Duration time.Duration
	Count    int64
	Bytes    int64
}

// Recorder accumulates Counters across stages. A nil *Recorder is valid
// and every method on it is a no-op, so instrumentation can be wired
// unconditionally and simply omitted by passing nil.
type Recorder struct {
	mu       sync.Mutex
	counters map[string]*Counter
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{counters: make(map[string]*Counter)}
}

// Record adds one observation to stage. Safe to call on a nil Recorder.
func (this *Recorder) Record(stage string, d time.Duration, bytes int64) {
	if this == nil {
		return
	}

	this.mu.Lock()
	defer this.mu.Unlock()

	c, ok := this.counters[stage]

	if !ok {
		c = &Counter{}
		this.counters[stage] = c
	}

	c.Duration += d
	c.Count++
	c.Bytes += bytes
}

// Observe times fn and records its duration and byteCount against stage,
// returning fn's error so it composes directly in an error-returning call
// chain. Safe to call on a nil Recorder (fn still runs).
func (this *Recorder) Observe(stage string, byteCount int64, fn func() error) error {
	start := time.Now()
	err := fn()
	this.Record(stage, time.Since(start), byteCount)
	return err
}

// Snapshot returns a copy of every counter recorded so far, keyed by
// stage name (map order is unspecified; Report sorts by name). Safe to
// call on a nil Recorder (returns nil).
func (this *Recorder) Snapshot() map[string]Counter {
	if this == nil {
		return nil
	}

	this.mu.Lock()
	defer this.mu.Unlock()

	out := make(map[string]Counter, len(this.counters))

	for k, v := range this.counters {
		out[k] = *v
	}

	return out
}

// Report renders a Snapshot as a human-readable table, in the spirit of
// a block-info display.
func (this *Recorder) Report() string {
	snap := this.Snapshot()

	if len(snap) == 0 {
		return ""
	}

	names := make([]string, 0, len(snap))

	for k := range snap {
		names = append(names, k)
	}

	sort.Strings(names)

	out := "stage                  count      bytes        duration\n"

	for _, name := range names {
		c := snap[name]
		out += fmt.Sprintf("%-22s %8d %12d %15s\n", name, c.Count, c.Bytes, c.Duration)
	}

	return out
}
