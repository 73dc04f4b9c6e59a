/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package daemon

import (
	"container/ring"
	"sync"
	"time"

	"github.com/facebook/ntpmonitor/ntpmonitor/checker"
)

// ppsSample is what we remember about PPS peer from a single cycle
type ppsSample struct {
	Timestamp time.Time
	OffsetMs  float64
	DelayMs   float64
	JitterMs  float64
	Locked    bool
}

func newPPSSample(ts time.Time, p *checker.Peer) *ppsSample {
	return &ppsSample{
		Timestamp: ts,
		OffsetMs:  p.OffsetMs,
		DelayMs:   p.DelayMs,
		JitterMs:  p.JitterMs,
		Locked:    checker.PPSLocked(p),
	}
}

// ppsWindow keeps last N PPS samples, guarded by mutex
type ppsWindow struct {
	sync.Mutex
	samples *ring.Ring
	size    int
}

func newPPSWindow(size int) *ppsWindow {
	// ring.New already fills Values with nils
	return &ppsWindow{samples: ring.New(size), size: size}
}

func (w *ppsWindow) push(s *ppsSample) {
	w.Lock()
	defer w.Unlock()
	w.samples.Value = s
	w.samples = w.samples.Next()
}

// take returns up to n latest samples, newest first
func (w *ppsWindow) take(n int) []*ppsSample {
	w.Lock()
	defer w.Unlock()
	result := []*ppsSample{}
	r := w.samples.Prev()
	for j := 0; j < n && j < w.size; j++ {
		if r.Value == nil {
			break
		}
		result = append(result, r.Value.(*ppsSample))
		r = r.Prev()
	}
	return result
}

// all returns every sample in the window, newest first
func (w *ppsWindow) all() []*ppsSample {
	return w.take(w.size)
}

// windowSummary aggregates PPS window
type windowSummary struct {
	Samples      int
	OffsetMean   float64
	OffsetStddev float64
	LockedRatio  float64
}

func summarize(samples []*ppsSample) windowSummary {
	if len(samples) == 0 {
		return windowSummary{}
	}
	offsets := make([]float64, len(samples))
	locked := 0
	for i, s := range samples {
		offsets[i] = s.OffsetMs
		if s.Locked {
			locked++
		}
	}
	return windowSummary{
		Samples:      len(samples),
		OffsetMean:   mean(offsets),
		OffsetStddev: stddev(offsets),
		LockedRatio:  float64(locked) / float64(len(samples)),
	}
}
