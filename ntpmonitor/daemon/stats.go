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
	"math"
	"sync"

	"github.com/facebook/ntpmonitor/ntpmonitor/checker"
)

// counter names
const (
	counterCycles         = "cycles"
	counterInvalidCycles  = "invalid_cycles"
	counterValid          = "valid"
	counterValidPPS       = "valid_pps"
	counterValidTime      = "valid_time"
	counterPPSTransitions = "pps_transitions"
	counterSatellitesUsed = "satellites_used"
	counterPeers          = "peers"
	counterTimeAccuracyNS = "time_accuracy_ns"
	counterPPSOffsetNS    = "pps.offset_ns"
	counterPPSMeanNS      = "pps.offset_ns.mean"
	counterPPSStddevNS    = "pps.offset_ns.stddev"
	counterPPSLockedPct   = "pps.locked_pct"
	counterPPSQualityNS   = "pps.quality_ns"
	counterPublishErrors  = "publish_errors"
	counterStageErrorPfx  = "stage_error."
)

// StatsServer is a stats server interface
type StatsServer interface {
	// Reset atomically sets all the counters to 0
	Reset()
	SetCounter(key string, val int64)
	UpdateCounterBy(key string, count int64)
	Get() map[string]int64
}

// Stats is a mutex-guarded map of counters
type Stats struct {
	mux      sync.Mutex
	counters map[string]int64
}

// NewStats created new instance of Stats
func NewStats() *Stats {
	return &Stats{
		counters: map[string]int64{},
	}
}

// UpdateCounterBy will increment counter
func (s *Stats) UpdateCounterBy(key string, count int64) {
	s.mux.Lock()
	s.counters[key] += count
	s.mux.Unlock()
}

// SetCounter will set a counter to the provided value.
func (s *Stats) SetCounter(key string, val int64) {
	s.mux.Lock()
	s.counters[key] = val
	s.mux.Unlock()
}

// Get returns a copy of counters
func (s *Stats) Get() map[string]int64 {
	s.mux.Lock()
	defer s.mux.Unlock()
	ret := make(map[string]int64, len(s.counters))
	for key, val := range s.counters {
		ret[key] = val
	}
	return ret
}

// Reset all the values of counters
func (s *Stats) Reset() {
	s.mux.Lock()
	for k := range s.counters {
		s.counters[k] = 0
	}
	s.mux.Unlock()
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func secondsToNS(v float64) int64 {
	return int64(math.Round(v * 1e9))
}

func msToNS(v float64) int64 {
	return int64(math.Round(v * 1e6))
}

// recordResult updates per-cycle counters from sampling result
func recordResult(s StatsServer, r *checker.MonitorResult) {
	s.UpdateCounterBy(counterCycles, 1)
	s.SetCounter(counterValid, boolToInt(r.Valid))
	if !r.Valid {
		s.UpdateCounterBy(counterInvalidCycles, 1)
		s.UpdateCounterBy(counterStageErrorPfx+r.FailedStage.String(), 1)
		s.SetCounter(counterValidPPS, 0)
		s.SetCounter(counterValidTime, 0)
		clearPPS(s)
		return
	}
	s.SetCounter(counterValidPPS, boolToInt(r.ValidPPS))
	s.SetCounter(counterValidTime, boolToInt(r.Fix.ValidTime))
	s.SetCounter(counterSatellitesUsed, int64(len(r.Satellites)))
	s.SetCounter(counterPeers, int64(len(r.Peers)))
	s.SetCounter(counterTimeAccuracyNS, secondsToNS(r.Fix.TimeAccuracy))
	p, found := r.PPSPeer()
	if !found {
		clearPPS(s)
		return
	}
	s.SetCounter(counterPPSOffsetNS, msToNS(p.OffsetMs))
}

// clearPPS zeroes PPS gauges when there is no PPS peer to describe
func clearPPS(s StatsServer) {
	for _, k := range []string{counterPPSOffsetNS, counterPPSMeanNS, counterPPSStddevNS, counterPPSLockedPct, counterPPSQualityNS} {
		s.SetCounter(k, 0)
	}
}

// recordWindow updates counters describing PPS window
func recordWindow(s StatsServer, w windowSummary) {
	if w.Samples == 0 {
		return
	}
	s.SetCounter(counterPPSMeanNS, msToNS(w.OffsetMean))
	s.SetCounter(counterPPSStddevNS, msToNS(w.OffsetStddev))
	s.SetCounter(counterPPSLockedPct, int64(math.Round(w.LockedRatio*100)))
}
