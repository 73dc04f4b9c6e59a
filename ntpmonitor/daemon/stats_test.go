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
	"errors"
	"testing"
	"time"

	"github.com/facebook/ntpmonitor/ntpmonitor/checker"
	"github.com/stretchr/testify/require"
)

func TestStats(t *testing.T) {
	s := NewStats()
	s.UpdateCounterBy("a", 2)
	s.UpdateCounterBy("a", 3)
	s.SetCounter("b", 42)
	require.Equal(t, map[string]int64{"a": 5, "b": 42}, s.Get())

	// Get returns a copy
	got := s.Get()
	got["a"] = 100
	require.Equal(t, int64(5), s.Get()["a"])

	s.Reset()
	require.Equal(t, map[string]int64{"a": 0, "b": 0}, s.Get())
}

func TestRecordResultInvalid(t *testing.T) {
	s := NewStats()
	res := &checker.MonitorResult{Valid: false, FailedStage: checker.StageCollectFix, Err: errors.New("boom")}
	recordResult(s, res)
	recordResult(s, res)
	require.Equal(t, map[string]int64{
		"cycles":                  2,
		"invalid_cycles":          2,
		"valid":                   0,
		"valid_pps":               0,
		"valid_time":              0,
		"pps.offset_ns":           0,
		"pps.offset_ns.mean":      0,
		"pps.offset_ns.stddev":    0,
		"pps.locked_pct":          0,
		"pps.quality_ns":          0,
		"stage_error.collect_fix": 2,
	}, s.Get())
}

func TestRecordResultClearsPPS(t *testing.T) {
	s := NewStats()
	s.SetCounter("valid_pps", 1)
	s.SetCounter("pps.offset_ns", -2000)
	s.SetCounter("pps.locked_pct", 100)
	s.SetCounter("pps.quality_ns", 42)
	res := &checker.MonitorResult{
		Timestamp: time.Now(),
		Valid:     true,
		Peers:     []checker.Peer{{RefID: ".GPS."}},
		Fix:       &checker.Fix{ValidTime: true},
	}
	recordResult(s, res)
	c := s.Get()
	require.Equal(t, int64(0), c["valid_pps"])
	require.Equal(t, int64(0), c["pps.offset_ns"])
	require.Equal(t, int64(0), c["pps.locked_pct"])
	require.Equal(t, int64(0), c["pps.quality_ns"])
}

func TestRecordResultValid(t *testing.T) {
	s := NewStats()
	res := &checker.MonitorResult{
		Timestamp:  time.Now(),
		Valid:      true,
		ValidPPS:   true,
		Peers:      []checker.Peer{{RefID: checker.PPSRefID, OffsetMs: -0.002}, {RefID: ".GPS."}},
		Fix:        &checker.Fix{ValidTime: true, TimeAccuracy: 25e-9},
		Satellites: []checker.Satellite{{ID: 1}, {ID: 2}, {ID: 3}},
	}
	recordResult(s, res)
	c := s.Get()
	require.Equal(t, int64(1), c["cycles"])
	require.Equal(t, int64(1), c["valid"])
	require.Equal(t, int64(1), c["valid_pps"])
	require.Equal(t, int64(1), c["valid_time"])
	require.Equal(t, int64(2), c["peers"])
	require.Equal(t, int64(3), c["satellites_used"])
	require.Equal(t, int64(25), c["time_accuracy_ns"])
	require.Equal(t, int64(-2000), c["pps.offset_ns"])
	_, found := c["invalid_cycles"]
	require.False(t, found)
}

func TestRecordWindow(t *testing.T) {
	s := NewStats()
	recordWindow(s, windowSummary{})
	require.Empty(t, s.Get())

	recordWindow(s, windowSummary{Samples: 2, OffsetMean: 0.001, OffsetStddev: 0.0005, LockedRatio: 0.5})
	c := s.Get()
	require.Equal(t, int64(1000), c["pps.offset_ns.mean"])
	require.Equal(t, int64(500), c["pps.offset_ns.stddev"])
	require.Equal(t, int64(50), c["pps.locked_pct"])
}
