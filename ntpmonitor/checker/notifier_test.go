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

package checker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestNotifier() *ChangeNotifier {
	n := NewChangeNotifier()
	n.now = func() time.Time { return time.UnixMilli(1700000000123) }
	return n
}

func TestChangeNotifierFirstCall(t *testing.T) {
	require.Nil(t, newTestNotifier().Observe(true))
	require.Nil(t, newTestNotifier().Observe(false))
}

func TestChangeNotifierSequence(t *testing.T) {
	n := newTestNotifier()
	seq := []bool{false, false, true, true, false, true}
	want := []bool{false, false, true, false, true, true}
	for i, v := range seq {
		ev := n.Observe(v)
		require.Equal(t, want[i], ev != nil, "step %d", i)
	}
}

func TestChangeNotifierEvent(t *testing.T) {
	n := newTestNotifier()
	require.Nil(t, n.Observe(false))

	ev := n.Observe(true)
	require.NotNil(t, ev)
	require.Equal(t, "pps.change", ev.Tag)
	require.Equal(t, int64(1700000000123), ev.Timestamp)
	require.Equal(t, "ntp.monitor", ev.Source)
	require.Equal(t, "valid.pps.changed", ev.Type)
	require.Equal(t, 5, ev.Level)
	require.Equal(t, "NTP now locked to PPS", ev.Subject)
	require.Equal(t, "NTP now locked to PPS, noted at 2023-11-14T22:13:20Z", ev.Message)

	ev = n.Observe(false)
	require.NotNil(t, ev)
	require.Equal(t, "NTP now NOT locked to PPS, noted at 2023-11-14T22:13:20Z", ev.Message)
	require.NotEqual(t, ev.Subject, ev.Message)

	d := ev.Dotted()
	require.Equal(t, "pps.change", d["tag"])
	require.Equal(t, "valid.pps.changed", d["event.type"])
	require.Equal(t, "NTP now NOT locked to PPS", d["event.subject"])
	require.Equal(t, false, d["monitor.ntp.validPPS"])
}

func TestChangeNotifierReset(t *testing.T) {
	n := newTestNotifier()
	require.Nil(t, n.Observe(false))
	n.Reset()
	require.Nil(t, n.Observe(true))
	require.Nil(t, n.Observe(true))
}

func TestChangeNotifierConcurrent(t *testing.T) {
	n := newTestNotifier()
	n.Observe(false)
	var wg sync.WaitGroup
	var mu sync.Mutex
	events := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if n.Observe(true) != nil {
				mu.Lock()
				events++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, events)
}

func TestNewStatsEvent(t *testing.T) {
	require.Nil(t, NewStatsEvent(nil))
	require.Nil(t, NewStatsEvent(&MonitorResult{Valid: false}))

	res := &MonitorResult{
		Timestamp: time.UnixMilli(42),
		Valid:     true,
		ValidPPS:  true,
		Fix:       &Fix{ValidTime: true, TimeAccuracy: 2e-8, SatellitesUsed: 7},
	}
	ev := NewStatsEvent(res)
	require.Equal(t, "ntpstats", ev.Tag)
	require.Equal(t, int64(42), ev.Timestamp)
	require.Equal(t, map[string]any{
		"fields.validPPS":       true,
		"fields.validTime":      true,
		"fields.timeAccuracy":   2e-8,
		"fields.satellitesUsed": 7,
	}, ev.Fields)
	d := ev.Dotted()
	_, found := d["event.subject"]
	require.False(t, found)
	_, found = d["validPPS"]
	require.False(t, found)

	res.System = &SystemVariables{RefID: "PPS", Offset: -0.001, SysJitter: 0.002, Frequency: 12.5}
	ev = NewStatsEvent(res)
	require.Equal(t, -0.001, ev.Fields["fields.offsetMs"])
	require.Equal(t, 0.002, ev.Fields["fields.sysJitterMs"])
	require.Equal(t, 12.5, ev.Fields["fields.frequencyPpm"])
	require.Equal(t, "PPS", ev.Fields["fields.refid"])
}
