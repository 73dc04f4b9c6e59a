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
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/facebook/ntpmonitor/ntpmonitor/checker"
	"github.com/stretchr/testify/require"
)

func validResult() *checker.MonitorResult {
	return &checker.MonitorResult{
		Timestamp:  time.UnixMilli(1700000000123),
		Valid:      true,
		ValidPPS:   true,
		Peers:      []checker.Peer{{RefID: checker.PPSRefID, OffsetMs: -0.002, DelayMs: 0, JitterMs: 0.004}},
		Fix:        &checker.Fix{ValidTime: true, TimeAccuracy: 2.5e-8, SatellitesUsed: 2},
		Satellites: []checker.Satellite{{ID: 1}, {ID: 2}},
	}
}

func invalidResult() *checker.MonitorResult {
	err := errors.New(`command failed: "ntpq -p": no output`)
	return &checker.MonitorResult{
		Timestamp:    time.UnixMilli(1700000000123),
		Valid:        false,
		ErrorMessage: err.Error(),
		FailedStage:  checker.StageCollectPeers,
		Err:          err,
	}
}

func decodeLines(t *testing.T, b *bytes.Buffer) []map[string]any {
	res := []map[string]any{}
	for _, l := range strings.Split(strings.TrimSpace(b.String()), "\n") {
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(l), &m))
		res = append(res, m)
	}
	return res
}

func TestJSONPublisher(t *testing.T) {
	var b bytes.Buffer
	p := NewJSONPublisher(&b)
	require.NoError(t, p.Publish(validResult()))
	require.NoError(t, p.Publish(invalidResult()))
	ev := checker.NewStatsEvent(validResult())
	require.NoError(t, p.PostEvent(ev))

	lines := decodeLines(t, &b)
	require.Len(t, lines, 3)

	require.Equal(t, "result", lines[0]["kind"])
	require.Equal(t, true, lines[0]["monitor.ntp.valid"])
	require.Equal(t, true, lines[0]["monitor.ntp.validPPS"])
	require.Equal(t, float64(1700000000123), lines[0]["timestamp"])
	peers := lines[0]["monitor.ntp.peers"].([]any)
	require.Equal(t, ".PPS.", peers[0].(map[string]any)["refid"])

	require.Equal(t, "result", lines[1]["kind"])
	require.Equal(t, false, lines[1]["monitor.ntp.valid"])
	require.Equal(t, `command failed: "ntpq -p": no output`, lines[1]["monitor.ntp.errorMessage"])
	_, found := lines[1]["monitor.ntp.peers"]
	require.False(t, found)

	require.Equal(t, "event", lines[2]["kind"])
	require.Equal(t, "ntpstats", lines[2]["tag"])
	require.Equal(t, float64(2), lines[2]["fields.satellitesUsed"])
}

func TestCSVPublisher(t *testing.T) {
	var b bytes.Buffer
	p := NewCSVPublisher(&b)
	require.NoError(t, p.Publish(validResult()))
	require.NoError(t, p.Publish(invalidResult()))
	require.NoError(t, p.PostEvent(checker.NewStatsEvent(validResult())))

	want := `timestamp,valid,valid_pps,pps_offset_ms,pps_delay_ms,pps_jitter_ms,valid_time,time_accuracy_s,satellites_used,error
1700000000123,true,true,-0.002,0,0.004,true,2.5e-08,2,
1700000000123,false,,,,,,,,"command failed: ""ntpq -p"": no output"
`
	require.Equal(t, want, b.String())
}

func TestCSVPublisherAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	for i := 0; i < 2; i++ {
		w, closer, err := OpenOutput(path)
		require.NoError(t, err)
		require.NoError(t, NewCSVPublisher(w).Publish(validResult()))
		require.NoError(t, closer())
	}
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[0], "timestamp,valid,"))
	require.Equal(t, 1, strings.Count(string(data), "timestamp,valid,"))
	require.Equal(t, lines[1], lines[2])
}

func TestNewPublisher(t *testing.T) {
	p, err := NewPublisher(FormatJSON, &bytes.Buffer{})
	require.NoError(t, err)
	require.IsType(t, &JSONPublisher{}, p)

	p, err = NewPublisher(FormatCSV, &bytes.Buffer{})
	require.NoError(t, err)
	require.IsType(t, &CSVPublisher{}, p)

	_, err = NewPublisher("xml", &bytes.Buffer{})
	require.Error(t, err)
}

func TestOpenOutput(t *testing.T) {
	w, closer, err := OpenOutput("")
	require.NoError(t, err)
	require.Equal(t, os.Stdout, w)
	require.NoError(t, closer())

	path := filepath.Join(t.TempDir(), "out.json")
	w, closer, err = OpenOutput(path)
	require.NoError(t, err)
	require.NoError(t, NewJSONPublisher(w).Publish(invalidResult()))
	require.NoError(t, closer())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"kind":"result"`)

	_, _, err = OpenOutput("/does/not/exist/for/sure/out.json")
	require.Error(t, err)
}
