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
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJSONStatsHandler(t *testing.T) {
	s := NewJSONStats()
	s.SetCounter("cycles", 3)
	s.SetCounter("pps.offset_ns", -2000)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	got := map[string]int64{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, map[string]int64{"cycles": 3, "pps.offset_ns": -2000}, got)
}

func TestFlattenKey(t *testing.T) {
	require.Equal(t, "ntpmonitor_pps_offset_ns_mean", flattenKey("pps.offset_ns.mean"))
	require.Equal(t, "ntpmonitor_stage_error_collect_fix", flattenKey("stage_error.collect_fix"))
	require.Equal(t, "ntpmonitor_a_b_c_d_e", flattenKey("a b-c=d/e"))
}

func TestPrometheusExporterScrape(t *testing.T) {
	s := NewStats()
	s.SetCounter("valid_pps", 1)
	s.SetCounter("pps.offset_ns", -2000)
	e := NewPrometheusExporter(s, 0, time.Second)
	e.scrapeMetrics()
	// second scrape reuses registered gauges
	s.SetCounter("valid_pps", 0)
	e.scrapeMetrics()

	srv := httptest.NewServer(e.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	lines := strings.Split(string(body), "\n")
	require.Contains(t, lines, "ntpmonitor_valid_pps 0")
	require.Contains(t, lines, "ntpmonitor_pps_offset_ns -2000")
}
