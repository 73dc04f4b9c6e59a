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
	"errors"
	"testing"
	"time"

	"github.com/facebook/ntpmonitor/ntp/control"
	"github.com/stretchr/testify/require"
)

func TestStageString(t *testing.T) {
	require.Equal(t, "collect_peers", StageCollectPeers.String())
	require.Equal(t, "collect_status", StageCollectStatus.String())
	require.Equal(t, "collect_fix", StageCollectFix.String())
	require.Equal(t, "collect_satellites", StageCollectSatellites.String())
	require.Equal(t, "assemble", StageAssemble.String())
	require.Equal(t, "unsupported", Stage(42).String())
}

func TestInvalidResultFields(t *testing.T) {
	res := newInvalidResult(time.Now(), StageCollectFix, errors.New("boom"))
	require.Equal(t, map[string]any{
		"monitor.ntp.valid":        false,
		"monitor.ntp.errorMessage": "boom",
	}, res.Fields())
}

func TestValidResultFields(t *testing.T) {
	res := &MonitorResult{
		Valid:      true,
		ValidPPS:   true,
		Peers:      []Peer{{RefID: PPSRefID}},
		Fix:        &Fix{ValidTime: true, TimeAccuracy: 1e-8, SatellitesUsed: 4, AltitudeFt: 1},
		Satellites: []Satellite{},
	}
	f := res.Fields()
	require.Equal(t, true, f["monitor.ntp.valid"])
	require.Equal(t, true, f["monitor.ntp.validPPS"])
	require.Equal(t, 4, f["monitor.ntp.satellitesUsed"])
	require.Equal(t, 1.0, f["monitor.ntp.altitudeFt"])
	require.Equal(t, res.Peers, f["monitor.ntp.peers"])
	_, found := f["monitor.ntp.errorMessage"]
	require.False(t, found)
	_, found = f["monitor.ntp.statusWord"]
	require.False(t, found)

	_, found = f["monitor.ntp.offsetMs"]
	require.False(t, found)

	res.System = &SystemVariables{
		Status:    control.DecodeStatusWord(0x0105),
		Stratum:   1,
		RefID:     "PPS",
		Offset:    -0.002,
		SysJitter: 0.004,
		Frequency: -17.25,
	}
	f = res.Fields()
	require.Equal(t, uint16(0x0105), f["monitor.ntp.statusWord"])
	require.Equal(t, "PPS", f["monitor.ntp.syncSource"])
	require.Equal(t, "NONE", f["monitor.ntp.leapSecondMode"])
	require.Equal(t, "CLOCK_SYNC", f["monitor.ntp.event"])
	require.Equal(t, 1, f["monitor.ntp.stratum"])
	require.Equal(t, -0.002, f["monitor.ntp.offsetMs"])
	require.Equal(t, 0.004, f["monitor.ntp.sysJitterMs"])
	require.Equal(t, -17.25, f["monitor.ntp.frequencyPpm"])
	require.Equal(t, "PPS", f["monitor.ntp.refid"])
}
