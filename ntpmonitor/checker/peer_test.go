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
	"testing"

	"github.com/stretchr/testify/require"
)

const ntpqPeers = `     remote           refid      st t when poll reach   delay   offset  jitter
==============================================================================
*127.127.20.0    .PPS.            0 l   14   16  377    0.000   -0.002   0.004
+time1.example.c 10.0.0.1         2 u   33   64  377    0.412    0.031   0.018
-time2.example.c .GPS.            1 u  101  128   17    1.900   -2.317   0.221
 10.1.1.1        .INIT.          16 u    -   64    0    0.000    0.000   0.000
`

func TestParsePeerTable(t *testing.T) {
	peers := ParsePeerTable(ntpqPeers)
	require.Len(t, peers, 3)

	want := Peer{
		State:               "Primary reference",
		Remote:              "127.127.20.0",
		RefID:               ".PPS.",
		Stratum:             0,
		Local:               true,
		LastPolledSeconds:   14,
		PollIntervalSeconds: 16,
		Reached:             "11111111",
		DelayMs:             0.0,
		OffsetMs:            -0.002,
		JitterMs:            0.004,
	}
	require.Equal(t, want, peers[0])

	require.Equal(t, "Good, preferred", peers[1].State)
	require.Equal(t, "10.0.0.1", peers[1].RefID)
	require.False(t, peers[1].Local)
	require.Equal(t, 2, peers[1].Stratum)

	require.Equal(t, "Out of tolerance", peers[2].State)
	require.Equal(t, "00001111", peers[2].Reached)
	require.InDelta(t, -2.317, peers[2].OffsetMs, 1e-9)
}

func TestParsePeerTableNoMatches(t *testing.T) {
	peers := ParsePeerTable("ntpq: read: Connection refused\n")
	require.NotNil(t, peers)
	require.Empty(t, peers)

	require.Empty(t, ParsePeerTable(""))
}

func TestParsePeerTableAnywhere(t *testing.T) {
	text := "some banner\n\nyet another line\n 127.127.1.0     .LOCL.          5 l   10   64    1    0.000    0.000   0.000\ntrailer"
	peers := ParsePeerTable(text)
	require.Len(t, peers, 1)
	require.Equal(t, "No attribute", peers[0].State)
	require.Equal(t, "00000001", peers[0].Reached)
	require.Equal(t, ".LOCL.", peers[0].RefID)
}

func TestParsePeerTableCRLF(t *testing.T) {
	text := "*127.127.20.0    .PPS.            0 l   14   16  377    0.000   -0.002   0.004\r\n" +
		"#192.168.0.1     .GPS.            1 u    1   16  377    0.100    0.200   0.300\r\n"
	peers := ParsePeerTable(text)
	require.Len(t, peers, 2)
	require.Equal(t, "Good, not used", peers[1].State)
	require.InDelta(t, 0.3, peers[1].JitterMs, 1e-9)
}

func TestPeerState(t *testing.T) {
	cases := map[rune]string{
		' ': "No attribute",
		'x': "Out of tolerance",
		'-': "Out of tolerance",
		'#': "Good, not used",
		'+': "Good, preferred",
		'*': "Primary reference",
		'o': "PPS peer",
		'.': "(unknown):.",
		'?': "(unknown):?",
	}
	for glyph, want := range cases {
		t.Run(string(glyph), func(t *testing.T) {
			require.Equal(t, want, PeerState(glyph))
		})
	}
}

func TestParsePeerTableUnknownGlyph(t *testing.T) {
	peers := ParsePeerTable("=10.0.0.1 .GPS. 1 u 1 16 7 0.1 0.2 0.3")
	require.Len(t, peers, 1)
	require.Equal(t, "(unknown):=", peers[0].State)
	require.Equal(t, "00000111", peers[0].Reached)
}

func TestReachBits(t *testing.T) {
	require.Equal(t, "00000000", ReachBits(0))
	require.Equal(t, "00000001", ReachBits(1))
	require.Equal(t, "11111111", ReachBits(0377))
	require.Equal(t, "10000000", ReachBits(0200))
	// register is 8 bits wide
	require.Equal(t, "11111111", ReachBits(07777))
	for i := uint64(0); i < 1024; i++ {
		require.Len(t, ReachBits(i), 8)
	}
}
