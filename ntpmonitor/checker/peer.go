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
	"fmt"
	"regexp"
	"strconv"

	log "github.com/sirupsen/logrus"
)

// peerLineRe matches one row of 'ntpq -p' output:
//
//	tally+remote  refid  st  t  when  poll  reach  delay  offset  jitter
//
// The tally glyph is glued to the remote address. Stratum is a single digit,
// t is 'u' (unicast) or 'l' (local), reach is octal. Anything else is skipped.
var peerLineRe = regexp.MustCompile(
	`(?m)^(.)(\S+)[ \t]+(\S+)[ \t]+(\d)[ \t]+([ul])[ \t]+(\d+)[ \t]+(\d+)[ \t]+([0-7]+)[ \t]+([\d.]+)[ \t]+([\d.-]+)[ \t]+([\d.]+)[ \t]*\r?$`,
)

// tally codes as described in http://doc.ntp.org/current-stable/decode.html#peer
var peerStates = map[rune]string{
	' ': "No attribute",
	'x': "Out of tolerance",
	'-': "Out of tolerance",
	'#': "Good, not used",
	'+': "Good, preferred",
	'*': "Primary reference",
	'o': "PPS peer",
}

// Peer is one row of the peer association table
type Peer struct {
	State               string  `json:"state"`
	Remote              string  `json:"remote"`
	RefID               string  `json:"refid"`
	Stratum             int     `json:"stratum"`
	Local               bool    `json:"local"`
	LastPolledSeconds   int     `json:"lastPolledSeconds"`
	PollIntervalSeconds int     `json:"pollIntervalSeconds"`
	Reached             string  `json:"reached"`
	DelayMs             float64 `json:"delayMs"`
	OffsetMs            float64 `json:"offsetMs"`
	JitterMs            float64 `json:"jitterRmsMs"`
}

// PeerState returns human readable state for a tally glyph
func PeerState(glyph rune) string {
	if s, found := peerStates[glyph]; found {
		return s
	}
	return fmt.Sprintf("(unknown):%c", glyph)
}

// ReachBits renders 8-bit reachability register as a string of 0 and 1, oldest poll first
func ReachBits(reach uint64) string {
	return strconv.FormatUint(256+(reach&0xff), 2)[1:]
}

// ParsePeerTable extracts all peers from 'ntpq -p' output.
// Lines that don't look like a peer row (headers, separators, garbage) are ignored,
// so an empty slice is a perfectly valid result.
func ParsePeerTable(text string) []Peer {
	peers := []Peer{}
	for _, m := range peerLineRe.FindAllStringSubmatch(text, -1) {
		p, err := newPeerFromMatch(m)
		if err != nil {
			log.Debugf("skipping peer row %q: %v", m[0], err)
			continue
		}
		peers = append(peers, *p)
	}
	return peers
}

func newPeerFromMatch(m []string) (*Peer, error) {
	stratum, err := strconv.Atoi(m[4])
	if err != nil {
		return nil, fmt.Errorf("stratum: %w", err)
	}
	when, err := strconv.Atoi(m[6])
	if err != nil {
		return nil, fmt.Errorf("last poll: %w", err)
	}
	poll, err := strconv.Atoi(m[7])
	if err != nil {
		return nil, fmt.Errorf("poll interval: %w", err)
	}
	reach, err := strconv.ParseUint(m[8], 8, 64)
	if err != nil {
		return nil, fmt.Errorf("reach: %w", err)
	}
	delay, err := strconv.ParseFloat(m[9], 64)
	if err != nil {
		return nil, fmt.Errorf("delay: %w", err)
	}
	offset, err := strconv.ParseFloat(m[10], 64)
	if err != nil {
		return nil, fmt.Errorf("offset: %w", err)
	}
	jitter, err := strconv.ParseFloat(m[11], 64)
	if err != nil {
		return nil, fmt.Errorf("jitter: %w", err)
	}
	return &Peer{
		State:               PeerState([]rune(m[1])[0]),
		Remote:              m[2],
		RefID:               m[3],
		Stratum:             stratum,
		Local:               m[5] == "l",
		LastPolledSeconds:   when,
		PollIntervalSeconds: poll,
		Reached:             ReachBits(reach),
		DelayMs:             delay,
		OffsetMs:            offset,
		JitterMs:            jitter,
	}, nil
}
