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
	"math"
)

// PPSRefID is the reference ID ntpd reports for the PPS reference clock
const PPSRefID = ".PPS."

// PPS lock tolerances, in milliseconds. Bounds are inclusive.
const (
	PPSMaxDelayMs  = 0.002
	PPSMaxOffsetMs = 0.005
	PPSMaxJitterMs = 0.005
)

// FindPPSPeer returns the first peer referenced to PPS
func FindPPSPeer(peers []Peer) (*Peer, bool) {
	for i := range peers {
		if peers[i].RefID == PPSRefID {
			return &peers[i], true
		}
	}
	return nil, false
}

// PPSLocked tells if PPS peer measurements are within tolerances
func PPSLocked(p *Peer) bool {
	if p == nil {
		return false
	}
	return p.DelayMs <= PPSMaxDelayMs &&
		math.Abs(p.OffsetMs) <= PPSMaxOffsetMs &&
		p.JitterMs <= PPSMaxJitterMs
}

// EvaluatePPS decides whether PPS reference is locked based on the peer table.
// No PPS peer means no lock.
func EvaluatePPS(peers []Peer) bool {
	p, _ := FindPPSPeer(peers)
	return PPSLocked(p)
}
