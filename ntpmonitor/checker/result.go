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
	"time"
)

// FieldPrefix is the namespace of all published monitor fields
const FieldPrefix = "monitor.ntp."

// possible reasons of an invalid sampling cycle
var (
	ErrCommandFailed     = errors.New("command failed")
	ErrStatusInvalid     = errors.New("status query invalid")
	ErrFixInvalid        = errors.New("fix query invalid")
	ErrSatellitesInvalid = errors.New("satellites query invalid")

	errNoOutput = errors.New("no output")
)

// Stage is a step of a sampling cycle
type Stage int

// sampling stages, in order of execution
const (
	StageNone Stage = iota
	StageCollectPeers
	StageCollectStatus
	StageCollectFix
	StageCollectSatellites
	StageAssemble
)

var stageToString = map[Stage]string{
	StageNone:              "none",
	StageCollectPeers:      "collect_peers",
	StageCollectStatus:     "collect_status",
	StageCollectFix:        "collect_fix",
	StageCollectSatellites: "collect_satellites",
	StageAssemble:          "assemble",
}

func (s Stage) String() string {
	str, found := stageToString[s]
	if !found {
		return "unsupported"
	}
	return str
}

// MonitorResult is the outcome of one sampling cycle. It's either fully valid
// or invalid with a single cause, never partially filled.
type MonitorResult struct {
	Timestamp    time.Time
	Valid        bool
	ErrorMessage string
	FailedStage  Stage
	Err          error `json:"-"`

	Peers      []Peer
	ValidPPS   bool
	System     *SystemVariables
	Fix        *Fix
	Satellites []Satellite
}

func newInvalidResult(ts time.Time, stage Stage, err error) *MonitorResult {
	return &MonitorResult{
		Timestamp:    ts,
		Valid:        false,
		ErrorMessage: err.Error(),
		FailedStage:  stage,
		Err:          err,
	}
}

// Fields returns published record as flat map with dotted keys
func (r *MonitorResult) Fields() map[string]any {
	f := map[string]any{
		FieldPrefix + "valid": r.Valid,
	}
	if !r.Valid {
		f[FieldPrefix+"errorMessage"] = r.ErrorMessage
		return f
	}
	f[FieldPrefix+"validPPS"] = r.ValidPPS
	f[FieldPrefix+"validTime"] = r.Fix.ValidTime
	f[FieldPrefix+"timeAccuracy"] = r.Fix.TimeAccuracy
	f[FieldPrefix+"satellitesUsed"] = r.Fix.SatellitesUsed
	f[FieldPrefix+"validFix"] = r.Fix.ValidFix
	f[FieldPrefix+"fixIs3D"] = r.Fix.Is3D
	f[FieldPrefix+"latitude"] = r.Fix.Latitude
	f[FieldPrefix+"longitude"] = r.Fix.Longitude
	f[FieldPrefix+"altitudeFt"] = r.Fix.AltitudeFt
	f[FieldPrefix+"fixAccuracyFt"] = r.Fix.AccuracyFt
	f[FieldPrefix+"peers"] = r.Peers
	f[FieldPrefix+"satellites"] = r.Satellites
	if r.System != nil {
		f[FieldPrefix+"statusWord"] = r.System.Status.Word
		f[FieldPrefix+"leapSecondMode"] = r.System.Status.Leap.ID()
		f[FieldPrefix+"syncSource"] = r.System.Status.Source.ID()
		f[FieldPrefix+"event"] = r.System.Status.Event.ID()
		f[FieldPrefix+"stratum"] = r.System.Stratum
		r.System.addDiscipline(f, FieldPrefix)
	}
	return f
}

// addDiscipline adds clock discipline values reported by ntpd
func (s *SystemVariables) addDiscipline(f map[string]any, prefix string) {
	f[prefix+"offsetMs"] = s.Offset
	f[prefix+"sysJitterMs"] = s.SysJitter
	f[prefix+"frequencyPpm"] = s.Frequency
	f[prefix+"refid"] = s.RefID
}

// PPSPeer returns PPS peer of a valid result
func (r *MonitorResult) PPSPeer() (*Peer, bool) {
	return FindPPSPeer(r.Peers)
}
