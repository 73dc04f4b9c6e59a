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

	"github.com/facebook/ntpmonitor/ntp/control"
	log "github.com/sirupsen/logrus"
)

// 'ntpq -c rv' starts with "associd=0 status=0615 leap_none, sync_ntp, ..."
var statusRe = regexp.MustCompile(`\bstatus=((?:0[xX])?[0-9a-fA-F]+)\b`)

// SystemVariables holds decoded system status word and a few system variables reported by 'ntpq -c rv'
type SystemVariables struct {
	Status    control.SystemStatus
	Stratum   int
	RefID     string
	Offset    float64
	SysJitter float64
	Frequency float64
}

// ParseSystemVariables parses 'ntpq -c rv' output
func ParseSystemVariables(text string) (*SystemVariables, error) {
	m := statusRe.FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("%w: no status word", ErrStatusInvalid)
	}
	word, err := control.ParseStatusWord(m[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStatusInvalid, err)
	}
	sys := &SystemVariables{Status: control.DecodeStatusWord(word)}

	vars, err := control.NormalizeData([]byte(text))
	if err != nil {
		log.Debugf("no system variables next to status word: %v", err)
		return sys, nil
	}
	// It's ok to have some fields missing, thus we don't check for errors below.
	sys.Stratum, _ = strconv.Atoi(vars["stratum"])
	sys.Offset, _ = strconv.ParseFloat(vars["offset"], 64)
	sys.SysJitter, _ = strconv.ParseFloat(vars["sys_jitter"], 64)
	sys.Frequency, _ = strconv.ParseFloat(vars["frequency"], 64)
	sys.RefID = vars["refid"]
	return sys, nil
}
