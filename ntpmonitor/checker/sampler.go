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
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// Commands are the external queries a sampling cycle runs
type Commands struct {
	Peers      string
	Status     string // optional, empty disables system status collection
	Fix        string
	Satellites string
}

// Sampler runs one sampling cycle at a time
type Sampler struct {
	runner Runner
	cmds   Commands
	now    func() time.Time
}

// NewSampler returns Sampler which runs cmds through r
func NewSampler(r Runner, cmds Commands) *Sampler {
	return &Sampler{runner: r, cmds: cmds, now: time.Now}
}

// query runs a command and fails on empty output
func (s *Sampler) query(ctx context.Context, command string) (string, error) {
	out, err := s.runner.Run(ctx, command)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrCommandFailed, command, err)
	}
	if len(out) == 0 {
		return "", fmt.Errorf("%w: %q: %w", ErrCommandFailed, command, errNoOutput)
	}
	return out, nil
}

// Sample runs all stages in order and stops at the first failure.
// It never returns nil and never returns partially filled valid result.
func (s *Sampler) Sample(ctx context.Context) *MonitorResult {
	ts := s.now()
	invalid := func(stage Stage, err error) *MonitorResult {
		log.Debugf("sampling failed at %s: %v", stage, err)
		return newInvalidResult(ts, stage, err)
	}

	out, err := s.query(ctx, s.cmds.Peers)
	if err != nil {
		return invalid(StageCollectPeers, err)
	}
	peers := ParsePeerTable(out)
	validPPS := EvaluatePPS(peers)

	var system *SystemVariables
	if s.cmds.Status != "" {
		out, err = s.query(ctx, s.cmds.Status)
		if err != nil {
			return invalid(StageCollectStatus, err)
		}
		if system, err = ParseSystemVariables(out); err != nil {
			return invalid(StageCollectStatus, err)
		}
	}

	out, err = s.query(ctx, s.cmds.Fix)
	if err != nil {
		return invalid(StageCollectFix, err)
	}
	fix, err := ParseFix([]byte(out))
	if err != nil {
		return invalid(StageCollectFix, err)
	}

	out, err = s.query(ctx, s.cmds.Satellites)
	if err != nil {
		return invalid(StageCollectSatellites, err)
	}
	sats, err := ParseSatellites([]byte(out))
	if err != nil {
		return invalid(StageCollectSatellites, err)
	}

	return &MonitorResult{
		Timestamp:  ts,
		Valid:      true,
		Peers:      peers,
		ValidPPS:   validPPS,
		System:     system,
		Fix:        fix,
		Satellites: sats,
	}
}
