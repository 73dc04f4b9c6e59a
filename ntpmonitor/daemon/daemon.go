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
	"context"
	"time"

	"github.com/facebook/ntpmonitor/ntpmonitor/checker"
	log "github.com/sirupsen/logrus"
)

// Daemon is the NTP health monitor: it samples at interval,
// publishes results and reports PPS lock transitions
type Daemon struct {
	cfg       *Config
	sampler   *checker.Sampler
	notifier  *checker.ChangeNotifier
	publisher Publisher
	stats     StatsServer
	window    *ppsWindow

	// OnCycle is called after every cycle, if set
	OnCycle func(*checker.MonitorResult)
}

// New creates new Daemon. Config must be validated already.
func New(cfg *Config, runner checker.Runner, publisher Publisher, stats StatsServer) *Daemon {
	return &Daemon{
		cfg:       cfg,
		sampler:   checker.NewSampler(runner, cfg.Commands()),
		notifier:  checker.NewChangeNotifier(),
		publisher: publisher,
		stats:     stats,
		window:    newPPSWindow(cfg.RingSize),
	}
}

// RunOnce performs a single sampling cycle and ships everything it produced
func (d *Daemon) RunOnce(ctx context.Context) *checker.MonitorResult {
	res := d.sampler.Sample(ctx)
	recordResult(d.stats, res)
	if err := d.publisher.Publish(res); err != nil {
		log.Errorf("publishing result: %v", err)
		d.stats.UpdateCounterBy(counterPublishErrors, 1)
	}
	if !res.Valid {
		log.Errorf("sampling failed at %s: %s", res.FailedStage, res.ErrorMessage)
		return res
	}
	log.Debugf("cycle done: validPPS=%v peers=%d satellites=%d", res.ValidPPS, len(res.Peers), len(res.Satellites))

	d.processPPS(res)

	if ev := d.notifier.Observe(res.ValidPPS); ev != nil {
		log.Warning(ev.Message)
		d.stats.UpdateCounterBy(counterPPSTransitions, 1)
		d.postEvent(ev)
	}
	d.postEvent(checker.NewStatsEvent(res))
	return res
}

func (d *Daemon) postEvent(ev *checker.Event) {
	if err := d.publisher.PostEvent(ev); err != nil {
		log.Errorf("posting %s event: %v", ev.Tag, err)
		d.stats.UpdateCounterBy(counterPublishErrors, 1)
	}
}

// processPPS pushes PPS peer measurements into the window and recalculates aggregates
func (d *Daemon) processPPS(res *checker.MonitorResult) {
	p, found := res.PPSPeer()
	if !found {
		log.Debug("no PPS peer in the peer table")
		return
	}
	d.window.push(newPPSSample(res.Timestamp, p))
	samples := d.window.all()
	recordWindow(d.stats, summarize(samples))
	if !d.cfg.Math.Enabled() {
		return
	}
	q, err := d.cfg.Math.EvalQuality(samples)
	if err != nil {
		log.Errorf("evaluating PPS quality: %v", err)
		return
	}
	d.stats.SetCounter(counterPPSQualityNS, msToNS(q))
}

// Run a daemon until ctx is cancelled
func (d *Daemon) Run(ctx context.Context) error {
	log.Infof("sampling every %v", d.cfg.MonitorInterval)
	ticker := time.NewTicker(d.cfg.MonitorInterval)
	defer ticker.Stop()
	for {
		res := d.RunOnce(ctx)
		if d.OnCycle != nil {
			d.OnCycle(res)
		}
		if ctx.Err() != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
