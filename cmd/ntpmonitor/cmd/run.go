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

package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/facebook/ntpmonitor/ntpmonitor/checker"
	monitor "github.com/facebook/ntpmonitor/ntpmonitor/daemon"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

func init() {
	RootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run monitoring daemon",
	Long:  "Sample NTP and GNSS health at interval, publish results and PPS lock changes.\n\n" + monitor.MathHelp,
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		log.SetReportCaller(true)
		if err := runDaemon(); err != nil {
			log.Fatal(err)
		}
	},
}

// notifySystemd tells systemd about our state, it's a noop when not run by systemd
func notifySystemd(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		log.Warningf("failed to notify systemd: %v", err)
		return
	}
	log.Debugf("systemd notified with %q: %v", state, sent)
}

// watchdog pings systemd watchdog at half of its timeout
func watchdog(ctx context.Context) error {
	timeout, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		return fmt.Errorf("checking systemd watchdog: %w", err)
	}
	if timeout == 0 {
		return nil
	}
	ticker := time.NewTicker(timeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			notifySystemd(daemon.SdNotifyWatchdog)
		}
	}
}

func runDaemon() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	w, closeOutput, err := monitor.OpenOutput(cfg.Output)
	if err != nil {
		return err
	}
	defer closeOutput()
	publisher, err := monitor.NewPublisher(cfg.OutputFormat, w)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), unix.SIGINT, unix.SIGTERM)
	defer stop()
	eg, ctx := errgroup.WithContext(ctx)

	stats := monitor.NewJSONStats()
	if cfg.MonitoringPort != 0 {
		eg.Go(func() error {
			return stats.Start(ctx, cfg.MonitoringPort)
		})
	}
	if cfg.PrometheusPort != 0 {
		exporter := monitor.NewPrometheusExporter(stats, cfg.PrometheusPort, cfg.MonitorInterval)
		eg.Go(func() error {
			return exporter.Start(ctx)
		})
	}

	d := monitor.New(cfg, checker.NewExecRunner(cfg.CommandTimeout), publisher, stats)
	first := true
	d.OnCycle = func(_ *checker.MonitorResult) {
		if first {
			notifySystemd(daemon.SdNotifyReady)
			first = false
		}
	}
	eg.Go(func() error {
		return watchdog(ctx)
	})
	eg.Go(func() error {
		defer notifySystemd(daemon.SdNotifyStopping)
		return d.Run(ctx)
	})
	return eg.Wait()
}
