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
	"io"
	"os"

	"github.com/facebook/ntpmonitor/ntpmonitor/checker"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(peersCmd)
}

func printPeers(w io.Writer, peers []checker.Peer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{
		"state", "remote", "refid", "st", "t", "when", "poll", "reach", "delay(ms)", "offset(ms)", "jitter(ms)", "pps",
	})
	for _, p := range peers {
		kind := "u"
		if p.Local {
			kind = "l"
		}
		pps := ""
		if p.RefID == checker.PPSRefID {
			pps = fmt.Sprintf("locked=%v", checker.PPSLocked(&p))
		}
		table.Append([]string{
			p.State,
			p.Remote,
			p.RefID,
			fmt.Sprintf("%d", p.Stratum),
			kind,
			fmt.Sprintf("%d", p.LastPolledSeconds),
			fmt.Sprintf("%d", p.PollIntervalSeconds),
			p.Reached,
			fmt.Sprintf("%.3f", p.DelayMs),
			fmt.Sprintf("%.3f", p.OffsetMs),
			fmt.Sprintf("%.3f", p.JitterMs),
			pps,
		})
	}
	table.Render()
}

func peersRun() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out, err := checker.NewExecRunner(cfg.CommandTimeout).Run(context.Background(), cfg.PeersCommand)
	if err != nil {
		return fmt.Errorf("running %q: %w", cfg.PeersCommand, err)
	}
	printPeers(os.Stdout, checker.ParsePeerTable(out))
	return nil
}

var peersCmd = &cobra.Command{
	Use:   "peers",
	Short: "Print parsed NTP peer table",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		if err := peersRun(); err != nil {
			log.Fatal(err)
		}
	},
}
