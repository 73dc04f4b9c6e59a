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
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/facebook/ntpmonitor/ntp/control"
	"github.com/facebook/ntpmonitor/ntpmonitor/checker"
	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type status int

// possible check results
const (
	OK status = iota
	WARN
	FAIL
)

// minimum number of satellites for a trustworthy timing solution
const minSatellites = 4

// diagnoser is function that does checks on MonitorResult
type diagnoser func(r *checker.MonitorResult) (status, string)

var okString = color.GreenString("[ OK ]")
var warnString = color.YellowString("[WARN]")
var failString = color.RedString("[FAIL]")

var statusToColor = []string{okString, warnString, failString}

// generic function to check value against a limit
func checkAgainstLimit(name string, value, limit float64, unit string) (status, string) {
	msgTemplate := "%s is %s, we expect it to be within %s"
	limitStr := color.BlueString("%.3f%s", limit, unit)
	if math.Abs(value) > limit {
		return FAIL, fmt.Sprintf(msgTemplate, name, color.RedString("%.3f%s", value, unit), limitStr)
	}
	return OK, fmt.Sprintf(msgTemplate, name, color.GreenString("%.3f%s", value, unit), limitStr)
}

func checkPPSPeer(r *checker.MonitorResult) (status, string) {
	p, found := r.PPSPeer()
	if !found {
		return FAIL, fmt.Sprintf("No peer with refid %s, PPS is not configured", checker.PPSRefID)
	}
	if r.ValidPPS {
		return OK, fmt.Sprintf("NTP is locked to PPS via %s", color.BlueString(p.Remote))
	}
	return FAIL, fmt.Sprintf("PPS peer %s is out of tolerance", color.BlueString(p.Remote))
}

func checkPPSOffset(r *checker.MonitorResult) (status, string) {
	p, found := r.PPSPeer()
	if !found {
		return WARN, "No PPS peer, skipping offset check"
	}
	return checkAgainstLimit("PPS offset", p.OffsetMs, checker.PPSMaxOffsetMs, "ms")
}

func checkPPSJitter(r *checker.MonitorResult) (status, string) {
	p, found := r.PPSPeer()
	if !found {
		return WARN, "No PPS peer, skipping jitter check"
	}
	return checkAgainstLimit("PPS jitter", p.JitterMs, checker.PPSMaxJitterMs, "ms")
}

func checkReach(r *checker.MonitorResult) (status, string) {
	bad := []string{}
	for _, p := range r.Peers {
		if p.Reached != "11111111" {
			bad = append(bad, fmt.Sprintf("Peer %s has reach %s", color.BlueString(p.Remote), color.YellowString(p.Reached)))
		}
	}
	if len(bad) > 0 {
		msg := fmt.Sprintf("%d peers are fully reachable, %d peers had reachability problems:\n", len(r.Peers)-len(bad), len(bad))
		return WARN, msg + "\t" + strings.Join(bad, "\n\t")
	}
	return OK, fmt.Sprintf("All %d peers were reachable 8/8 last polls", len(r.Peers))
}

func checkLeap(r *checker.MonitorResult) (status, string) {
	if r.System == nil {
		return OK, "System status collection is disabled"
	}
	switch r.System.Status.Leap {
	case control.LeapNone:
		return OK, "Leap indicator is set to 'none'"
	case control.LeapAlarm:
		return FAIL, "Clock is not synchronized, leap indicator is set to 'alarm'"
	}
	return WARN, fmt.Sprintf("Leap indicator is set to '%s'", r.System.Status.Leap.Description())
}

func checkGNSSTime(r *checker.MonitorResult) (status, string) {
	if !r.Fix.ValidTime {
		return FAIL, "GNSS receiver has no valid time"
	}
	return OK, fmt.Sprintf("GNSS time is valid, accuracy is %s", color.BlueString("%.0fns", r.Fix.TimeAccuracy*1e9))
}

func checkGNSSFix(r *checker.MonitorResult) (status, string) {
	if !r.Fix.ValidFix {
		return WARN, "GNSS receiver has no valid position fix"
	}
	if !r.Fix.Is3D {
		return WARN, "GNSS position fix is not 3D"
	}
	return OK, fmt.Sprintf("GNSS 3D fix at %.5f, %.5f, %.0fft", r.Fix.Latitude, r.Fix.Longitude, r.Fix.AltitudeFt)
}

func checkSatellites(r *checker.MonitorResult) (status, string) {
	n := len(r.Satellites)
	if n < minSatellites {
		return WARN, fmt.Sprintf("Only %s satellites used, we expect at least %d", color.YellowString("%d", n), minSatellites)
	}
	return OK, fmt.Sprintf("%s satellites used", color.GreenString("%d", n))
}

var diagnosers = []diagnoser{
	checkPPSPeer,
	checkPPSOffset,
	checkPPSJitter,
	checkReach,
	checkLeap,
	checkGNSSTime,
	checkGNSSFix,
	checkSatellites,
}

// runDiagnosers prints all check results and returns the worst status
func runDiagnosers(w io.Writer, r *checker.MonitorResult) status {
	worst := OK
	for _, check := range diagnosers {
		s, msg := check(r)
		fmt.Fprintf(w, "%s %s\n", statusToColor[s], msg)
		if s > worst {
			worst = s
		}
	}
	return worst
}

func init() {
	RootCmd.AddCommand(diagCmd)
}

const desc = "Perform basic NTP and GNSS diagnosis, report in human-readable form."

var diagCmd = &cobra.Command{
	Use:   "diag",
	Short: desc,
	Long:  desc + "\nIf you need more information, please refer to http://doc.ntp.org/current-stable/debug.html",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()

		result, err := sampleOnce()
		if err != nil {
			log.Fatal(err)
		}
		if runDiagnosers(os.Stdout, result) == FAIL {
			os.Exit(1)
		}
	},
}
