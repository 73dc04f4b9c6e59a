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
	"fmt"
	"os"
	"time"

	"github.com/facebook/ntpmonitor/ntpmonitor/checker"
	yaml "gopkg.in/yaml.v2"
)

// defaults
const (
	DefaultMonitorInterval   = 60 * time.Second
	DefaultPeersCommand      = "ntpq -p"
	DefaultStatusCommand     = "ntpq -c rv"
	DefaultFixCommand        = "gpsctl --query fix --json"
	DefaultSatellitesCommand = "gpsctl --query satellites --json"
	DefaultMonitoringPort    = 21040
	DefaultRingSize          = 60
)

// output formats
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Config represents configuration we expect to read from file
type Config struct {
	MonitorInterval   time.Duration // how often we sample
	CommandTimeout    time.Duration // how long a single external query may run
	PeersCommand      string        // prints ntpd peer table
	StatusCommand     string        // prints ntpd system variables, empty to skip
	FixCommand        string        // prints GNSS fix as JSON
	SatellitesCommand string        // prints GNSS satellites as JSON
	MonitoringPort    int           // JSON stats port, 0 to disable
	PrometheusPort    int           // prometheus exporter port, 0 to disable
	RingSize          int           // how many PPS samples we keep
	Output            string        // where results go, empty for stdout
	OutputFormat      string        // json or csv
	Math              Math          // PPS quality formula
}

// DefaultConfig returns Config with every value set to default
func DefaultConfig() *Config {
	return &Config{
		MonitorInterval:   DefaultMonitorInterval,
		CommandTimeout:    checker.DefaultCommandTimeout,
		PeersCommand:      DefaultPeersCommand,
		StatusCommand:     DefaultStatusCommand,
		FixCommand:        DefaultFixCommand,
		SatellitesCommand: DefaultSatellitesCommand,
		MonitoringPort:    DefaultMonitoringPort,
		RingSize:          DefaultRingSize,
		OutputFormat:      FormatJSON,
		Math:              Math{Quality: MathDefaultQuality},
	}
}

func validPort(p int) bool {
	return p >= 0 && p <= 65535
}

// EvalAndValidate makes sure config is valid and evaluates expressions for further use.
func (c *Config) EvalAndValidate() error {
	if c.MonitorInterval <= 0 {
		return fmt.Errorf("bad config: 'monitorinterval' must be >0")
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("bad config: 'commandtimeout' must be >0")
	}
	if c.PeersCommand == "" {
		return fmt.Errorf("bad config: 'peerscommand' must be specified")
	}
	if c.FixCommand == "" {
		return fmt.Errorf("bad config: 'fixcommand' must be specified")
	}
	if c.SatellitesCommand == "" {
		return fmt.Errorf("bad config: 'satellitescommand' must be specified")
	}
	if c.RingSize <= 0 {
		return fmt.Errorf("bad config: 'ringsize' must be >0")
	}
	if !validPort(c.MonitoringPort) {
		return fmt.Errorf("bad config: 'monitoringport' %d is out of range", c.MonitoringPort)
	}
	if !validPort(c.PrometheusPort) {
		return fmt.Errorf("bad config: 'prometheusport' %d is out of range", c.PrometheusPort)
	}
	if c.OutputFormat != FormatJSON && c.OutputFormat != FormatCSV {
		return fmt.Errorf("bad config: unsupported 'outputformat' %q", c.OutputFormat)
	}
	if err := c.Math.Prepare(); err != nil {
		return err
	}
	return nil
}

// Commands returns external queries the sampler runs
func (c *Config) Commands() checker.Commands {
	return checker.Commands{
		Peers:      c.PeersCommand,
		Status:     c.StatusCommand,
		Fix:        c.FixCommand,
		Satellites: c.SatellitesCommand,
	}
}

// ReadConfig reads config and unmarshals it from yaml on top of defaults
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := DefaultConfig()
	err = yaml.UnmarshalStrict(data, c)
	return c, err
}
