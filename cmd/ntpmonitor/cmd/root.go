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
	"os"

	"github.com/facebook/ntpmonitor/ntpmonitor/checker"
	"github.com/facebook/ntpmonitor/ntpmonitor/daemon"
	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// RootCmd is a main entry point. It's exported so ntpmonitor could be easily extended without touching core functionality.
var RootCmd = &cobra.Command{
	Use:   "ntpmonitor",
	Short: "NTP and GNSS receiver health monitor",
}

var (
	verbose bool
	cfgPath string
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	RootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to yaml config, defaults are used if not set")
}

// ConfigureVerbosity configures log verbosity based on parsed flags. Needs to be called by any subcommand.
func ConfigureVerbosity() {
	log.SetLevel(log.InfoLevel)
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}
}

// loadConfig reads config if path is given and validates it
func loadConfig() (*daemon.Config, error) {
	cfg := daemon.DefaultConfig()
	if cfgPath != "" {
		var err error
		if cfg, err = daemon.ReadConfig(cfgPath); err != nil {
			return nil, fmt.Errorf("reading config %q: %w", cfgPath, err)
		}
	}
	if err := cfg.EvalAndValidate(); err != nil {
		return nil, err
	}
	log.Debugf("Config: %+v", *cfg)
	return cfg, nil
}

// newSampler builds sampler running local commands from config
func newSampler(cfg *daemon.Config) *checker.Sampler {
	return checker.NewSampler(checker.NewExecRunner(cfg.CommandTimeout), cfg.Commands())
}

// Execute is the main entry point for CLI interface
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
