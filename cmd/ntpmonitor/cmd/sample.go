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
	"encoding/json"
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/facebook/ntpmonitor/ntpmonitor/checker"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var sampleDumpFlag bool

func init() {
	RootCmd.AddCommand(sampleCmd)
	sampleCmd.Flags().BoolVarP(&sampleDumpFlag, "dump", "d", false, "dump raw result structure instead of JSON")
}

func sampleRun(dump bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	res := newSampler(cfg).Sample(context.Background())
	if dump {
		spew.Dump(res)
	} else {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res.Fields()); err != nil {
			return err
		}
	}
	if !res.Valid {
		return fmt.Errorf("sampling failed at %s: %s", res.FailedStage, res.ErrorMessage)
	}
	return nil
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Run single sampling cycle and print the result",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		if err := sampleRun(sampleDumpFlag); err != nil {
			log.Fatal(err)
		}
	},
}

// sampleOnce is shared by commands which need a valid result
func sampleOnce() (*checker.MonitorResult, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	res := newSampler(cfg).Sample(context.Background())
	if !res.Valid {
		return nil, fmt.Errorf("sampling failed at %s: %s", res.FailedStage, res.ErrorMessage)
	}
	return res, nil
}
