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
	"os"

	"github.com/facebook/ntpmonitor/ntp/control"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(decodeCmd)
}

func printStatus(w io.Writer, s control.SystemStatus) {
	fmt.Fprintf(w, "status word: 0x%04x\n", s.Word)
	fmt.Fprintf(w, "leap:        %s (%s)\n", s.Leap, s.Leap.Description())
	fmt.Fprintf(w, "source:      %s (%s)\n", s.Source, s.Source.Description())
	fmt.Fprintf(w, "event:       %s (%s)\n", s.Event, s.Event.Description())
}

var decodeCmd = &cobra.Command{
	Use:   "decode <status word>",
	Short: "Decode NTP system status word, hex as printed by ntpq",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		ConfigureVerbosity()
		word, err := control.ParseStatusWord(args[0])
		if err != nil {
			log.Fatal(err)
		}
		printStatus(os.Stdout, control.DecodeStatusWord(word))
	},
}
