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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultCommandTimeout is how long we let an external query run
const DefaultCommandTimeout = 5 * time.Second

// waitDelay bounds how long Run waits for output pipes once the command is killed
const waitDelay = 100 * time.Millisecond

// Runner executes an external query and returns what it printed
type Runner interface {
	Run(ctx context.Context, command string) (string, error)
}

// ExecRunner runs commands as local processes, without a shell
type ExecRunner struct {
	Timeout time.Duration
}

// NewExecRunner returns ExecRunner with given per-command timeout
func NewExecRunner(timeout time.Duration) *ExecRunner {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return &ExecRunner{Timeout: timeout}
}

// Run implements Runner
func (r *ExecRunner) Run(ctx context.Context, command string) (string, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return "", errors.New("empty command")
	}
	cmdCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(cmdCtx, args[0], args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// don't wait for grandchildren still holding our pipes after the kill
	cmd.WaitDelay = waitDelay
	start := time.Now()
	err := cmd.Run()
	log.Debugf("%q finished in %v", command, time.Since(start))
	if ctx.Err() != nil {
		return "", fmt.Errorf("interrupted: %w", ctx.Err())
	}
	if errors.Is(cmdCtx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("timed out after %v: %w", r.Timeout, cmdCtx.Err())
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && stdout.Len() > 0 {
			// some tools exit non-zero while still printing usable data
			log.Warningf("%q exited with %d: %s", command, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
			return stdout.String(), nil
		}
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
