// Copyright (c) 2025, the autotag contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package exiftool persists tags into image metadata by invoking the
// external exiftool binary as a timeout-bounded child process.
package exiftool

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/rs/zerolog/log"
)

// waitDelay bounds how long Wait blocks on I/O pipes after the process has
// been killed, so a timed-out run can never wedge the caller.
const waitDelay = 5 * time.Second

// execResult contains the outcome of one child-process invocation.
type execResult struct {
	// Started indicates whether the process was successfully started.
	Started bool

	// ExitCode is the process exit code, or -1 when unknown.
	ExitCode int

	// Stderr holds the captured stderr output.
	Stderr string

	// TimedOut is set when the run was cut short by the timeout.
	TimedOut bool

	// Err is the start, wait, or timeout error, if any.
	Err error

	// Duration is how long the process ran.
	Duration time.Duration
}

// runCommand executes bin with args, bounded by timeout. On expiry the whole
// process group is killed so no child outlives the call.
func runCommand(ctx context.Context, bin string, args []string, timeout time.Duration) execResult {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.WaitDelay = waitDelay
	setProcGroup(cmd)
	cmd.Cancel = func() error {
		return killProcGroup(cmd)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	log.Debug().
		Str("bin", bin).
		Strs("args", args).
		Dur("timeout", timeout).
		Msg("exiftool: executing")

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return execResult{
			ExitCode: -1,
			Err:      err,
			Duration: time.Since(start),
		}
	}

	waitErr := cmd.Wait()
	result := execResult{
		Started:  true,
		ExitCode: -1,
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if waitErr != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			result.TimedOut = true
			result.Err = ctx.Err()
			log.Warn().
				Str("bin", bin).
				Dur("duration", result.Duration).
				Msg("exiftool: execution timed out, process group killed")
		} else {
			result.Err = waitErr
			log.Debug().
				Err(waitErr).
				Int("exitCode", result.ExitCode).
				Dur("duration", result.Duration).
				Msg("exiftool: exited with non-zero status")
		}
	}

	return result
}
