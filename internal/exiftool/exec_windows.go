// Copyright (c) 2025, the autotag contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

//go:build windows

package exiftool

import "os/exec"

func setProcGroup(_ *exec.Cmd) {
	// Windows has no process groups in the POSIX sense; Kill below takes
	// down the direct child only.
}

func killProcGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
