//go:build !windows

package inject

import (
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// waitDelay bounds how long Wait keeps reading after the command is
// cancelled, for when a stray descendant still holds its output open.
const waitDelay = 100 * time.Millisecond

// bindProcessGroup runs cmd in its own process group and makes
// cancellation kill the whole group, so children left behind by the shell
// die with it. pty.Start already puts the command in a new session, which
// is also a new group.
func bindProcessGroup(cmd *exec.Cmd, pty bool) {
	if !pty {
		if cmd.SysProcAttr == nil {
			cmd.SysProcAttr = &syscall.SysProcAttr{}
		}
		cmd.SysProcAttr.Setpgid = true
	}
	cmd.Cancel = func() error {
		if err := unix.Kill(-cmd.Process.Pid, unix.SIGKILL); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
	cmd.WaitDelay = waitDelay
}
