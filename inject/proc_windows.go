//go:build windows

package inject

import (
	"os/exec"
	"time"
)

const waitDelay = 100 * time.Millisecond

// bindProcessGroup bounds Wait after cancellation. Windows has no process
// groups to signal; orphaned children keep running but no longer hold up
// the expansion.
func bindProcessGroup(cmd *exec.Cmd, _ bool) {
	cmd.WaitDelay = waitDelay
}
