package inject

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/creack/pty"
)

const ptyDrainGrace = 200 * time.Millisecond

// runPTY runs cmd attached to a pseudo-terminal so tools that insist on a
// TTY still produce output. Stdout and stderr arrive merged.
func (e *Executor) runPTY(ctx context.Context, cmd *exec.Cmd) (string, error) {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return "", e.failure(ctx, err, "")
	}
	defer ptmx.Close()

	var out bytes.Buffer
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		buf := make([]byte, 4096)
		for {
			n, err := ptmx.Read(buf)
			if n > 0 {
				out.Write(buf[:n])
			}
			if err != nil {
				// EIO on linux once the child side closes, EOF elsewhere.
				return
			}
		}
	}()

	waitErr := cmd.Wait()
	select {
	case <-readDone:
	case <-time.After(ptyDrainGrace):
		// A background child still holds the terminal open.
		ptmx.Close()
		<-readDone
	}

	text := strings.ReplaceAll(out.String(), "\r\n", "\n")
	if waitErr != nil {
		return "", e.failure(ctx, waitErr, lastLine(text))
	}
	return text, nil
}

func lastLine(s string) string {
	s = strings.TrimRight(s, "\n")
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
