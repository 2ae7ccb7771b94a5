// Package daemon keeps the PID and port files that let CLI invocations
// find a running agent.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	ErrAlreadyRunning = errors.New("daemon already running")
	ErrStalePID       = errors.New("stale pid file")
	ErrNotRunning     = errors.New("daemon not running")
	ErrStopFailed     = errors.New("daemon did not stop")
)

// WritePID records pid at path, creating parent directories.
func WritePID(path string, pid int) error {
	return writeInt(path, pid)
}

// ReadPID returns the recorded pid, or ErrNotRunning when there is none.
func ReadPID(path string) (int, error) {
	return readInt(path)
}

// RemovePID deletes the pid file; a missing file is not an error.
func RemovePID(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func WritePort(path string, port int) error {
	return writeInt(path, port)
}

func ReadPort(path string) (int, error) {
	return readInt(path)
}

// Status returns the pid of the live daemon. It reports ErrNotRunning
// when no pid is recorded and ErrStalePID when the recorded process is
// gone.
func Status(pidPath string) (int, error) {
	pid, err := ReadPID(pidPath)
	if err != nil {
		return 0, err
	}
	if !Alive(pid) {
		return pid, fmt.Errorf("%w: pid %d", ErrStalePID, pid)
	}
	return pid, nil
}

// Acquire claims the pid file for the current process. A stale file is
// replaced; a live daemon yields ErrAlreadyRunning.
func Acquire(pidPath string) error {
	pid, err := Status(pidPath)
	switch {
	case err == nil && pid != os.Getpid():
		return fmt.Errorf("%w: pid %d", ErrAlreadyRunning, pid)
	case errors.Is(err, ErrStalePID), errors.Is(err, ErrNotRunning), err == nil:
	default:
		return err
	}
	return WritePID(pidPath, os.Getpid())
}

// Stop signals the recorded daemon and waits up to timeout for it to
// exit, removing the pid file once it has.
func Stop(pidPath string, timeout time.Duration) (int, error) {
	pid, err := Status(pidPath)
	if errors.Is(err, ErrStalePID) {
		RemovePID(pidPath)
		return pid, ErrNotRunning
	}
	if err != nil {
		return pid, err
	}
	if err := terminate(pid); err != nil {
		return pid, fmt.Errorf("%w: %v", ErrStopFailed, err)
	}
	deadline := time.Now().Add(timeout)
	for Alive(pid) {
		if time.Now().After(deadline) {
			return pid, fmt.Errorf("%w: pid %d still alive after %s", ErrStopFailed, pid, timeout)
		}
		time.Sleep(50 * time.Millisecond)
	}
	return pid, RemovePID(pidPath)
}

func writeInt(path string, n int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(n)), 0o644)
}

func readInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, ErrNotRunning
		}
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s holds %q", ErrStalePID, path, strings.TrimSpace(string(data)))
	}
	return n, nil
}
