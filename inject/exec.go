package inject

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"snipt/matcher"
	"snipt/platform"
)

// BodyKind says how an executed snippet body is run.
type BodyKind int

const (
	BodyCommand BodyKind = iota
	BodyScript
	BodyURL
)

func (k BodyKind) String() string {
	switch k {
	case BodyScript:
		return "script"
	case BodyURL:
		return "url"
	default:
		return "command"
	}
}

// Classify decides whether body is a URL to open, a shebang script, or a
// shell command.
func Classify(body string) BodyKind {
	switch {
	case matcher.IsURL(body):
		return BodyURL
	case strings.HasPrefix(body, "#!"):
		return BodyScript
	default:
		return BodyCommand
	}
}

// Prepare substitutes $1..$9 and $* with args when any are given, then
// applies Wrap.
func Prepare(body string, args []string) (string, bool) {
	if len(args) > 0 {
		body = matcher.Substitute(body, matcher.Bind(nil, args), args)
	}
	return Wrap(body)
}

// Wrap turns a body that still holds a ${…} expression into a bash script
// echoing it, so the shell evaluates the expression. Shebang scripts are
// left alone.
func Wrap(body string) (string, bool) {
	if strings.HasPrefix(body, "#!") || !hasBraceExpr(body) {
		return body, false
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return "#!/bin/bash\necho \"" + r.Replace(body) + "\"", true
}

func hasBraceExpr(s string) bool {
	i := strings.Index(s, "${")
	return i >= 0 && strings.IndexByte(s[i:], '}') > 0
}

// Result is the outcome of executing a body.
type Result struct {
	Kind   BodyKind
	Output string
}

// ExecOptions configure an Executor.
type ExecOptions struct {
	Shell   string
	Timeout time.Duration
	UsePTY  bool
	Opener  platform.URLOpener
	TempDir string
}

// Executor runs snippet bodies and captures their stdout.
type Executor struct {
	shell   string
	timeout time.Duration
	usePTY  bool
	opener  platform.URLOpener
	tempDir string
	goos    string
}

func NewExecutor(opts ExecOptions) *Executor {
	shell := opts.Shell
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	opener := opts.Opener
	if opener == nil {
		opener = platform.SystemOpener{}
	}
	return &Executor{
		shell:   shell,
		timeout: timeout,
		usePTY:  opts.UsePTY,
		opener:  opener,
		tempDir: opts.TempDir,
		goos:    runtime.GOOS,
	}
}

// Run prepares body with args and executes it.
func (e *Executor) Run(ctx context.Context, body string, args []string) (Result, error) {
	body, _ = Prepare(body, args)
	return e.Execute(ctx, body)
}

// Execute classifies body and runs it. URLs are opened and produce no
// output. Stdout is returned with trailing newlines removed.
func (e *Executor) Execute(ctx context.Context, body string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	kind := Classify(body)
	var (
		out string
		err error
	)
	switch kind {
	case BodyURL:
		err = e.opener.Open(ctx, strings.TrimSpace(body))
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrExecution, err)
		}
	case BodyScript:
		out, err = e.runScript(ctx, body)
	default:
		out, err = e.run(ctx, e.commandFor(ctx, body))
	}
	if err != nil {
		return Result{Kind: kind}, err
	}
	return Result{Kind: kind, Output: strings.TrimRight(out, "\r\n")}, nil
}

func (e *Executor) commandFor(ctx context.Context, body string) *exec.Cmd {
	if e.goos == "windows" {
		return exec.CommandContext(ctx, "cmd", "/c", body)
	}
	return exec.CommandContext(ctx, e.shell, "-c", body)
}

// runScript writes body to an executable temp file and runs it.
func (e *Executor) runScript(ctx context.Context, body string) (string, error) {
	if e.goos == "windows" {
		return "", fmt.Errorf("%w: shebang scripts are not supported on windows", ErrExecution)
	}
	f, err := os.CreateTemp(e.tempDir, "snipt-script-*")
	if err != nil {
		return "", fmt.Errorf("%w: create script: %v", ErrExecution, err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(body); err != nil {
		f.Close()
		return "", fmt.Errorf("%w: write script: %v", ErrExecution, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: write script: %v", ErrExecution, err)
	}
	if err := os.Chmod(path, 0o755); err != nil {
		return "", fmt.Errorf("%w: chmod script: %v", ErrExecution, err)
	}
	return e.run(ctx, exec.CommandContext(ctx, path))
}

func (e *Executor) run(ctx context.Context, cmd *exec.Cmd) (string, error) {
	bindProcessGroup(cmd, e.usePTY)
	if e.usePTY && e.goos != "windows" {
		return e.runPTY(ctx, cmd)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		return "", e.failure(ctx, err, stderr.String())
	}
	return stdout.String(), nil
}

func (e *Executor) failure(ctx context.Context, err error, stderr string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: timed out after %s", ErrExecution, e.timeout)
	}
	if msg := strings.TrimSpace(stderr); msg != "" {
		return fmt.Errorf("%w: %v: %s", ErrExecution, err, msg)
	}
	return fmt.Errorf("%w: %v", ErrExecution, err)
}
