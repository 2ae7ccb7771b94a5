// Package inject replaces a typed shortcut with its expansion by driving
// synthetic keystrokes, running commands when the action asks for it.
package inject

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rivo/uniseg"

	"snipt/matcher"
	"snipt/platform"
)

var (
	// ErrSyntheticInput means a key event could not be injected.
	ErrSyntheticInput = errors.New("synthetic input failed")
	// ErrExecution means a command, script or URL open failed.
	ErrExecution = errors.New("execution failed")
)

// Timing holds the pauses between synthetic events.
type Timing struct {
	KeyDelay     time.Duration
	SettleDelay  time.Duration
	LineDelay    time.Duration
	ReturnDelay  time.Duration
	ChunkDelay   time.Duration
	ChunkSize    int
	CleanupDelay time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		KeyDelay:     2 * time.Millisecond,
		SettleDelay:  3 * time.Millisecond,
		LineDelay:    2 * time.Millisecond,
		ReturnDelay:  5 * time.Millisecond,
		ChunkDelay:   5 * time.Millisecond,
		ChunkSize:    1024,
		CleanupDelay: 2 * time.Second,
	}
}

// State is the injector's position in an expansion.
type State int32

const (
	Idle State = iota
	Deleting
	Waiting
	Typing
	ReportError
)

func (s State) String() string {
	switch s {
	case Deleting:
		return "deleting"
	case Waiting:
		return "waiting"
	case Typing:
		return "typing"
	case ReportError:
		return "report-error"
	default:
		return "idle"
	}
}

// Options configure an Injector. Keys is required.
type Options struct {
	Keys     platform.KeyInjector
	Executor *Executor
	Timing   Timing
	Logger   *slog.Logger
	// TempDir holds multi-line command output; os.TempDir() when empty.
	TempDir string
	// Sleep and AfterFunc replace time.Sleep and time.AfterFunc in tests.
	Sleep     func(time.Duration)
	AfterFunc func(time.Duration, func())
}

// Injector performs one expansion at a time. It is not safe for
// concurrent Expand calls; the engine drives it from a single worker.
type Injector struct {
	keys      platform.KeyInjector
	exec      *Executor
	timing    Timing
	log       *slog.Logger
	tempDir   string
	goos      string
	sleep     func(time.Duration)
	afterFunc func(time.Duration, func())
	state     atomic.Int32
}

func New(opts Options) *Injector {
	in := &Injector{
		keys:      opts.Keys,
		exec:      opts.Executor,
		timing:    opts.Timing,
		log:       opts.Logger,
		tempDir:   opts.TempDir,
		goos:      runtime.GOOS,
		sleep:     opts.Sleep,
		afterFunc: opts.AfterFunc,
	}
	if in.exec == nil {
		in.exec = NewExecutor(ExecOptions{})
	}
	if in.timing.ChunkSize <= 0 {
		in.timing.ChunkSize = DefaultTiming().ChunkSize
	}
	if in.log == nil {
		in.log = slog.Default()
	}
	if in.tempDir == "" {
		in.tempDir = os.TempDir()
	}
	if in.sleep == nil {
		in.sleep = time.Sleep
	}
	if in.afterFunc == nil {
		in.afterFunc = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	return in
}

// State reports where the current expansion is.
func (in *Injector) State() State {
	return State(in.state.Load())
}

func (in *Injector) setState(s State) {
	prev := State(in.state.Swap(int32(s)))
	if prev != s {
		in.log.Debug("injector state", "from", prev, "to", s)
	}
}

// Report describes a finished expansion.
type Report struct {
	Deleted int
	// Typed is the replacement text sent as keystrokes; empty for URLs.
	Typed string
	// Executed is set when the body went through the Executor.
	Executed   bool
	BodyKind   BodyKind
	OutputFile string
}

// Expand deletes toDelete characters, computes the replacement for a and
// types it. The state returns to Idle whatever the outcome.
func (in *Injector) Expand(ctx context.Context, toDelete int, a matcher.Action) (Report, error) {
	rep, err := in.expand(ctx, toDelete, a)
	if err != nil {
		in.setState(ReportError)
		in.log.Warn("expansion failed", "shortcut", a.Shortcut, "kind", a.Kind, "error", err)
	}
	in.setState(Idle)
	return rep, err
}

func (in *Injector) expand(ctx context.Context, toDelete int, a matcher.Action) (Report, error) {
	rep := Report{}

	in.setState(Deleting)
	for i := 0; i < toDelete; i++ {
		if err := in.keys.Tap("backspace"); err != nil {
			return rep, fmt.Errorf("%w: backspace: %v", ErrSyntheticInput, err)
		}
		rep.Deleted++
		in.sleep(in.timing.KeyDelay)
	}

	in.setState(Waiting)
	text, err := in.replacement(ctx, a, &rep)
	if err != nil {
		return rep, err
	}
	in.sleep(in.timing.SettleDelay)

	in.setState(Typing)
	if err := in.typeText(text); err != nil {
		return rep, err
	}
	rep.Typed = text
	return rep, nil
}

func (in *Injector) replacement(ctx context.Context, a matcher.Action, rep *Report) (string, error) {
	switch a.Kind {
	case matcher.KindText:
		return matcher.Render(a), nil
	case matcher.KindExecuteWithParams:
		// Placeholders are already bound; plain text skips the shell.
		body, wrapped := Wrap(a.Body)
		if !wrapped && Classify(body) == BodyCommand && !strings.Contains(body, "\n") {
			return body, nil
		}
		return in.execute(ctx, body, rep)
	default:
		body, _ := Prepare(a.Body, nil)
		return in.execute(ctx, body, rep)
	}
}

func (in *Injector) execute(ctx context.Context, body string, rep *Report) (string, error) {
	res, err := in.exec.Execute(ctx, body)
	rep.Executed = true
	rep.BodyKind = res.Kind
	if err != nil {
		return "", err
	}
	if res.Kind == BodyURL {
		return "", nil
	}
	if !strings.Contains(res.Output, "\n") || in.goos == "windows" {
		return res.Output, nil
	}
	path, err := in.writeOutput(res.Output)
	if err != nil {
		return "", err
	}
	rep.OutputFile = path
	return `cat "` + path + "\"\n", nil
}

// writeOutput stores multi-line output where `cat` can print it, and
// schedules its removal.
func (in *Injector) writeOutput(out string) (string, error) {
	path := filepath.Join(in.tempDir, "snipt-output-"+uuid.NewString()+".txt")
	if err := os.WriteFile(path, []byte(out+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("%w: write output: %v", ErrExecution, err)
	}
	in.afterFunc(in.timing.CleanupDelay, func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			in.log.Warn("remove output file", "path", path, "error", err)
		}
	})
	return path, nil
}

// typeText sends text line by line with Return between lines. Long lines
// go out in chunks so the OS input queue does not overrun.
func (in *Injector) typeText(text string) error {
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			if err := in.keys.Tap("enter"); err != nil {
				return fmt.Errorf("%w: enter: %v", ErrSyntheticInput, err)
			}
			in.sleep(in.timing.ReturnDelay)
		}
		line = strings.TrimSuffix(line, "\r")
		if line != "" {
			if err := in.typeLine(line); err != nil {
				return err
			}
		}
		in.sleep(in.timing.LineDelay)
	}
	return nil
}

func (in *Injector) typeLine(line string) error {
	if utf8.RuneCountInString(line) <= in.timing.ChunkSize {
		return in.typeChunk(line)
	}
	var (
		chunk strings.Builder
		n     int
		first = true
	)
	flush := func() error {
		if !first {
			in.sleep(in.timing.ChunkDelay)
		}
		first = false
		err := in.typeChunk(chunk.String())
		chunk.Reset()
		n = 0
		return err
	}
	g := uniseg.NewGraphemes(line)
	for g.Next() {
		cluster := g.Str()
		size := utf8.RuneCountInString(cluster)
		if n > 0 && n+size > in.timing.ChunkSize {
			if err := flush(); err != nil {
				return err
			}
		}
		chunk.WriteString(cluster)
		n += size
	}
	if n > 0 {
		return flush()
	}
	return nil
}

func (in *Injector) typeChunk(s string) error {
	if err := in.keys.Type(s); err != nil {
		return fmt.Errorf("%w: type: %v", ErrSyntheticInput, err)
	}
	return nil
}
