package platform

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrInjected is returned by a Recorder told to fail.
var ErrInjected = errors.New("recorder: injected failure")

// Op is one synthetic action captured by a Recorder.
type Op struct {
	Tap  string
	Text string
}

// Recorder is an in-memory KeyInjector, ForegroundApp and URLOpener. It
// backs the tests and `snipt expand --dry-run`.
type Recorder struct {
	mu     sync.Mutex
	ops    []Op
	opened []string
	app    string
	// FailAt makes the n-th operation (1-based) fail; 0 never fails.
	FailAt int
}

func NewRecorder(app string) *Recorder {
	return &Recorder{app: app}
}

func (r *Recorder) Tap(key string) error {
	return r.record(Op{Tap: key})
}

func (r *Recorder) Type(s string) error {
	return r.record(Op{Text: s})
}

func (r *Recorder) record(op Op) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailAt > 0 && len(r.ops)+1 == r.FailAt {
		return ErrInjected
	}
	r.ops = append(r.ops, op)
	return nil
}

func (r *Recorder) Name() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.app
}

// SetApp changes the reported foreground application.
func (r *Recorder) SetApp(app string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.app = app
}

func (r *Recorder) Open(_ context.Context, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opened = append(r.opened, url)
	return nil
}

// Ops returns a copy of the captured operations.
func (r *Recorder) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Op(nil), r.ops...)
}

// Opened returns the URLs passed to Open.
func (r *Recorder) Opened() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.opened...)
}

// Backspaces counts the leading backspace taps.
func (r *Recorder) Backspaces() int {
	n := 0
	for _, op := range r.Ops() {
		if op.Tap != "backspace" {
			break
		}
		n++
	}
	return n
}

// Typed renders everything after the leading backspaces as the text the
// user would see, with enter taps as newlines.
func (r *Recorder) Typed() string {
	var sb strings.Builder
	skip := r.Backspaces()
	for i, op := range r.Ops() {
		if i < skip {
			continue
		}
		switch {
		case op.Tap == "enter":
			sb.WriteByte('\n')
		case op.Tap != "":
			sb.WriteString("<" + op.Tap + ">")
		default:
			sb.WriteString(op.Text)
		}
	}
	return sb.String()
}

// Reset forgets captured operations.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = nil
	r.opened = nil
}
