// Package engine wires the key translator, shortcut buffer, matcher and
// injector into the running expansion pipeline.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"snipt/activity"
	"snipt/buffer"
	"snipt/config"
	"snipt/inject"
	"snipt/keys"
	"snipt/matcher"
	"snipt/platform"
	"snipt/store"
)

const (
	// HookRetries is how many times a failed input hook is restarted.
	HookRetries = 5
	// DefaultRetryDelay separates hook restarts.
	DefaultRetryDelay = time.Second
)

var (
	ErrAlreadyRunning = errors.New("engine already running")
	ErrNoHook         = errors.New("engine has no input hook")
)

// Options assemble an Engine. Store and Keys are required.
type Options struct {
	Store    *store.Store
	Settings config.Settings
	Hook     platform.InputHook
	Keys     platform.KeyInjector
	App      platform.ForegroundApp
	Opener   platform.URLOpener
	Activity *activity.Hub
	Logger   *slog.Logger
	TempDir  string
	// Now, Sleep and AfterFunc replace the wall clock in tests.
	Now        func() time.Time
	Sleep      func(time.Duration)
	AfterFunc  func(time.Duration, func())
	RetryDelay time.Duration
}

type job struct {
	toDelete int
	action   matcher.Action
}

// Engine is the expansion pipeline. HandleEvent is driven by a single
// observer goroutine which owns the buffer; expansions run on one worker
// in commit order.
type Engine struct {
	watcher  *store.Watcher
	hook     platform.InputHook
	app      platform.ForegroundApp
	matcher  *matcher.Matcher
	injector *inject.Injector
	buf      *buffer.Buffer
	hub      *activity.Hub
	log      *slog.Logger
	queue    chan job
	retry    time.Duration
	grace    time.Duration
	clock    func() time.Time

	running atomic.Bool
	// injecting is set while the worker emits synthetic keys so the
	// observer does not record them.
	injecting atomic.Bool
	// quietUntil extends injecting by the echo grace, in unix nanoseconds.
	quietUntil atomic.Int64
	// reset asks the observer to clear its buffer before the next event.
	reset atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

func New(opts Options) *Engine {
	s := opts.Settings
	if s.QueueSize <= 0 {
		s.QueueSize = config.Default().QueueSize
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	hub := opts.Activity
	if hub == nil {
		hub = activity.NewHub(activity.DefaultMaxEntries)
	}
	app := opts.App
	if app == nil {
		app = noApp{}
	}
	retry := opts.RetryDelay
	if retry <= 0 {
		retry = DefaultRetryDelay
	}

	bufOpts := []buffer.Option{
		buffer.WithCapacity(s.Buffer.Capacity),
		buffer.WithTTL(s.Buffer.TTL),
	}
	if opts.Now != nil {
		bufOpts = append(bufOpts, buffer.WithClock(opts.Now))
	}

	exec := inject.NewExecutor(inject.ExecOptions{
		Shell:   s.Exec.Shell,
		Timeout: s.Exec.Timeout,
		UsePTY:  s.Exec.PTY,
		Opener:  opts.Opener,
		TempDir: opts.TempDir,
	})
	t := s.Timing
	injector := inject.New(inject.Options{
		Keys:     opts.Keys,
		Executor: exec,
		Timing: inject.Timing{
			KeyDelay:     t.KeyDelay,
			SettleDelay:  t.SettleDelay,
			LineDelay:    t.LineDelay,
			ReturnDelay:  t.ReturnDelay,
			ChunkDelay:   t.ChunkDelay,
			ChunkSize:    t.ChunkSize,
			CleanupDelay: t.CleanupDelay,
		},
		Logger:    log.With("component", "injector"),
		TempDir:   opts.TempDir,
		Sleep:     opts.Sleep,
		AfterFunc: opts.AfterFunc,
	})

	e := &Engine{
		watcher:  store.NewWatcher(opts.Store, s.PollInterval, log.With("component", "watcher")),
		hook:     opts.Hook,
		app:      app,
		matcher:  matcher.New(s.HyperlinkApps),
		injector: injector,
		buf:      buffer.New(bufOpts...),
		hub:      hub,
		log:      log,
		queue:    make(chan job, s.QueueSize),
		retry:    retry,
		grace:    s.Timing.EchoGrace,
		clock:    time.Now,
	}
	e.watcher.OnReload(func(records []store.Record) {
		hub.Publish(activity.Entry{Status: activity.StatusReloaded, Snippets: len(records)})
	})
	return e
}

// Activity returns the hub expansions are published to.
func (e *Engine) Activity() *activity.Hub {
	return e.hub
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Reload loads the store into the snapshot the matcher reads.
func (e *Engine) Reload() error {
	return e.watcher.Refresh()
}

// Snapshot returns the snippets the matcher currently sees.
func (e *Engine) Snapshot() []store.Record {
	return e.watcher.Snapshot()
}

// Run loads the store and drives the pipeline until ctx is done, Stop is
// called, or the input hook fails for good. A missing store is fatal.
func (e *Engine) Run(ctx context.Context) error {
	if e.hook == nil {
		return ErrNoHook
	}
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer e.running.Store(false)

	if err := e.Reload(); err != nil {
		return fmt.Errorf("load snippet store: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.watcher.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		e.work(ctx)
	}()

	e.log.Info("engine started", "snippets", len(e.Snapshot()))
	err := e.observe(ctx)
	cancel()
	wg.Wait()
	e.log.Info("engine stopped")
	return err
}

// Stop asks a running engine to shut down. The in-flight expansion, if
// any, completes first.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// observe runs the input hook, restarting it after transient failures.
func (e *Engine) observe(ctx context.Context) error {
	for attempt := 0; ; attempt++ {
		err := e.hook.Start(ctx, e.HandleEvent)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, platform.ErrPermissionDenied) {
			return err
		}
		if attempt >= HookRetries {
			e.log.Error("input hook failed, giving up", "attempts", attempt+1, "error", err)
			return fmt.Errorf("input hook failed after %d attempts: %w", attempt+1, err)
		}
		e.log.Warn("input hook failed, restarting", "attempt", attempt+1, "error", err)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(e.retry):
		}
	}
}

// HandleEvent feeds one key press through the pipeline. It must be called
// from a single goroutine.
func (e *Engine) HandleEvent(ev keys.Event) {
	if e.injecting.Load() || e.clock().UnixNano() < e.quietUntil.Load() {
		return
	}
	if e.reset.Swap(false) {
		e.buf.Clear()
	}

	tok := keys.Translate(ev)
	switch tok.Kind {
	case keys.Char:
		e.buf.Push(tok.Char)
	case keys.Backspace:
		e.buf.Pop()
	case keys.Commit:
		e.commit()
	}
}

func (e *Engine) commit() {
	typed := e.buf.String()
	e.buf.Clear()
	if typed == "" {
		return
	}
	first, _ := utf8.DecodeRuneInString(typed)
	if first != matcher.TextTrigger && first != matcher.ExecTrigger {
		return
	}

	action, ok := e.matcher.Match(typed, e.watcher.Snapshot(), e.app.Name())
	if !ok {
		return
	}
	j := job{toDelete: utf8.RuneCountInString(typed) + 1, action: action}
	select {
	case e.queue <- j:
		e.log.Debug("expansion queued", "shortcut", action.Shortcut, "kind", action.Kind)
	default:
		e.log.Warn("expansion queue full, dropping", "shortcut", action.Shortcut)
		e.hub.Publish(activity.Entry{
			Status:   activity.StatusDropped,
			Shortcut: action.Shortcut,
			Kind:     action.Kind.String(),
			App:      action.App,
		})
	}
}

func (e *Engine) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-e.queue:
			e.expand(ctx, j)
		}
	}
}

// Flush runs every queued expansion on the calling goroutine and returns
// how many ran. It serves callers that drive HandleEvent without Run.
func (e *Engine) Flush(ctx context.Context) int {
	n := 0
	for {
		select {
		case j := <-e.queue:
			e.expand(ctx, j)
			n++
		default:
			return n
		}
	}
}

func (e *Engine) expand(ctx context.Context, j job) {
	e.injecting.Store(true)
	rep, err := e.injector.Expand(context.WithoutCancel(ctx), j.toDelete, j.action)
	if e.grace > 0 {
		e.quietUntil.Store(e.clock().Add(e.grace).UnixNano())
	}
	e.injecting.Store(false)
	e.reset.Store(true)

	entry := activity.Entry{
		Status:   activity.StatusExpanded,
		Shortcut: j.action.Shortcut,
		Kind:     j.action.Kind.String(),
		App:      j.action.App,
		Deleted:  rep.Deleted,
	}
	if err != nil {
		entry.Status = activity.StatusFailed
		entry.Error = err.Error()
	} else {
		e.log.Info("expanded", "shortcut", j.action.Shortcut, "kind", j.action.Kind, "app", j.action.App)
	}
	e.hub.Publish(entry)
}

type noApp struct{}

func (noApp) Name() string { return "" }
