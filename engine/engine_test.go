package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snipt/activity"
	"snipt/config"
	"snipt/keys"
	"snipt/platform"
	"snipt/store"
)

// fakeHook returns the queued errors on successive starts, then blocks
// until its context ends.
type fakeHook struct {
	mu    sync.Mutex
	errs  []error
	calls int
	fn    func(keys.Event)
	ready chan struct{}
	once  sync.Once
}

func newFakeHook(errs ...error) *fakeHook {
	return &fakeHook{errs: errs, ready: make(chan struct{})}
}

func (h *fakeHook) Start(ctx context.Context, fn func(keys.Event)) error {
	h.mu.Lock()
	h.calls++
	n := h.calls
	h.fn = fn
	h.mu.Unlock()
	if n <= len(h.errs) {
		return h.errs[n-1]
	}
	h.once.Do(func() { close(h.ready) })
	<-ctx.Done()
	return nil
}

func (h *fakeHook) Calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

func (h *fakeHook) typeText(s string) {
	h.mu.Lock()
	fn := h.fn
	h.mu.Unlock()
	for _, ev := range keys.Sequence(s) {
		fn(ev)
	}
}

type fixture struct {
	store  *store.Store
	rec    *platform.Recorder
	engine *Engine
	now    time.Time
}

func newFixture(t *testing.T, app, body string, tweak func(*Options)) *fixture {
	t.Helper()
	f := &fixture{
		store: store.New(filepath.Join(t.TempDir(), "snipt.json")),
		rec:   platform.NewRecorder(app),
		now:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	if body != "" {
		require.NoError(t, os.WriteFile(f.store.Path(), []byte(body), 0o644))
	}
	settings := config.Default()
	settings.Timing.EchoGrace = 0
	opts := Options{
		Store:      f.store,
		Settings:   settings,
		Keys:       f.rec,
		App:        f.rec,
		Opener:     f.rec,
		TempDir:    t.TempDir(),
		Now:        func() time.Time { return f.now },
		Sleep:      func(time.Duration) {},
		AfterFunc:  func(time.Duration, func()) {},
		RetryDelay: time.Millisecond,
	}
	if tweak != nil {
		tweak(&opts)
	}
	f.engine = New(opts)
	if body != "" {
		require.NoError(t, f.engine.Reload())
	}
	return f
}

func (f *fixture) typeText(s string) {
	for _, ev := range keys.Sequence(s) {
		f.engine.HandleEvent(ev)
	}
}

func TestPlainTextExpansion(t *testing.T) {
	f := newFixture(t, "TextEdit", `[{"shortcut":"hi","snippet":"Hello, world!"}]`, nil)
	f.typeText(":hi ")
	assert.Equal(t, 1, f.engine.Flush(context.Background()))

	assert.Equal(t, 4, f.rec.Backspaces())
	assert.Equal(t, "Hello, world!", f.rec.Typed())
	assert.Equal(t, 0, f.engine.buf.Len())
}

func TestCommandExpansion(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	f := newFixture(t, "", `[{"shortcut":"date","snippet":"date +%Y"}]`, nil)
	f.typeText("!date\t")
	f.engine.Flush(context.Background())

	assert.Equal(t, 6, f.rec.Backspaces())
	assert.Regexp(t, regexp.MustCompile(`^\d{4}$`), f.rec.Typed())
}

func TestParameterizedExpansion(t *testing.T) {
	f := newFixture(t, "", `[{"shortcut":"greet(name)","snippet":"Hello, $name!"}]`, nil)
	f.typeText("!greet(World) ")
	f.engine.Flush(context.Background())

	assert.Equal(t, 14, f.rec.Backspaces())
	assert.Equal(t, "Hello, World!", f.rec.Typed())
}

func TestHyperlinkExpansion(t *testing.T) {
	f := newFixture(t, "Microsoft Teams", `[{"shortcut":"gh","snippet":"https://github.com"}]`, nil)
	f.typeText(":gh ")
	f.engine.Flush(context.Background())

	assert.Equal(t, "[gh](https://github.com)", f.rec.Typed())
}

func TestNoExpansion(t *testing.T) {
	f := newFixture(t, "", `[{"shortcut":"hi","snippet":"Hello"}]`, nil)
	for _, typed := range []string{"hi ", ":nope ", "!nope ", ": ", "x:hi ", ":h i "} {
		f.typeText(typed)
	}
	assert.Equal(t, 0, f.engine.Flush(context.Background()))
	assert.Empty(t, f.rec.Ops())
}

func TestBackspaceEditsBuffer(t *testing.T) {
	f := newFixture(t, "", `[{"shortcut":"hi","snippet":"Hello"}]`, nil)
	f.typeText(":hx\bi\n")
	f.engine.Flush(context.Background())

	assert.Equal(t, 4, f.rec.Backspaces())
	assert.Equal(t, "Hello", f.rec.Typed())
}

func TestStaleCharactersArePurged(t *testing.T) {
	f := newFixture(t, "", `[{"shortcut":"hi","snippet":"Hello"},{"shortcut":"i","snippet":"I"}]`, nil)
	f.typeText(":h")
	f.now = f.now.Add(11 * time.Second)
	f.typeText("i ")
	assert.Equal(t, 0, f.engine.Flush(context.Background()))
}

func TestShortcutAtCapacity(t *testing.T) {
	long := "abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvw" // 49
	body := `[{"shortcut":"` + long + `","snippet":"ok"}]`
	f := newFixture(t, "", body, func(o *Options) {
		o.Settings.Buffer.Capacity = 50
	})
	f.typeText(":" + long + " ")
	f.engine.Flush(context.Background())
	assert.Equal(t, "ok", f.rec.Typed())
	assert.Equal(t, 51, f.rec.Backspaces())
}

func TestQueueFullDropsExpansion(t *testing.T) {
	f := newFixture(t, "", `[{"shortcut":"hi","snippet":"Hello"}]`, func(o *Options) {
		o.Settings.QueueSize = 1
	})
	f.typeText(":hi :hi ")
	assert.Equal(t, 1, f.engine.Flush(context.Background()))

	var dropped int
	for _, e := range f.engine.Activity().Recent() {
		if e.Status == activity.StatusDropped {
			dropped++
		}
	}
	assert.Equal(t, 1, dropped)
}

func TestSyntheticKeysAreIgnored(t *testing.T) {
	f := newFixture(t, "", `[{"shortcut":"hi","snippet":"Hello"}]`, nil)
	f.engine.injecting.Store(true)
	f.typeText(":hi ")
	f.engine.injecting.Store(false)
	assert.Equal(t, 0, f.engine.Flush(context.Background()))
}

func TestEchoGraceIgnoresLateSyntheticKeys(t *testing.T) {
	f := newFixture(t, "", `[{"shortcut":"hi","snippet":"say :hi again"}]`, func(o *Options) {
		o.Settings.Timing.EchoGrace = 50 * time.Millisecond
	})
	clock := f.now
	f.engine.clock = func() time.Time { return clock }

	f.typeText(":hi ")
	require.Equal(t, 1, f.engine.Flush(context.Background()))

	// The injected text reaches the hook after the worker is done.
	f.typeText("say :hi again")
	f.typeText(" ")
	assert.Equal(t, 0, f.engine.Flush(context.Background()))

	clock = clock.Add(51 * time.Millisecond)
	f.typeText(":hi ")
	assert.Equal(t, 1, f.engine.Flush(context.Background()))
}

func TestZeroQueueSizeKeepsOtherSettings(t *testing.T) {
	f := newFixture(t, "", `[{"shortcut":"abcdef","snippet":"x"}]`, func(o *Options) {
		o.Settings.QueueSize = 0
		o.Settings.Buffer.Capacity = 3
	})
	assert.Equal(t, config.Default().QueueSize, cap(f.engine.queue))

	f.typeText(":abcdef ")
	assert.Equal(t, 0, f.engine.Flush(context.Background()))
}

func TestBufferResetAfterExpansion(t *testing.T) {
	f := newFixture(t, "", `[{"shortcut":"hi","snippet":"Hello"}]`, nil)
	f.typeText(":hi ")
	f.typeText(":h")
	f.engine.Flush(context.Background())
	f.typeText("i ")
	assert.Equal(t, 0, f.engine.Flush(context.Background()))
}

func TestFailedExpansionIsRecorded(t *testing.T) {
	f := newFixture(t, "", `[{"shortcut":"hi","snippet":"Hello"}]`, nil)
	f.rec.FailAt = 1
	f.typeText(":hi ")
	f.engine.Flush(context.Background())

	recent := f.engine.Activity().Recent()
	require.NotEmpty(t, recent)
	last := recent[len(recent)-1]
	assert.Equal(t, activity.StatusFailed, last.Status)
	assert.Equal(t, "hi", last.Shortcut)
	assert.NotEmpty(t, last.Error)

	// The pipeline keeps going after a failure.
	f.rec.FailAt = 0
	f.typeText(":hi ")
	f.engine.Flush(context.Background())
	assert.Equal(t, "Hello", f.rec.Typed())
}

func TestRunMissingStore(t *testing.T) {
	f := newFixture(t, "", "", func(o *Options) { o.Hook = newFakeHook() })
	err := f.engine.Run(context.Background())
	assert.True(t, errors.Is(err, store.ErrStoreMissing))
	assert.False(t, f.engine.Running())
}

func TestRunWithoutHook(t *testing.T) {
	f := newFixture(t, "", `[]`, nil)
	assert.True(t, errors.Is(f.engine.Run(context.Background()), ErrNoHook))
}

func startEngine(t *testing.T, f *fixture) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- f.engine.Run(context.Background()) }()
	return done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("engine did not stop")
		return nil
	}
}

func TestHotReload(t *testing.T) {
	hook := newFakeHook()
	f := newFixture(t, "", `[]`, func(o *Options) {
		o.Hook = hook
		o.Settings.PollInterval = 20 * time.Millisecond
	})
	done := startEngine(t, f)
	<-hook.ready
	assert.True(t, f.engine.Running())

	_, err := store.New(f.store.Path()).Add("foo", "bar")
	require.NoError(t, err)
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(f.store.Path(), future, future))

	require.Eventually(t, func() bool {
		return len(f.engine.Snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	hook.typeText(":foo ")
	require.Eventually(t, func() bool {
		return f.rec.Typed() == "bar"
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 5, f.rec.Backspaces())

	f.engine.Stop()
	assert.NoError(t, waitDone(t, done))
}

func TestRunRestartsHook(t *testing.T) {
	hook := newFakeHook(errors.New("glitch"), errors.New("glitch"))
	f := newFixture(t, "", `[]`, func(o *Options) { o.Hook = hook })
	done := startEngine(t, f)
	<-hook.ready
	assert.Equal(t, 3, hook.Calls())

	f.engine.Stop()
	assert.NoError(t, waitDone(t, done))
}

func TestRunGivesUpAfterRetries(t *testing.T) {
	errs := make([]error, HookRetries+1)
	for i := range errs {
		errs[i] = platform.ErrHookStopped
	}
	hook := newFakeHook(errs...)
	f := newFixture(t, "", `[]`, func(o *Options) { o.Hook = hook })

	err := waitDone(t, startEngine(t, f))
	require.Error(t, err)
	assert.True(t, errors.Is(err, platform.ErrHookStopped))
	assert.Equal(t, HookRetries+1, hook.Calls())
}

func TestRunPermissionDeniedIsFatal(t *testing.T) {
	hook := newFakeHook(platform.ErrPermissionDenied)
	f := newFixture(t, "", `[]`, func(o *Options) { o.Hook = hook })

	err := waitDone(t, startEngine(t, f))
	assert.True(t, errors.Is(err, platform.ErrPermissionDenied))
	assert.Equal(t, 1, hook.Calls())
}

func TestRunTwice(t *testing.T) {
	hook := newFakeHook()
	f := newFixture(t, "", `[]`, func(o *Options) { o.Hook = hook })
	done := startEngine(t, f)
	<-hook.ready

	assert.True(t, errors.Is(f.engine.Run(context.Background()), ErrAlreadyRunning))
	f.engine.Stop()
	assert.NoError(t, waitDone(t, done))
}

func TestReloadPublishesActivity(t *testing.T) {
	f := newFixture(t, "", `[{"shortcut":"a","snippet":"1"},{"shortcut":"b","snippet":"2"}]`, nil)
	recent := f.engine.Activity().Recent()
	require.Len(t, recent, 1)
	assert.Equal(t, activity.StatusReloaded, recent[0].Status)
	assert.Equal(t, 2, recent[0].Snippets)
}
