package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"hotconsole/internal/autostart"
	"hotconsole/internal/command"
	"hotconsole/internal/config"
	"hotconsole/internal/console"
	"hotconsole/internal/executor"
	"hotconsole/internal/hotkey"
	"hotconsole/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fakeRestarter struct {
	mu    sync.Mutex
	calls []bool
}

func (f *fakeRestarter) Relaunch(force bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, force)
	return nil
}

func (f *fakeRestarter) Calls() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.calls...)
}

type fakeDetector struct {
	mu    sync.Mutex
	seq   []bool
	polls int
}

func (f *fakeDetector) Locked(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if len(f.seq) == 0 {
		return false, nil
	}
	v := f.seq[0]
	f.seq = f.seq[1:]
	return v, nil
}

type harness struct {
	runner  *Runner
	keys    *hotkey.Noop
	out     *syncBuffer
	restart *fakeRestarter
	store   *config.Store
	input   *io.PipeWriter
}

func newHarness(t *testing.T, mutate func(*Options)) *harness {
	t.Helper()
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })
	out := &syncBuffer{}
	h := &harness{
		keys:    hotkey.NewNoop(),
		out:     out,
		restart: &fakeRestarter{},
		store:   config.NewStore(filepath.Join(t.TempDir(), "data.json")),
		input:   pw,
	}
	opts := Options{
		Store:          h.store,
		Console:        console.New(out, console.NewLineSource(pr)),
		Facility:       h.keys,
		Restarter:      h.restart,
		Logger:         logging.NewTestLogger(),
		IdleInterval:   time.Millisecond,
		LockedInterval: time.Millisecond,
	}
	if mutate != nil {
		mutate(&opts)
	}
	r, err := New(opts)
	require.NoError(t, err)
	h.runner = r
	return h
}

func (h *harness) saveDoc(t *testing.T, mutate func(*config.Document)) {
	t.Helper()
	doc := config.DefaultDocument()
	doc.RefuseStartup = true
	if mutate != nil {
		mutate(doc)
	}
	require.NoError(t, h.store.Save(doc))
}

func (h *harness) start(t *testing.T, hotkeys command.Hotkeys, hotstrings []command.Hotstring) <-chan error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.runner.Run(ctx, hotkeys, hotstrings) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("runner did not stop")
		}
	})
	return done
}

func (h *harness) waitOutput(t *testing.T, want string) {
	t.Helper()
	require.Eventually(t, func() bool { return strings.Contains(h.out.String(), want) },
		2*time.Second, 5*time.Millisecond, "output never contained %q:\n%s", want, h.out.String())
}

func (h *harness) send(t *testing.T, line string) {
	t.Helper()
	_, err := io.WriteString(h.input, line+"\n")
	require.NoError(t, err)
}

func counting(name string, calls *[]int) *command.Command {
	return &command.Command{
		Name:        name,
		Description: "Count " + name,
		Run: func(_ context.Context, option int) (string, error) {
			*calls = append(*calls, option)
			return "", nil
		},
	}
}

func waitExecuted(t *testing.T, r *Runner, n int) Status {
	t.Helper()
	var st Status
	require.Eventually(t, func() bool {
		var err error
		st, err = r.Status(context.Background())
		return err == nil && st.Executed >= n
	}, 2*time.Second, 5*time.Millisecond)
	return st
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestInitCreatesDocumentAndInstallsLauncher(t *testing.T) {
	dir := t.TempDir()
	entry := autostart.Entry{Name: "run_hotconsole", Binary: `C:\tools\hotconsole.exe`, Dir: `C:\tools`}
	var titled string
	h := newHarness(t, func(o *Options) {
		o.Startup = autostart.Folder{Dir: dir}
		o.StartupEntry = entry
		o.SetTitle = func(s string) error { titled = s; return nil }
	})

	go func() {
		_, _ = io.WriteString(h.input, "\n1\n")
	}()
	require.NoError(t, h.runner.Init(context.Background()))

	assert.Equal(t, config.DefaultTitle, titled)
	assert.Equal(t, []bool{false}, h.restart.Calls())
	assert.Contains(t, h.out.String(), "data.json updated successfully")

	exists, err := autostart.Folder{Dir: dir}.Exists(entry)
	require.NoError(t, err)
	assert.True(t, exists)

	doc, err := h.store.Load()
	require.NoError(t, err)
	assert.True(t, doc.RefuseStartup)
}

func TestOfferStartupDeclined(t *testing.T) {
	dir := t.TempDir()
	entry := autostart.Entry{Name: "run_hotconsole", Binary: "hotconsole.exe"}
	h := newHarness(t, func(o *Options) {
		o.Startup = autostart.Folder{Dir: dir}
		o.StartupEntry = entry
	})
	require.NoError(t, h.store.Save(config.DefaultDocument()))

	go func() { _, _ = io.WriteString(h.input, "2\n") }()
	require.NoError(t, h.runner.OfferStartup(context.Background()))

	exists, err := autostart.Folder{Dir: dir}.Exists(entry)
	require.NoError(t, err)
	assert.False(t, exists)
	v, err := h.store.GetField(config.KeyRefuseStartup)
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestOfferStartupSkipsExistingLauncher(t *testing.T) {
	dir := t.TempDir()
	entry := autostart.Entry{Name: "run_hotconsole", Binary: "hotconsole.exe"}
	_, err := autostart.Folder{Dir: dir}.Write(entry)
	require.NoError(t, err)

	h := newHarness(t, func(o *Options) {
		o.Startup = autostart.Folder{Dir: dir}
		o.StartupEntry = entry
	})
	require.NoError(t, h.store.Save(config.DefaultDocument()))

	// Nothing is written to the input; a prompt would block.
	require.NoError(t, h.runner.OfferStartup(context.Background()))
	assert.NotContains(t, h.out.String(), "startup so")
	doc, err := h.store.Load()
	require.NoError(t, err)
	assert.True(t, doc.RefuseStartup)
}

func TestOfferStartupRespectsRefusal(t *testing.T) {
	dir := t.TempDir()
	h := newHarness(t, func(o *Options) {
		o.Startup = autostart.Folder{Dir: dir}
		o.StartupEntry = autostart.Entry{Name: "run_hotconsole"}
	})
	h.saveDoc(t, nil)
	require.NoError(t, h.runner.OfferStartup(context.Background()))
	assert.Empty(t, h.out.String())
}

func TestRunDispatchesHotkeys(t *testing.T) {
	h := newHarness(t, nil)
	h.saveDoc(t, nil)

	var calls []int
	cmd := counting("count", &calls)
	h.start(t, command.Hotkeys{
		{Combo: "Alt+Shift+C", Command: cmd},
		{Combo: "alt+shift+x", Command: cmd, Option: 2},
	}, []command.Hotstring{{Abbreviation: "@@", Text: "me@example.com"}})

	h.waitOutput(t, "Hotkeys are ready!")
	h.waitOutput(t, "Switch to console mode")
	text, ok := h.keys.Abbreviation("@@")
	require.True(t, ok)
	assert.Equal(t, "me@example.com", text)

	require.True(t, h.keys.Press("alt+shift+c"))
	waitExecuted(t, h.runner, 1)
	require.True(t, h.keys.Press("alt+shift+x"))
	st := waitExecuted(t, h.runner, 2)

	assert.Equal(t, 2, st.Succeeded)
	assert.Equal(t, 2, st.Hotkeys)
	assert.Equal(t, 1, st.Commands)
	require.Len(t, st.Recent, 2)
	assert.Equal(t, "count", st.Recent[1].Command)
	assert.Equal(t, 2, st.Recent[1].Option)
}

func TestRunRejectsReservedCombo(t *testing.T) {
	h := newHarness(t, nil)
	h.saveDoc(t, nil)
	var calls []int
	err := h.runner.Run(context.Background(), command.Hotkeys{{Combo: "alt+h", Command: counting("c", &calls)}}, nil)
	assert.ErrorContains(t, err, "reserved")
}

func TestConsoleMode(t *testing.T) {
	var calls []int
	h := newHarness(t, nil)
	h.saveDoc(t, func(d *config.Document) { d.ConsoleMode = true })
	cmd := counting("count", &calls)
	cmd.Options = command.Labels("One", "Two")

	h.start(t, command.Hotkeys{{Combo: "alt+1", Command: cmd}}, nil)
	h.waitOutput(t, "Console commands are waiting for you!")
	h.waitOutput(t, "Go back to hotkey mode")

	h.send(t, "count 2")
	st := waitExecuted(t, h.runner, 1)
	assert.Equal(t, 1, st.Succeeded)
	assert.True(t, st.ConsoleMode)
	assert.Equal(t, "off", st.Watchdog)

	h.send(t, "nope")
	h.waitOutput(t, "Command not found")
	h.send(t, "count x")
	h.waitOutput(t, "Option number must be a number")
	h.send(t, "count 1 2")
	h.waitOutput(t, "The command has extra arguments")

	h.send(t, "exit")
	require.Eventually(t, func() bool { return len(h.restart.Calls()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []bool{true}, h.restart.Calls())
	assert.Equal(t, []int{2}, calls)
}

func TestHandleLine(t *testing.T) {
	var calls []int
	h := newHarness(t, nil)
	h.saveDoc(t, nil)
	cmd := counting("count", &calls)
	require.NoError(t, h.runner.register(command.Hotkeys{{Combo: "alt+1", Command: cmd}}, nil))

	ctx := context.Background()
	assert.NoError(t, h.runner.handleLine(ctx, "   "))
	assert.NoError(t, h.runner.handleLine(ctx, "count"))
	assert.NoError(t, h.runner.handleLine(ctx, "count 7"))
	assert.ErrorIs(t, h.runner.handleLine(ctx, "missing"), ErrCommandNotFound)
	assert.ErrorIs(t, h.runner.handleLine(ctx, "count seven"), ErrOptionNotNumber)
	assert.ErrorIs(t, h.runner.handleLine(ctx, "count 1 2"), ErrTooManyArgs)
	assert.Equal(t, []int{0, 7}, calls)
	assert.Equal(t, "Command not found", consoleMessage(h.runner.handleLine(ctx, "missing")))
}

func TestHandleLineRejectsOutOfRangeOption(t *testing.T) {
	var calls []int
	h := newHarness(t, nil)
	h.saveDoc(t, nil)
	cmd := &command.Command{
		Name:    "turn",
		Options: command.Labels("Stop", "Start"),
		Run: func(_ context.Context, option int) (string, error) {
			calls = append(calls, option)
			return "", nil
		},
	}
	require.NoError(t, h.runner.register(command.Hotkeys{{Combo: "alt+1", Command: cmd, Option: 2}}, nil))

	// A pending answer must not be consumed as a prompt reply.
	h.send(t, "1")

	ctx := context.Background()
	for _, line := range []string{"turn 0", "turn -1", "turn 3"} {
		assert.NoError(t, h.runner.handleLine(ctx, line))
	}
	assert.NoError(t, h.runner.handleLine(ctx, "turn 2"))
	assert.Equal(t, []int{2}, calls)

	assert.Equal(t, 4, h.runner.stats.executed)
	assert.Equal(t, 3, h.runner.stats.failed)
	first := h.runner.stats.recent[0]
	assert.Equal(t, "failed", first.Outcome)
	assert.Contains(t, first.Error, "invalid option 0: choose 1-2")
	assert.NotContains(t, h.out.String(), command.DefaultOptionsMessage)
}

func TestAltQEntersConsole(t *testing.T) {
	h := newHarness(t, nil)
	h.saveDoc(t, nil)
	var calls []int
	h.start(t, command.Hotkeys{{Combo: "alt+1", Command: counting("count", &calls)}}, nil)
	h.waitOutput(t, "Hotkeys are ready!")

	require.True(t, h.keys.Press(ComboConsole))
	h.waitOutput(t, "Console commands are waiting for you!")
	h.send(t, "count")
	waitExecuted(t, h.runner, 1)
}

func TestWatchdogRelaunchesAfterUnlock(t *testing.T) {
	det := &fakeDetector{seq: []bool{false, true, true, false}}
	h := newHarness(t, func(o *Options) { o.Detector = det })
	h.saveDoc(t, nil)
	h.start(t, nil, nil)

	require.Eventually(t, func() bool { return len(h.restart.Calls()) > 0 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, true, h.restart.Calls()[0])
	h.waitOutput(t, "Restarting after lock...")
}

func TestWatchdogIgnoresDetectorErrors(t *testing.T) {
	h := newHarness(t, func(o *Options) {
		o.Detector = detectorFunc(func(context.Context) (bool, error) { return false, errors.New("boom") })
	})
	h.saveDoc(t, nil)
	h.start(t, nil, nil)

	time.Sleep(20 * time.Millisecond)
	st, err := h.runner.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "idle", st.Watchdog)
	assert.Empty(t, h.restart.Calls())
}

func TestWatchdogStaysLockedOnDetectorError(t *testing.T) {
	polls := 0
	h := newHarness(t, func(o *Options) {
		o.Detector = detectorFunc(func(context.Context) (bool, error) {
			polls++
			if polls == 1 {
				return true, nil
			}
			return false, errors.New("session query failed")
		})
	})
	ctx := context.Background()

	assert.Equal(t, h.runner.opts.LockedInterval, h.runner.watchdogTick(ctx))
	for i := 0; i < 3; i++ {
		assert.Equal(t, h.runner.opts.LockedInterval, h.runner.watchdogTick(ctx))
	}
	assert.Equal(t, watchLocked, h.runner.watchdog.state)
	assert.Empty(t, h.restart.Calls())
	assert.NotContains(t, h.out.String(), "Restarting after lock...")
}

type detectorFunc func(context.Context) (bool, error)

func (f detectorFunc) Locked(ctx context.Context) (bool, error) { return f(ctx) }

func TestExecAndCommands(t *testing.T) {
	h := newHarness(t, func(o *Options) {
		o.Commands = []*command.Command{{
			Name:        "pick",
			Description: "Pick one",
			Options:     command.Labels("A", "B"),
			Run:         func(context.Context, int) (string, error) { return "nothing to pick", nil },
		}}
	})
	h.saveDoc(t, nil)
	var calls []int
	h.start(t, command.Hotkeys{{Combo: "alt+1", Command: counting("count", &calls)}}, nil)
	h.waitOutput(t, "Hotkeys are ready!")

	ctx := context.Background()
	list, err := h.runner.Commands(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []string{"alt+1"}, list[0].Hotkeys)
	assert.Equal(t, []string{"A", "B"}, list[1].Options)

	_, err = h.runner.Exec(ctx, "pick", 0)
	assert.ErrorContains(t, err, "needs an option")
	_, err = h.runner.Exec(ctx, "ghost", 0)
	assert.ErrorIs(t, err, ErrCommandNotFound)

	res, err := h.runner.Exec(ctx, "pick", 2)
	require.NoError(t, err)
	assert.Equal(t, executor.OutcomeDeclined, res.Outcome)
	assert.Equal(t, "nothing to pick", res.Message)
}

func TestDoBeforeRun(t *testing.T) {
	h := newHarness(t, nil)
	err := h.runner.Do(context.Background(), func() {})
	assert.ErrorIs(t, err, ErrStopped)
}
