package clipboard

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var payloads = []string{
	"",
	"hello world",
	"line one\nline two\r\n",
	"tab\tnul\x00esc\x1b[31mbell\a",
	"üñíçødé 日本語 🙂",
	strings.Repeat("x", 1<<16),
}

type fakeAsync struct {
	gate        chan struct{}
	err         error
	panicWith   interface{}
	overwritten chan struct{}

	mtx   sync.Mutex
	texts []string
}

func (f *fakeAsync) WriteText(text string) (<-chan struct{}, error) {
	if f.gate != nil {
		<-f.gate
	}
	if f.panicWith != nil {
		panic(f.panicWith)
	}

	f.mtx.Lock()
	f.texts = append(f.texts, text)
	f.mtx.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return f.overwritten, nil
}

func (f *fakeAsync) Texts() []string {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return append([]string(nil), f.texts...)
}

// stagingCommand checks what the legacy path hands it.
type stagingCommand struct {
	t   *testing.T
	dir string
	err error

	mtx        sync.Mutex
	texts      []string
	maxStaged  int
	stagedName string
}

func (c *stagingCommand) CopySelection(selection io.Reader) error {
	staged := listDir(c.t, c.dir)

	file, ok := selection.(*os.File)
	if assert.True(c.t, ok, "selection must be the staging file") {
		assert.Equal(c.t, c.dir, filepath.Dir(file.Name()))
		assert.True(c.t, strings.HasPrefix(filepath.Base(file.Name()), ".copydeck-stage-"))
	}

	data, err := io.ReadAll(selection)
	assert.NoError(c.t, err)

	c.mtx.Lock()
	c.texts = append(c.texts, string(data))
	if len(staged) > c.maxStaged {
		c.maxStaged = len(staged)
	}
	if ok {
		c.stagedName = file.Name()
	}
	c.mtx.Unlock()

	return c.err
}

func listDir(t *testing.T, dir string) []string {
	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func newTestWriter(t *testing.T, opts Options) *Writer {
	t.Helper()

	opts.Logger = zaptest.NewLogger(t)
	w, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

func waitReceipt(t *testing.T, r *Receipt) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := r.Wait(ctx)
	require.NotEqual(t, context.DeadlineExceeded, err, "receipt never completed")
	return err
}

func TestAsyncCopyIsDeferred(t *testing.T) {
	dir := t.TempDir()
	fake := &fakeAsync{gate: make(chan struct{})}
	w := newTestWriter(t, Options{Async: fake, StagingDir: dir})
	require.Equal(t, MethodAsync, w.Method())

	// Cleanups run last-in first-out: unblock the loop before Close waits on it.
	release := sync.OnceFunc(func() { close(fake.gate) })
	t.Cleanup(release)

	returned := make(chan *Receipt)
	go func() { returned <- w.Copy("hello world") }()

	var r *Receipt
	select {
	case r = <-returned:
	case <-time.After(5 * time.Second):
		t.Fatal("Copy blocked on the async write")
	}

	assert.Equal(t, MethodAsync, r.Method())
	assert.Empty(t, fake.Texts())
	assert.Nil(t, r.Err())
	select {
	case <-r.Done():
		t.Fatal("receipt completed before the write ran")
	default:
	}

	release()

	assert.NoError(t, waitReceipt(t, r))
	assert.Equal(t, []string{"hello world"}, fake.Texts())
	assert.Empty(t, listDir(t, dir), "async path must not touch the staging dir")
}

func TestAsyncCopyPayloads(t *testing.T) {
	fake := &fakeAsync{}
	w := newTestWriter(t, Options{Method: MethodAsync, Async: fake})

	var receipts []*Receipt
	for _, p := range payloads {
		receipts = append(receipts, w.Copy(p))
	}
	for _, r := range receipts {
		assert.NoError(t, waitReceipt(t, r))
	}

	assert.Equal(t, payloads, fake.Texts())
}

func TestAsyncCopyFailuresStayInReceipt(t *testing.T) {
	t.Run("rejected", func(t *testing.T) {
		denied := errors.New("permission denied")
		w := newTestWriter(t, Options{Async: &fakeAsync{err: denied}})

		r := w.Copy("secret")
		err := waitReceipt(t, r)
		require.Error(t, err)
		assert.Equal(t, denied, errors.Cause(err))
		assert.Nil(t, r.Overwritten())
	})

	t.Run("panic", func(t *testing.T) {
		w := newTestWriter(t, Options{Async: &fakeAsync{panicWith: "document not focused"}})

		r := w.Copy("secret")
		err := waitReceipt(t, r)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "document not focused")

		// The loop is still usable afterwards.
		assert.Error(t, waitReceipt(t, w.Copy("again")))
	})
}

func TestAsyncCopyReportsOverwrite(t *testing.T) {
	overwritten := make(chan struct{})
	w := newTestWriter(t, Options{Async: &fakeAsync{overwritten: overwritten}})

	r := w.Copy("mine")
	require.NoError(t, waitReceipt(t, r))
	require.NotNil(t, r.Overwritten())

	close(overwritten)
	select {
	case <-r.Overwritten():
	case <-time.After(5 * time.Second):
		t.Fatal("overwrite not reported")
	}
}

func TestAsyncCopyAfterClose(t *testing.T) {
	fake := &fakeAsync{}
	w := newTestWriter(t, Options{Async: fake})

	first := w.Copy("before")
	require.NoError(t, w.Close())
	assert.NoError(t, waitReceipt(t, first), "Close must flush pending writes")

	r := w.Copy("after")
	assert.Equal(t, ErrClosed, waitReceipt(t, r))
	assert.Equal(t, []string{"before"}, fake.Texts())
}

func TestLegacyCopy(t *testing.T) {
	dir := t.TempDir()
	cmd := &stagingCommand{t: t, dir: dir}
	w := newTestWriter(t, Options{Method: MethodLegacy, Async: &fakeAsync{}, Command: cmd, StagingDir: dir})
	require.Equal(t, MethodLegacy, w.Method())

	for _, p := range payloads {
		r := w.Copy(p)

		assert.Equal(t, MethodLegacy, r.Method())
		select {
		case <-r.Done():
		default:
			t.Fatal("legacy copy must be complete when Copy returns")
		}
		assert.NoError(t, r.Err())
		assert.Nil(t, r.Overwritten())
		assert.Empty(t, listDir(t, dir), "staging file left behind")
	}

	assert.Equal(t, payloads, cmd.texts)
	assert.Equal(t, 1, cmd.maxStaged)
	assert.NoFileExists(t, cmd.stagedName)
}

func TestLegacyCopyEmptyString(t *testing.T) {
	dir := t.TempDir()
	cmd := &stagingCommand{t: t, dir: dir}
	w := newTestWriter(t, Options{Method: MethodLegacy, Command: cmd, StagingDir: dir})

	r := w.Copy("")

	assert.NoError(t, r.Err())
	assert.Equal(t, []string{""}, cmd.texts)
	assert.Empty(t, listDir(t, dir))
}

func TestLegacyCopyFailureStillCleansUp(t *testing.T) {
	dir := t.TempDir()
	unsupported := errors.NotSupportedf("copy command")
	cmd := &stagingCommand{t: t, dir: dir, err: unsupported}
	w := newTestWriter(t, Options{Method: MethodLegacy, Command: cmd, StagingDir: dir})

	r := w.Copy("hello")

	require.Error(t, r.Err())
	assert.True(t, errors.IsNotSupported(errors.Cause(r.Err())))
	assert.Empty(t, listDir(t, dir))
}

type panickingCommand struct{}

func (panickingCommand) CopySelection(io.Reader) error {
	panic("execCommand blew up")
}

func TestLegacyCopyPanicIsContained(t *testing.T) {
	dir := t.TempDir()
	w := newTestWriter(t, Options{Method: MethodLegacy, Command: panickingCommand{}, StagingDir: dir})

	var r *Receipt
	assert.NotPanics(t, func() { r = w.Copy("hello") })
	require.Error(t, r.Err())
	assert.Contains(t, r.Err().Error(), "execCommand blew up")
	assert.Empty(t, listDir(t, dir))
}

func TestLegacyCopyBackToBack(t *testing.T) {
	dir := t.TempDir()
	cmd := &stagingCommand{t: t, dir: dir}
	w := newTestWriter(t, Options{Method: MethodLegacy, Command: cmd, StagingDir: dir})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, w.Copy(strings.Repeat("ab", i)).Err())
		}(i)
	}
	wg.Wait()

	assert.Len(t, cmd.texts, 8)
	assert.Equal(t, 1, cmd.maxStaged, "more than one staging file existed at once")
	assert.Empty(t, listDir(t, dir))
}

// rendezvousCommand reports each copy and holds it until released.
type rendezvousCommand struct {
	arrived chan struct{}
	release chan struct{}
}

func (c *rendezvousCommand) CopySelection(io.Reader) error {
	c.arrived <- struct{}{}
	<-c.release
	return nil
}

func TestLegacySerializesPerWriterOnly(t *testing.T) {
	dir := t.TempDir()
	cmd := &rendezvousCommand{arrived: make(chan struct{}), release: make(chan struct{})}
	first := NewLegacy(dir, cmd)
	second := NewLegacy(dir, cmd)

	errs := make(chan error, 2)
	go func() { errs <- first.Copy("one") }()
	go func() { errs <- second.Copy("two") }()

	<-cmd.arrived
	<-cmd.arrived
	assert.Len(t, listDir(t, dir), 2, "each Legacy stages independently")

	close(cmd.release)
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
	assert.Empty(t, listDir(t, dir))
}

func TestLegacyCopyBadStagingDir(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	w := newTestWriter(t, Options{Method: MethodLegacy, Command: &stagingCommand{t: t, dir: missing}, StagingDir: missing})

	var r *Receipt
	assert.NotPanics(t, func() { r = w.Copy("hello") })
	assert.Error(t, r.Err())
}

func TestNewRejectsUnknownMethod(t *testing.T) {
	_, err := New(Options{Method: "clipboard-api"})
	require.Error(t, err)
	assert.True(t, errors.IsNotValid(err))
}

func TestParseMethod(t *testing.T) {
	for in, want := range map[string]Method{
		"":        MethodAuto,
		"auto":    MethodAuto,
		" Async ": MethodAsync,
		"LEGACY":  MethodLegacy,
	} {
		got, err := ParseMethod(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseMethod("navigator")
	assert.True(t, errors.IsNotValid(err))
}
