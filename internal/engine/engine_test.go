package engine_test

import (
	"context"
	stdErrors "errors"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NamanBalaji/vidloader/internal/engine"
	"github.com/NamanBalaji/vidloader/internal/errors"
	"github.com/NamanBalaji/vidloader/internal/filesystem"
	"github.com/NamanBalaji/vidloader/internal/item"
	"github.com/NamanBalaji/vidloader/internal/loader"
	"github.com/NamanBalaji/vidloader/internal/repository"
	"github.com/NamanBalaji/vidloader/internal/state"
	"github.com/NamanBalaji/vidloader/internal/transport"
)

const mediaLink = "http://example.com/video/index.m3u8"

type fakeTask struct {
	req        *http.Request
	completion transport.Completion

	mu       sync.Mutex
	canceled bool
}

func (t *fakeTask) Resume() {}

func (t *fakeTask) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.canceled = true
}

func (t *fakeTask) isCanceled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.canceled
}

func (t *fakeTask) respond(status int, body string) {
	t.completion(&http.Response{StatusCode: status, Header: http.Header{}}, []byte(body), nil)
}

func (t *fakeTask) fail(err error) {
	t.completion(nil, nil, err)
}

type fakeRequestable struct {
	mu    sync.Mutex
	tasks []*fakeTask
}

func (f *fakeRequestable) DataTask(req *http.Request, completion transport.Completion) transport.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	task := &fakeTask{req: req, completion: completion}
	f.tasks = append(f.tasks, task)
	return task
}

func (f *fakeRequestable) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

func (f *fakeRequestable) last(t *testing.T) *fakeTask {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.tasks)
	return f.tasks[len(f.tasks)-1]
}

type fixture struct {
	engine  *engine.Engine
	repo    *repository.BboltRepository
	net     *fakeRequestable
	dataDir string
}

func setup(t *testing.T, mutate func(*engine.Config)) *fixture {
	t.Helper()

	dir := t.TempDir()
	repo, err := repository.NewBboltRepository(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	cfg := &engine.Config{
		DataDir:            filepath.Join(dir, "data"),
		MaxConcurrentLoads: 2,
		DrainInterval:      10 * time.Millisecond,
		MaxRetries:         0,
		RetryDelay:         time.Millisecond,
	}
	if mutate != nil {
		mutate(cfg)
	}

	net := &fakeRequestable{}
	e := engine.New(repo, loader.New(net), filesystem.NewOSFileSystem(), cfg)

	return &fixture{engine: e, repo: repo, net: net, dataDir: cfg.DataDir}
}

func (f *fixture) kind(t *testing.T, id string) state.Kind {
	t.Helper()
	rec, err := f.engine.Get(id)
	require.NoError(t, err)
	return rec.State().Kind()
}

func register(t *testing.T, f *fixture, id string, st state.State) {
	t.Helper()
	rec, err := item.New(id, mediaLink, st)
	require.NoError(t, err)
	require.NoError(t, f.engine.Register(rec))
}

func TestAdd(t *testing.T) {
	f := setup(t, nil)

	rec, err := f.engine.Add(mediaLink, "Episode 1", map[string]string{"X-Token": "abc"})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.Identifier())

	stored, err := f.engine.Get(rec.Identifier())
	require.NoError(t, err)
	assert.Equal(t, state.Waiting, stored.State().Kind())
	title, ok := stored.Title()
	assert.True(t, ok)
	assert.Equal(t, "Episode 1", title)
	assert.Equal(t, "abc", stored.Header()["X-Token"])
}

func TestAdd_InvalidURL(t *testing.T) {
	f := setup(t, nil)

	for _, link := range []string{"ftp://example.com/a.m3u8", "not a url", "http://"} {
		_, err := f.engine.Add(link, "", nil)
		assert.ErrorIs(t, err, engine.ErrInvalidURL, link)
	}

	_, err := f.engine.Add("rtmp://example.com/live", "", nil)
	assert.ErrorIs(t, err, errors.ErrUnsupportedProtocol)
}

func TestRegister_Duplicate(t *testing.T) {
	f := setup(t, nil)

	register(t, f, "a", state.Of(state.Waiting))

	rec, err := item.New("a", mediaLink, state.Of(state.Waiting))
	require.NoError(t, err)
	assert.ErrorIs(t, f.engine.Register(rec), engine.ErrItemExists)
}

func TestStart_CompletesAfterDrain(t *testing.T) {
	f := setup(t, func(c *engine.Config) {
		c.Headers = map[string]string{"User-Agent": "test", "X-Token": "default"}
	})

	rec, err := f.engine.Add(mediaLink, "", map[string]string{"X-Token": "item"})
	require.NoError(t, err)
	id := rec.Identifier()

	require.NoError(t, f.engine.Start(id))
	assert.Equal(t, state.Running, f.kind(t, id))

	task := f.net.last(t)
	assert.Equal(t, mediaLink, task.req.URL.String())
	assert.Equal(t, "item", task.req.Header.Get("X-Token"))
	assert.Equal(t, "test", task.req.Header.Get("User-Agent"))

	task.respond(http.StatusOK, "#EXTM3U")

	applied, err := f.engine.Drain()
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	done, err := f.engine.Get(id)
	require.NoError(t, err)
	assert.Equal(t, state.Completed, done.State().Kind())
	assert.Equal(t, 1.0, done.Progress())
	assert.Equal(t, int64(len("#EXTM3U")), done.DownloadedBytes())

	path, ok := done.Path()
	require.True(t, ok)
	assert.Equal(t, id, path)

	data, err := os.ReadFile(filepath.Join(f.dataDir, id, "index.m3u8"))
	require.NoError(t, err)
	assert.Equal(t, "#EXTM3U", string(data))
}

func TestStart_InvalidTransition(t *testing.T) {
	f := setup(t, nil)

	register(t, f, "done", state.Of(state.Completed))

	err := f.engine.Start("done")
	assert.True(t, errors.IsInvalidTransition(err))
	assert.Equal(t, 0, f.net.count())
}

func TestStart_UnknownItem(t *testing.T) {
	f := setup(t, nil)
	assert.ErrorIs(t, f.engine.Start("missing"), repository.ErrItemNotFound)
}

func TestStart_RespectsConcurrencyLimit(t *testing.T) {
	f := setup(t, func(c *engine.Config) { c.MaxConcurrentLoads = 1 })

	register(t, f, "a", state.Of(state.Waiting))
	register(t, f, "b", state.Of(state.Waiting))

	require.NoError(t, f.engine.Start("a"))
	require.NoError(t, f.engine.Start("b"))

	assert.Equal(t, state.Running, f.kind(t, "a"))
	assert.Equal(t, state.Waiting, f.kind(t, "b"))
	assert.Equal(t, 1, f.net.count())

	f.net.last(t).respond(http.StatusOK, "a")
	_, err := f.engine.Drain()
	require.NoError(t, err)

	assert.Equal(t, state.Completed, f.kind(t, "a"))
	assert.Equal(t, state.Running, f.kind(t, "b"))
	assert.Equal(t, 2, f.net.count())
}

func TestSuspendResume(t *testing.T) {
	f := setup(t, nil)

	register(t, f, "a", state.Of(state.Waiting))
	require.NoError(t, f.engine.Start("a"))
	first := f.net.last(t)

	require.NoError(t, f.engine.Suspend("a"))
	assert.Equal(t, state.Suspended, f.kind(t, "a"))
	assert.True(t, first.isCanceled())

	// The cancelled request completing late must not reach the item.
	first.respond(http.StatusOK, "late")
	applied, err := f.engine.Drain()
	require.NoError(t, err)
	assert.Equal(t, 0, applied)
	assert.Equal(t, state.Suspended, f.kind(t, "a"))

	require.NoError(t, f.engine.Resume("a"))
	assert.Equal(t, state.Running, f.kind(t, "a"))
	assert.Equal(t, 2, f.net.count())

	f.net.last(t).respond(http.StatusOK, "fresh")
	applied, err = f.engine.Drain()
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.Equal(t, state.Completed, f.kind(t, "a"))
}

func TestResume_RequiresSuspended(t *testing.T) {
	f := setup(t, nil)

	register(t, f, "a", state.Of(state.Waiting))
	assert.True(t, errors.IsInvalidTransition(f.engine.Resume("a")))
}

func TestCancel(t *testing.T) {
	f := setup(t, nil)

	register(t, f, "a", state.Of(state.Waiting))
	require.NoError(t, f.engine.Start("a"))
	task := f.net.last(t)

	require.NoError(t, f.engine.Cancel("a"))
	assert.Equal(t, state.Canceled, f.kind(t, "a"))
	assert.True(t, task.isCanceled())

	task.respond(http.StatusOK, "late")
	applied, err := f.engine.Drain()
	require.NoError(t, err)
	assert.Equal(t, 0, applied)

	assert.True(t, errors.IsInvalidTransition(f.engine.Cancel("a")))
}

func TestDrain_HTTPErrorFailsItem(t *testing.T) {
	f := setup(t, nil)

	register(t, f, "a", state.Of(state.Waiting))
	require.NoError(t, f.engine.Start("a"))

	f.net.last(t).respond(http.StatusNotFound, "")
	applied, err := f.engine.Drain()
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	rec, err := f.engine.Get("a")
	require.NoError(t, err)
	assert.True(t, rec.IsFailed())
	assert.Contains(t, rec.State().Reason(), "404")
}

func TestLoadFailure_FailsItem(t *testing.T) {
	f := setup(t, nil)

	register(t, f, "a", state.Of(state.Waiting))
	require.NoError(t, f.engine.Start("a"))

	f.net.last(t).fail(stdErrors.New("connection refused"))

	rec, err := f.engine.Get("a")
	require.NoError(t, err)
	assert.True(t, rec.IsFailed())
	assert.Contains(t, rec.State().Reason(), "connection refused")
}

func TestLoadFailure_RetriesWithBackoff(t *testing.T) {
	f := setup(t, func(c *engine.Config) { c.MaxRetries = 1 })

	register(t, f, "a", state.Of(state.Waiting))
	require.NoError(t, f.engine.Start("a"))

	f.net.last(t).fail(errors.NewNetworkError(stdErrors.New("connection reset"), mediaLink, true))
	assert.Equal(t, state.Running, f.kind(t, "a"))

	require.Eventually(t, func() bool { return f.net.count() == 2 }, time.Second, 5*time.Millisecond)

	f.net.last(t).respond(http.StatusOK, "ok")
	_, err := f.engine.Drain()
	require.NoError(t, err)
	assert.Equal(t, state.Completed, f.kind(t, "a"))
}

func TestLoadFailure_UnclassifiedErrorIsNotRetried(t *testing.T) {
	f := setup(t, func(c *engine.Config) { c.MaxRetries = 3 })

	register(t, f, "a", state.Of(state.Waiting))
	require.NoError(t, f.engine.Start("a"))

	f.net.last(t).fail(stdErrors.New("mystery"))

	assert.Equal(t, state.Failed, f.kind(t, "a"))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, f.net.count())
}

func TestDrain_StorageFailureIsIOError(t *testing.T) {
	f := setup(t, nil)

	// A regular file where the data directory should be makes every write fail.
	require.NoError(t, os.MkdirAll(filepath.Dir(f.dataDir), 0o755))
	require.NoError(t, os.WriteFile(f.dataDir, []byte("x"), 0o644))

	register(t, f, "a", state.Of(state.Waiting))
	require.NoError(t, f.engine.Start("a"))
	f.net.last(t).respond(http.StatusOK, "data")

	applied, err := f.engine.Drain()
	assert.Equal(t, 1, applied)
	require.Error(t, err)
	assert.True(t, errors.IsIOError(err))

	rec, err := f.engine.Get("a")
	require.NoError(t, err)
	assert.True(t, rec.IsFailed())
	assert.Contains(t, rec.State().Reason(), "IO")
}

func TestPrefetch_StartsAfterKey(t *testing.T) {
	f := setup(t, nil)

	register(t, f, "a", state.Of(state.Waiting))
	require.NoError(t, f.engine.Prefetch("a", "https://example.com/key.bin"))
	assert.Equal(t, state.Prefetching, f.kind(t, "a"))

	keyTask := f.net.last(t)
	assert.Equal(t, "https://example.com/key.bin", keyTask.req.URL.String())
	keyTask.respond(http.StatusOK, "secret")

	applied, err := f.engine.Drain()
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	key, err := os.ReadFile(filepath.Join(f.dataDir, "a", "key"))
	require.NoError(t, err)
	assert.Equal(t, "secret", string(key))

	assert.Equal(t, state.Running, f.kind(t, "a"))
	assert.Equal(t, mediaLink, f.net.last(t).req.URL.String())
}

func TestPrefetch_InvalidURL(t *testing.T) {
	f := setup(t, nil)

	register(t, f, "a", state.Of(state.Waiting))
	assert.ErrorIs(t, f.engine.Prefetch("a", "file:///etc/passwd"), engine.ErrInvalidURL)
	assert.Equal(t, state.Waiting, f.kind(t, "a"))
}

func TestDelete_RemovesRecordAndContent(t *testing.T) {
	f := setup(t, nil)

	register(t, f, "a", state.Of(state.Waiting))
	require.NoError(t, f.engine.Start("a"))
	f.net.last(t).respond(http.StatusOK, "data")
	_, err := f.engine.Drain()
	require.NoError(t, err)

	content := filepath.Join(f.dataDir, "a")
	_, err = os.Stat(content)
	require.NoError(t, err)

	require.NoError(t, f.engine.Delete("a"))
	require.NoError(t, f.engine.Close())

	_, err = f.engine.Get("a")
	assert.ErrorIs(t, err, repository.ErrItemNotFound)
	_, err = os.Stat(content)
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, f.engine.Delete("a"), repository.ErrItemNotFound)
}

func TestRecover(t *testing.T) {
	f := setup(t, nil)

	register(t, f, "running", state.Of(state.Running))
	register(t, f, "prefetching", state.Of(state.Prefetching))
	register(t, f, "waiting", state.Of(state.Waiting))
	register(t, f, "done", state.Of(state.Completed))

	suspended, err := f.engine.Recover()
	require.NoError(t, err)
	assert.Equal(t, []string{"running"}, suspended)

	assert.Equal(t, state.Suspended, f.kind(t, "running"))
	assert.Equal(t, state.Waiting, f.kind(t, "waiting"))
	assert.Equal(t, state.Completed, f.kind(t, "done"))

	rec, err := f.engine.Get("prefetching")
	require.NoError(t, err)
	assert.Equal(t, state.FailedWith("interrupted"), rec.State())
}

func TestRunAndWait(t *testing.T) {
	f := setup(t, nil)

	register(t, f, "a", state.Of(state.Waiting))
	require.NoError(t, f.engine.Start("a"))
	f.net.last(t).respond(http.StatusOK, "data")

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- f.engine.Run(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	records, err := f.engine.Wait(waitCtx, "a")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, state.Completed, records[0].State().Kind())

	cancel()
	select {
	case err := <-runErr:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestWait_ContextDone(t *testing.T) {
	f := setup(t, nil)

	register(t, f, "a", state.Of(state.Waiting))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	records, err := f.engine.Wait(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, records, 1)
	assert.Equal(t, state.Waiting, records[0].State().Kind())
}
