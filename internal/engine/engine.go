package engine

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NamanBalaji/vidloader/internal/errors"
	"github.com/NamanBalaji/vidloader/internal/filesystem"
	"github.com/NamanBalaji/vidloader/internal/item"
	"github.com/NamanBalaji/vidloader/internal/loader"
	"github.com/NamanBalaji/vidloader/internal/logger"
	"github.com/NamanBalaji/vidloader/internal/repository"
	"github.com/NamanBalaji/vidloader/internal/state"
	"github.com/NamanBalaji/vidloader/internal/transport"
)

const (
	keySuffix    = "#key"
	keyFileName  = "key"
	defaultMedia = "index.m3u8"
)

// Engine drives items through their lifecycle: it issues loads through the
// coordinator, consumes completed resources from the relay, and persists
// every state change.
type Engine struct {
	mu sync.Mutex // serializes read-modify-write of stored records

	repo   repository.Repository
	loader loader.Loadable
	fs     filesystem.FileSystem
	files  *filesystem.Handler
	queue  *QueueProcessor
	config *Config

	attempts map[string]int
}

// New creates an Engine
func New(repo repository.Repository, ld loader.Loadable, fs filesystem.FileSystem, config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}

	e := &Engine{
		repo:     repo,
		loader:   ld,
		fs:       fs,
		files:    filesystem.NewHandler(fs, config.DataDir),
		config:   config,
		attempts: make(map[string]int),
	}
	e.queue = NewQueueProcessor(config.MaxConcurrentLoads, e.launch)

	return e
}

// Add registers a new item for mediaLink under a generated identifier.
func (e *Engine) Add(mediaLink, title string, header map[string]string) (item.Record, error) {
	rec, err := item.New(uuid.NewString(), mediaLink, state.Of(state.Waiting))
	if err != nil {
		return item.Record{}, err
	}
	if title != "" {
		rec = rec.WithTitle(title)
	}
	if len(header) > 0 {
		rec = rec.WithHeader(header)
	}

	if err := e.Register(rec); err != nil {
		return item.Record{}, err
	}
	return rec, nil
}

// Register stores a caller-built record. The media link must be an http(s) URL.
func (e *Engine) Register(rec item.Record) error {
	if _, err := parseMediaLink(rec.MediaLink()); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.repo.Find(rec.Identifier()); err == nil {
		return ErrItemExists
	} else if !errors.Is(err, repository.ErrItemNotFound) {
		return err
	}

	logger.Infof("Registered item %s for %s", rec.Identifier(), rec.MediaLink())
	return e.repo.Save(rec)
}

// Get returns the stored record for id.
func (e *Engine) Get(id string) (item.Record, error) {
	return e.repo.Find(id)
}

// List returns every stored record.
func (e *Engine) List() ([]item.Record, error) {
	return e.repo.FindAll()
}

// Start queues the item for loading. It moves to running once a load slot is
// free.
func (e *Engine) Start(id string) error {
	rec, err := e.repo.Find(id)
	if err != nil {
		return err
	}
	if err := state.Validate(rec.State(), state.Of(state.Running)); err != nil {
		return err
	}

	e.queue.Enqueue(id)
	return nil
}

// Resume restarts a suspended item.
func (e *Engine) Resume(id string) error {
	rec, err := e.repo.Find(id)
	if err != nil {
		return err
	}
	if rec.State().Kind() != state.Suspended {
		return errors.NewInvalidTransitionError(rec.State().String(), state.Of(state.Running).String())
	}

	return e.Start(id)
}

// Prefetch loads the item's decryption key or asset info from keyURL before
// the stream itself. The item is started automatically once the key arrives.
func (e *Engine) Prefetch(id, keyURL string) error {
	u, err := parseMediaLink(keyURL)
	if err != nil {
		return err
	}

	rec, err := e.update(id, func(rec item.Record) (item.Record, error) {
		return rec.Transition(state.Of(state.Prefetching))
	})
	if err != nil {
		return err
	}

	header := e.headerFor(rec)
	e.loader.Load(id+keySuffix, u, header, e.loadCompleted(id, u, header))
	return nil
}

// launch is the queue's start function: it moves the item to running and
// issues the load.
func (e *Engine) launch(id string) error {
	rec, err := e.update(id, func(rec item.Record) (item.Record, error) {
		return rec.Transition(state.Of(state.Running))
	})
	if err != nil {
		logger.Warnf("Could not start %s: %v", id, err)
		return err
	}

	u, err := parseMediaLink(rec.MediaLink())
	if err != nil {
		e.fail(id, err)
		return err
	}

	e.mu.Lock()
	delete(e.attempts, id)
	e.mu.Unlock()

	header := e.headerFor(rec)
	logger.Infof("Loading %s from %s", id, u)
	e.loader.Load(id, u, header, e.loadCompleted(id, u, header))
	return nil
}

// loadCompleted handles load failures; successful resources arrive through
// the relay. Retryable failures are reloaded with backoff while the item is
// still running.
func (e *Engine) loadCompleted(id string, u *url.URL, header map[string]string) loader.Completion {
	return func(err error) {
		if err == nil {
			return
		}

		if errors.IsRetryable(err) {
			e.mu.Lock()
			attempt := e.attempts[id]
			retry := attempt < e.config.MaxRetries
			if retry {
				e.attempts[id] = attempt + 1
			}
			e.mu.Unlock()

			if retry {
				delay := calculateBackoff(attempt, e.config.RetryDelay)
				logger.Warnf("Load for %s failed, retrying in %v: %v", id, delay, err)
				time.AfterFunc(delay, func() { e.retry(id, u, header) })
				return
			}
		}

		logger.Errorf("Load for %s failed: %v", id, err)
		e.fail(id, err)
	}
}

func (e *Engine) retry(id string, u *url.URL, header map[string]string) {
	rec, err := e.repo.Find(id)
	if err != nil {
		return
	}

	loadID := id
	switch rec.State().Kind() {
	case state.Running:
	case state.Prefetching:
		loadID = id + keySuffix
	default:
		return
	}

	e.loader.Load(loadID, u, header, e.loadCompleted(id, u, header))
}

// Suspend pauses a running item and drops its in-flight request.
func (e *Engine) Suspend(id string) error {
	_, err := e.update(id, func(rec item.Record) (item.Record, error) {
		return rec.Transition(state.Of(state.Suspended))
	})
	if err != nil {
		return err
	}

	e.loader.Cancel(id)
	e.queue.Release(id)
	return nil
}

// Cancel stops the item permanently.
func (e *Engine) Cancel(id string) error {
	e.loader.Cancel(id)
	e.loader.Cancel(id + keySuffix)

	_, err := e.update(id, func(rec item.Record) (item.Record, error) {
		return rec.Transition(state.Of(state.Canceled))
	})
	if err != nil {
		return err
	}

	e.queue.Release(id)
	logger.Infof("Canceled %s", id)
	return nil
}

// Delete cancels any work for the item, removes its content and forgets it.
func (e *Engine) Delete(id string) error {
	e.loader.Cancel(id)
	e.loader.Cancel(id + keySuffix)
	e.queue.Release(id)

	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.repo.Find(id)
	if err != nil {
		return err
	}

	e.files.DeleteContent(rec)
	delete(e.attempts, id)

	logger.Infof("Deleted %s", id)
	return e.repo.Delete(id)
}

// Recover repairs records left behind by an interrupted process: nothing is
// in flight after a restart, so running items become suspended and items
// stuck prefetching fail. It returns the identifiers that were suspended.
func (e *Engine) Recover() ([]string, error) {
	records, err := e.repo.FindAll()
	if err != nil {
		return nil, err
	}

	var suspended []string
	for _, rec := range records {
		var next state.State
		switch rec.State().Kind() {
		case state.Running:
			next = state.Of(state.Suspended)
		case state.Prefetching, state.KeyLoaded:
			next = state.FailedWith("interrupted")
		default:
			continue
		}

		if _, err := e.update(rec.Identifier(), func(rec item.Record) (item.Record, error) {
			return rec.Transition(next)
		}); err != nil {
			return suspended, err
		}

		if next.Kind() == state.Suspended {
			suspended = append(suspended, rec.Identifier())
		}
	}

	logger.Infof("Recovered %d interrupted item(s)", len(suspended))
	return suspended, nil
}

// Drain consumes every resource currently on the relay and returns how many
// were applied to their items.
func (e *Engine) Drain() (int, error) {
	var (
		applied int
		errs    []error
	)

	for {
		entry, ok := e.loader.NextStreamResource()
		if !ok {
			break
		}

		ok, err := e.apply(entry)
		if err != nil {
			if errors.IsIOError(err) {
				logger.Errorf("Could not store resource for %s: %v", entry.Identifier, err)
			}
			errs = append(errs, err)
		}
		if ok {
			applied++
		}
	}

	return applied, errors.Join(errs...)
}

func (e *Engine) apply(entry loader.Entry) (bool, error) {
	if id, ok := strings.CutSuffix(entry.Identifier, keySuffix); ok {
		return e.applyKey(id, entry.Resource)
	}
	return e.applyStream(entry.Identifier, entry.Resource)
}

func (e *Engine) applyStream(id string, res loader.StreamResource) (bool, error) {
	var writeErr error

	_, err := e.update(id, func(rec item.Record) (item.Record, error) {
		if rec.State().Kind() != state.Running {
			return rec, errSkip
		}

		if err := transport.ClassifyHTTPError(res.StatusCode(), rec.MediaLink()); err != nil {
			return rec.Transition(state.FailedWith(failureReason(err)))
		}

		rel := filepath.Join(id, mediaFileName(rec.MediaLink()))
		if err := e.fs.WriteFile(filepath.Join(e.files.Home(), rel), res.Data()); err != nil {
			writeErr = errors.NewIOError(err, rel)
			return rec.Transition(state.FailedWith(failureReason(writeErr)))
		}

		return rec.
			WithPath(id).
			WithDownloadedBytes(int64(len(res.Data()))).
			WithProgress(1).
			Transition(state.Of(state.Completed))
	})
	if errors.Is(err, errSkip) || errors.Is(err, repository.ErrItemNotFound) {
		logger.Debugf("Dropping resource for %s: item is no longer running", id)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	e.queue.Release(id)
	return true, writeErr
}

func (e *Engine) applyKey(id string, res loader.StreamResource) (bool, error) {
	_, err := e.update(id, func(rec item.Record) (item.Record, error) {
		if rec.State().Kind() != state.Prefetching {
			return rec, errSkip
		}

		if err := transport.ClassifyHTTPError(res.StatusCode(), rec.MediaLink()); err != nil {
			return rec.Transition(state.FailedWith(failureReason(err)))
		}

		if err := e.fs.WriteFile(filepath.Join(e.files.Home(), id, keyFileName), res.Data()); err != nil {
			return rec.Transition(state.FailedWith(failureReason(errors.NewIOError(err, id))))
		}

		return rec.WithPath(id).Transition(state.Of(state.KeyLoaded))
	})
	if errors.Is(err, errSkip) || errors.Is(err, repository.ErrItemNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	rec, err := e.repo.Find(id)
	if err != nil {
		return true, err
	}
	if rec.State().Kind() == state.KeyLoaded {
		return true, e.Start(id)
	}
	return true, nil
}

// Run drains the relay every DrainInterval until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.config.DrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if _, err := e.Drain(); err != nil {
				logger.Errorf("Final drain failed: %v", err)
			}
			return e.files.Wait()
		case <-ticker.C:
			if _, err := e.Drain(); err != nil {
				logger.Errorf("Drain failed: %v", err)
			}
		}
	}
}

// Wait blocks until every listed item reaches a terminal state or ctx is done.
func (e *Engine) Wait(ctx context.Context, ids ...string) ([]item.Record, error) {
	ticker := time.NewTicker(e.config.DrainInterval)
	defer ticker.Stop()

	for {
		records := make([]item.Record, 0, len(ids))
		done := true
		for _, id := range ids {
			rec, err := e.repo.Find(id)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
			done = done && rec.State().IsTerminal()
		}
		if done {
			return records, nil
		}

		select {
		case <-ctx.Done():
			return records, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close waits for pending content removals.
func (e *Engine) Close() error {
	return e.files.Wait()
}

var errSkip = errors.New("skip")

// update applies f to the stored record and saves the result.
func (e *Engine) update(id string, f func(item.Record) (item.Record, error)) (item.Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.repo.Find(id)
	if err != nil {
		return item.Record{}, err
	}

	next, err := f(rec)
	if err != nil {
		return rec, err
	}

	if err := e.repo.Save(next); err != nil {
		return rec, err
	}

	logger.Debugf("Item %s: %s -> %s", id, rec.State(), next.State())
	return next, nil
}

func (e *Engine) fail(id string, cause error) {
	_, err := e.update(id, func(rec item.Record) (item.Record, error) {
		return rec.Transition(state.FailedWith(failureReason(cause)))
	})
	if err != nil && !errors.IsInvalidTransition(err) {
		logger.Errorf("Could not record failure for %s: %v", id, err)
	}
	e.queue.Release(id)
}

// headerFor merges configured default headers with the item's own.
func (e *Engine) headerFor(rec item.Record) map[string]string {
	header := maps.Clone(e.config.Headers)
	if header == nil {
		header = make(map[string]string)
	}
	maps.Copy(header, rec.Header())
	return header
}

func parseMediaLink(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %w %q", ErrInvalidURL, errors.ErrUnsupportedProtocol, u.Scheme)
	}
	return u, nil
}

// mediaFileName picks the on-disk name for a stream's payload.
func mediaFileName(mediaLink string) string {
	u, err := url.Parse(mediaLink)
	if err != nil {
		return defaultMedia
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" || name == keyFileName {
		return defaultMedia
	}
	return name
}
