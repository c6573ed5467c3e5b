package filesystem

import (
	"golang.org/x/sync/errgroup"

	"github.com/NamanBalaji/vidloader/internal/errors"
	"github.com/NamanBalaji/vidloader/internal/item"
	"github.com/NamanBalaji/vidloader/internal/logger"
)

// Handler removes downloaded content for items. Paths on records are
// relative to home.
type Handler struct {
	fs   FileSystem
	home string
	jobs errgroup.Group
}

// NewHandler creates a content handler rooted at home.
func NewHandler(fs FileSystem, home string) *Handler {
	return &Handler{fs: fs, home: home}
}

// Home returns the directory record paths are resolved against.
func (h *Handler) Home() string {
	return h.home
}

// DeleteContent schedules removal of the item's content. Nothing is scheduled
// when the record has no path or the path does not exist; the return value
// reports whether a removal was scheduled.
func (h *Handler) DeleteContent(rec item.Record) bool {
	if !rec.IsReachable(h.fs, h.home) {
		return false
	}

	location, _ := rec.Location(h.home)
	h.jobs.Go(func() error {
		logger.Debugf("Removing content for %s at %s", rec.Identifier(), location)
		if err := h.fs.DeleteFile(location); err != nil {
			logger.Errorf("Failed to remove content for %s: %v", rec.Identifier(), err)
			return errors.NewIOError(err, location)
		}
		return nil
	})

	return true
}

// Wait blocks until every scheduled removal finished and returns the first failure.
func (h *Handler) Wait() error {
	return h.jobs.Wait()
}
