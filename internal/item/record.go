package item

import (
	"encoding/json"
	"maps"
	"math"
	"path/filepath"
	"slices"

	"github.com/NamanBalaji/vidloader/internal/errors"
	"github.com/NamanBalaji/vidloader/internal/state"
)

// ErrEmptyIdentifier is returned when a record is created without an identifier.
var ErrEmptyIdentifier = errors.New("item identifier cannot be empty")

// Record describes one download: its identity, lifecycle state and progress.
//
// Records are values. Every With* method works on a copy of the receiver, so
// all fields not named by the method are carried over by the language rather
// than by hand; adding a field cannot silently drop it from an update.
type Record struct {
	identifier      string
	title           *string
	path            *string
	mediaLink       string
	state           state.State
	downloadedBytes int64
	header          map[string]string
	progress        float64
	artwork         []byte
}

// New creates a record in the given state with no content yet. The identifier
// is caller assigned and must be stable for the item's lifetime.
func New(identifier, mediaLink string, st state.State) (Record, error) {
	if identifier == "" {
		return Record{}, ErrEmptyIdentifier
	}

	return Record{
		identifier: identifier,
		mediaLink:  mediaLink,
		state:      st,
	}, nil
}

func (r Record) Identifier() string { return r.identifier }
func (r Record) MediaLink() string  { return r.mediaLink }
func (r Record) State() state.State { return r.state }
func (r Record) Progress() float64  { return r.progress }

func (r Record) DownloadedBytes() int64 { return r.downloadedBytes }

// Title returns the display title, if any.
func (r Record) Title() (string, bool) {
	if r.title == nil {
		return "", false
	}
	return *r.title, true
}

// Path returns the content path relative to the storage root. It is unset
// until the first bytes are committed.
func (r Record) Path() (string, bool) {
	if r.path == nil {
		return "", false
	}
	return *r.path, true
}

// Header returns a copy of the request headers attached to this item.
func (r Record) Header() map[string]string {
	return maps.Clone(r.header)
}

// Artwork returns a copy of the thumbnail bytes.
func (r Record) Artwork() []byte {
	return slices.Clone(r.artwork)
}

func (r Record) InProgress() bool  { return r.state.InProgress() }
func (r Record) IsCancelled() bool { return r.state.IsCancelled() }
func (r Record) IsFailed() bool    { return r.state.IsFailed() }

func (r Record) WithTitle(title string) Record {
	r.title = &title
	return r
}

func (r Record) WithoutTitle() Record {
	r.title = nil
	return r
}

func (r Record) WithPath(path string) Record {
	r.path = &path
	return r
}

// WithoutPath clears the path, used once stored content has been removed.
func (r Record) WithoutPath() Record {
	r.path = nil
	return r
}

func (r Record) WithMediaLink(link string) Record {
	r.mediaLink = link
	return r
}

// WithState replaces the state without consulting the lifecycle rules. Use
// Transition for orchestrator-driven changes.
func (r Record) WithState(st state.State) Record {
	r.state = st
	return r
}

// WithDownloadedBytes sets the committed byte count; negative values clamp to 0.
func (r Record) WithDownloadedBytes(n int64) Record {
	r.downloadedBytes = max(n, 0)
	return r
}

// WithProgress sets progress clamped to [0, 1]. While the item is in progress
// a lower value than the current one is ignored, so late callbacks cannot
// move progress backwards. NaN leaves the record unchanged.
func (r Record) WithProgress(p float64) Record {
	if math.IsNaN(p) {
		return r
	}
	p = min(max(p, 0), 1)
	if r.state.InProgress() && p < r.progress {
		return r
	}
	r.progress = p
	return r
}

func (r Record) WithHeader(header map[string]string) Record {
	r.header = maps.Clone(header)
	return r
}

func (r Record) WithArtwork(data []byte) Record {
	r.artwork = slices.Clone(data)
	return r
}

// Transition moves the record to next if the lifecycle allows it.
func (r Record) Transition(next state.State) (Record, error) {
	if err := state.Validate(r.state, next); err != nil {
		return r, err
	}
	return r.WithState(next), nil
}

// Location resolves the content path against home.
func (r Record) Location(home string) (string, bool) {
	path, ok := r.Path()
	if !ok {
		return "", false
	}
	return filepath.Join(home, path), true
}

// Exister reports whether a path exists.
type Exister interface {
	FileExists(path string) (bool, error)
}

// IsReachable reports whether the record's content exists under home.
func (r Record) IsReachable(fs Exister, home string) bool {
	location, ok := r.Location(home)
	if !ok {
		return false
	}

	exists, err := fs.FileExists(location)
	return err == nil && exists
}

type wireRecord struct {
	Identifier      string            `json:"identifier"`
	Title           *string           `json:"title,omitempty"`
	Path            *string           `json:"path,omitempty"`
	MediaLink       string            `json:"mediaLink"`
	State           state.State       `json:"state"`
	DownloadedBytes int64             `json:"downloadedBytes"`
	Header          map[string]string `json:"header,omitempty"`
	Progress        float64           `json:"progress"`
	Artwork         []byte            `json:"artworkData,omitempty"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireRecord{
		Identifier:      r.identifier,
		Title:           r.title,
		Path:            r.path,
		MediaLink:       r.mediaLink,
		State:           r.state,
		DownloadedBytes: r.downloadedBytes,
		Header:          r.header,
		Progress:        r.progress,
		Artwork:         r.artwork,
	})
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Identifier == "" {
		return ErrEmptyIdentifier
	}

	*r = Record{
		identifier:      w.Identifier,
		title:           w.Title,
		path:            w.Path,
		mediaLink:       w.MediaLink,
		state:           w.State,
		downloadedBytes: max(w.DownloadedBytes, 0),
		header:          w.Header,
		progress:        min(max(w.Progress, 0), 1),
		artwork:         w.Artwork,
	}
	return nil
}
