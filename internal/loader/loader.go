package loader

import (
	"maps"
	"net/http"
	"net/url"
	"slices"

	"github.com/NamanBalaji/vidloader/internal/atomicbox"
	"github.com/NamanBalaji/vidloader/internal/errors"
	"github.com/NamanBalaji/vidloader/internal/transport"
)

// Completion reports the outcome of Load. It is never called for a request
// that was superseded or cancelled.
type Completion func(err error)

// Loadable is the coordinator surface used by the orchestrator.
type Loadable interface {
	Load(identifier string, u *url.URL, header map[string]string, completion Completion)
	NextStreamResource() (Entry, bool)
	Cancel(identifier string)
}

// request is the in-flight handle for one Load call. Handles are compared by
// identity, so a completion can tell whether it still owns its identifier.
type request struct {
	task transport.Task
}

// ledger is all mutable coordinator state. It is only replaced as a whole,
// never mutated in place.
type ledger struct {
	inFlight map[string]*request
	relay    []Entry
}

// PlaylistLoader tracks at most one in-flight request per identifier and
// relays completed resources to a consumer in completion order.
type PlaylistLoader struct {
	state       *atomicbox.Box[ledger]
	requestable transport.Requestable
}

// New creates a loader issuing requests through requestable.
func New(requestable transport.Requestable) *PlaylistLoader {
	return &PlaylistLoader{
		state:       atomicbox.New(ledger{inFlight: map[string]*request{}}),
		requestable: requestable,
	}
}

// Load fetches u for identifier. A request already in flight for the same
// identifier is cancelled and replaced; its completion is suppressed. On
// success the resource is queued on the relay before completion is called.
func (l *PlaylistLoader) Load(identifier string, u *url.URL, header map[string]string, completion Completion) {
	if u == nil {
		complete(completion, errors.NewTransportError(errors.ErrInvalidURL, ""))
		return
	}

	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		complete(completion, errors.NewTransportError(err, u.String()))
		return
	}

	for key, value := range header {
		req.Header.Set(key, value)
	}

	r := &request{}
	r.task = l.requestable.DataTask(req, func(resp *http.Response, body []byte, err error) {
		l.finish(identifier, r, u.String(), resp, body, err, completion)
	})

	previous := atomicbox.Modify(l.state, func(s ledger) (ledger, *request) {
		prev := s.inFlight[identifier]
		s.inFlight = maps.Clone(s.inFlight)
		s.inFlight[identifier] = r
		return s, prev
	})
	if previous != nil {
		previous.task.Cancel()
	}

	r.task.Resume()
}

// finish settles a request. Ownership of the identifier is checked in the
// same critical section that queues the resource, so a superseded or
// cancelled request can never reach the relay.
func (l *PlaylistLoader) finish(identifier string, r *request, resource string, resp *http.Response, body []byte, err error, completion Completion) {
	var outcome error

	switch {
	case err != nil:
		outcome = errors.NewTransportError(err, resource)
	case resp == nil:
		outcome = errors.NewUnknownError(resource)
	case body == nil:
		outcome = errors.NewMalformedResponseError(resource, "response has no body")
	}

	owned := atomicbox.Modify(l.state, func(s ledger) (ledger, bool) {
		if s.inFlight[identifier] != r {
			return s, false
		}

		s.inFlight = maps.Clone(s.inFlight)
		delete(s.inFlight, identifier)

		if outcome == nil {
			entry := Entry{Identifier: identifier, Resource: NewStreamResource(resp, body)}
			s.relay = append(slices.Clip(s.relay), entry)
		}
		return s, true
	})
	if !owned {
		return
	}

	complete(completion, outcome)
}

// NextStreamResource removes and returns the oldest relay entry.
func (l *PlaylistLoader) NextStreamResource() (Entry, bool) {
	type popped struct {
		entry Entry
		ok    bool
	}

	p := atomicbox.Modify(l.state, func(s ledger) (ledger, popped) {
		if len(s.relay) == 0 {
			return s, popped{}
		}
		head := s.relay[0]
		s.relay = s.relay[1:]
		return s, popped{entry: head, ok: true}
	})

	return p.entry, p.ok
}

// Cancel stops the in-flight request for identifier and discards any of its
// resources still waiting on the relay. Cancelling an unknown identifier is a
// no-op.
func (l *PlaylistLoader) Cancel(identifier string) {
	r := atomicbox.Modify(l.state, func(s ledger) (ledger, *request) {
		r, ok := s.inFlight[identifier]
		if ok {
			s.inFlight = maps.Clone(s.inFlight)
			delete(s.inFlight, identifier)
		}

		if slices.ContainsFunc(s.relay, func(e Entry) bool { return e.Identifier == identifier }) {
			s.relay = slices.DeleteFunc(slices.Clone(s.relay), func(e Entry) bool {
				return e.Identifier == identifier
			})
		}
		return s, r
	})

	if r != nil {
		r.task.Cancel()
	}
}

// InFlight reports whether a request for identifier is outstanding.
func (l *PlaylistLoader) InFlight(identifier string) bool {
	_, ok := l.state.Get().inFlight[identifier]
	return ok
}

// InFlightCount returns the number of outstanding requests.
func (l *PlaylistLoader) InFlightCount() int {
	return len(l.state.Get().inFlight)
}

// Pending returns the number of resources waiting on the relay.
func (l *PlaylistLoader) Pending() int {
	return len(l.state.Get().relay)
}

func complete(completion Completion, err error) {
	if completion != nil {
		completion(err)
	}
}
