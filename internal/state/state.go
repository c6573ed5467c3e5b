package state

import (
	"encoding/json"
	"fmt"

	"github.com/NamanBalaji/vidloader/internal/errors"
)

// Kind is the lifecycle stage of a download, without the failure reason.
type Kind int32

const (
	Waiting Kind = iota
	Prefetching
	KeyLoaded
	Running
	Suspended
	Completed
	Failed
	Canceled
	Unknown
)

var kindNames = map[Kind]string{
	Waiting:     "waiting",
	Prefetching: "prefetching",
	KeyLoaded:   "keyLoaded",
	Running:     "running",
	Suspended:   "suspended",
	Completed:   "completed",
	Failed:      "failed",
	Canceled:    "canceled",
	Unknown:     "unknown",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ParseKind maps a persisted kind name back to a Kind. "assetInfoLoaded" is
// accepted as an alias of keyLoaded.
func ParseKind(name string) (Kind, bool) {
	if name == "assetInfoLoaded" {
		return KeyLoaded, true
	}
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return Unknown, false
}

// State is a download lifecycle state. Only Failed carries a reason.
type State struct {
	kind   Kind
	reason string
}

// Of returns the state for k. Use FailedWith to attach a reason to Failed.
func Of(k Kind) State {
	return State{kind: k}
}

// FailedWith returns the failed state carrying reason.
func FailedWith(reason string) State {
	return State{kind: Failed, reason: reason}
}

func (s State) Kind() Kind { return s.kind }

// Reason is the failure reason; empty for every other kind.
func (s State) Reason() string { return s.reason }

func (s State) String() string {
	if s.kind == Failed && s.reason != "" {
		return fmt.Sprintf("failed(%s)", s.reason)
	}
	return s.kind.String()
}

// InProgress reports whether the download holds an active task.
func (s State) InProgress() bool {
	switch s.kind {
	case Running, Suspended, KeyLoaded:
		return true
	case Waiting, Prefetching, Completed, Failed, Canceled, Unknown:
		return false
	}
	return false
}

func (s State) IsCancelled() bool {
	switch s.kind {
	case Canceled:
		return true
	case Waiting, Prefetching, KeyLoaded, Running, Suspended, Completed, Failed, Unknown:
		return false
	}
	return false
}

func (s State) IsFailed() bool {
	switch s.kind {
	case Failed:
		return true
	case Waiting, Prefetching, KeyLoaded, Running, Suspended, Completed, Canceled, Unknown:
		return false
	}
	return false
}

// IsTerminal reports whether no transition may leave this state.
func (s State) IsTerminal() bool {
	switch s.kind {
	case Completed, Failed, Canceled:
		return true
	case Waiting, Prefetching, KeyLoaded, Running, Suspended, Unknown:
		return false
	}
	return false
}

var transitions = map[Kind][]Kind{
	Waiting:     {Prefetching, Running, Canceled, Failed},
	Prefetching: {KeyLoaded, Failed, Canceled},
	KeyLoaded:   {Running, Failed, Canceled},
	Running:     {Suspended, Completed, Failed, Canceled},
	Suspended:   {Running, Canceled, Failed},
	Completed:   nil,
	Failed:      nil,
	Canceled:    nil,
	Unknown:     {Waiting, Prefetching, KeyLoaded, Running, Suspended, Completed, Failed, Canceled, Unknown},
}

// CanTransition reports whether the lifecycle allows moving from s to next.
func (s State) CanTransition(next State) bool {
	for _, k := range transitions[s.kind] {
		if k == next.kind {
			return true
		}
	}
	return false
}

// Validate returns an InvalidTransition error when from cannot move to to.
func Validate(from, to State) error {
	if from.CanTransition(to) {
		return nil
	}
	return errors.NewInvalidTransitionError(from.String(), to.String())
}

type wireState struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason,omitempty"`
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireState{Kind: s.kind.String(), Reason: s.reason})
}

// UnmarshalJSON decodes a persisted state. Unrecognised kinds decode as
// Unknown so the record can still be recovered.
func (s *State) UnmarshalJSON(data []byte) error {
	var w wireState
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	k, _ := ParseKind(w.Kind)
	*s = State{kind: k}
	if k == Failed {
		s.reason = w.Reason
	}
	return nil
}
