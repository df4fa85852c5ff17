// Package shopping holds the shop-mode rules: the per-item found/not-found
// state and the per-list progress aggregate.
package shopping

import (
	"encoding/json"
	"fmt"
	"math"
)

// State is the shop-mode mark on a list item. Found and NotFound are
// mutually exclusive because an item stores exactly one State.
type State int

const (
	Unchecked State = 0
	Found     State = 1
	NotFound  State = 2
)

func (s State) Valid() bool {
	return s == Unchecked || s == Found || s == NotFound
}

func (s State) String() string {
	switch s {
	case Unchecked:
		return "unchecked"
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ParseState converts a stored or submitted integer into a State.
func ParseState(v int) (State, error) {
	s := State(v)
	if !s.Valid() {
		return Unchecked, fmt.Errorf("invalid checked state %d", v)
	}
	return s, nil
}

// Toggle applies a shop-mode button press. Pressing the button for the
// state the item is already in clears it; pressing the other button
// replaces the current state.
func Toggle(current, pressed State) State {
	if pressed == Unchecked || current == pressed {
		return Unchecked
	}
	return pressed
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(s))
}

// UnmarshalJSON accepts 0, 1, 2 and, for older clients, true/false.
func (s *State) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		if b {
			*s = Found
		} else {
			*s = Unchecked
		}
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("checked must be 0, 1 or 2")
	}
	parsed, err := ParseState(n)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Progress is the shop-mode summary of a list. It is always derived from
// the items, never stored.
type Progress struct {
	Total   int `json:"total"`
	Found   int `json:"found"`
	Missing int `json:"missing"`
	Pending int `json:"pending"`
	Percent int `json:"percent"`
}

// ComputeProgress aggregates the states of a list's items.
func ComputeProgress(states []State) Progress {
	p := Progress{Total: len(states)}
	for _, s := range states {
		switch s {
		case Found:
			p.Found++
		case NotFound:
			p.Missing++
		}
	}
	p.Pending = p.Total - p.Found - p.Missing
	if p.Total > 0 {
		p.Percent = int(math.Round(float64(p.Found) / float64(p.Total) * 100))
	}
	return p
}
