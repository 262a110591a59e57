package types

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/scality/backbeat/shared-loading/pkg/counter/outcome"
)

// State is a consistent snapshot of a tracker. Loading is always
// Running != 0; Seq increases by one on every change.
type State struct {
	Name    string `json:"name"`
	Running int64  `json:"running"`
	Loading bool   `json:"loading"`
	Seq     uint64 `json:"seq"`
}

func (s State) String() string {
	return fmt.Sprintf("name=%s running=%d loading=%v seq=%d", s.Name, s.Running, s.Loading, s.Seq)
}

// Consistent reports whether the loading flag matches the running count.
func (s State) Consistent() bool {
	return s.Loading == (s.Running != 0)
}

type TrackerStatus struct {
	State
	Outcomes *outcome.Serialized `json:"outcomes"`
}

type Status struct {
	Trackers []TrackerStatus `json:"trackers"`
}

func (s *Status) String() string {
	b, err := json.Marshal(s)
	if err != nil {
		return "(invalid)"
	}

	return string(b)
}

// Loading reports whether any tracker in the document is loading.
func (s *Status) Loading() bool {
	for _, t := range s.Trackers {
		if t.Loading {
			return true
		}
	}

	return false
}

func ParseStatus(b []byte) (*Status, error) {
	s := &Status{}

	err := json.Unmarshal(b, s)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal status")
	}

	for i, t := range s.Trackers {
		if !t.Consistent() {
			return nil, errors.Errorf("inconsistent tracker state (%s)", t.State)
		}

		if t.Outcomes == nil {
			s.Trackers[i].Outcomes = &outcome.Serialized{}
		}
	}

	return s, nil
}
