package outcome

import (
	"github.com/scality/backbeat/shared-loading/pkg/counter"
	log "github.com/sirupsen/logrus"
)

type Outcome string

const (
	Started   Outcome = "started"
	Succeeded Outcome = "succeeded"
	Failed    Outcome = "failed"
	Panicked  Outcome = "panicked"
	Underflow Outcome = "underflow"
)

// All lists every outcome in export order.
var All = []Outcome{Started, Succeeded, Failed, Panicked, Underflow}

type (
	// Set counts what happened to the tasks of one tracker. Started is
	// incremented on entry, exactly one of Succeeded, Failed or Panicked on
	// exit. Underflow counts unmatched decrements.
	Set struct {
		Started   counter.Counter
		Succeeded counter.Counter
		Failed    counter.Counter
		Panicked  counter.Counter
		Underflow counter.Counter

		name string
	}

	Serialized struct {
		Started   int64 `json:"started"`
		Succeeded int64 `json:"succeeded"`
		Failed    int64 `json:"failed"`
		Panicked  int64 `json:"panicked"`
		Underflow int64 `json:"underflow"`
	}
)

func New(name string) *Set {
	return &Set{
		Started:   counter.NewBaseCounter(),
		Succeeded: counter.NewBaseCounter(),
		Failed:    counter.NewBaseCounter(),
		Panicked:  counter.NewBaseCounter(),
		Underflow: counter.NewBaseCounter(),

		name: name,
	}
}

func (s *Set) Get(o Outcome) counter.Counter {
	switch o {
	case Started:
		return s.Started
	case Succeeded:
		return s.Succeeded
	case Failed:
		return s.Failed
	case Panicked:
		return s.Panicked
	case Underflow:
		return s.Underflow
	default:
		return nil
	}
}

func (s *Set) Count(o Outcome) {
	c := s.Get(o)
	if c == nil {
		log.WithField("set", s.name).Warnf("ignoring unknown outcome %q", o)
		return
	}

	c.Incr()
	log.Tracef("[%s] counted %s", s.name, o)
}

// InFlight is the number of started tasks that have not finished yet.
func (s *Set) InFlight() int64 {
	return s.Started.Get() - s.Succeeded.Get() - s.Failed.Get() - s.Panicked.Get()
}

func (s *Set) CopyTo(other *Set) {
	for _, o := range All {
		other.Get(o).Set(s.Get(o).Get())
	}
}

func (s *Set) Add(other *Set) {
	for _, o := range All {
		s.Get(o).Add(other.Get(o).Get())
	}
}

func (s *Set) Reset() {
	for _, o := range All {
		s.Get(o).Set(0)
	}
}

func (s *Set) Serialize() *Serialized {
	return &Serialized{
		Started:   s.Started.Get(),
		Succeeded: s.Succeeded.Get(),
		Failed:    s.Failed.Get(),
		Panicked:  s.Panicked.Get(),
		Underflow: s.Underflow.Get(),
	}
}

func (s *Set) LoadSerialized(ser *Serialized) {
	s.Started.Set(ser.Started)
	s.Succeeded.Set(ser.Succeeded)
	s.Failed.Set(ser.Failed)
	s.Panicked.Set(ser.Panicked)
	s.Underflow.Set(ser.Underflow)
}

func (s *Serialized) ToMap() map[string]int64 {
	return map[string]int64{
		string(Started):   s.Started,
		string(Succeeded): s.Succeeded,
		string(Failed):    s.Failed,
		string(Panicked):  s.Panicked,
		string(Underflow): s.Underflow,
	}
}
