package loading

import (
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// UnderflowPolicy decides what Decr does when nothing is running.
type UnderflowPolicy int

const (
	// UnderflowClamp keeps the count at zero and logs the imbalance.
	UnderflowClamp UnderflowPolicy = iota
	// UnderflowAllow lets the count go negative. The tracker keeps
	// reporting loading, since the flag only checks for zero.
	UnderflowAllow
	// UnderflowPanic treats the imbalance as a programming error.
	UnderflowPanic
)

var underflowPolicyNames = map[UnderflowPolicy]string{
	UnderflowClamp: "clamp",
	UnderflowAllow: "allow",
	UnderflowPanic: "panic",
}

func (p UnderflowPolicy) String() string {
	if s, ok := underflowPolicyNames[p]; ok {
		return s
	}

	return "unknown"
}

func ParseUnderflowPolicy(s string) (UnderflowPolicy, error) {
	for p, name := range underflowPolicyNames {
		if strings.EqualFold(s, name) {
			return p, nil
		}
	}

	return UnderflowClamp, errors.Errorf("unknown underflow policy %q", s)
}

type Option func(*Tracker)

func WithName(name string) Option {
	return func(t *Tracker) {
		t.name = name
	}
}

func WithUnderflowPolicy(p UnderflowPolicy) Option {
	return func(t *Tracker) {
		t.underflow = p
	}
}

func WithLogger(l *log.Entry) Option {
	return func(t *Tracker) {
		t.log = l
	}
}
