package arbitration

import (
	"strings"

	"github.com/pkg/errors"
)

// Policy decides which requester wins when several request at once.
type Policy int

// The supported policies.
const (
	// RoundRobin rotates the priority to one past the last served requester.
	RoundRobin Policy = iota

	// FixedPriority always serves the lowest-indexed requester.
	FixedPriority
)

func (p Policy) String() string {
	switch p {
	case RoundRobin:
		return "round-robin"
	case FixedPriority:
		return "fixed-priority"
	default:
		return "unknown"
	}
}

// ParsePolicy converts a policy name into a Policy. Names are case
// insensitive, and "rr" and "fixed" are accepted as short forms.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "round-robin", "roundrobin", "rr":
		return RoundRobin, nil
	case "fixed-priority", "fixedpriority", "fixed":
		return FixedPriority, nil
	default:
		return 0, errors.Errorf("unknown arbitration policy %q", name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	if p != RoundRobin && p != FixedPriority {
		return nil, errors.Errorf("unknown arbitration policy %d", int(p))
	}

	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}

	*p = parsed

	return nil
}
