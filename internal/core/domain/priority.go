package domain

import (
	"fmt"
	"strings"
)

// Priority orders tasks on the agenda. Persisted and transmitted by name.
type Priority int

const (
	PriorityNone Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
	PriorityUrgent
)

var priorityNames = map[Priority]string{
	PriorityNone:   "",
	PriorityLow:    "Baja",
	PriorityMedium: "Media",
	PriorityHigh:   "Alta",
	PriorityUrgent: "Urgente",
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

func (p Priority) IsValid() bool {
	_, ok := priorityNames[p]
	return ok
}

// ParsePriority accepts the persisted names case-insensitively. An empty
// string is PriorityNone.
func ParsePriority(input string) (Priority, error) {
	s := strings.TrimSpace(input)
	for p, name := range priorityNames {
		if strings.EqualFold(s, name) {
			return p, nil
		}
	}
	return PriorityNone, fmt.Errorf("%w: %q", ErrInvalidPriority, input)
}

func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
