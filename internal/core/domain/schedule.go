package domain

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

var (
	ErrInvalidPattern = errors.New("invalid recurrence pattern")
)

// Schedule wraps a Recurrence so it can travel as JSON and live in a jsonb
// column. A zero Schedule means "no recurrence".
type Schedule struct {
	Recurrence Recurrence
}

func NewSchedule(r Recurrence) Schedule {
	return Schedule{Recurrence: r}
}

func (s Schedule) IsSet() bool {
	return s.Recurrence != nil
}

func (s Schedule) MarshalJSON() ([]byte, error) {
	return MarshalRecurrence(s.Recurrence)
}

func (s *Schedule) UnmarshalJSON(data []byte) error {
	r, err := UnmarshalRecurrence(data)
	if err != nil {
		return err
	}
	s.Recurrence = r
	return nil
}

func (s Schedule) Value() (driver.Value, error) {
	if s.Recurrence == nil {
		return nil, nil
	}
	b, err := MarshalRecurrence(s.Recurrence)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *Schedule) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		s.Recurrence = nil
		return nil
	case []byte:
		return s.UnmarshalJSON(v)
	case string:
		return s.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("schedule: unsupported scan type %T", src)
	}
}

// ValidateRecurrence rejects patterns that can never be evaluated. Everything
// else, including partially specified variants, is accepted.
func ValidateRecurrence(r Recurrence) error {
	p, ok := r.(AdvancedPattern)
	if !ok {
		return nil
	}
	if c, ok := p.Cycle.(AlternatingCycle); ok {
		if c.ActiveDays < 1 || c.RestDays < 0 {
			return fmt.Errorf("%w: alternating cycle needs active_days >= 1 and rest_days >= 0 (got %d + %d)",
				ErrInvalidPattern, c.ActiveDays, c.RestDays)
		}
	}
	return nil
}
