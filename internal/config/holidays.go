package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

// HolidayCalendar is the YAML layout of a holiday file:
//
//	holidays:
//	  - date: "2024-12-25"
//	    name: Christmas
type HolidayCalendar struct {
	Holidays []Holiday `yaml:"holidays"`
}

type Holiday struct {
	Date string `yaml:"date"`
	Name string `yaml:"name"`
}

// LoadHolidays reads a holiday calendar. An empty path yields an empty set.
func LoadHolidays(path string) (domain.HolidaySet, error) {
	if path == "" {
		return domain.HolidaySet{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("holidays: %w", err)
	}
	defer f.Close()

	return ParseHolidays(f)
}

func ParseHolidays(r io.Reader) (domain.HolidaySet, error) {
	var cal HolidayCalendar
	if err := yaml.NewDecoder(r).Decode(&cal); err != nil && err != io.EOF {
		return nil, fmt.Errorf("holidays: decode: %w", err)
	}

	return cal.Set()
}

// Set converts the calendar. Dates must be YYYY-MM-DD.
func (c HolidayCalendar) Set() (domain.HolidaySet, error) {
	set := make(domain.HolidaySet, len(c.Holidays))
	for i, h := range c.Holidays {
		d, err := domain.ParseDateField(fmt.Sprintf("holidays[%d].date", i), h.Date)
		if err != nil {
			return nil, err
		}
		set[d] = h.Name
	}
	return set, nil
}
