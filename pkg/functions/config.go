package functions

import (
	"fmt"
	"time"
)

// JoinMode decides what join does with list elements that are not strings.
type JoinMode string

const (
	// JoinStringify renders non-string elements with Value.String.
	JoinStringify JoinMode = "stringify"
	// JoinStrict rejects non-string elements with an ArgumentError.
	JoinStrict JoinMode = "strict"
)

// Config holds all configuration options for the function library.
type Config struct {
	// JoinMode controls element coercion in join.
	JoinMode JoinMode `json:"join_mode"`

	// BusinessStartHour is the first hour (inclusive) counted as business hours.
	BusinessStartHour int `json:"business_start_hour"`

	// BusinessEndHour is the hour (exclusive) at which business hours end.
	BusinessEndHour int `json:"business_end_hour"`

	// BusinessDays lists working weekdays, 0 being Monday.
	BusinessDays []int `json:"business_days"`

	// Timezone is used by is_business_hours when no timezone is passed.
	Timezone string `json:"timezone"`

	// JSONIndent is the indentation width used by json_dumps.
	JSONIndent int `json:"json_indent"`
}

// DefaultConfig returns a Config with the defaults alert workflows expect.
func DefaultConfig() *Config {
	return &Config{
		JoinMode:          JoinStringify,
		BusinessStartHour: 8,
		BusinessEndHour:   20,
		BusinessDays:      []int{0, 1, 2, 3, 4},
		Timezone:          "UTC",
		JSONIndent:        4,
	}
}

// Validate checks the configuration for values the library cannot work with.
func (c *Config) Validate() error {
	switch c.JoinMode {
	case JoinStringify, JoinStrict:
	default:
		return fmt.Errorf("unknown join mode %q", c.JoinMode)
	}
	if c.BusinessStartHour < 0 || c.BusinessStartHour > 23 {
		return fmt.Errorf("business_start_hour out of range: %d", c.BusinessStartHour)
	}
	if c.BusinessEndHour < 1 || c.BusinessEndHour > 24 || c.BusinessEndHour <= c.BusinessStartHour {
		return fmt.Errorf("business_end_hour out of range: %d", c.BusinessEndHour)
	}
	for _, d := range c.BusinessDays {
		if d < 0 || d > 6 {
			return fmt.Errorf("business day out of range: %d", d)
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.JSONIndent < 0 {
		return fmt.Errorf("json_indent must not be negative")
	}
	return nil
}
