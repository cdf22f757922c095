// Package domain defines the core types and interfaces for the interval timer.
// All other packages depend on domain; domain depends on nothing.
package domain

import (
	"fmt"
	"time"
)

// Category tags an activity for presentation. The timer engine ignores it.
type Category int

const (
	CategoryActive Category = iota
	CategoryRest
	CategoryWarmup
)

// String returns the snake_case category name.
func (c Category) String() string {
	switch c {
	case CategoryActive:
		return "active"
	case CategoryRest:
		return "rest"
	case CategoryWarmup:
		return "warmup"
	default:
		return "unknown"
	}
}

// categoryNames maps names (and the legacy colour names used by exported
// profile files) to categories.
var categoryNames = map[string]Category{
	"active":  CategoryActive,
	"rest":    CategoryRest,
	"warmup":  CategoryWarmup,
	"warm-up": CategoryWarmup,
	"green":   CategoryActive,
	"orange":  CategoryRest,
	"neutral": CategoryWarmup,
}

// ParseCategory converts a category or colour name to a Category.
func ParseCategory(name string) (Category, error) {
	if c, ok := categoryNames[name]; ok {
		return c, nil
	}
	return CategoryActive, fmt.Errorf("unknown category %q", name)
}

// Color returns the legacy colour name for the category.
func (c Category) Color() string {
	switch c {
	case CategoryRest:
		return "orange"
	case CategoryWarmup:
		return "neutral"
	default:
		return "green"
	}
}

// Activity is one named, timed segment of a workout.
type Activity struct {
	ID              string
	Name            string
	DurationSeconds int
	Category        Category
	Order           int // position among siblings, equals the slice index
}

// Duration returns the activity length as a time.Duration.
func (a Activity) Duration() time.Duration {
	return time.Duration(a.DurationSeconds) * time.Second
}

// Profile is a named, saved sequence of activities plus a repeat count.
type Profile struct {
	ID          string
	Name        string
	Activities  []Activity
	RepeatCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TotalSeconds returns the length of a full run: every activity, every cycle.
func (p *Profile) TotalSeconds() int {
	total := 0
	for _, a := range p.Activities {
		total += a.DurationSeconds
	}
	return total * p.RepeatCount
}

// CloneActivities returns a copy of the slice so callers can't alias it.
func CloneActivities(in []Activity) []Activity {
	if in == nil {
		return nil
	}
	out := make([]Activity, len(in))
	copy(out, in)
	return out
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.Activities = CloneActivities(p.Activities)
	return &c
}
