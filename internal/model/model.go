// Package model holds the in-memory project snapshot produced by a source reader.
//
// Every optional value is a pointer so that "not present in the file" is
// distinguishable from a zero value. Readers build a Project once; nothing in
// this repository mutates it afterwards.
package model

import "time"

// Default calendar settings used when a file does not carry its own.
const (
	DefaultMinutesPerDay  = 480
	DefaultMinutesPerWeek = 2400
	DefaultDaysPerMonth   = 20
)

// Project is a decoded schedule file.
type Project struct {
	Name      *string
	Tasks     []*Task
	Resources []*Resource
	Settings  Settings
}

// Settings carries the calendar factors used to convert durations between units.
type Settings struct {
	MinutesPerDay  float64
	MinutesPerWeek float64
	DaysPerMonth   float64
}

// DefaultSettings returns the standard 8h day, 40h week, 20 day month.
func DefaultSettings() Settings {
	return Settings{
		MinutesPerDay:  DefaultMinutesPerDay,
		MinutesPerWeek: DefaultMinutesPerWeek,
		DaysPerMonth:   DefaultDaysPerMonth,
	}
}

// Task is a single row of the schedule.
type Task struct {
	ID              *int
	UniqueID        *int
	Name            *string
	WBS             *string
	Notes           *string
	Start           *time.Time
	Finish          *time.Time
	Duration        *Duration
	PercentComplete *float64
	Milestone       bool
	Summary         bool
	Assignments     []*Assignment
	Predecessors    []*Relation
}

// Resource is a person, material or cost item that can be assigned to tasks.
type Resource struct {
	ID       *int
	UniqueID *int
	Name     *string
}

// Assignment links a task to a resource. Resource is nil for the
// "unassigned" placeholder some formats emit.
type Assignment struct {
	Resource *Resource
}

// Relation is a predecessor link on a task. Target is the predecessor.
type Relation struct {
	Target *Task
	Type   RelationType
	Lag    Duration
}

// TaskByUniqueID returns the task with the given unique ID, or nil.
func (p *Project) TaskByUniqueID(uid int) *Task {
	for _, t := range p.Tasks {
		if t.UniqueID != nil && *t.UniqueID == uid {
			return t
		}
	}
	return nil
}

// TaskByID returns the first task with the given ID, or nil.
func (p *Project) TaskByID(id int) *Task {
	for _, t := range p.Tasks {
		if t.ID != nil && *t.ID == id {
			return t
		}
	}
	return nil
}

// ResourceByUniqueID returns the resource with the given unique ID, or nil.
func (p *Project) ResourceByUniqueID(uid int) *Resource {
	for _, r := range p.Resources {
		if r.UniqueID != nil && *r.UniqueID == uid {
			return r
		}
	}
	return nil
}

// ResourceByID returns the resource with the given ID, or nil.
func (p *Project) ResourceByID(id int) *Resource {
	for _, r := range p.Resources {
		if r.ID != nil && *r.ID == id {
			return r
		}
	}
	return nil
}

// String returns a pointer to s.
func String(s string) *string { return &s }

// Int returns a pointer to i.
func Int(i int) *int { return &i }

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }

// Time returns a pointer to t.
func Time(t time.Time) *time.Time { return &t }
