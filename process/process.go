// Package process holds the static definition of a multi-stage process and
// the catalog that serves it from the document store.
package process

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no process with the requested key exists
	// and the key is not the one the catalog can seed.
	ErrNotFound = errors.New("process not found")
	// ErrInvalidDefinition is returned when a process definition fails validation.
	ErrInvalidDefinition = errors.New("invalid process definition")
)

// Item is a single trackable deliverable within a Stage.
type Item struct {
	Key      string `json:"key" yaml:"key"`
	Title    string `json:"title" yaml:"title"`
	Optional bool   `json:"optional" yaml:"optional"`
}

// Stage is a named phase of a Process.
type Stage struct {
	Key         string `json:"key" yaml:"key"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Items       []Item `json:"items" yaml:"items"`
}

// Process is the definition of a multi-stage workflow template.
type Process struct {
	Key    string  `json:"key" yaml:"key"`
	Name   string  `json:"name" yaml:"name"`
	Stages []Stage `json:"stages" yaml:"stages"`
}

// Stage returns the stage with the given key.
func (p *Process) Stage(key string) (Stage, bool) {
	for _, s := range p.Stages {
		if s.Key == key {
			return s, true
		}
	}
	return Stage{}, false
}

// Validate checks keys are present and unique at each level.
func (p *Process) Validate() error {
	if p.Key == "" {
		return fmt.Errorf("%w: process key is required", ErrInvalidDefinition)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: process %q has no name", ErrInvalidDefinition, p.Key)
	}
	if len(p.Stages) == 0 {
		return fmt.Errorf("%w: process %q has no stages", ErrInvalidDefinition, p.Key)
	}

	stages := make(map[string]bool, len(p.Stages))
	for i, s := range p.Stages {
		if s.Key == "" || s.Title == "" {
			return fmt.Errorf("%w: stage %d needs a key and a title", ErrInvalidDefinition, i)
		}
		if stages[s.Key] {
			return fmt.Errorf("%w: duplicate stage %q", ErrInvalidDefinition, s.Key)
		}
		stages[s.Key] = true

		items := make(map[string]bool, len(s.Items))
		for j, it := range s.Items {
			if it.Key == "" || it.Title == "" {
				return fmt.Errorf("%w: item %d of stage %q needs a key and a title", ErrInvalidDefinition, j, s.Key)
			}
			if items[it.Key] {
				return fmt.Errorf("%w: duplicate item %q in stage %q", ErrInvalidDefinition, it.Key, s.Key)
			}
			items[it.Key] = true
		}
	}
	return nil
}
