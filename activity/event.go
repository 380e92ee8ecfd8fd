// Package activity implements the append-only activity log: typed events
// recorded against a (process, stage, item) triple and queried newest first.
//
// # Event types
//
// Every event carries one of a fixed set of types. The type selects the shape
// of the optional metadata and the template used to derive the message:
//
//	upload      "{actor} uploaded {filename}"
//	assignment  "{actor} assigned {assignee} to review"
//	download    "{actor} downloaded the document"
//	review      "{actor} reviewed the document"
//	decision    "{actor} made a decision"
//	note        "{actor} left a note: {note}"
//
// The log imposes no ordering between types. Any event may follow any other.
package activity

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidEventType is returned when an event type is outside the fixed set.
var ErrInvalidEventType = errors.New("invalid event type")

// Type identifies the kind of action an event records.
type Type string

// Event types.
const (
	TypeUpload     Type = "upload"
	TypeAssignment Type = "assignment"
	TypeDownload   Type = "download"
	TypeReview     Type = "review"
	TypeDecision   Type = "decision"
	TypeNote       Type = "note"
)

// Types lists every valid event type.
var Types = []Type{TypeUpload, TypeAssignment, TypeDownload, TypeReview, TypeDecision, TypeNote}

// ActionTypes are the types that can be recorded through the generic action endpoint.
var ActionTypes = []Type{TypeDownload, TypeReview, TypeDecision, TypeNote}

// Valid reports whether t is one of the known event types.
func (t Type) Valid() bool {
	switch t {
	case TypeUpload, TypeAssignment, TypeDownload, TypeReview, TypeDecision, TypeNote:
		return true
	default:
		return false
	}
}

// IsAction reports whether t is one of ActionTypes.
func (t Type) IsAction() bool {
	switch t {
	case TypeDownload, TypeReview, TypeDecision, TypeNote:
		return true
	default:
		return false
	}
}

// ParseType converts s to a Type, failing with ErrInvalidEventType.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidEventType, s)
	}
	return t, nil
}

// ParseActionType converts s to one of ActionTypes, failing with ErrInvalidEventType.
func ParseActionType(s string) (Type, error) {
	t := Type(s)
	if !t.IsAction() {
		return "", fmt.Errorf("%w: %q is not an action", ErrInvalidEventType, s)
	}
	return t, nil
}

// Event is an immutable activity log record.
type Event struct {
	// ID is assigned by the store and is unique across all events.
	ID         string    `json:"id"`
	ProcessKey string    `json:"process_key"`
	StageKey   string    `json:"stage_key"`
	ItemKey    string    `json:"item_key"`
	Type       Type      `json:"type"`
	Message    string    `json:"message"`
	Actor      string    `json:"actor"`
	Meta       Meta      `json:"meta"`
	CreatedAt  time.Time `json:"created_at"`
}

// eventJSON mirrors Event with meta left undecoded until the type is known.
type eventJSON struct {
	ID         string          `json:"id"`
	ProcessKey string          `json:"process_key"`
	StageKey   string          `json:"stage_key"`
	ItemKey    string          `json:"item_key"`
	Type       Type            `json:"type"`
	Message    string          `json:"message"`
	Actor      string          `json:"actor"`
	Meta       json.RawMessage `json:"meta"`
	CreatedAt  time.Time       `json:"created_at"`
}

// UnmarshalJSON implements json.Unmarshaler, decoding meta into the variant for the event type.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	meta, err := DecodeMeta(raw.Type, raw.Meta)
	if err != nil {
		return err
	}
	*e = Event{
		ID:         raw.ID,
		ProcessKey: raw.ProcessKey,
		StageKey:   raw.StageKey,
		ItemKey:    raw.ItemKey,
		Type:       raw.Type,
		Message:    raw.Message,
		Actor:      raw.Actor,
		Meta:       meta,
		CreatedAt:  raw.CreatedAt,
	}
	return nil
}

// NewEvent is the caller-supplied part of an event. The log derives the rest.
type NewEvent struct {
	ProcessKey string
	StageKey   string
	ItemKey    string
	Type       Type
	Actor      string
	Meta       Meta
}

// Filter selects events. Empty StageKey or ItemKey match everything.
type Filter struct {
	ProcessKey string
	StageKey   string
	ItemKey    string
}

// Matches reports whether e satisfies the filter.
func (f Filter) Matches(e Event) bool {
	if e.ProcessKey != f.ProcessKey {
		return false
	}
	if f.StageKey != "" && e.StageKey != f.StageKey {
		return false
	}
	if f.ItemKey != "" && e.ItemKey != f.ItemKey {
		return false
	}
	return true
}
