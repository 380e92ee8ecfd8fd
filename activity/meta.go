package activity

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Meta is the type-specific payload of an event. The concrete variant is
// selected by the event type: UploadMeta, AssignmentMeta or NoteMeta.
type Meta interface {
	isMeta()
}

// UploadMeta describes an uploaded file. The file bytes are never stored.
type UploadMeta struct {
	Filename string `json:"filename"`
	// Size is nil when the client did not report one.
	Size *int64 `json:"size"`
}

// AssignmentMeta names the reviewer an item was assigned to.
type AssignmentMeta struct {
	Assignee string `json:"assignee"`
}

// NoteMeta carries free text attached to an action.
type NoteMeta struct {
	Note string `json:"note"`
}

func (UploadMeta) isMeta()     {}
func (AssignmentMeta) isMeta() {}
func (NoteMeta) isMeta()       {}

// DecodeMeta decodes raw into the variant used by t. Null or empty input yields nil.
func DecodeMeta(t Type, raw []byte) (Meta, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var (
		meta Meta
		err  error
	)
	switch t {
	case TypeUpload:
		var m UploadMeta
		err = json.Unmarshal(raw, &m)
		meta = m
	case TypeAssignment:
		var m AssignmentMeta
		err = json.Unmarshal(raw, &m)
		meta = m
	case TypeDownload, TypeReview, TypeDecision, TypeNote:
		var m NoteMeta
		err = json.Unmarshal(raw, &m)
		meta = m
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidEventType, t)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s meta: %w", t, err)
	}
	return meta, nil
}

// EncodeMeta returns the JSON form of m, or nil for a nil meta.
func EncodeMeta(m Meta) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Message derives the human-readable message for an event.
func Message(t Type, actor string, meta Meta) string {
	switch t {
	case TypeUpload:
		var filename string
		if m, ok := meta.(UploadMeta); ok {
			filename = m.Filename
		}
		return actor + " uploaded " + filename
	case TypeAssignment:
		var assignee string
		if m, ok := meta.(AssignmentMeta); ok {
			assignee = m.Assignee
		}
		return actor + " assigned " + assignee + " to review"
	case TypeDownload:
		return actor + " downloaded the document"
	case TypeReview:
		return actor + " reviewed the document"
	case TypeDecision:
		return actor + " made a decision"
	case TypeNote:
		var note string
		if m, ok := meta.(NoteMeta); ok {
			note = m.Note
		}
		return actor + " left a note: " + note
	default:
		return ""
	}
}

// ActionMeta returns the meta recorded for an action carrying an optional note.
func ActionMeta(note string) Meta {
	if note == "" {
		return nil
	}
	return NoteMeta{Note: note}
}
