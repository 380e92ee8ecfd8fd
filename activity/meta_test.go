package activity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage(t *testing.T) {
	size := int64(10)
	tests := []struct {
		typ  Type
		meta Meta
		want string
	}{
		{TypeUpload, UploadMeta{Filename: "spec.pdf", Size: &size}, "alice uploaded spec.pdf"},
		{TypeUpload, nil, "alice uploaded "},
		{TypeAssignment, AssignmentMeta{Assignee: "bob"}, "alice assigned bob to review"},
		{TypeDownload, nil, "alice downloaded the document"},
		{TypeReview, NoteMeta{Note: "ignored"}, "alice reviewed the document"},
		{TypeDecision, nil, "alice made a decision"},
		{TypeNote, NoteMeta{Note: "looks good"}, "alice left a note: looks good"},
		{TypeNote, nil, "alice left a note: "},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ)+"/"+tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Message(tt.typ, "alice", tt.meta))
		})
	}
}

func TestParseType(t *testing.T) {
	for _, typ := range Types {
		got, err := ParseType(string(typ))
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}

	_, err := ParseType("approve")
	assert.ErrorIs(t, err, ErrInvalidEventType)
}

func TestParseActionType(t *testing.T) {
	for _, typ := range ActionTypes {
		_, err := ParseActionType(string(typ))
		assert.NoError(t, err)
	}

	for _, s := range []string{"upload", "assignment", "", "approve"} {
		_, err := ParseActionType(s)
		assert.ErrorIs(t, err, ErrInvalidEventType, s)
	}
}

func TestDecodeMeta(t *testing.T) {
	size := int64(42)
	tests := []struct {
		name    string
		typ     Type
		raw     string
		want    Meta
		wantErr bool
	}{
		{name: "null", typ: TypeUpload, raw: "null", want: nil},
		{name: "empty", typ: TypeNote, raw: "", want: nil},
		{name: "upload", typ: TypeUpload, raw: `{"filename":"a.txt","size":42}`, want: UploadMeta{Filename: "a.txt", Size: &size}},
		{name: "upload without size", typ: TypeUpload, raw: `{"filename":"a.txt","size":null}`, want: UploadMeta{Filename: "a.txt"}},
		{name: "assignment", typ: TypeAssignment, raw: `{"assignee":"bob"}`, want: AssignmentMeta{Assignee: "bob"}},
		{name: "note", typ: TypeDecision, raw: `{"note":"go"}`, want: NoteMeta{Note: "go"}},
		{name: "unknown type", typ: "approve", raw: `{}`, wantErr: true},
		{name: "malformed", typ: TypeNote, raw: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeMeta(tt.typ, []byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeMeta(t *testing.T) {
	raw, err := EncodeMeta(nil)
	require.NoError(t, err)
	assert.Nil(t, raw)

	raw, err = EncodeMeta(UploadMeta{Filename: "a.txt"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"filename":"a.txt","size":null}`, string(raw))
}

func TestActionMeta(t *testing.T) {
	assert.Nil(t, ActionMeta(""))
	assert.Equal(t, NoteMeta{Note: "hi"}, ActionMeta("hi"))
}

func TestEvent_JSON(t *testing.T) {
	e := Event{
		ID:         "e1",
		ProcessKey: "default",
		StageKey:   "review",
		ItemKey:    "doc_review",
		Type:       TypeAssignment,
		Message:    "admin assigned bob to review",
		Actor:      "admin",
		Meta:       AssignmentMeta{Assignee: "bob"},
		CreatedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "e1",
		"process_key": "default",
		"stage_key": "review",
		"item_key": "doc_review",
		"type": "assignment",
		"message": "admin assigned bob to review",
		"actor": "admin",
		"meta": {"assignee": "bob"},
		"created_at": "2024-05-01T12:00:00Z"
	}`, string(data))

	var decoded Event
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, e, decoded)
}

func TestFilter_Matches(t *testing.T) {
	e := Event{ProcessKey: "default", StageKey: "review", ItemKey: "doc_review"}

	assert.True(t, Filter{ProcessKey: "default"}.Matches(e))
	assert.True(t, Filter{ProcessKey: "default", StageKey: "review"}.Matches(e))
	assert.True(t, Filter{ProcessKey: "default", ItemKey: "doc_review"}.Matches(e))
	assert.False(t, Filter{ProcessKey: "other"}.Matches(e))
	assert.False(t, Filter{ProcessKey: "default", StageKey: "delivery"}.Matches(e))
}
