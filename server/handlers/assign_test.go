package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nomis52/procsim/activity"
	"github.com/nomis52/procsim/logging"
	"github.com/nomis52/procsim/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignHandler(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "default actor",
			body:        `{"stage_key":"review","item_key":"doc_review","assignee":"qa.bob"}`,
			wantStatus:  http.StatusOK,
			wantMessage: "admin assigned qa.bob to review",
		},
		{
			name:        "explicit actor",
			body:        `{"stage_key":"review","item_key":"doc_review","assignee":"qa.bob","actor":"pm.alice"}`,
			wantStatus:  http.StatusOK,
			wantMessage: "pm.alice assigned qa.bob to review",
		},
		{
			name:       "missing assignee",
			body:       `{"stage_key":"review","item_key":"doc_review"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:        "explicit empty actor is kept",
			body:        `{"stage_key":"review","item_key":"doc_review","assignee":"qa.bob","actor":""}`,
			wantStatus:  http.StatusOK,
			wantMessage: " assigned qa.bob to review",
		},
		{
			name:        "empty stage is accepted",
			body:        `{"stage_key":"","item_key":"doc_review","assignee":"qa.bob"}`,
			wantStatus:  http.StatusOK,
			wantMessage: "admin assigned qa.bob to review",
		},
		{
			name:       "wrong type",
			body:       `{"stage_key":"review","item_key":"doc_review","assignee":7}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed",
			body:       `{"stage_key":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDeps(store.NewMemoryStore())
			handler := NewAssignHandler(logging.Discard(), d.log, "default")

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/assign", strings.NewReader(tt.body)))
			assert.Equal(t, tt.wantStatus, w.Code)

			events, err := d.log.Query(context.Background(), activity.Filter{ProcessKey: "default"})
			require.NoError(t, err)

			if tt.wantStatus != http.StatusOK {
				assert.NotEmpty(t, decodeResponse[ErrorResponse](t, w).Error)
				assert.Empty(t, events)
				return
			}
			assert.JSONEq(t, `{"ok":true}`, w.Body.String())
			require.Len(t, events, 1)
			assert.Equal(t, activity.TypeAssignment, events[0].Type)
			assert.Equal(t, tt.wantMessage, events[0].Message)
			assert.Equal(t, activity.AssignmentMeta{Assignee: "qa.bob"}, events[0].Meta)
		})
	}
}

func TestAssignHandler_StoreUnavailable(t *testing.T) {
	d := newDeps(store.Unavailable{})
	handler := NewAssignHandler(logging.Discard(), d.log, "default")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/assign",
		strings.NewReader(`{"stage_key":"review","item_key":"doc_review","assignee":"qa.bob"}`)))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Database not configured"}`, w.Body.String())
}
