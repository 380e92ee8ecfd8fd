package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/nomis52/procsim/activity"
)

const defaultUploadActor = "user"

// UploadResponse is the JSON response for an accepted upload.
type UploadResponse struct {
	OK       bool   `json:"ok"`
	Filename string `json:"filename"`
	ItemKey  string `json:"item_key"`
}

// UploadHandler records a file upload against an item. The file content is
// read and discarded; only its name and size are logged.
type UploadHandler struct {
	logger     *slog.Logger
	log        EventAppender
	processKey string
	maxBytes   int64
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(logger *slog.Logger, log EventAppender, processKey string, maxBytes int64) *UploadHandler {
	return &UploadHandler{
		logger:     logger,
		log:        log,
		processKey: processKey,
		maxBytes:   maxBytes,
	}
}

// ServeHTTP implements http.Handler.
func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		writeError(w, r, h.logger, badRequest("invalid multipart form", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	stageKey := r.FormValue("stage_key")
	itemKey := r.FormValue("item_key")
	if stageKey == "" || itemKey == "" {
		writeError(w, r, h.logger, badRequest("stage_key and item_key are required", nil))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, h.logger, badRequest("file is required", err))
		return
	}
	size, err := io.Copy(io.Discard, file)
	file.Close()
	if err != nil {
		writeError(w, r, h.logger, badRequest("failed to read file", err))
		return
	}

	var actor *string
	if vals, ok := r.MultipartForm.Value["actor"]; ok && len(vals) > 0 {
		actor = &vals[0]
	}
	_, err = h.log.Append(r.Context(), activity.NewEvent{
		ProcessKey: h.processKey,
		StageKey:   stageKey,
		ItemKey:    itemKey,
		Type:       activity.TypeUpload,
		Actor:      actorOrDefault(actor, defaultUploadActor),
		Meta:       activity.UploadMeta{Filename: header.Filename, Size: &size},
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		OK:       true,
		Filename: header.Filename,
		ItemKey:  itemKey,
	})
}
