package handlers

import "net/http"

// RootResponse is the liveness message.
type RootResponse struct {
	Message string `json:"message"`
}

// HandleRoot reports that the backend is running.
func HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{Message: "Process Simulation Backend Running"})
}

// HandleNotFound answers unknown routes with a JSON error.
func HandleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found"})
}

// HandleMethodNotAllowed answers known routes called with the wrong method.
func HandleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
}
