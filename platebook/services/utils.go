package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"platebook/platebook/schema"
)

func parseRequestBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dest)
	if err != nil {
		slog.Error("error parsing request body", "error", err)
		http.Error(w, fmt.Sprintf("error parsing request body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		slog.Error("error serializing response body", "error", err)
		http.Error(w, fmt.Sprintf("error serializing response body: %v", err), http.StatusInternalServerError)
	}
}

func writeSuccess(w http.ResponseWriter) {
	writeJsonResponse(w, struct{}{})
}

// writeError maps the schema sentinels onto status codes so handlers can
// return plain errors from transactions.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schema.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, schema.ErrUnauthorized):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, schema.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

const maxImageUploadBytes = 20 << 20

// readMultipartImage pulls the "image" part out of a multipart form.
func readMultipartImage(w http.ResponseWriter, r *http.Request) (io.ReadCloser, bool) {
	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		http.Error(w, fmt.Sprintf("error parsing multipart form: %v", err), http.StatusBadRequest)
		return nil, false
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "'image' form file missing", http.StatusBadRequest)
		return nil, false
	}

	return file, true
}
