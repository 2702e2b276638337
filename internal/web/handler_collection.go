package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/domain"
)

const maxBodySize = 10 << 20 // 10 MB

func (s *Server) handleList(c domain.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := s.collections.List(r.Context(), c)
		if err != nil {
			s.logger.Error("list collection failed", "collection", c, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to fetch "+string(c))
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

// handleReplace overwrites the collection with the request body. An empty
// body clears the collection.
func (s *Server) handleReplace(c domain.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(w, r)
		if err != nil {
			writeBodyError(w, err)
			return
		}

		var records []domain.Record
		if len(body) > 0 {
			if err := json.Unmarshal(body, &records); err != nil {
				writeError(w, http.StatusBadRequest, "Request body must be a JSON array of objects")
				return
			}
		}

		if err := s.collections.Replace(r.Context(), c, records); err != nil {
			s.writeServiceError(w, err, "Failed to save "+string(c))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(records)})
	}
}

func (s *Server) handleUpdateInventoryItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	body, err := readBody(w, r)
	if err != nil {
		writeBodyError(w, err)
		return
	}

	var fields domain.Record
	if err := json.Unmarshal(body, &fields); err != nil {
		writeError(w, http.StatusBadRequest, "Request body must be a JSON object")
		return
	}

	if err := s.collections.UpdateInventoryItem(r.Context(), id, fields); err != nil {
		s.writeServiceError(w, err, "Failed to update item")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// writeServiceError maps domain errors to statuses; anything else is logged
// and reported as a generic server error with msg.
func (s *Server) writeServiceError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Item not found")
	case errors.Is(err, domain.ErrInvalidRecord):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, msg)
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	return bytes.TrimSpace(body), nil
}

// writeBodyError reports a failed body read, with 413 when the body was
// over the size limit.
func writeBodyError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, "Failed to read request body")
}
