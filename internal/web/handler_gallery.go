package web

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/domain"
)

const maxImageSize = 20 << 20 // 20 MB

// allowedImageTypes is the set of sniffed MIME types accepted for gallery
// images. http.DetectContentType has no WebP signature, see isWebP.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize+1<<20)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Image too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Image file required")
		return
	}
	defer closeWithLog(file, "upload file", s.logger)

	if header.Size > maxImageSize {
		writeError(w, http.StatusRequestEntityTooLarge, "Image too large")
		return
	}

	imageData, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("read upload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}

	mimeType, ok := allowedImageMIME(imageData)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unsupported image format")
		return
	}

	key, err := s.images.Save(r.Context(), mimeType, bytes.NewReader(imageData))
	if err != nil {
		s.logger.Error("save image failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save image")
		return
	}

	s.logger.Info("gallery image uploaded", "key", key, "mime_type", mimeType, "bytes", len(imageData))
	writeJSON(w, http.StatusCreated, map[string]string{
		"key": key,
		"url": "/api/gallery/images/" + key,
	})
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	reader, mimeType, err := s.images.Get(r.Context(), key)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Image not found")
		return
	}
	if err != nil {
		s.logger.Error("get image failed", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read image")
		return
	}
	defer closeWithLog(reader, "image reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write image failed", "key", key, "error", err)
	}
}

func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	err := s.images.Delete(r.Context(), key)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Image not found")
		return
	}
	if err != nil {
		s.logger.Error("delete image failed", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete image")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
