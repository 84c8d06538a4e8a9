package api

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/jerrywen2005/travel-journal/internal/record"
)

const maxPhotoBytes = 10 << 20 // 10 MiB

// allowedPhotoTypes maps accepted MIME types to file extensions.
var allowedPhotoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// UploadPhoto handles POST /api/v1/records/{id}/photos. The file is stored
// under the media dir with a content-hash name; a record keeps at most one
// photo, so an existing one is replaced.
func (h *Handlers) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	rec, err := h.records.GetRecord(r.Context(), userID, id)
	if err != nil {
		h.log.Error("record lookup for photo failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes+1)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	ctype := header.Header.Get("Content-Type")
	ext, ok := allowedPhotoTypes[ctype]
	if !ok {
		writeError(w, http.StatusBadRequest, "unsupported media type")
		return
	}

	raw, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading upload failed")
		return
	}
	if len(raw) > maxPhotoBytes {
		writeError(w, http.StatusBadRequest, "file too large")
		return
	}

	sum := sha256.Sum256(raw)
	name := hex.EncodeToString(sum[:])[:20] + ext
	path := filepath.Join(h.mediaDir, name)

	if err := os.MkdirAll(h.mediaDir, 0o755); err != nil {
		h.log.Error("creating media dir failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		h.log.Error("writing photo failed", "path", path, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	photo, err := h.records.ReplacePhoto(r.Context(), id, path, ctype, int64(len(raw)))
	if err != nil {
		h.log.Error("photo replace failed", "record_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, photo)
}

// ListPhotos handles GET /api/v1/records/{id}/photos. At most one element.
func (h *Handlers) ListPhotos(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	rec, err := h.records.GetRecord(r.Context(), userID, id)
	if err != nil {
		h.log.Error("record lookup for photos failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}

	photo, err := h.records.GetPhoto(r.Context(), id)
	if err != nil {
		h.log.Error("photo get failed", "record_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	photos := []record.Photo{}
	if photo != nil {
		photos = append(photos, *photo)
	}
	writeJSON(w, http.StatusOK, photos)
}

// DeletePhoto handles DELETE /api/v1/records/{id}/photos/{photoID}.
func (h *Handlers) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	photoID, ok := pathID(w, r, "photoID")
	if !ok {
		return
	}

	rec, err := h.records.GetRecord(r.Context(), userID, id)
	if err != nil {
		h.log.Error("record lookup for photo delete failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}

	deleted, err := h.records.DeletePhoto(r.Context(), id, photoID)
	if err != nil {
		h.log.Error("photo delete failed", "photo_id", photoID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "photo not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
