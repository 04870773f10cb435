package www

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"qreport/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// --- Spare parts ---

func (h *Handlers) apiListSpareParts(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	parts, err := h.engine.DB().ListSpareParts(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, parts)
}

func (h *Handlers) apiAddSparePart(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	var p store.SparePart
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p.CheckUpID = id
	if err := h.engine.CheckUpManager().AddSparePart(&p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, p)
}

func (h *Handlers) apiUpdateSparePart(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	var p store.SparePart
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p.ID = id
	if err := h.engine.CheckUpManager().UpdateSparePart(&p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiDeleteSparePart(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	if err := h.engine.CheckUpManager().DeleteSparePart(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// --- Photos ---

func (h *Handlers) apiListPhotos(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	photos, err := h.engine.DB().ListPhotos(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, photos)
}

func (h *Handlers) apiUploadPhoto(w http.ResponseWriter, r *http.Request) {
	checkupID, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}

	maxBytes := h.engine.AppConfig().Web.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "photo file field is required")
		return
	}
	defer file.Close()

	var itemID *int64
	if s := r.FormValue("check_item_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid check_item_id")
			return
		}
		itemID = &id
	}

	photoDir := h.engine.AppConfig().Paths.PhotoDir
	if err := os.MkdirAll(photoDir, 0755); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	photoUUID := uuid.New().String()
	filename := photoUUID + strings.ToLower(filepath.Ext(header.Filename))
	dst := filepath.Join(photoDir, filename)

	out, err := os.Create(dst)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	size, err := io.Copy(out, file)
	out.Close()
	if err != nil {
		os.Remove(dst)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	p := &store.Photo{
		UUID:         photoUUID,
		CheckUpID:    checkupID,
		CheckItemID:  itemID,
		Filename:     filename,
		OriginalName: header.Filename,
		Caption:      r.FormValue("caption"),
		ContentType:  contentType,
		SizeBytes:    size,
	}
	if err := h.engine.CheckUpManager().AttachPhoto(p); err != nil {
		os.Remove(dst)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, p)
}

func (h *Handlers) apiServePhoto(w http.ResponseWriter, r *http.Request) {
	photoUUID := chi.URLParam(r, "uuid")
	p, err := h.engine.DB().GetPhotoByUUID(photoUUID)
	if err != nil {
		writeError(w, http.StatusNotFound, "photo not found")
		return
	}
	if p.ContentType != "" {
		w.Header().Set("Content-Type", p.ContentType)
	}
	http.ServeFile(w, r, filepath.Join(h.engine.AppConfig().Paths.PhotoDir, p.Filename))
}

func (h *Handlers) apiUpdatePhotoCaption(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	var req struct {
		Caption string `json:"caption"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.engine.DB().UpdatePhotoCaption(id, req.Caption); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiDeletePhoto(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	if err := h.engine.CheckUpManager().DeletePhoto(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}
