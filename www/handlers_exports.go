package www

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"qreport/backup"
	"qreport/export"
)

// --- Exports ---

func (h *Handlers) apiListExports(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	records, err := h.engine.DB().ListExportRecords(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, records)
}

func (h *Handlers) apiCreateExport(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	var req struct {
		Format string `json:"format"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.engine.ExportManager().Run(id, req.Format)
	if err != nil {
		if record == nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		// The failed record carries the step detail for retry.
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, record)
}

func (h *Handlers) apiGetExport(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	record, err := h.engine.DB().GetExportRecord(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "export not found")
		return
	}
	writeJSON(w, record)
}

func (h *Handlers) apiRetryExport(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	record, err := h.engine.ExportManager().Retry(id)
	if err != nil {
		if record == nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, record)
}

func (h *Handlers) apiDownloadExport(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	record, err := h.engine.DB().GetExportRecord(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "export not found")
		return
	}
	if record.Status != "completed" {
		writeError(w, http.StatusConflict, "export is "+record.Status)
		return
	}
	info, err := os.Stat(record.Path)
	if err != nil {
		writeError(w, http.StatusNotFound, "export artifact is missing from disk")
		return
	}

	// Photo exports are directory trees; stream them as a zip.
	if info.IsDir() {
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.zip"`, filepath.Base(record.Path)))
		if err := export.ZipTree(w, record.Path); err != nil {
			h.engine.Log().Warnf("www: stream export %d: %v", record.ID, err)
		}
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filepath.Base(record.Path)))
	http.ServeFile(w, r, record.Path)
}

// --- Backups ---

func (h *Handlers) apiListBackups(w http.ResponseWriter, r *http.Request) {
	records, err := h.engine.BackupManager().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, records)
}

func (h *Handlers) apiCreateBackup(w http.ResponseWriter, r *http.Request) {
	record, err := h.engine.BackupManager().Create(backup.ModeManual)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, record)
}

func (h *Handlers) apiDownloadBackup(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	record, err := h.engine.BackupManager().Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "backup not found")
		return
	}
	if _, err := os.Stat(record.Path); err != nil {
		writeError(w, http.StatusNotFound, "backup archive is missing from disk")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, record.Filename))
	http.ServeFile(w, r, record.Path)
}
