package www

import (
	"encoding/json"
	"net/http"

	"qreport/store"
)

func (h *Handlers) apiListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.engine.DB().ListChecklistTemplates()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, templates)
}

func (h *Handlers) apiCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var t store.ChecklistTemplate
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if t.Module == "" || t.Title == "" {
		writeError(w, http.StatusBadRequest, "module and title are required")
		return
	}
	if err := h.engine.DB().CreateChecklistTemplate(&t); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, t)
}

func (h *Handlers) apiUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	var t store.ChecklistTemplate
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if t.Module == "" || t.Title == "" {
		writeError(w, http.StatusBadRequest, "module and title are required")
		return
	}
	t.ID = id
	if err := h.engine.DB().UpdateChecklistTemplate(&t); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	if err := h.engine.DB().DeleteChecklistTemplate(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}
