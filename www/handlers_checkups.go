package www

import (
	"encoding/json"
	"net/http"
	"time"

	"qreport/checkup"
	"qreport/store"
)

// moduleGroup is one machine module's slice of the checklist, in
// template order.
type moduleGroup struct {
	Name  string             `json:"name"`
	Items []*store.CheckItem `json:"items"`
}

func groupItems(items []*store.CheckItem) []moduleGroup {
	groups := []moduleGroup{}
	for _, it := range items {
		if len(groups) == 0 || groups[len(groups)-1].Name != it.Module {
			groups = append(groups, moduleGroup{Name: it.Module})
		}
		groups[len(groups)-1].Items = append(groups[len(groups)-1].Items, it)
	}
	return groups
}

func (h *Handlers) apiListCheckUps(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	checkups, err := h.engine.DB().ListCheckUps(status, queryID(r, "island_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, checkups)
}

func (h *Handlers) apiCreateCheckUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IslandID     int64  `json:"island_id"`
		Technician   string `json:"technician"`
		ScheduledFor string `json:"scheduled_for"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.IslandID == 0 {
		writeError(w, http.StatusBadRequest, "island_id is required")
		return
	}

	var scheduledFor *time.Time
	if req.ScheduledFor != "" {
		t, err := time.Parse(time.RFC3339, req.ScheduledFor)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid scheduled_for: "+err.Error())
			return
		}
		scheduledFor = &t
	}

	cu, err := h.engine.CheckUpManager().Create(req.IslandID, req.Technician, scheduledFor)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, cu)
}

func (h *Handlers) apiGetCheckUp(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	db := h.engine.DB()

	cu, err := db.GetCheckUp(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "checkup not found")
		return
	}
	items, err := db.ListCheckItems(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	parts, err := db.ListSpareParts(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	photos, err := db.ListPhotos(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	history, err := db.ListCheckUpHistory(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	stats, err := h.engine.CheckUpManager().ComputeStats(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, map[string]interface{}{
		"checkup":     cu,
		"modules":     groupItems(items),
		"spare_parts": parts,
		"photos":      photos,
		"history":     history,
		"stats":       stats,
	})
}

func (h *Handlers) apiUpdateCheckUp(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	var req struct {
		Technician string `json:"technician"`
		Summary    string `json:"summary"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.engine.CheckUpManager().UpdateSummary(id, req.Technician, req.Summary); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiStartCheckUp(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	if err := h.engine.CheckUpManager().Start(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiCompleteCheckUp(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	var req struct {
		Force bool `json:"force"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	if err := h.engine.CheckUpManager().Complete(id, req.Force); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiArchiveCheckUp(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	if err := h.engine.CheckUpManager().Archive(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiCancelCheckUp(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	if err := h.engine.CheckUpManager().Cancel(id, req.Reason); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiDeleteCheckUp(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	if err := h.engine.CheckUpManager().Delete(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiCheckUpStats(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	stats, err := h.engine.CheckUpManager().ComputeStats(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, stats)
}

func (h *Handlers) apiCheckUpHistory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	history, err := h.engine.DB().ListCheckUpHistory(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, history)
}

// --- Checklist items ---

func (h *Handlers) apiAddItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	var req struct {
		Module string `json:"module"`
		Title  string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Module == "" || req.Title == "" {
		writeError(w, http.StatusBadRequest, "module and title are required")
		return
	}
	item, err := h.engine.CheckUpManager().AddItem(id, req.Module, req.Title)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, item)
}

func (h *Handlers) apiSetItemStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !checkup.IsValidItemStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "invalid status: "+req.Status)
		return
	}
	item, err := h.engine.CheckUpManager().SetItemStatus(id, req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, item)
}

func (h *Handlers) apiCycleItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	item, err := h.engine.CheckUpManager().CycleItem(id)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, item)
}

func (h *Handlers) apiSetItemComment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	var req struct {
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.engine.CheckUpManager().SetItemComment(id, req.Comment); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}
