package www

import (
	"encoding/json"
	"net/http"

	"qreport/store"
)

// --- Facilities ---

func (h *Handlers) apiListFacilities(w http.ResponseWriter, r *http.Request) {
	facilities, err := h.engine.DB().ListFacilities()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, facilities)
}

func (h *Handlers) apiGetFacility(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	f, err := h.engine.DB().GetFacility(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "facility not found")
		return
	}
	writeJSON(w, f)
}

func (h *Handlers) apiCreateFacility(w http.ResponseWriter, r *http.Request) {
	var f store.Facility
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := h.engine.DB().CreateFacility(&f); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, f)
}

func (h *Handlers) apiUpdateFacility(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	var f store.Facility
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	f.ID = id
	if err := h.engine.DB().UpdateFacility(&f); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiDeleteFacility(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	if err := h.engine.DB().DeleteFacility(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// --- Islands ---

func (h *Handlers) apiListFacilityIslands(w http.ResponseWriter, r *http.Request) {
	facilityID, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid facility ID")
		return
	}
	islands, err := h.engine.DB().ListIslands(facilityID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, islands)
}

func (h *Handlers) apiListIslands(w http.ResponseWriter, r *http.Request) {
	islands, err := h.engine.DB().ListIslands(queryID(r, "facility_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, islands)
}

func (h *Handlers) apiCreateIsland(w http.ResponseWriter, r *http.Request) {
	facilityID, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid facility ID")
		return
	}
	var is store.Island
	if err := json.NewDecoder(r.Body).Decode(&is); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if is.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	is.FacilityID = facilityID
	if err := h.engine.DB().CreateIsland(&is); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, is)
}

func (h *Handlers) apiGetIsland(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	is, err := h.engine.DB().GetIsland(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "island not found")
		return
	}
	writeJSON(w, is)
}

func (h *Handlers) apiUpdateIsland(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	existing, err := h.engine.DB().GetIsland(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "island not found")
		return
	}
	var is store.Island
	if err := json.NewDecoder(r.Body).Decode(&is); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if is.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	is.ID = id
	if is.FacilityID == 0 {
		is.FacilityID = existing.FacilityID
	}
	if err := h.engine.DB().UpdateIsland(&is); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiDeleteIsland(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return
	}
	if err := h.engine.DB().DeleteIsland(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}
