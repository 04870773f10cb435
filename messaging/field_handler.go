package messaging

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"qreport/checkup"
	"qreport/store"
)

// FieldHandler handles inbound office messages. Assignments become
// scheduled check-ups, recalls cancel them.
type FieldHandler struct {
	NoOpHandler

	db  *store.DB
	mgr *checkup.Manager
	log *zap.SugaredLogger
}

// NewFieldHandler creates a handler for inbound office messages.
func NewFieldHandler(db *store.DB, mgr *checkup.Manager, log *zap.SugaredLogger) *FieldHandler {
	return &FieldHandler{db: db, mgr: mgr, log: log}
}

func (h *FieldHandler) HandleFieldRegistered(_ *Envelope, p *FieldRegistered) {
	h.log.Infof("field_handler: registration acknowledged: field=%s msg=%s", p.FieldID, p.Message)
}

func (h *FieldHandler) HandleHeartbeatAck(_ *Envelope, p *HeartbeatAck) {
	h.log.Debugf("field_handler: heartbeat ack: field=%s server_ts=%d", p.FieldID, p.ServerTS)
}

func (h *FieldHandler) HandleCheckUpAssign(_ *Envelope, p *CheckUpAssign) {
	island, err := h.resolveIsland(p)
	if err != nil {
		h.log.Warnf("field_handler: assign: %v", err)
		return
	}

	var scheduledFor *time.Time
	if p.ScheduledFor != "" {
		ts, err := parseAssignTime(p.ScheduledFor)
		if err != nil {
			h.log.Warnf("field_handler: assign: bad scheduled_for %q: %v", p.ScheduledFor, err)
		} else {
			scheduledFor = &ts
		}
	}

	cu, err := h.mgr.Create(island.ID, p.Technician, scheduledFor)
	if err != nil {
		h.log.Errorf("field_handler: create assigned check-up for island %d: %v", island.ID, err)
		return
	}

	detail := "assigned by office"
	if p.Note != "" {
		detail += ": " + p.Note
	}
	if err := h.db.InsertCheckUpHistory(cu.ID, "", checkup.StatusScheduled, detail); err != nil {
		h.log.Warnf("field_handler: record assignment for %s: %v", cu.UUID, err)
	}
	h.log.Infof("field_handler: check-up %s assigned for island %s", cu.UUID, island.Name)
}

func (h *FieldHandler) HandleCheckUpRecall(_ *Envelope, p *CheckUpRecall) {
	cu, err := h.db.GetCheckUpByUUID(p.CheckUpUUID)
	if err != nil {
		h.log.Warnf("field_handler: recall: check-up %s not found", p.CheckUpUUID)
		return
	}
	// Only work the technician hasn't started yet can be pulled back.
	if cu.Status != checkup.StatusScheduled {
		h.log.Infof("field_handler: recall: check-up %s already %s, ignoring", p.CheckUpUUID, cu.Status)
		return
	}

	detail := "recalled by office"
	if p.Reason != "" {
		detail += ": " + p.Reason
	}
	if err := h.mgr.Cancel(cu.ID, detail); err != nil {
		h.log.Errorf("field_handler: cancel %s: %v", p.CheckUpUUID, err)
		return
	}
	h.log.Infof("field_handler: check-up %s recalled", p.CheckUpUUID)
}

// resolveIsland matches an assignment to a local island, preferring the
// serial number over the facility/island name pair.
func (h *FieldHandler) resolveIsland(p *CheckUpAssign) (*store.Island, error) {
	if p.SerialNumber != "" {
		if island, err := h.db.FindIslandBySerial(p.SerialNumber); err == nil {
			return island, nil
		}
	}
	if p.Island != "" {
		if island, err := h.db.FindIsland(p.Facility, p.Island); err == nil {
			return island, nil
		}
	}
	return nil, fmt.Errorf("no island matches assignment (facility=%q island=%q serial=%q)",
		p.Facility, p.Island, p.SerialNumber)
}

func parseAssignTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format")
}
