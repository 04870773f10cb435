package checkup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"qreport/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager handles the check-up lifecycle state machine and everything
// hanging off a check-up: items, spare parts, photo metadata.
type Manager struct {
	db       *store.DB
	emitter  EventEmitter
	photoDir string
	log      *zap.SugaredLogger
}

// NewManager creates a check-up manager.
func NewManager(db *store.DB, emitter EventEmitter, photoDir string, log *zap.SugaredLogger) *Manager {
	return &Manager{
		db:       db,
		emitter:  emitter,
		photoDir: photoDir,
		log:      log,
	}
}

// Create schedules a new check-up on an island and seeds its checklist
// from the active templates.
func (m *Manager) Create(islandID int64, technician string, scheduledFor *time.Time) (*store.CheckUp, error) {
	island, err := m.db.GetIsland(islandID)
	if err != nil {
		return nil, fmt.Errorf("get island: %w", err)
	}

	cu := &store.CheckUp{
		UUID:         uuid.New().String(),
		IslandID:     island.ID,
		Technician:   technician,
		Status:       StatusScheduled,
		ScheduledFor: scheduledFor,
	}
	if err := m.db.CreateCheckUp(cu); err != nil {
		return nil, err
	}

	templates, err := m.db.ListActiveChecklistTemplates()
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	if err := m.db.SeedCheckItems(cu.ID, templates); err != nil {
		return nil, err
	}

	m.emitter.EmitCheckUpCreated(cu.ID, cu.UUID, island.Name)
	return m.db.GetCheckUp(cu.ID)
}

// Transition moves a check-up to a new status with validation.
func (m *Manager) Transition(checkupID int64, newStatus, detail string) error {
	cu, err := m.db.GetCheckUp(checkupID)
	if err != nil {
		return fmt.Errorf("get checkup: %w", err)
	}

	if !IsValidTransition(cu.Status, newStatus) {
		return fmt.Errorf("invalid transition from %s to %s", cu.Status, newStatus)
	}

	oldStatus := cu.Status
	switch newStatus {
	case StatusInProgress:
		err = m.db.MarkCheckUpStarted(checkupID, newStatus)
	case StatusCompleted:
		err = m.db.MarkCheckUpCompleted(checkupID, newStatus)
	default:
		err = m.db.UpdateCheckUpStatus(checkupID, newStatus)
	}
	if err != nil {
		return fmt.Errorf("update checkup status: %w", err)
	}
	if err := m.db.InsertCheckUpHistory(checkupID, oldStatus, newStatus, detail); err != nil {
		m.log.Warnf("insert checkup history: %v", err)
	}

	m.emitter.EmitCheckUpStatusChanged(checkupID, cu.UUID, oldStatus, newStatus)

	if newStatus == StatusCompleted {
		m.enqueueCompleted(cu)
		m.emitter.EmitCheckUpCompleted(checkupID, cu.UUID)
	}

	return nil
}

// Start moves a scheduled check-up to in_progress.
func (m *Manager) Start(checkupID int64) error {
	return m.Transition(checkupID, StatusInProgress, "started by technician")
}

// Complete finishes a check-up. Unless force is set, every item must
// have been resolved first.
func (m *Manager) Complete(checkupID int64, force bool) error {
	if !force {
		pending, err := m.db.CountPendingItems(checkupID)
		if err != nil {
			return fmt.Errorf("count pending items: %w", err)
		}
		if pending > 0 {
			return fmt.Errorf("%d items still pending", pending)
		}
	}
	detail := "completed"
	if force {
		detail = "completed (forced with pending items)"
	}
	return m.Transition(checkupID, StatusCompleted, detail)
}

// Archive closes out a completed check-up.
func (m *Manager) Archive(checkupID int64) error {
	return m.Transition(checkupID, StatusArchived, "archived")
}

// Cancel aborts a check-up that has not completed.
func (m *Manager) Cancel(checkupID int64, detail string) error {
	if detail == "" {
		detail = "cancelled by technician"
	}
	return m.Transition(checkupID, StatusCancelled, detail)
}

// UpdateSummary sets the technician and closing summary text.
func (m *Manager) UpdateSummary(checkupID int64, technician, summary string) error {
	cu, err := m.db.GetCheckUp(checkupID)
	if err != nil {
		return fmt.Errorf("get checkup: %w", err)
	}
	if IsTerminal(cu.Status) {
		return fmt.Errorf("checkup is %s and can no longer be edited", cu.Status)
	}
	return m.db.UpdateCheckUpSummary(checkupID, technician, summary)
}

// Delete removes a check-up and its photo files. Only visits that never
// ran (scheduled or cancelled) can be deleted; finished work is kept.
func (m *Manager) Delete(checkupID int64) error {
	cu, err := m.db.GetCheckUp(checkupID)
	if err != nil {
		return fmt.Errorf("get checkup: %w", err)
	}
	if cu.Status != StatusScheduled && cu.Status != StatusCancelled {
		return fmt.Errorf("cannot delete a %s checkup", cu.Status)
	}
	photos, err := m.db.ListPhotos(checkupID)
	if err != nil {
		return fmt.Errorf("list photos: %w", err)
	}
	for _, p := range photos {
		if err := os.Remove(filepath.Join(m.photoDir, p.Filename)); err != nil && !os.IsNotExist(err) {
			m.log.Warnf("remove photo file %s: %v", p.Filename, err)
		}
	}
	return m.db.DeleteCheckUp(checkupID)
}

// ComputeStats recomputes the derived progress summary from the store.
func (m *Manager) ComputeStats(checkupID int64) (*Stats, error) {
	counts, err := m.db.CountItemsByStatus(checkupID)
	if err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}
	s := &Stats{
		Pending: counts[ItemPending],
		OK:      counts[ItemOK],
		NOK:     counts[ItemNOK],
		NA:      counts[ItemNA],
	}
	s.Total = s.Pending + s.OK + s.NOK + s.NA
	s.Done = s.Total - s.Pending
	if s.Total > 0 {
		s.Progress = float64(s.Done) / float64(s.Total) * 100
	}
	if s.SpareParts, err = m.db.CountSpareParts(checkupID); err != nil {
		return nil, fmt.Errorf("count spare parts: %w", err)
	}
	if s.Photos, err = m.db.CountPhotos(checkupID); err != nil {
		return nil, fmt.Errorf("count photos: %w", err)
	}
	return s, nil
}

// SetItemStatus sets an item to an explicit status.
func (m *Manager) SetItemStatus(itemID int64, status string) (*store.CheckItem, error) {
	if !IsValidItemStatus(status) {
		return nil, fmt.Errorf("unknown item status: %s", status)
	}
	item, err := m.db.GetCheckItem(itemID)
	if err != nil {
		return nil, fmt.Errorf("get check item: %w", err)
	}
	if _, err := m.editableCheckUp(item.CheckUpID); err != nil {
		return nil, err
	}
	oldStatus := item.Status
	if err := m.db.UpdateCheckItemStatus(itemID, status); err != nil {
		return nil, fmt.Errorf("update item status: %w", err)
	}
	m.emitter.EmitItemStatusChanged(item.CheckUpID, itemID, oldStatus, status)
	return m.db.GetCheckItem(itemID)
}

// CycleItem advances an item one step in the tap cycle
// (pending -> ok -> nok -> na -> pending).
func (m *Manager) CycleItem(itemID int64) (*store.CheckItem, error) {
	item, err := m.db.GetCheckItem(itemID)
	if err != nil {
		return nil, fmt.Errorf("get check item: %w", err)
	}
	return m.SetItemStatus(itemID, NextItemStatus(item.Status))
}

// SetItemComment sets the free-text note on an item.
func (m *Manager) SetItemComment(itemID int64, comment string) error {
	item, err := m.db.GetCheckItem(itemID)
	if err != nil {
		return fmt.Errorf("get check item: %w", err)
	}
	if _, err := m.editableCheckUp(item.CheckUpID); err != nil {
		return err
	}
	return m.db.UpdateCheckItemComment(itemID, comment)
}

// AddItem appends an ad-hoc checklist item to a running check-up.
func (m *Manager) AddItem(checkupID int64, module, title string) (*store.CheckItem, error) {
	if _, err := m.editableCheckUp(checkupID); err != nil {
		return nil, err
	}
	items, err := m.db.ListCheckItems(checkupID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	position := 0
	for _, it := range items {
		if it.Module == module && it.Position >= position {
			position = it.Position + 1
		}
	}
	item := &store.CheckItem{
		CheckUpID: checkupID,
		Module:    module,
		Title:     title,
		Position:  position,
		Status:    ItemPending,
	}
	if err := m.db.CreateCheckItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

// AddSparePart logs a needed part. Urgent parts go straight to the
// outbox so the office can order before the technician is back.
func (m *Manager) AddSparePart(p *store.SparePart) error {
	cu, err := m.editableCheckUp(p.CheckUpID)
	if err != nil {
		return err
	}
	if p.Name == "" {
		return fmt.Errorf("spare part name is required")
	}
	if err := m.db.CreateSparePart(p); err != nil {
		return err
	}
	m.emitter.EmitSparePartLogged(p.CheckUpID, p.ID, p.Name, p.Urgent)

	if p.Urgent {
		msg := SparePartNeededMessage{
			CheckUpUUID: cu.UUID,
			Facility:    cu.FacilityName,
			Client:      cu.Client,
			Island:      cu.IslandName,
			Name:        p.Name,
			PartNumber:  p.PartNumber,
			Quantity:    p.Quantity,
			Note:        p.Note,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}
		payload, _ := json.Marshal(msg)
		if _, err := m.db.EnqueueOutbox("field", payload, "sparepart.needed"); err != nil {
			m.log.Warnf("enqueue spare part %d: %v", p.ID, err)
		}
	}
	return nil
}

// UpdateSparePart edits a logged part.
func (m *Manager) UpdateSparePart(p *store.SparePart) error {
	existing, err := m.db.GetSparePart(p.ID)
	if err != nil {
		return fmt.Errorf("get spare part: %w", err)
	}
	if _, err := m.editableCheckUp(existing.CheckUpID); err != nil {
		return err
	}
	return m.db.UpdateSparePart(p)
}

// DeleteSparePart removes a logged part.
func (m *Manager) DeleteSparePart(id int64) error {
	existing, err := m.db.GetSparePart(id)
	if err != nil {
		return fmt.Errorf("get spare part: %w", err)
	}
	if _, err := m.editableCheckUp(existing.CheckUpID); err != nil {
		return err
	}
	return m.db.DeleteSparePart(id)
}

// AttachPhoto records photo metadata after the file has been written.
// When the photo targets an item, the item must belong to the check-up.
func (m *Manager) AttachPhoto(p *store.Photo) error {
	if _, err := m.editableCheckUp(p.CheckUpID); err != nil {
		return err
	}
	if p.CheckItemID != nil {
		item, err := m.db.GetCheckItem(*p.CheckItemID)
		if err != nil {
			return fmt.Errorf("get check item: %w", err)
		}
		if item.CheckUpID != p.CheckUpID {
			return fmt.Errorf("item %d does not belong to checkup %d", item.ID, p.CheckUpID)
		}
	}
	if err := m.db.CreatePhoto(p); err != nil {
		return err
	}
	m.emitter.EmitPhotoAttached(p.CheckUpID, p.ID, p.Filename)
	return nil
}

// DeletePhoto removes the metadata row and the file on disk.
func (m *Manager) DeletePhoto(id int64) error {
	p, err := m.db.GetPhoto(id)
	if err != nil {
		return fmt.Errorf("get photo: %w", err)
	}
	if err := m.db.DeletePhoto(id); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(m.photoDir, p.Filename)); err != nil && !os.IsNotExist(err) {
		m.log.Warnf("remove photo file %s: %v", p.Filename, err)
	}
	return nil
}

// editableCheckUp loads a check-up and rejects mutation once the visit
// is completed or closed out.
func (m *Manager) editableCheckUp(checkupID int64) (*store.CheckUp, error) {
	cu, err := m.db.GetCheckUp(checkupID)
	if err != nil {
		return nil, fmt.Errorf("get checkup: %w", err)
	}
	if cu.Status == StatusCompleted || IsTerminal(cu.Status) {
		return nil, fmt.Errorf("checkup is %s and can no longer be edited", cu.Status)
	}
	return cu, nil
}

// enqueueCompleted builds the completion report and queues it for the
// back office.
func (m *Manager) enqueueCompleted(cu *store.CheckUp) {
	stats, err := m.ComputeStats(cu.ID)
	if err != nil {
		m.log.Warnf("compute stats for completion message: %v", err)
		stats = &Stats{}
	}
	msg := CheckUpCompletedMessage{
		CheckUpUUID: cu.UUID,
		Facility:    cu.FacilityName,
		Client:      cu.Client,
		Island:      cu.IslandName,
		Technician:  cu.Technician,
		Summary:     cu.Summary,
		Stats:       *stats,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	payload, _ := json.Marshal(msg)
	if _, err := m.db.EnqueueOutbox("field", payload, "checkup.completed"); err != nil {
		m.log.Warnf("enqueue checkup completed %s: %v", cu.UUID, err)
	}
}

// CheckUpCompletedMessage is the outbound completion report JSON.
type CheckUpCompletedMessage struct {
	CheckUpUUID string `json:"checkup_uuid"`
	Facility    string `json:"facility"`
	Client      string `json:"client"`
	Island      string `json:"island"`
	Technician  string `json:"technician"`
	Summary     string `json:"summary"`
	Stats       Stats  `json:"stats"`
	Timestamp   string `json:"timestamp"`
}

// SparePartNeededMessage is the outbound urgent part request JSON.
type SparePartNeededMessage struct {
	CheckUpUUID string `json:"checkup_uuid"`
	Facility    string `json:"facility"`
	Client      string `json:"client"`
	Island      string `json:"island"`
	Name        string `json:"name"`
	PartNumber  string `json:"part_number"`
	Quantity    int    `json:"quantity"`
	Note        string `json:"note"`
	Timestamp   string `json:"timestamp"`
}
