package checkup

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap"

	"qreport/config"
	"qreport/store"
)

// mockEmitter records emitted events as strings for assertions.
type mockEmitter struct {
	mu     sync.Mutex
	events []string
}

func (m *mockEmitter) record(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, s)
}

func (m *mockEmitter) getEvents() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	copy(out, m.events)
	return out
}

func (m *mockEmitter) has(s string) bool {
	for _, e := range m.getEvents() {
		if e == s {
			return true
		}
	}
	return false
}

func (m *mockEmitter) EmitCheckUpCreated(checkupID int64, checkupUUID, islandName string) {
	m.record(fmt.Sprintf("created:%d:%s", checkupID, islandName))
}

func (m *mockEmitter) EmitCheckUpStatusChanged(checkupID int64, checkupUUID, oldStatus, newStatus string) {
	m.record(fmt.Sprintf("status:%d:%s->%s", checkupID, oldStatus, newStatus))
}

func (m *mockEmitter) EmitCheckUpCompleted(checkupID int64, checkupUUID string) {
	m.record(fmt.Sprintf("completed:%d", checkupID))
}

func (m *mockEmitter) EmitItemStatusChanged(checkupID, itemID int64, oldStatus, newStatus string) {
	m.record(fmt.Sprintf("item:%d:%s->%s", itemID, oldStatus, newStatus))
}

func (m *mockEmitter) EmitSparePartLogged(checkupID, partID int64, name string, urgent bool) {
	m.record(fmt.Sprintf("part:%d:%s:%v", partID, name, urgent))
}

func (m *mockEmitter) EmitPhotoAttached(checkupID, photoID int64, filename string) {
	m.record(fmt.Sprintf("photo:%d:%s", photoID, filename))
}

func newTestManager(t *testing.T) (*Manager, *store.DB, *mockEmitter) {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(&config.DatabaseConfig{
		Driver: store.DriverSQLite,
		SQLite: config.SQLiteConfig{Path: filepath.Join(dir, "test.db")},
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	emitter := &mockEmitter{}
	return NewManager(db, emitter, filepath.Join(dir, "photos"), zap.NewNop().Sugar()), db, emitter
}

func seedIsland(t *testing.T, db *store.DB) *store.Island {
	t.Helper()
	f := &store.Facility{Name: "Plant North", Client: "Acme Foods"}
	if err := db.CreateFacility(f); err != nil {
		t.Fatalf("create facility: %v", err)
	}
	is := &store.Island{FacilityID: f.ID, Name: "Palletizer 2", SerialNumber: "SN-1001"}
	if err := db.CreateIsland(is); err != nil {
		t.Fatalf("create island: %v", err)
	}
	return is
}

func TestCreateSeedsChecklist(t *testing.T) {
	m, db, emitter := newTestManager(t)
	is := seedIsland(t, db)

	db.CreateChecklistTemplate(&store.ChecklistTemplate{Module: "Safety", Title: "Emergency stops", Position: 0, Active: true})
	db.CreateChecklistTemplate(&store.ChecklistTemplate{Module: "Robot", Title: "Grease axes", Position: 0, Active: true})
	db.CreateChecklistTemplate(&store.ChecklistTemplate{Module: "Robot", Title: "Old procedure", Position: 1, Active: false})

	cu, err := m.Create(is.ID, "mario", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if cu.Status != StatusScheduled {
		t.Errorf("Status = %q, want %q", cu.Status, StatusScheduled)
	}
	if cu.UUID == "" {
		t.Error("UUID should be assigned")
	}
	if cu.IslandName != "Palletizer 2" {
		t.Errorf("IslandName = %q, want %q", cu.IslandName, "Palletizer 2")
	}

	// Only active templates seed items
	items, err := db.ListCheckItems(cu.ID)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items len = %d, want 2", len(items))
	}
	for _, it := range items {
		if it.Status != ItemPending {
			t.Errorf("seeded item status = %q, want pending", it.Status)
		}
	}

	if !emitter.has(fmt.Sprintf("created:%d:Palletizer 2", cu.ID)) {
		t.Errorf("created event missing, got %v", emitter.getEvents())
	}
}

func TestCreateUnknownIsland(t *testing.T) {
	m, _, _ := newTestManager(t)
	if _, err := m.Create(999, "mario", nil); err == nil {
		t.Error("expected error for unknown island")
	}
}

func TestLifecycle(t *testing.T) {
	m, db, emitter := newTestManager(t)
	is := seedIsland(t, db)
	db.CreateChecklistTemplate(&store.ChecklistTemplate{Module: "Safety", Title: "Fences", Active: true})

	cu, err := m.Create(is.ID, "mario", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Cannot complete before starting
	if err := m.Complete(cu.ID, false); err == nil {
		t.Error("complete from scheduled should fail")
	}

	if err := m.Start(cu.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	started, _ := db.GetCheckUp(cu.ID)
	if started.Status != StatusInProgress {
		t.Errorf("Status = %q, want in_progress", started.Status)
	}
	if started.StartedAt == nil {
		t.Error("StartedAt should be set")
	}

	// Pending item blocks completion
	if err := m.Complete(cu.ID, false); err == nil {
		t.Error("complete with pending item should fail")
	}

	items, _ := db.ListCheckItems(cu.ID)
	if _, err := m.SetItemStatus(items[0].ID, ItemOK); err != nil {
		t.Fatalf("set item status: %v", err)
	}
	if err := m.Complete(cu.ID, false); err != nil {
		t.Fatalf("complete: %v", err)
	}
	done, _ := db.GetCheckUp(cu.ID)
	if done.Status != StatusCompleted {
		t.Errorf("Status = %q, want completed", done.Status)
	}
	if done.CompletedAt == nil {
		t.Error("CompletedAt should be set")
	}

	// Completion queues the report for the office
	pending, _ := db.ListPendingOutbox(10)
	if len(pending) != 1 {
		t.Fatalf("outbox len = %d, want 1", len(pending))
	}
	if pending[0].MsgType != "checkup.completed" {
		t.Errorf("outbox msg_type = %q, want checkup.completed", pending[0].MsgType)
	}

	if err := m.Archive(cu.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}

	// History rows recorded one per transition
	history, _ := db.ListCheckUpHistory(cu.ID)
	if len(history) != 3 {
		t.Errorf("history len = %d, want 3", len(history))
	}

	if !emitter.has(fmt.Sprintf("completed:%d", cu.ID)) {
		t.Errorf("completed event missing, got %v", emitter.getEvents())
	}
}

func TestCompleteForced(t *testing.T) {
	m, db, _ := newTestManager(t)
	is := seedIsland(t, db)
	db.CreateChecklistTemplate(&store.ChecklistTemplate{Module: "Safety", Title: "Fences", Active: true})

	cu, _ := m.Create(is.ID, "mario", nil)
	m.Start(cu.ID)

	if err := m.Complete(cu.ID, true); err != nil {
		t.Fatalf("forced complete: %v", err)
	}
	done, _ := db.GetCheckUp(cu.ID)
	if done.Status != StatusCompleted {
		t.Errorf("Status = %q, want completed", done.Status)
	}
}

func TestInvalidTransitionRejected(t *testing.T) {
	m, db, _ := newTestManager(t)
	is := seedIsland(t, db)
	cu, _ := m.Create(is.ID, "mario", nil)

	if err := m.Archive(cu.ID); err == nil {
		t.Error("archive from scheduled should fail")
	}
	status, _ := db.GetCheckUp(cu.ID)
	if status.Status != StatusScheduled {
		t.Errorf("Status = %q, want scheduled after rejected transition", status.Status)
	}
}

func TestCancelAndDelete(t *testing.T) {
	m, db, _ := newTestManager(t)
	is := seedIsland(t, db)

	cu, _ := m.Create(is.ID, "mario", nil)
	if err := m.Cancel(cu.ID, ""); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	cancelled, _ := db.GetCheckUp(cu.ID)
	if cancelled.Status != StatusCancelled {
		t.Errorf("Status = %q, want cancelled", cancelled.Status)
	}

	// Cancelled check-ups can be deleted
	if err := m.Delete(cu.ID); err != nil {
		t.Fatalf("delete cancelled: %v", err)
	}
	if _, err := db.GetCheckUp(cu.ID); err == nil {
		t.Error("expected error after delete")
	}

	// Completed work cannot be deleted
	cu2, _ := m.Create(is.ID, "mario", nil)
	m.Start(cu2.ID)
	m.Complete(cu2.ID, true)
	if err := m.Delete(cu2.ID); err == nil {
		t.Error("delete of completed checkup should fail")
	}
}

func TestCycleItem(t *testing.T) {
	m, db, _ := newTestManager(t)
	is := seedIsland(t, db)
	db.CreateChecklistTemplate(&store.ChecklistTemplate{Module: "Robot", Title: "Grease axes", Active: true})

	cu, _ := m.Create(is.ID, "mario", nil)
	m.Start(cu.ID)
	items, _ := db.ListCheckItems(cu.ID)
	id := items[0].ID

	want := []string{ItemOK, ItemNOK, ItemNA, ItemPending}
	for _, w := range want {
		item, err := m.CycleItem(id)
		if err != nil {
			t.Fatalf("cycle: %v", err)
		}
		if item.Status != w {
			t.Errorf("cycled status = %q, want %q", item.Status, w)
		}
	}
}

func TestEditRejectedAfterCompletion(t *testing.T) {
	m, db, _ := newTestManager(t)
	is := seedIsland(t, db)
	db.CreateChecklistTemplate(&store.ChecklistTemplate{Module: "Safety", Title: "Fences", Active: true})

	cu, _ := m.Create(is.ID, "mario", nil)
	m.Start(cu.ID)
	items, _ := db.ListCheckItems(cu.ID)
	m.SetItemStatus(items[0].ID, ItemOK)
	if err := m.Complete(cu.ID, false); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if _, err := m.SetItemStatus(items[0].ID, ItemNOK); err == nil {
		t.Error("item mutation after completion should fail")
	}
	if err := m.SetItemComment(items[0].ID, "late note"); err == nil {
		t.Error("item comment after completion should fail")
	}
	if _, err := m.AddItem(cu.ID, "Safety", "extra"); err == nil {
		t.Error("add item after completion should fail")
	}
	if err := m.AddSparePart(&store.SparePart{CheckUpID: cu.ID, Name: "Belt"}); err == nil {
		t.Error("add spare part after completion should fail")
	}
	if err := m.UpdateSummary(cu.ID, "mario", "too late"); err != nil {
		t.Errorf("summary edit on completed checkup should still work: %v", err)
	}

	if err := m.Archive(cu.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if err := m.UpdateSummary(cu.ID, "mario", "really too late"); err == nil {
		t.Error("summary edit after archive should fail")
	}
}

func TestAddItemPositions(t *testing.T) {
	m, db, _ := newTestManager(t)
	is := seedIsland(t, db)
	db.CreateChecklistTemplate(&store.ChecklistTemplate{Module: "Safety", Title: "Fences", Position: 0, Active: true})

	cu, _ := m.Create(is.ID, "mario", nil)
	m.Start(cu.ID)

	item, err := m.AddItem(cu.ID, "Safety", "Check light curtain")
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if item.Position != 1 {
		t.Errorf("Position = %d, want 1 (after seeded item)", item.Position)
	}
	other, _ := m.AddItem(cu.ID, "Electrical", "Check cabinet")
	if other.Position != 0 {
		t.Errorf("Position = %d, want 0 (first in its module)", other.Position)
	}
}

func TestUrgentSparePartQueues(t *testing.T) {
	m, db, emitter := newTestManager(t)
	is := seedIsland(t, db)
	cu, _ := m.Create(is.ID, "mario", nil)
	m.Start(cu.ID)

	if err := m.AddSparePart(&store.SparePart{CheckUpID: cu.ID, Name: "Gripper pad", Quantity: 4}); err != nil {
		t.Fatalf("add part: %v", err)
	}
	pending, _ := db.ListPendingOutbox(10)
	if len(pending) != 0 {
		t.Errorf("non-urgent part should not queue, outbox len = %d", len(pending))
	}

	if err := m.AddSparePart(&store.SparePart{CheckUpID: cu.ID, Name: "Drive belt", Quantity: 1, Urgent: true}); err != nil {
		t.Fatalf("add urgent part: %v", err)
	}
	pending, _ = db.ListPendingOutbox(10)
	if len(pending) != 1 {
		t.Fatalf("outbox len = %d, want 1", len(pending))
	}
	if pending[0].MsgType != "sparepart.needed" {
		t.Errorf("msg_type = %q, want sparepart.needed", pending[0].MsgType)
	}

	if err := m.AddSparePart(&store.SparePart{CheckUpID: cu.ID}); err == nil {
		t.Error("nameless part should be rejected")
	}

	if len(emitter.getEvents()) < 3 {
		t.Errorf("expected part events, got %v", emitter.getEvents())
	}
}

func TestAttachPhotoValidatesItem(t *testing.T) {
	m, db, _ := newTestManager(t)
	is := seedIsland(t, db)
	db.CreateChecklistTemplate(&store.ChecklistTemplate{Module: "Safety", Title: "Fences", Active: true})

	cu, _ := m.Create(is.ID, "mario", nil)
	m.Start(cu.ID)
	other, _ := m.Create(is.ID, "mario", nil)
	m.Start(other.ID)

	items, _ := db.ListCheckItems(cu.ID)
	itemID := items[0].ID

	p := &store.Photo{UUID: "ph-1", CheckUpID: cu.ID, CheckItemID: &itemID, Filename: "ph-1.jpg"}
	if err := m.AttachPhoto(p); err != nil {
		t.Fatalf("attach: %v", err)
	}

	// Item from another check-up is rejected
	bad := &store.Photo{UUID: "ph-2", CheckUpID: other.ID, CheckItemID: &itemID, Filename: "ph-2.jpg"}
	if err := m.AttachPhoto(bad); err == nil {
		t.Error("photo with foreign item should be rejected")
	}
}

func TestComputeStats(t *testing.T) {
	m, db, _ := newTestManager(t)
	is := seedIsland(t, db)
	for i, tpl := range []store.ChecklistTemplate{
		{Module: "Safety", Title: "A"},
		{Module: "Safety", Title: "B"},
		{Module: "Robot", Title: "C"},
		{Module: "Robot", Title: "D"},
	} {
		tpl.Position = i
		tpl.Active = true
		db.CreateChecklistTemplate(&tpl)
	}

	cu, _ := m.Create(is.ID, "mario", nil)
	m.Start(cu.ID)
	items, _ := db.ListCheckItems(cu.ID)
	m.SetItemStatus(items[0].ID, ItemOK)
	m.SetItemStatus(items[1].ID, ItemNOK)
	m.SetItemStatus(items[2].ID, ItemNA)
	m.AddSparePart(&store.SparePart{CheckUpID: cu.ID, Name: "Belt"})
	m.AttachPhoto(&store.Photo{UUID: "ph-1", CheckUpID: cu.ID, Filename: "ph-1.jpg"})

	s, err := m.ComputeStats(cu.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if s.Total != 4 || s.Pending != 1 || s.OK != 1 || s.NOK != 1 || s.NA != 1 {
		t.Errorf("counts = %+v, want total 4, one each", s)
	}
	if s.Done != 3 {
		t.Errorf("Done = %d, want 3", s.Done)
	}
	if s.Progress != 75 {
		t.Errorf("Progress = %v, want 75", s.Progress)
	}
	if s.SpareParts != 1 || s.Photos != 1 {
		t.Errorf("SpareParts = %d, Photos = %d, want 1 each", s.SpareParts, s.Photos)
	}
}
