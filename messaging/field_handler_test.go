package messaging

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"qreport/checkup"
	"qreport/config"
	"qreport/store"
)

type nopEmitter struct{}

func (nopEmitter) EmitCheckUpCreated(int64, string, string)              {}
func (nopEmitter) EmitCheckUpStatusChanged(int64, string, string, string) {}
func (nopEmitter) EmitCheckUpCompleted(int64, string)                    {}
func (nopEmitter) EmitItemStatusChanged(int64, int64, string, string)    {}
func (nopEmitter) EmitSparePartLogged(int64, int64, string, bool)        {}
func (nopEmitter) EmitPhotoAttached(int64, int64, string)                {}

func newFieldHandler(t *testing.T) (*FieldHandler, *store.DB) {
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

	f := &store.Facility{Name: "Plant North", Client: "Acme Foods"}
	if err := db.CreateFacility(f); err != nil {
		t.Fatalf("create facility: %v", err)
	}
	is := &store.Island{FacilityID: f.ID, Name: "Palletizer 2", SerialNumber: "SN-1001"}
	if err := db.CreateIsland(is); err != nil {
		t.Fatalf("create island: %v", err)
	}
	db.CreateChecklistTemplate(&store.ChecklistTemplate{Module: "Safety", Title: "Fences", Active: true})

	log := zap.NewNop().Sugar()
	mgr := checkup.NewManager(db, nopEmitter{}, filepath.Join(dir, "photos"), log)
	return NewFieldHandler(db, mgr, log), db
}

func TestAssignBySerial(t *testing.T) {
	h, db := newFieldHandler(t)

	h.HandleCheckUpAssign(nil, &CheckUpAssign{
		SerialNumber: "SN-1001",
		Technician:   "mario",
		ScheduledFor: "2026-09-01 08:30",
		Note:         "annual visit",
	})

	checkups, err := db.ListCheckUps("", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(checkups) != 1 {
		t.Fatalf("checkups = %d, want 1", len(checkups))
	}
	cu := checkups[0]
	if cu.Status != checkup.StatusScheduled {
		t.Errorf("Status = %q, want scheduled", cu.Status)
	}
	if cu.Technician != "mario" {
		t.Errorf("Technician = %q, want mario", cu.Technician)
	}
	if cu.ScheduledFor == nil {
		t.Error("ScheduledFor should be set")
	}

	// Assignment seeds the checklist like a local create
	items, _ := db.ListCheckItems(cu.ID)
	if len(items) != 1 {
		t.Errorf("items = %d, want 1", len(items))
	}

	// The office note lands in the history trail
	history, _ := db.ListCheckUpHistory(cu.ID)
	if len(history) == 0 {
		t.Fatal("assignment history missing")
	}
	last := history[len(history)-1]
	if last.Detail != "assigned by office: annual visit" {
		t.Errorf("Detail = %q, want office note", last.Detail)
	}
}

func TestAssignByNamePair(t *testing.T) {
	h, db := newFieldHandler(t)

	h.HandleCheckUpAssign(nil, &CheckUpAssign{
		Facility:   "Plant North",
		Island:     "Palletizer 2",
		Technician: "luigi",
	})

	checkups, _ := db.ListCheckUps("", 0)
	if len(checkups) != 1 {
		t.Fatalf("checkups = %d, want 1", len(checkups))
	}
}

func TestAssignUnknownIslandIgnored(t *testing.T) {
	h, db := newFieldHandler(t)

	h.HandleCheckUpAssign(nil, &CheckUpAssign{SerialNumber: "SN-9999", Technician: "mario"})
	h.HandleCheckUpAssign(nil, &CheckUpAssign{Facility: "Nowhere", Island: "Ghost", Technician: "mario"})

	checkups, _ := db.ListCheckUps("", 0)
	if len(checkups) != 0 {
		t.Errorf("checkups = %d, want 0 for unmatched assignments", len(checkups))
	}
}

func TestRecallCancelsScheduled(t *testing.T) {
	h, db := newFieldHandler(t)

	h.HandleCheckUpAssign(nil, &CheckUpAssign{SerialNumber: "SN-1001", Technician: "mario"})
	checkups, _ := db.ListCheckUps("", 0)
	cu := checkups[0]

	h.HandleCheckUpRecall(nil, &CheckUpRecall{CheckUpUUID: cu.UUID, Reason: "customer postponed"})

	got, _ := db.GetCheckUp(cu.ID)
	if got.Status != checkup.StatusCancelled {
		t.Errorf("Status = %q, want cancelled", got.Status)
	}
	history, _ := db.ListCheckUpHistory(cu.ID)
	last := history[len(history)-1]
	if last.Detail != "recalled by office: customer postponed" {
		t.Errorf("Detail = %q, want recall reason", last.Detail)
	}
}

func TestRecallLeavesStartedWork(t *testing.T) {
	h, db := newFieldHandler(t)

	h.HandleCheckUpAssign(nil, &CheckUpAssign{SerialNumber: "SN-1001", Technician: "mario"})
	checkups, _ := db.ListCheckUps("", 0)
	cu := checkups[0]
	db.MarkCheckUpStarted(cu.ID, checkup.StatusInProgress)

	h.HandleCheckUpRecall(nil, &CheckUpRecall{CheckUpUUID: cu.UUID, Reason: "schedule conflict"})

	got, _ := db.GetCheckUp(cu.ID)
	if got.Status != checkup.StatusInProgress {
		t.Errorf("Status = %q, in-flight work must not be recalled", got.Status)
	}
}

func TestRecallLeavesFinishedWork(t *testing.T) {
	h, db := newFieldHandler(t)

	h.HandleCheckUpAssign(nil, &CheckUpAssign{SerialNumber: "SN-1001", Technician: "mario"})
	checkups, _ := db.ListCheckUps("", 0)
	cu := checkups[0]
	db.MarkCheckUpStarted(cu.ID, checkup.StatusInProgress)
	db.MarkCheckUpCompleted(cu.ID, checkup.StatusCompleted)

	h.HandleCheckUpRecall(nil, &CheckUpRecall{CheckUpUUID: cu.UUID, Reason: "too late"})

	got, _ := db.GetCheckUp(cu.ID)
	if got.Status != checkup.StatusCompleted {
		t.Errorf("Status = %q, completed work must not be recalled", got.Status)
	}

	// Unknown UUIDs are ignored without side effects
	h.HandleCheckUpRecall(nil, &CheckUpRecall{CheckUpUUID: "no-such-uuid"})
}

func TestParseAssignTime(t *testing.T) {
	for _, ok := range []string{
		"2026-09-01T08:30:00Z",
		"2026-09-01 08:30:00",
		"2026-09-01 08:30",
	} {
		if _, err := parseAssignTime(ok); err != nil {
			t.Errorf("parseAssignTime(%q): %v", ok, err)
		}
	}
	if _, err := parseAssignTime("next tuesday"); err == nil {
		t.Error("expected error for free text")
	}
}
