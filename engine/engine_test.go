package engine

import (
	"path/filepath"
	"testing"

	"qreport/checkup"
	"qreport/config"
	"qreport/store"
)

// testEngine builds a started engine over a temp SQLite store with one
// facility, one island and one active checklist template.
func testEngine(t *testing.T, autoComplete bool) (*Engine, *store.Island) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Defaults()
	cfg.Database.SQLite.Path = filepath.Join(dir, "test.db")
	cfg.Paths.PhotoDir = filepath.Join(dir, "photos")
	cfg.Paths.ExportDir = filepath.Join(dir, "exports")
	cfg.Paths.BackupDir = filepath.Join(dir, "backups")
	cfg.Web.AutoComplete = autoComplete

	db, err := store.Open(&cfg.Database)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	f := &store.Facility{Name: "Plant North", Client: "Acme Foods"}
	if err := db.CreateFacility(f); err != nil {
		t.Fatalf("create facility: %v", err)
	}
	is := &store.Island{FacilityID: f.ID, Name: "Palletizer 2"}
	if err := db.CreateIsland(is); err != nil {
		t.Fatalf("create island: %v", err)
	}
	tpl := &store.ChecklistTemplate{Module: "Safety", Title: "Fences", Active: true}
	if err := db.CreateChecklistTemplate(tpl); err != nil {
		t.Fatalf("create template: %v", err)
	}

	eng := New(Config{
		AppConfig:  cfg,
		ConfigPath: filepath.Join(dir, "config.yaml"),
		DB:         db,
	})
	eng.Start()
	t.Cleanup(eng.Stop)
	return eng, is
}

func TestItemChangePublishesStats(t *testing.T) {
	eng, is := testEngine(t, false)

	var stats []StatsUpdatedEvent
	eng.Events.SubscribeTypes(func(evt Event) {
		stats = append(stats, evt.Payload.(StatsUpdatedEvent))
	}, EventStatsUpdated)

	cu, err := eng.CheckUpManager().Create(is.ID, "mario", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := eng.CheckUpManager().Start(cu.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	items, _ := eng.DB().ListCheckItems(cu.ID)
	if _, err := eng.CheckUpManager().SetItemStatus(items[0].ID, checkup.ItemOK); err != nil {
		t.Fatalf("set item status: %v", err)
	}

	if len(stats) != 1 {
		t.Fatalf("stats events = %d, want 1", len(stats))
	}
	if stats[0].CheckUpID != cu.ID {
		t.Errorf("CheckUpID = %d, want %d", stats[0].CheckUpID, cu.ID)
	}
	if stats[0].Stats.OK != 1 || stats[0].Stats.Total != 1 {
		t.Errorf("Stats = %+v, want one item resolved OK", stats[0].Stats)
	}
}

func TestSparePartAndPhotoRefreshStats(t *testing.T) {
	eng, is := testEngine(t, false)

	statsEvents := 0
	eng.Events.SubscribeTypes(func(Event) { statsEvents++ }, EventStatsUpdated)

	cu, _ := eng.CheckUpManager().Create(is.ID, "mario", nil)
	eng.CheckUpManager().Start(cu.ID)

	if err := eng.CheckUpManager().AddSparePart(&store.SparePart{CheckUpID: cu.ID, Name: "Belt"}); err != nil {
		t.Fatalf("add part: %v", err)
	}
	if err := eng.CheckUpManager().AttachPhoto(&store.Photo{UUID: "ph-1", CheckUpID: cu.ID, Filename: "ph-1.jpg"}); err != nil {
		t.Fatalf("attach photo: %v", err)
	}

	if statsEvents != 2 {
		t.Errorf("stats events = %d, want 2", statsEvents)
	}
}

func TestAutoComplete(t *testing.T) {
	eng, is := testEngine(t, true)

	cu, _ := eng.CheckUpManager().Create(is.ID, "mario", nil)
	eng.CheckUpManager().Start(cu.ID)
	items, _ := eng.DB().ListCheckItems(cu.ID)
	if _, err := eng.CheckUpManager().SetItemStatus(items[0].ID, checkup.ItemOK); err != nil {
		t.Fatalf("set item status: %v", err)
	}

	got, _ := eng.DB().GetCheckUp(cu.ID)
	if got.Status != checkup.StatusCompleted {
		t.Errorf("Status = %q, want completed after last item resolved", got.Status)
	}
}

func TestAutoCompleteLeavesPending(t *testing.T) {
	eng, is := testEngine(t, true)

	// A second template keeps one item pending after the first resolve
	eng.DB().CreateChecklistTemplate(&store.ChecklistTemplate{Module: "Robot", Title: "Grease axes", Active: true})

	cu, _ := eng.CheckUpManager().Create(is.ID, "mario", nil)
	eng.CheckUpManager().Start(cu.ID)
	items, _ := eng.DB().ListCheckItems(cu.ID)
	eng.CheckUpManager().SetItemStatus(items[0].ID, checkup.ItemOK)

	got, _ := eng.DB().GetCheckUp(cu.ID)
	if got.Status != checkup.StatusInProgress {
		t.Errorf("Status = %q, want in_progress while items pending", got.Status)
	}
}

func TestAutoCompleteDisabled(t *testing.T) {
	eng, is := testEngine(t, false)

	cu, _ := eng.CheckUpManager().Create(is.ID, "mario", nil)
	eng.CheckUpManager().Start(cu.ID)
	items, _ := eng.DB().ListCheckItems(cu.ID)
	eng.CheckUpManager().SetItemStatus(items[0].ID, checkup.ItemOK)

	got, _ := eng.DB().GetCheckUp(cu.ID)
	if got.Status != checkup.StatusInProgress {
		t.Errorf("Status = %q, want in_progress with auto-complete off", got.Status)
	}
}

func TestManagerEventsReachBus(t *testing.T) {
	eng, is := testEngine(t, false)

	var created []CheckUpCreatedEvent
	var transitions []CheckUpStatusChangedEvent
	eng.Events.SubscribeTypes(func(evt Event) {
		created = append(created, evt.Payload.(CheckUpCreatedEvent))
	}, EventCheckUpCreated)
	eng.Events.SubscribeTypes(func(evt Event) {
		transitions = append(transitions, evt.Payload.(CheckUpStatusChangedEvent))
	}, EventCheckUpStatusChanged)

	cu, err := eng.CheckUpManager().Create(is.ID, "mario", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	eng.CheckUpManager().Start(cu.ID)

	if len(created) != 1 {
		t.Fatalf("created events = %d, want 1", len(created))
	}
	if created[0].IslandName != "Palletizer 2" {
		t.Errorf("IslandName = %q, want Palletizer 2", created[0].IslandName)
	}
	if len(transitions) != 1 {
		t.Fatalf("transition events = %d, want 1", len(transitions))
	}
	if transitions[0].OldStatus != checkup.StatusScheduled || transitions[0].NewStatus != checkup.StatusInProgress {
		t.Errorf("transition = %s->%s, want scheduled->in_progress", transitions[0].OldStatus, transitions[0].NewStatus)
	}
}
