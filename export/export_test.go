package export

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"qreport/checkup"
	"qreport/config"
	"qreport/store"
)

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

func (m *mockEmitter) EmitExportStarted(recordID, checkupID int64, format string) {
	m.record("started:" + format)
}

func (m *mockEmitter) EmitExportCompleted(recordID, checkupID int64, format, path string) {
	m.record("completed:" + format)
}

func (m *mockEmitter) EmitExportFailed(recordID, checkupID int64, format, errDetail string) {
	m.record("failed:" + format)
}

type fixture struct {
	db      *store.DB
	manager *Manager
	emitter *mockEmitter
	checkup *store.CheckUp
	dir     string
}

// newFixture seeds a completed check-up with items in every status, one
// urgent spare part and two photos (one on an item, one general).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	db, err := store.Open(&config.DatabaseConfig{
		Driver: store.DriverSQLite,
		SQLite: config.SQLiteConfig{Path: filepath.Join(dir, "test.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &store.Facility{Name: "Plant North", Client: "Acme Foods"}
	require.NoError(t, db.CreateFacility(f))
	is := &store.Island{FacilityID: f.ID, Name: "Palletizer 2", SerialNumber: "SN-1001"}
	require.NoError(t, db.CreateIsland(is))

	cu := &store.CheckUp{UUID: "cu-uuid-1", IslandID: is.ID, Technician: "mario", Status: checkup.StatusScheduled}
	require.NoError(t, db.CreateCheckUp(cu))
	require.NoError(t, db.MarkCheckUpStarted(cu.ID, checkup.StatusInProgress))
	require.NoError(t, db.MarkCheckUpCompleted(cu.ID, checkup.StatusCompleted))
	require.NoError(t, db.UpdateCheckUpSummary(cu.ID, "mario", "Replaced gripper pads, fence post bent."))

	require.NoError(t, db.SeedCheckItems(cu.ID, []*store.ChecklistTemplate{
		{Module: "Safety", Title: "Emergency stops", Position: 0, Active: true},
		{Module: "Safety", Title: "Fences", Position: 1, Active: true},
		{Module: "Robot", Title: "Grease axes", Position: 0, Active: true},
	}))
	items, err := db.ListCheckItems(cu.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	// Sorted by module: Robot first, then Safety
	require.NoError(t, db.UpdateCheckItemStatus(items[0].ID, checkup.ItemOK))
	require.NoError(t, db.UpdateCheckItemStatus(items[1].ID, checkup.ItemNOK))
	require.NoError(t, db.UpdateCheckItemComment(items[1].ID, "mushroom button sticks"))
	require.NoError(t, db.UpdateCheckItemStatus(items[2].ID, checkup.ItemNA))

	require.NoError(t, db.CreateSparePart(&store.SparePart{
		CheckUpID: cu.ID, Name: "Gripper pad", PartNumber: "GP-44", Quantity: 4, Urgent: true, Note: "worn out",
	}))

	photoDir := filepath.Join(dir, "photos")
	require.NoError(t, os.MkdirAll(photoDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(photoDir, "ph-1.jpg"), []byte("jpeg-bytes-1"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(photoDir, "ph-2.jpg"), []byte("jpeg-bytes-2"), 0644))
	itemID := items[1].ID
	require.NoError(t, db.CreatePhoto(&store.Photo{
		UUID: "ph-1", CheckUpID: cu.ID, CheckItemID: &itemID,
		Filename: "ph-1.jpg", OriginalName: "IMG_0042.jpg", Caption: "sticking button",
	}))
	require.NoError(t, db.CreatePhoto(&store.Photo{
		UUID: "ph-2", CheckUpID: cu.ID, Filename: "ph-2.jpg",
	}))

	emitter := &mockEmitter{}
	manager := NewManager(db, emitter, filepath.Join(dir, "exports"), photoDir, zap.NewNop().Sugar())

	cu, err = db.GetCheckUp(cu.ID)
	require.NoError(t, err)
	return &fixture{db: db, manager: manager, emitter: emitter, checkup: cu, dir: dir}
}

func TestRunRejectsUnfinished(t *testing.T) {
	fx := newFixture(t)

	other := &store.CheckUp{UUID: "cu-uuid-2", IslandID: fx.checkup.IslandID, Status: checkup.StatusInProgress}
	require.NoError(t, fx.db.CreateCheckUp(other))

	_, err := fx.manager.Run(other.ID, FormatText)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only completed")

	// Nothing was recorded for the rejected run
	records, err := fx.db.ListExportRecords(other.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.manager.Run(fx.checkup.ID, "pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown export format")
}

func TestRunText(t *testing.T) {
	fx := newFixture(t)

	record, err := fx.manager.Run(fx.checkup.ID, FormatText)
	require.NoError(t, err)
	assert.Equal(t, "completed", record.Status)
	assert.Greater(t, record.SizeBytes, int64(0))
	require.NotNil(t, record.CompletedAt)

	body, err := os.ReadFile(record.Path)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, "Acme Foods / Plant North / Palletizer 2")
	assert.Contains(t, text, "SN-1001")
	assert.Contains(t, text, "3 of 3 items checked (100%)")
	assert.Contains(t, text, "[OK     ] Grease axes")
	assert.Contains(t, text, "[NOK    ] Emergency stops")
	assert.Contains(t, text, "[N/A    ] Fences")
	assert.Contains(t, text, "mushroom button sticks")
	assert.Contains(t, text, "4 x Gripper pad (PN GP-44)  ** URGENT **")
	assert.Contains(t, text, "Replaced gripper pads")

	// Completion queues a pickup notice
	pending, err := fx.db.ListPendingOutbox(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "export.completed", pending[0].MsgType)

	assert.Equal(t, []string{"started:text", "completed:text"}, fx.emitter.getEvents())
}

func TestRunWord(t *testing.T) {
	fx := newFixture(t)

	record, err := fx.manager.Run(fx.checkup.ID, FormatWord)
	require.NoError(t, err)
	assert.Equal(t, "completed", record.Status)
	assert.True(t, strings.HasSuffix(record.Path, "report.docx"))

	info, err := os.Stat(record.Path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	// A .docx is a zip; it must open and carry the main document part
	zr, err := zip.OpenReader(record.Path)
	require.NoError(t, err)
	defer zr.Close()
	var hasDocument bool
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			hasDocument = true
		}
	}
	assert.True(t, hasDocument, "word/document.xml missing from docx")
}

func TestRunSpreadsheet(t *testing.T) {
	fx := newFixture(t)

	record, err := fx.manager.Run(fx.checkup.ID, FormatSpreadsheet)
	require.NoError(t, err)
	assert.Equal(t, "completed", record.Status)

	wb, err := excelize.OpenFile(record.Path)
	require.NoError(t, err)
	defer wb.Close()

	assert.ElementsMatch(t, []string{sheetChecklist, sheetParts, sheetVisit}, wb.GetSheetList())

	// First data row is the Robot module item
	module, err := wb.GetCellValue(sheetChecklist, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Robot", module)
	status, err := wb.GetCellValue(sheetChecklist, "D2")
	require.NoError(t, err)
	assert.Equal(t, "OK", status)

	part, err := wb.GetCellValue(sheetParts, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Gripper pad", part)
	urgent, err := wb.GetCellValue(sheetParts, "D2")
	require.NoError(t, err)
	assert.Equal(t, "URGENT", urgent)

	client, err := wb.GetCellValue(sheetVisit, "B1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Foods", client)
}

func TestRunPhotos(t *testing.T) {
	fx := newFixture(t)

	record, err := fx.manager.Run(fx.checkup.ID, FormatPhotos)
	require.NoError(t, err)
	assert.Equal(t, "completed", record.Status)

	// Item photo lands in its module/item folder, keeping the camera name
	itemPhoto := filepath.Join(record.Path, "safety", "emergency-stops", "01_IMG_0042.jpg")
	_, err = os.Stat(itemPhoto)
	assert.NoError(t, err, "item photo missing")

	general := filepath.Join(record.Path, "general", "01_ph-2.jpg")
	_, err = os.Stat(general)
	assert.NoError(t, err, "general photo missing")

	index, err := os.ReadFile(filepath.Join(record.Path, "index.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "2 photo(s)")
	assert.Contains(t, string(index), "Safety / Emergency stops")
	assert.Contains(t, string(index), "caption: sticking button")
}

func TestRunPhotosSkipsMissingFile(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, os.Remove(filepath.Join(fx.dir, "photos", "ph-2.jpg")))

	record, err := fx.manager.Run(fx.checkup.ID, FormatPhotos)
	require.NoError(t, err)
	assert.Equal(t, "completed", record.Status)

	index, err := os.ReadFile(filepath.Join(record.Path, "index.txt"))
	require.NoError(t, err)
	assert.NotContains(t, string(index), "01_ph-2.jpg")
}

func TestRunPackage(t *testing.T) {
	fx := newFixture(t)

	record, err := fx.manager.Run(fx.checkup.ID, FormatPackage)
	require.NoError(t, err)
	assert.Equal(t, "completed", record.Status)
	assert.True(t, strings.HasSuffix(record.Path, ".zip"))

	zr, err := zip.OpenReader(record.Path)
	require.NoError(t, err)
	defer zr.Close()

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{
		"report.docx",
		"report.txt",
		"checklist.xlsx",
		"photos/index.txt",
		"photos/safety/emergency-stops/01_IMG_0042.jpg",
	} {
		assert.True(t, names[want], "%s missing from package", want)
	}
}

func TestRetry(t *testing.T) {
	fx := newFixture(t)

	record := &store.ExportRecord{UUID: "ex-retry-1", CheckUpID: fx.checkup.ID, Format: FormatText, Status: "running"}
	require.NoError(t, fx.db.CreateExportRecord(record))
	require.NoError(t, fx.db.MarkExportFailed(record.ID, "write: disk full"))

	got, err := fx.manager.Retry(record.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", got.Status)
	assert.Empty(t, got.ErrorDetail)
	_, err = os.Stat(got.Path)
	assert.NoError(t, err)

	// Only failed records can be retried
	_, err = fx.manager.Retry(record.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only failed")
}

func TestRunFailureMarksRecord(t *testing.T) {
	fx := newFixture(t)

	// An unwritable export root fails the prepare step
	blocked := filepath.Join(fx.dir, "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("not a dir"), 0644))
	fx.manager.exportDir = filepath.Join(blocked, "exports")

	record, err := fx.manager.Run(fx.checkup.ID, FormatText)
	require.Error(t, err)
	var stepError *StepError
	require.ErrorAs(t, err, &stepError)
	assert.Equal(t, StepPrepare, stepError.Step)

	require.NotNil(t, record)
	assert.Equal(t, "failed", record.Status)
	assert.NotEmpty(t, record.ErrorDetail)
	assert.Equal(t, []string{"started:text", "failed:text"}, fx.emitter.getEvents())
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Palletizer 2", "palletizer-2"},
		{"  Wrap & Go!  ", "wrap-go"},
		{"ÜBER", "ber"},
		{"---", "checkup"},
		{"", "checkup"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.in), "slugify(%q)", tt.in)
	}
}

func TestExportFolderName(t *testing.T) {
	cu := &store.CheckUp{IslandName: "Palletizer 2"}
	created := time.Date(2025, 3, 14, 9, 30, 0, 0, time.Local)
	record := &store.ExportRecord{UUID: "abcdef12-3456-7890-abcd-ef1234567890", CreatedAt: created}

	got := exportFolderName(cu, record)
	assert.Equal(t, "palletizer-2_abcdef12_20250314-093000", got)
}

func TestGroupByModule(t *testing.T) {
	items := []*store.CheckItem{
		{Module: "Robot", Title: "A"},
		{Module: "Robot", Title: "B"},
		{Module: "Safety", Title: "C"},
	}
	groups := groupByModule(items)
	require.Len(t, groups, 2)
	assert.Equal(t, "Robot", groups[0].Name)
	assert.Len(t, groups[0].Items, 2)
	assert.Equal(t, "Safety", groups[1].Name)
}

func TestComputeStats(t *testing.T) {
	items := []*store.CheckItem{
		{Status: checkup.ItemOK},
		{Status: checkup.ItemOK},
		{Status: checkup.ItemNOK},
		{Status: checkup.ItemPending},
	}
	s := computeStats(items, 2, 5)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.OK)
	assert.Equal(t, 1, s.NOK)
	assert.Equal(t, 1, s.Pending)
	assert.Equal(t, 3, s.Done)
	assert.Equal(t, 75.0, s.Progress)
	assert.Equal(t, 2, s.SpareParts)
	assert.Equal(t, 5, s.Photos)
}

func TestStatusLabel(t *testing.T) {
	for in, want := range map[string]string{
		checkup.ItemOK:      "OK",
		checkup.ItemNOK:     "NOK",
		checkup.ItemNA:      "N/A",
		checkup.ItemPending: "PENDING",
		"weird":             "PENDING",
	} {
		assert.Equal(t, want, statusLabel(in))
	}
}

func TestStatusLabelWidthStable(t *testing.T) {
	// The text template pads to 7 columns; labels must fit
	for _, s := range []string{"ok", "nok", "na", "pending"} {
		if l := len(statusLabel(s)); l > 7 {
			t.Errorf("label %q is %d chars, breaks column layout", statusLabel(s), l)
		}
	}
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	err := validateFile(empty)
	require.Error(t, err)
	var stepError *StepError
	require.ErrorAs(t, err, &stepError)
	assert.Equal(t, StepValidate, stepError.Step)

	full := filepath.Join(dir, "full.txt")
	require.NoError(t, os.WriteFile(full, []byte("x"), 0644))
	assert.NoError(t, validateFile(full))

	err = validateFile(filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
	require.ErrorAs(t, err, &stepError)
	assert.Equal(t, StepValidate, stepError.Step)
}

func TestZipTreeRoundTrip(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("alpha"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "b.txt"), []byte("beta"), 0644))

	dst := filepath.Join(t.TempDir(), "out.zip")
	require.NoError(t, zipDir(src, dst))

	zr, err := zip.OpenReader(dst)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 2)

	byName := make(map[string]*zip.File)
	for _, f := range zr.File {
		byName[f.Name] = f
	}
	require.Contains(t, byName, "a.txt")
	require.Contains(t, byName, "sub/b.txt")

	rc, err := byName["sub/b.txt"].Open()
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "beta", string(body))
}
