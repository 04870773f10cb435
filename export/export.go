package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"qreport/checkup"
	"qreport/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Export formats
const (
	FormatWord        = "word"
	FormatText        = "text"
	FormatSpreadsheet = "spreadsheet"
	FormatPhotos      = "photos"
	FormatPackage     = "package"
)

// Formats lists every supported export format.
var Formats = []string{FormatWord, FormatText, FormatSpreadsheet, FormatPhotos, FormatPackage}

// IsValidFormat checks membership in the format set.
func IsValidFormat(f string) bool {
	for _, known := range Formats {
		if known == f {
			return true
		}
	}
	return false
}

// Pipeline steps, named so a failure can be pinned down and retried.
const (
	StepPrepare  = "prepare"
	StepRender   = "render"
	StepWrite    = "write"
	StepValidate = "validate"
	StepArchive  = "archive"
)

// StepError wraps a failure with the pipeline step it happened in.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("%s: %v", e.Step, e.Err) }
func (e *StepError) Unwrap() error { return e.Err }

func stepErr(step string, err error) *StepError {
	return &StepError{Step: step, Err: err}
}

// Manager runs report exports and tracks them in export_records.
type Manager struct {
	db        *store.DB
	emitter   EventEmitter
	exportDir string
	photoDir  string
	log       *zap.SugaredLogger
}

// NewManager creates an export manager.
func NewManager(db *store.DB, emitter EventEmitter, exportDir, photoDir string, log *zap.SugaredLogger) *Manager {
	return &Manager{
		db:        db,
		emitter:   emitter,
		exportDir: exportDir,
		photoDir:  photoDir,
		log:       log,
	}
}

// Run exports one check-up in the given format. Only finished visits
// can be exported. The returned record reflects the final state; on
// failure the record carries the failing step and the error is returned
// alongside it.
func (m *Manager) Run(checkupID int64, format string) (*store.ExportRecord, error) {
	if !IsValidFormat(format) {
		return nil, fmt.Errorf("unknown export format: %s", format)
	}
	cu, err := m.db.GetCheckUp(checkupID)
	if err != nil {
		return nil, fmt.Errorf("get checkup: %w", err)
	}
	if cu.Status != checkup.StatusCompleted && cu.Status != checkup.StatusArchived {
		return nil, fmt.Errorf("checkup is %s, only completed check-ups can be exported", cu.Status)
	}

	record := &store.ExportRecord{
		UUID:      uuid.New().String(),
		CheckUpID: checkupID,
		Format:    format,
		Status:    "running",
	}
	if err := m.db.CreateExportRecord(record); err != nil {
		return nil, err
	}
	return m.execute(record, cu)
}

// Retry re-runs a failed export in place.
func (m *Manager) Retry(recordID int64) (*store.ExportRecord, error) {
	record, err := m.db.GetExportRecord(recordID)
	if err != nil {
		return nil, fmt.Errorf("get export record: %w", err)
	}
	if record.Status != "failed" {
		return nil, fmt.Errorf("export record is %s, only failed exports can be retried", record.Status)
	}
	cu, err := m.db.GetCheckUp(record.CheckUpID)
	if err != nil {
		return nil, fmt.Errorf("get checkup: %w", err)
	}
	if err := m.db.MarkExportRunning(record.ID); err != nil {
		return nil, err
	}
	return m.execute(record, cu)
}

// execute runs the pipeline for one record and settles it.
func (m *Manager) execute(record *store.ExportRecord, cu *store.CheckUp) (*store.ExportRecord, error) {
	m.emitter.EmitExportStarted(record.ID, cu.ID, record.Format)

	path, runErr := m.run(record, cu)
	if runErr != nil {
		m.log.Warnf("export %s for checkup %s failed: %v", record.Format, cu.UUID, runErr)
		if err := m.db.MarkExportFailed(record.ID, runErr.Error()); err != nil {
			m.log.Errorf("mark export %d failed: %v", record.ID, err)
		}
		m.emitter.EmitExportFailed(record.ID, cu.ID, record.Format, runErr.Error())
		failed, err := m.db.GetExportRecord(record.ID)
		if err != nil {
			failed = record
		}
		return failed, runErr
	}

	size, err := pathSize(path)
	if err != nil {
		size = 0
	}
	if err := m.db.MarkExportCompleted(record.ID, path, size); err != nil {
		return nil, fmt.Errorf("mark export completed: %w", err)
	}
	m.emitter.EmitExportCompleted(record.ID, cu.ID, record.Format, path)
	m.enqueueCompleted(record, cu, path, size)
	m.log.Infof("exported checkup %s as %s: %s (%d bytes)", cu.UUID, record.Format, path, size)
	return m.db.GetExportRecord(record.ID)
}

// run produces the artifact and returns its path.
func (m *Manager) run(record *store.ExportRecord, cu *store.CheckUp) (string, error) {
	data, err := m.collect(cu)
	if err != nil {
		return "", stepErr(StepPrepare, err)
	}

	dir := filepath.Join(m.exportDir, exportFolderName(cu, record))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", stepErr(StepPrepare, err)
	}

	switch record.Format {
	case FormatWord:
		return m.runWord(dir, data)
	case FormatText:
		return m.runText(dir, data)
	case FormatSpreadsheet:
		return m.runSpreadsheet(dir, data)
	case FormatPhotos:
		return m.runPhotos(dir, data)
	case FormatPackage:
		return m.runPackage(dir, data)
	default:
		return "", stepErr(StepPrepare, fmt.Errorf("unknown format %s", record.Format))
	}
}

// runPackage renders every format into the folder, then zips it.
func (m *Manager) runPackage(dir string, data *reportData) (string, error) {
	if _, err := m.runWord(dir, data); err != nil {
		return "", err
	}
	if _, err := m.runText(dir, data); err != nil {
		return "", err
	}
	if _, err := m.runSpreadsheet(dir, data); err != nil {
		return "", err
	}
	if _, err := m.runPhotos(dir, data); err != nil {
		return "", err
	}
	zipPath := dir + ".zip"
	if err := zipDir(dir, zipPath); err != nil {
		return "", stepErr(StepArchive, err)
	}
	if err := validateFile(zipPath); err != nil {
		return "", err
	}
	return zipPath, nil
}

// validateFile rejects missing and zero-byte artifacts.
func validateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return stepErr(StepValidate, err)
	}
	if info.Size() == 0 {
		return stepErr(StepValidate, fmt.Errorf("%s is empty", filepath.Base(path)))
	}
	return nil
}

// pathSize returns the byte size of a file, or the summed size of a
// directory tree.
func pathSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return info.Size(), nil
	}
	var total int64
	err = filepath.WalkDir(path, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if fi, err := d.Info(); err == nil {
				total += fi.Size()
			}
		}
		return nil
	})
	return total, err
}

// enqueueCompleted tells the back office a report is ready for pickup.
func (m *Manager) enqueueCompleted(record *store.ExportRecord, cu *store.CheckUp, path string, size int64) {
	msg := ExportCompletedMessage{
		CheckUpUUID: cu.UUID,
		ExportUUID:  record.UUID,
		Format:      record.Format,
		Filename:    filepath.Base(path),
		SizeBytes:   size,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	payload, _ := json.Marshal(msg)
	if _, err := m.db.EnqueueOutbox("field", payload, "export.completed"); err != nil {
		m.log.Warnf("enqueue export completed %s: %v", record.UUID, err)
	}
}

// ExportCompletedMessage is the outbound export notification JSON.
type ExportCompletedMessage struct {
	CheckUpUUID string `json:"checkup_uuid"`
	ExportUUID  string `json:"export_uuid"`
	Format      string `json:"format"`
	Filename    string `json:"filename"`
	SizeBytes   int64  `json:"size_bytes"`
	Timestamp   string `json:"timestamp"`
}
