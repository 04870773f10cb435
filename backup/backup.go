// Package backup produces zip snapshots of the local QReport data set
// (database, photos, config) and records their history.
package backup

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"qreport/store"
)

// ErrPostgresDatabase is returned by the database snapshot step when the
// store runs on postgres. Only the embedded sqlite file can be captured.
var ErrPostgresDatabase = errors.New("postgres database cannot be captured, use pg_dump")

const (
	ModeManual = "manual"

	entryDatabase = "qreport.db"
	entryConfig   = "config.yaml"
	entryPhotos   = "photos"
)

type Manager struct {
	db         *store.DB
	emitter    EventEmitter
	backupDir  string
	photoDir   string
	configPath string
	log        *zap.SugaredLogger
}

func NewManager(db *store.DB, emitter EventEmitter, backupDir, photoDir, configPath string, log *zap.SugaredLogger) *Manager {
	return &Manager{
		db:         db,
		emitter:    emitter,
		backupDir:  backupDir,
		photoDir:   photoDir,
		configPath: configPath,
		log:        log,
	}
}

// Create writes a zip snapshot into the backup directory and records it.
// On postgres the database is skipped with a warning but photos and config
// still bundle.
func (m *Manager) Create(mode string) (*store.BackupRecord, error) {
	if err := os.MkdirAll(m.backupDir, 0755); err != nil {
		return nil, fmt.Errorf("backup dir: %w", err)
	}

	filename := fmt.Sprintf("qreport_backup_%s.zip", time.Now().Format("20060102-150405"))
	path := filepath.Join(m.backupDir, filename)

	if err := m.writeArchive(path); err != nil {
		os.Remove(path)
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat backup: %w", err)
	}

	rec := &store.BackupRecord{Filename: filename, Path: path, SizeBytes: info.Size(), Mode: mode}
	if err := m.db.CreateBackupRecord(rec); err != nil {
		return nil, fmt.Errorf("record backup: %w", err)
	}

	m.log.Infof("backup %s written (%d bytes, mode %s)", filename, info.Size(), mode)
	if m.emitter != nil {
		m.emitter.EmitBackupCompleted(rec.ID, filename, info.Size())
	}
	return rec, nil
}

func (m *Manager) List() ([]*store.BackupRecord, error) {
	return m.db.ListBackupRecords()
}

func (m *Manager) Get(id int64) (*store.BackupRecord, error) {
	return m.db.GetBackupRecord(id)
}

func (m *Manager) writeArchive(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	zw := zip.NewWriter(out)

	if err := m.addDatabase(zw); err != nil {
		if errors.Is(err, ErrPostgresDatabase) {
			m.log.Warnf("backup: %v", err)
		} else {
			zw.Close()
			out.Close()
			return fmt.Errorf("snapshot database: %w", err)
		}
	}
	if err := addFile(zw, entryConfig, m.configPath); err != nil {
		if os.IsNotExist(err) {
			m.log.Warnf("backup: config %s missing, skipped", m.configPath)
		} else {
			zw.Close()
			out.Close()
			return fmt.Errorf("bundle config: %w", err)
		}
	}
	if err := m.addPhotos(zw); err != nil {
		zw.Close()
		out.Close()
		return fmt.Errorf("bundle photos: %w", err)
	}

	if err := zw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// addDatabase snapshots the live sqlite file with VACUUM INTO so the copy
// is consistent even in WAL mode.
func (m *Manager) addDatabase(zw *zip.Writer) error {
	if m.db.Driver() != store.DriverSQLite {
		return ErrPostgresDatabase
	}

	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("qreport-snapshot-%d.db", time.Now().UnixNano()))
	defer os.Remove(tmp)

	if _, err := m.db.Exec("VACUUM INTO ?", tmp); err != nil {
		return err
	}
	return addFile(zw, entryDatabase, tmp)
}

func (m *Manager) addPhotos(zw *zip.Writer) error {
	return filepath.WalkDir(m.photoDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(m.photoDir, path)
		if err != nil {
			return err
		}
		return addFile(zw, entryPhotos+"/"+filepath.ToSlash(rel), path)
	})
}

func addFile(zw *zip.Writer, name, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}
