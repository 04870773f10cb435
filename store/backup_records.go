package store

import (
	"fmt"
	"time"
)

// BackupRecord is the history row for one backup archive.
type BackupRecord struct {
	ID        int64     `json:"id"`
	Filename  string    `json:"filename"`
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	Mode      string    `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
}

const backupRecordSelectCols = `id, filename, path, size_bytes, mode, created_at`

func scanBackupRecord(row interface{ Scan(...any) error }) (*BackupRecord, error) {
	var r BackupRecord
	var createdAt any
	err := row.Scan(&r.ID, &r.Filename, &r.Path, &r.SizeBytes, &r.Mode, &createdAt)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = parseTime(createdAt)
	return &r, nil
}

func (db *DB) CreateBackupRecord(r *BackupRecord) error {
	id, err := db.insertRow(`INSERT INTO backup_records (filename, path, size_bytes, mode) VALUES (?, ?, ?, ?)`,
		r.Filename, r.Path, r.SizeBytes, r.Mode)
	if err != nil {
		return fmt.Errorf("create backup record: %w", err)
	}
	r.ID = id
	return nil
}

func (db *DB) GetBackupRecord(id int64) (*BackupRecord, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM backup_records WHERE id=?`, backupRecordSelectCols)), id)
	return scanBackupRecord(row)
}

func (db *DB) ListBackupRecords() ([]*BackupRecord, error) {
	rows, err := db.Query(fmt.Sprintf(`SELECT %s FROM backup_records ORDER BY id DESC`, backupRecordSelectCols))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []*BackupRecord
	for rows.Next() {
		r, err := scanBackupRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
