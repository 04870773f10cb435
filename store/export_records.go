package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ExportRecord tracks one export run for a check-up.
type ExportRecord struct {
	ID          int64      `json:"id"`
	UUID        string     `json:"uuid"`
	CheckUpID   int64      `json:"checkup_id"`
	Format      string     `json:"format"`
	Status      string     `json:"status"`
	Path        string     `json:"path"`
	SizeBytes   int64      `json:"size_bytes"`
	ErrorDetail string     `json:"error_detail"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

const exportRecordSelectCols = `id, uuid, checkup_id, format, status, path, size_bytes, error_detail, created_at, completed_at`

func scanExportRecord(row interface{ Scan(...any) error }) (*ExportRecord, error) {
	var r ExportRecord
	var createdAt, completedAt any
	err := row.Scan(&r.ID, &r.UUID, &r.CheckUpID, &r.Format, &r.Status, &r.Path, &r.SizeBytes, &r.ErrorDetail, &createdAt, &completedAt)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = parseTime(createdAt)
	r.CompletedAt = parseTimePtr(completedAt)
	return &r, nil
}

func scanExportRecords(rows *sql.Rows) ([]*ExportRecord, error) {
	var records []*ExportRecord
	for rows.Next() {
		r, err := scanExportRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (db *DB) CreateExportRecord(r *ExportRecord) error {
	id, err := db.insertRow(`INSERT INTO export_records (uuid, checkup_id, format, status) VALUES (?, ?, ?, ?)`,
		r.UUID, r.CheckUpID, r.Format, r.Status)
	if err != nil {
		return fmt.Errorf("create export record: %w", err)
	}
	r.ID = id
	return nil
}

func (db *DB) MarkExportRunning(id int64) error {
	_, err := db.Exec(db.Q(`UPDATE export_records SET status='running', error_detail='' WHERE id=?`), id)
	return err
}

func (db *DB) MarkExportCompleted(id int64, path string, sizeBytes int64) error {
	_, err := db.Exec(db.Q(`UPDATE export_records SET status='completed', path=?, size_bytes=?, error_detail='', completed_at=datetime('now','localtime') WHERE id=?`),
		path, sizeBytes, id)
	return err
}

func (db *DB) MarkExportFailed(id int64, detail string) error {
	_, err := db.Exec(db.Q(`UPDATE export_records SET status='failed', error_detail=? WHERE id=?`), detail, id)
	return err
}

func (db *DB) GetExportRecord(id int64) (*ExportRecord, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM export_records WHERE id=?`, exportRecordSelectCols)), id)
	return scanExportRecord(row)
}

func (db *DB) ListExportRecords(checkupID int64) ([]*ExportRecord, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM export_records WHERE checkup_id=? ORDER BY id DESC`, exportRecordSelectCols)), checkupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanExportRecords(rows)
}
