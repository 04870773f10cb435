package store

import (
	"database/sql"
	"fmt"
	"time"
)

// SparePart is a replacement part the technician flagged during a check-up.
type SparePart struct {
	ID         int64     `json:"id"`
	CheckUpID  int64     `json:"checkup_id"`
	Name       string    `json:"name"`
	PartNumber string    `json:"part_number"`
	Quantity   int       `json:"quantity"`
	Urgent     bool      `json:"urgent"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

const sparePartSelectCols = `id, checkup_id, name, part_number, quantity, urgent, note, created_at, updated_at`

func scanSparePart(row interface{ Scan(...any) error }) (*SparePart, error) {
	var p SparePart
	var urgent, createdAt, updatedAt any
	err := row.Scan(&p.ID, &p.CheckUpID, &p.Name, &p.PartNumber, &p.Quantity, &urgent, &p.Note, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	p.Urgent = parseBool(urgent)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

func scanSpareParts(rows *sql.Rows) ([]*SparePart, error) {
	var parts []*SparePart
	for rows.Next() {
		p, err := scanSparePart(rows)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

func (db *DB) CreateSparePart(p *SparePart) error {
	if p.Quantity < 1 {
		p.Quantity = 1
	}
	id, err := db.insertRow(`INSERT INTO spare_parts (checkup_id, name, part_number, quantity, urgent, note) VALUES (?, ?, ?, ?, ?, ?)`,
		p.CheckUpID, p.Name, p.PartNumber, p.Quantity, p.Urgent, p.Note)
	if err != nil {
		return fmt.Errorf("create spare part: %w", err)
	}
	p.ID = id
	return nil
}

func (db *DB) UpdateSparePart(p *SparePart) error {
	_, err := db.Exec(db.Q(`UPDATE spare_parts SET name=?, part_number=?, quantity=?, urgent=?, note=?, updated_at=datetime('now','localtime') WHERE id=?`),
		p.Name, p.PartNumber, p.Quantity, p.Urgent, p.Note, p.ID)
	return err
}

func (db *DB) DeleteSparePart(id int64) error {
	_, err := db.Exec(db.Q(`DELETE FROM spare_parts WHERE id=?`), id)
	return err
}

func (db *DB) GetSparePart(id int64) (*SparePart, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM spare_parts WHERE id=?`, sparePartSelectCols)), id)
	return scanSparePart(row)
}

func (db *DB) ListSpareParts(checkupID int64) ([]*SparePart, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM spare_parts WHERE checkup_id=? ORDER BY id`, sparePartSelectCols)), checkupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSpareParts(rows)
}

func (db *DB) CountSpareParts(checkupID int64) (int, error) {
	var count int
	err := db.QueryRow(db.Q(`SELECT COUNT(*) FROM spare_parts WHERE checkup_id=?`), checkupID).Scan(&count)
	return count, err
}
