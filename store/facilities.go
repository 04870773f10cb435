package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Facility is a client site that hosts one or more equipment islands.
type Facility struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Client       string    `json:"client"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	ContactName  string    `json:"contact_name"`
	ContactPhone string    `json:"contact_phone"`
	ContactEmail string    `json:"contact_email"`
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Joined fields
	IslandCount int `json:"island_count"`
}

const facilitySelectCols = `f.id, f.name, f.client, f.address, f.city, f.contact_name, f.contact_phone, f.contact_email, f.notes, f.created_at, f.updated_at,
	(SELECT COUNT(*) FROM islands i WHERE i.facility_id = f.id)`

func scanFacility(row interface{ Scan(...any) error }) (*Facility, error) {
	var f Facility
	var createdAt, updatedAt any
	err := row.Scan(&f.ID, &f.Name, &f.Client, &f.Address, &f.City, &f.ContactName, &f.ContactPhone, &f.ContactEmail, &f.Notes,
		&createdAt, &updatedAt, &f.IslandCount)
	if err != nil {
		return nil, err
	}
	f.CreatedAt = parseTime(createdAt)
	f.UpdatedAt = parseTime(updatedAt)
	return &f, nil
}

func scanFacilities(rows *sql.Rows) ([]*Facility, error) {
	var facilities []*Facility
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, err
		}
		facilities = append(facilities, f)
	}
	return facilities, rows.Err()
}

func (db *DB) CreateFacility(f *Facility) error {
	id, err := db.insertRow(`INSERT INTO facilities (name, client, address, city, contact_name, contact_phone, contact_email, notes) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.Name, f.Client, f.Address, f.City, f.ContactName, f.ContactPhone, f.ContactEmail, f.Notes)
	if err != nil {
		return fmt.Errorf("create facility: %w", err)
	}
	f.ID = id
	return nil
}

func (db *DB) UpdateFacility(f *Facility) error {
	_, err := db.Exec(db.Q(`UPDATE facilities SET name=?, client=?, address=?, city=?, contact_name=?, contact_phone=?, contact_email=?, notes=?, updated_at=datetime('now','localtime') WHERE id=?`),
		f.Name, f.Client, f.Address, f.City, f.ContactName, f.ContactPhone, f.ContactEmail, f.Notes, f.ID)
	if err != nil {
		return fmt.Errorf("update facility: %w", err)
	}
	return nil
}

func (db *DB) DeleteFacility(id int64) error {
	_, err := db.Exec(db.Q(`DELETE FROM facilities WHERE id=?`), id)
	return err
}

func (db *DB) GetFacility(id int64) (*Facility, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM facilities f WHERE f.id=?`, facilitySelectCols)), id)
	return scanFacility(row)
}

func (db *DB) ListFacilities() ([]*Facility, error) {
	rows, err := db.Query(fmt.Sprintf(`SELECT %s FROM facilities f ORDER BY f.client, f.name`, facilitySelectCols))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFacilities(rows)
}
