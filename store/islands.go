package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Island is a robot island or equipment unit installed at a facility.
type Island struct {
	ID           int64     `json:"id"`
	FacilityID   int64     `json:"facility_id"`
	Name         string    `json:"name"`
	Designation  string    `json:"designation"`
	SerialNumber string    `json:"serial_number"`
	Manufacturer string    `json:"manufacturer"`
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Joined fields
	FacilityName string `json:"facility_name"`
	Client       string `json:"client"`
}

const islandSelectCols = `i.id, i.facility_id, i.name, i.designation, i.serial_number, i.manufacturer, i.notes, i.created_at, i.updated_at,
	COALESCE(f.name, ''), COALESCE(f.client, '')`

const islandJoin = `FROM islands i
	LEFT JOIN facilities f ON f.id = i.facility_id`

func scanIsland(row interface{ Scan(...any) error }) (*Island, error) {
	var is Island
	var createdAt, updatedAt any
	err := row.Scan(&is.ID, &is.FacilityID, &is.Name, &is.Designation, &is.SerialNumber, &is.Manufacturer, &is.Notes,
		&createdAt, &updatedAt, &is.FacilityName, &is.Client)
	if err != nil {
		return nil, err
	}
	is.CreatedAt = parseTime(createdAt)
	is.UpdatedAt = parseTime(updatedAt)
	return &is, nil
}

func scanIslands(rows *sql.Rows) ([]*Island, error) {
	var islands []*Island
	for rows.Next() {
		is, err := scanIsland(rows)
		if err != nil {
			return nil, err
		}
		islands = append(islands, is)
	}
	return islands, rows.Err()
}

func (db *DB) CreateIsland(is *Island) error {
	id, err := db.insertRow(`INSERT INTO islands (facility_id, name, designation, serial_number, manufacturer, notes) VALUES (?, ?, ?, ?, ?, ?)`,
		is.FacilityID, is.Name, is.Designation, is.SerialNumber, is.Manufacturer, is.Notes)
	if err != nil {
		return fmt.Errorf("create island: %w", err)
	}
	is.ID = id
	return nil
}

func (db *DB) UpdateIsland(is *Island) error {
	_, err := db.Exec(db.Q(`UPDATE islands SET facility_id=?, name=?, designation=?, serial_number=?, manufacturer=?, notes=?, updated_at=datetime('now','localtime') WHERE id=?`),
		is.FacilityID, is.Name, is.Designation, is.SerialNumber, is.Manufacturer, is.Notes, is.ID)
	if err != nil {
		return fmt.Errorf("update island: %w", err)
	}
	return nil
}

func (db *DB) DeleteIsland(id int64) error {
	_, err := db.Exec(db.Q(`DELETE FROM islands WHERE id=?`), id)
	return err
}

func (db *DB) GetIsland(id int64) (*Island, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s %s WHERE i.id=?`, islandSelectCols, islandJoin)), id)
	return scanIsland(row)
}

// ListIslands returns islands ordered by facility and name. A zero
// facilityID means no filter.
func (db *DB) ListIslands(facilityID int64) ([]*Island, error) {
	query := fmt.Sprintf(`SELECT %s %s`, islandSelectCols, islandJoin)
	var args []any
	if facilityID != 0 {
		query += ` WHERE i.facility_id=?`
		args = append(args, facilityID)
	}
	query += ` ORDER BY COALESCE(f.name, ''), i.name`
	rows, err := db.Query(db.Q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIslands(rows)
}

// FindIsland locates an island by facility and island name.
// Used when the back office assigns work by name rather than id.
func (db *DB) FindIsland(facilityName, islandName string) (*Island, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s %s WHERE f.name=? AND i.name=?`, islandSelectCols, islandJoin)), facilityName, islandName)
	return scanIsland(row)
}

// FindIslandBySerial locates an island by its serial number.
func (db *DB) FindIslandBySerial(serial string) (*Island, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s %s WHERE i.serial_number=?`, islandSelectCols, islandJoin)), serial)
	return scanIsland(row)
}
