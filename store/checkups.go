package store

import (
	"database/sql"
	"fmt"
	"time"
)

// CheckUp is one maintenance visit on an island.
type CheckUp struct {
	ID           int64      `json:"id"`
	UUID         string     `json:"uuid"`
	IslandID     int64      `json:"island_id"`
	Technician   string     `json:"technician"`
	Status       string     `json:"status"`
	ScheduledFor *time.Time `json:"scheduled_for"`
	StartedAt    *time.Time `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	Summary      string     `json:"summary"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Joined fields
	IslandName   string `json:"island_name"`
	SerialNumber string `json:"serial_number"`
	FacilityName string `json:"facility_name"`
	Client       string `json:"client"`
}

// CheckUpHistory records one lifecycle transition.
type CheckUpHistory struct {
	ID        int64     `json:"id"`
	CheckUpID int64     `json:"checkup_id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

const checkupSelectCols = `c.id, c.uuid, c.island_id, c.technician, c.status, c.scheduled_for, c.started_at, c.completed_at, c.summary, c.created_at, c.updated_at,
	COALESCE(i.name, ''), COALESCE(i.serial_number, ''), COALESCE(f.name, ''), COALESCE(f.client, '')`

const checkupJoin = `FROM checkups c
	LEFT JOIN islands i ON i.id = c.island_id
	LEFT JOIN facilities f ON f.id = i.facility_id`

func scanCheckUp(row interface{ Scan(...any) error }) (*CheckUp, error) {
	var c CheckUp
	var scheduledFor, startedAt, completedAt any
	var createdAt, updatedAt any
	err := row.Scan(&c.ID, &c.UUID, &c.IslandID, &c.Technician, &c.Status,
		&scheduledFor, &startedAt, &completedAt, &c.Summary, &createdAt, &updatedAt,
		&c.IslandName, &c.SerialNumber, &c.FacilityName, &c.Client)
	if err != nil {
		return nil, err
	}
	c.ScheduledFor = parseTimePtr(scheduledFor)
	c.StartedAt = parseTimePtr(startedAt)
	c.CompletedAt = parseTimePtr(completedAt)
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return &c, nil
}

func scanCheckUps(rows *sql.Rows) ([]*CheckUp, error) {
	var checkups []*CheckUp
	for rows.Next() {
		c, err := scanCheckUp(rows)
		if err != nil {
			return nil, err
		}
		checkups = append(checkups, c)
	}
	return checkups, rows.Err()
}

func (db *DB) CreateCheckUp(c *CheckUp) error {
	var scheduledFor any
	if c.ScheduledFor != nil {
		scheduledFor = c.ScheduledFor.Format("2006-01-02 15:04:05")
	}
	id, err := db.insertRow(`INSERT INTO checkups (uuid, island_id, technician, status, scheduled_for) VALUES (?, ?, ?, ?, ?)`,
		c.UUID, c.IslandID, c.Technician, c.Status, scheduledFor)
	if err != nil {
		return fmt.Errorf("create checkup: %w", err)
	}
	c.ID = id
	return nil
}

func (db *DB) GetCheckUp(id int64) (*CheckUp, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s %s WHERE c.id=?`, checkupSelectCols, checkupJoin)), id)
	return scanCheckUp(row)
}

func (db *DB) GetCheckUpByUUID(uuid string) (*CheckUp, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s %s WHERE c.uuid=?`, checkupSelectCols, checkupJoin)), uuid)
	return scanCheckUp(row)
}

// ListCheckUps returns check-ups newest first, optionally filtered by
// status and/or island. Zero values mean no filter.
func (db *DB) ListCheckUps(status string, islandID int64) ([]*CheckUp, error) {
	query := fmt.Sprintf(`SELECT %s %s`, checkupSelectCols, checkupJoin)
	var args []any
	switch {
	case status != "" && islandID != 0:
		query += ` WHERE c.status=? AND c.island_id=?`
		args = append(args, status, islandID)
	case status != "":
		query += ` WHERE c.status=?`
		args = append(args, status)
	case islandID != 0:
		query += ` WHERE c.island_id=?`
		args = append(args, islandID)
	}
	query += ` ORDER BY c.created_at DESC, c.id DESC`
	rows, err := db.Query(db.Q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCheckUps(rows)
}

func (db *DB) UpdateCheckUpStatus(id int64, newStatus string) error {
	_, err := db.Exec(db.Q(`UPDATE checkups SET status=?, updated_at=datetime('now','localtime') WHERE id=?`), newStatus, id)
	return err
}

// MarkCheckUpStarted stamps started_at alongside the status change.
func (db *DB) MarkCheckUpStarted(id int64, newStatus string) error {
	_, err := db.Exec(db.Q(`UPDATE checkups SET status=?, started_at=datetime('now','localtime'), updated_at=datetime('now','localtime') WHERE id=?`), newStatus, id)
	return err
}

// MarkCheckUpCompleted stamps completed_at alongside the status change.
func (db *DB) MarkCheckUpCompleted(id int64, newStatus string) error {
	_, err := db.Exec(db.Q(`UPDATE checkups SET status=?, completed_at=datetime('now','localtime'), updated_at=datetime('now','localtime') WHERE id=?`), newStatus, id)
	return err
}

func (db *DB) UpdateCheckUpSummary(id int64, technician, summary string) error {
	_, err := db.Exec(db.Q(`UPDATE checkups SET technician=?, summary=?, updated_at=datetime('now','localtime') WHERE id=?`), technician, summary, id)
	return err
}

func (db *DB) DeleteCheckUp(id int64) error {
	_, err := db.Exec(db.Q(`DELETE FROM checkups WHERE id=?`), id)
	return err
}

func (db *DB) CountCheckUpsByStatus(status string) (int, error) {
	var count int
	err := db.QueryRow(db.Q(`SELECT COUNT(*) FROM checkups WHERE status=?`), status).Scan(&count)
	return count, err
}

func (db *DB) InsertCheckUpHistory(checkupID int64, oldStatus, newStatus, detail string) error {
	_, err := db.Exec(db.Q(`INSERT INTO checkup_history (checkup_id, old_status, new_status, detail) VALUES (?, ?, ?, ?)`),
		checkupID, oldStatus, newStatus, detail)
	return err
}

func (db *DB) ListCheckUpHistory(checkupID int64) ([]CheckUpHistory, error) {
	rows, err := db.Query(db.Q(`SELECT id, checkup_id, old_status, new_status, detail, created_at FROM checkup_history WHERE checkup_id = ? ORDER BY id`), checkupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var history []CheckUpHistory
	for rows.Next() {
		var h CheckUpHistory
		var createdAt any
		if err := rows.Scan(&h.ID, &h.CheckUpID, &h.OldStatus, &h.NewStatus, &h.Detail, &createdAt); err != nil {
			return nil, err
		}
		h.CreatedAt = parseTime(createdAt)
		history = append(history, h)
	}
	return history, rows.Err()
}
