package store

import (
	"database/sql"
	"fmt"
	"time"
)

// CheckItem is one checklist entry of a check-up, grouped under a
// machine module (e.g. "conveyor", "safety", "electrical").
type CheckItem struct {
	ID        int64     `json:"id"`
	CheckUpID int64     `json:"checkup_id"`
	Module    string    `json:"module"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	Status    string    `json:"status"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const checkItemSelectCols = `id, checkup_id, module, title, position, status, comment, created_at, updated_at`

func scanCheckItem(row interface{ Scan(...any) error }) (*CheckItem, error) {
	var it CheckItem
	var createdAt, updatedAt any
	err := row.Scan(&it.ID, &it.CheckUpID, &it.Module, &it.Title, &it.Position, &it.Status, &it.Comment, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	it.CreatedAt = parseTime(createdAt)
	it.UpdatedAt = parseTime(updatedAt)
	return &it, nil
}

func scanCheckItems(rows *sql.Rows) ([]*CheckItem, error) {
	var items []*CheckItem
	for rows.Next() {
		it, err := scanCheckItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (db *DB) CreateCheckItem(it *CheckItem) error {
	if it.Status == "" {
		it.Status = "pending"
	}
	id, err := db.insertRow(`INSERT INTO check_items (checkup_id, module, title, position, status, comment) VALUES (?, ?, ?, ?, ?, ?)`,
		it.CheckUpID, it.Module, it.Title, it.Position, it.Status, it.Comment)
	if err != nil {
		return fmt.Errorf("create check item: %w", err)
	}
	it.ID = id
	return nil
}

// SeedCheckItems inserts the template rows for a new check-up in one
// transaction. A half-seeded checklist is worse than none.
func (db *DB) SeedCheckItems(checkupID int64, templates []*ChecklistTemplate) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed check items: %w", err)
	}
	defer tx.Rollback()
	for _, t := range templates {
		_, err := tx.Exec(db.Q(`INSERT INTO check_items (checkup_id, module, title, position) VALUES (?, ?, ?, ?)`),
			checkupID, t.Module, t.Title, t.Position)
		if err != nil {
			return fmt.Errorf("seed check items: %w", err)
		}
	}
	return tx.Commit()
}

func (db *DB) GetCheckItem(id int64) (*CheckItem, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM check_items WHERE id=?`, checkItemSelectCols)), id)
	return scanCheckItem(row)
}

func (db *DB) ListCheckItems(checkupID int64) ([]*CheckItem, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM check_items WHERE checkup_id=? ORDER BY module, position, id`, checkItemSelectCols)), checkupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCheckItems(rows)
}

func (db *DB) UpdateCheckItemStatus(id int64, status string) error {
	_, err := db.Exec(db.Q(`UPDATE check_items SET status=?, updated_at=datetime('now','localtime') WHERE id=?`), status, id)
	return err
}

func (db *DB) UpdateCheckItemComment(id int64, comment string) error {
	_, err := db.Exec(db.Q(`UPDATE check_items SET comment=?, updated_at=datetime('now','localtime') WHERE id=?`), comment, id)
	return err
}

func (db *DB) DeleteCheckItem(id int64) error {
	_, err := db.Exec(db.Q(`DELETE FROM check_items WHERE id=?`), id)
	return err
}

// CountItemsByStatus returns item counts per status for one check-up.
func (db *DB) CountItemsByStatus(checkupID int64) (map[string]int, error) {
	rows, err := db.Query(db.Q(`SELECT status, COUNT(*) FROM check_items WHERE checkup_id=? GROUP BY status`), checkupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (db *DB) CountPendingItems(checkupID int64) (int, error) {
	var count int
	err := db.QueryRow(db.Q(`SELECT COUNT(*) FROM check_items WHERE checkup_id=? AND status='pending'`), checkupID).Scan(&count)
	return count, err
}
