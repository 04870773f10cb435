package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ChecklistTemplate is one seed row for new check-ups. Templates are
// grouped by machine module and ordered by position within the module.
type ChecklistTemplate struct {
	ID        int64     `json:"id"`
	Module    string    `json:"module"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

const templateSelectCols = `id, module, title, position, active, created_at`

func scanTemplate(row interface{ Scan(...any) error }) (*ChecklistTemplate, error) {
	var t ChecklistTemplate
	var active, createdAt any
	if err := row.Scan(&t.ID, &t.Module, &t.Title, &t.Position, &active, &createdAt); err != nil {
		return nil, err
	}
	t.Active = parseBool(active)
	t.CreatedAt = parseTime(createdAt)
	return &t, nil
}

func scanTemplates(rows *sql.Rows) ([]*ChecklistTemplate, error) {
	var templates []*ChecklistTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (db *DB) CreateChecklistTemplate(t *ChecklistTemplate) error {
	id, err := db.insertRow(`INSERT INTO checklist_templates (module, title, position, active) VALUES (?, ?, ?, ?)`,
		t.Module, t.Title, t.Position, t.Active)
	if err != nil {
		return fmt.Errorf("create checklist template: %w", err)
	}
	t.ID = id
	return nil
}

func (db *DB) UpdateChecklistTemplate(t *ChecklistTemplate) error {
	_, err := db.Exec(db.Q(`UPDATE checklist_templates SET module=?, title=?, position=?, active=? WHERE id=?`),
		t.Module, t.Title, t.Position, t.Active, t.ID)
	return err
}

func (db *DB) DeleteChecklistTemplate(id int64) error {
	_, err := db.Exec(db.Q(`DELETE FROM checklist_templates WHERE id=?`), id)
	return err
}

func (db *DB) GetChecklistTemplate(id int64) (*ChecklistTemplate, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM checklist_templates WHERE id=?`, templateSelectCols)), id)
	return scanTemplate(row)
}

func (db *DB) ListChecklistTemplates() ([]*ChecklistTemplate, error) {
	rows, err := db.Query(fmt.Sprintf(`SELECT %s FROM checklist_templates ORDER BY module, position, id`, templateSelectCols))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTemplates(rows)
}

// ListActiveChecklistTemplates returns the templates that seed a new check-up.
func (db *DB) ListActiveChecklistTemplates() ([]*ChecklistTemplate, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM checklist_templates WHERE active=? ORDER BY module, position, id`, templateSelectCols)), true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTemplates(rows)
}
