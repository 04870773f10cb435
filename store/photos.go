package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Photo is the metadata row for one stored image. The binary lives on
// disk under the photo dir, named by UUID.
type Photo struct {
	ID           int64     `json:"id"`
	UUID         string    `json:"uuid"`
	CheckUpID    int64     `json:"checkup_id"`
	CheckItemID  *int64    `json:"check_item_id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	Caption      string    `json:"caption"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	CreatedAt    time.Time `json:"created_at"`
}

const photoSelectCols = `id, uuid, checkup_id, check_item_id, filename, original_name, caption, content_type, size_bytes, created_at`

func scanPhoto(row interface{ Scan(...any) error }) (*Photo, error) {
	var p Photo
	var itemID sql.NullInt64
	var createdAt any
	err := row.Scan(&p.ID, &p.UUID, &p.CheckUpID, &itemID, &p.Filename, &p.OriginalName, &p.Caption, &p.ContentType, &p.SizeBytes, &createdAt)
	if err != nil {
		return nil, err
	}
	if itemID.Valid {
		p.CheckItemID = &itemID.Int64
	}
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

func scanPhotos(rows *sql.Rows) ([]*Photo, error) {
	var photos []*Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

func (db *DB) CreatePhoto(p *Photo) error {
	var itemID any
	if p.CheckItemID != nil {
		itemID = *p.CheckItemID
	}
	id, err := db.insertRow(`INSERT INTO photos (uuid, checkup_id, check_item_id, filename, original_name, caption, content_type, size_bytes) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UUID, p.CheckUpID, itemID, p.Filename, p.OriginalName, p.Caption, p.ContentType, p.SizeBytes)
	if err != nil {
		return fmt.Errorf("create photo: %w", err)
	}
	p.ID = id
	return nil
}

func (db *DB) UpdatePhotoCaption(id int64, caption string) error {
	_, err := db.Exec(db.Q(`UPDATE photos SET caption=? WHERE id=?`), caption, id)
	return err
}

func (db *DB) DeletePhoto(id int64) error {
	_, err := db.Exec(db.Q(`DELETE FROM photos WHERE id=?`), id)
	return err
}

func (db *DB) GetPhoto(id int64) (*Photo, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM photos WHERE id=?`, photoSelectCols)), id)
	return scanPhoto(row)
}

func (db *DB) GetPhotoByUUID(uuid string) (*Photo, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM photos WHERE uuid=?`, photoSelectCols)), uuid)
	return scanPhoto(row)
}

func (db *DB) ListPhotos(checkupID int64) ([]*Photo, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM photos WHERE checkup_id=? ORDER BY id`, photoSelectCols)), checkupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPhotos(rows)
}

func (db *DB) ListPhotosByItem(itemID int64) ([]*Photo, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM photos WHERE check_item_id=? ORDER BY id`, photoSelectCols)), itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPhotos(rows)
}

func (db *DB) CountPhotos(checkupID int64) (int, error) {
	var count int
	err := db.QueryRow(db.Q(`SELECT COUNT(*) FROM photos WHERE checkup_id=?`), checkupID).Scan(&count)
	return count, err
}
