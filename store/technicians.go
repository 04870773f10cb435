package store

import "time"

// Technician is a user who can sign in to the service.
type Technician struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func scanTechnician(row interface{ Scan(...any) error }) (*Technician, error) {
	var t Technician
	var createdAt any
	err := row.Scan(&t.ID, &t.Username, &t.FullName, &t.PasswordHash, &createdAt)
	if err != nil {
		return nil, err
	}
	t.CreatedAt = parseTime(createdAt)
	return &t, nil
}

func (db *DB) GetTechnician(username string) (*Technician, error) {
	row := db.QueryRow(db.Q(`SELECT id, username, full_name, password_hash, created_at FROM technicians WHERE username = ?`), username)
	return scanTechnician(row)
}

func (db *DB) CreateTechnician(username, fullName, passwordHash string) (int64, error) {
	return db.insertRow(`INSERT INTO technicians (username, full_name, password_hash) VALUES (?, ?, ?)`,
		username, fullName, passwordHash)
}

func (db *DB) UpdateTechnicianPassword(username, passwordHash string) error {
	_, err := db.Exec(db.Q(`UPDATE technicians SET password_hash = ? WHERE username = ?`), passwordHash, username)
	return err
}

func (db *DB) TechnicianExists() (bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM technicians`).Scan(&count)
	return count > 0, err
}

func (db *DB) ListTechnicians() ([]*Technician, error) {
	rows, err := db.Query(`SELECT id, username, full_name, password_hash, created_at FROM technicians ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var techs []*Technician
	for rows.Next() {
		t, err := scanTechnician(rows)
		if err != nil {
			return nil, err
		}
		techs = append(techs, t)
	}
	return techs, rows.Err()
}
