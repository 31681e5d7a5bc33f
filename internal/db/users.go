package db

import "database/sql"

type CreateUserInput struct {
	Email        string
	FullName     *string
	PasswordHash string
}

func (db *DB) CreateUser(in CreateUserInput) (*User, error) {
	id := NewID()
	_, err := db.Exec(`
		INSERT INTO users (id, email, full_name, password_hash)
		VALUES (?, ?, ?, ?)`,
		id, in.Email, in.FullName, in.PasswordHash)
	if err != nil {
		return nil, err
	}
	return db.GetUserByID(id)
}

func (db *DB) GetUserByID(id string) (*User, error) {
	row := db.QueryRow(`
		SELECT id, email, full_name, role, created_at, updated_at
		FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail returns the user and their password hash for login checks.
func (db *DB) GetUserByEmail(email string) (*User, string, error) {
	var u User
	var fullName sql.NullString
	var hash string
	err := db.QueryRow(`
		SELECT id, email, full_name, password_hash, role, created_at, updated_at
		FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &fullName, &hash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, "", err
	}
	if fullName.Valid {
		u.FullName = &fullName.String
	}
	return &u, hash, nil
}

// OldestUser returns the earliest-created user. It is the fallback owner for
// investigations bootstrapped by the agent without a prior UI-side creation.
// rowid breaks ties between users created within the same second.
func (db *DB) OldestUser() (*User, error) {
	row := db.QueryRow(`
		SELECT id, email, full_name, role, created_at, updated_at
		FROM users ORDER BY created_at, rowid LIMIT 1`)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var fullName sql.NullString
	if err := row.Scan(&u.ID, &u.Email, &fullName, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if fullName.Valid {
		u.FullName = &fullName.String
	}
	return &u, nil
}
