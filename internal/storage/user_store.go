// Package storage provides persistence for GlassDesk.
package storage

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/glassdesk/glassdesk/internal/core"
)

// UserStore handles user persistence
type UserStore struct {
	db *DB
}

// NewUserStore creates a new user store
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// Create creates a new user. An empty ID gets a fresh UUID.
func (s *UserStore) Create(user *core.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.db.conn.Exec(`
		INSERT INTO users (id, email, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, user.ID, user.Email, user.Name, user.CreatedAt, user.UpdatedAt)

	return err
}

// GetByID returns a user by ID
func (s *UserStore) GetByID(id string) (*core.User, error) {
	user := &core.User{}

	err := s.db.conn.QueryRow(`
		SELECT id, email, name, created_at, updated_at
		FROM users WHERE id = ?
	`, id).Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, core.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetByEmail returns a user by email address
func (s *UserStore) GetByEmail(email string) (*core.User, error) {
	user := &core.User{}

	err := s.db.conn.QueryRow(`
		SELECT id, email, name, created_at, updated_at
		FROM users WHERE email = ?
	`, email).Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, core.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetOrCreate returns the user with the given email, creating one when
// none exists. OAuth callbacks use this on first sign-in.
func (s *UserStore) GetOrCreate(email, name string) (*core.User, error) {
	user, err := s.GetByEmail(email)
	if err == nil {
		return user, nil
	}
	if err != core.ErrUserNotFound {
		return nil, err
	}

	user = &core.User{Email: email, Name: name}
	if err := s.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Update updates a user's mutable fields
func (s *UserStore) Update(user *core.User) error {
	user.UpdatedAt = time.Now().UTC()

	_, err := s.db.conn.Exec(`
		UPDATE users SET email = ?, name = ?, updated_at = ? WHERE id = ?
	`, user.Email, user.Name, user.UpdatedAt, user.ID)

	return err
}

// Delete removes a user and, through cascades, their records and tokens
func (s *UserStore) Delete(id string) error {
	res, err := s.db.conn.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrUserNotFound
	}
	return nil
}

// List returns all users ordered by creation time
func (s *UserStore) List() ([]*core.User, error) {
	rows, err := s.db.conn.Query(`
		SELECT id, email, name, created_at, updated_at
		FROM users ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*core.User
	for rows.Next() {
		user := &core.User{}
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Count returns the total user count
func (s *UserStore) Count() (int, error) {
	var count int
	err := s.db.conn.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}
