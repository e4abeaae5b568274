// Package storage provides persistence for GlassDesk.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Cipher encrypts and decrypts token payloads before they touch disk.
// The auth vault implements it.
type Cipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// TokenRecord is stored token metadata, returned without decrypting
type TokenRecord struct {
	ID        string
	UserID    string
	Provider  string
	TokenType string
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TokenStore manages OAuth token persistence with encryption. Tokens
// are keyed by (user, provider); storing again replaces the previous
// token.
type TokenStore struct {
	db     *DB
	cipher Cipher
}

// NewTokenStore creates a new token store
func NewTokenStore(db *DB, cipher Cipher) *TokenStore {
	return &TokenStore{db: db, cipher: cipher}
}

// Store saves an encrypted token for a user and provider
func (s *TokenStore) Store(userID, provider, tokenType string, data []byte, expiresAt *time.Time) error {
	encrypted, err := s.cipher.Encrypt(data)
	if err != nil {
		return fmt.Errorf("encrypt token: %w", err)
	}

	now := time.Now().UTC()

	var existingID string
	err = s.db.conn.QueryRow(`
		SELECT id FROM tokens WHERE user_id = ? AND provider = ?
	`, userID, provider).Scan(&existingID)

	if err == sql.ErrNoRows {
		_, err = s.db.conn.Exec(`
			INSERT INTO tokens (
				id, user_id, provider, encrypted_data, token_type,
				expires_at, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, uuid.New().String(), userID, provider, encrypted, tokenType, expiresAt, now, now)
		if err != nil {
			return fmt.Errorf("insert token: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("check existing: %w", err)
	}

	_, err = s.db.conn.Exec(`
		UPDATE tokens SET
			encrypted_data = ?, token_type = ?, expires_at = ?, updated_at = ?
		WHERE id = ?
	`, encrypted, tokenType, expiresAt, now, existingID)
	if err != nil {
		return fmt.Errorf("update token: %w", err)
	}

	return nil
}

// Get retrieves and decrypts a user's token for a provider. Returns
// nil with no error when none is stored.
func (s *TokenStore) Get(userID, provider string) ([]byte, error) {
	var encrypted []byte
	err := s.db.conn.QueryRow(`
		SELECT encrypted_data FROM tokens WHERE user_id = ? AND provider = ?
	`, userID, provider).Scan(&encrypted)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query token: %w", err)
	}

	decrypted, err := s.cipher.Decrypt(encrypted)
	if err != nil {
		return nil, fmt.Errorf("decrypt token: %w", err)
	}

	return decrypted, nil
}

// GetRecord retrieves token metadata without decrypting the payload
func (s *TokenStore) GetRecord(userID, provider string) (*TokenRecord, error) {
	var record TokenRecord
	var expiresAt sql.NullTime

	err := s.db.conn.QueryRow(`
		SELECT id, user_id, provider, token_type, expires_at, created_at, updated_at
		FROM tokens WHERE user_id = ? AND provider = ?
	`, userID, provider).Scan(
		&record.ID,
		&record.UserID,
		&record.Provider,
		&record.TokenType,
		&expiresAt,
		&record.CreatedAt,
		&record.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query token: %w", err)
	}

	if expiresAt.Valid {
		record.ExpiresAt = &expiresAt.Time
	}

	return &record, nil
}

// ListProviders returns the providers a user has stored tokens for
func (s *TokenStore) ListProviders(userID string) ([]string, error) {
	rows, err := s.db.conn.Query(`
		SELECT provider FROM tokens WHERE user_id = ? ORDER BY provider
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query providers: %w", err)
	}
	defer rows.Close()

	var providers []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}

	return providers, rows.Err()
}

// Delete removes a user's token for a provider
func (s *TokenStore) Delete(userID, provider string) error {
	_, err := s.db.conn.Exec(`
		DELETE FROM tokens WHERE user_id = ? AND provider = ?
	`, userID, provider)
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// Exists checks whether a user has a token for a provider
func (s *TokenStore) Exists(userID, provider string) (bool, error) {
	var count int
	err := s.db.conn.QueryRow(`
		SELECT COUNT(*) FROM tokens WHERE user_id = ? AND provider = ?
	`, userID, provider).Scan(&count)

	if err != nil {
		return false, fmt.Errorf("check exists: %w", err)
	}

	return count > 0, nil
}

// GetExpiring returns tokens expiring within the given duration, across
// all users. The scheduler uses this to refresh proactively.
func (s *TokenStore) GetExpiring(within time.Duration) ([]*TokenRecord, error) {
	threshold := time.Now().Add(within)

	rows, err := s.db.conn.Query(`
		SELECT id, user_id, provider, token_type, expires_at, created_at, updated_at
		FROM tokens
		WHERE expires_at IS NOT NULL AND expires_at < ?
	`, threshold)
	if err != nil {
		return nil, fmt.Errorf("query expiring: %w", err)
	}
	defer rows.Close()

	var records []*TokenRecord
	for rows.Next() {
		var record TokenRecord
		var expiresAt sql.NullTime

		err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.Provider,
			&record.TokenType,
			&expiresAt,
			&record.CreatedAt,
			&record.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}

		if expiresAt.Valid {
			record.ExpiresAt = &expiresAt.Time
		}

		records = append(records, &record)
	}

	return records, rows.Err()
}
