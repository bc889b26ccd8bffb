package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/melodymix/melodyctl/internal/models"
)

// CredentialRepository is the durable mirror of the session's user record
// and bearer token. The pair is written atomically in one transaction and
// must never diverge from the in-memory session for longer than one action.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new [CredentialRepository] with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Save writes the user/token pair as a single row, replacing any previous
// credentials. The two values are always written together.
func (r *CredentialRepository) Save(user *models.UserRecord, token string) error {
	if token == "" {
		return fmt.Errorf("refusing to save empty token")
	}

	var userJSON sql.NullString
	if user != nil {
		data, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("failed to encode user record: %w", err)
		}
		userJSON = sql.NullString{String: string(data), Valid: true}
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM credentials"); err != nil {
		return fmt.Errorf("failed to clear previous credentials: %w", err)
	}

	query := `
		INSERT INTO credentials (id, user_json, jwt_token, updated_at) VALUES (1, ?, ?, CURRENT_TIMESTAMP)
	`
	if _, err := tx.Exec(query, userJSON, token); err != nil {
		return fmt.Errorf("failed to insert credentials: %w", err)
	}

	return tx.Commit()
}

// Load returns the stored user record and token. A missing row yields both
// absent; a malformed stored user record fails soft to an absent user so a
// token-only session can still rehydrate over the network.
func (r *CredentialRepository) Load() (*models.UserRecord, string, error) {
	var (
		userJSON sql.NullString
		token    string
	)

	err := r.db.QueryRow("SELECT user_json, jwt_token FROM credentials WHERE id = 1").Scan(&userJSON, &token)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to query credentials: %w", err)
	}

	var user *models.UserRecord
	if userJSON.Valid && userJSON.String != "" {
		var record models.UserRecord
		if err := json.Unmarshal([]byte(userJSON.String), &record); err == nil {
			user = &record
		}
	}

	return user, token, nil
}

// Token returns the stored bearer token or the empty string. Used by the
// gateway's bearer stage on every outgoing request.
func (r *CredentialRepository) Token() string {
	var token string
	err := r.db.QueryRow("SELECT jwt_token FROM credentials WHERE id = 1").Scan(&token)
	if err != nil {
		return ""
	}
	return token
}

// Clear removes the stored pair. Safe to call when nothing is stored.
func (r *CredentialRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM credentials"); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
