package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/carbonledger/verify-core/internal/core/domain"
	"github.com/carbonledger/verify-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore implements driven.SessionStore using PostgreSQL
type SessionStore struct {
	db *DB
}

// NewSessionStore creates a new SessionStore
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// GetSession retrieves a session by ID
func (s *SessionStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	query := `
		SELECT id, project_name, status, created_at, updated_at
		FROM sessions
		WHERE id = $1
	`

	var session domain.Session
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.ProjectName,
		&session.Status,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// SaveSession creates or updates a session
func (s *SessionStore) SaveSession(ctx context.Context, session *domain.Session) error {
	query := `
		INSERT INTO sessions (id, project_name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			project_name = EXCLUDED.project_name,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`

	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.ProjectName,
		session.Status,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// UpdateSessionStatus moves a session through its lifecycle
func (s *SessionStore) UpdateSessionStatus(ctx context.Context, id string, status domain.SessionStatus) error {
	query := `
		UPDATE sessions
		SET status = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// GetDocuments retrieves all documents attached to a session
func (s *SessionStore) GetDocuments(ctx context.Context, sessionID string) ([]*domain.Document, error) {
	query := `
		SELECT id, session_id, display_name, full_text, pages, updated_at
		FROM documents
		WHERE session_id = $1
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get documents: %w", err)
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		var doc domain.Document
		var pagesJSON []byte
		if err := rows.Scan(&doc.ID, &doc.SessionID, &doc.DisplayName, &doc.FullText, &pagesJSON, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if err := json.Unmarshal(pagesJSON, &doc.Pages); err != nil {
			return nil, fmt.Errorf("failed to unmarshal document pages: %w", err)
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// SaveDocuments attaches documents to a session
func (s *SessionStore) SaveDocuments(ctx context.Context, sessionID string, docs []*domain.Document) error {
	if len(docs) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO documents (id, session_id, display_name, full_text, pages, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (session_id, id) DO UPDATE SET
				display_name = EXCLUDED.display_name,
				full_text = EXCLUDED.full_text,
				pages = EXCLUDED.pages,
				updated_at = EXCLUDED.updated_at
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, doc := range docs {
			pagesJSON, err := json.Marshal(doc.Pages)
			if err != nil {
				return err
			}
			if doc.UpdatedAt.IsZero() {
				doc.UpdatedAt = time.Now().UTC()
			}
			if _, err := stmt.ExecContext(ctx, doc.ID, sessionID, doc.DisplayName, doc.FullText, pagesJSON, doc.UpdatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveEvidence replaces the evidence artifact for a session
func (s *SessionStore) SaveEvidence(ctx context.Context, sessionID string, evidence []*domain.RequirementEvidence) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		// Replace wholesale: stale rows from a previous run must not survive.
		if _, err := tx.ExecContext(ctx, `DELETE FROM evidence WHERE session_id = $1`, sessionID); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO evidence (session_id, requirement_id, body, created_at)
			VALUES ($1, $2, $3, $4)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		now := time.Now().UTC()
		for _, ev := range evidence {
			body, err := json.Marshal(ev)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, sessionID, ev.RequirementID, body, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetEvidence retrieves the evidence artifact for a session
func (s *SessionStore) GetEvidence(ctx context.Context, sessionID string) ([]*domain.RequirementEvidence, error) {
	query := `
		SELECT body
		FROM evidence
		WHERE session_id = $1
		ORDER BY requirement_id
	`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get evidence: %w", err)
	}
	defer rows.Close()

	var evidence []*domain.RequirementEvidence
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan evidence: %w", err)
		}
		var ev domain.RequirementEvidence
		if err := json.Unmarshal(body, &ev); err != nil {
			return nil, fmt.Errorf("failed to unmarshal evidence: %w", err)
		}
		evidence = append(evidence, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(evidence) == 0 {
		return nil, domain.ErrNotFound
	}
	return evidence, nil
}

// SaveValidation replaces the validation artifact for a session
func (s *SessionStore) SaveValidation(ctx context.Context, sessionID string, result *domain.ValidationResult) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal validation result: %w", err)
	}

	query := `
		INSERT INTO validations (session_id, body, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id) DO UPDATE SET
			body = EXCLUDED.body,
			created_at = EXCLUDED.created_at
	`

	if _, err := s.db.ExecContext(ctx, query, sessionID, body, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save validation result: %w", err)
	}
	return nil
}

// GetValidation retrieves the validation artifact for a session
func (s *SessionStore) GetValidation(ctx context.Context, sessionID string) (*domain.ValidationResult, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM validations WHERE session_id = $1`, sessionID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get validation result: %w", err)
	}

	var result domain.ValidationResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal validation result: %w", err)
	}
	return &result, nil
}

// Ping checks if the store is reachable
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close releases the underlying connection
func (s *SessionStore) Close() error {
	return s.db.Close()
}
