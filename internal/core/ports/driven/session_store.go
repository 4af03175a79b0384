package driven

import (
	"context"

	"github.com/carbonledger/verify-core/internal/core/domain"
)

// SessionStore persists review sessions, their documents, and the two
// artifacts the core produces: the evidence set and the validation result.
// Both artifacts are replaced wholesale on re-run, never patched.
type SessionStore interface {
	// GetSession retrieves a session by ID
	GetSession(ctx context.Context, id string) (*domain.Session, error)

	// SaveSession creates or updates a session
	SaveSession(ctx context.Context, session *domain.Session) error

	// UpdateSessionStatus moves a session through its lifecycle
	UpdateSessionStatus(ctx context.Context, id string, status domain.SessionStatus) error

	// GetDocuments retrieves all documents attached to a session
	GetDocuments(ctx context.Context, sessionID string) ([]*domain.Document, error)

	// SaveDocuments attaches documents to a session
	SaveDocuments(ctx context.Context, sessionID string, docs []*domain.Document) error

	// SaveEvidence replaces the evidence artifact for a session
	SaveEvidence(ctx context.Context, sessionID string, evidence []*domain.RequirementEvidence) error

	// GetEvidence retrieves the evidence artifact for a session
	GetEvidence(ctx context.Context, sessionID string) ([]*domain.RequirementEvidence, error)

	// SaveValidation replaces the validation artifact for a session
	SaveValidation(ctx context.Context, sessionID string, result *domain.ValidationResult) error

	// GetValidation retrieves the validation artifact for a session
	GetValidation(ctx context.Context, sessionID string) (*domain.ValidationResult, error)

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	// Close releases the underlying connection
	Close() error
}
