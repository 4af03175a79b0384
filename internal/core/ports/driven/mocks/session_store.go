package mocks

import (
	"context"
	"sync"

	"github.com/carbonledger/verify-core/internal/core/domain"
)

// MockSessionStore is an in-memory SessionStore for testing
type MockSessionStore struct {
	mu         sync.RWMutex
	sessions   map[string]*domain.Session
	documents  map[string][]*domain.Document
	evidence   map[string][]*domain.RequirementEvidence
	validation map[string]*domain.ValidationResult
}

// NewMockSessionStore creates a new MockSessionStore
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{
		sessions:   make(map[string]*domain.Session),
		documents:  make(map[string][]*domain.Document),
		evidence:   make(map[string][]*domain.RequirementEvidence),
		validation: make(map[string]*domain.ValidationResult),
	}
}

func (m *MockSessionStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionStore) SaveSession(ctx context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session
	return nil
}

func (m *MockSessionStore) UpdateSessionStatus(ctx context.Context, id string, status domain.SessionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Status = status
	return nil
}

func (m *MockSessionStore) GetDocuments(ctx context.Context, sessionID string) ([]*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.documents[sessionID], nil
}

func (m *MockSessionStore) SaveDocuments(ctx context.Context, sessionID string, docs []*domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[sessionID] = docs
	return nil
}

func (m *MockSessionStore) SaveEvidence(ctx context.Context, sessionID string, evidence []*domain.RequirementEvidence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evidence[sessionID] = evidence
	return nil
}

func (m *MockSessionStore) GetEvidence(ctx context.Context, sessionID string) ([]*domain.RequirementEvidence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ev, ok := m.evidence[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return ev, nil
}

func (m *MockSessionStore) SaveValidation(ctx context.Context, sessionID string, result *domain.ValidationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validation[sessionID] = result
	return nil
}

func (m *MockSessionStore) GetValidation(ctx context.Context, sessionID string) (*domain.ValidationResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result, ok := m.validation[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return result, nil
}

func (m *MockSessionStore) Ping(ctx context.Context) error { return nil }

func (m *MockSessionStore) Close() error { return nil }
