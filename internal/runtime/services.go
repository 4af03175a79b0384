package runtime

import (
	"context"
	"sync"

	"github.com/carbonledger/verify-core/internal/core/ports/driven"
)

// Services holds the dynamically configurable completion service.
// The pipeline must keep functioning when no completion service is
// configured or the configured one goes away: extraction reports
// service errors per requirement and the coherence synthesizer
// degrades to "unavailable". Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	completion driven.CompletionService
}

// NewServices creates a new Services registry
func NewServices() *Services {
	return &Services{}
}

// CompletionService returns the current completion service (may be nil)
func (s *Services) CompletionService() driven.CompletionService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completion
}

// CompletionAvailable reports whether a completion service is configured
func (s *Services) CompletionAvailable() bool {
	return s.CompletionService() != nil
}

// SetCompletionService updates the completion service.
// Closes the old service if present.
func (s *Services) SetCompletionService(svc driven.CompletionService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completion != nil {
		_ = s.completion.Close()
	}
	s.completion = svc
}

// ValidateAndSetCompletion validates connectivity before setting the service
func (s *Services) ValidateAndSetCompletion(ctx context.Context, svc driven.CompletionService) error {
	if svc == nil {
		s.SetCompletionService(nil)
		return nil
	}

	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return err
	}

	s.SetCompletionService(svc)
	return nil
}

// Close shuts down the held service
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completion != nil {
		_ = s.completion.Close()
		s.completion = nil
	}
	return nil
}
