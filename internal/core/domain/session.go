package domain

import "time"

// SessionStatus tracks where a review session is in its lifecycle.
type SessionStatus string

const (
	SessionStatusNew        SessionStatus = "new"
	SessionStatusExtracting SessionStatus = "extracting"
	SessionStatusValidating SessionStatus = "validating"
	SessionStatusComplete   SessionStatus = "complete"
	SessionStatusFailed     SessionStatus = "failed"
)

// Session is one registry review of a project's document set. Lifecycle and
// persistence live in the session store; the core reads documents from it
// and writes the evidence and validation artifacts back.
type Session struct {
	ID          string        `json:"id"`
	ProjectName string        `json:"project_name"`
	Status      SessionStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
