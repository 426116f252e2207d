// Package session persists interactive authoring sessions, including the draft handoff slot,
// so a session can be resumed after a timeout or restart until it expires.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"prdapi/internal/model"
)

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// State is a position in the authoring workflow.
type State string

const (
	StateIdle                      State = "idle"
	StateDuplicateCheck            State = "duplicate_check"
	StateAwaitingDuplicateDecision State = "awaiting_duplicate_decision"
	StateGenerating                State = "generating"
	StateAwaitingApproval          State = "awaiting_approval"
	StateSaving                    State = "saving"
	StateTerminal                  State = "terminal"
)

// Outcome records how a terminal session ended.
type Outcome string

const (
	OutcomeSaved    Outcome = "saved"
	OutcomeViewed   Outcome = "viewed"
	OutcomeRejected Outcome = "rejected"
	OutcomeAborted  Outcome = "aborted"
)

// Session is one authoring conversation.
type Session struct {
	ID          string               `json:"id"`
	State       State                `json:"state"`
	Outcome     Outcome              `json:"outcome,omitempty"`
	Description string               `json:"description"`
	Refinements int                  `json:"refinements"`
	Matches     []model.SearchResult `json:"matches,omitempty"`
	// Draft is the handoff slot between generation and saving.
	Draft       string             `json:"draft,omitempty"`
	ProductName string             `json:"product_name,omitempty"`
	Result      *model.StoreResult `json:"result,omitempty"`
	Error       string             `json:"error,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	ExpiresAt   time.Time          `json:"expires_at"`
}

// New starts an idle session expiring after ttl.
func New(description string, ttl time.Duration) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:          uuid.NewString(),
		State:       StateIdle,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
}

// Awaiting reports whether the session waits on a human decision and can be resumed.
func (s *Session) Awaiting() bool {
	return s.State == StateAwaitingDuplicateDecision || s.State == StateAwaitingApproval
}

// Store persists sessions.
type Store interface {
	Save(ctx context.Context, s *Session) error
	// Load returns ErrSessionNotFound for missing or expired sessions.
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}
