// Package history keeps the per-user conversation window.
package history

import (
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/teams-relay/backend/internal/model/chat"
	"github.com/zhouzirui/teams-relay/backend/pkg/utils"
)

var (
	ErrInvalidRole = errors.New("invalid turn role")
	ErrSystemTurn  = errors.New("system turn is fixed per session")
)

// DefaultMaxHistory is the number of non-system turns kept per user.
const DefaultMaxHistory = 20

// minMaxHistory keeps at least one pair evictable behind the system turn.
const minMaxHistory = 2

// Config controls the window size and the seed instruction.
type Config struct {
	MaxHistory   int
	SystemPrompt string
}

// Stats is the observability snapshot of the store.
type Stats struct {
	ActiveSessions int `json:"activeSessions"`
}

// Store holds one bounded history per user. The map is guarded so
// different users never corrupt each other; ordering of turns for one user
// is the caller's responsibility (see session.Service).
type Store struct {
	mu         sync.RWMutex
	sessions   map[string]*chat.Session
	maxHistory int
	system     chat.Turn
	logger     *zap.Logger
	now        func() time.Time
}

// NewStore bootstraps an empty in-memory store.
func NewStore(cfg Config, logger *zap.Logger) *Store {
	maxHistory := cfg.MaxHistory
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	if maxHistory < minMaxHistory {
		maxHistory = minMaxHistory
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{
		sessions:   make(map[string]*chat.Session),
		maxHistory: maxHistory,
		system:     chat.SystemTurn(cfg.SystemPrompt),
		logger:     logger.Named("history"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// MaxHistory returns the configured window size.
func (s *Store) MaxHistory() int {
	return s.maxHistory
}

// Get returns a copy of the user's turns, seeding the session with the
// system instruction on first use. The result is never empty.
func (s *Store) Get(userID string) []chat.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.sessionLocked(userID).Turns)
}

// Append records a user or assistant turn. When the window overflows the
// oldest pair (indices 1 and 2) is dropped; index 0 is never touched.
func (s *Store) Append(userID string, role chat.Role, content string) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	if role == chat.RoleSystem {
		return ErrSystemTurn
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.sessionLocked(userID)
	session.Turns = append(session.Turns, chat.Turn{Role: role, Content: content})
	if len(session.Turns) > s.maxHistory+1 {
		session.Turns = slices.Delete(session.Turns, 1, 3)
	}
	session.UpdatedAt = s.now()
	return nil
}

// Clear removes the session entirely. It reports whether one existed;
// clearing an unknown user is a no-op.
func (s *Store) Clear(userID string) bool {
	s.mu.Lock()
	_, ok := s.sessions[userID]
	delete(s.sessions, userID)
	s.mu.Unlock()

	if ok {
		s.logger.Info("history cleared", zap.String("user", utils.ShortID(userID, 8)))
	}
	return ok
}

// Len returns the number of stored turns without creating a session.
func (s *Store) Len(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if session, ok := s.sessions[userID]; ok {
		return len(session.Turns)
	}
	return 0
}

// Stats reports how many sessions are tracked.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{ActiveSessions: len(s.sessions)}
}

func (s *Store) sessionLocked(userID string) *chat.Session {
	if session, ok := s.sessions[userID]; ok {
		return session
	}

	now := s.now()
	turns := make([]chat.Turn, 1, s.maxHistory+2)
	turns[0] = s.system
	session := &chat.Session{
		UserID:    userID,
		Turns:     turns,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[userID] = session
	return session
}
