// Package session holds the transient per-login state: the authenticated
// profile, the active tab of each dashboard, and the in-progress application
// draft. The state has an explicit lifecycle: created wholesale on login,
// mutated only by explicit navigation and form actions, cleared on logout.
package session

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"agriportal/portal/schema"

	"github.com/google/uuid"
)

const (
	DefaultFarmerTab = "dashboard"
	DefaultAdminTab  = "applications"
)

var (
	farmerTabs = []string{"dashboard", "crops", "schemes", "apply", "applications"}
	adminTabs  = []string{"applications", "user-management", "crops", "schemes", "notifications"}
)

var (
	ErrNoSession  = errors.New("no active session")
	ErrUnknownTab = errors.New("unknown tab")
)

// ApplicationDraft is a partially-filled application held between navigation
// steps. "Apply Now" on a scheme listing prefills SchemeId before the user
// reaches the application tab.
type ApplicationDraft struct {
	SchemeId *uuid.UUID `json:"scheme_id"`
	Name     string     `json:"name"`
	LandSize string     `json:"land_size"`
	CropType string     `json:"crop_type"`
	Details  string     `json:"details"`
}

type Session struct {
	User      schema.UserProfile
	FarmerTab string
	AdminTab  string
	Draft     ApplicationDraft
}

// Manager tracks one session per authenticated user. Handlers run
// concurrently, so all access goes through the mutex.
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[uuid.UUID]*Session)}
}

// Begin replaces the user's session wholesale: landing tabs are reset to
// their role defaults and the draft is prefilled with the profile name only.
func (m *Manager) Begin(user schema.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[user.Id] = &Session{
		User:      user,
		FarmerTab: DefaultFarmerTab,
		AdminTab:  DefaultAdminTab,
		Draft:     ApplicationDraft{Name: user.Name},
	}
}

// End clears the session on sign-out. Ending an absent session is a no-op.
func (m *Manager) End(userId uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, userId)
}

func (m *Manager) Get(userId uuid.UUID) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userId]
	if !ok {
		return Session{}, ErrNoSession
	}
	return *s, nil
}

func (m *Manager) SetFarmerTab(userId uuid.UUID, tab string) error {
	if !slices.Contains(farmerTabs, tab) {
		return fmt.Errorf("%w: '%v'", ErrUnknownTab, tab)
	}
	return m.update(userId, func(s *Session) {
		s.FarmerTab = tab
	})
}

func (m *Manager) SetAdminTab(userId uuid.UUID, tab string) error {
	if !slices.Contains(adminTabs, tab) {
		return fmt.Errorf("%w: '%v'", ErrUnknownTab, tab)
	}
	return m.update(userId, func(s *Session) {
		s.AdminTab = tab
	})
}

// PrefillScheme records the chosen scheme on the draft and moves the farmer
// to the application tab, supporting the two-step Apply-Now flow.
func (m *Manager) PrefillScheme(userId, schemeId uuid.UUID) error {
	return m.update(userId, func(s *Session) {
		id := schemeId
		s.Draft.SchemeId = &id
		s.FarmerTab = "apply"
	})
}

func (m *Manager) SetDraft(userId uuid.UUID, draft ApplicationDraft) error {
	return m.update(userId, func(s *Session) {
		draft.Name = s.User.Name
		s.Draft = draft
	})
}

// ResetDraft returns the draft to its empty state, prefilled only with the
// user's name. Called after a successful submission.
func (m *Manager) ResetDraft(userId uuid.UUID) error {
	return m.update(userId, func(s *Session) {
		s.Draft = ApplicationDraft{Name: s.User.Name}
	})
}

func (m *Manager) update(userId uuid.UUID, apply func(*Session)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userId]
	if !ok {
		return ErrNoSession
	}
	apply(s)
	return nil
}
