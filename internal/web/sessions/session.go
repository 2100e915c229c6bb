package sessions

import (
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	userIDKey       = "userID"
	csrfTokenKey    = "csrfToken"
	lastIdentityKey = "lastIdentity"
)

type Session struct {
	base      *sessions.Session
	needsSave bool
}

// NeedsSave reports whether the session was modified since it was loaded or last saved.
func (s *Session) NeedsSave() bool {
	return s.needsSave
}

func (s *Session) UserID() (uuid.UUID, bool) {
	userID, ok := s.base.Values[userIDKey].(uuid.UUID)
	return userID, ok
}

func (s *Session) SetUserID(userID uuid.UUID) {
	s.needsSave = true
	s.base.Values[userIDKey] = userID
}

func (s *Session) DeleteUserID() {
	s.needsSave = true
	delete(s.base.Values, userIDKey)
}

// CSRFToken returns the anti-forgery token issued to this session.
// It returns an empty string if no token was issued.
func (s *Session) CSRFToken() string {
	token, _ := s.base.Values[csrfTokenKey].(string)
	return token
}

func (s *Session) SetCSRFToken(token string) {
	s.needsSave = true
	s.base.Values[csrfTokenKey] = token
}

// LastIdentity returns the identity of the last failed login attempt, so
// it can be filled in again.
func (s *Session) LastIdentity() string {
	identity, _ := s.base.Values[lastIdentityKey].(string)
	return identity
}

func (s *Session) SetLastIdentity(identity string) {
	s.needsSave = true
	if identity == "" {
		delete(s.base.Values, lastIdentityKey)
		return
	}
	s.base.Values[lastIdentityKey] = identity
}

// SetFlash replaces any pending flash messages with flash.
func (s *Session) SetFlash(flash string) {
	s.needsSave = true
	_ = s.base.Flashes()
	s.base.AddFlash(flash)
}

// ConsumeFlashes returns the flash messages and removes them from the session.
func (s *Session) ConsumeFlashes() []string {
	raw := s.base.Flashes()
	if len(raw) == 0 {
		return nil
	}

	s.needsSave = true

	flashes := make([]string, 0, len(raw))
	for _, f := range raw {
		if str, ok := f.(string); ok {
			flashes = append(flashes, str)
		}
	}

	return flashes
}
