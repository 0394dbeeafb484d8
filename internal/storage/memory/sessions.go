package memory

import (
	"context"

	"github.com/adanyl0v/go-todo-lists/internal/models"
	"github.com/adanyl0v/go-todo-lists/internal/storage"
)

func cloneSession(s *models.Session) *models.Session {
	c := *s
	return &c
}

func (s *Store) FindSessionByID(_ context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneSession(session), nil
}

func (s *Store) FindSessionByRefreshToken(_ context.Context, refreshToken, fingerprint string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, session := range s.sessions {
		if session.RefreshToken == refreshToken && session.Fingerprint == fingerprint {
			return cloneSession(session), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) ReplaceUserSessions(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteUserSessions(session.UserID)
	s.sessions[session.ID] = cloneSession(session)
	return nil
}

func (s *Store) CreateSession(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; ok {
		return storage.ErrDuplicate
	}
	s.sessions[session.ID] = cloneSession(session)
	return nil
}

func (s *Store) RotateSession(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[session.ID]
	if !ok {
		return storage.ErrNotFound
	}
	stored.RefreshToken = session.RefreshToken
	stored.ExpiresAt = session.ExpiresAt
	stored.UpdatedAt = session.UpdatedAt
	return nil
}

func (s *Store) DeleteUserSessions(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteUserSessions(userID), nil
}

func (s *Store) deleteUserSessions(userID string) int64 {
	var n int64
	for id, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}
