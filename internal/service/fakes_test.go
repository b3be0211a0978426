package service

import (
	"context"
	"sync"
	"time"

	"github.com/kylegrahammatzen/authgate/internal/model"
	"github.com/kylegrahammatzen/authgate/internal/repository"
)

// memStore is an in-memory stand-in for the three repositories.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*model.User
	sessions map[string]*model.Session
	codes    map[string]*model.VerificationRequest
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]*model.User),
		sessions: make(map[string]*model.Session),
		codes:    make(map[string]*model.VerificationRequest),
	}
}

func (m *memStore) CreateUser(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	cp := *user
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.users[user.ID] = &cp
	return nil
}

func (m *memStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) MarkVerified(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok && u.EmailVerifiedAt == nil {
		u.EmailVerifiedAt = &at
	}
	return nil
}

// userStoreView adapts memStore to the UserStore interface (Create name
// clashes with the session method set).
type userStoreView struct{ *memStore }

func (v userStoreView) Create(ctx context.Context, user *model.User) error {
	return v.CreateUser(ctx, user)
}

// sessionStoreView adapts memStore to the SessionStore interface.
type sessionStoreView struct{ *memStore }

func (v sessionStoreView) Create(ctx context.Context, s *model.Session) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	cp := *s
	v.memStore.sessions[s.ID] = &cp
	return nil
}

func (v sessionStoreView) GetByID(ctx context.Context, id string) (*model.Session, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.memStore.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (v sessionStoreView) UpdateTokens(ctx context.Context, id, accessToken string, expiresAt, lastActiveAt time.Time) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.memStore.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	s.AccessToken = accessToken
	s.ExpiresAt = expiresAt
	s.LastActiveAt = lastActiveAt
	return nil
}

func (v sessionStoreView) Revoke(ctx context.Context, id string, at time.Time) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if s, ok := v.memStore.sessions[id]; ok && s.RevokedAt == nil {
		s.RevokedAt = &at
	}
	return nil
}

// verificationStoreView adapts memStore to the VerificationStore interface.
type verificationStoreView struct{ *memStore }

func (v verificationStoreView) Upsert(ctx context.Context, req *model.VerificationRequest) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	cp := *req
	v.memStore.codes[req.UserID] = &cp
	return nil
}

func (v verificationStoreView) GetByUserID(ctx context.Context, userID string) (*model.VerificationRequest, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	req, ok := v.memStore.codes[userID]
	if !ok {
		return nil, repository.ErrVerificationNotFound
	}
	cp := *req
	return &cp, nil
}

func (v verificationStoreView) Delete(ctx context.Context, userID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.memStore.codes, userID)
	return nil
}

// fakeNotifier records sent mail and can be primed to fail.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

type sentMail struct {
	to, subject, body string
}

func (f *fakeNotifier) Send(ctx context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}
