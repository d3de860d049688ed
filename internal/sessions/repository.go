package sessions

import (
	"context"
	"sync"
	"time"
)

// Repository is the live-token table. Save enforces the one-session-per-user
// rule: any prior session for the same user is dropped.
type Repository interface {
	Save(ctx context.Context, s *Session) error
	GetByRefresh(ctx context.Context, refresh string) (*Session, error)
	DeleteByRefresh(ctx context.Context, refresh string) error
}

// MemoryRepository keeps sessions in process memory. This is the default
// backing store; everything is lost on restart, which matches the intended
// lifetime of refresh bookkeeping.
type MemoryRepository struct {
	mu        sync.RWMutex
	byRefresh map[string]*Session
	byUser    map[string]string // userID -> refresh token
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byRefresh: make(map[string]*Session),
		byUser:    make(map[string]string),
	}
}

func (r *MemoryRepository) Save(ctx context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prior, ok := r.byUser[s.UserID]; ok {
		delete(r.byRefresh, prior)
	}
	cp := *s
	r.byRefresh[s.RefreshToken] = &cp
	r.byUser[s.UserID] = s.RefreshToken
	return nil
}

func (r *MemoryRepository) GetByRefresh(ctx context.Context, refresh string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byRefresh[refresh]
	if !ok {
		return nil, nil
	}
	if time.Now().UTC().After(s.ExpiresAt) {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *MemoryRepository) DeleteByRefresh(ctx context.Context, refresh string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byRefresh[refresh]; ok {
		delete(r.byUser, s.UserID)
		delete(r.byRefresh, refresh)
	}
	return nil
}
