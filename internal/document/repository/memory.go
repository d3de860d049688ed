package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/coedit/coedit/internal/document"
)

// Repository is the durable document store consumed by the HTTP layer and the
// persistence gateway.
type Repository interface {
	Create(ctx context.Context, doc *document.Document) (string, error)
	Get(ctx context.Context, id string) (*document.Document, error)
	ListForUser(ctx context.Context, userID string) ([]*document.Document, error)
	Update(ctx context.Context, id string, title, content *string) error
	// SetContent overwrites the content field unconditionally (last-write-wins).
	SetContent(ctx context.Context, id, content string) error
	AddCollaborator(ctx context.Context, id string, c document.Collaborator) error
	Delete(ctx context.Context, id string) error
}

// MemoryRepo is an in-memory repository used for unit tests and for running
// without MongoDB.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*document.Document
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*document.Document)}
}

func newDocID() string {
	b := make([]byte, 12)
	_, _ = rand.Read(b)
	return "doc_" + hex.EncodeToString(b)
}

func (m *MemoryRepo) Create(ctx context.Context, doc *document.Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc.ID == "" {
		doc.ID = newDocID()
	}
	doc.CreatedAt = time.Now().UTC()
	doc.UpdatedAt = doc.CreatedAt
	cp := clone(doc)
	m.store[doc.ID] = cp
	return doc.ID, nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.store[id]; ok {
		return clone(d), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) ListForUser(ctx context.Context, userID string) ([]*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*document.Document{}
	for _, d := range m.store {
		if document.CanRead(userID, d) {
			out = append(out, clone(d))
		}
	}
	return out, nil
}

func (m *MemoryRepo) Update(ctx context.Context, id string, title, content *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	if title != nil {
		d.Title = *title
	}
	if content != nil {
		d.Content = *content
	}
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryRepo) SetContent(ctx context.Context, id, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	d.Content = content
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryRepo) AddCollaborator(ctx context.Context, id string, c document.Collaborator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	if d.OwnerID == c.UserID {
		return ErrDuplicateCollaborator
	}
	for _, existing := range d.Collaborators {
		if existing.UserID == c.UserID {
			return ErrDuplicateCollaborator
		}
	}
	d.Collaborators = append(d.Collaborators, c)
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func clone(d *document.Document) *document.Document {
	cp := *d
	cp.Collaborators = append([]document.Collaborator(nil), d.Collaborators...)
	return &cp
}
