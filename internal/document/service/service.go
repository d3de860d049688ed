package service

import (
	"context"
	"errors"

	"github.com/coedit/coedit/internal/document"
	"github.com/coedit/coedit/internal/document/repository"
	"github.com/coedit/coedit/internal/models"
)

var (
	ErrNotFound              = repository.ErrNotFound
	ErrDuplicateCollaborator = repository.ErrDuplicateCollaborator
	ErrPermissionDenied      = errors.New("permission denied")
	ErrUnknownUser           = errors.New("user not found")
	ErrInvalidRole           = errors.New("invalid role")
)

// Directory resolves usernames to users; satisfied by users.Service.
type Directory interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// Service runs every document operation behind the access predicates in the
// document package. Permission state is re-read from the store on each call.
type Service struct {
	repo repository.Repository
	dir  Directory
}

func New(repo repository.Repository, dir Directory) *Service {
	return &Service{repo: repo, dir: dir}
}

// Repo exposes the underlying store for the persistence gateway.
func (s *Service) Repo() repository.Repository { return s.repo }

// Create stores a new document owned by the calling user.
func (s *Service) Create(ctx context.Context, userID, title, content string) (*document.Document, error) {
	doc := &document.Document{
		Title:         title,
		Content:       content,
		OwnerID:       userID,
		Collaborators: []document.Collaborator{},
	}
	if _, err := s.repo.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Get returns the document if the user may read it.
func (s *Service) Get(ctx context.Context, userID, id string) (*document.Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !document.CanRead(userID, doc) {
		return nil, ErrPermissionDenied
	}
	return doc, nil
}

// ListForUser returns every document the user owns or collaborates on.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]*document.Document, error) {
	return s.repo.ListForUser(ctx, userID)
}

// Update changes title and/or content if the user may write.
func (s *Service) Update(ctx context.Context, userID, id string, title, content *string) (*document.Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !document.CanWrite(userID, doc) {
		return nil, ErrPermissionDenied
	}
	if err := s.repo.Update(ctx, id, title, content); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// AddCollaborator grants a role to another user, resolved by username.
// Only the owner may manage the collaborator list.
func (s *Service) AddCollaborator(ctx context.Context, userID, id, username string, role document.Role) error {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !document.CanManage(userID, doc) {
		return ErrPermissionDenied
	}
	if !role.Valid() {
		return ErrInvalidRole
	}
	u, err := s.dir.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUnknownUser
	}
	return s.repo.AddCollaborator(ctx, id, document.Collaborator{UserID: u.ID, Role: role})
}

// ListCollaborators returns the collaborator list if the user may read.
func (s *Service) ListCollaborators(ctx context.Context, userID, id string) ([]document.Collaborator, error) {
	doc, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return doc.Collaborators, nil
}

// Delete removes the document. Owner only.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !document.CanManage(userID, doc) {
		return ErrPermissionDenied
	}
	return s.repo.Delete(ctx, id)
}
