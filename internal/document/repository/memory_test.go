package repository

import (
	"context"
	"testing"

	"github.com/coedit/coedit/internal/document"
)

func TestMemoryRepoCRUD(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	id, err := repo.Create(ctx, &document.Document{Title: "notes", Content: "v1", OwnerID: "u1"})
	if err != nil || id == "" {
		t.Fatalf("Create: id=%q err=%v", id, err)
	}

	d, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d.Title != "notes" || d.Content != "v1" || d.OwnerID != "u1" {
		t.Fatalf("unexpected document: %+v", d)
	}

	title := "renamed"
	if err := repo.Update(ctx, id, &title, nil); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := repo.SetContent(ctx, id, "v2"); err != nil {
		t.Fatalf("SetContent: %v", err)
	}
	d, _ = repo.Get(ctx, id)
	if d.Title != "renamed" || d.Content != "v2" {
		t.Fatalf("updates not applied: %+v", d)
	}

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, id); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.SetContent(ctx, id, "v3"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound writing deleted doc, got %v", err)
	}
}

func TestMemoryRepoCollaborators(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	id, _ := repo.Create(ctx, &document.Document{Title: "t", OwnerID: "owner"})

	if err := repo.AddCollaborator(ctx, id, document.Collaborator{UserID: "u2", Role: document.RoleEditor}); err != nil {
		t.Fatalf("AddCollaborator: %v", err)
	}
	// same user again is rejected
	if err := repo.AddCollaborator(ctx, id, document.Collaborator{UserID: "u2", Role: document.RoleViewer}); err != ErrDuplicateCollaborator {
		t.Fatalf("expected ErrDuplicateCollaborator, got %v", err)
	}
	// the owner is never added to the collaborator list
	if err := repo.AddCollaborator(ctx, id, document.Collaborator{UserID: "owner", Role: document.RoleEditor}); err != ErrDuplicateCollaborator {
		t.Fatalf("expected ErrDuplicateCollaborator for owner, got %v", err)
	}
	d, _ := repo.Get(ctx, id)
	if len(d.Collaborators) != 1 {
		t.Fatalf("expected exactly one collaborator, got %d", len(d.Collaborators))
	}
}

func TestMemoryRepoListForUser(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	owned, _ := repo.Create(ctx, &document.Document{Title: "mine", OwnerID: "u1"})
	shared, _ := repo.Create(ctx, &document.Document{
		Title: "shared", OwnerID: "u2",
		Collaborators: []document.Collaborator{{UserID: "u1", Role: document.RoleViewer}},
	})
	repo.Create(ctx, &document.Document{Title: "other", OwnerID: "u3"})

	docs, err := repo.ListForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	ids := map[string]bool{}
	for _, d := range docs {
		ids[d.ID] = true
	}
	if len(docs) != 2 || !ids[owned] || !ids[shared] {
		t.Fatalf("unexpected listing: %v", ids)
	}
}
