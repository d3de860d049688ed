package document

import "time"

// Role is a collaborator's permission level on one document.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleOwner  Role = "owner"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleViewer, RoleEditor, RoleOwner:
		return true
	}
	return false
}

// Collaborator is a (user, role) pair scoped to one document.
type Collaborator struct {
	UserID string `json:"userId" bson:"userId"`
	Role   Role   `json:"role" bson:"role"`
}

// Document is the persistent document model. The owner is never duplicated
// inside Collaborators, and a user appears at most once in the list.
type Document struct {
	ID            string         `json:"id" bson:"_id,omitempty"`
	Title         string         `json:"title" bson:"title"`
	Content       string         `json:"content,omitempty" bson:"content"`
	OwnerID       string         `json:"owner" bson:"owner"`
	Collaborators []Collaborator `json:"collaborators" bson:"collaborators"`
	CreatedAt     time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt" bson:"updatedAt"`
}
