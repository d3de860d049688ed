package repository

import "errors"

var (
	ErrNotFound              = errors.New("document not found")
	ErrDuplicateCollaborator = errors.New("user is already a collaborator")
)
