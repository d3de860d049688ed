package document

// Access predicates for document operations. All three are pure functions of
// the document's current owner/collaborator state; results are never cached
// so a role change is effective on the next check.

// CanRead reports whether the user may view the document: the owner, or any
// collaborator regardless of role.
func CanRead(userID string, doc *Document) bool {
	if doc.OwnerID == userID {
		return true
	}
	for _, c := range doc.Collaborators {
		if c.UserID == userID {
			return true
		}
	}
	return false
}

// CanWrite reports whether the user may change the document's content: the
// owner, or a collaborator holding the editor or owner role. Viewers may not
// write.
func CanWrite(userID string, doc *Document) bool {
	if doc.OwnerID == userID {
		return true
	}
	for _, c := range doc.Collaborators {
		if c.UserID == userID {
			return c.Role == RoleEditor || c.Role == RoleOwner
		}
	}
	return false
}

// CanManage reports whether the user may administer the document (add
// collaborators, delete it). Only the owner qualifies; no collaborator role
// grants management rights.
func CanManage(userID string, doc *Document) bool {
	return doc.OwnerID == userID
}
