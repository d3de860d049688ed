package document

import "testing"

func testDoc() *Document {
	return &Document{
		ID:      "doc1",
		OwnerID: "owner-1",
		Collaborators: []Collaborator{
			{UserID: "viewer-1", Role: RoleViewer},
			{UserID: "editor-1", Role: RoleEditor},
			{UserID: "co-owner-1", Role: RoleOwner},
		},
	}
}

func TestAccessPredicates(t *testing.T) {
	doc := testDoc()
	cases := []struct {
		user   string
		read   bool
		write  bool
		manage bool
	}{
		{"owner-1", true, true, true},
		{"viewer-1", true, false, false},
		{"editor-1", true, true, false},
		{"co-owner-1", true, true, false},
		{"stranger", false, false, false},
	}
	for _, tc := range cases {
		if got := CanRead(tc.user, doc); got != tc.read {
			t.Errorf("CanRead(%s) = %v, want %v", tc.user, got, tc.read)
		}
		if got := CanWrite(tc.user, doc); got != tc.write {
			t.Errorf("CanWrite(%s) = %v, want %v", tc.user, got, tc.write)
		}
		if got := CanManage(tc.user, doc); got != tc.manage {
			t.Errorf("CanManage(%s) = %v, want %v", tc.user, got, tc.manage)
		}
	}
}

func TestAccessNoCollaborators(t *testing.T) {
	doc := &Document{ID: "doc2", OwnerID: "o"}
	if !CanRead("o", doc) || !CanWrite("o", doc) || !CanManage("o", doc) {
		t.Fatalf("owner must hold every permission")
	}
	if CanRead("x", doc) || CanWrite("x", doc) || CanManage("x", doc) {
		t.Fatalf("non-collaborator must hold no permission")
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleViewer, RoleEditor, RoleOwner} {
		if !r.Valid() {
			t.Errorf("%s should be valid", r)
		}
	}
	if Role("admin").Valid() || Role("").Valid() {
		t.Errorf("unknown roles must be invalid")
	}
}
