package state

import "testing"

func TestCanEditBootstrapRule(t *testing.T) {
	t.Parallel()

	open := &Board{ID: "b", Members: map[string]string{}}
	if !open.CanEdit("anyone") {
		t.Error("board with no memberships should be editable by any actor")
	}

	locked := &Board{ID: "b", Members: map[string]string{
		"alice": RoleEditor,
		"bob":   RoleViewer,
	}}
	if !locked.CanEdit("alice") {
		t.Error("editor denied")
	}
	if locked.CanEdit("bob") {
		t.Error("viewer allowed to edit")
	}
	if locked.CanEdit("stranger") {
		t.Error("non-member allowed to edit")
	}
}
