package authware

import "testing"

func TestRoleValid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleUser, true},
		{RoleAdmin, true},
		{Role(""), false},
		{Role("superuser"), false},
	}
	for _, tt := range tests {
		if got := tt.role.Valid(); got != tt.want {
			t.Errorf("Role(%q).Valid() = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestRoleIsAdmin(t *testing.T) {
	if RoleUser.IsAdmin() {
		t.Error("RoleUser.IsAdmin() = true, want false")
	}
	if !RoleAdmin.IsAdmin() {
		t.Error("RoleAdmin.IsAdmin() = false, want true")
	}
}

func TestSessionStateString(t *testing.T) {
	tests := []struct {
		state SessionState
		want  string
	}{
		{StateUninitialized, "uninitialized"},
		{StateLoading, "loading"},
		{StateUnauthenticated, "unauthenticated"},
		{StateAuthenticated, "authenticated"},
		{SessionState(42), "SessionState(42)"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestProfileUpdateFields(t *testing.T) {
	p := ProfileUpdate{FullName: "Ada King", Email: "ada@example.com"}
	fields := p.Fields()

	if len(fields) != 2 {
		t.Fatalf("len(Fields()) = %d, want 2", len(fields))
	}
	if fields["fullname"] != "Ada King" {
		t.Errorf("fullname = %q, want %q", fields["fullname"], "Ada King")
	}
	if fields["email"] != "ada@example.com" {
		t.Errorf("email = %q, want %q", fields["email"], "ada@example.com")
	}
	if _, ok := fields["username"]; ok {
		t.Error("empty username included in Fields()")
	}
}
