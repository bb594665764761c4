package models

import "testing"

func TestCanLogin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status UserStatus
		want   bool
	}{
		{UserStatusActive, true},
		{UserStatusPending, true},
		{UserStatusInactive, false},
		{UserStatusSuspended, false},
	}

	for _, tt := range tests {
		u := &User{Status: tt.status}
		if got := u.CanLogin(); got != tt.want {
			t.Errorf("CanLogin() with status %q = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestValidRole(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"admin", "manager", "accountant", "auditor", "data_entry", "client"} {
		if !ValidRole(valid) {
			t.Errorf("ValidRole(%q) = false", valid)
		}
	}
	for _, invalid := range []string{"", "superuser", "Admin"} {
		if ValidRole(invalid) {
			t.Errorf("ValidRole(%q) = true", invalid)
		}
	}
}
