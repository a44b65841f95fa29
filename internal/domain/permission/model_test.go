package permission_test

import (
	"testing"

	"outreach/internal/domain/permission"
)

// TestParse tests conversion of form values into levels.
func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    permission.Level
		wantErr bool
	}{
		{"0", permission.SuperAdmin, false},
		{"1", permission.LeadManager, false},
		{"2", permission.Regular, false},
		{"3", permission.Regular, true},
		{"-1", permission.Regular, true},
		{"admin", permission.Regular, true},
		{"", permission.Regular, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := permission.Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// TestLevel_Capabilities tests the capability matrix for each tier.
func TestLevel_Capabilities(t *testing.T) {
	tests := []struct {
		level        permission.Level
		viewLeads    bool
		manageEvents bool
		manageUsers  bool
		assignLeads  bool
		assignable   bool
	}{
		{permission.SuperAdmin, true, true, true, true, true},
		{permission.LeadManager, true, false, false, false, true},
		{permission.Regular, false, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			if got := tt.level.CanViewLeads(); got != tt.viewLeads {
				t.Errorf("CanViewLeads() = %v, want %v", got, tt.viewLeads)
			}
			if got := tt.level.CanManageEvents(); got != tt.manageEvents {
				t.Errorf("CanManageEvents() = %v, want %v", got, tt.manageEvents)
			}
			if got := tt.level.CanManageUsers(); got != tt.manageUsers {
				t.Errorf("CanManageUsers() = %v, want %v", got, tt.manageUsers)
			}
			if got := tt.level.CanAssignLeads(); got != tt.assignLeads {
				t.Errorf("CanAssignLeads() = %v, want %v", got, tt.assignLeads)
			}
			if got := tt.level.IsAssignable(); got != tt.assignable {
				t.Errorf("IsAssignable() = %v, want %v", got, tt.assignable)
			}
		})
	}
}

// TestLevel_LeadScope verifies super admins are unrestricted and lead managers see only their own leads.
func TestLevel_LeadScope(t *testing.T) {
	if scope := permission.SuperAdmin.LeadScope("p1"); scope != nil {
		t.Fatalf("super admin scope = %q, want nil", *scope)
	}
	scope := permission.LeadManager.LeadScope("p2")
	if scope == nil || *scope != "p2" {
		t.Fatalf("lead manager scope = %v, want p2", scope)
	}
}
