package entitlements

import "testing"

func TestChecker_For(t *testing.T) {
	c := NewChecker()

	tests := []struct {
		plan        string
		wantPlan    string
		wantPrivate bool
		wantStatus  bool
	}{
		{"free", "free", false, false},
		{"pro", "pro", true, true},
		{"enterprise", "enterprise", true, true},
		{"", "free", false, false},
		{"legacy", "free", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.plan, func(t *testing.T) {
			got := c.For(tt.plan)
			if got.Plan != tt.wantPlan {
				t.Errorf("Expected plan %s, got %s", tt.wantPlan, got.Plan)
			}
			if !got.Space.Open {
				t.Error("Expected open spaces on every plan")
			}
			if got.Space.Private != tt.wantPrivate || c.CanUsePrivateSpaces(tt.plan) != tt.wantPrivate {
				t.Errorf("Expected private=%v for %s", tt.wantPrivate, tt.plan)
			}
			if c.CanUseStatuses(tt.plan) != tt.wantStatus {
				t.Errorf("Expected statuses=%v for %s", tt.wantStatus, tt.plan)
			}
		})
	}
}
