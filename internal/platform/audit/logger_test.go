package audit

import (
	"context"
	"testing"

	apiContext "spaces/internal/api/context"
	"spaces/internal/platform/auth"
	"spaces/internal/platform/database/dbtest"
)

func TestLogger_LogAndList(t *testing.T) {
	db := dbtest.Open(t)
	logger := NewLogger(db)

	ctx := context.WithValue(context.Background(), apiContext.Claims, &auth.Claims{UserID: "usr_alice"})
	ctx = context.WithValue(ctx, apiContext.Org, &apiContext.OrgContext{OrgID: "org_acme"})
	ctx = context.WithValue(ctx, apiContext.Client, apiContext.ClientInfo{IP: "10.0.0.1", UserAgent: "test"})

	logger.Log(ctx, ActionSpaceColorSet, "space", "eng", map[string]interface{}{"color": "red"})
	logger.Log(context.Background(), ActionProfileUpdated, "profile", "prf_1", nil)
	logger.Wait()

	logs, err := logger.List(context.Background(), "org_acme", 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("Expected 1 org log, got %d", len(logs))
	}

	entry := logs[0]
	if entry.UserID != "usr_alice" || entry.Action != ActionSpaceColorSet {
		t.Errorf("Unexpected entry %+v", entry)
	}
	if entry.IPAddress != "10.0.0.1" {
		t.Errorf("Expected ip 10.0.0.1, got %s", entry.IPAddress)
	}
	if entry.Metadata["color"] != "red" {
		t.Errorf("Expected metadata color red, got %v", entry.Metadata)
	}
}

func TestLogger_UserScopedActionsReachMemberOrgs(t *testing.T) {
	db := dbtest.Open(t)
	fx := dbtest.NewFixture(t, db)
	fx.Standard()
	fx.Member("mem_alice_globex", "org_globex", "usr_alice", "prf_alice", "member")
	logger := NewLogger(db)

	ctx := context.WithValue(context.Background(), apiContext.Claims, &auth.Claims{UserID: "usr_alice"})
	logger.Log(ctx, ActionProfileUpdated, "user_profile", "prf_alice", map[string]interface{}{"handle": "alice"})

	bob := context.WithValue(context.Background(), apiContext.Claims, &auth.Claims{UserID: "usr_bob"})
	logger.Log(bob, ActionAvatarUploadIssued, "avatar_upload", "upl_1", nil)
	logger.Wait()

	tests := []struct {
		org     string
		actions []string
	}{
		{"org_acme", []string{ActionProfileUpdated, ActionAvatarUploadIssued}},
		{"org_globex", []string{ActionProfileUpdated}},
	}

	for _, tt := range tests {
		t.Run(tt.org, func(t *testing.T) {
			logs, err := logger.List(context.Background(), tt.org, 10)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			got := map[string]bool{}
			for _, entry := range logs {
				got[entry.Action] = true
			}
			if len(logs) != len(tt.actions) {
				t.Fatalf("Expected %d entries, got %d", len(tt.actions), len(logs))
			}
			for _, action := range tt.actions {
				if !got[action] {
					t.Errorf("Expected %s in %s audit log", action, tt.org)
				}
			}
		})
	}
}
