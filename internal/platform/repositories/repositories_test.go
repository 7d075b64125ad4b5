package repositories

import (
	"context"
	"testing"

	"spaces/internal/platform/database/dbtest"
	"spaces/internal/platform/models"
)

func TestOrganizationRepository_GetByShortcode(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.NewFixture(t, db).Standard()
	repo := NewOrganizationRepository(db)

	org, err := repo.GetByShortcode(context.Background(), "acme")
	if err != nil {
		t.Fatalf("GetByShortcode() error = %v", err)
	}
	if org == nil || org.ID != "org_acme" || org.PlanTier != "pro" {
		t.Fatalf("Expected org_acme on pro, got %+v", org)
	}

	missing, err := repo.GetByShortcode(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetByShortcode() error = %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for unknown shortcode, got %+v", missing)
	}
}

func TestOrgMemberRepository_GetActive(t *testing.T) {
	db := dbtest.Open(t)
	fx := dbtest.NewFixture(t, db)
	fx.Standard()
	if _, err := db.Exec(`UPDATE org_members SET removed_at = 1 WHERE id = 'mem_bob'`); err != nil {
		t.Fatalf("remove bob: %v", err)
	}
	repo := NewOrgMemberRepository(db)

	tests := []struct {
		name   string
		orgID  string
		userID string
		wantID string
	}{
		{"active owner", "org_acme", "usr_alice", "mem_alice"},
		{"removed member", "org_acme", "usr_bob", ""},
		{"member of another org", "org_acme", "usr_carol", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := repo.GetActive(context.Background(), tt.orgID, tt.userID)
			if err != nil {
				t.Fatalf("GetActive() error = %v", err)
			}
			if tt.wantID == "" {
				if m != nil {
					t.Errorf("Expected no membership, got %s", m.ID)
				}
				return
			}
			if m == nil || m.ID != tt.wantID {
				t.Errorf("Expected %s, got %+v", tt.wantID, m)
			}
		})
	}
}

func TestCreate_Onboarding(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	org := &models.Organization{ID: "org_init", Shortcode: "initech", Name: "Initech", PlanTier: models.PlanEnterprise, CreatedAt: 1700000000}
	if err := NewOrganizationRepository(db).Create(ctx, org); err != nil {
		t.Fatalf("create org: %v", err)
	}
	if err := NewUserRepository(db).Create(ctx, &models.User{ID: "usr_peter", Username: "peter", CreatedAt: 1700000000}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	members := NewOrgMemberRepository(db)
	if err := members.Create(ctx, &models.OrgMember{ID: "mem_peter", OrgID: "org_init", UserID: "usr_peter", Role: models.OrgRoleAdmin, Status: "active", AddedAt: 1700000000}); err != nil {
		t.Fatalf("create member: %v", err)
	}

	color := "teal"
	if err := NewTeamRepository(db).Create(ctx, &models.Team{ID: "tm_tps", OrgID: "org_init", Name: "TPS", Color: &color, CreatedAt: 1700000000}); err != nil {
		t.Fatalf("create team: %v", err)
	}

	if _, err := db.Exec(`INSERT INTO user_profiles (id, user_id, handle, created_at) VALUES ('prf_peter', 'usr_peter', 'peter', 1)`); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if err := members.SetProfileForUser(ctx, "usr_peter", "prf_peter"); err != nil {
		t.Fatalf("SetProfileForUser() error = %v", err)
	}

	got, err := members.GetActive(ctx, "org_init", "usr_peter")
	if err != nil || got == nil {
		t.Fatalf("Expected membership, got %+v (%v)", got, err)
	}
	if got.Role != models.OrgRoleAdmin {
		t.Errorf("Expected role %s, got %s", models.OrgRoleAdmin, got.Role)
	}
	if got.UserProfileID == nil || *got.UserProfileID != "prf_peter" {
		t.Errorf("Expected profile prf_peter, got %v", got.UserProfileID)
	}

	loaded, err := NewOrganizationRepository(db).GetByShortcode(ctx, "initech")
	if err != nil || loaded == nil || loaded.PlanTier != models.PlanEnterprise {
		t.Errorf("Expected enterprise org, got %+v (%v)", loaded, err)
	}
}
