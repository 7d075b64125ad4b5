package database

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("first Migrate() error = %v", err)
	}
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	var applied int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if applied != 2 {
		t.Errorf("Expected 2 applied migrations, got %d", applied)
	}

	for _, table := range []string{"organizations", "user_profiles", "spaces", "space_members", "space_statuses", "space_tags", "audit_logs"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("Expected table %s to exist: %v", table, err)
		}
	}
}

func TestMigrate_Constraints(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	seed := []string{
		`INSERT INTO organizations (id, shortcode, name, created_at) VALUES ('org_1', 'acme', 'Acme', 0)`,
		`INSERT INTO users (id, username, created_at) VALUES ('usr_1', 'ada', 0)`,
		`INSERT INTO org_members (id, org_id, user_id, added_at) VALUES ('mem_1', 'org_1', 'usr_1', 0)`,
		`INSERT INTO spaces (id, org_id, shortcode, name, created_by_org_member_id, created_at) VALUES ('spc_1', 'org_1', 'eng', 'Eng', 'mem_1', 0)`,
		`INSERT INTO space_statuses (id, org_id, space_id, type, name, color, "order", created_by_org_member_id, created_at) VALUES ('sts_1', 'org_1', 'spc_1', 'open', 'New', 'cyan', 1, 'mem_1', 0)`,
		`INSERT INTO user_profiles (id, user_id, handle, created_at) VALUES ('prf_1', 'usr_1', 'ada', 0)`,
	}
	for _, stmt := range seed {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed %q: %v", stmt, err)
		}
	}

	tests := []struct {
		name string
		stmt string
	}{
		{"duplicate space shortcode", `INSERT INTO spaces (id, org_id, shortcode, name, created_by_org_member_id, created_at) VALUES ('spc_2', 'org_1', 'eng', 'Eng 2', 'mem_1', 0)`},
		{"duplicate status order", `INSERT INTO space_statuses (id, org_id, space_id, type, name, color, "order", created_by_org_member_id, created_at) VALUES ('sts_2', 'org_1', 'spc_1', 'open', 'Other', 'cyan', 1, 'mem_1', 0)`},
		{"duplicate handle", `INSERT INTO user_profiles (id, user_id, handle, created_at) VALUES ('prf_2', 'usr_1', 'ada', 0)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.Exec(tt.stmt)
			if !IsUniqueViolation(err) {
				t.Errorf("Expected unique violation, got %v", err)
			}
		})
	}

	t.Run("status order reused in other bucket", func(t *testing.T) {
		_, err := db.Exec(`INSERT INTO space_statuses (id, org_id, space_id, type, name, color, "order", created_by_org_member_id, created_at) VALUES ('sts_3', 'org_1', 'spc_1', 'active', 'Doing', 'cyan', 1, 'mem_1', 0)`)
		if err != nil {
			t.Errorf("Expected order 1 to be free in the active bucket, got %v", err)
		}
	})
}
