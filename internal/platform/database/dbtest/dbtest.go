// Package dbtest provides migrated in-memory databases and seed helpers for
// tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"spaces/internal/platform/database"
)

// Open returns a migrated, uniquely named in-memory database. The pool is limited to
// one connection so every statement sees the same memory database.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	name := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.New().String())
	db, err := sql.Open("sqlite3", name)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Fixture seeds rows with predictable ids.
type Fixture struct {
	t  *testing.T
	db *sql.DB
}

func NewFixture(t *testing.T, db *sql.DB) *Fixture {
	return &Fixture{t: t, db: db}
}

func (f *Fixture) exec(query string, args ...any) {
	f.t.Helper()
	if _, err := f.db.Exec(query, args...); err != nil {
		f.t.Fatalf("seed: %v\n%s", err, query)
	}
}

func now() int64 { return time.Now().Unix() }

func (f *Fixture) Org(id, shortcode, plan string) {
	f.t.Helper()
	f.exec(`INSERT INTO organizations (id, shortcode, name, plan_tier, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, shortcode, shortcode+" inc", plan, now())
}

func (f *Fixture) User(id string) {
	f.t.Helper()
	f.exec(`INSERT INTO users (id, username, created_at) VALUES (?, ?, ?)`, id, id, now())
}

func (f *Fixture) Profile(id, userID, first, last, handle string) {
	f.t.Helper()
	f.exec(`INSERT INTO user_profiles (id, user_id, first_name, last_name, handle, default_profile, created_at) VALUES (?, ?, ?, ?, ?, 1, ?)`,
		id, userID, first, last, handle, now())
}

// Member adds an active org membership. profileID may be empty.
func (f *Fixture) Member(id, orgID, userID, profileID, role string) {
	f.t.Helper()
	var profile any
	if profileID != "" {
		profile = profileID
	}
	f.exec(`INSERT INTO org_members (id, org_id, user_id, user_profile_id, role, status, added_at) VALUES (?, ?, ?, ?, ?, 'active', ?)`,
		id, orgID, userID, profile, role, now())
}

func (f *Fixture) Team(id, orgID, name string) {
	f.t.Helper()
	f.exec(`INSERT INTO teams (id, org_id, name, color, created_at) VALUES (?, ?, ?, 'blue', ?)`, id, orgID, name, now())
}

// Space creates a space. parentID may be empty.
func (f *Fixture) Space(id, orgID, shortcode, name, spaceType, creatorMemberID, parentID string) {
	f.t.Helper()
	var parent any
	if parentID != "" {
		parent = parentID
	}
	f.exec(`INSERT INTO spaces (id, org_id, parent_space_id, shortcode, name, description, type, color, icon, created_by_org_member_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 'cyan', 'squares-four', ?, ?)`,
		id, orgID, parent, shortcode, name, name+" description", spaceType, creatorMemberID, now())
}

// SpaceMember adds an org member to a space with every capability.
func (f *Fixture) SpaceMember(id, orgID, spaceID, orgMemberID, role string) {
	f.t.Helper()
	f.exec(`INSERT INTO space_members (id, org_id, space_id, org_member_id, role, added_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, orgID, spaceID, orgMemberID, role, now())
}

func (f *Fixture) SpaceTeam(id, orgID, spaceID, teamID, role string) {
	f.t.Helper()
	f.exec(`INSERT INTO space_members (id, org_id, space_id, team_id, role, added_at, can_delete) VALUES (?, ?, ?, ?, ?, ?, 0)`,
		id, orgID, spaceID, teamID, role, now())
}

func (f *Fixture) Status(id, orgID, spaceID, bucket, name string, order int, creatorMemberID string) {
	f.t.Helper()
	f.exec(`INSERT INTO space_statuses (id, org_id, space_id, type, name, color, "order", created_by_org_member_id, created_at)
		VALUES (?, ?, ?, ?, ?, 'green', ?, ?, ?)`,
		id, orgID, spaceID, bucket, name, order, creatorMemberID, now())
}

func (f *Fixture) Tag(id, orgID, spaceID, label, creatorMemberID string) {
	f.t.Helper()
	f.exec(`INSERT INTO space_tags (id, org_id, space_id, label, color, created_by_org_member_id, created_at) VALUES (?, ?, ?, ?, 'red', ?, ?)`,
		id, orgID, spaceID, label, creatorMemberID, now())
}

// Standard seeds two organizations used across tests:
//
//	acme (pro): alice (owner, admin of "eng"), bob (member, plain member of
//	"eng"), space "eng" with a sub-space "eng-web", a private space "ops"
//	without bob, a team "platform" on "eng", one status and one tag on "eng".
//	globex (free): carol, space "eng" with the same shortcode.
func (f *Fixture) Standard() {
	f.t.Helper()
	f.Org("org_acme", "acme", "pro")
	f.Org("org_globex", "globex", "free")

	f.User("usr_alice")
	f.User("usr_bob")
	f.User("usr_carol")
	f.Profile("prf_alice", "usr_alice", "Alice", "Admin", "alice")
	f.Profile("prf_carol", "usr_carol", "Carol", "Other", "carol")

	f.Member("mem_alice", "org_acme", "usr_alice", "prf_alice", "owner")
	f.Member("mem_bob", "org_acme", "usr_bob", "", "member")
	f.Member("mem_carol", "org_globex", "usr_carol", "prf_carol", "owner")

	f.Team("tm_platform", "org_acme", "Platform")

	f.Space("spc_eng", "org_acme", "eng", "Engineering", "open", "mem_alice", "")
	f.Space("spc_eng_web", "org_acme", "eng-web", "Web", "open", "mem_alice", "spc_eng")
	f.Space("spc_ops", "org_acme", "ops", "Operations", "private", "mem_alice", "")
	f.Space("spc_globex_eng", "org_globex", "eng", "Globex Engineering", "open", "mem_carol", "")

	f.SpaceMember("smb_alice_eng", "org_acme", "spc_eng", "mem_alice", "admin")
	f.SpaceMember("smb_bob_eng", "org_acme", "spc_eng", "mem_bob", "member")
	f.SpaceMember("smb_alice_ops", "org_acme", "spc_ops", "mem_alice", "admin")
	f.SpaceTeam("smb_platform_eng", "org_acme", "spc_eng", "tm_platform", "member")
	f.SpaceMember("smb_carol_eng", "org_globex", "spc_globex_eng", "mem_carol", "admin")

	f.Status("sts_eng_open", "org_acme", "spc_eng", "open", "Triage", 1, "mem_alice")
	f.Tag("tag_eng_bug", "org_acme", "spc_eng", "bug", "mem_alice")
}
