package repositories

import (
	"context"
	"database/sql"
	"errors"

	"spaces/internal/platform/database"
	"spaces/internal/platform/models"
)

type OrganizationRepository struct {
	db database.Querier
}

func NewOrganizationRepository(db database.Querier) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO organizations (id, shortcode, name, plan_tier, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, org.ID, org.Shortcode, org.Name, org.PlanTier, org.CreatedAt)
	return err
}

func (r *OrganizationRepository) GetByShortcode(ctx context.Context, shortcode string) (*models.Organization, error) {
	org := &models.Organization{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, shortcode, name, plan_tier, created_at
		FROM organizations WHERE shortcode = ?
	`, shortcode).Scan(&org.ID, &org.Shortcode, &org.Name, &org.PlanTier, &org.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return org, nil
}

type UserRepository struct {
	db database.Querier
}

func NewUserRepository(db database.Querier) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, created_at) VALUES (?, ?, ?)
	`, user.ID, user.Username, user.CreatedAt)
	return err
}

type OrgMemberRepository struct {
	db database.Querier
}

func NewOrgMemberRepository(db database.Querier) *OrgMemberRepository {
	return &OrgMemberRepository{db: db}
}

func (r *OrgMemberRepository) Create(ctx context.Context, m *models.OrgMember) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO org_members (id, org_id, user_id, user_profile_id, role, status, added_at, removed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.OrgID, m.UserID, m.UserProfileID, m.Role, m.Status, m.AddedAt, m.RemovedAt)
	return err
}

// GetActive returns the caller's membership of orgID, or nil when the user is
// not an active member.
func (r *OrgMemberRepository) GetActive(ctx context.Context, orgID, userID string) (*models.OrgMember, error) {
	m := &models.OrgMember{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, org_id, user_id, user_profile_id, role, status, added_at, removed_at
		FROM org_members
		WHERE org_id = ? AND user_id = ? AND status = 'active' AND removed_at IS NULL
	`, orgID, userID).Scan(&m.ID, &m.OrgID, &m.UserID, &m.UserProfileID, &m.Role, &m.Status, &m.AddedAt, &m.RemovedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// ActiveOrgIDs lists the organizations userID is an active member of.
func (r *OrgMemberRepository) ActiveOrgIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT org_id FROM org_members
		WHERE user_id = ? AND status = 'active' AND removed_at IS NULL
		ORDER BY org_id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetProfileForUser points the member at a user profile, used when a profile is
// created after the membership.
func (r *OrgMemberRepository) SetProfileForUser(ctx context.Context, userID, profileID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE org_members SET user_profile_id = ? WHERE user_id = ? AND user_profile_id IS NULL
	`, profileID, userID)
	return err
}

type TeamRepository struct {
	db database.Querier
}

func NewTeamRepository(db database.Querier) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) Create(ctx context.Context, t *models.Team) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO teams (id, org_id, name, description, color, avatar_timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.OrgID, t.Name, t.Description, t.Color, t.AvatarTimestamp, t.CreatedAt)
	return err
}
