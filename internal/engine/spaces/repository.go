package spaces

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"spaces/internal/platform/database"
)

// Mutations only match when the caller is a current admin member of the
// target space. The check runs inside the statement, so a zero row count
// covers both a missing space and a missing permission.
const spaceAdminClause = `EXISTS (
	SELECT 1 FROM space_members sm
	WHERE sm.space_id = %s AND sm.org_member_id = ? AND sm.role = 'admin' AND sm.removed_at IS NULL
)`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// GetSettings reads the settings snapshot of the space with shortcode in
// orgID. Every relation is read in one read-only transaction. It returns a
// result with nil Settings when no such space exists.
func (r *Repository) GetSettings(ctx context.Context, orgID, memberID, shortcode string) (*SettingsResult, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin settings snapshot: %w", err)
	}
	defer tx.Rollback()

	settings := &Settings{}
	var spaceID string
	var parentID sql.NullString
	var creatorID string
	err = tx.QueryRowContext(ctx, `
		SELECT id, shortcode, name, description, type, avatar_timestamp, convo_prefix,
		       inherit_parent_permissions, color, icon, personal_space, created_at,
		       parent_space_id, created_by_org_member_id
		FROM spaces
		WHERE org_id = ? AND shortcode = ?
	`, orgID, shortcode).Scan(
		&spaceID, &settings.Shortcode, &settings.Name, &settings.Description, &settings.Type,
		&settings.AvatarTimestamp, &settings.ConvoPrefix, &settings.InheritParentPermissions,
		&settings.Color, &settings.Icon, &settings.PersonalSpace, &settings.CreatedAt,
		&parentID, &creatorID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &SettingsResult{}, nil
		}
		return nil, fmt.Errorf("load space: %w", err)
	}
	settings.PublicID = spaceID

	if parentID.Valid {
		parent, err := scanSpaceRef(tx.QueryRowContext(ctx, `
			SELECT id, shortcode, name, description, color, icon, avatar_timestamp
			FROM spaces WHERE id = ? AND org_id = ?
		`, parentID.String, orgID))
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("load parent space: %w", err)
		}
		settings.ParentSpace = parent
	}

	if settings.SubSpaces, err = r.subSpaces(ctx, tx, orgID, spaceID); err != nil {
		return nil, err
	}
	if settings.CreatedByOrgMember, err = r.orgMemberRef(ctx, tx, creatorID); err != nil {
		return nil, err
	}
	if settings.Members, err = r.members(ctx, tx, spaceID); err != nil {
		return nil, err
	}
	if settings.Statuses, err = r.statuses(ctx, tx, spaceID); err != nil {
		return nil, err
	}
	if settings.Tags, err = r.tags(ctx, tx, spaceID); err != nil {
		return nil, err
	}

	result := &SettingsResult{Settings: settings}

	var role string
	err = tx.QueryRowContext(ctx, `
		SELECT role FROM space_members
		WHERE space_id = ? AND org_member_id = ? AND removed_at IS NULL
		ORDER BY added_at LIMIT 1
	`, spaceID, memberID).Scan(&role)
	switch {
	case err == nil:
		result.Role = &role
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("load caller role: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("end settings snapshot: %w", err)
	}
	return result, nil
}

func scanSpaceRef(s scanner) (*SpaceRef, error) {
	ref := &SpaceRef{}
	if err := s.Scan(&ref.PublicID, &ref.Shortcode, &ref.Name, &ref.Description, &ref.Color, &ref.Icon, &ref.AvatarTimestamp); err != nil {
		return nil, err
	}
	return ref, nil
}

func (r *Repository) subSpaces(ctx context.Context, q database.Querier, orgID, spaceID string) ([]SpaceRef, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, shortcode, name, description, color, icon, avatar_timestamp
		FROM spaces
		WHERE org_id = ? AND parent_space_id = ?
		ORDER BY name, id
	`, orgID, spaceID)
	if err != nil {
		return nil, fmt.Errorf("load sub-spaces: %w", err)
	}
	defer rows.Close()

	subs := []SpaceRef{}
	for rows.Next() {
		ref, err := scanSpaceRef(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *ref)
	}
	return subs, rows.Err()
}

// profileColumns selects a nullable user profile joined as p.
const profileColumns = `p.id, p.avatar_timestamp, p.first_name, p.last_name, p.handle, p.title, p.blurb`

type nullProfile struct {
	id              sql.NullString
	avatarTimestamp sql.NullInt64
	firstName       sql.NullString
	lastName        sql.NullString
	handle          sql.NullString
	title           sql.NullString
	blurb           sql.NullString
}

func (p *nullProfile) dest() []interface{} {
	return []interface{}{&p.id, &p.avatarTimestamp, &p.firstName, &p.lastName, &p.handle, &p.title, &p.blurb}
}

func (p *nullProfile) profile() *Profile {
	if !p.id.Valid {
		return nil
	}
	return &Profile{
		PublicID:        p.id.String,
		AvatarTimestamp: nullInt(p.avatarTimestamp),
		FirstName:       p.firstName.String,
		LastName:        p.lastName.String,
		Handle:          p.handle.String,
		Title:           nullString(p.title),
		Blurb:           nullString(p.blurb),
	}
}

func (r *Repository) orgMemberRef(ctx context.Context, q database.Querier, memberID string) (*OrgMemberRef, error) {
	ref := &OrgMemberRef{}
	var p nullProfile
	dest := append([]interface{}{&ref.PublicID}, p.dest()...)
	err := q.QueryRowContext(ctx, `
		SELECT om.id, `+profileColumns+`
		FROM org_members om
		LEFT JOIN user_profiles p ON p.id = om.user_profile_id
		WHERE om.id = ?
	`, memberID).Scan(dest...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load creator: %w", err)
	}
	ref.Profile = p.profile()
	return ref, nil
}

func (r *Repository) members(ctx context.Context, q database.Querier, spaceID string) ([]Member, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT sm.id, sm.role, sm.added_at, sm.removed_at,
		       sm.can_create, sm.can_read, sm.can_comment, sm.can_reply, sm.can_delete,
		       sm.can_change_status, sm.can_set_status_to_closed, sm.can_add_tags,
		       sm.can_move_to_another_space, sm.can_add_to_another_space,
		       sm.can_merge_convos, sm.can_add_participants,
		       om.id, `+profileColumns+`,
		       t.id, t.name, t.color, t.avatar_timestamp, t.description
		FROM space_members sm
		LEFT JOIN org_members om ON om.id = sm.org_member_id
		LEFT JOIN user_profiles p ON p.id = om.user_profile_id
		LEFT JOIN teams t ON t.id = sm.team_id
		WHERE sm.space_id = ?
		ORDER BY sm.added_at, sm.id
	`, spaceID)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	defer rows.Close()

	members := []Member{}
	for rows.Next() {
		var m Member
		var omID, teamID, teamName, teamColor, teamDesc sql.NullString
		var teamAvatar sql.NullInt64
		var p nullProfile
		c := &m.Capabilities

		dest := []interface{}{
			&m.PublicID, &m.Role, &m.AddedAt, &m.RemovedAt,
			&c.CanCreate, &c.CanRead, &c.CanComment, &c.CanReply, &c.CanDelete,
			&c.CanChangeStatus, &c.CanSetStatusToClosed, &c.CanAddTags,
			&c.CanMoveToAnotherSpace, &c.CanAddToAnotherSpace,
			&c.CanMergeConvos, &c.CanAddParticipants,
			&omID,
		}
		dest = append(dest, p.dest()...)
		dest = append(dest, &teamID, &teamName, &teamColor, &teamAvatar, &teamDesc)

		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		if omID.Valid {
			m.OrgMember = &OrgMemberRef{PublicID: omID.String, Profile: p.profile()}
		}
		if teamID.Valid {
			m.Team = &TeamRef{
				PublicID:        teamID.String,
				Name:            teamName.String,
				Color:           nullString(teamColor),
				AvatarTimestamp: nullInt(teamAvatar),
				Description:     nullString(teamDesc),
			}
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func scanStatus(s scanner) (*Status, error) {
	st := &Status{}
	err := s.Scan(&st.PublicID, &st.Type, &st.Name, &st.Color, &st.Icon, &st.Description, &st.Disabled, &st.Order)
	if err != nil {
		return nil, err
	}
	return st, nil
}

const statusColumns = `st.id, st.type, st.name, st.color, st.icon, st.description, st.disabled, st."order"`

func (r *Repository) statuses(ctx context.Context, q database.Querier, spaceID string) ([]Status, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+statusColumns+`
		FROM space_statuses st
		WHERE st.space_id = ?
		ORDER BY st.type, st."order"
	`, spaceID)
	if err != nil {
		return nil, fmt.Errorf("load statuses: %w", err)
	}
	defer rows.Close()

	statuses := []Status{}
	for rows.Next() {
		st, err := scanStatus(rows)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, *st)
	}
	return statuses, rows.Err()
}

func (r *Repository) tags(ctx context.Context, q database.Querier, spaceID string) ([]Tag, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, label, description, color, created_by_org_member_id, created_at
		FROM space_tags
		WHERE space_id = ?
		ORDER BY created_at, id
	`, spaceID)
	if err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	defer rows.Close()

	tags := []Tag{}
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.PublicID, &t.Label, &t.Description, &t.Color, &t.CreatedByOrgMemberID, &t.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// Space columns that admins may change one at a time.
const (
	columnName        = "name"
	columnDescription = "description"
	columnColor       = "color"
	columnType        = "type"
)

// UpdateField sets one column of the space. It returns ErrNotFoundOrForbidden
// when no row matched.
func (r *Repository) UpdateField(ctx context.Context, orgID, memberID, shortcode, column, value string) error {
	switch column {
	case columnName, columnDescription, columnColor, columnType:
	default:
		return fmt.Errorf("space column %q is not updatable", column)
	}

	query := fmt.Sprintf(`
		UPDATE spaces SET %s = ?
		WHERE org_id = ? AND shortcode = ? AND `+spaceAdminClause, column, "spaces.id")

	res, err := r.db.ExecContext(ctx, query, value, orgID, shortcode, memberID)
	if err != nil {
		return fmt.Errorf("update space %s: %w", column, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFoundOrForbidden
	}
	return nil
}

func (r *Repository) ShortcodeExists(ctx context.Context, orgID, shortcode string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM spaces WHERE org_id = ? AND shortcode = ?)", orgID, shortcode).Scan(&exists)
	return exists, err
}

// ListMemberSpaces returns the open spaces of orgID and the private spaces
// memberID belongs to, with the member's role where there is one.
func (r *Repository) ListMemberSpaces(ctx context.Context, orgID, memberID string) ([]MemberSpace, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.shortcode, s.name, s.description, s.type, s.color, s.icon, s.personal_space,
		       s.parent_space_id,
		       (SELECT sm.role FROM space_members sm
		        WHERE sm.space_id = s.id AND sm.org_member_id = ? AND sm.removed_at IS NULL
		        ORDER BY sm.added_at LIMIT 1) AS role
		FROM spaces s
		WHERE s.org_id = ?
		ORDER BY s.name, s.id
	`, memberID, orgID)
	if err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}
	defer rows.Close()

	spaces := []MemberSpace{}
	for rows.Next() {
		var s MemberSpace
		if err := rows.Scan(&s.PublicID, &s.Shortcode, &s.Name, &s.Description, &s.Type, &s.Color, &s.Icon, &s.PersonalSpace, &s.ParentID, &s.Role); err != nil {
			return nil, err
		}
		if s.Type == TypePrivate && s.Role == nil {
			continue
		}
		spaces = append(spaces, s)
	}
	return spaces, rows.Err()
}

type newSpace struct {
	Shortcode   string
	Name        string
	Description *string
	Color       string
	Type        string
	Parent      *string
}

// Create inserts the space and makes memberID its admin. A parent shortcode
// that does not resolve in orgID yields ErrNotFoundOrForbidden.
func (r *Repository) Create(ctx context.Context, orgID, memberID string, in newSpace) (*CreateResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var parentID *string
	if in.Parent != nil {
		var id string
		err := tx.QueryRowContext(ctx, "SELECT id FROM spaces WHERE org_id = ? AND shortcode = ?", orgID, *in.Parent).Scan(&id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrNotFoundOrForbidden
			}
			return nil, fmt.Errorf("resolve parent space: %w", err)
		}
		parentID = &id
	}

	now := time.Now().Unix()
	spaceID := "spc_" + uuid.New().String()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO spaces (id, org_id, parent_space_id, shortcode, name, description, type, color, created_by_org_member_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, spaceID, orgID, parentID, in.Shortcode, in.Name, in.Description, in.Type, in.Color, memberID, now)
	if err != nil {
		return nil, err
	}

	caps := AllCapabilities()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO space_members (id, org_id, space_id, org_member_id, role, added_at,
			can_create, can_read, can_comment, can_reply, can_delete, can_change_status,
			can_set_status_to_closed, can_add_tags, can_move_to_another_space,
			can_add_to_another_space, can_merge_convos, can_add_participants)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, "smb_"+uuid.New().String(), orgID, spaceID, memberID, RoleAdmin, now,
		caps.CanCreate, caps.CanRead, caps.CanComment, caps.CanReply, caps.CanDelete, caps.CanChangeStatus,
		caps.CanSetStatusToClosed, caps.CanAddTags, caps.CanMoveToAnotherSpace,
		caps.CanAddToAnotherSpace, caps.CanMergeConvos, caps.CanAddParticipants)
	if err != nil {
		return nil, fmt.Errorf("add space admin: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &CreateResult{SpaceID: spaceID, SpaceShortcode: in.Shortcode}, nil
}

// ListStatuses returns the statuses of the space with shortcode in orgID,
// ordered by bucket and order.
func (r *Repository) ListStatuses(ctx context.Context, orgID, shortcode string) ([]Status, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+statusColumns+`
		FROM space_statuses st
		JOIN spaces s ON s.id = st.space_id
		WHERE s.org_id = ? AND s.shortcode = ?
		ORDER BY st.type, st."order"
	`, orgID, shortcode)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer rows.Close()

	statuses := []Status{}
	for rows.Next() {
		st, err := scanStatus(rows)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, *st)
	}
	return statuses, rows.Err()
}

type newStatus struct {
	Bucket      string
	Name        string
	Description *string
	Color       string
}

// InsertStatus appends a status to its bucket. The order is computed in the
// same statement as max(order)+1 within (space, bucket); a concurrent insert
// that took the same order fails on the unique index and is reported as a
// unique violation for the caller to retry.
func (r *Repository) InsertStatus(ctx context.Context, orgID, memberID, shortcode string, in newStatus) (*AddStatusResult, error) {
	statusID := "sts_" + uuid.New().String()

	var order int
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO space_statuses (id, org_id, space_id, type, name, description, color, "order", created_by_org_member_id, created_at)
		SELECT ?, s.org_id, s.id, ?, ?, ?, ?,
		       COALESCE((SELECT MAX(x."order") FROM space_statuses x WHERE x.space_id = s.id AND x.type = ?), 0) + 1,
		       ?, ?
		FROM spaces s
		WHERE s.org_id = ? AND s.shortcode = ? AND `+fmt.Sprintf(spaceAdminClause, "s.id")+`
		RETURNING "order"
	`, statusID, in.Bucket, in.Name, in.Description, in.Color, in.Bucket, memberID, time.Now().Unix(),
		orgID, shortcode, memberID).Scan(&order)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFoundOrForbidden
		}
		return nil, err
	}

	return &AddStatusResult{StatusID: statusID, Order: order}, nil
}

// UpdateStatus changes name, description and color of a status. Bucket and
// order never change here.
func (r *Repository) UpdateStatus(ctx context.Context, orgID, memberID, shortcode, statusID, name string, description *string, color string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE space_statuses SET name = ?, description = ?, color = ?
		WHERE id = ? AND org_id = ?
		  AND space_id = (SELECT id FROM spaces WHERE org_id = ? AND shortcode = ?)
		  AND `+fmt.Sprintf(spaceAdminClause, "space_statuses.space_id"),
		name, description, color, statusID, orgID, orgID, shortcode, memberID)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFoundOrForbidden
	}
	return nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullInt(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}
