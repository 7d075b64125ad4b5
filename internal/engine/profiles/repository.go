package profiles

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"spaces/internal/platform/database"
	"spaces/internal/platform/repositories"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert stores a new profile. A default profile is also attached to the
// user's org memberships that have none yet.
func (r *Repository) Insert(ctx context.Context, id, userID string, in CreateInput) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO user_profiles (id, user_id, avatar_id, first_name, last_name, handle, default_profile, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, userID, in.ImageID, in.FirstName, in.LastName, in.Handle, in.DefaultProfile, time.Now().Unix())
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrHandleTaken
		}
		return err
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return ErrNotCreated
	}

	if in.DefaultProfile {
		if err := repositories.NewOrgMemberRepository(tx).SetProfileForUser(ctx, userID, id); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetDefault returns the user's default profile, or nil when there is none.
func (r *Repository) GetDefault(ctx context.Context, userID string) (*Profile, error) {
	p := &Profile{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, avatar_id, first_name, last_name, handle, title, blurb
		FROM user_profiles
		WHERE user_id = ? AND default_profile = 1
		ORDER BY created_at, id
		LIMIT 1
	`, userID).Scan(&p.PublicID, &p.AvatarID, &p.FirstName, &p.LastName, &p.Handle, &p.Title, &p.Blurb)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// Update replaces every editable field of the profile owned by userID.
func (r *Repository) Update(ctx context.Context, userID string, in UpdateInput) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE user_profiles
		SET avatar_id = ?, first_name = ?, last_name = ?, title = ?, blurb = ?, handle = ?
		WHERE id = ? AND user_id = ?
	`, in.ImageID, in.FirstName, in.LastName, in.Title, in.Blurb, in.Handle, in.ProfilePublicID, userID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrHandleTaken
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
