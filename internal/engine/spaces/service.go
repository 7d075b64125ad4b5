package spaces

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"spaces/internal/pkg/validator"
	"spaces/internal/platform/database"
)

const maxInsertAttempts = 3

// Entitlements reports which plan-gated features an organization may use.
type Entitlements interface {
	CanUsePrivateSpaces(plan string) bool
	CanUseStatuses(plan string) bool
}

type Service struct {
	repo         *Repository
	entitlements Entitlements
}

func NewService(repo *Repository, entitlements Entitlements) *Service {
	return &Service{repo: repo, entitlements: entitlements}
}

// GetSettings returns the settings snapshot of a space in the caller's
// organization. A shortcode that does not resolve there yields a result with
// nil Settings, never another organization's space.
func (s *Service) GetSettings(ctx context.Context, c Caller, in SettingsInput) (*SettingsResult, error) {
	if err := validator.Check(in); err != nil {
		return nil, err
	}
	return s.repo.GetSettings(ctx, c.OrgID, c.MemberID, in.SpaceShortcode)
}

func (s *Service) SetName(ctx context.Context, c Caller, in SetNameInput) error {
	if err := validator.Check(in); err != nil {
		return err
	}
	return s.repo.UpdateField(ctx, c.OrgID, c.MemberID, in.SpaceShortcode, columnName, in.SpaceName)
}

func (s *Service) SetDescription(ctx context.Context, c Caller, in SetDescriptionInput) error {
	if err := validator.Check(in); err != nil {
		return err
	}
	return s.repo.UpdateField(ctx, c.OrgID, c.MemberID, in.SpaceShortcode, columnDescription, in.SpaceDescription)
}

func (s *Service) SetColor(ctx context.Context, c Caller, in SetColorInput) error {
	if err := validator.Check(in); err != nil {
		return err
	}
	return s.repo.UpdateField(ctx, c.OrgID, c.MemberID, in.SpaceShortcode, columnColor, in.SpaceColor)
}

// SetType switches a space between open and private. Making a space private
// requires the plan entitlement; without it nothing is written.
func (s *Service) SetType(ctx context.Context, c Caller, in SetTypeInput) error {
	if err := validator.Check(in); err != nil {
		return err
	}
	if in.SpaceType == TypePrivate && !s.entitlements.CanUsePrivateSpaces(c.PlanTier) {
		return ErrNotEntitled
	}
	return s.repo.UpdateField(ctx, c.OrgID, c.MemberID, in.SpaceShortcode, columnType, in.SpaceType)
}

func (s *Service) ListOrgMemberSpaces(ctx context.Context, c Caller) ([]MemberSpace, error) {
	return s.repo.ListMemberSpaces(ctx, c.OrgID, c.MemberID)
}

func (s *Service) Create(ctx context.Context, c Caller, in CreateInput) (*CreateResult, error) {
	if err := validator.Check(in); err != nil {
		return nil, err
	}
	if in.SpaceType == TypePrivate && !s.entitlements.CanUsePrivateSpaces(c.PlanTier) {
		return nil, ErrNotEntitled
	}

	for attempt := 1; ; attempt++ {
		shortcode, err := GenerateShortcode(ctx, c.OrgID, in.SpaceName, s.repo)
		if err != nil {
			return nil, err
		}

		result, err := s.repo.Create(ctx, c.OrgID, c.MemberID, newSpace{
			Shortcode:   shortcode,
			Name:        in.SpaceName,
			Description: in.SpaceDescription,
			Color:       in.SpaceColor,
			Type:        in.SpaceType,
			Parent:      in.ParentSpaceShortcode,
		})
		if err == nil {
			return result, nil
		}
		if !database.IsUniqueViolation(err) || attempt >= maxInsertAttempts {
			return nil, err
		}
		log.Debug().Str("shortcode", shortcode).Int("attempt", attempt).Msg("space shortcode taken concurrently, retrying")
	}
}

// ListStatuses groups the space's statuses into their buckets.
func (s *Service) ListStatuses(ctx context.Context, c Caller, in SettingsInput) (*Statuses, error) {
	if err := validator.Check(in); err != nil {
		return nil, err
	}

	all, err := s.repo.ListStatuses(ctx, c.OrgID, in.SpaceShortcode)
	if err != nil {
		return nil, err
	}
	return GroupStatuses(all), nil
}

// GroupStatuses splits statuses into buckets, keeping their relative order.
func GroupStatuses(all []Status) *Statuses {
	grouped := &Statuses{Open: []Status{}, Active: []Status{}, Closed: []Status{}}
	for _, st := range all {
		switch st.Type {
		case BucketOpen:
			grouped.Open = append(grouped.Open, st)
		case BucketActive:
			grouped.Active = append(grouped.Active, st)
		case BucketClosed:
			grouped.Closed = append(grouped.Closed, st)
		}
	}
	return grouped
}

// AddStatus appends a status to the end of its bucket. The order is assigned
// by the server.
func (s *Service) AddStatus(ctx context.Context, c Caller, in AddStatusInput) (*AddStatusResult, error) {
	if err := validator.Check(in); err != nil {
		return nil, err
	}
	if !s.entitlements.CanUseStatuses(c.PlanTier) {
		return nil, ErrNotEntitled
	}

	status := newStatus{
		Bucket:      in.Type,
		Name:        in.Name,
		Description: optional(in.Description),
		Color:       in.Color,
	}

	var lastErr error
	for attempt := 1; attempt <= maxInsertAttempts; attempt++ {
		result, err := s.repo.InsertStatus(ctx, c.OrgID, c.MemberID, in.SpaceShortcode, status)
		if err == nil {
			return result, nil
		}
		if !database.IsUniqueViolation(err) {
			return nil, err
		}
		lastErr = err
		log.Debug().Str("space", in.SpaceShortcode).Str("bucket", in.Type).Int("attempt", attempt).Msg("status order collided, retrying")
	}
	return nil, fmt.Errorf("%w: %v", ErrOrderConflict, lastErr)
}

func (s *Service) EditStatus(ctx context.Context, c Caller, in EditStatusInput) error {
	if err := validator.Check(in); err != nil {
		return err
	}
	return s.repo.UpdateStatus(ctx, c.OrgID, c.MemberID, in.SpaceShortcode, in.StatusID, in.Name, optional(in.Description), in.Color)
}

// IsSoftFailure reports whether err should reach the caller as a
// recoverable {success:false} result rather than an error.
func IsSoftFailure(err error) bool {
	return errors.Is(err, ErrNotFoundOrForbidden)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
