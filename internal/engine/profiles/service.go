package profiles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"spaces/internal/pkg/validator"
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*CreateResult, error) {
	if err := validator.Check(in); err != nil {
		return nil, err
	}

	id := "prf_" + uuid.New().String()
	if err := s.repo.Insert(ctx, id, userID, in); err != nil {
		return nil, err
	}
	return &CreateResult{ProfileID: id, AvatarID: in.ImageID}, nil
}

// GetDefault returns the caller's default profile or nil.
func (s *Service) GetDefault(ctx context.Context, userID string) (*Profile, error) {
	return s.repo.GetDefault(ctx, userID)
}

func (s *Service) Update(ctx context.Context, userID string, in UpdateInput) error {
	if err := validator.Check(in); err != nil {
		return err
	}
	return s.repo.Update(ctx, userID, in)
}

// IsSoftFailure reports whether err is a recoverable outcome the caller can
// fix and retry.
func IsSoftFailure(err error) bool {
	return errors.Is(err, ErrNotCreated) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrHandleTaken)
}
