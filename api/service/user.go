package service

import (
	"context"

	"github.com/mzimer/vidmore/api/dto"
	"github.com/mzimer/vidmore/api/models"
	"github.com/mzimer/vidmore/api/repository"
)

type UserService struct {
	repo repository.Repository
}

func NewUserService(repo repository.Repository) *UserService {
	return &UserService{repo: repo}
}

// Register creates the user gate record on first contact. Registering an
// already known external id returns the existing record unchanged.
func (s *UserService) Register(ctx context.Context, externalID string) (*dto.UserResponse, error) {
	user, err := s.repo.RegisterUser(ctx, externalID)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *UserService) Get(ctx context.Context, externalID string) (*dto.UserResponse, error) {
	user, err := s.repo.GetUserByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *UserService) UpdateStatus(ctx context.Context, externalID string, state models.ApprovalState) (*dto.UserResponse, error) {
	user, err := s.repo.UpdateUserStatus(ctx, externalID, state)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

func toUserResponse(user *models.User) *dto.UserResponse {
	return &dto.UserResponse{
		ExternalID:    user.ExternalID,
		ApprovalState: string(user.ApprovalState),
		CreatedAt:     user.CreatedAt.Format(timeLayout),
	}
}
