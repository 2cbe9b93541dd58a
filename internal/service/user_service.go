package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/YongHui-X/ecoplate/internal/domain"
)

// UserService provides user profile operations.
type UserService struct {
	users domain.UserRepository
}

func NewUserService(users domain.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

type UpdateProfileInput struct {
	Name      *string
	AvatarURL *string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int64, in UpdateProfileInput) (*domain.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("name cannot be empty: %w", domain.ErrInvalidInput)
		}
		user.Name = name
	}
	if in.AvatarURL != nil {
		user.AvatarURL = in.AvatarURL
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
