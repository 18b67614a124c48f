package service

import (
	"context"

	"playshelf/internal/models"
	"playshelf/internal/repository"

	"github.com/google/uuid"
)

// UserService serves the signed-in user's own account.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService returns a new UserService.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// GetUserByID loads a user with its Discord connection.
func (s *UserService) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// Exists reports whether the user row is still present. Sessions for deleted
// users are treated as unauthenticated.
func (s *UserService) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.userRepo.Exists(ctx, id)
}
