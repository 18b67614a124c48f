package service

import (
	"context"
	"errors"

	"playshelf/internal/models"
	"playshelf/internal/repository"

	"github.com/google/uuid"
)

// AddFriendResult reports the outcome of adding a friend edge. When
// AlreadyFriends is set nothing was written.
type AddFriendResult struct {
	AlreadyFriends bool
	Friend         *models.FriendSummary
}

// FriendService provides friend-graph business logic.
type FriendService struct {
	friendRepo repository.FriendRepository
	userRepo   repository.UserRepository
}

// NewFriendService returns a new FriendService.
func NewFriendService(friendRepo repository.FriendRepository, userRepo repository.UserRepository) *FriendService {
	return &FriendService{
		friendRepo: friendRepo,
		userRepo:   userRepo,
	}
}

// ListFriends returns userID's outgoing edges as summaries.
func (s *FriendService) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.FriendSummary, error) {
	users, err := s.friendRepo.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.FriendSummary, 0, len(users))
	for _, u := range users {
		out = append(out, models.SummarizeUser(u, true))
	}
	return out, nil
}

// AddFriend creates the edge userID -> friendID. An existing edge, including
// one inserted concurrently, is reported through AlreadyFriends.
func (s *FriendService) AddFriend(ctx context.Context, userID, friendID uuid.UUID) (*AddFriendResult, error) {
	if userID == friendID {
		return nil, models.NewValidationError("You cannot add yourself as a friend")
	}

	ok, err := s.userRepo.Exists(ctx, friendID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewNotFoundError("User not found")
	}

	exists, err := s.friendRepo.Exists(ctx, userID, friendID)
	if err != nil {
		return nil, err
	}
	if exists {
		return &AddFriendResult{AlreadyFriends: true}, nil
	}

	if err := s.friendRepo.Create(ctx, &models.FriendConnection{UserID: userID, FriendID: friendID}); err != nil {
		if isConflict(err) {
			return &AddFriendResult{AlreadyFriends: true}, nil
		}
		return nil, err
	}

	friend, err := s.userRepo.GetByID(ctx, friendID)
	if err != nil {
		return nil, err
	}
	summary := models.SummarizeUser(*friend, true)
	return &AddFriendResult{Friend: &summary}, nil
}

func isConflict(err error) bool {
	var appErr *models.AppError
	return errors.As(err, &appErr) && appErr.Code == models.CodeConflict
}
