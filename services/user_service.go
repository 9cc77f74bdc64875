package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-lifecycle/models"
	"github.com/Dosada05/tournament-lifecycle/repositories"
)

const profileTournamentsLimit = 50

// UserProfile - пользователь и созданные им турниры.
type UserProfile struct {
	User        *models.User         `json:"user"`
	Tournaments []*models.Tournament `json:"tournaments"`
}

type UserService interface {
	GetProfile(ctx context.Context, userID int) (*UserProfile, error)
}

type userService struct {
	store repositories.Store
}

func NewUserService(store repositories.Store) UserService {
	return &userService{store: store}
}

func (s *userService) GetProfile(ctx context.Context, userID int) (*UserProfile, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	tournaments, err := s.store.Tournaments().List(ctx, repositories.ListTournamentsFilter{
		CreatorID: &userID,
		Limit:     profileTournamentsLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments of user %d: %w", userID, err)
	}

	return &UserProfile{User: user, Tournaments: tournaments}, nil
}
