package services

import (
	"context"

	"github.com/campdir/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	SetAdmin(ctx context.Context, username string, isAdmin bool) error
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo        UserRepository
	campgrounds CampgroundRepository
}

func NewUserService(repo UserRepository, campgrounds CampgroundRepository) *UserService {
	return &UserService{repo: repo, campgrounds: campgrounds}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	return s.repo.Create(ctx, user)
}

// Profile returns a user together with every campground they authored.
func (s *UserService) Profile(ctx context.Context, id int) (types.User, []types.Campground, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, nil, err
	}
	campgrounds, err := s.campgrounds.ListByAuthor(ctx, user.ID)
	if err != nil {
		return types.User{}, nil, err
	}
	return user, campgrounds, nil
}
