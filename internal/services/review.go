package services

import (
	"context"
	"errors"
	"strings"

	"github.com/campdir/apiserver/types"
)

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	ListByCampground(ctx context.Context, campgroundID int) ([]types.Review, error)
	Get(ctx context.Context, id int) (types.Review, error)
	Create(ctx context.Context, review types.Review) (types.Review, error)
	Delete(ctx context.Context, id int) error
	DeleteByIDs(ctx context.Context, ids []int) error
}

// ReviewService encapsulates review use-cases.
type ReviewService struct {
	repo        ReviewRepository
	campgrounds CampgroundRepository
}

func NewReviewService(repo ReviewRepository, campgrounds CampgroundRepository) *ReviewService {
	return &ReviewService{repo: repo, campgrounds: campgrounds}
}

func (s *ReviewService) Get(ctx context.Context, id int) (types.Review, error) {
	return s.repo.Get(ctx, id)
}

// Create attaches a new review to an existing campground. Ratings are
// 1 through 5; the unique index on (campground_id, author_id) enforces
// one review per user per campground.
func (s *ReviewService) Create(ctx context.Context, campgroundID, rating int, text string, author types.User) (types.Review, error) {
	if rating < 1 || rating > 5 {
		return types.Review{}, errors.New("rating must be between 1 and 5")
	}
	if _, err := s.campgrounds.Get(ctx, campgroundID); err != nil {
		return types.Review{}, err
	}
	return s.repo.Create(ctx, types.Review{
		CampgroundID:   campgroundID,
		Rating:         rating,
		Text:           strings.TrimSpace(text),
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
	})
}

func (s *ReviewService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
