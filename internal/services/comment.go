package services

import (
	"context"
	"errors"
	"strings"

	"github.com/campdir/apiserver/types"
)

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	ListByCampground(ctx context.Context, campgroundID int) ([]types.Comment, error)
	Get(ctx context.Context, id int) (types.Comment, error)
	Create(ctx context.Context, comment types.Comment) (types.Comment, error)
	Delete(ctx context.Context, id int) error
	DeleteByIDs(ctx context.Context, ids []int) error
}

// CommentService encapsulates comment use-cases.
type CommentService struct {
	repo        CommentRepository
	campgrounds CampgroundRepository
}

func NewCommentService(repo CommentRepository, campgrounds CampgroundRepository) *CommentService {
	return &CommentService{repo: repo, campgrounds: campgrounds}
}

func (s *CommentService) Get(ctx context.Context, id int) (types.Comment, error) {
	return s.repo.Get(ctx, id)
}

// Create attaches a new comment to an existing campground, stamping the
// author snapshot from the writing user.
func (s *CommentService) Create(ctx context.Context, campgroundID int, text string, author types.User) (types.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return types.Comment{}, errors.New("comment text is required")
	}
	if _, err := s.campgrounds.Get(ctx, campgroundID); err != nil {
		return types.Comment{}, err
	}
	return s.repo.Create(ctx, types.Comment{
		CampgroundID:   campgroundID,
		Text:           text,
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
	})
}

func (s *CommentService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
