package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"

	"github.com/campdir/apiserver/internal/media"
	"github.com/campdir/apiserver/internal/mq"
	"github.com/campdir/apiserver/types"
)

// CampgroundRepository defines persistence operations for campgrounds.
type CampgroundRepository interface {
	List(ctx context.Context) ([]types.Campground, error)
	SearchByName(ctx context.Context, pattern string) ([]types.Campground, error)
	ListByAuthor(ctx context.Context, authorID int) ([]types.Campground, error)
	Get(ctx context.Context, id int) (types.Campground, error)
	Create(ctx context.Context, campground types.Campground) (types.Campground, error)
	Update(ctx context.Context, campground types.Campground) (types.Campground, error)
	Delete(ctx context.Context, id int) error
}

// MediaStore defines the hosted-image operations the lifecycle depends on.
type MediaStore interface {
	Upload(ctx context.Context, filename string, r io.Reader, size int64) (media.Asset, error)
	Destroy(ctx context.Context, publicID string) error
}

// EventPublisher emits media-consistency events. Implementations may drop
// events; publishing is advisory and never blocks a lifecycle operation.
type EventPublisher interface {
	PublishMediaOrphaned(ctx context.Context, event mq.MediaOrphanedEvent) (string, error)
	PublishCascadeFailed(ctx context.Context, event mq.CascadeFailedEvent) (string, error)
}

// ImageUpload carries one uploaded image file through a create or update.
type ImageUpload struct {
	Filename string
	File     io.Reader
	Size     int64
}

// NewCampground carries the inputs for creating a campground.
type NewCampground struct {
	Name        string
	Price       float64
	Description string
	Image       ImageUpload
}

// CampgroundUpdate carries the inputs for updating a campground.
// Image is optional; when nil the existing asset is kept.
type CampgroundUpdate struct {
	Name        string
	Price       float64
	Description string
	Image       *ImageUpload
}

// CampgroundService orchestrates the campground lifecycle: list/search,
// create with upload, read with children, update with optional image
// replacement, and delete with best-effort cascade.
type CampgroundService struct {
	campgrounds CampgroundRepository
	comments    CommentRepository
	reviews     ReviewRepository
	media       MediaStore
	events      EventPublisher
}

func NewCampgroundService(
	campgrounds CampgroundRepository,
	comments CommentRepository,
	reviews ReviewRepository,
	mediaStore MediaStore,
	events EventPublisher,
) *CampgroundService {
	return &CampgroundService{
		campgrounds: campgrounds,
		comments:    comments,
		reviews:     reviews,
		media:       mediaStore,
		events:      events,
	}
}

// List returns every campground in store order.
func (s *CampgroundService) List(ctx context.Context) ([]types.Campground, error) {
	return s.campgrounds.List(ctx)
}

// Search matches campground names against the given text as a literal,
// case-insensitive substring. All regex metacharacters in the input are
// quoted, so searching "a.b" matches only names containing "a.b".
func (s *CampgroundService) Search(ctx context.Context, search string) ([]types.Campground, error) {
	return s.campgrounds.SearchByName(ctx, regexp.QuoteMeta(search))
}

// ListByAuthor returns every campground created by the given user.
func (s *CampgroundService) ListByAuthor(ctx context.Context, authorID int) ([]types.Campground, error) {
	return s.campgrounds.ListByAuthor(ctx, authorID)
}

// Create uploads the image first and only then inserts the record, so a
// stored campground always carries both halves of the image pair. If the
// insert fails after a successful upload the asset is left in place and
// reported as orphaned for the reconcile worker to sweep.
func (s *CampgroundService) Create(ctx context.Context, input NewCampground, author types.User) (types.Campground, error) {
	asset, err := s.media.Upload(ctx, input.Image.Filename, input.Image.File, input.Image.Size)
	if err != nil {
		return types.Campground{}, err
	}

	campground := types.Campground{
		Name:           input.Name,
		Price:          input.Price,
		Description:    input.Description,
		ImageURL:       asset.URL,
		ImageID:        asset.PublicID,
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
	}

	created, err := s.campgrounds.Create(ctx, campground)
	if err != nil {
		slog.Error("campground insert failed after image upload, asset orphaned",
			"public_id", asset.PublicID, "error", err)
		s.reportOrphan(ctx, asset.PublicID, asset.URL, "campground insert failed after upload")
		return types.Campground{}, err
	}

	return created, nil
}

// Get returns one campground with all of its comments and its reviews,
// newest review first.
func (s *CampgroundService) Get(ctx context.Context, id int) (types.Campground, error) {
	campground, err := s.campgrounds.Get(ctx, id)
	if err != nil {
		return types.Campground{}, err
	}

	comments, err := s.comments.ListByCampground(ctx, id)
	if err != nil {
		return types.Campground{}, fmt.Errorf("load comments: %w", err)
	}
	campground.Comments = comments

	reviews, err := s.reviews.ListByCampground(ctx, id)
	if err != nil {
		return types.Campground{}, fmt.Errorf("load reviews: %w", err)
	}
	campground.Reviews = reviews

	return campground, nil
}

// Update applies the new field values, replacing the hosted image first
// when a new file is supplied. If either the destroy or the upload step
// fails the whole update is aborted and no field change is persisted.
func (s *CampgroundService) Update(ctx context.Context, id int, input CampgroundUpdate) (types.Campground, error) {
	campground, err := s.campgrounds.Get(ctx, id)
	if err != nil {
		return types.Campground{}, err
	}

	if input.Image != nil {
		if err := s.media.Destroy(ctx, campground.ImageID); err != nil {
			return types.Campground{}, err
		}
		asset, err := s.media.Upload(ctx, input.Image.Filename, input.Image.File, input.Image.Size)
		if err != nil {
			// The old asset is already gone; the record still points at it
			// until the next successful update. Same exposure as the
			// create path, loud rather than silent.
			slog.Error("image replacement failed between destroy and upload",
				"campground_id", id, "old_public_id", campground.ImageID, "error", err)
			return types.Campground{}, err
		}
		campground.ImageURL = asset.URL
		campground.ImageID = asset.PublicID
	}

	campground.Name = input.Name
	campground.Price = input.Price
	campground.Description = input.Description

	return s.campgrounds.Update(ctx, campground)
}

// Delete removes the campground and cascades over its dependents: the
// remote image asset, then the comment and review rows by id batch, then
// the campground row itself. The cascade is best-effort; a failed cleanup
// step is logged and published but never blocks removing the row.
func (s *CampgroundService) Delete(ctx context.Context, id int) error {
	campground, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.media.Destroy(ctx, campground.ImageID); err != nil {
		slog.Warn("cascade: image destroy failed", "campground_id", id,
			"public_id", campground.ImageID, "error", err)
		s.reportOrphan(ctx, campground.ImageID, campground.ImageURL, "destroy failed during campground delete")
	}

	commentIDs := campground.CommentIDs()
	reviewIDs := campground.ReviewIDs()
	var failedComments, failedReviews []int

	if err := s.comments.DeleteByIDs(ctx, commentIDs); err != nil {
		slog.Warn("cascade: comment batch delete failed", "campground_id", id, "error", err)
		failedComments = commentIDs
	}
	if err := s.reviews.DeleteByIDs(ctx, reviewIDs); err != nil {
		slog.Warn("cascade: review batch delete failed", "campground_id", id, "error", err)
		failedReviews = reviewIDs
	}

	if len(failedComments) > 0 || len(failedReviews) > 0 {
		s.reportCascadeFailure(ctx, id, failedComments, failedReviews)
	}

	return s.campgrounds.Delete(ctx, id)
}

func (s *CampgroundService) reportOrphan(ctx context.Context, publicID, url, reason string) {
	if s.events == nil {
		return
	}
	_, err := s.events.PublishMediaOrphaned(ctx, mq.MediaOrphanedEvent{
		PublicID: publicID,
		URL:      url,
		Reason:   reason,
	})
	if err != nil {
		slog.Warn("publish media.orphaned failed", "public_id", publicID, "error", err)
	}
}

func (s *CampgroundService) reportCascadeFailure(ctx context.Context, campgroundID int, commentIDs, reviewIDs []int) {
	if s.events == nil {
		return
	}
	_, err := s.events.PublishCascadeFailed(ctx, mq.CascadeFailedEvent{
		CampgroundID: campgroundID,
		CommentIDs:   commentIDs,
		ReviewIDs:    reviewIDs,
		Reason:       "child batch delete failed",
	})
	if err != nil {
		slog.Warn("publish campground.cascade-failed failed", "campground_id", campgroundID, "error", err)
	}
}
