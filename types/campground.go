package types

import "time"

// Campground represents a single listing in the directory.
// It carries a denormalized author snapshot and a reference to exactly
// one hosted image.
type Campground struct {
	// ID is the unique identifier of the campground.
	ID int `json:"id" db:"id"`

	// Name is the display name of the campground.
	Name string `json:"name" db:"name"`

	// Price is the nightly price of the campground.
	Price float64 `json:"price" db:"price"`

	// Description is the free-form description shown on the detail view.
	Description string `json:"description" db:"description"`

	// ImageURL is the public URL of the campground's hosted image.
	// ImageURL and ImageID always refer to the same remote asset and
	// are only ever written together.
	ImageURL string `json:"image_url" db:"image_url"`

	// ImageID is the opaque media-store identifier of the hosted image,
	// used to delete or replace the remote asset.
	ImageID string `json:"image_id" db:"image_id"`

	// AuthorID identifies the user who created the campground.
	// The author snapshot is immutable after creation.
	AuthorID int `json:"author_id" db:"author_id"`

	// AuthorUsername is the creating user's username captured at creation
	// time. It is a display cache and is not kept in sync if the user
	// later renames themselves.
	AuthorUsername string `json:"author_username" db:"author_username"`

	// CreatedAt is the timestamp at which the campground was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the campground.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Comments holds the campground's comments when loaded for the
	// detail view. Comments are stored independently; this field may be
	// omitted for list views.
	Comments []Comment `json:"comments,omitempty" db:"-"`

	// Reviews holds the campground's reviews, newest first, when loaded
	// for the detail view.
	Reviews []Review `json:"reviews,omitempty" db:"-"`
}

// CommentIDs returns the identifiers of the loaded comments.
func (c Campground) CommentIDs() []int {
	ids := make([]int, 0, len(c.Comments))
	for _, comment := range c.Comments {
		ids = append(ids, comment.ID)
	}
	return ids
}

// ReviewIDs returns the identifiers of the loaded reviews.
func (c Campground) ReviewIDs() []int {
	ids := make([]int, 0, len(c.Reviews))
	for _, review := range c.Reviews {
		ids = append(ids, review.ID)
	}
	return ids
}
