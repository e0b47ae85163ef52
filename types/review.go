package types

import "time"

// Review represents a rated review attached to a campground.
// Each user may leave at most one review per campground.
type Review struct {
	// ID is the unique identifier of the review.
	ID int `json:"id" db:"id"`

	// CampgroundID identifies the campground this review belongs to.
	CampgroundID int `json:"campground_id" db:"campground_id"`

	// Rating is the review score, from 1 to 5.
	Rating int `json:"rating" db:"rating"`

	// Text is the review body.
	Text string `json:"text" db:"text"`

	// AuthorID identifies the user who wrote the review.
	AuthorID int `json:"author_id" db:"author_id"`

	// AuthorUsername is the writing user's username captured at creation time.
	AuthorUsername string `json:"author_username" db:"author_username"`

	// CreatedAt is the timestamp at which the review was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
