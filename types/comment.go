package types

import "time"

// Comment represents a single comment attached to a campground.
// Comments are stored independently of the campground and are removed
// by id batch when the campground is deleted.
type Comment struct {
	// ID is the unique identifier of the comment.
	ID int `json:"id" db:"id"`

	// CampgroundID identifies the campground this comment belongs to.
	CampgroundID int `json:"campground_id" db:"campground_id"`

	// Text is the comment body.
	Text string `json:"text" db:"text"`

	// AuthorID identifies the user who wrote the comment.
	AuthorID int `json:"author_id" db:"author_id"`

	// AuthorUsername is the writing user's username captured at creation
	// time, mirroring the campground author snapshot.
	AuthorUsername string `json:"author_username" db:"author_username"`

	// CreatedAt is the timestamp at which the comment was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
