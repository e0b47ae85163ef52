package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/campdir/apiserver/types"
	"github.com/lib/pq"
)

// ReviewRepository handles persistence for reviews.
type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// ListByCampground returns a campground's reviews, newest first.
func (r *ReviewRepository) ListByCampground(ctx context.Context, campgroundID int) ([]types.Review, error) {
	const query = `
		SELECT id, campground_id, rating, text, author_id, author_username, created_at
		FROM reviews
		WHERE campground_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, campgroundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]types.Review, 0)
	for rows.Next() {
		var review types.Review
		if err := rows.Scan(
			&review.ID,
			&review.CampgroundID,
			&review.Rating,
			&review.Text,
			&review.AuthorID,
			&review.AuthorUsername,
			&review.CreatedAt,
		); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reviews, nil
}

func (r *ReviewRepository) Get(ctx context.Context, id int) (types.Review, error) {
	const query = `
		SELECT id, campground_id, rating, text, author_id, author_username, created_at
		FROM reviews
		WHERE id = $1`
	var review types.Review
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&review.ID,
		&review.CampgroundID,
		&review.Rating,
		&review.Text,
		&review.AuthorID,
		&review.AuthorUsername,
		&review.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Review{}, ErrNotFound
		}
		return types.Review{}, err
	}
	return review, nil
}

func (r *ReviewRepository) Create(ctx context.Context, review types.Review) (types.Review, error) {
	review.CreatedAt = time.Now()

	const query = `
		INSERT INTO reviews (campground_id, rating, text, author_id, author_username, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		review.CampgroundID,
		review.Rating,
		review.Text,
		review.AuthorID,
		review.AuthorUsername,
		review.CreatedAt,
	).Scan(&review.ID); err != nil {
		return types.Review{}, err
	}
	return review, nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM reviews WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByIDs removes every review whose id is in the given list.
// It is idempotent: ids that no longer exist are not an error.
func (r *ReviewRepository) DeleteByIDs(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `DELETE FROM reviews WHERE id = ANY($1)`
	_, err := r.db.ExecContext(ctx, query, pq.Array(ids))
	return err
}
