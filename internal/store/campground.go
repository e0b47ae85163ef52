package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/campdir/apiserver/types"
)

// CampgroundRepository handles persistence for campgrounds.
type CampgroundRepository struct {
	db *sql.DB
}

func NewCampgroundRepository(db *sql.DB) *CampgroundRepository {
	return &CampgroundRepository{db: db}
}

const campgroundColumns = `id, name, price, description, image_url, image_id, author_id, author_username, created_at, updated_at`

func (r *CampgroundRepository) List(ctx context.Context) ([]types.Campground, error) {
	const query = `
		SELECT ` + campgroundColumns + `
		FROM campgrounds
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCampgrounds(rows)
}

// SearchByName matches the given POSIX pattern against campground names,
// case-insensitively. Callers are expected to quote user input so it is
// treated as a literal substring rather than a pattern.
func (r *CampgroundRepository) SearchByName(ctx context.Context, pattern string) ([]types.Campground, error) {
	const query = `
		SELECT ` + campgroundColumns + `
		FROM campgrounds
		WHERE name ~* $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCampgrounds(rows)
}

func (r *CampgroundRepository) ListByAuthor(ctx context.Context, authorID int) ([]types.Campground, error) {
	const query = `
		SELECT ` + campgroundColumns + `
		FROM campgrounds
		WHERE author_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCampgrounds(rows)
}

func (r *CampgroundRepository) Get(ctx context.Context, id int) (types.Campground, error) {
	const query = `
		SELECT ` + campgroundColumns + `
		FROM campgrounds
		WHERE id = $1`
	var campground types.Campground
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&campground.ID,
		&campground.Name,
		&campground.Price,
		&campground.Description,
		&campground.ImageURL,
		&campground.ImageID,
		&campground.AuthorID,
		&campground.AuthorUsername,
		&campground.CreatedAt,
		&campground.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Campground{}, ErrNotFound
		}
		return types.Campground{}, err
	}
	return campground, nil
}

func (r *CampgroundRepository) Create(ctx context.Context, campground types.Campground) (types.Campground, error) {
	now := time.Now()
	campground.CreatedAt = now
	campground.UpdatedAt = now

	const query = `
		INSERT INTO campgrounds (name, price, description, image_url, image_id, author_id, author_username, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		campground.Name,
		campground.Price,
		campground.Description,
		campground.ImageURL,
		campground.ImageID,
		campground.AuthorID,
		campground.AuthorUsername,
		campground.CreatedAt,
		campground.UpdatedAt,
	).Scan(&campground.ID); err != nil {
		return types.Campground{}, err
	}

	return campground, nil
}

// Update persists the mutable campground fields. The author snapshot is
// never written after creation.
func (r *CampgroundRepository) Update(ctx context.Context, campground types.Campground) (types.Campground, error) {
	campground.UpdatedAt = time.Now()

	const query = `
		UPDATE campgrounds
		SET name = $1,
			price = $2,
			description = $3,
			image_url = $4,
			image_id = $5,
			updated_at = $6
		WHERE id = $7`
	result, err := r.db.ExecContext(
		ctx,
		query,
		campground.Name,
		campground.Price,
		campground.Description,
		campground.ImageURL,
		campground.ImageID,
		campground.UpdatedAt,
		campground.ID,
	)
	if err != nil {
		return types.Campground{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Campground{}, err
	}
	if affected == 0 {
		return types.Campground{}, ErrNotFound
	}

	return campground, nil
}

func (r *CampgroundRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM campgrounds WHERE id = $1`
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

func scanCampgrounds(rows *sql.Rows) ([]types.Campground, error) {
	campgrounds := make([]types.Campground, 0)
	for rows.Next() {
		var campground types.Campground
		if err := rows.Scan(
			&campground.ID,
			&campground.Name,
			&campground.Price,
			&campground.Description,
			&campground.ImageURL,
			&campground.ImageID,
			&campground.AuthorID,
			&campground.AuthorUsername,
			&campground.CreatedAt,
			&campground.UpdatedAt,
		); err != nil {
			return nil, err
		}
		campgrounds = append(campgrounds, campground)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return campgrounds, nil
}
