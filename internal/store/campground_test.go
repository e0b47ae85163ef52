package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/campdir/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCampgroundMock(t *testing.T) (*CampgroundRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCampgroundRepository(db), mock
}

func campgroundRows(campgrounds ...types.Campground) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "name", "price", "description", "image_url", "image_id",
		"author_id", "author_username", "created_at", "updated_at",
	})
	for _, c := range campgrounds {
		rows.AddRow(c.ID, c.Name, c.Price, c.Description, c.ImageURL, c.ImageID,
			c.AuthorID, c.AuthorUsername, c.CreatedAt, c.UpdatedAt)
	}
	return rows
}

func TestCampgroundList(t *testing.T) {
	repo, mock := newCampgroundMock(t)
	now := time.Now()

	mock.ExpectQuery(`FROM campgrounds`).
		WillReturnRows(campgroundRows(
			types.Campground{ID: 1, Name: "Pine Lake", Price: 20, AuthorID: 7, AuthorUsername: "alice", CreatedAt: now, UpdatedAt: now},
			types.Campground{ID: 2, Name: "Desert Flat", Price: 5, AuthorID: 7, AuthorUsername: "alice", CreatedAt: now, UpdatedAt: now},
		))

	campgrounds, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, campgrounds, 2)
	assert.Equal(t, "Pine Lake", campgrounds[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampgroundSearchByNamePassesPattern(t *testing.T) {
	repo, mock := newCampgroundMock(t)

	mock.ExpectQuery(`WHERE name ~\* \$1`).
		WithArgs(`a\.b`).
		WillReturnRows(campgroundRows(types.Campground{ID: 3, Name: "a.b camp"}))

	campgrounds, err := repo.SearchByName(context.Background(), `a\.b`)
	require.NoError(t, err)
	require.Len(t, campgrounds, 1)
	assert.Equal(t, "a.b camp", campgrounds[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampgroundGetNotFound(t *testing.T) {
	repo, mock := newCampgroundMock(t)

	mock.ExpectQuery(`WHERE id = \$1`).
		WithArgs(42).
		WillReturnRows(campgroundRows())

	_, err := repo.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampgroundCreateReturnsID(t *testing.T) {
	repo, mock := newCampgroundMock(t)

	mock.ExpectQuery(`INSERT INTO campgrounds`).
		WithArgs("Pine Lake", 20.0, "quiet", "http://media.test/img-1", "img-1",
			7, "alice", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	created, err := repo.Create(context.Background(), types.Campground{
		Name:           "Pine Lake",
		Price:          20,
		Description:    "quiet",
		ImageURL:       "http://media.test/img-1",
		ImageID:        "img-1",
		AuthorID:       7,
		AuthorUsername: "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, 11, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampgroundUpdateDoesNotTouchAuthor(t *testing.T) {
	repo, mock := newCampgroundMock(t)

	// The update statement carries no author columns; a changed author
	// snapshot on the struct must not reach the row.
	mock.ExpectExec(`UPDATE campgrounds`).
		WithArgs("Renamed", 30.0, "new text", "http://media.test/img-2", "img-2",
			sqlmock.AnyArg(), 11).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := repo.Update(context.Background(), types.Campground{
		ID:             11,
		Name:           "Renamed",
		Price:          30,
		Description:    "new text",
		ImageURL:       "http://media.test/img-2",
		ImageID:        "img-2",
		AuthorID:       999,
		AuthorUsername: "mallory",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampgroundUpdateNotFound(t *testing.T) {
	repo, mock := newCampgroundMock(t)

	mock.ExpectExec(`UPDATE campgrounds`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.Update(context.Background(), types.Campground{ID: 42, Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCampgroundDelete(t *testing.T) {
	repo, mock := newCampgroundMock(t)

	mock.ExpectExec(`DELETE FROM campgrounds WHERE id = \$1`).
		WithArgs(11).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 11))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampgroundDeleteNotFound(t *testing.T) {
	repo, mock := newCampgroundMock(t)

	mock.ExpectExec(`DELETE FROM campgrounds WHERE id = \$1`).
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCampgroundListQueryError(t *testing.T) {
	repo, mock := newCampgroundMock(t)

	mock.ExpectQuery(`FROM campgrounds`).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.List(context.Background())
	assert.Error(t, err)
}
