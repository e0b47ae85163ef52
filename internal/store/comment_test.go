package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/campdir/apiserver/types"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommentMock(t *testing.T) (*CommentRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCommentRepository(db), mock
}

func TestCommentCreate(t *testing.T) {
	repo, mock := newCommentMock(t)

	mock.ExpectQuery(`INSERT INTO comments`).
		WithArgs(11, "great spot", 7, "alice", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	created, err := repo.Create(context.Background(), types.Comment{
		CampgroundID:   11,
		Text:           "great spot",
		AuthorID:       7,
		AuthorUsername: "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, created.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentListByCampground(t *testing.T) {
	repo, mock := newCommentMock(t)
	now := time.Now()

	mock.ExpectQuery(`FROM comments`).
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "campground_id", "text", "author_id", "author_username", "created_at",
		}).
			AddRow(1, 11, "one", 7, "alice", now).
			AddRow(2, 11, "two", 8, "bob", now))

	comments, err := repo.ListByCampground(context.Background(), 11)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "alice", comments[0].AuthorUsername)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentDeleteByIDs(t *testing.T) {
	repo, mock := newCommentMock(t)

	mock.ExpectExec(`DELETE FROM comments WHERE id = ANY\(\$1\)`).
		WithArgs(pq.Array([]int{1, 2, 5})).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.DeleteByIDs(context.Background(), []int{1, 2, 5}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentDeleteByIDsEmptySkipsDatabase(t *testing.T) {
	repo, mock := newCommentMock(t)

	require.NoError(t, repo.DeleteByIDs(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
