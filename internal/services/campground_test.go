package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/campdir/apiserver/internal/media"
	"github.com/campdir/apiserver/internal/mq"
	"github.com/campdir/apiserver/internal/store"
	"github.com/campdir/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCampgroundRepo struct {
	campgrounds map[int]types.Campground
	nextID      int
	lastPattern string
	failCreate  error
	failUpdate  error
}

func newFakeCampgroundRepo() *fakeCampgroundRepo {
	return &fakeCampgroundRepo{campgrounds: make(map[int]types.Campground), nextID: 1}
}

func (f *fakeCampgroundRepo) List(ctx context.Context) ([]types.Campground, error) {
	items := make([]types.Campground, 0, len(f.campgrounds))
	for id := 1; id < f.nextID; id++ {
		if campground, ok := f.campgrounds[id]; ok {
			items = append(items, campground)
		}
	}
	return items, nil
}

func (f *fakeCampgroundRepo) SearchByName(ctx context.Context, pattern string) ([]types.Campground, error) {
	f.lastPattern = pattern
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}
	var items []types.Campground
	for id := 1; id < f.nextID; id++ {
		if campground, ok := f.campgrounds[id]; ok && re.MatchString(campground.Name) {
			items = append(items, campground)
		}
	}
	return items, nil
}

func (f *fakeCampgroundRepo) ListByAuthor(ctx context.Context, authorID int) ([]types.Campground, error) {
	var items []types.Campground
	for id := 1; id < f.nextID; id++ {
		if campground, ok := f.campgrounds[id]; ok && campground.AuthorID == authorID {
			items = append(items, campground)
		}
	}
	return items, nil
}

func (f *fakeCampgroundRepo) Get(ctx context.Context, id int) (types.Campground, error) {
	campground, ok := f.campgrounds[id]
	if !ok {
		return types.Campground{}, store.ErrNotFound
	}
	return campground, nil
}

func (f *fakeCampgroundRepo) Create(ctx context.Context, campground types.Campground) (types.Campground, error) {
	if f.failCreate != nil {
		return types.Campground{}, f.failCreate
	}
	campground.ID = f.nextID
	f.nextID++
	f.campgrounds[campground.ID] = campground
	return campground, nil
}

func (f *fakeCampgroundRepo) Update(ctx context.Context, campground types.Campground) (types.Campground, error) {
	if f.failUpdate != nil {
		return types.Campground{}, f.failUpdate
	}
	if _, ok := f.campgrounds[campground.ID]; !ok {
		return types.Campground{}, store.ErrNotFound
	}
	campground.Comments = nil
	campground.Reviews = nil
	f.campgrounds[campground.ID] = campground
	return campground, nil
}

func (f *fakeCampgroundRepo) Delete(ctx context.Context, id int) error {
	if _, ok := f.campgrounds[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.campgrounds, id)
	return nil
}

type fakeCommentRepo struct {
	comments   map[int]types.Comment
	nextID     int
	failDelete error
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: make(map[int]types.Comment), nextID: 1}
}

func (f *fakeCommentRepo) ListByCampground(ctx context.Context, campgroundID int) ([]types.Comment, error) {
	items := make([]types.Comment, 0)
	for id := 1; id < f.nextID; id++ {
		if comment, ok := f.comments[id]; ok && comment.CampgroundID == campgroundID {
			items = append(items, comment)
		}
	}
	return items, nil
}

func (f *fakeCommentRepo) Get(ctx context.Context, id int) (types.Comment, error) {
	comment, ok := f.comments[id]
	if !ok {
		return types.Comment{}, store.ErrNotFound
	}
	return comment, nil
}

func (f *fakeCommentRepo) Create(ctx context.Context, comment types.Comment) (types.Comment, error) {
	comment.ID = f.nextID
	f.nextID++
	f.comments[comment.ID] = comment
	return comment, nil
}

func (f *fakeCommentRepo) Delete(ctx context.Context, id int) error {
	if _, ok := f.comments[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.comments, id)
	return nil
}

func (f *fakeCommentRepo) DeleteByIDs(ctx context.Context, ids []int) error {
	if f.failDelete != nil {
		return f.failDelete
	}
	for _, id := range ids {
		delete(f.comments, id)
	}
	return nil
}

type fakeReviewRepo struct {
	reviews    map[int]types.Review
	nextID     int
	failDelete error
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: make(map[int]types.Review), nextID: 1}
}

func (f *fakeReviewRepo) ListByCampground(ctx context.Context, campgroundID int) ([]types.Review, error) {
	items := make([]types.Review, 0)
	// Newest first: ids ascend with creation order in the fake.
	for id := f.nextID - 1; id >= 1; id-- {
		if review, ok := f.reviews[id]; ok && review.CampgroundID == campgroundID {
			items = append(items, review)
		}
	}
	return items, nil
}

func (f *fakeReviewRepo) Get(ctx context.Context, id int) (types.Review, error) {
	review, ok := f.reviews[id]
	if !ok {
		return types.Review{}, store.ErrNotFound
	}
	return review, nil
}

func (f *fakeReviewRepo) Create(ctx context.Context, review types.Review) (types.Review, error) {
	review.ID = f.nextID
	f.nextID++
	f.reviews[review.ID] = review
	return review, nil
}

func (f *fakeReviewRepo) Delete(ctx context.Context, id int) error {
	if _, ok := f.reviews[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.reviews, id)
	return nil
}

func (f *fakeReviewRepo) DeleteByIDs(ctx context.Context, ids []int) error {
	if f.failDelete != nil {
		return f.failDelete
	}
	for _, id := range ids {
		delete(f.reviews, id)
	}
	return nil
}

type fakeMediaStore struct {
	assets      map[string]bool
	uploads     int
	failUpload  error
	failDestroy error
}

func newFakeMediaStore() *fakeMediaStore {
	return &fakeMediaStore{assets: make(map[string]bool)}
}

func (f *fakeMediaStore) Upload(ctx context.Context, filename string, r io.Reader, size int64) (media.Asset, error) {
	if f.failUpload != nil {
		return media.Asset{}, f.failUpload
	}
	f.uploads++
	publicID := fmt.Sprintf("img-%d", f.uploads)
	f.assets[publicID] = true
	return media.Asset{
		URL:      "http://media.test/" + publicID,
		PublicID: publicID,
	}, nil
}

func (f *fakeMediaStore) Destroy(ctx context.Context, publicID string) error {
	if f.failDestroy != nil {
		return f.failDestroy
	}
	if !f.assets[publicID] {
		return errors.New("asset not found")
	}
	delete(f.assets, publicID)
	return nil
}

type fakePublisher struct {
	orphaned []mq.MediaOrphanedEvent
	cascades []mq.CascadeFailedEvent
}

func (f *fakePublisher) PublishMediaOrphaned(ctx context.Context, event mq.MediaOrphanedEvent) (string, error) {
	f.orphaned = append(f.orphaned, event)
	return "msg-1", nil
}

func (f *fakePublisher) PublishCascadeFailed(ctx context.Context, event mq.CascadeFailedEvent) (string, error) {
	f.cascades = append(f.cascades, event)
	return "msg-2", nil
}

type campgroundFixture struct {
	service     *CampgroundService
	campgrounds *fakeCampgroundRepo
	comments    *fakeCommentRepo
	reviews     *fakeReviewRepo
	media       *fakeMediaStore
	events      *fakePublisher
}

func newCampgroundFixture() campgroundFixture {
	campgrounds := newFakeCampgroundRepo()
	comments := newFakeCommentRepo()
	reviews := newFakeReviewRepo()
	mediaStore := newFakeMediaStore()
	events := &fakePublisher{}
	return campgroundFixture{
		service:     NewCampgroundService(campgrounds, comments, reviews, mediaStore, events),
		campgrounds: campgrounds,
		comments:    comments,
		reviews:     reviews,
		media:       mediaStore,
		events:      events,
	}
}

func alice() types.User {
	return types.User{ID: 7, Username: "alice"}
}

func (f campgroundFixture) mustCreate(t *testing.T, name string, price float64, description string) types.Campground {
	t.Helper()
	created, err := f.service.Create(context.Background(), NewCampground{
		Name:        name,
		Price:       price,
		Description: description,
		Image:       ImageUpload{Filename: "lake.jpg", File: strings.NewReader("jpeg bytes"), Size: 10},
	}, alice())
	require.NoError(t, err)
	return created
}

func TestCreateStampsImageAndAuthor(t *testing.T) {
	f := newCampgroundFixture()

	created := f.mustCreate(t, "Pine Lake", 20, "quiet")

	assert.Equal(t, "alice", created.AuthorUsername)
	assert.Equal(t, 7, created.AuthorID)
	assert.NotEmpty(t, created.ImageURL)
	assert.NotEmpty(t, created.ImageID)
	assert.True(t, strings.HasSuffix(created.ImageURL, created.ImageID))

	items, err := f.service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Pine Lake", items[0].Name)
}

func TestCreateUploadFailureCreatesNothing(t *testing.T) {
	f := newCampgroundFixture()
	f.media.failUpload = errors.New("upload rejected")

	_, err := f.service.Create(context.Background(), NewCampground{
		Name:  "Pine Lake",
		Image: ImageUpload{Filename: "lake.jpg", File: strings.NewReader("x"), Size: 1},
	}, alice())

	require.Error(t, err)
	items, listErr := f.service.List(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, items)
	assert.Empty(t, f.events.orphaned)
}

func TestCreateInsertFailureReportsOrphanedAsset(t *testing.T) {
	f := newCampgroundFixture()
	f.campgrounds.failCreate = errors.New("insert rejected")

	_, err := f.service.Create(context.Background(), NewCampground{
		Name:  "Pine Lake",
		Image: ImageUpload{Filename: "lake.jpg", File: strings.NewReader("x"), Size: 1},
	}, alice())

	require.Error(t, err)
	require.Len(t, f.events.orphaned, 1)
	assert.Equal(t, "img-1", f.events.orphaned[0].PublicID)
	// The asset is deliberately left for the reconcile worker.
	assert.True(t, f.media.assets["img-1"])
}

func TestSearchTreatsInputAsLiteralSubstring(t *testing.T) {
	f := newCampgroundFixture()
	f.mustCreate(t, "a.b camp", 10, "")
	f.mustCreate(t, "axb camp", 10, "")

	items, err := f.service.Search(context.Background(), "a.b")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a.b camp", items[0].Name)
	assert.Equal(t, `a\.b`, f.campgrounds.lastPattern)
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	f := newCampgroundFixture()
	f.mustCreate(t, "Pine Lake", 20, "")

	items, err := f.service.Search(context.Background(), "lake")
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestSearchNoMatchesReturnsEmpty(t *testing.T) {
	f := newCampgroundFixture()
	f.mustCreate(t, "Desert Flat", 5, "")

	items, err := f.service.Search(context.Background(), "Lake")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestGetAttachesChildren(t *testing.T) {
	f := newCampgroundFixture()
	created := f.mustCreate(t, "Pine Lake", 20, "quiet")

	_, err := f.comments.Create(context.Background(), types.Comment{CampgroundID: created.ID, Text: "nice"})
	require.NoError(t, err)
	_, err = f.reviews.Create(context.Background(), types.Review{CampgroundID: created.ID, Rating: 4})
	require.NoError(t, err)
	_, err = f.reviews.Create(context.Background(), types.Review{CampgroundID: created.ID, Rating: 5})
	require.NoError(t, err)

	got, err := f.service.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	require.Len(t, got.Reviews, 2)
	// Newest review first.
	assert.Equal(t, 5, got.Reviews[0].Rating)
}

func TestGetNotFound(t *testing.T) {
	f := newCampgroundFixture()

	_, err := f.service.Get(context.Background(), 99)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateWithoutImageKeepsAsset(t *testing.T) {
	f := newCampgroundFixture()
	created := f.mustCreate(t, "Pine Lake", 20, "quiet")

	updated, err := f.service.Update(context.Background(), created.ID, CampgroundUpdate{
		Name:        "Pine Lake Resort",
		Price:       25,
		Description: "still quiet",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ImageID, updated.ImageID)
	assert.Equal(t, created.ImageURL, updated.ImageURL)
	assert.Equal(t, "Pine Lake Resort", updated.Name)
}

func TestUpdateReplacesImagePairTogether(t *testing.T) {
	f := newCampgroundFixture()
	created := f.mustCreate(t, "Pine Lake", 20, "quiet")

	updated, err := f.service.Update(context.Background(), created.ID, CampgroundUpdate{
		Name:        "Pine Lake",
		Price:       20,
		Description: "quiet",
		Image:       &ImageUpload{Filename: "new.png", File: strings.NewReader("png"), Size: 3},
	})
	require.NoError(t, err)

	assert.NotEqual(t, created.ImageID, updated.ImageID)
	assert.True(t, strings.HasSuffix(updated.ImageURL, updated.ImageID))
	// Old asset destroyed, new one present.
	assert.False(t, f.media.assets[created.ImageID])
	assert.True(t, f.media.assets[updated.ImageID])
}

func TestUpdateDestroyFailureChangesNothing(t *testing.T) {
	f := newCampgroundFixture()
	created := f.mustCreate(t, "Pine Lake", 20, "quiet")
	f.media.failDestroy = errors.New("destroy rejected")

	_, err := f.service.Update(context.Background(), created.ID, CampgroundUpdate{
		Name:        "Renamed",
		Price:       99,
		Description: "changed",
		Image:       &ImageUpload{Filename: "new.png", File: strings.NewReader("png"), Size: 3},
	})
	require.Error(t, err)

	stored, getErr := f.campgrounds.Get(context.Background(), created.ID)
	require.NoError(t, getErr)
	assert.Equal(t, created.Name, stored.Name)
	assert.Equal(t, created.Price, stored.Price)
	assert.Equal(t, created.Description, stored.Description)
	assert.Equal(t, created.ImageID, stored.ImageID)
	assert.Equal(t, created.ImageURL, stored.ImageURL)
}

func TestUpdateUploadFailureChangesNoFields(t *testing.T) {
	f := newCampgroundFixture()
	created := f.mustCreate(t, "Pine Lake", 20, "quiet")
	f.media.failUpload = errors.New("upload rejected")

	_, err := f.service.Update(context.Background(), created.ID, CampgroundUpdate{
		Name:        "Renamed",
		Price:       99,
		Description: "changed",
		Image:       &ImageUpload{Filename: "new.png", File: strings.NewReader("png"), Size: 3},
	})
	require.Error(t, err)

	stored, getErr := f.campgrounds.Get(context.Background(), created.ID)
	require.NoError(t, getErr)
	assert.Equal(t, created.Name, stored.Name)
	assert.Equal(t, created.ImageID, stored.ImageID)
}

func TestDeleteCascadeRemovesEverything(t *testing.T) {
	f := newCampgroundFixture()
	created := f.mustCreate(t, "Pine Lake", 20, "quiet")

	c1, _ := f.comments.Create(context.Background(), types.Comment{CampgroundID: created.ID, Text: "one"})
	c2, _ := f.comments.Create(context.Background(), types.Comment{CampgroundID: created.ID, Text: "two"})
	r1, _ := f.reviews.Create(context.Background(), types.Review{CampgroundID: created.ID, Rating: 5})

	require.NoError(t, f.service.Delete(context.Background(), created.ID))

	_, err := f.campgrounds.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.comments.Get(context.Background(), c1.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.comments.Get(context.Background(), c2.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.reviews.Get(context.Background(), r1.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.False(t, f.media.assets[created.ImageID])
	assert.Empty(t, f.events.cascades)
}

func TestDeletePartialCascadeStillRemovesCampground(t *testing.T) {
	f := newCampgroundFixture()
	created := f.mustCreate(t, "Pine Lake", 20, "quiet")

	c1, _ := f.comments.Create(context.Background(), types.Comment{CampgroundID: created.ID, Text: "one"})
	f.comments.failDelete = errors.New("comments unavailable")

	require.NoError(t, f.service.Delete(context.Background(), created.ID))

	_, err := f.campgrounds.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.Len(t, f.events.cascades, 1)
	assert.Equal(t, created.ID, f.events.cascades[0].CampgroundID)
	assert.Equal(t, []int{c1.ID}, f.events.cascades[0].CommentIDs)
}

func TestDeleteImageFailureDoesNotBlockCascade(t *testing.T) {
	f := newCampgroundFixture()
	created := f.mustCreate(t, "Pine Lake", 20, "quiet")
	f.media.failDestroy = errors.New("media unavailable")

	require.NoError(t, f.service.Delete(context.Background(), created.ID))

	_, err := f.campgrounds.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.Len(t, f.events.orphaned, 1)
	assert.Equal(t, created.ImageID, f.events.orphaned[0].PublicID)
}

func TestDeleteNotFound(t *testing.T) {
	f := newCampgroundFixture()

	err := f.service.Delete(context.Background(), 42)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
