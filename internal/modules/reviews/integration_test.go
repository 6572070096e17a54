//go:build integration

package reviews

import (
	"context"
	"testing"

	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/moderation"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/modules/catalog"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		ID:       uuid.New(),
		Name:     username,
		Username: username,
		Email:    username + "@example.com",
		Password: "digest",
		Role:     models.RoleUser,
		Enabled:  true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestReviews_Lifecycle(t *testing.T) {
	ctx := context.Background()
	migrate := append([]interface{}{&models.User{}}, catalog.New().Models()...)
	pg, err := testutil.StartPostgres(ctx, append(migrate, New().Models()...)...)
	require.NoError(t, err)
	t.Cleanup(func() { pg.Terminate(context.Background()) })

	books := catalog.NewCatalogService(pg.DB, nil)
	author, err := books.CreateAuthor(ctx, catalog.AuthorRequest{Name: "Octavia E. Butler"})
	require.NoError(t, err)
	book, err := books.CreateBook(ctx, catalog.BookRequest{Title: "Kindred", PageCount: 264, AuthorID: author.ID})
	require.NoError(t, err)

	ana := seedUser(t, pg.DB, "ana")
	bob := seedUser(t, pg.DB, "bob")
	svc := NewReviewService(pg.DB, moderation.NewFilter())

	_, err = svc.Create(ctx, ana.ID, uuid.New(), ReviewRequest{Score: score(4), Text: "x"})
	assert.ErrorIs(t, err, ErrBookNotFound)

	_, err = svc.Create(ctx, ana.ID, book.ID, ReviewRequest{Score: score(4), Text: "buy it at www.example.com/deal"})
	var rejected *moderation.Rejection
	assert.ErrorAs(t, err, &rejected)

	review, err := svc.Create(ctx, ana.ID, book.ID, ReviewRequest{Score: score(4.5), Headline: "Gripping", Text: "Could not put it down"})
	require.NoError(t, err)
	require.NotNil(t, review.User)
	assert.Equal(t, "ana", review.User.Username)

	_, err = svc.Create(ctx, ana.ID, book.ID, ReviewRequest{Score: score(1), Text: "again"})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)

	_, err = svc.Update(ctx, review.ID, bob.ID, false, ReviewRequest{Score: score(0), Text: "mine now"})
	assert.ErrorIs(t, err, ErrNotOwner)
	updated, err := svc.Update(ctx, review.ID, bob.ID, true, ReviewRequest{Score: score(5), Text: "Moderated"})
	require.NoError(t, err)
	assert.Equal(t, 5.0, updated.Score)
	assert.Equal(t, "Moderated", updated.Text)

	for i := 0; i < 3; i++ {
		_, err = svc.Like(ctx, review.ID)
		require.NoError(t, err)
	}
	liked, err := svc.Get(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, liked.LikeCount)

	list, err := svc.ListByBook(ctx, book.ID, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Total)
	require.Len(t, list.Reviews, 1)
	require.NotNil(t, list.Reviews[0].Reviewer)

	assert.ErrorIs(t, svc.Delete(ctx, review.ID, bob.ID, false), ErrNotOwner)
	require.NoError(t, svc.Delete(ctx, review.ID, ana.ID, false))
	_, err = svc.Get(ctx, review.ID)
	assert.ErrorIs(t, err, ErrReviewNotFound)
	_, err = svc.Like(ctx, review.ID)
	assert.ErrorIs(t, err, ErrReviewNotFound)
}
