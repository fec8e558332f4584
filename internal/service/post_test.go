package service

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmanCrafts/CraftBook/internal/apperror"
	"github.com/AmanCrafts/CraftBook/internal/model"
	"github.com/AmanCrafts/CraftBook/internal/repository"
)

func TestPostCreate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewPostService(store, newTestLogger())
	a := seedUser(t, store, "alice")

	post, err := svc.Create(ctx, a.ID, NewPost{
		Title:    "  Harbour  ",
		ImageURL: "https://cdn.example.com/h.png",
		Tags:     []string{" sea ", "", "boats"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Harbour", post.Title)
	assert.Equal(t, []string{"sea", "boats"}, post.Tags)
	require.NotNil(t, post.Author)
	assert.Equal(t, "alice", post.Author.Name)

	tests := []struct {
		name     string
		authorID string
		in       NewPost
		wantErr  error
	}{
		{"missing title", a.ID, NewPost{ImageURL: "u"}, apperror.ErrValidation},
		{"missing image", a.ID, NewPost{Title: "t"}, apperror.ErrValidation},
		{"missing author", "", NewPost{Title: "t", ImageURL: "u"}, apperror.ErrValidation},
		{"unknown author", "ghost", NewPost{Title: "t", ImageURL: "u"}, apperror.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.authorID, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPostRecent_PagesDoNotOverlap(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewPostService(store, newTestLogger())
	a := seedUser(t, store, "alice")
	for i := range 7 {
		seedPost(t, store, a.ID, fmt.Sprintf("p%d", i))
	}

	seen := map[string]bool{}
	cursor := ""
	pages := 0
	for {
		page, err := svc.Recent(ctx, 3, cursor)
		require.NoError(t, err)
		pages++
		for _, p := range page.Posts {
			assert.False(t, seen[p.ID], "post %s returned twice", p.ID)
			seen[p.ID] = true
		}
		if !page.HasMore {
			assert.Nil(t, page.NextCursor)
			break
		}
		require.NotNil(t, page.NextCursor)
		assert.Equal(t, page.Posts[len(page.Posts)-1].ID, *page.NextCursor)
		cursor = *page.NextCursor
	}
	assert.Len(t, seen, 7)
	assert.Equal(t, 3, pages)
}

func TestPostRecent_ExactPageHasNoMore(t *testing.T) {
	store := newTestStore(t)
	svc := NewPostService(store, newTestLogger())
	a := seedUser(t, store, "alice")
	seedPost(t, store, a.ID, "one")
	seedPost(t, store, a.ID, "two")

	page, err := svc.Recent(context.Background(), 2, "")
	require.NoError(t, err)
	assert.Len(t, page.Posts, 2)
	assert.False(t, page.HasMore)
	assert.Nil(t, page.NextCursor)
}

func TestPostRecent_EmptyAndUnknownCursor(t *testing.T) {
	store := newTestStore(t)
	svc := NewPostService(store, newTestLogger())

	page, err := svc.Recent(context.Background(), 0, "")
	require.NoError(t, err)
	assert.NotNil(t, page.Posts)
	assert.Empty(t, page.Posts)

	_, err = svc.Recent(context.Background(), 10, "no-such-post")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestPostPopular(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewPostService(store, newTestLogger())
	a := seedUser(t, store, "alice")
	b := seedUser(t, store, "bob")
	quiet := seedPost(t, store, a.ID, "quiet")
	loud := seedPost(t, store, a.ID, "loud")
	medium := seedPost(t, store, a.ID, "medium")

	for _, like := range []model.Like{
		{UserID: a.ID, PostID: loud.ID},
		{UserID: b.ID, PostID: loud.ID},
		{UserID: b.ID, PostID: medium.ID},
	} {
		require.NoError(t, store.Likes().Create(ctx, &like))
	}

	first, err := svc.Popular(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, first.Posts, 2)
	assert.Equal(t, loud.ID, first.Posts[0].ID)
	assert.Equal(t, medium.ID, first.Posts[1].ID)
	assert.True(t, first.HasMore)
	assert.Equal(t, 1, first.Page)

	second, err := svc.Popular(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, second.Posts, 1)
	assert.Equal(t, quiet.ID, second.Posts[0].ID)
	assert.False(t, second.HasMore)

	zero, err := svc.Popular(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, zero.Page)
}

func TestPostPopular_PageBeyondEnd(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewPostService(store, newTestLogger())
	a := seedUser(t, store, "alice")
	seedPost(t, store, a.ID, "one")
	seedPost(t, store, a.ID, "two")

	for _, page := range []int{2, math.MaxInt / 10, math.MaxInt/10 + 2, math.MaxInt} {
		t.Run(fmt.Sprint(page), func(t *testing.T) {
			got, err := svc.Popular(ctx, page, 10)
			require.NoError(t, err)
			assert.NotNil(t, got.Posts)
			assert.Empty(t, got.Posts)
			assert.False(t, got.HasMore)
			assert.Equal(t, page, got.Page)
		})
	}
}

func TestPostFollowingFeed(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewPostService(store, newTestLogger())
	a := seedUser(t, store, "alice")
	b := seedUser(t, store, "bob")
	c := seedUser(t, store, "carol")
	fromB := seedPost(t, store, b.ID, "b-art")
	seedPost(t, store, c.ID, "c-art")

	empty, err := svc.Following(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, empty, "following nobody sees nothing")

	require.NoError(t, store.Follows().Create(ctx, &model.Follow{FollowerID: a.ID, FollowingID: b.ID}))
	posts, err := svc.Following(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, fromB.ID, posts[0].ID)
}

func TestPostFilters_RequireInput(t *testing.T) {
	ctx := context.Background()
	svc := NewPostService(newTestStore(t), newTestLogger())

	_, err := svc.ByTag(ctx, " ")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = svc.ByMedium(ctx, "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = svc.SearchTitle(ctx, "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = svc.SearchDescription(ctx, "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestPostUpdate_AuthorOnly(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewPostService(store, newTestLogger())
	a := seedUser(t, store, "alice")
	b := seedUser(t, store, "bob")
	post := seedPost(t, store, a.ID, "draft")

	title := "Final"
	tags := []string{"ink"}
	updated, err := svc.Update(ctx, a.ID, post.ID, model.PostUpdate{Title: &title, Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, "Final", updated.Title)
	assert.Equal(t, []string{"ink"}, updated.Tags)
	assert.Equal(t, post.ImageURL, updated.ImageURL)

	_, err = svc.Update(ctx, b.ID, post.ID, model.PostUpdate{Title: &title})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.Update(ctx, a.ID, "ghost", model.PostUpdate{})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestPostDelete_RemovesLikesAndComments(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewPostService(store, newTestLogger())
	a := seedUser(t, store, "alice")
	b := seedUser(t, store, "bob")
	post := seedPost(t, store, a.ID, "art")
	require.NoError(t, store.Likes().Create(ctx, &model.Like{UserID: b.ID, PostID: post.ID}))
	require.NoError(t, store.Comments().Create(ctx, &model.Comment{AuthorID: b.ID, PostID: post.ID, Content: "hi"}))

	assert.ErrorIs(t, svc.Delete(ctx, b.ID, post.ID), apperror.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, a.ID, post.ID))

	_, err := store.Posts().GetByID(ctx, post.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	n, err := store.Likes().CountByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPostDelete_PostDeletedConcurrently(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	a := seedUser(t, db, "alice")
	post := seedPost(t, db, a.ID, "art")

	store := racingStore{Store: db, interfere: func(ctx context.Context, tx repository.Store) error {
		return tx.Posts().Delete(ctx, post.ID)
	}}
	svc := NewPostService(store, newTestLogger())

	err := svc.Delete(ctx, a.ID, post.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.NotErrorIs(t, err, apperror.ErrTransactionFailed)
}
