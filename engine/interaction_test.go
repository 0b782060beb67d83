package engine

import (
	"context"
	"testing"

	"github.com/linkup-app/linkup-server/cmd/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedInteractions(t *testing.T) (*memStore, *eventRecorder, *Interactions) {
	t.Helper()
	store := newMemStore()
	store.addUser(1, "alice")
	store.addUser(2, "bob")
	store.addPost(10, 2, "bob's post")
	rec := &eventRecorder{}
	return store, rec, NewInteractions(store, rec)
}

func TestToggleLikeTwiceRestoresState(t *testing.T) {
	store, rec, interactions := seedInteractions(t)
	store.posts[10].Likes = []models.Like{{PostID: 10, UserID: 2}}

	outcome, err := interactions.ToggleLike(context.Background(), 1, 10, 1)
	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.Equal(t, "post liked", outcome.Detail)

	// New like lands at the front.
	require.Len(t, store.posts[10].Likes, 2)
	assert.Equal(t, uint(1), store.posts[10].Likes[0].UserID)

	outcome, err = interactions.ToggleLike(context.Background(), 1, 10, 1)
	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.Equal(t, "like removed", outcome.Detail)

	require.Len(t, store.posts[10].Likes, 1)
	assert.Equal(t, uint(2), store.posts[10].Likes[0].UserID)

	assert.Len(t, rec.events, 2)
	assert.Equal(t, models.ChannelPosts, rec.last().Channel)
	assert.Equal(t, models.ActionGetPost, rec.last().Action)
}

func TestToggleLikeActorMismatch(t *testing.T) {
	store, rec, interactions := seedInteractions(t)

	_, err := interactions.ToggleLike(context.Background(), 2, 10, 1)
	require.Error(t, err)
	assert.Equal(t, KindUnauthorized, KindOf(err))
	assert.Empty(t, store.posts[10].Likes)
	assert.Empty(t, rec.events)
}

func TestToggleLikeUnknownPost(t *testing.T) {
	_, _, interactions := seedInteractions(t)

	_, err := interactions.ToggleLike(context.Background(), 1, 99, 1)
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestUpsertCommentAddsThenUpdatesInPlace(t *testing.T) {
	store, rec, interactions := seedInteractions(t)
	store.posts[10].Comments = []models.Comment{{PostID: 10, UserID: 2, Text: "first!"}}
	store.posts[10].Comments[0].ID = 500

	outcome, err := interactions.UpsertComment(context.Background(), 1, 10, 1, "nice shot")
	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.Equal(t, "comment added", outcome.Detail)

	require.Len(t, store.posts[10].Comments, 2)
	assert.Equal(t, "nice shot", store.posts[10].Comments[1].Text)

	outcome, err = interactions.UpsertComment(context.Background(), 1, 10, 1, "great shot")
	require.NoError(t, err)
	assert.Equal(t, "comment updated", outcome.Detail)

	// One comment per user per post, position preserved.
	require.Len(t, store.posts[10].Comments, 2)
	assert.Equal(t, uint(2), store.posts[10].Comments[0].UserID)
	assert.Equal(t, uint(1), store.posts[10].Comments[1].UserID)
	assert.Equal(t, "great shot", store.posts[10].Comments[1].Text)

	assert.Len(t, rec.events, 2)
}

func TestRemoveOwnCommentWithoutCommentIsNoOp(t *testing.T) {
	store, rec, interactions := seedInteractions(t)

	outcome, err := interactions.RemoveOwnComment(context.Background(), 1, 10, 1)
	require.NoError(t, err)
	assert.False(t, outcome.Applied)
	assert.Empty(t, store.posts[10].Comments)
	assert.Len(t, rec.events, 1)
}

func TestRemoveOwnComment(t *testing.T) {
	store, _, interactions := seedInteractions(t)
	store.posts[10].Comments = []models.Comment{
		{PostID: 10, UserID: 1, Text: "mine"},
		{PostID: 10, UserID: 2, Text: "theirs"},
	}

	outcome, err := interactions.RemoveOwnComment(context.Background(), 1, 10, 1)
	require.NoError(t, err)
	assert.True(t, outcome.Applied)

	require.Len(t, store.posts[10].Comments, 1)
	assert.Equal(t, uint(2), store.posts[10].Comments[0].UserID)
}

func TestRemoveCommentAsOwner(t *testing.T) {
	store, rec, interactions := seedInteractions(t)
	store.posts[10].Comments = []models.Comment{{PostID: 10, UserID: 1, Text: "spam"}}

	// bob owns post 10 and removes alice's comment.
	outcome, err := interactions.RemoveCommentAsOwner(context.Background(), 2, 10, 1, 2)
	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.Empty(t, store.posts[10].Comments)
	assert.Len(t, rec.events, 1)
}

func TestRemoveCommentAsOwnerRequiresCreator(t *testing.T) {
	store, _, interactions := seedInteractions(t)
	store.addUser(3, "carol")
	store.posts[10].Comments = []models.Comment{{PostID: 10, UserID: 1, Text: "spam"}}

	// carol is not the post's creator.
	_, err := interactions.RemoveCommentAsOwner(context.Background(), 3, 10, 1, 3)
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))
	assert.Len(t, store.posts[10].Comments, 1)
}

func TestRemoveCommentAsOwnerNoCommentIsNoOp(t *testing.T) {
	_, _, interactions := seedInteractions(t)

	outcome, err := interactions.RemoveCommentAsOwner(context.Background(), 2, 10, 1, 2)
	require.NoError(t, err)
	assert.False(t, outcome.Applied)
}
