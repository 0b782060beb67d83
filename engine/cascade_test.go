package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/linkup-app/linkup-server/cmd/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedCascade builds the full deletion scenario: alice owns two posts, likes
// bob's post, commented on carol's post and is connected with both of them.
func seedCascade(t *testing.T) *memStore {
	t.Helper()
	store := newMemStore()
	alice := store.addUser(1, "alice")
	alice.ImageID = "img-alice"
	store.addUser(2, "bob")
	store.addUser(3, "carol")
	store.connectBoth(1, 2)
	store.connectBoth(1, 3)

	owned := store.addPost(10, 1, "holiday")
	owned.MediaID = "media-10"
	store.addPost(11, 1, "lunch")

	bobPost := store.addPost(20, 2, "bob's post")
	bobPost.Likes = []models.Like{{PostID: 20, UserID: 1}, {PostID: 20, UserID: 3}}

	carolPost := store.addPost(21, 3, "carol's post")
	carolPost.Comments = []models.Comment{
		{PostID: 21, UserID: 1, Text: "love it"},
		{PostID: 21, UserID: 2, Text: "same"},
	}
	return store
}

func TestDeleteUserRemovesEveryTrace(t *testing.T) {
	store := seedCascade(t)
	media := &mediaRecorder{}
	cascade := NewCascade(store, media)

	err := cascade.DeleteUser(context.Background(), 1, 1)
	require.NoError(t, err)

	// Owned posts are gone.
	assert.NotContains(t, store.posts, uint(10))
	assert.NotContains(t, store.posts, uint(11))

	// Like stripped from bob's post, others untouched.
	require.Len(t, store.posts[20].Likes, 1)
	assert.Equal(t, uint(3), store.posts[20].Likes[0].UserID)

	// Comment stripped from carol's post, others untouched.
	require.Len(t, store.posts[21].Comments, 1)
	assert.Equal(t, uint(2), store.posts[21].Comments[0].UserID)

	// Absent from both peers' connection sets.
	assert.Empty(t, store.connections(2))
	assert.Empty(t, store.connections(3))

	// The account itself is gone, and both media assets were released.
	assert.NotContains(t, store.users, uint(1))
	assert.ElementsMatch(t, []string{"img-alice", "media-10"}, media.released)
}

func TestDeleteUserOnlySelf(t *testing.T) {
	store := seedCascade(t)
	cascade := NewCascade(store, &mediaRecorder{})

	err := cascade.DeleteUser(context.Background(), 2, 1)
	require.Error(t, err)
	assert.Equal(t, KindUnauthorized, KindOf(err))
	assert.Contains(t, store.users, uint(1))
}

func TestDeleteUserUnknown(t *testing.T) {
	store := newMemStore()
	cascade := NewCascade(store, &mediaRecorder{})

	err := cascade.DeleteUser(context.Background(), 9, 9)
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestDeleteUserContinuesPastFailures(t *testing.T) {
	store := seedCascade(t)
	store.failOn["DeletePost"] = errors.New("disk on fire")
	media := &mediaRecorder{}
	cascade := NewCascade(store, media)

	err := cascade.DeleteUser(context.Background(), 1, 1)
	require.Error(t, err)
	assert.Equal(t, KindStorage, KindOf(err))

	// The failed step leaves the owned posts behind, but every later step
	// still ran.
	assert.Contains(t, store.posts, uint(10))
	assert.Len(t, store.posts[20].Likes, 1)
	assert.Len(t, store.posts[21].Comments, 1)
	assert.Empty(t, store.connections(2))
	assert.Empty(t, store.connections(3))
	assert.NotContains(t, store.users, uint(1))
}

func TestDeleteUserMediaFailureStillDeletes(t *testing.T) {
	store := seedCascade(t)
	media := &mediaRecorder{failFor: "img-alice"}
	cascade := NewCascade(store, media)

	err := cascade.DeleteUser(context.Background(), 1, 1)
	require.Error(t, err)
	assert.Equal(t, KindStorage, KindOf(err))

	// Post media still released, account still removed.
	assert.Equal(t, []string{"media-10"}, media.released)
	assert.NotContains(t, store.users, uint(1))
}
