package engine

import (
	"context"
	"log"
)

// Cascade orchestrates the multi-entity cleanup when a user deletes their
// account: owned posts and their media, the user's likes and comments on
// everyone else's posts, and the user's entry in every peer's connection
// set.
//
// The cascade is not transactional. Each step is an independent
// read-modify-write; a storage failure partway through is logged, remembered
// and surfaced at the end, with no rollback of the steps already applied.
type Cascade struct {
	store EntityStore
	media MediaReleaser
}

func NewCascade(store EntityStore, media MediaReleaser) *Cascade {
	return &Cascade{store: store, media: media}
}

// DeleteUser removes userID and every trace of them. Only the user may
// delete their own account.
func (c *Cascade) DeleteUser(ctx context.Context, actorID, userID uint) error {
	user, err := c.store.UserByID(ctx, userID)
	if err != nil {
		return lookupErr(err, "user")
	}
	if actorID != userID {
		return unauthorized("can not delete user")
	}

	var firstErr error
	keep := func(err error) {
		log.Printf("cascade delete user %d: %v", userID, err)
		if firstErr == nil {
			firstErr = err
		}
	}

	// Profile media.
	if user.ImageID != "" {
		if err := c.media.Release(user.ImageID); err != nil {
			keep(err)
		}
	}

	// Owned posts and their media.
	owned, err := c.store.PostsByCreator(ctx, userID)
	if err != nil {
		keep(err)
	}
	for i := range owned {
		post := &owned[i]
		if post.MediaID != "" {
			if err := c.media.Release(post.MediaID); err != nil {
				keep(err)
			}
		}
		if err := c.store.DeletePost(ctx, post); err != nil {
			keep(err)
		}
	}

	// Likes and comments left on everyone else's posts. Full scan of the
	// posts table; acceptable at current data volumes.
	posts, err := c.store.AllPosts(ctx)
	if err != nil {
		keep(err)
	}
	for i := range posts {
		post := &posts[i]
		if post.LikedBy(userID) {
			if err := c.store.RemoveLike(ctx, post.ID, userID); err != nil {
				keep(err)
			}
		}
		if comment := post.CommentBy(userID); comment != nil {
			if err := c.store.DeleteComment(ctx, comment); err != nil {
				keep(err)
			}
		}
	}

	// Peer connection lists.
	for _, peer := range user.Connections {
		if err := c.store.RemoveConnection(ctx, peer.ID, userID); err != nil {
			keep(err)
		}
	}

	if err := c.store.DeleteUser(ctx, user); err != nil {
		keep(err)
	}

	if firstErr != nil {
		return storage(firstErr, "error deleting user")
	}
	return nil
}
