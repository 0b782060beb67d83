package engine

import (
	"context"

	"github.com/linkup-app/linkup-server/cmd/models"
)

// Interactions applies like and comment mutations to a post's embedded
// collections.
type Interactions struct {
	store EntityStore
	pub   Publisher
}

func NewInteractions(store EntityStore, pub Publisher) *Interactions {
	return &Interactions{store: store, pub: pub}
}

// ToggleLike likes the post when userID is absent from its like list and
// unlikes it when present. New likes go to the front of the list
// (most-recent-like-first). Calling twice restores the original state.
func (n *Interactions) ToggleLike(ctx context.Context, actorID, postID, userID uint) (Outcome, error) {
	post, err := n.store.PostByID(ctx, postID)
	if err != nil {
		return Outcome{}, lookupErr(err, "post")
	}
	if _, err := n.store.UserByID(ctx, userID); err != nil {
		return Outcome{}, lookupErr(err, "user")
	}
	if actorID != userID {
		return Outcome{}, unauthorized("can not like or unlike this post")
	}

	var outcome Outcome
	if post.LikedBy(userID) {
		if err := n.store.RemoveLike(ctx, postID, userID); err != nil {
			return Outcome{}, storage(err, "error removing like")
		}
		post.Likes = dropLike(post.Likes, userID)
		outcome = applied("like removed")
	} else {
		like := models.Like{PostID: postID, UserID: userID}
		if err := n.store.AddLike(ctx, &like); err != nil {
			return Outcome{}, storage(err, "error saving like")
		}
		post.Likes = append([]models.Like{like}, post.Likes...)
		outcome = applied("post liked")
	}

	n.publish(post)
	return outcome, nil
}

// UpsertComment overwrites the text of userID's existing comment in place,
// keeping its position, or appends a new comment when none exists. A user
// holds at most one comment per post.
func (n *Interactions) UpsertComment(ctx context.Context, actorID, postID, userID uint, text string) (Outcome, error) {
	post, err := n.store.PostByID(ctx, postID)
	if err != nil {
		return Outcome{}, lookupErr(err, "post")
	}
	if _, err := n.store.UserByID(ctx, userID); err != nil {
		return Outcome{}, lookupErr(err, "user")
	}
	if actorID != userID {
		return Outcome{}, unauthorized("can not comment on this post")
	}

	var outcome Outcome
	if existing := post.CommentBy(userID); existing != nil {
		existing.Text = text
		if err := n.store.SaveComment(ctx, existing); err != nil {
			return Outcome{}, storage(err, "error saving comment")
		}
		outcome = applied("comment updated")
	} else {
		comment := models.Comment{PostID: postID, UserID: userID, Text: text}
		if err := n.store.SaveComment(ctx, &comment); err != nil {
			return Outcome{}, storage(err, "error saving comment")
		}
		post.Comments = append(post.Comments, comment)
		outcome = applied("comment added")
	}

	n.publish(post)
	return outcome, nil
}

// RemoveOwnComment deletes the caller's comment. Having no comment on the
// post is a no-op success, not an error.
func (n *Interactions) RemoveOwnComment(ctx context.Context, actorID, postID, userID uint) (Outcome, error) {
	post, err := n.store.PostByID(ctx, postID)
	if err != nil {
		return Outcome{}, lookupErr(err, "post")
	}
	if _, err := n.store.UserByID(ctx, userID); err != nil {
		return Outcome{}, lookupErr(err, "user")
	}
	if actorID != userID {
		return Outcome{}, unauthorized("can not delete this comment")
	}

	comment := post.CommentBy(userID)
	if comment == nil {
		n.publish(post)
		return noOp("you have not commented on this post yet"), nil
	}

	if err := n.store.DeleteComment(ctx, comment); err != nil {
		return Outcome{}, storage(err, "error deleting comment")
	}
	post.Comments = dropComment(post.Comments, userID)

	n.publish(post)
	return applied("comment removed"), nil
}

// RemoveCommentAsOwner lets a post's creator moderate comments on their own
// post: it removes the comment authored by commenterID no matter who wrote
// it. ownerID must match both the acting identity and the post's actual
// creator.
func (n *Interactions) RemoveCommentAsOwner(ctx context.Context, actorID, postID, commenterID, ownerID uint) (Outcome, error) {
	post, err := n.store.PostByID(ctx, postID)
	if err != nil {
		return Outcome{}, lookupErr(err, "post")
	}
	if _, err := n.store.UserByID(ctx, commenterID); err != nil {
		return Outcome{}, lookupErr(err, "user")
	}
	if post.CreatorID != ownerID || actorID != ownerID {
		return Outcome{}, forbidden("not authorized")
	}

	comment := post.CommentBy(commenterID)
	if comment == nil {
		n.publish(post)
		return noOp("no comment from this user"), nil
	}

	if err := n.store.DeleteComment(ctx, comment); err != nil {
		return Outcome{}, storage(err, "error deleting comment")
	}
	post.Comments = dropComment(post.Comments, commenterID)

	n.publish(post)
	return applied("comment removed"), nil
}

func (n *Interactions) publish(post *models.Post) {
	n.pub.Publish(models.ChannelPosts, models.ActionGetPost, post)
}

// dropLike removes the first like matching userID.
func dropLike(likes []models.Like, userID uint) []models.Like {
	for i := range likes {
		if likes[i].UserID == userID {
			return append(likes[:i], likes[i+1:]...)
		}
	}
	return likes
}

// dropComment removes the first comment authored by userID.
func dropComment(comments []models.Comment, userID uint) []models.Comment {
	for i := range comments {
		if comments[i].UserID == userID {
			return append(comments[:i], comments[i+1:]...)
		}
	}
	return comments
}
