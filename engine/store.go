package engine

import (
	"context"
	"errors"

	"github.com/linkup-app/linkup-server/cmd/models"
)

// ErrNotFound is returned by entity-store lookups when no record exists.
var ErrNotFound = errors.New("record not found")

// EntityStore is the persistence port the engine mutates through. Loaded
// users carry their connection set; loaded posts carry creator, comments in
// append order and likes most-recent-first.
type EntityStore interface {
	UserByID(ctx context.Context, id uint) (*models.User, error)
	PostByID(ctx context.Context, id uint) (*models.Post, error)
	PostsByCreator(ctx context.Context, creatorID uint) ([]models.Post, error)
	AllPosts(ctx context.Context) ([]models.Post, error)

	SaveUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, user *models.User) error
	DeletePost(ctx context.Context, post *models.Post) error

	// Connection rows are directional; symmetry is the graph mutator's job.
	AddConnection(ctx context.Context, userID, peerID uint) error
	RemoveConnection(ctx context.Context, userID, peerID uint) error

	AddLike(ctx context.Context, like *models.Like) error
	RemoveLike(ctx context.Context, postID, userID uint) error

	SaveComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, comment *models.Comment) error
}

// MediaReleaser destroys an externally stored media asset.
type MediaReleaser interface {
	Release(mediaID string) error
}
