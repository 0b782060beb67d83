package engine

import (
	"context"
	"errors"

	"github.com/linkup-app/linkup-server/cmd/models"
	"gorm.io/gorm"
)

// GormStore is the Postgres-backed entity store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Connections").First(&user, id).Error
	if err != nil {
		return nil, wrapFind(err)
	}
	return &user, nil
}

func (s *GormStore) PostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).
		Preload("Creator").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC")
		}).
		Preload("Comments.User").
		Preload("Likes", func(db *gorm.DB) *gorm.DB {
			return db.Order("likes.created_at DESC")
		}).
		First(&post, id).Error
	if err != nil {
		return nil, wrapFind(err)
	}
	return &post, nil
}

func (s *GormStore) PostsByCreator(ctx context.Context, creatorID uint) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).Where("creator_id = ?", creatorID).Find(&posts).Error
	return posts, err
}

func (s *GormStore) AllPosts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Preload("Comments").
		Preload("Likes", func(db *gorm.DB) *gorm.DB {
			return db.Order("likes.created_at DESC")
		}).
		Find(&posts).Error
	return posts, err
}

func (s *GormStore) SaveUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Omit("Connections", "Posts").Save(user).Error
}

func (s *GormStore) DeleteUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).
		Exec("DELETE FROM user_connections WHERE user_id = ? OR peer_id = ?", user.ID, user.ID).Error; err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(user).Error
}

func (s *GormStore) DeletePost(ctx context.Context, post *models.Post) error {
	db := s.db.WithContext(ctx)
	if err := db.Where("post_id = ?", post.ID).Delete(&models.Like{}).Error; err != nil {
		return err
	}
	if err := db.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	return db.Delete(post).Error
}

func (s *GormStore) AddConnection(ctx context.Context, userID, peerID uint) error {
	// The composite primary key makes a duplicate row impossible.
	return s.db.WithContext(ctx).
		Exec("INSERT INTO user_connections (user_id, peer_id) VALUES (?, ?) ON CONFLICT DO NOTHING", userID, peerID).Error
}

func (s *GormStore) RemoveConnection(ctx context.Context, userID, peerID uint) error {
	return s.db.WithContext(ctx).
		Exec("DELETE FROM user_connections WHERE user_id = ? AND peer_id = ?", userID, peerID).Error
}

func (s *GormStore) AddLike(ctx context.Context, like *models.Like) error {
	return s.db.WithContext(ctx).Create(like).Error
}

func (s *GormStore) RemoveLike(ctx context.Context, postID, userID uint) error {
	return s.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{}).Error
}

func (s *GormStore) SaveComment(ctx context.Context, comment *models.Comment) error {
	return s.db.WithContext(ctx).Save(comment).Error
}

func (s *GormStore) DeleteComment(ctx context.Context, comment *models.Comment) error {
	return s.db.WithContext(ctx).Delete(comment).Error
}

func wrapFind(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
