package models

import "gorm.io/gorm"

type Post struct {
	gorm.Model
	Caption string `gorm:"column:caption;size:200;not null" json:"caption"`

	// Media reference (external storage id + served path), optional.
	MediaID   string `gorm:"column:media_id;size:255" json:"media_id,omitempty"`
	MediaPath string `gorm:"column:media_path;size:500" json:"media_path,omitempty"`

	CreatorID uint  `gorm:"column:creator_id;not null;index" json:"creator_id"`
	Creator   *User `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`

	Comments []Comment `gorm:"foreignKey:PostID" json:"comments,omitempty"`

	// Ordered most-recent-like-first when loaded through the entity store.
	Likes []Like `gorm:"foreignKey:PostID" json:"likes,omitempty"`
}

type Comment struct {
	gorm.Model
	PostID uint   `gorm:"column:post_id;not null;index" json:"post_id"`
	UserID uint   `gorm:"column:user_id;not null" json:"user_id"`
	Text   string `gorm:"column:text;size:100;not null" json:"text"`
	User   *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

type Like struct {
	gorm.Model
	PostID uint  `gorm:"column:post_id;not null;index" json:"post_id"`
	UserID uint  `gorm:"column:user_id;not null" json:"user_id"`
	User   *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// LikedBy reports whether userID has an entry in the post's like list.
func (p *Post) LikedBy(userID uint) bool {
	for _, like := range p.Likes {
		if like.UserID == userID {
			return true
		}
	}
	return false
}

// CommentBy returns the comment authored by userID, or nil.
func (p *Post) CommentBy(userID uint) *Comment {
	for i := range p.Comments {
		if p.Comments[i].UserID == userID {
			return &p.Comments[i]
		}
	}
	return nil
}
