package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Username     string `gorm:"column:username;size:255;not null;index" json:"username"`
	Email        string `gorm:"column:email;size:255;not null" json:"email"`
	PasswordHash string `gorm:"column:password_hash;size:255" json:"-"`

	// Profile media reference (external storage id + served path).
	ImagePath string `gorm:"column:image_path;size:500" json:"image,omitempty"`
	ImageID   string `gorm:"column:image_id;size:255" json:"-"`

	// About section, all optional.
	Profession string `gorm:"column:profession;size:50" json:"profession,omitempty"`
	Bio        string `gorm:"column:bio;size:100" json:"bio,omitempty"`
	Location   string `gorm:"column:location;size:50" json:"location,omitempty"`

	EmailVerified         bool      `gorm:"column:email_verified;default:false" json:"email_verified"`
	EmailVerificationCode string    `gorm:"size:6" json:"-"`
	VerificationExpiry    time.Time `gorm:"" json:"-"`

	Posts []Post `gorm:"foreignKey:CreatorID" json:"posts,omitempty"`

	// Bidirectional connection set. One join row per direction; symmetry is
	// maintained by the graph mutator, not by the database.
	Connections []*User `gorm:"many2many:user_connections;joinForeignKey:UserID;joinReferences:PeerID" json:"connections,omitempty"`
}

// Connected reports whether peerID is in this user's connection set.
func (u *User) Connected(peerID uint) bool {
	for _, peer := range u.Connections {
		if peer.ID == peerID {
			return true
		}
	}
	return false
}
