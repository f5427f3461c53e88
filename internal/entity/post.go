package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Post keeps the author's name and avatar as they were when it was written.
type Post struct {
	ID       uuid.UUID                    `gorm:"type:uuid;primaryKey" json:"_id"`
	UserID   uuid.UUID                    `gorm:"type:uuid;index;not null" json:"user"`
	Text     string                       `gorm:"type:text;not null" json:"text"`
	Name     string                       `gorm:"size:100" json:"name"`
	Avatar   string                       `gorm:"type:text" json:"avatar"`
	Likes    datatypes.JSONSlice[Like]    `json:"likes"`
	Comments datatypes.JSONSlice[Comment] `json:"comments"`
	Date     time.Time                    `gorm:"autoCreateTime;index" json:"date"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Likes == nil {
		p.Likes = datatypes.JSONSlice[Like]{}
	}
	if p.Comments == nil {
		p.Comments = datatypes.JSONSlice[Comment]{}
	}
	return nil
}

// LikedBy reports whether userID already likes the post.
func (p *Post) LikedBy(userID uuid.UUID) bool {
	for _, l := range p.Likes {
		if l.User == userID {
			return true
		}
	}
	return false
}

type Like struct {
	ID   uuid.UUID `json:"_id"`
	User uuid.UUID `json:"user"`
}

func (l Like) GetID() uuid.UUID { return l.ID }

type Comment struct {
	ID     uuid.UUID `json:"_id"`
	User   uuid.UUID `json:"user"`
	Text   string    `json:"text"`
	Name   string    `json:"name"`
	Avatar string    `json:"avatar"`
	Date   time.Time `json:"date"`
}

func (c Comment) GetID() uuid.UUID { return c.ID }
