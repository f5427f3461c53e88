package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"_id"`
	Name     string    `gorm:"size:100;not null" json:"name"`
	Email    string    `gorm:"size:255;uniqueIndex;not null" json:"email,omitempty"`
	Password string    `gorm:"size:255;not null" json:"-"`
	Avatar   string    `gorm:"type:text" json:"avatar"`
	Date     time.Time `gorm:"autoCreateTime" json:"date,omitzero"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
