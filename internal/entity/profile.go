package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Profile struct {
	ID             uuid.UUID                       `gorm:"type:uuid;primaryKey" json:"_id"`
	UserID         uuid.UUID                       `gorm:"type:uuid;uniqueIndex;not null" json:"-"`
	User           *User                           `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Company        string                          `gorm:"size:255" json:"company,omitempty"`
	Website        string                          `gorm:"size:255" json:"website,omitempty"`
	Location       string                          `gorm:"size:255" json:"location,omitempty"`
	Status         string                          `gorm:"size:100;not null" json:"status"`
	Bio            string                          `gorm:"type:text" json:"bio,omitempty"`
	GithubUsername string                          `gorm:"size:100" json:"githubusername,omitempty"`
	Skills         datatypes.JSONSlice[string]     `json:"skills"`
	Social         datatypes.JSONType[SocialLinks] `json:"social"`
	Experience     datatypes.JSONSlice[Experience] `json:"experience"`
	Education      datatypes.JSONSlice[Education]  `json:"education"`
	Date           time.Time                       `gorm:"autoCreateTime" json:"date"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Skills == nil {
		p.Skills = datatypes.JSONSlice[string]{}
	}
	if p.Experience == nil {
		p.Experience = datatypes.JSONSlice[Experience]{}
	}
	if p.Education == nil {
		p.Education = datatypes.JSONSlice[Education]{}
	}
	return nil
}

type SocialLinks struct {
	YouTube   string `json:"youtube,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Instagram string `json:"instagram,omitempty"`
}

type Experience struct {
	ID          uuid.UUID  `json:"_id"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location,omitempty"`
	From        time.Time  `json:"from"`
	To          *time.Time `json:"to,omitempty"`
	Current     bool       `json:"current"`
	Description string     `json:"description,omitempty"`
}

func (e Experience) GetID() uuid.UUID { return e.ID }

type Education struct {
	ID           uuid.UUID  `json:"_id"`
	School       string     `json:"school"`
	Degree       string     `json:"degree"`
	FieldOfStudy string     `json:"fieldofstudy"`
	From         time.Time  `json:"from"`
	To           *time.Time `json:"to,omitempty"`
	Current      bool       `json:"current"`
	Description  string     `json:"description,omitempty"`
}

func (e Education) GetID() uuid.UUID { return e.ID }
