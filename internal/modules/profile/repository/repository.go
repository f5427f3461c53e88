package repository

import (
	"context"

	"anoa.com/devconnector/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository interface {
	Create(ctx context.Context, profile *entity.Profile) error
	Update(ctx context.Context, profile *entity.Profile) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Profile, error)
	FindAll(ctx context.Context) ([]*entity.Profile, error)
	// DeleteAccount removes the user's profile and the user in one transaction.
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// withUser joins only the public user fields onto a profile.
func withUser(db *gorm.DB) *gorm.DB {
	return db.Preload("User", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "name", "avatar")
	})
}

func (r *profileRepository) Create(ctx context.Context, profile *entity.Profile) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(profile).Error
}

func (r *profileRepository) Update(ctx context.Context, profile *entity.Profile) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(profile).Error
}

func (r *profileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Profile, error) {
	var profile entity.Profile
	if err := withUser(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) FindAll(ctx context.Context) ([]*entity.Profile, error) {
	profiles := make([]*entity.Profile, 0)
	err := withUser(r.db.WithContext(ctx)).
		Order("date ASC").
		Find(&profiles).Error
	return profiles, err
}

func (r *profileRepository) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&entity.Profile{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", userID).Delete(&entity.User{}).Error; err != nil {
			return err
		}
		return nil
	})
}
