package repository

import (
	"context"

	"anoa.com/devconnector/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostRepository interface {
	Create(ctx context.Context, post *entity.Post) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Post, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Post, error)
	// FindAll returns every post, newest first.
	FindAll(ctx context.Context) ([]*entity.Post, error)
	UpdateLikes(ctx context.Context, post *entity.Post) error
	UpdateComments(ctx context.Context, post *entity.Post) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *entity.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Post, error) {
	var post entity.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Post, error) {
	posts := make([]*entity.Post, 0, len(ids))
	if len(ids) == 0 {
		return posts, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error
	return posts, err
}

func (r *postRepository) FindAll(ctx context.Context) ([]*entity.Post, error) {
	posts := make([]*entity.Post, 0)
	err := r.db.WithContext(ctx).Order("date DESC").Find(&posts).Error
	return posts, err
}

// UpdateLikes writes only the likes column so a concurrent comment is not
// overwritten.
func (r *postRepository) UpdateLikes(ctx context.Context, post *entity.Post) error {
	return r.db.WithContext(ctx).Model(&entity.Post{}).
		Where("id = ?", post.ID).
		Update("likes", post.Likes).Error
}

func (r *postRepository) UpdateComments(ctx context.Context, post *entity.Post) error {
	return r.db.WithContext(ctx).Model(&entity.Post{}).
		Where("id = ?", post.ID).
		Update("comments", post.Comments).Error
}

func (r *postRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Post{}).Error
}
