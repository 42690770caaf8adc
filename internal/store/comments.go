package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/petermazzocco/grams/models"
	"gorm.io/gorm"
)

type Comments interface {
	CreateForGram(ctx context.Context, gramID, message string, owner *models.User) (*models.Comment, error)
	ListForGram(ctx context.Context, gramID string) ([]models.Comment, error)
}

type CommentStore struct {
	db *gorm.DB
}

func NewCommentStore(db *gorm.DB) *CommentStore {
	return &CommentStore{db: db}
}

// CreateForGram attaches a comment by owner to the gram gramID. A missing
// parent gram is ErrNotFound.
func (s *CommentStore) CreateForGram(ctx context.Context, gramID, message string, owner *models.User) (*models.Comment, error) {
	gram, err := s.findGram(ctx, gramID)
	if err != nil {
		return nil, err
	}
	c := &models.Comment{
		Message: message,
		UserID:  owner.ID,
		GramID:  gram.ID,
	}
	if err := validationError(c.Validate()); err != nil {
		return c, err
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, fmt.Errorf("create comment on gram %d: %w", gram.ID, err)
	}
	c.User = owner
	return c, nil
}

func (s *CommentStore) ListForGram(ctx context.Context, gramID string) ([]models.Comment, error) {
	gram, err := s.findGram(ctx, gramID)
	if err != nil {
		return nil, err
	}
	var comments []models.Comment
	err = s.db.WithContext(ctx).Preload("User").Where("gram_id = ?", gram.ID).Order("id ASC").Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments for gram %d: %w", gram.ID, err)
	}
	return comments, nil
}

func (s *CommentStore) findGram(ctx context.Context, id string) (*models.Gram, error) {
	gid, ok := parseID(id)
	if !ok {
		return nil, ErrNotFound
	}
	var g models.Gram
	if err := s.db.WithContext(ctx).Select("id").First(&g, gid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find gram %d: %w", gid, err)
	}
	return &g, nil
}
