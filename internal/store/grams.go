package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/petermazzocco/grams/models"
	"gorm.io/gorm"
)

// Grams is the persistence contract the handlers depend on.
type Grams interface {
	Create(ctx context.Context, g *models.Gram) error
	Find(ctx context.Context, id string) (*models.Gram, error)
	Update(ctx context.Context, id, message string) (*models.Gram, error)
	Destroy(ctx context.Context, id string) (*models.Gram, error)
	List(ctx context.Context) ([]models.Gram, error)
	Count(ctx context.Context) (int64, error)
}

type GramStore struct {
	db           *gorm.DB
	requirePhoto bool
}

func NewGramStore(db *gorm.DB, requirePhoto bool) *GramStore {
	return &GramStore{db: db, requirePhoto: requirePhoto}
}

// RequirePhoto reports whether grams without a photo are rejected.
func (s *GramStore) RequirePhoto() bool {
	return s.requirePhoto
}

// Validate runs the gram validations without touching the database.
func (s *GramStore) Validate(g *models.Gram) error {
	return validationError(g.Validate(s.requirePhoto))
}

func (s *GramStore) Create(ctx context.Context, g *models.Gram) error {
	if err := s.Validate(g); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(g).Error; err != nil {
		return fmt.Errorf("create gram: %w", err)
	}
	return nil
}

func (s *GramStore) Find(ctx context.Context, id string) (*models.Gram, error) {
	gid, ok := parseID(id)
	if !ok {
		return nil, ErrNotFound
	}
	var g models.Gram
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("comments.id ASC") }).
		Preload("Comments.User").
		First(&g, gid).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find gram %d: %w", gid, err)
	}
	return &g, nil
}

// Update changes only the message. Validation runs before any write, so a
// rejected message leaves the stored row as it was.
func (s *GramStore) Update(ctx context.Context, id, message string) (*models.Gram, error) {
	g, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	candidate := *g
	candidate.Message = message
	if err := s.Validate(&candidate); err != nil {
		return g, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Gram{}).Where("id = ?", g.ID).Update("message", message).Error; err != nil {
		return nil, fmt.Errorf("update gram %d: %w", g.ID, err)
	}
	g.Message = message
	return g, nil
}

// Destroy deletes the gram together with its comments and returns the
// deleted record so the caller can release its photo.
func (s *GramStore) Destroy(ctx context.Context, id string) (*models.Gram, error) {
	gid, ok := parseID(id)
	if !ok {
		return nil, ErrNotFound
	}
	var g models.Gram
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&g, gid).Error; err != nil {
			return err
		}
		if err := tx.Where("gram_id = ?", g.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&g).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("destroy gram %d: %w", gid, err)
	}
	return &g, nil
}

func (s *GramStore) List(ctx context.Context) ([]models.Gram, error) {
	var grams []models.Gram
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("comments.id ASC") }).
		Preload("Comments.User").
		Order("grams.id ASC").
		Find(&grams).Error
	if err != nil {
		return nil, fmt.Errorf("list grams: %w", err)
	}
	return grams, nil
}

func (s *GramStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Gram{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count grams: %w", err)
	}
	return n, nil
}

// ListByUser returns the grams owned by userID, newest first.
func (s *GramStore) ListByUser(ctx context.Context, userID uint) ([]models.Gram, error) {
	var grams []models.Gram
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").Find(&grams).Error
	if err != nil {
		return nil, fmt.Errorf("list grams for user %d: %w", userID, err)
	}
	return grams, nil
}

func parseID(id string) (uint, bool) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
