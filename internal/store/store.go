// Package store is the persistence layer for the studio catalog and watch
// subscriptions. Availability itself is never persisted.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"studio-availability-backend/internal/model"
)

// ErrNotFound is returned when a catalog or subscription row does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	SeedStudios(ctx context.Context, studios []model.Studio) error
	ListStudios(ctx context.Context) ([]model.Studio, error)
	SearchStudios(ctx context.Context, query string, limit int) ([]model.Studio, error)
	GetStudio(ctx context.Context, id int64) (model.Studio, error)

	SaveSubscription(ctx context.Context, sub model.WatchSubscription) error
	GetSubscription(ctx context.Context, endpoint string) (model.WatchSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	ListSubscriptions(ctx context.Context) ([]model.WatchSubscription, error)
	SetNotified(ctx context.Context, endpoint string, notified bool) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB { return s.db }

// SeedStudios upserts the configured catalog rows on startup.
func (s *gormStore) SeedStudios(ctx context.Context, studios []model.Studio) error {
	if len(studios) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "address", "scraper_type", "shop_id", "updated_at"}),
	}).Create(&studios).Error
	if err != nil {
		return fmt.Errorf("seed studios: %w", err)
	}
	return nil
}

func (s *gormStore) ListStudios(ctx context.Context) ([]model.Studio, error) {
	var studios []model.Studio
	if err := s.db.WithContext(ctx).Order("id").Find(&studios).Error; err != nil {
		return nil, err
	}
	return studios, nil
}

// SearchStudios ranks exact matches over prefix matches over substring
// matches, on name and address.
func (s *gormStore) SearchStudios(ctx context.Context, query string, limit int) ([]model.Studio, error) {
	if query == "" {
		return nil, nil
	}
	pattern := "%" + query + "%"
	prefix := query + "%"

	var studios []model.Studio
	err := s.db.WithContext(ctx).
		Where("name LIKE ? OR address LIKE ?", pattern, pattern).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN name = ? OR address = ? THEN 0 WHEN name LIKE ? OR address LIKE ? THEN 1 ELSE 2 END, name",
			Vars:               []interface{}{query, query, prefix, prefix},
			WithoutParentheses: true,
		}}).
		Limit(limit).
		Find(&studios).Error
	if err != nil {
		return nil, err
	}
	return studios, nil
}

func (s *gormStore) GetStudio(ctx context.Context, id int64) (model.Studio, error) {
	var studio model.Studio
	err := s.db.WithContext(ctx).First(&studio, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Studio{}, fmt.Errorf("%w: studio %d", ErrNotFound, id)
	}
	if err != nil {
		return model.Studio{}, err
	}
	return studio, nil
}

// SaveSubscription creates or replaces a subscription by endpoint.
func (s *gormStore) SaveSubscription(ctx context.Context, sub model.WatchSubscription) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"p256dh", "auth", "studio_id", "date", "range_start", "range_end", "duration_hours", "notified",
		}),
	}).Create(&sub).Error
}

func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (model.WatchSubscription, error) {
	var sub model.WatchSubscription
	err := s.db.WithContext(ctx).First(&sub, "endpoint = ?", endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.WatchSubscription{}, fmt.Errorf("%w: subscription", ErrNotFound)
	}
	if err != nil {
		return model.WatchSubscription{}, err
	}
	return sub, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Delete(&model.WatchSubscription{}, "endpoint = ?", endpoint).Error
}

func (s *gormStore) ListSubscriptions(ctx context.Context) ([]model.WatchSubscription, error) {
	var subs []model.WatchSubscription
	if err := s.db.WithContext(ctx).Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *gormStore) SetNotified(ctx context.Context, endpoint string, notified bool) error {
	return s.db.WithContext(ctx).
		Model(&model.WatchSubscription{}).
		Where("endpoint = ?", endpoint).
		Update("notified", notified).Error
}
