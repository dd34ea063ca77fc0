package api

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"studio-availability-backend/config"
	"studio-availability-backend/internal/model"
	"studio-availability-backend/internal/scrape"
	"studio-availability-backend/internal/store"
)

// fakeStore is an in-memory Store for handler tests.
type fakeStore struct {
	studios map[int64]model.Studio
	subs    map[string]model.WatchSubscription
}

func newFakeStore(studios ...model.Studio) *fakeStore {
	s := &fakeStore{
		studios: make(map[int64]model.Studio),
		subs:    make(map[string]model.WatchSubscription),
	}
	for _, studio := range studios {
		s.studios[studio.ID] = studio
	}
	return s
}

func (s *fakeStore) DB() *gorm.DB { return nil }

func (s *fakeStore) SeedStudios(ctx context.Context, studios []model.Studio) error {
	for _, studio := range studios {
		s.studios[studio.ID] = studio
	}
	return nil
}

func (s *fakeStore) ListStudios(ctx context.Context) ([]model.Studio, error) {
	var out []model.Studio
	for _, studio := range s.studios {
		out = append(out, studio)
	}
	return out, nil
}

func (s *fakeStore) SearchStudios(ctx context.Context, query string, limit int) ([]model.Studio, error) {
	var out []model.Studio
	for _, studio := range s.studios {
		if studio.Name == query {
			out = append(out, studio)
		}
	}
	return out, nil
}

func (s *fakeStore) GetStudio(ctx context.Context, id int64) (model.Studio, error) {
	studio, ok := s.studios[id]
	if !ok {
		return model.Studio{}, fmt.Errorf("%w: studio %d", store.ErrNotFound, id)
	}
	return studio, nil
}

func (s *fakeStore) SaveSubscription(ctx context.Context, sub model.WatchSubscription) error {
	s.subs[sub.Endpoint] = sub
	return nil
}

func (s *fakeStore) GetSubscription(ctx context.Context, endpoint string) (model.WatchSubscription, error) {
	sub, ok := s.subs[endpoint]
	if !ok {
		return model.WatchSubscription{}, fmt.Errorf("%w: subscription", store.ErrNotFound)
	}
	return sub, nil
}

func (s *fakeStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	delete(s.subs, endpoint)
	return nil
}

func (s *fakeStore) ListSubscriptions(ctx context.Context) ([]model.WatchSubscription, error) {
	var out []model.WatchSubscription
	for _, sub := range s.subs {
		out = append(out, sub)
	}
	return out, nil
}

func (s *fakeStore) SetNotified(ctx context.Context, endpoint string, notified bool) error {
	sub, ok := s.subs[endpoint]
	if !ok {
		return fmt.Errorf("%w: subscription", store.ErrNotFound)
	}
	sub.Notified = notified
	s.subs[endpoint] = sub
	return nil
}

// fakeService records the last query and returns canned rooms or an error.
type fakeService struct {
	rooms []model.RoomAvailability
	err   error

	lastSourceID string
	lastShopID   string
	lastDate     time.Time
	lastRange    model.DesiredRange
	lastDuration float64
}

func (f *fakeService) GetAvailability(ctx context.Context, sourceID, shopID string, date time.Time) ([]model.RoomAvailability, error) {
	f.lastSourceID = sourceID
	f.lastShopID = shopID
	f.lastDate = date
	return f.rooms, f.err
}

func (f *fakeService) GetMatchingAvailability(ctx context.Context, sourceID, shopID string, date time.Time, rng model.DesiredRange, durationHours float64) ([]model.RoomAvailability, error) {
	f.lastRange = rng
	f.lastDuration = durationHours
	return f.GetAvailability(ctx, sourceID, shopID, date)
}

func testServerConfig() *config.ServerConfig {
	return &config.ServerConfig{
		Port:            8080,
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTLSeconds: 1,
	}
}

func setupRouter(s store.Store, svc AvailabilityService, registry *scrape.Registry) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(s, svc, registry, nil)
	return NewRouter(testServerConfig(), handler)
}
