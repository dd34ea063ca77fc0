package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio-availability-backend/internal/model"
	"studio-availability-backend/internal/scrape"
)

type noopStrategy struct{}

func (noopStrategy) Name() string { return "noop" }

func (noopStrategy) EstablishConnection(ctx context.Context, shopID string) error { return nil }

func (noopStrategy) FetchAvailableTimes(ctx context.Context, date time.Time) ([]model.RoomAvailability, error) {
	return nil, nil
}

func scraperRegistry(t *testing.T) *scrape.Registry {
	t.Helper()
	registry := scrape.NewRegistry()
	err := registry.Register("studiol", func() (scrape.Strategy, error) { return noopStrategy{}, nil }, scrape.Metadata{
		Description: "Studio-OL reservation system",
	})
	require.NoError(t, err)
	return registry
}

func TestListScrapers(t *testing.T) {
	router := setupRouter(newFakeStore(), &fakeService{}, scraperRegistry(t))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/scrapers", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Scrapers map[string]scrape.Entry `json:"scrapers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Contains(t, resp.Scrapers, "studiol")
	assert.Equal(t, scrape.StatusActive, resp.Scrapers["studiol"].Metadata.Status)
}

func TestDisableAndEnableScraper(t *testing.T) {
	registry := scraperRegistry(t)
	router := setupRouter(newFakeStore(), &fakeService{}, registry)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/scrapers/studiol/disable", strings.NewReader(`{"reason":"site maintenance"}`))
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	meta, ok := registry.Metadata("studiol")
	require.True(t, ok)
	assert.Equal(t, scrape.StatusDisabled, meta.Status)
	assert.Equal(t, "site maintenance", meta.ErrorMessage)

	_, err := registry.Lookup("studiol")
	assert.ErrorIs(t, err, scrape.ErrUnavailable)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("PUT", "/api/scrapers/studiol/enable", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	meta, _ = registry.Metadata("studiol")
	assert.Equal(t, scrape.StatusActive, meta.Status)
}

func TestDisableScraper_DefaultReason(t *testing.T) {
	registry := scraperRegistry(t)
	router := setupRouter(newFakeStore(), &fakeService{}, registry)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/scrapers/studiol/disable", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	meta, _ := registry.Metadata("studiol")
	assert.Equal(t, "disabled by operator", meta.ErrorMessage)
}

func TestScraperEndpoints_UnknownSource(t *testing.T) {
	router := setupRouter(newFakeStore(), &fakeService{}, scraperRegistry(t))

	for _, path := range []string{"/api/scrapers/ghost/disable", "/api/scrapers/ghost/enable"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", path, nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "SCRAPER_NOT_FOUND")
	}
}
