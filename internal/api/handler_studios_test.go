package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio-availability-backend/internal/model"
	"studio-availability-backend/internal/scrape"
)

func TestGetStudios(t *testing.T) {
	fs := newFakeStore(
		catalogStudio(),
		model.Studio{ID: 2, Name: "NOAH Annex", Address: "Ikebukuro"},
	)
	router := setupRouter(fs, &fakeService{}, scrape.NewRegistry())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/studios", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Studios []studioView `json:"studios"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Studios, 2)

	byID := make(map[int64]studioView)
	for _, s := range resp.Studios {
		byID[s.ID] = s
	}
	assert.True(t, byID[1].HasAvailability)
	assert.Equal(t, "studiol", byID[1].ScraperType)
	assert.False(t, byID[2].HasAvailability)
	assert.Empty(t, byID[2].ScraperType)
}

func TestGetStudios_Search(t *testing.T) {
	fs := newFakeStore(
		catalogStudio(),
		model.Studio{ID: 2, Name: "NOAH Annex"},
	)
	router := setupRouter(fs, &fakeService{}, scrape.NewRegistry())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/studios?q=NOAH+Annex", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Studios []studioView `json:"studios"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Studios, 1)
	assert.Equal(t, "NOAH Annex", resp.Studios[0].Name)
}
