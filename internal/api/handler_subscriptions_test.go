package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio-availability-backend/internal/scrape"
)

const validSubscription = `{
	"endpoint": "https://push.example/abc",
	"p256dh": "key",
	"auth": "secret",
	"studio_id": 1,
	"date": "2026-09-01",
	"start": "18:00",
	"end": "24:00",
	"duration": 2
}`

func TestPutSubscription(t *testing.T) {
	fs := newFakeStore(catalogStudio())
	router := setupRouter(fs, &fakeService{}, scrape.NewRegistry())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/subscriptions", strings.NewReader(validSubscription))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	sub, ok := fs.subs["https://push.example/abc"]
	require.True(t, ok)
	assert.Equal(t, int64(1), sub.StudioID)
	assert.Equal(t, "18:00", sub.RangeStart)
	assert.Equal(t, "24:00", sub.RangeEnd)
	assert.Equal(t, 2.0, sub.DurationHours)
	assert.False(t, sub.Notified)
}

func TestPutSubscription_Invalid(t *testing.T) {
	testCases := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "empty body", body: "", wantStatus: http.StatusBadRequest},
		{name: "missing keys", body: `{"endpoint":"x"}`, wantStatus: http.StatusBadRequest},
		{
			name:       "bad date",
			body:       strings.Replace(validSubscription, "2026-09-01", "soon", 1),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "late start",
			body:       strings.Replace(validSubscription, `"start": "18:00"`, `"start": "23:30"`, 1),
			wantStatus: http.StatusOK, // 23:30 to 24:00 is still ordered
		},
		{
			name:       "bad time",
			body:       strings.Replace(validSubscription, "18:00", "25:00", 1),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown studio",
			body:       strings.Replace(validSubscription, `"studio_id": 1`, `"studio_id": 99`, 1),
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := setupRouter(newFakeStore(catalogStudio()), &fakeService{}, scrape.NewRegistry())

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("PUT", "/api/subscriptions", strings.NewReader(tc.body))
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
		})
	}
}

func TestGetSubscription(t *testing.T) {
	fs := newFakeStore(catalogStudio())
	router := setupRouter(fs, &fakeService{}, scrape.NewRegistry())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/subscriptions", strings.NewReader(validSubscription))
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/subscriptions?endpoint=https://push.example/abc", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var view subscriptionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, int64(1), view.StudioID)
	assert.Equal(t, "24:00", view.End)

	t.Run("missing endpoint param", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/subscriptions", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown endpoint", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/subscriptions?endpoint=https://push.example/ghost", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDeleteSubscription(t *testing.T) {
	fs := newFakeStore(catalogStudio())
	router := setupRouter(fs, &fakeService{}, scrape.NewRegistry())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/subscriptions", strings.NewReader(validSubscription))
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("DELETE", "/api/subscriptions", strings.NewReader(`{"endpoint":"https://push.example/abc"}`))
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Empty(t, fs.subs)
}

func TestGetVAPIDPublicKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("configured", func(t *testing.T) {
		handler := NewHandler(newFakeStore(), &fakeService{}, scrape.NewRegistry(), &webpush.Options{VAPIDPublicKey: "pub-key"})
		router := NewRouter(testServerConfig(), handler)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/vapid_public_key", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"public_key":"pub-key"}`, w.Body.String())
	})

	t.Run("push disabled", func(t *testing.T) {
		handler := NewHandler(newFakeStore(), &fakeService{}, scrape.NewRegistry(), nil)
		router := NewRouter(testServerConfig(), handler)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/vapid_public_key", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "PUSH_DISABLED")
	})
}
