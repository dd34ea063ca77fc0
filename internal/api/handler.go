package api

import (
	"context"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"studio-availability-backend/internal/model"
	"studio-availability-backend/internal/scrape"
	"studio-availability-backend/internal/store"
)

// AvailabilityService is the slice of the service layer the handlers call.
type AvailabilityService interface {
	GetAvailability(ctx context.Context, sourceID, shopID string, date time.Time) ([]model.RoomAvailability, error)
	GetMatchingAvailability(ctx context.Context, sourceID, shopID string, date time.Time, rng model.DesiredRange, durationHours float64) ([]model.RoomAvailability, error)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	svc      AvailabilityService
	registry *scrape.Registry
	webpush  *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, svc AvailabilityService, registry *scrape.Registry, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:    s,
		svc:      svc,
		registry: registry,
		webpush:  webpushOptions,
	}
}

// errorBody is the structured failure surface for fetch and availability
// errors, distinct from plain validation failures.
type errorBody struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func abortError(c *gin.Context, httpStatus int, code, message string) {
	c.AbortWithStatusJSON(httpStatus, errorBody{Status: "error", Code: code, Message: message})
}

// GetHealth answers load-balancer health checks.
func (h *Handler) GetHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
