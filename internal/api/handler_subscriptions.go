package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"studio-availability-backend/internal/model"
	"studio-availability-backend/internal/store"
)

type subscriptionRequest struct {
	Endpoint      string  `json:"endpoint" binding:"required"`
	P256DH        string  `json:"p256dh" binding:"required"`
	Auth          string  `json:"auth" binding:"required"`
	StudioID      int64   `json:"studio_id" binding:"required"`
	Date          string  `json:"date" binding:"required"`
	Start         string  `json:"start" binding:"required"`
	End           string  `json:"end" binding:"required"`
	DurationHours float64 `json:"duration" binding:"required"`
}

type subscriptionView struct {
	Endpoint      string  `json:"endpoint"`
	StudioID      int64   `json:"studio_id"`
	Date          string  `json:"date"`
	Start         string  `json:"start"`
	End           string  `json:"end"`
	DurationHours float64 `json:"duration"`
	Notified      bool    `json:"notified"`
}

// PutSubscription creates or replaces the watch subscription for a push
// endpoint. The query fields are validated the same way as a live
// availability request so the watcher never replays a bad query.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req subscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "INVALID_PARAMETER", err.Error())
		return
	}
	if err := validateWatchQuery(req); err != nil {
		abortError(c, http.StatusBadRequest, "INVALID_PARAMETER", err.Error())
		return
	}

	if _, err := h.store.GetStudio(c.Request.Context(), req.StudioID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			abortError(c, http.StatusNotFound, "STUDIO_NOT_FOUND", "unknown studio")
			return
		}
		abortError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load studio")
		return
	}

	sub := model.WatchSubscription{
		Endpoint:      req.Endpoint,
		P256DH:        req.P256DH,
		Auth:          req.Auth,
		StudioID:      req.StudioID,
		Date:          req.Date,
		RangeStart:    req.Start,
		RangeEnd:      req.End,
		DurationHours: req.DurationHours,
	}
	if err := h.store.SaveSubscription(c.Request.Context(), sub); err != nil {
		abortError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to save subscription")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "subscribed"})
}

// GetSubscription returns the stored watch for ?endpoint=.
func (h *Handler) GetSubscription(c *gin.Context) {
	endpoint := c.Query("endpoint")
	if endpoint == "" {
		abortError(c, http.StatusBadRequest, "INVALID_PARAMETER", "endpoint is required")
		return
	}

	sub, err := h.store.GetSubscription(c.Request.Context(), endpoint)
	if errors.Is(err, store.ErrNotFound) {
		abortError(c, http.StatusNotFound, "SUBSCRIPTION_NOT_FOUND", "no subscription for endpoint")
		return
	}
	if err != nil {
		abortError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load subscription")
		return
	}

	c.JSON(http.StatusOK, subscriptionView{
		Endpoint:      sub.Endpoint,
		StudioID:      sub.StudioID,
		Date:          sub.Date,
		Start:         sub.RangeStart,
		End:           sub.RangeEnd,
		DurationHours: sub.DurationHours,
		Notified:      sub.Notified,
	})
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription removes the watch for a push endpoint.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req unsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "INVALID_PARAMETER", err.Error())
		return
	}

	if err := h.store.DeleteSubscription(c.Request.Context(), req.Endpoint); err != nil {
		abortError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to delete subscription")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "unsubscribed"})
}

func validateWatchQuery(req subscriptionRequest) error {
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", req.Date)
	}
	start, err := model.ParseTimeOfDay(req.Start)
	if err != nil {
		return err
	}
	end, err := model.ParseTimeOfDay(req.End)
	if err != nil {
		return err
	}
	if _, err := model.NewDesiredRange(start, end); err != nil {
		return err
	}
	if req.DurationHours <= 0 {
		return errors.New("duration must be positive")
	}
	return nil
}
