package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"studio-availability-backend/internal/model"
	"studio-availability-backend/internal/scrape"
	"studio-availability-backend/internal/service"
	"studio-availability-backend/internal/store"
)

// availableRange is one matching window on the wire.
type availableRange struct {
	RoomName     string `json:"room_name"`
	Start        string `json:"start"`
	End          string `json:"end"`
	StartMinutes []int  `json:"start_minutes"`
}

type availabilityData struct {
	StudioID        string            `json:"studio_id"`
	StudioName      string            `json:"studio_name"`
	Date            string            `json:"date"`
	AvailableRanges []availableRange  `json:"available_ranges"`
	Meta            map[string]string `json:"meta"`
}

type availabilityResponse struct {
	Status string           `json:"status"`
	Data   availabilityData `json:"data"`
}

// GetAvailability handles
// GET /api/studios/:studio_id/availability?date&start&end&duration.
func (h *Handler) GetAvailability(c *gin.Context) {
	studioID, err := strconv.ParseInt(c.Param("studio_id"), 10, 64)
	if err != nil {
		abortError(c, http.StatusBadRequest, "INVALID_PARAMETER", "invalid studio id")
		return
	}

	studio, err := h.store.GetStudio(c.Request.Context(), studioID)
	if errors.Is(err, store.ErrNotFound) {
		abortError(c, http.StatusNotFound, "STUDIO_NOT_FOUND", "unknown studio")
		return
	}
	if err != nil {
		abortError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load studio")
		return
	}
	if !studio.HasAvailability() {
		abortError(c, http.StatusNotFound, "STUDIO_NOT_CONFIGURED", "studio has no availability source configured")
		return
	}

	date, rng, durationHours, ok := parseAvailabilityQuery(c)
	if !ok {
		return
	}

	rooms, err := h.svc.GetMatchingAvailability(c.Request.Context(), studio.ScraperType, studio.ShopID, date, rng, durationHours)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrValidation):
			abortError(c, http.StatusBadRequest, "INVALID_PARAMETER", err.Error())
		case errors.Is(err, scrape.ErrNotRegistered):
			abortError(c, http.StatusNotFound, "STUDIO_NOT_CONFIGURED", err.Error())
		case errors.Is(err, scrape.ErrUnavailable):
			abortError(c, http.StatusServiceUnavailable, "SCRAPER_UNAVAILABLE", err.Error())
		case errors.Is(err, service.ErrAvailabilityFetch):
			abortError(c, http.StatusBadGateway, "AVAILABILITY_FETCH_ERROR", err.Error())
		default:
			abortError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		}
		return
	}

	ranges := make([]availableRange, 0)
	for _, room := range rooms {
		for _, slot := range room.Slots {
			ranges = append(ranges, availableRange{
				RoomName:     room.RoomName,
				Start:        slot.Start.String(),
				End:          slot.End.FormatEnd(),
				StartMinutes: room.StartMinutes,
			})
		}
	}

	c.JSON(http.StatusOK, availabilityResponse{
		Status: "success",
		Data: availabilityData{
			StudioID:        strconv.FormatInt(studio.ID, 10),
			StudioName:      studio.Name,
			Date:            date.Format("2006-01-02"),
			AvailableRanges: ranges,
			Meta:            map[string]string{"timezone": "Asia/Tokyo"},
		},
	})
}

// parseAvailabilityQuery validates the date/start/end/duration query
// parameters. A caller-supplied end of "24:00" becomes the midnight
// sentinel before it reaches the engine.
func parseAvailabilityQuery(c *gin.Context) (time.Time, model.DesiredRange, float64, bool) {
	dateStr := c.Query("date")
	startStr := c.Query("start")
	endStr := c.Query("end")
	durationStr := c.Query("duration")
	if dateStr == "" || startStr == "" || endStr == "" || durationStr == "" {
		abortError(c, http.StatusBadRequest, "INVALID_PARAMETER", "date, start, end and duration are required")
		return time.Time{}, model.DesiredRange{}, 0, false
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		abortError(c, http.StatusBadRequest, "INVALID_PARAMETER", "invalid date, expected YYYY-MM-DD")
		return time.Time{}, model.DesiredRange{}, 0, false
	}

	start, err := model.ParseTimeOfDay(startStr)
	if err != nil {
		abortError(c, http.StatusBadRequest, "INVALID_PARAMETER", "invalid start time")
		return time.Time{}, model.DesiredRange{}, 0, false
	}
	end, err := model.ParseTimeOfDay(endStr)
	if err != nil {
		abortError(c, http.StatusBadRequest, "INVALID_PARAMETER", "invalid end time")
		return time.Time{}, model.DesiredRange{}, 0, false
	}

	rng, err := model.NewDesiredRange(start, end)
	if err != nil {
		abortError(c, http.StatusBadRequest, "INVALID_PARAMETER", err.Error())
		return time.Time{}, model.DesiredRange{}, 0, false
	}

	durationHours, err := strconv.ParseFloat(durationStr, 64)
	if err != nil || durationHours <= 0 {
		abortError(c, http.StatusBadRequest, "INVALID_PARAMETER", "duration must be a positive number of hours")
		return time.Time{}, model.DesiredRange{}, 0, false
	}

	return date, rng, durationHours, true
}
