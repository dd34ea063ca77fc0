package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studio-availability-backend/internal/model"
)

const searchLimit = 20

type studioView struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Address         string `json:"address"`
	ScraperType     string `json:"scraper_type,omitempty"`
	ShopID          string `json:"shop_id,omitempty"`
	HasAvailability bool   `json:"has_availability"`
}

func toStudioViews(studios []model.Studio) []studioView {
	views := make([]studioView, 0, len(studios))
	for _, s := range studios {
		views = append(views, studioView{
			ID:              s.ID,
			Name:            s.Name,
			Address:         s.Address,
			ScraperType:     s.ScraperType,
			ShopID:          s.ShopID,
			HasAvailability: s.HasAvailability(),
		})
	}
	return views
}

// GetStudios lists the studio catalog. With ?q= it returns a ranked search
// instead of the full list.
func (h *Handler) GetStudios(c *gin.Context) {
	var (
		studios []model.Studio
		err     error
	)
	if q := c.Query("q"); q != "" {
		studios, err = h.store.SearchStudios(c.Request.Context(), q, searchLimit)
	} else {
		studios, err = h.store.ListStudios(c.Request.Context())
	}
	if err != nil {
		abortError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list studios")
		return
	}

	c.JSON(http.StatusOK, gin.H{"studios": toStudioViews(studios)})
}
