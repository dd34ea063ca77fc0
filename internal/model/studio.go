package model

import "time"

// Studio is a catalog entry for one rental studio. ScraperType selects the
// registered connector; ShopID is passed through to it (empty for standalone
// shops).
type Studio struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:256;not null;index" json:"name"`
	Address     string    `gorm:"size:512" json:"address"`
	ScraperType string    `gorm:"size:64" json:"scraper_type"`
	ShopID      string    `gorm:"size:64" json:"shop_id"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// HasAvailability reports whether a connector is configured for the studio.
func (s Studio) HasAvailability() bool {
	return s.ScraperType != ""
}
