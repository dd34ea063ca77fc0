package model

import "time"

// WatchSubscription holds a browser push subscription together with the
// availability query it watches. Notified tracks whether the subscriber has
// already been alerted for the current match, so a window that stays open
// does not fire repeatedly.
type WatchSubscription struct {
	Endpoint      string  `gorm:"primaryKey"`
	P256DH        string  `gorm:"column:p256dh;not null"`
	Auth          string  `gorm:"not null"`
	StudioID      int64   `gorm:"not null;index"`
	Date          string  `gorm:"size:10;not null"` // YYYY-MM-DD
	RangeStart    string  `gorm:"size:5;not null"`  // HH:MM
	RangeEnd      string  `gorm:"size:5;not null"`  // HH:MM or 24:00
	DurationHours float64 `gorm:"not null"`
	Notified      bool    `gorm:"not null;default:false"`
	CreatedAt     time.Time
}
