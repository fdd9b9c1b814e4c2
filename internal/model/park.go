package model

import "time"

// RecyclingPark is a drop-off facility attached to an address's zip code.
// ExceptionDays and OpeningPeriods hold the raw JSON lists of the remote
// service; their schema is not ours to normalize.
type RecyclingPark struct {
	ID             string `gorm:"primaryKey;size:64"` // Upstream ID
	AddressID      int64  `gorm:"index;not null"`
	Name           string `gorm:"size:256"`
	Slug           string `gorm:"index;size:256"`
	Latitude       *float64
	Longitude      *float64
	Location       string `gorm:"size:512"`
	Description    string `gorm:"type:text"`
	ExceptionDays  string `gorm:"type:text"`
	OpeningPeriods string `gorm:"type:text"`
	UpdatedAt      time.Time
}
