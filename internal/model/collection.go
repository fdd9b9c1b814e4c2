package model

import "time"

// CollectionDay is one scheduled pickup of a fraction at an address.
// (address, fraction, date) is unique; refresh cycles upsert into it.
type CollectionDay struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	AddressID  int64     `gorm:"uniqueIndex:idx_collection_day;not null"`
	FractionID string    `gorm:"uniqueIndex:idx_collection_day;size:64;not null"`
	Date       time.Time `gorm:"uniqueIndex:idx_collection_day;not null"`
	CreatedAt  time.Time
}

// Fraction is one recognized waste category collected at an address.
type Fraction struct {
	AddressID int64  `gorm:"primaryKey"`
	LogoID    string `gorm:"primaryKey;size:64"`
	Color     string `gorm:"size:16"`
	Name      string `gorm:"size:128"`
	UpdatedAt time.Time
}
