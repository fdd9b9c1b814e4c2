package model

import (
	"time"

	"github.com/gosimple/slug"
)

// Address is a watched address with its resolved RecycleApp identifiers.
type Address struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"size:128;not null"`
	Slug        string `gorm:"uniqueIndex;size:128;not null"`
	ZipCode     int    `gorm:"not null"`
	ZipCodeID   string `gorm:"size:64;not null"`
	Street      string `gorm:"size:256;not null"`
	StreetID    string `gorm:"size:64;not null"`
	HouseNumber int    `gorm:"not null"`
	Language    string `gorm:"size:8;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Associations
	CollectionDays []CollectionDay `gorm:"foreignKey:AddressID;constraint:OnDelete:CASCADE"`
	Fractions      []Fraction      `gorm:"foreignKey:AddressID;constraint:OnDelete:CASCADE"`
}

// MakeSlug derives the stable URL-safe identifier used for an address name.
func MakeSlug(name string) string {
	return slug.Make(name)
}
