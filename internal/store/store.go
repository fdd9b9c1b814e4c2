package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"recycle-schedule-backend/internal/fostplus"
	"recycle-schedule-backend/internal/model"
)

// Store defines the interface for all database operations of the refresher.
type Store interface {
	UpsertAddress(ctx context.Context, addr *model.Address) error
	ReplaceCollections(ctx context.Context, addressID int64, from, until time.Time, calendar map[string][]time.Time) error
	UpsertFractions(ctx context.Context, addressID int64, fractions map[string]fostplus.Fraction) error
	UpsertParks(ctx context.Context, addressID int64, parks map[string]fostplus.RecyclingPark) error
	AddressesWithCollectionOn(ctx context.Context, day time.Time) ([]int64, error)
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying connection for the API layer's read queries.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// UpsertAddress creates or updates an address, keyed by its slug. The
// address ID is filled in on return.
func (s *gormStore) UpsertAddress(ctx context.Context, addr *model.Address) error {
	var existing model.Address
	err := s.db.WithContext(ctx).Where("slug = ?", addr.Slug).First(&existing).Error
	switch {
	case err == nil:
		addr.ID = existing.ID
		addr.CreatedAt = existing.CreatedAt
		return s.db.WithContext(ctx).Save(addr).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.db.WithContext(ctx).Create(addr).Error
	default:
		return fmt.Errorf("failed to look up address %q: %w", addr.Slug, err)
	}
}

// ReplaceCollections swaps the stored calendar of an address inside the
// fetched window for the freshly normalized one. Rows outside the window are
// left alone so a shrunken query window never erases known future pickups.
func (s *gormStore) ReplaceCollections(ctx context.Context, addressID int64, from, until time.Time, calendar map[string][]time.Time) error {
	var rows []model.CollectionDay
	for fractionID, dates := range calendar {
		for _, date := range dates {
			rows = append(rows, model.CollectionDay{
				AddressID:  addressID,
				FractionID: fractionID,
				Date:       date,
			})
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("address_id = ? AND date >= ? AND date < ?", addressID, from, until).
			Delete(&model.CollectionDay{}).Error; err != nil {
			return fmt.Errorf("failed to clear collection window for address %d: %w", addressID, err)
		}

		if len(rows) == 0 {
			return nil
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to insert collection days for address %d: %w", addressID, err)
		}
		return nil
	})
}

// UpsertFractions refreshes the fraction catalog of an address.
func (s *gormStore) UpsertFractions(ctx context.Context, addressID int64, fractions map[string]fostplus.Fraction) error {
	if len(fractions) == 0 {
		return nil
	}

	rows := make([]model.Fraction, 0, len(fractions))
	for logoID, fraction := range fractions {
		rows = append(rows, model.Fraction{
			AddressID: addressID,
			LogoID:    logoID,
			Color:     fraction.Color,
			Name:      fraction.Name,
		})
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rows).Error
}

// UpsertParks refreshes the recycling-park directory of an address. The
// exception and opening lists are stored as the raw JSON the remote service
// returned.
func (s *gormStore) UpsertParks(ctx context.Context, addressID int64, parks map[string]fostplus.RecyclingPark) error {
	if len(parks) == 0 {
		return nil
	}

	rows := make([]model.RecyclingPark, 0, len(parks))
	for _, park := range parks {
		exceptions, err := json.Marshal(park.ExceptionDays)
		if err != nil {
			return fmt.Errorf("failed to serialize exception days of park %s: %w", park.ID, err)
		}
		periods, err := json.Marshal(park.OpeningPeriods)
		if err != nil {
			return fmt.Errorf("failed to serialize opening periods of park %s: %w", park.ID, err)
		}

		rows = append(rows, model.RecyclingPark{
			ID:             park.ID,
			AddressID:      addressID,
			Name:           park.Name,
			Slug:           model.MakeSlug(park.Name),
			Latitude:       park.Latitude,
			Longitude:      park.Longitude,
			Location:       park.Location,
			Description:    park.Description,
			ExceptionDays:  string(exceptions),
			OpeningPeriods: string(periods),
		})
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rows).Error
}

// AddressesWithCollectionOn returns the ids of addresses that have at least
// one pickup scheduled on the given day.
func (s *gormStore) AddressesWithCollectionOn(ctx context.Context, day time.Time) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).
		Model(&model.CollectionDay{}).
		Where("date = ?", day).
		Distinct().
		Pluck("address_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query collections on %s: %w", day.Format("2006-01-02"), err)
	}
	return ids, nil
}
