package refresher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"recycle-schedule-backend/config"
	"recycle-schedule-backend/internal/fostplus"
	"recycle-schedule-backend/internal/model"
	"recycle-schedule-backend/internal/notification"
)

const paperLogoID = "5d610b86162c063cc0400103"

// mockFetcher is a mock implementation of the Fetcher interface.
type mockFetcher struct {
	InitializeFunc        func(ctx context.Context) error
	GetZipCodeFunc        func(ctx context.Context, zipCode int, language string) ([]fostplus.ZipCodeMatch, error)
	GetStreetFunc         func(ctx context.Context, street, zipCodeID, language string) (fostplus.StreetMatch, error)
	GetRecyclingParksFunc func(ctx context.Context, zipCodeID, language string) (map[string]fostplus.RecyclingPark, error)
	GetFractionsFunc      func(ctx context.Context, zipCodeID, streetID string, houseNumber int, language string) (map[string]fostplus.Fraction, error)
	GetCollectionsFunc    func(ctx context.Context, zipCodeID, streetID string, houseNumber int, from, until time.Time) (map[string][]time.Time, error)
}

func (m *mockFetcher) Initialize(ctx context.Context) error {
	return m.InitializeFunc(ctx)
}

func (m *mockFetcher) GetZipCode(ctx context.Context, zipCode int, language string) ([]fostplus.ZipCodeMatch, error) {
	return m.GetZipCodeFunc(ctx, zipCode, language)
}

func (m *mockFetcher) GetStreet(ctx context.Context, street, zipCodeID, language string) (fostplus.StreetMatch, error) {
	return m.GetStreetFunc(ctx, street, zipCodeID, language)
}

func (m *mockFetcher) GetRecyclingParks(ctx context.Context, zipCodeID, language string) (map[string]fostplus.RecyclingPark, error) {
	return m.GetRecyclingParksFunc(ctx, zipCodeID, language)
}

func (m *mockFetcher) GetFractions(ctx context.Context, zipCodeID, streetID string, houseNumber int, language string) (map[string]fostplus.Fraction, error) {
	return m.GetFractionsFunc(ctx, zipCodeID, streetID, houseNumber, language)
}

func (m *mockFetcher) GetCollections(ctx context.Context, zipCodeID, streetID string, houseNumber int, from, until time.Time) (map[string][]time.Time, error) {
	return m.GetCollectionsFunc(ctx, zipCodeID, streetID, houseNumber, from, until)
}

// mockStore is a mock implementation of the store.Store interface.
type mockStore struct {
	UpsertAddressFunc             func(ctx context.Context, addr *model.Address) error
	ReplaceCollectionsFunc        func(ctx context.Context, addressID int64, from, until time.Time, calendar map[string][]time.Time) error
	UpsertFractionsFunc           func(ctx context.Context, addressID int64, fractions map[string]fostplus.Fraction) error
	UpsertParksFunc               func(ctx context.Context, addressID int64, parks map[string]fostplus.RecyclingPark) error
	AddressesWithCollectionOnFunc func(ctx context.Context, day time.Time) ([]int64, error)
}

func (m *mockStore) UpsertAddress(ctx context.Context, addr *model.Address) error {
	return m.UpsertAddressFunc(ctx, addr)
}

func (m *mockStore) ReplaceCollections(ctx context.Context, addressID int64, from, until time.Time, calendar map[string][]time.Time) error {
	return m.ReplaceCollectionsFunc(ctx, addressID, from, until, calendar)
}

func (m *mockStore) UpsertFractions(ctx context.Context, addressID int64, fractions map[string]fostplus.Fraction) error {
	return m.UpsertFractionsFunc(ctx, addressID, fractions)
}

func (m *mockStore) UpsertParks(ctx context.Context, addressID int64, parks map[string]fostplus.RecyclingPark) error {
	return m.UpsertParksFunc(ctx, addressID, parks)
}

func (m *mockStore) AddressesWithCollectionOn(ctx context.Context, day time.Time) ([]int64, error) {
	return m.AddressesWithCollectionOnFunc(ctx, day)
}

func (m *mockStore) DB() *gorm.DB {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Refresher: config.RefresherConfig{
			Enabled: true,
			Addresses: []config.AddressConfig{
				{Name: "Home", ZipCode: 1000, Street: "Rue Haute", HouseNumber: 1, Language: "fr"},
			},
		},
		WorkerPool: config.WorkerPoolConfig{Size: 1},
	}
}

func TestResolveAddresses_PicksFirstZipMatchAndPersists(t *testing.T) {
	var persisted *model.Address
	fetcher := &mockFetcher{
		InitializeFunc: func(ctx context.Context) error { return nil },
		GetZipCodeFunc: func(ctx context.Context, zipCode int, language string) ([]fostplus.ZipCodeMatch, error) {
			return []fostplus.ZipCodeMatch{
				{ID: "1000-1", Name: "1000 - Bruxelles"},
				{ID: "1000-2", Name: "1000 - Brussel"},
			}, nil
		},
		GetStreetFunc: func(ctx context.Context, street, zipCodeID, language string) (fostplus.StreetMatch, error) {
			assert.Equal(t, "1000-1", zipCodeID)
			return fostplus.StreetMatch{ID: "street-1", Name: "Rue Haute"}, nil
		},
	}
	store := &mockStore{
		UpsertAddressFunc: func(ctx context.Context, addr *model.Address) error {
			addr.ID = 7
			persisted = addr
			return nil
		},
	}

	service := NewService(testConfig(), store, fetcher)
	require.NoError(t, service.ResolveAddresses(context.Background()))

	require.NotNil(t, persisted)
	assert.Equal(t, "home", persisted.Slug)
	assert.Equal(t, "1000-1", persisted.ZipCodeID)
	assert.Equal(t, "street-1", persisted.StreetID)
	require.Len(t, service.addresses, 1)
	assert.Equal(t, int64(7), service.addresses[0].ID)
}

func TestResolveAddresses_SkipsUnresolvableStreet(t *testing.T) {
	fetcher := &mockFetcher{
		InitializeFunc: func(ctx context.Context) error { return nil },
		GetZipCodeFunc: func(ctx context.Context, zipCode int, language string) ([]fostplus.ZipCodeMatch, error) {
			return []fostplus.ZipCodeMatch{{ID: "1000-1", Name: "1000 - Bruxelles"}}, nil
		},
		GetStreetFunc: func(ctx context.Context, street, zipCodeID, language string) (fostplus.StreetMatch, error) {
			return fostplus.StreetMatch{}, fostplus.ErrStreetNotFound
		},
	}
	store := &mockStore{
		UpsertAddressFunc: func(ctx context.Context, addr *model.Address) error {
			t.Fatal("an unresolvable address must not be persisted")
			return nil
		},
	}

	service := NewService(testConfig(), store, fetcher)
	require.NoError(t, service.ResolveAddresses(context.Background()))
	assert.Empty(t, service.addresses)
}

func TestRefreshOnce_StoresDataAndDispatchesReminders(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1) // We expect one address ID to be dispatched

	collectionDate := time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC)
	var storedCalendar map[string][]time.Time

	fetcher := &mockFetcher{
		GetCollectionsFunc: func(ctx context.Context, zipCodeID, streetID string, houseNumber int, from, until time.Time) (map[string][]time.Time, error) {
			return map[string][]time.Time{paperLogoID: {collectionDate}}, nil
		},
		GetFractionsFunc: func(ctx context.Context, zipCodeID, streetID string, houseNumber int, language string) (map[string]fostplus.Fraction, error) {
			return map[string]fostplus.Fraction{
				paperLogoID: {LogoID: paperLogoID, Color: "#146fb7", Name: "Papier"},
			}, nil
		},
		GetRecyclingParksFunc: func(ctx context.Context, zipCodeID, language string) (map[string]fostplus.RecyclingPark, error) {
			return nil, nil
		},
	}
	store := &mockStore{
		ReplaceCollectionsFunc: func(ctx context.Context, addressID int64, from, until time.Time, calendar map[string][]time.Time) error {
			assert.Equal(t, int64(7), addressID)
			storedCalendar = calendar
			return nil
		},
		UpsertFractionsFunc: func(ctx context.Context, addressID int64, fractions map[string]fostplus.Fraction) error {
			return nil
		},
		UpsertParksFunc: func(ctx context.Context, addressID int64, parks map[string]fostplus.RecyclingPark) error {
			return nil
		},
		AddressesWithCollectionOnFunc: func(ctx context.Context, day time.Time) ([]int64, error) {
			assert.Equal(t, time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC), day)
			return []int64{7}, nil
		},
	}

	service := NewService(testConfig(), store, fetcher)
	service.now = func() time.Time { return time.Date(2024, 7, 2, 10, 0, 0, 0, time.UTC) }
	service.addresses = []*model.Address{
		{ID: 7, Name: "Home", ZipCodeID: "1000-1", StreetID: "street-1", HouseNumber: 1, Language: "fr"},
	}

	// Replace the real worker pool with one we can observe
	mockWorkerPool := notification.NewWorkerPool(1, nil, nil)
	service.workerPool = mockWorkerPool

	var dispatchedID int64
	go func() {
		for id := range mockWorkerPool.Jobs() {
			dispatchedID = id
			wg.Done()
		}
	}()

	service.RefreshOnce(context.Background())

	wg.Wait()
	assert.Equal(t, int64(7), dispatchedID, "the address returned by AddressesWithCollectionOn should be dispatched to the worker pool")
	require.NotNil(t, storedCalendar)
	assert.Equal(t, []time.Time{collectionDate}, storedCalendar[paperLogoID])
}

func TestRefreshOnce_KeepsStoredScheduleOnAbsentResult(t *testing.T) {
	fetcher := &mockFetcher{
		GetCollectionsFunc: func(ctx context.Context, zipCodeID, streetID string, houseNumber int, from, until time.Time) (map[string][]time.Time, error) {
			return map[string][]time.Time{}, nil // both attempts failed upstream
		},
		GetFractionsFunc: func(ctx context.Context, zipCodeID, streetID string, houseNumber int, language string) (map[string]fostplus.Fraction, error) {
			return nil, nil
		},
		GetRecyclingParksFunc: func(ctx context.Context, zipCodeID, language string) (map[string]fostplus.RecyclingPark, error) {
			return nil, nil
		},
	}
	store := &mockStore{
		ReplaceCollectionsFunc: func(ctx context.Context, addressID int64, from, until time.Time, calendar map[string][]time.Time) error {
			t.Fatal("an absent result must not clear stored collections")
			return nil
		},
		UpsertFractionsFunc: func(ctx context.Context, addressID int64, fractions map[string]fostplus.Fraction) error {
			return nil
		},
		UpsertParksFunc: func(ctx context.Context, addressID int64, parks map[string]fostplus.RecyclingPark) error {
			return nil
		},
		AddressesWithCollectionOnFunc: func(ctx context.Context, day time.Time) ([]int64, error) {
			return nil, nil
		},
	}

	service := NewService(testConfig(), store, fetcher)
	service.addresses = []*model.Address{
		{ID: 7, Name: "Home", ZipCodeID: "1000-1", StreetID: "street-1", HouseNumber: 1, Language: "fr"},
	}

	service.RefreshOnce(context.Background())
}
