package internal

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"recycle-schedule-backend/config"
	"recycle-schedule-backend/internal/fostplus"
	"recycle-schedule-backend/internal/model"
	"recycle-schedule-backend/internal/refresher"
	"recycle-schedule-backend/internal/store"
)

const paperLogoID = "5d610b86162c063cc0400103"

// TestRefreshLifecycle runs address resolution and two refresh cycles against
// a mocked RecycleApp backend and verifies the database state after each step.
func TestRefreshLifecycle(t *testing.T) {
	// 1. Setup an in-memory SQLite database for testing.
	testDB, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to the in-memory database: %v", err)
	}
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()

	err = testDB.AutoMigrate(
		&model.Address{},
		&model.CollectionDay{},
		&model.Fraction{},
		&model.RecyclingPark{},
		&model.PushSubscription{},
	)
	require.NoError(t, err)

	// 2. Mock backend. The collection schedule is controlled per cycle.
	pickupDates := []string{}
	setPickups := func(dates ...string) { pickupDates = dates }

	mux := http.NewServeMux()
	mux.HandleFunc("/config/app.settings.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"API": "http://%s"}`, r.Host)
	})
	mux.HandleFunc("/public/v1/zipcodes", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items": [{"id": "3000-24062", "code": "3000", "names": [{"fr": "Louvain", "nl": "Leuven"}]}]}`)
	})
	mux.HandleFunc("/public/v1/streets", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total": 1, "items": [{"id": "street-1", "names": {"fr": "Grand Place", "nl": "Grote Markt"}}]}`)
	})
	mux.HandleFunc("/public/v1/collections", func(w http.ResponseWriter, r *http.Request) {
		items := ""
		for i, date := range pickupDates {
			if i > 0 {
				items += ","
			}
			items += fmt.Sprintf(`{"timestamp": "%sT00:00:00.000Z", "fraction": {"color": "#146fb7", "name": {"fr": "Papier", "nl": "Papier"}, "logo": {"id": %q}}}`,
				date, paperLogoID)
		}
		fmt.Fprintf(w, `{"items": [%s], "pages": 1, "total": %d}`, items, len(pickupDates))
	})
	mux.HandleFunc("/public/v1/collection-points/recycling-parks", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items": [{
			"id": "park-1",
			"displayName": {"fr": "Recyparc Louvain", "nl": "Containerpark Leuven"},
			"street": "Ringlaan", "houseNumber": "12", "zipcode": "3000", "city": "Leuven",
			"location": {"coordinates": [4.70, 50.88]},
			"exceptionDays": [], "openingPeriods": []
		}]}`)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	// 3. Configuration pointing at the mock backend.
	cfg := &config.Config{}
	cfg.Refresher.Enabled = true
	cfg.Refresher.SettingsURL = server.URL + "/config/app.settings.json"
	cfg.Refresher.Addresses = []config.AddressConfig{
		{Name: "Home", ZipCode: 3000, Street: "Grand Place", HouseNumber: 1, Language: "fr"},
	}
	cfg.WorkerPool.Size = 4

	gormStore := store.NewGormStore(testDB)
	client := fostplus.NewClient(cfg.Refresher.SettingsURL)
	svc := refresher.NewService(cfg, gormStore, client)

	ctx := context.Background()

	// 4. Resolve the configured address.
	require.NoError(t, svc.ResolveAddresses(ctx))

	var addr model.Address
	require.NoError(t, testDB.First(&addr, "slug = ?", "home").Error)
	assert.Equal(t, "3000-24062", addr.ZipCodeID)
	assert.Equal(t, "street-1", addr.StreetID)
	assert.Equal(t, "Grand Place", addr.Street)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	day1 := today.AddDate(0, 0, 3)
	day2 := today.AddDate(0, 0, 10)

	t.Run("Cycle 1: schedule is stored", func(t *testing.T) {
		setPickups(day1.Format("2006-01-02"), day2.Format("2006-01-02"))
		svc.RefreshOnce(ctx)

		var days []model.CollectionDay
		require.NoError(t, testDB.Where("address_id = ?", addr.ID).Order("date").Find(&days).Error)
		require.Len(t, days, 2)
		assert.Equal(t, paperLogoID, days[0].FractionID)
		assert.True(t, days[0].Date.Equal(day1), "first pickup should be stored as-is")
		assert.True(t, days[1].Date.Equal(day2))

		var fraction model.Fraction
		require.NoError(t, testDB.First(&fraction, "address_id = ? AND logo_id = ?", addr.ID, paperLogoID).Error)
		assert.Equal(t, "Papier", fraction.Name)
		assert.Equal(t, "#146fb7", fraction.Color)

		var park model.RecyclingPark
		require.NoError(t, testDB.First(&park, "id = ?", "park-1").Error)
		assert.Equal(t, "Recyparc Louvain", park.Name)
		require.NotNil(t, park.Latitude)
		assert.InDelta(t, 50.88, *park.Latitude, 0.001)
	})

	t.Run("Cycle 2: schedule is replaced inside the window", func(t *testing.T) {
		// The second pickup moved by a day.
		moved := day2.AddDate(0, 0, 1)
		setPickups(day1.Format("2006-01-02"), moved.Format("2006-01-02"))
		svc.RefreshOnce(ctx)

		var days []model.CollectionDay
		require.NoError(t, testDB.Where("address_id = ?", addr.ID).Order("date").Find(&days).Error)
		require.Len(t, days, 2, "stale dates inside the window must be dropped")
		assert.True(t, days[1].Date.Equal(moved))
	})

	t.Run("Cycle 3: absent result keeps the stored schedule", func(t *testing.T) {
		setPickups()
		svc.RefreshOnce(ctx)

		var count int64
		testDB.Model(&model.CollectionDay{}).Where("address_id = ?", addr.ID).Count(&count)
		assert.Equal(t, int64(2), count, "an empty upstream answer must not clear the schedule")
	})
}
