package refresher

import (
	"context"
	"log"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"recycle-schedule-backend/config"
	"recycle-schedule-backend/internal/fostplus"
	"recycle-schedule-backend/internal/model"
	"recycle-schedule-backend/internal/notification"
	"recycle-schedule-backend/internal/store"
)

// Fetcher produces normalized RecycleApp data on demand. It is satisfied by
// *fostplus.Client; tests substitute their own.
type Fetcher interface {
	Initialize(ctx context.Context) error
	GetZipCode(ctx context.Context, zipCode int, language string) ([]fostplus.ZipCodeMatch, error)
	GetStreet(ctx context.Context, street, zipCodeID, language string) (fostplus.StreetMatch, error)
	GetRecyclingParks(ctx context.Context, zipCodeID, language string) (map[string]fostplus.RecyclingPark, error)
	GetFractions(ctx context.Context, zipCodeID, streetID string, houseNumber int, language string) (map[string]fostplus.Fraction, error)
	GetCollections(ctx context.Context, zipCodeID, streetID string, houseNumber int, from, until time.Time) (map[string][]time.Time, error)
}

// Service orchestrates the periodic refresh of collection schedules for the
// configured addresses.
type Service struct {
	cfg        *config.Config
	store      store.Store
	fetcher    Fetcher
	workerPool *notification.WorkerPool
	now        func() time.Time

	addresses []*model.Address
}

// NewService creates and initializes a new refresher service.
func NewService(cfg *config.Config, store store.Store, fetcher Fetcher) *Service {
	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, store.DB(), &webpushOptions)

	return &Service{
		cfg:        cfg,
		store:      store,
		fetcher:    fetcher,
		workerPool: workerPool,
		now:        time.Now,
	}
}

// Run starts the refresh process in a loop.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Refresher.Enabled {
		log.Println("Refresher is disabled. Not starting.")
		return
	}
	log.Println("Starting refresher service...")

	// Start the worker pool
	s.workerPool.Start(ctx)

	if err := s.ResolveAddresses(ctx); err != nil {
		log.Printf("Address resolution failed: %v. Refresher will not run.", err)
		return
	}
	if len(s.addresses) == 0 {
		log.Println("No addresses could be resolved. Refresher will not run.")
		return
	}

	s.RefreshOnce(ctx)

	timer := time.NewTimer(s.cfg.Refresher.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Refresher service shutting down.")
			return
		case <-timer.C:
			s.RefreshOnce(ctx)
			timer.Reset(s.cfg.Refresher.Interval)
		}
	}
}

// ResolveAddresses resolves each configured address against the remote
// service and persists the result. An address that cannot be resolved is
// logged and skipped; an endpoint discovery failure aborts resolution.
func (s *Service) ResolveAddresses(ctx context.Context) error {
	if err := s.fetcher.Initialize(ctx); err != nil {
		return err
	}

	for _, addrCfg := range s.cfg.Refresher.Addresses {
		matches, err := s.fetcher.GetZipCode(ctx, addrCfg.ZipCode, addrCfg.Language)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			log.Printf("No locality found for zip code %d. Skipping address %q.", addrCfg.ZipCode, addrCfg.Name)
			continue
		}
		if len(matches) > 1 {
			log.Printf("Zip code %d matches %d localities; using %q.", addrCfg.ZipCode, len(matches), matches[0].Name)
		}
		zipMatch := matches[0]

		streetMatch, err := s.fetcher.GetStreet(ctx, addrCfg.Street, zipMatch.ID, addrCfg.Language)
		if err != nil {
			log.Printf("Could not resolve street %q for zip code %d: %v. Skipping address %q.",
				addrCfg.Street, addrCfg.ZipCode, err, addrCfg.Name)
			continue
		}

		addr := &model.Address{
			Name:        addrCfg.Name,
			Slug:        model.MakeSlug(addrCfg.Name),
			ZipCode:     addrCfg.ZipCode,
			ZipCodeID:   zipMatch.ID,
			Street:      streetMatch.Name,
			StreetID:    streetMatch.ID,
			HouseNumber: addrCfg.HouseNumber,
			Language:    addrCfg.Language,
		}
		if err := s.store.UpsertAddress(ctx, addr); err != nil {
			log.Printf("Failed to persist address %q: %v. Skipping.", addrCfg.Name, err)
			continue
		}

		log.Printf("Resolved address %q: zipCodeId=%s streetId=%s", addr.Name, addr.ZipCodeID, addr.StreetID)
		s.addresses = append(s.addresses, addr)
	}
	return nil
}

// RefreshOnce performs a single refresh cycle over all resolved addresses
// and dispatches reminder jobs for addresses with a pickup tomorrow.
func (s *Service) RefreshOnce(ctx context.Context) {
	log.Println("Executing refresh cycle...")
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	until := today.AddDate(0, 0, 7*8)

	for _, addr := range s.addresses {
		calendar, err := s.fetcher.GetCollections(ctx, addr.ZipCodeID, addr.StreetID, addr.HouseNumber, today, until)
		if err != nil {
			log.Printf("Error fetching collections for %q: %v", addr.Name, err)
			continue
		}
		if len(calendar) == 0 {
			// Absent result: keep whatever is stored rather than clearing it.
			log.Printf("No collection data available for %q; keeping stored schedule.", addr.Name)
		} else if err := s.store.ReplaceCollections(ctx, addr.ID, today, until, calendar); err != nil {
			log.Printf("Error storing collections for %q: %v", addr.Name, err)
		}

		fractions, err := s.fetcher.GetFractions(ctx, addr.ZipCodeID, addr.StreetID, addr.HouseNumber, addr.Language)
		if err != nil {
			log.Printf("Error fetching fractions for %q: %v", addr.Name, err)
		} else if err := s.store.UpsertFractions(ctx, addr.ID, fractions); err != nil {
			log.Printf("Error storing fractions for %q: %v", addr.Name, err)
		}

		parks, err := s.fetcher.GetRecyclingParks(ctx, addr.ZipCodeID, addr.Language)
		if err != nil {
			log.Printf("Error fetching recycling parks for %q: %v", addr.Name, err)
		} else if err := s.store.UpsertParks(ctx, addr.ID, parks); err != nil {
			log.Printf("Error storing recycling parks for %q: %v", addr.Name, err)
		}
	}

	tomorrow := today.AddDate(0, 0, 1)
	addressIDs, err := s.store.AddressesWithCollectionOn(ctx, tomorrow)
	if err != nil {
		log.Printf("Error looking up tomorrow's collections: %v", err)
		return
	}
	if len(addressIDs) > 0 {
		log.Printf("Dispatching collection reminders for %d addresses", len(addressIDs))
		for _, addressID := range addressIDs {
			s.workerPool.Dispatch(addressID)
		}
	}

	log.Println("Refresh cycle finished.")
}
