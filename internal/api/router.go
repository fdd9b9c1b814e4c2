package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"recycle-schedule-backend/internal/mw"
	"recycle-schedule-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	db := s.DB()
	handler := NewHandler(s, webpushOptions)

	// Rate limit: 10 requests per second with a burst of 5
	rateLimiter := mw.RateLimiter(rate.Limit(10), 5)

	// The schedule only changes when the refresher runs, so cached
	// responses staying up to 5 minutes are fine.
	cacheStore := cache.New(5*time.Minute, 10*time.Minute)
	caching := mw.Cache(cacheStore, 5*time.Minute)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// GET /api/addresses
		api.GET("/addresses", caching, GetAddresses(db))

		// GET /api/addresses/{address_id}/collections
		api.GET("/addresses/:address_id/collections", caching, GetCollections(db))

		// GET /api/addresses/{address_id}/fractions
		api.GET("/addresses/:address_id/fractions", caching, GetFractions(db))

		// GET /api/addresses/{address_id}/parks
		api.GET("/addresses/:address_id/parks", caching, GetParks(db))

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
