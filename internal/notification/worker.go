package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"recycle-schedule-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers for sending collection reminders.
// A job is the id of an address with a pickup scheduled tomorrow.
type WorkerPool struct {
	size    int
	jobs    chan int64
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
	now     func() time.Time
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int64, size), // Buffered channel
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
		now:     time.Now,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case addressID := <-wp.jobs:
			log.Printf("Worker %d processing address %d", id, addressID)
			wp.sendRemindersForAddress(ctx, addressID)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch sends a job to the worker pool.
func (wp *WorkerPool) Dispatch(addressID int64) {
	wp.jobs <- addressID
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan int64 {
	return wp.jobs
}

// sendRemindersForAddress fetches subscriptions and sends a reminder naming
// the fractions collected tomorrow at the given address.
func (wp *WorkerPool) sendRemindersForAddress(ctx context.Context, addressID int64) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_address_mapping sam ON sam.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("sam.address_id = ?", addressID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for address %d: %v", addressID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	log.Printf("Sending %d reminders for address %d", len(subscriptions), addressID)

	var address model.Address
	label := fmt.Sprintf("address %d", addressID)
	if err := wp.db.WithContext(ctx).
		Select("name").
		First(&address, addressID).Error; err != nil {
		log.Printf("Error fetching address %d: %v", addressID, err)
	} else if address.Name != "" {
		label = address.Name
	}

	now := wp.now()
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)

	var fractionNames []string
	err = wp.db.WithContext(ctx).
		Model(&model.Fraction{}).
		Joins("JOIN collection_days cd ON cd.address_id = fractions.address_id AND cd.fraction_id = fractions.logo_id").
		Where("fractions.address_id = ? AND cd.date = ?", addressID, tomorrow).
		Pluck("fractions.name", &fractionNames).Error
	if err != nil {
		log.Printf("Error fetching tomorrow's fractions for address %d: %v", addressID, err)
	}

	message := fmt.Sprintf("%s: waste collection tomorrow", label)
	if len(fractionNames) > 0 {
		message = fmt.Sprintf("%s: %s collected tomorrow", label, strings.Join(fractionNames, ", "))
	}

	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	// Manually construct the webpush.Subscription object
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == 410 {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
