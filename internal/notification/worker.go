package notification

import (
	"context"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"studio-availability-backend/internal/model"
	"studio-availability-backend/internal/store"
)

// Alert is one push message bound for one subscriber.
type Alert struct {
	Subscription model.WatchSubscription
	Message      string
}

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real Sender backed by the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers delivering watch alerts.
type WorkerPool struct {
	size    int
	jobs    chan Alert
	store   store.Store
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, st store.Store, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Alert, size),
		store:   st,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Notification worker %d started", id)
	for {
		select {
		case alert := <-wp.jobs:
			wp.deliver(ctx, alert)
		case <-ctx.Done():
			log.Printf("Notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch sends an alert to the worker pool.
func (wp *WorkerPool) Dispatch(alert Alert) {
	wp.jobs <- alert
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Alert {
	return wp.jobs
}

func (wp *WorkerPool) deliver(ctx context.Context, alert Alert) {
	sub := &webpush.Subscription{
		Endpoint: alert.Subscription.Endpoint,
		Keys: webpush.Keys{
			P256dh: alert.Subscription.P256DH,
			Auth:   alert.Subscription.Auth,
		},
	}

	resp, err := wp.sender.Send([]byte(alert.Message), sub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", alert.Subscription.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// The push service reports 410 for dead subscriptions.
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription %s is expired. Deleting.", alert.Subscription.Endpoint)
		if err := wp.store.DeleteSubscription(ctx, alert.Subscription.Endpoint); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", alert.Subscription.Endpoint, err)
		}
	}
}
