package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dyluth/teamboard/pkg/store"
	"github.com/redis/go-redis/v9"
)

const publishTimeout = 2 * time.Second

// RedisSink publishes every shown notification on the instance's
// notifications channel. Dismiss is not published; subscribers keep their
// own single slot and replace it on each message.
type RedisSink struct {
	rdb     *redis.Client
	channel string
}

// NewRedisSink creates a sink publishing to teamboard:{instance}:notifications.
func NewRedisSink(rdb *redis.Client, instanceName string) *RedisSink {
	return &RedisSink{
		rdb:     rdb,
		channel: store.NotificationsChannel(instanceName),
	}
}

func (s *RedisSink) Show(n Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := s.Publish(ctx, n); err != nil {
		log.Printf("[Notify] %v", err)
	}
}

func (s *RedisSink) Dismiss() {}

// Publish sends one notification as JSON.
func (s *RedisSink) Publish(ctx context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := s.rdb.Publish(ctx, s.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// Subscription represents an active Pub/Sub subscription to notifications.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan Notification
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of notifications.
// The channel will be closed when the subscription is closed or the context is cancelled.
func (s *Subscription) Events() <-chan Notification {
	return s.events
}

// Errors returns the channel of subscription errors.
// Malformed messages are reported here and skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Implements io.Closer.
// Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// Subscribe listens for notifications published for instanceName.
// It returns once redis has confirmed the subscription, so nothing published
// after Subscribe returns is missed. Delivery is at-most-once.
func Subscribe(ctx context.Context, rdb *redis.Client, instanceName string) (*Subscription, error) {
	channel := store.NotificationsChannel(instanceName)
	pubsub := rdb.Subscribe(ctx, channel)

	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	eventsChan := make(chan Notification, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var n Notification
				err := json.Unmarshal([]byte(msg.Payload), &n)
				if err == nil {
					err = n.Severity.Validate()
				}
				if err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to decode notification: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- n:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}
