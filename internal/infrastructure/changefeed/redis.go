package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// DefaultChannel is the Pub/Sub channel shared by all topics and tenants
	DefaultChannel = "tms:changes"

	defaultCloseTimeout = 5 * time.Second
)

// RedisFeed fans notices out across instances through Redis Pub/Sub.
// Published notices reach local subscribers only after the round trip, so
// every instance sees the same order.
type RedisFeed struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	channel    string
	local      *LocalFeed
	logger     *zap.Logger
	cancelFn   context.CancelFunc
	doneCh     chan struct{}
	doneOnce   sync.Once
	mu         sync.Mutex
	isRunning  bool
}

// RedisFeedOption is a functional option for configuring the feed
type RedisFeedOption func(*RedisFeed)

// WithChannel sets the Pub/Sub channel name
func WithChannel(channel string) RedisFeedOption {
	return func(f *RedisFeed) {
		f.channel = channel
	}
}

// WithLogger sets the logger for the feed
func WithLogger(logger *zap.Logger) RedisFeedOption {
	return func(f *RedisFeed) {
		f.logger = logger
	}
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisFeed connects to Redis and creates a feed that owns the client
func NewRedisFeed(cfg RedisConfig, opts ...RedisFeedOption) (*RedisFeed, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	f := NewRedisFeedWithClient(client, opts...)
	f.ownsClient = true
	return f, nil
}

// NewRedisFeedWithClient creates a feed on an existing Redis client.
// The caller retains ownership of the client.
func NewRedisFeedWithClient(client *redis.Client, opts ...RedisFeedOption) *RedisFeed {
	f := &RedisFeed{
		client:  client,
		channel: DefaultChannel,
		logger:  zap.NewNop(),
		doneCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.local = NewLocalFeed(f.logger)
	return f
}

// Publish sends the notice to every instance listening on the channel
func (f *RedisFeed) Publish(ctx context.Context, n Notice) error {
	if n.Timestamp == 0 {
		n.Timestamp = time.Now().UnixNano()
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal change notice: %w", err)
	}

	if err := f.client.Publish(ctx, f.channel, data).Err(); err != nil {
		f.logger.Error("Failed to publish change notice",
			zap.String("channel", f.channel),
			zap.String("topic", n.Topic),
			zap.Error(err))
		return fmt.Errorf("failed to publish change notice: %w", err)
	}
	return nil
}

// Subscribe registers fn for notices on topic within the tenant. Delivery
// starts once Run is listening.
func (f *RedisFeed) Subscribe(topic string, tenantID uuid.UUID, fn func(Notice)) func() {
	return f.local.Subscribe(topic, tenantID, fn)
}

// Run listens on the channel and dispatches notices until ctx is cancelled
// or Close is called. It blocks; call it in a goroutine.
func (f *RedisFeed) Run(ctx context.Context) error {
	f.mu.Lock()
	if f.isRunning {
		f.mu.Unlock()
		return fmt.Errorf("subscription already running")
	}
	f.isRunning = true
	subCtx, cancel := context.WithCancel(ctx)
	f.cancelFn = cancel
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.isRunning = false
		f.mu.Unlock()
		f.markDone()
	}()

	pubsub := f.client.Subscribe(subCtx, f.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(subCtx); err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}

	f.logger.Info("Subscribed to change feed channel",
		zap.String("channel", f.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-subCtx.Done():
			f.logger.Info("Change feed subscription stopped")
			return subCtx.Err()
		case msg, ok := <-ch:
			if !ok {
				f.logger.Warn("Change feed channel closed")
				return nil
			}

			var n Notice
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				f.logger.Error("Failed to unmarshal change notice",
					zap.String("payload", msg.Payload),
					zap.Error(err))
				continue
			}
			f.local.dispatch(n)
		}
	}
}

func (f *RedisFeed) markDone() {
	f.doneOnce.Do(func() {
		close(f.doneCh)
	})
}

// Close stops the subscription and releases the client if the feed owns it
func (f *RedisFeed) Close() error {
	f.mu.Lock()
	cancelFn := f.cancelFn
	f.mu.Unlock()

	if cancelFn != nil {
		cancelFn()
		select {
		case <-f.doneCh:
		case <-time.After(defaultCloseTimeout):
			f.logger.Warn("Timeout waiting for change feed subscription to stop")
		}
	}

	if f.ownsClient {
		return f.client.Close()
	}
	return nil
}

var _ Feed = (*RedisFeed)(nil)
