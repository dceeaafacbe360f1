package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/jwalitptl/backoffice-api/pkg/messaging"
	"github.com/jwalitptl/backoffice-api/pkg/metrics"
)

// ErrUnavailable is returned while the circuit is open.
var ErrUnavailable = errors.New("event broker unavailable")

type Config struct {
	URL              string
	Channel          string
	MaxRetries       int
	PoolSize         int
	MinIdleConns     int
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// Publisher publishes domain events on a redis channel. Publishing goes
// through a circuit breaker so a dead broker fails fast.
type Publisher struct {
	client  redis.UniversalClient
	channel string
	cb      *gobreaker.CircuitBreaker[int64]
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewPublisher(cfg Config, m *metrics.Metrics, logger zerolog.Logger) (*Publisher, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if cfg.MaxRetries > 0 {
		opts.MaxRetries = cfg.MaxRetries
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return New(client, cfg, m, logger), nil
}

// New wraps an existing client.
func New(client redis.UniversalClient, cfg Config, m *metrics.Metrics, logger zerolog.Logger) *Publisher {
	if cfg.Channel == "" {
		cfg.Channel = "backoffice.events"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	p := &Publisher{
		client:  client,
		channel: cfg.Channel,
		metrics: m,
		logger:  logger.With().Str("component", "redis-publisher").Logger(),
	}
	p.cb = gobreaker.NewCircuitBreaker[int64](gobreaker.Settings{
		Name:        "redis-publisher",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			p.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return p
}

func (p *Publisher) Publish(ctx context.Context, event messaging.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = p.cb.Execute(func() (int64, error) {
		return p.client.Publish(ctx, p.channel, payload).Result()
	})
	if err != nil {
		if p.metrics != nil {
			p.metrics.EventsFailed.WithLabelValues(event.Type).Inc()
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	if p.metrics != nil {
		p.metrics.EventsPublished.WithLabelValues(event.Type).Inc()
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.client.Close()
}
