// Package circuitbreaker guards calls to the database, the payment gateway,
// object storage and notification webhooks with github.com/sony/gobreaker.
package circuitbreaker

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"contest-api/internal/observability/metrics"
)

// Config describes when a breaker opens and how it recovers.
type Config struct {
	Name string

	// MaxRequests is how many probe calls pass while half-open.
	MaxRequests uint32

	// Interval resets the closed-state counts; 0 never resets them.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// The breaker opens once at least MinRequests calls were counted and
	// the failure ratio reaches FailureThreshold (0.6 = 60%).
	FailureThreshold float64
	MinRequests      uint32

	// IsSuccessful marks errors that say nothing about the dependency's
	// health, such as a missing row. nil counts every error.
	IsSuccessful func(err error) bool
}

// DBConfig opens after five straight failures and probes again after 30s.
func DBConfig() Config {
	return Config{
		Name:             "database",
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 1.0,
		MinRequests:      5,
	}
}

// PaymentGatewayConfig opens once 60% of at least five gateway calls fail.
func PaymentGatewayConfig() Config {
	return Config{
		Name:             "payment-gateway",
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// ObjectStorageConfig is more tolerant than the gateway; uploads are slow
// and a single slow PUT is not an outage.
func ObjectStorageConfig() Config {
	return Config{
		Name:             "object-storage",
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.7,
		MinRequests:      5,
	}
}

// NotificationConfig guards one webhook channel. It opens when five sends
// in a minute have all failed and stays open for five minutes.
func NotificationConfig(channel string) Config {
	return Config{
		Name:             "notify-" + channel,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          5 * time.Minute,
		FailureThreshold: 1.0,
		MinRequests:      5,
	}
}

// CircuitBreaker is a named gobreaker breaker.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New builds a breaker from cfg. State changes are logged and published
// as the circuit_breaker_state gauge.
func New(cfg Config) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < cfg.MinRequests {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
			metrics.SetCircuitBreakerState(name, int(to))
		},
	}
	if cfg.IsSuccessful != nil {
		settings.IsSuccessful = func(err error) bool {
			return err == nil || cfg.IsSuccessful(err)
		}
	}

	metrics.SetCircuitBreakerState(cfg.Name, int(gobreaker.StateClosed))
	return &CircuitBreaker{
		breaker: gobreaker.NewCircuitBreaker(settings),
		name:    cfg.Name,
	}
}

// Run calls fn through the breaker. While the breaker is open fn is not
// called and the error satisfies IsRejected.
func (cb *CircuitBreaker) Run(fn func() error) error {
	_, err := cb.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

// Do is Run for calls that return a value.
func Do[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	result, err := cb.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	// 拒否時は result が nil
	v, _ := result.(T)
	return v, err
}

func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.breaker.State()
}

func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// IsOpen reports whether calls are currently being rejected.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.breaker.State() == gobreaker.StateOpen
}

// IsRejected reports whether err came from the breaker itself rather than the call.
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
