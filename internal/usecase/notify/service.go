// Package notify dispatches new-entry notifications to the configured
// channels. Dispatch never blocks the submission: each channel is sent to
// from its own goroutine under a bounded worker pool, and a channel that
// keeps failing is skipped by its circuit breaker until it recovers.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"contest-api/internal/domain/entity"
	"contest-api/internal/handler/http/requestid"
	"contest-api/internal/observability/logging"
	"contest-api/internal/resilience/circuitbreaker"
)

const (
	workerPoolTimeout  = 5 * time.Second  // worker slot wait
	defaultSendTimeout = 10 * time.Second // per channel send when none is configured
)

// ErrNotificationDropped is logged when a notification is skipped because
// the worker pool stayed full or the channel's circuit was open.
var ErrNotificationDropped = errors.New("notification dropped")

// Channel is one delivery target. notifier.SlackNotifier and
// notifier.DiscordNotifier satisfy it.
type Channel interface {
	Name() string
	NotifyEntry(ctx context.Context, e *entity.Entry) error
}

// ChannelHealth is the breaker state of one channel.
type ChannelHealth struct {
	Name               string
	CircuitBreakerOpen bool
}

// Service fans new-entry notifications out to the channels.
type Service struct {
	channels []Channel
	breakers map[string]*circuitbreaker.CircuitBreaker
	pool     chan struct{}
	timeout  time.Duration
	logger   *slog.Logger

	wg             sync.WaitGroup
	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

// NewService creates a service sending to channels with at most
// maxConcurrent sends in flight. Each send, retries included, must finish
// within timeout.
func NewService(channels []Channel, maxConcurrent int, timeout time.Duration, logger *slog.Logger) *Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		channels:       channels,
		breakers:       make(map[string]*circuitbreaker.CircuitBreaker, len(channels)),
		pool:           make(chan struct{}, maxConcurrent),
		timeout:        timeout,
		logger:         logger,
		shutdownCtx:    ctx,
		shutdownCancel: cancel,
	}
	for _, ch := range channels {
		s.breakers[ch.Name()] = circuitbreaker.New(circuitbreaker.NotificationConfig(ch.Name()))
	}
	notificationChannels.Set(float64(len(channels)))
	return s
}

// Enabled reports whether any channel is configured.
func (s *Service) Enabled() bool {
	return len(s.channels) > 0
}

// NotifyEntrySubmitted sends e to every channel in the background and
// returns immediately. The request id of ctx is carried into the sends;
// cancellation of ctx is not, since the request ends before they finish.
func (s *Service) NotifyEntrySubmitted(ctx context.Context, e *entity.Entry) {
	if e == nil || len(s.channels) == 0 {
		return
	}
	reqID := requestid.FromContext(ctx)

	for _, ch := range s.channels {
		s.wg.Add(1)
		go s.send(reqID, ch, e)
	}
}

func (s *Service) send(reqID string, ch Channel, e *entity.Entry) {
	defer s.wg.Done()
	logger := s.logger.With(
		slog.String("request_id", reqID),
		slog.String("channel", ch.Name()),
		slog.String("entry_id", e.ID))

	notificationsInFlight.Inc()
	defer notificationsInFlight.Dec()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in notification channel",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	// ワーカー枠が空かなければ捨てる
	select {
	case s.pool <- struct{}{}:
		defer func() { <-s.pool }()
	case <-time.After(workerPoolTimeout):
		logger.Warn("notification dropped: worker pool full", slog.Any("error", ErrNotificationDropped))
		observe(ch.Name(), outcomePoolFull, 0)
		return
	case <-s.shutdownCtx.Done():
		observe(ch.Name(), outcomeShutdown, 0)
		return
	}

	ctx, cancel := context.WithTimeout(s.shutdownCtx, s.timeout)
	defer cancel()
	ctx = requestid.WithRequestID(ctx, reqID)
	ctx = logging.WithLogger(ctx, logger)

	start := time.Now()
	err := s.breakers[ch.Name()].Run(func() error {
		return ch.NotifyEntry(ctx, e)
	})
	duration := time.Since(start)

	switch {
	case err == nil:
		observe(ch.Name(), outcomeSent, duration)
	case circuitbreaker.IsRejected(err):
		logger.Warn("notification dropped: circuit open", slog.Any("error", ErrNotificationDropped))
		observe(ch.Name(), outcomeCircuitOpen, 0)
	default:
		observe(ch.Name(), outcomeFailed, duration)
		logger.Warn("channel notification failed",
			slog.Duration("send_duration", duration),
			slog.Any("error", err))
	}
}

// Health returns the breaker state of every channel.
func (s *Service) Health() []ChannelHealth {
	out := make([]ChannelHealth, 0, len(s.channels))
	for _, ch := range s.channels {
		out = append(out, ChannelHealth{
			Name:               ch.Name(),
			CircuitBreakerOpen: s.breakers[ch.Name()].IsOpen(),
		})
	}
	return out
}

// Shutdown cancels pending sends and waits for in-flight ones until ctx expires.
func (s *Service) Shutdown(ctx context.Context) error {
	s.shutdownCancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("notification service shutdown complete")
		return nil
	case <-ctx.Done():
		s.logger.Warn("notification service shutdown timeout")
		return ctx.Err()
	}
}
