package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"

	"contest-api/internal/observability/metrics"
)

func testConfig() Config {
	return Config{
		Name:             "test-circuit",
		MaxRequests:      1,
		Interval:         10 * time.Second,
		Timeout:          50 * time.Millisecond,
		FailureThreshold: 0.6,
		MinRequests:      3,
	}
}

func TestNew(t *testing.T) {
	cb := New(testConfig())

	if cb == nil {
		t.Fatal("expected circuit breaker, got nil")
	}
	if cb.Name() != "test-circuit" {
		t.Errorf("expected name='test-circuit', got %q", cb.Name())
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("expected initial state=Closed, got %v", cb.State())
	}
}

func TestDo_Success(t *testing.T) {
	cb := New(testConfig())

	got, err := Do(cb, func() (string, error) { return "ok", nil })
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "ok" {
		t.Errorf("expected result='ok', got %q", got)
	}
}

func TestDo_NilPointerResult(t *testing.T) {
	cb := New(testConfig())

	got, err := Do(cb, func() (*int, error) { return nil, nil })
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", got, err)
	}
}

func TestCircuitBreaker_TripsOpen(t *testing.T) {
	cb := New(testConfig())
	testErr := errors.New("connection refused")

	for i := 0; i < 3; i++ {
		_, err := Do(cb, func() (int, error) { return 0, testErr })
		if !errors.Is(err, testErr) {
			t.Fatalf("call %d: expected %v, got %v", i, testErr, err)
		}
	}

	if !cb.IsOpen() {
		t.Fatalf("expected state=Open after failures, got %v", cb.State())
	}

	called := false
	_, err := Do(cb, func() (int, error) {
		called = true
		return 1, nil
	})
	if !IsRejected(err) {
		t.Errorf("expected breaker rejection, got %v", err)
	}
	if called {
		t.Error("function must not run while the circuit is open")
	}
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	cb := New(testConfig())
	for i := 0; i < 3; i++ {
		_, _ = Do(cb, func() (int, error) { return 0, errors.New("boom") })
	}
	if !cb.IsOpen() {
		t.Fatal("expected open circuit")
	}

	time.Sleep(80 * time.Millisecond)
	if cb.State() != gobreaker.StateHalfOpen {
		t.Fatalf("expected half-open after timeout, got %v", cb.State())
	}

	if _, err := Do(cb, func() (int, error) { return 1, nil }); err != nil {
		t.Fatalf("probe request failed: %v", err)
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("expected closed after successful probe, got %v", cb.State())
	}
}

func TestCircuitBreaker_IsSuccessfulIgnoresBusinessErrors(t *testing.T) {
	notFound := errors.New("not found")
	cfg := testConfig()
	cfg.IsSuccessful = func(err error) bool { return errors.Is(err, notFound) }
	cb := New(cfg)

	for i := 0; i < 10; i++ {
		_, err := Do(cb, func() (int, error) { return 0, notFound })
		if !errors.Is(err, notFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("business errors must not trip the breaker, got %v", cb.State())
	}
}

func TestRun_PassesErrorThrough(t *testing.T) {
	cb := New(testConfig())
	sendErr := errors.New("webhook returned 500")

	if err := cb.Run(func() error { return nil }); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if err := cb.Run(func() error { return sendErr }); !errors.Is(err, sendErr) {
		t.Fatalf("expected %v, got %v", sendErr, err)
	}
	if IsRejected(sendErr) {
		t.Error("a call error must not look like a rejection")
	}
}

func TestNew_PublishesState(t *testing.T) {
	cfg := testConfig()
	cfg.Name = "state-gauge"
	cb := New(cfg)

	gauge := metrics.CircuitBreakerState.WithLabelValues("state-gauge")
	if got := testutil.ToFloat64(gauge); got != 0 {
		t.Fatalf("expected closed (0), got %v", got)
	}
	for i := 0; i < 3; i++ {
		_ = cb.Run(func() error { return errors.New("boom") })
	}
	if got := testutil.ToFloat64(gauge); got != 2 {
		t.Errorf("expected open (2), got %v", got)
	}
}

func TestCircuitBreaker_MinRequests(t *testing.T) {
	cfg := testConfig()
	cfg.MinRequests = 5
	cb := New(cfg)

	for i := 0; i < 4; i++ {
		_, _ = Do(cb, func() (int, error) { return 0, errors.New("boom") })
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("expected closed below MinRequests, got %v", cb.State())
	}
}

func TestConfigs(t *testing.T) {
	tests := []struct {
		cfg  Config
		name string
	}{
		{cfg: NotificationConfig("slack"), name: "notify-slack"},
		{cfg: PaymentGatewayConfig(), name: "payment-gateway"},
		{cfg: DBConfig(), name: "database"},
		{cfg: ObjectStorageConfig(), name: "object-storage"},
	}
	for _, tt := range tests {
		if tt.cfg.Name != tt.name {
			t.Errorf("expected name=%q, got %q", tt.name, tt.cfg.Name)
		}
		if tt.cfg.MinRequests == 0 || tt.cfg.MaxRequests == 0 {
			t.Errorf("%s: request thresholds must be set", tt.name)
		}
		if tt.cfg.FailureThreshold <= 0 || tt.cfg.FailureThreshold > 1 {
			t.Errorf("%s: failure threshold out of range: %v", tt.name, tt.cfg.FailureThreshold)
		}
	}
}
