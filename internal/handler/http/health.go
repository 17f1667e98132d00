// Package http provides the process-level HTTP handlers and middleware:
// health and probe endpoints, Prometheus metrics, request logging, panic
// recovery and body limits. Resource routes live in the sub-packages.
package http

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"contest-api/internal/handler/http/respond"
	"contest-api/internal/observability/metrics"
)

const healthCheckTimeout = 5 * time.Second

// Check status values.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string                 `json:"status"`    // "healthy" or "unhealthy"
	Timestamp string                 `json:"timestamp"` // ISO 8601 format
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus represents the status of a single health check.
type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// DatabaseChecker is the part of the connection manager the health check uses.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
	Stats() (sql.DBStats, bool)
}

// GatewayChecker reports whether the payment client was initialised.
type GatewayChecker interface {
	Ready() bool
}

// StorageChecker verifies the configured file store.
type StorageChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// HealthHandler reports database, payment gateway and file storage status.
// The checks run concurrently under a shared 5 second bound. The response is
// 503 when the database is unhealthy or the gateway is not initialised; a
// file storage failure is reported but does not fail the check, because
// text and video entries do not touch it.
type HealthHandler struct {
	DB      DatabaseChecker
	Gateway GatewayChecker
	Files   StorageChecker
	Version string
	Now     func() time.Time
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	var (
		mu     sync.Mutex
		checks = make(map[string]CheckStatus, 3)
	)
	set := func(name string, s CheckStatus) {
		mu.Lock()
		checks[name] = s
		mu.Unlock()
	}

	// チェック関数はエラーを返さないので Wait は常に nil
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { set("database", h.checkDatabase(gctx)); return nil })
	g.Go(func() error { set("payment_gateway", h.checkGateway()); return nil })
	g.Go(func() error { set("file_storage", h.checkStorage(gctx)); return nil })
	_ = g.Wait()

	status := StatusHealthy
	code := http.StatusOK
	if checks["database"].Status == StatusUnhealthy || checks["payment_gateway"].Status == StatusUnhealthy {
		status = StatusUnhealthy
		code = http.StatusServiceUnavailable
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	})
}

// checkDatabase pings the database and reports connection pool statistics.
func (h *HealthHandler) checkDatabase(ctx context.Context) CheckStatus {
	if h.DB == nil {
		return CheckStatus{Status: StatusUnhealthy, Message: "not configured"}
	}
	if err := h.DB.Ping(ctx); err != nil {
		slog.Default().Warn("health: database ping failed", slog.String("error", respond.SanitizeError(err)))
		return CheckStatus{Status: StatusUnhealthy, Message: "database unreachable"}
	}

	stats, ok := h.DB.Stats()
	if !ok {
		return CheckStatus{Status: StatusHealthy}
	}
	metrics.UpdateDBConnections(stats.InUse, stats.Idle)

	details := map[string]any{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}

	// MaxOpenConnections が 0 (無制限) のときは使用率を出さない
	if stats.MaxOpenConnections == 0 {
		return CheckStatus{Status: StatusHealthy, Details: details}
	}

	utilization := float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
	details["utilization_percent"] = utilization
	if utilization >= 80.0 {
		return CheckStatus{
			Status:  StatusDegraded,
			Message: "connection pool utilization above 80%",
			Details: details,
		}
	}
	return CheckStatus{Status: StatusHealthy, Details: details}
}

func (h *HealthHandler) checkGateway() CheckStatus {
	if h.Gateway == nil || !h.Gateway.Ready() {
		return CheckStatus{Status: StatusUnhealthy, Message: "payment client not initialised"}
	}
	return CheckStatus{Status: StatusHealthy}
}

func (h *HealthHandler) checkStorage(ctx context.Context) CheckStatus {
	if h.Files == nil {
		return CheckStatus{Status: StatusUnhealthy, Message: "not configured"}
	}
	details := map[string]any{"backend": h.Files.Name()}
	if err := h.Files.Check(ctx); err != nil {
		slog.Default().Warn("health: file storage check failed",
			slog.String("backend", h.Files.Name()),
			slog.String("error", respond.SanitizeError(err)))
		return CheckStatus{Status: StatusDegraded, Message: "file storage unreachable", Details: details}
	}
	return CheckStatus{Status: StatusHealthy, Details: details}
}

// ReadyHandler handles readiness probe requests.
// It is ready once the database answers a ping within 2 seconds.
type ReadyHandler struct {
	DB DatabaseChecker
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.DB == nil {
		http.Error(w, "database not configured", http.StatusServiceUnavailable)
		return
	}
	if err := h.DB.Ping(ctx); err != nil {
		http.Error(w, "database not ready", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// LiveHandler handles liveness probe requests.
// It always returns 200 OK while the process can respond.
type LiveHandler struct{}

func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("alive"))
}
