package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matrixise/geb-ledger/internal/entity"
)

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RPC is the part of the blockchain client the checker queries.
type RPC interface {
	HeadBlock(ctx context.Context) (uint64, error)
	GetEndpointsHealth() map[string]bool
}

// Progress exposes the ingestion cursor.
type Progress interface {
	Cursor(ctx context.Context) (*entity.Cursor, error)
}

// Checker performs health checks on application dependencies
type Checker struct {
	store          Pinger
	rpc            RPC
	progress       Progress
	lastRunTime    time.Time
	lastRunSuccess bool
	interval       time.Duration
	mu             sync.RWMutex
}

// NewChecker creates a new health checker. A zero interval disables the
// daemon check.
func NewChecker(store Pinger, rpc RPC, progress Progress, interval time.Duration) *Checker {
	return &Checker{
		store:    store,
		rpc:      rpc,
		progress: progress,
		interval: interval,
	}
}

// UpdateLastRun updates the timestamp and status of the last execution
func (c *Checker) UpdateLastRun(success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastRunTime = time.Now()
	c.lastRunSuccess = success
}

// CheckStatus represents the health status of a component
type CheckStatus string

const (
	StatusOK       CheckStatus = "ok"
	StatusDegraded CheckStatus = "degraded"
	StatusError    CheckStatus = "error"
)

// HealthResponse is the JSON response structure
type HealthResponse struct {
	Status    CheckStatus            `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckDetail `json:"checks"`
	Indexer   *IndexerStatus         `json:"indexer,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
}

// CheckDetail contains details about a specific health check
type CheckDetail struct {
	Status  CheckStatus `json:"status"`
	Message string      `json:"message,omitempty"`
}

// IndexerStatus reports how far the ledger is behind the chain head.
type IndexerStatus struct {
	HeadBlock uint64 `json:"head_block"`
	NextBlock uint64 `json:"next_block"`
	Lag       uint64 `json:"lag"`
}

var startTime = time.Now()

// Check performs all health checks and returns the aggregated status
func (c *Checker) Check(ctx context.Context) HealthResponse {
	checks := make(map[string]CheckDetail)
	overallStatus := StatusOK
	degrade := func(s CheckStatus) {
		switch {
		case s == StatusError:
			overallStatus = StatusError
		case s == StatusDegraded && overallStatus == StatusOK:
			overallStatus = StatusDegraded
		}
	}

	dbCheck := c.checkDatabase(ctx)
	checks["database"] = dbCheck
	degrade(dbCheck.Status)

	rpcCheck, head := c.checkRPC(ctx)
	checks["rpc_endpoints"] = rpcCheck
	degrade(rpcCheck.Status)

	indexerCheck, indexer := c.checkIndexer(ctx, head)
	checks["indexer"] = indexerCheck
	degrade(indexerCheck.Status)

	if c.interval > 0 {
		daemonCheck := c.checkDaemon()
		checks["daemon"] = daemonCheck
		if daemonCheck.Status != StatusOK && overallStatus == StatusOK {
			overallStatus = StatusDegraded
		}
	}

	return HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Checks:    checks,
		Indexer:   indexer,
		Uptime:    time.Since(startTime).Round(time.Second).String(),
	}
}

// checkDatabase verifies store connectivity
func (c *Checker) checkDatabase(ctx context.Context) CheckDetail {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := c.store.Ping(ctx); err != nil {
		slog.Error("Health check: database ping failed", "error", err)
		return CheckDetail{
			Status:  StatusError,
			Message: "database unreachable: " + err.Error(),
		}
	}

	return CheckDetail{
		Status:  StatusOK,
		Message: "database connection healthy",
	}
}

// checkRPC verifies that at least one RPC endpoint answers and returns the
// head block it reported.
func (c *Checker) checkRPC(ctx context.Context) (CheckDetail, uint64) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	head, err := c.rpc.HeadBlock(ctx)
	if err != nil {
		slog.Error("Health check: RPC endpoint failed", "error", err)
		return CheckDetail{
			Status:  StatusError,
			Message: "RPC endpoint not responding: " + err.Error(),
		}, 0
	}

	healthStatus := c.rpc.GetEndpointsHealth()
	healthyCount := 0
	for _, healthy := range healthStatus {
		if healthy {
			healthyCount++
		}
	}

	if healthyCount == len(healthStatus) {
		return CheckDetail{
			Status:  StatusOK,
			Message: "all RPC endpoints healthy",
		}, head
	}

	return CheckDetail{
		Status:  StatusDegraded,
		Message: fmt.Sprintf("%d/%d RPC endpoints healthy", healthyCount, len(healthStatus)),
	}, head
}

// checkIndexer reports the cursor position against the chain head.
func (c *Checker) checkIndexer(ctx context.Context, head uint64) (CheckDetail, *IndexerStatus) {
	cursor, err := c.progress.Cursor(ctx)
	if err != nil {
		slog.Error("Health check: cursor unavailable", "error", err)
		return CheckDetail{
			Status:  StatusError,
			Message: "cursor unavailable: " + err.Error(),
		}, nil
	}

	status := &IndexerStatus{HeadBlock: head, NextBlock: cursor.NextBlock}
	if head >= cursor.NextBlock {
		status.Lag = head - cursor.NextBlock + 1
	}

	return CheckDetail{
		Status:  StatusOK,
		Message: fmt.Sprintf("next block %d, %d blocks behind head", cursor.NextBlock, status.Lag),
	}, status
}

// checkDaemon verifies the daemon is executing at expected intervals
func (c *Checker) checkDaemon() CheckDetail {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.lastRunTime.IsZero() {
		return CheckDetail{
			Status:  StatusOK,
			Message: "daemon not yet executed (startup)",
		}
	}

	if !c.lastRunSuccess {
		return CheckDetail{
			Status:  StatusDegraded,
			Message: "last execution failed",
		}
	}

	// Allow a 2x interval grace period
	timeSinceLastRun := time.Since(c.lastRunTime)
	if timeSinceLastRun > c.interval*2 {
		return CheckDetail{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("no execution in %s (expected every %s)", timeSinceLastRun.Round(time.Second), c.interval),
		}
	}

	return CheckDetail{
		Status:  StatusOK,
		Message: fmt.Sprintf("last executed %s ago", timeSinceLastRun.Round(time.Second)),
	}
}

// Handler returns an http.HandlerFunc for the health endpoint
func (c *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := c.Check(r.Context())

		statusCode := http.StatusOK
		if status.Status == StatusError {
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)

		if err := json.NewEncoder(w).Encode(status); err != nil {
			slog.Error("Failed to encode health response", "error", err)
		}
	}
}

// Router serves /health and the Prometheus /metrics endpoint.
func (c *Checker) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", c.Handler())
	r.Handle("/metrics", promhttp.Handler())

	return r
}
