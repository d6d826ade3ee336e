package monitoring

import (
	"context"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/redis/go-redis/v9"

	"nikotrade/backend/internal/storage"
)

// HealthChecker exposes liveness and readiness probes.
type HealthChecker struct {
	handler healthcheck.Handler
}

// NewHealthChecker wires the probes. The store check gates readiness only;
// a degraded store should drain traffic, not restart the process.
func NewHealthChecker(store storage.Store, redisClient *redis.Client) *HealthChecker {
	handler := healthcheck.NewHandler()

	handler.AddLivenessCheck("goroutines", healthcheck.GoroutineCountCheck(500))

	handler.AddReadinessCheck("store", func() error {
		return store.Health()
	})

	if redisClient != nil {
		handler.AddReadinessCheck("redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Ping(ctx).Err()
		})
	}

	return &HealthChecker{handler: handler}
}

// LiveEndpoint serves the liveness probe.
func (hc *HealthChecker) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	hc.handler.LiveEndpoint(w, r)
}

// ReadyEndpoint serves the readiness probe.
func (hc *HealthChecker) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	hc.handler.ReadyEndpoint(w, r)
}
