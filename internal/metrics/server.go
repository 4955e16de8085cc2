package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Config for the standalone scrape endpoint.
type Config struct {
	Port    string `envconfig:"METRICS_PORT" default:"9090"`
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
}

// Server serves /metrics on its own port, away from the API listener.
type Server struct {
	http   *http.Server
	logger *logrus.Logger
}

// StartMetricsServer registers all collectors and starts the scrape
// endpoint. Returns nil when metrics are disabled.
func StartMetricsServer(cfg Config, logger *logrus.Logger) *Server {
	if !cfg.Enabled {
		logger.Info("metrics server disabled")
		return nil
	}

	RegisterMetrics(logger)

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &Server{
		http: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}

	go func() {
		logger.Infof("metrics server listening on :%s", cfg.Port)
		if err := srv.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("metrics server stopped: %v", err)
		}
	}()
	return srv
}

func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}
