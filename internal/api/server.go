package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/Tanishq1604/HD-wallet/internal/metrics"
	"github.com/Tanishq1604/HD-wallet/internal/sendflow"
	"github.com/Tanishq1604/HD-wallet/internal/wallet"
	"github.com/Tanishq1604/HD-wallet/internal/walletstate"
)

// Server exposes the send flow over HTTP. It stands in for the UI layer:
// every route maps onto one of the wallet's core operations.
type Server struct {
	echo      *echo.Echo
	port      string
	registry  *wallet.Registry
	store     *walletstate.Store
	validator *sendflow.Validator
	maxCalc   *sendflow.MaxAmountCalculator
	orch      *sendflow.Orchestrator
	fees      *sendflow.FeeWatcher
	logger    *logrus.Logger
}

func NewServer(
	port string,
	registry *wallet.Registry,
	store *walletstate.Store,
	validator *sendflow.Validator,
	maxCalc *sendflow.MaxAmountCalculator,
	orch *sendflow.Orchestrator,
	fees *sendflow.FeeWatcher,
	logger *logrus.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(metrics.HTTPMiddleware())

	s := &Server{
		echo:      e,
		port:      port,
		registry:  registry,
		store:     store,
		validator: validator,
		maxCalc:   maxCalc,
		orch:      orch,
		fees:      fees,
		logger:    logger,
	}

	e.GET("/healthz", s.health)
	e.POST("/v1/send/validate", s.validateSend)
	e.POST("/v1/send/max", s.maxAmount)
	e.GET("/v1/send/fee-watch", s.watchFees)
	e.POST("/v1/send", s.send)
	e.GET("/v1/tx/:chain/:hash", s.transaction)
	e.GET("/v1/balance/:chain/:address", s.balance)
	e.GET("/v1/address/identify/:address", s.identify)

	return s
}

// Start serves until the context is cancelled, then shuts down in-flight
// requests gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(":" + s.port)
	}()
	s.logger.Infof("api server listening on :%s", s.port)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}

// Handler exposes the routing tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
