// Package api exposes the read-only quote interface over HTTP. Quotes
// never change state, so every endpoint here is callable by anyone;
// execution stays in-process behind the routers.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	feesdomain "github.com/dataxfi/datax-router/business/fees/domain"
	registrydomain "github.com/dataxfi/datax-router/business/registry/domain"
	stakeapp "github.com/dataxfi/datax-router/business/stake/app"
	tradeapp "github.com/dataxfi/datax-router/business/trade/app"
	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
	"github.com/dataxfi/datax-router/internal/config"
	"github.com/dataxfi/datax-router/internal/logger"
)

// Server serves the quote API.
type Server struct {
	engine *gin.Engine
	http   *http.Server

	stakeCalc *stakeapp.Calc
	tradeCalc *tradeapp.Calc
	refLedger *feesdomain.Ledger
	storage   *registrydomain.Storage
	assets    *asset.Registry

	serviceName string
	mode        string
	chainID     uint64

	log logger.LoggerInterface
}

// NewServer creates the API server and registers its routes.
func NewServer(
	cfg *config.Config,
	stakeCalc *stakeapp.Calc,
	tradeCalc *tradeapp.Calc,
	refLedger *feesdomain.Ledger,
	storage *registrydomain.Storage,
	assets *asset.Registry,
	log logger.LoggerInterface,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &Server{
		engine:      engine,
		stakeCalc:   stakeCalc,
		tradeCalc:   tradeCalc,
		refLedger:   refLedger,
		storage:     storage,
		assets:      assets,
		serviceName: cfg.App.Name,
		mode:        cfg.Routing.Mode,
		chainID:     cfg.Ethereum.ChainID,
		log:         log,
	}

	engine.Use(gin.Recovery(), s.requestLogger())

	v1 := engine.Group("/v1")
	{
		v1.POST("/quote/stake/pool-out", s.handleStakePoolOut)
		v1.POST("/quote/stake/token-out", s.handleStakeTokenOut)

		v1.POST("/quote/trade/dt-out", s.handleTradeDtOut)
		v1.POST("/quote/trade/token-in", s.handleTradeTokenIn)
		v1.POST("/quote/trade/token-out", s.handleTradeTokenOut)
		v1.POST("/quote/trade/dt-in", s.handleTradeDtIn)

		v1.GET("/referrals/:referrer/:token", s.handleReferralBalance)
		v1.GET("/version", s.handleVersion)
	}

	s.http = &http.Server{
		Addr:         cfg.API.ListenAddr,
		Handler:      engine,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}

// respondErr maps application errors onto their HTTP status. Unknown
// errors stay opaque.
func (s *Server) respondErr(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if e, ok := err.(*apperror.AppError); ok {
		appErr = e
	} else {
		appErr = apperror.Wrap(err, apperror.CodeInternalError, "unhandled error")
	}

	s.log.Warn(c.Request.Context(), "request failed",
		"path", c.Request.URL.Path, "code", string(appErr.Code))
	c.JSON(appErr.StatusCode, appErr.ToResponse())
}
