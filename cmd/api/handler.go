package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	extractionDelivery "report-intake/internal/extraction/delivery"
	extractionUsecase "report-intake/internal/extraction/usecase"
	reportUsecase "report-intake/internal/report/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// StatusProvider reports the poller lifecycle for /health
type StatusProvider interface {
	Status() reportUsecase.Status
}

type Handler struct {
	extractionHandler *extractionDelivery.ExtractionHandler
	status            StatusProvider
	jwtSecret         string
	logger            *zap.Logger
}

func NewHandler(extractor extractionUsecase.NameExtractor, status StatusProvider, jwtSecret string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		extractionHandler: extractionDelivery.NewExtractionHandler(extractor),
		status:            status,
		jwtSecret:         jwtSecret,
		logger:            logger.Named("api"),
	}
}

// Router builds the gin engine with every route mounted
func (h *Handler) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())

	SetupRoutes(r, h.extractionHandler, h.status, h.jwtSecret)
	return r
}

// Start serves on addr until ctx is canceled, then shuts down gracefully
func (h *Handler) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	h.logger.Info("server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
