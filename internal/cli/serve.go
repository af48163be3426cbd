package cli

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kevin07696/wayforpay/internal/handlers/callback"
	"github.com/kevin07696/wayforpay/pkg/middleware"
	"github.com/kevin07696/wayforpay/pkg/observability"
	"github.com/kevin07696/wayforpay/pkg/shutdown"
	"github.com/kevin07696/wayforpay/pkg/wayforpay"
)

func (a *app) serveCallbacksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve-callbacks",
		Short: "Serve the service URL and print every verified notification",
		Long: `serve-callbacks listens on CALLBACK_BIND_IP:CALLBACK_PORT and accepts
notifications posted to CALLBACK_PATH. Each verified notification is written to
stdout as one JSON line and answered with a signed ACCEPT. Prometheus metrics
are exposed on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serveCallbacks(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func (a *app) serveCallbacks(ctx context.Context, out io.Writer) error {
	logger := a.logger.Zap()
	cfg := a.cfg.Callback

	server, limiter := a.newCallbackServer(out, logger)

	manager := shutdown.NewManager(logger, cfg.ShutdownTimeout)
	manager.RegisterNoErr("rate-limiter", limiter.Shutdown)
	manager.RegisterHTTPServer("callback-server", server)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Callback server listening",
			zap.String("address", server.Addr),
			zap.String("path", cfg.Path),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			cancel()
		}
	}()

	shutdownErr := manager.WaitForShutdown(ctx)
	select {
	case err := <-serveErr:
		return errors.Join(err, shutdownErr)
	default:
		return shutdownErr
	}
}

func (a *app) newCallbackServer(out io.Writer, logger *zap.Logger) (*http.Server, *middleware.RateLimiter) {
	cfg := a.cfg.Callback

	router := httprouter.New()
	handler := callback.NewCallbackHandler(a.client, &printProcessor{out: out}, logger)
	handler.Register(router, cfg.Path)
	router.Handler(http.MethodGet, "/metrics", observability.Handler())
	router.HandlerFunc(http.MethodGet, "/health", observability.HealthHandler)

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, logger)

	return &http.Server{
		Addr:              cfg.Address(),
		Handler:           limiter.Middleware(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}, limiter
}

// printProcessor writes each verified notification as a JSON line
type printProcessor struct {
	mu  sync.Mutex
	out io.Writer
}

func (p *printProcessor) Process(_ context.Context, n *wayforpay.Notification) error {
	line, err := n.Fields.MarshalJSON()
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	_, err = p.out.Write(append(line, '\n'))
	return err
}
