// Package cli implements the wayforpay command line tool.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kevin07696/wayforpay/internal/adapters/secrets"
	"github.com/kevin07696/wayforpay/internal/config"
	pkghttp "github.com/kevin07696/wayforpay/pkg/http"
	"github.com/kevin07696/wayforpay/pkg/security"
	"github.com/kevin07696/wayforpay/pkg/wayforpay"
)

// app carries the state shared by all commands once PersistentPreRunE ran
type app struct {
	configPath string
	cfg        *config.Config
	logger     *security.ZapLoggerAdapter
	client     *wayforpay.Client
}

// NewRootCommand builds the wayforpay command tree
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "wayforpay",
		Short: "Sign, send and render WayForPay payment requests",
		Long: `wayforpay signs merchant requests with the account's secret key, sends
host-to-host API calls, renders checkout links, forms and widget buttons, and
serves the service URL that receives payment notifications.

Configuration is read from an optional YAML file, a .env file in the working
directory and the environment, in increasing order of precedence.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file path")

	root.AddCommand(
		a.signCommand(),
		a.purchaseURLCommand(),
		a.formCommand(),
		a.widgetCommand(),
		a.checkStatusCommand(),
		a.refundCommand(),
		a.serveCallbacksCommand(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load(a.configPath, ".env")
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := security.NewZapLoggerFromConfig(cfg.Logger.Level, cfg.Logger.Development)
	if err != nil {
		return err
	}
	a.logger = logger

	creds, err := secrets.LoadCredentials(ctx, cfg, logger.Zap())
	if err != nil {
		return err
	}

	client, err := wayforpay.NewClient(creds.Account, creds.Secret,
		wayforpay.WithLogger(logger),
		wayforpay.WithHTTPClient(pkghttp.NewHTTPClient(pkghttp.GatewayClientConfig(), cfg.Gateway.Timeout)),
		wayforpay.WithAPIURL(cfg.Gateway.APIURL),
		wayforpay.WithPurchaseURL(cfg.Gateway.PurchaseURL),
		wayforpay.WithRateLimit(cfg.Gateway.RateLimit, cfg.Gateway.RateBurst),
	)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	a.client = client
	return nil
}
