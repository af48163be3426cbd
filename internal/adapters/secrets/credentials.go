package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kevin07696/wayforpay/internal/adapters/ports"
	"github.com/kevin07696/wayforpay/internal/config"
)

// Credentials are the merchant account and secret key a client signs with
type Credentials struct {
	Account string
	Secret  string
}

// storedCredentials is the JSON layout accepted for a merchant secret
type storedCredentials struct {
	Account string `json:"merchantAccount"`
	Secret  string `json:"merchantSecret"`
}

// ResolveCredentials reads the merchant secret stored at path. The stored
// value is either the bare secret key or a JSON object with merchantSecret
// and an optional merchantAccount that overrides account.
func ResolveCredentials(ctx context.Context, manager ports.SecretManagerAdapter, path, account string) (Credentials, error) {
	secret, err := manager.GetSecret(ctx, path)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to resolve merchant credentials: %w", err)
	}

	creds := Credentials{Account: account, Secret: strings.TrimSpace(secret.Value)}

	var stored storedCredentials
	if err := json.Unmarshal([]byte(secret.Value), &stored); err == nil {
		if stored.Secret == "" {
			return Credentials{}, fmt.Errorf("secret %s has no merchantSecret", path)
		}
		creds.Secret = stored.Secret
		if stored.Account != "" {
			creds.Account = stored.Account
		}
	}

	if creds.Account == "" {
		return Credentials{}, fmt.Errorf("merchant account is not configured")
	}
	if creds.Secret == "" {
		return Credentials{}, fmt.Errorf("secret %s is empty", path)
	}
	return creds, nil
}

// NewSecretManager builds the adapter for the configured backend. The env
// backend has no adapter and returns nil.
func NewSecretManager(ctx context.Context, cfg config.SecretsConfig, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	switch cfg.Backend {
	case config.BackendEnv:
		return nil, nil
	case config.BackendLocal:
		return NewLocalSecretManager(cfg.LocalDir, logger), nil
	case config.BackendVault:
		return NewVaultAdapter(ctx, cfg.Vault, cfg.CacheTTL, logger)
	case config.BackendAWS:
		return NewAWSSecretsManagerAdapter(ctx, cfg.AWS, cfg.CacheTTL, logger)
	default:
		return nil, fmt.Errorf("unsupported secrets backend %q", cfg.Backend)
	}
}

// LoadCredentials returns the merchant credentials described by cfg
func LoadCredentials(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Credentials, error) {
	if cfg.Secrets.Backend == config.BackendEnv {
		return Credentials{Account: cfg.Merchant.Account, Secret: cfg.Merchant.Secret}, nil
	}

	manager, err := NewSecretManager(ctx, cfg.Secrets, logger)
	if err != nil {
		return Credentials{}, err
	}
	return ResolveCredentials(ctx, manager, cfg.Secrets.Path, cfg.Merchant.Account)
}
