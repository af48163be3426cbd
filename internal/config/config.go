// Package config loads the settings of the wayforpay command from an optional
// YAML file, a .env file and the process environment. Environment variables
// take precedence over YAML values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Secret backends
const (
	BackendEnv   = "env"
	BackendLocal = "local"
	BackendVault = "vault"
	BackendAWS   = "aws"
)

// Config holds all application configuration
type Config struct {
	Merchant MerchantConfig `yaml:"merchant"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Logger   LoggerConfig   `yaml:"logger"`
	Callback CallbackConfig `yaml:"callback"`
	Secrets  SecretsConfig  `yaml:"secrets"`
}

// MerchantConfig identifies the merchant. Secret is only read with the env backend.
type MerchantConfig struct {
	Account    string `yaml:"account" env:"WAYFORPAY_MERCHANT_ACCOUNT" env-description:"merchant account login"`
	Secret     string `yaml:"secret" env:"WAYFORPAY_MERCHANT_SECRET" env-description:"merchant secret key"`
	DomainName string `yaml:"domain_name" env:"WAYFORPAY_MERCHANT_DOMAIN" env-description:"merchantDomainName sent with purchases"`
}

// GatewayConfig holds WayForPay endpoint configuration
type GatewayConfig struct {
	APIURL      string        `yaml:"api_url" env:"WAYFORPAY_API_URL" env-default:"https://api.wayforpay.com/api"`
	PurchaseURL string        `yaml:"purchase_url" env:"WAYFORPAY_PURCHASE_URL" env-default:"https://secure.wayforpay.com/pay"`
	Timeout     time.Duration `yaml:"timeout" env:"WAYFORPAY_TIMEOUT" env-default:"30s"`
	RateLimit   float64       `yaml:"rate_limit" env:"WAYFORPAY_RATE_LIMIT" env-default:"0" env-description:"requests per second, 0 disables"`
	RateBurst   int           `yaml:"rate_burst" env:"WAYFORPAY_RATE_BURST" env-default:"1"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string `yaml:"level" env:"LOG_LEVEL" env-default:"info"` // debug, info, warn, error
	Development bool   `yaml:"development" env:"LOG_DEVELOPMENT" env-default:"false"`
}

// CallbackConfig configures the service URL listener
type CallbackConfig struct {
	BindIP string `yaml:"bind_ip" env:"CALLBACK_BIND_IP" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env:"CALLBACK_PORT" env-default:"8080"`
	Path   string `yaml:"path" env:"CALLBACK_PATH" env-default:"/wayforpay/notify"`

	// Per client IP
	RateLimit float64 `yaml:"rate_limit" env:"CALLBACK_RATE_LIMIT" env-default:"10"`
	RateBurst int     `yaml:"rate_burst" env:"CALLBACK_RATE_BURST" env-default:"20"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"CALLBACK_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Address returns the listen address of the callback server
func (c CallbackConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.BindIP, c.Port)
}

// SecretsConfig selects where the merchant secret is read from
type SecretsConfig struct {
	Backend  string        `yaml:"backend" env:"SECRETS_BACKEND" env-default:"env" env-description:"env, local, vault or aws"`
	Path     string        `yaml:"path" env:"SECRETS_PATH" env-description:"secret path, file name or secret id"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"SECRETS_CACHE_TTL" env-default:"5m"`
	LocalDir string        `yaml:"local_dir" env:"SECRETS_LOCAL_DIR" env-default:"./secrets"`
	Vault    VaultConfig   `yaml:"vault"`
	AWS      AWSConfig     `yaml:"aws"`
}

// VaultConfig holds HashiCorp Vault settings
type VaultConfig struct {
	Address       string `yaml:"address" env:"VAULT_ADDR"`
	AuthMethod    string `yaml:"auth_method" env:"VAULT_AUTH_METHOD" env-default:"token"`
	Token         string `yaml:"token" env:"VAULT_TOKEN"`
	RoleID        string `yaml:"role_id" env:"VAULT_ROLE_ID"`
	SecretID      string `yaml:"secret_id" env:"VAULT_SECRET_ID"`
	K8sTokenPath  string `yaml:"k8s_token_path" env:"VAULT_K8S_TOKEN_PATH" env-default:"/var/run/secrets/kubernetes.io/serviceaccount/token"`
	K8sRole       string `yaml:"k8s_role" env:"VAULT_K8S_ROLE"`
	Namespace     string `yaml:"namespace" env:"VAULT_NAMESPACE"`
	MountPath     string `yaml:"mount_path" env:"VAULT_MOUNT_PATH" env-default:"secret"`
	KVVersion     string `yaml:"kv_version" env:"VAULT_KV_VERSION" env-default:"v2"`
	TLSSkipVerify bool   `yaml:"tls_skip_verify" env:"VAULT_SKIP_VERIFY" env-default:"false"`
}

// AWSConfig holds AWS Secrets Manager settings
type AWSConfig struct {
	Region   string `yaml:"region" env:"AWS_REGION" env-default:"us-east-1"`
	Profile  string `yaml:"profile" env:"AWS_PROFILE"`
	Endpoint string `yaml:"endpoint" env:"AWS_SECRETS_ENDPOINT"` // LocalStack
}

// Load reads configuration. envFiles are loaded into the environment first
// when they exist; path is an optional YAML file.
func Load(path string, envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		desc, _ := cleanenv.GetDescription(cfg, nil)
		return nil, fmt.Errorf("load config: %w; %s", err, desc)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements cleanenv cannot express
func (c *Config) Validate() error {
	if c.Merchant.Account == "" {
		return fmt.Errorf("WAYFORPAY_MERCHANT_ACCOUNT is required")
	}

	switch c.Secrets.Backend {
	case BackendEnv:
		if c.Merchant.Secret == "" {
			return fmt.Errorf("WAYFORPAY_MERCHANT_SECRET is required with the %s secrets backend", BackendEnv)
		}
	case BackendLocal, BackendVault, BackendAWS:
		if c.Secrets.Path == "" {
			return fmt.Errorf("SECRETS_PATH is required with the %s secrets backend", c.Secrets.Backend)
		}
	default:
		return fmt.Errorf("unsupported secrets backend %q", c.Secrets.Backend)
	}

	if c.Secrets.Backend == BackendVault && c.Secrets.Vault.Address == "" {
		return fmt.Errorf("VAULT_ADDR is required with the %s secrets backend", BackendVault)
	}
	if c.Gateway.RateLimit < 0 {
		return fmt.Errorf("WAYFORPAY_RATE_LIMIT must not be negative")
	}
	return nil
}
