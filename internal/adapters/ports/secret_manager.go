package ports

import (
	"context"
)

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value     string            // The secret value (e.g., merchant secret key)
	Version   string            // Secret version identifier
	Metadata  map[string]string // Additional secret metadata
	CreatedAt string            // When this version was created
}

// SecretManagerAdapter defines the port for reading merchant credentials from a
// secret management service.
// Path format depends on implementation:
//   - local: file path relative to the base directory
//   - AWS: secret name or ARN, e.g. "wayforpay/merchants/{account}"
//   - Vault: KV path below the mount, e.g. "wayforpay/merchants/{account}"
type SecretManagerAdapter interface {
	// GetSecret retrieves the current version of a secret by its path/name
	GetSecret(ctx context.Context, path string) (*Secret, error)
}
