package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/carerouter/backend/pkg/config"
	"github.com/zatekoja/carerouter/backend/pkg/secrets"
)

// LoadConfig loads configuration from the environment. When VAULT_ENABLED is
// set, provider credentials are exported from Vault first and the
// configuration is reloaded so they take effect.
func LoadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	vaultCfg := secrets.LoadVaultConfigFromEnv()
	if !vaultCfg.Enabled {
		return cfg, nil
	}

	result, err := secrets.Apply(ctx, vaultCfg)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("path", result.Path).
		Strs("loaded", result.Loaded).
		Strs("skipped", result.Skipped).
		Msg("applied vault secrets")

	return config.Load()
}
