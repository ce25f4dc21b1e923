package config

import (
	"fmt"

	"github.com/yndnr/bestelldesk-go/internal/infra/confloader"
)

// PassphraseEnv names the environment variable holding the backup
// passphrase. It is never read as configuration.
const PassphraseEnv = confloader.DefaultEnvPrefix + "BACKUP_PASSPHRASE"

// Load builds the configuration from defaults, the optional YAML file at
// path, BESTELLDESK_* environment variables and overrides (dotted keys,
// usually from flags), in increasing priority. The result is verified.
func Load(path string, overrides map[string]any) (*Config, error) {
	cfg := Default()

	loader := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithEnvIgnore(PassphraseEnv),
	)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if len(overrides) > 0 {
		if err := loader.LoadMap(overrides); err != nil {
			return nil, err
		}
		if err := loader.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
