package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies VRLAB_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return cfg, nil
}

// applyEnvOverrides reads well-known VRLAB_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject connection strings without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Storage.PostgresDSN, "VRLAB_POSTGRES_DSN")
	setStr(&cfg.Storage.ClickhouseDSN, "VRLAB_CLICKHOUSE_DSN")
	setStr(&cfg.Session.Date, "VRLAB_SESSION_DATE")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
