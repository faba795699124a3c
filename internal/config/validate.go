package config

import (
	"fmt"
	"slices"
)

var logLevels = []string{"debug", "info", "warn", "error"}
var logFormats = []string{"json", "text"}

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("database.max_conns (%d) must be >= min_conns (%d)",
			c.Database.MaxConns, c.Database.MinConns)
	}

	if !slices.Contains(logLevels, c.Log.Level) {
		return fmt.Errorf("log.level %q must be one of %v", c.Log.Level, logLevels)
	}
	if !slices.Contains(logFormats, c.Log.Format) {
		return fmt.Errorf("log.format %q must be one of %v", c.Log.Format, logFormats)
	}

	if c.Adapters.Stellar.HorizonURL != "" && c.Adapters.Stellar.ContractAddress == "" {
		return fmt.Errorf("adapters.stellar.contract_address is required when horizon_url is set")
	}

	return nil
}
