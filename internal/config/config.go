package config

import "time"

// Config is the root application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	DFID     DFIDConfig     `yaml:"dfid"`
	Adapters AdaptersConfig `yaml:"adapters"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// DFIDConfig holds identifier generation settings. Instance distinguishes
// deployments so horizontally scaled generators never mint colliding
// sequences.
type DFIDConfig struct {
	Instance uint8 `yaml:"instance" env:"DFID_INSTANCE" env-default:"1"`
}

// AdaptersConfig holds external storage adapter settings. An adapter with an
// empty endpoint is simply not registered; circuits configured for it degrade
// to local-only storage.
type AdaptersConfig struct {
	IPFS    IPFSConfig    `yaml:"ipfs"`
	Stellar StellarConfig `yaml:"stellar"`
	Local   LocalConfig   `yaml:"local"`
}

// IPFSConfig holds IPFS node settings. APIAddr is the base URL of the
// node's HTTP RPC API, e.g. "http://127.0.0.1:5001".
type IPFSConfig struct {
	APIAddr string        `yaml:"api_addr" env:"IPFS_API_ADDR"`
	Pin     bool          `yaml:"pin"      env:"IPFS_PIN"      env-default:"true"`
	Timeout time.Duration `yaml:"timeout"  env:"IPFS_TIMEOUT"  env-default:"30s"`
}

// StellarConfig holds Stellar network settings.
type StellarConfig struct {
	HorizonURL      string `yaml:"horizon_url"      env:"STELLAR_HORIZON_URL"`
	Network         string `yaml:"network"          env:"STELLAR_NETWORK"          env-default:"stellar-testnet"`
	ContractAddress string `yaml:"contract_address" env:"STELLAR_CONTRACT_ADDRESS"`
}

// LocalConfig holds local adapter settings.
type LocalConfig struct {
	Enabled bool `yaml:"enabled" env:"LOCAL_ADAPTER_ENABLED" env-default:"true"`
}
