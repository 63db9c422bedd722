package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/feral-file/consent-ledger/internal/domain"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
}

// Consent view modes supported by the ledger contract
const (
	ConsentViewConsentState = "consent_state"
	ConsentViewCheckAccess  = "check_access"
)

// LedgerConfig holds configuration for the consent ledger node and contract
type LedgerConfig struct {
	RPCURL          string `mapstructure:"rpc_url"`
	ChainID         int64  `mapstructure:"chain_id"`
	ContractAddress string `mapstructure:"contract_address"`
	// ConsentView selects the view used by consent queries: consent_state or check_access
	ConsentView string `mapstructure:"consent_view"`

	// AuditWindowBlocks is the default number of recent blocks scanned for events
	AuditWindowBlocks uint64 `mapstructure:"audit_window_blocks"`
	// LogStepSize is the initial block span of a single eth_getLogs request
	LogStepSize uint64 `mapstructure:"log_step_size"`

	ConfirmationTimeout      time.Duration `mapstructure:"confirmation_timeout"`
	ConfirmationPollInterval time.Duration `mapstructure:"confirmation_poll_interval"`
	RequestTimeout           time.Duration `mapstructure:"request_timeout"`

	BlockHeadTTL         time.Duration `mapstructure:"block_head_ttl"`
	BlockHeadStaleWindow time.Duration `mapstructure:"block_head_stale_window"`

	// AuditPrivateKey signs logDataAccess appends. Hex encoded, with or without 0x.
	AuditPrivateKey string `mapstructure:"audit_private_key"`
	AuditGasLimit   uint64 `mapstructure:"audit_gas_limit"`

	// ExternalSignerURL is a Clef-compatible endpoint used for server-side consent signing
	ExternalSignerURL string `mapstructure:"external_signer_url"`
}

// Chain returns the CAIP-2 identifier of the configured chain
func (c *LedgerConfig) Chain() domain.Chain {
	return domain.NewChain(c.ChainID)
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTPublicKey string   `mapstructure:"jwt_public_key"`
	APIKeys      []string `mapstructure:"api_keys"`
	CORSOrigins  []string `mapstructure:"cors_origins"`
}

// WorkerConfig holds worker configuration
type WorkerConfig struct {
	WorkerPoolSize  int `mapstructure:"pool_size"`
	WorkerQueueSize int `mapstructure:"queue_size"`
}

// AuditOutboxConfig holds the redelivery policy for audit appends
type AuditOutboxConfig struct {
	// Interval between sweeps
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
	// ReceiptTimeout is how long a sent append may stay unconfirmed before it is resent
	ReceiptTimeout time.Duration `mapstructure:"receipt_timeout"`
	// MaxBackoff caps the delay between delivery attempts of a single entry
	MaxBackoff time.Duration `mapstructure:"max_backoff"`
	Worker     WorkerConfig  `mapstructure:"worker"`
}

// RelayConfig holds configuration for the ledger relay
type RelayConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// StartBlock is used when no cursor has been persisted yet; 0 means the head minus the audit window
	StartBlock uint64 `mapstructure:"start_block"`
	// Confirmations is how many blocks behind the head the relay stays
	Confirmations uint64 `mapstructure:"confirmations"`
}

// APIConfig holds configuration for API server
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig   `mapstructure:"server"`
	Database   DatabaseConfig `mapstructure:"database"`
	Auth       AuthConfig     `mapstructure:"auth"`
	Ledger     LedgerConfig   `mapstructure:"ledger"`
}

// AuditSweeperConfig holds configuration for the audit sweeper program
type AuditSweeperConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig    `mapstructure:"database"`
	Ledger     LedgerConfig      `mapstructure:"ledger"`
	Outbox     AuditOutboxConfig `mapstructure:"outbox"`

	// MetricsAddr is where /metrics is served; empty disables it
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// LedgerRelayConfig holds configuration for the ledger relay program
type LedgerRelayConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Ledger     LedgerConfig   `mapstructure:"ledger"`
	Relay      RelayConfig    `mapstructure:"relay"`

	// MetricsAddr is where /metrics is served; empty disables it
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// setLedgerDefaults sets the defaults shared by every binary talking to the ledger
func setLedgerDefaults(v *viper.Viper) {
	v.SetDefault("ledger.rpc_url", "http://127.0.0.1:7545")
	v.SetDefault("ledger.chain_id", 1337)
	v.SetDefault("ledger.consent_view", ConsentViewConsentState)
	v.SetDefault("ledger.audit_window_blocks", domain.DEFAULT_AUDIT_WINDOW_BLOCKS)
	v.SetDefault("ledger.log_step_size", 5000)
	v.SetDefault("ledger.confirmation_timeout", "60s")
	v.SetDefault("ledger.confirmation_poll_interval", "2s")
	v.SetDefault("ledger.request_timeout", "10s")
	v.SetDefault("ledger.block_head_ttl", "12s")
	v.SetDefault("ledger.block_head_stale_window", "60s")
	v.SetDefault("ledger.audit_gas_limit", domain.DEFAULT_AUDIT_GAS_LIMIT)
}

// validateLedger checks the fields every ledger client needs
func validateLedger(c *LedgerConfig) error {
	if c.ContractAddress == "" {
		return errors.New("ledger.contract_address is required")
	}
	if _, err := domain.ParseAddress(c.ContractAddress); err != nil {
		return fmt.Errorf("ledger.contract_address: %w", err)
	}
	switch c.ConsentView {
	case ConsentViewConsentState, ConsentViewCheckAccess:
	default:
		return fmt.Errorf("ledger.consent_view must be %q or %q", ConsentViewConsentState, ConsentViewCheckAccess)
	}
	return nil
}

// readConfig reads the config file, tolerating a missing one so env vars can drive everything
func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// LoadAPIConfig loads configuration for API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 90) // bounded confirmation waits run inside a request
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	setLedgerDefaults(v)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config APIConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// LoadAuditSweeperConfig loads configuration for the audit sweeper program
func LoadAuditSweeperConfig(configFile string, envPath string) (*AuditSweeperConfig, error) {
	v := configureViper("audit-sweeper", configFile, envPath)

	// Set defaults
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	v.SetDefault("outbox.interval", "15s")
	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.receipt_timeout", "5m")
	v.SetDefault("outbox.max_backoff", "30m")
	v.SetDefault("outbox.worker.pool_size", 4)
	v.SetDefault("outbox.worker.queue_size", 100)
	v.SetDefault("metrics_addr", ":9090")
	setLedgerDefaults(v)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg AuditSweeperConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	if cfg.Database.Host == "" {
		return nil, errors.New("database.host is required")
	}
	if cfg.Database.DBName == "" {
		return nil, errors.New("database.dbname is required")
	}
	if cfg.Ledger.AuditPrivateKey == "" {
		return nil, errors.New("ledger.audit_private_key is required")
	}
	if err := validateLedger(&cfg.Ledger); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadLedgerRelayConfig loads configuration for the ledger relay program
func LoadLedgerRelayConfig(configFile string, envPath string) (*LedgerRelayConfig, error) {
	v := configureViper("ledger-relay", configFile, envPath)

	// Set defaults
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "CONSENT_LEDGER_EVENTS")
	v.SetDefault("nats.connection_name", "ledger-relay")
	v.SetDefault("relay.poll_interval", "5s")
	v.SetDefault("relay.confirmations", 0)
	v.SetDefault("metrics_addr", ":9091")
	setLedgerDefaults(v)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg LedgerRelayConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.NATS.URL == "" {
		return nil, errors.New("nats.url is required")
	}
	if err := validateLedger(&cfg.Ledger); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ValidateLedger checks the ledger section of the API config
func (c *APIConfig) ValidateLedger() error {
	return validateLedger(&c.Ledger)
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory (e.g., cmd/audit-sweeper/, cmd/api/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("CONSENT_LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	// Common config keys
	commonKeys := []string{
		"debug",
		"sentry_dsn",
		"metrics_addr",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		// Ledger
		"ledger.rpc_url",
		"ledger.chain_id",
		"ledger.contract_address",
		"ledger.consent_view",
		"ledger.audit_window_blocks",
		"ledger.log_step_size",
		"ledger.confirmation_timeout",
		"ledger.confirmation_poll_interval",
		"ledger.request_timeout",
		"ledger.block_head_ttl",
		"ledger.block_head_stale_window",
		"ledger.audit_private_key",
		"ledger.audit_gas_limit",
		"ledger.external_signer_url",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		// Auth
		"auth.jwt_public_key",
		"auth.api_keys",
		"auth.cors_origins",
		// Audit outbox
		"outbox.interval",
		"outbox.batch_size",
		"outbox.receipt_timeout",
		"outbox.max_backoff",
		"outbox.worker.pool_size",
		"outbox.worker.queue_size",
		// Relay
		"relay.poll_interval",
		"relay.start_block",
		"relay.confirmations",
	}

	for _, key := range commonKeys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	// Create candidates list
	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
