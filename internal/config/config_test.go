package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/consent-ledger/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0600))
	return configFile
}

func TestLoadAPIConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *APIConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
sentry_dsn: "https://sentry.example.com"
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: 20
  write_timeout: 20
  idle_timeout: 180
database:
  host: localhost
  port: 5432
  user: testuser
  password: testpass
  dbname: testdb
auth:
  jwt_public_key: "test-public-key"
  api_keys:
    - "key1"
    - "key2"
ledger:
  rpc_url: "http://ganache:8545"
  chain_id: 11155111
  contract_address: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
  consent_view: check_access
  audit_window_blocks: 500
  confirmation_timeout: 30s
`,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, "https://sentry.example.com", cfg.SentryDSN)
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 20, cfg.Server.ReadTimeout)
				assert.Equal(t, 180, cfg.Server.IdleTimeout)
				assert.Equal(t, "test-public-key", cfg.Auth.JWTPublicKey)
				assert.Len(t, cfg.Auth.APIKeys, 2)
				assert.Equal(t, "http://ganache:8545", cfg.Ledger.RPCURL)
				assert.Equal(t, domain.ChainEthereumSepolia, cfg.Ledger.Chain())
				assert.Equal(t, ConsentViewCheckAccess, cfg.Ledger.ConsentView)
				assert.Equal(t, uint64(500), cfg.Ledger.AuditWindowBlocks)
				assert.Equal(t, 30*time.Second, cfg.Ledger.ConfirmationTimeout)
				assert.NoError(t, cfg.ValidateLedger())
			},
		},
		{
			name: "config with defaults",
			configFile: `
database:
  host: localhost
  user: testuser
  password: testpass
  dbname: testdb
`,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.False(t, cfg.Debug)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 10, cfg.Server.ReadTimeout)
				assert.Equal(t, 90, cfg.Server.WriteTimeout)
				assert.Equal(t, 120, cfg.Server.IdleTimeout)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "disable", cfg.Database.SSLMode)
				assert.Equal(t, domain.ChainGanacheLocal, cfg.Ledger.Chain())
				assert.Equal(t, ConsentViewConsentState, cfg.Ledger.ConsentView)
				assert.Equal(t, uint64(domain.DEFAULT_AUDIT_WINDOW_BLOCKS), cfg.Ledger.AuditWindowBlocks)
				assert.Equal(t, uint64(5000), cfg.Ledger.LogStepSize)
				assert.Equal(t, 60*time.Second, cfg.Ledger.ConfirmationTimeout)
				assert.Equal(t, 2*time.Second, cfg.Ledger.ConfirmationPollInterval)
				assert.Equal(t, 12*time.Second, cfg.Ledger.BlockHeadTTL)
				assert.Equal(t, uint64(domain.DEFAULT_AUDIT_GAS_LIMIT), cfg.Ledger.AuditGasLimit)

				// contract address has no default
				assert.Error(t, cfg.ValidateLedger())
			},
		},
		{
			name: "invalid yaml",
			configFile: `
				server:
				  port: invalid
			`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadAPIConfig(writeConfig(t, tt.configFile), t.TempDir())

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.validate(t, cfg)
		})
	}
}

func TestLoadAuditSweeperConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError string
		validate    func(*testing.T, *AuditSweeperConfig)
	}{
		{
			name: "valid config file",
			configFile: `
database:
  host: localhost
  dbname: consent
ledger:
  contract_address: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
  audit_private_key: "0x4f3edf983ac636a65a842ce7c78d9aa706d3b113bce9c46f30d7d21715b23b1d"
outbox:
  interval: 30s
  batch_size: 10
  worker:
    pool_size: 2
`,
			validate: func(t *testing.T, cfg *AuditSweeperConfig) {
				assert.Equal(t, 30*time.Second, cfg.Outbox.Interval)
				assert.Equal(t, 10, cfg.Outbox.BatchSize)
				assert.Equal(t, 2, cfg.Outbox.Worker.WorkerPoolSize)
				assert.Equal(t, 100, cfg.Outbox.Worker.WorkerQueueSize)
				assert.Equal(t, 5*time.Minute, cfg.Outbox.ReceiptTimeout)
				assert.Equal(t, 30*time.Minute, cfg.Outbox.MaxBackoff)
				assert.Equal(t, 5, cfg.Database.MaxOpenConns)
				assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
			},
		},
		{
			name: "missing database host",
			configFile: `
ledger:
  contract_address: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
  audit_private_key: "abc"
`,
			expectError: "database.host is required",
		},
		{
			name: "missing audit key",
			configFile: `
database:
  host: localhost
  dbname: consent
ledger:
  contract_address: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
`,
			expectError: "ledger.audit_private_key is required",
		},
		{
			name: "invalid consent view",
			configFile: `
database:
  host: localhost
  dbname: consent
ledger:
  contract_address: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
  audit_private_key: "abc"
  consent_view: events
`,
			expectError: "ledger.consent_view",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadAuditSweeperConfig(writeConfig(t, tt.configFile), t.TempDir())

			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			tt.validate(t, cfg)
		})
	}
}

func TestLoadLedgerRelayConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadLedgerRelayConfig(writeConfig(t, `
nats:
  url: "nats://localhost:4222"
ledger:
  contract_address: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
relay:
  start_block: 42
`), t.TempDir())
		require.NoError(t, err)

		assert.Equal(t, "CONSENT_LEDGER_EVENTS", cfg.NATS.StreamName)
		assert.Equal(t, 10, cfg.NATS.MaxReconnects)
		assert.Equal(t, 2*time.Second, cfg.NATS.ReconnectWait)
		assert.Equal(t, 5*time.Second, cfg.Relay.PollInterval)
		assert.Equal(t, uint64(42), cfg.Relay.StartBlock)
	})

	t.Run("missing nats url", func(t *testing.T) {
		cfg, err := LoadLedgerRelayConfig(writeConfig(t, `
ledger:
  contract_address: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
`), t.TempDir())
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "nats.url")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		name     string
		config   DatabaseConfig
		expected string
	}{
		{
			name: "complete config",
			config: DatabaseConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "testuser",
				Password: "testpass",
				DBName:   "testdb",
				SSLMode:  "require",
			},
			expected: "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=require",
		},
		{
			name: "with special characters in password",
			config: DatabaseConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "testuser",
				Password: "p@ssw0rd!",
				DBName:   "testdb",
				SSLMode:  "disable",
			},
			expected: "host=localhost port=5432 user=testuser password=p@ssw0rd! dbname=testdb sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.DSN())
		})
	}
}

func TestConfigWithEnvironmentVariables(t *testing.T) {
	tmpDir := t.TempDir()

	envDir := filepath.Join(tmpDir, "env")
	require.NoError(t, os.MkdirAll(envDir, 0750))

	// Viper uses the CONSENT_LEDGER_ prefix
	envContent := `CONSENT_LEDGER_DEBUG=true
CONSENT_LEDGER_DATABASE_HOST=env-host
CONSENT_LEDGER_DATABASE_PORT=3306
CONSENT_LEDGER_LEDGER_CONTRACT_ADDRESS=0x5FbDB2315678afecb367f032d93F642f64180aa3
CONSENT_LEDGER_LEDGER_CHAIN_ID=1
`
	require.NoError(t, os.WriteFile(filepath.Join(envDir, ".env"), []byte(envContent), 0600))
	t.Cleanup(func() {
		for _, key := range []string{
			"CONSENT_LEDGER_DEBUG",
			"CONSENT_LEDGER_DATABASE_HOST",
			"CONSENT_LEDGER_DATABASE_PORT",
			"CONSENT_LEDGER_LEDGER_CONTRACT_ADDRESS",
			"CONSENT_LEDGER_LEDGER_CHAIN_ID",
		} {
			_ = os.Unsetenv(key)
		}
	})

	configPath := writeConfig(t, `
debug: false
database:
  host: file-host
  port: 5432
ledger:
  chain_id: 1337
`)

	cfg, err := LoadAPIConfig(configPath, envDir)
	require.NoError(t, err)

	// .env values override the config file
	assert.True(t, cfg.Debug)
	assert.Equal(t, "env-host", cfg.Database.Host)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, domain.ChainEthereumMainnet, cfg.Ledger.Chain())
	assert.NoError(t, cfg.ValidateLedger())
}
