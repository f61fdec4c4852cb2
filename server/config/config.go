package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/spf13/viper"

	"github.com/MANTRA-Chain/feemarket/rpc/backend"
	feemarkettypes "github.com/MANTRA-Chain/feemarket/x/feemarket/types"
)

const (
	// ViperEnvPrefix is the prefix of the environment variables overriding the config file.
	ViperEnvPrefix = "FEEMARKET"

	// FileName is the name of the config file under <home>/config.
	FileName = "feemarket.toml"

	ParamsSourceREST = "rest"
	ParamsSourceCLI  = "cli"

	DefaultEVMRPC = "http://127.0.0.1:8545"

	DefaultAPI = "http://127.0.0.1:1317"

	DefaultNode = "tcp://127.0.0.1:26657"

	DefaultBinary = "mantrachaind"

	DefaultHTTPAddress = "127.0.0.1:8577"

	DefaultTolerance = "1"

	DefaultPollInterval = 2 * time.Second

	DefaultDBBackend = string(dbm.GoLevelDBBackend)

	// DefaultMaxOpenConnections is 0, unlimited.
	DefaultMaxOpenConnections = 0
)

// Config is the configuration of the auditor.
type Config struct {
	// EVMRPC is the EVM JSON-RPC endpoint.
	EVMRPC string `mapstructure:"evm-rpc"`
	// API is the Cosmos REST endpoint, used by the rest params source.
	API string `mapstructure:"api"`
	// Node is the CometBFT RPC endpoint, used by the cli params source.
	Node string `mapstructure:"node"`
	// Binary is the chain binary, used by the cli params source.
	Binary string `mapstructure:"binary"`
	// ParamsSource is either "rest" or "cli".
	ParamsSource string `mapstructure:"params-source"`
	// ParamsPath overrides the REST route of the params.
	ParamsPath string `mapstructure:"params-path"`

	Floor FloorConfig `mapstructure:"floor"`

	// Tolerance is the largest accepted difference between the expected and the reported base fee.
	Tolerance string `mapstructure:"tolerance"`
	// PollInterval is the interval between two polls of the chain head.
	PollInterval time.Duration `mapstructure:"poll-interval"`
	// Concurrency bounds the in-flight JSON-RPC requests of a verification.
	Concurrency int `mapstructure:"concurrency"`
	// StartHeight is the first height audited by the service when the record db is empty.
	// 0 starts from the current head.
	StartHeight int64 `mapstructure:"start-height"`

	// DBBackend is the cosmos-db backend of the record db.
	DBBackend string `mapstructure:"db-backend"`
	// DBDir is the directory of the record db, <home>/data if empty.
	DBDir string `mapstructure:"db-dir"`

	Backend   BackendConfig   `mapstructure:"backend"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// FloorConfig selects the param bounding the base fee and the scale converting it to wei.
type FloorConfig struct {
	Source string `mapstructure:"source"`
	Scale  string `mapstructure:"scale"`
}

// BackendConfig tunes the EVM JSON-RPC client.
type BackendConfig struct {
	BlockCacheSize int           `mapstructure:"block-cache-size"`
	MaxRetries     uint64        `mapstructure:"max-retries"`
	RetryInterval  time.Duration `mapstructure:"retry-interval"`
}

// HTTPConfig defines the status API.
type HTTPConfig struct {
	Enable bool `mapstructure:"enable"`
	// Address defines the HTTP server to listen on
	Address string `mapstructure:"address"`
	// MaxOpenConnections sets the maximum number of simultaneous connections
	// for the server listener.
	MaxOpenConnections int `mapstructure:"max-open-connections"`
	// CORS lists the allowed origins, all origins if empty.
	CORS []string `mapstructure:"cors"`
}

// TelemetryConfig defines the metrics of the auditor, served by the status API.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// PrometheusRetentionTime, in seconds, enables the prometheus format when positive.
	PrometheusRetentionTime int64 `mapstructure:"prometheus-retention-time"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	backendOpts := backend.DefaultOptions()

	return Config{
		EVMRPC:       DefaultEVMRPC,
		API:          DefaultAPI,
		Node:         DefaultNode,
		Binary:       DefaultBinary,
		ParamsSource: ParamsSourceREST,
		ParamsPath:   backend.DefaultParamsPath,
		Floor: FloorConfig{
			Source: string(feemarkettypes.FloorSourceMinGasPrice),
			Scale:  feemarkettypes.WeiPerUom.TruncateInt().String(),
		},
		Tolerance:    DefaultTolerance,
		PollInterval: DefaultPollInterval,
		Concurrency:  8,
		DBBackend:    DefaultDBBackend,
		Backend: BackendConfig{
			BlockCacheSize: backendOpts.BlockCacheSize,
			MaxRetries:     backendOpts.MaxRetries,
			RetryInterval:  backendOpts.RetryInterval,
		},
		HTTP: HTTPConfig{
			Enable:             true,
			Address:            DefaultHTTPAddress,
			MaxOpenConnections: DefaultMaxOpenConnections,
		},
		Telemetry: TelemetryConfig{
			Enabled:                 true,
			PrometheusRetentionTime: 600,
		},
	}
}

// SetDefaults registers the defaults on v, every key becomes overridable by environment.
func SetDefaults(v *viper.Viper) {
	cfg := DefaultConfig()

	v.SetDefault("evm-rpc", cfg.EVMRPC)
	v.SetDefault("api", cfg.API)
	v.SetDefault("node", cfg.Node)
	v.SetDefault("binary", cfg.Binary)
	v.SetDefault("params-source", cfg.ParamsSource)
	v.SetDefault("params-path", cfg.ParamsPath)
	v.SetDefault("floor.source", cfg.Floor.Source)
	v.SetDefault("floor.scale", cfg.Floor.Scale)
	v.SetDefault("tolerance", cfg.Tolerance)
	v.SetDefault("poll-interval", cfg.PollInterval.String())
	v.SetDefault("concurrency", cfg.Concurrency)
	v.SetDefault("start-height", cfg.StartHeight)
	v.SetDefault("db-backend", cfg.DBBackend)
	v.SetDefault("db-dir", cfg.DBDir)
	v.SetDefault("backend.block-cache-size", cfg.Backend.BlockCacheSize)
	v.SetDefault("backend.max-retries", cfg.Backend.MaxRetries)
	v.SetDefault("backend.retry-interval", cfg.Backend.RetryInterval.String())
	v.SetDefault("http.enable", cfg.HTTP.Enable)
	v.SetDefault("http.address", cfg.HTTP.Address)
	v.SetDefault("http.max-open-connections", cfg.HTTP.MaxOpenConnections)
	v.SetDefault("http.cors", []string{})
	v.SetDefault("telemetry.enabled", cfg.Telemetry.Enabled)
	v.SetDefault("telemetry.prometheus-retention-time", cfg.Telemetry.PrometheusRetentionTime)
}

// NewViper returns a viper reading <home>/config/feemarket.toml and FEEMARKET_* variables.
func NewViper(home string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetConfigFile(FilePath(home))
	v.SetConfigType("toml")
	v.SetEnvPrefix(ViperEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return v
}

// FilePath returns the path of the config file of the home directory.
func FilePath(home string) string {
	return filepath.Join(home, "config", FileName)
}

// Load reads the config file if it exists, then decodes and validates the config.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(v.ConfigFileUsed()); statErr == nil || !os.IsNotExist(statErr) {
			return Config{}, errorsmod.Wrapf(err, "failed to read config file %s", v.ConfigFileUsed())
		}
	}

	return GetConfig(v)
}

// GetConfig decodes the config from v and validates it.
func GetConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errorsmod.Wrap(err, "failed to decode config")
	}

	return cfg, cfg.Validate()
}

// WriteDefault writes the default config file of the home directory, keeping an existing one.
func WriteDefault(home string) (string, error) {
	path := FilePath(home)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	v := viper.New()
	SetDefaults(v)
	if err := v.WriteConfigAs(path); err != nil {
		return "", errorsmod.Wrapf(err, "failed to write config file %s", path)
	}

	return path, nil
}

// Validate returns an error if the config is not usable.
func (c Config) Validate() error {
	if err := validateURL("evm-rpc", c.EVMRPC); err != nil {
		return err
	}

	switch c.ParamsSource {
	case ParamsSourceREST:
		if err := validateURL("api", c.API); err != nil {
			return err
		}
	case ParamsSourceCLI:
		if c.Binary == "" {
			return fmt.Errorf("binary is required by the %q params source", ParamsSourceCLI)
		}
	default:
		return fmt.Errorf("unknown params source %q, expected %q or %q", c.ParamsSource, ParamsSourceREST, ParamsSourceCLI)
	}

	if _, err := c.FloorPolicy(); err != nil {
		return err
	}
	if _, err := c.ToleranceDec(); err != nil {
		return err
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("poll-interval must be positive, got %s", c.PollInterval)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.StartHeight < 0 {
		return fmt.Errorf("start-height cannot be negative, got %d", c.StartHeight)
	}
	if !isKnownBackend(c.DBBackend) {
		return fmt.Errorf("unknown db backend %q", c.DBBackend)
	}

	if c.Backend.BlockCacheSize < 0 {
		return fmt.Errorf("backend.block-cache-size cannot be negative, got %d", c.Backend.BlockCacheSize)
	}
	if c.Backend.RetryInterval < 0 {
		return fmt.Errorf("backend.retry-interval cannot be negative, got %s", c.Backend.RetryInterval)
	}

	if c.HTTP.Enable && c.HTTP.Address == "" {
		return fmt.Errorf("http.address is required when the status API is enabled")
	}
	if c.HTTP.MaxOpenConnections < 0 {
		return fmt.Errorf("http.max-open-connections cannot be negative, got %d", c.HTTP.MaxOpenConnections)
	}
	if c.Telemetry.PrometheusRetentionTime < 0 {
		return fmt.Errorf("telemetry.prometheus-retention-time cannot be negative, got %d", c.Telemetry.PrometheusRetentionTime)
	}

	return nil
}

// FloorPolicy returns the floor policy of the config.
func (c Config) FloorPolicy() (feemarkettypes.FloorPolicy, error) {
	source, err := feemarkettypes.ParseFloorSource(c.Floor.Source)
	if err != nil {
		return feemarkettypes.FloorPolicy{}, err
	}

	scale, err := sdkmath.LegacyNewDecFromStr(c.Floor.Scale)
	if err != nil {
		return feemarkettypes.FloorPolicy{}, errorsmod.Wrapf(feemarkettypes.ErrInvalidFloorPolicy, "invalid floor scale %q", c.Floor.Scale)
	}

	policy := feemarkettypes.FloorPolicy{
		Source: source,
		Scale:  scale,
	}
	return policy, policy.Validate()
}

// ToleranceDec returns the tolerance as a decimal.
func (c Config) ToleranceDec() (sdkmath.LegacyDec, error) {
	tolerance, err := sdkmath.LegacyNewDecFromStr(c.Tolerance)
	if err != nil {
		return sdkmath.LegacyDec{}, fmt.Errorf("invalid tolerance %q: %w", c.Tolerance, err)
	}
	if tolerance.IsNegative() {
		return sdkmath.LegacyDec{}, fmt.Errorf("tolerance cannot be negative, got %s", tolerance)
	}
	return tolerance, nil
}

// BackendOptions returns the options of the EVM JSON-RPC client.
func (c Config) BackendOptions() backend.Options {
	return backend.Options{
		BlockCacheSize: c.Backend.BlockCacheSize,
		MaxRetries:     c.Backend.MaxRetries,
		RetryInterval:  c.Backend.RetryInterval,
	}
}

// NewParamsSource returns the params source selected by the config.
func (c Config) NewParamsSource() (backend.ParamsSource, error) {
	switch c.ParamsSource {
	case ParamsSourceREST:
		return backend.NewRESTParamsSource(c.API, c.ParamsPath), nil
	case ParamsSourceCLI:
		return backend.NewCommandParamsSource(c.Binary, c.Node), nil
	default:
		return nil, fmt.Errorf("unknown params source %q", c.ParamsSource)
	}
}

// DBPath returns the directory of the record db.
func (c Config) DBPath(home string) string {
	if c.DBDir != "" {
		return c.DBDir
	}
	return filepath.Join(home, "data")
}

func validateURL(name, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid %s %q: scheme and host are required", name, value)
	}
	return nil
}

func isKnownBackend(name string) bool {
	switch dbm.BackendType(name) {
	case dbm.GoLevelDBBackend, dbm.MemDBBackend, dbm.PebbleDBBackend, dbm.RocksDBBackend:
		return true
	default:
		return false
	}
}
