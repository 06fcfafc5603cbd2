package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"ops-agent/internal/usecase"
)

// Snapshot sources.
const (
	BackendCSV      = "csv"
	BackendDynamoDB = "dynamodb"
	BackendMySQL    = "mysql"
)

// Ledger choices. An empty ledger writes transfers back to the record
// source. LedgerNone keeps them in memory only, so opsctl refuses one-shot
// transfers with it.
const (
	LedgerDefault = ""
	LedgerNone    = "none"
	LedgerRedis   = "redis"
)

// Config is the opsctl configuration, read from ops.yaml, OPS_* environment
// variables and command-line flags in increasing order of precedence.
type Config struct {
	Backend           string `mapstructure:"backend"`
	Ledger            string `mapstructure:"ledger"`
	LowStockThreshold int    `mapstructure:"lowStockThreshold"`
	AliasesFile       string `mapstructure:"aliasesFile"`
	MaxQuestionLength int    `mapstructure:"maxQuestionLength"`
	ParamPrefix       string `mapstructure:"paramPrefix"`
	LogLevel          string `mapstructure:"logLevel"`

	CSV      CSVConfig      `mapstructure:"csv"`
	DynamoDB DynamoDBConfig `mapstructure:"dynamodb"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type CSVConfig struct {
	Inventory string `mapstructure:"inventory"`
	Orders    string `mapstructure:"orders"`
}

type DynamoDBConfig struct {
	InventoryTable string `mapstructure:"inventoryTable"`
	OrdersTable    string `mapstructure:"ordersTable"`
}

type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Backend:           BackendCSV,
		LowStockThreshold: 500,
		MaxQuestionLength: 300,
		ParamPrefix:       "/ops-agent",
		LogLevel:          "info",
		CSV: CSVConfig{
			Inventory: "data/inventory.csv",
			Orders:    "data/orders.csv",
		},
		DynamoDB: DynamoDBConfig{
			InventoryTable: "ops-inventory",
			OrdersTable:    "ops-orders",
		},
		MySQL: MySQLConfig{
			DSN: "root:root@tcp(localhost:3306)/opsagent?parseTime=true",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
	}
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"backend":   "backend",
	"ledger":    "ledger",
	"threshold": "lowStockThreshold",
	"aliases":   "aliasesFile",
	"log-level": "logLevel",
}

// Load reads the configuration. configFile may be empty, in which case
// ops.yaml is searched for in the working directory and a missing file is
// not an error. flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("ops")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("OPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("config: bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.Ledger = strings.ToLower(strings.TrimSpace(cfg.Ledger))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("backend", d.Backend)
	v.SetDefault("ledger", d.Ledger)
	v.SetDefault("lowStockThreshold", d.LowStockThreshold)
	v.SetDefault("aliasesFile", d.AliasesFile)
	v.SetDefault("maxQuestionLength", d.MaxQuestionLength)
	v.SetDefault("paramPrefix", d.ParamPrefix)
	v.SetDefault("logLevel", d.LogLevel)
	v.SetDefault("csv.inventory", d.CSV.Inventory)
	v.SetDefault("csv.orders", d.CSV.Orders)
	v.SetDefault("dynamodb.inventoryTable", d.DynamoDB.InventoryTable)
	v.SetDefault("dynamodb.ordersTable", d.DynamoDB.OrdersTable)
	v.SetDefault("mysql.dsn", d.MySQL.DSN)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
}

// Validate checks the fields the selected backend and ledger depend on.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendCSV:
		if c.CSV.Inventory == "" || c.CSV.Orders == "" {
			return &ConfigError{Field: "csv", Message: "inventory and orders paths are required"}
		}
	case BackendDynamoDB:
		if c.DynamoDB.InventoryTable == "" || c.DynamoDB.OrdersTable == "" {
			return &ConfigError{Field: "dynamodb", Message: "inventoryTable and ordersTable are required"}
		}
	case BackendMySQL:
		if c.MySQL.DSN == "" {
			return &ConfigError{Field: "mysql.dsn", Message: "required"}
		}
	default:
		return &ConfigError{Field: "backend", Message: fmt.Sprintf("unsupported backend %q", c.Backend)}
	}

	switch c.Ledger {
	case LedgerDefault, LedgerNone:
	case LedgerRedis:
		if c.Redis.Addr == "" {
			return &ConfigError{Field: "redis.addr", Message: "required"}
		}
	default:
		return &ConfigError{Field: "ledger", Message: fmt.Sprintf("unsupported ledger %q", c.Ledger)}
	}

	if c.LowStockThreshold <= 0 {
		return &ConfigError{Field: "lowStockThreshold", Message: "must be positive"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}

// Params serves runtime tunables from the local configuration in place of
// the parameter store.
type Params struct {
	values map[string]string
}

// Params reads the alias file, if any, and returns the tunables keyed by
// the parameter names usecase.AskService reads.
func (c *Config) Params() (*Params, error) {
	prefix := strings.TrimRight(c.ParamPrefix, "/")
	values := map[string]string{
		prefix + usecase.ParamLowStockThreshold: strconv.Itoa(c.LowStockThreshold),
	}
	if c.AliasesFile != "" {
		raw, err := os.ReadFile(c.AliasesFile)
		if err != nil {
			return nil, fmt.Errorf("config: read aliases: %w", err)
		}
		values[prefix+usecase.ParamRegionAliases] = string(raw)
	}
	return &Params{values: values}, nil
}

func (p *Params) GetParameterOr(_ context.Context, name, fallback string) (string, error) {
	if v, ok := p.values[name]; ok {
		return v, nil
	}
	return fallback, nil
}
