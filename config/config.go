package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Strategy names, as accepted by --strategy and the "strategies" config key.
const (
	Orm      = "orm"
	MicroOrm = "microorm"
	Native   = "native"
	Raw      = "raw"
)

const DefaultContactsPerCompany = 1

var AllStrategies = []string{Orm, MicroOrm, Native, Raw}

var (
	ErrMissingConnection = errors.New("missing connection string")
	ErrUnknownStrategy   = errors.New("unknown strategy")
	ErrInvalidRunShape   = errors.New("invalid run shape")
)

// config key -> environment variable
var envBindings = map[string]string{
	"connections.orm":      "BaseEFCoreConnectionString",
	"connections.microorm": "BaseDapperConnectionString",
	"connections.native":   "BaseDapperContribConnectionString",
	"connections.raw":      "BaseADOConnectionString",
	"contactsPerCompany":   "NumeroContatosPorCompanhia",
}

// config key -> command line flag
var flagBindings = map[string]string{
	"strategies":     "strategy",
	"runs":           "runs",
	"iterations":     "iterations",
	"warmup":         "warmup",
	"includeConnect": "include-connect",
	"verify":         "verify",
	"provision":      "provision",
	"truncate":       "truncate",
	"seed":           "seed",
	"format":         "format",
}

type Connections struct {
	Orm      string `mapstructure:"orm"`
	MicroOrm string `mapstructure:"microorm"`
	Native   string `mapstructure:"native"`
	Raw      string `mapstructure:"raw"`
}

type Config struct {
	Connections        Connections `mapstructure:"connections"`
	ContactsPerCompany int         `mapstructure:"-"`
	Strategies         []string    `mapstructure:"strategies"`
	Runs               int         `mapstructure:"runs"`
	Iterations         int         `mapstructure:"iterations"`
	Warmup             int         `mapstructure:"warmup"`
	// Open and close the connection inside the timed region, for every strategy alike.
	IncludeConnect bool   `mapstructure:"includeConnect"`
	Verify         bool   `mapstructure:"verify"`
	Provision      bool   `mapstructure:"provision"`
	Truncate       bool   `mapstructure:"truncate"`
	Seed           uint64 `mapstructure:"seed"`
	Format         string `mapstructure:"format"`
}

type LoadOptions struct {
	ConfigFile string
	Flags      *pflag.FlagSet
}

// Default returns the configuration used when neither a file, the environment nor flags say
// otherwise.
func Default() Config {
	return Config{
		ContactsPerCompany: DefaultContactsPerCompany,
		Strategies:         append([]string{}, AllStrategies...),
		Runs:               5,
		Iterations:         100,
		Warmup:             5,
		Format:             "csv",
	}
}

// Load resolves the configuration once: defaults, then the YAML file, then the environment,
// then explicitly set flags.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	defaults := Default()
	v.SetDefault("connections.orm", "")
	v.SetDefault("connections.microorm", "")
	v.SetDefault("connections.native", "")
	v.SetDefault("connections.raw", "")
	v.SetDefault("contactsPerCompany", defaults.ContactsPerCompany)
	v.SetDefault("strategies", defaults.Strategies)
	v.SetDefault("runs", defaults.Runs)
	v.SetDefault("iterations", defaults.Iterations)
	v.SetDefault("warmup", defaults.Warmup)
	v.SetDefault("includeConnect", defaults.IncludeConnect)
	v.SetDefault("verify", defaults.Verify)
	v.SetDefault("provision", defaults.Provision)
	v.SetDefault("truncate", defaults.Truncate)
	v.SetDefault("seed", defaults.Seed)
	v.SetDefault("format", defaults.Format)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if opts.Flags != nil {
		for key, name := range flagBindings {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag --%s: %w", name, err)
				}
			}
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ContactsPerCompany = ParseContactsPerCompany(v.GetString("contactsPerCompany"))

	return &cfg, nil
}

// ParseContactsPerCompany returns the default for blank or non-numeric values. Negative
// counts mean no contacts.
func ParseContactsPerCompany(value string) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return DefaultContactsPerCompany
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return DefaultContactsPerCompany
	}
	return max(n, 0)
}

// EnvVar returns the environment variable holding the connection string of a strategy.
func EnvVar(strategy string) string {
	return envBindings["connections."+strategy]
}

func (c *Config) ConnectionString(strategy string) (string, error) {
	switch strategy {
	case Orm:
		return c.Connections.Orm, nil
	case MicroOrm:
		return c.Connections.MicroOrm, nil
	case Native:
		return c.Connections.Native, nil
	case Raw:
		return c.Connections.Raw, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
}

// Validate checks the run shape and that every selected strategy has a connection string.
func (c *Config) Validate() error {
	if len(c.Strategies) == 0 {
		return fmt.Errorf("%w: no strategy selected", ErrInvalidRunShape)
	}
	if c.Runs < 1 || c.Iterations < 1 || c.Warmup < 0 {
		return fmt.Errorf("%w: runs=%d iterations=%d warmup=%d", ErrInvalidRunShape, c.Runs, c.Iterations, c.Warmup)
	}
	switch c.Format {
	case "csv", "kv", "yaml":
	default:
		return fmt.Errorf("%w: format %q", ErrInvalidRunShape, c.Format)
	}

	for _, s := range c.Strategies {
		conn, err := c.ConnectionString(s)
		if err != nil {
			return err
		}
		if strings.TrimSpace(conn) == "" {
			return fmt.Errorf("%w for strategy %q (set %s)", ErrMissingConnection, s, EnvVar(s))
		}
	}
	return nil
}
