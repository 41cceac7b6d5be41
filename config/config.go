// Package config loads the project configuration file and the .env file next to it.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"golang.org/x/exp/slog"
	"gopkg.in/yaml.v3"

	"github.com/PillarGame/TokenSales/internal/logging"
)

const (
	// FileName is the name of the configuration file looked up in the project root.
	FileName = "tokensales.yaml"

	envFileName = ".env"
)

// ErrInvalidConfig reports a configuration that parsed but cannot be used.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the project configuration.
type Config struct {
	Paths       Paths              `yaml:"paths"`
	Flatten     Flatten            `yaml:"flatten"`
	Solidity    Solidity           `yaml:"solidity"`
	Networks    map[string]Network `yaml:"networks"`
	ABIExporter ABIExporter        `yaml:"abiExporter"`
}

// Paths locates sources and installed libraries, relative to the project root.
type Paths struct {
	Sources   string `yaml:"sources"`
	Libraries string `yaml:"libraries"`
}

// Flatten configures the flat command.
type Flatten struct {
	// Exclude lists doublestar patterns, relative to the sources directory, of
	// sources left out when flattening the whole project.
	Exclude []string `yaml:"exclude"`
}

type Solidity struct {
	Compilers []Compiler `yaml:"compilers"`
}

type Compiler struct {
	Version  string           `yaml:"version"`
	Settings CompilerSettings `yaml:"settings"`
}

type CompilerSettings struct {
	Optimizer       Optimizer                      `yaml:"optimizer"`
	OutputSelection map[string]map[string][]string `yaml:"outputSelection"`
}

type Optimizer struct {
	Enabled bool `yaml:"enabled"`
	Runs    int  `yaml:"runs"`
}

// Network is a chain the project deploys to.
type Network struct {
	URL             string   `yaml:"url"`
	Accounts        []string `yaml:"accounts"`
	ChainID         *int64   `yaml:"chainId"`
	Live            bool     `yaml:"live"`
	SaveDeployments bool     `yaml:"saveDeployments"`
	Tags            []string `yaml:"tags"`
	GasMultiplier   float64  `yaml:"gasMultiplier"`
	GasPrice        uint64   `yaml:"gasPrice"`
}

// ABIExporter configures where contract ABIs are exported to.
type ABIExporter struct {
	Path         string   `yaml:"path"`
	RunOnCompile bool     `yaml:"runOnCompile"`
	Clear        bool     `yaml:"clear"`
	Flat         bool     `yaml:"flat"`
	Only         []string `yaml:"only"`
	Spacing      int      `yaml:"spacing"`
	Pretty       bool     `yaml:"pretty"`
}

// Default returns the configuration used when no configuration file exists.
func Default() *Config {
	return &Config{
		Paths: Paths{
			Sources:   "contracts",
			Libraries: "node_modules",
		},
		Solidity: Solidity{
			Compilers: []Compiler{{
				Version: "0.8.4",
				Settings: CompilerSettings{
					Optimizer: Optimizer{Enabled: true, Runs: 1000000},
					OutputSelection: map[string]map[string][]string{
						"*": {"*": {"storageLayout"}},
					},
				},
			}},
		},
		Networks: map[string]Network{},
		ABIExporter: ABIExporter{
			Path:         "./abi",
			RunOnCompile: true,
			Clear:        true,
			Flat:         true,
			Only:         []string{""},
			Spacing:      2,
			Pretty:       true,
		},
	}
}

type loader struct {
	fs  afero.Fs
	log *slog.Logger
}

// Option configures Load.
type Option func(*loader)

// WithFs reads the configuration and .env files from fsys.
func WithFs(fsys afero.Fs) Option {
	return func(l *loader) {
		l.fs = fsys
	}
}

// WithLogger sets the handler Load logs warnings to.
func WithLogger(h slog.Handler) Option {
	return func(l *loader) {
		l.log = slog.New(h)
	}
}

// Load reads the configuration of the project at root. path overrides the default
// location root/FileName; only an explicit path has to exist. Values are layered
// over Default and validated.
func Load(root, path string, opts ...Option) (*Config, error) {
	l := &loader{}
	for _, opt := range opts {
		opt(l)
	}
	if l.fs == nil {
		l.fs = afero.NewOsFs()
	}
	if l.log == nil {
		l.log = logging.NopLogger()
	}

	explicit := path != ""
	if !explicit {
		path = filepath.Join(root, FileName)
	}

	cfg := Default()

	data, err := afero.ReadFile(l.fs, path)
	switch {
	case err == nil:
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		l.log.Debug("No config file, using defaults", "path", path)
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	env, err := l.readEnvFile(filepath.Join(root, envFileName))
	if err != nil {
		return nil, err
	}
	l.expandNetworks(cfg, env)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (l *loader) readEnvFile(path string) (map[string]string, error) {
	data, err := afero.ReadFile(l.fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	env, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return env, nil
}

var envReferencePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandNetworks replaces ${VAR} in network URLs and accounts. The process
// environment takes precedence over the .env file.
func (l *loader) expandNetworks(cfg *Config, env map[string]string) {
	for _, name := range cfg.NetworkNames() {
		network := cfg.Networks[name]

		expand := func(s string) string {
			return envReferencePattern.ReplaceAllStringFunc(s, func(ref string) string {
				key := envReferencePattern.FindStringSubmatch(ref)[1]
				if value, ok := os.LookupEnv(key); ok {
					return value
				}
				if value, ok := env[key]; ok {
					return value
				}
				l.log.Warn("Environment variable is not set", "variable", key, "network", name)
				return ""
			})
		}

		network.URL = expand(network.URL)
		accounts := make([]string, 0, len(network.Accounts))
		for _, account := range network.Accounts {
			accounts = append(accounts, expand(account))
		}
		network.Accounts = accounts

		cfg.Networks[name] = network
	}
}

var compilerVersionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// Validate checks the configuration for values no command can work with.
func (c *Config) Validate() error {
	for _, dir := range []string{c.Paths.Sources, c.Paths.Libraries} {
		if filepath.IsAbs(dir) {
			return fmt.Errorf("%w: path %q must be relative to the project root", ErrInvalidConfig, dir)
		}
	}

	for i, compiler := range c.Solidity.Compilers {
		if !compilerVersionPattern.MatchString(compiler.Version) {
			return fmt.Errorf("%w: compiler %d has version %q, want x.y.z", ErrInvalidConfig, i, compiler.Version)
		}
	}

	chainIDs := make(map[int64]string)
	for _, name := range c.NetworkNames() {
		chainID := c.Networks[name].ChainID
		if chainID == nil {
			continue
		}
		if other, ok := chainIDs[*chainID]; ok {
			return fmt.Errorf("%w: networks %s and %s share chain id %d", ErrInvalidConfig, other, name, *chainID)
		}
		chainIDs[*chainID] = name
	}

	if c.ABIExporter.Spacing < 0 {
		return fmt.Errorf("%w: abiExporter.spacing must not be negative", ErrInvalidConfig)
	}
	return nil
}

// NetworkNames returns the configured network names in sorted order.
func (c *Config) NetworkNames() []string {
	names := make([]string, 0, len(c.Networks))
	for name := range c.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
