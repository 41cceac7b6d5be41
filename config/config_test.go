package config_test

import (
	"bytes"
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"github.com/PillarGame/TokenSales/config"
)

func writeFile(t *testing.T, fsys afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fsys, path, []byte(content), 0o644))
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load("/project", "", config.WithFs(afero.NewMemMapFs()))

	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, "contracts", cfg.Paths.Sources)
	assert.Equal(t, "node_modules", cfg.Paths.Libraries)
	require.Len(t, cfg.Solidity.Compilers, 1)
	assert.Equal(t, "0.8.4", cfg.Solidity.Compilers[0].Version)
	assert.Equal(t, config.Optimizer{Enabled: true, Runs: 1000000}, cfg.Solidity.Compilers[0].Settings.Optimizer)
	assert.Equal(t, []string{"storageLayout"}, cfg.Solidity.Compilers[0].Settings.OutputSelection["*"]["*"])
	assert.Equal(t, 2, cfg.ABIExporter.Spacing)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load("/project", "/project/other.yaml", config.WithFs(afero.NewMemMapFs()))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file /project/other.yaml")
}

func TestLoad_OverridesDefaults(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/project/tokensales.yaml", heredoc.Doc(`
		paths:
		  sources: src
		flatten:
		  exclude:
		    - "**/test/**"
		solidity:
		  compilers:
		    - version: 0.7.6
		      settings:
		        optimizer:
		          enabled: false
		          runs: 200
		networks:
		  hecochain:
		    url: https://http-testnet.hecochain.com
		    chainId: 128
		    live: true
		    saveDeployments: true
		  fantomtestnet:
		    url: https://rpc.testnet.fantom.network
		    chainId: 4002
		    live: true
		    tags: [staging]
		    gasMultiplier: 2
		    gasPrice: 22000000000
		abiExporter:
		  path: ./build/abi
	`))

	cfg, err := config.Load("/project", "", config.WithFs(fsys))
	require.NoError(t, err)

	assert.Equal(t, config.Paths{Sources: "src", Libraries: "node_modules"}, cfg.Paths)
	assert.Equal(t, []string{"**/test/**"}, cfg.Flatten.Exclude)
	assert.Equal(t, []config.Compiler{{Version: "0.7.6", Settings: config.CompilerSettings{Optimizer: config.Optimizer{Runs: 200}}}}, cfg.Solidity.Compilers)

	assert.Equal(t, []string{"fantomtestnet", "hecochain"}, cfg.NetworkNames())
	fantom := cfg.Networks["fantomtestnet"]
	require.NotNil(t, fantom.ChainID)
	assert.Equal(t, int64(4002), *fantom.ChainID)
	assert.Equal(t, []string{"staging"}, fantom.Tags)
	assert.Equal(t, 2.0, fantom.GasMultiplier)
	assert.Equal(t, uint64(22000000000), fantom.GasPrice)
	assert.True(t, cfg.Networks["hecochain"].SaveDeployments)

	assert.Equal(t, "./build/abi", cfg.ABIExporter.Path)
	assert.True(t, cfg.ABIExporter.Pretty)
}

func TestLoad_EmptyFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/project/tokensales.yaml", "")

	cfg, err := config.Load("/project", "", config.WithFs(fsys))

	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_UnknownField(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/project/tokensales.yaml", "paths:\n  source: src\n")

	_, err := config.Load("/project", "", config.WithFs(fsys))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse /project/tokensales.yaml")
	assert.Contains(t, err.Error(), "field source not found")
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("TOKENSALES_TEST_ALCHEMY_KEY", "from-process")

	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/project/.env", heredoc.Doc(`
		TOKENSALES_TEST_ALCHEMY_KEY=from-dotenv
		TOKENSALES_TEST_PRIVATE_KEY=0xabc123
	`))
	writeFile(t, fsys, "/project/tokensales.yaml", heredoc.Doc(`
		networks:
		  kovanoptimism:
		    url: https://opt-kovan.g.alchemy.com/v2/${TOKENSALES_TEST_ALCHEMY_KEY}
		    accounts:
		      - ${TOKENSALES_TEST_PRIVATE_KEY}
	`))

	cfg, err := config.Load("/project", "", config.WithFs(fsys))
	require.NoError(t, err)

	network := cfg.Networks["kovanoptimism"]
	assert.Equal(t, "https://opt-kovan.g.alchemy.com/v2/from-process", network.URL)
	assert.Equal(t, []string{"0xabc123"}, network.Accounts)
	assert.Nil(t, network.ChainID)
}

func TestLoad_UnsetVariableExpandsToEmpty(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/project/tokensales.yaml", heredoc.Doc(`
		networks:
		  kovanoptimism:
		    url: https://opt-kovan.g.alchemy.com/v2/${TOKENSALES_TEST_UNSET_KEY}
	`))
	var logs bytes.Buffer

	cfg, err := config.Load("/project", "", config.WithFs(fsys),
		config.WithLogger(slog.HandlerOptions{Level: slog.LevelWarn}.NewTextHandler(&logs)))
	require.NoError(t, err)

	assert.Equal(t, "https://opt-kovan.g.alchemy.com/v2/", cfg.Networks["kovanoptimism"].URL)
	assert.Contains(t, logs.String(), "variable=TOKENSALES_TEST_UNSET_KEY")
}

func TestValidate(t *testing.T) {
	chainID := func(id int64) *int64 { return &id }

	tests := []struct {
		name    string
		modify  func(cfg *config.Config)
		wantErr string
	}{
		{
			name:    "compiler version",
			modify:  func(cfg *config.Config) { cfg.Solidity.Compilers[0].Version = "^0.8.4" },
			wantErr: `compiler 0 has version "^0.8.4"`,
		},
		{
			name: "duplicate chain id",
			modify: func(cfg *config.Config) {
				cfg.Networks["fantom"] = config.Network{ChainID: chainID(250)}
				cfg.Networks["opera"] = config.Network{ChainID: chainID(250)}
			},
			wantErr: "networks fantom and opera share chain id 250",
		},
		{
			name:    "negative spacing",
			modify:  func(cfg *config.Config) { cfg.ABIExporter.Spacing = -1 },
			wantErr: "abiExporter.spacing must not be negative",
		},
		{
			name:    "absolute sources path",
			modify:  func(cfg *config.Config) { cfg.Paths.Sources = "/contracts" },
			wantErr: `path "/contracts" must be relative`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.modify(cfg)

			err := cfg.Validate()

			require.ErrorIs(t, err, config.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_NetworksWithoutChainID(t *testing.T) {
	cfg := config.Default()
	cfg.Networks["a"] = config.Network{URL: "http://localhost:8545"}
	cfg.Networks["b"] = config.Network{URL: "http://localhost:8546"}

	assert.NoError(t, cfg.Validate())
}
