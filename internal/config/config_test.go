package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
chain:
  rpc_url: http://localhost:8545
  contracts:
    user_registry:
      address: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
      enabled: true
      block_num: 10
    campaign_factory:
      address: "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"
      enabled: true
      block_num: 12
auth:
  jwt_secret: test-secret
session:
  ttl: 48h
`

func readYAML(t *testing.T, content string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(content)))
	return v
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := load(readYAML(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, int64(11155111), cfg.Chain.ChainId)
	assert.Equal(t, DefaultAdminAddress, cfg.Chain.AdminAddress)
	assert.Equal(t, 48*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 5*time.Minute, cfg.Session.NonceTTL)
	assert.Equal(t, int64(500), cfg.Monitor.BatchSize)
	assert.Equal(t, int64(12), cfg.Chain.Contracts[ContractCampaignFactory].BlockNum)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("FUNDCHAIN_AUTH_JWT_SECRET", "from-env")
	cfg, err := load(readYAML(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
}

func TestValidateReportsMissingValues(t *testing.T) {
	_, err := load(readYAML(t, "server:\n  port: \"9000\"\n"))
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "chain.rpc_url is required")
	assert.Contains(t, msg, "chain.contracts.user_registry")
	assert.Contains(t, msg, "chain.contracts.campaign_factory")
	assert.Contains(t, msg, "auth.jwt_secret is required")
}

const sampleBroadcast = `{
  "transactions": [
    {"hash": "0xaa", "transactionType": "CREATE", "contractName": "UserRegistry", "contractAddress": "0x5fbdb2315678afecb367f032d93f642f64180aa3"},
    {"hash": "0xbb", "transactionType": "CREATE", "contractName": "CampaignFactory", "contractAddress": "0xe7f1725e7734ce288f8367e1bb143e90bb3f0512"},
    {"hash": "0xcc", "transactionType": "CALL", "contractName": "CampaignFactory", "contractAddress": "0x0000000000000000000000000000000000000001"}
  ],
  "receipts": [
    {"transactionHash": "0xaa", "blockNumber": "0x10"},
    {"transactionHash": "0xbb", "blockNumber": "0x11"}
  ]
}`

func TestParseBroadcast(t *testing.T) {
	deployed, err := ParseBroadcast([]byte(sampleBroadcast))
	require.NoError(t, err)
	require.Len(t, deployed, 2)

	assert.Equal(t, "0x5FbDB2315678afecb367f032d93F642f64180aa3", deployed["UserRegistry"].Address.Hex())
	assert.Equal(t, int64(16), deployed["UserRegistry"].BlockNum)
	assert.Equal(t, int64(17), deployed["CampaignFactory"].BlockNum)
}

func TestApplyBroadcast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run-latest.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleBroadcast), 0o600))

	cfg := ChainConfig{Contracts: map[string]ContractConfig{
		ContractCampaignFactory: {BlockNum: 5, ABIPath: "abi/factory.json"},
	}}
	require.NoError(t, ApplyBroadcast(&cfg, path))

	factory := cfg.Contracts[ContractCampaignFactory]
	assert.True(t, factory.Enabled)
	assert.Equal(t, "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512", factory.Address)
	assert.Equal(t, int64(5), factory.BlockNum)
	assert.Equal(t, "abi/factory.json", factory.ABIPath)

	registry := cfg.Contracts[ContractUserRegistry]
	assert.Equal(t, int64(16), registry.BlockNum)
}

func TestApplyBroadcastMissingContract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run-latest.json")
	content := `{"transactions":[{"transactionType":"CREATE","contractName":"UserRegistry","contractAddress":"0x5fbdb2315678afecb367f032d93f642f64180aa3"}]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	var cfg ChainConfig
	err := ApplyBroadcast(&cfg, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CampaignFactory")
}
