package test

import (
	"context"
	"testing"
	"time"

	"github.com/chapool/subflow-agent/internal/api"
	"github.com/chapool/subflow-agent/internal/api/router"
	"github.com/chapool/subflow-agent/internal/chain/mocks"
	"github.com/chapool/subflow-agent/internal/config"
)

const (
	// Development account 0 of "test test ... junk", never use outside tests.
	ExecutorPrivateKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	ExecutorAddress    = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	ContractAddress    = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	AgentSecret        = "dev-secret"
)

// NewTestConfig returns the env based config pointed at Flow EVM testnet with development credentials.
func NewTestConfig() config.Server {
	cfg := config.DefaultServiceConfigFromEnv()

	cfg.Chain.ChainID = config.ChainIDFlowEVMTestnet
	cfg.Chain.RPCURLs = []string{"http://127.0.0.1:8545"}
	cfg.Chain.FeeMode = config.FeeModeAuto
	cfg.Executor.PrivateKey = ExecutorPrivateKey
	cfg.Executor.KeystoreFile = ""
	cfg.Executor.ContractAddress = ContractAddress
	cfg.Agent.Secret = AgentSecret
	cfg.Agent.Coordination = config.CoordinationMemory
	cfg.Agent.RequestTimeout = 5 * time.Second
	cfg.Redis.Enabled = false
	cfg.Kafka.Brokers = nil

	return cfg
}

// WithTestServer runs closure against a fully wired server whose chain client is a mock, see ChainMock.
func WithTestServer(t *testing.T, closure func(s *api.Server)) {
	t.Helper()

	WithTestServerConfigurable(t, NewTestConfig(), closure)
}

func WithTestServerConfigurable(t *testing.T, config config.Server, closure func(s *api.Server)) {
	t.Helper()

	s, err := api.InitNewServerWithChain(config, mocks.NewClient(t))
	if err != nil {
		t.Fatalf("failed to init server: %v", err)
	}

	if err := router.Init(s); err != nil {
		t.Fatalf("failed to init router: %v", err)
	}

	closure(s)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if errs := s.Shutdown(ctx); len(errs) > 0 {
		t.Fatalf("failed to shutdown server: %v", errs)
	}
}

// ChainMock returns the mocked chain client of a server created by WithTestServer.
func ChainMock(t *testing.T, s *api.Server) *mocks.Client {
	t.Helper()

	client, ok := s.Chain.(*mocks.Client)
	if !ok {
		t.Fatalf("server chain client is %T, not a mock", s.Chain)
	}

	return client
}
