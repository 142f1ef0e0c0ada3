//go:build wireinject

package api

import (
	"github.com/chapool/subflow-agent/internal/agent"
	"github.com/chapool/subflow-agent/internal/chain"
	"github.com/chapool/subflow-agent/internal/config"
	"github.com/chapool/subflow-agent/internal/metrics"
	"github.com/google/wire"
)

// INJECTORS - https://github.com/google/wire/blob/main/docs/guide.md#injectors

// serviceSet groups the default set of providers that are required for initing a server
var serviceSet = wire.NewSet(
	newServerWithComponents,
	NewCredential,
	NewCoordination,
	NewAudit,
	NewClock,
	metricsSet,
	agent.NewService,
)

var metricsSet = wire.NewSet(
	metrics.New,
	wire.Bind(new(agent.Recorder), new(*metrics.Service)),
)

var chainSet = wire.NewSet(
	NewChainClient,
	wire.Bind(new(chain.Client), new(*chain.RPCClient)),
)

// InitNewServer returns a new Server instance talking to the configured RPC endpoints.
func InitNewServer(
	_ config.Server,
) (*Server, error) {
	wire.Build(serviceSet, chainSet)
	return new(Server), nil
}

// InitNewServerWithChain returns a new Server instance with the given chain client.
// All the other components are initialized via go wire according to the configuration.
func InitNewServerWithChain(
	_ config.Server,
	_ chain.Client,
) (*Server, error) {
	wire.Build(serviceSet)
	return new(Server), nil
}
