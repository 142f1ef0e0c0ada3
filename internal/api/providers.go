package api

import (
	"context"

	"github.com/chapool/subflow-agent/internal/agent"
	"github.com/chapool/subflow-agent/internal/agent/redisstore"
	"github.com/chapool/subflow-agent/internal/audit"
	"github.com/chapool/subflow-agent/internal/chain"
	"github.com/chapool/subflow-agent/internal/config"
	"github.com/chapool/subflow-agent/internal/keys"
	"github.com/dropbox/godropbox/time2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// PROVIDERS - define here only providers that for various reasons (e.g. cyclic dependency) can't live in their corresponding packages
// or for wrapping providers that only accept sub-configs to prevent the requirement for defining providers for sub-configs.
// https://github.com/google/wire/blob/main/docs/guide.md#defining-providers

// NewChainClient dials the configured RPC endpoints lazily, failing over between them.
func NewChainClient(cfg config.Server) (*chain.RPCClient, error) {
	return chain.NewRPCClient(cfg.Chain.RPCURLs, cfg.Chain.CallTimeout)
}

// NewCredential loads the executor key once. It is never logged.
func NewCredential(cfg config.Server) (*keys.Credential, error) {
	cred, err := keys.Load(cfg.Executor)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load executor credential")
	}

	log.Info().Str("executor", cred.Address().Hex()).Msg("Loaded executor credential")

	return cred, nil
}

// NewCoordination selects the in-memory or the redis backed coordination.
func NewCoordination(cfg config.Server) (*agent.Coordination, error) {
	if !cfg.Redis.Enabled {
		return agent.NewMemoryCoordination(cfg.Agent.ResultTTL), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Agent.RequestTimeout)
	defer cancel()

	return redisstore.New(ctx, cfg.Redis, cfg.Agent)
}

//nolint:ireturn
func NewAudit(cfg config.Server) audit.Publisher {
	return audit.New(cfg.Kafka)
}

//nolint:ireturn
func NewClock() time2.Clock {
	return time2.DefaultClock
}
