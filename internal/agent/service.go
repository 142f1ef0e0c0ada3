package agent

import (
	"context"
	"math/big"
	"time"

	"github.com/chapool/subflow-agent/internal/audit"
	"github.com/chapool/subflow-agent/internal/chain"
	"github.com/chapool/subflow-agent/internal/config"
	"github.com/chapool/subflow-agent/internal/contract"
	"github.com/chapool/subflow-agent/internal/keys"
	"github.com/chapool/subflow-agent/internal/util"
	"github.com/dropbox/godropbox/time2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	outcomeOK           = "ok"
	auditPublishTimeout = 5 * time.Second
)

// Recorder receives signing metrics.
type Recorder interface {
	SignCompleted(outcome string, replayed bool, d time.Duration)
	NonceReset()
	ChainID(id int64)
}

// Service runs the signing pipeline: validate, lock the signer account, pick a nonce,
// build, sign, encode. It never broadcasts.
type Service struct {
	validator    *Validator
	builder      *Builder
	signer       *Signer
	allocator    *NonceAllocator
	coordination *Coordination
	client       chain.Client
	contract     *contract.SubFlow
	publisher    audit.Publisher
	recorder     Recorder
	clock        time2.Clock

	configuredChainID int64
	requestTimeout    time.Duration
	includeCoinbase   bool
}

func NewService(
	cfg config.Server,
	client chain.Client,
	credential *keys.Credential,
	coordination *Coordination,
	publisher audit.Publisher,
	recorder Recorder,
	clock time2.Clock,
) (*Service, error) {
	if !common.IsHexAddress(cfg.Executor.ContractAddress) {
		return nil, errors.Errorf("invalid contract address %q", cfg.Executor.ContractAddress)
	}

	subflow, err := contract.New(common.HexToAddress(cfg.Executor.ContractAddress))
	if err != nil {
		return nil, err
	}

	return &Service{
		validator:         NewValidator(cfg.Agent.Secret),
		builder:           NewBuilder(subflow, client, cfg.Chain),
		signer:            NewSigner(credential),
		allocator:         NewNonceAllocator(coordination.Ledger, clock, cfg.Agent.ReservationTTL),
		coordination:      coordination,
		client:            client,
		contract:          subflow,
		publisher:         publisher,
		recorder:          recorder,
		clock:             clock,
		configuredChainID: cfg.Chain.ChainID,
		requestTimeout:    cfg.Agent.RequestTimeout,
		includeCoinbase:   cfg.Agent.IncludeCoinbasePlaceholder,
	}, nil
}

// Address is the executor address transactions are signed by.
func (s *Service) Address() common.Address {
	return s.signer.Address()
}

func (s *Service) ContractAddress() common.Address {
	return s.contract.Address()
}

func (s *Service) IncludeCoinbasePlaceholder() bool {
	return s.includeCoinbase
}

// Sign authenticates req and signs executePayment for its subscription id.
func (s *Service) Sign(ctx context.Context, req SigningRequest) (*SignedTransactionResult, error) {
	start := time.Now()

	res, err := s.sign(ctx, req)

	outcome := outcomeOK
	if err != nil {
		outcome = string(AsError(err).Kind)
	}
	s.recorder.SignCompleted(outcome, res != nil && res.Replayed, time.Since(start))

	return res, err
}

func (s *Service) sign(ctx context.Context, req SigningRequest) (*SignedTransactionResult, error) {
	id, err := s.validator.Validate(req)
	if err != nil {
		return nil, err
	}

	return s.SignSubscription(ctx, id)
}

// SignSubscription signs without the secret check, for trusted local callers such as the CLI.
func (s *Service) SignSubscription(ctx context.Context, id *big.Int) (*SignedTransactionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	// ABI problems surface before any node query or nonce reservation
	if _, err := s.builder.Encode(id); err != nil {
		return nil, err
	}

	chainID, err := s.builder.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	s.recorder.ChainID(chainID.Int64())

	res, err := s.signLocked(ctx, id, chainID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, res)

	return res, nil
}

func (s *Service) signLocked(ctx context.Context, id *big.Int, chainID *big.Int) (*SignedTransactionResult, error) {
	from := s.signer.Address()
	accountKey := chainID.String() + ":" + from.Hex()
	resultKey := chainID.String() + ":" + id.String()

	log := util.LogFromContext(ctx).With().
		Str("subscription_id", id.String()).
		Str("from", from.Hex()).
		Logger()

	unlock, err := s.coordination.Locker.Lock(ctx, accountKey)
	if err != nil {
		return nil, chainUnavailable(err, "Signer account is busy, retry later")
	}
	defer unlock()

	pending, err := s.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, chainUnavailable(err, "Failed to fetch pending nonce")
	}

	cached, ok, err := s.coordination.Results.Get(ctx, resultKey)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read result store, signing again")
	} else if ok && cached.From == from {
		replayable, err := s.allocator.Replayable(ctx, accountKey, pending, cached.Nonce, cached.SignedAt)
		if err != nil {
			return nil, chainUnavailable(err, "Nonce ledger unavailable")
		}

		if replayable {
			log.Info().Uint64("nonce", cached.Nonce).Str("tx_hash", cached.Hash.Hex()).Msg("Returning previously signed transaction")
			cached.Replayed = true
			return cached, nil
		}
	}

	nonce, reset, err := s.allocator.Reserve(ctx, accountKey, pending)
	if err != nil {
		return nil, chainUnavailable(err, "Nonce ledger unavailable")
	}
	if reset {
		log.Warn().Uint64("chain_pending_nonce", pending).Msg("Discarding stale nonce reservation")
		s.recorder.NonceReset()
	}

	unsigned, err := s.builder.Build(ctx, id, nonce, chainID)
	if err != nil {
		return nil, err
	}

	signed, err := s.signer.Sign(unsigned)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sign transaction")
		return nil, err
	}

	res, err := newSignedTransactionResult(signed, from, id, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.allocator.Confirm(ctx, accountKey, nonce); err != nil {
		return nil, chainUnavailable(err, "Nonce ledger unavailable")
	}

	if err := s.coordination.Results.Put(ctx, resultKey, res); err != nil {
		log.Warn().Err(err).Msg("Failed to store signed result, retries will sign again")
	}

	log.Info().
		Uint64("nonce", nonce).
		Uint64("chain_pending_nonce", pending).
		Str("tx_hash", res.Hash.Hex()).
		Bool("dynamic_fee", unsigned.Fees.Dynamic()).
		Msg("Signed executePayment transaction")

	return res, nil
}

// publish emits the audit event. Failures are logged only, the signed transaction is already final.
func (s *Service) publish(ctx context.Context, res *SignedTransactionResult) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditPublishTimeout)
	defer cancel()

	event := audit.Event{
		ID:             uuid.New(),
		Type:           audit.EventTypeTransactionSigned,
		OccurredAt:     s.clock.Now(),
		SubscriptionID: res.SubscriptionID.String(),
		ChainID:        res.ChainID.Int64(),
		From:           res.From.Hex(),
		To:             res.To.Hex(),
		Nonce:          res.Nonce,
		TxHash:         res.Hash.Hex(),
		Replayed:       res.Replayed,
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		util.LogFromContext(ctx).Warn().Err(err).Str("tx_hash", event.TxHash).Msg("Failed to publish audit event")
	}
}

// GetSubscription reads the subscription stored under the raw id.
func (s *Service) GetSubscription(ctx context.Context, raw string) (*contract.Subscription, error) {
	id, err := ParseSubscriptionID(raw)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	sub, err := s.contract.GetSubscription(ctx, s.client, id)
	if err != nil {
		return nil, chainUnavailable(err, "Failed to read subscription")
	}

	return sub, nil
}

// CheckChain verifies the node is reachable and serves the configured chain.
func (s *Service) CheckChain(ctx context.Context) error {
	id, err := s.client.ChainID(ctx)
	if err != nil {
		return chainUnavailable(err, "Failed to fetch chain id")
	}

	if s.configuredChainID > 0 && id.Int64() != s.configuredChainID {
		return chainUnavailable(errors.Errorf("node serves chain %s, expected %d", id, s.configuredChainID), "Chain id mismatch")
	}

	return nil
}
