package agent_test

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/chapool/subflow-agent/internal/agent"
	"github.com/chapool/subflow-agent/internal/audit"
	"github.com/chapool/subflow-agent/internal/chain/mocks"
	"github.com/chapool/subflow-agent/internal/config"
	"github.com/chapool/subflow-agent/internal/contract"
	"github.com/chapool/subflow-agent/internal/keys"
	"github.com/dropbox/godropbox/time2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/go-openapi/strfmt"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "dev-secret"
	testKey      = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testContract = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
)

var testExecutor = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

type recorder struct {
	mu       sync.Mutex
	outcomes []string
	replayed int
	resets   int
}

func (r *recorder) SignCompleted(outcome string, replayed bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.outcomes = append(r.outcomes, outcome)
	if replayed {
		r.replayed++
	}
}

func (r *recorder) NonceReset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.resets++
}

func (r *recorder) ChainID(int64) {}

type capturingPublisher struct {
	mu     sync.Mutex
	events []audit.Event
}

func (p *capturingPublisher) Publish(_ context.Context, e audit.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, e)
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

func testConfig() config.Server {
	return config.Server{
		Chain: config.Chain{
			ChainID:                config.ChainIDFlowEVMTestnet,
			CallTimeout:            time.Second,
			FeeMode:                config.FeeModeAuto,
			GasLimit:               300000,
			FallbackPriorityFeeWei: 1_000_000_000,
			FallbackMaxFeeWei:      60_000_000_000,
		},
		Executor: config.Executor{
			PrivateKey:      testKey,
			ContractAddress: testContract,
		},
		Agent: config.Agent{
			Secret:         testSecret,
			RequestTimeout: 5 * time.Second,
			ReservationTTL: 2 * time.Minute,
			LockTTL:        30 * time.Second,
			ResultTTL:      10 * time.Minute,
		},
	}
}

type fixture struct {
	service   *agent.Service
	client    *mocks.Client
	clock     *time2.MockClock
	recorder  *recorder
	publisher *capturingPublisher
}

func newFixture(t *testing.T, cfg config.Server) *fixture {
	t.Helper()

	cred, err := keys.FromHex(cfg.Executor.PrivateKey)
	require.NoError(t, err)

	f := &fixture{
		client:    mocks.NewClient(t),
		clock:     time2.NewMockClock(time.Unix(1_700_000_000, 0)),
		recorder:  &recorder{},
		publisher: &capturingPublisher{},
	}

	f.service, err = agent.NewService(cfg, f.client, cred, agent.NewMemoryCoordination(cfg.Agent.ResultTTL), f.publisher, f.recorder, f.clock)
	require.NoError(t, err)

	return f
}

// expectLondonChain stubs a node with a 1 gwei base fee and 2 gwei tip.
func (f *fixture) expectLondonChain() {
	f.client.On("HeaderByNumber", mock.Anything, (*big.Int)(nil)).Return(&types.Header{BaseFee: big.NewInt(1_000_000_000)}, nil).Maybe()
	f.client.On("SuggestGasTipCap", mock.Anything).Return(big.NewInt(2_000_000_000), nil).Maybe()
}

func decode(t *testing.T, res *agent.SignedTransactionResult) *types.Transaction {
	t.Helper()

	var tx types.Transaction
	require.NoError(t, tx.UnmarshalBinary(res.Raw))

	return &tx
}

func TestSignEndToEnd(t *testing.T) {
	f := newFixture(t, testConfig())
	f.expectLondonChain()
	f.client.On("PendingNonceAt", mock.Anything, testExecutor).Return(uint64(3), nil).Once()

	res, err := f.service.Sign(t.Context(), agent.SigningRequest{Secret: testSecret, SubscriptionID: "7"})
	require.NoError(t, err)

	assert.Equal(t, uint64(3), res.Nonce)
	assert.Equal(t, int64(545), res.ChainID.Int64())
	assert.Equal(t, testExecutor, res.From)
	assert.Equal(t, "0x", res.SignedHex()[:2])
	assert.False(t, res.Replayed)

	tx := decode(t, res)
	assert.Equal(t, common.HexToAddress(testContract), *tx.To())
	assert.Equal(t, uint64(3), tx.Nonce())
	assert.Equal(t, uint64(300000), tx.Gas())
	assert.Equal(t, 0, tx.Value().Sign())
	assert.Equal(t, uint8(types.DynamicFeeTxType), tx.Type())
	assert.Equal(t, int64(2_000_000_000), tx.GasTipCap().Int64())
	assert.Equal(t, int64(4_000_000_000), tx.GasFeeCap().Int64())

	sender, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	require.NoError(t, err)
	assert.Equal(t, testExecutor, sender)

	subflow, err := contract.New(common.HexToAddress(testContract))
	require.NoError(t, err)
	id, err := subflow.UnpackExecutePayment(tx.Data())
	require.NoError(t, err)
	assert.Equal(t, int64(7), id.Int64())

	assert.Equal(t, []string{"ok"}, f.recorder.outcomes)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, res.Hash.Hex(), f.publisher.events[0].TxHash)
	assert.Equal(t, "7", f.publisher.events[0].SubscriptionID)

	response := agent.NewSignTransactionResponse(res, false)
	require.NoError(t, response.Validate(strfmt.Default))
	assert.Empty(t, response.CoinbaseBase64)
	assert.Len(t, agent.NewSignTransactionResponse(res, true).CoinbaseBase64, common.AddressLength)
}

func TestSignWrongSecretMakesNoChainCalls(t *testing.T) {
	f := newFixture(t, testConfig())

	_, err := f.service.Sign(t.Context(), agent.SigningRequest{Secret: "wrong", SubscriptionID: "7"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, agent.ErrUnauthorized))

	f.client.AssertNotCalled(t, "PendingNonceAt", mock.Anything, mock.Anything)
	f.client.AssertNotCalled(t, "ChainID", mock.Anything)
	assert.Equal(t, []string{string(agent.KindUnauthorized)}, f.recorder.outcomes)
	assert.Empty(t, f.publisher.events)
}

func TestSignBadIDMakesNoChainCalls(t *testing.T) {
	f := newFixture(t, testConfig())

	for _, raw := range []string{"", "abc", "-1", "1.5"} {
		_, err := f.service.Sign(t.Context(), agent.SigningRequest{Secret: testSecret, SubscriptionID: raw})
		assert.True(t, errors.Is(err, agent.ErrBadRequest), raw)
	}

	f.client.AssertNotCalled(t, "PendingNonceAt", mock.Anything, mock.Anything)
}

func TestSignChainUnavailable(t *testing.T) {
	f := newFixture(t, testConfig())
	f.client.On("PendingNonceAt", mock.Anything, testExecutor).Return(uint64(0), errors.New("connection refused")).Once()

	_, err := f.service.Sign(t.Context(), agent.SigningRequest{Secret: testSecret, SubscriptionID: "7"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, agent.ErrChainUnavailable))
	assert.True(t, agent.AsError(err).Retryable())
	assert.NotContains(t, agent.AsError(err).Msg, "connection refused")
}

func TestSignIsDeterministic(t *testing.T) {
	cfg := testConfig()
	cfg.Chain.FeeMode = config.FeeModeLegacy

	var raws [][]byte
	for range 2 {
		f := newFixture(t, cfg)
		f.client.On("SuggestGasPrice", mock.Anything).Return(big.NewInt(5_000_000_000), nil).Once()
		f.client.On("PendingNonceAt", mock.Anything, testExecutor).Return(uint64(9), nil).Once()

		res, err := f.service.Sign(t.Context(), agent.SigningRequest{Secret: testSecret, SubscriptionID: "11"})
		require.NoError(t, err)

		tx := decode(t, res)
		assert.Equal(t, uint8(types.LegacyTxType), tx.Type())
		assert.Equal(t, int64(5_000_000_000), tx.GasPrice().Int64())

		raws = append(raws, res.Raw)
	}

	assert.Equal(t, raws[0], raws[1])
}

func TestSignConcurrentRequestsNeverShareNonce(t *testing.T) {
	f := newFixture(t, testConfig())
	f.expectLondonChain()
	// the node never sees a broadcast, so the ledger alone keeps nonces apart
	f.client.On("PendingNonceAt", mock.Anything, testExecutor).Return(uint64(5), nil)

	const n = 10

	var wg sync.WaitGroup
	nonces := make(chan uint64, n)
	errs := make(chan error, n)

	for i := range n {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			res, err := f.service.Sign(context.Background(), agent.SigningRequest{Secret: testSecret, SubscriptionID: big.NewInt(int64(id + 1)).String()})
			if err != nil {
				errs <- err
				return
			}
			nonces <- res.Nonce
		}(i)
	}

	wg.Wait()
	close(nonces)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	seen := make(map[uint64]bool)
	for nonce := range nonces {
		assert.False(t, seen[nonce], "nonce %d handed out twice", nonce)
		seen[nonce] = true
	}

	assert.Len(t, seen, n)
	for nonce := uint64(5); nonce < 5+n; nonce++ {
		assert.True(t, seen[nonce], "nonce %d missing", nonce)
	}
}

func TestSignReplaysUnconsumedResult(t *testing.T) {
	f := newFixture(t, testConfig())
	f.expectLondonChain()
	f.client.On("PendingNonceAt", mock.Anything, testExecutor).Return(uint64(3), nil).Twice()

	first, err := f.service.Sign(t.Context(), agent.SigningRequest{Secret: testSecret, SubscriptionID: "7"})
	require.NoError(t, err)

	second, err := f.service.Sign(t.Context(), agent.SigningRequest{Secret: testSecret, SubscriptionID: "7"})
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.Raw, second.Raw)
	assert.Equal(t, first.Nonce, second.Nonce)
	assert.Equal(t, 1, f.recorder.replayed)

	// the chain consumed nonce 3, the same subscription is signed afresh
	f.client.On("PendingNonceAt", mock.Anything, testExecutor).Return(uint64(4), nil).Once()

	third, err := f.service.Sign(t.Context(), agent.SigningRequest{Secret: testSecret, SubscriptionID: "7"})
	require.NoError(t, err)
	assert.False(t, third.Replayed)
	assert.Equal(t, uint64(4), third.Nonce)
}

func TestSignResetsStaleReservation(t *testing.T) {
	f := newFixture(t, testConfig())
	f.expectLondonChain()
	f.client.On("PendingNonceAt", mock.Anything, testExecutor).Return(uint64(3), nil)

	first, err := f.service.Sign(t.Context(), agent.SigningRequest{Secret: testSecret, SubscriptionID: "1"})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), first.Nonce)

	second, err := f.service.Sign(t.Context(), agent.SigningRequest{Secret: testSecret, SubscriptionID: "2"})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), second.Nonce)

	// nothing was broadcast within the reservation ttl
	f.clock.Advance(3 * time.Minute)

	third, err := f.service.Sign(t.Context(), agent.SigningRequest{Secret: testSecret, SubscriptionID: "3"})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), third.Nonce)
	assert.Equal(t, 1, f.recorder.resets)
}

func TestSignResetVoidsEarlierResults(t *testing.T) {
	f := newFixture(t, testConfig())
	f.expectLondonChain()
	f.client.On("PendingNonceAt", mock.Anything, testExecutor).Return(uint64(3), nil)

	first, err := f.service.Sign(t.Context(), agent.SigningRequest{Secret: testSecret, SubscriptionID: "1"})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), first.Nonce)

	f.clock.Advance(3 * time.Minute)

	second, err := f.service.Sign(t.Context(), agent.SigningRequest{Secret: testSecret, SubscriptionID: "2"})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), second.Nonce)
	assert.Equal(t, 1, f.recorder.resets)

	// nonce 3 now belongs to subscription 2, the earlier signature must not come back
	retried, err := f.service.Sign(t.Context(), agent.SigningRequest{Secret: testSecret, SubscriptionID: "1"})
	require.NoError(t, err)
	assert.False(t, retried.Replayed)
	assert.Equal(t, uint64(4), retried.Nonce)
	assert.NotEqual(t, first.Raw, retried.Raw)

	again, err := f.service.Sign(t.Context(), agent.SigningRequest{Secret: testSecret, SubscriptionID: "2"})
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, second.Raw, again.Raw)

	assert.Equal(t, 1, f.recorder.replayed)
	assert.Equal(t, 1, f.recorder.resets)
}

func TestSignStaleResultIsNotReplayed(t *testing.T) {
	f := newFixture(t, testConfig())
	f.expectLondonChain()
	f.client.On("PendingNonceAt", mock.Anything, testExecutor).Return(uint64(3), nil)

	first, err := f.service.Sign(t.Context(), agent.SigningRequest{Secret: testSecret, SubscriptionID: "1"})
	require.NoError(t, err)

	// the reservation expired, the retry resets the ledger and signs again
	f.clock.Advance(3 * time.Minute)

	retried, err := f.service.Sign(t.Context(), agent.SigningRequest{Secret: testSecret, SubscriptionID: "1"})
	require.NoError(t, err)
	assert.False(t, retried.Replayed)
	assert.Equal(t, first.Nonce, retried.Nonce)
	assert.Equal(t, 1, f.recorder.resets)

	other, err := f.service.Sign(t.Context(), agent.SigningRequest{Secret: testSecret, SubscriptionID: "2"})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), other.Nonce)
}

func TestSignLooksUpChainID(t *testing.T) {
	cfg := testConfig()
	cfg.Chain.ChainID = 0
	cfg.Chain.FeeMode = config.FeeModeLegacy

	f := newFixture(t, cfg)
	f.client.On("ChainID", mock.Anything).Return(big.NewInt(747), nil).Once()
	f.client.On("SuggestGasPrice", mock.Anything).Return(big.NewInt(0), nil)
	f.client.On("PendingNonceAt", mock.Anything, testExecutor).Return(uint64(0), nil)

	for _, id := range []string{"1", "2"} {
		res, err := f.service.Sign(t.Context(), agent.SigningRequest{Secret: testSecret, SubscriptionID: id})
		require.NoError(t, err)
		assert.Equal(t, int64(747), res.ChainID.Int64())

		// zero gas price falls back to the max fee constant
		assert.Equal(t, int64(60_000_000_000), decode(t, res).GasPrice().Int64())
	}
}

func TestGetSubscription(t *testing.T) {
	f := newFixture(t, testConfig())

	parsed, err := contract.ABI()
	require.NoError(t, err)

	encoded, err := parsed.Methods[contract.MethodGetSubscription].Outputs.Pack(
		testExecutor, common.HexToAddress(testContract),
		big.NewInt(10), big.NewInt(60), big.NewInt(f.clock.Now().Unix()), big.NewInt(100), true,
	)
	require.NoError(t, err)

	f.client.On("CallContract", mock.Anything, mock.Anything, (*big.Int)(nil)).Return(encoded, nil).Once()

	sub, err := f.service.GetSubscription(t.Context(), "3")
	require.NoError(t, err)
	assert.Equal(t, int64(3), sub.ID.Int64())
	assert.True(t, sub.Due(f.clock.Now()))

	_, err = f.service.GetSubscription(t.Context(), "x")
	assert.True(t, errors.Is(err, agent.ErrBadRequest))
}

func TestCheckChain(t *testing.T) {
	f := newFixture(t, testConfig())

	f.client.On("ChainID", mock.Anything).Return(big.NewInt(545), nil).Once()
	require.NoError(t, f.service.CheckChain(t.Context()))

	f.client.On("ChainID", mock.Anything).Return(big.NewInt(747), nil).Once()
	assert.True(t, errors.Is(f.service.CheckChain(t.Context()), agent.ErrChainUnavailable))
}

func TestNewServiceRejectsInvalidContract(t *testing.T) {
	cfg := testConfig()
	cfg.Executor.ContractAddress = "not-an-address"

	cred, err := keys.FromHex(testKey)
	require.NoError(t, err)

	_, err = agent.NewService(cfg, mocks.NewClient(t), cred, agent.NewMemoryCoordination(time.Minute), audit.NoopPublisher{}, &recorder{}, time2.DefaultClock)
	require.Error(t, err)
}
