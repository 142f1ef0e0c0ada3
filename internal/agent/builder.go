package agent

import (
	"context"
	"math/big"
	"sync"

	"github.com/chapool/subflow-agent/internal/chain"
	"github.com/chapool/subflow-agent/internal/config"
	"github.com/chapool/subflow-agent/internal/contract"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// UnsignedTransaction is a fully specified executePayment call awaiting a signature.
type UnsignedTransaction struct {
	To       common.Address
	Data     []byte
	Nonce    uint64
	ChainID  *big.Int
	GasLimit uint64
	Value    *big.Int
	Fees     Fees
}

// TxData returns the go-ethereum representation, a DynamicFeeTx when EIP-1559 fees are set.
func (u *UnsignedTransaction) TxData() types.TxData {
	to := u.To

	if u.Fees.Dynamic() {
		return &types.DynamicFeeTx{
			ChainID:   u.ChainID,
			Nonce:     u.Nonce,
			GasTipCap: u.Fees.GasTipCap,
			GasFeeCap: u.Fees.GasFeeCap,
			Gas:       u.GasLimit,
			To:        &to,
			Value:     u.Value,
			Data:      u.Data,
		}
	}

	return &types.LegacyTx{
		Nonce:    u.Nonce,
		GasPrice: u.Fees.GasPrice,
		Gas:      u.GasLimit,
		To:       &to,
		Value:    u.Value,
		Data:     u.Data,
	}
}

// Builder assembles executePayment transactions against the configured contract.
type Builder struct {
	contract *contract.SubFlow
	client   chain.Client
	fees     *FeeOracle
	gasLimit uint64

	chainIDMu sync.Mutex
	chainID   *big.Int
}

func NewBuilder(subflow *contract.SubFlow, client chain.Client, cfg config.Chain) *Builder {
	b := &Builder{
		contract: subflow,
		client:   client,
		fees:     NewFeeOracle(client, cfg),
		gasLimit: cfg.GasLimit,
	}

	if cfg.ChainID > 0 {
		b.chainID = big.NewInt(cfg.ChainID)
	}

	return b
}

// ChainID returns the configured chain id, or asks the node once and caches the answer.
func (b *Builder) ChainID(ctx context.Context) (*big.Int, error) {
	b.chainIDMu.Lock()
	defer b.chainIDMu.Unlock()

	if b.chainID != nil {
		return new(big.Int).Set(b.chainID), nil
	}

	id, err := b.client.ChainID(ctx)
	if err != nil {
		return nil, chainUnavailable(err, "Failed to fetch chain id")
	}

	b.chainID = new(big.Int).Set(id)

	return id, nil
}

// Encode returns the executePayment calldata for id. It does not touch the network.
func (b *Builder) Encode(id *big.Int) ([]byte, error) {
	data, err := b.contract.PackExecutePayment(id)
	if err != nil {
		return nil, encodingError(err, "executePayment is not available in the contract ABI")
	}

	return data, nil
}

// Build fills in fees for an executePayment(id) call at nonce.
func (b *Builder) Build(ctx context.Context, id *big.Int, nonce uint64, chainID *big.Int) (*UnsignedTransaction, error) {
	data, err := b.Encode(id)
	if err != nil {
		return nil, err
	}

	fees, err := b.fees.Suggest(ctx)
	if err != nil {
		return nil, err
	}

	return &UnsignedTransaction{
		To:       b.contract.Address(),
		Data:     data,
		Nonce:    nonce,
		ChainID:  new(big.Int).Set(chainID),
		GasLimit: b.gasLimit,
		Value:    new(big.Int),
		Fees:     fees,
	}, nil
}
