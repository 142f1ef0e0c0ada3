package agent

import (
	"context"
	"math/big"

	"github.com/chapool/subflow-agent/internal/chain"
	"github.com/chapool/subflow-agent/internal/config"
	"github.com/chapool/subflow-agent/internal/util"
)

// Fees carries either a legacy gas price or an EIP-1559 tip/fee cap pair.
type Fees struct {
	GasPrice  *big.Int
	GasTipCap *big.Int
	GasFeeCap *big.Int
}

func (f Fees) Dynamic() bool {
	return f.GasFeeCap != nil
}

// FeeOracle derives fees from the node. Values the node does not provide fall back to the configured constants.
type FeeOracle struct {
	client         chain.Client
	mode           string
	fallbackTip    *big.Int
	fallbackMaxFee *big.Int
}

func NewFeeOracle(client chain.Client, cfg config.Chain) *FeeOracle {
	mode := cfg.FeeMode
	if mode == "" {
		mode = config.FeeModeAuto
	}

	return &FeeOracle{
		client:         client,
		mode:           mode,
		fallbackTip:    new(big.Int).SetUint64(cfg.FallbackPriorityFeeWei),
		fallbackMaxFee: new(big.Int).SetUint64(cfg.FallbackMaxFeeWei),
	}
}

func (o *FeeOracle) Suggest(ctx context.Context) (Fees, error) {
	switch o.mode {
	case config.FeeModeLegacy:
		return o.legacy(ctx)
	case config.FeeModeEIP1559:
		header, err := o.client.HeaderByNumber(ctx, nil)
		if err != nil {
			return Fees{}, chainUnavailable(err, "Failed to fetch latest block header")
		}
		return o.dynamic(ctx, header.BaseFee)
	default:
		header, err := o.client.HeaderByNumber(ctx, nil)
		if err != nil {
			return Fees{}, chainUnavailable(err, "Failed to fetch latest block header")
		}
		if header.BaseFee == nil {
			return o.legacy(ctx)
		}
		return o.dynamic(ctx, header.BaseFee)
	}
}

func (o *FeeOracle) legacy(ctx context.Context) (Fees, error) {
	price, err := o.client.SuggestGasPrice(ctx)
	if err != nil && !chain.IsMethodNotFound(err) {
		return Fees{}, chainUnavailable(err, "Failed to fetch gas price")
	}

	if err != nil || isZero(price) {
		util.LogFromContext(ctx).Debug().Str("gas_price_gwei", util.FormatGwei(o.fallbackMaxFee)).Msg("Node reported no gas price, using fallback")
		price = new(big.Int).Set(o.fallbackMaxFee)
	}

	return Fees{GasPrice: price}, nil
}

// dynamic computes maxFee = 2*baseFee + tip, the headroom covering base fee growth over a few blocks.
func (o *FeeOracle) dynamic(ctx context.Context, baseFee *big.Int) (Fees, error) {
	log := util.LogFromContext(ctx)

	tip, err := o.client.SuggestGasTipCap(ctx)
	if err != nil && !chain.IsMethodNotFound(err) {
		return Fees{}, chainUnavailable(err, "Failed to fetch priority fee")
	}

	if err != nil || isZero(tip) {
		log.Debug().Str("tip_gwei", util.FormatGwei(o.fallbackTip)).Msg("Node reported no priority fee, using fallback")
		tip = new(big.Int).Set(o.fallbackTip)
	}

	var maxFee *big.Int
	if baseFee == nil {
		maxFee = new(big.Int).Set(o.fallbackMaxFee)
	} else {
		maxFee = new(big.Int).Mul(baseFee, big.NewInt(2))
		maxFee.Add(maxFee, tip)
	}

	// the fee cap may never be below the tip
	if maxFee.Cmp(tip) < 0 {
		maxFee = new(big.Int).Set(tip)
	}

	log.Debug().
		Str("tip_gwei", util.FormatGwei(tip)).
		Str("max_fee_gwei", util.FormatGwei(maxFee)).
		Msg("Computed EIP-1559 fees")

	return Fees{GasTipCap: tip, GasFeeCap: maxFee}, nil
}

func isZero(v *big.Int) bool {
	return v == nil || v.Sign() == 0
}
