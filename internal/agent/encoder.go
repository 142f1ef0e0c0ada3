package agent

import (
	"math/big"
	"time"

	"github.com/chapool/subflow-agent/internal/contract"
	"github.com/chapool/subflow-agent/internal/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
)

// coinbasePlaceholder is the 20 zero byte address older callers expect next to the signed bytes.
var coinbasePlaceholder = make([]byte, common.AddressLength)

// SignedTransactionResult is the outcome of a signing request. It is also the unit stored for replays.
type SignedTransactionResult struct {
	Raw            hexutil.Bytes  `json:"raw"`
	Hash           common.Hash    `json:"hash"`
	From           common.Address `json:"from"`
	To             common.Address `json:"to"`
	Nonce          uint64         `json:"nonce"`
	SubscriptionID *big.Int       `json:"subscriptionId"`
	ChainID        *big.Int       `json:"chainId"`
	SignedAt       time.Time      `json:"signedAt"`
	Replayed       bool           `json:"-"`
}

// SignedHex is the 0x prefixed hex encoding of the raw signed transaction.
func (r *SignedTransactionResult) SignedHex() string {
	return hexutil.Encode(r.Raw)
}

func newSignedTransactionResult(tx *ethtypes.Transaction, from common.Address, id *big.Int, signedAt time.Time) (*SignedTransactionResult, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, signingError(err, "Failed to encode signed transaction")
	}

	var to common.Address
	if tx.To() != nil {
		to = *tx.To()
	}

	return &SignedTransactionResult{
		Raw:            raw,
		Hash:           tx.Hash(),
		From:           from,
		To:             to,
		Nonce:          tx.Nonce(),
		SubscriptionID: new(big.Int).Set(id),
		ChainID:        tx.ChainId(),
		SignedAt:       signedAt,
	}, nil
}

// NewSignTransactionResponse renders the public response. includeCoinbase adds the
// coinbaseBase64 placeholder.
func NewSignTransactionResponse(r *SignedTransactionResult, includeCoinbase bool) *types.SignTransactionResponse {
	rlp := strfmt.Base64(r.Raw)

	res := &types.SignTransactionResponse{
		ChainID:   swag.Int64(r.ChainID.Int64()),
		From:      swag.String(r.From.Hex()),
		Nonce:     swag.Int64(int64(r.Nonce)), //nolint:gosec
		Replayed:  r.Replayed,
		RlpBase64: &rlp,
		SignedHex: swag.String(r.SignedHex()),
		TxHash:    swag.String(r.Hash.Hex()),
	}

	if includeCoinbase {
		res.CoinbaseBase64 = strfmt.Base64(coinbasePlaceholder)
	}

	return res
}

// NewSubscriptionResponse renders sub with its dueness at now. uint256 values are decimal strings.
func NewSubscriptionResponse(sub *contract.Subscription, now time.Time) *types.SubscriptionResponse {
	return &types.SubscriptionResponse{
		ID:          swag.String(sub.ID.String()),
		Subscriber:  swag.String(sub.Subscriber.Hex()),
		Recipient:   swag.String(sub.Recipient.Hex()),
		Amount:      swag.String(sub.Amount.String()),
		Frequency:   swag.String(sub.Frequency.String()),
		NextPayment: swag.String(sub.NextPayment.String()),
		Balance:     swag.String(sub.Balance.String()),
		Active:      swag.Bool(sub.Active),
		Due:         swag.Bool(sub.Due(now)),
	}
}
