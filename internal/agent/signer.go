package agent

import (
	"github.com/chapool/subflow-agent/internal/keys"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

// Signer signs with the executor credential. EIP-155 protects legacy transactions,
// dynamic fee transactions use the London signer, both selected by LatestSignerForChainID.
type Signer struct {
	credential *keys.Credential
}

func NewSigner(credential *keys.Credential) *Signer {
	return &Signer{credential: credential}
}

func (s *Signer) Address() common.Address {
	return s.credential.Address()
}

func (s *Signer) Sign(u *UnsignedTransaction) (*types.Transaction, error) {
	key := s.credential.PrivateKey()
	if key == nil {
		return nil, signingError(errors.New("executor credential destroyed"), ErrSigning.Msg)
	}

	if u.ChainID == nil || u.ChainID.Sign() <= 0 {
		return nil, signingError(errors.New("missing chain id"), ErrSigning.Msg)
	}

	signed, err := types.SignTx(types.NewTx(u.TxData()), types.LatestSignerForChainID(u.ChainID), key)
	if err != nil {
		return nil, signingError(err, ErrSigning.Msg)
	}

	return signed, nil
}
