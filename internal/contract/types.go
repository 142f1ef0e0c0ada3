package contract

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type Subscription struct {
	ID          *big.Int
	Subscriber  common.Address
	Recipient   common.Address
	Amount      *big.Int
	Frequency   *big.Int
	NextPayment *big.Int
	Balance     *big.Int
	Active      bool
}

// Exists is false for ids the contract never assigned, which read back as the zero tuple.
func (s *Subscription) Exists() bool {
	return s.Subscriber != (common.Address{})
}

// Due reports whether executePayment would be expected to succeed at now:
// active, next payment reached and the balance covers one period.
func (s *Subscription) Due(now time.Time) bool {
	if !s.Active || s.NextPayment == nil || s.Balance == nil || s.Amount == nil {
		return false
	}

	return s.NextPayment.Cmp(big.NewInt(now.Unix())) <= 0 && s.Balance.Cmp(s.Amount) >= 0
}

type subscriptionTuple struct {
	Subscriber  common.Address `abi:"subscriber"`
	Recipient   common.Address `abi:"recipient"`
	Amount      *big.Int       `abi:"amount"`
	Frequency   *big.Int       `abi:"frequency"`
	NextPayment *big.Int       `abi:"nextPayment"`
	Balance     *big.Int       `abi:"balance"`
	Active      bool           `abi:"active"`
}

func (t subscriptionTuple) toSubscription(id *big.Int) *Subscription {
	return &Subscription{
		ID:          new(big.Int).Set(id),
		Subscriber:  t.Subscriber,
		Recipient:   t.Recipient,
		Amount:      t.Amount,
		Frequency:   t.Frequency,
		NextPayment: t.NextPayment,
		Balance:     t.Balance,
		Active:      t.Active,
	}
}
