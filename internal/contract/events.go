package contract

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

const (
	EventSubscriptionCreated   = "SubscriptionCreated"
	EventPaymentExecuted       = "PaymentExecuted"
	EventSubscriptionCancelled = "SubscriptionCancelled"
)

var ErrUnexpectedEvent = errors.New("log does not match the expected event")

type SubscriptionCreated struct {
	ID          *big.Int
	Subscriber  common.Address
	Recipient   common.Address
	Amount      *big.Int
	Frequency   *big.Int
	NextPayment *big.Int
	Balance     *big.Int
	Raw         types.Log
}

type PaymentExecuted struct {
	ID        *big.Int
	Executor  common.Address
	Amount    *big.Int
	Timestamp *big.Int
	Raw       types.Log
}

type SubscriptionCancelled struct {
	ID           *big.Int
	Canceller    common.Address
	RefundAmount *big.Int
	Timestamp    *big.Int
	Raw          types.Log
}

// checkEvent verifies the log's signature topic and returns the indexed topics following it.
func (c *SubFlow) checkEvent(name string, log types.Log, indexed int) ([]common.Hash, error) {
	event, ok := c.abi.Events[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnexpectedEvent, "%s not in ABI", name)
	}

	if len(log.Topics) != indexed+1 || log.Topics[0] != event.ID {
		return nil, errors.Wrap(ErrUnexpectedEvent, name)
	}

	return log.Topics[1:], nil
}

func (c *SubFlow) ParseSubscriptionCreated(log types.Log) (*SubscriptionCreated, error) {
	topics, err := c.checkEvent(EventSubscriptionCreated, log, 3)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Amount      *big.Int `abi:"amount"`
		Frequency   *big.Int `abi:"frequency"`
		NextPayment *big.Int `abi:"nextPayment"`
		Balance     *big.Int `abi:"balance"`
	}
	if err := c.abi.UnpackIntoInterface(&payload, EventSubscriptionCreated, log.Data); err != nil {
		return nil, errors.Wrapf(err, "failed to unpack %s", EventSubscriptionCreated)
	}

	return &SubscriptionCreated{
		ID:          topics[0].Big(),
		Subscriber:  common.BytesToAddress(topics[1].Bytes()),
		Recipient:   common.BytesToAddress(topics[2].Bytes()),
		Amount:      payload.Amount,
		Frequency:   payload.Frequency,
		NextPayment: payload.NextPayment,
		Balance:     payload.Balance,
		Raw:         log,
	}, nil
}

func (c *SubFlow) ParsePaymentExecuted(log types.Log) (*PaymentExecuted, error) {
	topics, err := c.checkEvent(EventPaymentExecuted, log, 2)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Amount    *big.Int `abi:"amount"`
		Timestamp *big.Int `abi:"timestamp"`
	}
	if err := c.abi.UnpackIntoInterface(&payload, EventPaymentExecuted, log.Data); err != nil {
		return nil, errors.Wrapf(err, "failed to unpack %s", EventPaymentExecuted)
	}

	return &PaymentExecuted{
		ID:        topics[0].Big(),
		Executor:  common.BytesToAddress(topics[1].Bytes()),
		Amount:    payload.Amount,
		Timestamp: payload.Timestamp,
		Raw:       log,
	}, nil
}

func (c *SubFlow) ParseSubscriptionCancelled(log types.Log) (*SubscriptionCancelled, error) {
	topics, err := c.checkEvent(EventSubscriptionCancelled, log, 2)
	if err != nil {
		return nil, err
	}

	var payload struct {
		RefundAmount *big.Int `abi:"refundAmount"`
		Timestamp    *big.Int `abi:"timestamp"`
	}
	if err := c.abi.UnpackIntoInterface(&payload, EventSubscriptionCancelled, log.Data); err != nil {
		return nil, errors.Wrapf(err, "failed to unpack %s", EventSubscriptionCancelled)
	}

	return &SubscriptionCancelled{
		ID:           topics[0].Big(),
		Canceller:    common.BytesToAddress(topics[1].Bytes()),
		RefundAmount: payload.RefundAmount,
		Timestamp:    payload.Timestamp,
		Raw:          log,
	}, nil
}
