package contract

import (
	"bytes"
	"context"
	_ "embed"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

const (
	MethodExecutePayment     = "executePayment"
	MethodGetSubscription    = "getSubscription"
	MethodCreateSubscription = "createSubscription"
	MethodTopUp              = "topUp"
	MethodCancelSubscription = "cancelSubscription"
	MethodNextID             = "nextId"
)

var ErrMethodNotFound = errors.New("method not found in contract ABI")

//go:embed subflow.abi.json
var subflowABIJSON []byte

var (
	parsedABI     abi.ABI
	parsedABIErr  error
	parsedABIOnce sync.Once
)

// ABI returns the parsed SubFlow contract ABI.
func ABI() (abi.ABI, error) {
	parsedABIOnce.Do(func() {
		parsedABI, parsedABIErr = abi.JSON(bytes.NewReader(subflowABIJSON))
	})

	return parsedABI, parsedABIErr
}

// SubFlow is a typed adapter for the recurring payments contract deployed at Address.
type SubFlow struct {
	abi     abi.ABI
	address common.Address
}

func New(address common.Address) (*SubFlow, error) {
	parsed, err := ABI()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse SubFlow ABI")
	}

	return NewWithABI(address, parsed), nil
}

// NewWithABI binds address to an arbitrary ABI, e.g. an older contract revision.
func NewWithABI(address common.Address, parsed abi.ABI) *SubFlow {
	return &SubFlow{abi: parsed, address: address}
}

func (c *SubFlow) Address() common.Address {
	return c.address
}

func (c *SubFlow) pack(method string, args ...interface{}) ([]byte, error) {
	if _, ok := c.abi.Methods[method]; !ok {
		return nil, errors.Wrap(ErrMethodNotFound, method)
	}

	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to pack %s", method)
	}

	return data, nil
}

// PackExecutePayment encodes the executePayment(uint256) call.
func (c *SubFlow) PackExecutePayment(id *big.Int) ([]byte, error) {
	return c.pack(MethodExecutePayment, id)
}

// UnpackExecutePayment decodes executePayment calldata back into the subscription id.
func (c *SubFlow) UnpackExecutePayment(data []byte) (*big.Int, error) {
	method, ok := c.abi.Methods[MethodExecutePayment]
	if !ok {
		return nil, errors.Wrap(ErrMethodNotFound, MethodExecutePayment)
	}

	if len(data) < 4 || !bytes.Equal(data[:4], method.ID) {
		return nil, errors.New("calldata does not start with the executePayment selector")
	}

	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, errors.Wrap(err, "failed to unpack executePayment arguments")
	}

	id, ok := args[0].(*big.Int)
	if !ok {
		return nil, errors.New("executePayment argument is not a uint256")
	}

	return id, nil
}

func (c *SubFlow) PackCreateSubscription(recipient common.Address, amount, frequency *big.Int) ([]byte, error) {
	return c.pack(MethodCreateSubscription, recipient, amount, frequency)
}

func (c *SubFlow) PackTopUp(id *big.Int) ([]byte, error) {
	return c.pack(MethodTopUp, id)
}

func (c *SubFlow) PackCancelSubscription(id *big.Int) ([]byte, error) {
	return c.pack(MethodCancelSubscription, id)
}

func (c *SubFlow) call(ctx context.Context, caller ethereum.ContractCaller, out interface{}, method string, args ...interface{}) error {
	data, err := c.pack(method, args...)
	if err != nil {
		return err
	}

	to := c.address
	res, err := caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to call %s", method)
	}

	if len(res) == 0 {
		return errors.Errorf("empty result calling %s, is %s a SubFlow contract?", method, c.address.Hex())
	}

	if err := c.abi.UnpackIntoInterface(out, method, res); err != nil {
		return errors.Wrapf(err, "failed to unpack %s result", method)
	}

	return nil
}

// GetSubscription reads the subscription tuple stored under id.
func (c *SubFlow) GetSubscription(ctx context.Context, caller ethereum.ContractCaller, id *big.Int) (*Subscription, error) {
	var out subscriptionTuple
	if err := c.call(ctx, caller, &out, MethodGetSubscription, id); err != nil {
		return nil, err
	}

	return out.toSubscription(id), nil
}

// NextID returns the id the contract will assign to the next subscription.
func (c *SubFlow) NextID(ctx context.Context, caller ethereum.ContractCaller) (*big.Int, error) {
	var out *big.Int
	if err := c.call(ctx, caller, &out, MethodNextID); err != nil {
		return nil, err
	}

	return out, nil
}
