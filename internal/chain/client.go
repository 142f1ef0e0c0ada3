package chain

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Client is the subset of the node API the agent needs. *ethclient.Client, the simulated
// backend's client and RPCClient all satisfy it.
type Client interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

var _ Client = (*RPCClient)(nil)

// RPCClient wraps one ethclient per configured URL and fails over to the next URL
// when a call does not succeed. Every call is bounded by callTimeout.
type RPCClient struct {
	urls        []string
	clients     []*ethclient.Client
	callTimeout time.Duration

	mu      sync.RWMutex
	current int
}

// NewRPCClient dials every URL. Dialing HTTP endpoints does not open a connection,
// so an unreachable node only surfaces on the first call.
func NewRPCClient(urls []string, callTimeout time.Duration) (*RPCClient, error) {
	if len(urls) == 0 {
		return nil, errors.New("at least one RPC URL is required")
	}

	clients := make([]*ethclient.Client, len(urls))
	dialed := 0
	for i, url := range urls {
		client, err := ethclient.Dial(url)
		if err != nil {
			log.Warn().Str("url", url).Err(err).Msg("Failed to dial RPC node, will retry on use")
			continue
		}
		clients[i] = client
		dialed++
	}

	if dialed == 0 {
		return nil, errors.New("failed to dial any RPC node")
	}

	return &RPCClient{
		urls:        urls,
		clients:     clients,
		callTimeout: callTimeout,
	}, nil
}

func (c *RPCClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, client := range c.clients {
		if client != nil {
			client.Close()
		}
	}
}

func (c *RPCClient) ChainID(ctx context.Context) (*big.Int, error) {
	var chainID *big.Int
	err := c.do(ctx, "eth_chainId", func(ctx context.Context, client *ethclient.Client) (err error) {
		chainID, err = client.ChainID(ctx)
		return err
	})

	return chainID, err
}

func (c *RPCClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	var nonce uint64
	err := c.do(ctx, "eth_getTransactionCount", func(ctx context.Context, client *ethclient.Client) (err error) {
		nonce, err = client.PendingNonceAt(ctx, account)
		return err
	})

	return nonce, err
}

func (c *RPCClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	var header *types.Header
	err := c.do(ctx, "eth_getBlockByNumber", func(ctx context.Context, client *ethclient.Client) (err error) {
		header, err = client.HeaderByNumber(ctx, number)
		return err
	})

	return header, err
}

func (c *RPCClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	var price *big.Int
	err := c.do(ctx, "eth_gasPrice", func(ctx context.Context, client *ethclient.Client) (err error) {
		price, err = client.SuggestGasPrice(ctx)
		return err
	})

	return price, err
}

func (c *RPCClient) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	var tip *big.Int
	err := c.do(ctx, "eth_maxPriorityFeePerGas", func(ctx context.Context, client *ethclient.Client) (err error) {
		tip, err = client.SuggestGasTipCap(ctx)
		return err
	})

	return tip, err
}

func (c *RPCClient) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	var out []byte
	err := c.do(ctx, "eth_call", func(ctx context.Context, client *ethclient.Client) (err error) {
		out, err = client.CallContract(ctx, msg, blockNumber)
		return err
	})

	return out, err
}

// do runs fn against the current client and then each remaining one until a call succeeds.
// Errors the node reports for the method itself (e.g. method not found) are returned
// without failover, since every node of the same network would answer the same.
func (c *RPCClient) do(ctx context.Context, method string, fn func(ctx context.Context, client *ethclient.Client) error) error {
	c.mu.RLock()
	start := c.current
	c.mu.RUnlock()

	var lastErr error
	for i := 0; i < len(c.clients); i++ {
		idx := (start + i) % len(c.clients)

		client, err := c.client(idx)
		if err != nil {
			lastErr = err
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		err = fn(callCtx, client)
		cancel()

		if err == nil {
			if idx != start {
				c.mu.Lock()
				c.current = idx
				c.mu.Unlock()
			}
			return nil
		}

		if IsMethodNotFound(err) {
			return errors.Wrapf(err, "%s not supported by node", method)
		}

		lastErr = err
		log.Warn().Str("url", c.urls[idx]).Str("method", method).Err(err).Msg("RPC call failed, trying next node")

		if ctx.Err() != nil {
			break
		}
	}

	return errors.Wrapf(lastErr, "%s failed on all RPC nodes", method)
}

// client returns the client at idx, redialing it if the initial dial failed.
func (c *RPCClient) client(idx int) (*ethclient.Client, error) {
	c.mu.RLock()
	client := c.clients[idx]
	c.mu.RUnlock()

	if client != nil {
		return client, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.clients[idx] != nil {
		return c.clients[idx], nil
	}

	client, err := ethclient.Dial(c.urls[idx])
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial %s", c.urls[idx])
	}
	c.clients[idx] = client

	return client, nil
}
