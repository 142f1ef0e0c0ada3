package redisstore_test

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/chapool/subflow-agent/internal/agent"
	"github.com/chapool/subflow-agent/internal/agent/redisstore"
	"github.com/chapool/subflow-agent/internal/config"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPrefix  = "subflow-agent-test"
	testLockTTL = 5 * time.Second
)

// newCoordination connects a replica to the in-process redis server.
func newCoordination(t *testing.T, server *miniredis.Miniredis) *agent.Coordination {
	t.Helper()

	coord, err := redisstore.New(t.Context(), config.Redis{
		Addr:      server.Addr(),
		KeyPrefix: testPrefix,
	}, config.Agent{
		LockTTL:   testLockTTL,
		ResultTTL: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = coord.Close() })

	return coord
}

func TestNewFailsWithoutRedis(t *testing.T) {
	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()

	_, err := redisstore.New(ctx, config.Redis{Addr: "127.0.0.1:1"}, config.Agent{LockTTL: time.Second, ResultTTL: time.Second})
	require.Error(t, err)
}

func TestLockerExcludes(t *testing.T) {
	coord := newCoordination(t, miniredis.RunT(t))

	unlock, err := coord.Locker.Lock(t.Context(), "545:0xabc")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()

	_, err = coord.Locker.Lock(ctx, "545:0xabc")
	require.Error(t, err)

	other, err := coord.Locker.Lock(t.Context(), "545:0xdef")
	require.NoError(t, err)
	other()

	unlock()
	unlock()

	again, err := coord.Locker.Lock(t.Context(), "545:0xabc")
	require.NoError(t, err)
	again()
}

func TestLockerExcludesAcrossReplicas(t *testing.T) {
	server := miniredis.RunT(t)
	replicas := []*agent.Coordination{newCoordination(t, server), newCoordination(t, server)}

	var (
		mu      sync.Mutex
		holders int
		maxSeen int
		wg      sync.WaitGroup
	)

	for i := range 8 {
		wg.Add(1)
		go func(coord *agent.Coordination) {
			defer wg.Done()

			unlock, err := coord.Locker.Lock(context.Background(), "545:0xabc")
			if !assert.NoError(t, err) {
				return
			}

			mu.Lock()
			holders++
			if holders > maxSeen {
				maxSeen = holders
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			holders--
			mu.Unlock()

			unlock()
		}(replicas[i%len(replicas)])
	}

	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestLockerExpiresAndKeepsForeignLock(t *testing.T) {
	server := miniredis.RunT(t)
	coord := newCoordination(t, server)

	crashed, err := coord.Locker.Lock(t.Context(), "545:0xabc")
	require.NoError(t, err)

	// the holder stalls beyond the lock ttl, another replica takes over
	server.FastForward(testLockTTL + time.Second)

	taken, err := coord.Locker.Lock(t.Context(), "545:0xabc")
	require.NoError(t, err)

	// releasing with the stale token leaves the new holder's lock in place
	crashed()

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()

	_, err = coord.Locker.Lock(ctx, "545:0xabc")
	require.Error(t, err)

	taken()

	again, err := coord.Locker.Lock(t.Context(), "545:0xabc")
	require.NoError(t, err)
	again()
}

func TestNonceLedger(t *testing.T) {
	server := miniredis.RunT(t)
	coord := newCoordination(t, server)

	_, ok, err := coord.Ledger.Get(t.Context(), "545:0xabc")
	require.NoError(t, err)
	assert.False(t, ok)

	reservedAt := time.Unix(1_700_000_000, 123)
	require.NoError(t, coord.Ledger.Set(t.Context(), "545:0xabc", agent.Reservation{Next: 12, ReservedAt: reservedAt}))

	r, ok, err := coord.Ledger.Get(t.Context(), "545:0xabc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(12), r.Next)
	assert.True(t, reservedAt.Equal(r.ReservedAt))
	assert.True(t, r.ResetAt.IsZero())

	resetAt := time.Unix(1_700_000_180, 456)
	require.NoError(t, coord.Ledger.Set(t.Context(), "545:0xabc", agent.Reservation{Next: 3, ReservedAt: resetAt, ResetAt: resetAt}))

	// a second replica reads what the first wrote
	r, ok, err = newCoordination(t, server).Ledger.Get(t.Context(), "545:0xabc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(3), r.Next)
	assert.True(t, resetAt.Equal(r.ResetAt))

	server.HSet(testPrefix+":nonce:545:0xdef", "next", "not-a-number")
	_, _, err = coord.Ledger.Get(t.Context(), "545:0xdef")
	require.Error(t, err)
}

func TestResultStore(t *testing.T) {
	server := miniredis.RunT(t)
	coord := newCoordination(t, server)

	_, ok, err := coord.Results.Get(t.Context(), "545:7")
	require.NoError(t, err)
	assert.False(t, ok)

	in := &agent.SignedTransactionResult{
		Raw:            []byte{0x02, 0xf8, 0x01},
		Hash:           common.HexToHash("0x01"),
		From:           common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"),
		To:             common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
		Nonce:          3,
		SubscriptionID: big.NewInt(7),
		ChainID:        big.NewInt(545),
		SignedAt:       time.Unix(1_700_000_000, 789).UTC(),
		Replayed:       true,
	}
	require.NoError(t, coord.Results.Put(t.Context(), "545:7", in))

	out, ok, err := coord.Results.Get(t.Context(), "545:7")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, in.Raw, out.Raw)
	assert.Equal(t, in.Hash, out.Hash)
	assert.Equal(t, in.From, out.From)
	assert.Equal(t, in.Nonce, out.Nonce)
	assert.Equal(t, 0, in.SubscriptionID.Cmp(out.SubscriptionID))
	assert.Equal(t, 0, in.ChainID.Cmp(out.ChainID))
	assert.True(t, in.SignedAt.Equal(out.SignedAt))
	assert.False(t, out.Replayed)

	server.FastForward(time.Minute + time.Second)

	_, ok, err = coord.Results.Get(t.Context(), "545:7")
	require.NoError(t, err)
	assert.False(t, ok)
}
