package agent_test

import (
	"context"
	"testing"
	"time"

	"github.com/chapool/subflow-agent/internal/agent"
	"github.com/dropbox/godropbox/time2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLockerHonoursContext(t *testing.T) {
	l := agent.NewMemoryLocker()

	unlock, err := l.Lock(context.Background(), "545:0xabc")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = l.Lock(ctx, "545:0xabc")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// other accounts are independent
	unlockOther, err := l.Lock(context.Background(), "545:0xdef")
	require.NoError(t, err)
	unlockOther()

	unlock()
	unlock()

	unlock, err = l.Lock(context.Background(), "545:0xabc")
	require.NoError(t, err)
	unlock()
}

func TestMemoryResultStoreCopies(t *testing.T) {
	s := agent.NewMemoryResultStore(time.Minute)

	_, ok, err := s.Get(context.Background(), "545:7")
	require.NoError(t, err)
	assert.False(t, ok)

	in := &agent.SignedTransactionResult{From: common.HexToAddress("0x01"), Nonce: 3, Replayed: true}
	require.NoError(t, s.Put(context.Background(), "545:7", in))

	out, ok, err := s.Get(context.Background(), "545:7")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(3), out.Nonce)
	assert.False(t, out.Replayed)

	out.Replayed = true
	again, _, err := s.Get(context.Background(), "545:7")
	require.NoError(t, err)
	assert.False(t, again.Replayed)
}

func TestNonceAllocator(t *testing.T) {
	ctx := context.Background()
	clock := time2.NewMockClock(time.Unix(1_700_000_000, 0))
	a := agent.NewNonceAllocator(agent.NewMemoryNonceLedger(), clock, 2*time.Minute)

	nonce, reset, err := a.Reserve(ctx, "k", 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), nonce)
	assert.False(t, reset)

	// nothing confirmed yet, the same nonce is handed out again
	nonce, _, err = a.Reserve(ctx, "k", 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), nonce)

	require.NoError(t, a.Confirm(ctx, "k", 4))

	nonce, reset, err = a.Reserve(ctx, "k", 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), nonce)
	assert.False(t, reset)

	// the chain moved past the ledger
	nonce, reset, err = a.Reserve(ctx, "k", 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), nonce)
	assert.False(t, reset)

	clock.Advance(3 * time.Minute)

	nonce, reset, err = a.Reserve(ctx, "k", 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), nonce)
	assert.True(t, reset)

	// the reset is persisted, the next Reserve does not report it again
	nonce, reset, err = a.Reserve(ctx, "k", 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), nonce)
	assert.False(t, reset)
}

func TestNonceAllocatorReplayable(t *testing.T) {
	ctx := context.Background()
	clock := time2.NewMockClock(time.Unix(1_700_000_000, 0))
	a := agent.NewNonceAllocator(agent.NewMemoryNonceLedger(), clock, 2*time.Minute)

	ok, err := a.Replayable(ctx, "k", 3, 3, clock.Now())
	require.NoError(t, err)
	assert.False(t, ok, "unknown ledger")

	signedAt := clock.Now()
	require.NoError(t, a.Confirm(ctx, "k", 3))

	ok, err = a.Replayable(ctx, "k", 3, 3, signedAt)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Replayable(ctx, "k", 4, 3, signedAt)
	require.NoError(t, err)
	assert.False(t, ok, "consumed by the chain")

	ok, err = a.Replayable(ctx, "k", 3, 4, signedAt)
	require.NoError(t, err)
	assert.False(t, ok, "beyond the ledger")

	clock.Advance(3 * time.Minute)

	ok, err = a.Replayable(ctx, "k", 3, 3, signedAt)
	require.NoError(t, err)
	assert.False(t, ok, "reservation is stale")

	_, reset, err := a.Reserve(ctx, "k", 3)
	require.NoError(t, err)
	require.True(t, reset)

	resignedAt := clock.Now()
	require.NoError(t, a.Confirm(ctx, "k", 3))

	ok, err = a.Replayable(ctx, "k", 3, 3, signedAt)
	require.NoError(t, err)
	assert.False(t, ok, "signed before the reset")

	ok, err = a.Replayable(ctx, "k", 3, 3, resignedAt)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCoordinationClose(t *testing.T) {
	require.NoError(t, agent.NewMemoryCoordination(time.Minute).Close())

	closed := false
	c := agent.NewCoordination(agent.NewMemoryLocker(), agent.NewMemoryNonceLedger(), agent.NewMemoryResultStore(time.Minute), func() error {
		closed = true
		return nil
	})
	require.NoError(t, c.Close())
	assert.True(t, closed)
}
