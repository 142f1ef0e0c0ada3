package agent

import (
	"context"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/pkg/errors"
)

// NonceAllocator hands out max(chain pending nonce, ledger next). The ledger only advances
// through Confirm, after a signature exists, so a failed build or sign leaves no gap.
// Signed transactions that were never broadcast keep the ledger ahead of the chain; once that
// lasts longer than ttl the ledger falls back to the chain pending nonce and every result
// signed before that reset is void.
type NonceAllocator struct {
	ledger NonceLedger
	clock  time2.Clock
	ttl    time.Duration
}

func NewNonceAllocator(ledger NonceLedger, clock time2.Clock, ttl time.Duration) *NonceAllocator {
	return &NonceAllocator{ledger: ledger, clock: clock, ttl: ttl}
}

// Reserve returns the nonce to sign with. reset reports that a stale reservation was discarded.
// Callers must hold the account lock until Confirm.
func (a *NonceAllocator) Reserve(ctx context.Context, key string, chainPending uint64) (nonce uint64, reset bool, err error) {
	r, ok, err := a.ledger.Get(ctx, key)
	if err != nil {
		return 0, false, errors.Wrap(err, "failed to read nonce ledger")
	}

	if !ok || chainPending >= r.Next {
		return chainPending, false, nil
	}

	if a.stale(r, chainPending) {
		now := a.clock.Now()
		if err := a.ledger.Set(ctx, key, Reservation{Next: chainPending, ReservedAt: now, ResetAt: now}); err != nil {
			return 0, false, errors.Wrap(err, "failed to reset nonce ledger")
		}

		return chainPending, true, nil
	}

	return r.Next, false, nil
}

// Confirm records nonce as used.
func (a *NonceAllocator) Confirm(ctx context.Context, key string, nonce uint64) error {
	r, _, err := a.ledger.Get(ctx, key)
	if err != nil {
		return errors.Wrap(err, "failed to read nonce ledger")
	}

	r.Next = nonce + 1
	r.ReservedAt = a.clock.Now()

	if err := a.ledger.Set(ctx, key, r); err != nil {
		return errors.Wrap(err, "failed to write nonce ledger")
	}

	return nil
}

// Replayable reports whether a transaction signed with nonce at signedAt may be handed out again.
// The chain must not have consumed the nonce, the ledger must still account for it, no reset may
// have happened since it was signed and the next Reserve must not reset either.
// Callers must hold the account lock.
func (a *NonceAllocator) Replayable(ctx context.Context, key string, chainPending uint64, nonce uint64, signedAt time.Time) (bool, error) {
	r, ok, err := a.ledger.Get(ctx, key)
	if err != nil {
		return false, errors.Wrap(err, "failed to read nonce ledger")
	}

	if !ok || nonce < chainPending || nonce >= r.Next {
		return false, nil
	}

	if signedAt.Before(r.ResetAt) || a.stale(r, chainPending) {
		return false, nil
	}

	return true, nil
}

func (a *NonceAllocator) stale(r Reservation, chainPending uint64) bool {
	return chainPending < r.Next && a.clock.Now().Sub(r.ReservedAt) > a.ttl
}
