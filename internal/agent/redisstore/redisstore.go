// Package redisstore shares the signer lock, nonce ledger and result store between replicas through redis.
package redisstore

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/chapool/subflow-agent/internal/agent"
	"github.com/chapool/subflow-agent/internal/config"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	lockRetryInterval = 25 * time.Millisecond
	unlockTimeout     = 2 * time.Second

	fieldNext       = "next"
	fieldReservedAt = "reserved_at"
	fieldResetAt    = "reset_at"
)

// releaseScript deletes the lock only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// New connects to redis and returns coordination backed by it. The connection is closed through Coordination.Close.
func New(ctx context.Context, cfg config.Redis, agentCfg config.Agent) (*agent.Coordination, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "failed to connect to redis at %s", cfg.Addr)
	}

	return NewWithClient(client, cfg.KeyPrefix, agentCfg), nil
}

func NewWithClient(client redis.UniversalClient, prefix string, agentCfg config.Agent) *agent.Coordination {
	keys := keyspace(prefix)

	return agent.NewCoordination(
		&Locker{client: client, keys: keys, ttl: agentCfg.LockTTL},
		&NonceLedger{client: client, keys: keys},
		&ResultStore{client: client, keys: keys, ttl: agentCfg.ResultTTL},
		client.Close,
	)
}

type keyspace string

func (k keyspace) lock(key string) string   { return string(k) + ":lock:" + key }
func (k keyspace) nonce(key string) string  { return string(k) + ":nonce:" + key }
func (k keyspace) result(key string) string { return string(k) + ":result:" + key }

// Locker is a SET NX PX lock. The ttl bounds how long a crashed holder blocks the account.
type Locker struct {
	client redis.UniversalClient
	keys   keyspace
	ttl    time.Duration
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	name := l.keys.lock(key)
	token := uuid.NewString()

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, name, token, l.ttl).Result()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to acquire lock %s", name)
		}

		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(), "timed out waiting for lock %s", name)
		case <-ticker.C:
		}
	}

	var once sync.Once

	return func() {
		once.Do(func() {
			// released even when the request context is already done
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), unlockTimeout)
			defer cancel()

			_ = releaseScript.Run(ctx, l.client, []string{name}, token).Err()
		})
	}, nil
}

type NonceLedger struct {
	client redis.UniversalClient
	keys   keyspace
}

func (l *NonceLedger) Get(ctx context.Context, key string) (agent.Reservation, bool, error) {
	fields, err := l.client.HGetAll(ctx, l.keys.nonce(key)).Result()
	if err != nil {
		return agent.Reservation{}, false, errors.Wrap(err, "failed to read nonce reservation")
	}

	if len(fields) == 0 {
		return agent.Reservation{}, false, nil
	}

	next, err := strconv.ParseUint(fields[fieldNext], 10, 64)
	if err != nil {
		return agent.Reservation{}, false, errors.Wrap(err, "corrupt nonce reservation")
	}

	reservedAt, err := parseUnixNano(fields[fieldReservedAt])
	if err != nil {
		return agent.Reservation{}, false, errors.Wrap(err, "corrupt nonce reservation")
	}

	// absent on ledgers that were never reset
	resetAt, err := parseUnixNano(fields[fieldResetAt])
	if err != nil {
		return agent.Reservation{}, false, errors.Wrap(err, "corrupt nonce reservation")
	}

	return agent.Reservation{Next: next, ReservedAt: reservedAt, ResetAt: resetAt}, true, nil
}

func (l *NonceLedger) Set(ctx context.Context, key string, r agent.Reservation) error {
	err := l.client.HSet(ctx, l.keys.nonce(key),
		fieldNext, strconv.FormatUint(r.Next, 10),
		fieldReservedAt, formatUnixNano(r.ReservedAt),
		fieldResetAt, formatUnixNano(r.ResetAt),
	).Err()
	if err != nil {
		return errors.Wrap(err, "failed to write nonce reservation")
	}

	return nil
}

// formatUnixNano stores the zero time as 0, UnixNano is undefined for it.
func formatUnixNano(t time.Time) string {
	if t.IsZero() {
		return "0"
	}
	return strconv.FormatInt(t.UnixNano(), 10)
}

func parseUnixNano(s string) (time.Time, error) {
	if s == "" || s == "0" {
		return time.Time{}, nil
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}

	return time.Unix(0, n), nil
}

type ResultStore struct {
	client redis.UniversalClient
	keys   keyspace
	ttl    time.Duration
}

func (s *ResultStore) Get(ctx context.Context, key string) (*agent.SignedTransactionResult, bool, error) {
	b, err := s.client.Get(ctx, s.keys.result(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to read signed result")
	}

	var r agent.SignedTransactionResult
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, false, errors.Wrap(err, "corrupt signed result")
	}

	return &r, true, nil
}

func (s *ResultStore) Put(ctx context.Context, key string, r *agent.SignedTransactionResult) error {
	b, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "failed to encode signed result")
	}

	if err := s.client.Set(ctx, s.keys.result(key), b, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to write signed result")
	}

	return nil
}
