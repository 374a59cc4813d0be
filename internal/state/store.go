// Package state keeps per-wallet state between runs in Redis: a run lock
// and the last highload query id.
package state

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/openbuilders/jetton-airdrop/internal/errors"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "jetton-airdrop"

type Config struct {
	// LockTTL bounds how long a crashed run keeps the lock.
	LockTTL time.Duration
}

type Store struct {
	config *Config
	redis  *redis.Client
	log    *slog.Logger
}

// releaseScript deletes the lock only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

func New(client *redis.Client, config *Config) *Store {
	return &Store{
		config: config,
		redis:  client,
		log:    slog.With("component", "state"),
	}
}

func lockKey(walletHash string) string {
	return keyPrefix + ":lock:" + walletHash
}

func queryIDKey(walletHash string) string {
	return keyPrefix + ":query_id:" + walletHash
}

// Lock takes the run lock of a wallet. The returned function releases it.
func (s *Store) Lock(ctx context.Context, walletHash string) (func(context.Context) error, error) {
	token := uuid.NewString()

	ok, err := s.redis.SetNX(ctx, lockKey(walletHash), token, s.config.LockTTL).Result()
	if err != nil {
		return nil, errors.Wrap(errors.NetworkFailure, "couldn't acquire run lock", err)
	}
	if !ok {
		return nil, errors.New(errors.Locked,
			"another airdrop run holds the lock of this wallet")
	}

	s.log.Debug("Acquired run lock", "wallet", walletHash)

	return func(ctx context.Context) error {
		err := releaseScript.Run(ctx, s.redis, []string{lockKey(walletHash)}, token).Err()
		if err != nil && !stderrors.Is(err, redis.Nil) {
			return fmt.Errorf("release run lock: %w", err)
		}
		s.log.Debug("Released run lock", "wallet", walletHash)
		return nil
	}, nil
}

// LastQueryID returns the last highload query id used by the wallet.
func (s *Store) LastQueryID(ctx context.Context, walletHash string) (uint64, bool, error) {
	value, err := s.redis.Get(ctx, queryIDKey(walletHash)).Result()
	if stderrors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get last query id: %w", err)
	}

	queryID, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("malformed query id %q: %w", value, err)
	}

	return queryID, true, nil
}

func (s *Store) SaveQueryID(ctx context.Context, walletHash string, queryID uint64) error {
	err := s.redis.Set(ctx, queryIDKey(walletHash), strconv.FormatUint(queryID, 10), 0).Err()
	if err != nil {
		return fmt.Errorf("save query id: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}
