package engine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// FollowerRegistry is the source of truth for (leader -> {followers}) and is
// the only component that owns the keyed store's copy-trade-wallet prefix.
//
// Key scheme (the persistent state spec.md §6 names): a hash at
// "user:{follower_id}:copy_trade_wallet:{leader}" holding
// {user_id, wallet_id, account_address, buy_amount, status}. buy_amount is
// written and read as a base-10 integer count of lamports; a
// copy_trade_address field is neither written nor read.
//
// "monitored_wallets" is kept as a derived Redis set mirroring all_leaders()
// — the set AllLeaders returns, with an O(1) membership check in
// IsMonitored. It is never authoritative; Sync rebuilds it from the hash keys.
type FollowerRegistry struct {
	rdb *redis.Client
}

const followerKeyPrefix = "user:"
const followerKeySuffix = ":copy_trade_wallet:"
const monitoredWalletsSet = "monitored_wallets"

// NewRedisClient creates a new Redis client with connection pooling.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     50,
		MinIdleConns: 10,
		MaxRetries:   3,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return rdb, nil
}

// NewFollowerRegistry wraps an existing Redis client.
func NewFollowerRegistry(rdb *redis.Client) *FollowerRegistry {
	return &FollowerRegistry{rdb: rdb}
}

func copyTradeWalletKey(followerID int64, leader string) string {
	return fmt.Sprintf("%s%d%s%s", followerKeyPrefix, followerID, followerKeySuffix, leader)
}

// Upsert is idempotent; (follower_id, leader) is the key.
func (r *FollowerRegistry) Upsert(ctx context.Context, f Follower) error {
	key := copyTradeWalletKey(f.FollowerID, f.Leader)

	status := "inactive"
	if f.Active {
		status = "active"
	}

	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"user_id":         f.FollowerID,
		"account_address": f.OwningAccount,
		"wallet_id":       f.WalletID,
		"buy_amount":      strconv.FormatUint(f.BuyAmountNative, 10),
		"status":          status,
	})
	if f.Active {
		pipe.SAdd(ctx, monitoredWalletsSet, f.Leader)
	}
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert follower: %w", err)
	}
	if !f.Active {
		stillWatched, err := r.leaderHasActiveFollower(ctx, f.Leader)
		if err != nil {
			return err
		}
		if !stillWatched {
			return r.rdb.SRem(ctx, monitoredWalletsSet, f.Leader).Err()
		}
	}
	return nil
}

// Remove deletes the (follower_id, leader) mapping and drops the leader from
// the monitored set once no active follower references it.
func (r *FollowerRegistry) Remove(ctx context.Context, followerID int64, leader string) error {
	key := copyTradeWalletKey(followerID, leader)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("remove follower: %w", err)
	}

	stillWatched, err := r.leaderHasActiveFollower(ctx, leader)
	if err != nil {
		return err
	}
	if !stillWatched {
		return r.rdb.SRem(ctx, monitoredWalletsSet, leader).Err()
	}
	return nil
}

func (r *FollowerRegistry) leaderHasActiveFollower(ctx context.Context, leader string) (bool, error) {
	var cursor uint64
	pattern := fmt.Sprintf("%s*%s%s", followerKeyPrefix, followerKeySuffix, leader)
	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return false, fmt.Errorf("scan follower keys: %w", err)
		}
		for _, k := range keys {
			status, err := r.rdb.HGet(ctx, k, "status").Result()
			if err == nil && status == "active" {
				return true, nil
			}
		}
		cursor = next
		if cursor == 0 {
			return false, nil
		}
	}
}

// FollowersOf returns a snapshot of every follower mapped to leader, copied
// up front so that insertions during fan-out cannot affect the cycle that
// started before them (spec.md §8 invariant).
func (r *FollowerRegistry) FollowersOf(ctx context.Context, leader string) ([]Follower, error) {
	var cursor uint64
	pattern := fmt.Sprintf("%s*%s%s", followerKeyPrefix, followerKeySuffix, leader)
	var out []Follower

	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan follower keys: %w", err)
		}
		for _, k := range keys {
			fields, err := r.rdb.HGetAll(ctx, k).Result()
			if err != nil || len(fields) == 0 {
				continue
			}
			f, err := followerFromHash(k, leader, fields)
			if err != nil {
				continue
			}
			out = append(out, f)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return out, nil
}

func followerFromHash(key, leader string, fields map[string]string) (Follower, error) {
	var followerID int64
	if id, ok := fields["user_id"]; ok {
		id64, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return Follower{}, fmt.Errorf("invalid user_id in %s: %w", key, err)
		}
		followerID = id64
	}

	buyAmount, _ := strconv.ParseUint(fields["buy_amount"], 10, 64)

	return Follower{
		FollowerID:      followerID,
		OwningAccount:   fields["account_address"],
		WalletID:        fields["wallet_id"],
		Leader:          leader,
		BuyAmountNative: buyAmount,
		Active:          fields["status"] == "active",
	}, nil
}

// AllLeaders returns every leader with at least one active follower — used
// by the Subscription Manager (4.C) and the Control API (4.I).
func (r *FollowerRegistry) AllLeaders(ctx context.Context) ([]string, error) {
	return r.rdb.SMembers(ctx, monitoredWalletsSet).Result()
}

// Sync rebuilds the monitored_wallets derived cache by scanning every
// copy-trade-wallet hash. cmd/pipeline runs it once at startup to repair
// drift; between runs Upsert and Remove keep the set current.
func (r *FollowerRegistry) Sync(ctx context.Context) error {
	var cursor uint64
	pattern := followerKeyPrefix + "*" + followerKeySuffix + "*"
	leaders := make(map[string]bool)

	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return fmt.Errorf("scan during sync: %w", err)
		}
		for _, k := range keys {
			status, err := r.rdb.HGet(ctx, k, "status").Result()
			if err != nil || status != "active" {
				continue
			}
			leader := leaderFromKey(k)
			if leader != "" {
				leaders[leader] = true
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	pipe := r.rdb.Pipeline()
	pipe.Del(ctx, monitoredWalletsSet)
	if len(leaders) > 0 {
		members := make([]interface{}, 0, len(leaders))
		for l := range leaders {
			members = append(members, l)
		}
		pipe.SAdd(ctx, monitoredWalletsSet, members...)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func leaderFromKey(key string) string {
	idx := indexOfSuffix(key)
	if idx < 0 || idx+len(followerKeySuffix) >= len(key) {
		return ""
	}
	return key[idx+len(followerKeySuffix):]
}

func indexOfSuffix(key string) int {
	for i := 0; i+len(followerKeySuffix) <= len(key); i++ {
		if key[i:i+len(followerKeySuffix)] == followerKeySuffix {
			return i
		}
	}
	return -1
}

// IsMonitored is an O(1) membership check against the derived set; it does
// not scan the per-leader hashes.
func (r *FollowerRegistry) IsMonitored(ctx context.Context, leader string) (bool, error) {
	return r.rdb.SIsMember(ctx, monitoredWalletsSet, leader).Result()
}
