// Package leaderboard ranks users by their point total.
package leaderboard

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

type Entry struct {
	Rank     int    `json:"rank"`
	UserID   int64  `json:"id"`
	Nickname string `json:"pseudo"`
	Points   int    `json:"points"`
}

// Board keeps the latest total of every user. Record overwrites.
type Board interface {
	Record(ctx context.Context, userID int64, nickname string, points int) error
	Top(ctx context.Context, n int) ([]Entry, error)
}

const (
	scoresKey = "comhodl:leaderboard"
	namesKey  = "comhodl:leaderboard:names"
)

// Redis stores scores in a sorted set and nicknames in a hash.
type Redis struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func (r *Redis) Record(ctx context.Context, userID int64, nickname string, points int) error {
	member := strconv.FormatInt(userID, 10)
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZAdd(ctx, scoresKey, redis.Z{Score: float64(points), Member: member})
		p.HSet(ctx, namesKey, member, nickname)
		return nil
	})
	if err != nil {
		return fmt.Errorf("recording score: %w", err)
	}
	return nil
}

func (r *Redis) Top(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return []Entry{}, nil
	}
	zs, err := r.rdb.ZRevRangeWithScores(ctx, scoresKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading scores: %w", err)
	}
	if len(zs) == 0 {
		return []Entry{}, nil
	}

	members := make([]string, len(zs))
	for i, z := range zs {
		members[i], _ = z.Member.(string)
	}
	names, err := r.rdb.HMGet(ctx, namesKey, members...).Result()
	if err != nil {
		return nil, fmt.Errorf("reading nicknames: %w", err)
	}

	return rankEntries(zs, names), nil
}

// rankEntries pairs ZREVRANGE results with the HMGET nicknames in the same
// order. A member missing from the hash gets an empty nickname.
func rankEntries(zs []redis.Z, names []any) []Entry {
	out := make([]Entry, len(zs))
	for i, z := range zs {
		member, _ := z.Member.(string)
		id, _ := strconv.ParseInt(member, 10, 64)
		var name string
		if i < len(names) {
			name, _ = names[i].(string)
		}
		out[i] = Entry{Rank: i + 1, UserID: id, Nickname: name, Points: int(z.Score)}
	}
	return out
}

// Memory is a process-local Board used when no Redis is configured.
type Memory struct {
	mu      sync.RWMutex
	entries map[int64]Entry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[int64]Entry)}
}

func (m *Memory) Record(_ context.Context, userID int64, nickname string, points int) error {
	m.mu.Lock()
	m.entries[userID] = Entry{UserID: userID, Nickname: nickname, Points: points}
	m.mu.Unlock()
	return nil
}

// Top orders by points descending. Ties are broken by user id so the order
// is stable.
func (m *Memory) Top(_ context.Context, n int) ([]Entry, error) {
	m.mu.RLock()
	all := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		all = append(all, e)
	}
	m.mu.RUnlock()

	slices.SortFunc(all, func(a, b Entry) int {
		if c := cmp.Compare(b.Points, a.Points); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})

	all = all[:min(max(n, 0), len(all))]
	for i := range all {
		all[i].Rank = i + 1
	}
	return all, nil
}
