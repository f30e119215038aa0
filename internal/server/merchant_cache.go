package server

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/bdsalocin/comhodl-api/internal/comhodl"
)

const merchantsKey = "merchants"

// merchantCache memoizes the full merchant list. The catalogue only changes
// through seeding, so a short TTL is enough.
type merchantCache struct {
	store Store
	c     *cache.Cache
}

func newMerchantCache(store Store, ttl time.Duration) *merchantCache {
	return &merchantCache{store: store, c: cache.New(ttl, 2*ttl)}
}

func (m *merchantCache) All(ctx context.Context) ([]comhodl.Merchant, error) {
	if v, ok := m.c.Get(merchantsKey); ok {
		return v.([]comhodl.Merchant), nil
	}
	list, err := m.store.Merchants(ctx)
	if err != nil {
		return nil, err
	}
	m.c.SetDefault(merchantsKey, list)
	return list, nil
}
