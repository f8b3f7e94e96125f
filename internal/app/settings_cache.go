package app

import (
	"context"
	"time"

	"anniversary_notifier/internal/domain/settings"

	"github.com/patrickmn/go-cache"
)

const settingsCacheKey = "configuration"

// CachedSettings is a read-through cache in front of a settings.Store.
// Values are cloned on the way in and out.
type CachedSettings struct {
	store settings.Store
	cache *cache.Cache
}

func NewCachedSettings(store settings.Store, ttl time.Duration) *CachedSettings {
	return &CachedSettings{
		store: store,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *CachedSettings) Get(ctx context.Context) (*settings.Configuration, error) {
	if v, ok := c.cache.Get(settingsCacheKey); ok {
		return v.(*settings.Configuration).Clone(), nil
	}
	cfg, err := c.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(settingsCacheKey, cfg.Clone())
	return cfg, nil
}

func (c *CachedSettings) Save(ctx context.Context, cfg *settings.Configuration) (*settings.Configuration, error) {
	saved, err := c.store.Save(ctx, cfg)
	if err != nil {
		c.cache.Delete(settingsCacheKey)
		return nil, err
	}
	c.cache.SetDefault(settingsCacheKey, saved.Clone())
	return saved, nil
}
