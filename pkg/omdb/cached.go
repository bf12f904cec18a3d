package omdb

import (
	"context"
	"errors"
	"time"

	"cinebook/pkg/cache"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Provider interface {
	Lookup(ctx context.Context, externalID string) (*Metadata, error)
}

// CachedProvider serves metadata from Redis and collapses concurrent misses
// for the same id into one upstream call. Misses are not cached.
type CachedProvider struct {
	next  Provider
	cache *cache.Cache
	ttl   time.Duration
	group singleflight.Group
	log   *zap.Logger
}

func NewCachedProvider(next Provider, c *cache.Cache, ttl time.Duration, log *zap.Logger) *CachedProvider {
	return &CachedProvider{
		next:  next,
		cache: c,
		ttl:   ttl,
		log:   log.With(zap.String("provider", "omdb-cache")),
	}
}

func (p *CachedProvider) Lookup(ctx context.Context, externalID string) (*Metadata, error) {
	key := "movie:" + externalID

	var cached Metadata
	err := p.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		p.log.Warn("Metadata cache read failed", zap.String("external_id", externalID), zap.Error(err))
	}

	v, err, _ := p.group.Do(externalID, func() (any, error) {
		md, err := p.next.Lookup(ctx, externalID)
		if err != nil {
			return nil, err
		}
		if err := p.cache.Set(ctx, key, md, p.ttl); err != nil {
			p.log.Warn("Metadata cache write failed", zap.String("external_id", externalID), zap.Error(err))
		}
		return md, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Metadata), nil
}
