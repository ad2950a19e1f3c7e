// Package mediacache resolves audio and stroke-diagram assets through a
// chain of tiers: an in-process memory tier, object storage, the legacy
// relational store and, for audio only, on-demand speech synthesis.
// Every miss that a slower tier satisfies populates the faster tiers.
package mediacache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/havliksimon/anki-card-creator/internal/domain"
	"github.com/havliksimon/anki-card-creator/pkg/ctxutil"
)

// Tier names the tier that produced an asset.
type Tier string

const (
	TierMemory      Tier = "memory"
	TierObjectStore Tier = "object_store"
	TierLegacy      Tier = "legacy"
	TierSynthesis   Tier = "synthesis"
)

// ObjectStore is the durable content-addressed tier.
// Get returns domain.ErrNotFound for a missing object.
type ObjectStore interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Put(ctx context.Context, path string, data []byte, contentType string) error
	URL(path string) string
}

// LegacyStore is the relational tier kept for data created before object
// storage existed. Getters return domain.ErrNotFound for missing rows.
type LegacyStore interface {
	GetAudio(ctx context.Context, text string) ([]byte, error)
	PutAudio(ctx context.Context, text string, data []byte) error
	GetStroke(ctx context.Context, char string, order int) ([]byte, error)
	PutStroke(ctx context.Context, char string, order int, data []byte) error
}

// Synthesizer produces spoken audio for text.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Runner runs best-effort work detached from the caller.
type Runner interface {
	Go(name string, fn func(ctx context.Context) error)
}

// Tiers are the slower tiers behind the memory tier. Any of them may be nil.
type Tiers struct {
	Objects ObjectStore
	Legacy  LegacyStore
	Synth   Synthesizer
}

// Options configures a Cache.
type Options struct {
	// MemoryCapacity bounds the in-process tier (default 200 entries).
	MemoryCapacity int
	// ResolveTimeout bounds one resolve across all tiers (default 30s).
	ResolveTimeout time.Duration
	// AppURL is the public base URL of the /api/tts and /api/stroke
	// endpoints. References point there unless the object store is known to
	// hold the asset and has a public URL.
	AppURL string
	// Background runs Prewarm. When nil, Prewarm starts a bare goroutine.
	Background Runner
}

// Asset is a resolved media asset.
type Asset struct {
	Key  domain.MediaAssetKey
	Data []byte
	URL  string
	Tier Tier
}

// entry is a memory-tier value. stored records that the object store
// holds the same bytes.
type entry struct {
	data   []byte
	stored bool
}

// Cache is the tiered media cache. It is safe for concurrent use.
type Cache struct {
	log   *slog.Logger
	opts  Options
	tiers Tiers

	// mem is only read with Peek, so eviction follows insertion order.
	mem    *lru.Cache[string, entry]
	flight singleflight.Group
	stats  counters
}

// New creates a Cache.
func New(log *slog.Logger, opts Options, tiers Tiers) *Cache {
	if opts.MemoryCapacity <= 0 {
		opts.MemoryCapacity = 200
	}
	if opts.ResolveTimeout <= 0 {
		opts.ResolveTimeout = 30 * time.Second
	}
	opts.AppURL = strings.TrimRight(opts.AppURL, "/")

	mem, err := lru.New[string, entry](opts.MemoryCapacity)
	if err != nil {
		// Only returned for a non-positive size, which is excluded above.
		panic(fmt.Sprintf("mediacache: %v", err))
	}

	return &Cache{
		log:   log.With("service", "mediacache"),
		opts:  opts,
		tiers: tiers,
		mem:   mem,
	}
}

// Resolve returns the bytes for key from the fastest tier that has them.
// Returns domain.ErrNotFound when no tier has the asset and it cannot be
// synthesized; a failed synthesis returns the synthesizer's error.
//
// Concurrent resolves of the same key share one lookup. The lookup runs on a
// context detached from ctx, so a caller that gives up does not abort the
// cache population it started.
func (c *Cache) Resolve(ctx context.Context, key domain.MediaAssetKey) (Asset, error) {
	if err := key.Validate(); err != nil {
		return Asset{}, err
	}

	hash := key.Hash()
	if e, ok := c.mem.Peek(hash); ok {
		c.stats.memory.Add(1)
		return c.asset(key, e.data, TierMemory, e.stored), nil
	}

	ch := c.flight.DoChan(hash, func() (any, error) {
		rctx, cancel := context.WithTimeout(ctxutil.Detach(ctx), c.opts.ResolveTimeout)
		defer cancel()
		return c.resolveSlow(rctx, key)
	})

	select {
	case <-ctx.Done():
		return Asset{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Asset{}, res.Err
		}
		return res.Val.(Asset), nil
	}
}

func (c *Cache) resolveSlow(ctx context.Context, key domain.MediaAssetKey) (Asset, error) {
	hash := key.Hash()

	// A concurrent flight may have finished between the Peek and DoChan.
	if e, ok := c.mem.Peek(hash); ok {
		c.stats.memory.Add(1)
		return c.asset(key, e.data, TierMemory, e.stored), nil
	}

	if c.tiers.Objects != nil {
		data, err := c.tiers.Objects.Get(ctx, key.ObjectPath())
		switch {
		case err == nil:
			c.stats.objectStore.Add(1)
			c.remember(hash, data, true)
			return c.asset(key, data, TierObjectStore, true), nil
		case !errors.Is(err, domain.ErrNotFound):
			c.log.WarnContext(ctx, "object store lookup failed",
				slog.String("key", key.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	if c.tiers.Legacy != nil {
		data, err := c.legacyGet(ctx, key)
		switch {
		case err == nil:
			c.stats.legacy.Add(1)
			stored := c.promoteObject(ctx, key, data)
			c.remember(hash, data, stored)
			return c.asset(key, data, TierLegacy, stored), nil
		case !errors.Is(err, domain.ErrNotFound):
			c.log.WarnContext(ctx, "legacy store lookup failed",
				slog.String("key", key.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	if key.Kind != domain.MediaKindAudio || c.tiers.Synth == nil {
		c.stats.misses.Add(1)
		return Asset{}, fmt.Errorf("media %s: %w", key, domain.ErrNotFound)
	}

	data, err := c.tiers.Synth.Synthesize(ctx, key.Text)
	if err != nil {
		c.stats.misses.Add(1)
		c.log.WarnContext(ctx, "speech synthesis failed",
			slog.String("key", key.String()),
			slog.String("error", err.Error()),
		)
		return Asset{}, fmt.Errorf("media %s: synthesize: %w", key, err)
	}

	stored := c.promoteObject(ctx, key, data)
	c.promoteLegacy(ctx, key, data)
	c.remember(hash, data, stored)
	c.stats.synthesized.Add(1)
	return c.asset(key, data, TierSynthesis, stored), nil
}

// Store writes data for key through every configured tier. The memory tier
// always succeeds; failed durable writes are reported as domain.ErrCacheWrite.
func (c *Cache) Store(ctx context.Context, key domain.MediaAssetKey, data []byte) error {
	if err := key.Validate(); err != nil {
		return err
	}

	var (
		errs   []error
		stored bool
	)
	if c.tiers.Objects != nil {
		if err := c.tiers.Objects.Put(ctx, key.ObjectPath(), data, key.ContentType()); err != nil {
			errs = append(errs, fmt.Errorf("object store: %w", err))
		} else {
			stored = true
		}
	}

	hash := key.Hash()
	c.mem.Remove(hash)
	c.mem.Add(hash, entry{data: data, stored: stored})

	if c.tiers.Legacy != nil {
		if err := c.legacyPut(ctx, key, data); err != nil {
			errs = append(errs, fmt.Errorf("legacy store: %w", err))
		}
	}
	if len(errs) > 0 {
		c.stats.writeFailures.Add(uint64(len(errs)))
		return fmt.Errorf("store %s: %w: %w", key, domain.ErrCacheWrite, errors.Join(errs...))
	}
	return nil
}

// Prewarm resolves key in the background so that a later Resolve is served
// from a fast tier. Failures are logged by the runner and otherwise ignored.
func (c *Cache) Prewarm(key domain.MediaAssetKey) {
	task := func(ctx context.Context) error {
		_, err := c.Resolve(ctx, key)
		return err
	}
	if c.opts.Background != nil {
		c.opts.Background.Go("prewarm "+key.String(), task)
		return
	}
	go func() { _ = task(context.Background()) }()
}

// Reference returns the application endpoint that serves the asset. The
// endpoint resolves the asset on request, so the reference is valid before
// the asset has been cached anywhere.
func (c *Cache) Reference(key domain.MediaAssetKey) string {
	q := url.Values{}
	q.Set("hanzi", key.Text)
	if key.Kind == domain.MediaKindStrokeDiagram {
		q.Set("order", strconv.Itoa(key.StrokeIndex))
		return c.opts.AppURL + "/api/stroke?" + q.Encode()
	}
	return c.opts.AppURL + "/api/tts?" + q.Encode()
}

// asset builds the resolved asset. The object store's public URL is used
// only when stored is true, i.e. that tier is known to hold the bytes.
func (c *Cache) asset(key domain.MediaAssetKey, data []byte, tier Tier, stored bool) Asset {
	ref := ""
	if stored && c.tiers.Objects != nil {
		ref = c.tiers.Objects.URL(key.ObjectPath())
	}
	if ref == "" {
		ref = c.Reference(key)
	}
	return Asset{Key: key, Data: data, URL: ref, Tier: tier}
}

// remember populates the memory tier without refreshing an existing entry.
func (c *Cache) remember(hash string, data []byte, stored bool) {
	c.mem.ContainsOrAdd(hash, entry{data: data, stored: stored})
}

// promoteObject copies data into the object store and reports whether it
// is there now.
func (c *Cache) promoteObject(ctx context.Context, key domain.MediaAssetKey, data []byte) bool {
	if c.tiers.Objects == nil {
		return false
	}
	if err := c.tiers.Objects.Put(ctx, key.ObjectPath(), data, key.ContentType()); err != nil {
		c.writeFailed(ctx, key, TierObjectStore, err)
		return false
	}
	return true
}

func (c *Cache) promoteLegacy(ctx context.Context, key domain.MediaAssetKey, data []byte) {
	if c.tiers.Legacy == nil {
		return
	}
	if err := c.legacyPut(ctx, key, data); err != nil {
		c.writeFailed(ctx, key, TierLegacy, err)
	}
}

func (c *Cache) writeFailed(ctx context.Context, key domain.MediaAssetKey, tier Tier, err error) {
	c.stats.writeFailures.Add(1)
	err = fmt.Errorf("%w: %s: %w", domain.ErrCacheWrite, tier, err)
	c.log.WarnContext(ctx, "cache promotion failed",
		slog.String("key", key.String()),
		slog.String("tier", string(tier)),
		slog.String("error", err.Error()),
	)
}

func (c *Cache) legacyGet(ctx context.Context, key domain.MediaAssetKey) ([]byte, error) {
	if key.Kind == domain.MediaKindStrokeDiagram {
		return c.tiers.Legacy.GetStroke(ctx, key.Text, key.StrokeIndex)
	}
	return c.tiers.Legacy.GetAudio(ctx, key.Text)
}

func (c *Cache) legacyPut(ctx context.Context, key domain.MediaAssetKey, data []byte) error {
	if key.Kind == domain.MediaKindStrokeDiagram {
		return c.tiers.Legacy.PutStroke(ctx, key.Text, key.StrokeIndex, data)
	}
	return c.tiers.Legacy.PutAudio(ctx, key.Text, data)
}
