// Package imagecache resolves and caches decoded post images keyed by post id.
// The cache is only an optimization: the server and image URLs stay
// authoritative and a miss is never an error.
package imagecache

import (
	"bytes"
	"container/list"
	"context"
	"errors"
	"fmt"
	"image"
	"net/url"
	"sync"
	"time"

	// Registered decoders.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"slurpsocial/internal/cache"
	"slurpsocial/internal/events"
	"slurpsocial/internal/models"
	"slurpsocial/internal/observability"

	"golang.org/x/sync/singleflight"
)

// ErrNoImage means no source produced a decodable image. Callers render a
// placeholder.
var ErrNoImage = errors.New("no image available")

// Defaults for Options.
const (
	DefaultCapacity = 100
	DefaultL2TTL    = 60 * time.Minute
	RedisPrefix     = "slurp:image:"
)

// Fetcher downloads raw bytes. *apiclient.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
	BaseURL() string
}

// Options configures a Cache.
type Options struct {
	Capacity int
	// L2 shares raw downloads between processes. Nil or disabled skips it.
	L2    *cache.Cache
	L2TTL time.Duration
}

type entry struct {
	postID string
	img    image.Image
}

// Cache is a bounded LRU of decoded images.
type Cache struct {
	fetcher  Fetcher
	capacity int
	l2       *cache.Cache
	l2TTL    time.Duration
	logger   *observability.ServiceLogger

	mu      sync.Mutex
	order   *list.List
	entries map[string]*list.Element
	group   singleflight.Group
}

// New returns an empty cache that downloads through fetcher.
func New(fetcher Fetcher, opts Options) *Cache {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.L2TTL <= 0 {
		opts.L2TTL = DefaultL2TTL
	}
	return &Cache{
		fetcher:  fetcher,
		capacity: opts.Capacity,
		l2:       opts.L2,
		l2TTL:    opts.L2TTL,
		logger:   observability.NewServiceLogger("imagecache"),
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Get returns the cached image for postID without any I/O.
func (c *Cache) Get(postID string) (image.Image, bool) {
	img, ok := c.lookup(postID)
	observability.RecordCacheLookup("memory", ok)
	return img, ok
}

func (c *Cache) lookup(postID string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[postID]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry).img, true
}

func (c *Cache) put(postID string, img image.Image) {
	if postID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[postID]; ok {
		el.Value.(*entry).img = img
		c.order.MoveToFront(el)
		return
	}
	c.entries[postID] = c.order.PushFront(&entry{postID: postID, img: img})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).postID)
	}
}

// Invalidate drops postID from memory.
func (c *Cache) Invalidate(postID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[postID]; ok {
		c.order.Remove(el)
		delete(c.entries, postID)
	}
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Load returns the image for post, trying in order: memory, the post's
// inline bytes, its image URL, and the per-post image endpoint. Concurrent
// loads of one post share a single resolution.
func (c *Cache) Load(ctx context.Context, post *models.Post) (image.Image, error) {
	if post == nil {
		return nil, ErrNoImage
	}
	if img, ok := c.Get(post.ID); ok {
		return img, nil
	}
	if post.ID == "" {
		return c.resolve(ctx, post)
	}

	// The flight is shared, so it ignores any one caller's cancellation and
	// is bounded by the client's request timeout instead.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(post.ID, func() (interface{}, error) {
		// A flight that finished just before this one may have filled the slot.
		if img, ok := c.lookup(post.ID); ok {
			return img, nil
		}
		img, err := c.resolve(flightCtx, post)
		if err != nil {
			return nil, err
		}
		c.put(post.ID, img)
		return img, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(image.Image), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) resolve(ctx context.Context, post *models.Post) (image.Image, error) {
	if len(post.ImageData) > 0 {
		img, err := decode(post.ImageData)
		if err == nil {
			return img, nil
		}
		c.logger.LogIgnored(ctx, "Load.inline", err)
	}

	var lastErr error
	if post.ImageURL != nil && *post.ImageURL != "" {
		img, err := c.download(ctx, post.ID, *post.ImageURL)
		if err == nil {
			return img, nil
		}
		c.logger.LogIgnored(ctx, "Load.url", err)
		lastErr = err
	}

	if post.ID != "" {
		endpoint := c.fetcher.BaseURL() + "/posts/" + url.PathEscape(post.ID) + "/image"
		img, err := c.download(ctx, post.ID, endpoint)
		if err == nil {
			return img, nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoImage, lastErr)
	}
	return nil, ErrNoImage
}

// download fetches and decodes rawURL, going through the shared L2 when one
// is configured. Bytes that fail to decode are not kept in L2.
func (c *Cache) download(ctx context.Context, postID, rawURL string) (image.Image, error) {
	if !c.l2.Enabled() || postID == "" {
		raw, err := c.fetcher.Fetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		return decode(raw)
	}

	// Only bytes that decode are shared through Redis.
	var fetched image.Image
	raw, err := c.l2.Aside(ctx, "post:"+postID+":"+rawURL, c.l2TTL, func() ([]byte, error) {
		raw, err := c.fetcher.Fetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		img, err := decode(raw)
		if err != nil {
			return nil, err
		}
		fetched = img
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	observability.RecordCacheLookup("redis", fetched == nil)
	if fetched != nil {
		return fetched, nil
	}
	return decode(raw)
}

func decode(raw []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Watch drops cached images of posts that change until ctx ends.
func (c *Cache) Watch(ctx context.Context, bus *events.Bus) {
	ch, unsubscribe := bus.Subscribe(events.DefaultBuffer, events.PostsChanged)
	go func() {
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if ev.PostID != "" {
					c.Invalidate(ev.PostID)
				}
			}
		}
	}()
}
