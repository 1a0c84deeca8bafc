package render

import (
	"image"
	"log/slog"
	"sync"
)

// FetchFunc resolves an image source reference to a decoded image. It
// runs on its own goroutine and may block.
type FetchFunc func(source string) (image.Image, error)

// ImageCache memoizes decoded images by source reference. A cache miss
// starts a single background fetch and reports not-ready; the caller
// draws without the image and repaints when the ready callback fires.
type ImageCache struct {
	mu      sync.Mutex
	images  map[string]image.Image
	pending map[string]struct{}

	fetch   FetchFunc
	onReady func(source string)
}

// NewImageCache creates a cache backed by fetch. onReady, if non-nil, is
// called off the caller's goroutine each time a fetched image becomes
// available, so the owner can schedule a repaint. Either may be nil.
func NewImageCache(fetch FetchFunc, onReady func(source string)) *ImageCache {
	return &ImageCache{
		images:  make(map[string]image.Image),
		pending: make(map[string]struct{}),
		fetch:   fetch,
		onReady: onReady,
	}
}

// Get returns the decoded image for source. While a fetch is in flight
// it returns (nil, false); an unknown source starts one fetch on first
// use. Failed fetches are logged and retried on a later Get.
func (c *ImageCache) Get(source string) (image.Image, bool) {
	if source == "" {
		return nil, false
	}

	c.mu.Lock()
	if img, ok := c.images[source]; ok {
		c.mu.Unlock()
		return img, true
	}
	if c.fetch == nil {
		c.mu.Unlock()
		return nil, false
	}
	if _, inflight := c.pending[source]; inflight {
		c.mu.Unlock()
		return nil, false
	}
	c.pending[source] = struct{}{}
	c.mu.Unlock()

	go c.load(source)
	return nil, false
}

func (c *ImageCache) load(source string) {
	img, err := c.fetch(source)

	c.mu.Lock()
	delete(c.pending, source)
	if err == nil {
		c.images[source] = img
	}
	c.mu.Unlock()

	if err != nil {
		slog.Error("image fetch failed", "source", source, "error", err)
		return
	}
	if c.onReady != nil {
		c.onReady(source)
	}
}

// Ensure fetches source synchronously so a following render sees it.
// Export paths use it; interactive paths stay on Get.
func (c *ImageCache) Ensure(source string) bool {
	if source == "" {
		return false
	}

	c.mu.Lock()
	_, ok := c.images[source]
	fetch := c.fetch
	c.mu.Unlock()
	if ok {
		return true
	}
	if fetch == nil {
		return false
	}

	img, err := fetch(source)
	if err != nil {
		slog.Error("image fetch failed", "source", source, "error", err)
		return false
	}
	c.Put(source, img)
	return true
}

// Put stores an already decoded image, replacing any cached one.
func (c *ImageCache) Put(source string, img image.Image) {
	if source == "" || img == nil {
		return
	}
	c.mu.Lock()
	c.images[source] = img
	c.mu.Unlock()
}

// Forget drops source from the cache so the next Get fetches it again.
func (c *ImageCache) Forget(source string) {
	c.mu.Lock()
	delete(c.images, source)
	c.mu.Unlock()
}
