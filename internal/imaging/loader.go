package imaging

import (
	"sync"
)

// ImageCache provides thread-safe caching of decoded photographs so that
// repeated tool calls against the same file skip disk reads.
//
// Entries are keyed by the exact path string; relative and absolute spellings
// of the same file are cached separately.
//
// Cached images stay in memory until Evict or Clear is called.
//
//	cache := imaging.NewImageCache()
//	raw, err := cache.Load("/field/stone-12.jpg")
//	if err != nil {
//	    return err
//	}
//	cache.Evict("/field/stone-12.jpg")
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]RawImage
}

// NewImageCache creates an empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]RawImage),
	}
}

// Load returns the cached image for path, decoding it from disk on a miss.
//
// Failed loads are not cached. Errors wrap ErrInvalidImage.
func (c *ImageCache) Load(path string) (RawImage, error) {
	c.mu.RLock()
	if raw, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return raw, nil
	}
	c.mu.RUnlock()

	raw, err := LoadRawImage(path)
	if err != nil {
		return RawImage{}, err
	}

	c.mu.Lock()
	c.images[path] = raw
	c.mu.Unlock()

	return raw, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes every image from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]RawImage)
	c.mu.Unlock()
}

// Evict removes one path from the cache. Unknown paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// ImageInfo describes a photograph without exposing its pixels.
type ImageInfo struct {
	Width    int `json:"width"`
	Height   int `json:"height"`
	Channels int `json:"channels"`
}

// Info returns the dimensions and channel count of raw.
func Info(raw RawImage) ImageInfo {
	return ImageInfo{Width: raw.Width(), Height: raw.Height(), Channels: raw.Channels()}
}
