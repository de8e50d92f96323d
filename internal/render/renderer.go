package render

import (
	"context"
	"image"
	"log/slog"
	"sync"
)

const (
	maxImages   = 16
	maxRendered = 64
)

type renderKey struct {
	url  string
	opts Options
}

// Renderer downloads, decodes and renders pages, memoizing both the decoded
// images and the rendered text.
type Renderer struct {
	fetcher *Fetcher
	logger  *slog.Logger

	mu         sync.Mutex
	images     map[string]image.Image
	imageKeys  []string
	rendered   map[renderKey]string
	renderKeys []renderKey
}

// NewRenderer creates a new renderer.
func NewRenderer(fetcher *Fetcher, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		fetcher:  fetcher,
		logger:   logger,
		images:   make(map[string]image.Image),
		rendered: make(map[renderKey]string),
	}
}

// Render returns the half-block rendering of the image at url
func (r *Renderer) Render(ctx context.Context, url string, opts Options) (string, error) {
	key := renderKey{url: url, opts: opts}

	r.mu.Lock()
	if out, ok := r.rendered[key]; ok {
		r.mu.Unlock()
		return out, nil
	}
	r.mu.Unlock()

	img, err := r.image(ctx, url)
	if err != nil {
		return "", err
	}
	out := Image(img, opts)

	r.mu.Lock()
	if _, ok := r.rendered[key]; !ok {
		r.renderKeys = append(r.renderKeys, key)
		if len(r.renderKeys) > maxRendered {
			delete(r.rendered, r.renderKeys[0])
			r.renderKeys = r.renderKeys[1:]
		}
	}
	r.rendered[key] = out
	r.mu.Unlock()
	return out, nil
}

// Cached reports whether url at opts is already rendered
func (r *Renderer) Cached(url string, opts Options) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out, ok := r.rendered[renderKey{url: url, opts: opts}]
	return out, ok
}

func (r *Renderer) image(ctx context.Context, url string) (image.Image, error) {
	r.mu.Lock()
	if img, ok := r.images[url]; ok {
		r.mu.Unlock()
		return img, nil
	}
	r.mu.Unlock()

	data, err := r.fetcher.Download(ctx, url)
	if err != nil {
		r.logger.Error("failed to download page", "error", err, "url", url)
		return nil, err
	}
	img, err := Decode(data.Content)
	if err != nil {
		r.logger.Error("failed to decode page", "error", err, "url", url, "contentType", data.ContentType)
		return nil, err
	}

	r.mu.Lock()
	if _, ok := r.images[url]; !ok {
		r.imageKeys = append(r.imageKeys, url)
		if len(r.imageKeys) > maxImages {
			delete(r.images, r.imageKeys[0])
			r.imageKeys = r.imageKeys[1:]
		}
	}
	r.images[url] = img
	r.mu.Unlock()
	return img, nil
}
