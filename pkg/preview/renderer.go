package preview

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mockup/pkg/cache"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/observability"
	"github.com/matzehuels/mockup/pkg/scene"
	"github.com/matzehuels/mockup/pkg/sched"
)

// Preview bounds and compression defaults.
const (
	DefaultMaxWidth  = 400
	DefaultMaxHeight = 500
	DefaultQuality   = 80
)

// Option configures a Renderer.
type Option func(*Renderer)

// WithBounds sets the box previews are downscaled to fit.
func WithBounds(w, h int) Option {
	return func(r *Renderer) {
		if w > 0 && h > 0 {
			r.maxW, r.maxH = w, h
		}
	}
}

// WithQuality sets the JPEG quality (1-100).
func WithQuality(q int) Option {
	return func(r *Renderer) {
		if q >= 1 && q <= 100 {
			r.quality = q
		}
	}
}

// WithSettleDelay waits d before capturing, on the given clock.
func WithSettleDelay(d time.Duration, clock sched.Clock) Option {
	return func(r *Renderer) {
		r.settle = d
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithCache caches off-screen previews. A nil keyer means the default.
func WithCache(c cache.Cache, keyer cache.Keyer) Option {
	return func(r *Renderer) {
		if c != nil {
			r.cache = c
		}
		if keyer != nil {
			r.keyer = keyer
		}
	}
}

// Renderer captures previews.
type Renderer struct {
	loader  scene.Loader
	logger  *log.Logger
	cache   cache.Cache
	keyer   cache.Keyer
	clock   sched.Clock
	settle  time.Duration
	maxW    int
	maxH    int
	quality int
}

// NewRenderer creates a renderer that loads off-screen images with loader.
func NewRenderer(loader scene.Loader, logger *log.Logger, opts ...Option) *Renderer {
	if logger == nil {
		logger = log.Default()
	}
	r := &Renderer{
		loader:  loader,
		logger:  logger,
		cache:   cache.NewNullCache(),
		keyer:   cache.NewDefaultKeyer(),
		clock:   sched.RealClock{},
		maxW:    DefaultMaxWidth,
		maxH:    DefaultMaxHeight,
		quality: DefaultQuality,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Request describes an off-screen preview.
type Request struct {
	Side     layer.Side     `json:"side"`
	Records  []layer.Record `json:"records"`
	BaseURI  string         `json:"baseUri"`
	Backdrop bool           `json:"backdrop"`
	Fill     string         `json:"fill,omitempty"`
}

// Snapshot captures the live surface s as a compressed data URI. The
// surface is only read.
func (r *Renderer) Snapshot(ctx context.Context, s *scene.Surface, side layer.Side) (string, error) {
	start := time.Now()
	observability.Render().OnPreviewStart(ctx, string(side), false)

	uri, err := r.capture(ctx, s)
	observability.Render().OnPreviewComplete(ctx, string(side), len(uri), time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("snapshot %s: %w", side, err)
	}
	r.logger.Debug("captured preview", "side", side, "bytes", len(uri), "duration", time.Since(start))
	return uri, nil
}

// Offscreen renders req on an isolated surface that is released before
// returning. Elements whose image fails to load are left out and their
// errors returned; such partial previews are not cached.
func (r *Renderer) Offscreen(ctx context.Context, req Request) (string, []error, error) {
	start := time.Now()
	side := string(req.Side)
	observability.Render().OnPreviewStart(ctx, side, true)

	key, err := r.key(req)
	if err != nil {
		return "", nil, err
	}
	if data, hit, err := r.cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "preview")
		observability.Render().OnPreviewComplete(ctx, side, len(data), time.Since(start), nil)
		return string(data), nil, nil
	}
	observability.Cache().OnCacheMiss(ctx, "preview")

	s, loadErrs := scene.Build(ctx, r.loader, scene.BuildOptions{
		Side:     req.Side,
		Records:  req.Records,
		BaseURI:  req.BaseURI,
		Backdrop: req.Backdrop,
		Fill:     req.Fill,
	})
	defer s.Release()

	uri, err := r.capture(ctx, s)
	observability.Render().OnPreviewComplete(ctx, side, len(uri), time.Since(start), err)
	if err != nil {
		return "", loadErrs, fmt.Errorf("render %s off-screen: %w", side, err)
	}

	if len(loadErrs) == 0 {
		if err := r.cache.Set(ctx, key, []byte(uri), cache.PreviewTTL); err != nil {
			r.logger.Warn("cache preview", "side", side, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "preview", len(uri))
		}
	}
	r.logger.Debug("rendered off-screen preview", "side", side, "layers", len(req.Records),
		"failed", len(loadErrs), "duration", time.Since(start))
	return uri, loadErrs, nil
}

// Download renders s at full resolution times scale as PNG.
func (r *Renderer) Download(s *scene.Surface, scale float64) ([]byte, error) {
	img, err := Rasterize(s, scale)
	if err != nil {
		return nil, err
	}
	return EncodePNG(img)
}

func (r *Renderer) capture(ctx context.Context, s *scene.Surface) (string, error) {
	if r.settle > 0 {
		if err := sched.Sleep(ctx, r.clock, r.settle); err != nil {
			return "", err
		}
	}
	img, err := Rasterize(s, 1)
	if err != nil {
		return "", err
	}
	return EncodeJPEG(img, r.maxW, r.maxH, r.quality)
}

func (r *Renderer) key(req Request) (string, error) {
	digest, err := cache.Digest(req)
	if err != nil {
		return "", err
	}
	return r.keyer.PreviewKey(string(req.Side), digest, cache.PreviewKeyOpts{
		Width:   r.maxW,
		Height:  r.maxH,
		Quality: r.quality,
	}), nil
}
