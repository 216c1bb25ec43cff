package resource

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/charmbracelet/log"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/mockup/pkg/cache"
	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/observability"
)

// Resource is a decoded image with its print resolution.
type Resource struct {
	URI       string
	Image     image.Image
	Format    string
	DPI       float64
	DPIStatus DPIStatus
}

// Width returns the pixel width.
func (r *Resource) Width() int { return r.Image.Bounds().Dx() }

// Height returns the pixel height.
func (r *Resource) Height() int { return r.Image.Bounds().Dy() }

// Loader fetches, caches and decodes image resources. It is safe for
// concurrent use.
type Loader struct {
	Fetcher Fetcher
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger
	TTL     time.Duration
}

// NewLoader creates a loader. A nil fetcher uses DefaultFetcher, a nil
// cache disables caching and a nil logger uses log.Default().
func NewLoader(f Fetcher, c cache.Cache, logger *log.Logger) *Loader {
	if f == nil {
		f = NewDefaultFetcher()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{
		Fetcher: f,
		Cache:   c,
		Keyer:   cache.NewDefaultKeyer(),
		Logger:  logger,
		TTL:     cache.ResourceTTL,
	}
}

// Load returns the decoded image behind uri. Every failure is reported as
// a RESOURCE_LOAD_FAILURE.
func (l *Loader) Load(ctx context.Context, uri string) (*Resource, error) {
	if err := errors.ValidateSourceURI(uri); err != nil {
		return nil, errors.Wrap(errors.ErrCodeResourceLoad, err, "invalid image source")
	}

	data, err := l.bytes(ctx, uri)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResourceLoad, err, "load %s", shortURI(uri))
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResourceLoad, err, "decode %s", shortURI(uri))
	}

	dpi, status, dpiErr := ExtractDPI(data, format)
	if status == DPICorrupt {
		l.Logger.Warn("corrupt resolution metadata, assuming default",
			"uri", shortURI(uri), "dpi", dpi, "err", dpiErr)
	}

	return &Resource{URI: uri, Image: img, Format: format, DPI: dpi, DPIStatus: status}, nil
}

func (l *Loader) bytes(ctx context.Context, uri string) ([]byte, error) {
	// data URIs carry their bytes
	if isDataURI(uri) {
		return DecodeDataURI(uri)
	}

	key := l.Keyer.ResourceKey(uri)
	if data, hit, err := l.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "resource")
		return data, nil
	} else if err != nil {
		l.Logger.Debug("resource cache read failed", "err", err)
	}
	observability.Cache().OnCacheMiss(ctx, "resource")

	var data []byte
	err := cache.RetryWithBackoff(ctx, func() error {
		var ferr error
		data, ferr = l.Fetcher.Fetch(ctx, uri)
		return ferr
	})
	if err != nil {
		return nil, err
	}

	if err := l.Cache.Set(ctx, key, data, l.TTL); err != nil {
		l.Logger.Debug("resource cache write failed", "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "resource", len(data))
	}
	return data, nil
}

func isDataURI(uri string) bool {
	return len(uri) >= 5 && uri[:5] == "data:"
}

// shortURI truncates data URIs for logs and messages.
func shortURI(uri string) string {
	const limit = 64
	if len(uri) <= limit {
		return uri
	}
	return uri[:limit] + "..."
}
