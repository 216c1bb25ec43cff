package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Key kinds. Every key starts with its kind and a colon, which FileCache
// uses to group entries on disk and `mockup cache clear` uses to select
// them.
const (
	KindResource = "resource"
	KindPreview  = "preview"
)

// PreviewKeyOpts are the render options that change preview output.
type PreviewKeyOpts struct {
	Width   int
	Height  int
	Quality int
}

// Keyer lays out cache keys.
type Keyer interface {
	// ResourceKey addresses the raw bytes behind a source URI.
	ResourceKey(uri string) string

	// PreviewKey addresses the rendered preview of one side. digest
	// identifies everything drawn: the side's records and its base image.
	PreviewKey(side, digest string, opts PreviewKeyOpts) string
}

// DefaultKeyer is the standard key layout.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ResourceKey hashes the URI. Data URIs can be megabytes long; the key is
// always the kind plus 64 hex characters.
func (DefaultKeyer) ResourceKey(uri string) string {
	return KindResource + ":" + Sum([]byte(uri))
}

// PreviewKey keeps side and render options readable, e.g.
// "preview:back:400x500:q80:<digest>".
func (DefaultKeyer) PreviewKey(side, digest string, opts PreviewKeyOpts) string {
	return fmt.Sprintf("%s:%s:%dx%d:q%d:%s", KindPreview, side, opts.Width, opts.Height, opts.Quality, digest)
}

// ScopedKeyer prefixes every key of an inner keyer so that several
// consumers can share one backend:
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "api:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) ResourceKey(uri string) string {
	return k.prefix + k.inner.ResourceKey(uri)
}

func (k *ScopedKeyer) PreviewKey(side, digest string, opts PreviewKeyOpts) string {
	return k.prefix + k.inner.PreviewKey(side, digest, opts)
}

// Sum returns the hex SHA-256 of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Digest returns the hex SHA-256 of v's JSON encoding. Preview requests are
// digested this way, so equal layer sets share a cache entry.
func Digest(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	return Sum(data), nil
}

var (
	_ Keyer = DefaultKeyer{}
	_ Keyer = (*ScopedKeyer)(nil)
)
