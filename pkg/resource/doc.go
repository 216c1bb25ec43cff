// Package resource loads raster images referenced by design elements and
// garment mockups.
//
// Sources may be http(s) URLs, file paths (optionally file://) or data URIs.
// Raw bytes go through a [cache.Cache] so repeated rebuilds of a side do not
// refetch the same mockup. Decoding supports PNG, JPEG, GIF, WebP, TIFF and
// BMP.
//
// The print resolution of an image is read from its metadata (PNG pHYs,
// JPEG JFIF, TIFF resolution tags). When none is usable the loader falls
// back to [DefaultDPI] and reports why through [DPIStatus], so callers can
// tell "no metadata" apart from "corrupt metadata".
package resource
