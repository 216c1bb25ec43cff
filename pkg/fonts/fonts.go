// Package fonts maps design font families to embedded faces.
//
// The Go font family is compiled into the binary through
// golang.org/x/image/font/gofont, so previews render identically on every
// host. Common web family names are mapped onto the closest Go font; unknown
// families fall back to Go Regular.
package fonts

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
)

// DefaultFamily is used for new text elements.
const DefaultFamily = "Go"

var ttfs = map[string][]byte{
	"go":             goregular.TTF,
	"go bold":        gobold.TTF,
	"go italic":      goitalic.TTF,
	"go bold italic": gobolditalic.TTF,
	"go medium":      gomedium.TTF,
	"go mono":        gomono.TTF,
	"go mono bold":   gomonobold.TTF,
}

var aliases = map[string]string{
	"arial":       "go",
	"helvetica":   "go",
	"sans-serif":  "go",
	"inter":       "go",
	"roboto":      "go medium",
	"impact":      "go bold",
	"arial black": "go bold",
	"courier":     "go mono",
	"courier new": "go mono",
	"monospace":   "go mono",
	"georgia":     "go italic",
	"serif":       "go italic",
}

// Families returns the canonical family names.
func Families() []string {
	return []string{"Go", "Go Bold", "Go Italic", "Go Bold Italic", "Go Medium", "Go Mono", "Go Mono Bold"}
}

// Resolve returns the canonical key for a family name and whether the name
// was known. Unknown names resolve to Go Regular.
func Resolve(family string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(family))
	if _, ok := ttfs[key]; ok {
		return key, true
	}
	if alias, ok := aliases[key]; ok {
		return alias, true
	}
	return "go", false
}

var (
	sourcesMu sync.Mutex
	sources   = map[string]*text.FontSource{}
)

func source(key string) (*text.FontSource, error) {
	sourcesMu.Lock()
	defer sourcesMu.Unlock()
	if s, ok := sources[key]; ok {
		return s, nil
	}
	s, err := text.NewFontSource(ttfs[key])
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", key, err)
	}
	sources[key] = s
	return s, nil
}

// Face returns a face of family at size pixels.
func Face(family string, size float64) (text.Face, error) {
	key, _ := Resolve(family)
	s, err := source(key)
	if err != nil {
		return nil, err
	}
	return s.Face(size), nil
}

// Lines splits content into display lines.
func Lines(content string) []string {
	return strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
}

// Measure returns the natural bounding box of content: the widest line's
// advance by the number of lines times the line height.
func Measure(content, family string, size float64) (w, h float64, err error) {
	if content == "" || size <= 0 {
		return 0, 0, nil
	}
	face, err := Face(family, size)
	if err != nil {
		return 0, 0, err
	}
	lines := Lines(content)
	for _, line := range lines {
		lw, _ := text.Measure(line, face)
		w = max(w, lw)
	}
	return w, float64(len(lines)) * face.Metrics().LineHeight(), nil
}
