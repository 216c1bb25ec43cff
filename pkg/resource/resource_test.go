package resource

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mockup/pkg/cache"
	"github.com/matzehuels/mockup/pkg/errors"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// withPHYs inserts a pHYs chunk right after IHDR.
func withPHYs(data []byte, ppu uint32, unit byte) []byte {
	body := make([]byte, 9)
	binary.BigEndian.PutUint32(body[0:4], ppu)
	binary.BigEndian.PutUint32(body[4:8], ppu)
	body[8] = unit

	chunk := make([]byte, 0, 21)
	chunk = binary.BigEndian.AppendUint32(chunk, 9)
	typed := append([]byte("pHYs"), body...)
	chunk = append(chunk, typed...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(typed))

	const ihdrEnd = 8 + 4 + 4 + 13 + 4
	out := append([]byte{}, data[:ihdrEnd]...)
	out = append(out, chunk...)
	return append(out, data[ihdrEnd:]...)
}

func testJFIF(t *testing.T, units byte, density uint16) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4)), nil); err != nil {
		t.Fatal(err)
	}
	raw := buf.Bytes()
	app0 := []byte{0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 1, 1, units, 0, 0, 0, 0, 0, 0}
	binary.BigEndian.PutUint16(app0[12:14], density)
	binary.BigEndian.PutUint16(app0[14:16], density)
	out := append([]byte{}, raw[:2]...)
	out = append(out, app0...)
	return append(out, raw[2:]...)
}

func testTIFFHeader(xNum, xDen uint32, unit uint16) []byte {
	bo := binary.LittleEndian
	data := make([]byte, 8+2+3*12+4+8)
	copy(data, "II")
	bo.PutUint16(data[2:4], 42)
	bo.PutUint32(data[4:8], 8)
	bo.PutUint16(data[8:10], 3)
	ratOff := uint32(8 + 2 + 3*12 + 4)

	entry := func(i int, tag, typ uint16, count, value uint32) {
		e := data[10+i*12:]
		bo.PutUint16(e[0:2], tag)
		bo.PutUint16(e[2:4], typ)
		bo.PutUint32(e[4:8], count)
		bo.PutUint32(e[8:12], value)
	}
	entry(0, 282, 5, 1, ratOff)
	entry(1, 283, 5, 1, ratOff)
	entry(2, 296, 3, 1, uint32(unit))
	bo.PutUint32(data[ratOff:], xNum)
	bo.PutUint32(data[ratOff+4:], xDen)
	return data
}

func TestExtractDPI(t *testing.T) {
	plain := testPNG(t, 2, 2)

	tests := []struct {
		name       string
		data       []byte
		format     string
		wantDPI    float64
		wantStatus DPIStatus
	}{
		{"png without pHYs", plain, "png", DefaultDPI, DPIMissing},
		{"png 72dpi", withPHYs(plain, 2835, 1), "png", 72.009, DPIMetadata},
		{"png unitless", withPHYs(plain, 2835, 0), "png", DefaultDPI, DPIMissing},
		{"png zero ppu", withPHYs(plain, 0, 1), "png", DefaultDPI, DPICorrupt},
		{"png truncated", plain[:20], "png", DefaultDPI, DPICorrupt},
		{"jfif 150dpi", testJFIF(t, 1, 150), "jpeg", 150, DPIMetadata},
		{"jfif dpcm", testJFIF(t, 2, 100), "jpeg", 254, DPIMetadata},
		{"jfif aspect only", testJFIF(t, 0, 1), "jpeg", DefaultDPI, DPIMissing},
		{"jpeg garbage", []byte{0x00, 0x01, 0x02, 0x03}, "jpeg", DefaultDPI, DPICorrupt},
		{"tiff inches", testTIFFHeader(600, 1, 2), "tiff", 600, DPIMetadata},
		{"tiff cm", testTIFFHeader(100, 1, 3), "tiff", 254, DPIMetadata},
		{"tiff zero denominator", testTIFFHeader(600, 0, 2), "tiff", DefaultDPI, DPICorrupt},
		{"gif", []byte("GIF89a"), "gif", DefaultDPI, DPIMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dpi, status, err := ExtractDPI(tt.data, tt.format)
			if status != tt.wantStatus {
				t.Fatalf("status = %s (err %v), want %s", status, err, tt.wantStatus)
			}
			if status == DPICorrupt && err == nil {
				t.Error("corrupt status should carry an error")
			}
			if diff := dpi - tt.wantDPI; diff > 0.01 || diff < -0.01 {
				t.Errorf("dpi = %v, want %v", dpi, tt.wantDPI)
			}
		})
	}
}

func TestDataURI(t *testing.T) {
	uri := EncodeDataURI("image/png", []byte{1, 2, 3})
	data, err := DecodeDataURI(uri)
	if err != nil || !bytes.Equal(data, []byte{1, 2, 3}) {
		t.Fatalf("DecodeDataURI = %v, %v", data, err)
	}
	if data, _ := DecodeDataURI("data:text/plain,hello%20world"); string(data) != "hello world" {
		t.Errorf("percent-encoded payload = %q", data)
	}
	if _, err := DecodeDataURI("data:image/png;base64"); err == nil {
		t.Error("missing comma should fail")
	}
}

func TestLoaderDataURI(t *testing.T) {
	l := NewLoader(nil, nil, log.New(os.Stderr))
	res, err := l.Load(context.Background(), EncodeDataURI("image/png", withPHYs(testPNG(t, 3, 2), 11811, 1)))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Width() != 3 || res.Height() != 2 || res.Format != "png" {
		t.Errorf("resource = %dx%d %s", res.Width(), res.Height(), res.Format)
	}
	if res.DPIStatus != DPIMetadata || res.DPI < 299.9 || res.DPI > 300.1 {
		t.Errorf("dpi = %v (%s)", res.DPI, res.DPIStatus)
	}
}

func TestLoaderCachesFetches(t *testing.T) {
	var hits atomic.Int32
	payload := testPNG(t, 4, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Write(payload)
	}))
	defer srv.Close()

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	l := NewLoader(nil, fc, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := l.Load(ctx, srv.URL+"/tee-front.png"); err != nil {
			t.Fatalf("Load #%d: %v", i, err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1", hits.Load())
	}

	_, err = l.Load(ctx, srv.URL+"/missing.png")
	if !errors.Is(err, errors.ErrCodeResourceLoad) {
		t.Errorf("missing resource error = %v", err)
	}
}

func TestLoaderFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logo.png")
	if err := os.WriteFile(path, testPNG(t, 5, 5), 0o644); err != nil {
		t.Fatal(err)
	}
	l := NewLoader(nil, nil, nil)
	ctx := context.Background()

	for _, uri := range []string{path, "file://" + path} {
		if _, err := l.Load(ctx, uri); err != nil {
			t.Errorf("Load(%s): %v", uri, err)
		}
	}

	corrupt := filepath.Join(dir, "bad.png")
	_ = os.WriteFile(corrupt, []byte("not an image"), 0o644)
	if _, err := l.Load(ctx, corrupt); !errors.Is(err, errors.ErrCodeResourceLoad) {
		t.Errorf("undecodable file error = %v", err)
	}
	if _, err := l.Load(ctx, "../etc/passwd"); !errors.Is(err, errors.ErrCodeResourceLoad) {
		t.Errorf("traversal error = %v", err)
	}
}

func TestLoaderUsesFetcher(t *testing.T) {
	calls := 0
	f := FetcherFunc(func(ctx context.Context, uri string) ([]byte, error) {
		calls++
		return testPNG(t, 1, 1), nil
	})
	l := NewLoader(f, nil, nil)
	if _, err := l.Load(context.Background(), "https://cdn.example.com/a.png"); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("fetcher called %d times", calls)
	}
}
