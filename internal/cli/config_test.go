package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/matzehuels/mockup/pkg/catalog"
	"github.com/matzehuels/mockup/pkg/store"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	presets := writeFile(t, dir, "presets.toml", `
[[preset]]
id = "pocket"
price = 60
`)
	path := writeFile(t, dir, "config.toml", `
products = "products.toml"

[pricing]
price_per_pixel = 0.005
presets = "`+presets+`"

[editor]
debounce = "500ms"
default_preset = "small"

[store]
backend = "sqlite"
path = "designs.db"

[cache]
backend = "none"
`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Editor.Debounce != 500*time.Millisecond {
		t.Errorf("debounce = %v", cfg.Editor.Debounce)
	}
	if cfg.Store.Backend != store.BackendSQLite || cfg.Cart.Backend != store.BackendMemory {
		t.Errorf("backends = %q / %q", cfg.Store.Backend, cfg.Cart.Backend)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr default = %q", cfg.Server.Addr)
	}

	opts, err := cfg.editorOptions()
	if err != nil {
		t.Fatalf("editorOptions: %v", err)
	}
	if opts.DefaultPreset != catalog.PresetSmall {
		t.Errorf("default preset = %q", opts.DefaultPreset)
	}
	if !opts.Pricing.PricePerPixel.Equal(decimal.RequireFromString("0.005")) {
		t.Errorf("price per pixel = %s", opts.Pricing.PricePerPixel)
	}
	pocket, _ := opts.Pricing.Catalog.Lookup(catalog.PresetPocket)
	if !pocket.FixedPrice.Equal(decimal.NewFromInt(60)) {
		t.Errorf("pocket price = %s, want 60", pocket.FixedPrice)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.toml", `
[store]
backend = "file"
`)
	t.Setenv("MOCKUP_STORE", "mongo")
	t.Setenv("MOCKUP_MONGO_URI", "mongodb://db:27017")
	t.Setenv("MOCKUP_DEBOUNCE", "1s")
	t.Setenv("MOCKUP_MAX_BODY", "not-a-number")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Store.Backend != store.BackendMongo || cfg.Store.MongoURI != "mongodb://db:27017" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Editor.Debounce != time.Second {
		t.Errorf("debounce = %v", cfg.Editor.Debounce)
	}
	if cfg.Server.MaxBody != 0 {
		t.Errorf("invalid int should keep the file value, got %d", cfg.Server.MaxBody)
	}
	if sc := cfg.storeConfig(); sc.MongoURI != cfg.Store.MongoURI || sc.CartBackend != store.BackendMemory {
		t.Errorf("storeConfig = %+v", sc)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if _, err := loadConfig(""); err != nil {
		t.Errorf("missing default config should not fail: %v", err)
	}
	if _, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("missing explicit config should fail")
	}

	bad := writeFile(t, t.TempDir(), "bad.toml", "[store\n")
	if _, err := loadConfig(bad); err == nil {
		t.Error("malformed config should fail")
	}
}

func TestPricingOptionsInvalid(t *testing.T) {
	cfg := &Config{Pricing: PricingConfig{Presets: filepath.Join(t.TempDir(), "missing.toml")}}
	if _, err := cfg.pricingOptions(); err == nil {
		t.Error("missing presets file should fail")
	}
}
