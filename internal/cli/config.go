package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"github.com/matzehuels/mockup/pkg/catalog"
	"github.com/matzehuels/mockup/pkg/design"
	"github.com/matzehuels/mockup/pkg/pricing"
	"github.com/matzehuels/mockup/pkg/store"
)

// =============================================================================
// Configuration
// =============================================================================

// Config is the mockup configuration file:
//
//	[pricing]
//	price_per_pixel = 0.002
//	presets = "presets.toml"
//
//	[editor]
//	debounce = "300ms"
//	default_preset = "medium"
//
//	[store]
//	backend = "sqlite"
//	path = "/var/lib/mockup/designs.db"
//
// Every file value can be overridden by a MOCKUP_* environment variable.
type Config struct {
	Products string        `toml:"products"`
	Pricing  PricingConfig `toml:"pricing"`
	Editor   EditorConfig  `toml:"editor"`
	Preview  PreviewConfig `toml:"preview"`
	Store    StoreConfig   `toml:"store"`
	Cart     CartConfig    `toml:"cart"`
	Cache    CacheConfig   `toml:"cache"`
	Server   ServerConfig  `toml:"server"`
}

type PricingConfig struct {
	PricePerPixel float64 `toml:"price_per_pixel"`
	DefaultDPI    float64 `toml:"default_dpi"`
	Presets       string  `toml:"presets"`
}

type EditorConfig struct {
	Debounce      time.Duration `toml:"debounce"`
	DefaultPreset string        `toml:"default_preset"`
	Backdrop      bool          `toml:"backdrop"`
	BackdropFill  string        `toml:"backdrop_fill"`
	CartID        string        `toml:"cart_id"`
	FontFamily    string        `toml:"font_family"`
	FontSize      float64       `toml:"font_size"`
	TextColor     string        `toml:"text_color"`
	PayloadLimit  int           `toml:"payload_limit"`
}

type PreviewConfig struct {
	MaxWidth  int `toml:"max_width"`
	MaxHeight int `toml:"max_height"`
	Quality   int `toml:"quality"`
}

type StoreConfig struct {
	Backend  string `toml:"backend"` // file, sqlite, mongo or http
	Dir      string `toml:"dir"`
	Path     string `toml:"path"`
	MongoURI string `toml:"mongo_uri"`
	MongoDB  string `toml:"mongo_db"`
	URL      string `toml:"url"`
}

type CartConfig struct {
	Backend  string `toml:"backend"` // memory, redis or http
	RedisURL string `toml:"redis_url"`
}

type CacheConfig struct {
	Backend  string        `toml:"backend"` // file, redis or none
	Dir      string        `toml:"dir"`
	RedisURL string        `toml:"redis_url"`
	TTL      time.Duration `toml:"ttl"`
}

type ServerConfig struct {
	Addr    string `toml:"addr"`
	MaxBody int    `toml:"max_body"`
}

// backendHTTP routes designs and carts through a remote mockup server.
const backendHTTP = "http"

// configPath returns the default config location
// ($XDG_CONFIG_HOME/mockup/config.toml).
func configPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// loadConfig reads path, or the default location when path is empty. A
// missing default file is not an error; a missing explicit file is.
func loadConfig(path string) (*Config, error) {
	cfg := &Config{}
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = configPath(); err != nil {
			path = ""
		}
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("load config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	cfg.setDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Products = getEnv("MOCKUP_PRODUCTS", c.Products)
	c.Pricing.Presets = getEnv("MOCKUP_PRESETS", c.Pricing.Presets)
	c.Pricing.PricePerPixel = getEnvAsFloat("MOCKUP_PRICE_PER_PIXEL", c.Pricing.PricePerPixel)
	c.Editor.Debounce = getEnvAsDuration("MOCKUP_DEBOUNCE", c.Editor.Debounce)
	c.Editor.DefaultPreset = getEnv("MOCKUP_DEFAULT_PRESET", c.Editor.DefaultPreset)
	c.Editor.CartID = getEnv("MOCKUP_CART_ID", c.Editor.CartID)

	c.Store.Backend = getEnv("MOCKUP_STORE", c.Store.Backend)
	c.Store.Dir = getEnv("MOCKUP_STORE_DIR", c.Store.Dir)
	c.Store.Path = getEnv("MOCKUP_SQLITE_PATH", c.Store.Path)
	c.Store.MongoURI = getEnv("MOCKUP_MONGO_URI", c.Store.MongoURI)
	c.Store.MongoDB = getEnv("MOCKUP_MONGO_DB", c.Store.MongoDB)
	c.Store.URL = getEnv("MOCKUP_SERVER_URL", c.Store.URL)

	c.Cart.Backend = getEnv("MOCKUP_CART", c.Cart.Backend)
	c.Cart.RedisURL = getEnv("MOCKUP_REDIS_URL", c.Cart.RedisURL)

	c.Cache.Backend = getEnv("MOCKUP_CACHE", c.Cache.Backend)
	c.Cache.Dir = getEnv("MOCKUP_CACHE_DIR", c.Cache.Dir)
	c.Cache.RedisURL = getEnv("MOCKUP_CACHE_REDIS_URL", c.Cache.RedisURL)

	c.Server.Addr = getEnv("MOCKUP_ADDR", c.Server.Addr)
	c.Server.MaxBody = getEnvAsInt("MOCKUP_MAX_BODY", c.Server.MaxBody)
}

func (c *Config) setDefaults() {
	if c.Store.Backend == "" {
		c.Store.Backend = store.BackendFile
	}
	if c.Cart.Backend == "" {
		c.Cart.Backend = store.BackendMemory
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "file"
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 24 * time.Hour
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

// pricingOptions builds pricing options, loading the preset override
// file if one is configured.
func (c *Config) pricingOptions() (pricing.Options, error) {
	opts := pricing.Options{DefaultDPI: c.Pricing.DefaultDPI}
	if c.Pricing.PricePerPixel > 0 {
		opts.PricePerPixel = decimal.NewFromFloat(c.Pricing.PricePerPixel)
	}
	if c.Pricing.Presets != "" {
		cat, err := catalog.LoadFile(c.Pricing.Presets)
		if err != nil {
			return opts, err
		}
		opts.Catalog = cat
	}
	opts.SetDefaults()
	return opts, opts.Validate()
}

// editorOptions builds editor options.
func (c *Config) editorOptions() (design.Options, error) {
	p, err := c.pricingOptions()
	if err != nil {
		return design.Options{}, err
	}
	return design.Options{
		Pricing:       p,
		Debounce:      c.Editor.Debounce,
		DefaultPreset: c.Editor.DefaultPreset,
		Backdrop:      c.Editor.Backdrop,
		BackdropFill:  c.Editor.BackdropFill,
		PayloadLimit:  c.Editor.PayloadLimit,
		CartID:        c.Editor.CartID,
		FontFamily:    c.Editor.FontFamily,
		FontSize:      c.Editor.FontSize,
		TextColor:     c.Editor.TextColor,
	}, nil
}

// storeConfig maps the store and cart sections onto store.Config.
func (c *Config) storeConfig() store.Config {
	return store.Config{
		Backend:     c.Store.Backend,
		Dir:         c.Store.Dir,
		Path:        c.Store.Path,
		MongoURI:    c.Store.MongoURI,
		MongoDB:     c.Store.MongoDB,
		CartBackend: c.Cart.Backend,
		RedisURL:    c.Cart.RedisURL,
	}
}

// =============================================================================
// Environment
// =============================================================================

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}
