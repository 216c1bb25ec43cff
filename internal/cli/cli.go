// Package cli implements the mockup command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mockup/pkg/api"
	"github.com/matzehuels/mockup/pkg/buildinfo"
	"github.com/matzehuels/mockup/pkg/cache"
	"github.com/matzehuels/mockup/pkg/catalog"
	"github.com/matzehuels/mockup/pkg/preview"
	"github.com/matzehuels/mockup/pkg/resource"
	"github.com/matzehuels/mockup/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "mockup"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Mockup designs, prices and previews custom garments",
		Long:         `Mockup is a headless garment design engine: it places text and images on the front and back of a garment, prices each side by size preset and renders previews.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if c.verbose {
			c.SetLogLevel(LogDebug)
			registerDebugHooks(c.Logger)
		}
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log engine events at debug level")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/mockup/config.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the resource cache")

	root.AddCommand(c.presetsCommand())
	root.AddCommand(c.productsCommand())
	root.AddCommand(c.designCommand())
	root.AddCommand(c.quoteCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version, commit and build date",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	})

	return root
}

// =============================================================================
// Services
// =============================================================================

// services bundles the collaborators commands share.
type services struct {
	cfg      *Config
	products catalog.Source
	designs  store.Designs
	cart     store.Cart
	cache    cache.Cache
	loader   *resource.Loader
	renderer *preview.Renderer
}

func (s *services) Close() error {
	var errs []error
	if s.designs != nil {
		errs = append(errs, s.designs.Close())
	}
	if s.cart != nil {
		errs = append(errs, s.cart.Close())
	}
	if s.cache != nil {
		errs = append(errs, s.cache.Close())
	}
	return errors.Join(errs...)
}

// config loads the configuration named by --config.
func (c *CLI) config() (*Config, error) {
	return loadConfig(c.configPath)
}

// openServices wires products, stores, cache, loader and renderer from the
// configuration. Callers must Close the result.
func (c *CLI) openServices(ctx context.Context) (*services, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	s := &services{cfg: cfg}

	if s.cache, err = newCache(ctx, cfg.Cache, c.noCache); err != nil {
		return nil, err
	}
	s.loader = resource.NewLoader(nil, s.cache, c.Logger)
	s.loader.TTL = cfg.Cache.TTL

	s.renderer = preview.NewRenderer(s.loader, c.Logger,
		preview.WithBounds(cfg.Preview.MaxWidth, cfg.Preview.MaxHeight),
		preview.WithQuality(cfg.Preview.Quality),
		preview.WithCache(s.cache, cache.NewScopedKeyer(cache.NewDefaultKeyer(), "preview:")),
	)

	var client *api.Client
	if cfg.Store.URL != "" {
		client = api.NewClient(cfg.Store.URL)
	}

	switch {
	case cfg.Products != "":
		s.products = catalog.NewFileSource(cfg.Products)
	case client != nil:
		s.products = client
	default:
		s.products = catalog.NewFileSource("products.toml")
	}

	if cfg.Store.Backend == backendHTTP {
		if client == nil {
			s.Close()
			return nil, errors.New("store backend http needs store.url")
		}
		s.designs = client
	} else if s.designs, err = store.OpenDesigns(ctx, cfg.storeConfig()); err != nil {
		s.Close()
		return nil, err
	}

	if cfg.Cart.Backend == backendHTTP {
		if client == nil {
			s.Close()
			return nil, errors.New("cart backend http needs store.url")
		}
		s.cart = client
	} else if s.cart, err = store.OpenCart(ctx, cfg.storeConfig()); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func newCache(ctx context.Context, cfg CacheConfig, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Backend == "none" {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case "redis":
		return cache.NewRedisCache(ctx, cfg.RedisURL)
	default:
		dir := cfg.Dir
		if dir == "" {
			var err error
			if dir, err = cacheDir(); err != nil {
				return cache.NewNullCache(), nil
			}
		}
		return cache.NewFileCache(dir)
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/mockup/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
