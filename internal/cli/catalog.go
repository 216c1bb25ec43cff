package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mockup/pkg/catalog"
	"github.com/matzehuels/mockup/pkg/pricing"
)

// presetsCommand creates the presets command.
func (c *CLI) presetsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List the print size presets and their prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			opts, err := cfg.pricingOptions()
			if err != nil {
				return err
			}
			presets := opts.Catalog.Presets()
			if asJSON {
				return writeJSONOut(presets)
			}
			fmt.Println(presetTable(presets, opts))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func presetTable(presets []catalog.Preset, opts pricing.Options) string {
	rows := make([][]string, 0, len(presets))
	for _, p := range presets {
		rows = append(rows, []string{
			p.ID,
			p.Name,
			fmt.Sprintf("%.0f x %.0f px", p.MaxWidthPx, p.MaxHeightPx),
			fmt.Sprintf("%.1f x %.1f in", p.MaxWidthPx/opts.DefaultDPI, p.MaxHeightPx/opts.DefaultDPI),
			p.FixedPrice.StringFixed(2),
		})
	}
	return newTable("Preset", "Name", "Max size", "At default DPI", "Price").Rows(rows...).Render()
}

// productsCommand creates the products command.
func (c *CLI) productsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "products [slug]",
		Short: "List products, or show one product",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := c.openServices(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			if len(args) == 1 {
				p, err := svc.products.ProductBySlug(ctx, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSONOut(p)
				}
				printProduct(p)
				return nil
			}

			products, err := svc.products.Products(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSONOut(products)
			}
			if len(products) == 0 {
				printInfo("No products")
				return nil
			}
			rows := make([][]string, 0, len(products))
			for _, p := range products {
				colors := make([]string, len(p.Variants))
				for i, v := range p.Variants {
					colors[i] = v.Color
				}
				rows = append(rows, []string{p.Slug, p.Name, p.Price.StringFixed(2),
					strings.Join(colors, ", "), strings.Join(p.Sizes, " ")})
			}
			fmt.Println(newTable("Slug", "Name", "Price", "Colors", "Sizes").Rows(rows...).Render())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printProduct(p *catalog.Product) {
	fmt.Println(StyleTitle.Render(p.Name))
	printKeyValue("Slug", p.Slug)
	printKeyValue("Price", p.Price.StringFixed(2))
	printKeyValue("Sizes", strings.Join(p.Sizes, " "))
	for _, v := range p.Variants {
		printKeyValue("Color", fmt.Sprintf("%s (%d images)", v.Color, len(v.Images)))
	}
	if cp := p.CustomizationPricing; cp != nil {
		for id, price := range cp.PresetPrices {
			printKeyValue("Preset", fmt.Sprintf("%s %s", id, price.StringFixed(2)))
		}
		if cp.PricePerPixel != nil {
			printKeyValue("Per pixel", cp.PricePerPixel.String())
		}
	}
}

func writeJSONOut(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
