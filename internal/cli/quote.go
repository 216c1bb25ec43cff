package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mockup/pkg/api"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/payload"
)

// quoteCommand creates the quote command.
func (c *CLI) quoteCommand() *cobra.Command {
	var (
		server  string
		preview string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "quote <design.json>",
		Short: "Price a saved design payload",
		Long: `Price a design payload by projecting both sides off-screen.

The layer costs stored in the payload are ignored; every side is priced
again with the current presets and product pricing. With --server the
quote is computed by a running mockup server.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			d, err := payload.DecodeDesign(data)
			if err != nil {
				return err
			}
			req := api.QuoteRequest{
				ProductSlug: d.ProductSlug,
				Color:       d.SelectedColor,
				Front:       d.Front.DesignLayers,
				Back:        d.Back.DesignLayers,
				Preview:     preview != "",
			}

			var resp *api.QuoteResponse
			if server != "" {
				client := api.NewClient(server)
				defer client.Close()
				resp, err = client.Quote(ctx, req)
			} else {
				resp, err = c.localQuote(ctx, req)
			}
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSONOut(resp)
			}
			printQuote(resp.Quote)
			for _, w := range resp.Warnings {
				printWarning("%s", w)
			}
			if !resp.Total.Equal(d.TotalPrice) {
				printDetail("Saved total was %s", d.TotalPrice.StringFixed(2))
			}
			if preview != "" {
				return writePreviews(preview, resp.Previews)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "quote with a running server at this URL")
	cmd.Flags().StringVar(&preview, "preview", "", "also write JPEG previews to this directory")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (c *CLI) localQuote(ctx context.Context, req api.QuoteRequest) (*api.QuoteResponse, error) {
	srv, svc, err := c.newServer(ctx)
	if err != nil {
		return nil, err
	}
	defer svc.Close()
	return srv.Quote(ctx, req)
}

func writePreviews(dir string, previews map[layer.Side]string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, side := range layer.Sides {
		uri, ok := previews[side]
		if !ok {
			continue
		}
		data, ext, err := decodeDataURI(uri)
		if err != nil {
			return fmt.Errorf("%s preview: %w", side, err)
		}
		out := filepath.Join(dir, side.String()+ext)
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return err
		}
		printFile(out)
	}
	return nil
}

// decodeDataURI decodes a base64 image data URI and returns its bytes and
// a file extension for its media type.
func decodeDataURI(uri string) ([]byte, string, error) {
	header, body, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, "", fmt.Errorf("not a base64 data URI")
	}
	data, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, "", err
	}
	ext := ".jpg"
	if strings.HasPrefix(header, "image/png") {
		ext = ".png"
	}
	return data, ext, nil
}
