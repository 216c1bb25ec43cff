package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mockup/pkg/design"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/payload"
	"github.com/matzehuels/mockup/pkg/sched"
)

// designOpts holds the flags of the design command.
type designOpts struct {
	output string
	scale  float64
	save   bool
	cart   int
}

// designCommand creates the design command.
func (c *CLI) designCommand() *cobra.Command {
	opts := designOpts{}

	cmd := &cobra.Command{
		Use:   "design <script.toml>",
		Short: "Replay an edit script and write previews and the design payload",
		Long: `Replay an edit script through the editor, then write one PNG per side
and the design payload (design.json) to the output directory.

With --save the design is stored in the configured design store; with
--cart it is also added to the cart.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDesign(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", ".", "output directory")
	cmd.Flags().Float64Var(&opts.scale, "scale", 1, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.save, "save", false, "save the design to the store")
	cmd.Flags().IntVar(&opts.cart, "cart", 0, "add this quantity to the cart")

	return cmd
}

func (c *CLI) runDesign(cmd *cobra.Command, path string, opts designOpts) error {
	ctx := cmd.Context()
	watch := newStopwatch(c.Logger)

	script, err := loadScript(path)
	if err != nil {
		return err
	}
	svc, err := c.openServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	product, err := svc.products.ProductBySlug(ctx, script.Product)
	if err != nil {
		return err
	}
	edOpts, err := svc.cfg.editorOptions()
	if err != nil {
		return err
	}
	if script.Preset != "" {
		edOpts.DefaultPreset = script.Preset
	}
	edOpts.Backdrop = edOpts.Backdrop || script.Backdrop

	notes := newNotices(c.Logger)
	e, err := design.New(sched.NewLoop(), svc.loader, edOpts, c.Logger,
		design.WithRenderer(svc.renderer),
		design.WithStore(svc.designs),
		design.WithCart(svc.cart),
		design.WithNotifier(notes.notify),
	)
	if err != nil {
		return err
	}
	defer e.Close()

	spinner := newSpinner(ctx, fmt.Sprintf("Designing %s", product.Name))
	spinner.Start()
	err = e.Open(ctx, product, script.Color, script.Size)
	if err == nil {
		err = e.Loop().Settle(ctx)
	}
	if err == nil {
		runner := newScriptRunner(script, e)
		runner.onStep = func(i, n int, step Step) { spinner.Step(i, n, step.Do) }
		err = runner.run(ctx)
	}
	spinner.Stop()
	if err != nil {
		return err
	}
	watch.done("replayed script", "steps", len(script.Steps), "product", product.Slug)

	if err := os.MkdirAll(opts.output, 0o755); err != nil {
		return err
	}
	for _, side := range layer.Sides {
		data, err := e.Download(ctx, side, opts.scale)
		if err != nil {
			return err
		}
		out := filepath.Join(opts.output, side.String()+".png")
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return err
		}
		printFile(out)
	}

	_, data, err := payload.Assemble(ctx, e, edOpts.PayloadLimit)
	if err != nil {
		return err
	}
	out := filepath.Join(opts.output, "design.json")
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	printFile(out)

	printNewline()
	printQuote(e.Quote())
	if notes.count > 0 {
		printWarning("%d notifications during replay", notes.count)
	}

	if opts.save {
		id, err := e.Save(ctx)
		if err != nil {
			return err
		}
		printSuccess("Saved design %s", StyleHighlight.Render(id))
		printNextStep("Inspect it", fmt.Sprintf("%s inspect --id %s", appName, id))
	}
	if opts.cart > 0 {
		item, err := e.AddToCart(ctx, opts.cart)
		if err != nil {
			return err
		}
		printSuccess("Added %d x %s to cart %s", item.Quantity, product.Name, item.CartID)
	}
	return nil
}
