package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/payload"
	"github.com/matzehuels/mockup/pkg/scene"
	"github.com/matzehuels/mockup/pkg/scenegraph"
)

// inspectOpts holds the flags of the inspect command.
type inspectOpts struct {
	id       string
	side     string
	format   string
	output   string
	detailed bool
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	opts := inspectOpts{}

	cmd := &cobra.Command{
		Use:   "inspect [design.json]",
		Short: "Dump the scene graph of one side of a design",
		Long: `Project one side of a design onto an off-screen surface and dump its
objects, bottom to top, as Graphviz DOT or SVG.

The design is read from a payload file or, with --id, from the design store.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (opts.id == "") {
				return fmt.Errorf("pass a design file or --id")
			}
			return c.runInspect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.id, "id", "", "load the design from the store")
	cmd.Flags().StringVar(&opts.side, "side", "front", "side to inspect (front or back)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "dot", "output format (dot or svg)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include transforms in labels")
	return cmd
}

func (c *CLI) runInspect(cmd *cobra.Command, args []string, opts inspectOpts) error {
	ctx := cmd.Context()
	side, err := layer.ParseSide(opts.side)
	if err != nil {
		return err
	}
	if opts.format != "dot" && opts.format != "svg" {
		return fmt.Errorf("unknown format %q (want dot or svg)", opts.format)
	}

	svc, err := c.openServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	var d *payload.Design
	if opts.id != "" {
		d, err = svc.designs.GetDesign(ctx, opts.id)
	} else {
		var data []byte
		if data, err = os.ReadFile(args[0]); err == nil {
			d, err = payload.DecodeDesign(data)
		}
	}
	if err != nil {
		return err
	}

	build := scene.BuildOptions{Side: side, Records: d.Side(side).DesignLayers}
	if p, err := svc.products.ProductBySlug(ctx, d.ProductSlug); err == nil {
		build.BaseURI = scene.SelectBaseImage(p.ImageURLs(d.SelectedColor), side)
	} else {
		c.Logger.Warn("product not found, inspecting without garment", "product", d.ProductSlug)
	}
	s, errs := scene.Build(ctx, svc.loader, build)
	defer s.Release()
	for _, err := range errs {
		printWarning("%s", errors.UserMessage(err))
	}

	dot := scenegraph.ToDOT(s, scenegraph.Options{
		Detailed: opts.detailed,
		Title:    fmt.Sprintf("%s / %s", d.ProductSlug, side),
	})
	out := []byte(dot)
	if opts.format == "svg" {
		if out, err = scenegraph.RenderSVG(ctx, dot); err != nil {
			return err
		}
	}

	if opts.output == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	if err := os.WriteFile(opts.output, out, 0o644); err != nil {
		return err
	}
	printSuccess("Inspected %d objects", s.Len())
	printFile(opts.output)
	return nil
}
