package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mockup/pkg/design"
	"github.com/matzehuels/mockup/pkg/sched"
)

// editCommand creates the interactive edit command.
func (c *CLI) editCommand() *cobra.Command {
	var (
		color string
		size  string
		id    string
	)

	cmd := &cobra.Command{
		Use:   "edit <product-slug>",
		Short: "Edit a design interactively in the terminal",
		Long: `Open an interactive editor for a product. Text and images are added to
the active side, prices update as you edit, and ctrl+s saves the design.

With --id a saved design is loaded instead of starting empty.`,
		Args: cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (id == "") {
				return fmt.Errorf("pass a product slug or --id")
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			svc, err := c.openServices(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			opts, err := svc.cfg.editorOptions()
			if err != nil {
				return err
			}

			var program *tea.Program
			loop := sched.NewLoop()
			e, err := design.New(loop, svc.loader, opts, c.Logger,
				design.WithRenderer(svc.renderer),
				design.WithStore(svc.designs),
				design.WithCart(svc.cart),
				design.WithNotifier(func(err error) {
					c.Logger.Debug("notification", "err", err)
					program.Send(noticeMsg{err: err})
				}),
			)
			if err != nil {
				return err
			}

			// keep info logs off the terminal the program draws on
			level := c.Logger.GetLevel()
			c.Logger.SetLevel(log.ErrorLevel)
			defer c.Logger.SetLevel(level)

			title := id
			open := func(e *design.Editor) error {
				e.Subscribe(func(s design.State) {
					program.Send(stateMsg{state: s, layers: e.Session().ActiveStack().Records()})
				})
				if id != "" {
					return e.LoadDesign(ctx, id, svc.products)
				}
				p, err := svc.products.ProductBySlug(ctx, args[0])
				if err != nil {
					return err
				}
				if color == "" && len(p.Variants) > 0 {
					color = p.Variants[0].Color
				}
				return e.Open(ctx, p, color, size)
			}
			if len(args) == 1 {
				title = args[0]
			}

			program = tea.NewProgram(NewEditorModel(ctx, e, title, open), tea.WithContext(ctx))

			stopped := make(chan struct{})
			go func() {
				defer close(stopped)
				_ = loop.Run(ctx)
			}()

			_, err = program.Run()
			cancel()
			<-stopped
			e.Close()
			return err
		},
	}

	cmd.Flags().StringVar(&color, "color", "", "garment color (default first variant)")
	cmd.Flags().StringVar(&size, "size", "", "garment size")
	cmd.Flags().StringVar(&id, "id", "", "load a saved design")
	return cmd
}
