package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mindmap/pkg/editor"
	merrors "github.com/matzehuels/mindmap/pkg/errors"
	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// newCommand creates the "new" command.
func (c *CLI) newCommand() *cobra.Command {
	var rootText string

	cmd := &cobra.Command{
		Use:   "new [title]",
		Short: "Create an empty map",
		Long: `Create a map holding a single root node and save it to the store.

The map gets the level colors, font and autosave delay of the [settings]
section of the config file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.config()
			if err != nil {
				return err
			}

			title := mindmap.DefaultTitle
			if len(args) == 1 {
				title = args[0]
			}
			if err := merrors.ValidateTitle(title); err != nil {
				return err
			}

			m := mindmap.New(title, cfg.Settings)
			if rootText != "" {
				if err := merrors.ValidateNodeText(rootText); err != nil {
					return err
				}
				m.SetText(m.RootID, rootText)
			}

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Save(ctx, m); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printSuccess(out, "Created %s", StyleHighlight.Render(m.ID))
			printNextStep(out, "Add a node", fmt.Sprintf("mindmap node add %s %s --text \"...\"", m.ID, m.RootID))
			return nil
		},
	}

	cmd.Flags().StringVar(&rootText, "root", "", "text of the root node (default: Root)")

	return cmd
}

// listCommand creates the "list" command.
func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored maps, most recently updated first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			maps, err := st.List(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(maps) == 0 {
				printInfo(out, "No maps yet")
				printNextStep(out, "Create one", "mindmap new \"My map\"")
				return nil
			}
			fmt.Fprintln(out, mapTable(maps, time.Now()))
			return nil
		},
	}
}

// showCommand creates the "show" command.
func (c *CLI) showCommand() *cobra.Command {
	var (
		asJSON bool
		opts   outlineOptions
	)

	cmd := &cobra.Command{
		Use:   "show <map-id>",
		Short: "Print a map as an outline",
		Long: `Print a map as an indented outline. Branches placed on the left of the
root are marked with ◂ and collapsed nodes show how many children they hide.

Use --ids to see the node IDs that the node subcommands take.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.loadMap(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return mindmap.WriteJSON(m, out)
			}
			fmt.Fprintln(out, StyleTitle.Render(m.Title)+" "+StyleDim.Render(m.ID))
			fmt.Fprintln(out, outline(m, opts))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the map as JSON")
	cmd.Flags().BoolVar(&opts.ShowIDs, "ids", false, "show node IDs")
	cmd.Flags().BoolVar(&opts.Expand, "all", false, "show the children of collapsed nodes")

	return cmd
}

// renameCommand creates the "rename" command.
func (c *CLI) renameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <map-id> <title>",
		Short: "Change the title of a map",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := args[1]
			if err := merrors.ValidateTitle(title); err != nil {
				return err
			}
			err := c.editMap(cmd.Context(), args[0], func(s *editor.Session) error {
				s.SetTitle(title)
				return nil
			})
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Renamed %s to %q", args[0], title)
			return nil
		},
	}
}

// removeCommand creates the "rm" command.
func (c *CLI) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <map-id>...",
		Short: "Delete maps from the store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			for _, id := range args {
				if err := merrors.ValidateMapID(id); err != nil {
					return err
				}
			}
			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			for _, id := range args {
				if err := st.Delete(ctx, id); err != nil {
					return err
				}
				printSuccess(out, "Deleted %s", id)
			}
			return nil
		},
	}
}
