package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mindmap/pkg/editor"
	merrors "github.com/matzehuels/mindmap/pkg/errors"
	"github.com/matzehuels/mindmap/pkg/media"
	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// nodeCommand groups the single-edit commands. Each one loads the map,
// applies one edit and saves it back.
func (c *CLI) nodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Edit the nodes of a map",
		Long: `Edit the nodes of a stored map, one operation per invocation.

Nodes are addressed by ID; 'mindmap show --ids <map-id>' prints them.
Edits the map refuses (deleting the root, moving a node under its own
descendant, collapsing a leaf, ...) fail without changing the map.`,
	}

	cmd.AddCommand(c.insertCommand(editor.OpInsertChild, "add <map-id> <parent-id>", "Add a child node"))
	cmd.AddCommand(c.insertCommand(editor.OpInsertSibling, "sibling <map-id> <node-id>", "Add a node as the last sibling of a node"))
	cmd.AddCommand(c.nodeRemoveCommand())
	cmd.AddCommand(c.nodeMoveCommand())
	cmd.AddCommand(c.nodeReorderCommand())
	cmd.AddCommand(c.nodeSideCommand())
	cmd.AddCommand(c.nodeCollapseCommand())
	cmd.AddCommand(c.nodeTextCommand())
	cmd.AddCommand(c.nodeImageCommand())
	cmd.AddCommand(c.copyCommand())
	cmd.AddCommand(c.pasteCommand())

	return cmd
}

// doOp applies a single op to a stored map.
func (c *CLI) doOp(cmd *cobra.Command, mapID string, op editor.Op) (editor.OpResult, error) {
	var res editor.OpResult
	err := c.editMap(cmd.Context(), mapID, func(s *editor.Session) error {
		var err error
		res, err = s.Do(op)
		return err
	})
	return res, err
}

func (c *CLI) insertCommand(kind editor.OpKind, use, short string) *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id string
			err := c.editMap(cmd.Context(), args[0], func(s *editor.Session) error {
				res, err := s.Do(editor.Op{Kind: kind, Node: args[1]})
				if err != nil {
					return err
				}
				id = res.ID
				if text == "" {
					return nil
				}
				_, err = s.Do(editor.Op{Kind: editor.OpText, Node: id, Text: unescapeNewlines(text)})
				return err
			})
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Added %s", StyleHighlight.Render(id))
			return nil
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "text of the new node, \\n breaks the line (default: Node)")

	return cmd
}

func (c *CLI) nodeRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <map-id> <node-id>",
		Short: "Delete a node and its whole subtree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.doOp(cmd, args[0], editor.Op{Kind: editor.OpDelete, Node: args[1]}); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Deleted %s", args[1])
			return nil
		},
	}
}

func (c *CLI) nodeMoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "move <map-id> <node-id> <new-parent-id>",
		Short: "Move a node under a new parent",
		Long: `Move a node, with its subtree, to the end of another node's children.
Moving a node under itself or one of its descendants is refused.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			op := editor.Op{Kind: editor.OpReparent, Node: args[1], Target: args[2]}
			if _, err := c.doOp(cmd, args[0], op); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Moved %s under %s", args[1], args[2])
			return nil
		},
	}
}

func (c *CLI) nodeReorderCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "reorder <map-id> <node-id> up|down|<offset>",
		Short:     "Move a node among its siblings",
		Long:      `Move a node among its siblings. A move past either end is rejected.`,
		Args:      cobra.ExactArgs(3),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := parseOffset(args[2])
			if err != nil {
				return err
			}
			op := editor.Op{Kind: editor.OpMove, Node: args[1], Offset: offset}
			if _, err := c.doOp(cmd, args[0], op); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Moved %s %s", args[1], args[2])
			return nil
		},
	}
}

// parseOffset accepts "up", "down" or a signed integer.
func parseOffset(s string) (int, error) {
	switch s {
	case "up":
		return -1, nil
	case "down":
		return 1, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, merrors.New(merrors.ErrCodeInvalidInput, "invalid offset %q (want up, down or a number)", s)
	}
	return n, nil
}

func (c *CLI) nodeSideCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "side <map-id> <node-id> left|right|auto",
		Short: "Pin a top-level branch to one side of the root",
		Long: `Pin a child of the root to the left or right half of the map. "auto" lets
the layout balance it onto the side with less height.`,
		Args:      cobra.ExactArgs(3),
		ValidArgs: []string{"left", "right", "auto"},
		RunE: func(cmd *cobra.Command, args []string) error {
			side := mindmap.Side(args[2])
			if args[2] == "auto" {
				side = mindmap.SideAuto
			}
			op := editor.Op{Kind: editor.OpSide, Node: args[1], Side: side}
			if _, err := c.doOp(cmd, args[0], op); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Placed %s %s", args[1], args[2])
			return nil
		},
	}
}

func (c *CLI) nodeCollapseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "collapse <map-id> <node-id>",
		Short: "Collapse or expand a node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var collapsed bool
			err := c.editMap(cmd.Context(), args[0], func(s *editor.Session) error {
				if _, err := s.Do(editor.Op{Kind: editor.OpCollapse, Node: args[1]}); err != nil {
					return err
				}
				s.View(func(m *mindmap.Map) { collapsed = m.Nodes[args[1]].Collapsed })
				return nil
			})
			if err != nil {
				return err
			}
			state := "Expanded"
			if collapsed {
				state = "Collapsed"
			}
			printSuccess(cmd.OutOrStdout(), "%s %s", state, args[1])
			return nil
		},
	}
}

func (c *CLI) nodeTextCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "text <map-id> <node-id> <text>",
		Short: "Replace the text of a node",
		Long:  `Replace the text of a node. Use \n in a quoted argument for a line break.`,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			op := editor.Op{Kind: editor.OpText, Node: args[1], Text: unescapeNewlines(args[2])}
			if _, err := c.doOp(cmd, args[0], op); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Updated %s", args[1])
			return nil
		},
	}
}

// unescapeNewlines turns the two characters `\n` into a line break.
func unescapeNewlines(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == 'n' {
			out = append(out, '\n')
			i++
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

func (c *CLI) nodeImageCommand() *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "image <map-id> <node-id> [file]",
		Short: "Attach an image to a node",
		Long: `Attach a PNG, JPEG, GIF or WebP image to a node. The image is scaled so
its longer side is at most 128 pixels and stored inside the map.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var img *mindmap.Media
			switch {
			case remove:
			case len(args) == 3:
				var err error
				if img, err = media.LoadFile(args[2]); err != nil {
					return err
				}
			default:
				return merrors.New(merrors.ErrCodeInvalidInput, "image file required (or --clear)")
			}

			err := c.editMap(cmd.Context(), args[0], func(s *editor.Session) error {
				if err := nodeExists(s, args[1]); err != nil {
					return err
				}
				s.SetImage(args[1], img)
				return nil
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if img == nil {
				printSuccess(out, "Removed image from %s", args[1])
				return nil
			}
			printSuccess(out, "Attached %dx%d image to %s", img.Width, img.Height, args[1])
			return nil
		},
	}

	cmd.Flags().BoolVar(&remove, "clear", false, "remove the node's image")

	return cmd
}

func nodeExists(s *editor.Session, id string) error {
	var ok bool
	s.View(func(m *mindmap.Map) { _, ok = m.Node(id) })
	if !ok {
		return merrors.New(merrors.ErrCodeNodeNotFound, "node %q not found", id)
	}
	return nil
}
