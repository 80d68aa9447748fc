package cli

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mindmap/pkg/cache"
	"github.com/matzehuels/mindmap/pkg/editor"
	merrors "github.com/matzehuels/mindmap/pkg/errors"
	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/observability"
)

const keyTypeClipboard = "clipboard"

// clipboard persists the copied subtree between invocations so that
// `node copy` and `node paste` may target different maps.
type clipboard struct {
	cache cache.Cache
	key   string
}

func (c *CLI) openClipboard() (*clipboard, error) {
	cc, err := newCache(false)
	if err != nil {
		return nil, err
	}
	return &clipboard{cache: cc, key: c.cacheKeyer().ClipboardKey()}, nil
}

// Load returns the stored clip, or nil when the clipboard is empty.
func (cb *clipboard) Load(ctx context.Context) (*mindmap.Clip, error) {
	var clip mindmap.Clip
	err := cache.GetJSON(ctx, cb.cache, cb.key, &clip)
	switch {
	case errors.Is(err, cache.ErrCacheMiss):
		observability.Cache().OnCacheMiss(ctx, keyTypeClipboard)
		return nil, nil
	case err != nil:
		return nil, err
	}
	observability.Cache().OnCacheHit(ctx, keyTypeClipboard)
	return &clip, nil
}

// Store replaces the stored clip.
func (cb *clipboard) Store(ctx context.Context, clip *mindmap.Clip) error {
	data, err := json.Marshal(clip)
	if err != nil {
		return err
	}
	if err := cb.cache.Set(ctx, cb.key, data, 0); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, keyTypeClipboard, len(data))
	return nil
}

func (cb *clipboard) Close() error { return cb.cache.Close() }

func (c *CLI) copyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "copy <map-id> <node-id>",
		Short: "Copy a subtree to the clipboard",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cb, err := c.openClipboard()
			if err != nil {
				return err
			}
			defer cb.Close()

			var clip *mindmap.Clip
			err = c.editMap(ctx, args[0], func(s *editor.Session) error {
				if _, err := s.Do(editor.Op{Kind: editor.OpCopy, Node: args[1]}); err != nil {
					return err
				}
				clip = s.Clipboard()
				return nil
			})
			if err != nil {
				return err
			}
			if err := cb.Store(ctx, clip); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Copied %d nodes", clip.Len())
			return nil
		},
	}
}

func (c *CLI) pasteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "paste <map-id> <parent-id>",
		Short: "Paste the clipboard as a new child",
		Long: `Paste the copied subtree as the last child of a node. Every pasted node
gets a fresh ID; the clipboard keeps its content and can be pasted again.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cb, err := c.openClipboard()
			if err != nil {
				return err
			}
			defer cb.Close()

			clip, err := cb.Load(ctx)
			if err != nil {
				return err
			}
			if clip == nil {
				return merrors.New(merrors.ErrCodeRejected, "clipboard is empty")
			}

			var id string
			err = c.editMap(ctx, args[0], func(s *editor.Session) error {
				s.SetClipboard(clip)
				res, err := s.Do(editor.Op{Kind: editor.OpPaste, Target: args[1]})
				id = res.ID
				return err
			})
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Pasted %d nodes as %s", clip.Len(), StyleHighlight.Render(id))
			return nil
		},
	}
}
