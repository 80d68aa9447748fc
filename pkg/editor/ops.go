package editor

import (
	merrors "github.com/matzehuels/mindmap/pkg/errors"
	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// InsertChild adds a child under parentID.
func (s *Session) InsertChild(parentID string) (id string, ok bool) {
	s.Apply(func(m *mindmap.Map) bool {
		id, ok = m.InsertChild(parentID)
		return ok
	})
	return id, ok
}

// InsertSibling adds a node as the last child of nodeID's parent.
func (s *Session) InsertSibling(nodeID string) (id string, ok bool) {
	s.Apply(func(m *mindmap.Map) bool {
		id, ok = m.InsertSibling(nodeID)
		return ok
	})
	return id, ok
}

// Delete removes nodeID and its subtree.
func (s *Session) Delete(nodeID string) bool {
	return s.Apply(func(m *mindmap.Map) bool { return m.DeleteSubtree(nodeID) })
}

// Reparent moves nodeID under newParentID.
func (s *Session) Reparent(nodeID, newParentID string) bool {
	return s.Apply(func(m *mindmap.Map) bool { return m.Reparent(nodeID, newParentID) })
}

// MoveSibling shifts nodeID among its siblings.
func (s *Session) MoveSibling(nodeID string, offset int) bool {
	return s.Apply(func(m *mindmap.Map) bool { return m.MoveSibling(nodeID, offset) })
}

// SetSide pins a top-level branch to one side of the root.
func (s *Session) SetSide(nodeID string, side mindmap.Side) bool {
	return s.Apply(func(m *mindmap.Map) bool { return m.SetSide(nodeID, side) })
}

// ToggleCollapse folds or unfolds nodeID.
func (s *Session) ToggleCollapse(nodeID string) bool {
	return s.Apply(func(m *mindmap.Map) bool { return m.ToggleCollapse(nodeID) })
}

// SetText relabels nodeID.
func (s *Session) SetText(nodeID, text string) bool {
	return s.Apply(func(m *mindmap.Map) bool { return m.SetText(nodeID, text) })
}

// SetImage attaches or clears the image of nodeID.
func (s *Session) SetImage(nodeID string, media *mindmap.Media) bool {
	return s.Apply(func(m *mindmap.Map) bool { return m.SetImage(nodeID, media) })
}

// SetTitle renames the map.
func (s *Session) SetTitle(title string) {
	s.Apply(func(m *mindmap.Map) bool {
		m.SetTitle(title)
		return true
	})
}

// SetSettings replaces the display settings.
func (s *Session) SetSettings(settings mindmap.Settings) {
	s.Apply(func(m *mindmap.Map) bool {
		m.SetSettings(settings)
		return true
	})
}

// Copy puts a detached copy of nodeID's subtree on the clipboard.
func (s *Session) Copy(nodeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	clip, ok := mindmap.CopySubtree(s.m, nodeID)
	if ok {
		s.clip = clip
	}
	return ok
}

// Clipboard returns the current clipboard, or nil.
func (s *Session) Clipboard() *mindmap.Clip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clip
}

// SetClipboard replaces the clipboard, e.g. with a clip restored from disk.
func (s *Session) SetClipboard(clip *mindmap.Clip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clip = clip
}

// Paste inserts the clipboard under targetID and returns the new subtree
// root. It fails when the clipboard is empty.
func (s *Session) Paste(targetID string) (id string, ok bool) {
	s.Apply(func(m *mindmap.Map) bool {
		if s.clip == nil {
			return false
		}
		id, ok = mindmap.PasteSubtree(m, s.clip, targetID)
		return ok
	})
	return id, ok
}

// OpKind names an edit in an [Op].
type OpKind string

// Edit kinds accepted by [Session.Do].
const (
	OpInsertChild   OpKind = "insertChild"
	OpInsertSibling OpKind = "insertSibling"
	OpDelete        OpKind = "delete"
	OpReparent      OpKind = "reparent"
	OpMove          OpKind = "move"
	OpSide          OpKind = "side"
	OpCollapse      OpKind = "collapse"
	OpText          OpKind = "text"
	OpCopy          OpKind = "copy"
	OpPaste         OpKind = "paste"
)

// Op is a serializable edit. Node is the node acted on; Target is the new
// parent for reparent and paste.
type Op struct {
	Kind   OpKind       `json:"op"`
	Node   string       `json:"node"`
	Target string       `json:"target,omitempty"`
	Offset int          `json:"offset,omitempty"`
	Side   mindmap.Side `json:"side,omitempty"`
	Text   string       `json:"text,omitempty"`
}

// OpResult reports the outcome of a successful [Op].
type OpResult struct {
	// ID is the node created by insert and paste operations.
	ID        string `json:"id,omitempty"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Do applies op. Unlike the typed helpers it explains failures: an unknown
// node is NODE_NOT_FOUND, a malformed op is INVALID_INPUT, and an edit the
// map refuses (cycle, root delete, leaf collapse, ...) is REJECTED.
func (s *Session) Do(op Op) (OpResult, error) {
	var res OpResult
	if err := s.checkOp(op); err != nil {
		return res, err
	}

	var ok bool
	switch op.Kind {
	case OpInsertChild:
		res.ID, ok = s.InsertChild(op.Node)
	case OpInsertSibling:
		res.ID, ok = s.InsertSibling(op.Node)
	case OpDelete:
		ok = s.Delete(op.Node)
	case OpReparent:
		ok = s.Reparent(op.Node, op.Target)
	case OpMove:
		ok = s.MoveSibling(op.Node, op.Offset)
	case OpSide:
		ok = s.SetSide(op.Node, op.Side)
	case OpCollapse:
		ok = s.ToggleCollapse(op.Node)
	case OpText:
		ok = s.SetText(op.Node, op.Text)
		if !ok {
			// Setting the same text again is not an error.
			ok = true
		}
	case OpCopy:
		ok = s.Copy(op.Node)
	case OpPaste:
		if s.Clipboard() == nil {
			return res, merrors.New(merrors.ErrCodeRejected, "clipboard is empty")
		}
		res.ID, ok = s.Paste(op.Target)
	}
	if !ok {
		subject := op.Node
		if op.Kind == OpPaste {
			subject = op.Target
		}
		return res, merrors.New(merrors.ErrCodeRejected, "%s on node %q was rejected", op.Kind, subject)
	}
	s.View(func(m *mindmap.Map) { res.UpdatedAt = m.UpdatedAt })
	return res, nil
}

func (s *Session) checkOp(op Op) error {
	switch op.Kind {
	case OpInsertChild, OpInsertSibling, OpDelete, OpMove, OpCollapse, OpCopy:
		return s.checkNode(op.Node)
	case OpSide:
		if !op.Side.Valid() {
			return merrors.New(merrors.ErrCodeInvalidInput, "invalid side %q", op.Side)
		}
		return s.checkNode(op.Node)
	case OpText:
		if err := merrors.ValidateNodeText(op.Text); err != nil {
			return err
		}
		return s.checkNode(op.Node)
	case OpReparent:
		if err := s.checkNode(op.Node); err != nil {
			return err
		}
		return s.checkNode(op.Target)
	case OpPaste:
		return s.checkNode(op.Target)
	default:
		return merrors.New(merrors.ErrCodeInvalidInput, "unknown op %q", op.Kind)
	}
}

func (s *Session) checkNode(id string) error {
	var ok bool
	s.View(func(m *mindmap.Map) { _, ok = m.Node(id) })
	if !ok {
		return merrors.New(merrors.ErrCodeNodeNotFound, "node %q not found", id)
	}
	return nil
}
