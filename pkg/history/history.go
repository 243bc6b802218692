// Package history records reversible diagram mutations for undo and redo.
//
// Every mutation is a [Command]. [History.Execute] applies a command to a
// [diagram.Store] and records it only after the apply succeeded, so the undo
// stack never holds a partially applied change. Commands capture the exact
// state they overwrite (content, position, size, style and flags) so that
// reverting reproduces the previous state rather than defaults.
//
// # Usage
//
//	h := history.New(100)
//	cmd := history.NewCreateNode(diagram.Node{Content: "A"})
//	if err := h.Execute(store, cmd); err != nil {
//		return err
//	}
//	h.Undo(store) // node removed
//	h.Redo(store) // node back under the same ID
package history

import (
	"errors"
	"fmt"

	"github.com/matzehuels/driftboard/pkg/diagram"
)

// ErrNoEffect is returned by a command's Apply when the targeted element
// does not exist. [History.Execute] does not record such commands.
var ErrNoEffect = errors.New("command has no effect")

// Command is a reversible mutation of a diagram store.
//
// Apply must leave the store unchanged when it returns an error. Revert is
// only called on a command whose Apply succeeded, and Apply may be called
// again after Revert to redo it.
type Command interface {
	Name() string
	Apply(s *diagram.Store) error
	Revert(s *diagram.Store) error
}

// DefaultLimit is the number of commands kept when New is given a
// non-positive limit.
const DefaultLimit = 50

// History holds the undo and redo stacks.
type History struct {
	undo  []Command
	redo  []Command
	limit int
}

// New creates an empty history that keeps at most limit undoable commands.
// When the limit is exceeded the oldest command is dropped.
func New(limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{limit: limit}
}

// Execute applies cmd and pushes it onto the undo stack. The redo stack is
// cleared. Nothing is recorded when Apply fails.
func (h *History) Execute(s *diagram.Store, cmd Command) error {
	if err := cmd.Apply(s); err != nil {
		return fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	h.undo = append(h.undo, cmd)
	if len(h.undo) > h.limit {
		h.undo = h.undo[len(h.undo)-h.limit:]
	}
	h.redo = h.redo[:0]
	return nil
}

// Undo reverts the most recent command and moves it to the redo stack.
// It returns false with a nil error when there is nothing to undo.
func (h *History) Undo(s *diagram.Store) (bool, error) {
	if len(h.undo) == 0 {
		return false, nil
	}
	cmd := h.undo[len(h.undo)-1]
	if err := cmd.Revert(s); err != nil {
		return false, fmt.Errorf("undo %s: %w", cmd.Name(), err)
	}
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, cmd)
	return true, nil
}

// Redo reapplies the most recently undone command and moves it back to the
// undo stack. It returns false with a nil error when there is nothing to redo.
func (h *History) Redo(s *diagram.Store) (bool, error) {
	if len(h.redo) == 0 {
		return false, nil
	}
	cmd := h.redo[len(h.redo)-1]
	if err := cmd.Apply(s); err != nil {
		return false, fmt.Errorf("redo %s: %w", cmd.Name(), err)
	}
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, cmd)
	return true, nil
}

// CanUndo reports whether Undo would do anything.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether Redo would do anything.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// UndoName returns the name of the command Undo would revert, or "".
func (h *History) UndoName() string {
	if len(h.undo) == 0 {
		return ""
	}
	return h.undo[len(h.undo)-1].Name()
}

// RedoName returns the name of the command Redo would reapply, or "".
func (h *History) RedoName() string {
	if len(h.redo) == 0 {
		return ""
	}
	return h.redo[len(h.redo)-1].Name()
}

// Len returns the sizes of the undo and redo stacks.
func (h *History) Len() (undo, redo int) { return len(h.undo), len(h.redo) }

// Clear drops both stacks.
func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
}
