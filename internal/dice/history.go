package dice

// history keeps strict LIFO undo and redo stacks of state snapshots.
// Callers hand in snapshots they no longer mutate.
type history[T any] struct {
	undo []T
	redo []T
}

// record saves the state that precedes a forward action and invalidates
// any redo history.
func (h *history[T]) record(prev T) {
	h.undo = append(h.undo, prev)
	h.redo = h.redo[:0]
}

// back moves current onto the redo stack and returns the previous state.
func (h *history[T]) back(current T) (T, error) {
	var zero T
	if len(h.undo) == 0 {
		return zero, ErrNoHistory
	}
	prev := h.undo[len(h.undo)-1]
	h.undo[len(h.undo)-1] = zero
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, current)
	return prev, nil
}

// forward moves current onto the undo stack and returns the undone state.
func (h *history[T]) forward(current T) (T, error) {
	var zero T
	if len(h.redo) == 0 {
		return zero, ErrNoHistory
	}
	next := h.redo[len(h.redo)-1]
	h.redo[len(h.redo)-1] = zero
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, current)
	return next, nil
}

func (h *history[T]) canUndo() bool { return len(h.undo) > 0 }

func (h *history[T]) canRedo() bool { return len(h.redo) > 0 }

func (h *history[T]) depth() (undo, redo int) { return len(h.undo), len(h.redo) }
