package buffer

// change is one recorded edit. Exactly one of removed or inserted is set.
type change struct {
	offset   ByteOffset
	removed  string
	inserted string
}

// record appends c to the undo history unless a not-undoable action is open.
// Caller must hold the write lock.
func (b *Buffer) record(c change) {
	if b.notUndoable > 0 || b.maxUndo == 0 {
		return
	}
	b.history = append(b.history, c)
	if len(b.history) > b.maxUndo {
		b.history = b.history[len(b.history)-b.maxUndo:]
	}
}

// BeginNotUndoableAction starts a span of edits that are not recorded.
// Calls nest; the history is discarded when the outermost span ends.
func (b *Buffer) BeginNotUndoableAction() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notUndoable++
}

// EndNotUndoableAction closes a span opened by BeginNotUndoableAction.
func (b *Buffer) EndNotUndoableAction() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.notUndoable == 0 {
		return
	}
	b.notUndoable--
	if b.notUndoable == 0 {
		b.history = nil
	}
}

// CanUndo reports whether there is an edit to undo.
func (b *Buffer) CanUndo() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.history) > 0
}

// Undo reverts the most recent recorded edit.
func (b *Buffer) Undo() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.history) == 0 {
		return ErrNothingToUndo
	}
	c := b.history[len(b.history)-1]
	b.history = b.history[:len(b.history)-1]

	if c.inserted != "" {
		b.deleteLocked(c.offset, c.offset+ByteOffset(len(c.inserted)))
	} else {
		b.insertLocked(c.offset, c.removed)
	}
	return nil
}
