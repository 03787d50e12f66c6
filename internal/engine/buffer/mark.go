package buffer

// MarkID identifies a position mark within a buffer.
type MarkID uint64

// mark is a position that follows edits. A mark with left gravity stays in
// place when text is inserted exactly at it; otherwise it moves past the
// inserted text.
type mark struct {
	offset      ByteOffset
	leftGravity bool
}

// CreateMark creates a mark at offset, clamped to the buffer.
func (b *Buffer) CreateMark(offset ByteOffset, leftGravity bool) MarkID {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextMark++
	id := b.nextMark
	b.marks[id] = &mark{offset: b.clamp(offset), leftGravity: leftGravity}
	return id
}

// MarkOffset returns the current offset of a mark.
func (b *Buffer) MarkOffset(id MarkID) (ByteOffset, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	m, ok := b.marks[id]
	if !ok {
		return 0, ErrUnknownMark
	}
	return m.offset, nil
}

// MoveMark moves a mark to offset, clamped to the buffer.
func (b *Buffer) MoveMark(id MarkID, offset ByteOffset) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	m, ok := b.marks[id]
	if !ok {
		return ErrUnknownMark
	}
	m.offset = b.clamp(offset)
	return nil
}

// DeleteMark removes a mark. Deleting an unknown mark is a no-op.
func (b *Buffer) DeleteMark(id MarkID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.marks, id)
}

// MarkCount returns the number of live marks.
func (b *Buffer) MarkCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.marks)
}
