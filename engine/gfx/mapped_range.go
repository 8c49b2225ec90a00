package gfx

// MappedRange is the scoped write view returned by Context.MapBuffer. It
// covers the full buffer size with write-discard semantics: the previous
// contents are gone the moment the range is acquired, and whatever Bytes
// holds when Close runs becomes the buffer's new contents.
type MappedRange struct {
	// Bytes is the staging region the caller writes into. Its length equals
	// the mapped buffer's size.
	Bytes []byte

	commit func([]byte) error
	closed bool
}

// NewMappedRange constructs a range over a staging region of the given size.
// The commit callback receives the staging bytes exactly once, when the range
// is closed. Backends use this to implement Context.MapBuffer.
func NewMappedRange(size int, commit func([]byte) error) *MappedRange {
	return &MappedRange{
		Bytes:  make([]byte, size),
		commit: commit,
	}
}

// Close commits the staged bytes to the buffer and invalidates the range.
// Closing an already closed range is a no-op, so it is safe to defer Close
// and also close early on a success path.
func (m *MappedRange) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	data := m.Bytes
	m.Bytes = nil
	if m.commit == nil {
		return nil
	}
	return m.commit(data)
}
