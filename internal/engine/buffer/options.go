package buffer

// Option is a functional option for configuring a Buffer.
type Option func(*Buffer)

// WithMaxUndo limits the number of undo steps retained.
// A value of zero disables undo history.
func WithMaxUndo(n int) Option {
	return func(b *Buffer) {
		if n >= 0 {
			b.maxUndo = n
		}
	}
}
