package language

// Builder turns a token sequence into an n-gram Model.
type Builder struct {
	order       int
	finalWindow bool
}

// BuildOption configures a Builder.
type BuildOption func(*Builder)

// WithFinalWindow makes the builder slide its window over the whole
// sequence, including the window that ends on the last token. Without it
// the last window is skipped, so a sequence of L tokens contributes L-n
// windows instead of L-n+1.
func WithFinalWindow() BuildOption {
	return func(b *Builder) {
		b.finalWindow = true
	}
}

// NewBuilder creates a builder for n-grams of the given order (n >= 2).
func NewBuilder(order int, opts ...BuildOption) (*Builder, error) {
	if order < 2 {
		return nil, ErrInvalidOrder
	}
	b := &Builder{order: order}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Order returns the n-gram order.
func (b *Builder) Order() int {
	return b.order
}

// Build counts every window of the token sequence. tokens is not modified.
func (b *Builder) Build(tokens []string) *Model {
	m := newModel(b.order)

	last := len(tokens) - b.order - 1
	if b.finalWindow {
		last++
	}
	for i := 0; i <= last; i++ {
		m.add(tokens[i:i+b.order-1], tokens[i+b.order-1])
	}
	return m
}

// BuildModel builds an n-gram model with the default window range.
func BuildModel(tokens []string, n int) (*Model, error) {
	b, err := NewBuilder(n)
	if err != nil {
		return nil, err
	}
	return b.Build(tokens), nil
}
