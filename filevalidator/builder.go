package filevalidator

// Builder provides a fluent API for constructing validators
type Builder struct {
	constraints Constraints
}

// NewBuilder creates a new validator builder with the default constraints
func NewBuilder() *Builder {
	return &Builder{
		constraints: DefaultConstraints(),
	}
}

// MaxSize sets the maximum allowed file size
func (b *Builder) MaxSize(size int64) *Builder {
	b.constraints.MaxFileSize = size
	return b
}

// Accept adds declared MIME types accepted by the synchronous stage
func (b *Builder) Accept(mimeTypes ...string) *Builder {
	b.constraints.SupportedTypes = append(b.constraints.SupportedTypes, mimeTypes...)
	return b
}

// Build creates the validator with the configured constraints
func (b *Builder) Build() *Validator {
	return New(b.Constraints())
}

// Constraints returns a copy of the configured constraints
func (b *Builder) Constraints() Constraints {
	c := b.constraints
	c.SupportedTypes = append([]string(nil), b.constraints.SupportedTypes...)
	return c
}
