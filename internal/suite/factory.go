package suite

// Factory builds the context for each scheduled entry.
type Factory interface {
	NewT(cfg Config) *T
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(cfg Config) *T

// NewT calls f(cfg).
func (f FactoryFunc) NewT(cfg Config) *T {
	return f(cfg)
}

// DefaultFactory builds plain contexts with New.
var DefaultFactory Factory = FactoryFunc(New)
