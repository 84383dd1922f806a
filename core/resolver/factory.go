package resolver

import "github.com/kilianp07/ridedispatch/core/factory"

// Builder creates a resolver over a node source.
type Builder func(src NodeSource) Resolver

var registry = factory.NewRegistry[Builder]()

func init() {
	_ = Register("linear", func(map[string]any) (Builder, error) {
		return func(src NodeSource) Resolver { return NewLinear(src) }, nil
	})
	_ = Register("rtree", func(map[string]any) (Builder, error) {
		return func(src NodeSource) Resolver { return NewRTree(src) }, nil
	})
}

// Register adds a resolver implementation under name.
func Register(name string, f factory.Factory[Builder]) error {
	return registry.Register(name, f)
}

// New builds the resolver selected by cfg over src.
func New(cfg factory.ModuleConfig, src NodeSource) (Resolver, error) {
	b, err := registry.Create(cfg)
	if err != nil {
		return nil, err
	}
	return b(src), nil
}
