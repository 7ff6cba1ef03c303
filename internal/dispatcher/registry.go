package dispatcher

import (
	"fmt"
	"sort"

	"github.com/dshills/cmdqueue/internal/command"
)

// Factory builds a command variant from construction arguments.
type Factory func(args ...any) (command.Command, error)

// Catalog maps variant names to factories.
type Catalog struct {
	factories map[string]Factory
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory for a variant name.
func (c *Catalog) Register(variant string, f Factory) error {
	if _, exists := c.factories[variant]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateVariant, variant)
	}
	c.factories[variant] = f
	return nil
}

// MustRegister is like Register but panics on duplicates.
func (c *Catalog) MustRegister(variant string, f Factory) {
	if err := c.Register(variant, f); err != nil {
		panic(err)
	}
}

// Unregister removes the factory for a variant name.
func (c *Catalog) Unregister(variant string) {
	delete(c.factories, variant)
}

// Lookup returns the factory for a variant name.
func (c *Catalog) Lookup(variant string) (Factory, bool) {
	f, ok := c.factories[variant]
	return f, ok
}

// Has returns true if a factory is registered for the variant.
func (c *Catalog) Has(variant string) bool {
	_, ok := c.factories[variant]
	return ok
}

// Build constructs a command of the named variant.
func (c *Catalog) Build(variant string, args ...any) (command.Command, error) {
	f, ok := c.factories[variant]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, variant)
	}
	cmd, err := f(args...)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", variant, err)
	}
	if cmd == nil {
		return nil, fmt.Errorf("build %s: %w", variant, ErrNilCommand)
	}
	return cmd, nil
}

// Variants returns all registered variant names, sorted.
func (c *Catalog) Variants() []string {
	names := make([]string, 0, len(c.factories))
	for name := range c.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered variants.
func (c *Catalog) Count() int {
	return len(c.factories)
}
