package contracts

import (
	"fmt"
	"sort"

	"github.com/lunes-platform/lunex-cli/internal/domain"
)

// Catalog holds the validated interfaces of a compiled contract bundle
type Catalog struct {
	interfaces map[string]*Interface
}

// NewCatalog builds a catalog, rejecting duplicate names.
func NewCatalog(ifaces ...*Interface) (*Catalog, error) {
	c := &Catalog{interfaces: make(map[string]*Interface, len(ifaces))}
	for _, iface := range ifaces {
		if _, exists := c.interfaces[iface.Name()]; exists {
			return nil, domain.NewValidationError("artifacts", "duplicate contract %s", iface.Name())
		}
		c.interfaces[iface.Name()] = iface
	}
	return c, nil
}

// Interface returns the named interface.
func (c *Catalog) Interface(name string) (*Interface, error) {
	iface, ok := c.interfaces[name]
	if !ok {
		return nil, fmt.Errorf("%w: contract artifact %q", domain.ErrNotFound, name)
	}
	return iface, nil
}

// Names returns the artifact names sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.interfaces))
	for name := range c.interfaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
