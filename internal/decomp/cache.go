package decomp

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/524D/mzisotope/internal/chem"
	"github.com/524D/mzisotope/internal/ms"
)

// Decomposer enumerates formula candidates for a mass
type Decomposer interface {
	Decompose(mass float64, dev ms.Deviation, c chem.FormulaConstraints) ([]chem.MolecularFormula, error)
}

// Cache is a Decomposer that keeps one Engine per chemical alphabet. An
// engine is built at most once per alphabet, also when several goroutines
// ask for it at the same time; lookups of existing engines take no lock.
type Cache struct {
	engines sync.Map // alphabet key -> *Engine
	group   singleflight.Group
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewCache returns an empty cache
func NewCache() *Cache {
	return &Cache{}
}

var defaultCache = NewCache()

// DefaultCache returns the process-wide decomposer cache
func DefaultCache() *Cache {
	return defaultCache
}

// Engine returns the engine for the alphabet, building it if needed
func (c *Cache) Engine(alphabet chem.ChemicalAlphabet) (*Engine, error) {
	key := alphabet.Key()
	if e, ok := c.engines.Load(key); ok {
		c.hits.Add(1)
		return e.(*Engine), nil
	}
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if e, ok := c.engines.Load(key); ok {
			return e, nil
		}
		c.misses.Add(1)
		e, err := NewEngine(alphabet)
		if err != nil {
			return nil, err
		}
		c.engines.Store(key, e)
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Engine), nil
}

// Decompose implements Decomposer using the engine of the constraints'
// alphabet
func (c *Cache) Decompose(mass float64, dev ms.Deviation, fc chem.FormulaConstraints) ([]chem.MolecularFormula, error) {
	e, err := c.Engine(fc.Alphabet())
	if err != nil {
		return nil, err
	}
	return e.Decompose(mass, dev, fc)
}

// Stats returns the number of lookups served from the cache and the number
// of engines built
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
