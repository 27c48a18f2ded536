package nestfile

import (
	"github.com/cockroachdb/errors"
)

// Quantity is a physical quantity: a numeric magnitude (of any rank) and the
// unit it is measured in, e.g. {[1 2 3], "ms"}.
type Quantity struct {
	Magnitude Array
	Unit      string
}

func (Quantity) Kind() Kind { return KindQuantity }
func (Quantity) sealed()    {}

// QuantityFactory rebuilds quantities on load. Saving a Quantity never needs
// one; loading a dataset with a unit attribute always does.
type QuantityFactory interface {
	NewQuantity(magnitude Array, unit string) (Value, error)
}

var (
	// Quantities rebuilds stored quantities as Quantity values. It is used
	// when Options.Quantities is nil.
	Quantities QuantityFactory = builtinQuantities{}

	// NoQuantities refuses to load quantities with ErrQuantitiesUnavailable.
	NoQuantities QuantityFactory = noQuantities{}
)

type builtinQuantities struct{}

func (builtinQuantities) NewQuantity(magnitude Array, unit string) (Value, error) {
	return Quantity{Magnitude: magnitude, Unit: unit}, nil
}

type noQuantities struct{}

func (noQuantities) NewQuantity(magnitude Array, unit string) (Value, error) {
	return nil, errors.Wrapf(ErrQuantitiesUnavailable, "cannot load a value in %q", unit)
}

// QuantityFunc adapts a function to QuantityFactory.
type QuantityFunc func(magnitude Array, unit string) (Value, error)

func (f QuantityFunc) NewQuantity(magnitude Array, unit string) (Value, error) {
	return f(magnitude, unit)
}
