package nestfile

import (
	"fmt"
	"math"
	"math/cmplx"
	"strconv"
)

// Kind identifies a Value variant.
type Kind uint8

const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindComplex
	KindString
	KindArray
	KindJagged
	KindQuantity
	KindMapping
)

var kindNames = [...]string{
	KindNone:     "none",
	KindBool:     "bool",
	KindInt:      "int",
	KindFloat:    "float",
	KindComplex:  "complex",
	KindString:   "string",
	KindArray:    "array",
	KindJagged:   "jagged",
	KindQuantity: "quantity",
	KindMapping:  "mapping",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// IsLeaf is true for every kind except KindMapping.
func (k Kind) IsLeaf() bool {
	return k != KindMapping
}

// Value is a node of a logical document: either a *Mapping or one of the
// leaf variants (None, Bool, Int, Float, Complex, String, Array, Jagged,
// Quantity). The set is closed; use FromGo to convert native Go data.
type Value interface {
	Kind() Kind
	sealed()
}

type (
	// None is the absent marker. Lazy loads put it in place of every leaf.
	None    struct{}
	Bool    bool
	Int     int64
	Float   float64
	Complex complex128
	String  string
)

func (None) Kind() Kind    { return KindNone }
func (Bool) Kind() Kind    { return KindBool }
func (Int) Kind() Kind     { return KindInt }
func (Float) Kind() Kind   { return KindFloat }
func (Complex) Kind() Kind { return KindComplex }
func (String) Kind() Kind  { return KindString }

func (None) sealed()    {}
func (Bool) sealed()    {}
func (Int) sealed()     {}
func (Float) sealed()   {}
func (Complex) sealed() {}
func (String) sealed()  {}

func (None) String() string { return "None" }

// IsNone reports whether v is the absent marker (or a nil interface).
func IsNone(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(None)
	return ok
}

// Equal reports whether a and b hold the same variant with the same content.
// Mappings compare regardless of key order. String arrays compare by element
// text, not by their fixed item width.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return IsNone(a) && IsNone(b)
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch a := a.(type) {
	case None:
		return true
	case Bool, Int, String:
		return a == b
	case Float:
		bf := b.(Float)
		return a == bf || (a != a && bf != bf)
	case Complex:
		bc := b.(Complex)
		return a == bc || (cmplx.IsNaN(complex128(a)) && cmplx.IsNaN(complex128(bc)))
	case Array:
		return a.Equal(b.(Array))
	case Jagged:
		bj := b.(Jagged)
		if len(a) != len(bj) {
			return false
		}
		for i := range a {
			if !a[i].Equal(bj[i]) {
				return false
			}
		}
		return true
	case Quantity:
		bq := b.(Quantity)
		return a.Unit == bq.Unit && a.Magnitude.Equal(bq.Magnitude)
	case *Mapping:
		return a.equal(b.(*Mapping))
	default:
		panic(fmt.Errorf("unsupported value %T", a))
	}
}

// scalarArray returns the rank-0 payload a scalar leaf is stored as.
func scalarArray(v Value) (Array, bool) {
	switch v := v.(type) {
	case Bool:
		return scalarOf(DTypeBool, bool(v)), true
	case Int:
		return scalarOf(DTypeInt64, int64(v)), true
	case Float:
		return scalarOf(DTypeFloat64, float64(v)), true
	case Complex:
		return scalarOf(DTypeComplex128, complex128(v)), true
	case String:
		return stringArray([]string{string(v)}, []int{}), true
	default:
		return Array{}, false
	}
}

// scalarValue converts a rank-0 array back to its scalar variant. A uint64
// above math.MaxInt64 is returned as the array itself.
func scalarValue(a Array) Value {
	switch a.dtype {
	case DTypeBool:
		return Bool(a.boolAt(0))
	case DTypeInt8, DTypeInt16, DTypeInt32, DTypeInt64,
		DTypeUint8, DTypeUint16, DTypeUint32:
		return Int(a.intAt(0))
	case DTypeUint64:
		// Int cannot hold it, so it stays an unsigned rank-0 array
		if a.at(0).(uint64) > math.MaxInt64 {
			return a
		}
		return Int(a.intAt(0))
	case DTypeFloat32, DTypeFloat64:
		return Float(a.floatAt(0))
	case DTypeComplex64, DTypeComplex128:
		return Complex(a.complexAt(0))
	case DTypeString:
		return String(a.stringAt(0))
	default:
		panic(fmt.Errorf("unsupported dtype %v", a.dtype))
	}
}

func scalarOf(dt DType, v any) Array {
	a := Array{dtype: dt, itemSize: dt.fixedSize(), shape: []int{}}
	a.data = make([]byte, a.itemSize)
	putElem(dt, a.data, v)
	return a
}
