package nestfile

import (
	"cmp"
	"math"
	"reflect"
	"slices"

	"github.com/cockroachdb/errors"
)

var (
	valueType = reflect.TypeFor[Value]()
	keyType   = reflect.TypeFor[Key]()
)

// FromGo converts native Go data into a Value:
//
//   - nil and nil pointers become None;
//   - bools, integers, floats, complex numbers and strings become scalars;
//   - maps and structs become mappings (struct fields honor a `nestfile:"name"`
//     tag, "-" skips a field);
//   - rectangular nested slices and arrays become an Array; []any elements are
//     promoted to a common dtype the way numpy does it;
//   - a slice of slices with different lengths becomes Jagged, anything more
//     irregular fails with ErrUnsupportedFormat;
//   - Values, including *Mapping, are returned as is.
func FromGo(x any) (Value, error) {
	return fromGo(reflect.ValueOf(x), "")
}

// MustFromGo is FromGo that panics on error, for literals in tests and
// examples.
func MustFromGo(x any) Value {
	return must(FromGo(x))
}

// MappingFromGo is FromGo for maps and structs.
func MappingFromGo(x any) (*Mapping, error) {
	v, err := FromGo(x)
	if err != nil {
		return nil, err
	}
	m, ok := v.(*Mapping)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidArgument, "%T is not a map or a struct", x)
	}
	return m, nil
}

func fromGo(rv reflect.Value, path string) (Value, error) {
	rv = deref(rv)
	if !rv.IsValid() {
		return None{}, nil
	}
	if rv.Type().Implements(valueType) {
		return rv.Interface().(Value), nil
	}
	switch rv.Kind() {
	case reflect.Map:
		return mappingFromMap(rv, path)
	case reflect.Struct:
		return mappingFromStruct(rv, path)
	case reflect.Slice, reflect.Array:
		v, err := leafFromSeq(rv)
		if err != nil {
			return nil, errors.Wrapf(err, "at %s", displayPath(path))
		}
		return v, nil
	}
	if dt, ok := dtypeOfKind(rv.Kind()); ok {
		return scalarFromGo(rv, dt), nil
	}
	return nil, errors.Wrapf(ErrUnsupportedFormat, "at %s: cannot store %v", displayPath(path), rv.Type())
}

func mappingFromMap(rv reflect.Value, path string) (*Mapping, error) {
	type entry struct {
		k Key
		v reflect.Value
	}
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := keyFromGo(iter.Key())
		if err != nil {
			return nil, errors.Wrapf(err, "at %s", displayPath(path))
		}
		entries = append(entries, entry{k, iter.Value()})
	}
	// Go maps have no order; names give a stable one
	slices.SortFunc(entries, func(a, b entry) int {
		return cmp.Compare(a.k.String(), b.k.String())
	})
	m := NewMapping()
	for _, e := range entries {
		v, err := fromGo(e.v, path+"/"+e.k.String())
		if err != nil {
			return nil, err
		}
		m.Set(e.k, v)
	}
	return m, nil
}

func mappingFromStruct(rv reflect.Value, path string) (*Mapping, error) {
	m := NewMapping()
	for _, f := range reflectStruct(rv.Type()).fields {
		fv := rv.FieldByIndex(f.index)
		if f.omit && fv.IsZero() {
			continue
		}
		v, err := fromGo(fv, path+"/"+f.name)
		if err != nil {
			return nil, err
		}
		m.Set(TextKey(f.name), v)
	}
	return m, nil
}

func keyFromGo(rv reflect.Value) (Key, error) {
	rv = deref(rv)
	if !rv.IsValid() {
		return Key{}, errors.Wrap(ErrInvalidKey, "nil key")
	}
	if rv.Type() == keyType {
		return rv.Interface().(Key), nil
	}
	switch rv.Kind() {
	case reflect.String:
		return TextKey(rv.String()), nil
	case reflect.Bool:
		return BoolKey(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return IntKey(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return Key{}, errors.Wrapf(ErrInvalidKey, "unsigned key %d does not fit an int key", u)
		}
		return IntKey(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return FloatKey(rv.Float()), nil
	case reflect.Array, reflect.Slice:
		elems := make([]Key, rv.Len())
		for i := range elems {
			k, err := keyFromGo(rv.Index(i))
			if err != nil {
				return Key{}, err
			}
			elems[i] = k
		}
		return TupleKey(elems...), nil
	default:
		return Key{}, errors.Wrapf(ErrInvalidKey, "cannot use %v as a key", rv.Type())
	}
}

// seqNode is a nested sequence being classified: either a leaf or a list.
type seqNode struct {
	leaf reflect.Value
	kids []*seqNode
	seq  bool
}

func buildSeq(rv reflect.Value) (*seqNode, error) {
	rv = deref(rv)
	if !rv.IsValid() {
		return nil, errors.Wrap(ErrUnsupportedFormat, "nil inside a sequence")
	}
	if k := rv.Kind(); k != reflect.Slice && k != reflect.Array {
		if _, ok := dtypeOfKind(k); !ok {
			return nil, errors.Wrapf(ErrUnsupportedFormat, "cannot store %v inside a sequence", rv.Type())
		}
		return &seqNode{leaf: rv}, nil
	}
	n := &seqNode{seq: true, kids: make([]*seqNode, rv.Len())}
	for i := range n.kids {
		kid, err := buildSeq(rv.Index(i))
		if err != nil {
			return nil, err
		}
		n.kids[i] = kid
	}
	return n, nil
}

// dims returns the shape of a rectangular node.
func (n *seqNode) dims() ([]int, bool) {
	if !n.seq {
		return []int{}, true
	}
	if len(n.kids) == 0 {
		return []int{0}, true
	}
	first, ok := n.kids[0].dims()
	if !ok {
		return nil, false
	}
	for _, kid := range n.kids[1:] {
		d, ok := kid.dims()
		if !ok || !slices.Equal(d, first) {
			return nil, false
		}
	}
	return append([]int{len(n.kids)}, first...), true
}

func (n *seqNode) leaves(out []reflect.Value) []reflect.Value {
	if !n.seq {
		return append(out, n.leaf)
	}
	for _, kid := range n.kids {
		out = kid.leaves(out)
	}
	return out
}

func leafFromSeq(rv reflect.Value) (Value, error) {
	root, err := buildSeq(rv)
	if err != nil {
		return nil, err
	}
	leaves := root.leaves(nil)
	dt, err := promoteLeaves(leaves, staticDType(rv.Type()))
	if err != nil {
		return nil, err
	}
	if shape, ok := root.dims(); ok {
		return arrayFromLeaves(dt, shape, leaves), nil
	}

	// not rectangular: only a sequence of flat sequences can be stored
	j := make(Jagged, len(root.kids))
	for i, kid := range root.kids {
		if !kid.seq {
			return nil, errors.Wrapf(ErrUnsupportedFormat, "element %d is a scalar among sequences", i)
		}
		for _, g := range kid.kids {
			if g.seq {
				return nil, errors.Wrap(ErrUnsupportedFormat, "ragged sequence of rank greater than 2")
			}
		}
		j[i] = arrayFromLeaves(dt, []int{len(kid.kids)}, kid.leaves(nil))
	}
	return j, nil
}

func arrayFromLeaves(dt DType, shape []int, leaves []reflect.Value) Array {
	if dt == DTypeString {
		strs := make([]string, len(leaves))
		for i, l := range leaves {
			strs[i] = l.String()
		}
		return stringArray(strs, shape)
	}
	a := Array{dtype: dt, itemSize: dt.fixedSize(), shape: shape}
	a.data = make([]byte, len(leaves)*a.itemSize)
	for i, l := range leaves {
		putElem(dt, a.data[i*a.itemSize:], leafAs(l, dt))
	}
	return a
}

// staticDType is the dtype implied by the element type of nested slices, so
// that an empty []int32 stays int32. Untyped data defaults to float64.
func staticDType(typ reflect.Type) DType {
	for typ.Kind() == reflect.Slice || typ.Kind() == reflect.Array || typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if dt, ok := dtypeOfKind(typ.Kind()); ok {
		return dt
	}
	return DTypeFloat64
}

// promoteLeaves picks one dtype for all leaves: the common dtype when they
// agree, otherwise the widest of bool < int64 < float64 < complex128. Integers
// mixed with uint64 become float64.
func promoteLeaves(leaves []reflect.Value, static DType) (DType, error) {
	if len(leaves) == 0 {
		return static, nil
	}
	dt, _ := dtypeOfKind(leaves[0].Kind())
	same, unsigned64 := true, false
	rank := 0
	for _, l := range leaves {
		ldt, _ := dtypeOfKind(l.Kind())
		if ldt != dt {
			same = false
		}
		if ldt == DTypeUint64 {
			unsigned64 = true
		}
		if (ldt == DTypeString) != (dt == DTypeString) {
			return dtypeInvalid, errors.Wrap(ErrUnsupportedFormat, "strings mixed with numbers")
		}
		rank = max(rank, promotionRank(ldt))
	}
	if same {
		return dt, nil
	}
	// no signed integer holds every uint64
	if rank == 1 && unsigned64 {
		return DTypeFloat64, nil
	}
	return [...]DType{DTypeBool, DTypeInt64, DTypeFloat64, DTypeComplex128}[rank], nil
}

func promotionRank(dt DType) int {
	switch {
	case dt.isComplex():
		return 3
	case dt.isFloat():
		return 2
	case dt.isInt():
		return 1
	default:
		return 0
	}
}

// leafAs converts a scalar to the Go type of dt.
func leafAs(rv reflect.Value, dt DType) any {
	typ := dtypeGoType(dt)
	switch rv.Kind() {
	case reflect.Bool:
		if dt == DTypeBool {
			return rv.Bool()
		}
		n := 0
		if rv.Bool() {
			n = 1
		}
		rv = reflect.ValueOf(n)
	case reflect.Complex64, reflect.Complex128:
		return rv.Convert(typ).Interface()
	}
	if dt.isComplex() {
		var f float64
		switch {
		case rv.CanInt():
			f = float64(rv.Int())
		case rv.CanUint():
			f = float64(rv.Uint())
		default:
			f = rv.Float()
		}
		return reflect.ValueOf(complex(f, 0)).Convert(typ).Interface()
	}
	return rv.Convert(typ).Interface()
}

func scalarFromGo(rv reflect.Value, dt DType) Value {
	switch {
	case dt == DTypeBool:
		return Bool(rv.Bool())
	case dt == DTypeString:
		return String(rv.String())
	case dt.isComplex():
		return Complex(rv.Complex())
	case dt.isFloat():
		return Float(rv.Float())
	case rv.CanUint():
		u := rv.Uint()
		if u > math.MaxInt64 {
			return Scalar(u)
		}
		return Int(int64(u))
	default:
		return Int(rv.Int())
	}
}

func dtypeOfKind(k reflect.Kind) (DType, bool) {
	switch k {
	case reflect.Bool:
		return DTypeBool, true
	case reflect.Int8:
		return DTypeInt8, true
	case reflect.Int16:
		return DTypeInt16, true
	case reflect.Int32:
		return DTypeInt32, true
	case reflect.Int, reflect.Int64:
		return DTypeInt64, true
	case reflect.Uint8:
		return DTypeUint8, true
	case reflect.Uint16:
		return DTypeUint16, true
	case reflect.Uint32:
		return DTypeUint32, true
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return DTypeUint64, true
	case reflect.Float32:
		return DTypeFloat32, true
	case reflect.Float64:
		return DTypeFloat64, true
	case reflect.Complex64:
		return DTypeComplex64, true
	case reflect.Complex128:
		return DTypeComplex128, true
	case reflect.String:
		return DTypeString, true
	default:
		return dtypeInvalid, false
	}
}

func deref(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		if rv.Type().Implements(valueType) {
			return rv
		}
		rv = rv.Elem()
	}
	return rv
}

func displayPath(path string) string {
	if path == "" {
		return "/"
	}
	return path
}

// ToGo converts a Value into plain Go data: map[any]any for mappings (text
// keys as string, tuple keys as [N]any arrays so they stay comparable), nil
// for None, the matching Go scalar, nested slices for arrays, and a
// [][]T for jagged sequences. Quantities become map[string]any with
// "magnitude" and "unit".
func ToGo(v Value) any {
	switch v := v.(type) {
	case nil, None:
		return nil
	case Bool:
		return bool(v)
	case Int:
		return int64(v)
	case Float:
		return float64(v)
	case Complex:
		return complex128(v)
	case String:
		return string(v)
	case Array:
		return v.goValue()
	case Jagged:
		if len(v) == 0 {
			return [][]float64{}
		}
		typ := reflect.SliceOf(reflect.SliceOf(dtypeGoType(v[0].dtype)))
		out := reflect.MakeSlice(typ, len(v), len(v))
		for i, a := range v {
			out.Index(i).Set(reflect.ValueOf(a.goValue()))
		}
		return out.Interface()
	case Quantity:
		return map[string]any{"magnitude": v.Magnitude.goValue(), "unit": v.Unit}
	case *Mapping:
		out := make(map[any]any, v.Len())
		for k, e := range v.All() {
			out[goKey(k)] = ToGo(e)
		}
		return out
	default:
		panic(errors.AssertionFailedf("unsupported value %T", v))
	}
}

// goKey is Key.goValue with tuples turned into comparable arrays.
func goKey(k Key) any {
	if k.Kind() != KeyTuple {
		return k.goValue()
	}
	elems, _ := k.Elems()
	arr := reflect.New(reflect.ArrayOf(len(elems), reflect.TypeFor[any]())).Elem()
	for i, e := range elems {
		arr.Index(i).Set(reflect.ValueOf(goKey(e)))
	}
	return arr.Interface()
}
