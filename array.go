package nestfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// DType is the element type of an Array. Names follow numpy.
type DType uint8

const (
	dtypeInvalid DType = iota
	DTypeBool
	DTypeInt8
	DTypeInt16
	DTypeInt32
	DTypeInt64
	DTypeUint8
	DTypeUint16
	DTypeUint32
	DTypeUint64
	DTypeFloat32
	DTypeFloat64
	DTypeComplex64
	DTypeComplex128
	// DTypeString holds fixed-width, NUL-padded byte strings.
	DTypeString
)

var dtypeNames = [...]string{
	dtypeInvalid:    "invalid",
	DTypeBool:       "bool",
	DTypeInt8:       "int8",
	DTypeInt16:      "int16",
	DTypeInt32:      "int32",
	DTypeInt64:      "int64",
	DTypeUint8:      "uint8",
	DTypeUint16:     "uint16",
	DTypeUint32:     "uint32",
	DTypeUint64:     "uint64",
	DTypeFloat32:    "float32",
	DTypeFloat64:    "float64",
	DTypeComplex64:  "complex64",
	DTypeComplex128: "complex128",
	DTypeString:     "string",
}

var dtypeSizes = [...]int{
	DTypeBool:       1,
	DTypeInt8:       1,
	DTypeInt16:      2,
	DTypeInt32:      4,
	DTypeInt64:      8,
	DTypeUint8:      1,
	DTypeUint16:     2,
	DTypeUint32:     4,
	DTypeUint64:     8,
	DTypeFloat32:    4,
	DTypeFloat64:    8,
	DTypeComplex64:  8,
	DTypeComplex128: 16,
	DTypeString:     0,
}

func (dt DType) String() string {
	if int(dt) < len(dtypeNames) {
		return dtypeNames[dt]
	}
	return "dtype(" + strconv.Itoa(int(dt)) + ")"
}

func (dt DType) valid() bool {
	return dt > dtypeInvalid && dt <= DTypeString
}

func (dt DType) fixedSize() int {
	return dtypeSizes[dt]
}

func (dt DType) isInt() bool {
	return dt >= DTypeInt8 && dt <= DTypeUint64
}

func (dt DType) isFloat() bool {
	return dt == DTypeFloat32 || dt == DTypeFloat64
}

func (dt DType) isComplex() bool {
	return dt == DTypeComplex64 || dt == DTypeComplex128
}

// Element lists the Go types an Array can be built from.
type Element interface {
	bool | int8 | int16 | int32 | int64 | int | uint8 | uint16 | uint32 | uint64 | uint |
		float32 | float64 | complex64 | complex128 | string
}

func dtypeOf[T Element]() DType {
	var z T
	switch any(z).(type) {
	case bool:
		return DTypeBool
	case int8:
		return DTypeInt8
	case int16:
		return DTypeInt16
	case int32:
		return DTypeInt32
	case int64, int:
		return DTypeInt64
	case uint8:
		return DTypeUint8
	case uint16:
		return DTypeUint16
	case uint32:
		return DTypeUint32
	case uint64, uint:
		return DTypeUint64
	case float32:
		return DTypeFloat32
	case float64:
		return DTypeFloat64
	case complex64:
		return DTypeComplex64
	case complex128:
		return DTypeComplex128
	case string:
		return DTypeString
	default:
		panic("unreachable")
	}
}

// Array is a homogeneous n-dimensional array stored row-major, one
// little-endian element after another. A rank-0 array holds one element.
type Array struct {
	dtype    DType
	itemSize int
	shape    []int
	data     []byte
}

func (Array) Kind() Kind { return KindArray }
func (Array) sealed()    {}

// NewArray builds an array from data laid out row-major. Without a shape the
// array is one-dimensional.
func NewArray[T Element](data []T, shape ...int) (Array, error) {
	if shape == nil {
		shape = []int{len(data)}
	}
	n, err := shapeSize(shape)
	if err != nil {
		return Array{}, err
	}
	if n != len(data) {
		return Array{}, errors.Wrapf(ErrInvalidArgument, "shape %v needs %d elements, got %d", shape, n, len(data))
	}
	dt := dtypeOf[T]()
	if dt == DTypeString {
		strs := make([]string, len(data))
		for i, v := range data {
			strs[i] = any(v).(string)
		}
		return stringArray(strs, shape), nil
	}
	a := Array{dtype: dt, itemSize: dt.fixedSize(), shape: slices.Clone(shape)}
	a.data = make([]byte, n*a.itemSize)
	for i, v := range data {
		putElem(dt, a.data[i*a.itemSize:], any(v))
	}
	return a, nil
}

// Vector builds a one-dimensional array.
func Vector[T Element](data ...T) Array {
	return must(NewArray(data))
}

// Scalar builds a rank-0 array, e.g. the magnitude of a scalar Quantity.
func Scalar[T Element](v T) Array {
	return must(NewArray([]T{v}, []int{}...))
}

// EmptyArray returns a float64 array with the given shape, which must contain
// a zero dimension. This mirrors what numpy produces for [] and [[], []].
func EmptyArray(shape ...int) Array {
	if n, err := shapeSize(shape); err != nil || n != 0 || len(shape) == 0 {
		panic(fmt.Errorf("EmptyArray: shape %v is not empty", shape))
	}
	return Array{dtype: DTypeFloat64, itemSize: 8, shape: slices.Clone(shape), data: []byte{}}
}

func stringArray(strs []string, shape []int) Array {
	if shape == nil {
		shape = []int{len(strs)}
	}
	width := 1
	for _, s := range strs {
		width = max(width, len(s))
	}
	a := Array{dtype: DTypeString, itemSize: width, shape: slices.Clone(shape)}
	a.data = make([]byte, len(strs)*width)
	for i, s := range strs {
		copy(a.data[i*width:], s)
	}
	return a
}

func shapeSize(shape []int) (int, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return 0, errors.Wrapf(ErrInvalidArgument, "negative dimension in shape %v", shape)
		}
		n *= d
	}
	return n, nil
}

func (a Array) DType() DType    { return a.dtype }
func (a Array) Shape() []int    { return slices.Clone(a.shape) }
func (a Array) Rank() int       { return len(a.shape) }
func (a Array) ItemSize() int   { return a.itemSize }
func (a Array) IsValid() bool   { return a.dtype.valid() }
func (a Array) StoredSize() int { return len(a.data) }

// Len returns the total number of elements.
func (a Array) Len() int {
	if a.itemSize == 0 {
		return 0
	}
	return len(a.data) / a.itemSize
}

// Reshape returns an array sharing a's elements under a new shape.
func (a Array) Reshape(shape ...int) (Array, error) {
	n, err := shapeSize(shape)
	if err != nil {
		return Array{}, err
	}
	if n != a.Len() {
		return Array{}, errors.Wrapf(ErrInvalidArgument, "cannot reshape %v into %v", a.shape, shape)
	}
	a.shape = slices.Clone(shape)
	return a, nil
}

// Equal compares dtype, shape and elements.
func (a Array) Equal(b Array) bool {
	if a.dtype != b.dtype || !slices.Equal(a.shape, b.shape) {
		return false
	}
	if a.dtype == DTypeString {
		n := a.Len()
		if n != b.Len() {
			return false
		}
		for i := 0; i < n; i++ {
			if a.stringAt(i) != b.stringAt(i) {
				return false
			}
		}
		return true
	}
	return bytes.Equal(a.data, b.data)
}

// Elems returns a copy of the elements; T must match the dtype (int and uint
// match int64 and uint64).
func Elems[T Element](a Array) ([]T, error) {
	if dt := dtypeOf[T](); dt != a.dtype {
		return nil, errors.Newf("nestfile: array holds %v, not %v", a.dtype, dt)
	}
	typ := reflect.TypeFor[T]()
	out := make([]T, a.Len())
	for i := range out {
		out[i] = reflect.ValueOf(a.at(i)).Convert(typ).Interface().(T)
	}
	return out, nil
}

// Float64s converts every element of a boolean, integer or float array.
func (a Array) Float64s() ([]float64, error) {
	if !(a.dtype == DTypeBool || a.dtype.isInt() || a.dtype.isFloat()) {
		return nil, errors.Newf("nestfile: cannot convert %v array to float64", a.dtype)
	}
	out := make([]float64, a.Len())
	for i := range out {
		out[i] = a.floatAt(i)
	}
	return out, nil
}

// Strings returns the elements of a string array with padding removed.
func (a Array) Strings() ([]string, error) {
	if a.dtype != DTypeString {
		return nil, errors.Newf("nestfile: array holds %v, not strings", a.dtype)
	}
	out := make([]string, a.Len())
	for i := range out {
		out[i] = a.stringAt(i)
	}
	return out, nil
}

func (a Array) elem(i int) []byte {
	return a.data[i*a.itemSize : (i+1)*a.itemSize]
}

// at returns element i as the Go type that corresponds to the dtype.
func (a Array) at(i int) any {
	b := a.elem(i)
	le := binary.LittleEndian
	switch a.dtype {
	case DTypeBool:
		return b[0] != 0
	case DTypeInt8:
		return int8(b[0])
	case DTypeInt16:
		return int16(le.Uint16(b))
	case DTypeInt32:
		return int32(le.Uint32(b))
	case DTypeInt64:
		return int64(le.Uint64(b))
	case DTypeUint8:
		return b[0]
	case DTypeUint16:
		return le.Uint16(b)
	case DTypeUint32:
		return le.Uint32(b)
	case DTypeUint64:
		return le.Uint64(b)
	case DTypeFloat32:
		return math.Float32frombits(le.Uint32(b))
	case DTypeFloat64:
		return math.Float64frombits(le.Uint64(b))
	case DTypeComplex64:
		return complex(math.Float32frombits(le.Uint32(b)), math.Float32frombits(le.Uint32(b[4:])))
	case DTypeComplex128:
		return complex(math.Float64frombits(le.Uint64(b)), math.Float64frombits(le.Uint64(b[8:])))
	case DTypeString:
		return string(bytes.TrimRight(b, "\x00"))
	default:
		panic(fmt.Errorf("unsupported dtype %v", a.dtype))
	}
}

func (a Array) boolAt(i int) bool {
	return a.intAt(i) != 0
}

func (a Array) intAt(i int) int64 {
	switch v := a.at(i).(type) {
	case bool:
		if v {
			return 1
		}
		return 0
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return int64(v)
	case float32:
		return int64(v)
	case float64:
		return int64(v)
	default:
		panic(fmt.Errorf("cannot read %v element as int", a.dtype))
	}
}

func (a Array) floatAt(i int) float64 {
	switch v := a.at(i).(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	case uint64:
		return float64(v)
	default:
		return float64(a.intAt(i))
	}
}

func (a Array) complexAt(i int) complex128 {
	switch v := a.at(i).(type) {
	case complex64:
		return complex128(v)
	case complex128:
		return v
	default:
		return complex(a.floatAt(i), 0)
	}
}

func (a Array) stringAt(i int) string {
	return a.at(i).(string)
}

// putElem writes v, whose Go type must be compatible with dt, into b.
func putElem(dt DType, b []byte, v any) {
	le := binary.LittleEndian
	switch dt {
	case DTypeBool:
		if v.(bool) {
			b[0] = 1
		} else {
			b[0] = 0
		}
	case DTypeInt8:
		b[0] = byte(v.(int8))
	case DTypeInt16:
		le.PutUint16(b, uint16(v.(int16)))
	case DTypeInt32:
		le.PutUint32(b, uint32(v.(int32)))
	case DTypeInt64:
		switch v := v.(type) {
		case int:
			le.PutUint64(b, uint64(v))
		default:
			le.PutUint64(b, uint64(v.(int64)))
		}
	case DTypeUint8:
		b[0] = v.(uint8)
	case DTypeUint16:
		le.PutUint16(b, v.(uint16))
	case DTypeUint32:
		le.PutUint32(b, v.(uint32))
	case DTypeUint64:
		switch v := v.(type) {
		case uint:
			le.PutUint64(b, uint64(v))
		default:
			le.PutUint64(b, v.(uint64))
		}
	case DTypeFloat32:
		le.PutUint32(b, math.Float32bits(v.(float32)))
	case DTypeFloat64:
		le.PutUint64(b, math.Float64bits(v.(float64)))
	case DTypeComplex64:
		c := v.(complex64)
		le.PutUint32(b, math.Float32bits(real(c)))
		le.PutUint32(b[4:], math.Float32bits(imag(c)))
	case DTypeComplex128:
		c := v.(complex128)
		le.PutUint64(b, math.Float64bits(real(c)))
		le.PutUint64(b[8:], math.Float64bits(imag(c)))
	default:
		panic(fmt.Errorf("putElem: unsupported dtype %v", dt))
	}
}

// concatVectors joins rank-1 arrays of one dtype into a single rank-1 array
// and reports each part's length. String parts are re-padded to the widest.
func concatVectors(parts []Array) (Array, []int64, error) {
	lengths := make([]int64, len(parts))
	if len(parts) == 0 {
		return EmptyArray(0), lengths, nil
	}
	dt := parts[0].dtype
	width := 0
	total := 0
	for i, p := range parts {
		if p.Rank() != 1 {
			return Array{}, nil, errors.Wrapf(ErrUnsupportedFormat, "element %d has rank %d, only rank-1 elements are supported", i, p.Rank())
		}
		if p.dtype != dt {
			return Array{}, nil, errors.Wrapf(ErrUnsupportedFormat, "element %d holds %v, element 0 holds %v", i, p.dtype, dt)
		}
		width = max(width, p.itemSize)
		lengths[i] = int64(p.Len())
		total += p.Len()
	}
	out := Array{dtype: dt, itemSize: width, shape: []int{total}, data: make([]byte, 0, total*width)}
	for _, p := range parts {
		if p.itemSize == width {
			out.data = append(out.data, p.data...)
			continue
		}
		for i := 0; i < p.Len(); i++ {
			off := len(out.data)
			out.data = append(out.data, make([]byte, width)...)
			copy(out.data[off:], p.elem(i))
		}
	}
	return out, lengths, nil
}

// splitVector is the inverse of concatVectors.
func splitVector(flat Array, lengths []int64) (Jagged, error) {
	if flat.Rank() != 1 {
		return nil, errors.Newf("flattened payload has rank %d", flat.Rank())
	}
	var sum int64
	for _, n := range lengths {
		if n < 0 {
			return nil, errors.Newf("negative length %d", n)
		}
		sum += n
	}
	if sum != int64(flat.Len()) {
		return nil, errors.Newf("lengths add up to %d, payload holds %d elements", sum, flat.Len())
	}
	out := make(Jagged, len(lengths))
	off := 0
	for i, n := range lengths {
		end := off + int(n)*flat.itemSize
		out[i] = Array{
			dtype:    flat.dtype,
			itemSize: flat.itemSize,
			shape:    []int{int(n)},
			data:     slices.Clone(flat.data[off:end]),
		}
		off = end
	}
	return out, nil
}

func (a Array) String() string {
	if !a.IsValid() {
		return "<invalid array>"
	}
	var buf strings.Builder
	a.format(&buf, 0, 0)
	return buf.String()
}

func (a Array) format(w *strings.Builder, dim, off int) int {
	if dim == len(a.shape) {
		switch v := a.at(off).(type) {
		case string:
			w.WriteString(strconv.Quote(v))
		default:
			fmt.Fprint(w, v)
		}
		return off + 1
	}
	w.WriteByte('[')
	for i := 0; i < a.shape[dim]; i++ {
		if i > 0 {
			w.WriteByte(' ')
		}
		off = a.format(w, dim+1, off)
	}
	w.WriteByte(']')
	return off
}

// goValue converts the array into nested Go slices of the dtype's Go type.
func (a Array) goValue() any {
	if a.Rank() == 0 {
		return a.at(0)
	}
	typ := dtypeGoType(a.dtype)
	for range a.shape {
		typ = reflect.SliceOf(typ)
	}
	v, _ := a.goSlice(typ, 0, 0)
	return v.Interface()
}

func (a Array) goSlice(typ reflect.Type, dim, off int) (reflect.Value, int) {
	n := a.shape[dim]
	s := reflect.MakeSlice(typ, n, n)
	for i := 0; i < n; i++ {
		if dim == len(a.shape)-1 {
			s.Index(i).Set(reflect.ValueOf(a.at(off)))
			off++
		} else {
			var sub reflect.Value
			sub, off = a.goSlice(typ.Elem(), dim+1, off)
			s.Index(i).Set(sub)
		}
	}
	return s, off
}

func dtypeGoType(dt DType) reflect.Type {
	switch dt {
	case DTypeBool:
		return reflect.TypeFor[bool]()
	case DTypeInt8:
		return reflect.TypeFor[int8]()
	case DTypeInt16:
		return reflect.TypeFor[int16]()
	case DTypeInt32:
		return reflect.TypeFor[int32]()
	case DTypeInt64:
		return reflect.TypeFor[int64]()
	case DTypeUint8:
		return reflect.TypeFor[uint8]()
	case DTypeUint16:
		return reflect.TypeFor[uint16]()
	case DTypeUint32:
		return reflect.TypeFor[uint32]()
	case DTypeUint64:
		return reflect.TypeFor[uint64]()
	case DTypeFloat32:
		return reflect.TypeFor[float32]()
	case DTypeFloat64:
		return reflect.TypeFor[float64]()
	case DTypeComplex64:
		return reflect.TypeFor[complex64]()
	case DTypeComplex128:
		return reflect.TypeFor[complex128]()
	case DTypeString:
		return reflect.TypeFor[string]()
	default:
		panic(fmt.Errorf("unsupported dtype %v", dt))
	}
}
