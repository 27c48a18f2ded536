package nestfile

import (
	"testing"
)

func TestNewArray(t *testing.T) {
	a := must(NewArray([]int32{1, 2, 3, 4, 5, 6}, 2, 3))
	deepEqual(t, a.DType(), DTypeInt32)
	deepEqual(t, a.Shape(), []int{2, 3})
	deepEqual(t, a.Rank(), 2)
	deepEqual(t, a.Len(), 6)
	deepEqual(t, a.ItemSize(), 4)
	deepEqual(t, a.String(), "[[1 2 3] [4 5 6]]")

	_, err := NewArray([]int32{1, 2, 3}, 2, 2)
	isError(t, err, ErrInvalidArgument)
	_, err = NewArray([]int32{}, -1)
	isError(t, err, ErrInvalidArgument)
}

func TestGoIntTypes(t *testing.T) {
	a := Vector(1, 2, 3)
	deepEqual(t, a.DType(), DTypeInt64)
	deepEqual(t, must(Elems[int](a)), []int{1, 2, 3})
	deepEqual(t, must(Elems[int64](a)), []int64{1, 2, 3})

	u := Vector[uint](7)
	deepEqual(t, u.DType(), DTypeUint64)
	deepEqual(t, must(Elems[uint](u)), []uint{7})

	_, err := Elems[float64](a)
	if err == nil {
		t.Errorf("Elems[float64] on an int64 array succeeded")
	}
}

func TestScalarArray(t *testing.T) {
	a := Scalar(2.5)
	deepEqual(t, a.Rank(), 0)
	deepEqual(t, a.Len(), 1)
	deepEqual(t, a.String(), "2.5")
	deepEqual(t, scalarValue(a), Value(Float(2.5)))

	for _, v := range []Value{Bool(true), Int(-3), Float(0.5), Complex(1 + 2i), String("s")} {
		sa, ok := scalarArray(v)
		if !ok || sa.Rank() != 0 {
			t.Errorf("scalarArray(%v) = %v, %v", v, sa, ok)
			continue
		}
		if back := scalarValue(sa); !Equal(back, v) {
			t.Errorf("** got %v, wanted %v", back, v)
		}
	}
	if _, ok := scalarArray(None{}); ok {
		t.Errorf("scalarArray(None) succeeded")
	}
}

func TestStringArrays(t *testing.T) {
	a := Vector("a", "bcd", "")
	deepEqual(t, a.ItemSize(), 3)
	deepEqual(t, must(a.Strings()), []string{"a", "bcd", ""})
	deepEqual(t, a.String(), `["a" "bcd" ""]`)

	// width does not take part in equality
	b, _, err := concatVectors([]Array{Vector("a"), Vector("bcd", "")})
	if err != nil || !a.Equal(b) {
		t.Errorf("** got %v, wanted %v", b, a)
	}
	if a.Equal(Vector("a", "bcd", "x")) {
		t.Errorf("different strings compared equal")
	}

	empty := Vector[string]()
	deepEqual(t, empty.ItemSize(), 1)
	deepEqual(t, empty.Len(), 0)
}

func TestEmptyArrays(t *testing.T) {
	a := EmptyArray(2, 0)
	deepEqual(t, a.DType(), DTypeFloat64)
	deepEqual(t, a.Shape(), []int{2, 0})
	deepEqual(t, a.Len(), 0)
	deepEqual(t, a.String(), "[[] []]")
	if a.Equal(EmptyArray(0)) {
		t.Errorf("arrays of different shapes compared equal")
	}
}

func TestReshape(t *testing.T) {
	a := Vector[int16](1, 2, 3, 4)
	b := must(a.Reshape(2, 2))
	deepEqual(t, b.Shape(), []int{2, 2})
	deepEqual(t, a.Shape(), []int{4})
	_, err := a.Reshape(3)
	isError(t, err, ErrInvalidArgument)
}

func TestFloat64s(t *testing.T) {
	deepEqual(t, must(Vector[int8](-1, 2).Float64s()), []float64{-1, 2})
	deepEqual(t, must(Vector(true, false).Float64s()), []float64{1, 0})
	deepEqual(t, must(Vector[float32](0.5).Float64s()), []float64{0.5})
	if _, err := Vector("x").Float64s(); err == nil {
		t.Errorf("Float64s on strings succeeded")
	}
}

func TestConcatAndSplit(t *testing.T) {
	parts := []Array{Vector[int64](1, 2, 3, 4), Vector[int64](), Vector[int64](6, 7)}
	flat, lengths, err := concatVectors(parts)
	if err != nil {
		t.Fatal(err)
	}
	deepEqual(t, lengths, []int64{4, 0, 2})
	deepEqual(t, must(Elems[int64](flat)), []int64{1, 2, 3, 4, 6, 7})

	j := must(splitVector(flat, lengths))
	if !Equal(j, Jagged(parts)) {
		t.Errorf("** got %v, wanted %v", j, parts)
	}

	_, err = splitVector(flat, []int64{4, 1})
	if err == nil {
		t.Errorf("splitVector accepted lengths that do not add up")
	}
	_, err = splitVector(flat, []int64{7, -1})
	if err == nil {
		t.Errorf("splitVector accepted a negative length")
	}

	_, _, err = concatVectors([]Array{Vector(1.0), Vector[int64](1)})
	isError(t, err, ErrUnsupportedFormat)

	flat, lengths, err = concatVectors(nil)
	if err != nil || flat.Len() != 0 || len(lengths) != 0 {
		t.Errorf("concatVectors(nil) = %v, %v, %v", flat, lengths, err)
	}
}

func TestEqualValues(t *testing.T) {
	if !Equal(nil, None{}) || !Equal(Float(nan()), Float(nan())) {
		t.Errorf("None or NaN equality broken")
	}
	if Equal(Int(1), Float(1)) {
		t.Errorf("Int(1) == Float(1)")
	}
	if Equal(Vector[int32](1), Vector[int64](1)) {
		t.Errorf("arrays of different dtypes compared equal")
	}
	a := mapping("x", Int(1), "y", Int(2))
	b := mapping("y", Int(2), "x", Int(1))
	if !Equal(a, b) {
		t.Errorf("mapping equality depends on order")
	}
	if Equal(a, mapping("x", Int(1))) {
		t.Errorf("mappings of different sizes compared equal")
	}
	if Equal(Quantity{Magnitude: Vector(1.0), Unit: "s"}, Quantity{Magnitude: Vector(1.0), Unit: "ms"}) {
		t.Errorf("quantities with different units compared equal")
	}
}

func TestMapping(t *testing.T) {
	m := NewMapping()
	m.Set(IntKey(2), Int(20))
	m.SetText("a", nil)
	m.Set(IntKey(1), Int(10))
	m.Set(IntKey(2), Int(21))

	deepEqual(t, m.Len(), 3)
	v, _ := m.GetText("a")
	if !IsNone(v) {
		t.Errorf("Set(nil) stored %v, wanted None", v)
	}
	var names []string
	for k := range m.All() {
		names = append(names, k.String())
	}
	deepEqual(t, names, []string{"2", "a", "1"})

	m.Delete(TextKey("a"))
	m.Delete(TextKey("missing"))
	deepEqual(t, m.Len(), 2)
	v, _ = m.Get(IntKey(2))
	if !Equal(v, Int(21)) {
		t.Errorf("** got %v, wanted 21", v)
	}

	var nilMap *Mapping
	deepEqual(t, nilMap.Len(), 0)
	if _, ok := nilMap.Get(IntKey(1)); ok {
		t.Errorf("nil mapping returned a value")
	}
}
