package nestfile

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFromGoScalars(t *testing.T) {
	cases := []struct {
		in   any
		want Value
	}{
		{nil, None{}},
		{(*int)(nil), None{}},
		{true, Bool(true)},
		{7, Int(7)},
		{int8(-7), Int(-7)},
		{uint16(9), Int(9)},
		{2.5, Float(2.5)},
		{float32(0.5), Float(0.5)},
		{1 + 2i, Complex(1 + 2i)},
		{"hi", String("hi")},
		{Int(3), Int(3)},
	}
	for _, c := range cases {
		got, err := FromGo(c.in)
		if err != nil {
			t.Errorf("FromGo(%#v) failed: %v", c.in, err)
		} else if !Equal(got, c.want) {
			t.Errorf("** FromGo(%#v) = %v, wanted %v", c.in, got, c.want)
		}
	}
}

func TestFromGoUnsigned(t *testing.T) {
	valueEqual(t, MustFromGo(uint64(math.MaxUint64)), Scalar[uint64](math.MaxUint64))
	valueEqual(t, MustFromGo(uint(1<<63)), Scalar[uint64](1<<63))
	valueEqual(t, MustFromGo(uint64(math.MaxInt64)), Int(math.MaxInt64))
	valueEqual(t, MustFromGo([]any{uint64(math.MaxUint64), 1}), Vector(float64(math.MaxUint64), 1))
	valueEqual(t, MustFromGo([]uint64{math.MaxUint64}), Vector[uint64](math.MaxUint64))

	_, err := FromGo(map[uint64]int{math.MaxUint64: 1})
	isError(t, err, ErrInvalidKey)
	m := must(MappingFromGo(map[uint64]int{math.MaxInt64: 1}))
	_, ok := m.Get(IntKey(math.MaxInt64))
	deepEqual(t, ok, true)
}

func TestFromGoSequences(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want Value
	}{
		{"typed", []int32{1, 2}, Vector[int32](1, 2)},
		{"go ints", []int{1, 2}, Vector[int64](1, 2)},
		{"matrix", [][]float64{{1, 2}, {3, 4}}, must(NewArray([]float64{1, 2, 3, 4}, 2, 2))},
		{"go array", [3]uint8{1, 2, 3}, Vector[uint8](1, 2, 3)},
		{"strings", []string{"a", "bb"}, Vector("a", "bb")},
		{"promote int+float", []any{1, 2.5}, Vector(1.0, 2.5)},
		{"promote bool+int", []any{true, 2}, Vector[int64](1, 2)},
		{"promote to complex", []any{1, 2i}, Vector[complex128](1, 2i)},
		{"same untyped", []any{int8(1), int8(2)}, Vector[int8](1, 2)},
		{"empty", []any{}, EmptyArray(0)},
		{"nested empty", []any{[]any{}, []any{}}, EmptyArray(2, 0)},
		{"typed empty", []int16{}, Vector[int16]()},
		{"jagged", [][]int{{1, 2, 3, 4}, {6, 7}}, Jagged{Vector[int64](1, 2, 3, 4), Vector[int64](6, 7)}},
		{"jagged promoted", []any{[]any{1, 2}, []any{1.5}}, Jagged{Vector(1.0, 2.0), Vector(1.5)}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := FromGo(c.in)
			if err != nil {
				t.Fatalf("FromGo failed: %v", err)
			}
			valueEqual(t, got, c.want)
		})
	}
}

func TestFromGoUnsupported(t *testing.T) {
	for _, in := range []any{
		[][][]int{{{1}}, {{1}, {2}}},
		[]any{1, "a"},
		[]any{[]int{1}, 2},
		[]any{nil},
		make(chan int),
		map[any]int{struct{}{}: 1},
	} {
		if v, err := FromGo(in); err == nil {
			t.Errorf("** FromGo(%#v) = %v, wanted an error", in, v)
		}
	}
}

func TestFromGoMapsAndStructs(t *testing.T) {
	type inner struct {
		Z string
	}
	type outer struct {
		A     int
		B     []float64 `nestfile:"b"`
		C     *inner
		Skip  int `nestfile:"-"`
		Empty int `nestfile:",omitempty"`
		priv  int
	}
	got, err := FromGo(map[string]any{
		"s":  outer{A: 1, B: []float64{1, 2}, C: &inner{"z"}, Skip: 5, priv: 6},
		"m":  map[int]string{2: "two", 1: "one"},
		"t":  map[[2]int]bool{{1, 2}: true},
		"f":  map[float64]int{0.5: 1},
		"nn": nil,
	})
	if err != nil {
		t.Fatal(err)
	}

	m12 := NewMapping()
	m12.Set(IntKey(1), String("one"))
	m12.Set(IntKey(2), String("two"))
	tup := NewMapping()
	tup.Set(TupleKey(IntKey(1), IntKey(2)), Bool(true))
	fl := NewMapping()
	fl.Set(FloatKey(0.5), Int(1))

	want := mapping(
		"s", mapping("A", Int(1), "b", Vector(1.0, 2.0), "C", mapping("Z", String("z"))),
		"m", m12,
		"t", tup,
		"f", fl,
		"nn", None{},
	)
	valueEqual(t, got, want)

	// keys come out sorted by name
	var names []string
	for k := range got.(*Mapping).All() {
		names = append(names, k.String())
	}
	deepEqual(t, names, []string{"f", "m", "nn", "s", "t"})
}

func TestMappingFromGo(t *testing.T) {
	m := must(MappingFromGo(map[string]int{"a": 1}))
	deepEqual(t, m.Len(), 1)
	_, err := MappingFromGo([]int{1})
	isError(t, err, ErrInvalidArgument)
}

func TestToGo(t *testing.T) {
	m := NewMapping()
	m.SetText("i", Int(6))
	m.SetText("none", None{})
	m.SetText("arr", must(NewArray([]int32{1, 2, 3, 4}, 2, 2)))
	m.SetText("jag", Jagged{Vector(1.0, 2.0), Vector(3.0)})
	m.SetText("q", Quantity{Magnitude: Vector(1.0), Unit: "s"})
	m.Set(IntKey(3), String("three"))
	m.Set(TupleKey(IntKey(1), TextKey("a")), Bool(true))
	m.SetText("sub", mapping("x", Float(0.5)))

	want := map[any]any{
		"i":                   int64(6),
		"none":                nil,
		"arr":                 [][]int32{{1, 2}, {3, 4}},
		"jag":                 [][]float64{{1, 2}, {3}},
		"q":                   map[string]any{"magnitude": []float64{1}, "unit": "s"},
		int64(3):              "three",
		[2]any{int64(1), "a"}: true,
		"sub":                 map[any]any{"x": 0.5},
	}
	if diff := cmp.Diff(want, ToGo(m)); diff != "" {
		t.Errorf("ToGo mismatch (-want +got):\n%s", diff)
	}
}

func TestFromGoToGoSavesAndLoads(t *testing.T) {
	fn := setupFile(t)
	d := must(MappingFromGo(map[string]any{
		"a": map[string]any{"a1": []int{1, 2, 3}, "a2": 4.0, "a3": map[string]any{"a31": "Test"}},
		"b": "string",
	}))
	ensureSave(t, fn, d, SaveOptions{})
	got := ToGo(ensureLoad(t, fn, LoadOptions{}))
	want := map[any]any{
		"a": map[any]any{"a1": []int64{1, 2, 3}, "a2": 4.0, "a3": map[any]any{"a31": "Test"}},
		"b": "string",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
