package nestfile

import (
	"math"
	"testing"
)

func nan() float64 { return math.NaN() }

func TestKeyNames(t *testing.T) {
	cases := []struct {
		key  Key
		name string
	}{
		{TextKey("abc"), "abc"},
		{IntKey(4), "4"},
		{IntKey(-12), "-12"},
		{FloatKey(4), "4.0"},
		{FloatKey(-0.25), "-0.25"},
		{FloatKey(1e16), "1e+16"},
		{FloatKey(1.5e-5), "1.5e-05"},
		{FloatKey(0.0001), "0.0001"},
		{BoolKey(true), "True"},
		{BoolKey(false), "False"},
		{TupleKey(IntKey(1), IntKey(2)), "(1, 2)"},
		{TupleKey(TextKey("a")), "('a',)"},
		{TupleKey(), "()"},
		{TupleKey(TextKey("it's"), TupleKey(FloatKey(1), BoolKey(true))), `("it's", (1.0, True))`},
		{TupleKey(TextKey("a\tb'\"")), `('a\tb\'"',)`},
	}
	for _, c := range cases {
		deepEqual(t, c.key.String(), c.name)
	}
}

func TestParseLiteral(t *testing.T) {
	cases := []struct {
		lit  string
		want Key
	}{
		{"42", IntKey(42)},
		{"+3", IntKey(3)},
		{"-7", IntKey(-7)},
		{"4.0", FloatKey(4)},
		{"4.", FloatKey(4)},
		{"1e3", FloatKey(1000)},
		{"2.5E-3", FloatKey(0.0025)},
		{"True", BoolKey(true)},
		{"False", BoolKey(false)},
		{"'x'", TextKey("x")},
		{`"y'z"`, TextKey("y'z")},
		{`'\x41\n'`, TextKey("A\n")},
		{"()", TupleKey()},
		{"(1,)", TupleKey(IntKey(1))},
		{"(1,2)", TupleKey(IntKey(1), IntKey(2))},
		{" ( 1 , 'a' , (2.0, False) ) ", TupleKey(IntKey(1), TextKey("a"), TupleKey(FloatKey(2), BoolKey(false)))},
	}
	for _, c := range cases {
		got, err := parseLiteral(c.lit)
		if err != nil {
			t.Errorf("parseLiteral(%q) failed: %v", c.lit, err)
			continue
		}
		if got != c.want {
			t.Errorf("** parseLiteral(%q) = %v %s, wanted %v %s", c.lit, got.Kind(), got, c.want.Kind(), c.want)
		}
	}

	for _, lit := range []string{"", "abc", "(1", "(1)", "1 2", "'open", "Truth", "nan", "inf", "1e", "(1,,)", "99999999999999999999"} {
		if k, err := parseLiteral(lit); err == nil {
			t.Errorf("** parseLiteral(%q) = %v %s, wanted an error", lit, k.Kind(), k)
		}
	}
}

func TestKeyLiteralRoundTrip(t *testing.T) {
	keys := []Key{
		IntKey(math.MaxInt64),
		IntKey(math.MinInt64),
		FloatKey(math.Pi),
		FloatKey(-1e-300),
		FloatKey(123456789.125),
		TupleKey(TextKey("ünï"), TextKey(`back\slash`), TextKey("\x01")),
	}
	for _, k := range keys {
		got, err := parseLiteral(k.String())
		if err != nil {
			t.Errorf("parseLiteral(%s) failed: %v", k, err)
		} else if got != k {
			t.Errorf("** got %s, wanted %s", got, k)
		}
	}
}

func TestKeyAccessors(t *testing.T) {
	if v, ok := IntKey(5).Int(); !ok || v != 5 {
		t.Errorf("Int() = %v, %v", v, ok)
	}
	if _, ok := TextKey("5").Int(); ok {
		t.Errorf("TextKey.Int() succeeded")
	}
	if v, ok := FloatKey(0.5).Float(); !ok || v != 0.5 {
		t.Errorf("Float() = %v, %v", v, ok)
	}
	if v, ok := BoolKey(true).Bool(); !ok || !v {
		t.Errorf("Bool() = %v, %v", v, ok)
	}
	elems, ok := TupleKey(IntKey(1), TextKey("a")).Elems()
	if !ok || len(elems) != 2 || elems[0] != IntKey(1) || elems[1] != TextKey("a") {
		t.Errorf("Elems() = %v, %v", elems, ok)
	}
	// equal text, different kinds
	if IntKey(1) == TextKey("1") {
		t.Errorf("IntKey(1) == TextKey(\"1\")")
	}
}

func TestKeyFromTag(t *testing.T) {
	cases := []struct {
		name, tag string
		want      Key
	}{
		{"abc", "", TextKey("abc")},
		{"42", "str", TextKey("42")},
		{"42", "unicode", TextKey("42")},
		{"42", "int", IntKey(42)},
		{"42", "int64", IntKey(42)},
		{"42", "long", IntKey(42)},
		{"4.5", "float", FloatKey(4.5)},
		{"4.5", "float32", FloatKey(4.5)},
		{"True", "bool", BoolKey(true)},
		{"True", "bool_", BoolKey(true)},
		{"(1, 'a')", "tuple", TupleKey(IntKey(1), TextKey("a"))},
	}
	for _, c := range cases {
		got, err := keyFromTag(c.name, c.tag)
		if err != nil {
			t.Errorf("keyFromTag(%q, %q) failed: %v", c.name, c.tag, err)
		} else if got != c.want {
			t.Errorf("** keyFromTag(%q, %q) = %s, wanted %s", c.name, c.tag, got, c.want)
		}
	}

	_, err := keyFromTag("x", "frozenset")
	isError(t, err, ErrUnknownKeyType)
	_, err = keyFromTag("x", "int")
	isError(t, err, ErrInvalidKey)
	_, err = keyFromTag("4.5", "int")
	isError(t, err, ErrInvalidKey)
}

func TestKeyTypeTag(t *testing.T) {
	if _, ok := keyTypeTag(TextKey("a")); ok {
		t.Errorf("text keys must not be tagged")
	}
	for _, k := range []Key{IntKey(1), FloatKey(1), BoolKey(true), TupleKey()} {
		tag, ok := keyTypeTag(k)
		if !ok {
			t.Errorf("%s is not tagged", k)
			continue
		}
		back, err := keyFromTag(k.String(), tag)
		if err != nil || back != k {
			t.Errorf("** keyFromTag(%s, %s) = %s, %v", k, tag, back, err)
		}
	}
}

func TestKeyValidate(t *testing.T) {
	for _, k := range []Key{TextKey("ok"), IntKey(0), FloatKey(1.5), TupleKey(IntKey(1))} {
		if err := k.validate(); err != nil {
			t.Errorf("%s: %v", k, err)
		}
	}
	for _, k := range []Key{TextKey(""), TextKey("."), TextKey("a/b"), FloatKey(math.Inf(1)), FloatKey(nan()), TupleKey(FloatKey(nan()))} {
		isError(t, k.validate(), ErrInvalidKey)
	}
}
