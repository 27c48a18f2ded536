package nestfile

import (
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// KeyKind is the origin type of a mapping key.
type KeyKind uint8

const (
	KeyText KeyKind = iota
	KeyInt
	KeyFloat
	KeyBool
	KeyTuple
)

func (k KeyKind) String() string {
	switch k {
	case KeyText:
		return "str"
	case KeyInt:
		return "int"
	case KeyFloat:
		return "float"
	case KeyBool:
		return "bool"
	case KeyTuple:
		return "tuple"
	default:
		return "keykind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Key is a mapping key. Keys are comparable and can index Go maps; two keys
// are equal only if both their kinds and their values are.
//
// A non-text key keeps its literal form (the node name it is stored under),
// so tuples stay comparable too.
type Key struct {
	kind KeyKind
	lit  string
}

// TextKey returns a plain string key.
func TextKey(s string) Key {
	return Key{KeyText, s}
}

func IntKey(v int64) Key {
	return Key{KeyInt, strconv.FormatInt(v, 10)}
}

// FloatKey returns a float key. NaN and infinities produce keys that are
// rejected when saved.
func FloatKey(v float64) Key {
	return Key{KeyFloat, formatFloatLiteral(v)}
}

func BoolKey(v bool) Key {
	if v {
		return Key{KeyBool, "True"}
	}
	return Key{KeyBool, "False"}
}

// TupleKey returns a tuple of keys, written the way Python prints tuples:
// (1, 2), ('a',), ().
func TupleKey(elems ...Key) Key {
	var buf strings.Builder
	buf.WriteByte('(')
	for i, e := range elems {
		if i > 0 {
			buf.WriteString(", ")
		}
		if e.kind == KeyText {
			buf.WriteString(quoteLiteral(e.lit))
		} else {
			buf.WriteString(e.lit)
		}
	}
	if len(elems) == 1 {
		buf.WriteByte(',')
	}
	buf.WriteByte(')')
	return Key{KeyTuple, buf.String()}
}

func (k Key) Kind() KeyKind { return k.kind }

// String returns the node name the key is stored under.
func (k Key) String() string { return k.lit }

// Int returns the value of an int key.
func (k Key) Int() (int64, bool) {
	if k.kind != KeyInt {
		return 0, false
	}
	v, err := strconv.ParseInt(k.lit, 10, 64)
	return v, err == nil
}

func (k Key) Float() (float64, bool) {
	if k.kind != KeyFloat {
		return 0, false
	}
	v, err := strconv.ParseFloat(k.lit, 64)
	return v, err == nil
}

func (k Key) Bool() (bool, bool) {
	if k.kind != KeyBool {
		return false, false
	}
	return k.lit == "True", true
}

// Elems returns the elements of a tuple key.
func (k Key) Elems() ([]Key, bool) {
	if k.kind != KeyTuple {
		return nil, false
	}
	p := literalParser{s: k.lit}
	elems, err := p.tuple()
	return elems, err == nil
}

// goValue returns the key as a Go value: string, int64, float64, bool, or
// []any for tuples.
func (k Key) goValue() any {
	switch k.kind {
	case KeyInt:
		v, _ := k.Int()
		return v
	case KeyFloat:
		v, _ := k.Float()
		return v
	case KeyBool:
		v, _ := k.Bool()
		return v
	case KeyTuple:
		elems, _ := k.Elems()
		out := make([]any, len(elems))
		for i, e := range elems {
			out[i] = e.goValue()
		}
		return out
	default:
		return k.lit
	}
}

// validate checks that the key can become a node name and be parsed back.
func (k Key) validate() error {
	name := k.lit
	switch {
	case name == "" || name == ".":
		return errors.Wrapf(ErrInvalidKey, "%q cannot be used as a node name", name)
	case strings.ContainsAny(name, "/\x00"):
		return errors.Wrapf(ErrInvalidKey, "%q contains a path separator or NUL", name)
	}
	if k.kind == KeyFloat || k.kind == KeyTuple {
		if _, err := parseLiteral(name); err != nil {
			return errors.Wrapf(ErrInvalidKey, "%s key %s has no literal form", k.kind, name)
		}
	}
	return nil
}

// formatFloatLiteral formats v like Python's repr: fixed notation between
// 1e-4 and 1e16, exponent notation outside, always recognizable as a float.
func formatFloatLiteral(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	abs := math.Abs(v)
	if v == 0 || (abs >= 1e-4 && abs < 1e16) {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	return strconv.FormatFloat(v, 'e', -1, 64)
}
