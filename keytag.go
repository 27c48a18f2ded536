package nestfile

import (
	"github.com/cockroachdb/errors"
)

// Attribute names and markers shared by the encoder and the decoder.
const (
	attrKeyType     = "_key_type"
	attrOldShape    = "oldshape"
	attrCustomShape = "custom_shape" // written by older files next to oldshape
	attrUnit        = "_unit"

	noneMarker = "None"
)

// keyTypeTags maps every recognized _key_type value to the key kind it
// denotes. numpy scalar type names show up when keys were numpy scalars.
var keyTypeTags = map[string]KeyKind{
	"str":     KeyText,
	"unicode": KeyText,
	"string_": KeyText,
	"str_":    KeyText,
	"bytes":   KeyText,
	"bytes_":  KeyText,

	"int":    KeyInt,
	"long":   KeyInt,
	"int8":   KeyInt,
	"int16":  KeyInt,
	"int32":  KeyInt,
	"int64":  KeyInt,
	"uint8":  KeyInt,
	"uint16": KeyInt,
	"uint32": KeyInt,
	"uint64": KeyInt,
	"int_":   KeyInt,

	"float":   KeyFloat,
	"float16": KeyFloat,
	"float32": KeyFloat,
	"float64": KeyFloat,
	"float_":  KeyFloat,

	"bool":  KeyBool,
	"bool_": KeyBool,

	"tuple": KeyTuple,
}

// keyTypeTag returns the _key_type to record for k. Text keys get none.
func keyTypeTag(k Key) (string, bool) {
	if k.kind == KeyText {
		return "", false
	}
	return k.kind.String(), true
}

// keyFromTag restores the key stored under name, given its _key_type tag
// (empty when the node has none).
func keyFromTag(name, tag string) (Key, error) {
	if tag == "" {
		return TextKey(name), nil
	}
	kind, ok := keyTypeTags[tag]
	if !ok {
		return Key{}, errors.Wrapf(ErrUnknownKeyType, "%q", tag)
	}
	if kind == KeyText {
		return TextKey(name), nil
	}
	k, err := parseLiteral(name)
	if err != nil {
		return Key{}, errors.Mark(errors.Wrapf(err, "%s key", tag), ErrInvalidKey)
	}
	if k.kind != kind {
		return Key{}, errors.Wrapf(ErrInvalidKey, "name %q is a %s literal, but the key type is %s", name, k.kind, tag)
	}
	return k, nil
}
