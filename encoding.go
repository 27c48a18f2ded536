package nestfile

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// msgpackAppend appends the MsgPack encoding of v to buf. Map keys are sorted,
// so equal attribute sets always encode to equal bytes.
func msgpackAppend(buf []byte, v any) []byte {
	bb := bytesBuilder{buf}
	enc := msgpack.GetEncoder()
	enc.Reset(&bb)
	enc.SetSortMapKeys(true)
	err := enc.Encode(v)
	msgpack.PutEncoder(enc)
	if err != nil {
		panic(errors.Wrapf(err, "failed to encode %T using MsgPack", v))
	}
	return bb.Buf
}

func msgpackDecode(buf []byte, v any) error {
	var r bytes.Reader
	r.Reset(buf)
	dec := msgpack.GetDecoder()
	dec.Reset(&r)
	err := dec.Decode(v)
	msgpack.PutDecoder(dec)
	if err != nil {
		return dataErrf(buf, 0, err, "failed to decode msgpack into %T", v)
	}
	return nil
}

type attrKind uint8

const (
	attrText attrKind = iota + 1
	attrInts
)

type attrValue struct {
	Kind attrKind `msgpack:"k"`
	Text string   `msgpack:"s,omitempty"`
	Ints []int64  `msgpack:"i,omitempty"`
}

// attrSet holds the attributes of a group or a dataset.
type attrSet map[string]attrValue

func (as attrSet) text(name string) (string, bool) {
	v, found := as[name]
	if !found || v.Kind != attrText {
		return "", false
	}
	return v.Text, true
}

func (as attrSet) ints(name string) ([]int64, bool) {
	v, found := as[name]
	if !found || v.Kind != attrInts {
		return nil, false
	}
	return v.Ints, true
}

func (as *attrSet) setText(name, value string) {
	as.set(name, attrValue{Kind: attrText, Text: value})
}

func (as *attrSet) setInts(name string, value []int64) {
	as.set(name, attrValue{Kind: attrInts, Ints: value})
}

func (as *attrSet) set(name string, v attrValue) {
	if *as == nil {
		*as = make(attrSet)
	}
	(*as)[name] = v
}

func encodeGroupAttrs(as attrSet) []byte {
	return msgpackAppend(nil, as)
}

func decodeGroupAttrs(data []byte) (attrSet, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var as attrSet
	if err := msgpackDecode(data, &as); err != nil {
		return nil, err
	}
	return as, nil
}
