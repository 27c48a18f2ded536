package nestfile

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
)

const (
	recordFormatVer1      = 1
	recordFormatVerLatest = recordFormatVer1
)

type recordFlags uint64

const (
	rfVerBit0 = recordFlags(1 << iota)
	rfVerBit1
	rfVerBit2
	rfVerBit3
	rfFilterBit0
	rfFilterBit1
	rfFilterBit2

	rfVerMask       = (rfVerBit0 | rfVerBit1 | rfVerBit2 | rfVerBit3)
	rfVer1          = rfVerBit0
	rfFilterShift   = 4
	rfFilterMask    = (rfFilterBit0 | rfFilterBit1 | rfFilterBit2)
	rfSupportedMask = (rfVer1 | rfFilterMask)

	minRecordSize       = 4
	maxRecordHeaderSize = binary.MaxVarintLen64 * 3
)

func (rf recordFlags) ver() recordFlags {
	return rf & rfVerMask
}

func (rf recordFlags) filter() Filter {
	return Filter((rf & rfFilterMask) >> rfFilterShift)
}

// recordMeta describes a dataset payload. It is stored MsgPack-encoded
// between the binary header and the payload.
type recordMeta struct {
	DType    DType   `msgpack:"t"`
	ItemSize int     `msgpack:"w"`
	Shape    []int   `msgpack:"s"`
	RawSize  int     `msgpack:"n"`
	Sum      uint64  `msgpack:"h"`
	Attrs    attrSet `msgpack:"a,omitempty"`
}

// record is a decoded dataset record. Data is the payload as stored, i.e.
// still compressed.
type record struct {
	Flags recordFlags
	Meta  recordMeta
	Data  []byte
}

// encodeRecord lays out a dataset as:
//
//	flags:uvarint metaSize:uvarint dataSize:uvarint meta:msgpack data
//
// The header is written into reserved space after the rest is known, then
// moved next to the meta.
func encodeRecord(a Array, attrs attrSet, comp Compression) ([]byte, error) {
	if !a.IsValid() {
		panic(fmt.Errorf("encodeRecord: invalid array"))
	}
	if comp.Filter > maxFilter {
		return nil, errors.Wrapf(ErrUnsupportedCompression, "%v", comp.Filter)
	}
	data, err := comp.compress(a.data)
	if err != nil {
		return nil, err
	}
	meta := recordMeta{
		DType:    a.dtype,
		ItemSize: a.itemSize,
		Shape:    a.shape,
		RawSize:  len(a.data),
		Sum:      xxhash.Sum64(a.data),
		Attrs:    attrs,
	}
	flags := rfVer1 | recordFlags(comp.Filter)<<rfFilterShift

	buf := make([]byte, maxRecordHeaderSize, maxRecordHeaderSize+64+len(data))
	buf = msgpackAppend(buf, &meta)
	dataOff := len(buf)
	buf = appendRaw(buf, data)
	return putRecordHeader(buf, flags, dataOff), nil
}

func putRecordHeader(buf []byte, flags recordFlags, dataOff int) []byte {
	if dataOff > len(buf) {
		panic(fmt.Errorf("invalid dataOff=%d", dataOff)) // sanity check
	}
	if (flags &^ rfSupportedMask) != 0 {
		panic(fmt.Errorf("invalid flags %x", flags))
	}
	metaSize := dataOff - maxRecordHeaderSize
	dataSize := len(buf) - dataOff

	var off = 0
	n := binary.PutUvarint(buf[off:], uint64(flags))
	off += n
	n = binary.PutUvarint(buf[off:], uint64(metaSize))
	off += n
	n = binary.PutUvarint(buf[off:], uint64(dataSize))
	off += n
	headerSize := off
	if headerSize > maxRecordHeaderSize {
		panic("internal error")
	}
	if headerSize < maxRecordHeaderSize {
		// move the header closer to meta
		start := maxRecordHeaderSize - headerSize
		copy(buf[start:maxRecordHeaderSize], buf[:headerSize])
		return buf[start:]
	} else {
		return buf
	}
}

// decodeRecord parses the header and meta. The payload is left untouched, so
// this is all a lazy load pays for.
func decodeRecord(rec []byte) (record, error) {
	var r record
	if len(rec) < minRecordSize {
		return r, dataErrf(rec, 0, nil, "invalid record: at least %d bytes required", minRecordSize)
	}
	d := makeByteDecoder(rec)

	v, err := d.Uvarint()
	if err != nil {
		return r, err
	}
	r.Flags = recordFlags(v)
	if (r.Flags&^rfSupportedMask) != 0 || r.Flags.ver() != rfVer1 {
		return r, dataErrf(rec, 0, nil, "invalid record: unsupported flags %x", v)
	}
	if r.Flags.filter() > maxFilter {
		return r, dataErrf(rec, 0, ErrUnsupportedCompression, "invalid record: filter %v", r.Flags.filter())
	}

	metaSize, err := d.Uvarinti()
	if err != nil {
		return r, err
	}
	dataSize, err := d.Uvarinti()
	if err != nil {
		return r, err
	}
	if len(d.Buf) != metaSize+dataSize {
		return r, dataErrf(rec, d.Off(), nil, "invalid record: got %d bytes for meta+data, expected %d bytes", len(d.Buf), metaSize+dataSize)
	}
	metaRaw, _ := d.Raw(metaSize)
	r.Data, _ = d.Raw(dataSize)

	if err := msgpackDecode(metaRaw, &r.Meta); err != nil {
		return r, err
	}
	if !r.Meta.DType.valid() {
		return r, dataErrf(rec, 0, nil, "invalid record: bad dtype %d", r.Meta.DType)
	}
	return r, nil
}

// payload decompresses and verifies the stored array.
func (r *record) payload() (Array, error) {
	m := &r.Meta
	n, err := shapeSize(m.Shape)
	if err != nil {
		return Array{}, dataErrf(r.Data, 0, err, "invalid record shape")
	}
	if m.ItemSize <= 0 || (m.DType != DTypeString && m.ItemSize != m.DType.fixedSize()) || m.RawSize != n*m.ItemSize {
		return Array{}, dataErrf(r.Data, 0, nil, "invalid record: %v x %d items of %d bytes do not make %d bytes", m.Shape, n, m.ItemSize, m.RawSize)
	}
	data, err := decompress(r.Flags.filter(), r.Data, m.RawSize)
	if err != nil {
		return Array{}, dataErrf(r.Data, 0, err, "cannot decompress %v payload", r.Flags.filter())
	}
	if len(data) != m.RawSize {
		return Array{}, dataErrf(r.Data, 0, nil, "payload is %d bytes, expected %d", len(data), m.RawSize)
	}
	if sum := xxhash.Sum64(data); sum != m.Sum {
		return Array{}, dataErrf(r.Data, 0, nil, "payload checksum %016x, expected %016x", sum, m.Sum)
	}
	if r.Flags.filter() == FilterNone {
		// the record may live in a memory map that is gone after the tx
		data = append([]byte(nil), data...)
	}
	shape := m.Shape
	if shape == nil {
		shape = []int{}
	}
	return Array{dtype: m.DType, itemSize: m.ItemSize, shape: shape, data: data}, nil
}
