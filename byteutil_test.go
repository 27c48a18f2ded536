package nestfile

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/cockroachdb/errors"
)

func TestBytesBuilder_Basics(t *testing.T) {
	var bb bytesBuilder
	_, _ = bb.Write([]byte{1, 2})
	_ = bb.WriteByte(3)
	if !bytes.Equal(bb.Buf, []byte{1, 2, 3}) {
		t.Fatalf("bb.Buf = %x, wanted 010203", bb.Buf)
	}

	buf := ensureCapacity(nil, 100)
	if cap(buf) < 100 || len(buf) != 0 {
		t.Fatalf("ensureCapacity = len %d cap %d, wanted len 0 cap >= 100", len(buf), cap(buf))
	}
	off, buf := grow([]byte{9}, 4)
	if off != 1 || len(buf) != 5 || buf[0] != 9 {
		t.Fatalf("grow = (%d, %x), wanted (1, 09........)", off, buf)
	}
}

func TestByteDecoder_Uvarints(t *testing.T) {
	buf := binary.AppendUvarint(nil, 300)
	buf = binary.AppendUvarint(buf, 7)
	buf = append(buf, 0xAA, 0xBB)

	d := makeByteDecoder(buf)
	v, err := d.Uvarint()
	if err != nil || v != 300 {
		t.Fatalf("Uvarint = (%d, %v), wanted (300, nil)", v, err)
	}
	n, err := d.Uvarinti()
	if err != nil || n != 7 {
		t.Fatalf("Uvarinti = (%d, %v), wanted (7, nil)", n, err)
	}
	if d.Off() != 3 {
		t.Fatalf("Off = %d, wanted 3", d.Off())
	}
	raw, err := d.Raw(2)
	if err != nil || !bytes.Equal(raw, []byte{0xAA, 0xBB}) || len(d.Buf) != 0 {
		t.Fatalf("Raw = (%x, %v), remaining=%d, wanted (aabb, nil), remaining=0", raw, err, len(d.Buf))
	}
}

func TestByteDecoder_Errors(t *testing.T) {
	t.Run("invalid uvarint", func(t *testing.T) {
		d := makeByteDecoder([]byte{0x80}) // continuation bit with no terminator
		_, err := d.Uvarint()
		var de *DataError
		if !errors.As(err, &de) || !errors.Is(err, ErrCorrupted) {
			t.Fatalf("Uvarint err = %v, wanted a DataError", err)
		}
	})
	t.Run("short raw", func(t *testing.T) {
		d := makeByteDecoder([]byte{1})
		if _, err := d.Raw(2); err == nil {
			t.Fatalf("Raw(2) on 1 byte succeeded")
		}
	})
}
