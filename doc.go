/*
Package nestfile stores nested mappings in a hierarchical container file and
loads them back (on top of Bolt).

We implement:

1. Save, which walks a mapping depth-first and writes every nested mapping as
a group and every other value as a dataset.

2. Load, which walks the file back into a mapping, or returns a single value
when pointed at a dataset. Lazy loads return the structure with every leaf
replaced by None, without reading payloads.

3. Inspection (List, Stat, Dump) and compaction (Repack).

# Technical Details

**Groups.**
A group is a Bolt bucket; the root group is the top-level bucket "nestfile".
Group attributes are a MsgPack map stored under a reserved key starting with
NUL, which no node name can contain.

**Names and key types.**
A node is named by the text form of its key (`4`, `4.0`, `(1, 'a')`, `True`).
Non-text keys record their type in the `_key_type` attribute; loading parses
the name back as a literal. Unknown tags and unparsable names are errors.

**Special values.**
None is a rank-0 string dataset holding "None". A jagged sequence is stored
flattened, with the inner lengths in the `oldshape` attribute. A quantity is
stored as its magnitude, with the unit in the `_unit` attribute.

## Binary encoding

**Dataset record**: header, then meta, then payload.

**Header**:
1. Flags (uvarint): format version in bits 0-3, compression filter in bits 4-6.
2. Meta size (uvarint).
3. Payload size (uvarint).

**Meta**: msgpack of dtype, item size, shape, uncompressed payload size,
xxhash of the uncompressed payload, and dataset attributes.

**Payload**: elements in row-major order, little-endian; strings are
NUL-padded to the item size. Possibly compressed with gzip, zstd or snappy.
Scalars and None are never compressed.
*/
package nestfile
