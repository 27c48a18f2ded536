package nestfile

import "github.com/cockroachdb/errors"

// decoder rebuilds values from the groups and datasets of one open file.
type decoder struct {
	file       string
	lazy       bool
	quantities QuantityFactory

	groups   int
	datasets int
}

// decodeGroup returns the mapping stored in g. Children come in name order.
func (d *decoder) decodeGroup(g storageGroup, path string) (*Mapping, error) {
	m := NewMapping()
	c := g.Cursor()
	for name, rec := c.First(); name != nil; name, rec = c.Next() {
		childPath := path + "/" + string(name)
		var k Key
		var v Value
		var err error
		if rec == nil {
			child := g.Group(name)
			if child == nil {
				return nil, pathErrf(d.file, childPath, ErrCorrupted, "empty dataset record")
			}
			k, err = d.groupKey(child, childPath, string(name))
			if err != nil {
				return nil, err
			}
			v, err = d.decodeGroup(child, childPath)
		} else {
			k, v, err = d.decodeDataset(rec, childPath, string(name))
		}
		if err != nil {
			return nil, err
		}
		m.Set(k, v)
	}
	d.groups++
	return m, nil
}

func (d *decoder) groupKey(g storageGroup, path, name string) (Key, error) {
	attrs, err := decodeGroupAttrs(g.Attrs())
	if err != nil {
		return Key{}, pathErrf(d.file, path, err, "cannot read group attributes")
	}
	tag, _ := attrs.text(attrKeyType)
	k, err := keyFromTag(name, tag)
	if err != nil {
		return Key{}, pathErrf(d.file, path, err, "cannot restore key")
	}
	return k, nil
}

// decodeDataset restores the key and value of a dataset record. In lazy mode
// only the record header is parsed and the value is None.
func (d *decoder) decodeDataset(rec []byte, path, name string) (Key, Value, error) {
	r, err := decodeRecord(rec)
	if err != nil {
		return Key{}, nil, pathErrf(d.file, path, err, "cannot decode dataset")
	}
	tag, _ := r.Meta.Attrs.text(attrKeyType)
	k, err := keyFromTag(name, tag)
	if err != nil {
		return Key{}, nil, pathErrf(d.file, path, err, "cannot restore key")
	}
	v, err := d.decodeLeaf(&r, path)
	if err != nil {
		return Key{}, nil, err
	}
	return k, v, nil
}

func (d *decoder) decodeLeaf(r *record, path string) (Value, error) {
	d.datasets++
	if d.lazy {
		return None{}, nil
	}
	a, err := r.payload()
	if err != nil {
		return nil, pathErrf(d.file, path, err, "cannot read dataset")
	}
	attrs := r.Meta.Attrs

	if a.Rank() == 0 && a.dtype == DTypeString && a.stringAt(0) == noneMarker {
		return None{}, nil
	}
	lengths, jagged := attrs.ints(attrOldShape)
	if !jagged {
		lengths, jagged = attrs.ints(attrCustomShape)
	}
	if jagged {
		j, err := splitVector(a, lengths)
		if err != nil {
			return nil, pathErrf(d.file, path, errors.Mark(err, ErrCorrupted), "cannot restore jagged sequence")
		}
		return j, nil
	}
	if unit, ok := attrs.text(attrUnit); ok {
		q, err := d.quantities.NewQuantity(a, unit)
		if err != nil {
			return nil, pathErrf(d.file, path, err, "cannot restore quantity")
		}
		return q, nil
	}
	if a.Rank() == 0 {
		return scalarValue(a), nil
	}
	return a, nil
}
