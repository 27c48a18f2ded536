package nestfile

import (
	"log/slog"

	"github.com/cockroachdb/errors"
)

// encoder materializes mappings as groups and datasets of one open file.
type encoder struct {
	file      string
	overwrite bool
	comp      Compression
	logger    *slog.Logger

	groups   int
	datasets int
	replaced int
}

// encodeMapping writes every entry of m into g. path is the slash-separated
// location of g, used in error messages.
func (e *encoder) encodeMapping(g storageGroup, path string, m *Mapping) error {
	for k, v := range m.All() {
		childPath := path + "/" + k.String()
		if err := k.validate(); err != nil {
			return pathErrf(e.file, path, err, "cannot store key %s", k.String())
		}
		name := []byte(k.String())

		if sub, ok := v.(*Mapping); ok {
			child, err := g.CreateGroup(name)
			if errors.Is(err, errEntryKind) {
				return pathErrf(e.file, childPath, ErrNotGroup, "a dataset is in the way")
			} else if err != nil {
				return pathErrf(e.file, childPath, err, "cannot create group")
			}
			e.groups++
			if err := e.encodeMapping(child, childPath, sub); err != nil {
				return err
			}
			if err := e.tagGroup(child, childPath, k); err != nil {
				return err
			}
			continue
		}

		if hasChild(g, name) {
			if !e.overwrite {
				return pathErrf(e.file, childPath, ErrDuplicate, "")
			}
			if err := g.Delete(name); err != nil {
				return pathErrf(e.file, childPath, err, "cannot delete the old dataset")
			}
			e.replaced++
			e.logger.Debug("nestfile: replacing dataset", "file", e.file, "path", childPath)
		}
		rec, err := e.encodeLeaf(k, v)
		if err != nil {
			return pathErrf(e.file, childPath, err, "cannot encode %v", kindOf(v))
		}
		if err := g.Put(name, rec); err != nil {
			return pathErrf(e.file, childPath, err, "cannot create dataset")
		}
		e.datasets++
	}
	return nil
}

// tagGroup records the key type of a group. A text key drops a stale tag left
// by an earlier save under the same name.
func (e *encoder) tagGroup(g storageGroup, path string, k Key) error {
	attrs, err := decodeGroupAttrs(g.Attrs())
	if err != nil {
		return pathErrf(e.file, path, err, "cannot read group attributes")
	}
	tag, tagged := keyTypeTag(k)
	old, hadTag := attrs.text(attrKeyType)
	switch {
	case tagged && old == tag:
		return nil
	case tagged:
		attrs.setText(attrKeyType, tag)
	case hadTag:
		delete(attrs, attrKeyType)
	default:
		return nil
	}
	if err := g.SetAttrs(encodeGroupAttrs(attrs)); err != nil {
		return pathErrf(e.file, path, err, "cannot write group attributes")
	}
	return nil
}

// encodeLeaf builds the dataset record of a leaf value under key k.
func (e *encoder) encodeLeaf(k Key, v Value) ([]byte, error) {
	var attrs attrSet
	if tag, ok := keyTypeTag(k); ok {
		attrs.setText(attrKeyType, tag)
	}

	var a Array
	comp := e.comp
	switch v := v.(type) {
	case nil, None:
		a, comp = stringArray([]string{noneMarker}, []int{}), NoCompression
	case Array:
		if !v.IsValid() {
			return nil, errors.Wrap(ErrInvalidArgument, "zero Array value")
		}
		a = v
	case Jagged:
		flat, lengths, err := concatVectors(v)
		if err != nil {
			return nil, err
		}
		a = flat
		attrs.setInts(attrOldShape, lengths)
	case Quantity:
		if !v.Magnitude.IsValid() {
			return nil, errors.Wrap(ErrInvalidArgument, "quantity without a magnitude")
		}
		a = v.Magnitude
		attrs.setText(attrUnit, v.Unit)
	default:
		sa, ok := scalarArray(v)
		if !ok {
			panic(errors.AssertionFailedf("unhandled value %T", v))
		}
		a, comp = sa, NoCompression
	}
	if a.Rank() == 0 {
		comp = NoCompression
	}
	return encodeRecord(a, attrs, comp)
}

func kindOf(v Value) Kind {
	if v == nil {
		return KindNone
	}
	return v.Kind()
}
