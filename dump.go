package nestfile

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
)

type DumpFlags uint64

const (
	DumpAttrs = DumpFlags(1 << iota)
	DumpValues
	DumpStats

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)

	indentStep = "  "
)

var dumpSep = strings.Repeat("=", 80)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump writes an indented listing of the whole file to w.
func Dump(w io.Writer, path string, f DumpFlags, opt Options) error {
	s, err := openBoltStorage(path, true, opt.openTimeout())
	if err != nil {
		return &PathError{File: path, Msg: "unable to open file", Err: errors.Mark(err, ErrOpen)}
	}
	defer s.Close()
	return dumpStorage(w, s, f, &opt)
}

func dumpStorage(w io.Writer, s storage, f DumpFlags, opt *Options) error {
	file := s.Path()
	tx, err := s.BeginTx(false)
	if err != nil {
		return &PathError{File: file, Msg: "unable to open file", Err: errors.Mark(err, ErrOpen)}
	}
	defer tx.Rollback()

	fmt.Fprintln(w, dumpSep)
	fmt.Fprintf(w, "%s\n", file)
	root, err := tx.Root()
	if err != nil {
		return err
	}
	if root == nil {
		fmt.Fprintln(w, "(empty)")
		return nil
	}
	if f.Contains(DumpStats) {
		bs := root.Stats()
		fmt.Fprintf(w, "stats: keys = %d, groups = %d, in_use = %d, alloc = %d, tx_size = %d\n", bs.KeyN, bs.BucketN, bs.LeafInuse, bs.TotalAlloc(), tx.Size())
	}
	fmt.Fprintln(w, dumpSep)
	d := &decoder{file: file, quantities: opt.quantities()}
	dumpGroup(w, "", f, root, d, "")
	return nil
}

// dumpGroup never fails: broken records are printed as errors in place.
func dumpGroup(w io.Writer, indent string, f DumpFlags, g storageGroup, d *decoder, path string) {
	c := g.Cursor()
	for name, rec := c.First(); name != nil; name, rec = c.Next() {
		childPath := path + "/" + string(name)
		if rec == nil {
			child := g.Group(name)
			info, err := groupInfo(string(name), child)
			if err != nil {
				fmt.Fprintf(w, "%s%s/ ** ERROR: %v\n", indent, name, err)
				continue
			}
			fmt.Fprintf(w, "%s%s/%s (%d)\n", indent, name, keyTypeSuffix(info.KeyType), info.Children)
			dumpGroup(w, indent+indentStep, f, child, d, childPath)
			continue
		}
		dumpDataset(w, indent, f, string(name), rec, d, childPath)
	}
}

func dumpDataset(w io.Writer, indent string, f DumpFlags, name string, rec []byte, d *decoder, path string) {
	info, err := datasetInfo(name, rec)
	if err != nil {
		fmt.Fprintf(w, "%s%s ** ERROR: %v\n", indent, name, err)
		return
	}
	fmt.Fprintf(w, "%s%s%s = %s %s %v", indent, name, keyTypeSuffix(info.KeyType), info.Kind(), info.DType, info.Shape)
	if info.Filter != FilterNone {
		fmt.Fprintf(w, " %v %d/%d", info.Filter, info.StoredSize, info.RawSize)
	}
	fmt.Fprintln(w)

	if f.Contains(DumpAttrs) {
		r, _ := decodeRecord(rec)
		names := make([]string, 0, len(r.Meta.Attrs))
		for n := range r.Meta.Attrs {
			names = append(names, n)
		}
		slices.Sort(names)
		for _, n := range names {
			a := r.Meta.Attrs[n]
			switch a.Kind {
			case attrText:
				fmt.Fprintf(w, "%s%s@%s = %q\n", indent, indentStep, n, a.Text)
			default:
				fmt.Fprintf(w, "%s%s@%s = %v\n", indent, indentStep, n, a.Ints)
			}
		}
	}
	if f.Contains(DumpValues) {
		r, _ := decodeRecord(rec)
		v, err := d.decodeLeaf(&r, path)
		if err != nil {
			fmt.Fprintf(w, "%s%s** ERROR: %v\n", indent, indentStep, err)
			return
		}
		fmt.Fprintf(w, "%s%s%s\n", indent, indentStep, formatValue(v))
	}
}

func keyTypeSuffix(tag string) string {
	if tag == "" {
		return ""
	}
	return " <" + tag + ">"
}

// formatValue renders a leaf on one line.
func formatValue(v Value) string {
	switch v := v.(type) {
	case nil, None:
		return "None"
	case String:
		return quoteLiteral(string(v))
	case Bool:
		if v {
			return "True"
		}
		return "False"
	case Jagged:
		parts := make([]string, len(v))
		for i, a := range v {
			parts[i] = a.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Quantity:
		return v.Magnitude.String() + " " + v.Unit
	default:
		return fmt.Sprint(v)
	}
}
