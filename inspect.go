package nestfile

import (
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
)

// EntryInfo describes one node without reading its payload.
type EntryInfo struct {
	Name    string
	Key     Key
	KeyType string // the _key_type tag, empty for text keys
	IsGroup bool

	// Groups only.
	Children int

	// Datasets only.
	DType       DType
	Shape       []int
	Filter      Filter
	StoredSize  int
	RawSize     int
	Unit        string
	JaggedParts int
	IsNone      bool
}

// Kind returns a short description: group, none, jagged, quantity, scalar
// or array.
func (e *EntryInfo) Kind() string {
	switch {
	case e.IsGroup:
		return "group"
	case e.IsNone:
		return "none"
	case e.JaggedParts > 0:
		return "jagged"
	case e.Unit != "":
		return "quantity"
	case len(e.Shape) == 0:
		return "scalar"
	default:
		return "array"
	}
}

// List describes the children of the group at subPath, or the dataset at
// subPath itself.
func List(path, subPath string, opt Options) ([]EntryInfo, error) {
	segs, err := splitPath(subPath)
	if err != nil {
		return nil, err
	}
	s, err := openBoltStorage(path, true, opt.openTimeout())
	if err != nil {
		return nil, &PathError{File: path, Msg: "unable to open file", Err: errors.Mark(err, ErrOpen)}
	}
	defer s.Close()
	return listIn(s, segs)
}

func listIn(s storage, segs []string) ([]EntryInfo, error) {
	file := s.Path()
	tx, err := s.BeginTx(false)
	if err != nil {
		return nil, &PathError{File: file, Msg: "unable to open file", Err: errors.Mark(err, ErrOpen)}
	}
	defer tx.Rollback()

	n, err := resolve(tx, file, segs)
	if err != nil {
		return nil, err
	}
	path := strings.Join(segs, "/")
	switch {
	case n.rec != nil:
		info, err := datasetInfo(segs[len(segs)-1], n.rec)
		if err != nil {
			return nil, pathErrf(file, path, err, "cannot decode dataset")
		}
		return []EntryInfo{info}, nil
	case n.group == nil:
		return nil, nil
	}

	var result []EntryInfo
	c := n.group.Cursor()
	for name, rec := c.First(); name != nil; name, rec = c.Next() {
		var info EntryInfo
		if rec == nil {
			info, err = groupInfo(string(name), n.group.Group(name))
		} else {
			info, err = datasetInfo(string(name), rec)
		}
		if err != nil {
			return nil, pathErrf(file, path+"/"+string(name), err, "cannot describe")
		}
		result = append(result, info)
	}
	return result, nil
}

func groupInfo(name string, g storageGroup) (EntryInfo, error) {
	info := EntryInfo{Name: name, IsGroup: true}
	attrs, err := decodeGroupAttrs(g.Attrs())
	if err != nil {
		return info, err
	}
	info.KeyType, _ = attrs.text(attrKeyType)
	info.Key, err = keyFromTag(name, info.KeyType)
	if err != nil {
		return info, err
	}
	c := g.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		info.Children++
	}
	return info, nil
}

func datasetInfo(name string, rec []byte) (EntryInfo, error) {
	info := EntryInfo{Name: name, StoredSize: len(rec)}
	r, err := decodeRecord(rec)
	if err != nil {
		return info, err
	}
	m := &r.Meta
	info.KeyType, _ = m.Attrs.text(attrKeyType)
	info.Key, err = keyFromTag(name, info.KeyType)
	if err != nil {
		return info, err
	}
	info.DType = m.DType
	info.Shape = slices.Clone(m.Shape)
	if info.Shape == nil {
		info.Shape = []int{}
	}
	info.Filter = r.Flags.filter()
	info.RawSize = m.RawSize
	info.Unit, _ = m.Attrs.text(attrUnit)
	if lengths, ok := m.Attrs.ints(attrOldShape); ok {
		info.JaggedParts = len(lengths)
	} else if lengths, ok := m.Attrs.ints(attrCustomShape); ok {
		info.JaggedParts = len(lengths)
	}
	// the none marker is tiny and never compressed, so checking it is cheap
	if m.DType == DTypeString && len(m.Shape) == 0 && m.RawSize == len(noneMarker) && r.Flags.filter() == FilterNone {
		info.IsNone = string(r.Data) == noneMarker
	}
	return info, nil
}

// Stats summarizes a whole file.
type Stats struct {
	FileSize  int64
	Groups    int
	Datasets  int
	Nones     int
	RawBytes  int64 // uncompressed payload bytes
	DataBytes int64 // stored record bytes
	InUse     int64 // page bytes holding data
	Alloc     int64 // page bytes allocated, including free space within pages
}

// CompressionRatio is the raw payload size over the stored record size.
func (s Stats) CompressionRatio() float64 {
	if s.DataBytes == 0 {
		return 0
	}
	return float64(s.RawBytes) / float64(s.DataBytes)
}

// Stat walks the whole file reading dataset headers only.
func Stat(path string, opt Options) (Stats, error) {
	s, err := openBoltStorage(path, true, opt.openTimeout())
	if err != nil {
		return Stats{}, &PathError{File: path, Msg: "unable to open file", Err: errors.Mark(err, ErrOpen)}
	}
	defer s.Close()
	st, err := statIn(s)
	st.FileSize = fileSize(path)
	return st, err
}

func statIn(s storage) (Stats, error) {
	var st Stats
	file := s.Path()
	tx, err := s.BeginTx(false)
	if err != nil {
		return st, &PathError{File: file, Msg: "unable to open file", Err: errors.Mark(err, ErrOpen)}
	}
	defer tx.Rollback()

	root, err := tx.Root()
	if err != nil || root == nil {
		return st, err
	}
	bs := root.Stats()
	st.InUse = bs.LeafInuse
	st.Alloc = bs.TotalAlloc()
	err = walkStats(root, file, "", &st)
	return st, err
}

func walkStats(g storageGroup, file, path string, st *Stats) error {
	c := g.Cursor()
	for name, rec := c.First(); name != nil; name, rec = c.Next() {
		childPath := path + "/" + string(name)
		if rec == nil {
			st.Groups++
			if err := walkStats(g.Group(name), file, childPath, st); err != nil {
				return err
			}
			continue
		}
		info, err := datasetInfo(string(name), rec)
		if err != nil {
			return pathErrf(file, childPath, err, "cannot decode dataset")
		}
		st.Datasets++
		if info.IsNone {
			st.Nones++
		}
		st.RawBytes += int64(info.RawSize)
		st.DataBytes += int64(info.StoredSize)
	}
	return nil
}
