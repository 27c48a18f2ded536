package nestfile

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

const defaultOpenTimeout = 10 * time.Second

// Options are shared by every operation that opens a file.
type Options struct {
	// Logger receives debug records; nil means slog.Default().
	Logger *slog.Logger

	// Quantities rebuilds datasets that carry a unit. nil means Quantities.
	Quantities QuantityFactory

	// OpenTimeout bounds the wait for the file lock held by another process.
	// Zero means 10 seconds.
	OpenTimeout time.Duration
}

func (o *Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *Options) quantities() QuantityFactory {
	if o.Quantities != nil {
		return o.Quantities
	}
	return Quantities
}

func (o *Options) openTimeout() time.Duration {
	if o.OpenTimeout > 0 {
		return o.OpenTimeout
	}
	return defaultOpenTimeout
}

// WriteMode says what Save does with an existing file.
type WriteMode uint8

const (
	// Append keeps the existing content and adds to it.
	Append WriteMode = iota
	// Truncate discards the existing content. A file that is not a
	// container at all is replaced.
	Truncate
)

func (m WriteMode) String() string {
	switch m {
	case Append:
		return "append"
	case Truncate:
		return "write"
	default:
		return "WriteMode(" + strconv.Itoa(int(m)) + ")"
	}
}

// ParseWriteMode accepts "a"/"append" and "w"/"write"/"truncate".
func ParseWriteMode(s string) (WriteMode, error) {
	switch strings.ToLower(s) {
	case "", "a", "append":
		return Append, nil
	case "w", "write", "truncate":
		return Truncate, nil
	default:
		return 0, errors.Wrapf(ErrInvalidArgument, "unknown write mode %q", s)
	}
}

type SaveOptions struct {
	Mode WriteMode

	// Overwrite replaces datasets that already exist instead of failing
	// with ErrDuplicate.
	Overwrite bool

	// Path is the slash-separated group to store the mapping under. Missing
	// groups are created.
	Path string

	// Label is the older name of Path. Setting both is an error.
	Label string

	// Compression applies to array payloads; scalars are never compressed.
	Compression Compression

	// Repack compacts the file after a successful save.
	Repack bool

	// PartialWrites commits whatever was written before a failure instead
	// of discarding the whole save.
	PartialWrites bool

	Options
}

func (o *SaveOptions) insertionPoint() ([]string, error) {
	if o.Path != "" && o.Label != "" {
		return nil, errors.Wrapf(ErrInvalidArgument, "both Path %q and Label %q given", o.Path, o.Label)
	}
	if o.Label != "" {
		return splitPath(o.Label)
	}
	return splitPath(o.Path)
}

type LoadOptions struct {
	// Path is the slash-separated node to load, empty for the root.
	Path string

	// Lazy loads the structure only, every leaf comes back as None.
	Lazy bool

	Options
}

// Save stores m into the file at path, creating the file if needed.
func Save(path string, m *Mapping, opt SaveOptions) (err error) {
	segs, err := opt.insertionPoint()
	if err != nil {
		return err
	}
	start := time.Now()
	var s storage
	if opt.Mode == Truncate {
		s, err = replaceBoltStorage(path, opt.openTimeout(), opt.logger())
	} else {
		s, err = openBoltStorage(path, false, opt.openTimeout())
	}
	if err != nil {
		return &PathError{File: path, Msg: "unable to create file", Err: errors.Mark(err, ErrOpen)}
	}
	defer func() {
		if s == nil {
			return
		}
		if cerr := s.Close(); cerr != nil && err == nil {
			err = &PathError{File: path, Msg: "closing", Err: cerr}
		}
	}()

	enc, err := saveTo(s, m, segs, &opt)
	if err != nil {
		return err
	}
	opt.logger().Debug("nestfile: saved", "file", path, "path", strings.Join(segs, "/"), "mode", opt.Mode, "groups", enc.groups, "datasets", enc.datasets, "replaced", enc.replaced, "elapsed", time.Since(start))

	if opt.Repack {
		err, s = s.Close(), nil
		if err != nil {
			return &PathError{File: path, Msg: "closing", Err: err}
		}
		if _, err := Repack(path, opt.Options); err != nil {
			return err
		}
	}
	return nil
}

func saveTo(s storage, m *Mapping, segs []string, opt *SaveOptions) (*encoder, error) {
	file := s.Path()
	tx, err := s.BeginTx(true)
	if err != nil {
		return nil, &PathError{File: file, Msg: "unable to create file", Err: errors.Mark(err, ErrOpen)}
	}
	defer tx.Rollback()

	if opt.Mode == Truncate {
		if err := tx.Reset(); err != nil {
			return nil, &PathError{File: file, Msg: "cannot truncate", Err: err}
		}
	}
	root, err := tx.Root()
	if err != nil {
		return nil, &PathError{File: file, Msg: "cannot create root group", Err: err}
	}

	base, path := root, ""
	for _, seg := range segs {
		path += "/" + seg
		base, err = base.CreateGroup([]byte(seg))
		if errors.Is(err, errEntryKind) {
			return nil, pathErrf(file, path, ErrNotGroup, "a dataset is in the way")
		} else if err != nil {
			return nil, pathErrf(file, path, err, "cannot create group")
		}
	}

	enc := &encoder{
		file:      file,
		overwrite: opt.Overwrite,
		comp:      opt.Compression,
		logger:    opt.logger(),
	}
	err = enc.encodeMapping(base, path, m)
	if err != nil {
		if opt.PartialWrites {
			if cerr := tx.Commit(); cerr != nil {
				return nil, errors.CombineErrors(err, cerr)
			}
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, &PathError{File: file, Msg: "commit", Err: err}
	}
	return enc, nil
}

// Load reads the value stored at opt.Path: a *Mapping for a group, the leaf
// value for a dataset.
func Load(path string, opt LoadOptions) (Value, error) {
	s, err := openBoltStorage(path, true, opt.openTimeout())
	if err != nil {
		return nil, &PathError{File: path, Msg: "unable to open file", Err: errors.Mark(err, ErrOpen)}
	}
	defer s.Close()

	start := time.Now()
	v, dec, err := loadFrom(s, &opt)
	if err != nil {
		return nil, err
	}
	opt.logger().Debug("nestfile: loaded", "file", path, "path", opt.Path, "lazy", opt.Lazy, "groups", dec.groups, "datasets", dec.datasets, "elapsed", time.Since(start))
	return v, nil
}

// LoadMapping is Load for callers that expect a group.
func LoadMapping(path string, opt LoadOptions) (*Mapping, error) {
	v, err := Load(path, opt)
	if err != nil {
		return nil, err
	}
	m, ok := v.(*Mapping)
	if !ok {
		return nil, pathErrf(path, opt.Path, ErrNotGroup, "holds a %v", v.Kind())
	}
	return m, nil
}

func loadFrom(s storage, opt *LoadOptions) (Value, *decoder, error) {
	file := s.Path()
	segs, err := splitPath(opt.Path)
	if err != nil {
		return nil, nil, err
	}
	tx, err := s.BeginTx(false)
	if err != nil {
		return nil, nil, &PathError{File: file, Msg: "unable to open file", Err: errors.Mark(err, ErrOpen)}
	}
	defer tx.Rollback()

	dec := &decoder{
		file:       file,
		lazy:       opt.Lazy,
		quantities: opt.quantities(),
	}
	n, err := resolve(tx, file, segs)
	if err != nil {
		return nil, nil, err
	}
	path := "/" + strings.Join(segs, "/")
	switch {
	case n.group != nil:
		m, err := dec.decodeGroup(n.group, strings.TrimSuffix(path, "/"))
		if err != nil {
			return nil, nil, err
		}
		return m, dec, nil
	case n.rec != nil:
		r, err := decodeRecord(n.rec)
		if err != nil {
			return nil, nil, pathErrf(file, path, err, "cannot decode dataset")
		}
		v, err := dec.decodeLeaf(&r, path)
		if err != nil {
			return nil, nil, err
		}
		return v, dec, nil
	default:
		// a file that never saw a save holds an empty root
		return NewMapping(), dec, nil
	}
}

// Exists reports whether a node exists at subPath. Any failure, including a
// missing or unreadable file, counts as absence.
func Exists(path, subPath string) bool {
	segs, err := splitPath(subPath)
	if err != nil {
		return false
	}
	s, err := openBoltStorage(path, true, defaultOpenTimeout)
	if err != nil {
		return false
	}
	defer s.Close()
	return existsIn(s, segs)
}

func existsIn(s storage, segs []string) bool {
	tx, err := s.BeginTx(false)
	if err != nil {
		return false
	}
	defer tx.Rollback()
	_, err = resolve(tx, s.Path(), segs)
	return err == nil
}

// node is a resolved location: a group, or a dataset record. Both are nil
// for the root of a file without one.
type node struct {
	group storageGroup
	rec   []byte
}

func resolve(tx storageTx, file string, segs []string) (node, error) {
	root, err := tx.Root()
	if err != nil {
		return node{}, &PathError{File: file, Msg: "cannot open root group", Err: err}
	}
	if root == nil {
		if len(segs) == 0 {
			return node{}, nil
		}
		return node{}, pathErrf(file, strings.Join(segs, "/"), ErrNotFound, "")
	}
	cur := root
	for i, seg := range segs {
		name := []byte(seg)
		if child := cur.Group(name); child != nil {
			cur = child
			continue
		}
		if i == len(segs)-1 {
			if rec := cur.Get(name); rec != nil {
				return node{rec: rec}, nil
			}
		}
		return node{}, pathErrf(file, strings.Join(segs[:i+1], "/"), ErrNotFound, "")
	}
	return node{group: cur}, nil
}

// splitPath splits a slash-separated sub-path, ignoring empty segments, so
// "/a//b/" is the same as "a/b".
func splitPath(p string) ([]string, error) {
	var segs []string
	for _, seg := range strings.Split(p, "/") {
		if seg == "" {
			continue
		}
		if seg == "." || strings.IndexByte(seg, 0) >= 0 {
			return nil, errors.Wrapf(ErrInvalidArgument, "invalid path segment %q in %q", seg, p)
		}
		segs = append(segs, seg)
	}
	return segs, nil
}
