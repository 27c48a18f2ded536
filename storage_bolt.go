package nestfile

import (
	"log/slog"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"go.etcd.io/bbolt"
)

// Every group is a Bolt bucket; the root group is the single top-level bucket.
// Group attributes live under a reserved key that no node name can take.
var (
	boltRootBucket = []byte("nestfile")
	boltAttrsKey   = []byte("\x00attrs")
)

var errEmptyFile = errors.New("file is empty")

type boltStorage struct {
	bdb  *bbolt.DB
	path string
}

func openBoltStorage(path string, readOnly bool, timeout time.Duration) (storage, error) {
	bopt := *bbolt.DefaultOptions
	bopt.Timeout = timeout
	bopt.ReadOnly = readOnly
	if readOnly {
		// Bolt opens with O_CREATE even when read-only; loading must not create files.
		fi, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		// Bolt would try to write the initial pages into a zero-byte file.
		if fi.Size() == 0 {
			return nil, errEmptyFile
		}
	}
	bdb, err := bbolt.Open(path, 0666, &bopt)
	if err != nil {
		return nil, err
	}
	return &boltStorage{bdb: bdb, path: path}, nil
}

// replaceBoltStorage opens path for writing like openBoltStorage, but empties
// an existing regular file that Bolt cannot open, e.g. a file of another
// format. A lock held by another process is never overridden.
func replaceBoltStorage(path string, timeout time.Duration, logger *slog.Logger) (storage, error) {
	s, err := openBoltStorage(path, false, timeout)
	if err == nil || errors.Is(err, bbolt.ErrTimeout) {
		return s, err
	}
	if fi, serr := os.Stat(path); serr != nil || !fi.Mode().IsRegular() {
		return nil, err
	}
	if terr := os.Truncate(path, 0); terr != nil {
		return nil, errors.CombineErrors(err, terr)
	}
	logger.Debug("nestfile: replacing a file that is not a container", "file", path, "err", err)
	return openBoltStorage(path, false, timeout)
}

func (s *boltStorage) BeginTx(writable bool) (storageTx, error) {
	btx, err := s.bdb.Begin(writable)
	if err != nil {
		return nil, err
	}
	return &boltStorageTx{btx: btx}, nil
}

func (s *boltStorage) Path() string { return s.path }

func (s *boltStorage) Close() error {
	return s.bdb.Close()
}

type boltStorageTx struct {
	btx *bbolt.Tx
}

func (tx *boltStorageTx) Root() (storageGroup, error) {
	if !tx.btx.Writable() {
		b := tx.btx.Bucket(boltRootBucket)
		if b == nil {
			return nil, nil
		}
		return boltGroup{b: b}, nil
	}
	b, err := tx.btx.CreateBucketIfNotExists(boltRootBucket)
	if err != nil {
		return nil, err
	}
	return boltGroup{b: b}, nil
}

func (tx *boltStorageTx) Reset() error {
	err := tx.btx.DeleteBucket(boltRootBucket)
	if err == bbolt.ErrBucketNotFound {
		return nil
	}
	return err
}

func (tx *boltStorageTx) Commit() error { return tx.btx.Commit() }

func (tx *boltStorageTx) Rollback() error {
	err := tx.btx.Rollback()
	if err == bbolt.ErrTxClosed {
		return nil
	}
	return err
}

func (tx *boltStorageTx) Size() int64 { return tx.btx.Size() }

type boltGroup struct {
	b *bbolt.Bucket
}

func (g boltGroup) Group(name []byte) storageGroup {
	b := g.b.Bucket(name)
	if b == nil {
		return nil
	}
	return boltGroup{b: b}
}

func (g boltGroup) CreateGroup(name []byte) (storageGroup, error) {
	b, err := g.b.CreateBucketIfNotExists(name)
	if err == bbolt.ErrIncompatibleValue {
		return nil, errEntryKind
	} else if err != nil {
		return nil, err
	}
	return boltGroup{b: b}, nil
}

func (g boltGroup) Get(name []byte) []byte { return g.b.Get(name) }

func (g boltGroup) Put(name, rec []byte) error {
	err := g.b.Put(name, rec)
	if err == bbolt.ErrIncompatibleValue {
		return errEntryKind
	}
	return err
}

func (g boltGroup) Delete(name []byte) error {
	if g.b.Bucket(name) != nil {
		return g.b.DeleteBucket(name)
	}
	return g.b.Delete(name)
}

func (g boltGroup) Cursor() storageCursor { return boltCursor{c: g.b.Cursor()} }

func (g boltGroup) Attrs() []byte { return g.b.Get(boltAttrsKey) }

func (g boltGroup) SetAttrs(data []byte) error {
	return errors.Wrap(g.b.Put(boltAttrsKey, data), "attrs")
}

func (g boltGroup) Stats() bucketStats {
	s := g.b.Stats()
	return bucketStats{
		KeyN:        s.KeyN,
		BucketN:     s.BucketN,
		LeafInuse:   int64(s.LeafInuse),
		LeafAlloc:   int64(s.LeafAlloc),
		BranchAlloc: int64(s.BranchAlloc),
	}
}

// boltCursor hides reserved keys (they all start with NUL).
type boltCursor struct {
	c *bbolt.Cursor
}

func (c boltCursor) First() ([]byte, []byte) { return c.skipReserved(c.c.First()) }

func (c boltCursor) Next() ([]byte, []byte) { return c.skipReserved(c.c.Next()) }

func (c boltCursor) skipReserved(k, v []byte) ([]byte, []byte) {
	for k != nil && isReservedName(k) {
		k, v = c.c.Next()
	}
	return k, v
}

func isReservedName(name []byte) bool {
	return len(name) > 0 && name[0] == 0
}

// fileSize returns the size of a file, 0 if it cannot be read.
func fileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}
