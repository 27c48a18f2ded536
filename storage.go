package nestfile

import "github.com/cockroachdb/errors"

// errEntryKind is returned when a group operation finds a dataset under the
// name, or the other way around.
var errEntryKind = errors.New("entry exists with a different kind")

// storage is the hierarchical container engine backing one file (Bolt,
// in-memory). It knows groups, datasets and attribute blobs, and nothing
// about how values are encoded.
type storage interface {
	// BeginTx starts a new transaction.
	BeginTx(writable bool) (storageTx, error)
	// Path returns the file name, for messages.
	Path() string
	// Close closes the storage.
	Close() error
}

// storageTx represents a storage transaction.
type storageTx interface {
	// Root returns the root group. Writable transactions create it on demand;
	// read-only ones return nil if the file holds no root yet.
	Root() (storageGroup, error)

	// Reset removes the root group with everything below it.
	Reset() error

	// Commit commits the transaction.
	Commit() error

	// Rollback aborts the transaction. It should be safe to call multiple times.
	Rollback() error

	// Size returns the database size in bytes (0 if unknown / not applicable).
	Size() int64
}

// storageGroup is a group node: named children, each either a group or a
// dataset record, plus an attribute blob of the group itself.
type storageGroup interface {
	// Group returns a child group, or nil if there is none under the name.
	Group(name []byte) storageGroup

	// CreateGroup returns the child group, creating it if needed. Fails with
	// errEntryKind when a dataset has the name.
	CreateGroup(name []byte) (storageGroup, error)

	// Get returns a child dataset record, or nil if there is none.
	Get(name []byte) []byte

	// Put stores a dataset record. Fails with errEntryKind when a group has
	// the name.
	Put(name, rec []byte) error

	// Delete removes a child of either kind. Deleting a missing name is a no-op.
	Delete(name []byte) error

	// Cursor iterates over children in name order. Groups come with a nil record.
	Cursor() storageCursor

	// Attrs returns the group's attribute blob, nil if never set.
	Attrs() []byte

	// SetAttrs replaces the group's attribute blob.
	SetAttrs(data []byte) error

	// Stats returns storage-specific statistics of this group and everything below.
	Stats() bucketStats
}

type bucketStats struct {
	KeyN        int
	BucketN     int
	LeafInuse   int64
	LeafAlloc   int64
	BranchAlloc int64
}

func (s bucketStats) TotalAlloc() int64 { return s.BranchAlloc + s.LeafAlloc }

// storageCursor iterates over the children of a group.
type storageCursor interface {
	// First moves to the first child.
	First() (name, rec []byte)

	// Next moves to the next child.
	Next() (name, rec []byte)
}

// hasChild reports whether a group has a child of either kind under name.
func hasChild(g storageGroup, name []byte) bool {
	return g.Get(name) != nil || g.Group(name) != nil
}
