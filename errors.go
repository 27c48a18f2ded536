package nestfile

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	// ErrOpen means the file could not be opened or created.
	ErrOpen = errors.New("unable to open file")
	// ErrNotFound means a sub-path does not exist in the file.
	ErrNotFound = errors.New("unable to access key")
	// ErrDuplicate means a dataset already exists and overwriting is off.
	ErrDuplicate = errors.New("dataset already exists")
	// ErrNotGroup means a path runs through a dataset where a group is needed.
	ErrNotGroup = errors.New("not a group")
	// ErrUnsupportedFormat means a value cannot be stored, e.g. a ragged
	// sequence of rank greater than 2.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrQuantitiesUnavailable means a quantity was loaded with NoQuantities.
	ErrQuantitiesUnavailable = errors.New("quantity support unavailable")
	// ErrInvalidArgument means the call itself is malformed.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnknownKeyType means a node carries a _key_type that is not recognized.
	ErrUnknownKeyType = errors.New("unknown key type")
	// ErrInvalidKey means a key cannot be stored as a node name or parsed back.
	ErrInvalidKey = errors.New("invalid key")
	// ErrUnsupportedCompression means an unknown compression was requested or found.
	ErrUnsupportedCompression = errors.New("unsupported compression")
	// ErrCorrupted means a stored record failed to decode.
	ErrCorrupted = errors.New("corrupted record")
)

// PathError describes a failure at a particular node of a file.
type PathError struct {
	File string
	Path string
	Msg  string
	Err  error
}

func pathErrf(file, path string, err error, format string, args ...any) error {
	return &PathError{file, path, fmt.Sprintf(format, args...), err}
}

func (e *PathError) Unwrap() error {
	return e.Err
}

func (e *PathError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.File)
	if p := strings.Trim(e.Path, "/"); p != "" {
		buf.WriteByte('/')
		buf.WriteString(p)
	}
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

// DataError reports an undecodable record along with an excerpt of its bytes.
type DataError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func dataErrf(data []byte, off int, err error, format string, args ...any) error {
	return &DataError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// Is makes every DataError match ErrCorrupted.
func (e *DataError) Is(target error) bool {
	return target == ErrCorrupted
}

func (e *DataError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		if e.Err != nil {
			return fmt.Sprintf("%s at %d: %v: (%d) %x", e.Msg, e.Off, e.Err, n, e.Data)
		} else {
			return fmt.Sprintf("%s at %d: (%d) %x", e.Msg, e.Off, n, e.Data)
		}
	} else {
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		if e.Err != nil {
			return fmt.Sprintf("%s at %d: %v: (%d) %x...%x", e.Msg, e.Off, e.Err, n, p, s)
		} else {
			return fmt.Sprintf("%s at %d: (%d) %x...%x", e.Msg, e.Off, n, p, s)
		}
	}
}
