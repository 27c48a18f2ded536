package nestfile

import (
	"bytes"
	"strconv"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Filter is a compression algorithm applied to dataset payloads.
type Filter uint8

const (
	FilterNone   Filter = 0
	FilterGzip   Filter = 1
	FilterZstd   Filter = 2
	FilterSnappy Filter = 3

	maxFilter = FilterSnappy
)

func (f Filter) String() string {
	switch f {
	case FilterNone:
		return "none"
	case FilterGzip:
		return "gzip"
	case FilterZstd:
		return "zstd"
	case FilterSnappy:
		return "snappy"
	default:
		return "filter(" + strconv.Itoa(int(f)) + ")"
	}
}

// Compression selects the filter for array payloads. Scalars and None are
// never compressed. The zero value means no compression.
type Compression struct {
	Filter Filter
	Level  int
}

const defaultGzipLevel = 4

var (
	NoCompression = Compression{}
	Snappy        = Compression{Filter: FilterSnappy}
)

// Gzip compresses with deflate at the given level (0-9).
func Gzip(level int) Compression {
	return Compression{Filter: FilterGzip, Level: level}
}

// Zstd compresses with zstd; level follows the zstd command line (1-22),
// 0 picks the library default.
func Zstd(level int) Compression {
	return Compression{Filter: FilterZstd, Level: level}
}

// ParseCompression accepts "", "none", "gzip", "zstd", "snappy", "lzf" (an
// alias for snappy, the closest fast filter) and a bare gzip level "0".."9".
// A level can follow a colon: "gzip:9", "zstd:19".
func ParseCompression(s string) (Compression, error) {
	name, levelStr, hasLevel := strings.Cut(strings.ToLower(strings.TrimSpace(s)), ":")
	if n, err := strconv.Atoi(name); err == nil && !hasLevel {
		if n < 0 || n > 9 {
			return Compression{}, errors.Wrapf(ErrUnsupportedCompression, "gzip level %d out of range 0-9", n)
		}
		return Gzip(n), nil
	}
	level := 0
	if hasLevel {
		var err error
		level, err = strconv.Atoi(levelStr)
		if err != nil {
			return Compression{}, errors.Wrapf(ErrUnsupportedCompression, "bad level in %q", s)
		}
	}
	switch name {
	case "", "none":
		return NoCompression, nil
	case "gzip":
		if !hasLevel {
			level = defaultGzipLevel
		}
		if level < 0 || level > 9 {
			return Compression{}, errors.Wrapf(ErrUnsupportedCompression, "gzip level %d out of range 0-9", level)
		}
		return Gzip(level), nil
	case "zstd":
		return Zstd(level), nil
	case "snappy", "lzf":
		return Snappy, nil
	default:
		return Compression{}, errors.Wrapf(ErrUnsupportedCompression, "%q", s)
	}
}

func (c Compression) String() string {
	switch c.Filter {
	case FilterGzip, FilterZstd:
		return c.Filter.String() + ":" + strconv.Itoa(c.Level)
	default:
		return c.Filter.String()
	}
}

func (c Compression) compress(src []byte) ([]byte, error) {
	switch c.Filter {
	case FilterNone:
		return src, nil
	case FilterGzip:
		var buf bytes.Buffer
		w, err := gzip.NewWriterLevel(&buf, c.Level)
		if err != nil {
			return nil, errors.Mark(err, ErrUnsupportedCompression)
		}
		if _, err := w.Write(src); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FilterZstd:
		enc, err := zstdEncoder(c.Level)
		if err != nil {
			return nil, err
		}
		return enc.EncodeAll(src, make([]byte, 0, len(src)/2)), nil
	case FilterSnappy:
		return snappy.Encode(nil, src), nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedCompression, "%v", c.Filter)
	}
}

func decompress(f Filter, src []byte, rawSize int) ([]byte, error) {
	switch f {
	case FilterNone:
		return src, nil
	case FilterGzip:
		r, err := gzip.NewReader(bytes.NewReader(src))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		out := bytes.NewBuffer(make([]byte, 0, rawSize))
		if _, err := out.ReadFrom(r); err != nil {
			return nil, err
		}
		return out.Bytes(), nil
	case FilterZstd:
		dec, err := zstdDecoder()
		if err != nil {
			return nil, err
		}
		return dec.DecodeAll(src, make([]byte, 0, rawSize))
	case FilterSnappy:
		return snappy.Decode(nil, src)
	default:
		return nil, errors.Wrapf(ErrUnsupportedCompression, "%v", f)
	}
}

var zstdEncoders sync.Map // level -> *zstd.Encoder

func zstdEncoder(level int) (*zstd.Encoder, error) {
	if v, ok := zstdEncoders.Load(level); ok {
		return v.(*zstd.Encoder), nil
	}
	speed := zstd.SpeedDefault
	if level > 0 {
		speed = zstd.EncoderLevelFromZstd(level)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(speed))
	if err != nil {
		return nil, err
	}
	actual, _ := zstdEncoders.LoadOrStore(level, enc)
	return actual.(*zstd.Encoder), nil
}

var zstdDecoder = sync.OnceValues(func() (*zstd.Decoder, error) {
	return zstd.NewReader(nil)
})
