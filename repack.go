package nestfile

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"go.etcd.io/bbolt"
)

// repackTxMaxSize bounds the amount of data copied per transaction.
const repackTxMaxSize = 64 << 20

type RepackStats struct {
	SizeBefore int64
	SizeAfter  int64
	Elapsed    time.Duration
}

func (s RepackStats) Saved() int64 {
	return s.SizeBefore - s.SizeAfter
}

// Repack rewrites the file compactly, reclaiming the space freed by deleted
// and replaced datasets. The file is copied into a temporary file next to it,
// which then replaces the original.
func Repack(path string, opt Options) (RepackStats, error) {
	start := time.Now()
	st := RepackStats{SizeBefore: fileSize(path)}

	bopt := *bbolt.DefaultOptions
	bopt.Timeout = opt.openTimeout()
	bopt.ReadOnly = true
	if _, err := os.Stat(path); err != nil {
		return st, &PathError{File: path, Msg: "unable to open file", Err: errors.Mark(err, ErrOpen)}
	}
	src, err := bbolt.Open(path, 0666, &bopt)
	if err != nil {
		return st, &PathError{File: path, Msg: "unable to open file", Err: errors.Mark(err, ErrOpen)}
	}
	defer src.Close()

	tmp := path + ".repack"
	os.Remove(tmp)
	dopt := *bbolt.DefaultOptions
	dopt.Timeout = opt.openTimeout()
	dopt.NoSync = true
	dst, err := bbolt.Open(tmp, 0666, &dopt)
	if err != nil {
		return st, &PathError{File: tmp, Msg: "unable to create file", Err: errors.Mark(err, ErrOpen)}
	}
	err = bbolt.Compact(dst, src, repackTxMaxSize)
	if err == nil {
		err = dst.Sync()
	}
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return st, &PathError{File: path, Msg: "repack", Err: err}
	}
	if err := src.Close(); err != nil {
		os.Remove(tmp)
		return st, &PathError{File: path, Msg: "closing", Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return st, &PathError{File: path, Msg: "repack", Err: err}
	}

	st.SizeAfter = fileSize(path)
	st.Elapsed = time.Since(start)
	opt.logger().Debug("nestfile: repacked", "file", path, "before", st.SizeBefore, "after", st.SizeAfter, "elapsed", st.Elapsed)
	return st, nil
}
