package nestfile

import (
	"os"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
)

func TestDataError_ErrorAndUnwrap(t *testing.T) {
	t.Run("small data", func(t *testing.T) {
		inner := errors.New("inner")
		err := dataErrf([]byte{0xAA, 0xBB}, 1, inner, "oops")
		var de *DataError
		if !errors.As(err, &de) {
			t.Fatalf("err = %T, wanted *DataError", err)
		}
		if !errors.Is(err, inner) {
			t.Fatalf("errors.Is(err, inner) = false, wanted true")
		}
		if !errors.Is(err, ErrCorrupted) {
			t.Fatalf("errors.Is(err, ErrCorrupted) = false, wanted true")
		}
		s := err.Error()
		if !strings.Contains(s, "oops") || !strings.Contains(s, "inner") || !strings.Contains(s, "(2)") {
			t.Fatalf("err.Error() = %q, wanted message with oops/inner/(2)", s)
		}
	})

	t.Run("large data includes prefix+suffix", func(t *testing.T) {
		data := make([]byte, 200)
		for i := range data {
			data[i] = byte(i)
		}
		err := dataErrf(data, 0, nil, "oops")
		s := err.Error()
		if !strings.Contains(s, "(200)") || !strings.Contains(s, "...") {
			t.Fatalf("err.Error() = %q, wanted message with (200) and ...", s)
		}
	})
}

func TestPathError_ErrorAndUnwrap(t *testing.T) {
	err := pathErrf("x.h5", "/a/b", ErrDuplicate, "")
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("errors.Is(err, ErrDuplicate) = false, wanted true")
	}
	if s := err.Error(); s != "x.h5/a/b: dataset already exists" {
		t.Fatalf("err.Error() = %q", s)
	}

	s := (&PathError{File: "x.h5", Path: "/", Msg: "closing", Err: errors.New("boom")}).Error()
	if s != "x.h5: closing: boom" {
		t.Fatalf("err.Error() = %q, wanted file, message and cause", s)
	}
}

func TestMarkedCauseSurvives(t *testing.T) {
	_, statErr := os.Stat("/nonexistent/nestfile")
	err := &PathError{File: "f", Msg: "unable to open file", Err: errors.Mark(statErr, ErrOpen)}
	if !errors.Is(err, ErrOpen) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, wanted both ErrOpen and os.ErrNotExist", err)
	}
}
