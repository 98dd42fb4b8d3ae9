package backend

import (
	"bufio"
	"errors"
	"io"
)

// lineReader only yields whole newline-terminated lines. A trailing partial
// line is held back, and io.EOF reported, until the rest of it is written.
// This lets a csv.Reader follow a file that is still being appended to
// without ever parsing half a record.
type lineReader struct {
	r       *bufio.Reader
	pending []byte
}

var _ io.Reader = (*lineReader)(nil)

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{
		r: bufio.NewReader(r),
	}
}

func (l *lineReader) Read(b []byte) (int, error) {
	if len(l.pending) == 0 || l.pending[len(l.pending)-1] != '\n' {
		data, err := l.r.ReadBytes('\n')
		l.pending = append(l.pending, data...)
		if errors.Is(err, io.EOF) {
			return 0, io.EOF
		} else if err != nil {
			return 0, err
		}
	}
	n := copy(b, l.pending)
	l.pending = l.pending[:copy(l.pending, l.pending[n:])]
	return n, nil
}
