package mimekit

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// peeker is implemented by *bufio.Reader and similar buffered readers
type peeker interface {
	Peek(n int) ([]byte, error)
}

// readPrefix returns up to n leading bytes of r, disturbing the stream as
// little as the reader allows. Peekers are only peeked, seekers are rewound
// to where they started, and anything else is consumed. capped reports that
// a peeker's buffer was smaller than n and more data may follow.
func readPrefix(r io.Reader, n int) (prefix []byte, capped bool, err error) {
	switch v := r.(type) {
	case peeker:
		b, err := v.Peek(n)
		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			capped = true
		case err != nil && !errors.Is(err, io.EOF):
			return nil, false, readError(err)
		}
		out := make([]byte, len(b))
		copy(out, b)
		return out, capped, nil
	case io.ReadSeeker:
		pos, err := v.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, false, readError(err)
		}
		buf, err := consumePrefix(v, n)
		if err != nil {
			return nil, false, err
		}
		if _, err := v.Seek(pos, io.SeekStart); err != nil {
			return nil, false, readError(err)
		}
		return buf, false, nil
	}
	prefix, err = consumePrefix(r, n)
	return prefix, false, err
}

// consumePrefix reads up to n bytes. A short stream is not an error.
func consumePrefix(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	k, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, readError(err)
	}
	return buf[:k], nil
}

func readError(err error) error {
	return &TypeError{Op: "read", Err: fmt.Errorf("%w: %w", ErrIO, err)}
}
