package ioutil

import (
	"errors"
	"io"
	"io/fs"
	"sync"
)

func IsIOClosedErr(err error) bool {
	return errors.Is(err, io.ErrClosedPipe) || errors.Is(err, fs.ErrClosed)
}

type funcWriteCloser struct {
	io.Writer
	closeFunc func() error

	sync.Mutex
	closed bool
}

func (fwc *funcWriteCloser) Close() error {
	fwc.Lock()
	defer fwc.Unlock()
	if fwc.closed {
		return nil
	}
	if err := fwc.closeFunc(); err != nil {
		return err
	}
	fwc.closed = true
	return nil
}

// FuncWriteCloser calls f on the first successful Close.
func FuncWriteCloser(w io.Writer, f func() error) io.WriteCloser {
	return &funcWriteCloser{
		Writer:    w,
		closeFunc: f,
	}
}

func NopWriteCloser(w io.Writer) io.WriteCloser {
	return nopWriteCloser{Writer: w}
}

type nopWriteCloser struct {
	io.Writer
}

func (nwc nopWriteCloser) Close() error {
	return nil
}
