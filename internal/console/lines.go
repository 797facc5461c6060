package console

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"
)

// ErrClosed is returned once the input stream has ended.
var ErrClosed = errors.New("console input closed")

// LineSource reads an input stream line by line on its own goroutine. It is
// the only reader of stdin; console mode and prompts both consume from it.
type LineSource struct {
	lines chan string
	done  chan struct{}
	once  sync.Once
	err   error
}

// NewLineSource starts reading r.
func NewLineSource(r io.Reader) *LineSource {
	ls := &LineSource{
		lines: make(chan string, 16),
		done:  make(chan struct{}),
	}
	go ls.read(r)
	return ls
}

func (ls *LineSource) read(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		select {
		case ls.lines <- trimCR(sc.Text()):
		case <-ls.done:
			return
		}
	}
	ls.err = sc.Err()
	close(ls.lines)
}

// Lines exposes the raw channel for select loops. It is closed at EOF.
func (ls *LineSource) Lines() <-chan string { return ls.lines }

// Next blocks for the next line.
func (ls *LineSource) Next(ctx context.Context) (string, error) {
	select {
	case line, ok := <-ls.lines:
		if !ok {
			if ls.err != nil {
				return "", ls.err
			}
			return "", ErrClosed
		}
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Drain discards lines typed before a prompt was shown.
func (ls *LineSource) Drain() {
	for {
		select {
		case _, ok := <-ls.lines:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// Close stops the reader goroutine at its next line.
func (ls *LineSource) Close() {
	ls.once.Do(func() { close(ls.done) })
}

func trimCR(s string) string {
	if n := len(s); n > 0 && s[n-1] == '\r' {
		return s[:n-1]
	}
	return s
}
