package display

import (
	"errors"
	"io"
	"os"

	"github.com/gosuri/uilive"
	"golang.org/x/term"
)

var ErrUnsupportedTerminal = errors.New("terminal does not support cursor movement (TERM=dumb)")

// Surface is where rendered frames end up
type Surface interface {
	Draw(frame []byte) error
	// LogWriter returns a writer that does not corrupt drawn frames
	LogWriter() io.Writer
	Interactive() bool
	Release() error
}

// NewSurface redraws in place when out is a terminal and appends frames
// otherwise.
func NewSurface(out *os.File) (Surface, error) {
	return newSurface(out, term.IsTerminal(int(out.Fd())), os.Getenv("TERM"), os.Stderr)
}

func newSurface(out io.Writer, isTerminal bool, termName string, logOut io.Writer) (Surface, error) {
	if !isTerminal {
		return &appendSurface{out: out, logOut: logOut}, nil
	}
	if termName == "dumb" {
		return nil, ErrUnsupportedTerminal
	}

	writer := uilive.New()
	writer.Out = out
	return &liveSurface{writer: writer}, nil
}

type liveSurface struct {
	writer *uilive.Writer
}

func (s *liveSurface) Draw(frame []byte) error {
	if _, err := s.writer.Write(frame); err != nil {
		return err
	}
	return s.writer.Flush()
}

func (s *liveSurface) LogWriter() io.Writer {
	return s.writer.Bypass()
}

func (s *liveSurface) Interactive() bool {
	return true
}

// Release leaves the last frame on screen
func (s *liveSurface) Release() error {
	return s.writer.Flush()
}

type appendSurface struct {
	out    io.Writer
	logOut io.Writer
}

func (s *appendSurface) Draw(frame []byte) error {
	if _, err := s.out.Write(frame); err != nil {
		return err
	}
	_, err := io.WriteString(s.out, "\n")
	return err
}

func (s *appendSurface) LogWriter() io.Writer {
	return s.logOut
}

func (s *appendSurface) Interactive() bool {
	return false
}

func (s *appendSurface) Release() error {
	return nil
}
