package native

import (
	"fmt"
	"io"
)

// LineWriter receives the lines printed by java/io/PrintStream.
type LineWriter interface {
	WriteLine(line string) error
}

// WriterSink adapts an io.Writer, terminating each line with "\n".
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) WriteLine(line string) error {
	_, err := fmt.Fprintln(s.W, line)
	return err
}

// LineRecorder collects lines in memory.
type LineRecorder struct {
	Lines []string
}

func (r *LineRecorder) WriteLine(line string) error {
	r.Lines = append(r.Lines, line)
	return nil
}
