package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// CombinedWriter fans each write out to all of its writers, used to log to
// stdout and the rotating log file at once. A failing writer does not stop
// the others; its error is combined into the returned one.
type CombinedWriter struct {
	Writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	return &CombinedWriter{
		Writers: append([]io.Writer(nil), writers...),
	}
}

// Write reports len(p) when at least one writer took the whole of p.
func (cw *CombinedWriter) Write(p []byte) (int, error) {
	var err error
	delivered := false
	for _, w := range cw.Writers {
		written, werr := w.Write(p)
		if werr == nil && written < len(p) {
			werr = io.ErrShortWrite
		}
		if werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		delivered = true
	}
	if !delivered {
		return 0, err
	}
	return len(p), err
}
