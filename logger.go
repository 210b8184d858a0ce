package edgewasm

import (
	"bytes"
	"io"
	"os"
)

// openEndpoint appends a new session-scoped log endpoint for name and returns its
// handle. Unlike a dictionary open, this always succeeds — Endpoints are purely
// session-scoped, with no host-side pre-registration to fail against. If name matches a
// host-configured logger that writer is used; otherwise messages go to the default
// line-prefixed stdout writer.
func (i *Instance) openEndpoint(name string) int32 {
	w, ok := i.loggerConfig[name]
	if !ok {
		w = defaultLogger(name)
	} else {
		w = LineWriter{w}
	}

	i.endpoints = append(i.endpoints, w)
	return int32(len(i.endpoints) - 1)
}

// getEndpoint retrieves a log endpoint's writer by handle, or nil if invalid.
func (i *Instance) getEndpoint(handle int32) io.Writer {
	if handle < 0 || int(handle) >= len(i.endpoints) {
		return nil
	}
	return i.endpoints[handle]
}

// defaultLogger returns a writer that prefixes log messages with the endpoint name and
// writes one line per write to stdout.
func defaultLogger(name string) io.Writer {
	return NewPrefixWriter(name, LineWriter{os.Stdout})
}

// LineWriter wraps an io.Writer to ensure each Write call ends with exactly one newline.
// Internal newlines are escaped so one guest log.write call is one log line.
type LineWriter struct{ io.Writer }

func (lw LineWriter) Write(data []byte) (int, error) {
	originalLen := len(data)

	data = bytes.TrimRight(data, "\n")
	data = bytes.ReplaceAll(data, []byte("\n"), []byte("\\n"))

	if n, err := lw.Writer.Write(data); err != nil {
		return n, err
	}
	if _, err := lw.Writer.Write([]byte("\n")); err != nil {
		return 0, err
	}

	return originalLen, nil
}

// PrefixWriter wraps an io.Writer and prepends "name: " to each write.
type PrefixWriter struct {
	io.Writer
	prefix string
}

func (w *PrefixWriter) Write(data []byte) (n int, err error) {
	msg := make([]byte, 0, len(w.prefix)+2+len(data))
	msg = append(msg, []byte(w.prefix+": ")...)
	msg = append(msg, data...)

	if _, err := w.Writer.Write(msg); err != nil {
		return 0, err
	}
	return len(data), nil
}

// NewPrefixWriter creates a PrefixWriter that prepends prefix to all writes to w.
func NewPrefixWriter(prefix string, w io.Writer) *PrefixWriter {
	return &PrefixWriter{Writer: w, prefix: prefix}
}
