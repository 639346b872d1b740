package source

import (
	"bufio"
	"io"
)

// ResultWriter writes "<query id> <doc id>" lines, one per retrieved
// document, in the order they are given.
type ResultWriter struct {
	w *bufio.Writer
}

func NewResultWriter(w io.Writer) *ResultWriter {
	return &ResultWriter{w: bufio.NewWriter(w)}
}

func (rw *ResultWriter) Write(queryID string, docIDs []string) error {
	for _, id := range docIDs {
		if _, err := rw.w.WriteString(queryID + " " + id + "\n"); err != nil {
			return err
		}
	}
	return nil
}

func (rw *ResultWriter) Flush() error {
	return rw.w.Flush()
}
