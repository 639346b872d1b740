package source

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Judgment is one line of a qrels file.
type Judgment struct {
	QueryID  string
	DocID    string
	Relevant bool
}

// ReadQrels parses whitespace-separated "qid iteration docid flag" lines.
// A flag of "1" marks the document relevant; any other value does not.
func ReadQrels(r io.Reader) ([]Judgment, error) {
	var out []Judgment
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 4 {
			return nil, fmt.Errorf("qrels line %d: expected 4 fields, got %d", lineNo, len(fields))
		}
		out = append(out, Judgment{
			QueryID:  fields[0],
			DocID:    fields[2],
			Relevant: fields[3] == "1",
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading qrels: %w", err)
	}
	return out, nil
}
