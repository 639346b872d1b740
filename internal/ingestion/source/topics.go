package source

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

type topic struct {
	Num   string `xml:"num"`
	Query string `xml:"query"`
}

// ReadTopics decodes <top><num/><query/></top> elements in document order.
func ReadTopics(r io.Reader) ([]Query, error) {
	dec := newLenientDecoder(r)
	var queries []Query
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading topics: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "top" {
			continue
		}
		var t topic
		if err := dec.DecodeElement(&t, &start); err != nil {
			return nil, fmt.Errorf("decoding topic %d: %w", len(queries)+1, err)
		}
		id := strings.TrimSpace(t.Num)
		if id == "" {
			return nil, fmt.Errorf("topic %d has no <num>", len(queries)+1)
		}
		queries = append(queries, Query{ID: id, Query: strings.TrimSpace(t.Query)})
	}
	return queries, nil
}
