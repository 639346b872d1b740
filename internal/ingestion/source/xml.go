package source

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// XMLDirSource reads every *.xml file in Dir. Each <DOC> element yields one
// Document whose text is the concatenation of its Fields elements.
type XMLDirSource struct {
	Dir    string
	Fields []string
	logger *slog.Logger
}

func NewXMLDirSource(dir string, fields []string) *XMLDirSource {
	return &XMLDirSource{
		Dir:    dir,
		Fields: fields,
		logger: slog.Default().With("component", "xml-source"),
	}
}

func (s *XMLDirSource) Documents(ctx context.Context, fn func(Document) error) error {
	files, err := filepath.Glob(filepath.Join(s.Dir, "*.xml"))
	if err != nil {
		return fmt.Errorf("listing %s: %w", s.Dir, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no xml files in %s", s.Dir)
	}
	sort.Strings(files)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		n, err := s.decode(ctx, bytes.NewReader(repairMarkup(data)), fn)
		var syntaxErr *xml.SyntaxError
		if errors.As(err, &syntaxErr) {
			s.logger.Warn("stopped at malformed markup", "file", path, "docs", n, "line", syntaxErr.Line, "error", syntaxErr.Msg)
			continue
		}
		if err != nil {
			return fmt.Errorf("decoding %s: %w", path, err)
		}
		s.logger.Debug("file read", "file", path, "docs", n)
	}
	return nil
}

// ReadDocuments streams the <DOC> elements of a single reader to fn.
func ReadDocuments(ctx context.Context, r io.Reader, fields []string, fn func(Document) error) error {
	s := &XMLDirSource{Fields: fields}
	_, err := s.decode(ctx, r, fn)
	return err
}

func (s *XMLDirSource) decode(ctx context.Context, r io.Reader, fn func(Document) error) (int, error) {
	wanted := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		wanted[f] = true
	}
	dec := newLenientDecoder(r)

	var (
		count    int
		inDoc    bool
		docID    strings.Builder
		text     strings.Builder
		inID     int
		inFields int
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return count, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == "DOC":
				inDoc = true
				docID.Reset()
				text.Reset()
				inID, inFields = 0, 0
			case !inDoc:
			case t.Name.Local == "DOCID":
				inID++
			case wanted[t.Name.Local]:
				inFields++
			}
		case xml.EndElement:
			switch {
			case t.Name.Local == "DOC" && inDoc:
				inDoc = false
				id := strings.TrimSpace(docID.String())
				if id == "" {
					continue
				}
				if err := ctx.Err(); err != nil {
					return count, err
				}
				if err := fn(Document{ID: id, Text: text.String()}); err != nil {
					return count, err
				}
				count++
			case !inDoc:
			case t.Name.Local == "DOCID" && inID > 0:
				inID--
			case wanted[t.Name.Local] && inFields > 0:
				inFields--
				text.WriteByte('\n')
			}
		case xml.CharData:
			if !inDoc {
				continue
			}
			if inID > 0 {
				docID.Write(t)
			}
			if inFields > 0 {
				text.Write(t)
			}
		}
	}
}

func newLenientDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		switch strings.ToLower(charset) {
		case "utf-8", "utf8", "us-ascii", "ascii":
			return input, nil
		}
		return nil, fmt.Errorf("unsupported charset %q", charset)
	}
	return dec
}

var (
	strayLessThan = regexp.MustCompile(`<([^A-Za-z/?!])`)
	controlChars  = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f]")
)

// repairMarkup escapes '<' that cannot open a tag and blanks control
// characters the XML decoder rejects even in non-strict mode.
func repairMarkup(data []byte) []byte {
	data = controlChars.ReplaceAll(data, []byte(" "))
	return strayLessThan.ReplaceAll(data, []byte("&lt;$1"))
}
