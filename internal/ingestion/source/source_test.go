package source

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const czFile = `<?xml version="1.0" encoding="UTF-8"?>
<ROOT>
<DOC>
<DOCID>LN-001</DOCID>
<DOCNO>skip me</DOCNO>
<TITLE>Praha a Brno</TITLE>
<TEXT>Vlak jede &amp; jede</TEXT>
</DOC>
<DOC>
<DOCID> LN-002 </DOCID>
<HEADING>Sport</HEADING>
<TEXT>fotbal <B>hokej</B> 3 < 5</TEXT>
</DOC>
</ROOT>
`

func collect(t *testing.T, src DocumentSource) []Document {
	t.Helper()
	var docs []Document
	err := src.Documents(context.Background(), func(d Document) error {
		docs = append(docs, d)
		return nil
	})
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	return docs
}

func TestXMLDirSource(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.xml"), []byte(czFile), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("<DOC><DOCID>x</DOCID></DOC>"), 0o644); err != nil {
		t.Fatal(err)
	}

	docs := collect(t, NewXMLDirSource(dir, []string{"TITLE", "HEADING", "TEXT"}))
	if len(docs) != 2 {
		t.Fatalf("got %d docs, want 2: %+v", len(docs), docs)
	}
	if docs[0].ID != "LN-001" || docs[1].ID != "LN-002" {
		t.Errorf("ids = %q, %q", docs[0].ID, docs[1].ID)
	}
	for _, want := range []string{"Praha", "Vlak jede & jede"} {
		if !strings.Contains(docs[0].Text, want) {
			t.Errorf("doc 1 text %q lacks %q", docs[0].Text, want)
		}
	}
	if strings.Contains(docs[0].Text, "skip") {
		t.Errorf("non-indexed field leaked into text: %q", docs[0].Text)
	}
	for _, want := range []string{"Sport", "hokej", "3 < 5"} {
		if !strings.Contains(docs[1].Text, want) {
			t.Errorf("doc 2 text %q lacks %q", docs[1].Text, want)
		}
	}
}

func TestXMLDirSourceHTMLEntities(t *testing.T) {
	dir := t.TempDir()
	data := "<ROOT><DOC><DOCID>E1</DOCID><TE>price &euro;5 &copy; x\x0ey</TE></DOC></ROOT>"
	if err := os.WriteFile(filepath.Join(dir, "en.xml"), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	docs := collect(t, NewXMLDirSource(dir, []string{"HD", "LD", "TE"}))
	if len(docs) != 1 || !strings.Contains(docs[0].Text, "€5") {
		t.Errorf("docs = %+v", docs)
	}
}

func TestXMLDirSourceEmptyDir(t *testing.T) {
	err := NewXMLDirSource(t.TempDir(), nil).Documents(context.Background(), func(Document) error { return nil })
	if err == nil {
		t.Error("expected error for a directory without xml files")
	}
}

func TestReadDocumentsStopsOnCallbackError(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	err := ReadDocuments(context.Background(), strings.NewReader(czFile), []string{"TEXT"}, func(Document) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("err = %v after %d calls", err, calls)
	}
}

func TestReadTopics(t *testing.T) {
	in := `<topics>
<top><num>401</num><query>cat AND dog</query></top>
<top>
  <num> 402 </num>
  <title>ignored</title>
  <query> NOT (bird OR fish) </query>
</top>
</topics>`
	got, err := ReadTopics(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	want := []Query{{ID: "401", Query: "cat AND dog"}, {ID: "402", Query: "NOT (bird OR fish)"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadTopics = %+v, want %+v", got, want)
	}
}

func TestReadTopicsMissingNum(t *testing.T) {
	if _, err := ReadTopics(strings.NewReader("<topics><top><query>x</query></top></topics>")); err == nil {
		t.Error("expected error for topic without num")
	}
}

func TestReadQrels(t *testing.T) {
	in := "q1 0 d1 1\nq1 0 d2 0\n\nq2 0 d9 0\n"
	got, err := ReadQrels(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	want := []Judgment{
		{QueryID: "q1", DocID: "d1", Relevant: true},
		{QueryID: "q1", DocID: "d2", Relevant: false},
		{QueryID: "q2", DocID: "d9", Relevant: false},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadQrels = %+v, want %+v", got, want)
	}
}

func TestReadQrelsShortLine(t *testing.T) {
	if _, err := ReadQrels(strings.NewReader("q1 0 d1\n")); err == nil {
		t.Error("expected error for a three-field line")
	}
}

func TestResultWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewResultWriter(&buf)
	if err := w.Write("q1", []string{"3", "5"}); err != nil {
		t.Fatal(err)
	}
	if err := w.Write("q2", nil); err != nil {
		t.Fatal(err)
	}
	if err := w.Write("q3", []string{"1"}); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "q1 3\nq1 5\nq3 1\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestSliceSourceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := SliceSource{{ID: "1", Text: "x"}}.Documents(ctx, func(Document) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
