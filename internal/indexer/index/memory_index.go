package index

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/huandu/skiplist"
	farmhash "github.com/leemcloughlin/gofarmhash"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
)

// Builder accumulates posting sets during the build phase. Each term maps to
// a skiplist keyed by DocID, so the sets stay ordered and repeated
// occurrences collapse. A Builder is not safe for concurrent writers.
type Builder struct {
	postings map[string]*skiplist.SkipList
	universe *skiplist.SkipList
	added    int
	frozen   *Index
	logger   *slog.Logger
}

func NewBuilder() *Builder {
	return &Builder{
		postings: make(map[string]*skiplist.SkipList),
		universe: skiplist.New(skiplist.String),
		logger:   slog.Default().With("component", "index-builder"),
	}
}

// Add indexes one field of a document. It may be called several times for
// the same docID.
func (b *Builder) Add(docID string, text string) error {
	if b.frozen != nil {
		return fmt.Errorf("adding document %q: %w", docID, apperrors.ErrInvalidPhase)
	}
	b.universe.Set(docID, struct{}{})
	for _, term := range tokenizer.Words(text) {
		set, exists := b.postings[term]
		if !exists {
			set = skiplist.New(skiplist.String)
			b.postings[term] = set
		}
		set.Set(docID, struct{}{})
	}
	b.added++
	return nil
}

// Merge unions other's posting sets and universe into b. Both builders must
// still be in the build phase.
func (b *Builder) Merge(other *Builder) error {
	if b.frozen != nil || other.frozen != nil {
		return fmt.Errorf("merging builders: %w", apperrors.ErrInvalidPhase)
	}
	for elem := other.universe.Front(); elem != nil; elem = elem.Next() {
		b.universe.Set(elem.Key(), struct{}{})
	}
	for term, otherSet := range other.postings {
		set, exists := b.postings[term]
		if !exists {
			set = skiplist.New(skiplist.String)
			b.postings[term] = set
		}
		for elem := otherSet.Front(); elem != nil; elem = elem.Next() {
			set.Set(elem.Key(), struct{}{})
		}
	}
	b.added += other.added
	return nil
}

// Finish freezes the builder into an immutable Index. It can only be called
// once.
func (b *Builder) Finish() (*Index, error) {
	if b.frozen != nil {
		return nil, fmt.Errorf("finishing index: %w", apperrors.ErrInvalidPhase)
	}
	idx := &Index{
		postings: make(map[string]PostingList, len(b.postings)),
		universe: drain(b.universe),
	}
	for term, set := range b.postings {
		idx.postings[term] = drain(set)
	}
	idx.fingerprint = fingerprint(idx)
	b.frozen = idx
	b.postings = nil
	b.universe = nil
	b.logger.Info("index frozen",
		"fields_added", b.added,
		"docs", len(idx.universe),
		"terms", len(idx.postings),
	)
	return idx, nil
}

// Index returns the frozen index, or ErrInvalidPhase if Finish has not been
// called yet.
func (b *Builder) Index() (*Index, error) {
	if b.frozen == nil {
		return nil, fmt.Errorf("reading index before finish: %w", apperrors.ErrInvalidPhase)
	}
	return b.frozen, nil
}

// DocCount returns the number of distinct documents seen so far.
func (b *Builder) DocCount() int {
	if b.frozen != nil {
		return len(b.frozen.universe)
	}
	return b.universe.Len()
}

// Index is the immutable term -> posting list mapping produced by
// Builder.Finish. It is safe for concurrent readers.
type Index struct {
	postings    map[string]PostingList
	universe    PostingList
	fingerprint string
}

// Get returns the posting list for term, or an empty list if the term was
// never indexed. The returned slice must not be modified.
func (idx *Index) Get(term string) PostingList {
	if postings, ok := idx.postings[term]; ok {
		return postings
	}
	return PostingList{}
}

// Universe returns every DocID known to the index, sorted.
func (idx *Index) Universe() PostingList {
	return idx.universe
}

func (idx *Index) TermCount() int {
	return len(idx.postings)
}

func (idx *Index) DocCount() int {
	return len(idx.universe)
}

// Fingerprint identifies the index contents; it is used to scope cache keys.
func (idx *Index) Fingerprint() string {
	return idx.fingerprint
}

func drain(set *skiplist.SkipList) PostingList {
	result := make(PostingList, 0, set.Len())
	for elem := set.Front(); elem != nil; elem = elem.Next() {
		result = append(result, elem.Key().(string))
	}
	return result
}

// fingerprint hashes the universe and every posting list in term order, so
// any change to which documents a term maps to yields a new value.
func fingerprint(idx *Index) string {
	terms := make([]string, 0, len(idx.postings))
	for term := range idx.postings {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	var buf strings.Builder
	buf.WriteString(strings.Join(idx.universe, "\x00"))
	for _, term := range terms {
		buf.WriteString("\x01")
		buf.WriteString(term)
		buf.WriteString("\x02")
		buf.WriteString(strings.Join(idx.postings[term], "\x00"))
	}
	h := farmhash.Hash64([]byte(buf.String()))
	return fmt.Sprintf("%016x-%d-%d", h, len(idx.universe), len(idx.postings))
}
