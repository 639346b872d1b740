package parser

import (
	"errors"
	"reflect"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
)

func TestParsePostfix(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"cat", "cat"},
		{"  cat  ", "cat"},
		{"cat AND dog", "cat dog AND"},
		{"cat OR dog", "cat dog OR"},
		{"NOT cat", "cat NOT"},
		{"cat AND NOT dog", "cat dog NOT AND"},
		{"a OR b AND c", "a b c AND OR"},
		{"a AND b OR c", "a b AND c OR"},
		{"(a OR b) AND c", "a b OR c AND"},
		{"a AND b AND c", "a b AND c AND"},
		{"a OR b OR c", "a b OR c OR"},
		{"NOT a AND b", "a NOT b AND"},
		{"NOT (a AND b)", "a b AND NOT"},
		{"NOT NOT a", "a"},
		{"NOT NOT NOT a", "a NOT"},
		{"a AND NOT NOT b", "a b AND"},
		{"NOT (NOT a)", "a NOT NOT"},
		{"((a))", "a"},
		{"(a OR b) AND NOT (c OR d)", "a b OR c d OR NOT AND"},
		{"pes,kočka", ""},
		{"ANDROID AND ORACLE", "ANDROID ORACLE AND"},
		{"and AND or", "and or AND"},
		{"Praha AND (volby OR NOT vláda)", "Praha volby vláda NOT OR AND"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			prog, err := Parse(tt.query)
			if tt.want == "" {
				if err == nil {
					t.Fatalf("Parse(%q) = %q, want error", tt.query, prog.String())
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.query, err)
			}
			if got := prog.String(); got != tt.want {
				t.Errorf("Parse(%q) = %q, want %q", tt.query, got, tt.want)
			}
			if prog.Raw != tt.query {
				t.Errorf("Raw = %q, want %q", prog.Raw, tt.query)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		query string
		pos   int
	}{
		{"", 0},
		{"   ", 3},
		{"AND", 0},
		{"cat AND", 7},
		{"cat OR OR dog", 7},
		{"cat dog", 4},
		{"cat NOT dog", 4},
		{"(cat", 0},
		{"cat)", 3},
		{"()", 1},
		{"cat (dog)", 4},
		{"NOT", 3},
		{"(cat AND dog))", 13},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			_, err := Parse(tt.query)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tt.query)
			}
			if !errors.Is(err, apperrors.ErrParse) {
				t.Errorf("error %v does not wrap ErrParse", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error %T is not *ParseError", err)
			}
			if pe.Pos != tt.pos {
				t.Errorf("Pos = %d, want %d (%v)", pe.Pos, tt.pos, err)
			}
		})
	}
}

func TestProgramTerms(t *testing.T) {
	prog, err := Parse("cat AND (dog OR cat) AND NOT bird")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := prog.Terms(), []string{"cat", "dog", "bird"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Terms() = %v, want %v", got, want)
	}
}

func TestParseIsIndexIndependent(t *testing.T) {
	a, err := Parse("x AND y")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse("x   AND\ty")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Instructions, b.Instructions) {
		t.Errorf("equivalent queries produced different programs: %v vs %v", a.Instructions, b.Instructions)
	}
}
