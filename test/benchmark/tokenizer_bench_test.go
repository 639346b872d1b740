// Package benchmark measures tokenizer, index build and query throughput.
package benchmark

import (
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/indexer/tokenizer"
)

var sampleTexts = map[string]string{
	"short": "The quick brown fox jumps over the lazy dog",
	"medium": `Praha je hlavní a největší město České republiky. Leží na řece Vltavě
        a je politickým, kulturním a hospodářským centrem státu. Historické centrum
        je zapsáno na seznamu světového dědictví UNESCO.`,
	"long": strings.Repeat(`Storm warnings were issued along the coast on Tuesday as
        forecasters predicted heavy rain and winds of up to 80 mph. Residents were
        advised to stay indoors while emergency crews cleared debris from highways. `, 20),
}

func BenchmarkTokenize(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = tokenizer.Tokenize(text)
			}
		})
	}
}

func BenchmarkWords(b *testing.B) {
	text := sampleTexts["long"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		_ = tokenizer.Words(text)
	}
}
