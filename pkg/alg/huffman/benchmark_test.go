package huffman

import (
	"strings"
	"testing"
)

func BenchmarkCompress(b *testing.B) {
	data := []byte(strings.Repeat("caption: sunset over the bay #travel #photo ", 200))

	b.ReportAllocs()
	b.ResetTimer()

	for range b.N {
		_, _, _, _ = Compress(data)
	}
}
