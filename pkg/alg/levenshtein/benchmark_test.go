package levenshtein

import (
	"strings"
	"testing"
)

func BenchmarkDistance_Short(b *testing.B) {
	var ctx Context

	b.ReportAllocs()

	for range b.N {
		_ = ctx.Distance("instagram_user_01", "instagram.user.10")
	}
}

func BenchmarkDistance_Long(b *testing.B) {
	var ctx Context

	s1 := strings.Repeat("travel photography ", 10)
	s2 := strings.Repeat("travel photographer ", 10)

	b.ReportAllocs()
	b.ResetTimer()

	for range b.N {
		_ = ctx.Distance(s1, s2)
	}
}
