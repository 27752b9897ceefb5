package guidance

import (
	"math/rand"
	"testing"
)

func BenchmarkCacheKey(b *testing.B) {
	paths := make([]string, 1000)
	charset := "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789/_-."
	for i := range paths {
		buf := make([]byte, rand.Intn(100)+20)
		for j := range buf {
			buf[j] = charset[rand.Intn(len(charset))]
		}
		paths[i] = string(buf)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cacheKey(paths[i%len(paths)])
	}
}

func BenchmarkCacheKey_RealWorldPaths(b *testing.B) {
	paths := []string{
		"src/main/java/org/example/shop/OrderService.java",
		"guidance/treesitter_extractor.go",
		"web/src/components/Button.tsx",
		"docs/architecture/overview.md",
		"deploy/helm/values.yaml",
	}

	for i := 0; i < b.N; i++ {
		_ = cacheKey(paths[i%len(paths)])
	}
}
