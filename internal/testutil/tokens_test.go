package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedTokenGenerator_ListedThenCounted(t *testing.T) {
	gen := NewFixedTokenGenerator("d", "first", "second")

	assert.Equal(t, "first", gen.Generate())
	assert.Equal(t, "second", gen.Generate())
	assert.Equal(t, "d-3", gen.Generate())
	assert.Equal(t, "d-4", gen.Generate())
}

func TestFixedTokenGenerator_DefaultPrefix(t *testing.T) {
	gen := NewFixedTokenGenerator("")

	assert.Equal(t, "tok-1", gen.Generate())
}

func TestFixedTokenGenerator_ThreadSafe(t *testing.T) {
	gen := NewFixedTokenGenerator("t")

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				token := gen.Generate()
				mu.Lock()
				seen[token] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 1000, "every token is unique")
}
