package token_management

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsedTokens_Concurrent(t *testing.T) {
	tm := NewTokenManagerWithWriter(&bytes.Buffer{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.UsedTokens(10, 2, 5)
		}()
	}
	wg.Wait()

	total, input, cached, output := tm.GetCurrentTokenUsage()
	assert.Equal(t, 750, total)
	assert.Equal(t, 500, input)
	assert.Equal(t, 100, cached)
	assert.Equal(t, 250, output)

	tm.ClearToken()
	total, _, _, _ = tm.GetCurrentTokenUsage()
	assert.Zero(t, total)
}

func TestCalculateCost(t *testing.T) {
	tm := NewTokenManagerWithWriter(&bytes.Buffer{})

	// 3.0 per million input, 0.3 per million cached input, 15.0 per million output.
	cost := tm.CalculateCost("anthropic", "claude-sonnet-4-5", 1_000_000, 500_000, 100_000)
	assert.InDelta(t, 1.5+0.15+1.5, cost, 1e-9)

	assert.Zero(t, tm.CalculateCost("ollama", "unknown-model", 1000, 0, 1000))
}

func TestDisplayTokens(t *testing.T) {
	var out bytes.Buffer
	tm := NewTokenManagerWithWriter(&out)
	tm.UsedTokens(100, 0, 20)

	tm.DisplayTokens("anthropic", "claude-sonnet-4-5")
	assert.Contains(t, out.String(), "Token Used: 120")
	assert.Contains(t, out.String(), "claude-sonnet-4-5")
}
