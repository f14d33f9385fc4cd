package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "w"
	}
	return strings.Join(parts, " ")
}

func TestWordCount(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected int
	}{
		{"empty string is one token", "", 1},
		{"single word", "hello", 1},
		{"two words", "hello world", 2},
		{"double space counts an empty token", "hello  world", 3},
		{"leading and trailing spaces", " hello ", 3},
		{"only a space", " ", 2},
		{"tabs and newlines are not separators", "a\tb\nc", 1},
		{"ten words", words(10), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, WordCount(tt.content))
		})
	}
}

func TestCost(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected int
	}{
		{"empty", "", 5},
		{"one word", "hi", 5},
		{"fifty words", words(50), 5},
		{"fifty one words", words(51), 10},
		{"one hundred words", words(100), 10},
		{"one hundred one words", words(101), 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, Cost(tt.content))
		})
	}
}

func TestCostIsCeilOfBlocks(t *testing.T) {
	req := require.New(t)
	for n := 1; n <= 500; n++ {
		cost := CostForWords(n)
		blocks := n / wordsPerBlock
		if n%wordsPerBlock != 0 {
			blocks++
		}
		req.Equal(blocks*coinsPerBlock, cost, "words=%d", n)
		req.Zero(cost%coinsPerBlock, "words=%d", n)
		req.Positive(cost, "words=%d", n)
	}
	req.Zero(CostForWords(0))
}
