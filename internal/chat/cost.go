package chat

import "strings"

const (
	wordsPerBlock = 50
	coinsPerBlock = 5
)

// WordCount splits content on single spaces. Consecutive, leading and
// trailing spaces yield empty tokens, and those are counted too, so the
// empty string counts as one word.
func WordCount(content string) int {
	return len(strings.Split(content, " "))
}

// CostForWords charges coinsPerBlock for every started block of
// wordsPerBlock words.
func CostForWords(words int) int {
	if words <= 0 {
		return 0
	}
	return (words + wordsPerBlock - 1) / wordsPerBlock * coinsPerBlock
}

// Cost returns the coin price of sending content.
func Cost(content string) int {
	return CostForWords(WordCount(content))
}
