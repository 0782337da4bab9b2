package game

import (
	"math/rand"
	"unicode"
)

// Levenshtein computes the case-insensitive edit distance between a and b
// with the usual dynamic program, keeping only two rows.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			if unicode.ToLower(ra[i-1]) == unicode.ToLower(rb[j-1]) {
				curr[j] = prev[j-1]
			} else {
				curr[j] = 1 + min(prev[j], curr[j-1], prev[j-1])
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// IsClose reports whether a guess is within edit distance 1 of the word.
func IsClose(a, b string) bool {
	return Levenshtein(a, b) <= 1
}

// WordList is a restartable cyclic sequence of words. Next never runs out;
// it wraps around to the beginning once the list is exhausted.
type WordList struct {
	words []string
	next  int
}

func NewWordList(words []string) *WordList {
	if len(words) == 0 {
		words = DefaultWords
	}
	return &WordList{words: words}
}

// Shuffle permutes the underlying list in place and restarts the cycle.
func (w *WordList) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(w.words), func(i, j int) {
		w.words[i], w.words[j] = w.words[j], w.words[i]
	})
	w.next = 0
}

// Next returns the next word in the cycle, restarting at the end.
func (w *WordList) Next() string {
	word := w.words[w.next]
	w.next = (w.next + 1) % len(w.words)
	return word
}

func (w *WordList) Len() int { return len(w.words) }

// RevealOne picks uniformly at random one index of word that is neither
// whitespace nor already present in revealed. It returns false when no
// such index remains.
func RevealOne(word string, revealed map[int]rune, rng *rand.Rand) (int, rune, bool) {
	var candidates []int
	for idx, ch := range []rune(word) {
		if unicode.IsSpace(ch) {
			continue
		}
		if _, ok := revealed[idx]; ok {
			continue
		}
		candidates = append(candidates, idx)
	}
	if len(candidates) == 0 {
		return 0, 0, false
	}

	idx := candidates[rng.Intn(len(candidates))]
	return idx, []rune(word)[idx], true
}
