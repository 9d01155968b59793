// Package services contains domain business logic.
package services

import "strings"

// Similarity returns a normalized lexical similarity in [0,1] between a
// mention text and a candidate name. It blends three signals and takes the
// best: whole-string edit-distance ratio, token overlap, and the
// prefix/nickname ratio between the closest pair of tokens ("Caro" against
// "Caroline" scores 0.5).
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	best := editRatio(a, b)
	if overlap := tokenOverlap(a, b); overlap > best {
		best = overlap
	}
	if token := bestTokenSimilarity(a, b); token > best {
		best = token
	}
	return best
}

// editRatio is 1 - levenshtein(a, b) / max(len(a), len(b)).
func editRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

// tokenOverlap is the Jaccard index over whitespace-separated tokens.
func tokenOverlap(a, b string) float64 {
	tokensA := strings.Fields(a)
	tokensB := strings.Fields(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	setA := make(map[string]bool, len(tokensA))
	for _, t := range tokensA {
		setA[t] = true
	}
	setB := make(map[string]bool, len(tokensB))
	for _, t := range tokensB {
		setB[t] = true
	}

	shared := 0
	for t := range setA {
		if setB[t] {
			shared++
		}
	}
	union := len(setA) + len(setB) - shared
	return float64(shared) / float64(union)
}

// bestTokenSimilarity aligns tokens between the two names. A single-token
// mention scores as its best counterpart ("Caro" against "Caroline Cadario"
// scores against "Caroline"). When both names are multi-token, the per-token
// best scores are averaged, so a shared surname alone cannot carry the pair
// ("Jean Cadario" is not "Caroline Cadario").
func bestTokenSimilarity(a, b string) float64 {
	tokensA := strings.Fields(a)
	tokensB := strings.Fields(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	if len(tokensA) > 1 && len(tokensB) > 1 {
		sum := 0.0
		for _, ta := range tokensA {
			sum += bestAgainst(ta, tokensB)
		}
		return sum / float64(len(tokensA))
	}

	best := 0.0
	for _, ta := range tokensA {
		if score := bestAgainst(ta, tokensB); score > best {
			best = score
		}
	}
	return best
}

// bestAgainst scores one token against a token list. A token that is a
// prefix of its counterpart scores by length ratio, which is how nicknames
// usually relate to full first names.
func bestAgainst(token string, others []string) float64 {
	best := 0.0
	for _, other := range others {
		score := editRatio(token, other)
		if prefix := prefixRatio(token, other); prefix > score {
			score = prefix
		}
		if score > best {
			best = score
		}
	}
	return best
}

// prefixRatio scores a pair where one token is a prefix of the other.
// Requires at least 3 shared characters to avoid matching on initials.
func prefixRatio(a, b string) float64 {
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) < 3 || !strings.HasPrefix(longer, shorter) {
		return 0
	}
	return float64(len(shorter)) / float64(len(longer))
}

// levenshtein computes the edit distance between two rune slices.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
