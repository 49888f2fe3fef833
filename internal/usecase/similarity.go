package usecase

import (
	"slices"
	"strings"
)

// TokenSetRatio scores two normalized titles in [0,1], ignoring token order and duplicates.
//
// With I the sorted intersection of the token sets and A, B the sorted leftovers:
//   - t0 = I, t1 = I + A, t2 = I + B
//   - score = max(ratio(t0,t1), ratio(t0,t2), ratio(t1,t2))
//
// A shared token with one side fully contained in the other scores 1.
// An empty token set on either side scores 0.
func TokenSetRatio(a, b string) float64 {
	return tokenSetRatio(tokenSet(a), tokenSet(b))
}

func tokenSetRatio(tokensA, tokensB []string) float64 {
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	inB := make(map[string]bool, len(tokensB))
	for _, t := range tokensB {
		inB[t] = true
	}
	inA := make(map[string]bool, len(tokensA))
	for _, t := range tokensA {
		inA[t] = true
	}

	var sect, diffAB, diffBA []string
	for _, t := range tokensA {
		if inB[t] {
			sect = append(sect, t)
		} else {
			diffAB = append(diffAB, t)
		}
	}
	for _, t := range tokensB {
		if !inA[t] {
			diffBA = append(diffBA, t)
		}
	}

	if len(sect) > 0 && (len(diffAB) == 0 || len(diffBA) == 0) {
		return 1
	}

	t0 := strings.Join(sect, " ")
	t1 := joinNonEmpty(t0, strings.Join(diffAB, " "))
	t2 := joinNonEmpty(t0, strings.Join(diffBA, " "))

	best := indelRatio(t1, t2)
	if t0 == "" {
		return best
	}
	return max(best, indelRatio(t0, t1), indelRatio(t0, t2))
}

// tokenSet returns the sorted, de-duplicated whitespace tokens of s
func tokenSet(s string) []string {
	fields := strings.Fields(s)
	slices.Sort(fields)
	return slices.Compact(fields)
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}

// indelRatio is the normalized insertion/deletion similarity 2*LCS/(len(a)+len(b)).
// Two empty strings are identical.
func indelRatio(a, b string) float64 {
	r1 := []rune(a)
	r2 := []rune(b)
	total := len(r1) + len(r2)
	if total == 0 {
		return 1
	}
	return float64(2*longestCommonSubsequence(r1, r2)) / float64(total)
}

// longestCommonSubsequence uses two rows instead of the full matrix
func longestCommonSubsequence(r1, r2 []rune) int {
	if len(r1) == 0 || len(r2) == 0 {
		return 0
	}

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)

	for i := 1; i <= len(r1); i++ {
		curr[0] = 0
		for j := 1; j <= len(r2); j++ {
			if r1[i-1] == r2[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(r2)]
}
