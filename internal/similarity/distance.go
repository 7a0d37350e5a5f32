package similarity

// LevenshteinDistance returns the number of single-rune insertions,
// deletions, or substitutions needed to turn s1 into s2.
func LevenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	// Keep the shorter string as the row.
	if len(r1) < len(r2) {
		r1, r2 = r2, r1
	}

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}

// LevenshteinSimilarity normalizes LevenshteinDistance to 0.0-1.0.
func LevenshteinSimilarity(s1, s2 string) float64 {
	longest := max(len([]rune(s1)), len([]rune(s2)))
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(LevenshteinDistance(s1, s2))/float64(longest)
}

// JaroSimilarity returns the Jaro similarity of s1 and s2 in 0.0-1.0.
func JaroSimilarity(s1, s2 string) float64 {
	r1 := []rune(s1)
	r2 := []rune(s2)
	switch {
	case len(r1) == 0 && len(r2) == 0:
		return 1.0
	case len(r1) == 0 || len(r2) == 0:
		return 0.0
	}

	window := max(0, max(len(r1), len(r2))/2-1)
	matched1 := make([]bool, len(r1))
	matched2 := make([]bool, len(r2))

	matches := 0
	for i := range r1 {
		lo := max(0, i-window)
		hi := min(len(r2), i+window+1)
		for j := lo; j < hi; j++ {
			if matched2[j] || r1[i] != r2[j] {
				continue
			}
			matched1[i], matched2[j] = true, true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0.0
	}

	transpositions := 0
	k := 0
	for i := range r1 {
		if !matched1[i] {
			continue
		}
		for !matched2[k] {
			k++
		}
		if r1[i] != r2[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	return (m/float64(len(r1)) + m/float64(len(r2)) + (m-float64(transpositions/2))/m) / 3.0
}

// JaroWinkler boosts JaroSimilarity for strings sharing a prefix of up to
// four runes, which suits slugs typed from their first letters.
func JaroWinkler(s1, s2 string) float64 {
	const scaling = 0.1

	jaro := JaroSimilarity(s1, s2)
	r1 := []rune(s1)
	r2 := []rune(s2)

	prefix := 0
	for i := range min(4, len(r1), len(r2)) {
		if r1[i] != r2[i] {
			break
		}
		prefix++
	}
	return jaro + float64(prefix)*scaling*(1.0-jaro)
}
