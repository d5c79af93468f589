package enrich

import "strings"

// AreSimilar reports whether two titles describe the same story. Titles are
// normalized (lowercased, diacritics folded, punctuation stripped) and match
// when one contains the other or their word sets overlap strongly. Symmetric:
// AreSimilar(a, b) == AreSimilar(b, a).
func AreSimilar(a, b string) bool {
	if a == "" || b == "" {
		return false
	}

	na, nb := normalizeTitle(a), normalizeTitle(b)
	if na == "" || nb == "" {
		return false
	}

	return strings.Contains(na, nb) ||
		strings.Contains(nb, na) ||
		jaccard(na, nb) > 0.7
}

var titleNormalizer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u",
	"ü", "u", "ñ", "n",
	",", "", ".", "", ":", "", ";", "",
	"\"", "", "'", "", "¿", "", "?", "", "¡", "", "!", "",
	"(", "", ")", "",
)

func normalizeTitle(s string) string {
	return strings.TrimSpace(titleNormalizer.Replace(strings.ToLower(s)))
}

// jaccard computes intersection-over-union of the whitespace-split word sets.
func jaccard(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}
