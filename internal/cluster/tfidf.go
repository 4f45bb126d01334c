package cluster

import (
	"math"
	"strings"
	"unicode"
)

// tokenize lowercases a title and splits it into alphanumeric runs of at
// least two runes.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// vectorize builds L2-normalized tf-idf vectors for a set of titles,
// with smoothed inverse document frequency.
func vectorize(titles []string) []map[string]float64 {
	docs := make([][]string, len(titles))
	df := make(map[string]int)
	for i, t := range titles {
		docs[i] = tokenize(t)
		seen := make(map[string]bool)
		for _, tok := range docs[i] {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}

	n := float64(len(titles))
	idf := make(map[string]float64, len(df))
	for tok, count := range df {
		idf[tok] = math.Log((1+n)/(1+float64(count))) + 1
	}

	vectors := make([]map[string]float64, len(titles))
	for i, toks := range docs {
		v := make(map[string]float64)
		for _, tok := range toks {
			v[tok] += idf[tok]
		}
		normalize(v)
		vectors[i] = v
	}
	return vectors
}

func normalize(v map[string]float64) {
	var sum float64
	for _, w := range v {
		sum += w * w
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for tok, w := range v {
		v[tok] = w / norm
	}
}

// cosine computes the cosine similarity of two normalized vectors.
func cosine(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for tok, w := range a {
		dot += w * b[tok]
	}
	return dot
}
