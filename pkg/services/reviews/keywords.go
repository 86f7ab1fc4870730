package reviews

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/bi-tools/insighthub/pkg/models/domain"
)

// Stopwords: a compact English list plus retail-review noise that carries
// no signal.
var stopwords = buildStopwords(
	"a about above after again against all am an and any are as at be because been "+
		"before being below between both but by did do does doing down during each few "+
		"for from further had has have having he her here hers him his how i if in into "+
		"is it its just me more most my no nor not now of off on once only or other our "+
		"out over own same she so some such than that the their them then there these "+
		"they this those through to too under until up very was we were what when where "+
		"which while who whom why with you your yours",
	"product item amazon one buy purchase use get would could will",
)

// KeywordCount pairs a word with its frequency.
type KeywordCount struct {
	Word  string
	Count int
}

// ExtractKeywords tokenizes all review texts and returns the most common
// words. sentiment filters rows by text polarity when not "all"; the
// analyzer is only consulted in that case.
func ExtractKeywords(ds *domain.Dataset, analyzer *Analyzer, sentiment string, maxWords int) ([]KeywordCount, error) {
	if ds == nil || ds.RowCount() == 0 {
		return nil, fmt.Errorf("%w: cannot extract keywords", domain.ErrNoData)
	}
	cells, ok := ds.Column(domain.ColReviewText)
	if !ok {
		return nil, fmt.Errorf("%w: keyword extraction needs %q", domain.ErrSchema, domain.ColReviewText)
	}
	if maxWords <= 0 {
		maxWords = 50
	}

	freq := map[string]int{}
	matched := 0
	for _, text := range cells {
		if text == "" {
			continue
		}
		if sentiment != "" && sentiment != "all" {
			if analyzer == nil || Label(analyzer.Score(text)) != sentiment {
				continue
			}
		}
		matched++
		for _, word := range tokenize(text) {
			freq[word]++
		}
	}
	if sentiment != "" && sentiment != "all" && matched == 0 {
		return nil, fmt.Errorf("%w: no reviews with sentiment %q", domain.ErrNoData, sentiment)
	}

	out := make([]KeywordCount, 0, len(freq))
	for word, n := range freq {
		out = append(out, KeywordCount{Word: word, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if len(out) > maxWords {
		out = out[:maxWords]
	}
	return out, nil
}

// tokenize lowercases, strips punctuation, drops short and stopword tokens.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	var words []string
	for _, w := range fields {
		if len(w) <= 2 {
			continue
		}
		if _, skip := stopwords[w]; skip {
			continue
		}
		words = append(words, w)
	}
	return words
}

func buildStopwords(lists ...string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, list := range lists {
		for _, w := range strings.Fields(list) {
			out[w] = struct{}{}
		}
	}
	return out
}
