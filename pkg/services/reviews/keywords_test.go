package reviews

import (
	"testing"

	"github.com/bi-tools/insighthub/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractKeywords(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{"reviewText"},
		Rows: [][]string{
			{"The battery lasts forever, great battery life"},
			{"Battery died quickly, poor quality"},
			{"Excellent screen quality"},
		},
	}

	keywords, err := ExtractKeywords(ds, nil, "all", 5)
	require.NoError(t, err)
	require.NotEmpty(t, keywords)

	assert.Equal(t, "battery", keywords[0].Word)
	assert.Equal(t, 3, keywords[0].Count)
	assert.Equal(t, "quality", keywords[1].Word)
	assert.Equal(t, 2, keywords[1].Count)
}

func TestExtractKeywords_DropsStopwordsAndShortTokens(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{"reviewText"},
		Rows:    [][]string{{"I would buy this product again, it is an amazing TV"}},
	}

	keywords, err := ExtractKeywords(ds, nil, "all", 0)
	require.NoError(t, err)

	words := map[string]bool{}
	for _, k := range keywords {
		words[k.Word] = true
	}
	assert.True(t, words["amazing"])
	assert.False(t, words["again"], "stopword must be dropped")
	assert.False(t, words["would"], "stopword must be dropped")
	assert.False(t, words["product"], "domain stopword must be dropped")
	assert.False(t, words["tv"], "short tokens must be dropped")
}

func TestExtractKeywords_SentimentFilter(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{"reviewText"},
		Rows: [][]string{
			{"Wonderful excellent fantastic headphones, love them!"},
			{"Terrible awful broken headphones, hate them."},
		},
	}
	a := NewAnalyzer()

	positive, err := ExtractKeywords(ds, a, "positive", 10)
	require.NoError(t, err)
	words := map[string]bool{}
	for _, k := range positive {
		words[k.Word] = true
	}
	assert.True(t, words["wonderful"])
	assert.False(t, words["terrible"])
}

func TestExtractKeywords_NoMatchForSentiment(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{"reviewText"},
		Rows:    [][]string{{"The package arrived on a Tuesday."}},
	}
	_, err := ExtractKeywords(ds, NewAnalyzer(), "negative", 10)
	assert.ErrorIs(t, err, domain.ErrNoData)
}

func TestExtractKeywords_MissingColumn(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{"asin"},
		Rows:    [][]string{{"B001"}},
	}
	_, err := ExtractKeywords(ds, nil, "all", 10)
	assert.ErrorIs(t, err, domain.ErrSchema)
}
