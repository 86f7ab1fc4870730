package reviews

import (
	"testing"

	"github.com/bi-tools/insighthub/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabel(t *testing.T) {
	assert.Equal(t, "positive", Label(0.6))
	assert.Equal(t, "positive", Label(0.05))
	assert.Equal(t, "neutral", Label(0.0))
	assert.Equal(t, "neutral", Label(-0.04))
	assert.Equal(t, "negative", Label(-0.05))
	assert.Equal(t, "negative", Label(-0.8))
}

func TestAnalyzer_Score(t *testing.T) {
	a := NewAnalyzer()

	assert.Greater(t, a.Score("This product is absolutely wonderful, I love it!"), 0.05)
	assert.Less(t, a.Score("Horrible, awful product. I hate it."), -0.05)
	assert.Zero(t, a.Score(""))
}

func TestAnalyzer_AnalyzeDataset(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{"asin", "reviewText", "overall"},
		Rows: [][]string{
			{"B001", "Absolutely fantastic, best purchase ever, I love it!", "5"},
			{"B001", "Wonderful quality, great value, highly recommended!", "5"},
			{"B002", "Horrible garbage, terrible waste of money, awful.", "1"},
			{"B002", "The box arrived on Tuesday.", "3"},
		},
	}

	a := NewAnalyzer()
	report, err := a.AnalyzeDataset(ds)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Distribution["positive"])
	assert.Equal(t, 1, report.Distribution["negative"])
	assert.Equal(t, 1, report.Distribution["neutral"])
	assert.InDelta(t, 50.0, report.Percentage["positive"], 1e-9)

	require.True(t, report.HasCorrelation)
	assert.Greater(t, report.RatingCorrelation, 0.5)

	// Strongly worded reviews surface as examples on both poles.
	var positives, negatives int
	for _, ex := range report.Examples {
		switch ex.Sentiment {
		case "positive":
			positives++
			assert.GreaterOrEqual(t, ex.Score, 0.5)
		case "negative":
			negatives++
			assert.LessOrEqual(t, ex.Score, -0.5)
		}
	}
	assert.NotZero(t, positives)
	assert.NotZero(t, negatives)
}

func TestAnalyzer_AnalyzeDataset_MissingText(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{"asin", "overall"},
		Rows:    [][]string{{"B001", "5"}},
	}
	_, err := NewAnalyzer().AnalyzeDataset(ds)
	assert.ErrorIs(t, err, domain.ErrSchema)
}

func TestAnalyzer_AverageScore(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{"reviewText"},
		Rows: [][]string{
			{"I love this, it is excellent and wonderful!"},
			{"Great quality, fantastic product!"},
		},
	}
	assert.Greater(t, NewAnalyzer().AverageScore(ds), 0.05)
}
