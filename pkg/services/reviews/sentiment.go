package reviews

import (
	"fmt"
	"sort"

	"github.com/bi-tools/insighthub/pkg/models/domain"
	"github.com/jonreiter/govader"
	"gonum.org/v1/gonum/stat"
)

// Compound-score thresholds used by VADER to label text.
const (
	positiveThreshold = 0.05
	negativeThreshold = -0.05
	exampleThreshold  = 0.5
	exampleLimit      = 3
)

// Analyzer scores review text with VADER. Distinct from the rating-derived
// buckets in aggregate.go: this one reads the words, not the stars.
type Analyzer struct {
	vader *govader.SentimentIntensityAnalyzer
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{vader: govader.NewSentimentIntensityAnalyzer()}
}

// Score returns the compound polarity of one text in [-1, 1].
func (a *Analyzer) Score(text string) float64 {
	if text == "" {
		return 0
	}
	return a.vader.PolarityScores(text).Compound
}

// Label buckets a compound score.
func Label(score float64) string {
	switch {
	case score >= positiveThreshold:
		return "positive"
	case score <= negativeThreshold:
		return "negative"
	default:
		return "neutral"
	}
}

// Example is a representative review for one sentiment pole.
type Example struct {
	Sentiment string
	Text      string
	Rating    float64
	Score     float64
}

// TextSentiment is the full text-based sentiment report for a dataset.
type TextSentiment struct {
	Distribution map[string]int
	Percentage   map[string]float64
	// RatingCorrelation is the Pearson correlation between star ratings
	// and compound scores, when both are available.
	RatingCorrelation float64
	HasCorrelation    bool
	Examples          []Example
}

// AnalyzeDataset scores every review text and aggregates the result.
func (a *Analyzer) AnalyzeDataset(ds *domain.Dataset) (*TextSentiment, error) {
	if ds == nil || ds.RowCount() == 0 {
		return nil, fmt.Errorf("%w: cannot analyze sentiment", domain.ErrNoData)
	}
	if !ds.HasColumn(domain.ColReviewText) {
		return nil, fmt.Errorf("%w: sentiment analysis needs %q", domain.ErrSchema, domain.ColReviewText)
	}

	out := &TextSentiment{
		Distribution: map[string]int{},
		Percentage:   map[string]float64{},
	}

	type scored struct {
		row   int
		score float64
	}
	var all []scored
	var ratings, scores []float64
	hasRatings := ds.HasColumn(domain.ColOverall)

	for i := 0; i < ds.RowCount(); i++ {
		score := a.Score(ds.Cell(i, domain.ColReviewText))
		all = append(all, scored{i, score})
		out.Distribution[Label(score)]++
		if hasRatings {
			if r, ok := domain.NumericValue(ds.Cell(i, domain.ColOverall)); ok {
				ratings = append(ratings, r)
				scores = append(scores, score)
			}
		}
	}

	total := float64(len(all))
	for label, n := range out.Distribution {
		out.Percentage[label] = float64(n) / total * 100
	}

	if len(ratings) > 1 {
		out.RatingCorrelation = stat.Correlation(ratings, scores, nil)
		out.HasCorrelation = true
	}

	sort.Slice(all, func(i, j int) bool { return all[i].score > all[j].score })
	for i := 0; i < len(all) && len(out.Examples) < exampleLimit; i++ {
		if all[i].score < exampleThreshold {
			break
		}
		out.Examples = append(out.Examples, a.example(ds, all[i].row, all[i].score, "positive"))
	}
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].score > -exampleThreshold {
			break
		}
		out.Examples = append(out.Examples, a.example(ds, all[i].row, all[i].score, "negative"))
		if countSentiment(out.Examples, "negative") == exampleLimit {
			break
		}
	}
	return out, nil
}

// AverageScore is the mean compound score over all review texts.
func (a *Analyzer) AverageScore(ds *domain.Dataset) float64 {
	cells, ok := ds.Column(domain.ColReviewText)
	if !ok || len(cells) == 0 {
		return 0
	}
	var sum float64
	for _, text := range cells {
		sum += a.Score(text)
	}
	return sum / float64(len(cells))
}

func (a *Analyzer) example(ds *domain.Dataset, row int, score float64, sentiment string) Example {
	ex := Example{
		Sentiment: sentiment,
		Text:      ds.Cell(row, domain.ColReviewText),
		Score:     score,
	}
	if r, ok := domain.NumericValue(ds.Cell(row, domain.ColOverall)); ok {
		ex.Rating = r
	}
	return ex
}

func countSentiment(examples []Example, sentiment string) int {
	n := 0
	for _, e := range examples {
		if e.Sentiment == sentiment {
			n++
		}
	}
	return n
}
