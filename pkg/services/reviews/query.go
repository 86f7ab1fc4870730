package reviews

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bi-tools/insighthub/pkg/models/domain"
	"github.com/rs/zerolog"
)

const unknownQueryReply = "Sorry, I don't understand that query. " +
	"Try asking for an overview, product info, sentiment analysis, or topics."

// QueryService answers free-text questions about a review dataset.
// Routing is keyword-based; only queries no route claims reach the
// narrator.
type QueryService struct {
	narrator Narrator
	analyzer *Analyzer
}

func NewQueryService(narrator Narrator, analyzer *Analyzer) *QueryService {
	return &QueryService{narrator: narrator, analyzer: analyzer}
}

func (s *QueryService) ProcessQuery(ctx context.Context, ds *domain.Dataset, query string) (string, error) {
	if ds == nil || ds.RowCount() == 0 {
		return "", fmt.Errorf("%w: no review data loaded", domain.ErrNoData)
	}
	q := strings.ToLower(query)
	zerolog.Ctx(ctx).Debug().Str("query", query).Msg("routing review query")

	switch {
	case containsAny(q, "overview", "summary", "analysis"):
		return ComposeAnalysis(ctx, ds, s.narrator, s.analyzer)
	case containsAny(q, "product info", "products", "top products"):
		return topProductsAnswer(ds)
	case strings.Contains(q, "average rating by category"):
		return categoryRatingsAnswer(ds)
	case strings.Contains(q, "statistics"):
		return statisticsAnswer(ds)
	case containsAny(q, "topics", "themes"):
		return topicsAnswer(ds, s.analyzer)
	case strings.Contains(q, "sentiment"):
		return sentimentAnswer(ds)
	}

	if s.narrator != nil && s.narrator.Available(ctx) {
		prompt := fmt.Sprintf(
			"You are analyzing a dataset of %d product reviews with an average rating of %.2f/5.\n"+
				"Answer this question about the dataset concisely: %s",
			ds.RowCount(), averageRating(ds), query)
		if text, err := s.narrator.Generate(ctx, prompt); err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text), nil
		} else if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("narrator query failed")
		}
	}
	return unknownQueryReply, nil
}

func topProductsAnswer(ds *domain.Dataset) (string, error) {
	products, err := ASINSummaries(ds)
	if err != nil {
		return "", err
	}

	// Pick the modal category per product when the dataset carries one.
	categories := map[string]string{}
	if ds.HasColumn("category") {
		perProduct := map[string]map[string]int{}
		for i := 0; i < ds.RowCount(); i++ {
			asin := ds.Cell(i, domain.ColASIN)
			cat := ds.Cell(i, "category")
			if asin == "" || cat == "" {
				continue
			}
			if perProduct[asin] == nil {
				perProduct[asin] = map[string]int{}
			}
			perProduct[asin][cat]++
		}
		for asin, counts := range perProduct {
			best, bestN := "", -1
			for cat, n := range counts {
				if n > bestN || (n == bestN && cat < best) {
					best, bestN = cat, n
				}
			}
			categories[asin] = best
		}
	}

	var b strings.Builder
	b.WriteString("## Top Products by Review Count\n\n")
	for i := 0; i < 5 && i < len(products); i++ {
		p := products[i]
		if cat := categories[p.ASIN]; cat != "" {
			fmt.Fprintf(&b, "- **%s** (%s): %d reviews, Avg Rating %.2f\n",
				p.ASIN, cat, p.ReviewCount, p.AverageRating)
		} else {
			fmt.Fprintf(&b, "- **%s**: %d reviews, Avg Rating %.2f\n",
				p.ASIN, p.ReviewCount, p.AverageRating)
		}
	}
	return b.String(), nil
}

func categoryRatingsAnswer(ds *domain.Dataset) (string, error) {
	if !ds.HasColumn("category") {
		return "The loaded reviews have no category column, so ratings cannot be broken down by category.", nil
	}
	sums := map[string]float64{}
	counts := map[string]int{}
	for i := 0; i < ds.RowCount(); i++ {
		cat := ds.Cell(i, "category")
		rating, ok := domain.NumericValue(ds.Cell(i, domain.ColOverall))
		if cat == "" || !ok {
			continue
		}
		sums[cat] += rating
		counts[cat]++
	}
	if len(counts) == 0 {
		return "", fmt.Errorf("%w: no rated categories found", domain.ErrNoData)
	}

	cats := make([]string, 0, len(counts))
	for c := range counts {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		ri := sums[cats[i]] / float64(counts[cats[i]])
		rj := sums[cats[j]] / float64(counts[cats[j]])
		if ri != rj {
			return ri > rj
		}
		return cats[i] < cats[j]
	})

	var b strings.Builder
	b.WriteString("## Average Rating by Category\n\n")
	for _, c := range cats {
		fmt.Fprintf(&b, "- %s: %.2f/5 (%d reviews)\n", c, sums[c]/float64(counts[c]), counts[c])
	}
	return b.String(), nil
}

func statisticsAnswer(ds *domain.Dataset) (string, error) {
	summary, err := Summarize(ds)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("## Review Statistics\n\n")
	fmt.Fprintf(&b, "- Total reviews: %d\n", summary.TotalReviews)
	fmt.Fprintf(&b, "- Unique products: %d\n", summary.UniqueProducts)
	fmt.Fprintf(&b, "- Average rating: %.2f/5\n", summary.AverageRating)
	b.WriteString("- Rating distribution:\n")
	for _, key := range sortedCountKeys(summary.RatingDistribution) {
		fmt.Fprintf(&b, "  - %s stars: %d\n", key, summary.RatingDistribution[key])
	}
	return b.String(), nil
}

func topicsAnswer(ds *domain.Dataset, analyzer *Analyzer) (string, error) {
	keywords, err := ExtractKeywords(ds, analyzer, "all", 15)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("## Common Topics in Reviews\n\n")
	for _, k := range keywords {
		fmt.Fprintf(&b, "- %s (%d mentions)\n", k.Word, k.Count)
	}
	return b.String(), nil
}

func sentimentAnswer(ds *domain.Dataset) (string, error) {
	dist, err := SentimentDistribution(ds)
	if err != nil {
		return "", err
	}
	total := 0
	for _, n := range dist {
		total += n
	}
	if total == 0 {
		return "", fmt.Errorf("%w: no rated reviews found", domain.ErrNoData)
	}

	var b strings.Builder
	b.WriteString("## Sentiment Distribution\n\n")
	for _, label := range []string{"Positive", "Neutral", "Negative"} {
		fmt.Fprintf(&b, "- %s: %d reviews (%.1f%%)\n", label, dist[label],
			float64(dist[label])/float64(total)*100)
	}
	return b.String(), nil
}

func averageRating(ds *domain.Dataset) float64 {
	ratings := ds.NumericColumn(domain.ColOverall)
	if len(ratings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range ratings {
		sum += r
	}
	return sum / float64(len(ratings))
}

func containsAny(s string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
