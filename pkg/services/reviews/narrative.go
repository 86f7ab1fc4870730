package reviews

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bi-tools/insighthub/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Narrator is the optional language-model collaborator. Its failures are
// never fatal; every caller has a template fallback.
type Narrator interface {
	Available(ctx context.Context) bool
	Generate(ctx context.Context, prompt string) (string, error)
}

// ComposeAnalysis renders the review overview. When the narrator is
// reachable it writes the prose from real aggregates; otherwise the
// template does.
func ComposeAnalysis(ctx context.Context, ds *domain.Dataset, narrator Narrator, analyzer *Analyzer) (string, error) {
	if ds == nil || ds.RowCount() == 0 {
		return "", fmt.Errorf("%w: cannot analyze reviews", domain.ErrNoData)
	}

	if narrator != nil && narrator.Available(ctx) {
		if text, err := generatedAnalysis(ctx, ds, narrator); err == nil && len(strings.TrimSpace(text)) > 100 {
			return text, nil
		} else if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("narrative generation failed, using template")
		}
	}
	return templateAnalysis(ds, analyzer), nil
}

func generatedAnalysis(ctx context.Context, ds *domain.Dataset, narrator Narrator) (string, error) {
	summary, err := Summarize(ds)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You're an expert in analyzing customer reviews data. You are analyzing a real dataset of product reviews with:\n")
	fmt.Fprintf(&b, "- %d reviews\n- %d unique products\n- Average rating: %.2f/5 stars\n",
		summary.TotalReviews, summary.UniqueProducts, summary.AverageRating)
	fmt.Fprintf(&b, "- Rating distribution: %s\n", formatCounts(summary.RatingDistribution, " stars"))
	if len(summary.ReviewsPerCategory) > 0 {
		fmt.Fprintf(&b, "- Top categories: %s\n", formatCounts(summary.ReviewsPerCategory, ""))
	}
	b.WriteString("\nProvide a comprehensive analysis of this dataset in markdown format. Include:\n")
	b.WriteString("1. Overview and key statistics\n2. Rating distribution analysis and insights\n")
	b.WriteString("3. Category breakdown and analysis (if available)\n4. Sentiment analysis and key trends\n")
	b.WriteString("5. Actionable recommendations based on the data\n\n")
	b.WriteString("Focus ONLY on the actual data provided. Be specific and data-driven in your analysis.\n")

	b.WriteString("\nSample reviews from the dataset:\n")
	for i := 0; i < 10 && i < ds.RowCount(); i++ {
		text := ds.Cell(i, domain.ColReviewText)
		if len(text) > 100 {
			text = text[:100] + "..."
		}
		fmt.Fprintf(&b, "- Product %s: %q (Rating: %s)\n  %q\n",
			ds.Cell(i, domain.ColASIN), ds.Cell(i, domain.ColSummary), ds.Cell(i, domain.ColOverall), text)
	}

	return narrator.Generate(ctx, b.String())
}

func templateAnalysis(ds *domain.Dataset, analyzer *Analyzer) string {
	var b strings.Builder
	b.WriteString("## Review Data Analysis\n\n")

	summary, err := Summarize(ds)
	if err != nil {
		b.WriteString("The loaded dataset is missing the columns required for review analysis.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Total number of reviews: %d\n", summary.TotalReviews)
	fmt.Fprintf(&b, "Number of unique products: %d\n", summary.UniqueProducts)
	fmt.Fprintf(&b, "Average overall rating: %.2f/5\n\n", summary.AverageRating)

	b.WriteString("### Rating Distribution\n\n")
	for _, key := range sortedCountKeys(summary.RatingDistribution) {
		count := summary.RatingDistribution[key]
		fmt.Fprintf(&b, "- %s stars: %d reviews (%.1f%%)\n", key, count,
			float64(count)/float64(summary.TotalReviews)*100)
	}
	b.WriteString("\n")

	switch {
	case summary.AverageRating >= 4.0:
		b.WriteString("The products in this dataset have very positive reviews overall, indicating high customer satisfaction.\n\n")
	case summary.AverageRating >= 3.0:
		b.WriteString("The products in this dataset have moderately positive reviews, suggesting room for improvement.\n\n")
	default:
		b.WriteString("The products in this dataset have relatively low ratings, indicating significant customer dissatisfaction.\n\n")
	}

	if len(summary.ReviewsPerCategory) > 0 {
		b.WriteString("### Top 5 Categories by Number of Reviews\n\n")
		keys := sortedByCount(summary.ReviewsPerCategory)
		for i := 0; i < 5 && i < len(keys); i++ {
			count := summary.ReviewsPerCategory[keys[i]]
			fmt.Fprintf(&b, "- %s: %d reviews (%.1f%%)\n", keys[i], count,
				float64(count)/float64(summary.TotalReviews)*100)
		}
		b.WriteString("\n")
	}

	if dist, err := SentimentDistribution(ds); err == nil {
		total := 0
		for _, n := range dist {
			total += n
		}
		if total > 0 {
			b.WriteString("### Sentiment Distribution\n\n")
			for _, label := range []string{"Positive", "Neutral", "Negative"} {
				fmt.Fprintf(&b, "- %s: %.1f%%\n", label, float64(dist[label])/float64(total)*100)
			}
			b.WriteString("\n")

			pos := float64(dist["Positive"]) / float64(total) * 100
			neg := float64(dist["Negative"]) / float64(total) * 100
			switch {
			case pos > 70:
				b.WriteString("The sentiment is predominantly positive, indicating strong customer satisfaction.\n\n")
			case pos > neg:
				b.WriteString("The sentiment is more positive than negative, but there's room for improvement.\n\n")
			case neg > pos:
				b.WriteString("The sentiment is more negative than positive, suggesting significant issues to address.\n\n")
			}
		}
	}

	if keywords, err := ExtractKeywords(ds, analyzer, "all", 10); err == nil && len(keywords) > 0 {
		words := make([]string, 0, len(keywords))
		for _, k := range keywords {
			words = append(words, k.Word)
		}
		b.WriteString("### Key Topics in Reviews\n\n")
		fmt.Fprintf(&b, "- Frequent terms: %s\n\n", strings.Join(words, ", "))
	}

	b.WriteString("### Sample Reviews\n\n")
	for i := 0; i < 3 && i < ds.RowCount(); i++ {
		fmt.Fprintf(&b, "- **Product %s**: %s (Rating: %s)\n",
			ds.Cell(i, domain.ColASIN), ds.Cell(i, domain.ColSummary), ds.Cell(i, domain.ColOverall))
	}

	b.WriteString("\n### Recommendations\n\n")
	if summary.AverageRating < 3.5 {
		b.WriteString("- Focus on product quality improvement based on negative review themes\n")
		b.WriteString("- Address common customer complaints highlighted in low-rated reviews\n")
	}
	if ds.HasColumn("category") {
		if low := lowestRatedCategories(ds, 2); len(low) > 0 {
			fmt.Fprintf(&b, "- Investigate quality issues in the %s categories\n", strings.Join(low, ", "))
		}
	}
	if dist, err := SentimentDistribution(ds); err == nil {
		total := 0
		for _, n := range dist {
			total += n
		}
		if total > 0 && float64(dist["Negative"])/float64(total) > 0.2 {
			b.WriteString("- Implement a customer feedback program to address the high proportion of negative sentiment\n")
		}
	}
	return b.String()
}

// SummarizeProduct builds the /summarize answer: the narrator when
// reachable, a statistical summary otherwise.
func SummarizeProduct(ctx context.Context, ds *domain.Dataset, asin string, narrator Narrator, analyzer *Analyzer) (string, error) {
	if ds == nil || ds.RowCount() == 0 {
		return "", fmt.Errorf("%w: cannot summarize reviews", domain.ErrNoData)
	}

	target := ds
	if asin != "" {
		target = FilterByASIN(ds, asin)
		if target.RowCount() == 0 {
			return "", fmt.Errorf("%w: no reviews for product %q", domain.ErrNotFound, asin)
		}
	}

	if narrator != nil && narrator.Available(ctx) {
		var b strings.Builder
		fmt.Fprintf(&b, "Analyze these %d product reviews and provide:\n", min(target.RowCount(), 100))
		b.WriteString("1. Overall customer sentiment\n2. Key strengths mentioned\n")
		b.WriteString("3. Common issues or complaints\n4. Any suggestions for improvement\n\nReviews:\n")
		for i := 0; i < 100 && i < target.RowCount(); i++ {
			b.WriteString(target.Cell(i, domain.ColReviewText))
			b.WriteString("\n")
		}
		b.WriteString("\nProvide a concise summary addressing the points above. Be specific about what customers like and dislike.\n")

		if text, err := narrator.Generate(ctx, b.String()); err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text), nil
		} else if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("product summarization failed, using statistics")
		}
	}

	return statisticalSummary(target, analyzer), nil
}

func statisticalSummary(ds *domain.Dataset, analyzer *Analyzer) string {
	ratings := ds.NumericColumn(domain.ColOverall)
	var sum float64
	var positive, negative int
	for _, r := range ratings {
		sum += r
		if r >= 4 {
			positive++
		} else if r <= 2 {
			negative++
		}
	}
	avg := 0.0
	if len(ratings) > 0 {
		avg = sum / float64(len(ratings))
	}
	neutral := len(ratings) - positive - negative

	sentiment := "neutral"
	if analyzer != nil {
		sentiment = Label(analyzer.AverageScore(ds))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Average rating: %.1f/5. ", avg)
	fmt.Fprintf(&b, "Based on %d reviews: %d positive, %d negative, %d neutral. ",
		len(ratings), positive, negative, neutral)
	fmt.Fprintf(&b, "Overall sentiment: %s. ", sentiment)

	if keywords, err := ExtractKeywords(ds, analyzer, "all", 10); err == nil && len(keywords) > 0 {
		words := make([]string, 0, len(keywords))
		for _, k := range keywords {
			words = append(words, k.Word)
		}
		fmt.Fprintf(&b, "Common words: %s.", strings.Join(words, ", "))
	}
	return b.String()
}

func lowestRatedCategories(ds *domain.Dataset, n int) []string {
	sums := map[string]float64{}
	counts := map[string]int{}
	for i := 0; i < ds.RowCount(); i++ {
		cat := ds.Cell(i, "category")
		if cat == "" {
			continue
		}
		rating, ok := domain.NumericValue(ds.Cell(i, domain.ColOverall))
		if !ok {
			continue
		}
		sums[cat] += rating
		counts[cat]++
	}
	cats := make([]string, 0, len(counts))
	for c := range counts {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		return sums[cats[i]]/float64(counts[cats[i]]) < sums[cats[j]]/float64(counts[cats[j]])
	})
	if len(cats) > n {
		cats = cats[:n]
	}
	return cats
}

func formatCounts(m map[string]int, suffix string) string {
	keys := sortedByCount(m)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s%s: %d", k, suffix, m[k]))
	}
	return strings.Join(parts, ", ")
}

func sortedByCount(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

func sortedCountKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
