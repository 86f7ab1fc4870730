package reviews

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bi-tools/insighthub/pkg/models/domain"
	"github.com/bi-tools/insighthub/pkg/schema"
	"github.com/rs/zerolog"
)

const (
	asinSummaryCap   = 500
	topCategoryLimit = 10
)

// SentimentFromRating buckets a star rating: 1-2 negative, above 2 up to
// 3.5 neutral, the rest positive.
func SentimentFromRating(rating float64) string {
	switch {
	case rating <= 2:
		return "Negative"
	case rating <= 3.5:
		return "Neutral"
	default:
		return "Positive"
	}
}

// RatingDistribution counts reviews per star rating, ordered by rating.
func RatingDistribution(ds *domain.Dataset) (labels []string, values []float64, err error) {
	if ds == nil || ds.RowCount() == 0 {
		return nil, nil, fmt.Errorf("%w: cannot compute rating distribution", domain.ErrNoData)
	}
	if !ds.HasColumn(domain.ColOverall) {
		return nil, nil, fmt.Errorf("%w: rating column %q not found", domain.ErrSchema, domain.ColOverall)
	}

	counts := map[float64]int{}
	for _, v := range ds.NumericColumn(domain.ColOverall) {
		counts[v]++
	}
	ratings := make([]float64, 0, len(counts))
	for r := range counts {
		ratings = append(ratings, r)
	}
	sort.Float64s(ratings)
	for _, r := range ratings {
		labels = append(labels, ratingLabel(r))
		values = append(values, float64(counts[r]))
	}
	return labels, values, nil
}

// SentimentDistribution counts reviews per rating-derived sentiment bucket.
func SentimentDistribution(ds *domain.Dataset) (map[string]int, error) {
	if ds == nil || ds.RowCount() == 0 {
		return nil, fmt.Errorf("%w: cannot compute sentiment distribution", domain.ErrNoData)
	}
	if !ds.HasColumn(domain.ColOverall) {
		return nil, fmt.Errorf("%w: rating column %q not found", domain.ErrSchema, domain.ColOverall)
	}
	dist := map[string]int{}
	for _, v := range ds.NumericColumn(domain.ColOverall) {
		dist[SentimentFromRating(v)]++
	}
	return dist, nil
}

// CategorySentiment is one cell of the category-by-sentiment cross-tab.
type CategorySentiment struct {
	Category  string `json:"category"`
	Sentiment string `json:"sentiment"`
	Count     int    `json:"count"`
}

// SentimentByCategory cross-tabulates the top categories by review count
// against sentiment buckets.
func SentimentByCategory(ds *domain.Dataset) ([]CategorySentiment, error) {
	if ds == nil || ds.RowCount() == 0 {
		return nil, fmt.Errorf("%w: cannot compute category sentiment", domain.ErrNoData)
	}
	if !ds.HasColumn(domain.ColOverall) || !ds.HasColumn("category") {
		return nil, fmt.Errorf("%w: category sentiment needs overall and category columns", domain.ErrSchema)
	}

	counts := map[string]map[string]int{}
	totals := map[string]int{}
	for i := 0; i < ds.RowCount(); i++ {
		cat := ds.Cell(i, "category")
		if cat == "" {
			continue
		}
		rating, ok := domain.NumericValue(ds.Cell(i, domain.ColOverall))
		if !ok {
			continue
		}
		if counts[cat] == nil {
			counts[cat] = map[string]int{}
		}
		counts[cat][SentimentFromRating(rating)]++
		totals[cat]++
	}

	cats := make([]string, 0, len(totals))
	for c := range totals {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		if totals[cats[i]] != totals[cats[j]] {
			return totals[cats[i]] > totals[cats[j]]
		}
		return cats[i] < cats[j]
	})
	if len(cats) > topCategoryLimit {
		cats = cats[:topCategoryLimit]
	}

	var out []CategorySentiment
	for _, cat := range cats {
		for _, sentiment := range []string{"Positive", "Neutral", "Negative"} {
			out = append(out, CategorySentiment{
				Category:  cat,
				Sentiment: sentiment,
				Count:     counts[cat][sentiment],
			})
		}
	}
	return out, nil
}

// ProductSummary is one ASIN's aggregate.
type ProductSummary struct {
	ASIN          string
	ReviewCount   int
	AverageRating float64
}

// ASINSummaries aggregates per product, ordered by review count descending
// and capped so oversized catalogs do not flood the frontend.
func ASINSummaries(ds *domain.Dataset) ([]ProductSummary, error) {
	if ds == nil || ds.RowCount() == 0 {
		return nil, fmt.Errorf("%w: cannot summarize products", domain.ErrNoData)
	}
	if !ds.HasColumn(domain.ColASIN) || !ds.HasColumn(domain.ColOverall) {
		return nil, fmt.Errorf("%w: product summary needs asin and overall columns", domain.ErrSchema)
	}

	sums := map[string]float64{}
	counts := map[string]int{}
	for i := 0; i < ds.RowCount(); i++ {
		asin := ds.Cell(i, domain.ColASIN)
		if asin == "" {
			continue
		}
		rating, ok := domain.NumericValue(ds.Cell(i, domain.ColOverall))
		if !ok {
			continue
		}
		sums[asin] += rating
		counts[asin]++
	}

	out := make([]ProductSummary, 0, len(counts))
	for asin, n := range counts {
		out = append(out, ProductSummary{
			ASIN:          asin,
			ReviewCount:   n,
			AverageRating: sums[asin] / float64(n),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ReviewCount != out[j].ReviewCount {
			return out[i].ReviewCount > out[j].ReviewCount
		}
		return out[i].ASIN < out[j].ASIN
	})
	if len(out) > asinSummaryCap {
		out = out[:asinSummaryCap]
	}
	return out, nil
}

// SynthesizeMissing fills an absent asin or overall column with placeholder
// values (PRODUCT_{n} ids, a uniform 3.0 rating) so product aggregation is
// still possible on partial exports. The caller must opt in, every fill is
// logged as a warning, and the second return reports whether anything was
// synthesized so responses can flag it.
func SynthesizeMissing(ctx context.Context, ds *domain.Dataset) (*domain.Dataset, bool) {
	logger := zerolog.Ctx(ctx)

	needASIN := !ds.HasColumn(domain.ColASIN)
	needRating := !ds.HasColumn(domain.ColOverall)
	if !needASIN && !needRating {
		return ds, false
	}

	out := ds.Copy()
	if needASIN {
		ids := make([]string, out.RowCount())
		for i := range ids {
			ids[i] = fmt.Sprintf("PRODUCT_%d", i+1)
		}
		out.AddColumn(domain.ColASIN, ids)
		logger.Warn().Int("rows", out.RowCount()).Msg("asin column missing, synthesized placeholder product ids")
	}
	if needRating {
		ratings := make([]string, out.RowCount())
		for i := range ratings {
			ratings[i] = "3"
		}
		out.AddColumn(domain.ColOverall, ratings)
		logger.Warn().Int("rows", out.RowCount()).Msg("overall column missing, synthesized uniform 3.0 ratings")
	}
	return out, true
}

// RatingTrend averages ratings per month, sorted ascending. reviewTime is
// preferred; unixReviewTime is the fallback.
func RatingTrend(ds *domain.Dataset) (labels []string, values []float64, err error) {
	if ds == nil || ds.RowCount() == 0 {
		return nil, nil, fmt.Errorf("%w: cannot compute rating trend", domain.ErrNoData)
	}
	dateCol := ""
	switch {
	case ds.HasColumn(domain.ColReviewTime):
		dateCol = domain.ColReviewTime
	case ds.HasColumn(domain.ColUnixTime):
		dateCol = domain.ColUnixTime
	default:
		return nil, nil, fmt.Errorf("%w: no date column in review data", domain.ErrSchema)
	}

	sums := map[string]float64{}
	counts := map[string]int{}
	for i := 0; i < ds.RowCount(); i++ {
		t, ok := schema.ParseTimestamp(ds.Cell(i, dateCol))
		if !ok {
			continue
		}
		rating, ok := domain.NumericValue(ds.Cell(i, domain.ColOverall))
		if !ok {
			continue
		}
		month := t.Format("2006-01")
		sums[month] += rating
		counts[month]++
	}
	if len(counts) == 0 {
		return nil, nil, fmt.Errorf("%w: no valid dates in review data", domain.ErrNoData)
	}

	for m := range counts {
		labels = append(labels, m)
	}
	sort.Strings(labels)
	for _, m := range labels {
		values = append(values, sums[m]/float64(counts[m]))
	}
	return labels, values, nil
}

// DatasetSummary aggregates the whole review dataset.
type DatasetSummary struct {
	TotalReviews       int
	UniqueProducts     int
	AverageRating      float64
	RatingDistribution map[string]int
	ReviewsPerCategory map[string]int
	TopProducts        []ProductSummary
}

func Summarize(ds *domain.Dataset) (*DatasetSummary, error) {
	if ds == nil || ds.RowCount() == 0 {
		return nil, fmt.Errorf("%w: cannot summarize reviews", domain.ErrNoData)
	}
	if !ds.HasColumn(domain.ColASIN) || !ds.HasColumn(domain.ColOverall) {
		return nil, fmt.Errorf("%w: summary needs asin and overall columns", domain.ErrSchema)
	}

	out := &DatasetSummary{
		TotalReviews:       ds.RowCount(),
		RatingDistribution: map[string]int{},
	}

	ratings := ds.NumericColumn(domain.ColOverall)
	var sum float64
	for _, r := range ratings {
		sum += r
		out.RatingDistribution[ratingKey(r)]++
	}
	if len(ratings) > 0 {
		out.AverageRating = sum / float64(len(ratings))
	}

	products, err := ASINSummaries(ds)
	if err != nil {
		return nil, err
	}
	out.UniqueProducts = len(products)
	if len(products) > 10 {
		products = products[:10]
	}
	out.TopProducts = products

	if ds.HasColumn("category") {
		out.ReviewsPerCategory = map[string]int{}
		if cells, ok := ds.Column("category"); ok {
			for _, c := range cells {
				if c != "" {
					out.ReviewsPerCategory[c]++
				}
			}
		}
	}
	return out, nil
}

// FilterByASIN returns the subset of rows for one product.
func FilterByASIN(ds *domain.Dataset, asin string) *domain.Dataset {
	out := &domain.Dataset{Columns: append([]string(nil), ds.Columns...)}
	idx := ds.ColumnIndex(domain.ColASIN)
	if idx < 0 {
		return out
	}
	for _, row := range ds.Rows {
		if idx < len(row) && row[idx] == asin {
			out.Rows = append(out.Rows, append([]string(nil), row...))
		}
	}
	return out
}

func ratingLabel(r float64) string {
	return ratingKey(r) + " Stars"
}

func ratingKey(r float64) string {
	if r == float64(int64(r)) {
		return strconv.FormatInt(int64(r), 10)
	}
	return strings.TrimRight(strconv.FormatFloat(r, 'f', 2, 64), "0")
}
