package report

import (
	"context"
	"fmt"
	"sort"

	"github.com/bi-tools/insighthub/pkg/models/api"
	"github.com/bi-tools/insighthub/pkg/models/domain"
	"github.com/bi-tools/insighthub/pkg/services/narrative"
	"github.com/bi-tools/insighthub/pkg/services/reviews"
	"github.com/bi-tools/insighthub/pkg/services/sales"
	"github.com/rs/zerolog"
)

// Minimum chart counts before the text-mining pass kicks in.
const (
	salesChartFloor  = 4
	reviewChartFloor = 3
)

// Composer assembles the chart payload for a department's analysis
// response. Charts come from the aggregation layer first; keys that stay
// empty are mined out of the analysis text; anything still missing is
// simply absent.
type Composer struct {
	analyzer *reviews.Analyzer
}

func NewComposer(analyzer *reviews.Analyzer) *Composer {
	return &Composer{analyzer: analyzer}
}

// Compose builds the chart map for one department. analysisText feeds the
// mining fallback and may be empty.
func (c *Composer) Compose(ctx context.Context, ds *domain.Dataset, dept domain.Department, analysisText string) map[string]api.ChartSeries {
	switch dept {
	case domain.DepartmentReviews:
		return c.reviewCharts(ctx, ds)
	default:
		return c.salesCharts(ctx, ds, analysisText)
	}
}

func (c *Composer) salesCharts(ctx context.Context, ds *domain.Dataset, analysisText string) map[string]api.ChartSeries {
	log := zerolog.Ctx(ctx)
	charts := map[string]api.ChartSeries{}

	if labels, values, err := sales.MonthlyTrend(ds); err == nil {
		charts["sales_over_time"] = api.ChartSeries{
			Labels: labels, Values: values,
			Title: "Sales Over Time", Type: "line",
			Description: "Total sales per month",
		}
	} else {
		log.Debug().Err(err).Msg("no monthly trend chart")
	}

	c.addGrouped(charts, ds, "product_category", sales.AggSum, "sales_by_category",
		"Sales by Product Category", "bar", "Distribution of revenue across different product categories")
	c.addGrouped(charts, ds, "customer_gender", sales.AggCount, "gender_distribution",
		"Customer Gender Distribution", "pie", "Number of transactions by customer gender")
	c.addGrouped(charts, ds, "payment_method", sales.AggCount, "payment_methods",
		"Payment Method Distribution", "pie", "Number of transactions per payment method")
	c.addGrouped(charts, ds, "location", sales.AggSum, "regions",
		"Sales by Region", "bar", "Total sales per customer location")

	if labels, values, err := sales.AgeGroupRevenue(ds); err == nil && len(labels) > 0 {
		charts["age_distribution"] = api.ChartSeries{
			Labels: labels, Values: values,
			Title: "Customer Age Distribution", Type: "bar",
			Description: "Revenue by customer age group",
		}
	}

	if len(charts) < salesChartFloor && analysisText != "" {
		c.mineMissing(ctx, charts, analysisText)
	}
	return charts
}

func (c *Composer) addGrouped(charts map[string]api.ChartSeries, ds *domain.Dataset, column string, fn sales.AggFunc, key, title, chartType, description string) {
	grouped, err := sales.GroupByFeature(ds, column, domain.ColTotalAmount, fn)
	if err != nil || len(grouped) == 0 {
		return
	}
	labels, values := sales.SortedByValue(grouped)
	charts[key] = api.ChartSeries{
		Labels: labels, Values: values,
		Title: title, Type: chartType,
		Description: description,
	}
}

// mineMissing scrapes the analysis text for chart keys the aggregation
// layer left empty and flags everything it recovers.
func (c *Composer) mineMissing(ctx context.Context, charts map[string]api.ChartSeries, analysisText string) {
	mined := narrative.MineChartData(analysisText)
	for key, series := range mined {
		if _, ok := charts[key]; ok {
			continue
		}
		zerolog.Ctx(ctx).Info().Str("chart", key).Msg("chart recovered from analysis text")
		charts[key] = api.ChartSeries{
			Labels:      series.Labels,
			Values:      series.Values,
			Title:       minedTitle(key),
			Type:        "bar",
			Description: "Recovered from analysis text",
			Synthesized: true,
		}
	}
}

func minedTitle(key string) string {
	switch key {
	case "sales_by_category":
		return "Sales by Category"
	case "sales_over_time":
		return "Sales Over Time"
	default:
		return key
	}
}

func (c *Composer) reviewCharts(ctx context.Context, ds *domain.Dataset) map[string]api.ChartSeries {
	log := zerolog.Ctx(ctx)
	charts := map[string]api.ChartSeries{}

	if labels, values, err := reviews.RatingDistribution(ds); err == nil {
		charts["rating_distribution"] = api.ChartSeries{
			Labels: labels, Values: values,
			Title: "Rating Distribution", Type: "bar",
			Description: "Number of reviews per star rating",
		}
	} else {
		log.Debug().Err(err).Msg("no rating distribution chart")
	}

	if dist, err := reviews.SentimentDistribution(ds); err == nil {
		labels, values := orderedSentiment(dist)
		charts["sentiment_distribution"] = api.ChartSeries{
			Labels: labels, Values: values,
			Title: "Sentiment Distribution", Type: "pie",
			Description: "Reviews per rating-derived sentiment",
		}
	}

	if keywords, err := reviews.ExtractKeywords(ds, c.analyzer, "all", 10); err == nil && len(keywords) > 0 {
		labels := make([]string, 0, len(keywords))
		values := make([]float64, 0, len(keywords))
		for _, k := range keywords {
			labels = append(labels, k.Word)
			values = append(values, float64(k.Count))
		}
		charts["common_words"] = api.ChartSeries{
			Labels: labels, Values: values,
			Title: "Common Words", Type: "bar",
			Description: "Most frequent words in review text",
		}
		charts["topic_distribution"] = api.ChartSeries{
			Labels: labels, Values: values,
			Title: "Topic Distribution", Type: "bar",
			Description: "Dominant topics across reviews",
		}
	}

	if rows, err := reviews.SentimentByCategory(ds); err == nil && len(rows) > 0 {
		labels := make([]string, 0, len(rows))
		values := make([]float64, 0, len(rows))
		for _, row := range rows {
			labels = append(labels, fmt.Sprintf("%s / %s", row.Category, row.Sentiment))
			values = append(values, float64(row.Count))
		}
		charts["asin_sentiment_distribution"] = api.ChartSeries{
			Labels: labels, Values: values,
			Title: "Sentiment by Category", Type: "bar",
			Description: "Sentiment breakdown for the top categories",
		}
	}

	if len(charts) < reviewChartFloor {
		log.Warn().Int("charts", len(charts)).Msg("review dataset produced few charts")
	}
	return charts
}

func orderedSentiment(dist map[string]int) (labels []string, values []float64) {
	for _, label := range []string{"Positive", "Neutral", "Negative"} {
		if n, ok := dist[label]; ok {
			labels = append(labels, label)
			values = append(values, float64(n))
		}
	}
	// Any unexpected buckets go last, deterministically.
	var rest []string
	for label := range dist {
		if label != "Positive" && label != "Neutral" && label != "Negative" {
			rest = append(rest, label)
		}
	}
	sort.Strings(rest)
	for _, label := range rest {
		labels = append(labels, label)
		values = append(values, float64(dist[label]))
	}
	return labels, values
}
