package sales

import (
	"fmt"
	"strings"

	"github.com/bi-tools/insighthub/pkg/models/domain"
)

// AnalysisType selects which markdown report ComposeAnalysis builds.
type AnalysisType string

const (
	AnalysisOverview        AnalysisType = "overview"
	AnalysisCategories      AnalysisType = "categories"
	AnalysisTrends          AnalysisType = "trends"
	AnalysisDemographics    AnalysisType = "demographics"
	AnalysisRecommendations AnalysisType = "recommendations"
)

// ComposeAnalysis renders a markdown report from real aggregates. Sections
// whose source columns are absent are skipped instead of failing.
func ComposeAnalysis(ds *domain.Dataset, kind AnalysisType) (string, error) {
	if ds == nil || ds.RowCount() == 0 {
		return "", fmt.Errorf("%w: cannot analyze sales", domain.ErrNoData)
	}

	switch kind {
	case AnalysisCategories:
		return categoriesAnalysis(ds), nil
	case AnalysisTrends:
		return trendsAnalysis(ds), nil
	case AnalysisDemographics:
		return demographicsAnalysis(ds), nil
	case AnalysisRecommendations:
		return recommendationsAnalysis(ds), nil
	default:
		return overviewAnalysis(ds), nil
	}
}

func overviewAnalysis(ds *domain.Dataset) string {
	var b strings.Builder
	total := TotalSales(ds)
	aov := AverageOrderValue(ds)

	b.WriteString("## Sales Data Overview\n\n")
	fmt.Fprintf(&b, "The dataset contains **%d** transactions with a total sales value of **$%.2f**. ", ds.RowCount(), total)
	fmt.Fprintf(&b, "The average order value is **$%.2f**.\n\n", aov)

	if cats, _ := GroupByFeature(ds, "product_category", domain.ColTotalAmount, AggSum); len(cats) > 0 && total > 0 {
		labels, values := SortedByValue(cats)
		b.WriteString("## Product Category Analysis\n\n### Top Categories by Revenue\n\n")
		for i := 0; i < 3 && i < len(labels); i++ {
			fmt.Fprintf(&b, "- **%s**: $%.2f (%.1f%% of total revenue)\n", labels[i], values[i], values[i]/total*100)
		}
		b.WriteString("\n")
	}

	if labels, values, _ := MonthlyTrend(ds); len(labels) > 1 {
		b.WriteString("## Sales Trends\n\n")
		if growth, ok := MoMGrowth(values); ok {
			direction := "increased"
			if growth < 0 {
				direction = "decreased"
			}
			fmt.Fprintf(&b, "Month-over-month sales have **%s by %.1f%%** ($%.2f vs $%.2f).\n\n",
				direction, abs(growth)*100, values[len(values)-1], values[len(values)-2])
		}
		if dowLabels, dowValues, _ := DayOfWeekSales(ds); len(dowLabels) > 0 {
			best, worst := BestAndWorst(dowLabels, dowValues)
			fmt.Fprintf(&b, "Best performing day is **%s**, while **%s** has the lowest sales.\n\n", best, worst)
		}
	}

	if ageLabels, ageValues, _ := AgeGroupRevenue(ds); len(ageLabels) > 0 {
		topAge, _ := BestAndWorst(ageLabels, ageValues)
		b.WriteString("## Customer Demographics\n\n")
		fmt.Fprintf(&b, "The **%s** age group drives the most revenue.\n\n", topAge)
	}

	b.WriteString("## Recommendations\n\n")
	b.WriteString("Based on the analysis, consider implementing the following strategies:\n\n")
	n := 1
	if cats, _ := GroupByFeature(ds, "product_category", domain.ColTotalAmount, AggSum); len(cats) > 0 {
		labels, _ := SortedByValue(cats)
		fmt.Fprintf(&b, "%d. **Focus on %s**: Invest more marketing budget in your top-performing category.\n", n, labels[0])
		n++
	}
	if dowLabels, dowValues, _ := DayOfWeekSales(ds); len(dowLabels) > 0 {
		best, _ := BestAndWorst(dowLabels, dowValues)
		fmt.Fprintf(&b, "%d. **Optimize for %s**: Schedule promotions for your highest-performing day.\n", n, best)
		n++
	}
	fmt.Fprintf(&b, "%d. **Increase average order value**: Current AOV is $%.2f. Implement cross-selling strategies to grow this metric.\n", n, aov)

	return b.String()
}

func categoriesAnalysis(ds *domain.Dataset) string {
	var b strings.Builder
	b.WriteString("## Product Category Analysis\n\n")

	sums, _ := GroupByFeature(ds, "product_category", domain.ColTotalAmount, AggSum)
	if len(sums) == 0 {
		b.WriteString("No product_category column is present, so a category breakdown is not available.\n")
		return b.String()
	}
	means, _ := GroupByFeature(ds, "product_category", domain.ColTotalAmount, AggMean)
	counts, _ := GroupByFeature(ds, "product_category", domain.ColTotalAmount, AggCount)

	labels, values := SortedByValue(sums)
	var total float64
	for _, v := range values {
		total += v
	}

	b.WriteString("### Category Revenue Breakdown\n\n")
	b.WriteString("| Category | Revenue | Market Share | Transactions | Avg Order Value |\n")
	b.WriteString("|----------|---------|--------------|--------------|-----------------|\n")
	for i, cat := range labels {
		share := 0.0
		if total > 0 {
			share = values[i] / total * 100
		}
		fmt.Fprintf(&b, "| %s | $%.2f | %.1f%% | %d | $%.2f |\n",
			cat, values[i], share, int(counts[cat]), means[cat])
	}
	b.WriteString("\n### Category Insights\n\n")
	topShare := 0.0
	if total > 0 {
		topShare = values[0] / total * 100
	}
	fmt.Fprintf(&b, "1. **%s dominates sales** with %.1f%% market share.\n", labels[0], topShare)
	if len(labels) > 2 {
		last := len(labels) - 1
		lastShare := 0.0
		if total > 0 {
			lastShare = values[last] / total * 100
		}
		fmt.Fprintf(&b, "2. **%s underperforms** with only %.1f%% market share.\n", labels[last], lastShare)
	}

	b.WriteString("\n### Category Recommendations\n\n")
	fmt.Fprintf(&b, "1. Continue to capitalize on %s's strong performance.\n", labels[0])
	if len(labels) > 2 {
		fmt.Fprintf(&b, "2. Evaluate the product mix and marketing for %s.\n", labels[len(labels)-1])
	}
	b.WriteString("3. Explore cross-category promotions to increase exposure for lower-performing categories.\n")
	return b.String()
}

func trendsAnalysis(ds *domain.Dataset) string {
	var b strings.Builder
	labels, values, _ := MonthlyTrend(ds)
	if len(labels) == 0 {
		return "## Trend Analysis\n\nUnable to perform trend analysis because the timestamp column is missing from the data.\n"
	}

	b.WriteString("## Sales Trend Analysis\n\n### Monthly Sales Trend\n\n")
	b.WriteString("| Month | Revenue | Month-over-Month Change |\n")
	b.WriteString("|-------|---------|-------------------------|\n")
	for i, month := range labels {
		if i == 0 {
			fmt.Fprintf(&b, "| %s | $%.2f | - |\n", month, values[i])
			continue
		}
		change := 0.0
		if values[i-1] != 0 {
			change = (values[i] - values[i-1]) / values[i-1] * 100
		}
		fmt.Fprintf(&b, "| %s | $%.2f | %.1f%% |\n", month, values[i], change)
	}
	b.WriteString("\n")

	if dowLabels, dowValues, _ := DayOfWeekSales(ds); len(dowLabels) > 0 {
		b.WriteString("### Day of Week Analysis\n\n| Day | Total Revenue |\n|-----|---------------|\n")
		for i, day := range dowLabels {
			fmt.Fprintf(&b, "| %s | $%.2f |\n", day, dowValues[i])
		}
		b.WriteString("\n")
	}

	if high, low, ok := SeasonalityMonths(ds); ok {
		b.WriteString("### Seasonality Patterns\n\n")
		fmt.Fprintf(&b, "- **Peak season months**: %s\n", strings.Join(high, ", "))
		fmt.Fprintf(&b, "- **Low season months**: %s\n\n", strings.Join(low, ", "))
	}

	if rate, ok := CompoundGrowthRate(values); ok {
		b.WriteString("### Growth Analysis\n\n")
		fmt.Fprintf(&b, "- Monthly growth rate: %.2f%%\n", rate*100)
		fmt.Fprintf(&b, "- Annualized growth rate: %.2f%%\n\n", (pow1p(rate, 12)-1)*100)

		last := values[len(values)-1]
		b.WriteString("### Sales Forecast\n\n")
		fmt.Fprintf(&b, "- Next month forecast: $%.2f\n", Forecast(last, rate, 1))
		fmt.Fprintf(&b, "- Three month forecast: $%.2f\n\n", Forecast(last, rate, 3))
	}

	if dowLabels, dowValues, _ := DayOfWeekSales(ds); len(dowLabels) > 0 {
		best, worst := BestAndWorst(dowLabels, dowValues)
		b.WriteString("### Trend-Based Recommendations\n\n")
		fmt.Fprintf(&b, "1. **Optimize for %s**: Schedule key promotional activities on your highest-performing day.\n", best)
		fmt.Fprintf(&b, "2. **Boost %s performance**: Create special offers for your lowest-performing day.\n", worst)
	}
	return b.String()
}

func demographicsAnalysis(ds *domain.Dataset) string {
	var b strings.Builder
	ageLabels, ageValues, _ := AgeGroupRevenue(ds)
	genders, _ := GroupByFeature(ds, "customer_gender", domain.ColTotalAmount, AggSum)
	locations, _ := GroupByFeature(ds, "customer_location", domain.ColTotalAmount, AggSum)

	if len(ageLabels) == 0 && len(genders) == 0 && len(locations) == 0 {
		return "## Customer Demographics Analysis\n\nUnable to perform demographics analysis because required columns (customer_age, customer_gender, customer_location) are missing from the data.\n"
	}

	b.WriteString("## Customer Demographics Analysis\n\n")

	if len(ageLabels) > 0 {
		b.WriteString("### Customer Age Analysis\n\n| Age Group | Revenue |\n|-----------|---------|\n")
		for i, label := range ageLabels {
			fmt.Fprintf(&b, "| %s | $%.2f |\n", label, ageValues[i])
		}
		topAge, _ := BestAndWorst(ageLabels, ageValues)
		fmt.Fprintf(&b, "\n- The **%s** group generates the most revenue.\n\n", topAge)
	}

	if len(genders) > 0 {
		var total float64
		for _, v := range genders {
			total += v
		}
		b.WriteString("### Gender Distribution\n\n")
		labels, values := SortedByValue(genders)
		for i, g := range labels {
			share := 0.0
			if total > 0 {
				share = values[i] / total * 100
			}
			fmt.Fprintf(&b, "- **%s**: $%.2f (%.1f%% of revenue)\n", g, values[i], share)
		}
		b.WriteString("\n")
	}

	if len(locations) > 0 {
		var total float64
		for _, v := range locations {
			total += v
		}
		b.WriteString("### Top Customer Locations\n\n")
		labels, values := SortedByValue(locations)
		for i := 0; i < 5 && i < len(labels); i++ {
			share := 0.0
			if total > 0 {
				share = values[i] / total * 100
			}
			fmt.Fprintf(&b, "- **%s**: $%.2f (%.1f%% of revenue)\n", labels[i], values[i], share)
		}
		b.WriteString("\n")
	}

	b.WriteString("### Demographic-Based Recommendations\n\n")
	n := 1
	if len(ageLabels) > 0 {
		topAge, _ := BestAndWorst(ageLabels, ageValues)
		fmt.Fprintf(&b, "%d. **Target %s customers** with personalized marketing campaigns.\n", n, topAge)
		n++
	}
	if len(locations) > 0 {
		labels, _ := SortedByValue(locations)
		fmt.Fprintf(&b, "%d. **Leverage success in %s** by replicating strategies in similar markets.\n", n, labels[0])
	}
	return b.String()
}

func recommendationsAnalysis(ds *domain.Dataset) string {
	var b strings.Builder
	b.WriteString("## Actionable Recommendations to Improve Sales\n\n")

	b.WriteString("### Product and Category Strategy\n\n")
	if cats, _ := GroupByFeature(ds, "product_category", domain.ColTotalAmount, AggSum); len(cats) > 0 {
		labels, _ := SortedByValue(cats)
		fmt.Fprintf(&b, "1. **Expand %s offerings**: Since this is your top-performing category, invest in expanding product lines.\n", labels[0])
		if len(labels) > 1 {
			fmt.Fprintf(&b, "2. **Revitalize %s**: Conduct customer research to understand why this category underperforms.\n", labels[len(labels)-1])
		}
	} else {
		b.WriteString("1. **Audit the product mix**: No category column is present; add one to unlock category-level strategy.\n")
	}

	b.WriteString("\n### Pricing and Promotion Strategy\n\n")
	b.WriteString("1. **Implement dynamic pricing**: Adjust prices based on demand, time of day, or customer segments.\n")
	b.WriteString("2. **Create loyalty program tiers**: Reward high-value customers with exclusive benefits.\n")

	b.WriteString("\n### Marketing and Customer Engagement\n\n")
	n := 1
	if ageLabels, ageValues, _ := AgeGroupRevenue(ds); len(ageLabels) > 0 {
		topAge, _ := BestAndWorst(ageLabels, ageValues)
		fmt.Fprintf(&b, "%d. **Target the %s demographic**: Customize campaigns for your highest-value age group.\n", n, topAge)
		n++
	}
	if dowLabels, dowValues, _ := DayOfWeekSales(ds); len(dowLabels) > 0 {
		best, _ := BestAndWorst(dowLabels, dowValues)
		fmt.Fprintf(&b, "%d. **Schedule campaigns on %s**: Align email and social media campaigns with your best-performing day.\n", n, best)
		n++
	}
	fmt.Fprintf(&b, "%d. **Implement a win-back campaign**: Target customers who haven't purchased in 90+ days.\n", n)

	b.WriteString("\n### Operational Improvements\n\n")
	b.WriteString("1. **Optimize inventory management**: Ensure top-selling products are always in stock.\n")
	b.WriteString("2. **Streamline checkout process**: Reduce cart abandonment by simplifying the buying experience.\n")
	b.WriteString("3. **Enhance data analytics**: Set up automatic alerts for sales anomalies and trends.\n")
	return b.String()
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func pow1p(rate float64, n int) float64 {
	out := 1.0
	for i := 0; i < n; i++ {
		out *= 1 + rate
	}
	return out
}
