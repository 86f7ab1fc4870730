package sales

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/bi-tools/insighthub/pkg/models/domain"
	"github.com/bi-tools/insighthub/pkg/schema"
)

// AggFunc selects how grouped values are reduced.
type AggFunc string

const (
	AggSum   AggFunc = "sum"
	AggMean  AggFunc = "mean"
	AggCount AggFunc = "count"
	AggMin   AggFunc = "min"
	AggMax   AggFunc = "max"
)

// Age bucket edges and labels. A value lands in bucket i when
// edges[i] < v <= edges[i+1].
var (
	ageBinEdges  = []float64{0, 18, 25, 35, 50, 65, 120}
	ageBinLabels = []string{"Under 18", "18-24", "25-34", "35-49", "50-64", "65+"}
)

var weekdayOrder = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// GroupByFeature groups rows by one column and reduces another. Rows whose
// aggregate cell does not parse as a number are excluded from that group.
// Unknown columns yield an empty result rather than an error; callers
// degrade to an empty chart.
func GroupByFeature(ds *domain.Dataset, feature, aggregateCol string, fn AggFunc) (map[string]float64, error) {
	if ds == nil || ds.RowCount() == 0 {
		return nil, fmt.Errorf("%w: cannot group", domain.ErrNoData)
	}
	if !ds.HasColumn(feature) || !ds.HasColumn(aggregateCol) {
		return map[string]float64{}, nil
	}

	sums := map[string]float64{}
	counts := map[string]int{}
	mins := map[string]float64{}
	maxs := map[string]float64{}

	for i := 0; i < ds.RowCount(); i++ {
		key := ds.Cell(i, feature)
		if key == "" {
			continue
		}
		v, ok := domain.NumericValue(ds.Cell(i, aggregateCol))
		if !ok && fn != AggCount {
			continue
		}
		counts[key]++
		sums[key] += v
		if cur, seen := mins[key]; !seen || v < cur {
			mins[key] = v
		}
		if cur, seen := maxs[key]; !seen || v > cur {
			maxs[key] = v
		}
	}

	out := make(map[string]float64, len(counts))
	for key, n := range counts {
		switch fn {
		case AggSum:
			out[key] = sums[key]
		case AggMean:
			out[key] = sums[key] / float64(n)
		case AggCount:
			out[key] = float64(n)
		case AggMin:
			out[key] = mins[key]
		case AggMax:
			out[key] = maxs[key]
		default:
			return nil, fmt.Errorf("unsupported aggregate function %q", fn)
		}
	}
	return out, nil
}

// MonthlyTrend sums total_amount per month_year, sorted ascending. Rows
// without a derivable month are skipped.
func MonthlyTrend(ds *domain.Dataset) (labels []string, values []float64, err error) {
	grouped, err := GroupByFeature(ds, domain.ColMonthYear, domain.ColTotalAmount, AggSum)
	if err != nil {
		return nil, nil, err
	}
	labels = sortedKeys(grouped)
	for _, l := range labels {
		values = append(values, grouped[l])
	}
	return labels, values, nil
}

// MoMGrowth is the relative change between the last two months, as a
// fraction. Needs at least two months and a non-zero previous month.
func MoMGrowth(values []float64) (float64, bool) {
	if len(values) < 2 || values[len(values)-2] == 0 {
		return 0, false
	}
	prev := values[len(values)-2]
	cur := values[len(values)-1]
	return (cur - prev) / prev, true
}

// CompoundGrowthRate derives the average monthly growth rate across the
// whole series: (last/first)^(1/n) - 1.
func CompoundGrowthRate(values []float64) (float64, bool) {
	if len(values) < 3 || values[0] <= 0 || values[len(values)-1] <= 0 {
		return 0, false
	}
	n := float64(len(values) - 1)
	return math.Pow(values[len(values)-1]/values[0], 1/n) - 1, true
}

// Forecast projects the last month forward by compounding the growth rate.
func Forecast(last, monthlyRate float64, months int) float64 {
	return last * math.Pow(1+monthlyRate, float64(months))
}

// DayOfWeekSales totals total_amount per weekday in Monday-first order.
// Weekdays with no parseable rows are omitted from the result maps but keep
// their slot in the ordered labels when present.
func DayOfWeekSales(ds *domain.Dataset) (labels []string, values []float64, err error) {
	if ds == nil || ds.RowCount() == 0 {
		return nil, nil, fmt.Errorf("%w: cannot compute weekday sales", domain.ErrNoData)
	}
	if !ds.HasColumn(domain.ColTimestamp) || !ds.HasColumn(domain.ColTotalAmount) {
		return nil, nil, nil
	}

	totals := map[string]float64{}
	for i := 0; i < ds.RowCount(); i++ {
		t, ok := schema.ParseTimestamp(ds.Cell(i, domain.ColTimestamp))
		if !ok {
			continue
		}
		v, ok := domain.NumericValue(ds.Cell(i, domain.ColTotalAmount))
		if !ok {
			continue
		}
		totals[weekdayName(t)] += v
	}

	for _, day := range weekdayOrder {
		if v, ok := totals[day]; ok {
			labels = append(labels, day)
			values = append(values, v)
		}
	}
	return labels, values, nil
}

// BestAndWorst returns the labels holding the max and min values. Both are
// empty for an empty series.
func BestAndWorst(labels []string, values []float64) (best, worst string) {
	if len(labels) == 0 || len(labels) != len(values) {
		return "", ""
	}
	bi, wi := 0, 0
	for i, v := range values {
		if v > values[bi] {
			bi = i
		}
		if v < values[wi] {
			wi = i
		}
	}
	return labels[bi], labels[wi]
}

// AgeGroupRevenue buckets customer_age and sums total_amount per bucket,
// in bucket order.
func AgeGroupRevenue(ds *domain.Dataset) (labels []string, values []float64, err error) {
	if ds == nil || ds.RowCount() == 0 {
		return nil, nil, fmt.Errorf("%w: cannot bucket ages", domain.ErrNoData)
	}
	if !ds.HasColumn("customer_age") || !ds.HasColumn(domain.ColTotalAmount) {
		return nil, nil, nil
	}

	totals := make([]float64, len(ageBinLabels))
	seen := make([]bool, len(ageBinLabels))
	for i := 0; i < ds.RowCount(); i++ {
		age, ok := domain.NumericValue(ds.Cell(i, "customer_age"))
		if !ok {
			continue
		}
		bin := ageBin(age)
		if bin < 0 {
			continue
		}
		v, ok := domain.NumericValue(ds.Cell(i, domain.ColTotalAmount))
		if !ok {
			continue
		}
		totals[bin] += v
		seen[bin] = true
	}

	for i, label := range ageBinLabels {
		if seen[i] {
			labels = append(labels, label)
			values = append(values, totals[i])
		}
	}
	return labels, values, nil
}

// SeasonalityMonths averages total_amount by calendar month and returns the
// three strongest and weakest month names. Requires at least a year of
// distinct months.
func SeasonalityMonths(ds *domain.Dataset) (high, low []string, ok bool) {
	monthLabels, _, err := MonthlyTrend(ds)
	if err != nil || len(monthLabels) < 12 {
		return nil, nil, false
	}

	sums := map[time.Month]float64{}
	counts := map[time.Month]int{}
	for i := 0; i < ds.RowCount(); i++ {
		t, parsed := schema.ParseTimestamp(ds.Cell(i, domain.ColTimestamp))
		if !parsed {
			continue
		}
		v, numeric := domain.NumericValue(ds.Cell(i, domain.ColTotalAmount))
		if !numeric {
			continue
		}
		sums[t.Month()] += v
		counts[t.Month()]++
	}
	if len(counts) == 0 {
		return nil, nil, false
	}

	type monthAvg struct {
		m   time.Month
		avg float64
	}
	var avgs []monthAvg
	for m, n := range counts {
		avgs = append(avgs, monthAvg{m, sums[m] / float64(n)})
	}
	sort.Slice(avgs, func(i, j int) bool { return avgs[i].avg > avgs[j].avg })

	for i := 0; i < 3 && i < len(avgs); i++ {
		high = append(high, avgs[i].m.String())
	}
	for i := len(avgs) - 1; i >= 0 && len(low) < 3; i-- {
		low = append(low, avgs[i].m.String())
	}
	return high, low, true
}

// SummaryStatistics describes every numeric column.
type ColumnStats struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Max    float64
}

func SummaryStatistics(ds *domain.Dataset) ([]ColumnStats, error) {
	if ds == nil || ds.RowCount() == 0 {
		return nil, fmt.Errorf("%w: cannot summarize", domain.ErrNoData)
	}

	var stats []ColumnStats
	for _, col := range ds.Columns {
		if !ds.IsNumericColumn(col) {
			continue
		}
		values := ds.NumericColumn(col)
		if len(values) == 0 {
			continue
		}
		s := ColumnStats{Column: col, Count: len(values)}
		s.Min, s.Max = values[0], values[0]
		var sum float64
		for _, v := range values {
			sum += v
			if v < s.Min {
				s.Min = v
			}
			if v > s.Max {
				s.Max = v
			}
		}
		s.Mean = sum / float64(len(values))
		var sq float64
		for _, v := range values {
			sq += (v - s.Mean) * (v - s.Mean)
		}
		if len(values) > 1 {
			s.Std = math.Sqrt(sq / float64(len(values)-1))
		}
		stats = append(stats, s)
	}
	return stats, nil
}

// TotalSales sums total_amount over the whole dataset.
func TotalSales(ds *domain.Dataset) float64 {
	var total float64
	for _, v := range ds.NumericColumn(domain.ColTotalAmount) {
		total += v
	}
	return total
}

// AverageOrderValue is the mean of total_amount.
func AverageOrderValue(ds *domain.Dataset) float64 {
	values := ds.NumericColumn(domain.ColTotalAmount)
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func ageBin(age float64) int {
	for i := 0; i < len(ageBinEdges)-1; i++ {
		if age > ageBinEdges[i] && age <= ageBinEdges[i+1] {
			return i
		}
	}
	return -1
}

func weekdayName(t time.Time) string {
	return t.Weekday().String()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SortedByValue returns labels and values ordered by descending value,
// which is how category breakdowns are presented.
func SortedByValue(m map[string]float64) (labels []string, values []float64) {
	labels = make([]string, 0, len(m))
	for k := range m {
		labels = append(labels, k)
	}
	sort.Slice(labels, func(i, j int) bool {
		if m[labels[i]] != m[labels[j]] {
			return m[labels[i]] > m[labels[j]]
		}
		return labels[i] < labels[j]
	})
	for _, l := range labels {
		values = append(values, m[l])
	}
	return labels, values
}
