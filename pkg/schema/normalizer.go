package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bi-tools/insighthub/pkg/models/domain"
)

// reviewAliases maps common vendor headers to the canonical review schema.
// The alias values are copied into a new canonical column, and only when the
// canonical column is absent, so normalizing an already-canonical dataset is
// a no-op and the original headers always survive.
var reviewAliases = []struct {
	alias     string
	canonical string
}{
	{"product_id", domain.ColASIN},
	{"product", domain.ColASIN},
	{"id", domain.ColASIN},
	{"rating", domain.ColOverall},
	{"star_rating", domain.ColOverall},
	{"stars", domain.ColOverall},
	{"text", domain.ColReviewText},
	{"review", domain.ColReviewText},
	{"review_text", domain.ColReviewText},
	{"title", domain.ColSummary},
	{"review_title", domain.ColSummary},
}

var requiredReviewColumns = []string{
	domain.ColASIN,
	domain.ColReviewText,
	domain.ColOverall,
	domain.ColSummary,
}

var requiredSalesColumns = []string{
	domain.ColQuantity,
	domain.ColPrice,
	domain.ColDiscount,
	domain.ColTotalAmount,
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
	"2006/01/02",
}

// PrepareReviews returns a copy with aliased review columns mapped onto the
// canonical schema. No columns are required; per-chart aggregation degrades
// on its own when one is absent.
func PrepareReviews(ds *domain.Dataset) *domain.Dataset {
	out := ds.Copy()
	applyAliases(out)
	return out
}

// NormalizeReviews prepares the dataset for the review pipeline and verifies
// the required columns are present after aliasing.
func NormalizeReviews(ds *domain.Dataset) (*domain.Dataset, error) {
	out := PrepareReviews(ds)
	if missing := missingColumns(out, requiredReviewColumns); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing review columns %v", domain.ErrSchema, missing)
	}
	return out, nil
}

// PrepareSales returns a copy with a timestamp column resolved from common
// time headers and year plus month_year derived. Purely additive; nothing
// is required.
func PrepareSales(ds *domain.Dataset) *domain.Dataset {
	out := ds.Copy()
	resolveTimestamp(out)
	deriveTimeColumns(out)
	return out
}

// NormalizeSales prepares the dataset for the sales pipeline and verifies
// the numeric columns the predictor and agent aggregates depend on.
func NormalizeSales(ds *domain.Dataset) (*domain.Dataset, error) {
	out := PrepareSales(ds)
	if missing := missingColumns(out, requiredSalesColumns); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing sales columns %v", domain.ErrSchema, missing)
	}
	return out, nil
}

func applyAliases(ds *domain.Dataset) {
	for _, m := range reviewAliases {
		if ds.HasColumn(m.canonical) {
			continue
		}
		for _, col := range ds.Columns {
			if strings.EqualFold(col, m.alias) {
				values, _ := ds.Column(col)
				ds.AddColumn(m.canonical, values)
				break
			}
		}
	}
}

func resolveTimestamp(ds *domain.Dataset) {
	if ds.HasColumn(domain.ColTimestamp) {
		return
	}
	if ds.HasColumn("transaction_timestamp") {
		copyColumn(ds, "transaction_timestamp", domain.ColTimestamp)
		return
	}
	for _, col := range ds.Columns {
		lower := strings.ToLower(col)
		if strings.Contains(lower, "date") || strings.Contains(lower, "time") {
			copyColumn(ds, col, domain.ColTimestamp)
			return
		}
	}
}

func copyColumn(ds *domain.Dataset, from, to string) {
	values, ok := ds.Column(from)
	if !ok {
		return
	}
	ds.AddColumn(to, values)
}

// deriveTimeColumns adds year and month_year columns parsed from the
// timestamp. Unparseable cells yield empty derived cells rather than
// failing the whole dataset. Existing derived columns are left alone.
func deriveTimeColumns(ds *domain.Dataset) {
	if !ds.HasColumn(domain.ColTimestamp) {
		return
	}
	addYear := !ds.HasColumn(domain.ColYear)
	addMonth := !ds.HasColumn(domain.ColMonthYear)
	if !addYear && !addMonth {
		return
	}

	years := make([]string, ds.RowCount())
	months := make([]string, ds.RowCount())
	for i := range ds.Rows {
		t, ok := ParseTimestamp(ds.Cell(i, domain.ColTimestamp))
		if !ok {
			continue
		}
		years[i] = strconv.Itoa(t.Year())
		months[i] = t.Format("2006-01")
	}
	if addYear {
		ds.AddColumn(domain.ColYear, years)
	}
	if addMonth {
		ds.AddColumn(domain.ColMonthYear, months)
	}
}

// ParseTimestamp tries the known layouts in order.
func ParseTimestamp(cell string) (time.Time, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	// Unix seconds show up in review exports.
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil && secs > 1e8 && secs < 1e11 {
		return time.Unix(secs, 0).UTC(), true
	}
	return time.Time{}, false
}

func missingColumns(ds *domain.Dataset, required []string) []string {
	var missing []string
	for _, col := range required {
		if !ds.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	return missing
}
