package schema

import (
	"strings"

	"github.com/bi-tools/insighthub/pkg/models/domain"
)

// Domain indicator keywords, matched as substrings of the lowercased
// space-joined header. Order matters: the first family with a hit wins, so
// a table with both "price" and "rating" classifies as sales.
var (
	salesIndicators     = []string{"sales", "revenue", "price", "product", "customer", "order"}
	inventoryIndicators = []string{"inventory", "stock", "warehouse", "supplier"}
	marketingIndicators = []string{"campaign", "channel", "ad", "marketing", "social"}
	reviewIndicators    = []string{"review", "rating", "comment", "feedback", "asin", "reviewtext", "overall"}
)

// Role keywords for the review content sniff.
var (
	reviewTextTerms   = []string{"review", "text", "comment", "feedback", "summary"}
	reviewRatingTerms = []string{"rating", "star", "score", "overall"}
	reviewIDTerms     = []string{"id", "product", "asin", "item"}
)

const (
	sniffRows       = 10
	minSniffTextLen = 20
)

// Classify scans the dataset's header for domain indicator keywords and
// returns the matched department with the indicators that fired. Datasets
// matching nothing are classified general.
func Classify(ds *domain.Dataset) (domain.Department, []string) {
	joined := ds.JoinedColumns()

	families := []struct {
		dept       domain.Department
		indicators []string
	}{
		{domain.DepartmentSales, salesIndicators},
		{domain.DepartmentInventory, inventoryIndicators},
		{domain.DepartmentMarketing, marketingIndicators},
		{domain.DepartmentReviews, reviewIndicators},
	}

	for _, f := range families {
		var matched []string
		for _, ind := range f.indicators {
			if strings.Contains(joined, ind) {
				matched = append(matched, ind)
			}
		}
		if len(matched) > 0 {
			return f.dept, matched
		}
	}
	return domain.DepartmentGeneral, nil
}

// LooksLikeReviews reports whether a dataset is review data regardless of
// what Classify said. Canonical review columns are accepted outright; any
// other header needs a text, rating and id column plus a content check over
// a short row prefix: ratings inside the 1..5 star range and review text
// averaging more than a trivial length.
func LooksLikeReviews(ds *domain.Dataset) bool {
	if ds.HasColumn(domain.ColASIN) && ds.HasColumn(domain.ColReviewText) && ds.HasColumn(domain.ColOverall) {
		return true
	}
	if ds.ColumnCount() < 3 {
		return false
	}

	textCol := columnMatching(ds, reviewTextTerms)
	ratingCol := columnMatching(ds, reviewRatingTerms)
	idCol := columnMatching(ds, reviewIDTerms)
	if textCol == "" || ratingCol == "" || idCol == "" {
		return false
	}

	rows := ds.RowCount()
	if rows > sniffRows {
		rows = sniffRows
	}

	var textLen, rated int
	for i := 0; i < rows; i++ {
		rating, ok := domain.NumericValue(ds.Cell(i, ratingCol))
		if !ok || rating < 1 || rating > 5 {
			return false
		}
		rated++
		textLen += len(ds.Cell(i, textCol))
	}
	if rated == 0 {
		return false
	}
	return float64(textLen)/float64(rated) > minSniffTextLen
}

func columnMatching(ds *domain.Dataset, terms []string) string {
	for _, col := range ds.Columns {
		lower := strings.ToLower(col)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				return col
			}
		}
	}
	return ""
}
