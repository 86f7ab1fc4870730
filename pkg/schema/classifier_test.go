package schema

import (
	"testing"

	"github.com/bi-tools/insighthub/pkg/models/domain"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		want    domain.Department
	}{
		{"sales by revenue", []string{"revenue", "region"}, domain.DepartmentSales},
		{"sales by product", []string{"product_name", "quantity"}, domain.DepartmentSales},
		{"inventory", []string{"stock_level", "warehouse"}, domain.DepartmentInventory},
		{"marketing", []string{"campaign", "impressions"}, domain.DepartmentMarketing},
		{"reviews", []string{"asin", "reviewText", "overall"}, domain.DepartmentReviews},
		{"general", []string{"foo", "bar"}, domain.DepartmentGeneral},
		// "price" fires before any review indicator, so mixed headers
		// land in sales.
		{"sales wins over reviews", []string{"price", "rating"}, domain.DepartmentSales},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := &domain.Dataset{Columns: tt.columns}
			dept, _ := Classify(ds)
			assert.Equal(t, tt.want, dept)
		})
	}
}

func TestClassify_ReportsMatchedIndicators(t *testing.T) {
	ds := &domain.Dataset{Columns: []string{"product", "order_id", "customer_name"}}
	dept, matched := Classify(ds)

	assert.Equal(t, domain.DepartmentSales, dept)
	assert.ElementsMatch(t, []string{"product", "customer", "order"}, matched)
}

func TestLooksLikeReviews_CanonicalColumns(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{"asin", "reviewText", "overall"},
		Rows:    [][]string{{"B0001", "great", "5"}},
	}
	assert.True(t, LooksLikeReviews(ds))
}

func TestLooksLikeReviews_ContentSniff(t *testing.T) {
	longText := "This product exceeded my expectations in every possible way."
	ds := &domain.Dataset{
		Columns: []string{"product_id", "customer_review", "star_rating"},
		Rows: [][]string{
			{"P1", longText, "5"},
			{"P2", longText, "3"},
		},
	}
	assert.True(t, LooksLikeReviews(ds))
}

func TestLooksLikeReviews_RejectsOutOfRangeRatings(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{"product_id", "customer_review", "star_rating"},
		Rows: [][]string{
			{"P1", "long enough review text to pass the length check", "87"},
		},
	}
	assert.False(t, LooksLikeReviews(ds))
}

func TestLooksLikeReviews_RejectsShortText(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{"product_id", "customer_review", "star_rating"},
		Rows: [][]string{
			{"P1", "ok", "4"},
			{"P2", "bad", "1"},
		},
	}
	assert.False(t, LooksLikeReviews(ds))
}

func TestLooksLikeReviews_NeedsAllThreeRoles(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{"customer_review", "star_rating", "region"},
		Rows: [][]string{
			{"a perfectly reasonable review text for sniffing", "4", "EU"},
		},
	}
	assert.False(t, LooksLikeReviews(ds))
}
