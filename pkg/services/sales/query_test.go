package sales

import (
	"context"
	"testing"

	"github.com/bi-tools/insighthub/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func querySalesDataset() *domain.Dataset {
	return &domain.Dataset{
		Columns: []string{"quantity", "price", "discount", "total_amount", "product_category", "month_year", "timestamp"},
		Rows: [][]string{
			{"2", "10", "0", "20", "Electronics", "2024-01", "2024-01-10"},
			{"1", "30", "0.1", "27", "Electronics", "2024-02", "2024-02-14"},
			{"3", "5", "0", "15", "Books", "2024-02", "2024-02-20"},
			{"4", "8", "0.2", "25.6", "Books", "2024-03", "2024-03-02"},
			{"2", "12", "0", "24", "Garden", "2024-03", "2024-03-15"},
		},
	}
}

func TestProcessQuery_RoutesToCategories(t *testing.T) {
	s := NewQueryService(NewPredictor())

	out, err := s.ProcessQuery(context.Background(), querySalesDataset(), "show me the top product categories")
	require.NoError(t, err)
	assert.Contains(t, out, "Product Category Analysis")
	assert.Contains(t, out, "Electronics")
}

func TestProcessQuery_RoutesToTrends(t *testing.T) {
	s := NewQueryService(NewPredictor())

	out, err := s.ProcessQuery(context.Background(), querySalesDataset(), "what is the sales trend over time?")
	require.NoError(t, err)
	assert.Contains(t, out, "Monthly Sales Trend")
	assert.Contains(t, out, "2024-01")
}

func TestProcessQuery_UnknownFallsBackToOverview(t *testing.T) {
	s := NewQueryService(NewPredictor())

	out, err := s.ProcessQuery(context.Background(), querySalesDataset(), "zzz")
	require.NoError(t, err)
	assert.Contains(t, out, "Sales Data Overview")
}

func TestProcessQuery_Prediction(t *testing.T) {
	s := NewQueryService(NewPredictor())

	out, err := s.ProcessQuery(context.Background(), linearSalesDataset(40),
		"predict total for quantity 4, price 20, discount 0.2")
	require.NoError(t, err)
	assert.Contains(t, out, "Predicted total sales for quantity 4, price 20, discount 0.2")
}

func TestProcessQuery_NoData(t *testing.T) {
	s := NewQueryService(NewPredictor())

	_, err := s.ProcessQuery(context.Background(), &domain.Dataset{}, "overview")
	assert.ErrorIs(t, err, domain.ErrNoData)
}

func TestComposeAnalysis_Overview(t *testing.T) {
	out, err := ComposeAnalysis(querySalesDataset(), AnalysisOverview)
	require.NoError(t, err)

	assert.Contains(t, out, "**5** transactions")
	assert.Contains(t, out, "Top Categories by Revenue")
	assert.Contains(t, out, "Recommendations")
}

func TestComposeAnalysis_CategoriesAllZeroRevenue(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{"product_category", "total_amount"},
		Rows: [][]string{
			{"Electronics", "0"},
			{"Clothing", "0"},
			{"Home", "0"},
		},
	}

	out, err := ComposeAnalysis(ds, AnalysisCategories)
	require.NoError(t, err)
	assert.NotContains(t, out, "NaN")
	assert.Contains(t, out, "0.0% market share")
}

func TestComposeAnalysis_DemographicsWithoutColumns(t *testing.T) {
	out, err := ComposeAnalysis(querySalesDataset(), AnalysisDemographics)
	require.NoError(t, err)
	assert.Contains(t, out, "missing from the data")
}
