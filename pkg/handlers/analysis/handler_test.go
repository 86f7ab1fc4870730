package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/bi-tools/insighthub/pkg/models/api"
	"github.com/bi-tools/insighthub/pkg/models/domain"
	"github.com/bi-tools/insighthub/pkg/services/report"
	"github.com/bi-tools/insighthub/pkg/services/reviews"
	"github.com/bi-tools/insighthub/pkg/services/sales"
	"github.com/bi-tools/insighthub/pkg/services/session"
	"github.com/bi-tools/insighthub/pkg/store/catalog"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salesCSV = "quantity,price,discount,total_amount,product_category,timestamp\n" +
	"2,10,0,20,Electronics,2024-01-10\n" +
	"1,50,0.1,45,Clothing,2024-01-15\n" +
	"3,10,0,30,Electronics,2024-02-03\n" +
	"2,25,0,50,Home,2024-02-20\n"

const reviewCSV = "asin,reviewText,overall,summary,category\n" +
	"B001,Great battery life and I love using this phone every day,5,Great,Electronics\n" +
	"B001,The battery died fast and the quality is terrible overall,1,Bad,Electronics\n" +
	"B002,Comfortable chair with decent quality for the price point,4,Good,Home\n"

type fixture struct {
	handler *Handler
	catalog *catalog.Catalog
	router  chi.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat, err := catalog.New(t.TempDir())
	require.NoError(t, err)

	predictor := sales.NewPredictor()
	registry := session.NewRegistry(
		session.New(domain.DepartmentSales, nil),
		session.New(domain.DepartmentReviews, nil),
		session.New(domain.DepartmentInventory, nil),
		session.New(domain.DepartmentGeneral, nil),
	)
	analyzer := reviews.NewAnalyzer()

	h := NewHandler(
		cat,
		registry,
		report.NewComposer(analyzer),
		sales.NewQueryService(predictor),
		reviews.NewQueryService(nil, analyzer),
		analyzer,
		nil,
	)

	r := chi.NewRouter()
	r.Get("/health", h.Health)
	r.Get("/departments", h.Departments)
	r.Get("/department/{name}", h.DepartmentData)
	r.Post("/analyze", h.Analyze)
	r.Get("/analyze/{department}/{file_id}", h.Analyze)
	r.Post("/query", h.Query)
	r.Post("/sales-agent/query", h.SalesAgentQuery)
	r.Post("/review-agent/query", h.ReviewAgentQuery)
	r.Get("/visualizations/{type}", h.Visualization)
	r.Get("/summary", h.ReviewSummary)
	r.Get("/sentiment", h.Sentiment)
	r.Get("/keywords", h.Keywords)
	r.Get("/topics", h.Topics)
	r.Get("/summarize", h.SummarizeReviews)
	r.Get("/reviews/asin-summary", h.ASINSummary)

	return &fixture{handler: h, catalog: cat, router: r}
}

func (f *fixture) storeFile(t *testing.T, dept domain.Department, name, content string) string {
	t.Helper()
	dir := filepath.Join(f.catalog.Root(), string(dept))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (f *fixture) loadPipeline(t *testing.T, dept domain.Department, path string) {
	t.Helper()
	_, err := f.handler.pipelines.Get(dept).LoadFiles(context.Background(), []string{path})
	require.NoError(t, err)
}

func (f *fixture) do(method, target string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewBuffer(raw)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestDepartments_AlwaysIncludesDefaults(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/departments", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.DepartmentsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.ElementsMatch(t, []string{"sales", "inventory", "reviews"}, resp.Departments)
}

func TestAnalyze_SalesByFileID(t *testing.T) {
	f := newFixture(t)
	f.storeFile(t, domain.DepartmentSales, "q1.csv", salesCSV)

	rec := f.do(http.MethodPost, "/analyze", api.QueryRequest{Department: "sales", FileID: "q1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.AnalysisResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "sales", resp.Department)
	assert.Contains(t, resp.ChartData, "sales_over_time")
	assert.Contains(t, resp.ChartData, "sales_by_category")
	assert.NotEmpty(t, resp.Insights.Summary)
	assert.NotEmpty(t, resp.Insights.Recommendations)
}

func TestAnalyze_AcceptsMinimalSalesFile(t *testing.T) {
	f := newFixture(t)
	f.storeFile(t, domain.DepartmentSales, "minimal.csv",
		"transaction_id,product_category,total_amount\n1,A,5\n2,A,10\n3,B,20\n")

	rec := f.do(http.MethodGet, "/analyze/sales/minimal", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.AnalysisResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Contains(t, resp.ChartData, "sales_by_category")
	chart := resp.ChartData["sales_by_category"]
	assert.Equal(t, []string{"B", "A"}, chart.Labels)
	assert.Equal(t, []float64{20, 15}, chart.Values)
}

func TestAnalyze_GetRouteMatchesPost(t *testing.T) {
	f := newFixture(t)
	f.storeFile(t, domain.DepartmentSales, "q1.csv", salesCSV)

	rec := f.do(http.MethodGet, "/analyze/sales/q1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.AnalysisResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "q1", resp.FileID)
}

func TestAnalyze_Reviews(t *testing.T) {
	f := newFixture(t)
	f.storeFile(t, domain.DepartmentReviews, "reviews.csv", reviewCSV)

	rec := f.do(http.MethodPost, "/analyze", api.QueryRequest{Department: "reviews", FileID: "reviews"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.AnalysisResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp.ChartData, "rating_distribution")
	assert.Contains(t, resp.ChartData, "sentiment_distribution")
	assert.Contains(t, resp.ChartData, "common_words")
}

func TestAnalyze_UnknownFile(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/analyze", api.QueryRequest{Department: "sales", FileID: "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalyze_NoDataLoaded(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/analyze", api.QueryRequest{Department: "sales"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuery_RoutesToSales(t *testing.T) {
	f := newFixture(t)
	path := f.storeFile(t, domain.DepartmentSales, "q1.csv", salesCSV)
	f.loadPipeline(t, domain.DepartmentSales, path)

	rec := f.do(http.MethodPost, "/query", api.QueryRequest{Query: "show me the top categories"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.QueryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Response, "Category")
}

func TestSalesAgentQuery_MissingQuery(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/sales-agent/query", api.QueryRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "No query provided. Please include a 'query' field in your request.", resp.Error)
}

func TestReviewAgentQuery_NoDataLoaded(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/review-agent/query", api.QueryRequest{Query: "overview"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "No review data is available for analysis. Please upload review data first.", resp.Error)
	assert.Equal(t, "I need review data to analyze. Please upload some review files first.", resp.Response)
}

func TestReviewAgentQuery_WrongShape(t *testing.T) {
	f := newFixture(t)
	f.storeFile(t, domain.DepartmentReviews, "sales.csv", salesCSV)

	rec := f.do(http.MethodPost, "/review-agent/query", api.QueryRequest{Query: "overview", FileID: "sales"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp.Error, "does not appear to be review data")
	assert.Contains(t, resp.Response, "Please upload review data")
}

func TestReviewAgentQuery_Succeeds(t *testing.T) {
	f := newFixture(t)
	path := f.storeFile(t, domain.DepartmentReviews, "reviews.csv", reviewCSV)
	f.loadPipeline(t, domain.DepartmentReviews, path)

	rec := f.do(http.MethodPost, "/review-agent/query", api.QueryRequest{Query: "give me the statistics"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.QueryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp.Response, "Total reviews: 3")
}

func TestDepartmentData(t *testing.T) {
	f := newFixture(t)
	path := f.storeFile(t, domain.DepartmentReviews, "reviews.csv", reviewCSV)
	f.loadPipeline(t, domain.DepartmentReviews, path)

	rec := f.do(http.MethodGet, "/department/reviews", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.DepartmentDataResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Files, 1)
	assert.Equal(t, "reviews.csv", resp.Files[0].FileName)
	assert.Equal(t, 3, resp.Files[0].RecordCount)
	require.NotNil(t, resp.Combined)
	assert.Equal(t, 3, resp.Combined.ReviewCount)
	assert.InDelta(t, 10.0/3.0, resp.Combined.AverageRating, 1e-9)
}

func TestDepartmentData_UnknownDepartment(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/department/finance", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVisualization_Rating(t *testing.T) {
	f := newFixture(t)
	path := f.storeFile(t, domain.DepartmentReviews, "reviews.csv", reviewCSV)
	f.loadPipeline(t, domain.DepartmentReviews, path)

	rec := f.do(http.MethodGet, "/visualizations/rating", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.VisualizationResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "rating", resp.Type)
	assert.Equal(t, []string{"1 Stars", "4 Stars", "5 Stars"}, resp.Chart.Labels)
}

func TestVisualization_UnknownType(t *testing.T) {
	f := newFixture(t)
	path := f.storeFile(t, domain.DepartmentReviews, "reviews.csv", reviewCSV)
	f.loadPipeline(t, domain.DepartmentReviews, path)

	rec := f.do(http.MethodGet, "/visualizations/heatmap", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestASINSummary(t *testing.T) {
	f := newFixture(t)
	path := f.storeFile(t, domain.DepartmentReviews, "reviews.csv", reviewCSV)
	f.loadPipeline(t, domain.DepartmentReviews, path)

	rec := f.do(http.MethodGet, "/reviews/asin-summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.ASINSummaryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Summary, 2)
	assert.Equal(t, "B001", resp.Summary[0].ASIN)
	assert.Equal(t, 2, resp.Summary[0].ReviewCount)
	assert.InDelta(t, 3.0, resp.Summary[0].AverageRating, 1e-9)
}

func TestASINSummary_SynthesizesMissingColumns(t *testing.T) {
	f := newFixture(t)
	f.storeFile(t, domain.DepartmentReviews, "noasin.csv",
		"reviewText\nWorks fine\nBroke quickly\n")

	rec := f.do(http.MethodGet, "/reviews/asin-summary?file_id=noasin&synthesize=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.ASINSummaryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Synthesized)
	require.Len(t, resp.Summary, 2)
	assert.Equal(t, "PRODUCT_1", resp.Summary[0].ASIN)
	assert.InDelta(t, 3.0, resp.Summary[0].AverageRating, 1e-9)
}

func TestASINSummary_MissingColumnsWithoutOptIn(t *testing.T) {
	f := newFixture(t)
	f.storeFile(t, domain.DepartmentReviews, "noasin.csv",
		"reviewText\nWorks fine\n")

	rec := f.do(http.MethodGet, "/reviews/asin-summary?file_id=noasin", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTopics(t *testing.T) {
	f := newFixture(t)
	path := f.storeFile(t, domain.DepartmentReviews, "reviews.csv", reviewCSV)
	f.loadPipeline(t, domain.DepartmentReviews, path)

	rec := f.do(http.MethodGet, "/topics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.TopicsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	require.NotEmpty(t, resp.Topics)
	assert.Equal(t, "battery", resp.Topics[0].Word)
}

func TestReviewSummary(t *testing.T) {
	f := newFixture(t)
	path := f.storeFile(t, domain.DepartmentReviews, "reviews.csv", reviewCSV)
	f.loadPipeline(t, domain.DepartmentReviews, path)

	rec := f.do(http.MethodGet, "/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.ReviewSummaryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 3, resp.TotalReviews)
	assert.Equal(t, 2, resp.UniqueProducts)
	assert.Equal(t, map[string]int{"1": 1, "4": 1, "5": 1}, resp.RatingDistribution)
}

func TestSentimentEndpoint(t *testing.T) {
	f := newFixture(t)
	path := f.storeFile(t, domain.DepartmentReviews, "reviews.csv", reviewCSV)
	f.loadPipeline(t, domain.DepartmentReviews, path)

	rec := f.do(http.MethodGet, "/sentiment", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.SentimentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Distribution)
}

func TestKeywordsEndpoint(t *testing.T) {
	f := newFixture(t)
	path := f.storeFile(t, domain.DepartmentReviews, "reviews.csv", reviewCSV)
	f.loadPipeline(t, domain.DepartmentReviews, path)

	rec := f.do(http.MethodGet, "/keywords?max=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.KeywordsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.Keywords)
	assert.Equal(t, "battery", resp.Keywords[0].Word)
}

func TestSummarizeEndpoint(t *testing.T) {
	f := newFixture(t)
	path := f.storeFile(t, domain.DepartmentReviews, "reviews.csv", reviewCSV)
	f.loadPipeline(t, domain.DepartmentReviews, path)

	rec := f.do(http.MethodGet, "/summarize?asin=B001", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.SummarizeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "B001", resp.ASIN)
	assert.Contains(t, resp.Summary, "Based on 2 reviews")
}
