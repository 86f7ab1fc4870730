package analysis

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bi-tools/insighthub/pkg/ingest"
	"github.com/bi-tools/insighthub/pkg/models/api"
	"github.com/bi-tools/insighthub/pkg/models/domain"
	"github.com/bi-tools/insighthub/pkg/schema"
	"github.com/bi-tools/insighthub/pkg/services/narrative"
	"github.com/bi-tools/insighthub/pkg/services/report"
	"github.com/bi-tools/insighthub/pkg/services/reviews"
	"github.com/bi-tools/insighthub/pkg/services/sales"
	"github.com/bi-tools/insighthub/pkg/services/session"
	"github.com/bi-tools/insighthub/pkg/store/catalog"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const topicTermCap = 15

type Handler struct {
	catalog       *catalog.Catalog
	pipelines     *session.Registry
	composer      *report.Composer
	salesQueries  *sales.QueryService
	reviewQueries *reviews.QueryService
	analyzer      *reviews.Analyzer
	narrator      reviews.Narrator
}

func NewHandler(
	cat *catalog.Catalog,
	pipelines *session.Registry,
	composer *report.Composer,
	salesQueries *sales.QueryService,
	reviewQueries *reviews.QueryService,
	analyzer *reviews.Analyzer,
	narrator reviews.Narrator,
) *Handler {
	return &Handler{
		catalog:       cat,
		pipelines:     pipelines,
		composer:      composer,
		salesQueries:  salesQueries,
		reviewQueries: reviewQueries,
		analyzer:      analyzer,
		narrator:      narrator,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(api.HealthResponse{Status: "ok"})
}

// Departments lists every department holding data, always including the
// default trio so fresh installs render a usable dashboard.
func (h *Handler) Departments(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	seen := map[domain.Department]bool{}
	var out []string
	for _, dept := range domain.DefaultDepartments {
		seen[dept] = true
		out = append(out, string(dept))
	}
	for _, dept := range h.catalog.Departments() {
		if !seen[dept] {
			out = append(out, string(dept))
		}
	}

	if err := json.NewEncoder(w).Encode(api.DepartmentsResponse{Success: true, Departments: out}); err != nil {
		logger.Error().Err(err).Msg("failed to encode departments")
	}
}

// Analyze builds the full chart-and-insights envelope for one department,
// optionally loading a specific stored file first.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req api.QueryRequest
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", "")
			return
		}
	} else {
		req.Department = chi.URLParam(r, "department")
		req.FileID = chi.URLParam(r, "file_id")
	}
	h.analyze(w, r, req)
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request, req api.QueryRequest) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	dept := domain.ParseDepartment(req.Department)
	if !dept.Valid() {
		dept = domain.DepartmentSales
	}

	ds, err := h.datasetLenient(r, dept, req.FileID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	text, err := h.analysisText(r, dept, ds)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	text = narrative.NormalizeMarkdown(text)

	response := api.AnalysisResponse{
		Success:    true,
		Department: string(dept),
		FileID:     req.FileID,
		ChartData:  h.composer.Compose(ctx, ds, dept, text),
		Insights:   report.ComposeInsights(text),
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().Err(err).Msg("failed to encode analysis")
	}
}

func (h *Handler) analysisText(r *http.Request, dept domain.Department, ds *domain.Dataset) (string, error) {
	if dept == domain.DepartmentReviews {
		return reviews.ComposeAnalysis(r.Context(), ds, h.narrator, h.analyzer)
	}
	return sales.ComposeAnalysis(ds, sales.AnalysisOverview)
}

// Query routes a free-text question to the department's agent.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeQuery(w, r)
	if !ok {
		return
	}
	dept := domain.ParseDepartment(req.Department)
	if !dept.Valid() {
		dept = domain.DepartmentSales
	}
	h.runQuery(w, r, dept, req)
}

// SalesAgentQuery always answers with the sales agent.
func (h *Handler) SalesAgentQuery(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeQuery(w, r)
	if !ok {
		return
	}
	h.runQuery(w, r, domain.DepartmentSales, req)
}

var reviewRequiredColumns = []string{domain.ColReviewText, domain.ColOverall, domain.ColASIN}

// ReviewAgentQuery always answers with the review agent, validating that
// review-shaped data is actually loaded before running anything.
func (h *Handler) ReviewAgentQuery(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeQuery(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	store := h.pipelines.Get(domain.DepartmentReviews)
	ds, err := store.Current()
	if err != nil && req.FileID == "" {
		writeError(w, http.StatusBadRequest,
			"No review data is available for analysis. Please upload review data first.",
			"I need review data to analyze. Please upload some review files first.")
		return
	}
	if req.FileID != "" {
		ds, err = h.loadFile(r, domain.DepartmentReviews, req.FileID)
		if err != nil {
			if errors.Is(err, domain.ErrSchema) {
				writeReviewShapeError(w, ds)
				return
			}
			writeDomainError(w, err)
			return
		}
	}

	if missing := missingReviewColumns(ds); len(missing) > 0 {
		writeReviewShapeError(w, ds)
		return
	}

	answer, err := h.reviewQueries.ProcessQuery(ctx, ds, req.Query)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeQueryResponse(w, r, answer)
}

func (h *Handler) runQuery(w http.ResponseWriter, r *http.Request, dept domain.Department, req api.QueryRequest) {
	ctx := r.Context()

	ds, err := h.dataset(r, dept, req.FileID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var answer string
	if dept == domain.DepartmentReviews {
		answer, err = h.reviewQueries.ProcessQuery(ctx, ds, req.Query)
	} else {
		answer, err = h.salesQueries.ProcessQuery(ctx, ds, req.Query)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeQueryResponse(w, r, answer)
}

// DepartmentData summarizes every stored file for one department.
func (h *Handler) DepartmentData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	dept := domain.ParseDepartment(chi.URLParam(r, "name"))
	if !dept.Valid() {
		writeError(w, http.StatusBadRequest, "unknown department", "")
		return
	}

	stored := h.catalog.DepartmentFiles(dept)
	response := api.DepartmentDataResponse{
		Success:    true,
		Department: string(dept),
		Files:      []api.FileMetrics{},
	}
	combined := &api.CombinedMetrics{}
	ratingSum := 0.0
	ratingCount := 0

	for _, f := range stored {
		ds, err := ingest.ReadFile(f.Path)
		if err != nil {
			logger.Warn().Err(err).Str("path", f.Path).Msg("skipping unreadable stored file")
			continue
		}
		metrics := api.FileMetrics{
			FileName:    f.Name,
			RecordCount: ds.RowCount(),
			ColumnCount: ds.ColumnCount(),
			Columns:     ds.Columns,
			UploadDate:  f.ModTime.Format("2006-01-02 15:04:05"),
		}
		combined.TotalRecords += ds.RowCount()

		switch dept {
		case domain.DepartmentReviews:
			combined.ReviewCount += ds.RowCount()
			for _, rating := range ds.NumericColumn(domain.ColOverall) {
				ratingSum += rating
				ratingCount++
			}
		default:
			total := sales.TotalSales(ds)
			metrics.TotalAmount = total
			if dept == domain.DepartmentInventory {
				combined.TotalInventory += total
			} else {
				combined.TotalSales += total
			}
		}
		response.Files = append(response.Files, metrics)
	}
	if ratingCount > 0 {
		combined.AverageRating = ratingSum / float64(ratingCount)
	}
	if len(response.Files) > 0 {
		response.Combined = combined
	}

	if ds, err := h.pipelines.Get(dept).Current(); err == nil && dept != domain.DepartmentReviews {
		if labels, values, err := sales.MonthlyTrend(ds); err == nil {
			response.Monthly = &api.ChartSeries{
				Labels: labels, Values: values,
				Title: "Sales Over Time", Type: "line",
			}
		}
	} else if err == nil && dept == domain.DepartmentReviews {
		if summary, err := reviews.Summarize(ds); err == nil {
			response.Combined = combinedFromReviewSummary(summary, combined)
		}
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().Err(err).Msg("failed to encode department data")
	}
}

func combinedFromReviewSummary(summary *reviews.DatasetSummary, base *api.CombinedMetrics) *api.CombinedMetrics {
	out := *base
	out.ReviewCount = summary.TotalReviews
	out.AverageRating = summary.AverageRating
	out.RatingDistribution = summary.RatingDistribution
	if out.TotalRecords == 0 {
		out.TotalRecords = summary.TotalReviews
	}
	return &out
}

// Visualization renders one review chart by name.
func (h *Handler) Visualization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	chartType := chi.URLParam(r, "type")

	ds, err := h.pipelines.Get(domain.DepartmentReviews).Current()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var chart api.ChartSeries
	switch chartType {
	case "rating":
		labels, values, err := reviews.RatingDistribution(ds)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		chart = api.ChartSeries{Labels: labels, Values: values, Title: "Rating Distribution", Type: "bar"}
	case "sentiment":
		dist, err := reviews.SentimentDistribution(ds)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		for _, label := range []string{"Positive", "Neutral", "Negative"} {
			chart.Labels = append(chart.Labels, label)
			chart.Values = append(chart.Values, float64(dist[label]))
		}
		chart.Title = "Sentiment Distribution"
		chart.Type = "pie"
	case "keywords":
		keywords, err := reviews.ExtractKeywords(ds, h.analyzer, r.URL.Query().Get("sentiment"), 10)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		for _, k := range keywords {
			chart.Labels = append(chart.Labels, k.Word)
			chart.Values = append(chart.Values, float64(k.Count))
		}
		chart.Title = "Common Keywords"
		chart.Type = "bar"
	default:
		writeError(w, http.StatusBadRequest, "unknown visualization type", "")
		return
	}

	response := api.VisualizationResponse{Success: true, Type: chartType, Chart: chart}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().Err(err).Msg("failed to encode visualization")
	}
}

// ASINSummary lists per-product aggregates for the loaded review data.
// With ?synthesize=true, placeholder product ids and ratings stand in for
// missing columns; the response says so.
func (h *Handler) ASINSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	ds, err := h.datasetLenient(r, domain.DepartmentReviews, r.URL.Query().Get("file_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	synthesized := false
	if opt, _ := strconv.ParseBool(r.URL.Query().Get("synthesize")); opt {
		ds, synthesized = reviews.SynthesizeMissing(ctx, ds)
	}

	products, err := reviews.ASINSummaries(ds)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	response := api.ASINSummaryResponse{
		Success:     true,
		Summary:     toASINSummaries(products),
		Synthesized: synthesized,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().Err(err).Msg("failed to encode asin summary")
	}
}

// Topics reports the dominant review terms as lightweight topics.
func (h *Handler) Topics(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	ds, err := h.pipelines.Get(domain.DepartmentReviews).Current()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	keywords, err := reviews.ExtractKeywords(ds, h.analyzer, "", topicTermCap)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	response := api.TopicsResponse{Success: true}
	for _, k := range keywords {
		response.Topics = append(response.Topics, api.KeywordCount{Word: k.Word, Count: k.Count})
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().Err(err).Msg("failed to encode topics")
	}
}

// ReviewSummary returns whole-dataset review aggregates.
func (h *Handler) ReviewSummary(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	ds, err := h.pipelines.Get(domain.DepartmentReviews).Current()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	summary, err := reviews.Summarize(ds)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	response := api.ReviewSummaryResponse{
		Success:            true,
		TotalReviews:       summary.TotalReviews,
		UniqueProducts:     summary.UniqueProducts,
		AverageRating:      summary.AverageRating,
		RatingDistribution: summary.RatingDistribution,
		ReviewsPerCategory: summary.ReviewsPerCategory,
		TopProducts:        toASINSummaries(summary.TopProducts),
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().Err(err).Msg("failed to encode review summary")
	}
}

// Sentiment runs the text-based sentiment report.
func (h *Handler) Sentiment(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	ds, err := h.pipelines.Get(domain.DepartmentReviews).Current()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	result, err := h.analyzer.AnalyzeDataset(ds)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	response := api.SentimentResponse{Success: true, Distribution: result.Distribution}
	if result.HasCorrelation {
		response.Correlation = map[string]float64{"pearson": result.RatingCorrelation}
	}
	for _, ex := range result.Examples {
		response.Examples = append(response.Examples, api.SentimentExample{
			Sentiment: ex.Sentiment,
			Text:      ex.Text,
			Rating:    ex.Rating,
			Score:     ex.Score,
		})
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().Err(err).Msg("failed to encode sentiment")
	}
}

// Keywords extracts frequent words, optionally filtered by sentiment.
func (h *Handler) Keywords(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	ds, err := h.pipelines.Get(domain.DepartmentReviews).Current()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	sentiment := r.URL.Query().Get("sentiment")
	maxWords := 0
	if v := r.URL.Query().Get("max"); v != "" {
		maxWords, _ = strconv.Atoi(v)
	}
	keywords, err := reviews.ExtractKeywords(ds, h.analyzer, sentiment, maxWords)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	response := api.KeywordsResponse{Success: true, Sentiment: sentiment}
	for _, k := range keywords {
		response.Keywords = append(response.Keywords, api.KeywordCount{Word: k.Word, Count: k.Count})
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().Err(err).Msg("failed to encode keywords")
	}
}

// SummarizeReviews answers with a product or dataset review summary.
func (h *Handler) SummarizeReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	ds, err := h.pipelines.Get(domain.DepartmentReviews).Current()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	asin := r.URL.Query().Get("asin")
	summary, err := reviews.SummarizeProduct(ctx, ds, asin, h.narrator, h.analyzer)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	response := api.SummarizeResponse{Success: true, ASIN: asin, Summary: summary}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().Err(err).Msg("failed to encode review summarization")
	}
}

// dataset resolves the dataset for a request: a specific stored file when
// fileID is set, the loaded pipeline dataset otherwise.
func (h *Handler) dataset(r *http.Request, dept domain.Department, fileID string) (*domain.Dataset, error) {
	if fileID != "" {
		return h.loadFile(r, dept, fileID)
	}
	return h.pipelines.Get(dept).Current()
}

// datasetLenient is the analysis-path counterpart of dataset: a stored file
// is read without the pipeline's required-column gate, so any tabular file
// can be analyzed and each chart degrades on its own missing columns.
func (h *Handler) datasetLenient(r *http.Request, dept domain.Department, fileID string) (*domain.Dataset, error) {
	if fileID == "" {
		return h.pipelines.Get(dept).Current()
	}
	path, err := h.catalog.Locate(dept, fileID)
	if err != nil {
		return nil, err
	}
	ds, err := ingest.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if dept == domain.DepartmentReviews {
		return schema.PrepareReviews(ds), nil
	}
	return schema.PrepareSales(ds), nil
}

func (h *Handler) loadFile(r *http.Request, dept domain.Department, fileID string) (*domain.Dataset, error) {
	path, err := h.catalog.Locate(dept, fileID)
	if err != nil {
		return nil, err
	}
	return h.pipelines.Get(dept).LoadFiles(r.Context(), []string{path})
}

func missingReviewColumns(ds *domain.Dataset) []string {
	var missing []string
	for _, col := range reviewRequiredColumns {
		if ds == nil || !ds.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

func toASINSummaries(products []reviews.ProductSummary) []api.ASINSummary {
	out := make([]api.ASINSummary, 0, len(products))
	for _, p := range products {
		out = append(out, api.ASINSummary{
			ASIN:          p.ASIN,
			ReviewCount:   p.ReviewCount,
			AverageRating: p.AverageRating,
		})
	}
	return out
}

func decodeQuery(w http.ResponseWriter, r *http.Request) (api.QueryRequest, bool) {
	var req api.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return req, false
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest,
			"No query provided. Please include a 'query' field in your request.", "")
		return req, false
	}
	return req, true
}

func writeQueryResponse(w http.ResponseWriter, r *http.Request, answer string) {
	response := api.QueryResponse{Success: true, Response: narrative.NormalizeMarkdown(answer)}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode query response")
	}
}

func writeReviewShapeError(w http.ResponseWriter, ds *domain.Dataset) {
	missing := missingReviewColumns(ds)
	writeError(w, http.StatusBadRequest,
		"The loaded data does not appear to be review data. Missing required columns: "+strings.Join(missing, ", "),
		"I can't process this query because the loaded data does not appear to be review data. "+
			"Please upload review data that contains reviewer ratings and review text.")
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, domain.ErrNoData), errors.Is(err, domain.ErrSchema), errors.Is(err, domain.ErrIngest):
		writeError(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, domain.ErrExternal):
		writeError(w, http.StatusBadGateway, err.Error(), "")
	default:
		writeError(w, http.StatusInternalServerError, err.Error(), "")
	}
}

func writeError(w http.ResponseWriter, status int, message, fallback string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: message, Response: fallback})
}
