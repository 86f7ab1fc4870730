package sales

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bi-tools/insighthub/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Query routing tables. The first family with a hit picks the analysis;
// unknown queries fall back to the overview.
var queryRoutes = []struct {
	terms []string
	kind  AnalysisType
}{
	{[]string{"overview", "complete analysis", "comprehensive", "tell me about", "summary"}, AnalysisOverview},
	{[]string{"category", "categories", "product", "products", "top-selling", "best seller"}, AnalysisCategories},
	{[]string{"trend", "overtime", "over time", "pattern", "forecast"}, AnalysisTrends},
	{[]string{"demographic", "customer", "age", "gender", "location", "segment"}, AnalysisDemographics},
	{[]string{"recommend", "suggestion", "improve", "increase", "boost", "action", "actionable"}, AnalysisRecommendations},
}

var (
	quantityPattern = regexp.MustCompile(`quantity\s+(\d+\.?\d*)`)
	pricePattern    = regexp.MustCompile(`price\s+(\d+\.?\d*)`)
	discountPattern = regexp.MustCompile(`discount\s+(\d+\.?\d*)`)
)

// QueryService answers natural language sales questions with template
// analyses over the provided dataset.
type QueryService struct {
	predictor *Predictor
}

func NewQueryService(predictor *Predictor) *QueryService {
	return &QueryService{predictor: predictor}
}

// ProcessQuery routes a query by keywords and returns markdown. Prediction
// requests are handled by the trained model before the keyword routes.
func (s *QueryService) ProcessQuery(ctx context.Context, ds *domain.Dataset, query string) (string, error) {
	logger := zerolog.Ctx(ctx)
	if ds == nil || ds.RowCount() == 0 {
		return "", fmt.Errorf("%w: no sales data loaded", domain.ErrNoData)
	}

	lower := strings.ToLower(query)

	if strings.Contains(lower, "predict") && strings.Contains(lower, "total") {
		return s.predictFromQuery(ctx, ds, lower)
	}

	for _, route := range queryRoutes {
		for _, term := range route.terms {
			if strings.Contains(lower, term) {
				logger.Debug().Str("kind", string(route.kind)).Msg("routed sales query")
				return ComposeAnalysis(ds, route.kind)
			}
		}
	}
	return ComposeAnalysis(ds, AnalysisOverview)
}

// predictFromQuery pulls "quantity N", "price N" and "discount N" out of
// the query, defaulting anything missing.
func (s *QueryService) predictFromQuery(ctx context.Context, ds *domain.Dataset, query string) (string, error) {
	logger := zerolog.Ctx(ctx)

	quantity := extractNumber(quantityPattern, query, 5)
	price := extractNumber(pricePattern, query, 100)
	discount := extractNumber(discountPattern, query, 0.1)

	if !s.predictor.Trained() {
		if err := s.predictor.Train(ds); err != nil {
			return "", err
		}
	}
	prediction, err := s.predictor.Predict(quantity, price, discount)
	if err != nil {
		return "", err
	}

	logger.Info().
		Float64("quantity", quantity).
		Float64("price", price).
		Float64("discount", discount).
		Float64("prediction", prediction).
		Msg("sales prediction")

	return fmt.Sprintf("Predicted total sales for quantity %g, price %g, discount %g: **$%.2f**",
		quantity, price, discount, prediction), nil
}

func extractNumber(re *regexp.Regexp, query string, fallback float64) float64 {
	m := re.FindStringSubmatch(query)
	if len(m) < 2 {
		return fallback
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return fallback
	}
	return v
}
