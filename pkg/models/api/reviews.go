package api

// ASINSummary is one product's review aggregate.
type ASINSummary struct {
	ASIN          string  `json:"asin"`
	ReviewCount   int     `json:"reviewCount"`
	AverageRating float64 `json:"averageRating"`
}

type ASINSummaryResponse struct {
	Success     bool          `json:"success"`
	Summary     []ASINSummary `json:"summary"`
	Synthesized bool          `json:"synthesized,omitempty"`
}

type ReviewSummaryResponse struct {
	Success            bool           `json:"success"`
	TotalReviews       int            `json:"total_reviews"`
	UniqueProducts     int            `json:"unique_products"`
	AverageRating      float64        `json:"average_rating"`
	RatingDistribution map[string]int `json:"rating_distribution"`
	ReviewsPerCategory map[string]int `json:"reviews_per_category,omitempty"`
	TopProducts        []ASINSummary  `json:"top_products"`
}

// SentimentExample pairs a bucket with one representative review.
type SentimentExample struct {
	Sentiment string  `json:"sentiment"`
	Text      string  `json:"text"`
	Rating    float64 `json:"rating,omitempty"`
	Score     float64 `json:"score"`
}

type SentimentResponse struct {
	Success      bool               `json:"success"`
	Distribution map[string]int     `json:"distribution"`
	Correlation  map[string]float64 `json:"rating_correlation,omitempty"`
	Examples     []SentimentExample `json:"examples,omitempty"`
}

type KeywordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

type KeywordsResponse struct {
	Success   bool           `json:"success"`
	Sentiment string         `json:"sentiment,omitempty"`
	Keywords  []KeywordCount `json:"keywords"`
}

type TopicsResponse struct {
	Success bool           `json:"success"`
	Topics  []KeywordCount `json:"topics"`
}

type SummarizeResponse struct {
	Success bool   `json:"success"`
	ASIN    string `json:"asin,omitempty"`
	Summary string `json:"summary"`
}

type VisualizationResponse struct {
	Success bool        `json:"success"`
	Type    string      `json:"type"`
	Chart   ChartSeries `json:"chart"`
}
