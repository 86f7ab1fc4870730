package api

// ChartSeries is one renderable chart. Labels and Values are positionally
// aligned.
type ChartSeries struct {
	Labels      []string  `json:"labels"`
	Values      []float64 `json:"values"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type,omitempty"`
	// Synthesized marks series built from placeholder values rather than
	// the uploaded data. Frontends render these with a caveat.
	Synthesized bool `json:"synthesized,omitempty"`
}

type Insights struct {
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
}

type AnalysisResponse struct {
	Success    bool                   `json:"success"`
	Department string                 `json:"department"`
	FileID     string                 `json:"file_id,omitempty"`
	ChartData  map[string]ChartSeries `json:"chart_data"`
	Insights   Insights               `json:"insights"`
}

type QueryRequest struct {
	Query      string `json:"query"`
	Department string `json:"department,omitempty"`
	FileID     string `json:"file_id,omitempty"`
}

type QueryResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
}
