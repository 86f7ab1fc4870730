package api

// FileMetrics summarizes one stored file for the department view.
type FileMetrics struct {
	FileName    string   `json:"file_name"`
	RecordCount int      `json:"record_count"`
	ColumnCount int      `json:"column_count"`
	Columns     []string `json:"columns"`
	UploadDate  string   `json:"upload_date"`
	TotalAmount float64  `json:"total_amount,omitempty"`
}

// CombinedMetrics aggregates across a department's files when they share a
// schema.
type CombinedMetrics struct {
	TotalRecords       int             `json:"total_records"`
	TotalSales         float64         `json:"total_sales,omitempty"`
	TotalInventory     float64         `json:"total_inventory,omitempty"`
	ReviewCount        int             `json:"review_count,omitempty"`
	AverageRating      float64         `json:"average_rating,omitempty"`
	RatingDistribution map[string]int  `json:"rating_distribution,omitempty"`
}

type DepartmentDataResponse struct {
	Success    bool             `json:"success"`
	Department string           `json:"department"`
	Files      []FileMetrics    `json:"files"`
	Combined   *CombinedMetrics `json:"combined_metrics,omitempty"`
	Summary    string           `json:"summary,omitempty"`
	Monthly    *ChartSeries     `json:"monthly_series,omitempty"`
}

type DepartmentsResponse struct {
	Success     bool     `json:"success"`
	Departments []string `json:"departments"`
}
