package api

// UploadedFile describes one successfully ingested upload.
type UploadedFile struct {
	Filename         string     `json:"filename"`
	OriginalFilename string     `json:"original_filename"`
	RowCount         int        `json:"row_count"`
	ColumnCount      int        `json:"column_count"`
	Columns          []string   `json:"columns"`
	Format           string     `json:"format"`
	Department       string     `json:"department"`
	SampleData       [][]string `json:"sample_data"`
	Categories       []string   `json:"categories"`
	SessionID        string     `json:"session_id"`
	Timestamp        string     `json:"timestamp"`
	FilePath         string     `json:"file_path"`
}

// FailedFile describes an upload that could not be processed.
type FailedFile struct {
	Filename         string `json:"filename"`
	OriginalFilename string `json:"original_filename,omitempty"`
	Error            string `json:"error"`
	DetectedFormat   string `json:"detected_format"`
}

type UploadResponse struct {
	Success       bool           `json:"success"`
	FileCount     int            `json:"file_count"`
	UploadedFiles []UploadedFile `json:"uploaded_files"`
	FailedFiles   []FailedFile   `json:"failed_files"`
}

type UploadDirectResponse struct {
	Success     bool   `json:"success"`
	Filename    string `json:"filename"`
	Department  string `json:"department"`
	RowCount    int    `json:"row_count"`
	AnalysisURL string `json:"analysis_url"`
}
