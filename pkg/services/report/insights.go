package report

import (
	"strings"

	"github.com/bi-tools/insighthub/pkg/models/api"
	"github.com/bi-tools/insighthub/pkg/services/narrative"
)

const summaryLimit = 500

// ComposeInsights distills an analysis text into the summary and
// recommendation list the frontend shows next to the charts.
func ComposeInsights(analysisText string) api.Insights {
	return api.Insights{
		Summary:         summaryOf(analysisText),
		Recommendations: narrative.ExtractRecommendations(analysisText),
	}
}

// summaryOf takes the first prose paragraph, skipping headings.
func summaryOf(text string) string {
	for _, block := range strings.Split(text, "\n\n") {
		var lines []string
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			lines = append(lines, line)
		}
		if len(lines) == 0 {
			continue
		}
		summary := strings.Join(lines, " ")
		if len(summary) > summaryLimit {
			summary = summary[:summaryLimit] + "..."
		}
		return summary
	}
	return ""
}
