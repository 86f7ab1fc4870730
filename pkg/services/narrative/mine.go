package narrative

import (
	"regexp"
	"strconv"
	"strings"
)

const recommendationLimit = 5

// Recommendation extraction works on generated or templated prose, so the
// patterns cover numbered lists, bullet lists and advisory sentences.
var recommendationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d+\.\s+([\w\s,]+\w)\.`),
	regexp.MustCompile(`•\s+([\w\s,]+\w)\.`),
	regexp.MustCompile(`(?:recommend|suggest|advise|propose).*?(?:to\s+)?([\w\s,]+\w)\.`),
	regexp.MustCompile(`(?:should|could|would\s+benefit\s+from).*?([\w\s,]+\w)\.`),
}

var (
	sentenceSplit  = regexp.MustCompile(`\.(?:\s+|\n+)`)
	advisoryMarker = regexp.MustCompile(`(?i)(?:recommend|suggest|should|could|advise|consider|important|focus\s+on)`)
)

// ExtractRecommendations pulls action items out of analysis prose.
func ExtractRecommendations(text string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(rec string) {
		rec = strings.TrimSpace(rec)
		if rec == "" || seen[strings.ToLower(rec)] {
			return
		}
		seen[strings.ToLower(rec)] = true
		out = append(out, rec)
	}

	for _, pattern := range recommendationPatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			add(m[1])
			if len(out) >= recommendationLimit {
				return out
			}
		}
	}
	if len(out) > 0 {
		return out
	}

	// No structured items; keep advisory sentences instead.
	for _, sentence := range sentenceSplit.Split(text, -1) {
		if advisoryMarker.MatchString(sentence) {
			add(sentence)
			if len(out) >= recommendationLimit {
				return out
			}
		}
	}
	if len(out) > 0 {
		return out
	}

	return []string{
		"Review the analysis for opportunities to improve performance",
		"Monitor the highlighted metrics over the coming periods",
		"Collect more data to refine these insights",
	}
}

// MinedSeries is one label/value series recovered from analysis text.
type MinedSeries struct {
	Labels []string
	Values []float64
}

type sectionPattern struct {
	key      string
	patterns []*regexp.Regexp
}

// Section headers the analysis templates emit, with tolerant variants for
// generated prose. (?s) lets the block span lines up to the next blank
// line.
var chartSections = []sectionPattern{
	{
		key: "sales_by_category",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?si)sales\s+by\s+category:?(.*?)(?:\n\n|\z)`),
			regexp.MustCompile(`(?si)category\s+breakdown:?(.*?)(?:\n\n|\z)`),
			regexp.MustCompile(`(?si)top\s+categories[^:\n]*:?(.*?)(?:\n\n|\z)`),
			regexp.MustCompile(`(?si)revenue\s+by\s+category:?(.*?)(?:\n\n|\z)`),
		},
	},
	{
		key: "sales_over_time",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?si)sales\s+over\s+time:?(.*?)(?:\n\n|\z)`),
			regexp.MustCompile(`(?si)monthly\s+sales[^:\n]*:?(.*?)(?:\n\n|\z)`),
			regexp.MustCompile(`(?si)sales\s+trend[^:\n]*:?(.*?)(?:\n\n|\z)`),
		},
	},
}

var amountPattern = regexp.MustCompile(`[\d,]+\.?\d*`)

// MineChartData scrapes label/amount pairs out of analysis text for chart
// keys the aggregation pass could not fill.
func MineChartData(text string) map[string]MinedSeries {
	out := map[string]MinedSeries{}
	for _, section := range chartSections {
		for _, pattern := range section.patterns {
			m := pattern.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			series := parseSeries(m[1])
			if len(series.Labels) > 0 {
				out[section.key] = series
				break
			}
		}
	}
	return out
}

func parseSeries(block string) MinedSeries {
	var series MinedSeries
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•|"))
		if line == "" {
			continue
		}
		label, rest, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		label = strings.TrimSpace(strings.Trim(label, "*"))
		amount := amountPattern.FindString(rest)
		if label == "" || amount == "" {
			continue
		}
		value, err := strconv.ParseFloat(strings.ReplaceAll(amount, ",", ""), 64)
		if err != nil {
			continue
		}
		series.Labels = append(series.Labels, label)
		series.Values = append(series.Values, value)
	}
	return series
}
